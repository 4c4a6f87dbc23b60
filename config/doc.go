// Package config loads the service configuration from defaults, YAML
// config files, environment variables, and CLI flags, in increasing order
// of precedence.
//
// Environment variables use the PLINTH_ prefix with dots replaced by
// underscores (PLINTH_DATABASE_BACKEND). The legacy unprefixed names used
// by existing deployment tooling (DB, USERDB, PASSWORDDB, NAME_SERVICEDB,
// PORT, NAMEDB, MYSQL_*) are bound as aliases.
package config
