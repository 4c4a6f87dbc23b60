// Package plinth holds the shared types of the plinth service boilerplate:
// the connection settings for every supported database backend, the session
// contract handed to units of work, and the classified error taxonomy used
// to decide whether a failure is retried, recovered, or fatal.
//
// The backend-specific engine implementations live under database/, the
// HTTP surface under http/, and the process entry point under cmd/plinth.
package plinth
