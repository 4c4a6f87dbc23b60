package plinth

// Settings holds the connection settings for every supported backend.
// It is read once at strategy construction; only the section for the
// selected backend is consulted. Each strategy validates its own section
// when building a connection string.
type Settings struct {
	// Backend selects the database backend: postgresql, sqlite, or mysql.
	Backend string `mapstructure:"backend" validate:"required"`

	Postgres PostgresSettings `mapstructure:"postgres"`
	SQLite   SQLiteSettings   `mapstructure:"sqlite"`
	MySQL    MySQLSettings    `mapstructure:"mysql"`
}

// PostgresSettings holds PostgreSQL credentials. User, Host, and Database
// are required when the postgresql backend is selected.
type PostgresSettings struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
}

// SQLiteSettings holds the SQLite database file path. Relative paths are
// made absolute at construction and missing parent directories created.
type SQLiteSettings struct {
	Path string `mapstructure:"path"`
}

// MySQLSettings holds MySQL credentials. User and Database must be
// non-empty when the mysql backend is selected.
type MySQLSettings struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
}
