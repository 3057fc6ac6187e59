package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./driveadmin.db"

	// DefaultPageSize is the fixed page size used by listing queries unless
	// the caller asks for a different one.
	DefaultPageSize = 20
)
