// Package constants provides shared constants used throughout the data engine.
package constants

import "time"

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Repository constants
const (
	// DriverMemory selects the in-memory repository.
	DriverMemory = "memory"

	// DriverSQLite selects the SQLite repository.
	DriverSQLite = "sqlite"

	// DefaultSQLitePath is where the SQLite repository lives when no path is configured.
	DefaultSQLitePath = "./data/dataengine.db"

	// DefaultSnapshotPath is where the memory repository snapshot is kept between CLI runs.
	DefaultSnapshotPath = "./data/catalog.yaml"

	// SQLiteBusyTimeout bounds how long a writer waits on a locked database.
	SQLiteBusyTimeout = 5 * time.Second
)

// Application constants
const (
	// AppName is the binary and config file base name.
	AppName = "dataengine"

	// EnvPrefix prefixes every environment variable read through viper.
	EnvPrefix = "DATAENGINE"

	// DefaultUser is the user recorded when none is configured.
	DefaultUser = "dataengine"

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 2 * time.Minute
)
