package config

import "time"

const (
	DefaultHTTPPort        = "8080"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultPGMaxConns      = 5
	DefaultPGMinConns      = 1
	DefaultPGMaxIdleTime   = 2 * time.Minute
	DefaultSQLMaxOpenConns = 5
	DefaultSQLMaxIdleConns = 1
	DefaultConnMaxLifetime = 30 * time.Minute
	DefaultMigratePings    = uint64(30)
	DefaultMigratePingWait = 500 * time.Millisecond
)
