// Package database opens the GORM connection backing the entity store.
//
// # Connect
//
// Connect selects a dialector from Config.Driver: MySQL for deployments and SQLite for
// local runs and tests (":memory:" works, with the pool pinned to one connection).
// The connection is verified with a ping bounded by TimeoutSeconds.
//
// # Schema Inspection
//
// GetTableColumns reads column definitions with SHOW COLUMNS or PRAGMA table_info.
// MissingColumns builds on it so the entity store can refuse to start against a table
// that lacks the columns it reads and writes.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	missing, err := database.MissingColumns(db, "entities", []string{"id", "status"})
package database
