// Package database provides SQLite connectivity for HomeNet.
//
// The database is optional. When enabled it holds the command history
// written by the telemetry publisher; nothing in the request path reads it.
//
// This package manages:
//   - Connection setup with WAL mode and a busy timeout
//   - Forward and backward schema migrations loaded from an fs.FS
//   - Health checks used by the HTTP API
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql. They are registered by the migrations
// package at init time. Each applied migration's checksum is recorded, and
// Migrate refuses to run if an applied file has since been edited.
package database
