package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
)

const (
	pingTimeout = 5 * time.Second

	dirMode  os.FileMode = 0o750
	fileMode os.FileMode = 0o600
)

// Config describes the SQLite file to open.
type Config struct {
	Path string

	// WALMode lets API reads proceed while the telemetry worker writes.
	WALMode bool

	// BusyTimeout is how long a statement waits for a lock, in seconds.
	BusyTimeout int
}

// dsn builds the go-sqlite3 connection string for cfg.
func (cfg Config) dsn() string {
	q := url.Values{}
	q.Set("_busy_timeout", strconv.Itoa(cfg.BusyTimeout*1000))
	q.Set("_foreign_keys", "on")
	if cfg.WALMode {
		q.Set("_journal_mode", "WAL")
		q.Set("_synchronous", "NORMAL")
	}
	return "file:" + cfg.Path + "?" + q.Encode()
}

// DB is the command history database.
type DB struct {
	*sql.DB
	path string
}

// Open creates the database file and its directory if needed and pings it.
//
// The pool is limited to one connection since SQLite has a single writer.
// The file is made owner-only (0600) once it exists.
//
// Parameters:
//   - cfg: Path, WAL mode and busy timeout, usually from config.DatabaseConfig
//
// Returns:
//   - *DB: An open handle; call Migrate before using the history tables
//   - error: For an empty path, an uncreatable directory or a failed ping
func Open(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("opening database: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirMode); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("pinging database %s: %w", cfg.Path, err)
	}
	_ = os.Chmod(cfg.Path, fileMode) //nolint:errcheck // created lazily by the driver

	return &DB{DB: conn, path: cfg.Path}, nil
}

// Close is safe on a nil DB.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

func (db *DB) Path() string { return db.path }

// HealthCheck confirms the connection answers a query.
func (db *DB) HealthCheck(ctx context.Context) error {
	var n int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&n); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	return nil
}
