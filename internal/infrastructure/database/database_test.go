package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "homenet.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestConfigDSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    []string
		notWant []string
	}{
		{
			name:    "rollback journal",
			cfg:     Config{Path: "/var/lib/homenet.db", BusyTimeout: 2},
			want:    []string{"file:/var/lib/homenet.db?", "_busy_timeout=2000", "_foreign_keys=on"},
			notWant: []string{"_journal_mode"},
		},
		{
			name: "wal",
			cfg:  Config{Path: "h.db", WALMode: true},
			want: []string{"_busy_timeout=0", "_journal_mode=WAL", "_synchronous=NORMAL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := tt.cfg.dsn()
			for _, s := range tt.want {
				if !strings.Contains(dsn, s) {
					t.Errorf("dsn %q missing %q", dsn, s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(dsn, s) {
					t.Errorf("dsn %q contains %q", dsn, s)
				}
			}
		})
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "homenet.db")

	db, err := Open(Config{Path: path, WALMode: true, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file: %v", err)
	}
	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}

	var mode string
	if err := db.QueryRowContext(context.Background(), "PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open(Config{}); err == nil {
		t.Error("Open() with empty path succeeded")
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.HealthCheck(ctx); err != nil {
		t.Fatalf("HealthCheck() error = %v", err)
	}
	_ = db.DB.Close()
	if err := db.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() after close succeeded")
	}
}

func TestClose_Nil(t *testing.T) {
	var db *DB
	if err := db.Close(); err != nil {
		t.Errorf("nil Close() = %v", err)
	}
}
