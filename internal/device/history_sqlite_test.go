package device

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupHistoryTestDB creates an in-memory database with the command_history table.
func setupHistoryTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// One connection, or each would get its own empty :memory: database.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE command_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_ip TEXT NOT NULL,
			command TEXT NOT NULL,
			state TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT 'line',
			created_at INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func TestSQLiteHistoryRepository_RecordAndGet(t *testing.T) {
	repo := NewSQLiteHistoryRepository(setupHistoryTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

	changes := []Change{
		{Info: Info{IP: Light1IP}, Command: CmdOn, Source: SourceLine, State: State{"power": true, "brightness": 100}, At: base},
		{Info: Info{IP: Light1IP}, Command: "BRIGHTNESS=40", Source: SourceAPI, State: State{"power": true, "brightness": 40}, At: base.Add(time.Second)},
		{Info: Info{IP: Light2IP}, Command: CmdOn, State: State{"power": true}, At: base},
	}
	for _, c := range changes {
		if err := repo.RecordChange(ctx, c); err != nil {
			t.Fatalf("RecordChange() error = %v", err)
		}
	}

	entries, err := repo.GetHistory(ctx, Light1IP, 0)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	newest := entries[0]
	if newest.Command != "BRIGHTNESS=40" || newest.Source != SourceAPI {
		t.Errorf("newest entry = %+v", newest)
	}
	// JSON numbers decode as float64.
	if newest.State["brightness"] != float64(40) {
		t.Errorf("state brightness = %v", newest.State["brightness"])
	}
	if !newest.CreatedAt.Equal(base.Add(time.Second)) {
		t.Errorf("CreatedAt = %v", newest.CreatedAt)
	}

	other, err := repo.GetHistory(ctx, Light2IP, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 1 || other[0].Source != SourceLine {
		t.Errorf("light 2 history = %+v", other)
	}
}

func TestSQLiteHistoryRepository_Validation(t *testing.T) {
	repo := NewSQLiteHistoryRepository(setupHistoryTestDB(t))
	ctx := context.Background()

	if err := repo.RecordChange(ctx, Change{Command: CmdOn}); err == nil {
		t.Error("RecordChange() without IP should fail")
	}
	if err := repo.RecordChange(ctx, Change{Info: Info{IP: Light1IP}}); err == nil {
		t.Error("RecordChange() without command should fail")
	}
	if _, err := repo.GetHistory(ctx, "", 10); err == nil {
		t.Error("GetHistory() without IP should fail")
	}
	if _, err := repo.PruneHistory(ctx, 0); err == nil {
		t.Error("PruneHistory(0) should fail")
	}
}

func TestSQLiteHistoryRepository_LimitClamped(t *testing.T) {
	repo := NewSQLiteHistoryRepository(setupHistoryTestDB(t))
	ctx := context.Background()

	for i := 0; i < maxHistoryLimit+20; i++ {
		if err := repo.RecordChange(ctx, Change{Info: Info{IP: CameraIP}, Command: CmdStartRecording}); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := repo.GetHistory(ctx, CameraIP, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != maxHistoryLimit {
		t.Errorf("len(entries) = %d, want %d", len(entries), maxHistoryLimit)
	}

	entries, _ = repo.GetHistory(ctx, CameraIP, -1)
	if len(entries) != defaultHistoryLimit {
		t.Errorf("default len(entries) = %d, want %d", len(entries), defaultHistoryLimit)
	}
}

func TestSQLiteHistoryRepository_Prune(t *testing.T) {
	repo := NewSQLiteHistoryRepository(setupHistoryTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	old := Change{Info: Info{IP: ThermostatIP}, Command: "SET=25", At: now.Add(-48 * time.Hour)}
	recent := Change{Info: Info{IP: ThermostatIP}, Command: "SET=20", At: now}
	for _, c := range []Change{old, recent} {
		if err := repo.RecordChange(ctx, c); err != nil {
			t.Fatal(err)
		}
	}

	n, err := repo.PruneHistory(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("PruneHistory() error = %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d rows, want 1", n)
	}

	entries, _ := repo.GetHistory(ctx, ThermostatIP, 10)
	if len(entries) != 1 || entries[0].Command != "SET=20" {
		t.Errorf("remaining = %+v", entries)
	}
}
