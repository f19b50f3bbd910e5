package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// SQLiteHistoryRepository implements HistoryRepository on the
// command_history table.
type SQLiteHistoryRepository struct {
	db *sql.DB
}

// NewSQLiteHistoryRepository creates a repository on an open connection.
func NewSQLiteHistoryRepository(db *sql.DB) *SQLiteHistoryRepository {
	return &SQLiteHistoryRepository{db: db}
}

// RecordChange inserts one row for c. A zero timestamp is replaced with
// the current time and an empty source with SourceLine.
func (r *SQLiteHistoryRepository) RecordChange(ctx context.Context, c Change) error {
	if c.IP == "" {
		return errors.New("device ip is required")
	}
	if c.Command == "" {
		return errors.New("command is required")
	}

	source := c.Source
	if source == "" {
		source = SourceLine
	}
	at := c.At
	if at.IsZero() {
		at = time.Now()
	}
	state := c.State
	if state == nil {
		state = State{}
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshalling state: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO command_history (device_ip, command, state, source, created_at) VALUES (?, ?, ?, ?, ?)",
		c.IP, c.Command, string(stateJSON), source, at.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("inserting command history: %w", err)
	}
	return nil
}

// GetHistory returns up to limit entries for ip, newest first (default 50,
// max 200).
func (r *SQLiteHistoryRepository) GetHistory(ctx context.Context, ip string, limit int) ([]HistoryEntry, error) {
	if ip == "" {
		return nil, errors.New("device ip is required")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_ip, command, state, source, created_at
		 FROM command_history
		 WHERE device_ip = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		ip, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying command history: %w", err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0, limit)
	for rows.Next() {
		var e HistoryEntry
		var stateJSON string
		var createdMillis int64

		if err := rows.Scan(&e.ID, &e.DeviceIP, &e.Command, &stateJSON, &e.Source, &createdMillis); err != nil {
			return nil, fmt.Errorf("scanning command history: %w", err)
		}
		if err := json.Unmarshal([]byte(stateJSON), &e.State); err != nil {
			return nil, fmt.Errorf("unmarshalling state: %w", err)
		}
		e.CreatedAt = time.UnixMilli(createdMillis).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating command history: %w", err)
	}
	return entries, nil
}

// PruneHistory deletes entries created before now-olderThan.
func (r *SQLiteHistoryRepository) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).UnixMilli()
	result, err := r.db.ExecContext(ctx, "DELETE FROM command_history WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning command history: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading affected rows: %w", err)
	}
	return n, nil
}
