package device

import (
	"context"
	"time"
)

// HistoryEntry is one recorded state change.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	DeviceIP  string    `json:"device_ip"`
	Command   string    `json:"command"`
	State     State     `json:"state"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryRepository stores applied commands and the state they produced.
// It is write-only from the service's point of view: device state is never
// restored from it.
//
// Implementations must be thread-safe.
type HistoryRepository interface {
	// RecordChange stores c.
	RecordChange(ctx context.Context, c Change) error

	// GetHistory returns entries for ip, newest first. limit <= 0 selects
	// the default; larger values are clamped.
	GetHistory(ctx context.Context, ip string, limit int) ([]HistoryEntry, error)

	// PruneHistory deletes entries older than olderThan and reports how
	// many were removed.
	PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error)
}
