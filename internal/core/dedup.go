package core

import (
	"context"
	"fmt"
	"time"

	"punch.reconciler/internal/ports/repository"
)

// DefaultDuplicateWindow is the near-duplicate rejection window applied
// when no override is configured.
const DefaultDuplicateWindow = 60 * time.Second

// Deduplicator rejects exact and near-duplicate punches for the same
// (device, badge) pair. It only renders a verdict; it never mutates state.
type Deduplicator struct {
	punches repository.PunchRepository
	window  time.Duration
}

// NewDeduplicator creates a deduplicator with the given near-duplicate
// window. A non-positive window falls back to the default.
func NewDeduplicator(punches repository.PunchRepository, window time.Duration) *Deduplicator {
	if window <= 0 {
		window = DefaultDuplicateWindow
	}
	return &Deduplicator{punches: punches, window: window}
}

// IsDuplicate reports whether a candidate punch must be rejected: either an
// exact (device, badge, timestamp) match exists, or another punch for the
// same pair sits within the near-duplicate window in pending or processed
// state. Punches in a batch must be checked against already persisted
// records, so within a batch the earlier punch wins.
func (d *Deduplicator) IsDuplicate(ctx context.Context, deviceID, badgeID string, ts time.Time) (bool, error) {
	exact, err := d.punches.ExistsExact(ctx, deviceID, badgeID, ts)
	if err != nil {
		return false, fmt.Errorf("exact duplicate lookup: %w", err)
	}
	if exact {
		return true, nil
	}

	near, err := d.punches.ExistsNear(ctx, deviceID, badgeID, ts.Add(-d.window), ts.Add(d.window))
	if err != nil {
		return false, fmt.Errorf("near duplicate lookup: %w", err)
	}
	return near, nil
}
