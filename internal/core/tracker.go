package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"punch.reconciler/internal/core/model"
	"punch.reconciler/internal/ports/repository"
)

// SessionTracker is the authoritative open-session lookup. It guards the
// central invariant: at most one open session per employee at any time.
// Batches touching the same employee serialize on a per-employee lock; the
// storage layer additionally rejects concurrent opens with a unique index.
type SessionTracker struct {
	sessions repository.SessionRepository

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSessionTracker wires a tracker around a session repository.
func NewSessionTracker(sessions repository.SessionRepository) *SessionTracker {
	return &SessionTracker{
		sessions: sessions,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Lock acquires the per-employee mutex and returns the unlock func.
// Concurrent batches that can touch the same employee must hold this lock
// across the open-session read and the subsequent mutation.
func (t *SessionTracker) Lock(employeeID string) func() {
	t.mu.Lock()
	l, ok := t.locks[employeeID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[employeeID] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// GetOpen returns the most recent open session for the employee, or nil.
func (t *SessionTracker) GetOpen(ctx context.Context, employeeID string) (*model.Session, error) {
	return t.sessions.FindOpen(ctx, employeeID)
}

// ListOpen returns all open sessions, for the stale-session sweep.
func (t *SessionTracker) ListOpen(ctx context.Context) ([]*model.Session, error) {
	return t.sessions.ListOpen(ctx)
}

// Open creates a new open session. It fails with model.ErrSessionConflict
// when the employee already has one; callers must close or verify first.
func (t *SessionTracker) Open(ctx context.Context, session *model.Session) error {
	existing, err := t.sessions.FindOpen(ctx, session.EmployeeID)
	if err != nil {
		return fmt.Errorf("open session lookup: %w", err)
	}
	if existing != nil {
		return model.ErrSessionConflict
	}
	return t.sessions.Create(ctx, session)
}

// Close sets the check-out and computes the final status against the shift
// policy. It fails with model.ErrSessionClosed when the session is already
// closed.
func (t *SessionTracker) Close(ctx context.Context, session *model.Session, checkOut time.Time, policy *model.ShiftPolicy, loc *time.Location) error {
	if !session.IsOpen() {
		return model.ErrSessionClosed
	}

	out := checkOut
	session.CheckOut = &out

	status := ClassifySession(session, policy, loc)
	session.Status = status.Status
	session.LateMinutes = status.LateMinutes
	session.EarlyLeaveMinutes = status.EarlyLeaveMinutes
	session.OvertimeMinutes = status.OvertimeMinutes

	return t.sessions.Update(ctx, session)
}
