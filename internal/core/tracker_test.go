package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"punch.reconciler/internal/core/model"
)

func TestTrackerOpenRejectsSecondSession(t *testing.T) {
	tracker := NewSessionTracker(newFakeSessionRepo())
	ctx := context.Background()

	first := &model.Session{EmployeeID: "emp-1", CheckIn: time.Now().UTC()}
	require.NoError(t, tracker.Open(ctx, first))

	second := &model.Session{EmployeeID: "emp-1", CheckIn: time.Now().UTC()}
	err := tracker.Open(ctx, second)
	assert.ErrorIs(t, err, model.ErrSessionConflict)

	// A different employee is unaffected.
	other := &model.Session{EmployeeID: "emp-2", CheckIn: time.Now().UTC()}
	assert.NoError(t, tracker.Open(ctx, other))
}

func TestTrackerCloseRejectsClosedSession(t *testing.T) {
	repo := newFakeSessionRepo()
	tracker := NewSessionTracker(repo)
	ctx := context.Background()

	checkIn := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session := &model.Session{EmployeeID: "emp-1", CheckIn: checkIn}
	require.NoError(t, tracker.Open(ctx, session))

	policy := dayShiftPolicy()
	policy.AutoCheckoutAfterHours = 20
	require.NoError(t, tracker.Close(ctx, session, checkIn.Add(8*time.Hour), policy, time.UTC))
	assert.Equal(t, model.StatusOnTime, session.Status)

	err := tracker.Close(ctx, session, checkIn.Add(9*time.Hour), policy, time.UTC)
	assert.ErrorIs(t, err, model.ErrSessionClosed)
}

func TestTrackerLockIsPerEmployee(t *testing.T) {
	tracker := NewSessionTracker(newFakeSessionRepo())

	unlock := tracker.Lock("emp-1")
	// A second employee's lock is independent and must not block.
	done := make(chan struct{})
	go func() {
		u := tracker.Lock("emp-2")
		u()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for a different employee blocked")
	}
	unlock()
}
