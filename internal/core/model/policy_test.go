package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShiftWindowDayShift(t *testing.T) {
	policy := &ShiftPolicy{WorkHourFrom: 9, WorkHourTo: 17}
	checkIn := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

	start, end := policy.ShiftWindow(checkIn, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 10, 17, 0, 0, 0, time.UTC), end)
}

func TestShiftWindowNightShiftEndsNextDay(t *testing.T) {
	policy := &ShiftPolicy{WorkHourFrom: 22, WorkHourTo: 6}
	assert.True(t, policy.IsNightShift())

	checkIn := time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC)
	start, end := policy.ShiftWindow(checkIn, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC), end)
}

func TestShiftWindowFractionalHours(t *testing.T) {
	policy := &ShiftPolicy{WorkHourFrom: 9.5, WorkHourTo: 17.75}
	checkIn := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	start, end := policy.ShiftWindow(checkIn, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 10, 17, 45, 0, 0, time.UTC), end)
}

func TestShiftWindowLocalized(t *testing.T) {
	// Shift hours are clock hours in the device timezone, results in UTC.
	loc := time.FixedZone("UTC+3", 3*3600)
	policy := &ShiftPolicy{WorkHourFrom: 9, WorkHourTo: 17}
	checkIn := time.Date(2026, 3, 10, 6, 30, 0, 0, time.UTC) // 09:30 local

	start, end := policy.ShiftWindow(checkIn, loc)
	assert.Equal(t, time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC), end)
}

func TestSlotContainsWrapsMidnight(t *testing.T) {
	slot := PunchSlot{TimeFrom: 22, TimeTo: 2}
	assert.True(t, slot.Contains(23))
	assert.True(t, slot.Contains(1))
	assert.True(t, slot.Contains(22))
	assert.True(t, slot.Contains(2))
	assert.False(t, slot.Contains(12))
}

func TestMatchSlotSequenceOrder(t *testing.T) {
	// Overlapping windows: the lower sequence wins regardless of list order.
	policy := &ShiftPolicy{
		UsePunchSlots: true,
		Slots: []PunchSlot{
			{PunchType: PunchTypeCheckOut, TimeFrom: 8, TimeTo: 12, Sequence: 20, Active: true},
			{PunchType: PunchTypeCheckIn, TimeFrom: 8, TimeTo: 12, Sequence: 10, Active: true},
		},
	}

	slot, ok := policy.MatchSlot(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), time.UTC)
	assert.True(t, ok)
	assert.Equal(t, PunchTypeCheckIn, slot.PunchType)
}

func TestMatchSlotSkipsInactive(t *testing.T) {
	policy := &ShiftPolicy{
		UsePunchSlots: true,
		Slots: []PunchSlot{
			{PunchType: PunchTypeCheckIn, TimeFrom: 8, TimeTo: 12, Sequence: 10, Active: false},
			{PunchType: PunchTypeCheckOut, TimeFrom: 8, TimeTo: 12, Sequence: 20, Active: true},
		},
	}

	slot, ok := policy.MatchSlot(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), time.UTC)
	assert.True(t, ok)
	assert.Equal(t, PunchTypeCheckOut, slot.PunchType)
}

func TestMatchSlotNoMatch(t *testing.T) {
	policy := &ShiftPolicy{
		UsePunchSlots: true,
		Slots: []PunchSlot{
			{PunchType: PunchTypeCheckIn, TimeFrom: 8, TimeTo: 12, Sequence: 10, Active: true},
		},
	}

	_, ok := policy.MatchSlot(time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC), time.UTC)
	assert.False(t, ok)
}

func TestPolicyValidate(t *testing.T) {
	valid := &ShiftPolicy{AutoCheckoutAfterHours: 20}
	assert.NoError(t, valid.Validate())

	tooLow := &ShiftPolicy{AutoCheckoutAfterHours: 0.5}
	assert.Error(t, tooLow.Validate())

	negativeGap := &ShiftPolicy{AutoCheckoutAfterHours: 20, MinPunchGapMinutes: -1}
	assert.Error(t, negativeGap.Validate())
}

func TestSessionMarkerHelpers(t *testing.T) {
	s := &Session{}
	assert.False(t, s.OnBreak())

	s.AddMarker(MarkerBreakOut, time.Now())
	assert.True(t, s.OnBreak())

	s.AddMarker(MarkerBreakIn, time.Now())
	assert.False(t, s.OnBreak())

	s.AddMarker(MarkerOvertimeStart, time.Now())
	assert.True(t, s.InOvertime())
	assert.False(t, s.AutoClosed())

	s.AddMarker(MarkerAutoClosed, time.Now())
	assert.True(t, s.AutoClosed())
}
