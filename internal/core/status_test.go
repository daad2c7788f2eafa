package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"punch.reconciler/internal/core/model"
)

func dayShiftPolicy() *model.ShiftPolicy {
	return &model.ShiftPolicy{
		WorkHourFrom:            9,
		WorkHourTo:              17,
		LateAfterMinutes:        15,
		EarlyLeaveBeforeMinutes: 15,
		HalfDayHours:            4,
		OvertimeAfterHours:      8,
	}
}

func sessionBetween(inHour, inMin, outHour, outMin int) *model.Session {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	out := day.Add(time.Duration(outHour)*time.Hour + time.Duration(outMin)*time.Minute)
	return &model.Session{
		EmployeeID: "emp-1",
		CheckIn:    day.Add(time.Duration(inHour)*time.Hour + time.Duration(inMin)*time.Minute),
		CheckOut:   &out,
	}
}

func TestClassifySessionOnTime(t *testing.T) {
	res := ClassifySession(sessionBetween(9, 0, 17, 0), dayShiftPolicy(), time.UTC)
	assert.Equal(t, model.StatusOnTime, res.Status)
	assert.Zero(t, res.LateMinutes)
	assert.Zero(t, res.OvertimeMinutes)
}

func TestClassifySessionLate(t *testing.T) {
	res := ClassifySession(sessionBetween(9, 20, 17, 0), dayShiftPolicy(), time.UTC)
	assert.Equal(t, model.StatusLate, res.Status)
	assert.Equal(t, 20, res.LateMinutes)
}

func TestClassifySessionWithinGraceIsOnTime(t *testing.T) {
	// 09:15 is exactly the boundary; only strictly after counts as late.
	res := ClassifySession(sessionBetween(9, 15, 17, 0), dayShiftPolicy(), time.UTC)
	assert.Equal(t, model.StatusOnTime, res.Status)
}

func TestClassifySessionEarlyLeave(t *testing.T) {
	res := ClassifySession(sessionBetween(9, 0, 16, 30), dayShiftPolicy(), time.UTC)
	assert.Equal(t, model.StatusEarlyLeave, res.Status)
	assert.Equal(t, 30, res.EarlyLeaveMinutes)
}

func TestClassifySessionHalfDay(t *testing.T) {
	res := ClassifySession(sessionBetween(9, 0, 11, 0), dayShiftPolicy(), time.UTC)
	assert.Equal(t, model.StatusHalfDay, res.Status)
}

func TestClassifySessionOvertimeBeatsLate(t *testing.T) {
	// Late check-in but 8h10m worked: overtime outranks late.
	res := ClassifySession(sessionBetween(9, 20, 17, 30), dayShiftPolicy(), time.UTC)
	assert.Equal(t, model.StatusOvertime, res.Status)
	assert.Equal(t, 10, res.OvertimeMinutes)
	assert.Zero(t, res.LateMinutes)
}

func TestClassifySessionOvertimeExactMinutes(t *testing.T) {
	// Fractional thresholds must still produce exact whole minutes.
	policy := dayShiftPolicy()
	policy.OvertimeAfterHours = 7.75

	res := ClassifySession(sessionBetween(9, 0, 17, 0), policy, time.UTC)
	assert.Equal(t, model.StatusOvertime, res.Status)
	assert.Equal(t, 15, res.OvertimeMinutes)
}

func TestClassifySessionHalfDayBeatsLate(t *testing.T) {
	res := ClassifySession(sessionBetween(10, 0, 13, 0), dayShiftPolicy(), time.UTC)
	assert.Equal(t, model.StatusHalfDay, res.Status)
}

func TestClassifySessionAutoClosedWinsAll(t *testing.T) {
	session := sessionBetween(9, 0, 11, 0)
	session.AddMarker(model.MarkerAutoClosed, *session.CheckOut)
	res := ClassifySession(session, dayShiftPolicy(), time.UTC)
	assert.Equal(t, model.StatusAutoClosed, res.Status)
}

func TestClassifySessionOpenReturnsZero(t *testing.T) {
	session := &model.Session{EmployeeID: "emp-1", CheckIn: time.Now()}
	res := ClassifySession(session, dayShiftPolicy(), time.UTC)
	assert.Empty(t, res.Status)
}

func TestClassifySessionNightShift(t *testing.T) {
	policy := dayShiftPolicy()
	policy.WorkHourFrom = 22
	policy.WorkHourTo = 6

	// 22:00 day 1 to 06:00 day 2: a full night shift, on time.
	day := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	out := day.Add(8 * time.Hour)
	session := &model.Session{EmployeeID: "emp-1", CheckIn: day, CheckOut: &out}

	res := ClassifySession(session, policy, time.UTC)
	assert.Equal(t, model.StatusOnTime, res.Status)

	// 22:30 start is 30 minutes into the shift, past the 15 minute grace.
	lateIn := day.Add(30 * time.Minute)
	lateOut := lateIn.Add(7 * time.Hour)
	late := &model.Session{EmployeeID: "emp-1", CheckIn: lateIn, CheckOut: &lateOut}

	res = ClassifySession(late, policy, time.UTC)
	assert.Equal(t, model.StatusLate, res.Status)
	assert.Equal(t, 30, res.LateMinutes)
}

func TestClassifySessionMinutesFloor(t *testing.T) {
	// 15 minutes 30 seconds late floors to 15 whole minutes.
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	in := day.Add(9*time.Hour + 15*time.Minute + 30*time.Second)
	out := day.Add(17 * time.Hour)
	session := &model.Session{EmployeeID: "emp-1", CheckIn: in, CheckOut: &out}

	res := ClassifySession(session, dayShiftPolicy(), time.UTC)
	assert.Equal(t, model.StatusLate, res.Status)
	assert.Equal(t, 15, res.LateMinutes)
}
