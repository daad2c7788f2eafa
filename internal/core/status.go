package core

import (
	"time"

	"punch.reconciler/internal/core/model"
)

// StatusResult carries the outcome of classifying a completed session.
type StatusResult struct {
	Status            model.SessionStatus
	LateMinutes       int
	EarlyLeaveMinutes int
	OvertimeMinutes   int
}

// ClassifySession derives the final status of a completed session against
// the shift policy. Shift boundaries are computed for the check-in's
// calendar date in loc; night shifts end on the following day.
//
// Priority order, first match wins: auto_closed, half_day, overtime, late,
// early_leave, on_time. All minute values floor at zero.
func ClassifySession(session *model.Session, policy *model.ShiftPolicy, loc *time.Location) StatusResult {
	if session.CheckOut == nil {
		return StatusResult{}
	}

	if session.AutoClosed() {
		return StatusResult{Status: model.StatusAutoClosed}
	}

	checkIn := session.CheckIn
	checkOut := *session.CheckOut
	worked := checkOut.Sub(checkIn)
	workedHours := worked.Seconds() / 3600.0

	shiftStart, shiftEnd := policy.ShiftWindow(checkIn, loc)

	if workedHours < policy.HalfDayHours {
		return StatusResult{Status: model.StatusHalfDay}
	}

	if workedHours > policy.OvertimeAfterHours {
		return StatusResult{
			Status:          model.StatusOvertime,
			OvertimeMinutes: flooredMinutes(worked - hoursToDuration(policy.OvertimeAfterHours)),
		}
	}

	lateBoundary := shiftStart.Add(time.Duration(policy.LateAfterMinutes) * time.Minute)
	if checkIn.After(lateBoundary) {
		return StatusResult{
			Status:      model.StatusLate,
			LateMinutes: flooredMinutes(checkIn.Sub(shiftStart)),
		}
	}

	earlyBoundary := shiftEnd.Add(-time.Duration(policy.EarlyLeaveBeforeMinutes) * time.Minute)
	if checkOut.Before(earlyBoundary) {
		return StatusResult{
			Status:            model.StatusEarlyLeave,
			EarlyLeaveMinutes: flooredMinutes(shiftEnd.Sub(checkOut)),
		}
	}

	return StatusResult{Status: model.StatusOnTime}
}

// flooredMinutes truncates a duration to whole minutes and never goes
// negative. Minute math stays in time.Duration; converting through float
// hours first can lose a whole minute to representation noise.
func flooredMinutes(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}
