package model

import (
	"errors"
	"time"
)

// ShiftPolicy defines the shift windows, grace periods and punch processing
// rules for one employee population. Work hours are fractional clock hours
// (9.5 = 09:30); an end hour below the start hour marks a night shift that
// wraps past midnight.
type ShiftPolicy struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	CompanyID string `json:"companyId,omitempty"`
	IsDefault bool   `json:"isDefault"`

	WorkHourFrom            float64 `json:"workHourFrom"`
	WorkHourTo              float64 `json:"workHourTo"`
	LateAfterMinutes        int     `json:"lateAfterMinutes"`
	EarlyLeaveBeforeMinutes int     `json:"earlyLeaveBeforeMinutes"`
	HalfDayHours            float64 `json:"halfDayHours"`
	OvertimeAfterHours      float64 `json:"overtimeAfterHours"`
	MinPunchGapMinutes      float64 `json:"minPunchGapMinutes"`
	AutoCheckoutAfterHours  float64 `json:"autoCheckoutAfterHours"`

	UsePunchSlots bool        `json:"usePunchSlots"`
	Slots         []PunchSlot `json:"slots,omitempty"`
}

// PunchSlot is one time-of-day window that assigns a punch type in slot
// mode. Windows may wrap past midnight (TimeTo < TimeFrom).
type PunchSlot struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name,omitempty"`
	PunchType PunchType `json:"punchType"`
	TimeFrom  float64   `json:"timeFrom"`
	TimeTo    float64   `json:"timeTo"`
	Sequence  int       `json:"sequence"`
	Active    bool      `json:"active"`
	Required  bool      `json:"required"`
}

// Validate checks the policy invariants before it is applied.
func (p *ShiftPolicy) Validate() error {
	if p.AutoCheckoutAfterHours < 1 {
		return errors.New("auto checkout threshold must be at least 1 hour")
	}
	if p.MinPunchGapMinutes < 0 {
		return errors.New("minimum punch gap cannot be negative")
	}
	return nil
}

// IsNightShift reports whether the shift crosses midnight.
func (p *ShiftPolicy) IsNightShift() bool {
	return p.WorkHourTo < p.WorkHourFrom
}

// ShiftWindow returns the UTC shift start and end for the calendar date of
// the given check-in, localized to loc. For night shifts the end lands on
// the following day.
func (p *ShiftPolicy) ShiftWindow(checkIn time.Time, loc *time.Location) (start, end time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	local := checkIn.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	start = midnight.Add(clockOffset(p.WorkHourFrom))
	end = midnight.Add(clockOffset(p.WorkHourTo))
	if p.IsNightShift() {
		end = end.AddDate(0, 0, 1)
	}
	return start.UTC(), end.UTC()
}

// MatchSlot returns the first active slot whose window contains the punch
// time, evaluated in ascending sequence order. The boolean is false when no
// slot matches; ambiguous times must be explicitly configured, never guessed.
func (p *ShiftPolicy) MatchSlot(at time.Time, loc *time.Location) (PunchSlot, bool) {
	if loc == nil {
		loc = time.UTC
	}
	local := at.In(loc)
	hour := float64(local.Hour()) + float64(local.Minute())/60.0 + float64(local.Second())/3600.0

	slots := make([]PunchSlot, len(p.Slots))
	copy(slots, p.Slots)
	for i := 1; i < len(slots); i++ {
		for j := i; j > 0 && slots[j].Sequence < slots[j-1].Sequence; j-- {
			slots[j], slots[j-1] = slots[j-1], slots[j]
		}
	}

	for _, slot := range slots {
		if !slot.Active {
			continue
		}
		if slot.Contains(hour) {
			return slot, true
		}
	}
	return PunchSlot{}, false
}

// Contains reports whether the fractional clock hour falls inside the slot
// window, honoring wrap-around past midnight.
func (s PunchSlot) Contains(hour float64) bool {
	if s.TimeTo < s.TimeFrom {
		return hour >= s.TimeFrom || hour <= s.TimeTo
	}
	return hour >= s.TimeFrom && hour <= s.TimeTo
}

// clockOffset converts a fractional clock hour into a duration from midnight.
func clockOffset(hour float64) time.Duration {
	return time.Duration(hour * float64(time.Hour))
}
