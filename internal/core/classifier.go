package core

import (
	"fmt"
	"time"

	"punch.reconciler/internal/core/model"
)

// Action is what the engine must do with a classified punch.
type Action int

const (
	// ActionOpen creates a new session from the punch.
	ActionOpen Action = iota
	// ActionClose closes the employee's open session at the punch time.
	ActionClose
	// ActionMarker appends a break/overtime marker to the open session.
	ActionMarker
	// ActionIgnore records the punch as ignored with a reason.
	ActionIgnore
	// ActionError records the punch as errored with a reason.
	ActionError
)

// Decision is the classifier verdict for one punch.
type Decision struct {
	Type         model.PunchType
	Action       Action
	Marker       model.MarkerKind
	BreakMinutes int
	Reason       string
}

// Classifier determines punch intent. In toggle mode intent is inferred
// purely from session state; devices are unreliable reporters, so the
// device-reported type is never consulted. In slot mode intent comes from
// the configured time-of-day window containing the punch's local time.
type Classifier struct{}

// Classify renders a decision for a punch against the employee's current
// open session (nil when none). The engine runs the stale-session
// auto-close before calling this, so open is never stale here.
func (Classifier) Classify(policy *model.ShiftPolicy, open *model.Session, at time.Time, loc *time.Location) Decision {
	if policy.UsePunchSlots {
		return classifyBySlot(policy, open, at, loc)
	}
	return classifyByToggle(open, at)
}

// classifyByToggle flips between check-in and check-out on session state:
// no open session means check-in, an open session means check-out.
func classifyByToggle(open *model.Session, at time.Time) Decision {
	if open == nil {
		return Decision{Type: model.PunchTypeCheckIn, Action: ActionOpen}
	}
	return Decision{Type: model.PunchTypeCheckOut, Action: ActionClose}
}

// classifyBySlot resolves intent from the first active slot window that
// contains the punch's local time. A punch outside every window is ignored;
// there is no fallback to toggle logic, ambiguous times must be configured.
func classifyBySlot(policy *model.ShiftPolicy, open *model.Session, at time.Time, loc *time.Location) Decision {
	slot, ok := policy.MatchSlot(at, loc)
	if !ok {
		return Decision{Action: ActionIgnore, Reason: "no matching time slot"}
	}

	switch slot.PunchType {
	case model.PunchTypeCheckIn:
		if open != nil {
			return Decision{
				Type:   model.PunchTypeCheckIn,
				Action: ActionError,
				Reason: "check-in punch while a session is already open",
			}
		}
		return Decision{Type: model.PunchTypeCheckIn, Action: ActionOpen}

	case model.PunchTypeCheckOut:
		if open == nil {
			return Decision{
				Type:   model.PunchTypeCheckOut,
				Action: ActionIgnore,
				Reason: "check-out punch without an open session",
			}
		}
		return Decision{Type: model.PunchTypeCheckOut, Action: ActionClose}

	case model.PunchTypeBreakOut:
		if open == nil {
			return Decision{Type: slot.PunchType, Action: ActionIgnore, Reason: "break punch without an open session"}
		}
		if open.OnBreak() {
			return Decision{Type: slot.PunchType, Action: ActionIgnore, Reason: "already on break"}
		}
		return Decision{Type: slot.PunchType, Action: ActionMarker, Marker: model.MarkerBreakOut}

	case model.PunchTypeBreakIn:
		if open == nil {
			return Decision{Type: slot.PunchType, Action: ActionIgnore, Reason: "break punch without an open session"}
		}
		if !open.OnBreak() {
			return Decision{Type: slot.PunchType, Action: ActionIgnore, Reason: "break-in without a preceding break-out"}
		}
		mins := 0
		if last := open.LastMarker(model.MarkerBreakOut); last != nil {
			mins = flooredMinutes(at.Sub(last.At))
		}
		return Decision{Type: slot.PunchType, Action: ActionMarker, Marker: model.MarkerBreakIn, BreakMinutes: mins}

	case model.PunchTypeOvertimeStart:
		if open == nil {
			return Decision{Type: slot.PunchType, Action: ActionIgnore, Reason: "overtime punch without an open session"}
		}
		if open.InOvertime() {
			return Decision{Type: slot.PunchType, Action: ActionIgnore, Reason: "overtime already started"}
		}
		return Decision{Type: slot.PunchType, Action: ActionMarker, Marker: model.MarkerOvertimeStart}

	case model.PunchTypeOvertimeEnd:
		if open == nil {
			return Decision{Type: slot.PunchType, Action: ActionIgnore, Reason: "overtime punch without an open session"}
		}
		if !open.InOvertime() {
			return Decision{Type: slot.PunchType, Action: ActionIgnore, Reason: "overtime-end without a preceding overtime-start"}
		}
		return Decision{Type: slot.PunchType, Action: ActionMarker, Marker: model.MarkerOvertimeEnd}
	}

	return Decision{Action: ActionError, Reason: fmt.Sprintf("unsupported slot punch type %q", slot.PunchType)}
}
