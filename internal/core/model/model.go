package model

import (
	"time"
)

// PunchState defines the processing lifecycle of a raw punch record.
type PunchState string

const (
	PunchPending   PunchState = "PENDING"
	PunchProcessed PunchState = "PROCESSED"
	PunchIgnored   PunchState = "IGNORED"
	PunchDuplicate PunchState = "DUPLICATE"
	PunchError     PunchState = "ERROR"
)

// PunchType is the punch intent derived by the engine. The device-reported
// type is kept on the record as advisory metadata only.
type PunchType string

const (
	PunchTypeCheckIn       PunchType = "CHECK_IN"
	PunchTypeCheckOut      PunchType = "CHECK_OUT"
	PunchTypeBreakOut      PunchType = "BREAK_OUT"
	PunchTypeBreakIn       PunchType = "BREAK_IN"
	PunchTypeOvertimeStart PunchType = "OVERTIME_START"
	PunchTypeOvertimeEnd   PunchType = "OVERTIME_END"
)

// SessionStatus classifies a completed work session against its shift policy.
type SessionStatus string

const (
	StatusOnTime     SessionStatus = "on_time"
	StatusLate       SessionStatus = "late"
	StatusEarlyLeave SessionStatus = "early_leave"
	StatusOvertime   SessionStatus = "overtime"
	StatusHalfDay    SessionStatus = "half_day"
	StatusAutoClosed SessionStatus = "auto_closed"
)

// JobStatus defines the state of the asynchronous post-close jobs
// (payroll export, auto-close notification).
type JobStatus string

const (
	JobPending    JobStatus = "PENDING"
	JobProcessing JobStatus = "PROCESSING"
	JobCompleted  JobStatus = "COMPLETED"
	JobFailed     JobStatus = "FAILED"
)

// MarkerKind tags a structured annotation on a session. Break and overtime
// punches append markers instead of touching check-in/check-out, and the
// open/close pairing is derived by counting marker kinds.
type MarkerKind string

const (
	MarkerAutoClosed    MarkerKind = "auto_closed"
	MarkerBreakOut      MarkerKind = "break_out"
	MarkerBreakIn       MarkerKind = "break_in"
	MarkerOvertimeStart MarkerKind = "overtime_start"
	MarkerOvertimeEnd   MarkerKind = "overtime_end"
)

// Marker is one typed annotation in a session's append-only marker log.
type Marker struct {
	Kind MarkerKind `json:"kind"`
	At   time.Time  `json:"at"`
}

// RawPunch is a single timestamped badge event as delivered by a device.
// The ingested identity fields (device, badge, timestamp, payload) are
// immutable; the engine only attaches derived fields.
type RawPunch struct {
	ID         int64     `json:"id"`
	DeviceID   string    `json:"deviceId"`
	BadgeID    string    `json:"badgeId"`
	Timestamp  time.Time `json:"timestamp"`
	DeviceType string    `json:"deviceType,omitempty"`
	RawPayload string    `json:"rawPayload,omitempty"`
	// Timezone is the device timezone at ingestion. Slot windows and shift
	// boundaries are evaluated in it, including on reprocessing.
	Timezone string `json:"timezone,omitempty"`

	// Derived during reconciliation.
	PunchType   PunchType  `json:"punchType,omitempty"`
	State       PunchState `json:"state"`
	Message     string     `json:"message,omitempty"`
	EmployeeID  string     `json:"employeeId,omitempty"`
	SessionID   *int64     `json:"sessionId,omitempty"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

// Session is one continuous check-in to check-out work period.
type Session struct {
	ID                int64         `json:"id"`
	EmployeeID        string        `json:"employeeId"`
	CheckIn           time.Time     `json:"checkIn"`
	CheckOut          *time.Time    `json:"checkOut,omitempty"`
	ShiftID           int64         `json:"shiftId,omitempty"`
	SourceDeviceID    string        `json:"sourceDeviceId,omitempty"`
	Timezone          string        `json:"timezone,omitempty"`
	Status            SessionStatus `json:"status,omitempty"`
	LateMinutes       int           `json:"lateMinutes"`
	EarlyLeaveMinutes int           `json:"earlyLeaveMinutes"`
	OvertimeMinutes   int           `json:"overtimeMinutes"`
	BreakMinutes      int           `json:"breakMinutes"`
	Notes             string        `json:"notes,omitempty"`
	IsFromDevice      bool          `json:"isFromDevice"`
	Markers           []Marker      `json:"markers,omitempty"`

	ExportStatus  JobStatus `json:"exportStatus,omitempty"`
	ExportRetries int       `json:"exportRetries"`
	NotifyStatus  JobStatus `json:"notifyStatus,omitempty"`
	NotifyRetries int       `json:"notifyRetries"`
}

// IsOpen reports whether the session has no check-out yet.
func (s *Session) IsOpen() bool {
	return s.CheckOut == nil
}

// AddMarker appends a typed marker to the session's annotation log.
func (s *Session) AddMarker(kind MarkerKind, at time.Time) {
	s.Markers = append(s.Markers, Marker{Kind: kind, At: at})
}

// MarkerCount returns how many markers of the given kind the session carries.
func (s *Session) MarkerCount(kind MarkerKind) int {
	n := 0
	for _, m := range s.Markers {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

// LastMarker returns the most recent marker of the given kind, or nil.
func (s *Session) LastMarker(kind MarkerKind) *Marker {
	for i := len(s.Markers) - 1; i >= 0; i-- {
		if s.Markers[i].Kind == kind {
			return &s.Markers[i]
		}
	}
	return nil
}

// OnBreak reports whether the session has an unmatched break-out marker.
func (s *Session) OnBreak() bool {
	return s.MarkerCount(MarkerBreakOut) > s.MarkerCount(MarkerBreakIn)
}

// InOvertime reports whether the session has an unmatched overtime-start marker.
func (s *Session) InOvertime() bool {
	return s.MarkerCount(MarkerOvertimeStart) > s.MarkerCount(MarkerOvertimeEnd)
}

// AutoClosed reports whether the session was closed by the stale-session guard.
func (s *Session) AutoClosed() bool {
	return s.MarkerCount(MarkerAutoClosed) > 0
}

// Outcome tags the result of processing a single punch.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeError     Outcome = "error"
)

// ProcessingResult is the per-punch outcome of a reconciliation run.
type ProcessingResult struct {
	Outcome Outcome  `json:"outcome"`
	Reason  string   `json:"reason,omitempty"`
	Session *Session `json:"session,omitempty"`
}

// BatchResult aggregates per-punch outcomes for one reconcile invocation.
type BatchResult struct {
	Fetched    int `json:"fetched"`
	Processed  int `json:"processed"`
	Ignored    int `json:"ignored"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// Count folds a single punch outcome into the batch counters.
func (r *BatchResult) Count(outcome Outcome) {
	switch outcome {
	case OutcomeProcessed:
		r.Processed++
	case OutcomeIgnored:
		r.Ignored++
	case OutcomeDuplicate:
		r.Duplicates++
	default:
		r.Failed++
	}
}

// PunchInput is a punch as supplied by a device adapter or webhook,
// before it becomes a persisted RawPunch.
type PunchInput struct {
	BadgeID    string    `json:"badgeId"`
	Timestamp  time.Time `json:"timestamp"`
	DeviceType string    `json:"deviceType,omitempty"`
	RawPayload string    `json:"rawPayload,omitempty"`
}

// SyncBatch is one device sync invocation: a device plus its freshly
// fetched punches, fully materialized before reconciliation starts.
type SyncBatch struct {
	DeviceID string       `json:"deviceId"`
	Timezone string       `json:"timezone,omitempty"`
	Punches  []PunchInput `json:"punches"`
}

// SyncLog records the outcome of one reconcile run for audit.
type SyncLog struct {
	ID         int64       `json:"id"`
	DeviceID   string      `json:"deviceId"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt time.Time   `json:"finishedAt"`
	Result     BatchResult `json:"result"`
	Status     string      `json:"status"`
}
