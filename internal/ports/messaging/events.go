package messaging

import (
	"time"

	"punch.reconciler/internal/core/model"
)

// SyncRequestEvent is the JSON payload on the sync queue: one device's
// freshly fetched punches awaiting reconciliation.
type SyncRequestEvent struct {
	DeviceID    string             `json:"deviceId"`
	Timezone    string             `json:"timezone,omitempty"`
	Punches     []model.PunchInput `json:"punches"`
	RequestedAt time.Time          `json:"requestedAt"`
}

// SessionClosedEvent is the JSON payload published after a session gains a
// check-out, consumed by the payroll export and notification workers.
type SessionClosedEvent struct {
	SessionID    int64               `json:"sessionId"`
	EmployeeID   string              `json:"employeeId"`
	CheckIn      time.Time           `json:"checkIn"`
	CheckOut     time.Time           `json:"checkOut"`
	WorkedHours  float64             `json:"workedHours"`
	BreakMinutes int                 `json:"breakMinutes"`
	Status       model.SessionStatus `json:"status"`
	AutoClosed   bool                `json:"autoClosed"`
	OccurredAt   time.Time           `json:"occurredAt"`
}
