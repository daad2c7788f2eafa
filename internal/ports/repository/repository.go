package repository

import (
	"context"
	"time"

	"punch.reconciler/internal/core/model"
)

// PunchRepository stores raw punch records and answers the duplicate
// detection queries the engine runs before admitting a punch.
type PunchRepository interface {
	Insert(ctx context.Context, punch *model.RawPunch) error
	Get(ctx context.Context, id int64) (*model.RawPunch, error)
	Update(ctx context.Context, punch *model.RawPunch) error
	ExistsExact(ctx context.Context, deviceID, badgeID string, ts time.Time) (bool, error)
	ExistsNear(ctx context.Context, deviceID, badgeID string, from, to time.Time) (bool, error)
}

// SessionRepository stores work sessions. Create must reject a second open
// session for the same employee with model.ErrSessionConflict; the backing
// store enforces this with a partial unique index on open rows.
type SessionRepository interface {
	Get(ctx context.Context, id int64) (*model.Session, error)
	FindOpen(ctx context.Context, employeeID string) (*model.Session, error)
	ListOpen(ctx context.Context) ([]*model.Session, error)
	Create(ctx context.Context, session *model.Session) error
	Update(ctx context.Context, session *model.Session) error
	UpdateExportStatus(ctx context.Context, id int64, status model.JobStatus, retryCount int) error
	UpdateNotifyStatus(ctx context.Context, id int64, status model.JobStatus, retryCount int) error
}

// PolicyRepository supplies the applicable shift policy for an employee,
// falling back from the employee's assigned policy to the company default.
type PolicyRepository interface {
	ForEmployee(ctx context.Context, employeeID string) (*model.ShiftPolicy, error)
}

// IdentityResolver maps a device-local badge ID to an employee ID. An empty
// employee ID with a nil error means the badge is unmapped; the engine
// treats that as a per-punch error, not a batch failure.
type IdentityResolver interface {
	Resolve(ctx context.Context, deviceID, badgeID string) (string, error)
}

// SyncLogRepository records one audit row per reconcile run.
type SyncLogRepository interface {
	Record(ctx context.Context, entry *model.SyncLog) error
}
