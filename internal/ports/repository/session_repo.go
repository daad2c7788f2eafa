package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"punch.reconciler/internal/core/model"
)

// PostgresSessionRepository is the concrete session store for PostgreSQL.
// A partial unique index on (employee_id) WHERE check_out IS NULL enforces
// the one-open-session invariant even against concurrent writers.
type PostgresSessionRepository struct {
	DB *sql.DB
}

func NewSessionRepository(db *sql.DB) SessionRepository {
	return &PostgresSessionRepository{DB: db}
}

const sessionColumns = `id, employee_id, check_in, check_out, shift_id, source_device_id, timezone,
       status, late_minutes, early_leave_minutes, overtime_minutes, break_minutes,
       notes, is_from_device, markers, export_status, export_retry_count,
       notify_status, notify_retry_count`

// Create inserts a new open session. The partial unique index turns a
// concurrent open into model.ErrSessionConflict.
func (r *PostgresSessionRepository) Create(ctx context.Context, session *model.Session) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", session.EmployeeID))

	markers, err := json.Marshal(session.Markers)
	if err != nil {
		return fmt.Errorf("marshal markers: %w", err)
	}

	query := `INSERT INTO sessions (employee_id, check_in, shift_id, source_device_id, timezone,
                                    notes, is_from_device, markers, export_status, export_retry_count,
                                    notify_status, notify_retry_count)
              VALUES ($1, $2, NULLIF($3, 0), NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, 0, $10, 0)
              RETURNING id`

	err = r.DB.QueryRowContext(ctx, query,
		session.EmployeeID, session.CheckIn, session.ShiftID, session.SourceDeviceID, session.Timezone,
		session.Notes, session.IsFromDevice, markers, session.ExportStatus, session.NotifyStatus,
	).Scan(&session.ID)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return model.ErrSessionConflict
	}
	return err
}

// FindOpen returns the most recent session without a check-out for the
// employee, or nil when there is none.
func (r *PostgresSessionRepository) FindOpen(ctx context.Context, employeeID string) (*model.Session, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", employeeID))

	query := `SELECT ` + sessionColumns + `
              FROM sessions
              WHERE employee_id = $1 AND check_out IS NULL
              ORDER BY check_in DESC
              LIMIT 1`

	session, err := r.scanSession(r.DB.QueryRowContext(ctx, query, employeeID))
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	return session, err
}

// ListOpen returns all open sessions, oldest check-in first.
func (r *PostgresSessionRepository) ListOpen(ctx context.Context) ([]*model.Session, error) {
	query := `SELECT ` + sessionColumns + `
              FROM sessions
              WHERE check_out IS NULL
              ORDER BY check_in ASC`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		session, err := r.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Get fetches a session by ID.
func (r *PostgresSessionRepository) Get(ctx context.Context, id int64) (*model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return r.scanSession(r.DB.QueryRowContext(ctx, query, id))
}

// Update writes check-out, status fields, counters and the marker log.
func (r *PostgresSessionRepository) Update(ctx context.Context, session *model.Session) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", session.EmployeeID))

	markers, err := json.Marshal(session.Markers)
	if err != nil {
		return fmt.Errorf("marshal markers: %w", err)
	}

	var checkOut interface{}
	if session.CheckOut != nil {
		checkOut = *session.CheckOut
	}

	query := `UPDATE sessions
              SET check_out = $1,
                  status = NULLIF($2, ''),
                  late_minutes = $3,
                  early_leave_minutes = $4,
                  overtime_minutes = $5,
                  break_minutes = $6,
                  notes = NULLIF($7, ''),
                  markers = $8
              WHERE id = $9`

	_, err = r.DB.ExecContext(ctx, query,
		checkOut, string(session.Status), session.LateMinutes, session.EarlyLeaveMinutes,
		session.OvertimeMinutes, session.BreakMinutes, session.Notes, markers, session.ID,
	)
	return err
}

// UpdateExportStatus updates the status and retry count for the payroll
// export job of a session.
func (r *PostgresSessionRepository) UpdateExportStatus(ctx context.Context, id int64, status model.JobStatus, retryCount int) error {
	query := `UPDATE sessions SET export_status = $1, export_retry_count = $2 WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, status, retryCount, id)
	return err
}

// UpdateNotifyStatus updates the status and retry count for the
// notification job of a session.
func (r *PostgresSessionRepository) UpdateNotifyStatus(ctx context.Context, id int64, status model.JobStatus, retryCount int) error {
	query := `UPDATE sessions SET notify_status = $1, notify_retry_count = $2 WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, status, retryCount, id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PostgresSessionRepository) scanSession(row rowScanner) (*model.Session, error) {
	session := &model.Session{}
	var (
		checkOut     sql.NullTime
		shiftID      sql.NullInt64
		sourceDevice sql.NullString
		timezone     sql.NullString
		status       sql.NullString
		notes        sql.NullString
		markers      []byte
		exportStatus sql.NullString
		notifyStatus sql.NullString
	)

	err := row.Scan(
		&session.ID, &session.EmployeeID, &session.CheckIn, &checkOut, &shiftID, &sourceDevice,
		&timezone, &status, &session.LateMinutes, &session.EarlyLeaveMinutes, &session.OvertimeMinutes,
		&session.BreakMinutes, &notes, &session.IsFromDevice, &markers,
		&exportStatus, &session.ExportRetries, &notifyStatus, &session.NotifyRetries,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if checkOut.Valid {
		t := checkOut.Time
		session.CheckOut = &t
	}
	session.ShiftID = shiftID.Int64
	session.SourceDeviceID = sourceDevice.String
	session.Timezone = timezone.String
	session.Status = model.SessionStatus(status.String)
	session.Notes = notes.String
	session.ExportStatus = model.JobStatus(exportStatus.String)
	session.NotifyStatus = model.JobStatus(notifyStatus.String)

	if len(markers) > 0 {
		if err := json.Unmarshal(markers, &session.Markers); err != nil {
			return nil, fmt.Errorf("unmarshal markers: %w", err)
		}
	}
	return session, nil
}
