package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"punch.reconciler/internal/core/model"
)

// PostgresPunchRepository is the concrete punch store for PostgreSQL.
// The raw_punches table carries a unique constraint on
// (device_id, badge_id, punched_at) so exact duplicates are rejected at
// the storage layer as well.
type PostgresPunchRepository struct {
	DB *sql.DB
}

func NewPunchRepository(db *sql.DB) PunchRepository {
	return &PostgresPunchRepository{DB: db}
}

// Insert persists a new pending punch. A unique-constraint violation is
// mapped to model.ErrDuplicatePunch.
func (r *PostgresPunchRepository) Insert(ctx context.Context, punch *model.RawPunch) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.badgeId", punch.BadgeID))

	query := `INSERT INTO raw_punches (device_id, badge_id, punched_at, device_type, raw_payload, timezone, state)
              VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7) RETURNING id`

	err := r.DB.QueryRowContext(ctx, query,
		punch.DeviceID, punch.BadgeID, punch.Timestamp, punch.DeviceType, punch.RawPayload,
		punch.Timezone, punch.State,
	).Scan(&punch.ID)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return model.ErrDuplicatePunch
	}
	return err
}

// Get fetches a punch by ID.
func (r *PostgresPunchRepository) Get(ctx context.Context, id int64) (*model.RawPunch, error) {
	query := `SELECT id, device_id, badge_id, punched_at, device_type, raw_payload, timezone,
                     punch_type, state, message, employee_id, session_id, processed_at
              FROM raw_punches WHERE id = $1`

	punch := &model.RawPunch{}
	var (
		timezone   sql.NullString
		punchType  sql.NullString
		message    sql.NullString
		employeeID sql.NullString
		sessionID  sql.NullInt64
		processed  sql.NullTime
	)

	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&punch.ID, &punch.DeviceID, &punch.BadgeID, &punch.Timestamp, &punch.DeviceType, &punch.RawPayload,
		&timezone, &punchType, &punch.State, &message, &employeeID, &sessionID, &processed,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	punch.Timezone = timezone.String
	punch.PunchType = model.PunchType(punchType.String)
	punch.Message = message.String
	punch.EmployeeID = employeeID.String
	if sessionID.Valid {
		punch.SessionID = &sessionID.Int64
	}
	if processed.Valid {
		t := processed.Time
		punch.ProcessedAt = &t
	}
	return punch, nil
}

// Update writes the derived fields back onto the punch record. The ingested
// identity fields are immutable and never touched here.
func (r *PostgresPunchRepository) Update(ctx context.Context, punch *model.RawPunch) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employeeId", punch.EmployeeID))

	query := `UPDATE raw_punches
              SET punch_type = NULLIF($1, ''),
                  state = $2,
                  message = NULLIF($3, ''),
                  employee_id = NULLIF($4, ''),
                  session_id = $5,
                  processed_at = $6
              WHERE id = $7`

	var sessionID interface{}
	if punch.SessionID != nil {
		sessionID = *punch.SessionID
	}
	var processedAt interface{}
	if punch.ProcessedAt != nil {
		processedAt = *punch.ProcessedAt
	}

	_, err := r.DB.ExecContext(ctx, query,
		string(punch.PunchType), punch.State, punch.Message, punch.EmployeeID, sessionID, processedAt, punch.ID,
	)
	return err
}

// ExistsExact reports whether a punch with the same device, badge and
// timestamp is already stored.
func (r *PostgresPunchRepository) ExistsExact(ctx context.Context, deviceID, badgeID string, ts time.Time) (bool, error) {
	query := `SELECT EXISTS (
                SELECT 1 FROM raw_punches
                WHERE device_id = $1 AND badge_id = $2 AND punched_at = $3)`

	var exists bool
	err := r.DB.QueryRowContext(ctx, query, deviceID, badgeID, ts).Scan(&exists)
	return exists, err
}

// ExistsNear reports whether the same (device, badge) pair has a pending or
// processed punch inside the [from, to] window.
func (r *PostgresPunchRepository) ExistsNear(ctx context.Context, deviceID, badgeID string, from, to time.Time) (bool, error) {
	query := `SELECT EXISTS (
                SELECT 1 FROM raw_punches
                WHERE device_id = $1 AND badge_id = $2
                  AND punched_at BETWEEN $3 AND $4
                  AND state IN ($5, $6))`

	var exists bool
	err := r.DB.QueryRowContext(ctx, query, deviceID, badgeID, from, to,
		model.PunchPending, model.PunchProcessed).Scan(&exists)
	return exists, err
}
