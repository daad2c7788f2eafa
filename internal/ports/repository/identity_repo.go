package repository

import (
	"context"
	"database/sql"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PostgresIdentityResolver maps device badges to employees via the
// badge_mappings table. Fuzzy name matching and mapping creation live with
// the external directory service; this resolver only looks up what that
// service has already established.
type PostgresIdentityResolver struct {
	DB *sql.DB
}

func NewIdentityResolver(db *sql.DB) IdentityResolver {
	return &PostgresIdentityResolver{DB: db}
}

// Resolve returns the employee ID mapped to the badge on the device, or ""
// when no active mapping exists.
func (r *PostgresIdentityResolver) Resolve(ctx context.Context, deviceID, badgeID string) (string, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.badgeId", badgeID))

	query := `SELECT employee_id
              FROM badge_mappings
              WHERE device_id = $1 AND badge_id = $2 AND active = TRUE
              LIMIT 1`

	var employeeID string
	err := r.DB.QueryRowContext(ctx, query, deviceID, badgeID).Scan(&employeeID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return employeeID, nil
}
