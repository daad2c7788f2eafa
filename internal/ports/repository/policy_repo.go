package repository

import (
	"context"
	"database/sql"
	"errors"

	"punch.reconciler/internal/core/model"
)

// PostgresPolicyRepository resolves the applicable shift policy for an
// employee: the employee's assigned policy first, the company default
// otherwise. Returns nil (no error) when neither is configured.
type PostgresPolicyRepository struct {
	DB *sql.DB
}

func NewPolicyRepository(db *sql.DB) PolicyRepository {
	return &PostgresPolicyRepository{DB: db}
}

const policyColumns = `p.id, p.name, p.code, p.company_id, p.is_default,
       p.work_hour_from, p.work_hour_to, p.late_after_minutes, p.early_leave_before_minutes,
       p.half_day_hours, p.overtime_after_hours, p.min_punch_gap_minutes,
       p.auto_checkout_after_hours, p.use_punch_slots`

func (r *PostgresPolicyRepository) ForEmployee(ctx context.Context, employeeID string) (*model.ShiftPolicy, error) {
	assigned := `SELECT ` + policyColumns + `
                 FROM shift_policies p
                 JOIN employee_policies ep ON ep.policy_id = p.id
                 WHERE ep.employee_id = $1`

	policy, err := r.scanPolicy(r.DB.QueryRowContext(ctx, assigned, employeeID))
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	if policy == nil {
		fallback := `SELECT ` + policyColumns + `
                     FROM shift_policies p
                     WHERE p.is_default = TRUE
                     ORDER BY p.id
                     LIMIT 1`
		policy, err = r.scanPolicy(r.DB.QueryRowContext(ctx, fallback))
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
	}

	if policy.UsePunchSlots {
		if err := r.loadSlots(ctx, policy); err != nil {
			return nil, err
		}
	}
	return policy, nil
}

func (r *PostgresPolicyRepository) loadSlots(ctx context.Context, policy *model.ShiftPolicy) error {
	query := `SELECT id, name, punch_type, time_from, time_to, sequence, active, required
              FROM punch_slots
              WHERE policy_id = $1
              ORDER BY sequence ASC`

	rows, err := r.DB.QueryContext(ctx, query, policy.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var slot model.PunchSlot
		var name sql.NullString
		if err := rows.Scan(&slot.ID, &name, &slot.PunchType, &slot.TimeFrom, &slot.TimeTo,
			&slot.Sequence, &slot.Active, &slot.Required); err != nil {
			return err
		}
		slot.Name = name.String
		policy.Slots = append(policy.Slots, slot)
	}
	return rows.Err()
}

func (r *PostgresPolicyRepository) scanPolicy(row rowScanner) (*model.ShiftPolicy, error) {
	policy := &model.ShiftPolicy{}
	var companyID sql.NullString

	err := row.Scan(
		&policy.ID, &policy.Name, &policy.Code, &companyID, &policy.IsDefault,
		&policy.WorkHourFrom, &policy.WorkHourTo, &policy.LateAfterMinutes, &policy.EarlyLeaveBeforeMinutes,
		&policy.HalfDayHours, &policy.OvertimeAfterHours, &policy.MinPunchGapMinutes,
		&policy.AutoCheckoutAfterHours, &policy.UsePunchSlots,
	)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	policy.CompanyID = companyID.String
	return policy, nil
}
