package repository

import (
	"context"
	"database/sql"

	"punch.reconciler/internal/core/model"
)

// PostgresSyncLogRepository writes one audit row per reconcile run.
type PostgresSyncLogRepository struct {
	DB *sql.DB
}

func NewSyncLogRepository(db *sql.DB) SyncLogRepository {
	return &PostgresSyncLogRepository{DB: db}
}

func (r *PostgresSyncLogRepository) Record(ctx context.Context, entry *model.SyncLog) error {
	query := `INSERT INTO sync_logs (device_id, started_at, finished_at, fetched, processed,
                                     ignored, duplicates, failed, status)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
              RETURNING id`

	return r.DB.QueryRowContext(ctx, query,
		entry.DeviceID, entry.StartedAt, entry.FinishedAt,
		entry.Result.Fetched, entry.Result.Processed, entry.Result.Ignored,
		entry.Result.Duplicates, entry.Result.Failed, entry.Status,
	).Scan(&entry.ID)
}
