package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"saferide/pkg/logger"
	"saferide/pkg/models"
	"saferide/storage"
)

type alertRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewAlertRepo(db *pgxpool.Pool, log logger.ILogger) storage.IAlertStorage {
	return &alertRepo{db: db, log: log}
}

func (r *alertRepo) CreateIfAbsent(ctx context.Context, alert *models.AdminAlert) (bool, error) {
	// One alert per distinct failing attempt; re-running the cascade
	// must not duplicate it.
	query := `
		INSERT INTO admin_alerts (id, type, user_id, event_id, attempt_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (attempt_id) DO NOTHING
	`
	res, err := r.db.Exec(ctx, query, alert.ID, alert.Type, alert.UserID, alert.EventID, alert.AttemptID)
	if err != nil {
		r.log.Error("failed to create admin alert", logger.Int64("user_id", alert.UserID), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

const alertColumns = `id, type, user_id, event_id, attempt_id, created_at, resolved_by_admin_id, resolved_at`

func (r *alertRepo) ListUnresolvedByUser(ctx context.Context, userID int64) ([]*models.AdminAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM admin_alerts WHERE user_id = $1 AND resolved_at IS NULL ORDER BY created_at ASC`
	return r.scanAlerts(ctx, query, userID)
}

func (r *alertRepo) ListUnresolved(ctx context.Context) ([]*models.AdminAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM admin_alerts WHERE resolved_at IS NULL ORDER BY created_at ASC`
	return r.scanAlerts(ctx, query)
}

func (r *alertRepo) ResolveAllForUser(ctx context.Context, userID, adminID int64, at time.Time) (int64, error) {
	res, err := r.db.Exec(ctx,
		`UPDATE admin_alerts SET resolved_by_admin_id = $1, resolved_at = $2 WHERE user_id = $3 AND resolved_at IS NULL`,
		adminID, at, userID)
	if err != nil {
		r.log.Error("failed to resolve alerts", logger.Int64("user_id", userID), logger.Error(err))
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *alertRepo) ResolveForEvent(ctx context.Context, userID, eventID, adminID int64, at time.Time) (int64, error) {
	res, err := r.db.Exec(ctx,
		`UPDATE admin_alerts SET resolved_by_admin_id = $1, resolved_at = $2 WHERE user_id = $3 AND event_id = $4 AND resolved_at IS NULL`,
		adminID, at, userID, eventID)
	if err != nil {
		r.log.Error("failed to resolve alerts for event", logger.Int64("user_id", userID), logger.Error(err))
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *alertRepo) scanAlerts(ctx context.Context, query string, args ...interface{}) ([]*models.AdminAlert, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*models.AdminAlert
	for rows.Next() {
		var a models.AdminAlert
		err := rows.Scan(
			&a.ID, &a.Type, &a.UserID, &a.EventID, &a.AttemptID,
			&a.CreatedAt, &a.ResolvedByAdminID, &a.ResolvedAt,
		)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, &a)
	}
	return alerts, nil
}
