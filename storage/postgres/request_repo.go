package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"saferide/pkg/logger"
	"saferide/pkg/models"
	"saferide/storage"
)

type requestRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewRequestRepo(db *pgxpool.Pool, log logger.ILogger) storage.IRequestStorage {
	return &requestRepo{db: db, log: log}
}

func (r *requestRepo) Upsert(ctx context.Context, eventID, userID int64) (*models.Request, error) {
	var req models.Request
	// The update path resets status and refreshes created_at so a
	// rejected driver can resubmit on the same row.
	query := `
		INSERT INTO requests (event_id, user_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (event_id, user_id) DO UPDATE
		SET status = 'pending', created_at = NOW()
		RETURNING id, event_id, user_id, status, created_at
	`
	err := r.db.QueryRow(ctx, query, eventID, userID).Scan(
		&req.ID, &req.EventID, &req.UserID, &req.Status, &req.CreatedAt,
	)
	if err != nil {
		r.log.Error("failed to upsert request", logger.Int64("user_id", userID), logger.Error(err))
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) Get(ctx context.Context, eventID, userID int64) (*models.Request, error) {
	var req models.Request
	query := `SELECT id, event_id, user_id, status, created_at FROM requests WHERE event_id = $1 AND user_id = $2`
	err := r.db.QueryRow(ctx, query, eventID, userID).Scan(
		&req.ID, &req.EventID, &req.UserID, &req.Status, &req.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.log.Error("failed to get request", logger.Int64("user_id", userID), logger.Error(err))
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) SetStatus(ctx context.Context, eventID, userID int64, from, to string) (bool, error) {
	res, err := r.db.Exec(ctx,
		`UPDATE requests SET status = $1 WHERE event_id = $2 AND user_id = $3 AND status = $4`,
		to, eventID, userID, from)
	if err != nil {
		r.log.Error("failed to set request status", logger.Int64("user_id", userID), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *requestRepo) RejectOpen(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.Exec(ctx,
		`UPDATE requests SET status = 'rejected' WHERE user_id = $1 AND status IN ('pending', 'approved')`,
		userID)
	if err != nil {
		r.log.Error("failed to reject open requests", logger.Int64("user_id", userID), logger.Error(err))
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *requestRepo) ListByUser(ctx context.Context, userID int64) ([]*models.Request, error) {
	query := `SELECT id, event_id, user_id, status, created_at FROM requests WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*models.Request
	for rows.Next() {
		var req models.Request
		if err := rows.Scan(&req.ID, &req.EventID, &req.UserID, &req.Status, &req.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, &req)
	}
	return requests, nil
}
