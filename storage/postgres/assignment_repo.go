package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"saferide/pkg/logger"
	"saferide/pkg/models"
	"saferide/storage"
)

type assignmentRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewAssignmentRepo(db *pgxpool.Pool, log logger.ILogger) storage.IAssignmentStorage {
	return &assignmentRepo{db: db, log: log}
}

func (r *assignmentRepo) Upsert(ctx context.Context, eventID, userID int64, status string) (*models.Assignment, error) {
	var a models.Assignment
	query := `
		INSERT INTO assignments (event_id, user_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO UPDATE
		SET status = $3, updated_at = NOW()
		RETURNING id, event_id, user_id, status, updated_at
	`
	err := r.db.QueryRow(ctx, query, eventID, userID, status).Scan(
		&a.ID, &a.EventID, &a.UserID, &a.Status, &a.UpdatedAt,
	)
	if err != nil {
		r.log.Error("failed to upsert assignment", logger.Int64("user_id", userID), logger.Error(err))
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) Get(ctx context.Context, eventID, userID int64) (*models.Assignment, error) {
	var a models.Assignment
	query := `SELECT id, event_id, user_id, status, updated_at FROM assignments WHERE event_id = $1 AND user_id = $2`
	err := r.db.QueryRow(ctx, query, eventID, userID).Scan(
		&a.ID, &a.EventID, &a.UserID, &a.Status, &a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.log.Error("failed to get assignment", logger.Int64("user_id", userID), logger.Error(err))
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepo) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.Exec(ctx,
		`UPDATE assignments SET status = 'revoked', updated_at = NOW() WHERE user_id = $1 AND status <> 'revoked'`,
		userID)
	if err != nil {
		r.log.Error("failed to revoke assignments", logger.Int64("user_id", userID), logger.Error(err))
		return 0, err
	}
	return res.RowsAffected(), nil
}

func (r *assignmentRepo) ListByUser(ctx context.Context, userID int64) ([]*models.Assignment, error) {
	query := `SELECT id, event_id, user_id, status, updated_at FROM assignments WHERE user_id = $1 ORDER BY updated_at DESC`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []*models.Assignment
	for rows.Next() {
		var a models.Assignment
		if err := rows.Scan(&a.ID, &a.EventID, &a.UserID, &a.Status, &a.UpdatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, &a)
	}
	return assignments, nil
}
