package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"saferide/pkg/logger"
	"saferide/pkg/models"
	"saferide/storage"
)

type sessionRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewSessionRepo(db *pgxpool.Pool, log logger.ILogger) storage.ISessionStorage {
	return &sessionRepo{db: db, log: log}
}

func (r *sessionRepo) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, event_id, started_at, is_active)
		VALUES ($1, $2, $3, $4, TRUE)
	`
	_, err := r.db.Exec(ctx, query, session.ID, session.UserID, session.EventID, session.StartedAt)
	if err != nil {
		r.log.Error("failed to create session", logger.Int64("user_id", session.UserID), logger.Error(err))
	}
	return err
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	query := `SELECT id, user_id, event_id, started_at, ended_at, is_active FROM sessions WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.EventID, &s.StartedAt, &s.EndedAt, &s.IsActive,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.log.Error("failed to get session", logger.String("id", id), logger.Error(err))
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) GetActive(ctx context.Context, userID int64) (*models.Session, error) {
	var s models.Session
	query := `SELECT id, user_id, event_id, started_at, ended_at, is_active FROM sessions WHERE user_id = $1 AND is_active = TRUE LIMIT 1`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.EventID, &s.StartedAt, &s.EndedAt, &s.IsActive,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.log.Error("failed to get active session", logger.Int64("user_id", userID), logger.Error(err))
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) GetActiveForEvent(ctx context.Context, userID, eventID int64) (*models.Session, error) {
	var s models.Session
	query := `
		SELECT id, user_id, event_id, started_at, ended_at, is_active
		FROM sessions
		WHERE user_id = $1 AND event_id = $2 AND is_active = TRUE
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, userID, eventID).Scan(
		&s.ID, &s.UserID, &s.EventID, &s.StartedAt, &s.EndedAt, &s.IsActive,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.log.Error("failed to get active session for event", logger.Int64("user_id", userID), logger.Error(err))
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) End(ctx context.Context, id string, endedAt time.Time) (bool, error) {
	res, err := r.db.Exec(ctx,
		`UPDATE sessions SET is_active = FALSE, ended_at = $1 WHERE id = $2 AND is_active = TRUE`,
		endedAt, id)
	if err != nil {
		r.log.Error("failed to end session", logger.String("id", id), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *sessionRepo) EndAll(ctx context.Context, userID int64, endedAt time.Time) (int64, error) {
	res, err := r.db.Exec(ctx,
		`UPDATE sessions SET is_active = FALSE, ended_at = $1 WHERE user_id = $2 AND is_active = TRUE`,
		endedAt, userID)
	if err != nil {
		r.log.Error("failed to end sessions", logger.Int64("user_id", userID), logger.Error(err))
		return 0, err
	}
	return res.RowsAffected(), nil
}
