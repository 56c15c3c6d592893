package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"saferide/pkg/logger"
	"saferide/pkg/models"
	"saferide/storage"
)

type verifyRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewVerifyRepo(db *pgxpool.Pool, log logger.ILogger) storage.IVerifyStorage {
	return &verifyRepo{db: db, log: log}
}

func (r *verifyRepo) CreateBaseline(ctx context.Context, baseline *models.Baseline) error {
	query := `
		INSERT INTO baselines (user_id, reaction_latency_ms, phrase_duration_sec, image_url)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		baseline.UserID,
		baseline.ReactionLatencyMs,
		baseline.PhraseDurationSec,
		baseline.ImageURL,
	).Scan(&baseline.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		r.log.Error("failed to create baseline", logger.Int64("user_id", baseline.UserID), logger.Error(err))
	}
	return err
}

func (r *verifyRepo) GetBaseline(ctx context.Context, userID int64) (*models.Baseline, error) {
	var b models.Baseline
	query := `
		SELECT user_id, reaction_latency_ms, phrase_duration_sec, image_url, created_at
		FROM baselines
		WHERE user_id = $1
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&b.UserID, &b.ReactionLatencyMs, &b.PhraseDurationSec, &b.ImageURL, &b.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.log.Error("failed to get baseline", logger.Int64("user_id", userID), logger.Error(err))
		return nil, err
	}
	return &b, nil
}

func (r *verifyRepo) CreateAttempt(ctx context.Context, attempt *models.Attempt) error {
	query := `
		INSERT INTO attempts (id, user_id, event_id, reaction_latency_ms, phrase_duration_sec, image_url, audio_url, outcome)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		attempt.ID,
		attempt.UserID,
		attempt.EventID,
		attempt.ReactionLatencyMs,
		attempt.PhraseDurationSec,
		attempt.ImageURL,
		attempt.AudioURL,
		attempt.Outcome,
	).Scan(&attempt.CreatedAt)
	if err != nil {
		r.log.Error("failed to create attempt", logger.Int64("user_id", attempt.UserID), logger.Error(err))
	}
	return err
}

func (r *verifyRepo) GetAttempt(ctx context.Context, id string) (*models.Attempt, error) {
	var a models.Attempt
	query := `
		SELECT id, user_id, event_id, reaction_latency_ms, phrase_duration_sec, image_url, audio_url, outcome, created_at
		FROM attempts
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.UserID, &a.EventID, &a.ReactionLatencyMs, &a.PhraseDurationSec, &a.ImageURL, &a.AudioURL, &a.Outcome, &a.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.log.Error("failed to get attempt", logger.String("id", id), logger.Error(err))
		return nil, err
	}
	return &a, nil
}

func (r *verifyRepo) GetLatestAttempt(ctx context.Context, userID int64) (*models.Attempt, error) {
	var a models.Attempt
	query := `
		SELECT id, user_id, event_id, reaction_latency_ms, phrase_duration_sec, image_url, audio_url, outcome, created_at
		FROM attempts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&a.ID, &a.UserID, &a.EventID, &a.ReactionLatencyMs, &a.PhraseDurationSec, &a.ImageURL, &a.AudioURL, &a.Outcome, &a.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.log.Error("failed to get latest attempt", logger.Int64("user_id", userID), logger.Error(err))
		return nil, err
	}
	return &a, nil
}
