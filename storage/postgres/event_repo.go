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

type eventRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewEventRepo(db *pgxpool.Pool, log logger.ILogger) storage.IEventStorage {
	return &eventRepo{db: db, log: log}
}

func (r *eventRepo) Create(ctx context.Context, name string, startsAt time.Time) (*models.Event, error) {
	var e models.Event
	query := `
		INSERT INTO events (name, starts_at)
		VALUES ($1, $2)
		RETURNING id, name, starts_at, created_at
	`
	err := r.db.QueryRow(ctx, query, name, startsAt).Scan(&e.ID, &e.Name, &e.StartsAt, &e.CreatedAt)
	if err != nil {
		r.log.Error("failed to create event", logger.Error(err))
		return nil, err
	}
	return &e, nil
}

func (r *eventRepo) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	var e models.Event
	query := `SELECT id, name, starts_at, created_at FROM events WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(&e.ID, &e.Name, &e.StartsAt, &e.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.log.Error("failed to get event", logger.Int64("id", id), logger.Error(err))
		return nil, err
	}
	return &e, nil
}

func (r *eventRepo) GetAll(ctx context.Context) ([]*models.Event, error) {
	query := `SELECT id, name, starts_at, created_at FROM events ORDER BY starts_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.StartsAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, nil
}
