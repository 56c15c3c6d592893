package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"saferide/pkg/logger"
	"saferide/pkg/models"
	"saferide/storage"
)

type userRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewUserRepo(db *pgxpool.Pool, log logger.ILogger) storage.IUserStorage {
	return &userRepo{db: db, log: log}
}

func (r *userRepo) Create(ctx context.Context, username, fullname, role string) (*models.User, error) {
	var user models.User
	query := `
		INSERT INTO users (username, full_name, role)
		VALUES ($1, $2, $3)
		RETURNING id, username, full_name, phone, role, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, username, fullname, role).Scan(
		&user.ID, &user.Username, &user.FullName, &user.Phone, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		r.log.Error("failed to create user", logger.Error(err))
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	query := `SELECT id, username, full_name, phone, role, created_at, updated_at FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.FullName, &user.Phone, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.log.Error("failed to get user by id", logger.Int64("id", id), logger.Error(err))
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := `SELECT id, username, full_name, phone, role, created_at, updated_at FROM users WHERE username = $1`
	err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.FullName, &user.Phone, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.log.Error("failed to get user by username", logger.Error(err))
		return nil, err
	}
	return &user, nil
}
