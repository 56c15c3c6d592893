package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"saferide/pkg/logger"
	"saferide/pkg/models"
	"saferide/storage"
)

type driverRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewDriverRepo(db *pgxpool.Pool, log logger.ILogger) storage.IDriverStorage {
	return &driverRepo{db: db, log: log}
}

func (r *driverRepo) UpsertProfile(ctx context.Context, profile *models.DriverProfile) error {
	query := `
		INSERT INTO driver_profiles (user_id, trust_status, car_make, car_model, license_plate, seats, contact_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE
		SET car_make = $3, car_model = $4, license_plate = $5, seats = $6, contact_phone = $7, updated_at = NOW()
		RETURNING trust_status, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		profile.UserID,
		profile.TrustStatus,
		profile.CarMake,
		profile.CarModel,
		profile.LicensePlate,
		profile.Seats,
		profile.ContactPhone,
	).Scan(&profile.TrustStatus, &profile.UpdatedAt)
	if err != nil {
		r.log.Error("failed to upsert driver profile", logger.Int64("user_id", profile.UserID), logger.Error(err))
	}
	return err
}

func (r *driverRepo) GetProfile(ctx context.Context, userID int64) (*models.DriverProfile, error) {
	var p models.DriverProfile
	query := `
		SELECT user_id, trust_status, car_make, car_model, license_plate, seats, contact_phone, updated_at
		FROM driver_profiles
		WHERE user_id = $1
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.TrustStatus, &p.CarMake, &p.CarModel, &p.LicensePlate, &p.Seats, &p.ContactPhone, &p.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		r.log.Error("failed to get driver profile", logger.Int64("user_id", userID), logger.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *driverRepo) GetTrustStatus(ctx context.Context, userID int64) (string, error) {
	var status string
	err := r.db.QueryRow(ctx, `SELECT trust_status FROM driver_profiles WHERE user_id = $1`, userID).Scan(&status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return models.TrustNone, nil
		}
		r.log.Error("failed to get trust status", logger.Int64("user_id", userID), logger.Error(err))
		return "", err
	}
	return status, nil
}

func (r *driverRepo) SetTrustStatus(ctx context.Context, userID int64, status string) (bool, error) {
	res, err := r.db.Exec(ctx,
		`UPDATE driver_profiles SET trust_status = $1, updated_at = NOW() WHERE user_id = $2 AND trust_status <> $1`,
		status, userID)
	if err != nil {
		r.log.Error("failed to set trust status", logger.Int64("user_id", userID), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() > 0, nil
}
