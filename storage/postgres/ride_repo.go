package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"saferide/pkg/logger"
	"saferide/pkg/models"
	"saferide/storage"
)

type rideRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewRideRepo(db *pgxpool.Pool, log logger.ILogger) storage.IRideStorage {
	return &rideRepo{db: db, log: log}
}

const rideColumns = `id, driver_user_id, rider_user_id, event_id, pickup_text, pickup_lat, pickup_lng, status, created_at, accepted_at, picked_up_at, completed_at`

func (r *rideRepo) Create(ctx context.Context, ride *models.RideRequest) error {
	query := `
		INSERT INTO ride_requests (id, driver_user_id, rider_user_id, event_id, pickup_text, pickup_lat, pickup_lng, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		ride.ID,
		ride.DriverUserID,
		ride.RiderUserID,
		ride.EventID,
		ride.PickupText,
		ride.PickupLat,
		ride.PickupLng,
		ride.Status,
	).Scan(&ride.CreatedAt)
	if err != nil {
		// The partial unique index on open rides backs up the
		// service-level check-then-write.
		if isUniqueViolation(err) {
			return storage.ErrDuplicate
		}
		r.log.Error("failed to create ride request", logger.Int64("rider_id", ride.RiderUserID), logger.Error(err))
	}
	return err
}

func (r *rideRepo) GetByID(ctx context.Context, id string) (*models.RideRequest, error) {
	query := `SELECT ` + rideColumns + ` FROM ride_requests WHERE id = $1`
	ride, err := r.scanOne(ctx, query, id)
	if err != nil {
		r.log.Error("failed to get ride request", logger.String("id", id), logger.Error(err))
		return nil, err
	}
	return ride, nil
}

func (r *rideRepo) GetOpenByRider(ctx context.Context, riderUserID, eventID int64) (*models.RideRequest, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM ride_requests
		WHERE rider_user_id = $1 AND event_id = $2 AND status IN ('pending', 'accepted', 'picked_up')
		LIMIT 1
	`
	ride, err := r.scanOne(ctx, query, riderUserID, eventID)
	if err != nil {
		r.log.Error("failed to get open ride for rider", logger.Int64("rider_id", riderUserID), logger.Error(err))
		return nil, err
	}
	return ride, nil
}

func (r *rideRepo) ListPendingByDriver(ctx context.Context, driverUserID, eventID int64) ([]*models.RideRequest, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM ride_requests
		WHERE driver_user_id = $1 AND event_id = $2 AND status = 'pending'
		ORDER BY created_at ASC
	`
	return r.scanMany(ctx, query, driverUserID, eventID)
}

func (r *rideRepo) ListByRider(ctx context.Context, riderUserID, eventID int64) ([]*models.RideRequest, error) {
	query := `
		SELECT ` + rideColumns + `
		FROM ride_requests
		WHERE rider_user_id = $1 AND event_id = $2
		ORDER BY created_at DESC
	`
	return r.scanMany(ctx, query, riderUserID, eventID)
}

// Transition moves a ride to its next status behind a status
// precondition. COALESCE keeps an already-set transition timestamp
// from being overwritten.
func (r *rideRepo) Transition(ctx context.Context, id, from, to string, at time.Time) (bool, error) {
	var query string
	args := []interface{}{to, id, at, from}
	switch to {
	case models.RideAccepted:
		query = `UPDATE ride_requests SET status = $1, accepted_at = COALESCE(accepted_at, $3) WHERE id = $2 AND status = $4`
	case models.RidePickedUp:
		query = `UPDATE ride_requests SET status = $1, picked_up_at = COALESCE(picked_up_at, $3) WHERE id = $2 AND status = $4`
	case models.RideCompleted:
		query = `UPDATE ride_requests SET status = $1, completed_at = COALESCE(completed_at, $3) WHERE id = $2 AND status = $4`
	case models.RideCancelled:
		// cancellation carries no timestamp of its own
		query = `UPDATE ride_requests SET status = $1 WHERE id = $2 AND status = $3`
		args = []interface{}{to, id, from}
	default:
		return false, fmt.Errorf("unknown ride status %q", to)
	}
	res, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to transition ride", logger.String("id", id), logger.Error(err))
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *rideRepo) scanOne(ctx context.Context, query string, args ...interface{}) (*models.RideRequest, error) {
	var ride models.RideRequest
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&ride.ID, &ride.DriverUserID, &ride.RiderUserID, &ride.EventID,
		&ride.PickupText, &ride.PickupLat, &ride.PickupLng,
		&ride.Status, &ride.CreatedAt, &ride.AcceptedAt, &ride.PickedUpAt, &ride.CompletedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &ride, nil
}

func (r *rideRepo) scanMany(ctx context.Context, query string, args ...interface{}) ([]*models.RideRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*models.RideRequest
	for rows.Next() {
		var ride models.RideRequest
		err := rows.Scan(
			&ride.ID, &ride.DriverUserID, &ride.RiderUserID, &ride.EventID,
			&ride.PickupText, &ride.PickupLat, &ride.PickupLng,
			&ride.Status, &ride.CreatedAt, &ride.AcceptedAt, &ride.PickedUpAt, &ride.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		rides = append(rides, &ride)
	}
	return rides, nil
}
