package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"saferide/pkg/geo"
	"saferide/pkg/locations"
	"saferide/pkg/logger"
	"saferide/pkg/models"
	"saferide/storage"
)

type RideInput struct {
	DriverUserID int64
	EventID      int64
	PickupText   string
	PickupLat    *float64
	PickupLng    *float64
}

// QueuedRide is a pending ride annotated with its distance from the
// driver's last known location, when both positions are known.
type QueuedRide struct {
	*models.RideRequest
	DistanceMiles *float64 `json:"distance_miles"`
}

type RideService interface {
	// Create admits a new ride request against a driver who is
	// currently ride-visible for the event. A rider holds at most one
	// non-terminal ride per event; history is unlimited.
	Create(ctx context.Context, riderUserID int64, in RideInput) (*models.RideRequest, error)
	// Advance moves a ride along pending → accepted → picked_up →
	// completed, or to cancelled. The assigned driver advances, the
	// requesting rider cancels.
	Advance(ctx context.Context, actorUserID int64, rideID, next string) (*models.RideRequest, error)
	// Queue returns the driver's pending rides ordered by distance
	// from the driver's last known location, nearest first, falling
	// back to request age on missing coordinates or ties.
	Queue(ctx context.Context, driverUserID, eventID int64) ([]*QueuedRide, error)
	ListForRider(ctx context.Context, riderUserID, eventID int64) ([]*models.RideRequest, error)
	ReportLocation(ctx context.Context, driverUserID, eventID int64, lat, lng float64) error
}

type rideService struct {
	stg  storage.IStorage
	locs locations.Source
	log  logger.ILogger
}

func NewRideService(stg storage.IStorage, locs locations.Source, log logger.ILogger) RideService {
	return &rideService{stg: stg, locs: locs, log: log}
}

func (s *rideService) Create(ctx context.Context, riderUserID int64, in RideInput) (*models.RideRequest, error) {
	if in.PickupText == "" {
		return nil, Validationf("pickup description is required")
	}
	if (in.PickupLat == nil) != (in.PickupLng == nil) {
		return nil, Validationf("pickup coordinates require both latitude and longitude")
	}
	if in.DriverUserID == riderUserID {
		return nil, Validationf("cannot request a ride from yourself")
	}
	event, err := s.stg.Event().GetByID(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, &NotFoundError{Entity: "event"}
	}

	// Ride-visibility gate: active session for this event plus a
	// non-revoked trust status, both read fresh.
	session, err := s.stg.Session().GetActiveForEvent(ctx, in.DriverUserID, in.EventID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, Conflictf("driver is not available for this event")
	}
	status, err := s.stg.Driver().GetTrustStatus(ctx, in.DriverUserID)
	if err != nil {
		return nil, err
	}
	if status == models.TrustRevoked {
		return nil, Conflictf("driver is not available for this event")
	}

	open, err := s.stg.Ride().GetOpenByRider(ctx, riderUserID, in.EventID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, Conflictf("you already have an open ride request for this event")
	}

	ride := &models.RideRequest{
		ID:           uuid.New().String(),
		DriverUserID: in.DriverUserID,
		RiderUserID:  riderUserID,
		EventID:      in.EventID,
		PickupText:   in.PickupText,
		PickupLat:    in.PickupLat,
		PickupLng:    in.PickupLng,
		Status:       models.RidePending,
	}
	if err := s.stg.Ride().Create(ctx, ride); err != nil {
		if err == storage.ErrDuplicate {
			return nil, Conflictf("you already have an open ride request for this event")
		}
		return nil, err
	}
	return ride, nil
}

func (s *rideService) Advance(ctx context.Context, actorUserID int64, rideID, next string) (*models.RideRequest, error) {
	ride, err := s.stg.Ride().GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride == nil {
		return nil, &NotFoundError{Entity: "ride request"}
	}

	var from string
	switch next {
	case models.RideAccepted:
		if actorUserID != ride.DriverUserID {
			return nil, ErrForbidden
		}
		// Accepting is trust-sensitive: the driver must still be
		// ride-visible at this moment, not at request time.
		session, err := s.stg.Session().GetActiveForEvent(ctx, ride.DriverUserID, ride.EventID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, Conflictf("no active session for this event")
		}
		status, err := s.stg.Driver().GetTrustStatus(ctx, ride.DriverUserID)
		if err != nil {
			return nil, err
		}
		if status == models.TrustRevoked {
			return nil, Conflictf("driving privilege is revoked")
		}
		from = models.RidePending
	case models.RidePickedUp:
		if actorUserID != ride.DriverUserID {
			return nil, ErrForbidden
		}
		from = models.RideAccepted
	case models.RideCompleted:
		if actorUserID != ride.DriverUserID {
			return nil, ErrForbidden
		}
		from = models.RidePickedUp
	case models.RideCancelled:
		if actorUserID != ride.RiderUserID {
			return nil, ErrForbidden
		}
		if ride.Status != models.RidePending && ride.Status != models.RideAccepted {
			return nil, Conflictf("ride can no longer be cancelled")
		}
		from = ride.Status
	default:
		return nil, Validationf("invalid ride status %q", next)
	}

	ok, err := s.stg.Ride().Transition(ctx, rideID, from, next, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, Conflictf("ride is no longer %s", from)
	}
	return s.stg.Ride().GetByID(ctx, rideID)
}

func (s *rideService) Queue(ctx context.Context, driverUserID, eventID int64) ([]*QueuedRide, error) {
	pending, err := s.stg.Ride().ListPendingByDriver(ctx, driverUserID, eventID)
	if err != nil {
		return nil, err
	}

	driverLat, driverLng, located, err := s.locs.Get(ctx, driverUserID, eventID)
	if err != nil {
		// A location cache outage degrades ordering to FIFO rather
		// than failing the queue.
		s.log.Warning("driver location lookup failed", logger.Int64("user_id", driverUserID), logger.Error(err))
		located = false
	}

	queue := make([]*QueuedRide, 0, len(pending))
	for _, ride := range pending {
		q := &QueuedRide{RideRequest: ride}
		if located && ride.PickupLat != nil && ride.PickupLng != nil {
			d := geo.Miles(driverLat, driverLng, *ride.PickupLat, *ride.PickupLng)
			q.DistanceMiles = &d
		}
		queue = append(queue, q)
	}

	// The list arrives ordered by created_at; a stable sort on
	// distance alone keeps FIFO as the tiebreak and puts unlocatable
	// pickups last in age order.
	sort.SliceStable(queue, func(i, j int) bool {
		di, dj := queue[i].DistanceMiles, queue[j].DistanceMiles
		if di != nil && dj != nil {
			return *di < *dj
		}
		return di != nil && dj == nil
	})
	return queue, nil
}

func (s *rideService) ListForRider(ctx context.Context, riderUserID, eventID int64) ([]*models.RideRequest, error) {
	return s.stg.Ride().ListByRider(ctx, riderUserID, eventID)
}

func (s *rideService) ReportLocation(ctx context.Context, driverUserID, eventID int64, lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return Validationf("coordinates out of range")
	}
	return s.locs.Set(ctx, driverUserID, eventID, lat, lng)
}
