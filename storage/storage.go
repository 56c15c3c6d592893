package storage

import (
	"context"
	"time"

	"saferide/pkg/models"
)

type IStorage interface {
	User() IUserStorage
	Driver() IDriverStorage
	Verify() IVerifyStorage
	Event() IEventStorage
	Request() IRequestStorage
	Assignment() IAssignmentStorage
	Session() ISessionStorage
	Ride() IRideStorage
	Alert() IAlertStorage
	Close()
}

type IUserStorage interface {
	Create(ctx context.Context, username, fullname, role string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type IDriverStorage interface {
	UpsertProfile(ctx context.Context, profile *models.DriverProfile) error
	GetProfile(ctx context.Context, userID int64) (*models.DriverProfile, error)
	// GetTrustStatus is the authoritative trust accessor. Every
	// trust-sensitive decision reads through here immediately before
	// its dependent write; trust is never cached across a decision.
	GetTrustStatus(ctx context.Context, userID int64) (string, error)
	// SetTrustStatus is a conditional update (no-op when already at
	// the target status) and reports whether a row changed.
	SetTrustStatus(ctx context.Context, userID int64, status string) (bool, error)
}

type IVerifyStorage interface {
	CreateBaseline(ctx context.Context, baseline *models.Baseline) error
	GetBaseline(ctx context.Context, userID int64) (*models.Baseline, error)
	CreateAttempt(ctx context.Context, attempt *models.Attempt) error
	GetAttempt(ctx context.Context, id string) (*models.Attempt, error)
	GetLatestAttempt(ctx context.Context, userID int64) (*models.Attempt, error)
}

type IEventStorage interface {
	Create(ctx context.Context, name string, startsAt time.Time) (*models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	GetAll(ctx context.Context) ([]*models.Event, error)
}

type IRequestStorage interface {
	// Upsert inserts a pending request or, on the (event_id, user_id)
	// business key, resets the existing row to pending with a fresh
	// created_at. Resubmission never creates a duplicate row.
	Upsert(ctx context.Context, eventID, userID int64) (*models.Request, error)
	Get(ctx context.Context, eventID, userID int64) (*models.Request, error)
	// SetStatus moves a request from one status to another and
	// reports whether a row matched the precondition.
	SetStatus(ctx context.Context, eventID, userID int64, from, to string) (bool, error)
	// RejectOpen rejects every pending or approved request the user
	// holds, across all events. Idempotent.
	RejectOpen(ctx context.Context, userID int64) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Request, error)
}

type IAssignmentStorage interface {
	// Upsert inserts or, on the (event_id, user_id) business key,
	// overwrites the status and refreshes updated_at.
	Upsert(ctx context.Context, eventID, userID int64, status string) (*models.Assignment, error)
	Get(ctx context.Context, eventID, userID int64) (*models.Assignment, error)
	// RevokeAll revokes every non-revoked assignment the user holds,
	// across all events. Idempotent.
	RevokeAll(ctx context.Context, userID int64) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Assignment, error)
}

type ISessionStorage interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	GetActive(ctx context.Context, userID int64) (*models.Session, error)
	GetActiveForEvent(ctx context.Context, userID, eventID int64) (*models.Session, error)
	// End deactivates a session and reports whether it was still
	// active. Ending an ended session is a no-op.
	End(ctx context.Context, id string, endedAt time.Time) (bool, error)
	// EndAll deactivates every active session the user holds.
	// Idempotent.
	EndAll(ctx context.Context, userID int64, endedAt time.Time) (int64, error)
}

type IRideStorage interface {
	Create(ctx context.Context, ride *models.RideRequest) error
	GetByID(ctx context.Context, id string) (*models.RideRequest, error)
	// GetOpenByRider returns the rider's single non-terminal ride for
	// the event, or nil when none exists.
	GetOpenByRider(ctx context.Context, riderUserID, eventID int64) (*models.RideRequest, error)
	ListPendingByDriver(ctx context.Context, driverUserID, eventID int64) ([]*models.RideRequest, error)
	ListByRider(ctx context.Context, riderUserID, eventID int64) ([]*models.RideRequest, error)
	// Transition advances a ride from one status to the next, stamping
	// the transition timestamp exactly once, and reports whether a row
	// matched the precondition.
	Transition(ctx context.Context, id, from, to string, at time.Time) (bool, error)
}

type IAlertStorage interface {
	// CreateIfAbsent inserts the alert unless one already exists for
	// the same attempt, and reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, alert *models.AdminAlert) (bool, error)
	ListUnresolvedByUser(ctx context.Context, userID int64) ([]*models.AdminAlert, error)
	ListUnresolved(ctx context.Context) ([]*models.AdminAlert, error)
	// ResolveAllForUser closes every unresolved alert the user holds,
	// across all events.
	ResolveAllForUser(ctx context.Context, userID, adminID int64, at time.Time) (int64, error)
	// ResolveForEvent closes only the user's unresolved alerts scoped
	// to one event.
	ResolveForEvent(ctx context.Context, userID, eventID, adminID int64, at time.Time) (int64, error)
}
