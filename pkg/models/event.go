package models

import "time"

type Event struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	StartsAt  time.Time `json:"starts_at"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// Request is a driver's ask to serve an event. Unique per
// (event_id, user_id); resubmission reuses the row.
type Request struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	Status    string    `json:"status"` // pending, approved, rejected
	CreatedAt time.Time `json:"created_at"`
}

const (
	AssignmentAssigned = "assigned"
	AssignmentRevoked  = "revoked"
)

// Assignment is created when a Request is approved. Unique per
// (event_id, user_id).
type Assignment struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	Status    string    `json:"status"` // assigned, revoked
	UpdatedAt time.Time `json:"updated_at"`
}
