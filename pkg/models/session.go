package models

import "time"

// Session is the window in which a driver is ride-discoverable for an
// event. At most one active session per user, enforced by the service
// layer rather than a storage constraint.
type Session struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id"`
	EventID   int64      `json:"event_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	IsActive  bool       `json:"is_active"`
}
