package models

import "time"

const (
	RidePending   = "pending"
	RideAccepted  = "accepted"
	RidePickedUp  = "picked_up"
	RideCompleted = "completed"
	RideCancelled = "cancelled"
)

type RideRequest struct {
	ID           string     `json:"id"`
	DriverUserID int64      `json:"driver_user_id"`
	RiderUserID  int64      `json:"rider_user_id"`
	EventID      int64      `json:"event_id"`
	PickupText   string     `json:"pickup_text"`
	PickupLat    *float64   `json:"pickup_lat"`
	PickupLng    *float64   `json:"pickup_lng"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	AcceptedAt   *time.Time `json:"accepted_at"`
	PickedUpAt   *time.Time `json:"picked_up_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// Terminal reports whether the ride has reached an end state. A rider
// may hold any number of terminal rides per event but only one
// non-terminal one.
func (r *RideRequest) Terminal() bool {
	return r.Status == RideCompleted || r.Status == RideCancelled
}
