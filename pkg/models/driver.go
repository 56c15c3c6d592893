package models

import "time"

// Trust status is global per driver, never per event. It is the single
// source of truth for every trust-sensitive decision and must be
// re-read immediately before any dependent write.
const (
	TrustNone    = "none"
	TrustActive  = "active"
	TrustRevoked = "revoked"
)

type DriverProfile struct {
	UserID       int64     `json:"user_id"`
	TrustStatus  string    `json:"trust_status"` // none, active, revoked
	CarMake      string    `json:"car_make"`
	CarModel     string    `json:"car_model"`
	LicensePlate string    `json:"license_plate"`
	Seats        int       `json:"seats"`
	ContactPhone string    `json:"contact_phone"`
	UpdatedAt    time.Time `json:"updated_at"`
}
