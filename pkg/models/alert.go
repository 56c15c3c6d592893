package models

import "time"

const AlertVerifyFail = "VERIFY_FAIL"

// AdminAlert is opened by the revocation cascade and closed by
// adjudication. At most one alert exists per failing attempt.
type AdminAlert struct {
	ID                string     `json:"id"`
	Type              string     `json:"type"`
	UserID            int64      `json:"user_id"`
	EventID           int64      `json:"event_id"`
	AttemptID         string     `json:"attempt_id"`
	CreatedAt         time.Time  `json:"created_at"`
	ResolvedByAdminID *int64     `json:"resolved_by_admin_id"`
	ResolvedAt        *time.Time `json:"resolved_at"`
}
