package models

import "time"

const (
	OutcomePass = "pass"
	OutcomeFail = "fail"
)

// Baseline holds a driver's one-time enrollment measurements. Created
// once, immutable afterwards.
type Baseline struct {
	UserID            int64     `json:"user_id"`
	ReactionLatencyMs int       `json:"reaction_latency_ms"`
	PhraseDurationSec float64   `json:"phrase_duration_sec"`
	ImageURL          string    `json:"image_url"`
	CreatedAt         time.Time `json:"created_at"`
}

// Attempt is one verification try against the baseline. Append-only.
type Attempt struct {
	ID                string    `json:"id"`
	UserID            int64     `json:"user_id"`
	EventID           *int64    `json:"event_id"`
	ReactionLatencyMs int       `json:"reaction_latency_ms"`
	PhraseDurationSec float64   `json:"phrase_duration_sec"`
	ImageURL          string    `json:"image_url"`
	AudioURL          string    `json:"audio_url"`
	Outcome           string    `json:"outcome"` // pass, fail
	CreatedAt         time.Time `json:"created_at"`
}
