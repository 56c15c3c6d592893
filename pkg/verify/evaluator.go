// Package verify compares a verification attempt against a driver's
// enrollment baseline. The comparison is a numeric-threshold heuristic,
// not a security control.
package verify

import "saferide/pkg/models"

const (
	// ReactionToleranceMs is how much slower than baseline a reaction
	// may be and still pass.
	ReactionToleranceMs = 150
	// PhraseToleranceSec is how much longer than baseline a spoken
	// phrase may run and still pass.
	PhraseToleranceSec = 2.0
)

type Result struct {
	Pass           bool    `json:"pass"`
	ReactionOk     bool    `json:"reaction_ok"`
	PhraseOk       bool    `json:"phrase_ok"`
	ReactionDelta  int     `json:"reaction_delta_ms"`
	PhraseDelta    float64 `json:"phrase_delta_sec"`
	ReactionLimit  int     `json:"reaction_limit_ms"`
	PhraseLimitSec float64 `json:"phrase_limit_sec"`
}

// Evaluate scores one attempt against the baseline. Deltas are always
// attempt minus baseline; a negative delta trivially passes. Pure, no
// side effects. Callers are responsible for rejecting a missing
// baseline before calling.
func Evaluate(baseline *models.Baseline, reactionMs int, phraseSec float64) Result {
	res := Result{
		ReactionDelta:  reactionMs - baseline.ReactionLatencyMs,
		PhraseDelta:    phraseSec - baseline.PhraseDurationSec,
		ReactionLimit:  baseline.ReactionLatencyMs + ReactionToleranceMs,
		PhraseLimitSec: baseline.PhraseDurationSec + PhraseToleranceSec,
	}
	res.ReactionOk = reactionMs <= res.ReactionLimit
	res.PhraseOk = phraseSec <= res.PhraseLimitSec
	res.Pass = res.ReactionOk && res.PhraseOk
	return res
}
