package verify

import (
	"testing"

	"saferide/pkg/models"
)

func TestEvaluate(t *testing.T) {
	baseline := &models.Baseline{ReactionLatencyMs: 500, PhraseDurationSec: 3.0}

	tests := []struct {
		name       string
		reactionMs int
		phraseSec  float64
		pass       bool
		reactionOk bool
		phraseOk   bool
	}{
		{"both within tolerance", 600, 4.0, true, true, true},
		{"both at exact limit", 650, 5.0, true, true, true},
		{"faster than baseline", 400, 2.5, true, true, true},
		{"reaction one over", 651, 3.0, false, false, true},
		{"phrase over limit", 500, 5.1, false, true, false},
		{"both over", 900, 6.0, false, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Evaluate(baseline, tc.reactionMs, tc.phraseSec)
			if res.Pass != tc.pass {
				t.Fatalf("pass = %v, want %v", res.Pass, tc.pass)
			}
			if res.ReactionOk != tc.reactionOk {
				t.Fatalf("reactionOk = %v, want %v", res.ReactionOk, tc.reactionOk)
			}
			if res.PhraseOk != tc.phraseOk {
				t.Fatalf("phraseOk = %v, want %v", res.PhraseOk, tc.phraseOk)
			}
		})
	}
}

func TestEvaluateDeltas(t *testing.T) {
	baseline := &models.Baseline{ReactionLatencyMs: 500, PhraseDurationSec: 3.0}

	res := Evaluate(baseline, 700, 3.2)
	if res.ReactionDelta != 200 {
		t.Fatalf("reactionDelta = %d, want 200", res.ReactionDelta)
	}
	if res.PhraseDelta < 0.19 || res.PhraseDelta > 0.21 {
		t.Fatalf("phraseDelta = %f, want ~0.2", res.PhraseDelta)
	}
	if res.ReactionOk {
		t.Fatal("200ms over baseline must fail the reaction check")
	}
	if !res.PhraseOk {
		t.Fatal("0.2s over baseline must pass the phrase check")
	}
	if res.Pass {
		t.Fatal("overall outcome must be fail when one check fails")
	}

	// Negative deltas trivially satisfy the bound.
	res = Evaluate(baseline, 300, 1.0)
	if res.ReactionDelta != -200 {
		t.Fatalf("reactionDelta = %d, want -200", res.ReactionDelta)
	}
	if !res.Pass {
		t.Fatal("faster-than-baseline attempt must pass")
	}
}

func TestEvaluateLimits(t *testing.T) {
	baseline := &models.Baseline{ReactionLatencyMs: 420, PhraseDurationSec: 2.5}
	res := Evaluate(baseline, 420, 2.5)
	if res.ReactionLimit != 570 {
		t.Fatalf("reactionLimit = %d, want 570", res.ReactionLimit)
	}
	if res.PhraseLimitSec != 4.5 {
		t.Fatalf("phraseLimit = %f, want 4.5", res.PhraseLimitSec)
	}
}
