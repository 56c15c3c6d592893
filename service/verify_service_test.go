package service

import (
	"context"
	"testing"
	"time"
)

func TestEnroll(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")

	if _, err := env.svc.Verify().Enroll(ctx, driver.ID, EnrollInput{ReactionLatencyMs: 0, PhraseDurationSec: 3.0}); !isValidation(err) {
		t.Fatalf("expected validation error for zero reaction, got %v", err)
	}
	if _, err := env.svc.Verify().Enroll(ctx, driver.ID, EnrollInput{ReactionLatencyMs: 500, PhraseDurationSec: -1}); !isValidation(err) {
		t.Fatalf("expected validation error for negative phrase, got %v", err)
	}

	baseline, err := env.svc.Verify().Enroll(ctx, driver.ID, EnrollInput{ReactionLatencyMs: 500, PhraseDurationSec: 3.0})
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if baseline.UserID != driver.ID {
		t.Fatalf("baseline user = %d, want %d", baseline.UserID, driver.ID)
	}

	// Baselines are immutable; a second enrollment is rejected.
	if _, err := env.svc.Verify().Enroll(ctx, driver.ID, EnrollInput{ReactionLatencyMs: 400, PhraseDurationSec: 2.0}); !isConflict(err) {
		t.Fatalf("expected conflict on re-enroll, got %v", err)
	}
}

func TestEvaluateRequiresBaseline(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	driver := env.user(t, "driver", "driver")

	_, err := env.svc.Verify().Evaluate(context.Background(), driver.ID, AttemptInput{ReactionLatencyMs: 500, PhraseDurationSec: 3.0})
	if !isValidation(err) {
		t.Fatalf("expected validation error without baseline, got %v", err)
	}
}

func TestEvaluatePassAtExactTolerance(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")
	if _, err := env.svc.Verify().Enroll(ctx, driver.ID, EnrollInput{ReactionLatencyMs: 500, PhraseDurationSec: 3.0}); err != nil {
		t.Fatalf("enroll: %v", err)
	}

	out, err := env.svc.Verify().Evaluate(ctx, driver.ID, AttemptInput{ReactionLatencyMs: 650, PhraseDurationSec: 5.0})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !out.Result.Pass {
		t.Fatalf("attempt at exact tolerance should pass, got %+v", out.Result)
	}
	if out.Attempt.Outcome != "pass" {
		t.Fatalf("attempt outcome = %q, want pass", out.Attempt.Outcome)
	}
}

func TestFailedAttemptRunsCascade(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")
	event := env.event(t, "prom")
	session := env.readyDriver(t, driver.ID, event.ID)

	// Serving driver with an approved request and assignment.
	if _, err := env.svc.Trust().SubmitRequest(ctx, driver.ID, event.ID); err != nil {
		t.Fatalf("submit request: %v", err)
	}
	if _, err := env.svc.Trust().ApproveRequest(ctx, event.ID, driver.ID); err != nil {
		t.Fatalf("approve request: %v", err)
	}

	// Reaction 200ms over baseline: fail.
	out, err := env.svc.Verify().Evaluate(ctx, driver.ID, AttemptInput{
		EventID:           event.ID,
		ReactionLatencyMs: 700,
		PhraseDurationSec: 3.2,
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out.Result.Pass {
		t.Fatal("attempt should have failed")
	}
	if out.Result.ReactionOk || !out.Result.PhraseOk {
		t.Fatalf("unexpected per-check results: %+v", out.Result)
	}

	if got := env.trustStatus(t, driver.ID); got != "revoked" {
		t.Fatalf("trust status = %q, want revoked", got)
	}
	s, err := env.stg.Session().GetByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if s.IsActive || s.EndedAt == nil {
		t.Fatal("session should be ended by the cascade")
	}
	req, err := env.stg.Request().Get(ctx, event.ID, driver.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if req.Status != "rejected" {
		t.Fatalf("request status = %q, want rejected", req.Status)
	}
	a, err := env.stg.Assignment().Get(ctx, event.ID, driver.ID)
	if err != nil {
		t.Fatalf("get assignment: %v", err)
	}
	if a.Status != "revoked" {
		t.Fatalf("assignment status = %q, want revoked", a.Status)
	}
	alerts, err := env.stg.Alert().ListUnresolvedByUser(ctx, driver.ID)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if alerts[0].AttemptID != out.Attempt.ID {
		t.Fatalf("alert attempt = %q, want %q", alerts[0].AttemptID, out.Attempt.ID)
	}
}

func TestCascadeIsIdempotent(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")
	event := env.event(t, "prom")
	env.readyDriver(t, driver.ID, event.ID)

	out, err := env.svc.Verify().Evaluate(ctx, driver.ID, AttemptInput{
		EventID:           event.ID,
		ReactionLatencyMs: 900,
		PhraseDurationSec: 3.0,
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out.Result.Pass {
		t.Fatal("attempt should have failed")
	}

	// Operator re-run after the cascade already completed.
	if err := env.svc.Trust().RunCascade(ctx, driver.ID, event.ID, ""); err != nil {
		t.Fatalf("re-run cascade: %v", err)
	}

	alerts, err := env.stg.Alert().ListUnresolvedByUser(ctx, driver.ID)
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts after re-run, want 1", len(alerts))
	}
	if got := env.trustStatus(t, driver.ID); got != "revoked" {
		t.Fatalf("trust status = %q, want revoked", got)
	}
}

func TestStartSessionGate(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")
	event := env.event(t, "prom")

	// No opt-in yet.
	if _, err := env.svc.Verify().StartSession(ctx, driver.ID, event.ID); !isValidation(err) {
		t.Fatalf("expected validation error before opt-in, got %v", err)
	}

	if _, err := env.svc.Trust().OptIn(ctx, driver.ID, OptInInput{CarMake: "Honda", LicensePlate: "ABC123"}); err != nil {
		t.Fatalf("opt in: %v", err)
	}

	// Opted in but never verified.
	if _, err := env.svc.Verify().StartSession(ctx, driver.ID, event.ID); !isConflict(err) {
		t.Fatalf("expected conflict without a passing attempt, got %v", err)
	}

	if _, err := env.svc.Verify().Enroll(ctx, driver.ID, EnrollInput{ReactionLatencyMs: 500, PhraseDurationSec: 3.0}); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := env.svc.Verify().Evaluate(ctx, driver.ID, AttemptInput{ReactionLatencyMs: 510, PhraseDurationSec: 3.0}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	session, err := env.svc.Verify().StartSession(ctx, driver.ID, event.ID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if !session.IsActive {
		t.Fatal("session should start active")
	}

	// One active session per driver.
	if _, err := env.svc.Verify().StartSession(ctx, driver.ID, event.ID); !isConflict(err) {
		t.Fatalf("expected conflict on second session, got %v", err)
	}

	if _, err := env.svc.Verify().StartSession(ctx, driver.ID, 999); !isNotFound(err) {
		t.Fatalf("expected not found for unknown event, got %v", err)
	}
}

func TestStartSessionVerificationExpires(t *testing.T) {
	env := newTestEnv(t, time.Nanosecond)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")
	event := env.event(t, "prom")

	if _, err := env.svc.Trust().OptIn(ctx, driver.ID, OptInInput{CarMake: "Honda", LicensePlate: "ABC123"}); err != nil {
		t.Fatalf("opt in: %v", err)
	}
	if _, err := env.svc.Verify().Enroll(ctx, driver.ID, EnrollInput{ReactionLatencyMs: 500, PhraseDurationSec: 3.0}); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	if _, err := env.svc.Verify().Evaluate(ctx, driver.ID, AttemptInput{ReactionLatencyMs: 510, PhraseDurationSec: 3.0}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	time.Sleep(time.Millisecond)

	if _, err := env.svc.Verify().StartSession(ctx, driver.ID, event.ID); !isConflict(err) {
		t.Fatalf("expected conflict after window elapsed, got %v", err)
	}
}

func TestEndSession(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")
	other := env.user(t, "other", "driver")
	event := env.event(t, "prom")
	session := env.readyDriver(t, driver.ID, event.ID)

	if _, err := env.svc.Verify().EndSession(ctx, other.ID, session.ID); err != ErrForbidden {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}

	ended, err := env.svc.Verify().EndSession(ctx, driver.ID, session.ID)
	if err != nil {
		t.Fatalf("end session: %v", err)
	}
	if ended.IsActive || ended.EndedAt == nil {
		t.Fatal("session should be ended")
	}
	firstEndedAt := *ended.EndedAt

	// Ending again is a no-op that keeps the original end time.
	again, err := env.svc.Verify().EndSession(ctx, driver.ID, session.ID)
	if err != nil {
		t.Fatalf("second end: %v", err)
	}
	if again.EndedAt == nil || !again.EndedAt.Equal(firstEndedAt) {
		t.Fatal("second end should not move the end time")
	}

	if _, err := env.svc.Verify().EndSession(ctx, driver.ID, "missing"); !isNotFound(err) {
		t.Fatalf("expected not found for unknown session, got %v", err)
	}
}
