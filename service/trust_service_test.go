package service

import (
	"context"
	"testing"
	"time"
)

func TestOptIn(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")

	if _, err := env.svc.Trust().OptIn(ctx, driver.ID, OptInInput{}); !isValidation(err) {
		t.Fatalf("expected validation error for empty vehicle, got %v", err)
	}

	profile, err := env.svc.Trust().OptIn(ctx, driver.ID, OptInInput{CarMake: "Honda", LicensePlate: "ABC123", Seats: 4})
	if err != nil {
		t.Fatalf("opt in: %v", err)
	}
	if profile.TrustStatus != "active" {
		t.Fatalf("trust status = %q, want active", profile.TrustStatus)
	}

	// Re-opt-in updates vehicle details without touching trust.
	profile, err = env.svc.Trust().OptIn(ctx, driver.ID, OptInInput{CarMake: "Toyota", LicensePlate: "XYZ789"})
	if err != nil {
		t.Fatalf("re-opt-in: %v", err)
	}
	if profile.TrustStatus != "active" {
		t.Fatalf("trust status after update = %q, want active", profile.TrustStatus)
	}

	// A revoked driver cannot opt back in; reinstatement is an admin act.
	if _, err := env.stg.Driver().SetTrustStatus(ctx, driver.ID, "revoked"); err != nil {
		t.Fatalf("set trust: %v", err)
	}
	if _, err := env.svc.Trust().OptIn(ctx, driver.ID, OptInInput{CarMake: "Honda", LicensePlate: "ABC123"}); !isConflict(err) {
		t.Fatalf("expected conflict for revoked driver, got %v", err)
	}
}

func TestSubmitRequestResubmission(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")
	event := env.event(t, "prom")

	if _, err := env.svc.Trust().SubmitRequest(ctx, driver.ID, event.ID); !isValidation(err) {
		t.Fatalf("expected validation error before opt-in, got %v", err)
	}
	if _, err := env.svc.Trust().OptIn(ctx, driver.ID, OptInInput{CarMake: "Honda", LicensePlate: "ABC123"}); err != nil {
		t.Fatalf("opt in: %v", err)
	}

	first, err := env.svc.Trust().SubmitRequest(ctx, driver.ID, event.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := env.svc.Trust().RejectRequest(ctx, event.ID, driver.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// Resubmission reuses the row, back to pending.
	second, err := env.svc.Trust().SubmitRequest(ctx, driver.ID, event.ID)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("resubmission created row %d, want reuse of %d", second.ID, first.ID)
	}
	if second.Status != "pending" {
		t.Fatalf("resubmitted status = %q, want pending", second.Status)
	}
}

func TestApproveRequest(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")
	event := env.event(t, "prom")

	if _, err := env.svc.Trust().ApproveRequest(ctx, event.ID, driver.ID); !isNotFound(err) {
		t.Fatalf("expected not found without a request, got %v", err)
	}

	if _, err := env.svc.Trust().OptIn(ctx, driver.ID, OptInInput{CarMake: "Honda", LicensePlate: "ABC123"}); err != nil {
		t.Fatalf("opt in: %v", err)
	}
	if _, err := env.svc.Trust().SubmitRequest(ctx, driver.ID, event.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	assignment, err := env.svc.Trust().ApproveRequest(ctx, event.ID, driver.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if assignment.Status != "assigned" {
		t.Fatalf("assignment status = %q, want assigned", assignment.Status)
	}

	// Approving twice conflicts; the request is no longer pending.
	if _, err := env.svc.Trust().ApproveRequest(ctx, event.ID, driver.ID); !isConflict(err) {
		t.Fatalf("expected conflict on double approve, got %v", err)
	}
}

func TestApproveRevokedDriverAutoRejects(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")
	event := env.event(t, "prom")

	if _, err := env.svc.Trust().OptIn(ctx, driver.ID, OptInInput{CarMake: "Honda", LicensePlate: "ABC123"}); err != nil {
		t.Fatalf("opt in: %v", err)
	}
	if _, err := env.svc.Trust().SubmitRequest(ctx, driver.ID, event.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Revocation lands while the request sits pending in the admin queue.
	if _, err := env.stg.Driver().SetTrustStatus(ctx, driver.ID, "revoked"); err != nil {
		t.Fatalf("set trust: %v", err)
	}

	if _, err := env.svc.Trust().ApproveRequest(ctx, event.ID, driver.ID); !isConflict(err) {
		t.Fatalf("expected conflict approving a revoked driver, got %v", err)
	}
	req, err := env.stg.Request().Get(ctx, event.ID, driver.ID)
	if err != nil {
		t.Fatalf("get request: %v", err)
	}
	if req.Status != "rejected" {
		t.Fatalf("request status = %q, want auto-rejected", req.Status)
	}
	if a, _ := env.stg.Assignment().Get(ctx, event.ID, driver.ID); a != nil {
		t.Fatal("no assignment should exist for a revoked driver")
	}
}

// failAt runs a failing attempt scoped to the event, leaving the driver
// revoked with an unresolved alert for it.
func failAt(t *testing.T, env *testEnv, userID, eventID int64) {
	t.Helper()
	out, err := env.svc.Verify().Evaluate(context.Background(), userID, AttemptInput{
		EventID:           eventID,
		ReactionLatencyMs: 900,
		PhraseDurationSec: 9.0,
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if out.Result.Pass {
		t.Fatal("attempt should have failed")
	}
}

func TestReinstateIsGlobal(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	admin := env.user(t, "admin", "admin")
	driver := env.user(t, "driver", "driver")
	e1 := env.event(t, "prom")
	e2 := env.event(t, "homecoming")

	if _, err := env.svc.Trust().OptIn(ctx, driver.ID, OptInInput{CarMake: "Honda", LicensePlate: "ABC123"}); err != nil {
		t.Fatalf("opt in: %v", err)
	}
	if _, err := env.svc.Verify().Enroll(ctx, driver.ID, EnrollInput{ReactionLatencyMs: 500, PhraseDurationSec: 3.0}); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	failAt(t, env, driver.ID, e1.ID)
	failAt(t, env, driver.ID, e2.ID)

	alerts, _ := env.stg.Alert().ListUnresolvedByUser(ctx, driver.ID)
	if len(alerts) != 2 {
		t.Fatalf("got %d alerts, want 2", len(alerts))
	}

	profile, err := env.svc.Trust().Reinstate(ctx, admin.ID, driver.ID, e1.ID)
	if err != nil {
		t.Fatalf("reinstate: %v", err)
	}
	if profile.TrustStatus != "active" {
		t.Fatalf("trust status = %q, want active", profile.TrustStatus)
	}

	// Reinstatement clears alerts everywhere, matching the global reach
	// of revocation.
	alerts, _ = env.stg.Alert().ListUnresolvedByUser(ctx, driver.ID)
	if len(alerts) != 0 {
		t.Fatalf("got %d unresolved alerts after reinstate, want 0", len(alerts))
	}

	// Only the adjudicated event gets its assignment back.
	a1, _ := env.stg.Assignment().Get(ctx, e1.ID, driver.ID)
	if a1 == nil || a1.Status != "assigned" {
		t.Fatalf("event 1 assignment = %+v, want assigned", a1)
	}
	if a2, _ := env.stg.Assignment().Get(ctx, e2.ID, driver.ID); a2 != nil && a2.Status == "assigned" {
		t.Fatal("event 2 should not be re-assigned")
	}

	// Reinstating an active driver conflicts.
	if _, err := env.svc.Trust().Reinstate(ctx, admin.ID, driver.ID, e1.ID); !isConflict(err) {
		t.Fatalf("expected conflict reinstating active driver, got %v", err)
	}
}

func TestFinalizeIsEventScoped(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	admin := env.user(t, "admin", "admin")
	driver := env.user(t, "driver", "driver")
	e1 := env.event(t, "prom")
	e2 := env.event(t, "homecoming")

	if _, err := env.svc.Trust().OptIn(ctx, driver.ID, OptInInput{CarMake: "Honda", LicensePlate: "ABC123"}); err != nil {
		t.Fatalf("opt in: %v", err)
	}
	if _, err := env.svc.Verify().Enroll(ctx, driver.ID, EnrollInput{ReactionLatencyMs: 500, PhraseDurationSec: 3.0}); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	failAt(t, env, driver.ID, e1.ID)
	failAt(t, env, driver.ID, e2.ID)

	profile, err := env.svc.Trust().Finalize(ctx, admin.ID, driver.ID, e1.ID)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if profile.TrustStatus != "revoked" {
		t.Fatalf("trust status = %q, want revoked", profile.TrustStatus)
	}

	alerts, _ := env.stg.Alert().ListUnresolvedByUser(ctx, driver.ID)
	if len(alerts) != 1 {
		t.Fatalf("got %d unresolved alerts, want 1", len(alerts))
	}
	if alerts[0].EventID != e2.ID {
		t.Fatalf("remaining alert is for event %d, want %d", alerts[0].EventID, e2.ID)
	}
}
