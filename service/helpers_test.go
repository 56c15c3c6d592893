package service

import (
	"context"
	"testing"
	"time"

	"saferide/pkg/blob"
	"saferide/pkg/locations"
	"saferide/pkg/logger"
	"saferide/pkg/models"
	"saferide/pkg/notify"
	"saferide/storage/memory"
)

type testEnv struct {
	svc  IServiceManager
	stg  *memory.Store
	locs *locations.MemSource
}

func newTestEnv(t *testing.T, window time.Duration) *testEnv {
	t.Helper()
	stg := memory.New()
	locs := locations.NewMemSource()
	svc := New(Deps{
		Storage:      stg,
		Blob:         blob.NewMemStore(),
		Locations:    locs,
		Notifier:     notify.Nop{},
		VerifyWindow: window,
		Log:          logger.New("test", "error"),
	})
	return &testEnv{svc: svc, stg: stg, locs: locs}
}

func (e *testEnv) user(t *testing.T, username, role string) *models.User {
	t.Helper()
	u, err := e.svc.User().Register(context.Background(), username, username, role)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

func (e *testEnv) event(t *testing.T, name string) *models.Event {
	t.Helper()
	ev, err := e.svc.Event().Create(context.Background(), name, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("create event %s: %v", name, err)
	}
	return ev
}

// readyDriver opts the user in, enrolls a 500ms/3.0s baseline, passes a
// verification attempt and starts a session for the event.
func (e *testEnv) readyDriver(t *testing.T, userID, eventID int64) *models.Session {
	t.Helper()
	ctx := context.Background()
	if _, err := e.svc.Trust().OptIn(ctx, userID, OptInInput{CarMake: "Honda", LicensePlate: "ABC123"}); err != nil {
		t.Fatalf("opt in: %v", err)
	}
	if _, err := e.svc.Verify().Enroll(ctx, userID, EnrollInput{ReactionLatencyMs: 500, PhraseDurationSec: 3.0}); err != nil {
		t.Fatalf("enroll: %v", err)
	}
	out, err := e.svc.Verify().Evaluate(ctx, userID, AttemptInput{
		EventID:           eventID,
		ReactionLatencyMs: 520,
		PhraseDurationSec: 3.1,
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !out.Result.Pass {
		t.Fatalf("expected passing attempt, got %+v", out.Result)
	}
	session, err := e.svc.Verify().StartSession(ctx, userID, eventID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return session
}

func (e *testEnv) trustStatus(t *testing.T, userID int64) string {
	t.Helper()
	status, err := e.stg.Driver().GetTrustStatus(context.Background(), userID)
	if err != nil {
		t.Fatalf("get trust status: %v", err)
	}
	return status
}

func isValidation(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

func isConflict(err error) bool {
	_, ok := err.(*ConflictError)
	return ok
}

func isNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}
