package service

import (
	"context"
	"testing"
	"time"
)

func ptr(f float64) *float64 { return &f }

func TestCreateRide(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")
	rider := env.user(t, "rider", "rider")
	event := env.event(t, "prom")

	if _, err := env.svc.Ride().Create(ctx, rider.ID, RideInput{DriverUserID: driver.ID, EventID: event.ID}); !isValidation(err) {
		t.Fatalf("expected validation error for empty pickup, got %v", err)
	}
	if _, err := env.svc.Ride().Create(ctx, rider.ID, RideInput{
		DriverUserID: driver.ID, EventID: event.ID, PickupText: "gym", PickupLat: ptr(41.9),
	}); !isValidation(err) {
		t.Fatalf("expected validation error for lat without lng, got %v", err)
	}
	if _, err := env.svc.Ride().Create(ctx, rider.ID, RideInput{
		DriverUserID: rider.ID, EventID: event.ID, PickupText: "gym",
	}); !isValidation(err) {
		t.Fatalf("expected validation error for self-ride, got %v", err)
	}

	// Driver has no active session yet, so they are not visible.
	if _, err := env.svc.Ride().Create(ctx, rider.ID, RideInput{
		DriverUserID: driver.ID, EventID: event.ID, PickupText: "gym",
	}); !isConflict(err) {
		t.Fatalf("expected conflict for invisible driver, got %v", err)
	}

	env.readyDriver(t, driver.ID, event.ID)
	ride, err := env.svc.Ride().Create(ctx, rider.ID, RideInput{
		DriverUserID: driver.ID, EventID: event.ID, PickupText: "gym entrance",
	})
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}
	if ride.Status != "pending" {
		t.Fatalf("ride status = %q, want pending", ride.Status)
	}
}

func TestOneOpenRidePerRiderPerEvent(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")
	rider := env.user(t, "rider", "rider")
	event := env.event(t, "prom")
	env.readyDriver(t, driver.ID, event.ID)

	in := RideInput{DriverUserID: driver.ID, EventID: event.ID, PickupText: "gym"}
	first, err := env.svc.Ride().Create(ctx, rider.ID, in)
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}
	if _, err := env.svc.Ride().Create(ctx, rider.ID, in); !isConflict(err) {
		t.Fatalf("expected conflict on second open ride, got %v", err)
	}

	// A terminal ride frees the slot; history accumulates.
	if _, err := env.svc.Ride().Advance(ctx, rider.ID, first.ID, "cancelled"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := env.svc.Ride().Create(ctx, rider.ID, in); err != nil {
		t.Fatalf("create after cancel: %v", err)
	}
	rides, err := env.svc.Ride().ListForRider(ctx, rider.ID, event.ID)
	if err != nil {
		t.Fatalf("list rides: %v", err)
	}
	if len(rides) != 2 {
		t.Fatalf("got %d rides in history, want 2", len(rides))
	}
}

func TestRideLifecycle(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")
	rider := env.user(t, "rider", "rider")
	event := env.event(t, "prom")
	env.readyDriver(t, driver.ID, event.ID)

	ride, err := env.svc.Ride().Create(ctx, rider.ID, RideInput{DriverUserID: driver.ID, EventID: event.ID, PickupText: "gym"})
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}

	// Only the assigned driver advances.
	if _, err := env.svc.Ride().Advance(ctx, rider.ID, ride.ID, "accepted"); err != ErrForbidden {
		t.Fatalf("expected forbidden for rider accept, got %v", err)
	}

	ride, err = env.svc.Ride().Advance(ctx, driver.ID, ride.ID, "accepted")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if ride.AcceptedAt == nil {
		t.Fatal("accepted_at should be stamped")
	}
	acceptedAt := *ride.AcceptedAt

	// Skipping a step conflicts.
	if _, err := env.svc.Ride().Advance(ctx, driver.ID, ride.ID, "completed"); !isConflict(err) {
		t.Fatalf("expected conflict skipping picked_up, got %v", err)
	}

	ride, err = env.svc.Ride().Advance(ctx, driver.ID, ride.ID, "picked_up")
	if err != nil {
		t.Fatalf("pick up: %v", err)
	}
	if ride.PickedUpAt == nil {
		t.Fatal("picked_up_at should be stamped")
	}

	// Once picked up, the rider can no longer cancel.
	if _, err := env.svc.Ride().Advance(ctx, rider.ID, ride.ID, "cancelled"); !isConflict(err) {
		t.Fatalf("expected conflict cancelling after pickup, got %v", err)
	}

	ride, err = env.svc.Ride().Advance(ctx, driver.ID, ride.ID, "completed")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if ride.CompletedAt == nil {
		t.Fatal("completed_at should be stamped")
	}
	if !ride.AcceptedAt.Equal(acceptedAt) {
		t.Fatal("accepted_at must not move on later transitions")
	}
	if !ride.Terminal() {
		t.Fatal("completed ride should be terminal")
	}
}

func TestAcceptRechecksTrust(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")
	rider := env.user(t, "rider", "rider")
	event := env.event(t, "prom")
	env.readyDriver(t, driver.ID, event.ID)

	ride, err := env.svc.Ride().Create(ctx, rider.ID, RideInput{DriverUserID: driver.ID, EventID: event.ID, PickupText: "gym"})
	if err != nil {
		t.Fatalf("create ride: %v", err)
	}

	// Revocation between request and accept.
	if err := env.svc.Trust().RunCascade(ctx, driver.ID, event.ID, ""); err != nil {
		t.Fatalf("cascade: %v", err)
	}
	if _, err := env.svc.Ride().Advance(ctx, driver.ID, ride.ID, "accepted"); !isConflict(err) {
		t.Fatalf("expected conflict accepting while revoked, got %v", err)
	}
}

func TestQueueOrdersByDistance(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")
	r1 := env.user(t, "r1", "rider")
	r2 := env.user(t, "r2", "rider")
	r3 := env.user(t, "r3", "rider")
	event := env.event(t, "prom")
	env.readyDriver(t, driver.ID, event.ID)

	if err := env.svc.Ride().ReportLocation(ctx, driver.ID, event.ID, 41.9000, -87.6300); err != nil {
		t.Fatalf("report location: %v", err)
	}

	// The coordinate-less request is the oldest and still sorts last.
	noCoords, err := env.svc.Ride().Create(ctx, r3.ID, RideInput{
		DriverUserID: driver.ID, EventID: event.ID, PickupText: "somewhere",
	})
	if err != nil {
		t.Fatalf("create no-coords: %v", err)
	}
	far, err := env.svc.Ride().Create(ctx, r1.ID, RideInput{
		DriverUserID: driver.ID, EventID: event.ID, PickupText: "far",
		PickupLat: ptr(41.9174), PickupLng: ptr(-87.6300),
	})
	if err != nil {
		t.Fatalf("create far: %v", err)
	}
	near, err := env.svc.Ride().Create(ctx, r2.ID, RideInput{
		DriverUserID: driver.ID, EventID: event.ID, PickupText: "near",
		PickupLat: ptr(41.9072), PickupLng: ptr(-87.6300),
	})
	if err != nil {
		t.Fatalf("create near: %v", err)
	}

	queue, err := env.svc.Ride().Queue(ctx, driver.ID, event.ID)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(queue) != 3 {
		t.Fatalf("got %d queued rides, want 3", len(queue))
	}
	if queue[0].ID != near.ID || queue[1].ID != far.ID || queue[2].ID != noCoords.ID {
		t.Fatalf("queue order = [%s %s %s], want [near far no-coords]",
			queue[0].PickupText, queue[1].PickupText, queue[2].PickupText)
	}
	if queue[0].DistanceMiles == nil || *queue[0].DistanceMiles != 0.5 {
		t.Fatalf("near distance = %v, want 0.5", queue[0].DistanceMiles)
	}
	if queue[1].DistanceMiles == nil || *queue[1].DistanceMiles != 1.2 {
		t.Fatalf("far distance = %v, want 1.2", queue[1].DistanceMiles)
	}
	if queue[2].DistanceMiles != nil {
		t.Fatal("ride without coordinates should carry no distance")
	}
}

func TestQueueFallsBackToAgeWithoutDriverLocation(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	ctx := context.Background()
	driver := env.user(t, "driver", "driver")
	r1 := env.user(t, "r1", "rider")
	r2 := env.user(t, "r2", "rider")
	event := env.event(t, "prom")
	env.readyDriver(t, driver.ID, event.ID)

	first, err := env.svc.Ride().Create(ctx, r1.ID, RideInput{
		DriverUserID: driver.ID, EventID: event.ID, PickupText: "a",
		PickupLat: ptr(41.95), PickupLng: ptr(-87.63),
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := env.svc.Ride().Create(ctx, r2.ID, RideInput{
		DriverUserID: driver.ID, EventID: event.ID, PickupText: "b",
		PickupLat: ptr(41.90), PickupLng: ptr(-87.63),
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}

	// Driver never reported a position; order stays first-come.
	queue, err := env.svc.Ride().Queue(ctx, driver.ID, event.ID)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(queue) != 2 || queue[0].ID != first.ID || queue[1].ID != second.ID {
		t.Fatal("queue should keep request order without a driver location")
	}
	if queue[0].DistanceMiles != nil || queue[1].DistanceMiles != nil {
		t.Fatal("no distances should be computed without a driver location")
	}
}

func TestReportLocationValidation(t *testing.T) {
	env := newTestEnv(t, 10*time.Minute)
	driver := env.user(t, "driver", "driver")
	event := env.event(t, "prom")

	if err := env.svc.Ride().ReportLocation(context.Background(), driver.ID, event.ID, 100, 0); !isValidation(err) {
		t.Fatalf("expected validation error for out-of-range latitude, got %v", err)
	}
	if err := env.svc.Ride().ReportLocation(context.Background(), driver.ID, event.ID, 41.9, -200); !isValidation(err) {
		t.Fatalf("expected validation error for out-of-range longitude, got %v", err)
	}
}
