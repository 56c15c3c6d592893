package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"saferide/pkg/logger"
	"saferide/pkg/models"
	"saferide/pkg/notify"
	"saferide/storage"
)

type OptInInput struct {
	CarMake      string
	CarModel     string
	LicensePlate string
	Seats        int
	ContactPhone string
}

type TrustService interface {
	// OptIn moves a volunteer from none to active. No verification is
	// required to opt in; only starting a session is gated.
	OptIn(ctx context.Context, userID int64, in OptInInput) (*models.DriverProfile, error)
	// RunCascade applies the global revocation side effects for a
	// failed verification. Every step is independently idempotent, so
	// operators may re-run it to converge a partially applied cascade.
	RunCascade(ctx context.Context, userID, eventID int64, attemptID string) error
	Reinstate(ctx context.Context, adminID, userID, eventID int64) (*models.DriverProfile, error)
	Finalize(ctx context.Context, adminID, userID, eventID int64) (*models.DriverProfile, error)
	// Alerts lists the unresolved operator alerts awaiting adjudication.
	Alerts(ctx context.Context) ([]*models.AdminAlert, error)
	SubmitRequest(ctx context.Context, userID, eventID int64) (*models.Request, error)
	ApproveRequest(ctx context.Context, eventID, userID int64) (*models.Assignment, error)
	RejectRequest(ctx context.Context, eventID, userID int64) (*models.Request, error)
}

type trustService struct {
	stg      storage.IStorage
	notifier notify.Notifier
	log      logger.ILogger
}

func NewTrustService(stg storage.IStorage, notifier notify.Notifier, log logger.ILogger) TrustService {
	return &trustService{stg: stg, notifier: notifier, log: log}
}

func (s *trustService) OptIn(ctx context.Context, userID int64, in OptInInput) (*models.DriverProfile, error) {
	if in.CarMake == "" || in.LicensePlate == "" {
		return nil, Validationf("vehicle make and license plate are required")
	}
	existing, err := s.stg.Driver().GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.TrustStatus == models.TrustRevoked {
		return nil, Conflictf("driving privilege is revoked; an admin must reinstate you")
	}
	profile := &models.DriverProfile{
		UserID:       userID,
		TrustStatus:  models.TrustActive,
		CarMake:      in.CarMake,
		CarModel:     in.CarModel,
		LicensePlate: in.LicensePlate,
		Seats:        in.Seats,
		ContactPhone: in.ContactPhone,
	}
	if err := s.stg.Driver().UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// RunCascade executes the five revocation steps in order, best effort.
// A failed verification is a signal about the person, so revocation is
// global across every event. The profile is revoked first so that even
// a fully failed cascade leaves the driver untrusted. Steps are never
// rolled back; each is a conditional update safe to repeat.
func (s *trustService) RunCascade(ctx context.Context, userID, eventID int64, attemptID string) error {
	var failed []CascadeStepError

	if _, err := s.stg.Driver().SetTrustStatus(ctx, userID, models.TrustRevoked); err != nil {
		failed = append(failed, CascadeStepError{Step: StepRevokeProfile, Err: err})
	}

	if n, err := s.stg.Assignment().RevokeAll(ctx, userID); err != nil {
		failed = append(failed, CascadeStepError{Step: StepRevokeAssignments, Err: err})
	} else if n > 0 {
		s.log.Info("revoked assignments", logger.Int64("user_id", userID), logger.Int64("count", n))
	}

	if n, err := s.stg.Request().RejectOpen(ctx, userID); err != nil {
		failed = append(failed, CascadeStepError{Step: StepRejectRequests, Err: err})
	} else if n > 0 {
		s.log.Info("rejected open requests", logger.Int64("user_id", userID), logger.Int64("count", n))
	}

	if n, err := s.stg.Session().EndAll(ctx, userID, time.Now()); err != nil {
		failed = append(failed, CascadeStepError{Step: StepEndSessions, Err: err})
	} else if n > 0 {
		s.log.Info("ended active sessions", logger.Int64("user_id", userID), logger.Int64("count", n))
	}

	if attemptID == "" {
		// Operator re-run: key the alert to the latest failing attempt
		// when one exists.
		if latest, err := s.stg.Verify().GetLatestAttempt(ctx, userID); err == nil && latest != nil && latest.Outcome == models.OutcomeFail {
			attemptID = latest.ID
		}
	}
	if attemptID != "" {
		alert := &models.AdminAlert{
			ID:        uuid.New().String(),
			Type:      models.AlertVerifyFail,
			UserID:    userID,
			EventID:   eventID,
			AttemptID: attemptID,
		}
		inserted, err := s.stg.Alert().CreateIfAbsent(ctx, alert)
		if err != nil {
			failed = append(failed, CascadeStepError{Step: StepOpenAlert, Err: err})
		} else if inserted {
			if nerr := s.notifier.VerifyFail(ctx, alert); nerr != nil {
				s.log.Warning("operator notification failed", logger.Int64("user_id", userID), logger.Error(nerr))
			}
		}
	}

	if len(failed) > 0 {
		return &PartialCascadeError{UserID: userID, Failed: failed}
	}
	return nil
}

// Reinstate resolves every unresolved alert the user holds, across all
// events, mirroring the global reach of revocation. Only the named
// event's assignment is re-assigned.
func (s *trustService) Reinstate(ctx context.Context, adminID, userID, eventID int64) (*models.DriverProfile, error) {
	profile, err := s.stg.Driver().GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &NotFoundError{Entity: "driver profile"}
	}
	if profile.TrustStatus != models.TrustRevoked {
		return nil, Conflictf("driver is not revoked")
	}

	if _, err := s.stg.Driver().SetTrustStatus(ctx, userID, models.TrustActive); err != nil {
		return nil, err
	}
	if _, err := s.stg.Assignment().Upsert(ctx, eventID, userID, models.AssignmentAssigned); err != nil {
		return nil, err
	}
	n, err := s.stg.Alert().ResolveAllForUser(ctx, userID, adminID, time.Now())
	if err != nil {
		return nil, err
	}
	s.log.Info("driver reinstated",
		logger.Int64("user_id", userID),
		logger.Int64("admin_id", adminID),
		logger.Int64("alerts_resolved", n),
	)
	return s.stg.Driver().GetProfile(ctx, userID)
}

// Finalize keeps the driver revoked and closes only the alerts scoped
// to the adjudicated event; alerts on other events stay open.
func (s *trustService) Finalize(ctx context.Context, adminID, userID, eventID int64) (*models.DriverProfile, error) {
	profile, err := s.stg.Driver().GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, &NotFoundError{Entity: "driver profile"}
	}
	if profile.TrustStatus != models.TrustRevoked {
		return nil, Conflictf("driver is not revoked")
	}

	n, err := s.stg.Alert().ResolveForEvent(ctx, userID, eventID, adminID, time.Now())
	if err != nil {
		return nil, err
	}
	s.log.Info("revocation finalized",
		logger.Int64("user_id", userID),
		logger.Int64("event_id", eventID),
		logger.Int64("alerts_resolved", n),
	)
	return profile, nil
}

func (s *trustService) Alerts(ctx context.Context) ([]*models.AdminAlert, error) {
	return s.stg.Alert().ListUnresolved(ctx)
}

func (s *trustService) SubmitRequest(ctx context.Context, userID, eventID int64) (*models.Request, error) {
	event, err := s.stg.Event().GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, &NotFoundError{Entity: "event"}
	}
	status, err := s.stg.Driver().GetTrustStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	if status == models.TrustNone {
		return nil, Validationf("driver opt-in required before requesting an event")
	}
	if status == models.TrustRevoked {
		return nil, Conflictf("driving privilege is revoked")
	}
	return s.stg.Request().Upsert(ctx, eventID, userID)
}

// ApproveRequest re-reads trust status immediately before writing the
// assignment. A stale pending approval racing a revocation is
// auto-rejected instead of silently re-arming the driver.
func (s *trustService) ApproveRequest(ctx context.Context, eventID, userID int64) (*models.Assignment, error) {
	req, err := s.stg.Request().Get(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &NotFoundError{Entity: "request"}
	}
	if req.Status != models.RequestPending {
		return nil, Conflictf("request is already %s", req.Status)
	}

	status, err := s.stg.Driver().GetTrustStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	if status == models.TrustRevoked {
		if _, err := s.stg.Request().SetStatus(ctx, eventID, userID, models.RequestPending, models.RequestRejected); err != nil {
			return nil, err
		}
		return nil, Conflictf("driver's verification is revoked; request was rejected")
	}

	ok, err := s.stg.Request().SetStatus(ctx, eventID, userID, models.RequestPending, models.RequestApproved)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, Conflictf("request is no longer pending")
	}
	return s.stg.Assignment().Upsert(ctx, eventID, userID, models.AssignmentAssigned)
}

func (s *trustService) RejectRequest(ctx context.Context, eventID, userID int64) (*models.Request, error) {
	req, err := s.stg.Request().Get(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, &NotFoundError{Entity: "request"}
	}
	ok, err := s.stg.Request().SetStatus(ctx, eventID, userID, models.RequestPending, models.RequestRejected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, Conflictf("request is already %s", req.Status)
	}
	return s.stg.Request().Get(ctx, eventID, userID)
}
