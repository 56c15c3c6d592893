package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"saferide/pkg/blob"
	"saferide/pkg/logger"
	"saferide/pkg/models"
	"saferide/pkg/verify"
	"saferide/storage"
)

type EnrollInput struct {
	ReactionLatencyMs int
	PhraseDurationSec float64
	Image             []byte
	ImageContentType  string
}

type AttemptInput struct {
	EventID           int64
	ReactionLatencyMs int
	PhraseDurationSec float64
	Image             []byte
	ImageContentType  string
	Audio             []byte
	AudioContentType  string
}

// VerifyOutcome is what the driver sees after an attempt: measured
// values, the baseline they were held against, and the tolerances.
type VerifyOutcome struct {
	Attempt  *models.Attempt  `json:"attempt"`
	Baseline *models.Baseline `json:"baseline"`
	Result   verify.Result    `json:"result"`
}

type VerifyService interface {
	// Enroll records the immutable baseline. One per user.
	Enroll(ctx context.Context, userID int64, in EnrollInput) (*models.Baseline, error)
	// Evaluate runs one verification attempt. A fail triggers the
	// revocation cascade; cascade trouble is reported to operators,
	// never to the driver, and never hides the verification result.
	Evaluate(ctx context.Context, userID int64, in AttemptInput) (*VerifyOutcome, error)
	// StartSession opens the ride-visibility window. Only allowed
	// immediately after a passing attempt.
	StartSession(ctx context.Context, userID, eventID int64) (*models.Session, error)
	// EndSession is idempotent; ending an ended session is a no-op.
	EndSession(ctx context.Context, userID int64, sessionID string) (*models.Session, error)
}

type verifyService struct {
	stg    storage.IStorage
	trust  TrustService
	blob   blob.Store
	window time.Duration
	log    logger.ILogger
}

func NewVerifyService(stg storage.IStorage, trust TrustService, blobStore blob.Store, window time.Duration, log logger.ILogger) VerifyService {
	return &verifyService{stg: stg, trust: trust, blob: blobStore, window: window, log: log}
}

func (s *verifyService) Enroll(ctx context.Context, userID int64, in EnrollInput) (*models.Baseline, error) {
	if in.ReactionLatencyMs <= 0 {
		return nil, Validationf("reaction latency must be positive")
	}
	if in.PhraseDurationSec <= 0 {
		return nil, Validationf("phrase duration must be positive")
	}
	existing, err := s.stg.Verify().GetBaseline(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, Conflictf("baseline already enrolled")
	}

	var imageURL string
	if len(in.Image) > 0 {
		imageURL, err = s.blob.Store(ctx, in.Image, in.ImageContentType)
		if err != nil {
			return nil, err
		}
	}

	baseline := &models.Baseline{
		UserID:            userID,
		ReactionLatencyMs: in.ReactionLatencyMs,
		PhraseDurationSec: in.PhraseDurationSec,
		ImageURL:          imageURL,
	}
	if err := s.stg.Verify().CreateBaseline(ctx, baseline); err != nil {
		if err == storage.ErrDuplicate {
			return nil, Conflictf("baseline already enrolled")
		}
		return nil, err
	}
	return baseline, nil
}

func (s *verifyService) Evaluate(ctx context.Context, userID int64, in AttemptInput) (*VerifyOutcome, error) {
	if in.ReactionLatencyMs <= 0 {
		return nil, Validationf("reaction latency must be positive")
	}
	if in.PhraseDurationSec <= 0 {
		return nil, Validationf("phrase duration must be positive")
	}
	baseline, err := s.stg.Verify().GetBaseline(ctx, userID)
	if err != nil {
		return nil, err
	}
	if baseline == nil {
		return nil, Validationf("enrollment incomplete: no baseline on file")
	}

	var imageURL, audioURL string
	if len(in.Image) > 0 {
		if imageURL, err = s.blob.Store(ctx, in.Image, in.ImageContentType); err != nil {
			return nil, err
		}
	}
	if len(in.Audio) > 0 {
		if audioURL, err = s.blob.Store(ctx, in.Audio, in.AudioContentType); err != nil {
			return nil, err
		}
	}

	result := verify.Evaluate(baseline, in.ReactionLatencyMs, in.PhraseDurationSec)

	attempt := &models.Attempt{
		ID:                uuid.New().String(),
		UserID:            userID,
		ReactionLatencyMs: in.ReactionLatencyMs,
		PhraseDurationSec: in.PhraseDurationSec,
		ImageURL:          imageURL,
		AudioURL:          audioURL,
		Outcome:           models.OutcomePass,
	}
	if in.EventID > 0 {
		eventID := in.EventID
		attempt.EventID = &eventID
	}
	if !result.Pass {
		attempt.Outcome = models.OutcomeFail
	}
	if err := s.stg.Verify().CreateAttempt(ctx, attempt); err != nil {
		return nil, err
	}

	if !result.Pass {
		if err := s.trust.RunCascade(ctx, userID, in.EventID, attempt.ID); err != nil {
			// Partial cascades stay safe: every step is idempotent and
			// the profile was revoked first. Operators converge it by
			// re-running; the driver still gets their result.
			s.log.Error("revocation cascade partially applied",
				logger.Int64("user_id", userID),
				logger.String("attempt_id", attempt.ID),
				logger.Error(err),
			)
		}
	}

	return &VerifyOutcome{Attempt: attempt, Baseline: baseline, Result: result}, nil
}

func (s *verifyService) StartSession(ctx context.Context, userID, eventID int64) (*models.Session, error) {
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
		return nil, Validationf("driver opt-in required before starting a session")
	}
	if status == models.TrustRevoked {
		return nil, Conflictf("driving privilege is revoked")
	}

	latest, err := s.stg.Verify().GetLatestAttempt(ctx, userID)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.Outcome != models.OutcomePass {
		return nil, Conflictf("a passing verification is required to start a session")
	}
	if s.window > 0 && time.Since(latest.CreatedAt) > s.window {
		return nil, Conflictf("verification expired; verify again to start a session")
	}

	active, err := s.stg.Session().GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, Conflictf("an active session already exists")
	}

	// Trust may have flipped while the checks above ran; read it once
	// more right before the dependent write.
	status, err = s.stg.Driver().GetTrustStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	if status == models.TrustRevoked {
		return nil, Conflictf("driving privilege is revoked")
	}

	session := &models.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		EventID:   eventID,
		StartedAt: time.Now(),
		IsActive:  true,
	}
	if err := s.stg.Session().Create(ctx, session); err != nil {
		return nil, err
	}
	s.log.Info("session started", logger.Int64("user_id", userID), logger.Int64("event_id", eventID))
	return session, nil
}

func (s *verifyService) EndSession(ctx context.Context, userID int64, sessionID string) (*models.Session, error) {
	session, err := s.stg.Session().GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &NotFoundError{Entity: "session"}
	}
	if session.UserID != userID {
		return nil, ErrForbidden
	}
	if !session.IsActive {
		return session, nil
	}
	if _, err := s.stg.Session().End(ctx, sessionID, time.Now()); err != nil {
		return nil, err
	}
	return s.stg.Session().GetByID(ctx, sessionID)
}
