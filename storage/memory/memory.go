// Package memory implements storage.IStorage in process memory. It
// backs unit tests and mirrors the conditional-update semantics of the
// postgres implementation, including predicate-guarded bulk updates.
package memory

import (
	"context"
	"sync"
	"time"

	"saferide/pkg/models"
	"saferide/storage"
)

type key struct {
	eventID int64
	userID  int64
}

type Store struct {
	mu sync.RWMutex

	users      map[int64]*models.User
	nextUserID int64

	profiles  map[int64]*models.DriverProfile
	baselines map[int64]*models.Baseline
	attempts  []*models.Attempt

	events      map[int64]*models.Event
	nextEventID int64

	requests      map[key]*models.Request
	nextRequestID int64

	assignments      map[key]*models.Assignment
	nextAssignmentID int64

	sessions map[string]*models.Session
	rides    []*models.RideRequest
	alerts   []*models.AdminAlert
}

func New() *Store {
	return &Store{
		users:       make(map[int64]*models.User),
		profiles:    make(map[int64]*models.DriverProfile),
		baselines:   make(map[int64]*models.Baseline),
		events:      make(map[int64]*models.Event),
		requests:    make(map[key]*models.Request),
		assignments: make(map[key]*models.Assignment),
		sessions:    make(map[string]*models.Session),
	}
}

func (s *Store) User() storage.IUserStorage             { return (*userStore)(s) }
func (s *Store) Driver() storage.IDriverStorage         { return (*driverStore)(s) }
func (s *Store) Verify() storage.IVerifyStorage         { return (*verifyStore)(s) }
func (s *Store) Event() storage.IEventStorage           { return (*eventStore)(s) }
func (s *Store) Request() storage.IRequestStorage       { return (*requestStore)(s) }
func (s *Store) Assignment() storage.IAssignmentStorage { return (*assignmentStore)(s) }
func (s *Store) Session() storage.ISessionStorage       { return (*sessionStore)(s) }
func (s *Store) Ride() storage.IRideStorage             { return (*rideStore)(s) }
func (s *Store) Alert() storage.IAlertStorage           { return (*alertStore)(s) }
func (s *Store) Close()                                 {}

// ---- users ----

type userStore Store

func (s *userStore) Create(ctx context.Context, username, fullname, role string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	now := time.Now()
	u := &models.User{
		ID:        s.nextUserID,
		Username:  username,
		FullName:  fullname,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s *userStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// ---- driver profiles ----

type driverStore Store

func (s *driverStore) UpsertProfile(ctx context.Context, profile *models.DriverProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.profiles[profile.UserID]; ok {
		existing.CarMake = profile.CarMake
		existing.CarModel = profile.CarModel
		existing.LicensePlate = profile.LicensePlate
		existing.Seats = profile.Seats
		existing.ContactPhone = profile.ContactPhone
		existing.UpdatedAt = now
		profile.TrustStatus = existing.TrustStatus
		profile.UpdatedAt = now
		return nil
	}
	cp := *profile
	cp.UpdatedAt = now
	s.profiles[profile.UserID] = &cp
	profile.UpdatedAt = now
	return nil
}

func (s *driverStore) GetProfile(ctx context.Context, userID int64) (*models.DriverProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *driverStore) GetTrustStatus(ctx context.Context, userID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return models.TrustNone, nil
	}
	return p.TrustStatus, nil
}

func (s *driverStore) SetTrustStatus(ctx context.Context, userID int64, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok || p.TrustStatus == status {
		return false, nil
	}
	p.TrustStatus = status
	p.UpdatedAt = time.Now()
	return true, nil
}

// ---- baselines and attempts ----

type verifyStore Store

func (s *verifyStore) CreateBaseline(ctx context.Context, baseline *models.Baseline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.baselines[baseline.UserID]; ok {
		return storage.ErrDuplicate
	}
	baseline.CreatedAt = time.Now()
	cp := *baseline
	s.baselines[baseline.UserID] = &cp
	return nil
}

func (s *verifyStore) GetBaseline(ctx context.Context, userID int64) (*models.Baseline, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.baselines[userID]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *verifyStore) CreateAttempt(ctx context.Context, attempt *models.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt.CreatedAt = time.Now()
	cp := *attempt
	s.attempts = append(s.attempts, &cp)
	return nil
}

func (s *verifyStore) GetAttempt(ctx context.Context, id string) (*models.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.attempts {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *verifyStore) GetLatestAttempt(ctx context.Context, userID int64) (*models.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.attempts) - 1; i >= 0; i-- {
		if s.attempts[i].UserID == userID {
			cp := *s.attempts[i]
			return &cp, nil
		}
	}
	return nil, nil
}

// ---- events ----

type eventStore Store

func (s *eventStore) Create(ctx context.Context, name string, startsAt time.Time) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEventID++
	e := &models.Event{
		ID:        s.nextEventID,
		Name:      name,
		StartsAt:  startsAt,
		CreatedAt: time.Now(),
	}
	s.events[e.ID] = e
	cp := *e
	return &cp, nil
}

func (s *eventStore) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (s *eventStore) GetAll(ctx context.Context) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Event, 0, len(s.events))
	for _, e := range s.events {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}
