package memory

import (
	"context"
	"sort"
	"time"

	"saferide/pkg/models"
	"saferide/storage"
)

// ---- event requests ----

type requestStore Store

func (s *requestStore) Upsert(ctx context.Context, eventID, userID int64) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{eventID: eventID, userID: userID}
	if existing, ok := s.requests[k]; ok {
		existing.Status = models.RequestPending
		existing.CreatedAt = time.Now()
		cp := *existing
		return &cp, nil
	}
	s.nextRequestID++
	req := &models.Request{
		ID:        s.nextRequestID,
		EventID:   eventID,
		UserID:    userID,
		Status:    models.RequestPending,
		CreatedAt: time.Now(),
	}
	s.requests[k] = req
	cp := *req
	return &cp, nil
}

func (s *requestStore) Get(ctx context.Context, eventID, userID int64) (*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[key{eventID: eventID, userID: userID}]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (s *requestStore) SetStatus(ctx context.Context, eventID, userID int64, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[key{eventID: eventID, userID: userID}]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	return true, nil
}

func (s *requestStore) RejectOpen(ctx context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, req := range s.requests {
		if req.UserID == userID && (req.Status == models.RequestPending || req.Status == models.RequestApproved) {
			req.Status = models.RequestRejected
			n++
		}
	}
	return n, nil
}

func (s *requestStore) ListByUser(ctx context.Context, userID int64) ([]*models.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Request
	for _, req := range s.requests {
		if req.UserID == userID {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ---- assignments ----

type assignmentStore Store

func (s *assignmentStore) Upsert(ctx context.Context, eventID, userID int64, status string) (*models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{eventID: eventID, userID: userID}
	if existing, ok := s.assignments[k]; ok {
		existing.Status = status
		existing.UpdatedAt = time.Now()
		cp := *existing
		return &cp, nil
	}
	s.nextAssignmentID++
	a := &models.Assignment{
		ID:        s.nextAssignmentID,
		EventID:   eventID,
		UserID:    userID,
		Status:    status,
		UpdatedAt: time.Now(),
	}
	s.assignments[k] = a
	cp := *a
	return &cp, nil
}

func (s *assignmentStore) Get(ctx context.Context, eventID, userID int64) (*models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[key{eventID: eventID, userID: userID}]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *assignmentStore) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.assignments {
		if a.UserID == userID && a.Status != models.AssignmentRevoked {
			a.Status = models.AssignmentRevoked
			a.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

func (s *assignmentStore) ListByUser(ctx context.Context, userID int64) ([]*models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Assignment
	for _, a := range s.assignments {
		if a.UserID == userID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- sessions ----

type sessionStore Store

func (s *sessionStore) Create(ctx context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *sessionStore) GetByID(ctx context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (s *sessionStore) GetActive(ctx context.Context, userID int64) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.IsActive {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *sessionStore) GetActiveForEvent(ctx context.Context, userID, eventID int64) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.EventID == eventID && sess.IsActive {
			cp := *sess
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *sessionStore) End(ctx context.Context, id string, endedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || !sess.IsActive {
		return false, nil
	}
	sess.IsActive = false
	sess.EndedAt = &endedAt
	return true, nil
}

func (s *sessionStore) EndAll(ctx context.Context, userID int64, endedAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.IsActive {
			sess.IsActive = false
			sess.EndedAt = &endedAt
			n++
		}
	}
	return n, nil
}

// ---- ride requests ----

type rideStore Store

func (s *rideStore) Create(ctx context.Context, ride *models.RideRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rides {
		if r.RiderUserID == ride.RiderUserID && r.EventID == ride.EventID && !r.Terminal() {
			return storage.ErrDuplicate
		}
	}
	if ride.CreatedAt.IsZero() {
		ride.CreatedAt = time.Now()
	}
	cp := *ride
	s.rides = append(s.rides, &cp)
	return nil
}

func (s *rideStore) GetByID(ctx context.Context, id string) (*models.RideRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rides {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *rideStore) GetOpenByRider(ctx context.Context, riderUserID, eventID int64) (*models.RideRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rides {
		if r.RiderUserID == riderUserID && r.EventID == eventID && !r.Terminal() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *rideStore) ListPendingByDriver(ctx context.Context, driverUserID, eventID int64) ([]*models.RideRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.RideRequest
	for _, r := range s.rides {
		if r.DriverUserID == driverUserID && r.EventID == eventID && r.Status == models.RidePending {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *rideStore) ListByRider(ctx context.Context, riderUserID, eventID int64) ([]*models.RideRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.RideRequest
	for _, r := range s.rides {
		if r.RiderUserID == riderUserID && r.EventID == eventID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *rideStore) Transition(ctx context.Context, id, from, to string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rides {
		if r.ID != id {
			continue
		}
		if r.Status != from {
			return false, nil
		}
		r.Status = to
		switch to {
		case models.RideAccepted:
			if r.AcceptedAt == nil {
				t := at
				r.AcceptedAt = &t
			}
		case models.RidePickedUp:
			if r.PickedUpAt == nil {
				t := at
				r.PickedUpAt = &t
			}
		case models.RideCompleted:
			if r.CompletedAt == nil {
				t := at
				r.CompletedAt = &t
			}
		}
		return true, nil
	}
	return false, nil
}

// ---- admin alerts ----

type alertStore Store

func (s *alertStore) CreateIfAbsent(ctx context.Context, alert *models.AdminAlert) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.alerts {
		if a.AttemptID == alert.AttemptID {
			return false, nil
		}
	}
	alert.CreatedAt = time.Now()
	cp := *alert
	s.alerts = append(s.alerts, &cp)
	return true, nil
}

func (s *alertStore) ListUnresolvedByUser(ctx context.Context, userID int64) ([]*models.AdminAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.AdminAlert
	for _, a := range s.alerts {
		if a.UserID == userID && a.ResolvedAt == nil {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *alertStore) ListUnresolved(ctx context.Context) ([]*models.AdminAlert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.AdminAlert
	for _, a := range s.alerts {
		if a.ResolvedAt == nil {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *alertStore) ResolveAllForUser(ctx context.Context, userID, adminID int64, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.alerts {
		if a.UserID == userID && a.ResolvedAt == nil {
			t := at
			a.ResolvedAt = &t
			admin := adminID
			a.ResolvedByAdminID = &admin
			n++
		}
	}
	return n, nil
}

func (s *alertStore) ResolveForEvent(ctx context.Context, userID, eventID, adminID int64, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.alerts {
		if a.UserID == userID && a.EventID == eventID && a.ResolvedAt == nil {
			t := at
			a.ResolvedAt = &t
			admin := adminID
			a.ResolvedByAdminID = &admin
			n++
		}
	}
	return n, nil
}
