package service

import (
	"time"

	"saferide/pkg/blob"
	"saferide/pkg/locations"
	"saferide/pkg/logger"
	"saferide/pkg/notify"
	"saferide/storage"
)

type IServiceManager interface {
	User() UserService
	Event() EventService
	Verify() VerifyService
	Trust() TrustService
	Ride() RideService
}

// Deps carries the external collaborators every service shares. The
// relational store is the only synchronization point between callers.
type Deps struct {
	Storage   storage.IStorage
	Blob      blob.Store
	Locations locations.Source
	Notifier  notify.Notifier
	// VerifyWindow bounds how long a passing attempt remains good for
	// starting a session. Zero disables the bound.
	VerifyWindow time.Duration
	Log          logger.ILogger
}

type service struct {
	userService   UserService
	eventService  EventService
	verifyService VerifyService
	trustService  TrustService
	rideService   RideService
}

func New(d Deps) IServiceManager {
	trust := NewTrustService(d.Storage, d.Notifier, d.Log)
	return &service{
		userService:   NewUserService(d.Storage, d.Log),
		eventService:  NewEventService(d.Storage, d.Log),
		verifyService: NewVerifyService(d.Storage, trust, d.Blob, d.VerifyWindow, d.Log),
		trustService:  trust,
		rideService:   NewRideService(d.Storage, d.Locations, d.Log),
	}
}

func (s *service) User() UserService     { return s.userService }
func (s *service) Event() EventService   { return s.eventService }
func (s *service) Verify() VerifyService { return s.verifyService }
func (s *service) Trust() TrustService   { return s.trustService }
func (s *service) Ride() RideService     { return s.rideService }
