package service

import (
	"context"
	"time"

	"saferide/pkg/logger"
	"saferide/pkg/models"
	"saferide/storage"
)

type EventService interface {
	Create(ctx context.Context, name string, startsAt time.Time) (*models.Event, error)
	Get(ctx context.Context, id int64) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
}

type eventService struct {
	stg storage.IEventStorage
	log logger.ILogger
}

func NewEventService(stg storage.IStorage, log logger.ILogger) EventService {
	return &eventService{stg: stg.Event(), log: log}
}

func (s *eventService) Create(ctx context.Context, name string, startsAt time.Time) (*models.Event, error) {
	if name == "" {
		return nil, Validationf("event name is required")
	}
	return s.stg.Create(ctx, name, startsAt)
}

func (s *eventService) Get(ctx context.Context, id int64) (*models.Event, error) {
	return s.stg.GetByID(ctx, id)
}

func (s *eventService) List(ctx context.Context) ([]*models.Event, error) {
	return s.stg.GetAll(ctx)
}
