package service

import (
	"context"

	"saferide/pkg/logger"
	"saferide/pkg/models"
	"saferide/storage"
)

type UserService interface {
	Register(ctx context.Context, username, fullname, role string) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type userService struct {
	stg storage.IUserStorage
	log logger.ILogger
}

func NewUserService(stg storage.IStorage, log logger.ILogger) UserService {
	return &userService{stg: stg.User(), log: log}
}

func (s *userService) Register(ctx context.Context, username, fullname, role string) (*models.User, error) {
	if username == "" {
		return nil, Validationf("username is required")
	}
	switch role {
	case models.RoleRider, models.RoleDriver, models.RoleAdmin:
	case "":
		role = models.RoleRider
	default:
		return nil, Validationf("unknown role %q", role)
	}
	existing, err := s.stg.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, Conflictf("username is taken")
	}
	return s.stg.Create(ctx, username, fullname, role)
}

func (s *userService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.stg.GetByID(ctx, id)
}

func (s *userService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.stg.GetByUsername(ctx, username)
}
