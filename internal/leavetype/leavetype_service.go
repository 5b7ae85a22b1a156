package leavetype

import (
	"context"
	"errors"
	"net/http"

	"go-leave/internal/shared/apperror"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrLeaveTypeNotFound = apperror.New(
	apperror.CodeNotFound,
	"leave type not found",
	http.StatusNotFound,
)

type Service interface {
	GetAll(ctx context.Context) ([]LeaveTypeResponse, error)
	GetByID(ctx context.Context, id int) (LeaveTypeResponse, error)
	Seed(ctx context.Context) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavetype.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavetype.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) GetAll(ctx context.Context) ([]LeaveTypeResponse, error) {
	types, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("get all leave types failed", zap.Error(err))
		return nil, err
	}

	resp := make([]LeaveTypeResponse, len(types))
	for i, lt := range types {
		resp[i] = MapToResponse(lt)
	}
	return resp, nil
}

func (s *service) GetByID(ctx context.Context, id int) (LeaveTypeResponse, error) {
	lt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveTypeResponse{}, ErrLeaveTypeNotFound
		}
		return LeaveTypeResponse{}, err
	}
	return MapToResponse(*lt), nil
}

// Seed inserts the default leave types, leaving existing rows untouched.
func (s *service) Seed(ctx context.Context) error {
	if err := s.repo.EnsureDefaults(ctx, Defaults); err != nil {
		s.logger.Error("seed leave types failed", zap.Error(err))
		return err
	}
	s.logger.Info("leave types seeded", zap.Int("count", len(Defaults)))
	return nil
}
