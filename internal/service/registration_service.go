package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campdesk/internal/dto"
	"campdesk/internal/model"
	"campdesk/internal/repository"
)

// RegistrationService registration read side
type RegistrationService interface {
	List(ctx context.Context, req *dto.RegistrationListRequest) ([]dto.RegistrationResponse, int64, error)
	ListUnallocated(ctx context.Context, req *dto.UnallocatedListRequest) ([]dto.RegistrationResponse, error)
	Get(ctx context.Context, id string) (*dto.RegistrationResponse, error)
	ListLogs(ctx context.Context, id string, req *dto.AuditLogListRequest) ([]dto.AuditLogResponse, int64, error)
}

type registrationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRegistrationService creates a RegistrationService
func NewRegistrationService(repo *repository.Repository, logger *zap.Logger) RegistrationService {
	return &registrationService{repo: repo, logger: logger}
}

// parseGenderFilter "" means no filter; All is accepted as no filter too
func parseGenderFilter(s string) (model.Gender, error) {
	if s == "" {
		return "", nil
	}
	g, ok := model.ParseGender(s)
	if !ok {
		return "", ErrInvalidGender
	}
	if g == model.GenderAll {
		return "", nil
	}
	return g, nil
}

// ────────────────────── List ──────────────────────

func (s *registrationService) List(ctx context.Context, req *dto.RegistrationListRequest) ([]dto.RegistrationResponse, int64, error) {
	gender, err := parseGenderFilter(req.Gender)
	if err != nil {
		return nil, 0, err
	}

	regs, total, err := s.repo.Registration.List(ctx, repository.RegistrationFilter{
		Gender:    gender,
		Verified:  req.Verified,
		Allocated: req.Allocated,
		Search:    req.Search,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list registrations failed", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		result = append(result, *toRegistrationResponse(&regs[i]))
	}
	return result, total, nil
}

// ────────────────────── ListUnallocated ──────────────────────

func (s *registrationService) ListUnallocated(ctx context.Context, req *dto.UnallocatedListRequest) ([]dto.RegistrationResponse, error) {
	gender, err := parseGenderFilter(req.Gender)
	if err != nil {
		return nil, err
	}

	regs, err := s.repo.Registration.ListUnallocated(ctx, gender, false)
	if err != nil {
		s.logger.Error("list unallocated registrations failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		result = append(result, *toRegistrationResponse(&regs[i]))
	}
	return result, nil
}

// ────────────────────── Get ──────────────────────

func (s *registrationService) Get(ctx context.Context, id string) (*dto.RegistrationResponse, error) {
	reg, err := s.repo.Registration.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		s.logger.Error("load registration failed", zap.String("registration_id", id), zap.Error(err))
		return nil, err
	}
	return toRegistrationResponse(reg), nil
}

// ────────────────────── ListLogs ──────────────────────

func (s *registrationService) ListLogs(ctx context.Context, id string, req *dto.AuditLogListRequest) ([]dto.AuditLogResponse, int64, error) {
	if _, err := s.repo.Registration.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrRegistrationNotFound
		}
		return nil, 0, err
	}

	logs, total, err := s.repo.AuditLog.ListByRegistration(ctx, id, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list audit logs failed", zap.String("registration_id", id), zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		result = append(result, dto.AuditLogResponse{
			ID:         l.LogID,
			Action:     l.Action,
			RoomID:     l.RoomID,
			Detail:     l.Detail,
			OperatorID: l.OperatorID,
			CreatedAt:  formatTime(l.CreatedAt),
		})
	}
	return result, total, nil
}
