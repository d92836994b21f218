package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campdesk/internal/dto"
	"campdesk/internal/model"
	"campdesk/internal/repository"
	"campdesk/pkg/metrics"
)

// ── verification errors ──

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrAlreadyVerified      = errors.New("registration already verified")
	ErrNotVerified          = errors.New("registration not verified")
	ErrInvalidQRPayload     = errors.New("qr payload does not identify a registration")
	ErrInvalidMethod        = errors.New("verification method must be manual or qr")
	ErrRoomAllocated        = errors.New("registrant still holds a room; remove the allocation or force")
)

// RoomAllocatedError blocks an unforced unverify and carries the seat the
// operator has to confirm losing. errors.Is(err, ErrRoomAllocated) holds.
type RoomAllocatedError struct {
	Details dto.RoomAllocationInfo
}

func (e *RoomAllocatedError) Error() string {
	return fmt.Sprintf("registrant holds a seat in room %q", e.Details.RoomName)
}

func (e *RoomAllocatedError) Is(target error) bool {
	return target == ErrRoomAllocated
}

// VerificationService attendance verification
type VerificationService interface {
	Verify(ctx context.Context, req *dto.VerifyRequest, operatorID string) (*dto.RegistrationResponse, error)
	CheckUnverifyEligibility(ctx context.Context, id string) (*dto.UnverifyEligibilityResponse, error)
	Unverify(ctx context.Context, id string, force bool, operatorID string) (*dto.RegistrationResponse, error)
}

type verificationService struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewVerificationService creates a VerificationService
func NewVerificationService(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) VerificationService {
	return &verificationService{repo: repo, metrics: m, logger: logger, now: time.Now}
}

// ────────────────────── Verify ──────────────────────

func (s *verificationService) Verify(ctx context.Context, req *dto.VerifyRequest, operatorID string) (*dto.RegistrationResponse, error) {
	method := req.Method
	if method == "" {
		method = model.VerificationManual
		if strings.TrimSpace(req.QRPayload) != "" {
			method = model.VerificationQR
		}
	}

	id := strings.TrimSpace(req.RegistrationID)
	switch method {
	case model.VerificationManual:
		if id == "" {
			return nil, ErrRegistrationNotFound
		}
	case model.VerificationQR:
		resolved, err := s.resolveQRPayload(ctx, req.QRPayload)
		if err != nil {
			return nil, err
		}
		if id != "" && !strings.EqualFold(id, resolved) {
			return nil, ErrInvalidQRPayload
		}
		id = resolved
	default:
		return nil, ErrInvalidMethod
	}

	err := s.repo.Tx.Transaction(ctx, func(tx *repository.Repository) error {
		reg, err := tx.Registration.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}
		if reg.IsVerified {
			return ErrAlreadyVerified
		}

		reg.MarkVerified(operatorID, method, s.now().UTC())
		reg.UpdatedBy = &operatorID
		if err := tx.Registration.UpdateVerification(ctx, reg); err != nil {
			return err
		}
		return tx.AuditLog.BatchCreate(ctx, []model.AuditLog{
			newAuditLog(reg.RegistrationID, nil, model.ActionVerify, "method="+method, operatorID),
		})
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("verify registration failed", zap.String("registration_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.metrics.IncVerified(method)
	s.logger.Info("registration verified",
		zap.String("registration_id", id),
		zap.String("method", method),
		zap.String("operator", operatorID),
	)
	return s.load(ctx, id)
}

// resolveQRPayload parses the payload and confirms it names a stored registration
func (s *verificationService) resolveQRPayload(ctx context.Context, raw string) (string, error) {
	p, err := parseQRPayload(raw)
	if err != nil {
		return "", err
	}
	reg, err := s.repo.Registration.GetByID(ctx, p.RegistrationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidQRPayload
		}
		return "", err
	}
	if p.Email != "" && !strings.EqualFold(p.Email, reg.Email) {
		return "", ErrInvalidQRPayload
	}
	return reg.RegistrationID, nil
}

// ────────────────────── CheckUnverifyEligibility ──────────────────────

func (s *verificationService) CheckUnverifyEligibility(ctx context.Context, id string) (*dto.UnverifyEligibilityResponse, error) {
	reg, err := s.repo.Registration.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRegistrationNotFound
		}
		s.logger.Error("load registration failed", zap.String("registration_id", id), zap.Error(err))
		return nil, err
	}

	resp := &dto.UnverifyEligibilityResponse{
		Eligible:          reg.IsVerified && reg.Allocation == nil,
		HasRoomAllocation: reg.Allocation != nil,
		Registration:      *toRegistrationResponse(reg),
	}
	if reg.Allocation != nil {
		info, err := s.allocationInfo(ctx, s.repo, reg, reg.Allocation)
		if err != nil {
			return nil, err
		}
		resp.RoomDetails = info
	}
	return resp, nil
}

// ────────────────────── Unverify ──────────────────────

func (s *verificationService) Unverify(ctx context.Context, id string, force bool, operatorID string) (*dto.RegistrationResponse, error) {
	released := false
	err := s.repo.Tx.Transaction(ctx, func(tx *repository.Repository) error {
		reg, err := tx.Registration.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}
		if !reg.IsVerified {
			return ErrNotVerified
		}

		alloc, err := tx.Allocation.GetByRegistration(ctx, id)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var logs []model.AuditLog
		if alloc != nil {
			if !force {
				info, err := s.allocationInfo(ctx, tx, reg, alloc)
				if err != nil {
					return err
				}
				return &RoomAllocatedError{Details: *info}
			}
			if _, err := tx.Allocation.DeleteByRegistration(ctx, id); err != nil {
				return err
			}
			roomID := alloc.RoomID
			logs = append(logs, newAuditLog(id, &roomID, model.ActionDeallocate, "reason=unverify", operatorID))
			released = true
		}

		reg.ClearVerification()
		reg.UpdatedBy = &operatorID
		if err := tx.Registration.UpdateVerification(ctx, reg); err != nil {
			return err
		}
		logs = append(logs, newAuditLog(id, nil, model.ActionUnverify, fmt.Sprintf("forced=%t", force), operatorID))
		return tx.AuditLog.BatchCreate(ctx, logs)
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("unverify registration failed", zap.String("registration_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.metrics.IncUnverified(force)
	if released {
		s.metrics.AddRemoved("unverify", 1)
	}
	s.logger.Info("registration unverified",
		zap.String("registration_id", id),
		zap.Bool("forced", force),
		zap.Bool("released_room", released),
		zap.String("operator", operatorID),
	)
	return s.load(ctx, id)
}

// ── helpers ──

func (s *verificationService) load(ctx context.Context, id string) (*dto.RegistrationResponse, error) {
	reg, err := s.repo.Registration.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("reload registration failed", zap.String("registration_id", id), zap.Error(err))
		return nil, err
	}
	return toRegistrationResponse(reg), nil
}

func (s *verificationService) allocationInfo(ctx context.Context, repo *repository.Repository, reg *model.Registration, alloc *model.Allocation) (*dto.RoomAllocationInfo, error) {
	room := alloc.Room
	if room == nil {
		r, err := repo.Room.GetByID(ctx, alloc.RoomID)
		if err != nil {
			return nil, err
		}
		room = r
	}
	occupancy, err := repo.Allocation.CountByRoom(ctx, alloc.RoomID)
	if err != nil {
		return nil, err
	}
	return &dto.RoomAllocationInfo{
		RoomID:      room.RoomID,
		RoomName:    room.Name,
		Occupant:    reg.FullName,
		Occupancy:   occupancy,
		Capacity:    room.Capacity,
		AllocatedAt: formatTime(alloc.CreatedAt),
	}, nil
}
