package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campdesk/internal/dto"
	"campdesk/internal/model"
	"campdesk/internal/repository"
)

// ── room management errors ──

var (
	ErrRoomNameTaken          = errors.New("room name already in use")
	ErrCapacityBelowOccupancy = errors.New("capacity below current occupancy")
	ErrRoomOccupied           = errors.New("room has occupants")
)

// RoomService room management
type RoomService interface {
	Create(ctx context.Context, req *dto.CreateRoomRequest, operatorID string) (*dto.RoomResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateRoomRequest, operatorID string) (*dto.RoomResponse, error)
	Delete(ctx context.Context, id string, operatorID string) error
}

type roomService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRoomService creates a RoomService
func NewRoomService(repo *repository.Repository, logger *zap.Logger) RoomService {
	return &roomService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *roomService) Create(ctx context.Context, req *dto.CreateRoomRequest, operatorID string) (*dto.RoomResponse, error) {
	gender, ok := model.ParseGender(req.Gender)
	if !ok || !gender.IsPartition() {
		return nil, ErrInvalidGender
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	room := &model.Room{
		Name:        name,
		Gender:      gender,
		Capacity:    req.Capacity,
		IsActive:    true,
		Description: req.Description,
	}
	room.Version = 1
	if req.IsActive != nil {
		room.IsActive = *req.IsActive
	}
	room.CreatedBy = &operatorID
	room.UpdatedBy = &operatorID

	if err := s.repo.Room.Create(ctx, room); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrRoomNameTaken
		}
		s.logger.Error("create room failed", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	s.logger.Info("room created", zap.String("room_id", room.RoomID), zap.String("operator", operatorID))
	return s.respond(ctx, room)
}

// ────────────────────── Update ──────────────────────

func (s *roomService) Update(ctx context.Context, id string, req *dto.UpdateRoomRequest, operatorID string) (*dto.RoomResponse, error) {
	var room *model.Room
	err := s.repo.Tx.Transaction(ctx, func(tx *repository.Repository) error {
		var err error
		room, err = tx.Room.GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}
		room.Version = req.Version

		occupancy, err := tx.Allocation.CountByRoom(ctx, id)
		if err != nil {
			return err
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name != room.Name {
				if err := ensureRoomNameFree(ctx, tx, name, id); err != nil {
					return err
				}
				room.Name = name
			}
		}
		if req.Gender != nil {
			g, ok := model.ParseGender(*req.Gender)
			if !ok || !g.IsPartition() {
				return ErrInvalidGender
			}
			if g != room.Gender && occupancy > 0 {
				return ErrRoomOccupied
			}
			room.Gender = g
		}
		if req.Capacity != nil {
			if *req.Capacity < occupancy {
				return ErrCapacityBelowOccupancy
			}
			room.Capacity = *req.Capacity
		}
		if req.IsActive != nil {
			room.IsActive = *req.IsActive
		}
		if req.Description != nil {
			room.Description = *req.Description
		}
		room.UpdatedBy = &operatorID

		return tx.Room.Update(ctx, room)
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("update room failed", zap.String("room_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("room updated", zap.String("room_id", id), zap.String("operator", operatorID))
	return s.respond(ctx, room)
}

// ────────────────────── Delete ──────────────────────

func (s *roomService) Delete(ctx context.Context, id string, operatorID string) error {
	err := s.repo.Tx.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Room.GetByIDForUpdate(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}
		occupancy, err := tx.Allocation.CountByRoom(ctx, id)
		if err != nil {
			return err
		}
		if occupancy > 0 {
			return ErrRoomOccupied
		}
		return tx.Room.Delete(ctx, id, operatorID)
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("delete room failed", zap.String("room_id", id), zap.Error(err))
		}
		return err
	}

	s.logger.Info("room deleted", zap.String("room_id", id), zap.String("operator", operatorID))
	return nil
}

// ── helpers ──

func (s *roomService) ensureNameFree(ctx context.Context, name, selfID string) error {
	return ensureRoomNameFree(ctx, s.repo, name, selfID)
}

func ensureRoomNameFree(ctx context.Context, repo *repository.Repository, name, selfID string) error {
	existing, err := repo.Room.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if existing.RoomID != selfID {
		return ErrRoomNameTaken
	}
	return nil
}

func (s *roomService) respond(ctx context.Context, room *model.Room) (*dto.RoomResponse, error) {
	result, err := buildRoomResponses(ctx, s.repo, []model.Room{*room})
	if err != nil {
		s.logger.Error("load room occupants failed", zap.String("room_id", room.RoomID), zap.Error(err))
		return nil, err
	}
	return &result[0], nil
}
