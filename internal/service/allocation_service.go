package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campdesk/config"
	"campdesk/internal/dto"
	"campdesk/internal/model"
	"campdesk/internal/repository"
	"campdesk/pkg/metrics"
)

// ── allocation errors ──

var (
	ErrInvalidGender    = errors.New("invalid gender for this operation")
	ErrRoomNotFound     = errors.New("room not found")
	ErrAlreadyAllocated = errors.New("registrant already holds a room")
	ErrNotAllocated     = errors.New("registrant holds no room")
	ErrGenderMismatch   = errors.New("registrant gender does not match room gender")
	ErrRoomInactive     = errors.New("room is not active")
	ErrRoomFull         = errors.New("room is full")
)

// AllocationService room assignment
type AllocationService interface {
	AutoAllocate(ctx context.Context, req *dto.AutoAllocateRequest, operatorID string) (*dto.AutoAllocateResponse, error)
	ManualAllocate(ctx context.Context, req *dto.ManualAllocateRequest, operatorID string) (*dto.AllocationResponse, error)
	RemoveAllocation(ctx context.Context, registrationID string, operatorID string) error
	EmptyAllRooms(ctx context.Context, req *dto.EmptyRoomsRequest, operatorID string) (*dto.EmptyRoomsResponse, error)
}

type allocationService struct {
	repo      *repository.Repository
	roomOrder string
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewAllocationService creates an AllocationService
func NewAllocationService(cfg *config.AllocationConfig, repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) AllocationService {
	order := config.RoomOrderOccupancyAsc
	if cfg != nil && cfg.RoomOrder != "" {
		order = cfg.RoomOrder
	}
	return &allocationService{repo: repo, roomOrder: order, metrics: m, logger: logger}
}

// ────────────────────── AutoAllocate ──────────────────────

// roomFill one room's share of an auto-allocation plan
type roomFill struct {
	room      model.Room
	occupancy int
	assigned  []model.Registration
}

// planAllocation fills rooms in policy order, each to capacity before the next.
// Registrants are consumed in the order given.
func planAllocation(rooms []model.Room, occupancy map[string]int, regs []model.Registration, order string) ([]roomFill, int) {
	fills := make([]roomFill, 0, len(rooms))
	for _, r := range rooms {
		fills = append(fills, roomFill{room: r, occupancy: occupancy[r.RoomID]})
	}
	sort.SliceStable(fills, func(i, j int) bool {
		a, b := fills[i], fills[j]
		if order != config.RoomOrderName && a.occupancy != b.occupancy {
			if order == config.RoomOrderOccupancyDesc {
				return a.occupancy > b.occupancy
			}
			return a.occupancy < b.occupancy
		}
		if a.room.Name != b.room.Name {
			return a.room.Name < b.room.Name
		}
		return a.room.RoomID < b.room.RoomID
	})

	next := 0
	for i := range fills {
		if next >= len(regs) {
			break
		}
		free := fills[i].room.Remaining(fills[i].occupancy)
		if free == 0 {
			continue
		}
		end := next + free
		if end > len(regs) {
			end = len(regs)
		}
		fills[i].assigned = regs[next:end]
		next = end
	}
	return fills, next
}

func (s *allocationService) AutoAllocate(ctx context.Context, req *dto.AutoAllocateRequest, operatorID string) (*dto.AutoAllocateResponse, error) {
	gender, ok := model.ParseGender(req.Gender)
	if !ok {
		return nil, ErrInvalidGender
	}
	defer s.metrics.ObserveAutoAllocate(time.Now())

	var resp *dto.AutoAllocateResponse
	err := s.repo.Tx.Transaction(ctx, func(tx *repository.Repository) error {
		resp = &dto.AutoAllocateResponse{
			PerRoom:              []dto.RoomAllocationSummary{},
			RemainingUnallocated: map[string]int{},
		}
		// every candidate room is locked before any registrant
		locked, err := tx.Room.ListForUpdate(ctx, gender, true)
		if err != nil {
			return err
		}
		occupancy, err := tx.Allocation.Occupancy(ctx, roomIDs(locked))
		if err != nil {
			return err
		}

		for _, g := range gender.Expand() {
			var rooms []model.Room
			for _, r := range locked {
				if r.Gender == g {
					rooms = append(rooms, r)
				}
			}
			regs, err := tx.Registration.ListUnallocated(ctx, g, true)
			if err != nil {
				return err
			}

			fills, placed := planAllocation(rooms, occupancy, regs, s.roomOrder)

			var allocs []model.Allocation
			var logs []model.AuditLog
			for _, f := range fills {
				if len(f.assigned) == 0 {
					continue
				}
				roomID := f.room.RoomID
				for _, reg := range f.assigned {
					allocs = append(allocs, model.Allocation{
						RegistrationID: reg.RegistrationID,
						RoomID:         roomID,
						Mode:           model.AllocationAuto,
						AllocatedBy:    operatorID,
					})
					logs = append(logs, newAuditLog(reg.RegistrationID, &roomID, model.ActionAllocate, "mode=auto", operatorID))
				}
				resp.PerRoom = append(resp.PerRoom, dto.RoomAllocationSummary{
					RoomID:    roomID,
					RoomName:  f.room.Name,
					Gender:    string(g),
					Allocated: len(f.assigned),
					Occupancy: f.occupancy + len(f.assigned),
					Capacity:  f.room.Capacity,
				})
			}
			if len(allocs) > 0 {
				if err := tx.Allocation.BatchCreate(ctx, allocs); err != nil {
					if errors.Is(err, gorm.ErrDuplicatedKey) {
						return ErrAlreadyAllocated
					}
					return err
				}
				if err := tx.AuditLog.BatchCreate(ctx, logs); err != nil {
					return err
				}
			}
			resp.TotalAllocated += placed
			resp.RemainingUnallocated[string(g)] = len(regs) - placed
		}
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("auto allocation failed", zap.String("gender", string(gender)), zap.Error(err))
		}
		return nil, err
	}

	s.metrics.AddAllocated(model.AllocationAuto, resp.TotalAllocated)
	s.logger.Info("auto allocation completed",
		zap.String("gender", string(gender)),
		zap.Int("allocated", resp.TotalAllocated),
		zap.Any("remaining", resp.RemainingUnallocated),
		zap.String("operator", operatorID),
	)
	return resp, nil
}

// ────────────────────── ManualAllocate ──────────────────────

func (s *allocationService) ManualAllocate(ctx context.Context, req *dto.ManualAllocateRequest, operatorID string) (*dto.AllocationResponse, error) {
	var resp *dto.AllocationResponse
	err := s.repo.Tx.Transaction(ctx, func(tx *repository.Repository) error {
		room, err := tx.Room.GetByIDForUpdate(ctx, req.RoomID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}
		reg, err := tx.Registration.GetByIDForUpdate(ctx, req.RegistrationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}

		if !reg.IsVerified {
			return ErrNotVerified
		}
		if _, err := tx.Allocation.GetByRegistration(ctx, reg.RegistrationID); err == nil {
			return ErrAlreadyAllocated
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if reg.Gender != room.Gender {
			return ErrGenderMismatch
		}
		if !room.IsActive {
			return ErrRoomInactive
		}
		// counted under the room lock
		occupancy, err := tx.Allocation.CountByRoom(ctx, room.RoomID)
		if err != nil {
			return err
		}
		if room.IsFull(occupancy) {
			return ErrRoomFull
		}

		alloc := &model.Allocation{
			RegistrationID: reg.RegistrationID,
			RoomID:         room.RoomID,
			Mode:           model.AllocationManual,
			AllocatedBy:    operatorID,
		}
		if err := tx.Allocation.Create(ctx, alloc); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyAllocated
			}
			return err
		}
		roomID := room.RoomID
		if err := tx.AuditLog.BatchCreate(ctx, []model.AuditLog{
			newAuditLog(reg.RegistrationID, &roomID, model.ActionAllocate, "mode=manual", operatorID),
		}); err != nil {
			return err
		}

		resp = &dto.AllocationResponse{
			ID:             alloc.AllocationID,
			RegistrationID: reg.RegistrationID,
			RoomID:         room.RoomID,
			RoomName:       room.Name,
			Mode:           alloc.Mode,
			AllocatedBy:    alloc.AllocatedBy,
			Occupancy:      occupancy + 1,
			Capacity:       room.Capacity,
			CreatedAt:      formatTime(alloc.CreatedAt),
		}
		return nil
	})
	if err != nil {
		if reason := rejectionReason(err); reason != "" {
			s.metrics.IncRejected(reason)
		} else {
			s.logger.Error("manual allocation failed",
				zap.String("registration_id", req.RegistrationID),
				zap.String("room_id", req.RoomID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.metrics.AddAllocated(model.AllocationManual, 1)
	s.logger.Info("registrant allocated",
		zap.String("registration_id", resp.RegistrationID),
		zap.String("room_id", resp.RoomID),
		zap.String("operator", operatorID),
	)
	return resp, nil
}

// rejectionReason metric label for a business rejection; "" for unexpected errors
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, ErrRegistrationNotFound):
		return "registration_not_found"
	case errors.Is(err, ErrNotVerified):
		return "not_verified"
	case errors.Is(err, ErrAlreadyAllocated):
		return "already_allocated"
	case errors.Is(err, ErrGenderMismatch):
		return "gender_mismatch"
	case errors.Is(err, ErrRoomInactive):
		return "room_inactive"
	case errors.Is(err, ErrRoomFull):
		return "room_full"
	}
	return ""
}

// ────────────────────── RemoveAllocation ──────────────────────

func (s *allocationService) RemoveAllocation(ctx context.Context, registrationID string, operatorID string) error {
	err := s.repo.Tx.Transaction(ctx, func(tx *repository.Repository) error {
		if _, err := tx.Registration.GetByIDForUpdate(ctx, registrationID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}
		alloc, err := tx.Allocation.GetByRegistration(ctx, registrationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotAllocated
			}
			return err
		}
		if _, err := tx.Allocation.DeleteByRegistration(ctx, registrationID); err != nil {
			return err
		}
		roomID := alloc.RoomID
		return tx.AuditLog.BatchCreate(ctx, []model.AuditLog{
			newAuditLog(registrationID, &roomID, model.ActionDeallocate, "reason=manual", operatorID),
		})
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("remove allocation failed", zap.String("registration_id", registrationID), zap.Error(err))
		}
		return err
	}

	s.metrics.AddRemoved("manual", 1)
	s.logger.Info("allocation removed",
		zap.String("registration_id", registrationID),
		zap.String("operator", operatorID),
	)
	return nil
}

// ────────────────────── EmptyAllRooms ──────────────────────

func (s *allocationService) EmptyAllRooms(ctx context.Context, req *dto.EmptyRoomsRequest, operatorID string) (*dto.EmptyRoomsResponse, error) {
	gender, ok := model.ParseGender(req.Gender)
	if !ok || !gender.IsPartition() {
		return nil, ErrInvalidGender
	}

	var removed int64
	err := s.repo.Tx.Transaction(ctx, func(tx *repository.Repository) error {
		// inactive rooms are emptied too
		rooms, err := tx.Room.ListForUpdate(ctx, gender, false)
		if err != nil {
			return err
		}
		if len(rooms) == 0 {
			return nil
		}
		ids := roomIDs(rooms)
		allocs, err := tx.Allocation.ListByRooms(ctx, ids)
		if err != nil {
			return err
		}
		if len(allocs) == 0 {
			return nil
		}
		n, err := tx.Allocation.DeleteByRooms(ctx, ids)
		if err != nil {
			return err
		}
		logs := make([]model.AuditLog, 0, len(allocs))
		for _, a := range allocs {
			roomID := a.RoomID
			logs = append(logs, newAuditLog(a.RegistrationID, &roomID, model.ActionDeallocate,
				fmt.Sprintf("reason=empty_%s", gender), operatorID))
		}
		if err := tx.AuditLog.BatchCreate(ctx, logs); err != nil {
			return err
		}
		removed = n
		return nil
	})
	if err != nil {
		if !isDomainError(err) {
			s.logger.Error("empty rooms failed", zap.String("gender", string(gender)), zap.Error(err))
		}
		return nil, err
	}

	s.metrics.AddRemoved("empty", int(removed))
	s.logger.Info("rooms emptied",
		zap.String("gender", string(gender)),
		zap.Int64("removed", removed),
		zap.String("operator", operatorID),
	)
	return &dto.EmptyRoomsResponse{RemovedAllocations: int(removed)}, nil
}
