package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campdesk/internal/dto"
	"campdesk/internal/model"
	"campdesk/internal/repository"
)

// AccommodationService occupancy views derived from current state
type AccommodationService interface {
	GetStats(ctx context.Context) (*dto.AccommodationStats, error)
	ListRooms(ctx context.Context, req *dto.RoomListRequest) ([]dto.RoomResponse, error)
	GetRoom(ctx context.Context, id string) (*dto.RoomResponse, error)
}

type accommodationService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAccommodationService creates an AccommodationService
func NewAccommodationService(repo *repository.Repository, logger *zap.Logger) AccommodationService {
	return &accommodationService{repo: repo, logger: logger}
}

// ────────────────────── GetStats ──────────────────────

// statsTxOptions one snapshot for every count, so allocated and occupied agree
var statsTxOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

func (s *accommodationService) GetStats(ctx context.Context) (*dto.AccommodationStats, error) {
	stats := &dto.AccommodationStats{
		RoomsByGender:       map[string]dto.GenderRooms{},
		UnallocatedByGender: map[string]int64{},
	}
	for _, g := range model.Genders {
		stats.RoomsByGender[string(g)] = dto.GenderRooms{}
		stats.UnallocatedByGender[string(g)] = 0
	}

	err := s.repo.Tx.Transaction(ctx, func(tx *repository.Repository) error {
		counts, err := tx.Registration.CountByGender(ctx)
		if err != nil {
			return err
		}
		for _, c := range counts {
			stats.TotalRegistrations += c.Total
			stats.Verified += c.Verified
			stats.Allocated += c.Allocated
			stats.Unallocated += c.Unallocated
			stats.UnallocatedByGender[string(c.Gender)] += c.Unallocated
		}
		stats.Unverified = stats.TotalRegistrations - stats.Verified

		rooms, err := tx.Room.List(ctx, "", true)
		if err != nil {
			return err
		}
		occupancy, err := tx.Allocation.Occupancy(ctx, roomIDs(rooms))
		if err != nil {
			return err
		}
		for i := range rooms {
			r := &rooms[i]
			occ := occupancy[r.RoomID]
			gr := stats.RoomsByGender[string(r.Gender)]

			stats.TotalRooms++
			gr.Rooms++
			stats.TotalCapacity += r.Capacity
			gr.Capacity += r.Capacity
			stats.OccupiedSpaces += occ
			gr.Occupied += occ
			if r.IsActive {
				stats.ActiveRooms++
				gr.ActiveRooms++
				stats.AvailableSpaces += r.Remaining(occ)
				gr.Available += r.Remaining(occ)
			}
			stats.RoomsByGender[string(r.Gender)] = gr
		}
		return nil
	}, statsTxOptions)
	if err != nil {
		s.logger.Error("compute accommodation stats failed", zap.Error(err))
		return nil, err
	}

	stats.OccupancyRate = percent(float64(stats.OccupiedSpaces), float64(stats.TotalCapacity))
	stats.AllocationRate = percent(float64(stats.Allocated), float64(stats.Verified))
	return stats, nil
}

// ────────────────────── ListRooms ──────────────────────

func (s *accommodationService) ListRooms(ctx context.Context, req *dto.RoomListRequest) ([]dto.RoomResponse, error) {
	var gender model.Gender
	if req.Gender != "" {
		g, ok := model.ParseGender(req.Gender)
		if !ok {
			return nil, ErrInvalidGender
		}
		gender = g
	}

	rooms, err := s.repo.Room.List(ctx, gender, req.IncludeInactive)
	if err != nil {
		s.logger.Error("list rooms failed", zap.Error(err))
		return nil, err
	}
	result, err := buildRoomResponses(ctx, s.repo, rooms)
	if err != nil {
		s.logger.Error("load room occupants failed", zap.Error(err))
		return nil, err
	}
	return result, nil
}

// ────────────────────── GetRoom ──────────────────────

func (s *accommodationService) GetRoom(ctx context.Context, id string) (*dto.RoomResponse, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("load room failed", zap.String("room_id", id), zap.Error(err))
		return nil, err
	}
	result, err := buildRoomResponses(ctx, s.repo, []model.Room{*room})
	if err != nil {
		return nil, err
	}
	return &result[0], nil
}

// ── helpers ──

func roomIDs(rooms []model.Room) []string {
	ids := make([]string, len(rooms))
	for i, r := range rooms {
		ids[i] = r.RoomID
	}
	return ids
}

// buildRoomResponses attaches live occupancy and occupants to each room
func buildRoomResponses(ctx context.Context, repo *repository.Repository, rooms []model.Room) ([]dto.RoomResponse, error) {
	result := make([]dto.RoomResponse, 0, len(rooms))
	if len(rooms) == 0 {
		return result, nil
	}

	allocs, err := repo.Allocation.ListByRooms(ctx, roomIDs(rooms))
	if err != nil {
		return nil, err
	}
	occupants := make(map[string][]dto.OccupantResponse, len(rooms))
	for _, a := range allocs {
		o := dto.OccupantResponse{
			RegistrationID: a.RegistrationID,
			Mode:           a.Mode,
			AllocatedAt:    formatTime(a.CreatedAt),
		}
		if a.Registration != nil {
			o.FullName = a.Registration.FullName
		}
		occupants[a.RoomID] = append(occupants[a.RoomID], o)
	}

	for i := range rooms {
		r := &rooms[i]
		list := occupants[r.RoomID]
		if list == nil {
			list = []dto.OccupantResponse{}
		}
		occ := len(list)
		result = append(result, dto.RoomResponse{
			ID:            r.RoomID,
			Name:          r.Name,
			Gender:        string(r.Gender),
			Capacity:      r.Capacity,
			Occupancy:     occ,
			Remaining:     r.Remaining(occ),
			OccupancyRate: percent(float64(occ), float64(r.Capacity)),
			IsActive:      r.IsActive,
			Description:   r.Description,
			Occupants:     list,
			Version:       r.Version,
			CreatedAt:     formatTime(r.CreatedAt),
			UpdatedAt:     formatTime(r.UpdatedAt),
		})
	}
	return result, nil
}
