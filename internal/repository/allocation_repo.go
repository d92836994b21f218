package repository

import (
	"context"

	"gorm.io/gorm"

	"campdesk/internal/model"
)

// AllocationRepository room allocation data access.
// Callers that depend on occupancy must hold the room lock first.
type AllocationRepository interface {
	Create(ctx context.Context, alloc *model.Allocation) error
	BatchCreate(ctx context.Context, allocs []model.Allocation) error
	GetByRegistration(ctx context.Context, registrationID string) (*model.Allocation, error)
	CountByRoom(ctx context.Context, roomID string) (int, error)
	// Occupancy live counts keyed by room id; rooms without allocations are absent
	Occupancy(ctx context.Context, roomIDs []string) (map[string]int, error)
	// ListByRooms allocations with their registrations, oldest first
	ListByRooms(ctx context.Context, roomIDs []string) ([]model.Allocation, error)
	DeleteByRegistration(ctx context.Context, registrationID string) (int64, error)
	DeleteByRooms(ctx context.Context, roomIDs []string) (int64, error)
}

type allocationRepo struct {
	db *gorm.DB
}

func NewAllocationRepo(db *gorm.DB) AllocationRepository {
	return &allocationRepo{db: db}
}

func (r *allocationRepo) Create(ctx context.Context, alloc *model.Allocation) error {
	return r.db.WithContext(ctx).Create(alloc).Error
}

func (r *allocationRepo) BatchCreate(ctx context.Context, allocs []model.Allocation) error {
	if len(allocs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&allocs).Error
}

func (r *allocationRepo) GetByRegistration(ctx context.Context, registrationID string) (*model.Allocation, error) {
	if !validID(registrationID) {
		return nil, gorm.ErrRecordNotFound
	}
	var alloc model.Allocation
	err := r.db.WithContext(ctx).
		Preload("Room").
		Where("registration_id = ?", registrationID).
		First(&alloc).Error
	if err != nil {
		return nil, err
	}
	return &alloc, nil
}

func (r *allocationRepo) CountByRoom(ctx context.Context, roomID string) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Allocation{}).
		Where("room_id = ?", roomID).
		Count(&n).Error
	return int(n), err
}

func (r *allocationRepo) Occupancy(ctx context.Context, roomIDs []string) (map[string]int, error) {
	result := make(map[string]int, len(roomIDs))
	if len(roomIDs) == 0 {
		return result, nil
	}
	var rows []model.RoomOccupancy
	err := r.db.WithContext(ctx).
		Model(&model.Allocation{}).
		Select("room_id, COUNT(*) AS occupancy").
		Where("room_id IN ?", roomIDs).
		Group("room_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.RoomID] = row.Occupancy
	}
	return result, nil
}

func (r *allocationRepo) ListByRooms(ctx context.Context, roomIDs []string) ([]model.Allocation, error) {
	var allocs []model.Allocation
	if len(roomIDs) == 0 {
		return allocs, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Registration").
		Where("room_id IN ?", roomIDs).
		Order("created_at ASC, allocation_id ASC").
		Find(&allocs).Error
	return allocs, err
}

func (r *allocationRepo) DeleteByRegistration(ctx context.Context, registrationID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("registration_id = ?", registrationID).
		Delete(&model.Allocation{})
	return result.RowsAffected, result.Error
}

func (r *allocationRepo) DeleteByRooms(ctx context.Context, roomIDs []string) (int64, error) {
	if len(roomIDs) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Where("room_id IN ?", roomIDs).
		Delete(&model.Allocation{})
	return result.RowsAffected, result.Error
}
