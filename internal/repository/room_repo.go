package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campdesk/internal/model"
	pkgerrors "campdesk/pkg/errors"
)

// RoomRepository room catalog data access
type RoomRepository interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	// GetByIDForUpdate locks the room row; allocation paths always lock rooms before registrations
	GetByIDForUpdate(ctx context.Context, id string) (*model.Room, error)
	GetByName(ctx context.Context, name string) (*model.Room, error)
	// List rooms ordered by name; empty gender means both partitions
	List(ctx context.Context, gender model.Gender, includeInactive bool) ([]model.Room, error)
	// ListForUpdate locks the matching rooms in room_id order
	ListForUpdate(ctx context.Context, gender model.Gender, activeOnly bool) ([]model.Room, error)
	Update(ctx context.Context, room *model.Room) error
	Delete(ctx context.Context, id string, deletedBy string) error
}

type roomRepo struct {
	db *gorm.DB
}

func NewRoomRepo(db *gorm.DB) RoomRepository {
	return &roomRepo{db: db}
}

func (r *roomRepo) Create(ctx context.Context, room *model.Room) error {
	active := room.IsActive
	if err := r.db.WithContext(ctx).Create(room).Error; err != nil {
		return err
	}
	// is_active carries a column default, so an explicit false is skipped on insert
	if !active {
		room.IsActive = false
		return r.db.WithContext(ctx).Model(&model.Room{}).
			Where("room_id = ?", room.RoomID).
			UpdateColumn("is_active", false).Error
	}
	return nil
}

func (r *roomRepo) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var room model.Room
	err := r.db.WithContext(ctx).Where("room_id = ?", id).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Room, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var room model.Room
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("room_id = ?", id).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) GetByName(ctx context.Context, name string) (*model.Room, error) {
	var room model.Room
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) List(ctx context.Context, gender model.Gender, includeInactive bool) ([]model.Room, error) {
	var rooms []model.Room
	db := r.db.WithContext(ctx)
	if gender != "" && gender != model.GenderAll {
		db = db.Where("gender = ?", gender)
	}
	if !includeInactive {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("name ASC, room_id ASC").Find(&rooms).Error
	return rooms, err
}

func (r *roomRepo) ListForUpdate(ctx context.Context, gender model.Gender, activeOnly bool) ([]model.Room, error) {
	var rooms []model.Room
	db := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	if gender != "" && gender != model.GenderAll {
		db = db.Where("gender = ?", gender)
	}
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}
	err := db.Order("room_id ASC").Find(&rooms).Error
	return rooms, err
}

func (r *roomRepo) Update(ctx context.Context, room *model.Room) error {
	oldVersion := room.Version
	result := r.db.WithContext(ctx).
		Model(&model.Room{}).
		Where("room_id = ? AND version = ?", room.RoomID, oldVersion).
		Updates(map[string]interface{}{
			"name":        room.Name,
			"gender":      room.Gender,
			"capacity":    room.Capacity,
			"is_active":   room.IsActive,
			"description": room.Description,
			"updated_by":  room.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	room.Version = oldVersion + 1
	return nil
}

func (r *roomRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Room{}).
			Where("room_id = ?", id).
			Update("deleted_by", deletedBy).Error; err != nil {
			return err
		}
		return tx.Where("room_id = ?", id).Delete(&model.Room{}).Error
	})
}
