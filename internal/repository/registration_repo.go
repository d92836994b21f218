package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campdesk/internal/model"
	pkgerrors "campdesk/pkg/errors"
)

// RegistrationFilter list filters; nil/empty fields are ignored
type RegistrationFilter struct {
	Gender    model.Gender
	Verified  *bool
	Allocated *bool
	Search    string
}

// GenderCounts registration figures of one partition
type GenderCounts struct {
	Gender      model.Gender
	Total       int64
	Verified    int64
	Allocated   int64
	Unallocated int64 // verified without a room
}

// RegistrationRepository registration data access
type RegistrationRepository interface {
	GetByID(ctx context.Context, id string) (*model.Registration, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id string) (*model.Registration, error)
	List(ctx context.Context, filter RegistrationFilter, offset, limit int) ([]model.Registration, int64, error)
	// ListUnallocated verified registrants without a room, in allocation order
	ListUnallocated(ctx context.Context, gender model.Gender, forUpdate bool) ([]model.Registration, error)
	UpdateVerification(ctx context.Context, reg *model.Registration) error
	CountByGender(ctx context.Context) ([]GenderCounts, error)
}

type registrationRepo struct {
	db *gorm.DB
}

func NewRegistrationRepo(db *gorm.DB) RegistrationRepository {
	return &registrationRepo{db: db}
}

func (r *registrationRepo) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var reg model.Registration
	err := r.db.WithContext(ctx).
		Preload("Allocation").Preload("Allocation.Room").
		Where("registration_id = ?", id).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Registration, error) {
	if !validID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var reg model.Registration
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("registration_id = ?", id).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepo) List(ctx context.Context, filter RegistrationFilter, offset, limit int) ([]model.Registration, int64, error) {
	var regs []model.Registration
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Registration{})
	if filter.Gender != "" {
		db = db.Where("gender = ?", filter.Gender)
	}
	if filter.Verified != nil {
		db = db.Where("is_verified = ?", *filter.Verified)
	}
	if filter.Allocated != nil {
		sub := r.db.Model(&model.Allocation{}).
			Select("1").
			Where("room_allocations.registration_id = registrations.registration_id")
		if *filter.Allocated {
			db = db.Where("EXISTS (?)", sub)
		} else {
			db = db.Where("NOT EXISTS (?)", sub)
		}
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		db = db.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ? OR phone LIKE ?", like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Allocation").Preload("Allocation.Room").
		Order("full_name ASC, registration_id ASC").
		Offset(offset).Limit(limit).
		Find(&regs).Error
	return regs, total, err
}

func (r *registrationRepo) ListUnallocated(ctx context.Context, gender model.Gender, forUpdate bool) ([]model.Registration, error) {
	var regs []model.Registration
	sub := r.db.Model(&model.Allocation{}).
		Select("1").
		Where("room_allocations.registration_id = registrations.registration_id")

	db := r.db.WithContext(ctx).
		Where("is_verified = ?", true).
		Where("NOT EXISTS (?)", sub)
	if gender != "" && gender != model.GenderAll {
		db = db.Where("gender = ?", gender)
	}
	if forUpdate {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := db.Order("created_at ASC, registration_id ASC").Find(&regs).Error
	return regs, err
}

func (r *registrationRepo) UpdateVerification(ctx context.Context, reg *model.Registration) error {
	oldVersion := reg.Version
	result := r.db.WithContext(ctx).
		Model(&model.Registration{}).
		Where("registration_id = ? AND version = ?", reg.RegistrationID, oldVersion).
		Updates(map[string]interface{}{
			"is_verified":         reg.IsVerified,
			"verified_at":         reg.VerifiedAt,
			"verified_by":         reg.VerifiedBy,
			"verification_method": reg.VerificationMethod,
			"updated_by":          reg.UpdatedBy,
			"version":             oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	reg.Version = oldVersion + 1
	return nil
}

func (r *registrationRepo) CountByGender(ctx context.Context) ([]GenderCounts, error) {
	var counts []GenderCounts
	err := r.db.WithContext(ctx).
		Model(&model.Registration{}).
		Select(`registrations.gender AS gender,
			COUNT(*) AS total,
			SUM(CASE WHEN registrations.is_verified THEN 1 ELSE 0 END) AS verified,
			COUNT(room_allocations.allocation_id) AS allocated,
			SUM(CASE WHEN registrations.is_verified AND room_allocations.allocation_id IS NULL THEN 1 ELSE 0 END) AS unallocated`).
		Joins("LEFT JOIN room_allocations ON room_allocations.registration_id = registrations.registration_id").
		Group("registrations.gender").
		Order("registrations.gender").
		Scan(&counts).Error
	return counts, err
}
