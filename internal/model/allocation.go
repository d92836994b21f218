package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Allocation modes
const (
	AllocationAuto   = "auto"
	AllocationManual = "manual"
)

// Allocation one registrant holding one room seat (room_allocations).
// Rows are hard-deleted so the unique registration index only covers live seats.
type Allocation struct {
	AllocationID   string    `gorm:"type:uuid;primaryKey"                  json:"allocation_id"`
	RegistrationID string    `gorm:"type:uuid;not null;uniqueIndex"        json:"registration_id"`
	RoomID         string    `gorm:"type:uuid;not null;index"              json:"room_id"`
	Mode           string    `gorm:"type:varchar(10);not null"             json:"mode"`
	AllocatedBy    string    `gorm:"type:varchar(64);not null"             json:"allocated_by"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"    json:"created_at"`

	Room         *Room         `gorm:"foreignKey:RoomID;references:RoomID"                 json:"room,omitempty"`
	Registration *Registration `gorm:"foreignKey:RegistrationID;references:RegistrationID" json:"registration,omitempty"`
}

func (Allocation) TableName() string { return "room_allocations" }

func (a *Allocation) BeforeCreate(_ *gorm.DB) error {
	if a.AllocationID == "" {
		a.AllocationID = uuid.NewString()
	}
	return nil
}

// RoomOccupancy live allocation count of one room
type RoomOccupancy struct {
	RoomID    string
	Occupancy int
}
