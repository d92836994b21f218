package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Room gender-partitioned accommodation room (rooms)
type Room struct {
	RoomID      string `gorm:"type:uuid;primaryKey"       json:"room_id"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Gender      Gender `gorm:"type:varchar(10);not null"  json:"gender"`
	Capacity    int    `gorm:"not null"                   json:"capacity"`
	IsActive    bool   `gorm:"not null;default:true"      json:"is_active"`
	Description string `gorm:"type:varchar(500)"          json:"description,omitempty"`
	VersionedModel
}

func (Room) TableName() string { return "rooms" }

func (r *Room) BeforeCreate(_ *gorm.DB) error {
	if r.RoomID == "" {
		r.RoomID = uuid.NewString()
	}
	return nil
}

// Remaining free seats given the current occupancy
func (r *Room) Remaining(occupancy int) int {
	if n := r.Capacity - occupancy; n > 0 {
		return n
	}
	return 0
}

// IsFull reports whether occupancy has reached capacity
func (r *Room) IsFull(occupancy int) bool {
	return occupancy >= r.Capacity
}
