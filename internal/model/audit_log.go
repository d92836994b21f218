package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions
const (
	ActionVerify     = "verify"
	ActionUnverify   = "unverify"
	ActionAllocate   = "allocate"
	ActionDeallocate = "deallocate"
)

// AuditLog append-only accommodation change history (accommodation_logs)
type AuditLog struct {
	LogID          string    `gorm:"type:uuid;primaryKey"               json:"log_id"`
	RegistrationID string    `gorm:"type:uuid;not null;index"           json:"registration_id"`
	RoomID         *string   `gorm:"type:uuid"                          json:"room_id,omitempty"`
	Action         string    `gorm:"type:varchar(20);not null"          json:"action"`
	Detail         string    `gorm:"type:varchar(500)"                  json:"detail,omitempty"`
	OperatorID     string    `gorm:"type:varchar(64);not null"          json:"operator_id"`
	CreatedAt      time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AuditLog) TableName() string { return "accommodation_logs" }

func (l *AuditLog) BeforeCreate(_ *gorm.DB) error {
	if l.LogID == "" {
		l.LogID = uuid.NewString()
	}
	return nil
}
