package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Verification methods
const (
	VerificationManual = "manual"
	VerificationQR     = "qr"
)

// Registration program participant (registrations)
type Registration struct {
	RegistrationID     string     `gorm:"type:uuid;primaryKey"           json:"registration_id"`
	FullName           string     `gorm:"type:varchar(150);not null"     json:"full_name"`
	Gender             Gender     `gorm:"type:varchar(10);not null"      json:"gender"`
	Email              string     `gorm:"type:varchar(255);not null"     json:"email"`
	Phone              string     `gorm:"type:varchar(40);not null"      json:"phone"`
	DateOfBirth        *time.Time `gorm:"type:date"                      json:"date_of_birth,omitempty"`
	IsVerified         bool       `gorm:"not null;default:false"         json:"is_verified"`
	VerifiedAt         *time.Time `json:"verified_at,omitempty"`
	VerifiedBy         *string    `gorm:"type:varchar(64)"               json:"verified_by,omitempty"`
	VerificationMethod *string    `gorm:"type:varchar(10)"               json:"verification_method,omitempty"`
	VersionedModel

	// Allocation is nil when the registrant holds no room
	Allocation *Allocation `gorm:"foreignKey:RegistrationID;references:RegistrationID" json:"allocation,omitempty"`
}

func (Registration) TableName() string { return "registrations" }

func (r *Registration) BeforeCreate(_ *gorm.DB) error {
	if r.RegistrationID == "" {
		r.RegistrationID = uuid.NewString()
	}
	return nil
}

// MarkVerified sets the verification fields together
func (r *Registration) MarkVerified(by, method string, at time.Time) {
	r.IsVerified = true
	r.VerifiedAt = &at
	r.VerifiedBy = &by
	r.VerificationMethod = &method
}

// ClearVerification resets the verification fields together
func (r *Registration) ClearVerification() {
	r.IsVerified = false
	r.VerifiedAt = nil
	r.VerifiedBy = nil
	r.VerificationMethod = nil
}
