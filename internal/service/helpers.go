package service

import (
	"errors"
	"math"
	"time"

	"campdesk/internal/dto"
	"campdesk/internal/model"
	pkgerrors "campdesk/pkg/errors"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(dto.TimeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// percent returns part/whole as a percentage rounded to two decimals; 0 when whole is 0
func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(part/whole*10000) / 100
}

func newAuditLog(registrationID string, roomID *string, action, detail, operatorID string) model.AuditLog {
	return model.AuditLog{
		RegistrationID: registrationID,
		RoomID:         roomID,
		Action:         action,
		Detail:         detail,
		OperatorID:     operatorID,
	}
}

func toRegistrationResponse(reg *model.Registration) *dto.RegistrationResponse {
	resp := &dto.RegistrationResponse{
		ID:                 reg.RegistrationID,
		FullName:           reg.FullName,
		Gender:             string(reg.Gender),
		Email:              reg.Email,
		Phone:              reg.Phone,
		IsVerified:         reg.IsVerified,
		VerifiedAt:         formatTimePtr(reg.VerifiedAt),
		VerifiedBy:         reg.VerifiedBy,
		VerificationMethod: reg.VerificationMethod,
		CreatedAt:          formatTime(reg.CreatedAt),
	}
	if reg.DateOfBirth != nil {
		dob := reg.DateOfBirth.Format("2006-01-02")
		resp.DateOfBirth = &dob
	}
	if a := reg.Allocation; a != nil {
		assignment := &dto.RoomAssignment{
			AllocationID: a.AllocationID,
			RoomID:       a.RoomID,
			Mode:         a.Mode,
			AllocatedAt:  formatTime(a.CreatedAt),
		}
		if a.Room != nil {
			assignment.RoomName = a.Room.Name
		}
		resp.Room = assignment
	}
	return resp
}

var domainErrors = []error{
	ErrRegistrationNotFound, ErrAlreadyVerified, ErrNotVerified, ErrInvalidQRPayload,
	ErrInvalidMethod, ErrRoomAllocated, ErrInvalidGender, ErrRoomNotFound,
	ErrAlreadyAllocated, ErrNotAllocated, ErrGenderMismatch, ErrRoomInactive, ErrRoomFull,
	ErrRoomNameTaken, ErrCapacityBelowOccupancy, ErrRoomOccupied, pkgerrors.ErrOptimisticLock,
}

// isDomainError reports whether err is an expected business rejection
// that callers surface to the client rather than log as a failure
func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
