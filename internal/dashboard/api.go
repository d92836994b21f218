package dashboard

import (
	"context"

	"campdesk/internal/dto"
)

// API the accommodation endpoints the dashboard consumes
type API interface {
	Stats(ctx context.Context) (*dto.AccommodationStats, error)
	Rooms(ctx context.Context, gender string) ([]dto.RoomResponse, error)
	Unallocated(ctx context.Context, gender string) ([]dto.RegistrationResponse, error)
	Verify(ctx context.Context, registrationID string) (*dto.RegistrationResponse, error)
	ManualAllocate(ctx context.Context, registrationID, roomID string) (*dto.AllocationResponse, error)
	RemoveAllocation(ctx context.Context, registrationID string) error
	AutoAllocate(ctx context.Context, gender string) (*dto.AutoAllocateResponse, error)
}
