package service

import (
	"go.uber.org/zap"

	"campdesk/config"
	"campdesk/internal/repository"
	"campdesk/pkg/metrics"
)

// Service aggregate entry point for all services
type Service struct {
	Verification  VerificationService
	Allocation    AllocationService
	Accommodation AccommodationService
	Room          RoomService
	Registration  RegistrationService
	Export        ExportService
}

// NewService creates the Service aggregate
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	return &Service{
		Verification:  NewVerificationService(repo, m, logger),
		Allocation:    NewAllocationService(&cfg.Allocation, repo, m, logger),
		Accommodation: NewAccommodationService(repo, logger),
		Room:          NewRoomService(repo, logger),
		Registration:  NewRegistrationService(repo, logger),
		Export:        NewExportService(repo, logger),
	}
}
