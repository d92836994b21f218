package handler

import "campdesk/internal/service"

// Handler aggregate entry point for all handlers
type Handler struct {
	Verification  *VerificationHandler
	Registration  *RegistrationHandler
	Allocation    *AllocationHandler
	Room          *RoomHandler
	Accommodation *AccommodationHandler
}

// NewHandler creates the Handler aggregate
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Verification:  NewVerificationHandler(svc.Verification),
		Registration:  NewRegistrationHandler(svc.Registration),
		Allocation:    NewAllocationHandler(svc.Allocation),
		Room:          NewRoomHandler(svc.Accommodation, svc.Room),
		Accommodation: NewAccommodationHandler(svc.Accommodation, svc.Export),
	}
}
