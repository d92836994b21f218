package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campdesk/internal/dto"
	"campdesk/internal/service"
	"campdesk/pkg/response"
)

// AllocationHandler room assignment endpoints
type AllocationHandler struct {
	allocSvc service.AllocationService
}

// NewAllocationHandler creates an AllocationHandler
func NewAllocationHandler(allocSvc service.AllocationService) *AllocationHandler {
	return &AllocationHandler{allocSvc: allocSvc}
}

// AutoAllocate fill rooms of one gender (or All) from the waiting list
// POST /api/v1/allocations/auto
func (h *AllocationHandler) AutoAllocate(c *gin.Context) {
	var req dto.AutoAllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.allocSvc.AutoAllocate(c.Request.Context(), &req, operatorID)
	if err != nil {
		h.handleAllocationError(c, err)
		return
	}

	response.OK(c, result)
}

// ManualAllocate place one registrant into one room
// POST /api/v1/allocations
func (h *AllocationHandler) ManualAllocate(c *gin.Context) {
	var req dto.ManualAllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.allocSvc.ManualAllocate(c.Request.Context(), &req, operatorID)
	if err != nil {
		h.handleAllocationError(c, err)
		return
	}

	response.Created(c, result)
}

// RemoveAllocation release a registrant's seat
// DELETE /api/v1/allocations/:registration_id
func (h *AllocationHandler) RemoveAllocation(c *gin.Context) {
	registrationID := c.Param("registration_id")
	if registrationID == "" {
		response.BadRequest(c, 10001, "registration id is required")
		return
	}

	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.allocSvc.RemoveAllocation(c.Request.Context(), registrationID, operatorID); err != nil {
		h.handleAllocationError(c, err)
		return
	}

	response.OK(c, nil)
}

// EmptyAllRooms release every seat in rooms of one gender
// POST /api/v1/allocations/empty
func (h *AllocationHandler) EmptyAllRooms(c *gin.Context) {
	var req dto.EmptyRoomsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.allocSvc.EmptyAllRooms(c.Request.Context(), &req, operatorID)
	if err != nil {
		h.handleAllocationError(c, err)
		return
	}

	response.OK(c, result)
}

// handleAllocationError maps allocation errors to responses
func (h *AllocationHandler) handleAllocationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidGender):
		response.BadRequest(c, 21001, "invalid gender for this operation")
	case errors.Is(err, service.ErrRegistrationNotFound):
		response.NotFound(c, 20001, "registration not found")
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 21002, "room not found")
	case errors.Is(err, service.ErrNotVerified):
		response.BadRequest(c, 20003, "registration not verified")
	case errors.Is(err, service.ErrAlreadyAllocated):
		response.BadRequest(c, 21003, "registrant already holds a room")
	case errors.Is(err, service.ErrNotAllocated):
		response.BadRequest(c, 21004, "registrant holds no room")
	case errors.Is(err, service.ErrGenderMismatch):
		response.BadRequest(c, 21005, "registrant gender does not match room gender")
	case errors.Is(err, service.ErrRoomInactive):
		response.BadRequest(c, 21006, "room is not active")
	case errors.Is(err, service.ErrRoomFull):
		response.BadRequest(c, 21007, "room is full")
	default:
		response.InternalError(c)
	}
}
