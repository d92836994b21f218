package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campdesk/internal/dto"
	"campdesk/internal/service"
	pkgerrors "campdesk/pkg/errors"
	"campdesk/pkg/response"
)

// RoomHandler room endpoints; reads go through the accommodation view
type RoomHandler struct {
	accommodationSvc service.AccommodationService
	roomSvc          service.RoomService
}

// NewRoomHandler creates a RoomHandler
func NewRoomHandler(accommodationSvc service.AccommodationService, roomSvc service.RoomService) *RoomHandler {
	return &RoomHandler{accommodationSvc: accommodationSvc, roomSvc: roomSvc}
}

// ListRooms rooms with occupancy and occupants
// GET /api/v1/rooms
func (h *RoomHandler) ListRooms(c *gin.Context) {
	var req dto.RoomListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	rooms, err := h.accommodationSvc.ListRooms(c.Request.Context(), &req)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rooms})
}

// GetRoom single room
// GET /api/v1/rooms/:id
func (h *RoomHandler) GetRoom(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "room id is required")
		return
	}

	room, err := h.accommodationSvc.GetRoom(c.Request.Context(), id)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, room)
}

// CreateRoom POST /api/v1/rooms
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	room, err := h.roomSvc.Create(c.Request.Context(), &req, operatorID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.Created(c, room)
}

// UpdateRoom PUT /api/v1/rooms/:id
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "room id is required")
		return
	}

	var req dto.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	room, err := h.roomSvc.Update(c.Request.Context(), id, &req, operatorID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, room)
}

// DeleteRoom DELETE /api/v1/rooms/:id
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "room id is required")
		return
	}

	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.roomSvc.Delete(c.Request.Context(), id, operatorID); err != nil {
		h.handleRoomError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *RoomHandler) handleRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 22001, "room not found")
	case errors.Is(err, service.ErrRoomNameTaken):
		response.Conflict(c, 22002, "room name already in use")
	case errors.Is(err, service.ErrCapacityBelowOccupancy):
		response.BadRequest(c, 22003, "capacity cannot drop below current occupancy")
	case errors.Is(err, service.ErrRoomOccupied):
		response.Conflict(c, 22004, "room has occupants")
	case errors.Is(err, service.ErrInvalidGender):
		response.BadRequest(c, 22005, "gender must be Male or Female")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 22006, "room was changed by someone else; reload and retry")
	default:
		response.InternalError(c)
	}
}
