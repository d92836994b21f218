package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campdesk/internal/dto"
	"campdesk/internal/service"
	"campdesk/pkg/response"
)

// RegistrationHandler registration read endpoints
type RegistrationHandler struct {
	regSvc service.RegistrationService
}

// NewRegistrationHandler creates a RegistrationHandler
func NewRegistrationHandler(regSvc service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{regSvc: regSvc}
}

// ListRegistrations paginated list with filters
// GET /api/v1/registrations
func (h *RegistrationHandler) ListRegistrations(c *gin.Context) {
	var req dto.RegistrationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	list, total, err := h.regSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListUnallocated verified registrants waiting for a room
// GET /api/v1/registrations/unallocated
func (h *RegistrationHandler) ListUnallocated(c *gin.Context) {
	var req dto.UnallocatedListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	list, err := h.regSvc.ListUnallocated(c.Request.Context(), &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetRegistration single registration
// GET /api/v1/registrations/:id
func (h *RegistrationHandler) GetRegistration(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "registration id is required")
		return
	}

	reg, err := h.regSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OK(c, reg)
}

// ListLogs audit history of one registration
// GET /api/v1/registrations/:id/logs
func (h *RegistrationHandler) ListLogs(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "registration id is required")
		return
	}

	var req dto.AuditLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	list, total, err := h.regSvc.ListLogs(c.Request.Context(), id, &req)
	if err != nil {
		h.handleRegistrationError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

func (h *RegistrationHandler) handleRegistrationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRegistrationNotFound):
		response.NotFound(c, 20001, "registration not found")
	case errors.Is(err, service.ErrInvalidGender):
		response.BadRequest(c, 20007, "gender must be Male or Female")
	default:
		response.InternalError(c)
	}
}
