package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"campdesk/internal/dto"
	"campdesk/internal/model"
	"campdesk/internal/service"
	"campdesk/pkg/response"
)

// VerificationHandler attendance verification endpoints
type VerificationHandler struct {
	verifySvc service.VerificationService
}

// NewVerificationHandler creates a VerificationHandler
func NewVerificationHandler(verifySvc service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verifySvc: verifySvc}
}

// Verify manual verification at the desk
// POST /api/v1/registrations/:id/verify
func (h *VerificationHandler) Verify(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "registration id is required")
		return
	}

	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	req := &dto.VerifyRequest{RegistrationID: id, Method: model.VerificationManual}
	reg, err := h.verifySvc.Verify(c.Request.Context(), req, operatorID)
	if err != nil {
		h.handleVerificationError(c, err)
		return
	}

	response.OK(c, reg)
}

// VerifyQR verification from a scanned badge
// POST /api/v1/registrations/verify-qr
func (h *VerificationHandler) VerifyQR(c *gin.Context) {
	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}
	if req.QRPayload == "" {
		response.BadRequest(c, 10001, "qr_payload is required")
		return
	}
	req.Method = model.VerificationQR

	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	reg, err := h.verifySvc.Verify(c.Request.Context(), &req, operatorID)
	if err != nil {
		h.handleVerificationError(c, err)
		return
	}

	response.OK(c, reg)
}

// CheckUnverifyEligibility pre-check before unverify
// GET /api/v1/registrations/:id/unverify-eligibility
func (h *VerificationHandler) CheckUnverifyEligibility(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "registration id is required")
		return
	}

	result, err := h.verifySvc.CheckUnverifyEligibility(c.Request.Context(), id)
	if err != nil {
		h.handleVerificationError(c, err)
		return
	}

	response.OK(c, result)
}

// Unverify clear verification; force also releases the room
// POST /api/v1/registrations/:id/unverify
func (h *VerificationHandler) Unverify(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "registration id is required")
		return
	}

	var req dto.UnverifyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "invalid request body")
			return
		}
	}

	operatorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	reg, err := h.verifySvc.Unverify(c.Request.Context(), id, req.Force, operatorID)
	if err != nil {
		h.handleVerificationError(c, err)
		return
	}

	response.OK(c, reg)
}

// handleVerificationError maps verification errors to responses
func (h *VerificationHandler) handleVerificationError(c *gin.Context, err error) {
	var roomErr *service.RoomAllocatedError
	switch {
	case errors.As(err, &roomErr):
		response.ErrorWithData(c, http.StatusConflict, 20006,
			"registrant holds a room; confirm with force to release it", roomErr.Details)
	case errors.Is(err, service.ErrRegistrationNotFound):
		response.NotFound(c, 20001, "registration not found")
	case errors.Is(err, service.ErrAlreadyVerified):
		response.BadRequest(c, 20002, "registration already verified")
	case errors.Is(err, service.ErrNotVerified):
		response.BadRequest(c, 20003, "registration not verified")
	case errors.Is(err, service.ErrInvalidQRPayload):
		response.BadRequest(c, 20004, "qr code does not identify a registration")
	case errors.Is(err, service.ErrInvalidMethod):
		response.BadRequest(c, 20005, "verification method must be manual or qr")
	case errors.Is(err, service.ErrRoomAllocated):
		response.Conflict(c, 20006, "registrant holds a room; confirm with force to release it")
	default:
		response.InternalError(c)
	}
}
