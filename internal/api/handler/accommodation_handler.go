package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"campdesk/internal/dto"
	"campdesk/internal/service"
	"campdesk/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AccommodationHandler occupancy statistics and roster export
type AccommodationHandler struct {
	accommodationSvc service.AccommodationService
	exportSvc        service.ExportService
}

// NewAccommodationHandler creates an AccommodationHandler
func NewAccommodationHandler(accommodationSvc service.AccommodationService, exportSvc service.ExportService) *AccommodationHandler {
	return &AccommodationHandler{accommodationSvc: accommodationSvc, exportSvc: exportSvc}
}

// GetStats GET /api/v1/accommodation/stats
func (h *AccommodationHandler) GetStats(c *gin.Context) {
	stats, err := h.accommodationSvc.GetStats(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, stats)
}

// ExportRoster xlsx roster download
// GET /api/v1/accommodation/export?gender=Male
func (h *AccommodationHandler) ExportRoster(c *gin.Context) {
	var req dto.ExportRosterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	buf, filename, err := h.exportSvc.ExportRoster(c.Request.Context(), req.Gender)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidGender):
			response.BadRequest(c, 23001, "gender must be Male, Female or All")
		default:
			response.InternalError(c)
		}
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
