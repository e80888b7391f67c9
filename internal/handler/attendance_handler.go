package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/portal-api/internal/service"
	appErrors "github.com/campuskit/portal-api/pkg/errors"
	"github.com/campuskit/portal-api/pkg/response"
)

// AttendanceHandler exposes attendance capture and history endpoints.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Day godoc
// @Summary Attendance for one day
// @Description Map of userId to status for every student marked on the date
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) Day(c *gin.Context) {
	dayMap, err := h.service.DayMap(c.Request.Context(), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dayMap, nil)
}

// Mark godoc
// @Summary Mark attendance
// @Description Bulk upsert attendance for one date; unknown students are skipped
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.BulkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.BulkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}

	marked, err := h.service.BulkMark(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"marked": marked}, nil)
}

// ListAll dumps every attendance row for administrative review.
func (h *AttendanceHandler) ListAll(c *gin.Context) {
	records, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// MyHistory returns the calling student's attendance history.
func (h *AttendanceHandler) MyHistory(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials"))
		return
	}

	records, err := h.service.StudentHistory(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
