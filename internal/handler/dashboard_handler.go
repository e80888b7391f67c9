package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/portal-api/internal/service"
	appErrors "github.com/campuskit/portal-api/pkg/errors"
	"github.com/campuskit/portal-api/pkg/response"
)

// DashboardHandler exposes the role-specific dashboard summaries.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// AdminSummary godoc
// @Summary Admin dashboard
// @Description Institution-wide counts for the admin dashboard
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *DashboardHandler) AdminSummary(c *gin.Context) {
	summary, err := h.service.AdminSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// StudentSummary returns the calling student's attendance and GPA summary.
func (h *DashboardHandler) StudentSummary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials"))
		return
	}

	summary, err := h.service.StudentSummary(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
