package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/portal-api/internal/service"
	appErrors "github.com/campuskit/portal-api/pkg/errors"
	"github.com/campuskit/portal-api/pkg/response"
)

// MaterialHandler exposes shared study material endpoints.
type MaterialHandler struct {
	service *service.MaterialService
}

// NewMaterialHandler creates a new handler.
func NewMaterialHandler(svc *service.MaterialService) *MaterialHandler {
	return &MaterialHandler{service: svc}
}

// List returns all shared materials.
func (h *MaterialHandler) List(c *gin.Context) {
	materials, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, nil)
}

// Create shares a new material link.
func (h *MaterialHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials"))
		return
	}

	var req service.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid material payload"))
		return
	}

	material, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}
