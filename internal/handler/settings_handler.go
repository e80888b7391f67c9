package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/portal-api/internal/service"
	appErrors "github.com/campuskit/portal-api/pkg/errors"
	"github.com/campuskit/portal-api/pkg/response"
)

// SettingsHandler exposes account security and preference endpoints.
type SettingsHandler struct {
	service *service.SettingsService
	cookie  SessionCookie
}

// NewSettingsHandler creates a new handler.
func NewSettingsHandler(svc *service.SettingsService, cookie SessionCookie) *SettingsHandler {
	return &SettingsHandler{service: svc, cookie: cookie}
}

// Get godoc
// @Summary Current account settings
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /admin/settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials"))
		return
	}

	user, err := h.service.Settings(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// ChangePassword godoc
// @Summary Change password
// @Description Verify the current password and store a new one; other sessions are revoked
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.ChangePasswordRequest true "Password payload"
// @Success 204
// @Router /settings/password [post]
func (h *SettingsHandler) ChangePassword(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials"))
		return
	}

	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid password payload"))
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ToggleTwoFactor flips the caller's two-factor flag.
func (h *SettingsHandler) ToggleTwoFactor(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials"))
		return
	}

	enabled, err := h.service.ToggleTwoFactor(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"twoFactorEnabled": enabled}, nil)
}

// UpdateSettings stores appearance and notification preferences.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials"))
		return
	}

	var req service.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}

	user, err := h.service.UpdateSettings(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

type securityRequest struct {
	Action          string `json:"action" binding:"required,oneof=change-password toggle-2fa"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Security dispatches the combined security endpoint used by the portal's
// settings page.
func (h *SettingsHandler) Security(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials"))
		return
	}

	var req securityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "action must be change-password or toggle-2fa"))
		return
	}

	switch req.Action {
	case "change-password":
		err := h.service.ChangePassword(c.Request.Context(), claims.UserID, service.ChangePasswordRequest{
			CurrentPassword: req.CurrentPassword,
			NewPassword:     req.NewPassword,
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.NoContent(c)
	case "toggle-2fa":
		enabled, err := h.service.ToggleTwoFactor(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, gin.H{"twoFactorEnabled": enabled}, nil)
	}
}

type deleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

// DeleteAccount removes the caller's account after a password check.
func (h *SettingsHandler) DeleteAccount(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials"))
		return
	}

	var req deleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "password is required"))
		return
	}

	if err := h.service.DeleteAccount(c.Request.Context(), claims.UserID, req.Password); err != nil {
		response.Error(c, err)
		return
	}

	if h.cookie.Name != "" {
		c.SetCookie(h.cookie.Name, "", -1, "/", "", h.cookie.Secure, true)
	}
	response.NoContent(c)
}
