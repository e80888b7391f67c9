package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campuskit/portal-api/internal/middleware"
	"github.com/campuskit/portal-api/internal/models"
)

// claimsFromContext returns the authenticated claims, or nil on routes the
// auth middleware never ran on.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		return nil
	}
	return claims
}
