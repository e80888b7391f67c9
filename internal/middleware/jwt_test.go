package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/campuskit/portal-api/internal/models"
	appErrors "github.com/campuskit/portal-api/pkg/errors"
)

type fakeValidator struct {
	claims *models.JWTClaims
	seen   string
}

func (f *fakeValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	f.seen = token
	if f.claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return f.claims, nil
}

func newAuthRouter(validator *fakeValidator, cookieName string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", Auth(validator, cookieName), func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID})
	})
	return router
}

func TestAuthBearerHeader(t *testing.T) {
	validator := &fakeValidator{claims: &models.JWTClaims{UserID: "user-1", Role: models.RoleAdmin}}
	router := newAuthRouter(validator, "session")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer token-abc")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "token-abc", validator.seen)
}

func TestAuthCookieFallback(t *testing.T) {
	validator := &fakeValidator{claims: &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent}}
	router := newAuthRouter(validator, "session")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "cookie-token"})
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cookie-token", validator.seen)
}

func TestAuthHeaderWinsOverCookie(t *testing.T) {
	validator := &fakeValidator{claims: &models.JWTClaims{UserID: "user-1", Role: models.RoleStudent}}
	router := newAuthRouter(validator, "session")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: "session", Value: "cookie-token"})
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "header-token", validator.seen)
}

func TestAuthMissingCredentials(t *testing.T) {
	router := newAuthRouter(&fakeValidator{}, "session")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	router := newAuthRouter(&fakeValidator{}, "session")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMalformedHeader(t *testing.T) {
	router := newAuthRouter(&fakeValidator{}, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "token-without-scheme")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
