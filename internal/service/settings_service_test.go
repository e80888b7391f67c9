package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuskit/portal-api/internal/models"
	appErrors "github.com/campuskit/portal-api/pkg/errors"
)

func seedSettingsUser(t *testing.T, repo *mockUserRepo, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := &models.User{ID: "u1", Email: "user@example.com", PasswordHash: string(hash), Role: models.RoleStudent}
	repo.byID[user.ID] = user
	repo.byEmail[user.Email] = user
	return user
}

func TestSettingsReturnsAccount(t *testing.T) {
	repo := newMockUserRepo()
	seedSettingsUser(t, repo, "pass")
	svc := NewSettingsService(repo, validator.New(), zap.NewNop())

	user, err := svc.Settings(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", user.Email)

	_, err = svc.Settings(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSettingsChangePassword(t *testing.T) {
	repo := newMockUserRepo()
	user := seedSettingsUser(t, repo, "old-pass")
	svc := NewSettingsService(repo, validator.New(), zap.NewNop())

	err := svc.ChangePassword(context.Background(), "u1", ChangePasswordRequest{
		CurrentPassword: "old-pass",
		NewPassword:     "new-pass-123",
	})
	require.NoError(t, err)

	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("new-pass-123")))
	assert.Equal(t, []string{"u1"}, repo.revoked)
}

func TestSettingsChangePasswordWrongCurrent(t *testing.T) {
	repo := newMockUserRepo()
	seedSettingsUser(t, repo, "old-pass")
	svc := NewSettingsService(repo, validator.New(), zap.NewNop())

	err := svc.ChangePassword(context.Background(), "u1", ChangePasswordRequest{
		CurrentPassword: "guess",
		NewPassword:     "new-pass-123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.revoked)
}

func TestSettingsToggleTwoFactor(t *testing.T) {
	repo := newMockUserRepo()
	seedSettingsUser(t, repo, "pass")
	svc := NewSettingsService(repo, validator.New(), zap.NewNop())

	enabled, err := svc.ToggleTwoFactor(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = svc.ToggleTwoFactor(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestSettingsDeleteAccountChecksPassword(t *testing.T) {
	repo := newMockUserRepo()
	seedSettingsUser(t, repo, "pass")
	svc := NewSettingsService(repo, validator.New(), zap.NewNop())

	err := svc.DeleteAccount(context.Background(), "u1", "wrong")
	require.Error(t, err)
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.DeleteAccount(context.Background(), "u1", "pass"))
	assert.Equal(t, []string{"u1"}, repo.deleted)
	assert.Equal(t, []string{"u1"}, repo.revoked)
}

func TestSettingsUpdatePreferences(t *testing.T) {
	repo := newMockUserRepo()
	seedSettingsUser(t, repo, "pass")
	svc := NewSettingsService(repo, validator.New(), zap.NewNop())

	appearance := "dark"
	prefs := models.NotificationPreferences{EmailAlerts: true}
	user, err := svc.UpdateSettings(context.Background(), "u1", UpdateSettingsRequest{
		Appearance:              &appearance,
		NotificationPreferences: &prefs,
	})
	require.NoError(t, err)
	assert.Equal(t, "dark", user.Appearance)
	assert.True(t, user.NotificationPreferences.EmailAlerts)
}
