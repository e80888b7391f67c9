package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuskit/portal-api/internal/models"
	appErrors "github.com/campuskit/portal-api/pkg/errors"
)

func TestStudentServiceProfileMissing(t *testing.T) {
	svc := NewStudentService(newMockProfileRepo(), validator.New(), zap.NewNop())

	_, err := svc.Profile(context.Background(), "no-profile")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdateLazilyCreatesProfile(t *testing.T) {
	profiles := newMockProfileRepo()
	svc := NewStudentService(profiles, validator.New(), zap.NewNop())

	phone := "555-0101"
	profile, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{Phone: &phone})
	require.NoError(t, err)

	require.Len(t, profiles.created, 1)
	assert.Equal(t, models.DefaultCourseStudent, profile.Course)
	assert.Equal(t, models.DefaultBatchStudent, profile.Batch)
	require.NotNil(t, profile.Phone)
	assert.Equal(t, "555-0101", *profile.Phone)
}

func TestStudentServiceUpdateExistingProfile(t *testing.T) {
	profiles := newMockProfileRepo()
	profiles.byUserID["u1"] = &models.StudentProfile{ID: "p1", UserID: "u1", Course: "General", Batch: "2025"}
	svc := NewStudentService(profiles, validator.New(), zap.NewNop())

	course := "Mathematics"
	profile, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{Course: &course})
	require.NoError(t, err)

	assert.Empty(t, profiles.created)
	assert.Equal(t, "Mathematics", profile.Course)
	// Untouched fields keep their stored values.
	assert.Equal(t, "2025", profile.Batch)
}
