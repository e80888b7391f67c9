package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuskit/portal-api/internal/models"
	appErrors "github.com/campuskit/portal-api/pkg/errors"
)

type mockUserRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	deleted []string
	revoked []string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byEmail: make(map[string]*models.User),
		byID:    make(map[string]*models.User),
	}
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.byEmail[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.byID[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	var users []models.User
	for _, user := range m.byID {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		users = append(users, *user)
	}
	return users, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if user, ok := m.byID[id]; ok {
		user.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.byID, id)
	return nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

type mockProfileRepo struct {
	byUserID map[string]*models.StudentProfile
	byID     map[string]*models.StudentProfile
	created  []*models.StudentProfile
	updated  []*models.StudentProfile
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{
		byUserID: make(map[string]*models.StudentProfile),
		byID:     make(map[string]*models.StudentProfile),
	}
}

func (m *mockProfileRepo) FindByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	if profile, ok := m.byUserID[userID]; ok {
		return profile, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	if profile, ok := m.byID[id]; ok {
		return profile, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProfileRepo) List(ctx context.Context) ([]models.StudentProfile, error) {
	var profiles []models.StudentProfile
	for _, profile := range m.byID {
		profiles = append(profiles, *profile)
	}
	return profiles, nil
}

func (m *mockProfileRepo) Create(ctx context.Context, profile *models.StudentProfile) error {
	m.byUserID[profile.UserID] = profile
	m.byID[profile.ID] = profile
	m.created = append(m.created, profile)
	return nil
}

func (m *mockProfileRepo) Update(ctx context.Context, profile *models.StudentProfile) error {
	m.byUserID[profile.UserID] = profile
	m.byID[profile.ID] = profile
	m.updated = append(m.updated, profile)
	return nil
}

func TestUserServiceCreateStudentProvisionsProfile(t *testing.T) {
	users := newMockUserRepo()
	profiles := newMockProfileRepo()
	svc := NewUserService(users, profiles, nil, validator.New(), zap.NewNop())

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "hunter22",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)

	require.Len(t, profiles.created, 1)
	profile := profiles.created[0]
	assert.Equal(t, user.ID, profile.UserID)
	assert.Equal(t, models.DefaultCourseAdmin, profile.Course)
	assert.Equal(t, models.DefaultBatchAdmin, profile.Batch)

	// Password is stored hashed, never verbatim.
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))
}

func TestUserServiceCreateTeacherSkipsProfile(t *testing.T) {
	users := newMockUserRepo()
	profiles := newMockProfileRepo()
	svc := NewUserService(users, profiles, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Name:     "Mr Grant",
		Email:    "grant@example.com",
		Password: "hunter22",
		Role:     models.RoleTeacher,
	})
	require.NoError(t, err)
	assert.Empty(t, profiles.created)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	users := newMockUserRepo()
	users.byEmail["taken@example.com"] = &models.User{ID: "u1", Email: "taken@example.com"}
	svc := NewUserService(users, newMockProfileRepo(), nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Name:     "Second",
		Email:    "taken@example.com",
		Password: "hunter22",
		Role:     models.RoleStudent,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateRejectsBadRole(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), newMockProfileRepo(), nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Name:     "Nobody",
		Email:    "nobody@example.com",
		Password: "hunter22",
		Role:     models.UserRole("principal"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeleteRevokesSessions(t *testing.T) {
	users := newMockUserRepo()
	users.byID["u1"] = &models.User{ID: "u1", Email: "x@example.com", Role: models.RoleStudent}
	svc := NewUserService(users, newMockProfileRepo(), nil, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "u1"))
	assert.Equal(t, []string{"u1"}, users.revoked)
	assert.Equal(t, []string{"u1"}, users.deleted)
}

func TestUserServiceWritesDropCachedDashboards(t *testing.T) {
	users := newMockUserRepo()
	dashboards := &mockInvalidator{}
	svc := NewUserService(users, newMockProfileRepo(), dashboards, validator.New(), zap.NewNop())

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Name:     "Asha Rao",
		Email:    "asha@example.com",
		Password: "hunter22",
		Role:     models.RoleStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, dashboards.calls)

	users.byID[user.ID] = user
	name := "Asha R"
	_, err = svc.Update(context.Background(), user.ID, UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, 2, dashboards.calls)

	require.NoError(t, svc.Delete(context.Background(), user.ID))
	assert.Equal(t, 3, dashboards.calls)
}

func TestUserServiceDeleteMissing(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), newMockProfileRepo(), nil, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
