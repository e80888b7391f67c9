package legacy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuskit/portal-api/internal/models"
)

type userWriter interface {
	Create(ctx context.Context, user *models.User) error
}

type profileWriter interface {
	Create(ctx context.Context, profile *models.StudentProfile) error
}

type attendanceWriter interface {
	Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error)
}

type resultWriter interface {
	Create(ctx context.Context, result *models.Result) error
}

type materialWriter interface {
	Create(ctx context.Context, material *models.Material) error
}

type resourceWriter interface {
	Create(ctx context.Context, resource *models.StudentResource) error
}

// Summary counts what the import wrote and skipped.
type Summary struct {
	Users      int
	Profiles   int
	Attendance int
	Results    int
	Materials  int
	Resources  int
	Skipped    int
}

// Importer writes a legacy dataset into Postgres. Student-owned rows in the
// old file referenced either the profile id or the owning user id depending
// on which code path wrote them; the importer resolves both shapes to the
// profile id.
type Importer struct {
	users      userWriter
	profiles   profileWriter
	attendance attendanceWriter
	results    resultWriter
	materials  materialWriter
	resources  resourceWriter
	logger     *zap.Logger
}

// NewImporter constructs an Importer.
func NewImporter(
	users userWriter,
	profiles profileWriter,
	attendance attendanceWriter,
	results resultWriter,
	materials materialWriter,
	resources resourceWriter,
	logger *zap.Logger,
) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		users:      users,
		profiles:   profiles,
		attendance: attendance,
		results:    results,
		materials:  materials,
		resources:  resources,
		logger:     logger,
	}
}

// Run imports the dataset. Attendance is deduplicated first so the unique
// (student, date) constraint never trips on legacy double marks.
func (im *Importer) Run(ctx context.Context, data *Dataset) (*Summary, error) {
	summary := &Summary{}

	userIDs := make(map[string]string, len(data.Users))
	for _, legacyUser := range data.Users {
		role := models.UserRole(legacyUser.Role)
		if !role.Valid() {
			im.logger.Warn("skipping user with unknown role", zap.String("legacy_id", legacyUser.ID), zap.String("role", legacyUser.Role))
			summary.Skipped++
			continue
		}

		user := &models.User{
			ID:               uuid.NewString(),
			Name:             legacyUser.Name,
			Email:            legacyUser.Email,
			PasswordHash:     legacyUser.PasswordHash,
			Role:             role,
			TwoFactorEnabled: legacyUser.TwoFactorEnabled,
			Appearance:       "system",
			CreatedAt:        parseTime(legacyUser.CreatedAt),
			UpdatedAt:        parseTime(legacyUser.CreatedAt),
		}
		if legacyUser.NotificationPreferences != nil {
			user.NotificationPreferences = models.NotificationPreferences{
				EmailAlerts:    legacyUser.NotificationPreferences.EmailAlerts,
				SystemUpdates:  legacyUser.NotificationPreferences.SystemUpdates,
				NewEnrollments: legacyUser.NotificationPreferences.NewEnrollments,
			}
		}

		if err := im.users.Create(ctx, user); err != nil {
			return summary, fmt.Errorf("import user %s: %w", legacyUser.Email, err)
		}
		userIDs[legacyUser.ID] = user.ID
		summary.Users++
	}

	// profileIDs maps both the legacy profile id and the legacy user id to
	// the new profile id, covering both referencing styles.
	profileIDs := make(map[string]string, len(data.StudentProfiles)*2)
	for _, legacyProfile := range data.StudentProfiles {
		ownerID, ok := userIDs[legacyProfile.UserID]
		if !ok {
			im.logger.Warn("skipping profile without owner", zap.String("legacy_id", legacyProfile.ID))
			summary.Skipped++
			continue
		}

		profile := &models.StudentProfile{
			ID:      uuid.NewString(),
			UserID:  ownerID,
			Course:  legacyProfile.Course,
			Batch:   legacyProfile.Batch,
			DOB:     legacyProfile.DOB,
			Phone:   legacyProfile.Phone,
			Address: legacyProfile.Address,
		}
		if err := im.profiles.Create(ctx, profile); err != nil {
			return summary, fmt.Errorf("import profile %s: %w", legacyProfile.ID, err)
		}
		profileIDs[legacyProfile.ID] = profile.ID
		profileIDs[legacyProfile.UserID] = profile.ID
		summary.Profiles++
	}

	for _, legacyRecord := range DedupeAttendance(data.Attendance) {
		profileID, ok := profileIDs[legacyRecord.StudentID]
		if !ok {
			summary.Skipped++
			continue
		}
		day, err := time.Parse("2006-01-02", legacyRecord.Date)
		if err != nil {
			im.logger.Warn("skipping attendance with bad date", zap.String("legacy_id", legacyRecord.ID), zap.String("date", legacyRecord.Date))
			summary.Skipped++
			continue
		}
		status := models.AttendanceStatus(legacyRecord.Status)
		if !status.Valid() {
			summary.Skipped++
			continue
		}

		record := &models.Attendance{
			ID:        uuid.NewString(),
			StudentID: profileID,
			Date:      day,
			Status:    status,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if _, err := im.attendance.Upsert(ctx, record); err != nil {
			return summary, fmt.Errorf("import attendance %s: %w", legacyRecord.ID, err)
		}
		summary.Attendance++
	}

	for _, legacyResult := range data.Results {
		profileID, ok := profileIDs[legacyResult.StudentID]
		if !ok {
			summary.Skipped++
			continue
		}
		status := models.ResultStatus(legacyResult.ResultStatus)
		if !status.Valid() {
			summary.Skipped++
			continue
		}

		result := &models.Result{
			ID:           uuid.NewString(),
			StudentID:    profileID,
			Subject:      legacyResult.Subject,
			Marks:        legacyResult.Marks,
			MaxMarks:     legacyResult.MaxMarks,
			ResultStatus: status,
			Semester:     legacyResult.Semester,
			CreatedAt:    parseTime(legacyResult.CreatedAt),
		}
		if err := im.results.Create(ctx, result); err != nil {
			return summary, fmt.Errorf("import result %s: %w", legacyResult.ID, err)
		}
		summary.Results++
	}

	for _, legacyMaterial := range data.Materials {
		uploadedBy, ok := userIDs[legacyMaterial.UploadedBy]
		if !ok {
			summary.Skipped++
			continue
		}

		material := &models.Material{
			ID:          uuid.NewString(),
			Title:       legacyMaterial.Title,
			Description: legacyMaterial.Description,
			FileURL:     legacyMaterial.FileURL,
			UploadedBy:  uploadedBy,
			CreatedAt:   parseTime(legacyMaterial.CreatedAt),
		}
		if err := im.materials.Create(ctx, material); err != nil {
			return summary, fmt.Errorf("import material %s: %w", legacyMaterial.ID, err)
		}
		summary.Materials++
	}

	for _, legacyResource := range data.StudentResources {
		profileID, ok := profileIDs[legacyResource.StudentID]
		if !ok {
			summary.Skipped++
			continue
		}
		status := models.ResourceStatus(legacyResource.Status)
		if !status.Valid() {
			status = models.ResourceWantToLearn
		}

		projects := make(models.ResourceProjects, 0, len(legacyResource.Projects))
		for _, project := range legacyResource.Projects {
			projects = append(projects, models.ResourceProject{
				Name:        project.Name,
				URL:         project.URL,
				Description: project.Description,
			})
		}

		category := legacyResource.Category
		if category == "" {
			category = models.DefaultResourceCategory
		}
		icon := legacyResource.Icon
		if icon == "" {
			icon = models.DefaultResourceIcon
		}

		resource := &models.StudentResource{
			ID:             uuid.NewString(),
			StudentID:      profileID,
			Name:           legacyResource.Name,
			URL:            legacyResource.URL,
			Status:         status,
			CertificateURL: legacyResource.CertificateURL,
			Category:       category,
			Icon:           icon,
			Projects:       projects,
			Notes:          legacyResource.Notes,
			CreatedAt:      parseTime(legacyResource.CreatedAt),
		}
		if err := im.resources.Create(ctx, resource); err != nil {
			return summary, fmt.Errorf("import resource %s: %w", legacyResource.ID, err)
		}
		summary.Resources++
	}

	return summary, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Now().UTC()
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Now().UTC()
	}
	return ts.UTC()
}
