package repository

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadInitSchema(t *testing.T) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_init.up.sql"))
	require.NoError(t, err)
	return string(raw)
}

func tableDDL(t *testing.T, schema, table string) string {
	t.Helper()
	re := regexp.MustCompile(`(?s)CREATE TABLE ` + table + ` \((.*?)\);`)
	match := re.FindStringSubmatch(schema)
	require.NotNil(t, match, "table %s not found in schema", table)
	return match[1]
}

// Deleting a user must take the student profile and everything hanging off
// it with it; the services rely on the database for this cleanup.
func TestSchemaCascadesOwnedRows(t *testing.T) {
	schema := loadInitSchema(t)

	cascades := map[string]string{
		"student_profiles":  `user_id UUID NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE`,
		"attendance":        `student_id UUID NOT NULL REFERENCES student_profiles(id) ON DELETE CASCADE`,
		"results":           `student_id UUID NOT NULL REFERENCES student_profiles(id) ON DELETE CASCADE`,
		"student_resources": `student_id UUID NOT NULL REFERENCES student_profiles(id) ON DELETE CASCADE`,
		"refresh_tokens":    `user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE`,
		"materials":         `uploaded_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE`,
		"reports":           `created_by UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE`,
	}
	for table, clause := range cascades {
		assert.Contains(t, tableDDL(t, schema, table), clause, "table %s", table)
	}
}

func TestSchemaAttendanceUniquePerStudentAndDate(t *testing.T) {
	schema := loadInitSchema(t)
	assert.Contains(t, tableDDL(t, schema, "attendance"), "UNIQUE (student_id, date)")
}

func TestSchemaRefreshTokenUnique(t *testing.T) {
	schema := loadInitSchema(t)
	assert.Contains(t, tableDDL(t, schema, "refresh_tokens"), "token TEXT NOT NULL UNIQUE")
}
