package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Student", "Date", "Status"},
		Rows: [][]string{
			{"Alice", "2025-01-10", "PRESENT"},
			{"Bob", "2025-01-10", "ABSENT"},
		},
	}

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student,Date,Status", lines[0])
	assert.Equal(t, "Bob,2025-01-10,ABSENT", lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	data := Dataset{
		Headers: []string{"Subject", "Marks"},
		Rows:    [][]string{{"Math", "87"}},
	}

	out, err := NewPDFExporter().Render(data, "results")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF"))
}
