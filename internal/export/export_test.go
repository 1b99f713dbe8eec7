package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/haxxxs/edu-back/internal/models"
)

func TestColName(t *testing.T) {
	assert.Equal(t, "A", colName(1))
	assert.Equal(t, "Z", colName(26))
	assert.Equal(t, "AA", colName(27))
	assert.Equal(t, "AZ", colName(52))
}

func TestWriteUserCourses(t *testing.T) {
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	done := started.Add(48 * time.Hour)
	cert := uint(5)
	items := []models.UserCourse{
		{
			ID: 1, Progress: 100, Status: models.StatusCompleted,
			StartedAt: started, LastAccessedAt: done, CompletedAt: &done, CertificateID: &cert,
			User:   models.User{Name: "Анна", Email: "anna@example.com"},
			Course: models.Course{Title: "Go для начинающих"},
		},
		{
			ID: 2, Progress: 33.3333, Status: models.StatusInProgress,
			StartedAt: started, LastAccessedAt: started,
			User:   models.User{Name: "Bob", Email: "bob@example.com"},
			Course: models.Course{Title: "SQL"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteUserCourses(&buf, items))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(userCoursesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, userCoursesHeader, rows[0])
	assert.Equal(t, []string{"1", "Анна", "anna@example.com", "Go для начинающих", "completed", "100.0",
		"01.03.2025 10:00", "03.03.2025 10:00", "03.03.2025 10:00", "да"}, rows[1])
	assert.Equal(t, "33.3", rows[2][5])
	assert.Equal(t, "нет", rows[2][9])
}

func TestUserCoursesFilename(t *testing.T) {
	assert.Equal(t, "user_courses_2025-05-01.xlsx", UserCoursesFilename(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))
}
