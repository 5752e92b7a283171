package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollments-service/internal/client"
	"github.com/noah-isme/enrollments-service/internal/models"
	"github.com/noah-isme/enrollments-service/internal/testutil"
	appErrors "github.com/noah-isme/enrollments-service/pkg/errors"
)

func TestEnrollmentServiceAgainstRemoteServices(t *testing.T) {
	students := testutil.NewFakeService(client.StudentsPath)
	defer students.Close()
	courses := testutil.NewFakeService(client.CoursesPath)
	defer courses.Close()

	students.SetRecord("S1", models.StudentRecord{StudentID: "S1", FirstName: "Donna", LastName: "Hornsby"})
	courses.SetRecord("C1", models.CourseRecord{CourseID: "C1", CourseNumber: "N45-LA", CourseName: "Web Services"})
	courses.SetResponse("C-422", http.StatusUnprocessableEntity, `{"message":"Invalid courseId provided: C-422"}`)
	courses.SetResponse("C-500", http.StatusInternalServerError, `{"message":"catalog database down"}`)

	metrics := NewMetricsService()
	store := newMemoryStore()
	svc := NewEnrollmentService(
		client.NewStudentClientWithBaseURL(students.URL(), time.Second, client.WithRecorder(metrics)),
		client.NewCourseClientWithBaseURL(courses.URL(), time.Second, client.WithRecorder(metrics)),
		store, nil, nil, WithStoreObserver(metrics),
	)

	t.Run("creates from remote snapshots", func(t *testing.T) {
		resp, err := svc.Create(context.Background(), models.EnrollmentRequest{
			EnrollmentYear: 2021, Semester: models.SemesterFall, StudentID: "S1", CourseID: "C1",
		})
		require.NoError(t, err)
		assert.Equal(t, models.EnrollmentResponse{
			EnrollmentID:     resp.EnrollmentID,
			EnrollmentYear:   2021,
			Semester:         models.SemesterFall,
			StudentID:        "S1",
			StudentFirstName: "Donna",
			StudentLastName:  "Hornsby",
			CourseID:         "C1",
			CourseNumber:     "N45-LA",
			CourseName:       "Web Services",
		}, *resp)
		assert.Len(t, resp.EnrollmentID, 36)
	})

	t.Run("unknown student never reaches the course catalog", func(t *testing.T) {
		before := courses.TotalRequests()
		saves := store.saves
		_, err := svc.Create(context.Background(), models.EnrollmentRequest{
			EnrollmentYear: 2021, Semester: models.SemesterFall, StudentID: "S-missing", CourseID: "C1",
		})
		assert.True(t, errors.Is(err, appErrors.ErrStudentNotFound))
		assert.Equal(t, before, courses.TotalRequests())
		assert.Equal(t, saves, store.saves)
	})

	t.Run("invalid course id", func(t *testing.T) {
		before := students.Requests("S1")
		_, err := svc.Create(context.Background(), models.EnrollmentRequest{
			EnrollmentYear: 2021, Semester: models.SemesterFall, StudentID: "S1", CourseID: "C-422",
		})
		assert.True(t, errors.Is(err, appErrors.ErrInvalidCourseID))
		assert.Equal(t, before+1, students.Requests("S1"))
	})

	t.Run("catalog failure is generic", func(t *testing.T) {
		_, err := svc.Create(context.Background(), models.EnrollmentRequest{
			EnrollmentYear: 2021, Semester: models.SemesterFall, StudentID: "S1", CourseID: "C-500",
		})
		appErr := appErrors.FromError(err)
		assert.Equal(t, http.StatusInternalServerError, appErr.Status)
		assert.NotContains(t, appErr.Message, "catalog database down")
	})

	snap := metrics.Snapshot()
	assert.GreaterOrEqual(t, snap.RemoteFetchesTotal, uint64(6))
	assert.GreaterOrEqual(t, snap.RemoteFailuresTotal, uint64(3))
	assert.EqualValues(t, 1, snap.StoreOperationsTotal)
}
