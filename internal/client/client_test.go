package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enrollments-service/internal/models"
	"github.com/noah-isme/enrollments-service/internal/testutil"
	"github.com/noah-isme/enrollments-service/pkg/config"
	"github.com/noah-isme/enrollments-service/pkg/middleware/requestid"
)

type recordedFetch struct {
	entity  string
	outcome string
}

type recorderStub struct {
	mu      sync.Mutex
	fetches []recordedFetch
}

func (r *recorderStub) ObserveRemoteFetch(entity, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches = append(r.fetches, recordedFetch{entity: entity, outcome: outcome})
}

func TestStudentClientFetchByID(t *testing.T) {
	fake := testutil.NewFakeService(StudentsPath)
	defer fake.Close()
	fake.SetRecord("c3540a89-cb47-4c96-888e-ff96708db4d8", models.StudentRecord{
		StudentID: "c3540a89-cb47-4c96-888e-ff96708db4d8",
		FirstName: "Donna",
		LastName:  "Hornsby",
		Program:   "Computer Science",
	})

	rec := &recorderStub{}
	c := NewStudentClientWithBaseURL(fake.URL(), time.Second, WithRecorder(rec))

	ctx := requestid.WithContext(context.Background(), "req-42")
	student, err := c.FetchByID(ctx, "c3540a89-cb47-4c96-888e-ff96708db4d8")
	require.NoError(t, err)
	assert.Equal(t, "Donna", student.FirstName)
	assert.Equal(t, "Hornsby", student.LastName)
	assert.Equal(t, "req-42", fake.LastHeader(requestid.HeaderKey))
	assert.Equal(t, []recordedFetch{{entity: "student", outcome: "ok"}}, rec.fetches)
}

func TestStudentClientFetchByRowUsesRowPath(t *testing.T) {
	fake := testutil.NewFakeService(StudentsPath)
	defer fake.Close()
	fake.SetRecord("row/7", models.StudentRecord{StudentID: "S7", FirstName: "Row", LastName: "Seven"})

	c := NewStudentClientWithBaseURL(fake.URL(), time.Second)
	student, err := c.FetchByRow(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "S7", student.StudentID)
	assert.Equal(t, 1, fake.Requests("row/7"))
}

func TestStudentClientIgnoresExtraFields(t *testing.T) {
	fake := testutil.NewFakeService(StudentsPath)
	defer fake.Close()
	fake.SetResponse("S9", http.StatusOK,
		`{"studentId":"S9","firstName":"Ada","lastName":"Byron","program":"Mathematics","stuff":"ignored","advisor":{"name":"x"}}`)

	c := NewStudentClientWithBaseURL(fake.URL(), time.Second)
	student, err := c.FetchByID(context.Background(), "S9")
	require.NoError(t, err)
	assert.Equal(t, models.StudentRecord{
		StudentID: "S9",
		FirstName: "Ada",
		LastName:  "Byron",
		Program:   "Mathematics",
	}, student)
}

func TestRemoteStatusMapping(t *testing.T) {
	fake := testutil.NewFakeService(CoursesPath)
	defer fake.Close()
	fake.SetResponse("missing", http.StatusNotFound, `{"message":"course not found"}`)
	fake.SetResponse("bad", http.StatusUnprocessableEntity, `{"message":"invalid course id"}`)
	fake.SetResponse("boom", http.StatusInternalServerError, `{"message":"database offline"}`)
	fake.SetResponse("teapot", http.StatusTeapot, "short and stout")

	rec := &recorderStub{}
	c := NewCourseClientWithBaseURL(fake.URL(), time.Second, WithRecorder(rec))

	cases := []struct {
		id       string
		sentinel error
		kind     Kind
		status   int
		message  string
	}{
		{id: "missing", sentinel: ErrNotFound, kind: KindNotFound, status: 404, message: "course not found"},
		{id: "bad", sentinel: ErrInvalidID, kind: KindInvalidID, status: 422, message: "invalid course id"},
		{id: "boom", sentinel: ErrUnexpected, kind: KindUnexpected, status: 500, message: "database offline"},
		{id: "teapot", sentinel: ErrUnexpected, kind: KindUnexpected, status: 418, message: "short and stout"},
	}
	for _, tc := range cases {
		t.Run(tc.id, func(t *testing.T) {
			_, err := c.FetchByID(context.Background(), tc.id)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.sentinel))

			re, ok := AsRemoteError(err)
			require.True(t, ok)
			assert.Equal(t, tc.kind, re.Kind)
			assert.Equal(t, "course", re.Entity)
			assert.Equal(t, tc.id, re.ID)
			assert.Equal(t, tc.status, re.Status)
			assert.Equal(t, tc.message, re.Message)
		})
	}
	require.Len(t, rec.fetches, len(cases))
	assert.Equal(t, "not_found", rec.fetches[0].outcome)
	assert.Equal(t, "invalid_id", rec.fetches[1].outcome)
}

func TestRemoteUndecodableBodyIsUnexpected(t *testing.T) {
	fake := testutil.NewFakeService(CoursesPath)
	defer fake.Close()
	fake.SetResponse("garbled", http.StatusOK, "{not json")

	c := NewCourseClientWithBaseURL(fake.URL(), time.Second)
	_, err := c.FetchByID(context.Background(), "garbled")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpected))
}

func TestRemoteTransportFailureIsUnexpected(t *testing.T) {
	fake := testutil.NewFakeService(CoursesPath)
	url := fake.URL()
	fake.Close()

	c := NewCourseClientWithBaseURL(url, time.Second)
	_, err := c.FetchByID(context.Background(), "any")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpected))

	re, ok := AsRemoteError(err)
	require.True(t, ok)
	assert.Zero(t, re.Status)
	assert.NotNil(t, re.Unwrap())
}

func TestRemoteHonoursCancellation(t *testing.T) {
	fake := testutil.NewFakeService(StudentsPath)
	defer fake.Close()
	fake.SetRecord("slow", models.StudentRecord{StudentID: "slow"})
	fake.SetDelay(2 * time.Second)

	c := NewStudentClientWithBaseURL(fake.URL(), 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.FetchByID(ctx, "slow")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, errors.Is(err, ErrUnexpected))
}

func TestMapStatusBelow400IsNil(t *testing.T) {
	assert.NoError(t, MapStatus("student", "x", http.StatusOK, nil))
	assert.NoError(t, MapStatus("student", "x", http.StatusNoContent, nil))
}

func TestBaseURL(t *testing.T) {
	cfg := config.RemoteServiceConfig{Host: "courses.local", Port: 7001}
	assert.Equal(t, "http://courses.local:7001/api/v1/courses", BaseURL(cfg, CoursesPath))
}
