package client

import (
	"context"
	"strconv"
	"time"

	"github.com/noah-isme/enrollments-service/internal/models"
	"github.com/noah-isme/enrollments-service/pkg/config"
)

// StudentsPath is the fixed path prefix of the student directory.
const StudentsPath = "/api/v1/students"

// StudentClient fetches student snapshots from the student directory.
type StudentClient struct {
	remote *remote
}

// NewStudentClient builds a client for the configured student directory.
func NewStudentClient(cfg config.RemoteServiceConfig, opts ...Option) *StudentClient {
	return NewStudentClientWithBaseURL(BaseURL(cfg, StudentsPath), cfg.Timeout, opts...)
}

// NewStudentClientWithBaseURL builds a client against an explicit base URL.
func NewStudentClientWithBaseURL(baseURL string, timeout time.Duration, opts ...Option) *StudentClient {
	return &StudentClient{remote: newRemote("student", baseURL, timeout, opts...)}
}

// FetchByID returns the student with the public id studentID.
func (c *StudentClient) FetchByID(ctx context.Context, studentID string) (models.StudentRecord, error) {
	var rec models.StudentRecord
	if err := c.remote.get(ctx, studentID, &rec, studentID); err != nil {
		return models.StudentRecord{}, err
	}
	return rec, nil
}

// FetchByRow returns the student stored at the given row index. Row indexes
// are a dense identifier space used only for bulk retrieval.
func (c *StudentClient) FetchByRow(ctx context.Context, row int) (models.StudentRecord, error) {
	id := strconv.Itoa(row)
	var rec models.StudentRecord
	if err := c.remote.get(ctx, "row "+id, &rec, "row", id); err != nil {
		return models.StudentRecord{}, err
	}
	return rec, nil
}
