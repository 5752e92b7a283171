package client

import (
	"context"
	"time"

	"github.com/noah-isme/enrollments-service/internal/models"
	"github.com/noah-isme/enrollments-service/pkg/config"
)

// CoursesPath is the fixed path prefix of the course catalog.
const CoursesPath = "/api/v1/courses"

// CourseClient fetches course snapshots from the course catalog.
type CourseClient struct {
	remote *remote
}

// NewCourseClient builds a client for the configured course catalog.
func NewCourseClient(cfg config.RemoteServiceConfig, opts ...Option) *CourseClient {
	return NewCourseClientWithBaseURL(BaseURL(cfg, CoursesPath), cfg.Timeout, opts...)
}

// NewCourseClientWithBaseURL builds a client against an explicit base URL.
func NewCourseClientWithBaseURL(baseURL string, timeout time.Duration, opts ...Option) *CourseClient {
	return &CourseClient{remote: newRemote("course", baseURL, timeout, opts...)}
}

// FetchByID returns the course with the public id courseID.
func (c *CourseClient) FetchByID(ctx context.Context, courseID string) (models.CourseRecord, error) {
	var rec models.CourseRecord
	if err := c.remote.get(ctx, courseID, &rec, courseID); err != nil {
		return models.CourseRecord{}, err
	}
	return rec, nil
}
