package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollments-service/internal/models"
	"github.com/noah-isme/enrollments-service/internal/service"
	appErrors "github.com/noah-isme/enrollments-service/pkg/errors"
	"github.com/noah-isme/enrollments-service/pkg/response"
)

type studentService interface {
	Get(ctx context.Context, studentID string) (*models.StudentRecord, error)
	Bulk(ctx context.Context, req service.BulkFetchRequest) (*service.BulkFetchResult, error)
}

// StudentHandler proxies the student directory.
type StudentHandler struct {
	students studentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// Get godoc
// @Summary Get student from the student directory
// @Tags Students
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/{studentId} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student)
}

// Bulk godoc
// @Summary Bulk fetch students by row index
// @Tags Students
// @Produce json
// @Param strategy query string false "sequential, unbounded or bounded" default(bounded)
// @Param count query int false "Rows to fetch (1-1000)"
// @Param poolSize query int false "In-flight limit for the bounded strategy"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /students/bulk [get]
func (h *StudentHandler) Bulk(c *gin.Context) {
	count, err := intQuery(c, "count")
	if err != nil {
		response.Error(c, err)
		return
	}
	poolSize, err := intQuery(c, "poolSize")
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.students.Bulk(c.Request.Context(), service.BulkFetchRequest{
		Strategy: c.Query("strategy"),
		Count:    count,
		PoolSize: poolSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Records, map[string]interface{}{
		"strategy":      result.Strategy,
		"count":         result.Count,
		"limit":         result.Limit,
		"duration_ms":   result.Duration.Milliseconds(),
		"max_in_flight": result.MaxInFlight,
	})
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, key+" must be an integer")
	}
	return n, nil
}
