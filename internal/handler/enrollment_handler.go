package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/enrollments-service/internal/models"
	"github.com/noah-isme/enrollments-service/internal/service"
	appErrors "github.com/noah-isme/enrollments-service/pkg/errors"
	"github.com/noah-isme/enrollments-service/pkg/response"
)

type enrollmentService interface {
	Create(ctx context.Context, req models.EnrollmentRequest) (*models.EnrollmentResponse, error)
	Get(ctx context.Context, enrollmentID string) (*models.EnrollmentResponse, error)
	List(ctx context.Context, fn func(models.EnrollmentResponse) error) error
	ListAll(ctx context.Context) ([]models.EnrollmentResponse, error)
	Update(ctx context.Context, enrollmentID string, req models.EnrollmentRequest) (*models.EnrollmentResponse, error)
	Delete(ctx context.Context, enrollmentID string) (*models.EnrollmentResponse, error)
}

type enrollmentExporter interface {
	Export(ctx context.Context, format string) (*service.ExportFile, error)
}

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
	exporter    enrollmentExporter
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService, exporter enrollmentExporter) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, exporter: exporter}
}

// List godoc
// @Summary List enrollments
// @Description Streams server-sent events when the client accepts text/event-stream.
// @Tags Enrollments
// @Produce json
// @Produce text/event-stream
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	if wantsEventStream(c) {
		h.stream(c)
		return
	}
	enrollments, err := h.enrollments.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, map[string]interface{}{"count": len(enrollments)})
}

func (h *EnrollmentHandler) stream(c *gin.Context) {
	ctx := c.Request.Context()
	started := false
	begin := func() {
		if started {
			return
		}
		started = true
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Status(http.StatusOK)
	}

	err := h.enrollments.List(ctx, func(e models.EnrollmentResponse) error {
		begin()
		c.SSEvent("enrollment", e)
		c.Writer.Flush()
		return ctx.Err()
	})
	if err != nil && !started {
		response.Error(c, err)
		return
	}
	begin()
	if err != nil && ctx.Err() == nil {
		c.SSEvent("error", appErrors.FromError(err))
	}
	c.Writer.Flush()
}

func wantsEventStream(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/event-stream")
}

// Get godoc
// @Summary Get enrollment
// @Tags Enrollments
// @Produce json
// @Param enrollmentId path string true "Enrollment ID (36 characters)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /enrollments/{enrollmentId} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	id := c.Param("enrollmentId")
	if err := service.ValidateID("enrollmentId", id); err != nil {
		response.Error(c, err)
		return
	}
	enrollment, err := h.enrollments.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Create godoc
// @Summary Create enrollment
// @Description Fetches the student, then the course, and stores a denormalised enrollment.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body models.EnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req models.EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Update godoc
// @Summary Update enrollment
// @Description Re-validates the course; student fields are stored as given.
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param enrollmentId path string true "Enrollment ID (36 characters)"
// @Param payload body models.EnrollmentRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{enrollmentId} [put]
func (h *EnrollmentHandler) Update(c *gin.Context) {
	id := c.Param("enrollmentId")
	if err := service.ValidateID("enrollmentId", id); err != nil {
		response.Error(c, err)
		return
	}
	var req models.EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Delete godoc
// @Summary Delete enrollment
// @Description Returns the enrollment as it was before deletion.
// @Tags Enrollments
// @Produce json
// @Param enrollmentId path string true "Enrollment ID (36 characters)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/{enrollmentId} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	id := c.Param("enrollmentId")
	if err := service.ValidateID("enrollmentId", id); err != nil {
		response.Error(c, err)
		return
	}
	enrollment, err := h.enrollments.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment)
}

// Export godoc
// @Summary Export enrollments
// @Tags Enrollments
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 422 {object} response.Envelope
// @Router /enrollments/export [get]
func (h *EnrollmentHandler) Export(c *gin.Context) {
	file, err := h.exporter.Export(c.Request.Context(), c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Payload)
}
