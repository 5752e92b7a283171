package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollments-service/internal/models"
	appErrors "github.com/noah-isme/enrollments-service/pkg/errors"
	"github.com/noah-isme/enrollments-service/pkg/export"
	"github.com/noah-isme/enrollments-service/pkg/logger"
)

// Supported export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var exportColumns = []string{
	"enrollmentId", "enrollmentYear", "semester",
	"studentId", "studentFirstName", "studentLastName",
	"courseId", "courseNumber", "courseName",
}

type enrollmentLister interface {
	List(ctx context.Context, fn func(models.EnrollmentResponse) error) error
}

type tableRenderer interface {
	Render(t export.Table) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders every stored enrollment as CSV or PDF.
type ExportService struct {
	enrollments enrollmentLister
	csv         tableRenderer
	pdf         tableRenderer
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService constructs an ExportService. nil renderers fall back to
// the pkg/export defaults.
func NewExportService(enrollments enrollmentLister, csv, pdf tableRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{enrollments: enrollments, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Export renders all enrollments in the requested format.
func (s *ExportService) Export(ctx context.Context, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	var (
		renderer    tableRenderer
		contentType string
	)
	switch format {
	case ExportFormatCSV:
		renderer, contentType = s.csv, "text/csv"
	case ExportFormatPDF:
		renderer, contentType = s.pdf, "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("unsupported export format: %s", format))
	}

	table := export.Table{Title: "Enrollments", Columns: exportColumns}
	err := s.enrollments.List(ctx, func(e models.EnrollmentResponse) error {
		table.Rows = append(table.Rows, []string{
			e.EnrollmentID, strconv.Itoa(e.EnrollmentYear), string(e.Semester),
			e.StudentID, e.StudentFirstName, e.StudentLastName,
			e.CourseID, e.CourseNumber, e.CourseName,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(table)
	if err != nil {
		logger.WithRequest(ctx, s.logger).Error("render export failed", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Hide(appErrors.ErrInternal, err)
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("enrollments-%s.%s", s.now().UTC().Format("20060102-150405"), format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}
