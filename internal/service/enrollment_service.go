package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/enrollments-service/internal/client"
	"github.com/noah-isme/enrollments-service/internal/models"
	"github.com/noah-isme/enrollments-service/internal/repository"
	appErrors "github.com/noah-isme/enrollments-service/pkg/errors"
	"github.com/noah-isme/enrollments-service/pkg/logger"
)

// IDLength is the required length of enrollment path ids.
const IDLength = 36

// Pipeline stages named in failure logs.
const (
	stageValidate     = "validate"
	stageLookup       = "lookup"
	stageFetchStudent = "fetch_student"
	stageFetchCourse  = "fetch_course"
	stageBuild        = "build"
	stagePersist      = "persist"
	stageDelete       = "delete"
)

type studentFetcher interface {
	FetchByID(ctx context.Context, studentID string) (models.StudentRecord, error)
}

type courseFetcher interface {
	FetchByID(ctx context.Context, courseID string) (models.CourseRecord, error)
}

type enrollmentStore interface {
	Save(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error)
	FindByEnrollmentID(ctx context.Context, enrollmentID string) (*models.Enrollment, error)
	Delete(ctx context.Context, e models.Enrollment) error
	FindAll(ctx context.Context, fn func(models.Enrollment) error) error
}

type enrollmentCache interface {
	GetEnrollment(ctx context.Context, enrollmentID string) (*models.Enrollment, bool)
	EnrollmentVersion(ctx context.Context, enrollmentID string) (int64, bool)
	PutEnrollment(ctx context.Context, e models.Enrollment, version int64)
	InvalidateEnrollment(ctx context.Context, enrollmentID string)
}

type storeObserver interface {
	ObserveStoreOperation(operation string, err error, duration time.Duration)
}

// EnrollmentService creates enrollments by fetching the student and then the
// course from their remote services, building the denormalised record and
// persisting it once. Every failure is terminal; nothing is retried.
type EnrollmentService struct {
	students  studentFetcher
	courses   courseFetcher
	store     enrollmentStore
	cache     enrollmentCache
	metrics   storeObserver
	validator *validator.Validate
	logger    *zap.Logger
	newID     func() string
}

// EnrollmentServiceOption customises EnrollmentService.
type EnrollmentServiceOption func(*EnrollmentService)

// WithEnrollmentCache puts a read-through cache in front of Get.
func WithEnrollmentCache(cache enrollmentCache) EnrollmentServiceOption {
	return func(s *EnrollmentService) { s.cache = cache }
}

// WithStoreObserver records the timing of every store call.
func WithStoreObserver(obs storeObserver) EnrollmentServiceOption {
	return func(s *EnrollmentService) { s.metrics = obs }
}

// WithIDGenerator replaces uuid.NewString for enrollment ids.
func WithIDGenerator(fn func() string) EnrollmentServiceOption {
	return func(s *EnrollmentService) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(students studentFetcher, courses courseFetcher, store enrollmentStore, validate *validator.Validate, logger *zap.Logger, opts ...EnrollmentServiceOption) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &EnrollmentService{
		students:  students,
		courses:   courses,
		store:     store,
		validator: validate,
		logger:    logger,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateID rejects ids that are not exactly IDLength characters.
func ValidateID(field, id string) error {
	if len(id) != IDLength {
		return appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("%s must be %d characters: %s", field, IDLength, id))
	}
	return nil
}

// Create runs the create pipeline: fetch student, then fetch course, build,
// persist. The course fetch is only issued once the student fetch succeeded.
func (s *EnrollmentService) Create(ctx context.Context, req models.EnrollmentRequest) (*models.EnrollmentResponse, error) {
	log := logger.WithRequest(ctx, s.logger).With(zap.String("student_id", req.StudentID), zap.String("course_id", req.CourseID))

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	agg := newEnrollmentAggregate(req)

	student, err := s.students.FetchByID(ctx, req.StudentID)
	if err != nil {
		return nil, s.remoteFailure(log, stageFetchStudent, err, req.StudentID, appErrors.ErrStudentNotFound, appErrors.ErrInvalidStudentID)
	}
	agg = agg.withStudent(student)

	course, err := s.courses.FetchByID(ctx, req.CourseID)
	if err != nil {
		return nil, s.remoteFailure(log, stageFetchCourse, err, req.CourseID, appErrors.ErrCourseNotFound, appErrors.ErrInvalidCourseID)
	}
	agg = agg.withCourse(course)

	enrollment, err := agg.build(s.newID())
	if err != nil {
		log.Error("enrollment pipeline failed", zap.String("stage", stageBuild), zap.Error(err))
		return nil, appErrors.Hide(appErrors.ErrInternal, err)
	}

	if err := ctx.Err(); err != nil {
		log.Warn("enrollment pipeline abandoned", zap.String("stage", stagePersist), zap.Error(err))
		return nil, appErrors.Hide(appErrors.ErrInternal, err)
	}
	saved, err := s.save(ctx, &enrollment)
	if err != nil {
		log.Error("enrollment pipeline failed", zap.String("stage", stagePersist), zap.String("enrollment_id", enrollment.EnrollmentID), zap.Error(err))
		return nil, appErrors.Hide(appErrors.ErrPersistence, err)
	}

	log.Info("enrollment created", zap.String("enrollment_id", saved.EnrollmentID))
	resp := saved.ToResponse()
	return &resp, nil
}

// Get returns one enrollment by public id. On a cache miss the cache version
// is taken before the store read; Update and Delete invalidate after their
// store write.
func (s *EnrollmentService) Get(ctx context.Context, enrollmentID string) (*models.EnrollmentResponse, error) {
	if err := ValidateID("enrollmentId", enrollmentID); err != nil {
		return nil, err
	}
	var (
		version int64
		fill    bool
	)
	if s.cache != nil {
		if cached, ok := s.cache.GetEnrollment(ctx, enrollmentID); ok {
			resp := cached.ToResponse()
			return &resp, nil
		}
		version, fill = s.cache.EnrollmentVersion(ctx, enrollmentID)
	}
	enrollment, err := s.find(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if fill {
		s.cache.PutEnrollment(ctx, *enrollment, version)
	}
	resp := enrollment.ToResponse()
	return &resp, nil
}

// List streams every enrollment to fn. An error returned by fn stops the
// stream and is returned unchanged.
func (s *EnrollmentService) List(ctx context.Context, fn func(models.EnrollmentResponse) error) error {
	var visitErr error
	start := time.Now()
	err := s.store.FindAll(ctx, func(e models.Enrollment) error {
		if err := fn(e.ToResponse()); err != nil {
			visitErr = err
			return err
		}
		return nil
	})
	if visitErr != nil {
		return visitErr
	}
	s.observe("find_all", err, start)
	if err != nil {
		logger.WithRequest(ctx, s.logger).Error("list enrollments failed", zap.Error(err))
		return appErrors.Hide(appErrors.ErrPersistence, err)
	}
	return nil
}

// ListAll collects List into a slice.
func (s *EnrollmentService) ListAll(ctx context.Context) ([]models.EnrollmentResponse, error) {
	out := make([]models.EnrollmentResponse, 0)
	err := s.List(ctx, func(r models.EnrollmentResponse) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update re-validates the course against the course catalog and overwrites
// the mutable fields from the request. The student is taken from the request
// as given and is not fetched. enrollmentId and the internal id are kept.
func (s *EnrollmentService) Update(ctx context.Context, enrollmentID string, req models.EnrollmentRequest) (*models.EnrollmentResponse, error) {
	if err := ValidateID("enrollmentId", enrollmentID); err != nil {
		return nil, err
	}
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	log := logger.WithRequest(ctx, s.logger).With(zap.String("enrollment_id", enrollmentID), zap.String("course_id", req.CourseID))

	existing, err := s.find(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	if _, err := s.courses.FetchByID(ctx, req.CourseID); err != nil {
		return nil, s.remoteFailure(log, stageFetchCourse, err, req.CourseID, appErrors.ErrCourseNotFound, appErrors.ErrInvalidCourseID)
	}

	updated := *existing
	updated.EnrollmentYear = req.EnrollmentYear
	updated.Semester = req.Semester
	updated.StudentID = req.StudentID
	updated.StudentFirstName = req.StudentFirstName
	updated.StudentLastName = req.StudentLastName
	updated.CourseID = req.CourseID
	updated.CourseNumber = req.CourseNumber
	updated.CourseName = req.CourseName

	if err := ctx.Err(); err != nil {
		log.Warn("enrollment update abandoned", zap.String("stage", stagePersist), zap.Error(err))
		return nil, appErrors.Hide(appErrors.ErrInternal, err)
	}
	saved, err := s.save(ctx, &updated)
	if err != nil {
		log.Error("enrollment update failed", zap.String("stage", stagePersist), zap.Error(err))
		return nil, appErrors.Hide(appErrors.ErrPersistence, err)
	}
	if s.cache != nil {
		s.cache.InvalidateEnrollment(ctx, enrollmentID)
	}

	resp := saved.ToResponse()
	return &resp, nil
}

// Delete removes an enrollment and returns its last state.
func (s *EnrollmentService) Delete(ctx context.Context, enrollmentID string) (*models.EnrollmentResponse, error) {
	if err := ValidateID("enrollmentId", enrollmentID); err != nil {
		return nil, err
	}
	existing, err := s.find(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = s.store.Delete(ctx, *existing)
	s.observe("delete", err, start)
	if err != nil {
		if errors.Is(err, repository.ErrEnrollmentNotFound) {
			return nil, enrollmentNotFound(enrollmentID)
		}
		logger.WithRequest(ctx, s.logger).Error("enrollment delete failed",
			zap.String("stage", stageDelete), zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return nil, appErrors.Hide(appErrors.ErrPersistence, err)
	}
	if s.cache != nil {
		s.cache.InvalidateEnrollment(ctx, enrollmentID)
	}

	resp := existing.ToResponse()
	return &resp, nil
}

// validateRequest checks that the ids are present. Year and semester are
// stored as given; unknown semesters are rejected when the request is decoded.
func (s *EnrollmentService) validateRequest(req models.EnrollmentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, "invalid enrollment request")
	}
	return nil
}

func (s *EnrollmentService) find(ctx context.Context, enrollmentID string) (*models.Enrollment, error) {
	start := time.Now()
	enrollment, err := s.store.FindByEnrollmentID(ctx, enrollmentID)
	if errors.Is(err, repository.ErrEnrollmentNotFound) {
		s.observe("find", nil, start)
		return nil, enrollmentNotFound(enrollmentID)
	}
	s.observe("find", err, start)
	if err != nil {
		logger.WithRequest(ctx, s.logger).Error("enrollment lookup failed",
			zap.String("stage", stageLookup), zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return nil, appErrors.Hide(appErrors.ErrPersistence, err)
	}
	return enrollment, nil
}

func (s *EnrollmentService) save(ctx context.Context, e *models.Enrollment) (*models.Enrollment, error) {
	start := time.Now()
	saved, err := s.store.Save(ctx, e)
	s.observe("save", err, start)
	return saved, err
}

func (s *EnrollmentService) observe(operation string, err error, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStoreOperation(operation, err, time.Since(start))
	}
}

// remoteFailure maps a remote fetch error onto the local taxonomy. Upstream
// detail stays in the wrapped cause and out of the message.
func (s *EnrollmentService) remoteFailure(log *zap.Logger, stage string, err error, id string, notFound, invalid *appErrors.Error) error {
	log.Warn("enrollment pipeline failed", zap.String("stage", stage), zap.Error(err))
	return mapRemoteError(err, id, notFound, invalid)
}

func mapRemoteError(err error, id string, notFound, invalid *appErrors.Error) error {
	re, ok := client.AsRemoteError(err)
	if !ok {
		return appErrors.Hide(appErrors.ErrUpstream, err)
	}
	switch re.Kind {
	case client.KindNotFound:
		return appErrors.Wrap(err, notFound.Code, notFound.Status, fmt.Sprintf("%s: %s", notFound.Message, id))
	case client.KindInvalidID:
		return appErrors.Wrap(err, invalid.Code, invalid.Status, fmt.Sprintf("%s: %s", invalid.Message, id))
	default:
		return appErrors.Hide(appErrors.ErrUpstream, err)
	}
}

func enrollmentNotFound(enrollmentID string) error {
	return appErrors.Clone(appErrors.ErrEnrollmentNotFound, fmt.Sprintf("enrollment not found: %s", enrollmentID))
}
