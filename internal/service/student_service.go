package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollments-service/internal/bulk"
	"github.com/noah-isme/enrollments-service/internal/client"
	"github.com/noah-isme/enrollments-service/internal/models"
	appErrors "github.com/noah-isme/enrollments-service/pkg/errors"
	"github.com/noah-isme/enrollments-service/pkg/logger"
)

type studentDirectory interface {
	FetchByID(ctx context.Context, studentID string) (models.StudentRecord, error)
	FetchByRow(ctx context.Context, row int) (models.StudentRecord, error)
}

// BulkFetchRequest selects a strategy and batch size for a bulk fetch.
type BulkFetchRequest struct {
	Strategy string
	Count    int
	PoolSize int
}

// BulkFetchResult carries the records and the observed concurrency.
type BulkFetchResult struct {
	Records     []models.StudentRecord
	Strategy    string
	Count       int
	Limit       int
	Duration    time.Duration
	MaxInFlight int64
}

// StudentService proxies the student directory.
type StudentService struct {
	directory       studentDirectory
	observer        bulk.Observer
	defaultCount    int
	defaultPoolSize int
	logger          *zap.Logger
}

// NewStudentService constructs StudentService. observer may be nil.
func NewStudentService(directory studentDirectory, observer bulk.Observer, defaultCount, defaultPoolSize int, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultCount <= 0 || defaultCount > bulk.MaxRows {
		defaultCount = bulk.MaxRows
	}
	return &StudentService{
		directory:       directory,
		observer:        observer,
		defaultCount:    defaultCount,
		defaultPoolSize: defaultPoolSize,
		logger:          logger,
	}
}

// Get fetches one student, mapping remote failures like the enrollment pipeline does.
func (s *StudentService) Get(ctx context.Context, studentID string) (*models.StudentRecord, error) {
	rec, err := s.directory.FetchByID(ctx, studentID)
	if err != nil {
		logger.WithRequest(ctx, s.logger).Warn("student lookup failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, mapRemoteError(err, studentID, appErrors.ErrStudentNotFound, appErrors.ErrInvalidStudentID)
	}
	return &rec, nil
}

// Bulk fetches rows 1..Count under the requested strategy.
func (s *StudentService) Bulk(ctx context.Context, req BulkFetchRequest) (*BulkFetchResult, error) {
	count := req.Count
	if count == 0 {
		count = s.defaultCount
	}
	if count < 1 || count > bulk.MaxRows {
		return nil, appErrors.Clone(appErrors.ErrInvalidInput, fmt.Sprintf("count must be between 1 and %d", bulk.MaxRows))
	}
	poolSize := req.PoolSize
	if poolSize <= 0 {
		poolSize = s.defaultPoolSize
	}
	strategy, err := bulk.Parse(req.Strategy, poolSize)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidInput.Code, appErrors.ErrInvalidInput.Status, err.Error())
	}

	tracker := &bulk.InFlightTracker{}
	observers := []bulk.Observer{tracker}
	if s.observer != nil {
		observers = append(observers, s.observer)
	}
	fetch := bulk.Observe(s.directory.FetchByRow, observers...)

	log := logger.WithRequest(ctx, s.logger).With(zap.String("strategy", strategy.Name()), zap.Int("count", count))
	start := time.Now()
	records, err := strategy.Fetch(ctx, bulk.Rows(count), fetch)
	elapsed := time.Since(start)
	if err != nil {
		log.Warn("bulk fetch failed", zap.Duration("duration", elapsed), zap.Int64("started", tracker.Started()), zap.Error(err))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, appErrors.Hide(appErrors.ErrUpstream, err)
		}
		id := "bulk"
		if re, ok := client.AsRemoteError(err); ok {
			id = re.ID
		}
		return nil, mapRemoteError(err, id, appErrors.ErrStudentNotFound, appErrors.ErrInvalidStudentID)
	}
	log.Info("bulk fetch complete", zap.Duration("duration", elapsed), zap.Int64("max_in_flight", tracker.HighWaterMark()))

	return &BulkFetchResult{
		Records:     records,
		Strategy:    strategy.Name(),
		Count:       count,
		Limit:       strategy.Limit(),
		Duration:    elapsed,
		MaxInFlight: tracker.HighWaterMark(),
	}, nil
}
