package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/enrollments-service/internal/models"
	appErrors "github.com/noah-isme/enrollments-service/pkg/errors"
)

const enrollmentCachePrefix = "enrollments:"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Version(ctx context.Context, key string) (int64, error)
	SetIfVersion(ctx context.Context, key string, version int64, value interface{}, ttl time.Duration) (bool, error)
	Bump(ctx context.Context, key string, counterTTL time.Duration) error
}

// CacheService is the read-through cache in front of enrollment lookups.
// Cache failures are logged and never fail the caller.
//
// Fills are versioned: a reader takes the key's version before it reads the
// store, and the fill is dropped if an invalidation bumped the version in the
// meantime.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

func enrollmentKey(enrollmentID string) string {
	return enrollmentCachePrefix + enrollmentID
}

// GetEnrollment returns the cached enrollment and whether it was a hit.
func (s *CacheService) GetEnrollment(ctx context.Context, enrollmentID string) (*models.Enrollment, bool) {
	if !s.Enabled() {
		return nil, false
	}
	start := time.Now()
	var cached models.Enrollment
	err := s.repo.Get(ctx, enrollmentKey(enrollmentID), &cached)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache get failed", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		}
		return nil, false
	}
	return &cached, true
}

// EnrollmentVersion returns the version a later PutEnrollment must match.
// It must be taken before the store is read. ok is false when the version is
// unknown, in which case the caller must not fill.
func (s *CacheService) EnrollmentVersion(ctx context.Context, enrollmentID string) (int64, bool) {
	if !s.Enabled() {
		return 0, false
	}
	version, err := s.repo.Version(ctx, enrollmentKey(enrollmentID))
	if err != nil {
		s.logger.Warn("cache version read failed", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return 0, false
	}
	return version, true
}

// PutEnrollment stores e under its public id unless the key was invalidated
// after version was read.
func (s *CacheService) PutEnrollment(ctx context.Context, e models.Enrollment, version int64) {
	if !s.Enabled() {
		return
	}
	start := time.Now()
	written, err := s.repo.SetIfVersion(ctx, enrollmentKey(e.EnrollmentID), version, e, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("enrollment_id", e.EnrollmentID), zap.Error(err))
		return
	}
	if !written {
		s.logger.Debug("cache fill skipped, invalidated meanwhile", zap.String("enrollment_id", e.EnrollmentID))
	}
}

// InvalidateEnrollment drops the cached copy of an enrollment and rejects
// fills still in flight.
func (s *CacheService) InvalidateEnrollment(ctx context.Context, enrollmentID string) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Bump(ctx, enrollmentKey(enrollmentID), 2*s.ttl); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("enrollment_id", enrollmentID), zap.Error(err))
	}
}
