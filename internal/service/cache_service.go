package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/timetable-engine/pkg/errors"
)

// ResultCacheRepository abstracts persistence for cached solve results.
type ResultCacheRepository interface {
	Get(ctx context.Context, fingerprint string, dest interface{}) error
	Set(ctx context.Context, fingerprint string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, fingerprint string) error
}

// CacheService wraps the result cache with metrics, logging and a kill switch.
// Cache failures never fail the caller; they degrade to a miss.
type CacheService struct {
	repo       ResultCacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo ResultCacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Lookup loads the cached result for fingerprint into dest and reports whether it was found.
func (s *CacheService) Lookup(ctx context.Context, fingerprint string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, fingerprint, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("result cache get failed", zap.String("fingerprint", fingerprint), zap.Error(err))
	}
	return err == nil
}

// Store caches value under fingerprint.
func (s *CacheService) Store(ctx context.Context, fingerprint string, value interface{}) {
	if !s.Enabled() {
		return
	}
	start := time.Now()
	err := s.repo.Set(ctx, fingerprint, value, s.defaultTTL)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("result cache set failed", zap.String("fingerprint", fingerprint), zap.Error(err))
	}
}

// Invalidate drops the cached result for fingerprint.
func (s *CacheService) Invalidate(ctx context.Context, fingerprint string) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.Delete(ctx, fingerprint); err != nil {
		s.logger.Warn("result cache invalidate failed", zap.String("fingerprint", fingerprint), zap.Error(err))
	}
}
