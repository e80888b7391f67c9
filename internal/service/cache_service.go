package service

import (
	"context"

	"go.uber.org/zap"

	appErrors "github.com/campuskit/portal-api/pkg/errors"
)

type cacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context, pattern string) error
}

// cacheObserver counts cache lookups as hits or misses. *MetricsService
// satisfies it; a nil observer disables counting.
type cacheObserver interface {
	ObserveCache(hit bool)
}

// CacheService is a thin read-through helper over the cache repository.
// Cache failures never surface to callers; a miss or an error just means the
// value is recomputed.
type CacheService struct {
	repo    cacheRepository
	metrics cacheObserver
	enabled bool
	logger  *zap.Logger
}

// NewCacheService constructs a CacheService instance. A nil repo disables
// caching entirely.
func NewCacheService(repo cacheRepository, enabled bool, metrics cacheObserver, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, enabled: enabled && repo != nil, logger: logger}
}

// Enabled reports whether caching is active.
func (s *CacheService) Enabled() bool {
	return s.enabled
}

// Get loads a cached value into dest. Returns false when disabled, missing
// or on error.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.enabled {
		return false
	}
	if err := s.repo.Get(ctx, key, dest); err != nil {
		if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		s.observe(false)
		return false
	}
	s.observe(true)
	return true
}

// Set stores a value under key.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) {
	if !s.enabled {
		return
	}
	if err := s.repo.Set(ctx, key, value); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops every key matching the pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) {
	if !s.enabled {
		return
	}
	if err := s.repo.Invalidate(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func (s *CacheService) observe(hit bool) {
	if s.metrics != nil {
		s.metrics.ObserveCache(hit)
	}
}
