package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/campuskit/portal-api/pkg/errors"
)

type fakeCacheRepo struct {
	values  map[string][]byte
	readErr error
}

func newFakeCacheRepo() *fakeCacheRepo {
	return &fakeCacheRepo{values: make(map[string][]byte)}
}

func (f *fakeCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if f.readErr != nil {
		return f.readErr
	}
	raw, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheRepo) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = raw
	return nil
}

func (f *fakeCacheRepo) Invalidate(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.values {
		if strings.HasPrefix(key, prefix) {
			delete(f.values, key)
		}
	}
	return nil
}

type fakeCacheObserver struct {
	hits   int
	misses int
}

func (f *fakeCacheObserver) ObserveCache(hit bool) {
	if hit {
		f.hits++
	} else {
		f.misses++
	}
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newFakeCacheRepo()
	observer := &fakeCacheObserver{}
	svc := NewCacheService(repo, true, observer, zap.NewNop())

	var out string
	require.False(t, svc.Get(context.Background(), "dashboard:admin", &out))

	svc.Set(context.Background(), "dashboard:admin", "summary")
	require.True(t, svc.Get(context.Background(), "dashboard:admin", &out))
	assert.Equal(t, "summary", out)

	assert.Equal(t, 1, observer.hits)
	assert.Equal(t, 1, observer.misses)
}

func TestCacheServiceInvalidatePattern(t *testing.T) {
	repo := newFakeCacheRepo()
	svc := NewCacheService(repo, true, nil, zap.NewNop())

	svc.Set(context.Background(), "dashboard:admin", "a")
	svc.Set(context.Background(), "dashboard:student:u1", "b")
	svc.Invalidate(context.Background(), "dashboard:*")

	var out string
	assert.False(t, svc.Get(context.Background(), "dashboard:admin", &out))
	assert.False(t, svc.Get(context.Background(), "dashboard:student:u1", &out))
}

func TestCacheServiceReadErrorIsAMiss(t *testing.T) {
	repo := newFakeCacheRepo()
	repo.readErr = errors.New("connection refused")
	observer := &fakeCacheObserver{}
	svc := NewCacheService(repo, true, observer, zap.NewNop())

	var out string
	assert.False(t, svc.Get(context.Background(), "dashboard:admin", &out))
	assert.Equal(t, 1, observer.misses)
}

func TestCacheServiceDisabled(t *testing.T) {
	svc := NewCacheService(nil, true, nil, zap.NewNop())
	assert.False(t, svc.Enabled())

	var out string
	assert.False(t, svc.Get(context.Background(), "dashboard:admin", &out))
	svc.Set(context.Background(), "dashboard:admin", "ignored")
	svc.Invalidate(context.Background(), "dashboard:*")
}
