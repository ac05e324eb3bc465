package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"

	appErrors "github.com/noah-isme/smart-classroom-api/pkg/errors"
)

// MemoryCacheRepository keeps JSON payloads in process memory. Values are stored encoded so
// callers never share mutable state through the cache.
type MemoryCacheRepository struct {
	store *gocache.Cache
}

func NewMemoryCacheRepository(store *gocache.Cache) *MemoryCacheRepository {
	return &MemoryCacheRepository{store: store}
}

func (r *MemoryCacheRepository) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := r.store.Get(key)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	payload, ok := raw.([]byte)
	if !ok {
		r.store.Delete(key)
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	r.store.Set(key, payload, ttl)
	return nil
}

// DeleteByPattern accepts the same '*' globs used against Redis.
func (r *MemoryCacheRepository) DeleteByPattern(_ context.Context, pattern string) error {
	for key := range r.store.Items() {
		matched, err := path.Match(pattern, key)
		if err != nil {
			return fmt.Errorf("match cache pattern %s: %w", pattern, err)
		}
		if matched {
			r.store.Delete(key)
		}
	}
	return nil
}
