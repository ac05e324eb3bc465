package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// NewMemory returns an in-process store whose janitor sweeps expired items every 2*ttl.
func NewMemory(ttl time.Duration) *gocache.Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return gocache.New(ttl, 2*ttl)
}
