package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey  = "response_meta"
	requestStartKey  = "request_start"
	cacheHitKey      = "cache_hit"
	processingTimeMs = "processing_time_ms"
)

// ResponseMeta prepares the meta map handlers fill in and records when the request started.
func ResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit marks whether the response body came from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	Meta(c)[cacheHitKey] = hit
}

// Meta returns the request's meta map stamped with the elapsed processing time. The map is
// created on demand when ResponseMeta is not installed.
func Meta(c *gin.Context) map[string]interface{} {
	var meta map[string]interface{}
	if value, exists := c.Get(responseMetaKey); exists {
		meta, _ = value.(map[string]interface{})
	}
	if meta == nil {
		meta = make(map[string]interface{})
		c.Set(responseMetaKey, meta)
	}
	if value, exists := c.Get(requestStartKey); exists {
		if start, ok := value.(time.Time); ok {
			meta[processingTimeMs] = time.Since(start).Milliseconds()
		}
	}
	return meta
}
