package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/grades-dashboard/internal/models"
	"github.com/noah-isme/grades-dashboard/pkg/middleware/requestid"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
)

// WithResponseMeta initialises response metadata storage on the request context.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(responseMetaKey, map[string]interface{}{})
		c.Set("request_start", time.Now())
		c.Next()
	}
}

// SetCacheHit records whether the gradebook came from memory.
func SetCacheHit(c *gin.Context, hit bool) {
	ensureMeta(c)[cacheHitKey] = hit
}

// SetGradebookMeta records the revision the response was computed from.
func SetGradebookMeta(c *gin.Context, book *models.Gradebook) {
	if book == nil {
		return
	}
	meta := ensureMeta(c)
	meta["record_count"] = len(book.Records)
	meta["loaded_at"] = book.LoadedAt
	if tag := book.Version.Tag(); tag != "" {
		meta["version"] = tag
	}
}

// ExtractMeta returns the metadata map with the elapsed processing time filled in.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	meta := ensureMeta(c)
	if v, ok := c.Get("request_start"); ok {
		if start, ok := v.(time.Time); ok {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
	if id := requestid.Value(c); id != "" {
		meta["request_id"] = id
	}
	return meta
}

func ensureMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if meta, exists := c.Get(responseMetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	newMeta := make(map[string]interface{})
	c.Set(responseMetaKey, newMeta)
	return newMeta
}
