package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/grades-dashboard/internal/models"
	"github.com/noah-isme/grades-dashboard/internal/service"
)

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/x", func(c *gin.Context) {
		SetCacheHit(c, true)
		SetGradebookMeta(c, &models.Gradebook{
			Records:  make([]models.GradedRecord, 2),
			Version:  models.SourceVersion{ETag: `"abc"`},
			LoadedAt: time.Unix(0, 0).UTC(),
		})
		meta = ExtractMeta(c)
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	require.NotNil(t, meta)
	assert.Equal(t, true, meta["cache_hit"])
	assert.Equal(t, 2, meta["record_count"])
	assert.Equal(t, `"abc"`, meta["version"])
	assert.Contains(t, meta, "processing_time_ms")
}

func TestMetricsSkipsConfiguredPaths(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics, "/metrics"))
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/metrics", "/health", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, uint64(2), metrics.Snapshot().RequestsTotal)
}
