package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/charts", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func serve(r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/charts", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAllowsAnyOriginWhenUnconfigured(t *testing.T) {
	w := serve(newRouter(nil), http.MethodGet, "http://example.edu")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func TestEchoesListedOrigin(t *testing.T) {
	w := serve(newRouter([]string{"https://notas.example.edu/"}), http.MethodGet, "https://Notas.example.edu")

	assert.Equal(t, "https://Notas.example.edu", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnlistedOriginGetsNoHeaders(t *testing.T) {
	r := newRouter([]string{"https://notas.example.edu"})

	w := serve(r, http.MethodGet, "https://evil.example.com")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodOptions, "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPreflight(t *testing.T) {
	w := serve(newRouter([]string{"*"}), http.MethodOptions, "http://localhost:3000")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, allowedMethods, w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
}
