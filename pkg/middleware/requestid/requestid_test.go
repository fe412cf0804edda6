package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, inbound string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if inbound != "" {
		req.Header.Set(Header, inbound)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return seen, w.Header().Get(Header)
}

func TestGeneratesID(t *testing.T) {
	seen, header := run(t, "")

	assert.Equal(t, seen, header)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}

func TestKeepsInboundID(t *testing.T) {
	seen, header := run(t, "trace-42")

	assert.Equal(t, "trace-42", seen)
	assert.Equal(t, "trace-42", header)
}

func TestReplacesMalformedID(t *testing.T) {
	for _, bad := range []string{"has space", strings.Repeat("x", maxLength+1)} {
		seen, _ := run(t, bad)
		assert.NotEqual(t, bad, seen)
	}
}

func TestValueOutsideMiddleware(t *testing.T) {
	assert.Empty(t, Value(nil))
}
