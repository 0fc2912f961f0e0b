package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type staticRoute struct {
	path, body string
}

func (s staticRoute) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET(s.path, func(c *gin.Context) { c.String(http.StatusOK, s.body) })
}

func TestRouter_Setup(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		opts    []RouterOption
		apiPath string
	}{
		{"default version", nil, "/api/v1/prices"},
		{"custom version", []RouterOption{WithAPIVersion("v2")}, "/api/v2/prices"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewRouter(gin.New(), tt.opts...).
				API(staticRoute{"/prices", "prices"}).
				Probes(staticRoute{"/health", "ok"}).
				Setup()

			serve := func(path string) *httptest.ResponseRecorder {
				w := httptest.NewRecorder()
				engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
				return w
			}

			w := serve(tt.apiPath)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "prices", w.Body.String())

			w = serve("/health")
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "ok", w.Body.String())

			assert.Equal(t, http.StatusNotFound, serve("/prices").Code)
			assert.Equal(t, http.StatusNotFound, serve("/api/v1/health").Code)
		})
	}
}
