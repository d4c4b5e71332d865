package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaibhav1874/TrueVail/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		expected string
	}{
		{"correlation header", map[string]string{"X-Correlation-ID": "corr-123"}, "corr-123"},
		{"request id header", map[string]string{"X-Request-ID": "req-456"}, "req-456"},
		{"correlation wins", map[string]string{"X-Correlation-ID": "corr-1", "X-Request-ID": "req-2"}, "corr-1"},
		{"generated", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fromGin, fromContext string
			router := gin.New()
			router.Use(RequestIDMiddleware())
			router.GET("/test", func(c *gin.Context) {
				fromGin = CorrelationID(c)
				fromContext = logger.CorrelationIDFromContext(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, fromGin, fromContext)
			assert.Equal(t, fromGin, w.Header().Get("X-Correlation-ID"))
			if tt.expected != "" {
				assert.Equal(t, tt.expected, fromGin)
			} else {
				assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, fromGin)
			}
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	nullLogger, hook := test.NewNullLogger()
	original := logger.Log
	logger.Log = nullLogger
	defer func() { logger.Log = original }()

	router := gin.New()
	router.Use(RequestIDMiddleware(), LoggingMiddleware())
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "fine") })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	tests := []struct {
		path  string
		level logrus.Level
		code  int
	}{
		{"/ok", logrus.InfoLevel, http.StatusOK},
		{"/missing", logrus.WarnLevel, http.StatusNotFound},
		{"/boom", logrus.ErrorLevel, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			hook.Reset()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("X-Correlation-ID", "log-test")
			router.ServeHTTP(httptest.NewRecorder(), req)

			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, "HTTP request processed", entry.Message)
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, tt.code, entry.Data["status"])
			assert.Equal(t, tt.path, entry.Data["path"])
			assert.Equal(t, "log-test", entry.Data["correlation_id"])
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		origin      string
		method      string
		wantOrigin  string
		wantCode    int
		credentials string
	}{
		{"allowed origin", []string{"http://localhost:3000"}, "http://localhost:3000", http.MethodGet, "http://localhost:3000", http.StatusOK, "true"},
		{"foreign origin", []string{"http://localhost:3000"}, "http://evil.example", http.MethodGet, "", http.StatusOK, ""},
		{"wildcard", []string{"*"}, "chrome-extension://abc", http.MethodGet, "*", http.StatusOK, ""},
		{"preflight", []string{"http://localhost:3000"}, "http://localhost:3000", http.MethodOptions, "http://localhost:3000", http.StatusNoContent, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware(tt.allowed))
			router.GET("/analyze", func(c *gin.Context) { c.Status(http.StatusOK) })
			router.OPTIONS("/analyze", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tt.method, "/analyze", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.credentials, w.Header().Get("Access-Control-Allow-Credentials"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
		})
	}
}
