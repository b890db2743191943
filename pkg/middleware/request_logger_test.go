package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gowiki/gowiki/pkg/logger"
	"github.com/stretchr/testify/require"
)

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/x", func(c *gin.Context) { seen = RequestIDFromContext(c); c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "abc-123", seen)
	require.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.Init("info")
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })
	return &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestRequestLogger_Fields(t *testing.T) {
	buf := captureLogs(t)
	r := gin.New()
	r.Use(RequestID(), RequestLogger(LogSamplingConfig{}))
	r.GET("/pages/:name", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/pages/MainPage", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	require.Equal(t, "http_request", lines[0]["msg"])
	require.Equal(t, "warning", lines[0]["level"])
	require.Equal(t, "rid-1", lines[0]["request_id"])
	require.Equal(t, "/pages/:name", lines[0]["route"])
	require.Equal(t, float64(http.StatusNotFound), lines[0]["status"])
}

func TestRequestLogger_SamplesSuccessButKeepsErrors(t *testing.T) {
	buf := captureLogs(t)
	r := gin.New()
	r.Use(RequestLogger(LogSamplingConfig{Tick: time.Hour}))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	lines := logLines(t, buf)
	require.Len(t, lines, 2)
	require.Equal(t, "info", lines[0]["level"])
	require.Equal(t, "error", lines[1]["level"])
}
