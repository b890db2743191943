package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gowiki/gowiki/pkg/logger"
	"github.com/gowiki/gowiki/pkg/metrics"
)

// LogSamplingConfig thins out request logs. With Tick set, at most one
// successful request is logged per Tick; requests slower than After and
// all 5xx responses are always logged.
type LogSamplingConfig struct {
	Tick  time.Duration
	After time.Duration
}

type logSampler struct {
	tick  time.Duration
	after time.Duration
	next  time.Time
	mu    sync.Mutex
}

func (s *logSampler) Allow(duration time.Duration) bool {
	if s.after > 0 && duration >= s.after {
		return true
	}
	if s.tick <= 0 {
		return true
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next.IsZero() || now.After(s.next) {
		s.next = now.Add(s.tick)
		return true
	}
	return false
}

// RequestLogger records request latency and writes one structured log line per request.
func RequestLogger(cfg LogSamplingConfig) gin.HandlerFunc {
	sampler := &logSampler{tick: cfg.Tick, after: cfg.After}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestSeconds.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Observe(duration.Seconds())

		if status < 500 && len(c.Errors) == 0 && !sampler.Allow(duration) {
			return
		}
		entry := logger.Entry(map[string]interface{}{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       route,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"bytes_out":   c.Writer.Size(),
			"ip":          c.ClientIP(),
		})
		if sub, _ := Claims(c)["sub"].(string); sub != "" {
			entry = entry.WithField("sub", sub)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("error", c.Errors.String())
		}

		switch {
		case status >= 500 || len(c.Errors) > 0:
			entry.Error("http_request")
		case status >= 400:
			entry.Warn("http_request")
		default:
			entry.Info("http_request")
		}
	}
}
