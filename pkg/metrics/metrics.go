package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gowiki", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gowiki", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	PageViews = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gowiki", Name: "page_views_total", Help: "Page views by mode (view, history, diff, recent, search)."},
		[]string{"mode"},
	)
	PageSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gowiki", Name: "page_saves_total", Help: "Page saves by kind (created, updated)."},
		[]string{"kind"},
	)
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "gowiki", Name: "cache_requests_total", Help: "Cache lookups by cache (page, content) and result (hit, miss, error)."},
		[]string{"cache", "result"},
	)
	RenderSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{Namespace: "gowiki", Name: "render_seconds", Help: "Time spent applying wiki transforms.", Buckets: prometheus.DefBuckets},
	)
	HTTPRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Namespace: "gowiki", Name: "http_request_seconds", Help: "HTTP request latency by method, route and status.", Buckets: prometheus.DefBuckets},
		[]string{"method", "route", "status"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(PageViews)
	reg.MustRegister(PageSaves)
	reg.MustRegister(CacheRequests)
	reg.MustRegister(RenderSeconds)
	reg.MustRegister(HTTPRequestSeconds)
}
