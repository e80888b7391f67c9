package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the application metrics.
type MetricsService struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	reportsTotal    *prometheus.CounterVec
	loginsTotal     *prometheus.CounterVec
	cacheTotal      *prometheus.CounterVec
}

// NewMetricsService builds the registry with process and Go runtime
// collectors plus the application series.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &MetricsService{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "HTTP requests processed, labelled by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		reportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_reports_total",
			Help: "Report export jobs, labelled by type and outcome.",
		}, []string{"type", "outcome"}),
		loginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_logins_total",
			Help: "Login attempts, labelled by outcome.",
		}, []string{"outcome"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_cache_requests_total",
			Help: "Dashboard cache lookups, labelled by outcome.",
		}, []string{"outcome"}),
	}

	registry.MustRegister(s.requestsTotal, s.requestDuration, s.reportsTotal, s.loginsTotal, s.cacheTotal)
	return s
}

// ObserveRequest records one completed HTTP request.
func (s *MetricsService) ObserveRequest(method, route string, status int, duration time.Duration) {
	s.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	s.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveReport records a report job outcome.
func (s *MetricsService) ObserveReport(reportType, outcome string) {
	s.reportsTotal.WithLabelValues(reportType, outcome).Inc()
}

// ObserveLogin records a login attempt outcome.
func (s *MetricsService) ObserveLogin(outcome string) {
	s.loginsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCache records a cache lookup as a hit or a miss.
func (s *MetricsService) ObserveCache(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	s.cacheTotal.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (s *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
