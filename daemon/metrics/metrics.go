// Package metrics exposes the pipeline's own operational health
// (queue depth, alerts dispatched, collector duration) on a
// loopback-only Prometheus endpoint. It never re-exposes the
// collected host metrics themselves — that would duplicate the
// domain data model behind a second transport for no reason.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/logger"
)

var (
	samplesQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sysops_agent_samples_queue_depth",
		Help: "Current number of samples buffered in the ingest queue.",
	})
	alertsQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sysops_agent_alerts_queue_depth",
		Help: "Current number of alerts buffered in the dispatch queue.",
	})
	alertsDispatchedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sysops_agent_alerts_dispatched_total",
		Help: "Total alerts handed to the alert manager, by severity.",
	}, []string{"severity"})
	collectorDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sysops_agent_collector_duration_seconds",
		Help:    "Wall-clock duration of each collector's Collect call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"collector"})
	collectorErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sysops_agent_collector_errors_total",
		Help: "Total collection cycles that returned an error, by collector.",
	}, []string{"collector"})
)

func init() {
	prometheus.MustRegister(samplesQueueDepth, alertsQueueDepth, alertsDispatchedTotal, collectorDuration, collectorErrorsTotal)
}

// SetSamplesQueueDepth records the current depth of the samples queue.
func SetSamplesQueueDepth(n int) { samplesQueueDepth.Set(float64(n)) }

// SetAlertsQueueDepth records the current depth of the alerts queue.
func SetAlertsQueueDepth(n int) { alertsQueueDepth.Set(float64(n)) }

// RecordAlertDispatched increments the dispatched-alert counter for a
// severity label.
func RecordAlertDispatched(severity string) { alertsDispatchedTotal.WithLabelValues(severity).Inc() }

// ObserveCollectorDuration records how long a collector's Collect call took.
func ObserveCollectorDuration(collector string, d time.Duration) {
	collectorDuration.WithLabelValues(collector).Observe(d.Seconds())
}

// RecordCollectorError increments the collector error counter.
func RecordCollectorError(collector string) { collectorErrorsTotal.WithLabelValues(collector).Inc() }

// Server is the optional loopback-only /metrics HTTP listener.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a chi-routed metrics server bound to cfg.Bind.
// Returns nil when disabled.
func NewServer(cfg config.PrometheusConfig) *Server {
	if !cfg.Enabled {
		return nil
	}

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())

	return &Server{httpServer: &http.Server{Addr: cfg.Bind, Handler: r}}
}

// Run starts serving until ctx is cancelled, then shuts down
// gracefully. Safe to call on a nil Server (no-op).
func (s *Server) Run(ctx context.Context) {
	if s == nil {
		return
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Component("metrics").Warn().Err(err).Msg("metrics server shutdown error")
		}
	}()

	logger.Component("metrics").Info().Str("addr", s.httpServer.Addr).Msg("metrics endpoint listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Component("metrics").Error().Err(err).Msg("metrics server failed")
	}
}
