package telemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/datazip-inc/rowsync/constants"
	"github.com/datazip-inc/rowsync/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
)

// Metrics are the Prometheus series describing sync cycles.
type Metrics struct {
	registry *prometheus.Registry

	Cycles        *prometheus.CounterVec
	RowsCommitted prometheus.Counter
	Commits       prometheus.Counter
	CycleDuration prometheus.Histogram
	LastSuccess   prometheus.Gauge
}

// NewMetrics registers the sync series on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		Cycles: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rowsync_cycles_total",
				Help: "Sync cycles by outcome",
			},
			[]string{"outcome"}, // success, skipped or the failing error class
		),
		RowsCommitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "rowsync_rows_committed_total",
			Help: "Rows committed to the target",
		}),
		Commits: factory.NewCounter(prometheus.CounterOpts{
			Name: "rowsync_commits_total",
			Help: "Transactions committed on the target",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rowsync_cycle_duration_seconds",
			Help:    "Duration of sync cycles in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 10),
		}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "rowsync_last_success_timestamp_seconds",
			Help: "Unix time of the last successful cycle",
		}),
	}
}

// ObserveCycle records one finished cycle. Committed work is counted for
// failed cycles too, since it stays in the target.
func (m *Metrics) ObserveCycle(result types.SyncResult, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.Cycles.WithLabelValues(Outcome(err)).Inc()
	m.RowsCommitted.Add(float64(result.RowsCommitted))
	m.Commits.Add(float64(result.Commits))
	m.CycleDuration.Observe(elapsed.Seconds())
	if err == nil {
		m.LastSuccess.SetToCurrentTime()
	}
}

// ObserveSkipped records a firing dropped because a cycle was still running.
func (m *Metrics) ObserveSkipped() {
	if m == nil {
		return
	}
	m.Cycles.WithLabelValues(OutcomeSkipped).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// Outcome maps a cycle error onto its error class label.
func Outcome(err error) string {
	classes := []struct {
		sentinel error
		label    string
	}{
		{constants.ErrConfig, "config"},
		{constants.ErrConnection, "connection"},
		{constants.ErrBackup, "backup"},
		{constants.ErrTruncateNotConfirmed, "not_confirmed"},
		{constants.ErrTruncate, "truncate"},
		{constants.ErrExtraction, "extraction"},
		{constants.ErrSync, "sync"},
	}

	if err == nil {
		return OutcomeSuccess
	}
	for _, class := range classes {
		if errors.Is(err, class.sentinel) {
			return class.label
		}
	}
	return "error"
}

// Server exposes /metrics until its context ends.
type Server struct {
	Addr    string
	Metrics *Metrics
}

func (s *Server) Serve(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Metrics.Handler())

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	}
}

func (s *Server) String() string {
	return "metrics-server"
}
