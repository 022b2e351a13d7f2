// Package metrics exposes pipeline activity as Prometheus collectors
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/truthguard/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "truthguard"

// Collector records pipeline events. It satisfies pipeline.Observer.
type Collector struct {
	transitions  *prometheus.CounterVec
	degraded     *prometheus.CounterVec
	verdicts     *prometheus.CounterVec
	claimLatency *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	runLatency   *prometheus.HistogramVec
	runClaims    prometheus.Histogram
	persistFails prometheus.Counter
}

// New creates a collector and registers it with reg.
// A nil reg uses the default registerer.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		// Labels: from, to (claim states)
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "claim",
			Name:      "transitions_total",
			Help:      "Claim state transitions",
		}, []string{"from", "to"}),

		// Labels: source (web, knowledge-base)
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "degraded_total",
			Help:      "Evidence sources that failed or timed out for a claim",
		}, []string{"source"}),

		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "claim",
			Name:      "verdicts_total",
			Help:      "Resolved claims by synthesis mode and verdict",
		}, []string{"mode", "verdict"}),

		claimLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "claim",
			Name:      "duration_seconds",
			Help:      "Time from retrieval start to verdict for one claim",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"mode"}),

		// Labels: mode, status (ok, invalid, extraction, canceled, error)
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Verification runs by mode and outcome",
		}, []string{"mode", "status"}),

		runLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Verification run latency",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"mode"}),

		runClaims: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "claims",
			Help:      "Claims extracted per run",
			Buckets:   []float64{0, 1, 2, 5, 10, 15, 20},
		}),

		persistFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "persist_failures_total",
			Help:      "Finished runs that could not be written to history",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.transitions, c.degraded, c.verdicts, c.claimLatency,
		c.runs, c.runLatency, c.runClaims, c.persistFails,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) ClaimTransition(from, to model.ClaimState) {
	c.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

func (c *Collector) SourceDegraded(source model.EvidenceOrigin) {
	c.degraded.WithLabelValues(string(source)).Inc()
}

func (c *Collector) ClaimResolved(mode model.Mode, verdict model.Verdict, elapsed time.Duration) {
	c.verdicts.WithLabelValues(string(mode), string(verdict)).Inc()
	c.claimLatency.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
}

func (c *Collector) RunCompleted(mode model.Mode, claims int, elapsed time.Duration, err error) {
	c.runs.WithLabelValues(string(mode), runStatus(err)).Inc()
	if err != nil {
		return
	}
	c.runLatency.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
	c.runClaims.Observe(float64(claims))
}

func (c *Collector) PersistFailed() {
	c.persistFails.Inc()
}

func runStatus(err error) string {
	var extraction *model.ExtractionError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrInvalidRequest):
		return "invalid"
	case errors.As(err, &extraction):
		return "extraction"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
