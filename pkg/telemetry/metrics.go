// Package telemetry records training and prediction metrics in a private
// Prometheus registry and exports them as a node-exporter textfile.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/YuminosukeSato/aurora/pkg/errors"
)

const namespace = "aurora"

// Outcome labels of a training run.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	candidateR2  *prometheus.GaugeVec
	candidateFit *prometheus.HistogramVec
	bestR2       prometheus.Gauge
	runs         *prometheus.CounterVec
	predictions  prometheus.Counter
	predictErrs  prometheus.Counter
}

// New registers the collectors in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		candidateR2: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trainer",
			Name:      "candidate_r2",
			Help:      "R2 score of each candidate model by split.",
		}, []string{"model", "split"}),
		candidateFit: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trainer",
			Name:      "candidate_fit_seconds",
			Help:      "Time spent fitting each candidate model.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"model"}),
		bestR2: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "trainer",
			Name:      "best_r2",
			Help:      "Test R2 score of the selected model.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trainer",
			Name:      "runs_total",
			Help:      "Training runs by outcome.",
		}, []string{"outcome"}),
		predictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "predictor",
			Name:      "predictions_total",
			Help:      "Successful predictions.",
		}),
		predictErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "predictor",
			Name:      "errors_total",
			Help:      "Rejected or failed predictions.",
		}),
	}
	m.registry.MustRegister(m.candidateR2, m.candidateFit, m.bestR2, m.runs, m.predictions, m.predictErrs)
	return m
}

// ObserveCandidate records the scores and fit time of one candidate.
func (m *Metrics) ObserveCandidate(name string, trainR2, testR2 float64, fit time.Duration) {
	if m == nil {
		return
	}
	m.candidateR2.WithLabelValues(name, "train").Set(trainR2)
	m.candidateR2.WithLabelValues(name, "test").Set(testR2)
	m.candidateFit.WithLabelValues(name).Observe(fit.Seconds())
}

// ObserveBest records the selected model's test score.
func (m *Metrics) ObserveBest(testR2 float64) {
	if m == nil {
		return
	}
	m.bestR2.Set(testR2)
}

// ObserveRun counts a finished training run.
func (m *Metrics) ObserveRun(outcome string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
}

// ObservePrediction counts a prediction attempt.
func (m *Metrics) ObservePrediction(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.predictErrs.Inc()
		return
	}
	m.predictions.Inc()
}

// Registry exposes the underlying registry, e.g. for a promhttp handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile writes all metrics atomically in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.NewIOFailure("write metrics", path, err)
	}
	return nil
}
