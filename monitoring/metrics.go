// Package monitoring exposes Prometheus metrics for predictions, HTTP traffic
// and the training dataset.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "heartcheck"

// Metrics holds every collector the service reports. Each instance owns its
// registry, so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// Predictions counts successful predictions by returned label.
	Predictions *prometheus.CounterVec

	// PredictionErrors counts failed predictions by error kind.
	PredictionErrors *prometheus.CounterVec

	// PredictionDuration measures model scoring time.
	PredictionDuration prometheus.Histogram

	// Requests counts HTTP requests by route pattern, method and status.
	Requests *prometheus.CounterVec

	// RequestDuration measures HTTP handling time by route pattern.
	RequestDuration *prometheus.HistogramVec

	// TrainingSamples is the row count the served model was fitted on.
	TrainingSamples prometheus.Gauge

	// DatasetStale is 1 once the dataset changed after training.
	DatasetStale prometheus.Gauge
}

// NewMetrics registers every collector on a fresh registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		Predictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Successful predictions by label.",
		}, []string{"label"}),
		PredictionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_errors_total",
			Help:      "Failed predictions by error kind.",
		}, []string{"kind"}),
		PredictionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Time spent scoring one record.",
			Buckets:   prometheus.ExponentialBuckets(0.000005, 4, 8), // 5us to ~80ms
		}),
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request handling time by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		TrainingSamples: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_samples",
			Help:      "Rows the served model was trained on.",
		}),
		DatasetStale: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_stale",
			Help:      "1 when the dataset changed on disk after training.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObservePrediction counts a successful prediction and its scoring time.
func (m *Metrics) ObservePrediction(label int, elapsed time.Duration) {
	m.Predictions.WithLabelValues(strconv.Itoa(label)).Inc()
	m.PredictionDuration.Observe(elapsed.Seconds())
}

// ObserveError counts a failed prediction by error kind.
func (m *Metrics) ObserveError(kind string) {
	m.PredictionErrors.WithLabelValues(kind).Inc()
}

// ObserveRequest records one HTTP request. An empty route is reported as
// "unmatched".
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SetTrainingSamples records the size of the training set.
func (m *Metrics) SetTrainingSamples(n int) {
	m.TrainingSamples.Set(float64(n))
}

// SetDatasetStale flags the dataset as changed since training.
func (m *Metrics) SetDatasetStale(stale bool) {
	if stale {
		m.DatasetStale.Set(1)
		return
	}
	m.DatasetStale.Set(0)
}
