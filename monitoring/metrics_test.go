package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePrediction(t *testing.T) {
	m := NewMetrics()

	m.ObservePrediction(1, 2*time.Millisecond)
	m.ObservePrediction(1, time.Millisecond)
	m.ObservePrediction(0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Predictions.WithLabelValues("1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Predictions.WithLabelValues("0")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PredictionDuration))
}

func TestObserveError(t *testing.T) {
	m := NewMetrics()

	m.ObserveError("unknown_category")
	m.ObserveError("invalid_input")
	m.ObserveError("invalid_input")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PredictionErrors.WithLabelValues("unknown_category")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PredictionErrors.WithLabelValues("invalid_input")))
}

func TestObserveRequest(t *testing.T) {
	m := NewMetrics()

	m.ObserveRequest("POST /predict", http.MethodPost, http.StatusOK, time.Millisecond)
	m.ObserveRequest("", http.MethodGet, http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("POST /predict", "POST", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("unmatched", "GET", "404")))
}

func TestGauges(t *testing.T) {
	m := NewMetrics()

	m.SetTrainingSamples(918)
	assert.Equal(t, 918.0, testutil.ToFloat64(m.TrainingSamples))

	m.SetDatasetStale(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatasetStale))
	m.SetDatasetStale(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.DatasetStale))
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.SetTrainingSamples(20)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "heartcheck_training_samples 20")
	assert.Contains(t, string(body), "go_goroutines")
}
