package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"heartcheck/ml"
	"heartcheck/monitoring"
)

// api holds the handler dependencies. Nothing in it is written after
// construction, so handlers share it without locking.
type api struct {
	predictor Predictor
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	pages     *pageSet
	started   time.Time
}

func newAPI(deps Deps) *api {
	return &api{
		predictor: deps.Predictor,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		pages:     newPageSet(),
		started:   time.Now(),
	}
}

func (a *api) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.handleIndex)
	mux.Handle("GET /static/", staticHandler())
	mux.HandleFunc("POST /predict", a.handlePredict)
	mux.HandleFunc("GET /ws/predict", a.handlePredictStream)
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("GET /api/model", a.handleModel)
	mux.Handle("GET /metrics", a.metrics.Handler())
}

// errorResponse is the body returned for a failed prediction. Only Error is
// always set.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

func newErrorResponse(err error) errorResponse {
	resp := errorResponse{Error: err.Error(), Code: ml.ErrorKind(err)}

	var unknown *ml.UnknownCategoryError
	var input *ml.InputError
	switch {
	case errors.As(err, &unknown):
		resp.Field = unknown.Field
		resp.Value = unknown.Value
	case errors.As(err, &input):
		resp.Field = input.Field
	default:
		resp.Error = "internal error"
	}
	return resp
}

// predict scores one decoded record and returns the response body. Failures
// are answered in-band with an error body rather than an error status.
func (a *api) predict(requestID string, rec ml.Record, decodeErr error) interface{} {
	if decodeErr != nil {
		return a.failure(requestID, decodeErr)
	}

	start := time.Now()
	prediction, err := a.predictor.Predict(rec)
	if err != nil {
		return a.failure(requestID, err)
	}
	a.metrics.ObservePrediction(prediction.Label, time.Since(start))
	return prediction
}

func (a *api) failure(requestID string, err error) errorResponse {
	kind := ml.ErrorKind(err)
	a.metrics.ObserveError(kind)

	fields := []zap.Field{zap.String("request_id", requestID), zap.String("kind", kind), zap.Error(err)}
	if kind == ml.KindInternal {
		a.logger.Error("prediction failed", fields...)
	} else {
		a.logger.Info("prediction rejected", fields...)
	}
	return newErrorResponse(err)
}

func (a *api) handlePredict(w http.ResponseWriter, r *http.Request) {
	rec, err := decodeRecord(r.Body)
	writeJSON(w, http.StatusOK, a.predict(GetRequestID(r.Context()), rec, err))
}

func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(a.started).Seconds()),
	})
}

func (a *api) handleModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.predictor.Info())
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
