package ml

import (
	"fmt"
	"math"
	"time"
)

// PositiveClass is the outcome denoting presence of heart disease.
const PositiveClass = 1

// Prediction is the result of scoring one record. Probability is always
// P(label=1), whichever label is returned.
type Prediction struct {
	Label       int     `json:"label"`
	Probability float64 `json:"probability"`
}

// ModelInfo describes a trained model for operators.
type ModelInfo struct {
	Classifier   string              `json:"classifier"`
	Columns      []string            `json:"columns"`
	Vocabularies map[string][]string `json:"vocabularies"`
	Classes      []int               `json:"classes"`
	Priors       []float64           `json:"priors,omitempty"`
	Samples      int                 `json:"samples"`
	TrainedAt    time.Time           `json:"trained_at"`
}

// Model bundles the encoder registry with a fitted classifier. It is built
// once by Train and only read afterwards, so it is safe for concurrent use.
type Model struct {
	registry   *Registry
	classifier Classifier
	positive   int
	samples    int
	trainedAt  time.Time
}

type trainOptions struct {
	classifier   Classifier
	varSmoothing float64
	now          func() time.Time
}

// TrainOption customises Train.
type TrainOption func(*trainOptions)

// WithClassifier replaces the default GaussianNB.
func WithClassifier(c Classifier) TrainOption {
	return func(o *trainOptions) { o.classifier = c }
}

// WithVarSmoothing sets GaussianNB variance smoothing.
func WithVarSmoothing(v float64) TrainOption {
	return func(o *trainOptions) { o.varSmoothing = v }
}

// WithClock overrides the training timestamp source.
func WithClock(now func() time.Time) TrainOption {
	return func(o *trainOptions) { o.now = now }
}

// Train builds the registry and fits the classifier. Every failure wraps
// ErrStartup.
func Train(records []TrainingRecord, opts ...TrainOption) (*Model, error) {
	o := trainOptions{varSmoothing: DefaultVarSmoothing, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.classifier == nil {
		o.classifier = NewGaussianNB(o.varSmoothing)
	}

	registry, err := BuildRegistry(records)
	if err != nil {
		return nil, err
	}
	X, y, err := BuildTrainingSet(records, registry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStartup, err)
	}
	if err := o.classifier.Fit(X, y); err != nil {
		return nil, fmt.Errorf("%w: fit classifier: %v", ErrStartup, err)
	}

	positive := -1
	for i, class := range o.classifier.Classes() {
		if class == PositiveClass {
			positive = i
		}
	}
	if positive < 0 {
		return nil, startupError("training data has no %s=%d rows", ColHeartDisease, PositiveClass)
	}

	return &Model{
		registry:   registry,
		classifier: o.classifier,
		positive:   positive,
		samples:    len(records),
		trainedAt:  o.now(),
	}, nil
}

// Predict validates and scores one record.
func (m *Model) Predict(r Record) (Prediction, error) {
	if err := r.Validate(); err != nil {
		return Prediction{}, err
	}
	vector, err := FeatureVector(r, m.registry)
	if err != nil {
		return Prediction{}, err
	}
	X := [][]float64{vector}

	labels, err := m.classifier.Predict(X)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}
	proba, err := m.classifier.PredictProba(X)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict proba: %w", err)
	}
	if len(labels) != 1 || len(proba) != 1 || len(proba[0]) <= m.positive {
		return Prediction{}, fmt.Errorf("classifier returned malformed output")
	}

	p := proba[0][m.positive]
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return Prediction{}, &InputError{Reason: "feature values out of numeric range"}
	}
	return Prediction{Label: labels[0], Probability: p}, nil
}

// Info describes the fitted model.
func (m *Model) Info() ModelInfo {
	info := ModelInfo{
		Classifier:   fmt.Sprintf("%T", m.classifier),
		Columns:      FeatureNames(),
		Vocabularies: m.registry.Vocabularies(),
		Classes:      m.classifier.Classes(),
		Samples:      m.samples,
		TrainedAt:    m.trainedAt,
	}
	if nb, ok := m.classifier.(*GaussianNB); ok {
		info.Priors = nb.Priors()
	}
	return info
}
