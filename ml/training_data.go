package ml

import (
	"errors"
	"fmt"
)

// BuildTrainingSet encodes records into a feature matrix and label vector.
// Labels must be 0 or 1.
func BuildTrainingSet(records []TrainingRecord, registry *Registry) (features [][]float64, labels []int, err error) {
	if len(records) == 0 {
		return nil, nil, errors.New("records is empty")
	}
	if registry == nil {
		return nil, nil, errors.New("registry is required")
	}

	features = make([][]float64, 0, len(records))
	labels = make([]int, 0, len(records))
	for i, rec := range records {
		if rec.HeartDisease != 0 && rec.HeartDisease != 1 {
			return nil, nil, fmt.Errorf("row %d: %s must be 0 or 1, got %d", i+1, ColHeartDisease, rec.HeartDisease)
		}
		if err := rec.Record.Validate(); err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		vector, err := FeatureVector(rec.Record, registry)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		features = append(features, vector)
		labels = append(labels, rec.HeartDisease)
	}
	return features, labels, nil
}

// Labels returns the outcome column.
func Labels(records []TrainingRecord) []int {
	labels := make([]int, len(records))
	for i, rec := range records {
		labels[i] = rec.HeartDisease
	}
	return labels
}
