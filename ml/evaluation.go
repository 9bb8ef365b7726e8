package ml

import (
	"math"
	"math/rand"
)

// Metrics summarises held-out performance for the positive class.
type Metrics struct {
	Samples   int     `json:"samples"`
	Errors    int     `json:"errors"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// SplitRecords shuffles with a fixed seed and holds out testRatio of the
// records. Ratios outside (0,1) fall back to 0.2.
func SplitRecords(records []TrainingRecord, testRatio float64, seed int64) (train, test []TrainingRecord) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(len(records))

	split := int(math.Round(float64(len(records)) * (1 - testRatio)))
	for i, idx := range indices {
		if i < split {
			train = append(train, records[idx])
		} else {
			test = append(test, records[idx])
		}
	}
	return train, test
}

// Evaluate scores model on records. Records the model cannot score, such as
// ones with categories unseen during training, are counted in Errors and
// excluded from the ratios.
func Evaluate(model *Model, records []TrainingRecord) Metrics {
	var m Metrics
	var correct, truePositive, predictedPositive, actualPositive int

	for _, rec := range records {
		pred, err := model.Predict(rec.Record)
		if err != nil {
			m.Errors++
			continue
		}
		m.Samples++
		if pred.Label == rec.HeartDisease {
			correct++
		}
		if pred.Label == PositiveClass {
			predictedPositive++
		}
		if rec.HeartDisease == PositiveClass {
			actualPositive++
			if pred.Label == PositiveClass {
				truePositive++
			}
		}
	}

	if m.Samples == 0 {
		return m
	}
	m.Accuracy = float64(correct) / float64(m.Samples)
	if predictedPositive > 0 {
		m.Precision = float64(truePositive) / float64(predictedPositive)
	}
	if actualPositive > 0 {
		m.Recall = float64(truePositive) / float64(actualPositive)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}
