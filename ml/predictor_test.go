package ml

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	classes []int
	label   int
	proba   []float64
	fitErr  error
}

func (s *stubClassifier) Fit(X [][]float64, y []int) error { return s.fitErr }

func (s *stubClassifier) Predict(X [][]float64) ([]int, error) {
	return []int{s.label}, nil
}

func (s *stubClassifier) PredictProba(X [][]float64) ([][]float64, error) {
	return [][]float64{s.proba}, nil
}

func (s *stubClassifier) Classes() []int { return s.classes }

func trainFixture(t *testing.T) *Model {
	t.Helper()
	model, err := Train(fixtureRecords())
	require.NoError(t, err)
	return model
}

func TestModelPredict(t *testing.T) {
	model := trainFixture(t)

	first, err := model.Predict(sampleRecord())
	require.NoError(t, err)
	assert.Contains(t, []int{0, 1}, first.Label)
	assert.GreaterOrEqual(t, first.Probability, 0.0)
	assert.LessOrEqual(t, first.Probability, 1.0)

	second, err := model.Predict(sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestModelPredictLabelMatchesProbability(t *testing.T) {
	model := trainFixture(t)

	for _, rec := range fixtureRecords() {
		pred, err := model.Predict(rec.Record)
		require.NoError(t, err)
		if pred.Probability > 0.5 {
			assert.Equal(t, 1, pred.Label)
		}
		if pred.Probability < 0.5 {
			assert.Equal(t, 0, pred.Label)
		}
	}
}

func TestModelPredictUnknownCategory(t *testing.T) {
	model := trainFixture(t)

	rec := sampleRecord()
	rec.ChestPainType = "XYZ"
	_, err := model.Predict(rec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCategory))
	assert.Equal(t, KindUnknownCategory, ErrorKind(err))
}

func TestModelPredictInvalidInput(t *testing.T) {
	model := trainFixture(t)

	rec := sampleRecord()
	rec.ExerciseAngina = ""
	_, err := model.Predict(rec)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, KindInvalidInput, ErrorKind(err))

	rec = sampleRecord()
	rec.Oldpeak = 1e300
	_, err = model.Predict(rec)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestModelPredictIsColumnOrderSensitive(t *testing.T) {
	model := trainFixture(t)

	rec := sampleRecord()
	rec.Age, rec.RestingBP = 60, 140
	a, err := model.Predict(rec)
	require.NoError(t, err)

	rec.Age, rec.RestingBP = 140, 60
	b, err := model.Predict(rec)
	require.NoError(t, err)

	assert.NotEqual(t, a.Probability, b.Probability)
}

func TestModelProbabilityIsPositiveClass(t *testing.T) {
	stub := &stubClassifier{classes: []int{0, 1}, label: 0, proba: []float64{0.8, 0.2}}
	model, err := Train(fixtureRecords(), WithClassifier(stub))
	require.NoError(t, err)

	pred, err := model.Predict(sampleRecord())
	require.NoError(t, err)
	assert.Equal(t, 0, pred.Label)
	assert.Equal(t, 0.2, pred.Probability)
}

func TestTrainFailures(t *testing.T) {
	t.Run("no positive class", func(t *testing.T) {
		stub := &stubClassifier{classes: []int{0}}
		_, err := Train(fixtureRecords(), WithClassifier(stub))
		assert.True(t, errors.Is(err, ErrStartup))
	})

	t.Run("fit error", func(t *testing.T) {
		stub := &stubClassifier{fitErr: errors.New("boom")}
		_, err := Train(fixtureRecords(), WithClassifier(stub))
		assert.True(t, errors.Is(err, ErrStartup))
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("label out of range", func(t *testing.T) {
		records := fixtureRecords()
		records[0].HeartDisease = 2
		_, err := Train(records)
		assert.True(t, errors.Is(err, ErrStartup))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Train(nil)
		assert.True(t, errors.Is(err, ErrStartup))
	})
}

func TestModelInfo(t *testing.T) {
	trainedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	model, err := Train(fixtureRecords(), WithClock(func() time.Time { return trainedAt }))
	require.NoError(t, err)

	info := model.Info()
	assert.Equal(t, FeatureNames(), info.Columns)
	assert.Equal(t, []int{0, 1}, info.Classes)
	assert.Equal(t, 20, info.Samples)
	assert.Equal(t, trainedAt, info.TrainedAt)
	assert.Equal(t, []string{"ASY", "ATA", "NAP", "TA"}, info.Vocabularies[ColChestPainType])
	require.Len(t, info.Priors, 2)
	assert.InDelta(t, 1.0, info.Priors[0]+info.Priors[1], 1e-12)
}

func TestModelPredictConcurrent(t *testing.T) {
	model := trainFixture(t)
	want, err := model.Predict(sampleRecord())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := model.Predict(sampleRecord())
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
