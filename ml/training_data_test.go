package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTrainingSet(t *testing.T) {
	records := fixtureRecords()
	registry, err := BuildRegistry(records)
	require.NoError(t, err)

	features, labels, err := BuildTrainingSet(records, registry)
	require.NoError(t, err)
	require.Len(t, features, len(records))
	assert.Equal(t, Labels(records), labels)
	for _, row := range features {
		assert.Len(t, row, FeatureCount)
	}
}

func TestBuildTrainingSetErrors(t *testing.T) {
	records := fixtureRecords()
	registry, err := BuildRegistry(records)
	require.NoError(t, err)

	_, _, err = BuildTrainingSet(nil, registry)
	assert.Error(t, err)

	_, _, err = BuildTrainingSet(records, nil)
	assert.Error(t, err)

	records[5].FastingBS = 3
	_, _, err = BuildTrainingSet(records, registry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 6")
}

func TestSplitRecords(t *testing.T) {
	records := fixtureRecords()

	train, test := SplitRecords(records, 0.25, 7)
	assert.Len(t, train, 15)
	assert.Len(t, test, 5)

	again, _ := SplitRecords(records, 0.25, 7)
	assert.Equal(t, train, again)

	train, test = SplitRecords(records, 5, 7)
	assert.Len(t, train, 16)
	assert.Len(t, test, 4)
}

func TestEvaluate(t *testing.T) {
	model := trainFixture(t)

	metrics := Evaluate(model, fixtureRecords())
	assert.Equal(t, 20, metrics.Samples)
	assert.Zero(t, metrics.Errors)
	assert.Greater(t, metrics.Accuracy, 0.5)
	assert.LessOrEqual(t, metrics.Accuracy, 1.0)
	assert.LessOrEqual(t, metrics.Precision, 1.0)
	assert.LessOrEqual(t, metrics.Recall, 1.0)

	unseen := fixtureRecords()[:2]
	unseen[0].ChestPainType = "XYZ"
	metrics = Evaluate(model, unseen)
	assert.Equal(t, 1, metrics.Errors)
	assert.Equal(t, 1, metrics.Samples)
}
