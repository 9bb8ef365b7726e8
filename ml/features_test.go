package ml

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureColumnOrder(t *testing.T) {
	want := []string{
		"Age", "Sex", "ChestPainType", "RestingBP", "Cholesterol", "FastingBS",
		"RestingECG", "MaxHR", "ExerciseAngina", "Oldpeak", "ST_Slope",
	}
	assert.Equal(t, want, FeatureNames())
	assert.Len(t, FeatureColumns, FeatureCount)
}

func TestFeatureVector(t *testing.T) {
	registry, err := BuildRegistry(fixtureRecords())
	require.NoError(t, err)

	vector, err := FeatureVector(sampleRecord(), registry)
	require.NoError(t, err)
	require.Len(t, vector, FeatureCount)

	// Sex: F,M  ChestPainType: ASY,ATA,NAP,TA  RestingECG: LVH,Normal,ST
	// ExerciseAngina: N,Y  ST_Slope: Down,Flat,Up
	want := []float64{54, 1, 0, 140, 239, 0, 1, 160, 0, 1.2, 1}
	assert.Equal(t, want, vector)
}

func TestFeatureVectorKeepsNumericSlots(t *testing.T) {
	registry, err := BuildRegistry(fixtureRecords())
	require.NoError(t, err)

	rec := sampleRecord()
	rec.Age, rec.RestingBP = 60, 140
	a, err := FeatureVector(rec, registry)
	require.NoError(t, err)

	rec.Age, rec.RestingBP = 140, 60
	b, err := FeatureVector(rec, registry)
	require.NoError(t, err)

	assert.Equal(t, 60.0, a[0])
	assert.Equal(t, 140.0, a[3])
	assert.Equal(t, 140.0, b[0])
	assert.Equal(t, 60.0, b[3])
}

func TestFeatureVectorUnknownCategory(t *testing.T) {
	registry, err := BuildRegistry(fixtureRecords())
	require.NoError(t, err)

	rec := sampleRecord()
	rec.STSlope = "Sideways"
	_, err = FeatureVector(rec, registry)
	var catErr *UnknownCategoryError
	require.True(t, errors.As(err, &catErr))
	assert.Equal(t, ColSTSlope, catErr.Field)
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Record)
		field  string
	}{
		{"empty sex", func(r *Record) { r.Sex = "" }, ColSex},
		{"empty slope", func(r *Record) { r.STSlope = "" }, ColSTSlope},
		{"fasting bs not binary", func(r *Record) { r.FastingBS = 2 }, ColFastingBS},
		{"oldpeak nan", func(r *Record) { r.Oldpeak = math.NaN() }, ColOldpeak},
		{"oldpeak inf", func(r *Record) { r.Oldpeak = math.Inf(1) }, ColOldpeak},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sampleRecord()
			tt.modify(&rec)
			err := rec.Validate()
			var inputErr *InputError
			require.True(t, errors.As(err, &inputErr), "got %v", err)
			assert.Equal(t, tt.field, inputErr.Field)
			assert.True(t, errors.Is(err, ErrInvalidInput))
		})
	}

	assert.NoError(t, sampleRecord().Validate())
}
