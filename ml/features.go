package ml

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Column names as they appear in the training data and on the wire.
const (
	ColAge            = "Age"
	ColSex            = "Sex"
	ColChestPainType  = "ChestPainType"
	ColRestingBP      = "RestingBP"
	ColCholesterol    = "Cholesterol"
	ColFastingBS      = "FastingBS"
	ColRestingECG     = "RestingECG"
	ColMaxHR          = "MaxHR"
	ColExerciseAngina = "ExerciseAngina"
	ColOldpeak        = "Oldpeak"
	ColSTSlope        = "ST_Slope"

	ColHeartDisease = "HeartDisease"
)

// FeatureCount is the length of every feature vector.
const FeatureCount = 11

// FeatureColumns is the column order used for training and inference. The
// classifier has no notion of column names, so reordering this array silently
// corrupts predictions.
var FeatureColumns = [FeatureCount]string{
	ColAge,
	ColSex,
	ColChestPainType,
	ColRestingBP,
	ColCholesterol,
	ColFastingBS,
	ColRestingECG,
	ColMaxHR,
	ColExerciseAngina,
	ColOldpeak,
	ColSTSlope,
}

// CategoricalColumns are the columns passed through the encoder registry.
var CategoricalColumns = [...]string{
	ColSex,
	ColChestPainType,
	ColRestingECG,
	ColExerciseAngina,
	ColSTSlope,
}

// Record is one patient as submitted for inference.
type Record struct {
	Age            int     `json:"Age"`
	Sex            string  `json:"Sex" validate:"required"`
	ChestPainType  string  `json:"ChestPainType" validate:"required"`
	RestingBP      int     `json:"RestingBP"`
	Cholesterol    int     `json:"Cholesterol"`
	FastingBS      int     `json:"FastingBS" validate:"oneof=0 1"`
	RestingECG     string  `json:"RestingECG" validate:"required"`
	MaxHR          int     `json:"MaxHR"`
	ExerciseAngina string  `json:"ExerciseAngina" validate:"required"`
	Oldpeak        float64 `json:"Oldpeak"`
	STSlope        string  `json:"ST_Slope" validate:"required"`
}

// TrainingRecord is a Record with its observed outcome.
type TrainingRecord struct {
	Record
	HeartDisease int `json:"HeartDisease" validate:"oneof=0 1"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks field-level constraints that do not depend on the trained
// vocabulary.
func (r Record) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err)
	}
	if math.IsNaN(r.Oldpeak) || math.IsInf(r.Oldpeak, 0) {
		return &InputError{Field: ColOldpeak, Reason: "must be a finite number"}
	}
	return nil
}

// Categorical returns the raw value of a categorical column.
func (r Record) Categorical(column string) (string, bool) {
	switch column {
	case ColSex:
		return r.Sex, true
	case ColChestPainType:
		return r.ChestPainType, true
	case ColRestingECG:
		return r.RestingECG, true
	case ColExerciseAngina:
		return r.ExerciseAngina, true
	case ColSTSlope:
		return r.STSlope, true
	}
	return "", false
}

// Numeric returns the value of a numeric column.
func (r Record) Numeric(column string) (float64, bool) {
	switch column {
	case ColAge:
		return float64(r.Age), true
	case ColRestingBP:
		return float64(r.RestingBP), true
	case ColCholesterol:
		return float64(r.Cholesterol), true
	case ColFastingBS:
		return float64(r.FastingBS), true
	case ColMaxHR:
		return float64(r.MaxHR), true
	case ColOldpeak:
		return r.Oldpeak, true
	}
	return 0, false
}

// FeatureVector encodes a record into FeatureColumns order.
func FeatureVector(r Record, registry *Registry) ([]float64, error) {
	vector := make([]float64, FeatureCount)
	for i, column := range FeatureColumns {
		if value, ok := r.Categorical(column); ok {
			code, err := registry.Encode(column, value)
			if err != nil {
				return nil, err
			}
			vector[i] = float64(code)
			continue
		}
		value, ok := r.Numeric(column)
		if !ok {
			return nil, &InputError{Field: column, Reason: "has no value"}
		}
		vector[i] = value
	}
	return vector, nil
}

// FeatureNames returns FeatureColumns as a slice.
func FeatureNames() []string {
	return append([]string(nil), FeatureColumns[:]...)
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &InputError{Reason: err.Error()}
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return &InputError{Field: fe.Field(), Reason: "is required"}
	case "oneof":
		return &InputError{Field: fe.Field(), Reason: "must be one of " + fe.Param()}
	default:
		return &InputError{Field: fe.Field(), Reason: "failed " + fe.Tag() + " check"}
	}
}
