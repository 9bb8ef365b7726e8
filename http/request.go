package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"heartcheck/ml"
)

// predictRequest is the wire form of ml.Record. Pointers tell a missing
// field apart from a zero value; json.Number accepts both 54 and "54".
type predictRequest struct {
	Age            *json.Number `json:"Age" validate:"required"`
	Sex            *string      `json:"Sex" validate:"required"`
	ChestPainType  *string      `json:"ChestPainType" validate:"required"`
	RestingBP      *json.Number `json:"RestingBP" validate:"required"`
	Cholesterol    *json.Number `json:"Cholesterol" validate:"required"`
	FastingBS      *json.Number `json:"FastingBS" validate:"required"`
	RestingECG     *string      `json:"RestingECG" validate:"required"`
	MaxHR          *json.Number `json:"MaxHR" validate:"required"`
	ExerciseAngina *string      `json:"ExerciseAngina" validate:"required"`
	Oldpeak        *json.Number `json:"Oldpeak" validate:"required"`
	STSlope        *string      `json:"ST_Slope" validate:"required"`
}

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

// decodeRecord reads one request body into a record. Every failure is an
// *ml.InputError.
func decodeRecord(r io.Reader) (ml.Record, error) {
	var req predictRequest
	dec := json.NewDecoder(r)
	if err := dec.Decode(&req); err != nil {
		return ml.Record{}, decodeError(err)
	}
	// The body must hold exactly one JSON value, as json.Unmarshal requires.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return ml.Record{}, decodeError(err)
		}
		return ml.Record{}, malformedBody()
	}
	return req.record()
}

// parseRecord is decodeRecord for an in-memory payload.
func parseRecord(payload []byte) (ml.Record, error) {
	var req predictRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return ml.Record{}, decodeError(err)
	}
	return req.record()
}

func (req *predictRequest) record() (ml.Record, error) {
	if err := requestValidator.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return ml.Record{}, &ml.InputError{Field: fieldErrs[0].Field(), Reason: "is required"}
		}
		return ml.Record{}, &ml.InputError{Reason: err.Error()}
	}

	p := numberParser{}
	rec := ml.Record{
		Age:            p.integer(ml.ColAge, *req.Age),
		Sex:            *req.Sex,
		ChestPainType:  *req.ChestPainType,
		RestingBP:      p.integer(ml.ColRestingBP, *req.RestingBP),
		Cholesterol:    p.integer(ml.ColCholesterol, *req.Cholesterol),
		FastingBS:      p.integer(ml.ColFastingBS, *req.FastingBS),
		RestingECG:     *req.RestingECG,
		MaxHR:          p.integer(ml.ColMaxHR, *req.MaxHR),
		ExerciseAngina: *req.ExerciseAngina,
		Oldpeak:        p.float(ml.ColOldpeak, *req.Oldpeak),
		STSlope:        *req.STSlope,
	}
	if p.err != nil {
		return ml.Record{}, p.err
	}
	return rec, nil
}

type numberParser struct {
	err error
}

func (p *numberParser) integer(field string, n json.Number) int {
	if v, err := n.Int64(); err == nil {
		if v < math.MinInt32 || v > math.MaxInt32 {
			p.fail(field, "is out of range")
			return 0
		}
		return int(v)
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		p.fail(field, "must be an integer")
		return 0
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		p.fail(field, "is out of range")
		return 0
	}
	return int(f)
}

func (p *numberParser) float(field string, n json.Number) float64 {
	f, err := n.Float64()
	if err != nil {
		p.fail(field, "must be a number")
		return 0
	}
	return f
}

func (p *numberParser) fail(field, reason string) {
	if p.err == nil {
		p.err = &ml.InputError{Field: field, Reason: reason}
	}
}

// invalidNumberPrefix starts the untyped error encoding/json returns when a
// quoted string bound to a json.Number is not a number.
const invalidNumberPrefix = "json: invalid number literal"

func malformedBody() error {
	return &ml.InputError{Reason: "malformed JSON body"}
}

func decodeError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		maxErr    *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return &ml.InputError{Reason: "request body is empty"}
	case errors.As(err, &maxErr):
		return &ml.InputError{Reason: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return malformedBody()
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return &ml.InputError{Reason: "body must be a JSON object"}
		}
		want := "a number"
		if typeErr.Type.Kind() == reflect.String && typeErr.Type != reflect.TypeOf(json.Number("")) {
			want = "a string"
		}
		return &ml.InputError{Field: typeErr.Field, Reason: "must be " + want}
	case strings.HasPrefix(err.Error(), invalidNumberPrefix):
		return &ml.InputError{Reason: "numeric field holds a non-numeric string"}
	default:
		return &ml.InputError{Reason: err.Error()}
	}
}
