package ml

import (
	"sort"
)

// Encoder is a fixed bijection between the distinct values of one categorical
// column and the codes 0..k-1, assigned in sorted value order.
type Encoder struct {
	values []string
	codes  map[string]int
}

// NewEncoder builds an encoder from every value observed for a column.
// Duplicates are collapsed; order of the input does not matter.
func NewEncoder(observed []string) *Encoder {
	seen := make(map[string]struct{}, len(observed))
	values := make([]string, 0)
	for _, v := range observed {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)

	codes := make(map[string]int, len(values))
	for i, v := range values {
		codes[v] = i
	}
	return &Encoder{values: values, codes: codes}
}

// Encode returns the code of value, or an UnknownCategoryError.
func (e *Encoder) Encode(value string) (int, error) {
	code, ok := e.codes[value]
	if !ok {
		return 0, &UnknownCategoryError{Value: value}
	}
	return code, nil
}

// Decode returns the value for code, or an InvalidCodeError when code is
// outside 0..Len()-1.
func (e *Encoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.values) {
		return "", &InvalidCodeError{Code: code, Size: len(e.values)}
	}
	return e.values[code], nil
}

// Len is the number of distinct trained values.
func (e *Encoder) Len() int {
	return len(e.values)
}

// Vocabulary returns the trained values in code order.
func (e *Encoder) Vocabulary() []string {
	return append([]string(nil), e.values...)
}

// Registry holds one Encoder per categorical column. It is never modified
// after BuildRegistry returns.
type Registry struct {
	encoders map[string]*Encoder
}

// BuildRegistry fits one Encoder per categorical column. Empty values and
// an empty dataset fail with ErrStartup.
func BuildRegistry(records []TrainingRecord) (*Registry, error) {
	if len(records) == 0 {
		return nil, startupError("no training records")
	}
	encoders := make(map[string]*Encoder, len(CategoricalColumns))
	for _, column := range CategoricalColumns {
		observed := make([]string, len(records))
		for i, rec := range records {
			value, _ := rec.Categorical(column)
			if value == "" {
				return nil, startupError("row %d: empty value for %s", i+1, column)
			}
			observed[i] = value
		}
		encoders[column] = NewEncoder(observed)
	}
	return &Registry{encoders: encoders}, nil
}

// Encoder returns the encoder for column.
func (r *Registry) Encoder(column string) (*Encoder, bool) {
	enc, ok := r.encoders[column]
	return enc, ok
}

// Encode maps value through the encoder for column. Unknown values fail with
// an UnknownCategoryError naming the column.
func (r *Registry) Encode(column, value string) (int, error) {
	enc, ok := r.encoders[column]
	if !ok {
		return 0, &InputError{Field: column, Reason: "is not a categorical column"}
	}
	code, err := enc.Encode(value)
	if err != nil {
		return 0, &UnknownCategoryError{Field: column, Value: value}
	}
	return code, nil
}

// Decode maps code back through the encoder for column.
func (r *Registry) Decode(column string, code int) (string, error) {
	enc, ok := r.encoders[column]
	if !ok {
		return "", &InputError{Field: column, Reason: "is not a categorical column"}
	}
	return enc.Decode(code)
}

// Vocabularies returns every column's values in code order.
func (r *Registry) Vocabularies() map[string][]string {
	out := make(map[string][]string, len(r.encoders))
	for column, enc := range r.encoders {
		out[column] = enc.Vocabulary()
	}
	return out
}
