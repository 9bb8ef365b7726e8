package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"heartcheck/ml"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource reads training rows from a headered CSV file. Columns are
// addressed by header name, so their order does not matter and unknown
// columns are ignored.
type CSVSource struct {
	Path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

func (s *CSVSource) Load(ctx context.Context) ([]ml.TrainingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		var ingestErr *IngestionError
		if errors.As(err, &ingestErr) {
			ingestErr.Source = s.Describe()
		}
		return nil, err
	}
	return records, nil
}

func (s *CSVSource) Describe() string {
	return "csv:" + s.Path
}

func (s *CSVSource) Close() error {
	return nil
}

// IngestionError collects row-level problems found while reading or cleaning
// a dataset. It unwraps to ml.ErrStartup.
type IngestionError struct {
	Source string
	Issues []QualityIssue
}

func (e *IngestionError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "%d data quality issue(s)", len(e.Issues))
	for i, issue := range e.Issues {
		if i == 3 {
			fmt.Fprintf(&b, "; and %d more", len(e.Issues)-i)
			break
		}
		b.WriteString("; ")
		b.WriteString(issue.String())
	}
	return b.String()
}

func (e *IngestionError) Unwrap() error { return ml.ErrStartup }

// ReadCSV parses a headered CSV stream into training records. Every row is
// checked; all parse failures are reported together.
func ReadCSV(r io.Reader) ([]ml.TrainingRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &IngestionError{Issues: []QualityIssue{{Rule: "header", Severity: SeverityHigh, Message: "file is empty"}}}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = string(bytes.TrimPrefix([]byte(name), utf8BOM))
		}
		index[strings.TrimSpace(name)] = i
	}
	required := append(ml.FeatureNames(), ml.ColHeartDisease)
	var missing []string
	for _, column := range required {
		if _, ok := index[column]; !ok {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return nil, &IngestionError{Issues: []QualityIssue{{
			Rule:     "header",
			Severity: SeverityHigh,
			Message:  "missing column(s) " + strings.Join(missing, ", "),
		}}}
	}

	var records []ml.TrainingRecord
	var issues []QualityIssue
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			issues = append(issues, QualityIssue{Row: row, Rule: "parse", Severity: SeverityHigh, Message: err.Error()})
			continue
		}
		rec, err := parseRow(fields, index)
		if err != nil {
			issues = append(issues, QualityIssue{Row: row, Rule: "parse", Severity: SeverityHigh, Message: err.Error()})
			continue
		}
		records = append(records, rec)
	}
	if len(issues) > 0 {
		return nil, &IngestionError{Issues: issues}
	}
	return records, nil
}

func parseRow(fields []string, index map[string]int) (ml.TrainingRecord, error) {
	p := rowParser{fields: fields, index: index}
	rec := ml.TrainingRecord{
		Record: ml.Record{
			Age:            p.integer(ml.ColAge),
			Sex:            p.raw(ml.ColSex),
			ChestPainType:  p.raw(ml.ColChestPainType),
			RestingBP:      p.integer(ml.ColRestingBP),
			Cholesterol:    p.integer(ml.ColCholesterol),
			FastingBS:      p.integer(ml.ColFastingBS),
			RestingECG:     p.raw(ml.ColRestingECG),
			MaxHR:          p.integer(ml.ColMaxHR),
			ExerciseAngina: p.raw(ml.ColExerciseAngina),
			Oldpeak:        p.number(ml.ColOldpeak),
			STSlope:        p.raw(ml.ColSTSlope),
		},
		HeartDisease: p.integer(ml.ColHeartDisease),
	}
	return rec, p.err
}

// rowParser keeps the first conversion error so a row can be parsed in one
// expression.
type rowParser struct {
	fields []string
	index  map[string]int
	err    error
}

func (p *rowParser) raw(column string) string {
	i := p.index[column]
	if i >= len(p.fields) {
		return ""
	}
	return strings.TrimSpace(p.fields[i])
}

func (p *rowParser) integer(column string) int {
	value := p.raw(column)
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		p.fail(column, value, "an integer")
		return 0
	}
	return int(f)
}

func (p *rowParser) number(column string) float64 {
	value := p.raw(column)
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.fail(column, value, "a number")
		return 0
	}
	return f
}

func (p *rowParser) fail(column, value, want string) {
	if p.err == nil {
		p.err = fmt.Errorf("%s: %q is not %s", column, value, want)
	}
}
