package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"heartcheck/ml"
)

// Issue severities. High severity rejects the row.
const (
	SeverityLow  = "low"
	SeverityHigh = "high"
)

// CleaningRule checks one training row and may correct it in place.
type CleaningRule interface {
	Apply(*ml.TrainingRecord) error
	Name() string
}

// Warning is returned by a rule for a problem that does not reject the row.
type Warning struct {
	Message string
}

func (w *Warning) Error() string { return w.Message }

// QualityIssue is one problem found in a dataset row. Row is 1-based and
// excludes the header; zero means the issue concerns the whole dataset.
type QualityIssue struct {
	Row      int    `json:"row"`
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

func (q QualityIssue) String() string {
	if q.Row == 0 {
		return fmt.Sprintf("%s: %s", q.Rule, q.Message)
	}
	return fmt.Sprintf("row %d: %s: %s", q.Row, q.Rule, q.Message)
}

// CleaningStats summarises the last runs of a DataCleaner.
type CleaningStats struct {
	TotalProcessed int64            `json:"total_processed"`
	Passed         int64            `json:"passed"`
	Rejected       int64            `json:"rejected"`
	Corrected      int64            `json:"corrected"`
	Issues         map[string]int64 `json:"issues"`
	LastClean      time.Time        `json:"last_clean"`
}

// DataCleaner runs every rule over every row.
type DataCleaner struct {
	rules  []CleaningRule
	logger *zap.Logger

	stats     CleaningStats
	statsLock sync.RWMutex
}

// NewDataCleaner returns a cleaner with the default rules.
func NewDataCleaner(logger *zap.Logger) *DataCleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	cleaner := &DataCleaner{
		logger: logger,
		stats:  CleaningStats{Issues: make(map[string]int64)},
	}

	cleaner.AddRule(NewCategoryTrimRule())
	cleaner.AddRule(NewRequiredCategoryRule())
	cleaner.AddRule(NewBinaryFlagRule())
	cleaner.AddRule(NewFiniteValueRule())
	cleaner.AddRule(NewDuplicateDetectionRule())

	return cleaner
}

func (dc *DataCleaner) AddRule(rule CleaningRule) {
	dc.rules = append(dc.rules, rule)
	dc.logger.Debug("added cleaning rule", zap.String("rule", rule.Name()))
}

// Clean returns the rows that passed every rule along with all issues found.
// Rows are never reordered.
func (dc *DataCleaner) Clean(records []ml.TrainingRecord) ([]ml.TrainingRecord, []QualityIssue) {
	cleaned := make([]ml.TrainingRecord, 0, len(records))
	var issues []QualityIssue

	dc.statsLock.Lock()
	defer dc.statsLock.Unlock()

	for i := range records {
		rec := records[i]
		original := rec
		rejected := false
		dc.stats.TotalProcessed++

		for _, rule := range dc.rules {
			err := rule.Apply(&rec)
			if err == nil {
				continue
			}
			issue := QualityIssue{Row: i + 1, Rule: rule.Name(), Severity: SeverityHigh, Message: err.Error()}
			var warning *Warning
			if errors.As(err, &warning) {
				issue.Severity = SeverityLow
			} else {
				rejected = true
			}
			issues = append(issues, issue)
			dc.stats.Issues[rule.Name()]++
		}

		if rejected {
			dc.stats.Rejected++
			continue
		}
		if rec != original {
			dc.stats.Corrected++
		}
		dc.stats.Passed++
		cleaned = append(cleaned, rec)
	}
	dc.stats.LastClean = time.Now()

	for _, issue := range issues {
		if issue.Severity == SeverityLow {
			dc.logger.Warn("data quality warning", zap.Int("row", issue.Row), zap.String("rule", issue.Rule), zap.String("message", issue.Message))
		}
	}
	return cleaned, issues
}

// GetStats returns a snapshot of the counters.
func (dc *DataCleaner) GetStats() CleaningStats {
	dc.statsLock.RLock()
	defer dc.statsLock.RUnlock()

	stats := dc.stats
	stats.Issues = make(map[string]int64, len(dc.stats.Issues))
	for k, v := range dc.stats.Issues {
		stats.Issues[k] = v
	}
	return stats
}

// Rejections filters issues down to those that reject a row.
func Rejections(issues []QualityIssue) []QualityIssue {
	var out []QualityIssue
	for _, issue := range issues {
		if issue.Severity == SeverityHigh {
			out = append(out, issue)
		}
	}
	return out
}

// ============ rules ============

// CategoryTrimRule strips surrounding whitespace from categorical values.
type CategoryTrimRule struct{}

func NewCategoryTrimRule() *CategoryTrimRule { return &CategoryTrimRule{} }

func (r *CategoryTrimRule) Name() string { return "category_trim" }

func (r *CategoryTrimRule) Apply(rec *ml.TrainingRecord) error {
	for _, field := range categoricalFields(rec) {
		*field = strings.TrimSpace(*field)
	}
	return nil
}

// RequiredCategoryRule rejects rows with an empty categorical value.
type RequiredCategoryRule struct{}

func NewRequiredCategoryRule() *RequiredCategoryRule { return &RequiredCategoryRule{} }

func (r *RequiredCategoryRule) Name() string { return "required_category" }

func (r *RequiredCategoryRule) Apply(rec *ml.TrainingRecord) error {
	for _, column := range ml.CategoricalColumns {
		if value, _ := rec.Categorical(column); value == "" {
			return fmt.Errorf("%s is empty", column)
		}
	}
	return nil
}

// BinaryFlagRule rejects rows whose FastingBS or HeartDisease is not 0 or 1.
type BinaryFlagRule struct{}

func NewBinaryFlagRule() *BinaryFlagRule { return &BinaryFlagRule{} }

func (r *BinaryFlagRule) Name() string { return "binary_flag" }

func (r *BinaryFlagRule) Apply(rec *ml.TrainingRecord) error {
	if rec.FastingBS != 0 && rec.FastingBS != 1 {
		return fmt.Errorf("%s must be 0 or 1, got %d", ml.ColFastingBS, rec.FastingBS)
	}
	if rec.HeartDisease != 0 && rec.HeartDisease != 1 {
		return fmt.Errorf("%s must be 0 or 1, got %d", ml.ColHeartDisease, rec.HeartDisease)
	}
	return nil
}

// FiniteValueRule rejects rows with a NaN or infinite Oldpeak.
type FiniteValueRule struct{}

func NewFiniteValueRule() *FiniteValueRule { return &FiniteValueRule{} }

func (r *FiniteValueRule) Name() string { return "finite_value" }

func (r *FiniteValueRule) Apply(rec *ml.TrainingRecord) error {
	if math.IsNaN(rec.Oldpeak) || math.IsInf(rec.Oldpeak, 0) {
		return fmt.Errorf("%s is not finite", ml.ColOldpeak)
	}
	return nil
}

// DuplicateDetectionRule warns about rows identical to an earlier row. Repeat
// patients are legitimate training data, so duplicates are kept.
type DuplicateDetectionRule struct {
	seen map[ml.TrainingRecord]int
	row  int
	mu   sync.Mutex
}

func NewDuplicateDetectionRule() *DuplicateDetectionRule {
	return &DuplicateDetectionRule{seen: make(map[ml.TrainingRecord]int)}
}

func (r *DuplicateDetectionRule) Name() string { return "duplicate_detection" }

func (r *DuplicateDetectionRule) Apply(rec *ml.TrainingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.row++
	if first, ok := r.seen[*rec]; ok {
		return &Warning{Message: fmt.Sprintf("duplicate of row %d", first)}
	}
	r.seen[*rec] = r.row
	return nil
}

func categoricalFields(rec *ml.TrainingRecord) []*string {
	return []*string{&rec.Sex, &rec.ChestPainType, &rec.RestingECG, &rec.ExerciseAngina, &rec.STSlope}
}
