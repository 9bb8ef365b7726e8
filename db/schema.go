package db

import (
	"strings"

	"heartcheck/ml"
)

// recordColumns maps table columns to training fields, in scan order.
var recordColumns = []string{
	"age",
	"sex",
	"chest_pain_type",
	"resting_bp",
	"cholesterol",
	"fasting_bs",
	"resting_ecg",
	"max_hr",
	"exercise_angina",
	"oldpeak",
	"st_slope",
	"heart_disease",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func selectRecordsQuery(quotedTable string) string {
	return "SELECT " + strings.Join(recordColumns, ", ") + " FROM " + quotedTable + " ORDER BY id"
}

func scanRecord(row rowScanner) (ml.TrainingRecord, error) {
	var rec ml.TrainingRecord
	err := row.Scan(
		&rec.Age,
		&rec.Sex,
		&rec.ChestPainType,
		&rec.RestingBP,
		&rec.Cholesterol,
		&rec.FastingBS,
		&rec.RestingECG,
		&rec.MaxHR,
		&rec.ExerciseAngina,
		&rec.Oldpeak,
		&rec.STSlope,
		&rec.HeartDisease,
	)
	return rec, err
}

func recordArgs(rec ml.TrainingRecord) []any {
	return []any{
		rec.Age,
		rec.Sex,
		rec.ChestPainType,
		rec.RestingBP,
		rec.Cholesterol,
		rec.FastingBS,
		rec.RestingECG,
		rec.MaxHR,
		rec.ExerciseAngina,
		rec.Oldpeak,
		rec.STSlope,
		rec.HeartDisease,
	}
}
