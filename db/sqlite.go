package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"heartcheck/ml"
)

// DefaultTable holds imported training rows.
const DefaultTable = "heart_records"

// recordsSchema creates a records table; %s is the quoted table name.
const recordsSchema = `
    CREATE TABLE IF NOT EXISTS %s (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        age INTEGER NOT NULL,
        sex TEXT NOT NULL,
        chest_pain_type TEXT NOT NULL,
        resting_bp INTEGER NOT NULL,
        cholesterol INTEGER NOT NULL,
        fasting_bs INTEGER NOT NULL,
        resting_ecg TEXT NOT NULL,
        max_hr INTEGER NOT NULL,
        exercise_angina TEXT NOT NULL,
        oldpeak REAL NOT NULL,
        st_slope TEXT NOT NULL,
        heart_disease INTEGER NOT NULL
    );`

const trainingLogSchema = `
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY,
        model_name VARCHAR(50),
        source TEXT,
        accuracy REAL,
        precision REAL,
        recall REAL,
        trained_at DATETIME,
        data_points INTEGER
    );`

// TrainingLog is one row of the training_log table.
type TrainingLog struct {
	ModelName  string
	Source     string
	Accuracy   float64
	Precision  float64
	Recall     float64
	TrainedAt  time.Time
	DataPoints int
}

// Store is a SQLite database holding imported training rows and the
// training log.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path with the default records table
// and the training log.
func Open(path string) (*Store, error) {
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := database.Exec(recordsTableDDL(DefaultTable) + trainingLogSchema); err != nil {
		database.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: database}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ImportRecords appends records to table in one transaction, creating the
// table when it does not exist. When replace is set the table is emptied
// first.
func (s *Store) ImportRecords(ctx context.Context, table string, records []ml.TrainingRecord, replace bool) (int, error) {
	if len(records) == 0 {
		return 0, errors.New("records is empty")
	}
	quoted := quoteIdent(table)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, recordsTableDDL(table)); err != nil {
		return 0, fmt.Errorf("create table %s: %w", table, err)
	}
	if replace {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+quoted); err != nil {
			return 0, err
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(recordColumns)), ", ")
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+quoted+" ("+strings.Join(recordColumns, ", ")+") VALUES ("+placeholders+")")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for i, rec := range records {
		if _, err := stmt.ExecContext(ctx, recordArgs(rec)...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}

// LoadRecords returns every row of table in insertion order.
func (s *Store) LoadRecords(ctx context.Context, table string) ([]ml.TrainingRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectRecordsQuery(quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ml.TrainingRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveTrainingLog appends one entry to the training log.
func (s *Store) SaveTrainingLog(ctx context.Context, entry TrainingLog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO training_log (model_name, source, accuracy, precision, recall, trained_at, data_points)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ModelName, entry.Source, entry.Accuracy, entry.Precision, entry.Recall, entry.TrainedAt.UTC(), entry.DataPoints)
	return err
}

// LatestTrainingLog returns the most recent entry, or nil when the log is empty.
func (s *Store) LatestTrainingLog(ctx context.Context) (*TrainingLog, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT model_name, source, accuracy, precision, recall, trained_at, data_points
         FROM training_log ORDER BY id DESC LIMIT 1`)
	var entry TrainingLog
	err := row.Scan(&entry.ModelName, &entry.Source, &entry.Accuracy, &entry.Precision, &entry.Recall, &entry.TrainedAt, &entry.DataPoints)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SQLiteSource reads training rows from a Store table.
type SQLiteSource struct {
	Store *Store
	Table string
	Path  string
}

// NewSQLiteSource opens path for reading table. An empty table selects
// DefaultTable.
func NewSQLiteSource(path, table string) (*SQLiteSource, error) {
	store, err := Open(path)
	if err != nil {
		return nil, err
	}
	if table == "" {
		table = DefaultTable
	}
	return &SQLiteSource{Store: store, Table: table, Path: path}, nil
}

func (s *SQLiteSource) Load(ctx context.Context) ([]ml.TrainingRecord, error) {
	return s.Store.LoadRecords(ctx, s.Table)
}

func (s *SQLiteSource) Describe() string {
	return fmt.Sprintf("sqlite:%s#%s", s.Path, s.Table)
}

func (s *SQLiteSource) Close() error {
	return s.Store.Close()
}

func recordsTableDDL(table string) string {
	return fmt.Sprintf(recordsSchema, quoteIdent(table))
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
