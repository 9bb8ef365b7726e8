package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"heartcheck/ml"
)

// PostgresSource reads training rows from a Postgres table with the same
// columns as heart_records. The table may be schema qualified.
type PostgresSource struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresSource connects to dsn and checks the connection.
func NewPostgresSource(ctx context.Context, dsn, table string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if table == "" {
		table = DefaultTable
	}
	return &PostgresSource{pool: pool, table: table}, nil
}

func (p *PostgresSource) Load(ctx context.Context) ([]ml.TrainingRecord, error) {
	query := selectRecordsQuery(pgx.Identifier(strings.Split(p.table, ".")).Sanitize())
	rows, err := p.pool.Query(ctx, query)
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

func (p *PostgresSource) Describe() string {
	return "postgres:" + p.table
}

func (p *PostgresSource) Close() error {
	p.pool.Close()
	return nil
}
