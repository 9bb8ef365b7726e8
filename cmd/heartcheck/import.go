package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"heartcheck/db"
	"heartcheck/pipeline"
)

func newImportCmd(configPath *string) *cobra.Command {
	var (
		csvPath string
		dbPath  string
		table   string
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a cleaned CSV dataset into a SQLite table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if dbPath == "" {
				dbPath = cfg.Database.Path
			}
			if dbPath == "" {
				return errors.New("no database: pass --db or set database.path")
			}
			if table == "" {
				table = cfg.Dataset.Table
			}

			records, err := pipeline.LoadTrainingData(cmd.Context(), pipeline.NewCSVSource(csvPath),
				pipeline.NewDataCleaner(logger), logger)
			if err != nil {
				return err
			}

			store, err := db.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open %s: %w", dbPath, err)
			}
			defer store.Close()

			n, err := store.ImportRecords(cmd.Context(), table, records, replace)
			if err != nil {
				return err
			}
			logger.Info("dataset imported",
				zap.String("csv", csvPath),
				zap.String("database", dbPath),
				zap.String("table", table),
				zap.Int("rows", n),
				zap.Bool("replace", replace),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows into %s:%s\n", n, dbPath, table)
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file to import")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (defaults to database.path)")
	cmd.Flags().StringVar(&table, "table", "", "destination table (defaults to dataset.table)")
	cmd.Flags().BoolVar(&replace, "replace", false, "empty the table before importing")
	cmd.MarkFlagRequired("csv")
	return cmd
}
