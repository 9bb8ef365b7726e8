package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"heartcheck/config"
	"heartcheck/db"
	"heartcheck/ml"
)

const sampleCSV = "testdata/heart_sample.csv"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func datasetConfig(t *testing.T, extra string) string {
	t.Helper()
	abs, err := filepath.Abs(sampleCSV)
	require.NoError(t, err)
	return writeConfig(t, fmt.Sprintf("log:\n  level: error\ndataset:\n  source: csv\n  path: %q\n%s", abs, extra))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestEvaluateJSON(t *testing.T) {
	cfgPath := datasetConfig(t, "")

	out, err := execute(t, "evaluate", "--config", cfgPath, "--json", "--seed", "7")
	require.NoError(t, err)

	var report evaluateReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "csv:"+mustAbs(t, sampleCSV), report.Source)
	assert.Equal(t, 16, report.Train)
	assert.Equal(t, 4, report.Test)
	assert.Equal(t, int64(7), report.Seed)
	assert.Equal(t, report.Test, report.Scores.Samples+report.Scores.Errors)
	assert.GreaterOrEqual(t, report.Scores.Accuracy, 0.0)
	assert.LessOrEqual(t, report.Scores.Accuracy, 1.0)
}

func TestEvaluateRecord(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "heartcheck.db")
	cfgPath := datasetConfig(t, fmt.Sprintf("database:\n  path: %q\n", dbPath))

	out, err := execute(t, "evaluate", "--config", cfgPath, "--record")
	require.NoError(t, err)
	assert.Contains(t, out, "accuracy:")

	store, err := db.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	entry, err := store.LatestTrainingLog(context.Background())
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, modelName, entry.ModelName)
	assert.Equal(t, 16, entry.DataPoints)
}

func TestImport(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "heartcheck.db")
	cfgPath := writeConfig(t, "log:\n  level: error\n")

	out, err := execute(t, "import", "--config", cfgPath, "--csv", sampleCSV, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 20 rows")

	_, err = execute(t, "import", "--config", cfgPath, "--csv", sampleCSV, "--db", dbPath, "--replace")
	require.NoError(t, err)

	store, err := db.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	records, err := store.LoadRecords(context.Background(), db.DefaultTable)
	require.NoError(t, err)
	assert.Len(t, records, 20)
}

func TestImportCustomTable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "heartcheck.db")
	cfgPath := writeConfig(t, "log:\n  level: error\n")

	out, err := execute(t, "import", "--config", cfgPath, "--csv", sampleCSV, "--db", dbPath, "--table", "patients")
	require.NoError(t, err)
	assert.Contains(t, out, "imported 20 rows into "+dbPath+":patients")

	store, err := db.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	records, err := store.LoadRecords(context.Background(), "patients")
	require.NoError(t, err)
	assert.Len(t, records, 20)
}

func TestImportRequiresCSV(t *testing.T) {
	cfgPath := writeConfig(t, "log:\n  level: error\n")
	_, err := execute(t, "import", "--config", cfgPath)
	assert.Error(t, err)
}

func TestStartServiceMissingDataset(t *testing.T) {
	cfg := config.Default()
	cfg.Dataset.Path = filepath.Join(t.TempDir(), "missing.csv")

	_, err := startService(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ml.ErrStartup), err.Error())
}

func TestServeCommandFailsWithoutDataset(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.csv")
	cfgPath := writeConfig(t, fmt.Sprintf("log:\n  level: error\ndataset:\n  path: %q\n", missing))

	_, err := execute(t, "serve", "--config", cfgPath)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ml.ErrStartup))
}

func TestServiceLifecycle(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = 0
	cfg.Dataset.Path = mustAbs(t, sampleCSV)
	cfg.Dataset.Watch = true
	cfg.Database.Path = filepath.Join(t.TempDir(), "heartcheck.db")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, err := startService(ctx, cfg, zap.NewNop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- svc.run(ctx) }()

	resp, err := http.Get("http://" + svc.server.Addr() + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("service did not stop")
	}

	store, err := db.Open(cfg.Database.Path)
	require.NoError(t, err)
	defer store.Close()
	entry, err := store.LatestTrainingLog(context.Background())
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 20, entry.DataPoints)
}

func mustAbs(t *testing.T, path string) string {
	t.Helper()
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return abs
}
