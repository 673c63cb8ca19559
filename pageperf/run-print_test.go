package pageperf

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestReportFilename(t *testing.T) {
	generatedAt := time.Date(2024, 3, 5, 14, 30, 5, 123_000_000, time.UTC)

	assert.Equal(t, reportFilename(generatedAt), "perf-test-2024-03-05T14-30-05-123Z.json")
}

func TestReportFilename_NonUTCInput(t *testing.T) {
	zone := time.FixedZone("JST", 9*60*60)
	generatedAt := time.Date(2024, 3, 5, 23, 30, 5, 123_000_000, zone)

	assert.Equal(t, reportFilename(generatedAt), "perf-test-2024-03-05T14-30-05-123Z.json")
}

func TestBuildReport(t *testing.T) {
	cfg := testConfig()
	samples := []*Sample{
		{Session: 1, Iteration: 1, LoadTimeMS: 100, Timestamp: time.Now()},
		{Session: 1, Iteration: 2, LoadTimeMS: 200, Timestamp: time.Now()},
	}

	report := buildReport(cfg, samples)

	assert.Assert(t, report.RunID != "")
	assert.Equal(t, report.TotalSamples, 2)
	assert.Equal(t, report.Config, cfg)
	assert.Equal(t, report.Stats.LoadTime.Mean, 150.0)
	assert.Equal(t, report.Stats.LCP.NSamples, 0)
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	samples := []*Sample{
		{Session: 1, Iteration: 1, LoadTimeMS: 321.5, LCPMS: 250, FCPMS: 90, Timestamp: time.Now()},
	}
	report := buildReport(cfg, samples)

	path, err := writeReport(report, dir)

	assert.NilError(t, err)
	assert.Equal(t, path, filepath.Join(dir, reportFilename(report.GeneratedAt)))

	encoded, err := os.ReadFile(path)
	assert.NilError(t, err)

	decoded := &RunReport{}
	assert.NilError(t, json.Unmarshal(encoded, decoded))
	assert.Equal(t, decoded.RunID, report.RunID)
	assert.Equal(t, decoded.TotalSamples, 1)
	assert.Equal(t, decoded.Config.Sessions, cfg.Sessions)
	assert.Equal(t, len(decoded.Results), 1)
	assert.Equal(t, decoded.Results[0].LoadTimeMS, 321.5)
	assert.Equal(t, decoded.Stats.LCP.Max, 250.0)
}

func TestWriteReport_UnwritableDirectory(t *testing.T) {
	cfg := testConfig()
	report := buildReport(cfg, []*Sample{})

	_, err := writeReport(report, filepath.Join(t.TempDir(), "does-not-exist"))

	assert.ErrorContains(t, err, "could not write report")
}
