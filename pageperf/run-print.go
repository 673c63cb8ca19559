package pageperf

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var logger = log.New(os.Stderr, "", 0)

func printMetricStats(printer *log.Logger, label string, stats *MetricStats) {
	if stats != nil {
		printer.Printf("%s-min: %.2f ms\n", label, stats.Min)
		printer.Printf("%s-max: %.2f ms\n", label, stats.Max)
		printer.Printf("%s-mean: %.2f ms\n", label, stats.Mean)
		printer.Printf("%s-median: %.2f ms\n", label, stats.Median)
		printer.Printf("%s-p95: %.2f ms\n", label, stats.P95)
		printer.Printf("%s-stddev: %.2f ms\n", label, stats.StdDev)
		printer.Printf("%s-n: %d\n", label, stats.NSamples)
	}
}

func printRunStats(printer *log.Logger, stats *RunStats, extended bool) {
	printMetricStats(printer, "Load", stats.LoadTime)
	if extended {
		printer.Println()
		printMetricStats(printer, "LCP", stats.LCP)
		printer.Println()
		printMetricStats(printer, "FCP", stats.FCP)
	}
}

func buildReport(cfg *RunConfig, samples []*Sample) *RunReport {
	return &RunReport{
		RunID:        uuid.NewString(),
		GeneratedAt:  time.Now(),
		Config:       cfg,
		Results:      samples,
		Stats:        getRunStats(samples),
		TotalSamples: len(samples),
	}
}

// reportFilename derives a filesystem-safe name from the generation time:
// colons and periods of the ISO-8601 timestamp become dashes.
func reportFilename(generatedAt time.Time) string {
	stamp := generatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	stamp = strings.NewReplacer(":", "-", ".", "-").Replace(stamp)

	return "perf-test-" + stamp + ".json"
}

// writeReport persists the full run as indented JSON. Fire and forget: no
// retry, and a failure here ends the process after the summary has already
// been printed.
func writeReport(report *RunReport, outputDir string) (string, error) {
	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "could not encode report")
	}

	path := filepath.Join(outputDir, reportFilename(report.GeneratedAt))
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return "", errors.Wrapf(err, "could not write report to %s", path)
	}

	return path, nil
}

// RunAndPrint drives the whole run: all sessions and iterations, aggregate
// statistics, the console summary and, when enabled, the report file.
func RunAndPrint(ctx context.Context, printer *log.Logger, browser Browser, cfg *RunConfig) error {
	printer.Printf("Target: %s\n", cfg.TargetURL)
	printer.Printf("Plan: %d sessions x %d iterations\n", cfg.Sessions, cfg.Iterations)
	if cfg.Throttle.Enabled {
		printer.Printf("Throttling: %d kbps down, %d kbps up, +%d ms latency\n", cfg.Throttle.DownloadKbps, cfg.Throttle.UploadKbps, cfg.Throttle.LatencyMS)
	}
	printer.Println()

	samples, err := RunMeasurements(ctx, printer, browser, cfg)
	if err != nil {
		return errors.Wrap(err, "measurement run failed")
	}
	printer.Println()

	report := buildReport(cfg, samples)
	printRunStats(printer, report.Stats, cfg.ExtendedMetrics)

	if cfg.SaveResults {
		path, err := writeReport(report, cfg.OutputDir)
		if err != nil {
			return err
		}
		printer.Println()
		printer.Printf("Results written to %s\n", path)
	}

	return nil
}
