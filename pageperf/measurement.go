package pageperf

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
)

const iterationPause = 1 * time.Second

// runIteration performs a single navigation to the target URL and assembles
// one Sample. The page is opened and closed within this call, on failure
// paths included. A metrics-collection failure is recovered locally by
// substituting zeroed metric fields; a navigation failure is returned to the
// caller and ends the run.
func runIteration(ctx context.Context, browsingContext BrowsingContext, cfg *RunConfig, session int, iteration int) (*Sample, error) {
	page, err := browsingContext.OpenPage(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "could not open page")
	}
	defer page.Close()

	start := time.Now()
	if err := page.Navigate(ctx, cfg.TargetURL); err != nil {
		return nil, errors.Wrapf(err, "navigation to %s failed", cfg.TargetURL)
	}
	loadTime := time.Since(start)

	metrics := &PageMetrics{}
	if cfg.ExtendedMetrics {
		collected, err := page.CollectMetrics(ctx)
		if err != nil {
			logger.Printf("Session %d iteration %d: metrics collection failed, recording zeroes: %v\n", session, iteration, err)
		} else {
			metrics = collected
		}
	}

	return &Sample{
		Session:    session,
		Iteration:  iteration,
		LoadTimeMS: float64(loadTime.Microseconds()) / 1000,
		DOMReadyMS: metrics.DOMContentLoaded,
		FCPMS:      metrics.FirstContentfulPaint,
		LCPMS:      metrics.LargestContentfulPaint,
		TTIMS:      metrics.TimeToInteractive,
		Timestamp:  time.Now(),
	}, nil
}

// runSession opens one browsing context and runs the configured number of
// iterations sequentially, pausing between iterations but not after the
// last. The context is closed on every exit path. Any failure aborts the
// session and propagates.
func runSession(ctx context.Context, printer *log.Logger, browser Browser, cfg *RunConfig, session int) ([]*Sample, error) {
	browsingContext, err := browser.OpenContext(ctx, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open browsing context for session %d", session)
	}
	defer browsingContext.Close()

	samples := []*Sample{}

	for iteration := 1; iteration <= cfg.Iterations; iteration += 1 {
		sample, err := runIteration(ctx, browsingContext, cfg, session, iteration)
		if err != nil {
			return nil, errors.Wrapf(err, "session %d iteration %d failed", session, iteration)
		}
		samples = append(samples, sample)

		printer.Printf("Session %d/%d - iteration %d/%d: %.2f ms\n", session, cfg.Sessions, iteration, cfg.Iterations, sample.LoadTimeMS)

		if iteration < cfg.Iterations {
			time.Sleep(iterationPause)
		}
	}

	return samples, nil
}

// RunMeasurements drives all sessions strictly one after another, with the
// configured delay between session starts, and returns every sample in
// session/iteration order. Sessions are simulated users, but the load is
// serialised, never concurrent. A session failure aborts the whole run.
func RunMeasurements(ctx context.Context, printer *log.Logger, browser Browser, cfg *RunConfig) ([]*Sample, error) {
	allSamples := []*Sample{}

	for session := 1; session <= cfg.Sessions; session += 1 {
		if session > 1 {
			time.Sleep(time.Duration(cfg.SessionDelayMS) * time.Millisecond)
		}

		samples, err := runSession(ctx, printer, browser, cfg, session)
		if err != nil {
			return nil, err
		}
		allSamples = append(allSamples, samples...)

		printer.Printf("Session %d/%d complete: %d samples\n", session, cfg.Sessions, len(samples))
	}

	return allSamples, nil
}
