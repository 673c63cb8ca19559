package pageperf

import (
	"context"
	"time"
)

type ThrottleConfig struct {
	Enabled      bool `mapstructure:"enabled" json:"enabled"`
	DownloadKbps int  `mapstructure:"download_kbps" json:"downloadKbps"`
	UploadKbps   int  `mapstructure:"upload_kbps" json:"uploadKbps"`
	LatencyMS    int  `mapstructure:"latency_ms" json:"latencyMs"`
}

// RunConfig is fixed for the duration of a run.
type RunConfig struct {
	Sessions        int            `mapstructure:"sessions" json:"sessions"`
	Iterations      int            `mapstructure:"iterations" json:"iterations"`
	TargetURL       string         `mapstructure:"target" json:"target"`
	SessionDelayMS  int            `mapstructure:"session_delay_ms" json:"sessionDelayMs"`
	SaveResults     bool           `mapstructure:"save_results" json:"saveResults"`
	ExtendedMetrics bool           `mapstructure:"extended_metrics" json:"extendedMetrics"`
	Throttle        ThrottleConfig `mapstructure:"throttle" json:"throttle"`
	OutputDir       string         `mapstructure:"output_dir" json:"-"`
}

// PageMetrics holds performance-timing values read from a loaded page,
// in milliseconds relative to navigation start. Zero means unavailable.
type PageMetrics struct {
	DOMContentLoaded       float64 `json:"domContentLoaded"`
	FirstContentfulPaint   float64 `json:"firstContentfulPaint"`
	LargestContentfulPaint float64 `json:"largestContentfulPaint"`
	TimeToInteractive      float64 `json:"timeToInteractive"`
}

// Sample is one iteration's measurement, immutable once assembled.
type Sample struct {
	Session    int       `json:"session"`
	Iteration  int       `json:"iteration"`
	LoadTimeMS float64   `json:"loadTimeMs"`
	DOMReadyMS float64   `json:"domReadyMs"`
	FCPMS      float64   `json:"fcpMs"`
	LCPMS      float64   `json:"lcpMs"`
	TTIMS      float64   `json:"ttiMs"`
	Timestamp  time.Time `json:"timestamp"`
}

type MetricStats struct {
	NSamples int     `json:"nSamples"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	P95      float64 `json:"p95"`
	StdDev   float64 `json:"stdDev"`
}

// RunStats aggregates the whole run. LCP and FCP are computed over non-zero
// values only, so their NSamples can be lower than LoadTime's.
type RunStats struct {
	LoadTime *MetricStats `json:"loadTime"`
	LCP      *MetricStats `json:"lcp"`
	FCP      *MetricStats `json:"fcp"`
}

type RunReport struct {
	RunID        string     `json:"runId"`
	GeneratedAt  time.Time  `json:"generatedAt"`
	Config       *RunConfig `json:"config"`
	Results      []*Sample  `json:"results"`
	Stats        *RunStats  `json:"stats"`
	TotalSamples int        `json:"totalSamples"`
}

// Browser is the automation capability the measurements are driven through.
type Browser interface {
	// OpenContext opens an isolated browsing context for one simulated user.
	OpenContext(ctx context.Context, cfg *RunConfig) (BrowsingContext, error)
	Close() error
}

// BrowsingContext is one simulated user's cookie/cache jar.
type BrowsingContext interface {
	OpenPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single open tab.
type Page interface {
	// Navigate loads the URL, returning once no network connections have
	// been active for the stabilisation window.
	Navigate(ctx context.Context, url string) error
	CollectMetrics(ctx context.Context) (*PageMetrics, error)
	Close() error
}
