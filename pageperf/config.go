package pageperf

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// DefaultConfig returns the built-in run configuration: a short smoke run
// against example.com with saving and extended metrics on, throttling off.
// Throttle defaults are shaped like a fast 3G connection.
func DefaultConfig() *RunConfig {
	return &RunConfig{
		Sessions:        3,
		Iterations:      5,
		TargetURL:       "https://example.com",
		SessionDelayMS:  2000,
		SaveResults:     true,
		ExtendedMetrics: true,
		Throttle: ThrottleConfig{
			Enabled:      false,
			DownloadKbps: 1600,
			UploadKbps:   750,
			LatencyMS:    150,
		},
		OutputDir: ".",
	}
}

// LoadConfig reads a YAML or JSON config file over the defaults. An empty
// path yields the defaults unchanged.
func LoadConfig(path string) (*RunConfig, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "could not read config file %s", path)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(err, "could not parse config file %s", path)
	}

	return cfg, nil
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "invalid configuration"
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c *RunConfig) Validate() error {
	var issues []string

	if c.Sessions < 1 {
		issues = append(issues, "sessions must be >= 1")
	}
	if c.Iterations < 1 {
		issues = append(issues, "iterations must be >= 1")
	}
	if c.SessionDelayMS < 0 {
		issues = append(issues, "session_delay_ms must be >= 0")
	}

	if strings.TrimSpace(c.TargetURL) == "" {
		issues = append(issues, "target is required")
	} else if parsed, err := url.Parse(c.TargetURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		issues = append(issues, fmt.Sprintf("target %q must be an http or https URL", c.TargetURL))
	}

	if c.Throttle.Enabled {
		if c.Throttle.DownloadKbps <= 0 {
			issues = append(issues, "throttle.download_kbps must be > 0 when throttling is enabled")
		}
		if c.Throttle.UploadKbps <= 0 {
			issues = append(issues, "throttle.upload_kbps must be > 0 when throttling is enabled")
		}
		if c.Throttle.LatencyMS < 0 {
			issues = append(issues, "throttle.latency_ms must be >= 0")
		}
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}

	return nil
}
