package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tkohara/pageperf/pageperf"
)

var (
	BuildName       = "dev"
	BuildAnnotation = "git"
)

func newRootCmd() *cobra.Command {
	defaults := pageperf.DefaultConfig()

	cmd := &cobra.Command{
		Use:     "pageperf",
		Short:   "Measure client-perceived page-load performance with a real browser",
		Version: fmt.Sprintf("%s (%s)", BuildName, BuildAnnotation),
		RunE:    run,
	}

	flags := cmd.Flags()
	flags.String("config", "", "Path to a YAML or JSON config file")
	flags.StringP("target", "t", defaults.TargetURL, "URL to measure")
	flags.IntP("sessions", "s", defaults.Sessions, "Number of simulated user sessions")
	flags.IntP("iterations", "i", defaults.Iterations, "Page loads per session")
	flags.Int("session-delay", defaults.SessionDelayMS, "Delay between session starts in milliseconds")
	flags.Bool("save", defaults.SaveResults, "Write the full run to a timestamped JSON file")
	flags.Bool("extended", defaults.ExtendedMetrics, "Collect web-vitals metrics (FCP, LCP, TTI approximation)")
	flags.Bool("throttle", defaults.Throttle.Enabled, "Emulate a throttled network connection")
	flags.Int("throttle-download", defaults.Throttle.DownloadKbps, "Throttled download bandwidth in kbps")
	flags.Int("throttle-upload", defaults.Throttle.UploadKbps, "Throttled upload bandwidth in kbps")
	flags.Int("throttle-latency", defaults.Throttle.LatencyMS, "Added network latency in milliseconds")
	flags.String("out-dir", defaults.OutputDir, "Directory to write result files into")

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()

	configFile, _ := flags.GetString("config")
	cfg, err := pageperf.LoadConfig(configFile)
	if err != nil {
		return err
	}

	// Flags set on the command line win over the config file.
	if flags.Changed("target") {
		cfg.TargetURL, _ = flags.GetString("target")
	}
	if flags.Changed("sessions") {
		cfg.Sessions, _ = flags.GetInt("sessions")
	}
	if flags.Changed("iterations") {
		cfg.Iterations, _ = flags.GetInt("iterations")
	}
	if flags.Changed("session-delay") {
		cfg.SessionDelayMS, _ = flags.GetInt("session-delay")
	}
	if flags.Changed("save") {
		cfg.SaveResults, _ = flags.GetBool("save")
	}
	if flags.Changed("extended") {
		cfg.ExtendedMetrics, _ = flags.GetBool("extended")
	}
	if flags.Changed("throttle") {
		cfg.Throttle.Enabled, _ = flags.GetBool("throttle")
	}
	if flags.Changed("throttle-download") {
		cfg.Throttle.DownloadKbps, _ = flags.GetInt("throttle-download")
	}
	if flags.Changed("throttle-upload") {
		cfg.Throttle.UploadKbps, _ = flags.GetInt("throttle-upload")
	}
	if flags.Changed("throttle-latency") {
		cfg.Throttle.LatencyMS, _ = flags.GetInt("throttle-latency")
	}
	if flags.Changed("out-dir") {
		cfg.OutputDir, _ = flags.GetString("out-dir")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	printer := log.New(os.Stdout, "", 0)
	browser := pageperf.NewChromeBrowser(context.Background())
	defer browser.Close()

	return pageperf.RunAndPrint(context.Background(), printer, browser, cfg)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
