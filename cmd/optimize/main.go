// Package main plans parking trajectories offline and tunes the hybrid
// controller's tracking gains and blend weights with CMA-ES.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/autopark/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	outputDir := flag.String("output", "", "Output directory for results")
	seed := flag.Int64("seed", 42, "RNG seed for the genetic search")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")

	// Planning
	singlePhase := flag.Bool("single-phase", false, "Plan one free-direction curve instead of approach + entry")
	curve := flag.String("curve", "bezier", "Curve family for single-phase planning: bezier or quintic")

	// Tuning
	tune := flag.Bool("tune", false, "Tune tracking gains and blend weights instead of planning")
	seeds := flag.Int("seeds", 4, "Number of jittered starts per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		log.Fatalf("invalid log level %q", *logLevel)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Cfg()

	if !*tune {
		opts := planOptions{
			outputDir:   *outputDir,
			seed:        *seed,
			singlePhase: *singlePhase,
			curve:       *curve,
		}
		if err := runPlan(cfg, opts); err != nil {
			log.Fatalf("planning failed: %v", err)
		}
		return
	}

	if *outputDir == "" {
		log.Fatal("--output is required with --tune")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}
	opts := tuneOptions{
		configPath: *configPath,
		outputDir:  *outputDir,
		seed:       *seed,
		seeds:      *seeds,
		maxEvals:   *maxEvals,
		population: *population,
	}
	if err := runTune(cfg, opts); err != nil {
		log.Fatalf("tuning failed: %v", err)
	}
}
