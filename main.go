package main

import (
	"context"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pthm-cable/autopark/config"
	"github.com/pthm-cable/autopark/fuzzy"
	"github.com/pthm-cable/autopark/hybrid"
	"github.com/pthm-cable/autopark/sim"
	"github.com/pthm-cable/autopark/telemetry"
)

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mode := flag.String("mode", "", "Controller: fuzzy or hybrid (empty = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, run summary and plots")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = until the run ends)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(*logLevel)}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *mode != "" {
		cfg.Simulation.Mode = *mode
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, rngSeed, *outputDir, *maxTicks); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, seed int64, outputDir string, maxTicks int) error {
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return err
	}
	scene := cfg.Scene()

	out, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}

	fis, err := fuzzy.NewParkingSystem()
	if err != nil {
		return err
	}
	var ctrl *hybrid.Controller
	if simCfg.Mode == sim.ModeHybrid {
		ctrl = hybrid.New(fis, cfg.HybridConfig(), rand.New(rand.NewSource(seed)))
	}

	s, err := sim.New(scene, simCfg, fis, ctrl)
	if err != nil {
		return err
	}

	ticks := make([]telemetry.TickRecord, 0, cfg.Derived.MaxTicks)
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	s.WithPerf(perf).WithHooks(sim.Hooks{
		OnTick: func(rec telemetry.TickRecord) {
			ticks = append(ticks, rec)
			if cfg.Telemetry.WriteTicks {
				if err := out.WriteTick(rec); err != nil {
					slog.Warn("tick not written", "tick", rec.Tick, "error", err)
				}
			}
			if w := cfg.Telemetry.PerfWindow; w > 0 && rec.Tick%w == 0 {
				if err := out.WritePerf(perf.Stats()); err != nil {
					slog.Warn("perf not written", "error", err)
				}
			}
		},
		OnEvent: func(e telemetry.Event) {
			if cfg.Telemetry.LogEvents {
				e.LogEvent()
			}
			if err := out.WriteEvent(e); err != nil {
				slog.Warn("event not written", "type", e.Type, "error", err)
			}
		},
	})

	slog.Info("starting simulation",
		"seed", seed,
		"mode", simCfg.Mode,
		"dt", simCfg.DT,
		"max_time", simCfg.MaxTime,
		"max_ticks", maxTicks,
	)

	plan, err := s.Plan()
	if err != nil {
		return err
	}
	if err := out.WritePlan(plan); err != nil {
		return err
	}

	outcome, runErr := s.Run(ctx, maxTicks)

	summary := telemetry.RunSummary{
		RunID:           out.RunID(),
		Seed:            seed,
		Mode:            string(simCfg.Mode),
		Outcome:         outcome.String(),
		Reoptimizations: s.Reoptimizations(),
	}
	summary.SummarizeTicks(ticks)
	if ctrl != nil {
		// Re-planning replaces the initial result.
		plan = ctrl.Result()
	}
	summary.Plan = telemetry.SummarizePlan(plan)
	summary.LogStats()
	slog.Info("perf", "stats", perf.Stats())

	if err := out.WriteRun(summary); err != nil {
		return err
	}
	if cfg.Telemetry.Plots {
		ts := telemetry.Scene{
			Bay:       scene.Bay,
			Obstacles: scene.Obstacles,
			Start:     scene.Start,
			Goal:      scene.Goal,
			Driven:    telemetry.DrivenPath(ticks),
		}
		if plan != nil {
			ts.Intermediate = plan.Intermediate
		}
		if err := out.WriteReports(plan, ts); err != nil {
			return err
		}
	}
	return runErr
}
