package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/pthm-cable/autopark/config"
	"github.com/pthm-cable/autopark/planner"
	"github.com/pthm-cable/autopark/telemetry"
)

type planOptions struct {
	outputDir   string
	seed        int64
	singlePhase bool
	curve       string
}

func curveFor(name string, samples int) (planner.CurveGenerator, error) {
	switch name {
	case "bezier":
		return planner.NewBezier(samples), nil
	case "quintic":
		return planner.NewQuinticHermite(samples), nil
	}
	return nil, fmt.Errorf("unknown curve %q", name)
}

// plan runs the configured search on p.
func plan(cfg *config.Config, p planner.Problem, opts planOptions) (*planner.Result, error) {
	rng := rand.New(rand.NewSource(opts.seed))
	s := cfg.PlannerSettings()

	if cfg.Planner.TwoPhase && !opts.singlePhase {
		tp, err := planner.NewTwoPhase(s, cfg.Heuristic(), rng)
		if err != nil {
			return nil, err
		}
		return tp.Run(p)
	}
	curve, err := curveFor(opts.curve, s.Samples)
	if err != nil {
		return nil, err
	}
	opt, err := planner.New(s, curve, planner.FreeDirection(), rng)
	if err != nil {
		return nil, err
	}
	return opt.Run(p)
}

func printParameters(indent string, p planner.Parameters) {
	fmt.Printf("%sk0=%.4f k1=%.4f direction=%s\n", indent, p.K0, p.K1, p.Direction)
	fmt.Printf("%spath_length=%.2f max_steering=%.2f objective=%.1f collision=%t\n",
		indent, p.PathLength, p.MaxSteering, p.Objective, p.HasCollision)
}

func runPlan(cfg *config.Config, opts planOptions) error {
	out, err := telemetry.NewOutputManager(opts.outputDir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}

	p := cfg.Problem()
	fmt.Printf("Planning from (%.1f, %.1f, %.1f°) to (%.1f, %.1f, %.1f°)\n",
		p.Start.X, p.Start.Y, p.Start.Heading, p.Goal.X, p.Goal.Y, p.Goal.Heading)

	startTime := time.Now()
	res, err := plan(cfg, p, opts)
	if err != nil {
		return err
	}
	fmt.Printf("Optimization complete in %s\n\n", formatDuration(time.Since(startTime)))

	params := res.Parameters()
	if len(params.Phases) == 0 {
		printParameters("  ", params)
	}
	for i, ph := range params.Phases {
		fmt.Printf("Phase %d (%s):\n", i+1, res.Phases[i].Name)
		printParameters("  ", ph)
	}
	if res.Intermediate != nil {
		fmt.Printf("Intermediate pose: (%.1f, %.1f, %.1f°)\n",
			res.Intermediate.X, res.Intermediate.Y, res.Intermediate.Heading)
	}

	if err := out.WritePlan(res); err != nil {
		return err
	}
	summary := telemetry.RunSummary{
		Seed: opts.seed,
		Mode: "plan",
		Plan: telemetry.SummarizePlan(res),
	}
	if err := out.WriteRun(summary); err != nil {
		return err
	}
	if cfg.Telemetry.Plots {
		scene := cfg.Scene()
		ts := telemetry.Scene{
			Bay:          scene.Bay,
			Obstacles:    scene.Obstacles,
			Start:        scene.Start,
			Goal:         scene.Goal,
			Intermediate: res.Intermediate,
		}
		if err := out.WriteReports(res, ts); err != nil {
			return err
		}
	}
	if dir := out.Dir(); dir != "" {
		fmt.Printf("\nResults saved to: %s\n", dir)
	}
	return nil
}
