// Package hybrid combines a precomputed GA path with the reactive fuzzy
// parking controller, blending their commands by forward sensor distance.
package hybrid

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/autopark/components"
	"github.com/pthm-cable/autopark/fuzzy"
	"github.com/pthm-cable/autopark/planner"
	"github.com/pthm-cable/autopark/tracking"
)

// ErrNotOptimized is returned by Reoptimize before any Optimize call.
var ErrNotOptimized = errors.New("hybrid: no optimized trajectory")

// Config configures planning, tracking and blending.
type Config struct {
	Planner planner.Settings
	// Replan is used by Reoptimize, typically a smaller search.
	Replan    planner.Settings
	TwoPhase  bool
	Heuristic planner.Heuristic
	Tracking  tracking.Config
	Control   ControlConfig
	Blend     BlendConfig
}

// DefaultConfig returns the reference controller configuration.
func DefaultConfig() Config {
	replan := planner.DefaultSettings()
	replan.PopulationSize = 30
	replan.Generations = 50
	return Config{
		Planner:   planner.DefaultSettings(),
		Replan:    replan,
		TwoPhase:  true,
		Heuristic: planner.DefaultHeuristic(),
		Tracking:  tracking.DefaultConfig(),
		Control:   DefaultControlConfig(),
		Blend:     DefaultBlendConfig(),
	}
}

// Controller owns the optimized path and the tracking state. Control is
// called once per tick from a single goroutine.
type Controller struct {
	fis *fuzzy.System
	cfg Config
	rng *rand.Rand

	problem *planner.Problem
	result  *planner.Result
	track   *trackingState
}

// New creates a controller around a fuzzy system.
func New(fis *fuzzy.System, cfg Config, rng *rand.Rand) *Controller {
	return &Controller{fis: fis, cfg: cfg, rng: rng}
}

// Config returns the controller configuration.
func (c *Controller) Config() Config { return c.cfg }

func (c *Controller) plan(p planner.Problem, s planner.Settings) (*planner.Result, error) {
	if c.cfg.TwoPhase {
		tp, err := planner.NewTwoPhase(s, c.cfg.Heuristic, c.rng)
		if err != nil {
			return nil, err
		}
		return tp.Run(p)
	}
	opt, err := planner.New(s, planner.NewBezier(s.Samples), planner.FreeDirection(), c.rng)
	if err != nil {
		return nil, err
	}
	return opt.Run(p)
}

func (c *Controller) install(p planner.Problem, r *planner.Result) {
	c.problem = &p
	c.result = r
	c.track = &trackingState{tracker: tracking.New(r.Trajectory, c.cfg.Tracking)}
}

// Optimize plans a path for p and resets tracking onto it.
func (c *Controller) Optimize(p planner.Problem) (*planner.Result, error) {
	r, err := c.plan(p, c.cfg.Planner)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	c.install(p, r)
	slog.Info("trajectory optimized",
		"two_phase", c.cfg.TwoPhase,
		"path_length", r.PathLength,
		"max_steering", r.MaxSteering,
		"collision", r.HasCollision,
		"samples", len(r.Trajectory),
	)
	return r, nil
}

// UsePlan installs a previously computed result for p and resets tracking.
func (c *Controller) UsePlan(p planner.Problem, r *planner.Result) {
	c.install(p, r)
}

// Reoptimize plans again from a new start with the replan settings and
// replaces the path and tracking state.
func (c *Controller) Reoptimize(start components.Pose) (*planner.Result, error) {
	if c.problem == nil {
		return nil, ErrNotOptimized
	}
	p := *c.problem
	p.Start = start
	r, err := c.plan(p, c.cfg.Replan)
	if err != nil {
		return nil, fmt.Errorf("reoptimize: %w", err)
	}
	c.install(p, r)
	slog.Info("trajectory reoptimized",
		"start_x", start.X,
		"start_y", start.Y,
		"start_heading", start.Heading,
		"path_length", r.PathLength,
		"collision", r.HasCollision,
	)
	return r, nil
}

// Optimized reports whether a path is available.
func (c *Controller) Optimized() bool { return c.result != nil }

// Result returns the current optimization result, or nil.
func (c *Controller) Result() *planner.Result { return c.result }

// Trajectory returns the planned path, or nil before optimization.
func (c *Controller) Trajectory() []components.Pose {
	if c.result == nil {
		return nil
	}
	return c.result.Trajectory
}

// Progress returns the tracker's position along the path, or 0 without one.
func (c *Controller) Progress() int {
	if c.track == nil {
		return 0
	}
	return c.track.tracker.Progress()
}

// Parameters returns the optimized scalars.
func (c *Controller) Parameters() (planner.Parameters, bool) {
	if c.result == nil {
		return planner.Parameters{}, false
	}
	return c.result.Parameters(), true
}

// Decision is a control command with its inputs, for telemetry.
type Decision struct {
	Final     components.Command
	Fuzzy     components.Command
	Inference fuzzy.Result

	// Set only when tracking contributed.
	Tracking *TrackingOutput
	Band     Band
}

// Decide computes the command for s. Without a path, or with tracking
// disabled, the raw fuzzy command is returned.
func (c *Controller) Decide(s components.VehicleState, useTracking bool) Decision {
	inf := c.fis.Infer(fuzzy.SensorInputs(s.Sensors))
	fz := fuzzy.Command(inf)
	d := Decision{Final: fz, Fuzzy: fz, Inference: inf}
	if c.track == nil || !useTracking {
		return d
	}

	out := c.track.step(c.cfg.Control, s, c.result.DirectionAt)
	// The rule base only produces speeds; travel direction comes from the path.
	signed := fz
	signed.Velocity = out.Direction.Sign() * fz.Velocity

	d.Tracking = &out
	d.Band = c.cfg.Blend.Band(s.Sensors.Front)
	d.Final = Blend(signed, out.Command, s.Sensors.Front, c.cfg.Blend)
	return d
}

// Control returns the command for s.
func (c *Controller) Control(s components.VehicleState, useTracking bool) components.Command {
	return c.Decide(s, useTracking).Final
}

// TrackingControl returns the pure tracking command, advancing the tracking
// state. It returns false when no path is available.
func (c *Controller) TrackingControl(s components.VehicleState) (TrackingOutput, bool) {
	if c.track == nil {
		return TrackingOutput{}, false
	}
	return c.track.step(c.cfg.Control, s, c.result.DirectionAt), true
}
