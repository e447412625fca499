package config

import (
	"github.com/pthm-cable/autopark/components"
	"github.com/pthm-cable/autopark/hybrid"
	"github.com/pthm-cable/autopark/planner"
	"github.com/pthm-cable/autopark/sim"
	"github.com/pthm-cable/autopark/systems"
	"github.com/pthm-cable/autopark/tracking"
)

func (r RectConfig) rect() components.Rect {
	return components.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func (p PoseConfig) pose() components.Pose {
	return components.NewPose(p.X, p.Y, p.Heading)
}

func (s ScaleBandConfig) band() hybrid.ScaleBand {
	return hybrid.ScaleBand{Threshold: s.Threshold, Scale: s.Scale}
}

func bands(in []ScaleBandConfig) []hybrid.ScaleBand {
	out := make([]hybrid.ScaleBand, len(in))
	for i, b := range in {
		out[i] = b.band()
	}
	return out
}

// VehicleParams returns the vehicle geometry with the derived wheelbase.
func (c *Config) VehicleParams() components.VehicleParams {
	return components.VehicleParams{
		Length:      c.Vehicle.Length,
		Width:       c.Vehicle.Width,
		Wheelbase:   c.Derived.Wheelbase,
		MaxSteering: c.Vehicle.MaxSteering,
	}
}

// Scene returns the simulated environment.
func (c *Config) Scene() sim.Scene {
	obstacles := make([]components.Rect, len(c.Scene.Obstacles))
	for i, o := range c.Scene.Obstacles {
		obstacles[i] = o.rect()
	}
	return sim.Scene{
		Bay:       c.Scene.Bay.rect(),
		Obstacles: obstacles,
		Start:     c.Scene.Start.pose(),
		Goal:      c.Scene.Goal.pose(),
		Vehicle:   c.VehicleParams(),
	}
}

// Problem returns the planning problem posed by the scene.
func (c *Config) Problem() planner.Problem {
	return c.Scene().Problem()
}

func (c *Config) settings(ga GAConfig) planner.Settings {
	p := c.Planner
	return planner.Settings{
		PopulationSize:    ga.Population,
		Generations:       ga.Generations,
		CrossoverRate:     ga.Crossover,
		MutationRate:      ga.Mutation,
		K0Range:           planner.Range{Min: p.K0.Min, Max: p.K0.Max},
		K1Range:           planner.Range{Min: p.K1.Min, Max: p.K1.Max},
		Precision:         p.Precision,
		Samples:           p.Samples,
		Workers:           p.Workers,
		Refine:            p.Refine,
		RefineEvaluations: p.RefineEvaluations,
	}
}

// PlannerSettings returns the settings of the initial optimization.
func (c *Config) PlannerSettings() planner.Settings {
	return c.settings(c.Planner.GAConfig)
}

// ReplanSettings returns the settings used when re-optimizing.
func (c *Config) ReplanSettings() planner.Settings {
	return c.settings(c.Planner.Replan)
}

// Heuristic returns the intermediate-pose offsets.
func (c *Config) Heuristic() planner.Heuristic {
	h := c.Planner.Heuristic
	return planner.Heuristic{
		LateralFactor:      h.LateralFactor,
		LongitudinalFactor: h.LongitudinalFactor,
		Margin:             h.Margin,
	}
}

// TrackingConfig returns the reference selection settings.
func (c *Config) TrackingConfig() tracking.Config {
	return tracking.Config{
		Lookahead:   c.Tracking.Lookahead,
		WindowBack:  c.Tracking.WindowBack,
		WindowAhead: c.Tracking.WindowAhead,
	}
}

// ControlConfig returns the path-following law.
func (c *Config) ControlConfig() hybrid.ControlConfig {
	k := c.Control
	return hybrid.ControlConfig{
		DirectionGain:      k.DirectionGain,
		HeadingGain:        k.HeadingGain,
		MaxSteering:        c.Derived.MaxSteering,
		SteeringFilter:     k.SteeringFilter,
		VelocityFilter:     k.VelocityFilter,
		VelocityGain:       k.VelocityGain,
		MinVelocity:        k.MinVelocity,
		MaxVelocity:        k.MaxVelocity,
		HeadingBands:       bands(k.HeadingBands),
		NearReference:      k.NearReference.band(),
		ObstacleBands:      bands(k.ObstacleBands),
		BearingMinDistance: k.BearingMinDistance,
	}
}

// BlendConfig returns the fuzzy/tracking blend.
func (c *Config) BlendConfig() hybrid.BlendConfig {
	b := c.Blend
	w := func(x WeightsConfig) hybrid.Weights {
		return hybrid.Weights{Velocity: x.Velocity, Steering: x.Steering}
	}
	return hybrid.BlendConfig{
		NearThreshold: b.NearThreshold,
		MidThreshold:  b.MidThreshold,
		Near:          w(b.Near),
		Mid:           w(b.Mid),
		Far:           w(b.Far),
	}
}

// HybridConfig returns the complete hybrid controller configuration.
func (c *Config) HybridConfig() hybrid.Config {
	return hybrid.Config{
		Planner:   c.PlannerSettings(),
		Replan:    c.ReplanSettings(),
		TwoPhase:  c.Planner.TwoPhase,
		Heuristic: c.Heuristic(),
		Tracking:  c.TrackingConfig(),
		Control:   c.ControlConfig(),
		Blend:     c.BlendConfig(),
	}
}

// SimConfig returns the closed-loop run parameters.
func (c *Config) SimConfig() (sim.Config, error) {
	s := c.Simulation
	mode, err := sim.ParseMode(s.Mode)
	if err != nil {
		return sim.Config{}, err
	}
	cs, pk := s.CentreStop, s.Parked
	return sim.Config{
		Mode:        mode,
		DT:          s.DT,
		MaxTime:     s.MaxTime,
		UseTracking: s.UseTracking,
		CentreStop: sim.CentreStop{
			Enabled:     cs.Enabled,
			MinDepth:    cs.MinDepth,
			MaxDepth:    cs.MaxDepth,
			Centre:      cs.Centre,
			Tolerance:   cs.Tolerance,
			MaxVelocity: cs.MaxVelocity,
		},
		Parked: systems.ParkedConfig{
			Margin:     pk.Margin,
			MaxAngle:   pk.MaxAngle,
			MaxLateral: pk.MaxLateral,
			MinFront:   pk.MinFront,
			MaxFront:   pk.MaxFront,
			MaxSpeed:   pk.MaxSpeed,
			Dwell:      pk.Dwell,
		},
		Replan: sim.Replan{Error: s.Replan.Error, Cooldown: s.Replan.Cooldown, Max: s.Replan.Max},
	}, nil
}
