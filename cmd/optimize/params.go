package main

import (
	"github.com/pthm-cable/autopark/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value

	field func(*config.Config) *float64
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters: the
// tracking law gains and filters and the mid/far blend weights. The near
// band stays fuzzy-dominated.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Tracking law
			{Name: "direction_gain", Path: "control.direction_gain", Min: 0.1, Max: 1.5, Default: 0.5,
				field: func(c *config.Config) *float64 { return &c.Control.DirectionGain }},
			{Name: "heading_gain", Path: "control.heading_gain", Min: 0.0, Max: 1.0, Default: 0.3,
				field: func(c *config.Config) *float64 { return &c.Control.HeadingGain }},
			{Name: "steering_filter", Path: "control.steering_filter", Min: 0.0, Max: 0.95, Default: 0.7,
				field: func(c *config.Config) *float64 { return &c.Control.SteeringFilter }},
			{Name: "velocity_filter", Path: "control.velocity_filter", Min: 0.0, Max: 0.95, Default: 0.6,
				field: func(c *config.Config) *float64 { return &c.Control.VelocityFilter }},
			{Name: "velocity_gain", Path: "control.velocity_gain", Min: 0.1, Max: 1.5, Default: 0.5,
				field: func(c *config.Config) *float64 { return &c.Control.VelocityGain }},
			// Blend
			{Name: "mid_velocity_weight", Path: "blend.mid.velocity", Min: 0.3, Max: 1.0, Default: 0.75,
				field: func(c *config.Config) *float64 { return &c.Blend.Mid.Velocity }},
			{Name: "mid_steering_weight", Path: "blend.mid.steering", Min: 0.3, Max: 1.0, Default: 0.8,
				field: func(c *config.Config) *float64 { return &c.Blend.Mid.Steering }},
			{Name: "far_velocity_weight", Path: "blend.far.velocity", Min: 0.5, Max: 1.0, Default: 0.95,
				field: func(c *config.Config) *float64 { return &c.Blend.Far.Velocity }},
			{Name: "far_steering_weight", Path: "blend.far.steering", Min: 0.5, Max: 1.0, Default: 0.9,
				field: func(c *config.Config) *float64 { return &c.Blend.Far.Steering }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	for i, spec := range pv.Specs {
		*spec.field(cfg) = clamped[i]
	}
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = *spec.field(cfg)
	}
	return v
}
