package hybrid

import "github.com/pthm-cable/autopark/components"

// Weights is the share given to the tracking command; the fuzzy command gets
// the remainder.
type Weights struct {
	Velocity float64
	Steering float64
}

// BlendConfig selects blend weights by forward sensor distance.
type BlendConfig struct {
	NearThreshold float64
	MidThreshold  float64
	Near          Weights
	Mid           Weights
	Far           Weights
}

// DefaultBlendConfig trusts the fuzzy controller close to obstacles and the
// planned path in open space.
func DefaultBlendConfig() BlendConfig {
	return BlendConfig{
		NearThreshold: 15,
		MidThreshold:  30,
		Near:          Weights{Velocity: 0.3, Steering: 0.3},
		Mid:           Weights{Velocity: 0.75, Steering: 0.8},
		Far:           Weights{Velocity: 0.95, Steering: 0.9},
	}
}

// Band names the blend band a front distance falls into.
type Band string

const (
	BandNear Band = "near"
	BandMid  Band = "mid"
	BandFar  Band = "far"
)

// Band returns the band for a forward sensor distance.
func (c BlendConfig) Band(front float64) Band {
	switch {
	case front < c.NearThreshold:
		return BandNear
	case front < c.MidThreshold:
		return BandMid
	default:
		return BandFar
	}
}

// Weights returns the tracking weights for a band.
func (c BlendConfig) Weights(b Band) Weights {
	switch b {
	case BandNear:
		return c.Near
	case BandMid:
		return c.Mid
	default:
		return c.Far
	}
}

// Blend mixes the fuzzy and tracking commands for the given front distance.
func Blend(fz, tr components.Command, front float64, cfg BlendConfig) components.Command {
	w := cfg.Weights(cfg.Band(front))
	return components.Command{
		Velocity: w.Velocity*tr.Velocity + (1-w.Velocity)*fz.Velocity,
		Steering: w.Steering*tr.Steering + (1-w.Steering)*fz.Steering,
	}
}
