package hybrid

import (
	"math"

	"github.com/pthm-cable/autopark/components"
	"github.com/pthm-cable/autopark/tracking"
)

// ScaleBand multiplies a command by Scale once its trigger crosses Threshold.
type ScaleBand struct {
	Threshold float64
	Scale     float64
}

// ControlConfig holds the geometric path-following law.
type ControlConfig struct {
	DirectionGain float64
	HeadingGain   float64
	MaxSteering   float64

	// Low-pass coefficients on the previous command.
	SteeringFilter float64
	VelocityFilter float64

	VelocityGain float64 // times distance to reference
	MinVelocity  float64
	MaxVelocity  float64

	// HeadingBands apply the first band whose threshold |heading error| exceeds.
	HeadingBands []ScaleBand
	// NearReference scales velocity when the reference is closer than Threshold.
	NearReference ScaleBand
	// ObstacleBands apply the first band whose threshold the front sensor is below.
	ObstacleBands []ScaleBand

	// BearingMinDistance falls back to the reference heading when the
	// reference is this close.
	BearingMinDistance float64
}

// DefaultControlConfig returns the reference tracking gains and filters.
func DefaultControlConfig() ControlConfig {
	return ControlConfig{
		DirectionGain:      0.5,
		HeadingGain:        0.3,
		MaxSteering:        40,
		SteeringFilter:     0.7,
		VelocityFilter:     0.6,
		VelocityGain:       0.5,
		MinVelocity:        8,
		MaxVelocity:        25,
		HeadingBands:       []ScaleBand{{45, 0.4}, {25, 0.7}, {10, 0.9}},
		NearReference:      ScaleBand{15, 0.6},
		ObstacleBands:      []ScaleBand{{25, 0.3}, {40, 0.6}},
		BearingMinDistance: 0.1,
	}
}

// trackingState is the per-path state of the tracking law. It is rebuilt
// whenever a new path is planned.
type trackingState struct {
	tracker      *tracking.Tracker
	lastVelocity float64
	lastSteering float64
}

// TrackingOutput is a tracking command with the geometry behind it.
type TrackingOutput struct {
	Command        components.Command
	Error          tracking.Error
	Direction      components.Direction
	DirectionError float64
}

// step computes one tracking command.
//
// Forward segments steer the nose toward the reference. Reverse segments
// steer the tail toward it: the bearing is turned 180° and the correction is
// negated, since with negative velocity a steering angle turns the heading
// the opposite way.
func (ts *trackingState) step(cfg ControlConfig, s components.VehicleState, dirAt func(int) components.Direction) TrackingOutput {
	p := s.Pose
	e := ts.tracker.Error(p.X, p.Y, p.Heading)
	dir := dirAt(ts.tracker.Progress())

	ref := e.Reference
	dx, dy := ref.X-p.X, ref.Y-p.Y
	dist := math.Hypot(dx, dy)

	desired := ref.Heading
	if dist > cfg.BearingMinDistance {
		desired = components.Rad2Deg(math.Atan2(dy, dx))
		if dir == components.Reverse {
			desired += 180
		}
	}
	dirErr := components.NormalizeDeg(desired - p.Heading)

	velocity := components.Clamp(dist*cfg.VelocityGain, cfg.MinVelocity, cfg.MaxVelocity)
	absHeading := math.Abs(e.Heading)
	for _, b := range cfg.HeadingBands {
		if absHeading > b.Threshold {
			velocity *= b.Scale
			break
		}
	}
	if dist < cfg.NearReference.Threshold {
		velocity *= cfg.NearReference.Scale
	}

	steering := dirErr*cfg.DirectionGain + e.Heading*cfg.HeadingGain
	if dir == components.Reverse {
		steering = -steering
	}
	steering = components.Clamp(steering, -cfg.MaxSteering, cfg.MaxSteering)
	steering = cfg.SteeringFilter*ts.lastSteering + (1-cfg.SteeringFilter)*steering
	ts.lastSteering = steering

	if dir == components.Reverse {
		velocity = -math.Abs(velocity)
	}
	velocity = cfg.VelocityFilter*ts.lastVelocity + (1-cfg.VelocityFilter)*velocity
	ts.lastVelocity = velocity

	for _, b := range cfg.ObstacleBands {
		if s.Sensors.Front < b.Threshold {
			velocity *= b.Scale
			break
		}
	}

	return TrackingOutput{
		Command:        components.Command{Velocity: velocity, Steering: steering},
		Error:          e,
		Direction:      dir,
		DirectionError: dirErr,
	}
}
