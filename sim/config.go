// Package sim runs the closed parking loop headlessly on an ECS world:
// sensing, collision and parked checks, fuzzy or hybrid control and
// kinematic integration.
package sim

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/autopark/components"
	"github.com/pthm-cable/autopark/planner"
	"github.com/pthm-cable/autopark/systems"
)

// ErrInvalidConfig is returned when a simulation cannot be built.
var ErrInvalidConfig = errors.New("sim: invalid configuration")

// Mode selects the controller driving the vehicle.
type Mode string

const (
	ModeFuzzy  Mode = "fuzzy"
	ModeHybrid Mode = "hybrid"
)

// ParseMode accepts "fuzzy" or "hybrid".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFuzzy, ModeHybrid:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
}

// Scene is the parking environment and the vehicle in it.
type Scene struct {
	Bay       components.Rect
	Obstacles []components.Rect
	Start     components.Pose
	Goal      components.Pose
	Vehicle   components.VehicleParams
}

// DefaultScene is the reference parallel-parking layout: a bay walled on
// three sides with the vehicle approaching from the upper left.
func DefaultScene() Scene {
	return Scene{
		Bay: components.Rect{X: 600, Y: 250, Width: 150, Height: 80},
		Obstacles: []components.Rect{
			{X: 600, Y: 170, Width: 150, Height: 10},
			{X: 600, Y: 410, Width: 150, Height: 10},
			{X: 750, Y: 170, Width: 10, Height: 250},
		},
		Start:   components.NewPose(250, 350, -15),
		Goal:    components.NewPose(675, 290, 0),
		Vehicle: components.VehicleParams{Length: 50, Width: 25, Wheelbase: 35, MaxSteering: 40},
	}
}

// Problem is the planning problem posed by the scene.
func (s Scene) Problem() planner.Problem {
	return planner.Problem{
		Start:     s.Start,
		Goal:      s.Goal,
		Obstacles: s.Obstacles,
		Vehicle:   s.Vehicle,
	}
}

// CentreStop overrides the controller inside the bay: within Tolerance of
// Centre the vehicle stops straight, elsewhere in [MinDepth, MaxDepth] its
// speed is capped at MaxVelocity.
type CentreStop struct {
	Enabled     bool
	MinDepth    float64
	MaxDepth    float64
	Centre      float64
	Tolerance   float64
	MaxVelocity float64
}

// Apply returns the overridden command and whether the override engaged.
func (c CentreStop) Apply(cmd components.Command, depth float64) (components.Command, bool) {
	if !c.Enabled || depth < c.MinDepth || depth > c.MaxDepth {
		return cmd, false
	}
	if math.Abs(depth-c.Centre) <= c.Tolerance {
		return components.Command{}, true
	}
	if cmd.Velocity > c.MaxVelocity {
		cmd.Velocity = c.MaxVelocity
	}
	return cmd, true
}

// Replan re-optimizes from the current pose when the tracking position
// error exceeds Error. Zero Error disables it.
type Replan struct {
	Error    float64
	Cooldown float64 // seconds between re-optimizations
	Max      int
}

// Config holds the simulation loop parameters.
type Config struct {
	Mode        Mode
	DT          float64
	MaxTime     float64
	UseTracking bool
	CentreStop  CentreStop
	Parked      systems.ParkedConfig
	Replan      Replan
}

// DefaultConfig returns the reference loop: 0.1 s ticks, 30 s limit,
// hybrid control with the centre-stop override.
func DefaultConfig() Config {
	return Config{
		Mode:        ModeHybrid,
		DT:          0.1,
		MaxTime:     30,
		UseTracking: true,
		CentreStop: CentreStop{
			Enabled:     true,
			MinDepth:    60,
			MaxDepth:    90,
			Centre:      75,
			Tolerance:   10,
			MaxVelocity: 5,
		},
		Parked: systems.DefaultParkedConfig(),
		Replan: Replan{Cooldown: 2, Max: 3},
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.DT <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidConfig, c.DT)
	}
	if c.MaxTime <= 0 {
		return fmt.Errorf("%w: max time must be positive, got %v", ErrInvalidConfig, c.MaxTime)
	}
	if c.Replan.Error < 0 || c.Replan.Max < 0 {
		return fmt.Errorf("%w: negative replan settings", ErrInvalidConfig)
	}
	return nil
}
