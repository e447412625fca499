// Package config provides configuration loading and access for the parking
// planner and simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Vehicle    VehicleConfig    `yaml:"vehicle"`
	Scene      SceneConfig      `yaml:"scene"`
	Planner    PlannerConfig    `yaml:"planner"`
	Tracking   TrackingConfig   `yaml:"tracking"`
	Control    ControlConfig    `yaml:"control"`
	Blend      BlendConfig      `yaml:"blend"`
	Simulation SimulationConfig `yaml:"simulation"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// VehicleConfig holds the vehicle geometry.
type VehicleConfig struct {
	Length      float64 `yaml:"length"`
	Width       float64 `yaml:"width"`
	Wheelbase   float64 `yaml:"wheelbase"`    // 0 = 0.7 * length
	MaxSteering float64 `yaml:"max_steering"` // degrees
}

// RectConfig is an axis-aligned rectangle.
type RectConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PoseConfig is a position with heading in degrees.
type PoseConfig struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Heading float64 `yaml:"heading"`
}

// SceneConfig holds the parking environment.
type SceneConfig struct {
	Bay       RectConfig   `yaml:"bay"`
	Obstacles []RectConfig `yaml:"obstacles"`
	Start     PoseConfig   `yaml:"start"`
	Goal      PoseConfig   `yaml:"goal"`
}

// RangeConfig is a closed interval.
type RangeConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// GAConfig holds genetic algorithm parameters.
type GAConfig struct {
	Population  int     `yaml:"population"`
	Generations int     `yaml:"generations"`
	Crossover   float64 `yaml:"crossover"`
	Mutation    float64 `yaml:"mutation"`
}

// HeuristicConfig holds the intermediate-pose offsets of two-phase planning.
type HeuristicConfig struct {
	LateralFactor      float64 `yaml:"lateral_factor"`
	LongitudinalFactor float64 `yaml:"longitudinal_factor"`
	Margin             float64 `yaml:"margin"`
}

// PlannerConfig holds trajectory optimization parameters.
type PlannerConfig struct {
	GAConfig          `yaml:",inline"`
	K0                RangeConfig     `yaml:"k0"`
	K1                RangeConfig     `yaml:"k1"`
	Precision         float64         `yaml:"precision"`
	Samples           int             `yaml:"samples"`
	TwoPhase          bool            `yaml:"two_phase"`
	Workers           int             `yaml:"workers"` // 0 = GOMAXPROCS
	Refine            bool            `yaml:"refine"`
	RefineEvaluations int             `yaml:"refine_evaluations"`
	Replan            GAConfig        `yaml:"replan"` // search used when re-optimizing
	Heuristic         HeuristicConfig `yaml:"heuristic"`
}

// TrackingConfig holds reference point selection parameters.
type TrackingConfig struct {
	Lookahead   float64 `yaml:"lookahead"`
	WindowBack  int     `yaml:"window_back"`
	WindowAhead int     `yaml:"window_ahead"`
}

// ScaleBandConfig scales a command once a trigger crosses a threshold.
type ScaleBandConfig struct {
	Threshold float64 `yaml:"threshold"`
	Scale     float64 `yaml:"scale"`
}

// ControlConfig holds the path-following law.
type ControlConfig struct {
	DirectionGain      float64           `yaml:"direction_gain"`
	HeadingGain        float64           `yaml:"heading_gain"`
	SteeringFilter     float64           `yaml:"steering_filter"`
	VelocityFilter     float64           `yaml:"velocity_filter"`
	VelocityGain       float64           `yaml:"velocity_gain"`
	MinVelocity        float64           `yaml:"min_velocity"`
	MaxVelocity        float64           `yaml:"max_velocity"`
	HeadingBands       []ScaleBandConfig `yaml:"heading_bands"`
	NearReference      ScaleBandConfig   `yaml:"near_reference"`
	ObstacleBands      []ScaleBandConfig `yaml:"obstacle_bands"`
	BearingMinDistance float64           `yaml:"bearing_min_distance"`
}

// WeightsConfig is the tracking share of a blend band.
type WeightsConfig struct {
	Velocity float64 `yaml:"velocity"`
	Steering float64 `yaml:"steering"`
}

// BlendConfig holds the fuzzy/tracking blend.
type BlendConfig struct {
	NearThreshold float64       `yaml:"near_threshold"`
	MidThreshold  float64       `yaml:"mid_threshold"`
	Near          WeightsConfig `yaml:"near"`
	Mid           WeightsConfig `yaml:"mid"`
	Far           WeightsConfig `yaml:"far"`
}

// CentreStopConfig holds the in-bay override.
type CentreStopConfig struct {
	Enabled     bool    `yaml:"enabled"`
	MinDepth    float64 `yaml:"min_depth"`
	MaxDepth    float64 `yaml:"max_depth"`
	Centre      float64 `yaml:"centre"`
	Tolerance   float64 `yaml:"tolerance"`
	MaxVelocity float64 `yaml:"max_velocity"`
}

// ParkedConfig holds the parked conditions.
type ParkedConfig struct {
	Margin     float64 `yaml:"margin"`
	MaxAngle   float64 `yaml:"max_angle"`
	MaxLateral float64 `yaml:"max_lateral"`
	MinFront   float64 `yaml:"min_front"`
	MaxFront   float64 `yaml:"max_front"`
	MaxSpeed   float64 `yaml:"max_speed"`
	Dwell      float64 `yaml:"dwell"`
}

// ReplanConfig holds the re-optimization trigger.
type ReplanConfig struct {
	Error    float64 `yaml:"error"` // 0 disables
	Cooldown float64 `yaml:"cooldown"`
	Max      int     `yaml:"max"`
}

// SimulationConfig holds the closed-loop run parameters.
type SimulationConfig struct {
	Mode        string           `yaml:"mode"` // fuzzy | hybrid
	DT          float64          `yaml:"dt"`
	MaxTime     float64          `yaml:"max_time"`
	UseTracking bool             `yaml:"use_tracking"`
	CentreStop  CentreStopConfig `yaml:"centre_stop"`
	Parked      ParkedConfig     `yaml:"parked"`
	Replan      ReplanConfig     `yaml:"replan"`
}

// TelemetryConfig holds output parameters.
type TelemetryConfig struct {
	WriteTicks bool `yaml:"write_ticks"`
	Plots      bool `yaml:"plots"`
	PerfWindow int  `yaml:"perf_window"` // ticks averaged per perf sample
	LogEvents  bool `yaml:"log_events"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Wheelbase   float64 // Vehicle.Wheelbase or 0.7 * length
	MaxTicks    int     // Simulation.MaxTime / DT, rounded up
	MaxSteering float64 // steering clamp shared by vehicle and tracking law
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Wheelbase = c.Vehicle.Wheelbase
	if c.Derived.Wheelbase <= 0 {
		c.Derived.Wheelbase = 0.7 * c.Vehicle.Length
	}

	c.Derived.MaxSteering = c.Vehicle.MaxSteering

	if c.Simulation.DT > 0 {
		n := int(c.Simulation.MaxTime / c.Simulation.DT)
		if float64(n)*c.Simulation.DT < c.Simulation.MaxTime {
			n++
		}
		c.Derived.MaxTicks = n
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
