package fuzzy

import (
	"fmt"

	"github.com/pthm-cable/autopark/components"
)

// Variable and term names of the parking rule base.
const (
	InputFront   = "front_distance"
	InputLateral = "lateral_offset"
	InputAngle   = "vehicle_angle"
	InputDepth   = "depth"

	OutputSteering = "steering"
	OutputVelocity = "velocity"
)

type termSpec struct {
	name   string
	shape  Shape
	params []float64
}

type variableSpec struct {
	name       string
	lo, hi     float64
	resolution int
	terms      []termSpec
}

var parkingInputs = []variableSpec{
	{InputFront, 0, 400, 400, []termSpec{
		{"very_close", Trapezoidal, []float64{0, 0, 5, 10}},
		{"close", Triangular, []float64{8, 25, 50}},
		{"medium", Triangular, []float64{40, 100, 180}},
		{"far", Triangular, []float64{150, 250, 350}},
		{"very_far", Trapezoidal, []float64{320, 380, 400, 400}},
	}},
	// Negative is above the bay centre line, positive below.
	{InputLateral, -80, 80, 160, []termSpec{
		{"far_above", Trapezoidal, []float64{-80, -80, -40, -20}},
		{"above", Triangular, []float64{-30, -15, -5}},
		{"centered", Triangular, []float64{-8, 0, 8}},
		{"below", Triangular, []float64{5, 15, 30}},
		{"far_below", Trapezoidal, []float64{20, 40, 80, 80}},
	}},
	{InputAngle, -90, 90, 180, []termSpec{
		{"hard_left", Trapezoidal, []float64{-90, -90, -60, -30}},
		{"left", Triangular, []float64{-50, -25, -5}},
		{"aligned", Triangular, []float64{-15, 0, 15}},
		{"right", Triangular, []float64{5, 25, 50}},
		{"hard_right", Trapezoidal, []float64{30, 60, 90, 90}},
	}},
	// 0 at the bay mouth, the ideal stop is around 70.
	{InputDepth, 0, 150, 150, []termSpec{
		{"entry", Trapezoidal, []float64{0, 0, 10, 30}},
		{"start", Triangular, []float64{20, 40, 58}},
		{"centered", Triangular, []float64{55, 70, 85}},
		{"deep", Triangular, []float64{80, 105, 130}},
		{"end", Trapezoidal, []float64{125, 140, 150, 150}},
	}},
}

var parkingOutputs = []variableSpec{
	{OutputSteering, -40, 40, 80, []termSpec{
		{"hard_left", Trapezoidal, []float64{-40, -40, -30, -20}},
		{"left", Triangular, []float64{-25, -15, -5}},
		{"straight", Triangular, []float64{-5, 0, 5}},
		{"right", Triangular, []float64{5, 15, 25}},
		{"hard_right", Trapezoidal, []float64{20, 30, 40, 40}},
	}},
	{OutputVelocity, 0, 100, 100, []termSpec{
		{"stopped", Trapezoidal, []float64{0, 0, 1, 3}},
		{"crawl", Triangular, []float64{2, 5, 10}},
		{"slow", Triangular, []float64{8, 15, 25}},
		{"medium", Triangular, []float64{20, 35, 55}},
		{"fast", Trapezoidal, []float64{50, 70, 100, 100}},
	}},
}

func rule(inVar, inTerm, velocity, steering string) Rule {
	return Rule{
		If: []Clause{{inVar, inTerm}},
		Then: []Clause{
			{OutputVelocity, velocity},
			{OutputSteering, steering},
		},
	}
}

// parkingRules stops the vehicle at the bay centre and corrects heading and
// lateral offset on the way in.
var parkingRules = []Rule{
	rule(InputDepth, "centered", "stopped", "straight"),
	rule(InputDepth, "start", "slow", "straight"),
	rule(InputDepth, "entry", "slow", "straight"),
	rule(InputDepth, "deep", "crawl", "straight"),
	rule(InputDepth, "end", "stopped", "straight"),
	rule(InputFront, "very_close", "stopped", "straight"),
	rule(InputFront, "far", "fast", "straight"),
	rule(InputAngle, "left", "slow", "right"),
	rule(InputAngle, "right", "slow", "left"),
	rule(InputLateral, "far_below", "slow", "left"),
	rule(InputLateral, "below", "slow", "left"),
	rule(InputLateral, "above", "slow", "right"),
	rule(InputLateral, "far_above", "slow", "right"),
}

func buildVariable(spec variableSpec) (*Variable, error) {
	v, err := NewVariable(spec.name, spec.lo, spec.hi, spec.resolution)
	if err != nil {
		return nil, err
	}
	for _, t := range spec.terms {
		if err := v.AddTerm(t.name, t.shape, t.params...); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// NewParkingSystem builds the centred-stop parking controller.
func NewParkingSystem() (*System, error) {
	s := NewSystem("centred-stop parking")
	for _, spec := range parkingInputs {
		v, err := buildVariable(spec)
		if err != nil {
			return nil, fmt.Errorf("building input: %w", err)
		}
		if err := s.AddInput(v); err != nil {
			return nil, err
		}
	}
	for _, spec := range parkingOutputs {
		v, err := buildVariable(spec)
		if err != nil {
			return nil, fmt.Errorf("building output: %w", err)
		}
		if err := s.AddOutput(v); err != nil {
			return nil, err
		}
	}
	for _, r := range parkingRules {
		if err := s.AddRule(r); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustParkingSystem is like NewParkingSystem but panics on error.
func MustParkingSystem() *System {
	s, err := NewParkingSystem()
	if err != nil {
		panic(fmt.Sprintf("fuzzy: parking system: %v", err))
	}
	return s
}

// SensorInputs maps sensor readings onto the parking system's inputs.
func SensorInputs(s components.Sensors) map[string]float64 {
	return map[string]float64{
		InputFront:   s.Front,
		InputLateral: s.Lateral,
		InputAngle:   s.Angle,
		InputDepth:   s.Depth,
	}
}

// Command extracts a control command from an inference result.
func Command(r Result) components.Command {
	return components.Command{
		Velocity: r.Outputs[OutputVelocity],
		Steering: r.Outputs[OutputSteering],
	}
}
