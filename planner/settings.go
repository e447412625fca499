// Package planner searches a two-parameter curve family for a short,
// collision-free, low-steering path between two poses using a bit-string
// genetic algorithm.
package planner

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/autopark/components"
)

// ErrInvalidSettings is returned when optimizer settings cannot produce a run.
var ErrInvalidSettings = errors.New("planner: invalid settings")

// Range is a closed interval for a real-valued parameter.
type Range struct {
	Min, Max float64
}

// Span returns Max - Min.
func (r Range) Span() float64 { return r.Max - r.Min }

// Clamp limits v to the range.
func (r Range) Clamp(v float64) float64 { return components.Clamp(v, r.Min, r.Max) }

// Settings configures a genetic optimization run.
type Settings struct {
	PopulationSize int
	Generations    int
	CrossoverRate  float64
	MutationRate   float64
	K0Range        Range
	K1Range        Range
	Precision      float64 // encoding resolution of k0 and k1

	// Samples is the number of poses generated per curve.
	Samples int

	// Workers bounds parallel fitness evaluation. 0 uses GOMAXPROCS,
	// 1 evaluates on the calling goroutine.
	Workers int

	// Refine polishes the GA winner with Nelder-Mead over (k0, k1).
	Refine            bool
	RefineEvaluations int
}

// DefaultSettings returns the reference GA configuration.
func DefaultSettings() Settings {
	return Settings{
		PopulationSize:    50,
		Generations:       100,
		CrossoverRate:     0.6,
		MutationRate:      0.04,
		K0Range:           Range{-2, 2},
		K1Range:           Range{-2, 2},
		Precision:         1e-8,
		Samples:           DefaultSamples,
		RefineEvaluations: 200,
	}
}

// Validate reports the first problem that would make a run meaningless.
func (s Settings) Validate() error {
	switch {
	case s.PopulationSize < 2:
		return fmt.Errorf("%w: population size %d < 2", ErrInvalidSettings, s.PopulationSize)
	case s.Generations < 1:
		return fmt.Errorf("%w: generations %d < 1", ErrInvalidSettings, s.Generations)
	case s.CrossoverRate < 0 || s.CrossoverRate > 1:
		return fmt.Errorf("%w: crossover rate %v outside [0,1]", ErrInvalidSettings, s.CrossoverRate)
	case s.MutationRate < 0 || s.MutationRate > 1:
		return fmt.Errorf("%w: mutation rate %v outside [0,1]", ErrInvalidSettings, s.MutationRate)
	case !(s.K0Range.Max > s.K0Range.Min):
		return fmt.Errorf("%w: k0 range %v empty or inverted", ErrInvalidSettings, s.K0Range)
	case !(s.K1Range.Max > s.K1Range.Min):
		return fmt.Errorf("%w: k1 range %v empty or inverted", ErrInvalidSettings, s.K1Range)
	case !(s.Precision > 0):
		return fmt.Errorf("%w: precision %v must be positive", ErrInvalidSettings, s.Precision)
	case s.Samples != 0 && s.Samples < 2:
		return fmt.Errorf("%w: samples %d < 2", ErrInvalidSettings, s.Samples)
	case s.Workers < 0:
		return fmt.Errorf("%w: workers %d < 0", ErrInvalidSettings, s.Workers)
	}
	return nil
}

// Problem is one planning query.
type Problem struct {
	Start     components.Pose
	Goal      components.Pose
	Obstacles []components.Rect
	Vehicle   components.VehicleParams
}
