// Package fuzzy implements a Mamdani fuzzy inference engine over sampled
// universes of discourse with centroid defuzzification.
package fuzzy

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMembership is returned when a term cannot be built from the
// given shape and parameters. It indicates a configuration bug.
var ErrInvalidMembership = errors.New("fuzzy: invalid membership function")

// Shape names a membership function family.
type Shape string

const (
	Triangular  Shape = "trimf"
	Trapezoidal Shape = "trapmf"
	Gaussian    Shape = "gaussmf"
)

// Variable is a linguistic variable with a discretized universe.
// Every sampled membership value lies in [0, 1].
type Variable struct {
	Name     string
	Min, Max float64

	universe []float64
	terms    []string
	termIdx  map[string]int
	mfs      [][]float64
}

// NewVariable creates a variable over [lo, hi] sampled at resolution points.
func NewVariable(name string, lo, hi float64, resolution int) (*Variable, error) {
	if !(hi > lo) {
		return nil, fmt.Errorf("fuzzy: variable %q: domain [%v, %v] is empty", name, lo, hi)
	}
	if resolution < 2 {
		return nil, fmt.Errorf("fuzzy: variable %q: resolution %d < 2", name, resolution)
	}

	universe := make([]float64, resolution)
	step := (hi - lo) / float64(resolution-1)
	for i := range universe {
		universe[i] = lo + float64(i)*step
	}
	universe[resolution-1] = hi

	return &Variable{
		Name:     name,
		Min:      lo,
		Max:      hi,
		universe: universe,
		termIdx:  make(map[string]int),
	}, nil
}

// Universe returns the sample points. The slice must not be modified.
func (v *Variable) Universe() []float64 { return v.universe }

// Resolution returns the number of samples.
func (v *Variable) Resolution() int { return len(v.universe) }

// Terms returns term names in definition order.
func (v *Variable) Terms() []string { return v.terms }

// Membership returns the sampled membership array of a term, or nil.
func (v *Variable) Membership(term string) []float64 {
	i, ok := v.termIdx[term]
	if !ok {
		return nil
	}
	return v.mfs[i]
}

// termIndex returns the index of a term or -1.
func (v *Variable) termIndex(term string) int {
	if i, ok := v.termIdx[term]; ok {
		return i
	}
	return -1
}

// AddTerm samples a membership function over the universe and stores it under
// name. Redefining an existing term replaces it in place.
//
// Triangular takes (a, b, c), Trapezoidal (a, b, c, d) and Gaussian
// (mean, sigma). Breakpoints must be non-decreasing.
func (v *Variable) AddTerm(name string, shape Shape, params ...float64) error {
	mf, err := func() (func(float64) float64, error) {
		switch shape {
		case Triangular:
			if len(params) != 3 {
				return nil, fmt.Errorf("%w: %s needs 3 params, got %d", ErrInvalidMembership, shape, len(params))
			}
			a, b, c := params[0], params[1], params[2]
			if a > b || b > c {
				return nil, fmt.Errorf("%w: %s params %v not ordered", ErrInvalidMembership, shape, params)
			}
			return func(x float64) float64 { return triangular(x, a, b, c) }, nil
		case Trapezoidal:
			if len(params) != 4 {
				return nil, fmt.Errorf("%w: %s needs 4 params, got %d", ErrInvalidMembership, shape, len(params))
			}
			a, b, c, d := params[0], params[1], params[2], params[3]
			if a > b || b > c || c > d {
				return nil, fmt.Errorf("%w: %s params %v not ordered", ErrInvalidMembership, shape, params)
			}
			return func(x float64) float64 { return trapezoidal(x, a, b, c, d) }, nil
		case Gaussian:
			if len(params) != 2 {
				return nil, fmt.Errorf("%w: %s needs 2 params, got %d", ErrInvalidMembership, shape, len(params))
			}
			mean, sigma := params[0], params[1]
			if !(sigma > 0) {
				return nil, fmt.Errorf("%w: %s sigma %v must be positive", ErrInvalidMembership, shape, sigma)
			}
			return func(x float64) float64 { return gaussian(x, mean, sigma) }, nil
		default:
			return nil, fmt.Errorf("%w: unsupported shape %q", ErrInvalidMembership, shape)
		}
	}()
	if err != nil {
		return fmt.Errorf("variable %q term %q: %w", v.Name, name, err)
	}

	sampled := make([]float64, len(v.universe))
	for i, x := range v.universe {
		sampled[i] = clamp01(mf(x))
	}

	if i, ok := v.termIdx[name]; ok {
		v.mfs[i] = sampled
		return nil
	}
	v.termIdx[name] = len(v.terms)
	v.terms = append(v.terms, name)
	v.mfs = append(v.mfs, sampled)
	return nil
}

// sampleIndex returns the index of the universe sample nearest to value after
// clipping it to the domain. Ties resolve to the lower index.
func (v *Variable) sampleIndex(value float64) int {
	if math.IsNaN(value) || value <= v.Min {
		return 0
	}
	last := len(v.universe) - 1
	if value >= v.Max {
		return last
	}
	step := (v.Max - v.Min) / float64(last)
	i := int(math.Round((value - v.Min) / step))
	if i > last {
		i = last
	}
	if i > 0 && math.Abs(v.universe[i-1]-value) <= math.Abs(v.universe[i]-value) {
		i--
	}
	return i
}

// degrees returns the membership of every term at value, in term order.
func (v *Variable) degrees(value float64) []float64 {
	idx := v.sampleIndex(value)
	out := make([]float64, len(v.mfs))
	for i, mf := range v.mfs {
		out[i] = mf[idx]
	}
	return out
}

// Fuzzify returns term -> membership at the sample nearest to value.
// This is a nearest-sample lookup, not interpolation.
func (v *Variable) Fuzzify(value float64) map[string]float64 {
	deg := v.degrees(value)
	out := make(map[string]float64, len(deg))
	for i, name := range v.terms {
		out[name] = deg[i]
	}
	return out
}

// midpoint of the domain.
func (v *Variable) midpoint() float64 { return (v.Min + v.Max) / 2 }

// triangular treats zero-width sides as vertical steps.
func triangular(x, a, b, c float64) float64 {
	switch {
	case x < a || x > c:
		return 0
	case x == b:
		return 1
	case x < b:
		return (x - a) / (b - a)
	default:
		return (c - x) / (c - b)
	}
}

func trapezoidal(x, a, b, c, d float64) float64 {
	switch {
	case x < a || x > d:
		return 0
	case x >= b && x <= c:
		return 1
	case x < b:
		return (x - a) / (b - a)
	default:
		return (d - x) / (d - c)
	}
}

func gaussian(x, mean, sigma float64) float64 {
	z := (x - mean) / sigma
	return math.Exp(-0.5 * z * z)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
