package planner

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/pthm-cable/autopark/components"
)

// Heuristic places the intermediate pose of a two-phase manoeuvre beside and
// ahead of the bay.
type Heuristic struct {
	LateralFactor      float64 // times vehicle width, plus half a width and Margin
	LongitudinalFactor float64 // times vehicle length
	Margin             float64
}

// DefaultHeuristic returns the reference intermediate-pose offsets.
func DefaultHeuristic() Heuristic {
	return Heuristic{LateralFactor: 1.3, LongitudinalFactor: 0.5, Margin: 5}
}

// IntermediatePose returns Ir, offset from goal along the goal's lateral and
// longitudinal axes, sharing the goal heading.
func (h Heuristic) IntermediatePose(goal components.Pose, v components.VehicleParams) components.Pose {
	lat := h.LateralFactor*v.Width + v.Width/2 + h.Margin
	lon := h.LongitudinalFactor * v.Length
	th := components.Deg2Rad(goal.Heading)
	return components.Pose{
		X:       goal.X - lat*math.Sin(th) + lon*math.Cos(th),
		Y:       goal.Y + lat*math.Cos(th) + lon*math.Sin(th),
		Heading: goal.Heading,
	}
}

// TwoPhase plans start -> Ir forward and then Ir -> goal in reverse, each
// phase an independent quintic/Hermite GA run.
type TwoPhase struct {
	settings  Settings
	heuristic Heuristic
	curve     CurveGenerator
	rng       *rand.Rand
	log       *slog.Logger
}

// NewTwoPhase creates a two-phase planner sharing rng across both phases.
func NewTwoPhase(s Settings, h Heuristic, rng *rand.Rand) (*TwoPhase, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidSettings)
	}
	if s.Samples == 0 {
		s.Samples = DefaultSamples
	}
	return &TwoPhase{
		settings:  s,
		heuristic: h,
		curve:     NewQuinticHermite(s.Samples),
		rng:       rng,
		log:       slog.Default(),
	}, nil
}

// WithLogger sets the logger passed to both phases.
func (t *TwoPhase) WithLogger(l *slog.Logger) *TwoPhase {
	if l != nil {
		t.log = l
	}
	return t
}

func (t *TwoPhase) phase(p Problem, dir components.Direction, name string) (*Result, error) {
	opt, err := New(t.settings, t.curve, ForcedDirection(dir), t.rng)
	if err != nil {
		return nil, err
	}
	opt.WithLogger(t.log.With("phase", name))
	r, err := opt.Run(p)
	if err != nil {
		return nil, err
	}
	r.Name = name
	return r, nil
}

// Run plans both phases and concatenates them.
func (t *TwoPhase) Run(p Problem) (*Result, error) {
	ir := t.heuristic.IntermediatePose(p.Goal, p.Vehicle)
	t.log.Debug("two-phase plan", "ir_x", ir.X, "ir_y", ir.Y, "ir_heading", ir.Heading)

	first := p
	first.Goal = ir
	r1, err := t.phase(first, components.Forward, "approach")
	if err != nil {
		return nil, fmt.Errorf("phase 1: %w", err)
	}

	second := p
	second.Start = ir
	r2, err := t.phase(second, components.Reverse, "entry")
	if err != nil {
		return nil, fmt.Errorf("phase 2: %w", err)
	}

	return combine(r1, r2, ir), nil
}

func combine(r1, r2 *Result, ir components.Pose) *Result {
	n1 := len(r1.Trajectory)
	out := &Result{
		K0:           r2.K0,
		K1:           r2.K1,
		Direction:    r2.Direction,
		PathLength:   r1.PathLength + r2.PathLength,
		MaxSteering:  math.Max(r1.MaxSteering, r2.MaxSteering),
		HasCollision: r1.HasCollision || r2.HasCollision,
		Phases:       []*Result{r1, r2},
		Intermediate: &ir,
		Segments: []Segment{
			{Start: 0, End: n1, Direction: r1.Direction},
			{Start: n1, End: n1 + len(r2.Trajectory), Direction: r2.Direction},
		},
	}
	out.Objective = objective(out.PathLength, out.MaxSteering)
	out.Trajectory = append(append(make([]components.Pose, 0, n1+len(r2.Trajectory)), r1.Trajectory...), r2.Trajectory...)
	out.BestCost = append(append([]float64(nil), r1.BestCost...), r2.BestCost...)
	out.MeanCost = append(append([]float64(nil), r1.MeanCost...), r2.MeanCost...)
	out.BestChromosomes = append(append([]Chromosome(nil), r1.BestChromosomes...), r2.BestChromosomes...)
	out.BestGenes = append(append([]Gene(nil), r1.BestGenes...), r2.BestGenes...)
	return out
}
