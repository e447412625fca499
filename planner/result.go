package planner

import "github.com/pthm-cable/autopark/components"

// Segment is a run of trajectory indices [Start, End) driven in one direction.
type Segment struct {
	Start, End int
	Direction  components.Direction
}

// Gene is a decoded chromosome.
type Gene struct {
	K0, K1    float64
	Direction components.Direction
}

// Result is the outcome of an optimization run.
//
// For a two-phase run K0, K1 and Direction describe the final (reverse)
// phase; each phase's own result is kept in Phases.
type Result struct {
	// Name labels a phase of a multi-phase run.
	Name string

	K0, K1    float64
	Direction components.Direction

	Trajectory   []components.Pose
	PathLength   float64
	MaxSteering  float64 // degrees
	Objective    float64 // PathLength² + MaxSteering², unpenalized
	HasCollision bool

	// Per generation, as positive cost. Two-phase runs concatenate phases.
	BestCost        []float64
	MeanCost        []float64
	BestChromosomes []Chromosome
	BestGenes       []Gene

	Segments     []Segment
	Phases       []*Result
	Intermediate *components.Pose
}

// DirectionAt returns the travel direction at trajectory index i.
func (r *Result) DirectionAt(i int) components.Direction {
	for _, s := range r.Segments {
		if i >= s.Start && i < s.End {
			return s.Direction
		}
	}
	if n := len(r.Segments); n > 0 && i >= r.Segments[n-1].End {
		return r.Segments[n-1].Direction
	}
	if r.Direction == 0 {
		return components.Forward
	}
	return r.Direction
}

// Parameters is the scalar summary of a result.
type Parameters struct {
	K0, K1       float64
	Direction    components.Direction
	PathLength   float64
	MaxSteering  float64
	Objective    float64
	HasCollision bool
	Phases       []Parameters
}

// Parameters summarises the result without the trajectory and history.
func (r *Result) Parameters() Parameters {
	p := Parameters{
		K0:           r.K0,
		K1:           r.K1,
		Direction:    r.Direction,
		PathLength:   r.PathLength,
		MaxSteering:  r.MaxSteering,
		Objective:    r.Objective,
		HasCollision: r.HasCollision,
	}
	for _, ph := range r.Phases {
		p.Phases = append(p.Phases, ph.Parameters())
	}
	return p
}

func objective(pathLength, maxSteering float64) float64 {
	return pathLength*pathLength + maxSteering*maxSteering
}
