package telemetry

import (
	"github.com/pthm-cable/autopark/components"
	"github.com/pthm-cable/autopark/planner"
)

// GenerationRecord is one row of generations.csv.
type GenerationRecord struct {
	RunID      string  `csv:"run_id"`
	Phase      string  `csv:"phase"`
	Generation int     `csv:"generation"`
	BestCost   float64 `csv:"best_cost"`
	MeanCost   float64 `csv:"mean_cost"`
	K0         float64 `csv:"k0"`
	K1         float64 `csv:"k1"`
	Direction  string  `csv:"direction"`
}

// TrajectoryRecord is one row of trajectory.csv.
type TrajectoryRecord struct {
	RunID     string  `csv:"run_id"`
	Index     int     `csv:"index"`
	X         float64 `csv:"x"`
	Y         float64 `csv:"y"`
	Heading   float64 `csv:"heading"`
	Direction string  `csv:"direction"`
}

// TickRecord is one row of ticks.csv, written per control tick.
type TickRecord struct {
	RunID string  `csv:"run_id"`
	Tick  int     `csv:"tick"`
	Time  float64 `csv:"time"`

	X       float64 `csv:"x"`
	Y       float64 `csv:"y"`
	Heading float64 `csv:"heading"`

	Front   float64 `csv:"front"`
	Lateral float64 `csv:"lateral"`
	Angle   float64 `csv:"angle"`
	Depth   float64 `csv:"depth"`

	FuzzyVelocity    float64 `csv:"fuzzy_velocity"`
	FuzzySteering    float64 `csv:"fuzzy_steering"`
	TrackingVelocity float64 `csv:"tracking_velocity"`
	TrackingSteering float64 `csv:"tracking_steering"`
	Band             string  `csv:"band"`
	Direction        string  `csv:"direction"`
	Progress         int     `csv:"progress"`
	PositionError    float64 `csv:"position_error"`
	HeadingError     float64 `csv:"heading_error"`

	Velocity float64 `csv:"velocity"`
	Steering float64 `csv:"steering"`
	Override bool    `csv:"override"`
}

// phaseName labels single-phase runs.
const phaseName = "single"

// GenerationRecords flattens the fitness history of r, one row per
// generation and phase.
func GenerationRecords(runID string, r *planner.Result) []GenerationRecord {
	if r == nil {
		return nil
	}
	phases := r.Phases
	if len(phases) == 0 {
		phases = []*planner.Result{r}
	}

	var out []GenerationRecord
	for _, ph := range phases {
		name := ph.Name
		if name == "" {
			name = phaseName
		}
		for i := range ph.BestCost {
			rec := GenerationRecord{
				RunID:      runID,
				Phase:      name,
				Generation: i + 1,
				BestCost:   ph.BestCost[i],
			}
			if i < len(ph.MeanCost) {
				rec.MeanCost = ph.MeanCost[i]
			}
			if i < len(ph.BestGenes) {
				g := ph.BestGenes[i]
				rec.K0, rec.K1, rec.Direction = g.K0, g.K1, g.Direction.String()
			}
			out = append(out, rec)
		}
	}
	return out
}

// TrajectoryRecords lists the planned path with its per-sample direction.
func TrajectoryRecords(runID string, r *planner.Result) []TrajectoryRecord {
	if r == nil {
		return nil
	}
	out := make([]TrajectoryRecord, len(r.Trajectory))
	for i, p := range r.Trajectory {
		out[i] = TrajectoryRecord{
			RunID:     runID,
			Index:     i,
			X:         p.X,
			Y:         p.Y,
			Heading:   p.Heading,
			Direction: r.DirectionAt(i).String(),
		}
	}
	return out
}

// DrivenPath extracts the poses visited by a run.
func DrivenPath(ticks []TickRecord) []components.Pose {
	out := make([]components.Pose, len(ticks))
	for i, t := range ticks {
		out[i] = components.Pose{X: t.X, Y: t.Y, Heading: t.Heading}
	}
	return out
}
