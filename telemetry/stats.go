package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/autopark/planner"
)

// Summary holds the distribution of one per-tick quantity.
type Summary struct {
	N    int     `json:"n"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	P10  float64 `json:"p10"`
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
	Max  float64 `json:"max"`
}

// Summarize computes mean, sample standard deviation, empirical quantiles and
// maximum of values. An empty input yields the zero Summary.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if n == 1 {
		std = 0
	}
	return Summary{
		N:    n,
		Mean: mean,
		Std:  std,
		P10:  stat.Quantile(0.10, stat.Empirical, sorted, nil),
		P50:  stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:  stat.Quantile(0.90, stat.Empirical, sorted, nil),
		Max:  floats.Max(sorted),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("n", s.N),
		slog.Float64("mean", s.Mean),
		slog.Float64("p50", s.P50),
		slog.Float64("p90", s.P90),
		slog.Float64("max", s.Max),
	)
}

// PlanSummary is the scalar outcome of a planning run.
type PlanSummary struct {
	K0           float64       `json:"k0"`
	K1           float64       `json:"k1"`
	Direction    string        `json:"direction"`
	PathLength   float64       `json:"path_length"`
	MaxSteering  float64       `json:"max_steering"`
	Objective    float64       `json:"objective"`
	HasCollision bool          `json:"has_collision"`
	Samples      int           `json:"samples"`
	Generations  int           `json:"generations"`
	Phases       []PlanSummary `json:"phases,omitempty"`
}

// SummarizePlan flattens r, or returns nil for a nil result.
func SummarizePlan(r *planner.Result) *PlanSummary {
	if r == nil {
		return nil
	}
	ps := &PlanSummary{
		K0:           r.K0,
		K1:           r.K1,
		Direction:    r.Direction.String(),
		PathLength:   r.PathLength,
		MaxSteering:  r.MaxSteering,
		Objective:    r.Objective,
		HasCollision: r.HasCollision,
		Samples:      len(r.Trajectory),
		Generations:  len(r.BestCost),
	}
	for _, ph := range r.Phases {
		ps.Phases = append(ps.Phases, *SummarizePlan(ph))
	}
	return ps
}

// RunSummary is the content of run.json.
type RunSummary struct {
	RunID   string  `json:"run_id"`
	Seed    int64   `json:"seed"`
	Mode    string  `json:"mode"`
	Outcome string  `json:"outcome"`
	Ticks   int     `json:"ticks"`
	SimTime float64 `json:"sim_time"`

	FinalX       float64 `json:"final_x"`
	FinalY       float64 `json:"final_y"`
	FinalHeading float64 `json:"final_heading"`

	Reoptimizations int `json:"reoptimizations"`

	PositionError Summary `json:"position_error"`
	HeadingError  Summary `json:"heading_error"`
	Steering      Summary `json:"abs_steering"`
	Velocity      Summary `json:"abs_velocity"`

	Plan *PlanSummary `json:"plan,omitempty"`
}

// SummarizeTicks fills the per-tick distributions of rs from ticks. Tracking
// errors are only counted on ticks where tracking contributed.
func (rs *RunSummary) SummarizeTicks(ticks []TickRecord) {
	var pos, head, steer, vel []float64
	for _, t := range ticks {
		if t.Band != "" {
			pos = append(pos, t.PositionError)
			head = append(head, math.Abs(t.HeadingError))
		}
		steer = append(steer, math.Abs(t.Steering))
		vel = append(vel, math.Abs(t.Velocity))
	}
	rs.PositionError = Summarize(pos)
	rs.HeadingError = Summarize(head)
	rs.Steering = Summarize(steer)
	rs.Velocity = Summarize(vel)

	if n := len(ticks); n > 0 {
		last := ticks[n-1]
		rs.Ticks = last.Tick
		rs.SimTime = last.Time
		rs.FinalX, rs.FinalY, rs.FinalHeading = last.X, last.Y, last.Heading
	}
}

// LogStats logs the run summary using slog.
func (rs RunSummary) LogStats() {
	attrs := []any{
		"run_id", rs.RunID,
		"mode", rs.Mode,
		"outcome", rs.Outcome,
		"ticks", rs.Ticks,
		"sim_time", rs.SimTime,
		"final_x", rs.FinalX,
		"final_y", rs.FinalY,
		"final_heading", rs.FinalHeading,
		"reoptimizations", rs.Reoptimizations,
		"abs_steering", rs.Steering,
	}
	if rs.PositionError.N > 0 {
		attrs = append(attrs, "position_error", rs.PositionError)
	}
	slog.Info("run complete", attrs...)
}
