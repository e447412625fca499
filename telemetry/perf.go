package telemetry

import (
	"log/slog"
	"time"
)

// Phase is a timed section of a simulation tick.
type Phase uint8

// Phases of a tick, in execution order. PhaseReplan covers re-optimization
// triggered from inside control.
const (
	PhaseSense Phase = iota
	PhaseControl
	PhaseReplan
	PhaseIntegrate
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{"sense", "control", "replan", "integrate", "telemetry"}

func (p Phase) String() string {
	if p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// tickTiming is the wall time of one tick split by phase.
type tickTiming struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector times simulation ticks and keeps the last windowSize of them.
// Time between StartPhase calls is charged to the earlier phase.
type PerfCollector struct {
	window []tickTiming
	next   int
	filled int

	current    tickTiming
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
}

// NewPerfCollector creates a collector averaging over windowSize ticks
// (100 when windowSize < 1).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 100
	}
	return &PerfCollector{window: make([]tickTiming, windowSize)}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.current = tickTiming{}
	p.inPhase = false
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase {
		p.current.phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
	p.inPhase = phase < numPhases
}

// EndTick closes the running phase and records the tick.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.inPhase = false
	p.current.total = now.Sub(p.tickStart)

	p.window[p.next] = p.current
	p.next = (p.next + 1) % len(p.window)
	if p.filled < len(p.window) {
		p.filled++
	}
}

// PerfStats aggregates the ticks in the window.
type PerfStats struct {
	Samples int
	// TickUS is the per-tick wall time in microseconds.
	TickUS Summary
	// PhasePct is each phase's share of the summed tick time.
	PhasePct       [numPhases]float64
	TicksPerSecond float64
}

// Stats summarizes the current window.
func (p *PerfCollector) Stats() PerfStats {
	st := PerfStats{Samples: p.filled}
	if p.filled == 0 {
		return st
	}

	ticks := make([]float64, p.filled)
	var total time.Duration
	var phases [numPhases]time.Duration
	for i, tt := range p.window[:p.filled] {
		ticks[i] = float64(tt.total) / float64(time.Microsecond)
		total += tt.total
		for ph, d := range tt.phases {
			phases[ph] += d
		}
	}

	st.TickUS = Summarize(ticks)
	if total > 0 {
		for ph, d := range phases {
			st.PhasePct[ph] = float64(d) / float64(total) * 100
		}
		st.TicksPerSecond = float64(p.filled) * float64(time.Second) / float64(total)
	}
	return st
}

// LogValue implements slog.LogValuer. Phases that took no time are omitted.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("samples", s.Samples),
		slog.Float64("mean_tick_us", s.TickUS.Mean),
		slog.Float64("p90_tick_us", s.TickUS.P90),
		slog.Float64("max_tick_us", s.TickUS.Max),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for ph := Phase(0); ph < numPhases; ph++ {
		if pct := s.PhasePct[ph]; pct > 0 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	RunID        string  `csv:"run_id"`
	Samples      int     `csv:"samples"`
	MeanTickUS   float64 `csv:"mean_tick_us"`
	P50TickUS    float64 `csv:"p50_tick_us"`
	P90TickUS    float64 `csv:"p90_tick_us"`
	MaxTickUS    float64 `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	SensePct     float64 `csv:"sense_pct"`
	ControlPct   float64 `csv:"control_pct"`
	ReplanPct    float64 `csv:"replan_pct"`
	IntegratePct float64 `csv:"integrate_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens s for perf.csv.
func (s PerfStats) ToCSV(runID string) PerfStatsCSV {
	return PerfStatsCSV{
		RunID:        runID,
		Samples:      s.Samples,
		MeanTickUS:   s.TickUS.Mean,
		P50TickUS:    s.TickUS.P50,
		P90TickUS:    s.TickUS.P90,
		MaxTickUS:    s.TickUS.Max,
		TicksPerSec:  s.TicksPerSecond,
		SensePct:     s.PhasePct[PhaseSense],
		ControlPct:   s.PhasePct[PhaseControl],
		ReplanPct:    s.PhasePct[PhaseReplan],
		IntegratePct: s.PhasePct[PhaseIntegrate],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
