package main

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"github.com/pthm-cable/autopark/components"
	"github.com/pthm-cable/autopark/config"
	"github.com/pthm-cable/autopark/fuzzy"
	"github.com/pthm-cable/autopark/hybrid"
	"github.com/pthm-cable/autopark/planner"
	"github.com/pthm-cable/autopark/sim"
)

// Start pose jitter applied per evaluation seed.
const (
	jitterPosition = 10.0 // pixels
	jitterHeading  = 3.0  // degrees
)

// Per-run fitness terms, in seconds of simulated time.
const (
	collisionPenalty = 2.0 // times max_time
	timeoutPenalty   = 1.0 // times max_time
	distanceWeight   = 0.1 // per pixel left to the goal
)

// FitnessEvaluator runs closed-loop simulations against a shared planned
// path and scores control parameters.
type FitnessEvaluator struct {
	params     *ParamVector
	baseConfig *config.Config
	plan       *planner.Result
	starts     []components.Pose

	mu         sync.Mutex
	lastParked int
}

// jitteredStarts derives one start pose per seed around start.
func jitteredStarts(start components.Pose, seeds []int64) []components.Pose {
	out := make([]components.Pose, len(seeds))
	for i, seed := range seeds {
		rng := rand.New(rand.NewSource(seed))
		out[i] = components.NewPose(
			start.X+(2*rng.Float64()-1)*jitterPosition,
			start.Y+(2*rng.Float64()-1)*jitterPosition,
			start.Heading+(2*rng.Float64()-1)*jitterHeading,
		)
	}
	return out
}

// NewFitnessEvaluator creates a new evaluator. plan is the path every run
// tracks; it is planned once for the unjittered scene.
func NewFitnessEvaluator(params *ParamVector, baseCfg *config.Config, plan *planner.Result, seeds []int64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		baseConfig: baseCfg,
		plan:       plan,
		starts:     jitteredStarts(baseCfg.Scene().Start, seeds),
	}
}

// LastParked returns how many runs of the most recent evaluation parked.
func (fe *FitnessEvaluator) LastParked() int {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastParked
}

// runResult holds the results from a single simulation run.
type runResult struct {
	outcome  components.Outcome
	simTime  float64
	distance float64 // final distance to the goal
	err      error
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	// Run all starts in parallel
	results := make([]runResult, len(fe.starts))
	var wg sync.WaitGroup
	for i, start := range fe.starts {
		wg.Add(1)
		go func(idx int, st components.Pose) {
			defer wg.Done()
			results[idx] = fe.runSimulation(cfg, st)
		}(i, start)
	}
	wg.Wait()

	maxTime := cfg.Simulation.MaxTime
	var total float64
	parked := 0
	for _, r := range results {
		total += computeFitness(r, maxTime)
		if r.outcome == components.Parked {
			parked++
		}
	}
	avg := total / float64(len(results))

	fe.mu.Lock()
	fe.lastParked = parked
	fe.mu.Unlock()

	return avg
}

// runSimulation executes a single headless run from start.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, start components.Pose) runResult {
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return runResult{err: err}
	}
	// Every run tracks the cached path.
	simCfg.Mode = sim.ModeHybrid
	simCfg.Replan.Error = 0

	scene := cfg.Scene()
	scene.Start = start

	fis := fuzzy.MustParkingSystem()
	ctrl := hybrid.New(fis, cfg.HybridConfig(), rand.New(rand.NewSource(1)))
	p := scene.Problem()
	ctrl.UsePlan(p, fe.plan)

	s, err := sim.New(scene, simCfg, fis, ctrl)
	if err != nil {
		return runResult{err: err}
	}
	outcome, err := s.Run(context.Background(), 0)
	pose := s.State().Pose
	return runResult{
		outcome:  outcome,
		simTime:  s.Time(),
		distance: math.Hypot(p.Goal.X-pose.X, p.Goal.Y-pose.Y),
		err:      err,
	}
}

// copyConfig returns a copy of the base config whose tuned fields can be
// overwritten. Slices are shared and must not be modified.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness scores one run: the parking time when parked, otherwise a
// failure penalty plus the distance left to the goal.
func computeFitness(r runResult, maxTime float64) float64 {
	switch {
	case r.err != nil:
		return (collisionPenalty + 1) * maxTime
	case r.outcome == components.Parked:
		return r.simTime
	case r.outcome == components.Collided:
		return collisionPenalty*maxTime + distanceWeight*r.distance
	default:
		return timeoutPenalty*maxTime + distanceWeight*r.distance
	}
}
