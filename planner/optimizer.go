package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/autopark/components"
)

// degenerateSpread is the fitness spread below which roulette selection
// falls back to a uniform draw.
const degenerateSpread = 1e-10

// Optimizer runs the genetic search for one curve family and direction policy.
type Optimizer struct {
	settings Settings
	curve    CurveGenerator
	policy   DirectionPolicy
	layout   Layout
	rng      *rand.Rand
	log      *slog.Logger
}

// New creates an optimizer. All random draws come from rng.
func New(s Settings, curve CurveGenerator, policy DirectionPolicy, rng *rand.Rand) (*Optimizer, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidSettings)
	}
	if s.Samples == 0 {
		s.Samples = DefaultSamples
	}
	if curve == nil {
		curve = NewBezier(s.Samples)
	}
	return &Optimizer{
		settings: s,
		curve:    curve,
		policy:   policy,
		layout:   NewLayout(s),
		rng:      rng,
		log:      slog.Default(),
	}, nil
}

// WithLogger sets the logger used for generation progress.
func (o *Optimizer) WithLogger(l *slog.Logger) *Optimizer {
	if l != nil {
		o.log = l
	}
	return o
}

// Layout returns the chromosome layout in use.
func (o *Optimizer) Layout() Layout { return o.layout }

// candidate is a decoded and evaluated parameter set.
type candidate struct {
	k0, k1    float64
	dir       components.Direction
	curve     Curve
	collision bool
	cost      float64 // penalized, positive
}

func (o *Optimizer) evaluateParams(p Problem, k0, k1 float64, dir components.Direction) (candidate, error) {
	c, err := o.curve.Generate(p.Start, p.Goal, k0, k1, dir, p.Vehicle)
	if err != nil {
		return candidate{}, err
	}
	cand := candidate{k0: k0, k1: k1, dir: dir, curve: c}
	cand.collision = Collides(c.Poses, p.Obstacles, p.Vehicle)
	length := c.Length
	if cand.collision {
		length *= collisionPenalty
	}
	cand.cost = objective(length, c.MaxSteering)
	return cand, nil
}

func (o *Optimizer) decode(c Chromosome) (k0, k1 float64, dir components.Direction) {
	k0, k1, bit := o.layout.Decode(c)
	return k0, k1, o.policy.Resolve(bit)
}

// Run searches for the best (k0, k1, direction) for p.
func (o *Optimizer) Run(p Problem) (*Result, error) {
	s := o.settings

	ev := newEvaluator(s.Workers, func(c Chromosome) (float64, error) {
		k0, k1, dir := o.decode(c)
		cand, err := o.evaluateParams(p, k0, k1, dir)
		if err != nil {
			return 0, err
		}
		return -cand.cost, nil
	})
	defer ev.stop()

	pop := make([]Chromosome, s.PopulationSize)
	for i := range pop {
		pop[i] = o.layout.Random(o.rng)
	}

	res := &Result{
		BestCost:        make([]float64, 0, s.Generations),
		MeanCost:        make([]float64, 0, s.Generations),
		BestChromosomes: make([]Chromosome, 0, s.Generations),
		BestGenes:       make([]Gene, 0, s.Generations),
	}

	var best Chromosome
	bestFitness := math.Inf(-1)

	for gen := 0; gen < s.Generations; gen++ {
		fitness, err := ev.evaluate(pop)
		if err != nil {
			return nil, fmt.Errorf("generation %d: %w", gen+1, err)
		}

		idx := argmax(fitness)
		if best == nil || fitness[idx] > bestFitness {
			bestFitness = fitness[idx]
			best = pop[idx].Clone()
		}

		res.BestCost = append(res.BestCost, -bestFitness)
		res.MeanCost = append(res.MeanCost, -stat.Mean(fitness, nil))
		res.BestChromosomes = append(res.BestChromosomes, best.Clone())
		bk0, bk1, bdir := o.decode(best)
		res.BestGenes = append(res.BestGenes, Gene{K0: bk0, K1: bk1, Direction: bdir})

		if gen == 0 || (gen+1)%10 == 0 {
			o.logGeneration(p, gen, best, -bestFitness, res.MeanCost[gen])
		}

		if gen == s.Generations-1 {
			break
		}
		pop = o.breed(pop, fitness, best)
	}

	k0, k1, dir := o.decode(best)
	final, err := o.evaluateParams(p, k0, k1, dir)
	if err != nil {
		return nil, err
	}
	if s.Refine {
		final, err = o.refine(p, final)
		if err != nil && !errors.Is(err, errRefineNoImprovement) {
			o.log.Warn("refinement failed", "error", err)
		}
	}

	res.K0, res.K1, res.Direction = final.k0, final.k1, final.dir
	res.Trajectory = final.curve.Poses
	res.PathLength = final.curve.Length
	res.MaxSteering = final.curve.MaxSteering
	res.Objective = objective(final.curve.Length, final.curve.MaxSteering)
	res.HasCollision = final.collision
	res.Segments = []Segment{{Start: 0, End: len(res.Trajectory), Direction: final.dir}}

	o.log.Info("optimization complete",
		"k0", res.K0,
		"k1", res.K1,
		"direction", res.Direction.String(),
		"path_length", res.PathLength,
		"max_steering", res.MaxSteering,
		"collision", res.HasCollision,
	)
	return res, nil
}

func (o *Optimizer) logGeneration(p Problem, gen int, best Chromosome, bestCost, meanCost float64) {
	if !o.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	k0, k1, dir := o.decode(best)
	cand, err := o.evaluateParams(p, k0, k1, dir)
	if err != nil {
		return
	}
	o.log.Debug("generation",
		"gen", gen+1,
		"of", o.settings.Generations,
		"best_cost", bestCost,
		"mean_cost", meanCost,
		"path_length", cand.curve.Length,
		"max_steering", cand.curve.MaxSteering,
		"k0", k0,
		"k1", k1,
		"direction", dir.String(),
		"policy", o.policy.String(),
	)
}

// breed produces the next generation: the best-so-far in slot 0, then
// roulette-selected, crossed and mutated pairs.
func (o *Optimizer) breed(pop []Chromosome, fitness []float64, best Chromosome) []Chromosome {
	n := len(pop)
	wheel := newRoulette(fitness)
	next := make([]Chromosome, 0, n+1)
	next = append(next, best.Clone())
	for len(next) < n {
		p1 := pop[wheel.spin(o.rng)]
		p2 := pop[wheel.spin(o.rng)]
		c1, c2 := Crossover(p1, p2, o.settings.CrossoverRate, o.rng)
		Mutate(c1, o.settings.MutationRate, o.rng)
		Mutate(c2, o.settings.MutationRate, o.rng)
		next = append(next, c1, c2)
	}
	return next[:n]
}

func argmax(xs []float64) int {
	idx := 0
	for i, x := range xs {
		if x > xs[idx] {
			idx = i
		}
	}
	return idx
}

// roulette is a fitness-proportional selector over min-shifted fitness.
type roulette struct {
	cumulative []float64
	uniform    bool
}

func newRoulette(fitness []float64) roulette {
	lo := fitness[0]
	for _, f := range fitness {
		lo = math.Min(lo, f)
	}
	r := roulette{cumulative: make([]float64, len(fitness))}
	var spread, total float64
	for i, f := range fitness {
		spread += f - lo
		total += f - lo + degenerateSpread
		r.cumulative[i] = total
	}
	r.uniform = spread < degenerateSpread || math.IsNaN(total) || math.IsInf(total, 0)
	return r
}

func (r roulette) spin(rng *rand.Rand) int {
	n := len(r.cumulative)
	if r.uniform {
		return rng.Intn(n)
	}
	x := rng.Float64() * r.cumulative[n-1]
	i := sort.SearchFloat64s(r.cumulative, x)
	if i >= n {
		i = n - 1
	}
	return i
}

// Crossover applies single-point crossover with probability rate.
// The parents are never modified.
func Crossover(a, b Chromosome, rate float64, rng *rand.Rand) (Chromosome, Chromosome) {
	c1, c2 := a.Clone(), b.Clone()
	if len(a) < 2 || rng.Float64() > rate {
		return c1, c2
	}
	point := 1 + rng.Intn(len(a)-1)
	copy(c1[point:], b[point:])
	copy(c2[point:], a[point:])
	return c1, c2
}

// Mutate flips each bit of c independently with probability rate.
func Mutate(c Chromosome, rate float64, rng *rand.Rand) {
	for i := range c {
		if rng.Float64() < rate {
			c[i] ^= 1
		}
	}
}
