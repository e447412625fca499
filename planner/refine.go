package planner

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/optimize"
)

var errRefineNoImprovement = errors.New("planner: refinement found no improvement")

// refine polishes (k0, k1) with Nelder-Mead, keeping the direction fixed.
// Parameters are clamped to their ranges, so the result stays inside the
// search space the GA explored.
func (o *Optimizer) refine(p Problem, start candidate) (candidate, error) {
	var evalErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			c, err := o.evaluateParams(p, o.settings.K0Range.Clamp(x[0]), o.settings.K1Range.Clamp(x[1]), start.dir)
			if err != nil {
				evalErr = err
				return start.cost
			}
			return c.cost
		},
	}

	evals := o.settings.RefineEvaluations
	if evals <= 0 {
		evals = 200
	}
	result, err := optimize.Minimize(problem, []float64{start.k0, start.k1},
		&optimize.Settings{FuncEvaluations: evals}, &optimize.NelderMead{})
	if evalErr != nil {
		return start, fmt.Errorf("refine: %w", evalErr)
	}
	if result == nil {
		return start, fmt.Errorf("refine: %w", err)
	}
	if !(result.F < start.cost) {
		return start, errRefineNoImprovement
	}

	refined, err := o.evaluateParams(p,
		o.settings.K0Range.Clamp(result.X[0]),
		o.settings.K1Range.Clamp(result.X[1]),
		start.dir)
	if err != nil {
		return start, err
	}
	o.log.Debug("refined",
		"status", result.Status.String(),
		"evaluations", result.Stats.FuncEvaluations,
		"cost_before", start.cost,
		"cost_after", refined.cost,
	)
	return refined, nil
}
