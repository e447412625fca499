package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/autopark/components"
	"github.com/pthm-cable/autopark/config"
)

func TestDefaultsMatchConfig(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	pv := NewParamVector()
	assert.Equal(t, pv.DefaultVector(), pv.ExtractFromConfig(cfg))
}

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		assert.InDelta(t, def[i], back[i], 1e-12, pv.Specs[i].Name)
	}
	for _, x := range pv.Normalize(def) {
		assert.GreaterOrEqual(t, x, 0.0)
		assert.LessOrEqual(t, x, 1.0)
	}
}

func TestApplyToConfigClamps(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	pv := NewParamVector()
	values := pv.DefaultVector()
	values[0] = 99  // direction_gain
	values[2] = -1  // steering_filter
	values[5] = 0.5 // mid velocity weight
	pv.ApplyToConfig(cfg, values)

	assert.Equal(t, 1.5, cfg.Control.DirectionGain)
	assert.Equal(t, 0.0, cfg.Control.SteeringFilter)
	assert.Equal(t, 0.5, cfg.Blend.Mid.Velocity)
	assert.Equal(t, 0.3, cfg.Control.HeadingGain)
}

func TestComputeFitnessOrdering(t *testing.T) {
	const maxTime = 30.0
	parked := computeFitness(runResult{outcome: components.Parked, simTime: 12}, maxTime)
	slowParked := computeFitness(runResult{outcome: components.Parked, simTime: 25}, maxTime)
	timedOut := computeFitness(runResult{outcome: components.TimedOut, distance: 40}, maxTime)
	collided := computeFitness(runResult{outcome: components.Collided, distance: 40}, maxTime)

	assert.Equal(t, 12.0, parked)
	assert.Less(t, parked, slowParked)
	assert.Less(t, slowParked, timedOut)
	assert.Less(t, timedOut, collided)
	assert.InDelta(t, 34, timedOut, 1e-12)
}

func TestJitteredStarts(t *testing.T) {
	start := components.NewPose(250, 350, -15)
	a := jitteredStarts(start, []int64{42, 1042})
	b := jitteredStarts(start, []int64{42, 1042})
	require.Len(t, a, 2)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a[0], a[1])
	for _, p := range a {
		assert.InDelta(t, start.X, p.X, jitterPosition)
		assert.InDelta(t, start.Y, p.Y, jitterPosition)
		assert.InDelta(t, start.Heading, p.Heading, jitterHeading)
	}
}

func TestCurveFor(t *testing.T) {
	_, err := curveFor("bezier", 50)
	assert.NoError(t, err)
	_, err = curveFor("quintic", 50)
	assert.NoError(t, err)
	_, err = curveFor("spline", 50)
	assert.Error(t, err)
}

func TestEvaluateSharesPlan(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Planner.Population = 10
	cfg.Planner.Generations = 3
	cfg.Planner.Samples = 60

	res, err := plan(cfg, cfg.Problem(), planOptions{seed: 42, curve: "bezier"})
	require.NoError(t, err)

	pv := NewParamVector()
	fe := NewFitnessEvaluator(pv, cfg, res, []int64{42, 1042})
	fitness := fe.Evaluate(pv.DefaultVector())

	assert.Greater(t, fitness, 0.0)
	assert.LessOrEqual(t, fe.LastParked(), 2)
	// The base config is not modified by evaluation.
	assert.Equal(t, pv.DefaultVector(), pv.ExtractFromConfig(cfg))
}
