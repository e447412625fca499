package hybrid

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/autopark/components"
	"github.com/pthm-cable/autopark/fuzzy"
	"github.com/pthm-cable/autopark/planner"
	"github.com/pthm-cable/autopark/tracking"
)

func TestBlendBands(t *testing.T) {
	cfg := DefaultBlendConfig()
	fz := components.Command{Velocity: 10, Steering: -20}
	tr := components.Command{Velocity: 20, Steering: 30}

	near := Blend(fz, tr, 10, cfg)
	assert.InDelta(t, 0.7*10+0.3*20, near.Velocity, 1e-12)
	assert.InDelta(t, 0.7*-20+0.3*30, near.Steering, 1e-12)

	mid := Blend(fz, tr, 20, cfg)
	assert.InDelta(t, 0.75*20+0.25*10, mid.Velocity, 1e-12)
	assert.InDelta(t, 0.8*30+0.2*-20, mid.Steering, 1e-12)

	far := Blend(fz, tr, 50, cfg)
	assert.InDelta(t, 0.95*20+0.05*10, far.Velocity, 1e-12)
	assert.InDelta(t, 0.9*30+0.1*-20, far.Steering, 1e-12)
}

func TestBandBoundaries(t *testing.T) {
	cfg := DefaultBlendConfig()
	assert.Equal(t, BandNear, cfg.Band(14.999))
	assert.Equal(t, BandMid, cfg.Band(15))
	assert.Equal(t, BandMid, cfg.Band(29.999))
	assert.Equal(t, BandFar, cfg.Band(30))
}

// unitPath runs along +x with one unit between samples and nose heading h.
func unitPath(n int, h float64) []components.Pose {
	p := make([]components.Pose, n)
	for i := range p {
		p[i] = components.Pose{X: float64(i), Heading: h}
	}
	return p
}

func constDir(d components.Direction) func(int) components.Direction {
	return func(int) components.Direction { return d }
}

func openState(pose components.Pose) components.VehicleState {
	return components.VehicleState{Pose: pose, Sensors: components.Sensors{Front: 200}}
}

func TestTrackingStepForward(t *testing.T) {
	ts := &trackingState{tracker: tracking.New(unitPath(100, 0), tracking.DefaultConfig())}
	out := ts.step(DefaultControlConfig(), openState(components.Pose{}), constDir(components.Forward))

	// Reference is 15 samples ahead: base speed clamps to 8, filtered 0.4*8.
	assert.InDelta(t, 3.2, out.Command.Velocity, 1e-12)
	assert.InDelta(t, 0, out.Command.Steering, 1e-12)
	assert.Equal(t, components.Forward, out.Direction)
	assert.InDelta(t, 15, out.Error.Position, 1e-12)

	out = ts.step(DefaultControlConfig(), openState(components.Pose{}), constDir(components.Forward))
	assert.InDelta(t, 0.6*3.2+0.4*8, out.Command.Velocity, 1e-12)
}

func TestTrackingStepReverse(t *testing.T) {
	cfg := DefaultControlConfig()

	ts := &trackingState{tracker: tracking.New(unitPath(100, 180), tracking.DefaultConfig())}
	out := ts.step(cfg, openState(components.Pose{Heading: 180}), constDir(components.Reverse))
	assert.InDelta(t, -3.2, out.Command.Velocity, 1e-12)
	assert.InDelta(t, 0, out.Command.Steering, 1e-9)
	assert.InDelta(t, 0, out.DirectionError, 1e-9)

	// Tail-first with the vehicle above the path: the tail must swing toward
	// -y, which in reverse takes positive steering.
	ts = &trackingState{tracker: tracking.New(unitPath(100, 180), tracking.DefaultConfig())}
	out = ts.step(cfg, openState(components.Pose{Y: 2, Heading: 180}), constDir(components.Reverse))
	assert.Less(t, out.DirectionError, 0.0)
	assert.Greater(t, out.Command.Steering, 0.0)
}

func TestTrackingObstacleAttenuation(t *testing.T) {
	cfg := DefaultControlConfig()
	for _, tc := range []struct {
		front, scale float64
	}{
		{200, 1},
		{39, 0.6},
		{24, 0.3},
	} {
		ts := &trackingState{tracker: tracking.New(unitPath(100, 0), tracking.DefaultConfig())}
		s := components.VehicleState{Sensors: components.Sensors{Front: tc.front}}
		out := ts.step(cfg, s, constDir(components.Forward))
		assert.InDelta(t, 3.2*tc.scale, out.Command.Velocity, 1e-12, "front=%v", tc.front)
		// The filter remembers the unattenuated speed.
		assert.InDelta(t, 3.2, ts.lastVelocity, 1e-12)
	}
}

func TestTrackingSteeringClampAndFilter(t *testing.T) {
	cfg := DefaultControlConfig()
	ts := &trackingState{tracker: tracking.New(unitPath(100, 0), tracking.DefaultConfig())}

	// Facing away from the path: both errors are 179° and steering saturates.
	out := ts.step(cfg, openState(components.Pose{Heading: -179}), constDir(components.Forward))
	assert.InDelta(t, 0.3*40, out.Command.Steering, 1e-9)
	out = ts.step(cfg, openState(components.Pose{Heading: -179}), constDir(components.Forward))
	assert.InDelta(t, 0.7*0.3*40+0.3*40, out.Command.Steering, 1e-9)
	// |heading error| > 45 slows to 0.4 of the base speed.
	assert.Less(t, out.Command.Velocity, 3.2)
}

func smallConfig(twoPhase bool) Config {
	cfg := DefaultConfig()
	cfg.TwoPhase = twoPhase
	cfg.Planner.PopulationSize = 10
	cfg.Planner.Generations = 4
	cfg.Planner.Samples = 60
	cfg.Replan = cfg.Planner
	return cfg
}

func parkingProblem() planner.Problem {
	return planner.Problem{
		Start:   components.NewPose(100, 150, 0),
		Goal:    components.NewPose(420, 310, 0),
		Vehicle: components.VehicleParams{Length: 40, Width: 20, Wheelbase: 28, MaxSteering: 40},
		Obstacles: []components.Rect{
			{X: 300, Y: 290, Width: 60, Height: 40},
		},
	}
}

func TestControlWithoutPathIsFuzzy(t *testing.T) {
	fis := fuzzy.MustParkingSystem()
	c := New(fis, smallConfig(true), rand.New(rand.NewSource(42)))

	s := components.VehicleState{Sensors: components.Sensors{Front: 120, Lateral: 5, Angle: 3, Depth: 0}}
	want := fuzzy.Command(fis.Infer(fuzzy.SensorInputs(s.Sensors)))

	assert.Equal(t, want, c.Control(s, true))
	assert.Nil(t, c.Trajectory())
	_, ok := c.Parameters()
	assert.False(t, ok)
	_, ok = c.TrackingControl(s)
	assert.False(t, ok)
}

func TestReoptimizeBeforeOptimize(t *testing.T) {
	c := New(fuzzy.MustParkingSystem(), smallConfig(false), rand.New(rand.NewSource(42)))
	_, err := c.Reoptimize(components.NewPose(0, 0, 0))
	require.ErrorIs(t, err, ErrNotOptimized)
}

func TestOptimizeAndControl(t *testing.T) {
	fis := fuzzy.MustParkingSystem()
	c := New(fis, smallConfig(true), rand.New(rand.NewSource(42)))
	p := parkingProblem()

	res, err := c.Optimize(p)
	require.NoError(t, err)
	require.Len(t, res.Phases, 2)
	assert.Len(t, c.Trajectory(), 120)

	params, ok := c.Parameters()
	require.True(t, ok)
	assert.Len(t, params.Phases, 2)

	s := components.VehicleState{Pose: p.Start, Sensors: components.Sensors{Front: 320, Lateral: -160, Depth: 0}}
	raw := c.Control(s, false)
	assert.Equal(t, fuzzy.Command(fis.Infer(fuzzy.SensorInputs(s.Sensors))), raw)

	d := c.Decide(s, true)
	require.NotNil(t, d.Tracking)
	assert.Equal(t, BandFar, d.Band)
	assert.Equal(t, components.Forward, d.Tracking.Direction)
	want := Blend(d.Fuzzy, d.Tracking.Command, s.Sensors.Front, DefaultBlendConfig())
	assert.InDelta(t, want.Velocity, d.Final.Velocity, 1e-12)
	assert.InDelta(t, want.Steering, d.Final.Steering, 1e-12)
}

func TestReoptimizeResetsTracking(t *testing.T) {
	c := New(fuzzy.MustParkingSystem(), smallConfig(false), rand.New(rand.NewSource(7)))
	p := parkingProblem()
	_, err := c.Optimize(p)
	require.NoError(t, err)

	s := components.VehicleState{Pose: p.Start, Sensors: components.Sensors{Front: 300}}
	for i := 0; i < 5; i++ {
		c.Control(s, true)
	}
	require.NotZero(t, c.track.lastVelocity)

	res, err := c.Reoptimize(components.NewPose(150, 160, 10))
	require.NoError(t, err)
	assert.Equal(t, 150.0, res.Trajectory[0].X)
	assert.Zero(t, c.track.lastVelocity)
	assert.Zero(t, c.track.tracker.Progress())
}

func TestUsePlanSharesResult(t *testing.T) {
	p := parkingProblem()
	a := New(fuzzy.MustParkingSystem(), smallConfig(false), rand.New(rand.NewSource(3)))
	res, err := a.Optimize(p)
	require.NoError(t, err)

	b := New(fuzzy.MustParkingSystem(), smallConfig(false), rand.New(rand.NewSource(3)))
	b.UsePlan(p, res)
	require.True(t, b.Optimized())
	assert.Same(t, res, b.Result())
	assert.Zero(t, b.Progress())

	s := components.VehicleState{Pose: p.Start, Sensors: components.Sensors{Front: 300}}
	assert.Equal(t, a.Decide(s, true).Final, b.Decide(s, true).Final)
}
