package sim

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/autopark/components"
	"github.com/pthm-cable/autopark/fuzzy"
	"github.com/pthm-cable/autopark/hybrid"
	"github.com/pthm-cable/autopark/telemetry"
)

func TestCentreStopApply(t *testing.T) {
	cs := DefaultConfig().CentreStop
	cmd := components.Command{Velocity: 12, Steering: 7}
	tests := []struct {
		depth      float64
		want       components.Command
		overridden bool
	}{
		{0, cmd, false},
		{59.9, cmd, false},
		{60, components.Command{Velocity: 5, Steering: 7}, true},
		{65, components.Command{}, true},
		{75, components.Command{}, true},
		{85, components.Command{}, true},
		{88, components.Command{Velocity: 5, Steering: 7}, true},
		{90.1, cmd, false},
	}
	for _, tc := range tests {
		got, ok := cs.Apply(cmd, tc.depth)
		assert.Equal(t, tc.want, got, "depth=%v", tc.depth)
		assert.Equal(t, tc.overridden, ok, "depth=%v", tc.depth)
	}

	slow := components.Command{Velocity: 3, Steering: 1}
	got, _ := cs.Apply(slow, 88)
	assert.Equal(t, slow, got)

	cs.Enabled = false
	got, ok := cs.Apply(cmd, 75)
	assert.Equal(t, cmd, got)
	assert.False(t, ok)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	for _, mutate := range []func(*Config){
		func(c *Config) { c.Mode = "manual" },
		func(c *Config) { c.DT = 0 },
		func(c *Config) { c.MaxTime = -1 },
		func(c *Config) { c.Replan.Error = -1 },
	} {
		cfg := DefaultConfig()
		mutate(&cfg)
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	}

	m, err := ParseMode("fuzzy")
	require.NoError(t, err)
	assert.Equal(t, ModeFuzzy, m)
}

func fuzzyConfig() Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeFuzzy
	return cfg
}

func TestNewRequiresController(t *testing.T) {
	_, err := New(DefaultScene(), DefaultConfig(), fuzzy.MustParkingSystem(), nil)
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(DefaultScene(), fuzzyConfig(), nil, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

type recorder struct {
	ticks  []telemetry.TickRecord
	events []telemetry.Event
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnTick:  func(t telemetry.TickRecord) { r.ticks = append(r.ticks, t) },
		OnEvent: func(e telemetry.Event) { r.events = append(r.events, e) },
	}
}

func (r *recorder) eventTypes() []telemetry.EventType {
	out := make([]telemetry.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func TestCentredVehicleParks(t *testing.T) {
	scene := DefaultScene()
	scene.Start = components.NewPose(670, 290, 0)
	var rec recorder
	s, err := New(scene, fuzzyConfig(), fuzzy.MustParkingSystem(), nil)
	require.NoError(t, err)
	s.WithHooks(rec.hooks())

	out, err := s.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, components.Parked, out)
	assert.Equal(t, 11, s.Tick())
	assert.True(t, s.Status().Parked)

	// The centre stop holds the vehicle still.
	assert.Equal(t, 670.0, s.State().Pose.X)
	require.Len(t, rec.ticks, 10)
	for _, tk := range rec.ticks {
		assert.True(t, tk.Override)
		assert.Zero(t, tk.Velocity)
	}
	assert.Equal(t, []telemetry.EventType{
		telemetry.EventEnteredBay, telemetry.EventCentreStop, telemetry.EventParked,
	}, rec.eventTypes())

	// Steps after the end are no-ops.
	out, err = s.Step()
	require.NoError(t, err)
	assert.Equal(t, components.Parked, out)
	assert.Equal(t, 11, s.Tick())
}

func TestCollisionEndsRun(t *testing.T) {
	scene := DefaultScene()
	scene.Start = components.NewPose(730, 290, 0)
	s, err := New(scene, fuzzyConfig(), fuzzy.MustParkingSystem(), nil)
	require.NoError(t, err)

	out, err := s.Step()
	require.NoError(t, err)
	assert.Equal(t, components.Collided, out)
	assert.Zero(t, s.State().Velocity)
	assert.True(t, s.Status().Colliding)
}

func TestFuzzyRunTimesOut(t *testing.T) {
	cfg := fuzzyConfig()
	cfg.MaxTime = 0.5
	s, err := New(DefaultScene(), cfg, fuzzy.MustParkingSystem(), nil)
	require.NoError(t, err)
	perf := telemetry.NewPerfCollector(10)
	s.WithPerf(perf)

	out, err := s.Run(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, components.TimedOut, out)
	assert.InDelta(t, 6, s.Tick(), 1)
	assert.Greater(t, s.State().Pose.X, DefaultScene().Start.X)
	assert.Greater(t, perf.Stats().Samples, 0)
}

func TestRunHonoursContext(t *testing.T) {
	s, err := New(DefaultScene(), fuzzyConfig(), fuzzy.MustParkingSystem(), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := s.Run(ctx, 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, components.Running, out)
	assert.Zero(t, s.Tick())
}

func newHybrid(t *testing.T, cfg Config) *Simulation {
	t.Helper()
	hc := hybrid.DefaultConfig()
	hc.Planner.PopulationSize = 10
	hc.Planner.Generations = 4
	hc.Planner.Samples = 60
	hc.Replan = hc.Planner

	fis := fuzzy.MustParkingSystem()
	ctrl := hybrid.New(fis, hc, rand.New(rand.NewSource(42)))
	s, err := New(DefaultScene(), cfg, fis, ctrl)
	require.NoError(t, err)
	return s
}

func TestHybridRunRecordsTracking(t *testing.T) {
	var rec recorder
	s := newHybrid(t, DefaultConfig())
	s.WithHooks(rec.hooks())

	res, err := s.Plan()
	require.NoError(t, err)
	require.NotNil(t, res)
	again, err := s.Plan()
	require.NoError(t, err)
	assert.Same(t, res, again)

	out, err := s.Run(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, components.Running, out)
	require.Len(t, rec.ticks, 5)
	for _, tk := range rec.ticks {
		assert.NotEmpty(t, tk.Band)
		assert.Equal(t, "forward", tk.Direction)
		assert.LessOrEqual(t, tk.Steering, 40.0)
		assert.GreaterOrEqual(t, tk.Steering, -40.0)
	}
	assert.Zero(t, s.Reoptimizations())
}

func TestHybridReplansOnTrackingError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Replan = Replan{Error: 1, Cooldown: 0, Max: 2}
	var rec recorder
	s := newHybrid(t, cfg)
	s.WithHooks(rec.hooks())
	perf := telemetry.NewPerfCollector(10)
	s.WithPerf(perf)
	_, err := s.Plan()
	require.NoError(t, err)

	_, err = s.Run(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Reoptimizations())
	assert.Greater(t, perf.Stats().PhasePct[telemetry.PhaseReplan], 0.0)

	var n int
	for _, e := range rec.events {
		if e.Type == telemetry.EventReoptimized {
			n++
		}
	}
	assert.Equal(t, 2, n)
}

func TestFuzzyModeIgnoresController(t *testing.T) {
	fis := fuzzy.MustParkingSystem()
	ctrl := hybrid.New(fis, hybrid.DefaultConfig(), rand.New(rand.NewSource(1)))
	s, err := New(DefaultScene(), fuzzyConfig(), fis, ctrl)
	require.NoError(t, err)
	assert.Nil(t, s.Controller())

	res, err := s.Plan()
	require.NoError(t, err)
	assert.Nil(t, res)
}
