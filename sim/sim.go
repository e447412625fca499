package sim

import (
	"context"
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/autopark/components"
	"github.com/pthm-cable/autopark/fuzzy"
	"github.com/pthm-cable/autopark/hybrid"
	"github.com/pthm-cable/autopark/planner"
	"github.com/pthm-cable/autopark/systems"
	"github.com/pthm-cable/autopark/telemetry"
)

// Hooks receive simulation output. Nil hooks are skipped.
type Hooks struct {
	OnTick  func(telemetry.TickRecord)
	OnEvent func(telemetry.Event)
}

// Simulation is one parking run.
type Simulation struct {
	cfg   Config
	scene Scene
	hooks Hooks

	world       *ecs.World
	vehicleMap  *ecs.Map5[components.Pose, components.Motion, components.Body, components.Sensors, components.Status]
	obstacleMap *ecs.Map1[components.Obstacle]
	vehicle     ecs.Entity

	poseMap   *ecs.Map[components.Pose]
	motionMap *ecs.Map[components.Motion]
	sensorMap *ecs.Map[components.Sensors]
	statusMap *ecs.Map[components.Status]

	sensing    *systems.SensorSystem
	collisions *systems.CollisionSystem
	parking    *systems.ParkingSystem
	physics    *systems.PhysicsSystem

	fis  *fuzzy.System
	ctrl *hybrid.Controller
	perf *telemetry.PerfCollector

	tick            int
	time            float64
	outcome         components.Outcome
	reoptimizations int
	lastReplan      float64
	enteredBay      bool
	centreStopped   bool
}

// New builds the world for scene. Hybrid mode requires ctrl; fuzzy mode
// ignores it.
func New(scene Scene, cfg Config, fis *fuzzy.System, ctrl *hybrid.Controller) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fis == nil {
		return nil, fmt.Errorf("%w: nil fuzzy system", ErrInvalidConfig)
	}
	if cfg.Mode == ModeHybrid && ctrl == nil {
		return nil, fmt.Errorf("%w: hybrid mode needs a controller", ErrInvalidConfig)
	}
	if cfg.Mode == ModeFuzzy {
		ctrl = nil
	}

	world := ecs.NewWorld()
	s := &Simulation{
		cfg:         cfg,
		scene:       scene,
		world:       world,
		vehicleMap:  ecs.NewMap5[components.Pose, components.Motion, components.Body, components.Sensors, components.Status](world),
		obstacleMap: ecs.NewMap1[components.Obstacle](world),
		poseMap:     ecs.NewMap[components.Pose](world),
		motionMap:   ecs.NewMap[components.Motion](world),
		sensorMap:   ecs.NewMap[components.Sensors](world),
		statusMap:   ecs.NewMap[components.Status](world),
		sensing:     systems.NewSensorSystem(world, scene.Bay),
		collisions:  systems.NewCollisionSystem(world),
		parking:     systems.NewParkingSystem(world, scene.Bay, cfg.Parked),
		physics:     systems.NewPhysicsSystem(world),
		fis:         fis,
		ctrl:        ctrl,
		lastReplan:  -cfg.Replan.Cooldown,
	}

	for _, r := range scene.Obstacles {
		s.obstacleMap.NewEntity(&components.Obstacle{Rect: r})
	}
	start := components.NewPose(scene.Start.X, scene.Start.Y, scene.Start.Heading)
	s.vehicle = s.vehicleMap.NewEntity(
		&start,
		&components.Motion{},
		&components.Body{VehicleParams: scene.Vehicle},
		&components.Sensors{},
		&components.Status{},
	)
	return s, nil
}

// WithHooks sets the output hooks.
func (s *Simulation) WithHooks(h Hooks) *Simulation {
	s.hooks = h
	return s
}

// WithPerf enables phase timing.
func (s *Simulation) WithPerf(p *telemetry.PerfCollector) *Simulation {
	s.perf = p
	return s
}

// Plan optimizes the trajectory for the scene in hybrid mode. It is a
// no-op returning nil in fuzzy mode.
func (s *Simulation) Plan() (*planner.Result, error) {
	if s.ctrl == nil {
		return nil, nil
	}
	if s.ctrl.Optimized() {
		return s.ctrl.Result(), nil
	}
	return s.ctrl.Optimize(s.scene.Problem())
}

// State returns the current vehicle state.
func (s *Simulation) State() components.VehicleState {
	m := s.motionMap.Get(s.vehicle)
	return components.VehicleState{
		Pose:     *s.poseMap.Get(s.vehicle),
		Velocity: m.Velocity,
		Steering: m.Steering,
		Sensors:  *s.sensorMap.Get(s.vehicle),
	}
}

// Status returns the parking status of the vehicle.
func (s *Simulation) Status() components.Status { return *s.statusMap.Get(s.vehicle) }

// Outcome returns the run outcome so far.
func (s *Simulation) Outcome() components.Outcome { return s.outcome }

// Time returns the simulated time in seconds.
func (s *Simulation) Time() float64 { return s.time }

// Tick returns the number of steps taken.
func (s *Simulation) Tick() int { return s.tick }

// Reoptimizations returns how many times the path was re-planned.
func (s *Simulation) Reoptimizations() int { return s.reoptimizations }

// Controller returns the hybrid controller, or nil in fuzzy mode.
func (s *Simulation) Controller() *hybrid.Controller { return s.ctrl }

// Scene returns the simulated scene.
func (s *Simulation) Scene() Scene { return s.scene }

// Run steps until the run ends, maxTicks steps have been taken (0 for no
// limit) or ctx is cancelled.
func (s *Simulation) Run(ctx context.Context, maxTicks int) (components.Outcome, error) {
	for s.outcome == components.Running {
		if maxTicks > 0 && s.tick >= maxTicks {
			break
		}
		if err := ctx.Err(); err != nil {
			return s.outcome, err
		}
		if _, err := s.Step(); err != nil {
			return s.outcome, err
		}
	}
	return s.outcome, nil
}
