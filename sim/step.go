package sim

import (
	"fmt"

	"github.com/pthm-cable/autopark/components"
	"github.com/pthm-cable/autopark/fuzzy"
	"github.com/pthm-cable/autopark/hybrid"
	"github.com/pthm-cable/autopark/telemetry"
)

func (s *Simulation) startPhase(ph telemetry.Phase) {
	if s.perf != nil {
		s.perf.StartPhase(ph)
	}
}

func (s *Simulation) emit(t telemetry.EventType, desc string) {
	if s.hooks.OnEvent == nil {
		return
	}
	p := s.poseMap.Get(s.vehicle)
	s.hooks.OnEvent(telemetry.Event{
		Type:        t,
		Tick:        s.tick,
		Time:        s.time,
		X:           p.X,
		Y:           p.Y,
		Heading:     p.Heading,
		Description: desc,
	})
}

// Step advances the run by one tick and returns the outcome. Once the run
// has ended Step does nothing.
func (s *Simulation) Step() (components.Outcome, error) {
	if s.outcome != components.Running {
		return s.outcome, nil
	}
	if s.perf != nil {
		s.perf.StartTick()
		defer s.perf.EndTick()
	}
	dt := s.cfg.DT
	s.tick++
	s.time += dt

	s.startPhase(telemetry.PhaseSense)
	s.sensing.Update()
	s.collisions.Update()
	s.parking.Update(dt)

	status := s.statusMap.Get(s.vehicle)
	motion := s.motionMap.Get(s.vehicle)
	if status.Parked {
		s.outcome = components.Parked
		s.emit(telemetry.EventParked, fmt.Sprintf("held for %.1fs", status.ParkedTimer))
		return s.outcome, nil
	}
	if status.Colliding {
		motion.Velocity = 0
		s.outcome = components.Collided
		s.emit(telemetry.EventCollided, "footprint touched an obstacle")
		return s.outcome, nil
	}

	state := s.State()
	if !s.enteredBay && state.Sensors.Depth > 0 {
		s.enteredBay = true
		s.emit(telemetry.EventEnteredBay, "")
	}

	s.startPhase(telemetry.PhaseControl)
	rec, err := s.control(state)
	if err != nil {
		return s.outcome, err
	}

	cmd, overridden := s.cfg.CentreStop.Apply(components.Command{Velocity: rec.Velocity, Steering: rec.Steering}, state.Sensors.Depth)
	if overridden && cmd.Velocity == 0 && !s.centreStopped {
		s.centreStopped = true
		s.emit(telemetry.EventCentreStop, fmt.Sprintf("depth %.1f", state.Sensors.Depth))
	}
	limit := s.scene.Vehicle.MaxSteering
	if limit > 0 {
		cmd.Steering = components.Clamp(cmd.Steering, -limit, limit)
	}
	motion.Velocity, motion.Steering = cmd.Velocity, cmd.Steering

	s.startPhase(telemetry.PhaseIntegrate)
	s.physics.Update(dt)

	if s.hooks.OnTick != nil {
		s.startPhase(telemetry.PhaseTelemetry)
		p := s.poseMap.Get(s.vehicle)
		rec.X, rec.Y, rec.Heading = p.X, p.Y, p.Heading
		rec.Velocity, rec.Steering, rec.Override = cmd.Velocity, cmd.Steering, overridden
		s.hooks.OnTick(rec)
	}

	if s.time > s.cfg.MaxTime {
		s.outcome = components.TimedOut
		s.emit(telemetry.EventTimedOut, fmt.Sprintf("after %.1fs", s.time))
	}
	return s.outcome, nil
}

// control computes the controller command for state. The returned record
// carries the command in Velocity and Steering before any override.
func (s *Simulation) control(state components.VehicleState) (telemetry.TickRecord, error) {
	rec := telemetry.TickRecord{
		Tick:    s.tick,
		Time:    s.time,
		Front:   state.Sensors.Front,
		Lateral: state.Sensors.Lateral,
		Angle:   state.Sensors.Angle,
		Depth:   state.Sensors.Depth,
	}

	if s.ctrl == nil {
		cmd := fuzzy.Command(s.fis.Infer(fuzzy.SensorInputs(state.Sensors)))
		rec.FuzzyVelocity, rec.FuzzySteering = cmd.Velocity, cmd.Steering
		rec.Velocity, rec.Steering = cmd.Velocity, cmd.Steering
		return rec, nil
	}

	d := s.ctrl.Decide(state, s.cfg.UseTracking)
	if s.shouldReplan(d) {
		s.startPhase(telemetry.PhaseReplan)
		_, err := s.ctrl.Reoptimize(state.Pose)
		s.startPhase(telemetry.PhaseControl)
		if err != nil {
			return rec, fmt.Errorf("tick %d: %w", s.tick, err)
		}
		s.reoptimizations++
		s.lastReplan = s.time
		s.emit(telemetry.EventReoptimized, fmt.Sprintf("position error %.1f", d.Tracking.Error.Position))
		d = s.ctrl.Decide(state, s.cfg.UseTracking)
	}

	rec.FuzzyVelocity, rec.FuzzySteering = d.Fuzzy.Velocity, d.Fuzzy.Steering
	if d.Tracking != nil {
		rec.TrackingVelocity = d.Tracking.Command.Velocity
		rec.TrackingSteering = d.Tracking.Command.Steering
		rec.Band = string(d.Band)
		rec.Direction = d.Tracking.Direction.String()
		rec.Progress = s.ctrl.Progress()
		rec.PositionError = d.Tracking.Error.Position
		rec.HeadingError = d.Tracking.Error.Heading
	}
	rec.Velocity, rec.Steering = d.Final.Velocity, d.Final.Steering
	return rec, nil
}

func (s *Simulation) shouldReplan(d hybrid.Decision) bool {
	r := s.cfg.Replan
	if r.Error <= 0 || d.Tracking == nil {
		return false
	}
	if r.Max > 0 && s.reoptimizations >= r.Max {
		return false
	}
	if s.time-s.lastReplan < r.Cooldown {
		return false
	}
	return d.Tracking.Error.Position > r.Error
}
