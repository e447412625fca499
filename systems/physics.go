package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/autopark/components"
)

// Below minSpeed the vehicle does not move; below minSteer (radians) it
// drives straight.
const (
	minSpeed = 0.01
	minSteer = 0.001
)

// Integrate advances p by one bicycle-model step.
func Integrate(p components.Pose, m components.Motion, wheelbase, dt float64) components.Pose {
	if math.Abs(m.Velocity) < minSpeed {
		return p
	}
	th := components.Deg2Rad(p.Heading)
	delta := components.Deg2Rad(m.Steering)

	next := p
	next.X += m.Velocity * math.Cos(th) * dt
	next.Y += m.Velocity * math.Sin(th) * dt
	if math.Abs(delta) > minSteer && wheelbase > 0 {
		radius := wheelbase / math.Tan(delta)
		omega := m.Velocity / radius
		next.Heading += components.Rad2Deg(omega * dt)
	}
	next.Heading = components.NormalizeDeg(next.Heading)
	return next
}

// PhysicsSystem integrates vehicle poses from their commanded motion.
type PhysicsSystem struct {
	filter ecs.Filter3[components.Pose, components.Motion, components.Body]
}

// NewPhysicsSystem creates a new physics system.
func NewPhysicsSystem(w *ecs.World) *PhysicsSystem {
	return &PhysicsSystem{
		filter: *ecs.NewFilter3[components.Pose, components.Motion, components.Body](w),
	}
}

// Update runs the physics system.
func (s *PhysicsSystem) Update(dt float64) {
	query := s.filter.Query()
	for query.Next() {
		pose, motion, body := query.Get()
		*pose = Integrate(*pose, *motion, body.EffectiveWheelbase(), dt)
	}
}
