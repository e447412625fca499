package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/autopark/components"
)

// CollisionSystem flags vehicles whose footprint touches an obstacle.
type CollisionSystem struct {
	vehicles  ecs.Filter3[components.Pose, components.Body, components.Status]
	obstacles ecs.Filter1[components.Obstacle]

	rects []components.Rect
}

// NewCollisionSystem creates a new collision system.
func NewCollisionSystem(w *ecs.World) *CollisionSystem {
	return &CollisionSystem{
		vehicles:  *ecs.NewFilter3[components.Pose, components.Body, components.Status](w),
		obstacles: *ecs.NewFilter1[components.Obstacle](w),
	}
}

// Obstacles returns the obstacle rectangles gathered by the last Update.
func (s *CollisionSystem) Obstacles() []components.Rect {
	return s.rects
}

// Update runs the collision system. Colliding latches once set.
func (s *CollisionSystem) Update() {
	s.rects = s.rects[:0]
	oq := s.obstacles.Query()
	for oq.Next() {
		o := oq.Get()
		s.rects = append(s.rects, o.Rect)
	}

	query := s.vehicles.Query()
	for query.Next() {
		pose, body, status := query.Get()
		if status.Colliding {
			continue
		}
		status.Colliding = FootprintCollides(Corners(*pose, body.VehicleParams), s.rects)
	}
}
