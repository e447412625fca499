package planner

import "github.com/pthm-cable/autopark/components"

// collisionPenalty multiplies the path length of colliding candidates.
const collisionPenalty = 100

// Collides reports whether any pose comes within the vehicle's safety radius
// of an obstacle, approximated by growing each obstacle's bounding box.
func Collides(poses []components.Pose, obstacles []components.Rect, v components.VehicleParams) bool {
	if len(obstacles) == 0 {
		return false
	}
	r := v.SafetyRadius()
	for _, p := range poses {
		for _, o := range obstacles {
			if o.Contains(p.X, p.Y, r) {
				return true
			}
		}
	}
	return false
}
