package planner

import "github.com/pthm-cable/autopark/components"

// DirectionPolicy decides how a chromosome's direction is chosen.
type DirectionPolicy struct {
	forced components.Direction // 0 means the direction bit evolves
}

// FreeDirection lets the GA evolve the direction as a trailing bit
// (1 forward, 0 reverse).
func FreeDirection() DirectionPolicy { return DirectionPolicy{} }

// ForcedDirection pins every candidate to d.
func ForcedDirection(d components.Direction) DirectionPolicy {
	return DirectionPolicy{forced: d}
}

// Resolve maps a decoded direction bit to a direction. A forced policy
// ignores the bit.
func (p DirectionPolicy) Resolve(bit uint8) components.Direction {
	if p.forced != 0 {
		return p.forced
	}
	if bit == 1 {
		return components.Forward
	}
	return components.Reverse
}

func (p DirectionPolicy) String() string {
	if p.forced == 0 {
		return "free"
	}
	return "forced " + p.forced.String()
}
