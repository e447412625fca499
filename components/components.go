// Package components defines the plain data shared by the planner, the
// controllers and the simulation. The same structs are stored as ECS
// components in the simulation world.
package components

import "math"

// Direction of travel along a path segment.
type Direction int

const (
	Reverse Direction = -1
	Forward Direction = 1
)

// String returns "forward" or "reverse".
func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// Sign returns +1 for forward and -1 for reverse.
func (d Direction) Sign() float64 {
	if d == Reverse {
		return -1
	}
	return 1
}

// Pose is a planar position with a heading in degrees.
// Heading is kept in (-180, 180].
type Pose struct {
	X, Y    float64
	Heading float64
}

// NewPose returns a pose with its heading normalized.
func NewPose(x, y, heading float64) Pose {
	return Pose{X: x, Y: y, Heading: NormalizeDeg(heading)}
}

// DistanceTo returns the Euclidean distance between two poses.
func (p Pose) DistanceTo(o Pose) float64 {
	return math.Hypot(o.X-p.X, o.Y-p.Y)
}

// Rect is an axis-aligned rectangle anchored at its minimum corner.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Bounds returns (xMin, yMin, xMax, yMax).
func (r Rect) Bounds() (xMin, yMin, xMax, yMax float64) {
	return r.X, r.Y, r.X + r.Width, r.Y + r.Height
}

// Center returns the rectangle centre.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Contains reports whether (x, y) lies inside the rectangle grown by margin
// on every side. Bounds are inclusive.
func (r Rect) Contains(x, y, margin float64) bool {
	xMin, yMin, xMax, yMax := r.Bounds()
	return x >= xMin-margin && x <= xMax+margin &&
		y >= yMin-margin && y <= yMax+margin
}

// ContainsAll reports whether every point lies inside the rectangle grown by margin.
func (r Rect) ContainsAll(points [][2]float64, margin float64) bool {
	for _, p := range points {
		if !r.Contains(p[0], p[1], margin) {
			return false
		}
	}
	return true
}

// VehicleParams holds the vehicle geometry used by planning and control.
type VehicleParams struct {
	Length      float64
	Width       float64
	Wheelbase   float64
	MaxSteering float64 // degrees
}

// SafetyRadius is half the largest vehicle dimension.
func (v VehicleParams) SafetyRadius() float64 {
	return math.Max(v.Length, v.Width) / 2
}

// EffectiveWheelbase is Wheelbase, or 0.7 of Length when unset.
func (v VehicleParams) EffectiveWheelbase() float64 {
	if v.Wheelbase > 0 {
		return v.Wheelbase
	}
	return 0.7 * v.Length
}

// Sensors holds the four scalar readings consumed by the fuzzy controller.
type Sensors struct {
	Front   float64 // distance to the bay's far wall along x
	Lateral float64 // offset from the bay centre line, positive below
	Angle   float64 // vehicle heading in degrees
	Depth   float64 // how far the vehicle centre is into the bay
}

// VehicleState is a snapshot of a vehicle at one control tick.
type VehicleState struct {
	Pose     Pose
	Velocity float64
	Steering float64
	Sensors  Sensors
}

// Command is a steering/velocity command. Steering is in degrees.
type Command struct {
	Velocity float64
	Steering float64
}

// NormalizeDeg wraps an angle in degrees into (-180, 180].
func NormalizeDeg(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return a
	}
	a = math.Mod(a, 360)
	if a > 180 {
		a -= 360
	} else if a <= -180 {
		a += 360
	}
	return a
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 { return d * math.Pi / 180 }

// Rad2Deg converts radians to degrees.
func Rad2Deg(r float64) float64 { return r * 180 / math.Pi }
