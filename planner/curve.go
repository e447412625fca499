package planner

import (
	"math"

	"github.com/pthm-cable/autopark/components"
)

// DefaultSamples is the number of poses per generated curve.
const DefaultSamples = 200

// minStepForSteering skips near-coincident samples when estimating steering.
const minStepForSteering = 0.01

// Curve is a sampled candidate path.
type Curve struct {
	Poses       []components.Pose
	Length      float64
	MaxSteering float64 // degrees
}

// CurveGenerator builds a path from start to goal shaped by (k0, k1).
//
// Poses carry the vehicle nose heading, so a reverse curve's headings point
// opposite to its direction of travel.
type CurveGenerator interface {
	Generate(start, goal components.Pose, k0, k1 float64, dir components.Direction, v components.VehicleParams) (Curve, error)
}

// Bezier shapes the path as a cubic Bezier whose inner control points sit
// along the start and goal headings, scaled by k0 and k1.
type Bezier struct {
	Samples int

	// ControlScale is the control arm length as a fraction of the
	// start-goal distance.
	ControlScale float64
}

// NewBezier returns a Bezier generator with the reference arm length.
func NewBezier(samples int) Bezier {
	return Bezier{Samples: samples, ControlScale: 0.4}
}

// Generate implements CurveGenerator.
func (b Bezier) Generate(start, goal components.Pose, k0, k1 float64, dir components.Direction, v components.VehicleParams) (Curve, error) {
	n := b.Samples
	if n < 2 {
		n = DefaultSamples
	}
	scale := b.ControlScale
	if scale == 0 {
		scale = 0.4
	}

	arm := scale * start.DistanceTo(goal)
	th0 := components.Deg2Rad(start.Heading)
	thf := components.Deg2Rad(goal.Heading)

	p0 := [2]float64{start.X, start.Y}
	p3 := [2]float64{goal.X, goal.Y}
	p1 := [2]float64{p0[0] + k0*math.Cos(th0)*arm, p0[1] + k0*math.Sin(th0)*arm}
	p2 := [2]float64{p3[0] - k1*math.Cos(thf)*arm, p3[1] - k1*math.Sin(thf)*arm}

	poses := make([]components.Pose, n)
	for i := 0; i < n; i++ {
		s := float64(i) / float64(n-1)
		u := 1 - s

		x := u*u*u*p0[0] + 3*u*u*s*p1[0] + 3*u*s*s*p2[0] + s*s*s*p3[0]
		y := u*u*u*p0[1] + 3*u*u*s*p1[1] + 3*u*s*s*p2[1] + s*s*s*p3[1]

		heading := start.Heading
		if dir == components.Reverse {
			heading = components.NormalizeDeg(start.Heading + 180)
		}
		if i > 0 {
			dx := 3*u*u*(p1[0]-p0[0]) + 6*u*s*(p2[0]-p1[0]) + 3*s*s*(p3[0]-p2[0])
			dy := 3*u*u*(p1[1]-p0[1]) + 6*u*s*(p2[1]-p1[1]) + 3*s*s*(p3[1]-p2[1])
			heading = travelHeading(math.Atan2(dy, dx), dir)
		}
		poses[i] = components.NewPose(x, y, heading)
	}
	return finishCurve(poses, v.EffectiveWheelbase()), nil
}

// travelHeading converts a tangent angle in radians to a nose heading.
func travelHeading(tangent float64, dir components.Direction) float64 {
	h := components.Rad2Deg(tangent)
	if dir == components.Reverse {
		h += 180
	}
	return components.NormalizeDeg(h)
}

// finishCurve measures polyline length and the bicycle-model steering
// needed between consecutive samples.
func finishCurve(poses []components.Pose, wb float64) Curve {
	c := Curve{Poses: poses}
	for i := 1; i < len(poses); i++ {
		ds := poses[i-1].DistanceTo(poses[i])
		c.Length += ds
		if ds <= minStepForSteering {
			continue
		}
		dTheta := components.Deg2Rad(components.NormalizeDeg(poses[i].Heading - poses[i-1].Heading))
		steer := math.Abs(components.Rad2Deg(math.Atan(wb * dTheta / ds)))
		if steer > c.MaxSteering {
			c.MaxSteering = steer
		}
	}
	return c
}
