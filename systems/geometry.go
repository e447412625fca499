// Package systems contains the vehicle collaborators of the parking
// simulation: kinematics, sensing, footprint collision and parked detection.
// Each concern has a pure function and an ECS system over the world.
package systems

import (
	"math"

	"github.com/pthm-cable/autopark/components"
)

// Corners returns the footprint corners of a vehicle centred on p, in order
// rear-right, front-right, front-left, rear-left in the vehicle frame.
func Corners(p components.Pose, v components.VehicleParams) [][2]float64 {
	th := components.Deg2Rad(p.Heading)
	cos, sin := math.Cos(th), math.Sin(th)
	hl, hw := v.Length/2, v.Width/2
	local := [4][2]float64{{-hl, -hw}, {hl, -hw}, {hl, hw}, {-hl, hw}}

	out := make([][2]float64, 4)
	for i, c := range local {
		out[i] = [2]float64{
			p.X + c[0]*cos - c[1]*sin,
			p.Y + c[0]*sin + c[1]*cos,
		}
	}
	return out
}

// FrontCenter is the midpoint of the front bumper.
func FrontCenter(p components.Pose, v components.VehicleParams) (float64, float64) {
	th := components.Deg2Rad(p.Heading)
	return p.X + v.Length/2*math.Cos(th), p.Y + v.Length/2*math.Sin(th)
}

// FootprintCollides reports whether any corner lies inside any obstacle.
// Bounds are inclusive.
func FootprintCollides(corners [][2]float64, obstacles []components.Rect) bool {
	for _, o := range obstacles {
		for _, c := range corners {
			if o.Contains(c[0], c[1], 0) {
				return true
			}
		}
	}
	return false
}
