package planner

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/autopark/components"
)

// QuinticHermite composes a rest-to-rest quintic progress profile s(t) with
// cubic Hermite x(s) and y(s). The boundary tangents are direction*k*heading.
type QuinticHermite struct {
	Samples int

	// Duration is max(MinDuration, distance/Rate).
	Rate        float64
	MinDuration float64
}

// NewQuinticHermite returns a generator with the reference timing.
func NewQuinticHermite(samples int) QuinticHermite {
	return QuinticHermite{Samples: samples, Rate: 0.25, MinDuration: 4}
}

// quinticProgress solves for s(t) with s(0)=0, s(T)=1 and zero velocity and
// acceleration at both ends. Coefficients are highest power first.
func quinticProgress(T float64) ([]float64, error) {
	T2, T3, T4, T5 := T*T, T*T*T, T*T*T*T, T*T*T*T*T
	a := mat.NewDense(6, 6, []float64{
		0, 0, 0, 0, 0, 1,
		T5, T4, T3, T2, T, 1,
		0, 0, 0, 0, 1, 0,
		5 * T4, 4 * T3, 3 * T2, 2 * T, 1, 0,
		0, 0, 0, 2, 0, 0,
		20 * T3, 12 * T2, 6 * T, 2, 0, 0,
	})
	b := mat.NewVecDense(6, []float64{0, 1, 0, 0, 0, 0})
	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("quintic progress T=%v: %w", T, err)
	}
	return c.RawVector().Data, nil
}

// hermite is the cubic p(s) on s∈[0,1] with p(0)=p0, p(1)=p1, p'(0)=m0,
// p'(1)=m1. Coefficients are highest power first.
func hermite(p0, p1, m0, m1 float64) ([]float64, error) {
	a := mat.NewDense(4, 4, []float64{
		0, 0, 0, 1,
		1, 1, 1, 1,
		0, 0, 1, 0,
		3, 2, 1, 0,
	})
	b := mat.NewVecDense(4, []float64{p0, p1, m0, m1})
	var c mat.VecDense
	if err := c.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("hermite: %w", err)
	}
	return c.RawVector().Data, nil
}

// polyval evaluates coefficients (highest power first) and the derivative.
func polyval(c []float64, x float64) (v, d float64) {
	n := len(c) - 1
	for i, ci := range c {
		v = v*x + ci
		if i < n {
			d = d*x + float64(n-i)*ci
		}
	}
	return v, d
}

// Generate implements CurveGenerator.
func (q QuinticHermite) Generate(start, goal components.Pose, k0, k1 float64, dir components.Direction, v components.VehicleParams) (Curve, error) {
	n := q.Samples
	if n < 2 {
		n = DefaultSamples
	}
	rate, minT := q.Rate, q.MinDuration
	if rate <= 0 {
		rate = 0.25
	}
	if minT <= 0 {
		minT = 4
	}

	d := start.DistanceTo(goal)
	T := math.Max(minT, d/rate)

	sc, err := quinticProgress(T)
	if err != nil {
		return Curve{}, err
	}

	th0 := components.Deg2Rad(start.Heading)
	thf := components.Deg2Rad(goal.Heading)
	// Reverse travel leaves along the tail, so the tangents flip with it.
	sign := dir.Sign()
	xc, err := hermite(start.X, goal.X, sign*k0*math.Cos(th0), sign*k1*math.Cos(thf))
	if err != nil {
		return Curve{}, err
	}
	yc, err := hermite(start.Y, goal.Y, sign*k0*math.Sin(th0), sign*k1*math.Sin(thf))
	if err != nil {
		return Curve{}, err
	}

	poses := make([]components.Pose, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1) * T
		s, sdot := polyval(sc, t)
		s = components.Clamp(s, 0, 1)

		x, dxds := polyval(xc, s)
		y, dyds := polyval(yc, s)
		vx, vy := dxds*sdot, dyds*sdot

		var heading float64
		switch {
		case math.Abs(vx) > 1e-6 || math.Abs(vy) > 1e-6:
			heading = travelHeading(math.Atan2(vy, vx), dir)
		case i == 0:
			heading = start.Heading
		default:
			heading = poses[i-1].Heading
		}
		poses[i] = components.NewPose(x, y, heading)
	}
	return finishCurve(poses, v.EffectiveWheelbase()), nil
}
