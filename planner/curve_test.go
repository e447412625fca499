package planner

import (
	"math"
	"testing"

	"github.com/pthm-cable/autopark/components"
)

var testVehicle = components.VehicleParams{Length: 40, Width: 20, Wheelbase: 28, MaxSteering: 40}

func TestBezierEndpoints(t *testing.T) {
	start := components.NewPose(0, 0, 30)
	goal := components.NewPose(200, 50, -30)

	c, err := NewBezier(100).Generate(start, goal, 0.7, 0.4, components.Forward, testVehicle)
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Poses) != 100 {
		t.Fatalf("len(Poses) = %d, want 100", len(c.Poses))
	}
	first, last := c.Poses[0], c.Poses[len(c.Poses)-1]
	if first.X != 0 || first.Y != 0 || first.Heading != 30 {
		t.Errorf("first pose = %+v, want start", first)
	}
	if math.Abs(last.X-200) > 1e-9 || math.Abs(last.Y-50) > 1e-9 {
		t.Errorf("last pose = %+v, want goal position", last)
	}
	if math.Abs(last.Heading+30) > 1e-6 {
		t.Errorf("last heading = %v, want goal heading -30", last.Heading)
	}
	if c.Length < start.DistanceTo(goal) {
		t.Errorf("length %v shorter than the chord %v", c.Length, start.DistanceTo(goal))
	}
}

func TestBezierReverseFlipsHeading(t *testing.T) {
	start := components.NewPose(0, 0, 0)
	goal := components.NewPose(150, 40, 0)
	b := NewBezier(50)

	fwd, _ := b.Generate(start, goal, 0.5, 0.5, components.Forward, testVehicle)
	rev, _ := b.Generate(start, goal, 0.5, 0.5, components.Reverse, testVehicle)

	if rev.Poses[0].Heading != 180 {
		t.Errorf("reverse first heading = %v, want 180", rev.Poses[0].Heading)
	}
	for i := range fwd.Poses {
		diff := components.NormalizeDeg(rev.Poses[i].Heading - fwd.Poses[i].Heading)
		if math.Abs(math.Abs(diff)-180) > 1e-9 {
			t.Fatalf("pose %d: reverse heading %v not opposite forward %v", i, rev.Poses[i].Heading, fwd.Poses[i].Heading)
		}
		if rev.Poses[i].X != fwd.Poses[i].X || rev.Poses[i].Y != fwd.Poses[i].Y {
			t.Fatalf("pose %d: reverse changed the geometry", i)
		}
	}
}

func TestStraightBezierHasNoSteering(t *testing.T) {
	c, _ := NewBezier(200).Generate(components.NewPose(0, 0, 0), components.NewPose(300, 0, 0), 0.5, 0.5, components.Forward, testVehicle)
	if c.MaxSteering > 1e-9 {
		t.Errorf("MaxSteering on a straight line = %v", c.MaxSteering)
	}
	if math.Abs(c.Length-300) > 1e-9 {
		t.Errorf("Length = %v, want 300", c.Length)
	}
}

func TestStraightBezierReverseHasNoSteering(t *testing.T) {
	b := NewBezier(200)
	start, goal := components.NewPose(0, 0, 0), components.NewPose(300, 0, 0)
	for _, dir := range []components.Direction{components.Forward, components.Reverse} {
		c, _ := b.Generate(start, goal, 0.5, 0.5, dir, testVehicle)
		if c.MaxSteering > 1e-9 {
			t.Errorf("%v: MaxSteering on a straight line = %v", dir, c.MaxSteering)
		}
	}
}

func TestQuinticEndpoints(t *testing.T) {
	start := components.NewPose(10, 20, 0)
	goal := components.NewPose(120, 70, 0)
	for _, dir := range []components.Direction{components.Forward, components.Reverse} {
		c, err := NewQuinticHermite(200).Generate(start, goal, 1.2, -0.8, dir, testVehicle)
		if err != nil {
			t.Fatal(err)
		}
		first, last := c.Poses[0], c.Poses[len(c.Poses)-1]
		if math.Abs(first.X-start.X) > 1e-9 || math.Abs(first.Y-start.Y) > 1e-9 || first.Heading != start.Heading {
			t.Errorf("%v: first pose = %+v, want %+v", dir, first, start)
		}
		if math.Abs(last.X-goal.X) > 1e-6 || math.Abs(last.Y-goal.Y) > 1e-6 {
			t.Errorf("%v: last pose = %+v, want goal position", dir, last)
		}
		for _, p := range c.Poses {
			if p.Heading <= -180 || p.Heading > 180 {
				t.Fatalf("%v: heading %v outside (-180, 180]", dir, p.Heading)
			}
		}
	}
}

func TestQuinticProgressBoundary(t *testing.T) {
	const T = 12.0
	c, err := quinticProgress(T)
	if err != nil {
		t.Fatal(err)
	}
	s0, v0 := polyval(c, 0)
	sT, vT := polyval(c, T)
	if math.Abs(s0) > 1e-12 || math.Abs(sT-1) > 1e-9 {
		t.Errorf("s(0)=%v s(T)=%v, want 0 and 1", s0, sT)
	}
	if math.Abs(v0) > 1e-12 || math.Abs(vT) > 1e-9 {
		t.Errorf("s'(0)=%v s'(T)=%v, want 0", v0, vT)
	}
	prev := -1.0
	for i := 0; i <= 100; i++ {
		s, _ := polyval(c, T*float64(i)/100)
		if s < prev-1e-12 {
			t.Fatalf("s(t) decreasing at step %d", i)
		}
		prev = s
	}
}

func TestHermiteBoundary(t *testing.T) {
	c, err := hermite(3, 9, -2, 5)
	if err != nil {
		t.Fatal(err)
	}
	p0, d0 := polyval(c, 0)
	p1, d1 := polyval(c, 1)
	if math.Abs(p0-3) > 1e-12 || math.Abs(p1-9) > 1e-12 || math.Abs(d0+2) > 1e-12 || math.Abs(d1-5) > 1e-12 {
		t.Errorf("hermite boundary = (%v, %v, %v, %v), want (3, 9, -2, 5)", p0, p1, d0, d1)
	}
}

func TestCollides(t *testing.T) {
	obs := []components.Rect{{X: 100, Y: 100, Width: 50, Height: 30}}
	// Safety radius is 20 for a 40x20 vehicle.
	tests := []struct {
		name string
		p    components.Pose
		want bool
	}{
		{"inside", components.Pose{X: 120, Y: 110}, true},
		{"within radius", components.Pose{X: 85, Y: 110}, true},
		{"on radius edge", components.Pose{X: 80, Y: 110}, true},
		{"clear", components.Pose{X: 79, Y: 110}, false},
		{"corner region", components.Pose{X: 81, Y: 81}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Collides([]components.Pose{tt.p}, obs, testVehicle); got != tt.want {
				t.Errorf("Collides(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
	if Collides([]components.Pose{{X: 120, Y: 110}}, nil, testVehicle) {
		t.Error("no obstacles should never collide")
	}
}
