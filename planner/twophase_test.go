package planner

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/autopark/components"
)

func TestIntermediatePose(t *testing.T) {
	h := DefaultHeuristic()
	v := components.VehicleParams{Length: 40, Width: 20}

	// lateral = 1.3*20 + 10 + 5 = 41, longitudinal = 20
	ir := h.IntermediatePose(components.NewPose(100, 200, 0), v)
	if math.Abs(ir.X-120) > 1e-9 || math.Abs(ir.Y-241) > 1e-9 || ir.Heading != 0 {
		t.Errorf("Ir = %+v, want (120, 241, 0)", ir)
	}

	ir = h.IntermediatePose(components.NewPose(100, 200, 90), v)
	if math.Abs(ir.X-59) > 1e-9 || math.Abs(ir.Y-220) > 1e-9 || ir.Heading != 90 {
		t.Errorf("Ir at 90° = %+v, want (59, 220, 90)", ir)
	}
}

func TestTwoPhaseCombines(t *testing.T) {
	s := smallSettings(12, 6)
	s.Samples = 80
	tp, err := NewTwoPhase(s, DefaultHeuristic(), rand.New(rand.NewSource(21)))
	if err != nil {
		t.Fatal(err)
	}

	p := Problem{
		Start:   components.NewPose(100, 150, 0),
		Goal:    components.NewPose(400, 300, 0),
		Vehicle: testVehicle,
	}
	res, err := tp.Run(p)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(res.Phases))
	}
	p1, p2 := res.Phases[0], res.Phases[1]
	if p1.Direction != components.Forward || p2.Direction != components.Reverse {
		t.Errorf("phase directions = %v, %v, want forward then reverse", p1.Direction, p2.Direction)
	}
	if len(res.Trajectory) != 160 {
		t.Errorf("combined trajectory = %d poses, want 160", len(res.Trajectory))
	}
	if math.Abs(res.PathLength-(p1.PathLength+p2.PathLength)) > 1e-9 {
		t.Errorf("PathLength = %v, want sum of phases", res.PathLength)
	}
	if res.MaxSteering != math.Max(p1.MaxSteering, p2.MaxSteering) {
		t.Errorf("MaxSteering = %v, want max of phases", res.MaxSteering)
	}
	if len(res.BestCost) != 12 {
		t.Errorf("history = %d generations, want 12", len(res.BestCost))
	}

	ir := DefaultHeuristic().IntermediatePose(p.Goal, p.Vehicle)
	if res.Intermediate == nil || *res.Intermediate != ir {
		t.Errorf("Intermediate = %v, want %+v", res.Intermediate, ir)
	}
	end1 := p1.Trajectory[len(p1.Trajectory)-1]
	if math.Hypot(end1.X-ir.X, end1.Y-ir.Y) > 1e-6 {
		t.Errorf("phase 1 ends at %+v, want Ir %+v", end1, ir)
	}

	if res.DirectionAt(0) != components.Forward || res.DirectionAt(79) != components.Forward {
		t.Error("first segment should be forward")
	}
	if res.DirectionAt(80) != components.Reverse || res.DirectionAt(500) != components.Reverse {
		t.Error("second segment and beyond should be reverse")
	}
}

func TestCombineCollisionIsEitherPhase(t *testing.T) {
	tests := []struct {
		first, second, want bool
	}{
		{false, false, false},
		{true, false, true},
		{false, true, true},
		{true, true, true},
	}
	for _, tt := range tests {
		r1 := &Result{Direction: components.Forward, HasCollision: tt.first}
		r2 := &Result{Direction: components.Reverse, HasCollision: tt.second}
		if got := combine(r1, r2, components.Pose{}).HasCollision; got != tt.want {
			t.Errorf("combine(%v, %v).HasCollision = %v, want %v", tt.first, tt.second, got, tt.want)
		}
	}
}

func TestTwoPhaseReportsApproachCollision(t *testing.T) {
	s := smallSettings(10, 4)
	s.Samples = 60
	tp, err := NewTwoPhase(s, DefaultHeuristic(), rand.New(rand.NewSource(5)))
	if err != nil {
		t.Fatal(err)
	}

	// The obstacle sits on the start pose, so every approach collides while
	// the entry near the goal stays clear.
	p := Problem{
		Start:     components.NewPose(100, 150, 0),
		Goal:      components.NewPose(400, 300, 0),
		Vehicle:   testVehicle,
		Obstacles: []components.Rect{{X: 90, Y: 140, Width: 20, Height: 20}},
	}
	res, err := tp.Run(p)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Phases[0].HasCollision {
		t.Error("approach phase should collide")
	}
	if res.Phases[1].HasCollision {
		t.Error("entry phase should be clear")
	}
	if !res.HasCollision {
		t.Error("combined result should report the approach collision")
	}
}
