package tracking

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/autopark/components"
)

// straightPath is n samples along +x, one unit apart.
func straightPath(n int) []components.Pose {
	p := make([]components.Pose, n)
	for i := range p {
		p[i] = components.Pose{X: float64(i), Y: 0, Heading: 0}
	}
	return p
}

func TestLookaheadSamples(t *testing.T) {
	tests := []struct {
		lookahead float64
		want      int
	}{
		{60, 15},
		{10, 5},
		{0, 5},
		{23, 5},
		{25, 6},
	}
	for _, tt := range tests {
		if got := (Config{Lookahead: tt.lookahead}).LookaheadSamples(); got != tt.want {
			t.Errorf("LookaheadSamples(%v) = %d, want %d", tt.lookahead, got, tt.want)
		}
	}
}

func TestReferenceLooksAhead(t *testing.T) {
	tr := New(straightPath(100), DefaultConfig())

	ref := tr.Reference(3.2, 1)
	if tr.Progress() != 3 {
		t.Errorf("Progress = %d, want 3", tr.Progress())
	}
	if ref.X != 18 {
		t.Errorf("reference x = %v, want 18", ref.X)
	}

	for x := 5.0; x < 98; x += 5 {
		tr.Reference(x, 0)
	}
	ref = tr.Reference(98, 0)
	if ref.X != 99 || tr.ReferenceIndex() != 99 {
		t.Errorf("reference near the end = %v (index %d), want clamp to 99", ref.X, tr.ReferenceIndex())
	}
	if !tr.Done() {
		t.Error("Done should be true at the last sample")
	}
}

func TestReferenceWindowBounded(t *testing.T) {
	tr := New(straightPath(200), DefaultConfig())

	// The true nearest sample (150) is outside the first window [0, 50).
	tr.Reference(150, 0)
	if tr.Progress() != 49 {
		t.Errorf("Progress = %d, want 49 (window end)", tr.Progress())
	}

	// It never searches further back than progress-10.
	tr.Reference(0, 0)
	if tr.Progress() != 39 {
		t.Errorf("Progress = %d, want 39 (window start)", tr.Progress())
	}
}

func TestEmptyPath(t *testing.T) {
	tr := New(nil, DefaultConfig())
	ref := tr.Reference(12, -4)
	if ref.X != 12 || ref.Y != -4 || ref.Heading != 0 {
		t.Errorf("empty path reference = %+v, want vehicle position with heading 0", ref)
	}
	e := tr.Error(12, -4, 90)
	if e.Position != 0 || e.Heading != -90 {
		t.Errorf("empty path error = %+v", e)
	}
}

func TestHeadingErrorRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	path := make([]components.Pose, 50)
	for i := range path {
		path[i] = components.NewPose(float64(i), 0, rng.Float64()*360-180)
	}
	tr := New(path, DefaultConfig())

	for i := 0; i < 2000; i++ {
		heading := rng.Float64()*4000 - 2000
		e := tr.Error(rng.Float64()*50, rng.Float64()*10-5, heading)
		if e.Heading <= -180 || e.Heading > 180 {
			t.Fatalf("heading error %v outside (-180, 180] for heading %v", e.Heading, heading)
		}
	}
}

func TestErrorDistance(t *testing.T) {
	tr := New(straightPath(100), DefaultConfig())
	e := tr.Error(0, 3, 10)
	if want := math.Hypot(15, 3); math.Abs(e.Position-want) > 1e-12 {
		t.Errorf("Position = %v, want %v", e.Position, want)
	}
	if e.Heading != -10 {
		t.Errorf("Heading = %v, want -10", e.Heading)
	}
}
