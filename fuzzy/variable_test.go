package fuzzy

import (
	"errors"
	"math"
	"testing"
)

func mustVariable(t *testing.T, name string, lo, hi float64, n int) *Variable {
	t.Helper()
	v, err := NewVariable(name, lo, hi, n)
	if err != nil {
		t.Fatalf("NewVariable: %v", err)
	}
	return v
}

func TestTriangularScenario(t *testing.T) {
	v := mustVariable(t, "x", 0, 10, 101)
	if err := v.AddTerm("mid", Triangular, 0, 5, 10); err != nil {
		t.Fatalf("AddTerm: %v", err)
	}

	tests := []struct {
		value, want float64
	}{
		{5, 1},
		{0, 0},
		{10, 0},
		{2.5, 0.5},
		{7.5, 0.5},
		{-3, 0}, // clipped to 0
		{42, 0}, // clipped to 10
	}
	for _, tt := range tests {
		got := v.Fuzzify(tt.value)["mid"]
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Fuzzify(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestTriangularShape(t *testing.T) {
	cases := [][3]float64{
		{0, 5, 10},
		{0, 0, 10}, // degenerate left side
		{0, 10, 10},
		{3, 3, 3},
		{2, 4, 9},
	}
	for _, c := range cases {
		a, b, c3 := c[0], c[1], c[2]
		if got := triangular(b, a, b, c3); got != 1 {
			t.Errorf("trimf(%v) at b = %v, want 1", c, got)
		}
		if a < b {
			if got := triangular(a, a, b, c3); got != 0 {
				t.Errorf("trimf(%v) at a = %v, want 0", c, got)
			}
		}
		if c3 > b {
			if got := triangular(c3, a, b, c3); got != 0 {
				t.Errorf("trimf(%v) at c = %v, want 0", c, got)
			}
		}

		// Monotonic up on [a,b], down on [b,c]
		prev := -1.0
		for x := a; x <= b; x += 0.01 {
			m := triangular(x, a, b, c3)
			if m < prev-1e-12 {
				t.Fatalf("trimf(%v) not increasing at %v", c, x)
			}
			prev = m
		}
		prev = 2.0
		for x := b; x <= c3; x += 0.01 {
			m := triangular(x, a, b, c3)
			if m > prev+1e-12 {
				t.Fatalf("trimf(%v) not decreasing at %v", c, x)
			}
			prev = m
		}
	}
}

func TestTrapezoidPlateau(t *testing.T) {
	v := mustVariable(t, "x", 0, 100, 201)
	if err := v.AddTerm("plateau", Trapezoidal, 10, 30, 60, 80); err != nil {
		t.Fatalf("AddTerm: %v", err)
	}
	mf := v.Membership("plateau")
	for i, x := range v.Universe() {
		if x >= 30 && x <= 60 && mf[i] != 1 {
			t.Errorf("trapmf at %v = %v, want 1", x, mf[i])
		}
		if (x < 10 || x > 80) && mf[i] != 0 {
			t.Errorf("trapmf at %v = %v, want 0", x, mf[i])
		}
	}
}

func TestShoulderTrapezoid(t *testing.T) {
	v := mustVariable(t, "x", 0, 400, 400)
	if err := v.AddTerm("very_close", Trapezoidal, 0, 0, 5, 10); err != nil {
		t.Fatal(err)
	}
	if got := v.Fuzzify(0)["very_close"]; got != 1 {
		t.Errorf("left shoulder at 0 = %v, want 1", got)
	}
}

func TestGaussian(t *testing.T) {
	v := mustVariable(t, "x", -10, 10, 201)
	if err := v.AddTerm("g", Gaussian, 0, 2); err != nil {
		t.Fatal(err)
	}
	if got := v.Fuzzify(0)["g"]; math.Abs(got-1) > 1e-12 {
		t.Errorf("gaussmf at mean = %v, want 1", got)
	}
	want := math.Exp(-0.5)
	if got := v.Fuzzify(2)["g"]; math.Abs(got-want) > 1e-9 {
		t.Errorf("gaussmf at mean+sigma = %v, want %v", got, want)
	}
}

func TestMembershipRange(t *testing.T) {
	v := mustVariable(t, "x", -50, 50, 333)
	_ = v.AddTerm("t", Triangular, -20, 0, 20)
	_ = v.AddTerm("p", Trapezoidal, -50, -50, -10, 5)
	_ = v.AddTerm("g", Gaussian, 10, 7)
	for _, term := range v.Terms() {
		for i, m := range v.Membership(term) {
			if m < 0 || m > 1 {
				t.Fatalf("%s[%d] = %v outside [0,1]", term, i, m)
			}
		}
	}
}

func TestAddTermInvalid(t *testing.T) {
	v := mustVariable(t, "x", 0, 10, 11)
	tests := []struct {
		name   string
		shape  Shape
		params []float64
	}{
		{"unknown shape", Shape("sigmf"), []float64{1, 2}},
		{"tri param count", Triangular, []float64{1, 2}},
		{"trap param count", Trapezoidal, []float64{1, 2, 3}},
		{"tri unordered", Triangular, []float64{5, 2, 8}},
		{"trap unordered", Trapezoidal, []float64{0, 5, 4, 8}},
		{"gauss zero sigma", Gaussian, []float64{5, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.AddTerm("bad", tt.shape, tt.params...)
			if !errors.Is(err, ErrInvalidMembership) {
				t.Errorf("AddTerm error = %v, want ErrInvalidMembership", err)
			}
		})
	}
	if len(v.Terms()) != 0 {
		t.Errorf("failed AddTerm left %d terms behind", len(v.Terms()))
	}
}

func TestNewVariableInvalid(t *testing.T) {
	if _, err := NewVariable("x", 5, 5, 10); err == nil {
		t.Error("empty domain should fail")
	}
	if _, err := NewVariable("x", 0, 5, 1); err == nil {
		t.Error("resolution 1 should fail")
	}
}

func TestSampleIndexNearest(t *testing.T) {
	v := mustVariable(t, "x", 0, 10, 11)
	tests := []struct {
		value float64
		want  int
	}{
		{0, 0},
		{0.4, 0},
		{0.5, 0}, // tie goes to the lower sample
		{0.6, 1},
		{9.7, 10},
		{10, 10},
		{-1, 0},
		{100, 10},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := v.sampleIndex(tt.value); got != tt.want {
			t.Errorf("sampleIndex(%v) = %d, want %d", tt.value, got, tt.want)
		}
	}
}
