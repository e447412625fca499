// Package tracking follows a precomputed path by matching the vehicle to the
// nearest sample in a window ahead of its last match and looking a fixed
// number of samples further along.
package tracking

import (
	"math"

	"github.com/pthm-cable/autopark/components"
)

// Config bounds the matching window and sets the lookahead.
type Config struct {
	Lookahead   float64 // converted to samples as max(5, Lookahead/4)
	WindowBack  int
	WindowAhead int
}

// DefaultConfig returns the reference tracker settings.
func DefaultConfig() Config {
	return Config{Lookahead: 60, WindowBack: 10, WindowAhead: 50}
}

// LookaheadSamples is the number of path samples between match and reference.
func (c Config) LookaheadSamples() int {
	return max(5, int(c.Lookahead/4))
}

// Tracker matches a vehicle against a path. Progress only moves within the
// window, so a vehicle far off the path keeps matching near its last index.
type Tracker struct {
	path     []components.Pose
	cfg      Config
	progress int
	refIdx   int
}

// New creates a tracker over path. The slice is not copied.
func New(path []components.Pose, cfg Config) *Tracker {
	if cfg.WindowBack < 0 {
		cfg.WindowBack = 0
	}
	if cfg.WindowAhead < 1 {
		cfg.WindowAhead = 1
	}
	return &Tracker{path: path, cfg: cfg}
}

// Path returns the tracked path.
func (t *Tracker) Path() []components.Pose { return t.path }

// Progress is the index of the last matched sample.
func (t *Tracker) Progress() int { return t.progress }

// ReferenceIndex is the index of the last returned reference sample.
func (t *Tracker) ReferenceIndex() int { return t.refIdx }

// Done reports whether the match has reached the final sample.
func (t *Tracker) Done() bool { return len(t.path) == 0 || t.progress >= len(t.path)-1 }

// Reference updates progress from the vehicle position and returns the
// lookahead pose. An empty path yields the position itself with heading 0.
func (t *Tracker) Reference(x, y float64) components.Pose {
	n := len(t.path)
	if n == 0 {
		return components.Pose{X: x, Y: y}
	}

	start := max(0, t.progress-t.cfg.WindowBack)
	end := min(n, t.progress+t.cfg.WindowAhead)
	closest := t.progress
	best := math.Inf(1)
	for i := start; i < end; i++ {
		d := math.Hypot(t.path[i].X-x, t.path[i].Y-y)
		if d < best {
			best = d
			closest = i
		}
	}
	t.progress = closest
	t.refIdx = min(closest+t.cfg.LookaheadSamples(), n-1)
	return t.path[t.refIdx]
}

// Error is the tracking error against the reference pose.
type Error struct {
	Reference components.Pose
	Position  float64 // distance to the reference
	Heading   float64 // reference heading minus vehicle heading, in (-180, 180]
}

// Error advances the match and returns the error for the given pose.
func (t *Tracker) Error(x, y, heading float64) Error {
	ref := t.Reference(x, y)
	return Error{
		Reference: ref,
		Position:  math.Hypot(ref.X-x, ref.Y-y),
		Heading:   components.NormalizeDeg(ref.Heading - heading),
	}
}
