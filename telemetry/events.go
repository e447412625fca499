// Package telemetry records parking runs: CSV logs, run summaries, phase
// timing and PNG reports.
package telemetry

import "log/slog"

// EventType identifies run events.
type EventType string

const (
	EventEnteredBay  EventType = "entered_bay"
	EventCentreStop  EventType = "centre_stop"
	EventReoptimized EventType = "reoptimized"
	EventCollided    EventType = "collided"
	EventParked      EventType = "parked"
	EventTimedOut    EventType = "timed_out"
)

// Event is a notable moment of a run.
type Event struct {
	RunID       string    `csv:"run_id"`
	Type        EventType `csv:"type"`
	Tick        int       `csv:"tick"`
	Time        float64   `csv:"time"`
	X           float64   `csv:"x"`
	Y           float64   `csv:"y"`
	Heading     float64   `csv:"heading"`
	Description string    `csv:"description"`
}

// LogEvent logs the event using slog.
func (e Event) LogEvent() {
	slog.Info("event",
		"type", string(e.Type),
		"tick", e.Tick,
		"time", e.Time,
		"x", e.X,
		"y", e.Y,
		"description", e.Description,
	)
}
