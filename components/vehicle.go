package components

// Motion holds the commanded velocity and steering of a vehicle entity.
type Motion struct {
	Velocity float64
	Steering float64 // degrees
}

// Body is the physical description of a vehicle entity.
type Body struct {
	VehicleParams
}

// Outcome is the terminal state of a parking run.
type Outcome uint8

const (
	Running Outcome = iota
	Parked
	Collided
	TimedOut
)

// String returns a lowercase label for the outcome.
func (o Outcome) String() string {
	switch o {
	case Parked:
		return "parked"
	case Collided:
		return "collided"
	case TimedOut:
		return "timed_out"
	default:
		return "running"
	}
}

// Status tracks parking progress of a vehicle entity.
type Status struct {
	Colliding   bool
	Parked      bool
	ParkedTimer float64 // seconds the parked conditions have held
}

// Obstacle marks an entity as a static obstacle.
type Obstacle struct {
	Rect
}
