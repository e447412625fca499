package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/autopark/components"
)

// ParkedConfig holds the conditions a vehicle must hold to count as parked.
type ParkedConfig struct {
	Margin     float64 // corners may overhang the bay by this much
	MaxAngle   float64
	MaxLateral float64
	MinFront   float64
	MaxFront   float64
	MaxSpeed   float64
	Dwell      float64 // seconds the conditions must hold
}

// DefaultParkedConfig returns the reference parked conditions.
func DefaultParkedConfig() ParkedConfig {
	return ParkedConfig{
		Margin:     5,
		MaxAngle:   5,
		MaxLateral: 10,
		MinFront:   10,
		MaxFront:   100,
		MaxSpeed:   10,
		Dwell:      1.0,
	}
}

// ParkedConditions reports whether a vehicle is momentarily parked.
func ParkedConditions(p components.Pose, v components.VehicleParams, s components.Sensors, speed float64, bay components.Rect, cfg ParkedConfig) bool {
	if !bay.ContainsAll(Corners(p, v), cfg.Margin) {
		return false
	}
	return math.Abs(s.Angle) < cfg.MaxAngle &&
		math.Abs(s.Lateral) < cfg.MaxLateral &&
		s.Front > cfg.MinFront && s.Front < cfg.MaxFront &&
		math.Abs(speed) < cfg.MaxSpeed
}

// Dwell advances the parked timer. It resets whenever the conditions break
// and reports parked once they have held longer than dwell.
func Dwell(st *components.Status, holding bool, dt, dwell float64) bool {
	if !holding {
		st.ParkedTimer = 0
		st.Parked = false
		return false
	}
	st.ParkedTimer += dt
	st.Parked = st.ParkedTimer > dwell
	return st.Parked
}

// ParkingSystem tracks how long each vehicle has held the parked conditions.
type ParkingSystem struct {
	filter ecs.Filter5[components.Pose, components.Motion, components.Body, components.Sensors, components.Status]
	bay    components.Rect
	cfg    ParkedConfig
}

// NewParkingSystem creates a parking system for bay.
func NewParkingSystem(w *ecs.World, bay components.Rect, cfg ParkedConfig) *ParkingSystem {
	return &ParkingSystem{
		filter: *ecs.NewFilter5[components.Pose, components.Motion, components.Body, components.Sensors, components.Status](w),
		bay:    bay,
		cfg:    cfg,
	}
}

// Update runs the parking system.
func (s *ParkingSystem) Update(dt float64) {
	query := s.filter.Query()
	for query.Next() {
		pose, motion, body, sensors, status := query.Get()
		holding := ParkedConditions(*pose, body.VehicleParams, *sensors, motion.Velocity, s.bay, s.cfg)
		Dwell(status, holding, dt, s.cfg.Dwell)
	}
}
