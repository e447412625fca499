package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/autopark/components"
)

// MaxDepth caps the depth reading once the vehicle is inside the bay.
const MaxDepth = 150

// ComputeSensors derives the four controller readings of a vehicle at p
// relative to the parking bay.
func ComputeSensors(p components.Pose, v components.VehicleParams, bay components.Rect) components.Sensors {
	fx, _ := FrontCenter(p, v)
	_, cy := bay.Center()

	s := components.Sensors{
		Front:   math.Abs(bay.X - fx),
		Lateral: p.Y - cy,
		Angle:   p.Heading,
	}
	if p.X >= bay.X {
		s.Depth = math.Min(p.X-bay.X, MaxDepth)
	}
	return s
}

// SensorSystem refreshes vehicle sensor readings.
type SensorSystem struct {
	filter ecs.Filter3[components.Pose, components.Body, components.Sensors]
	bay    components.Rect
}

// NewSensorSystem creates a sensor system measuring against bay.
func NewSensorSystem(w *ecs.World, bay components.Rect) *SensorSystem {
	return &SensorSystem{
		filter: *ecs.NewFilter3[components.Pose, components.Body, components.Sensors](w),
		bay:    bay,
	}
}

// Update runs the sensor system.
func (s *SensorSystem) Update() {
	query := s.filter.Query()
	for query.Next() {
		pose, body, sensors := query.Get()
		*sensors = ComputeSensors(*pose, body.VehicleParams, s.bay)
	}
}
