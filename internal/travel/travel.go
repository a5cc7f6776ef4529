// Package travel computes distances, fleet speeds, ETAs, and in-flight
// position interpolation. Pure queries; nothing here mutates state.
package travel

import (
	"math"
	"time"

	"galaxysim/internal/universe"
)

// Distance returns the 3D euclidean distance between two coordinates,
// floored at 1 so co-located planets never divide by zero.
func Distance(a, b universe.Coordinate) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	dz := float64(a.Z - b.Z)
	d := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if d < 1 {
		return 1
	}
	return d
}

// FleetSpeed returns the speed of the slowest ship class present in
// nonzero count. An empty fleet has speed 0.
func FleetSpeed(ships universe.ShipCounts) float64 {
	speed := 0.0
	for t, c := range ships {
		if c <= 0 {
			continue
		}
		s := universe.ShipCatalog[t].Speed
		if speed == 0 || s < speed {
			speed = s
		}
	}
	return speed
}

// TravelTime returns the one-way flight duration between two coordinates
// for the given ship composition, or 0 for an empty fleet.
func TravelTime(from, to universe.Coordinate, ships universe.ShipCounts) time.Duration {
	speed := FleetSpeed(ships)
	if speed <= 0 {
		return 0
	}
	hours := Distance(from, to) / speed
	return time.Duration(hours * float64(time.Hour))
}

// Position is a fractional coordinate used for display interpolation.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Progress returns the elapsed fraction of a flight, clamped to [0,1].
func Progress(departure, arrival, now time.Time) float64 {
	total := arrival.Sub(departure)
	if total <= 0 {
		return 1
	}
	f := float64(now.Sub(departure)) / float64(total)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Interpolate returns the display position of a fleet in transit between
// two coordinates at the given progress fraction.
func Interpolate(from, to universe.Coordinate, fraction float64) Position {
	return Position{
		X: float64(from.X) + (float64(to.X)-float64(from.X))*fraction,
		Y: float64(from.Y) + (float64(to.Y)-float64(from.Y))*fraction,
		Z: float64(from.Z) + (float64(to.Z)-float64(from.Z))*fraction,
	}
}
