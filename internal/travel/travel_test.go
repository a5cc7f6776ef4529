package travel

import (
	"math"
	"testing"
	"time"

	"galaxysim/internal/universe"
)

func TestDistance(t *testing.T) {
	a := universe.Coordinate{X: 0, Y: 0, Z: 0}
	b := universe.Coordinate{X: 3, Y: 4, Z: 0}
	if got := Distance(a, b); math.Abs(got-5) > 0.001 {
		t.Errorf("distance = %f, want 5", got)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := universe.Coordinate{X: -10, Y: 20, Z: 7}
	b := universe.Coordinate{X: 100, Y: -3, Z: 50}
	if Distance(a, b) != Distance(b, a) {
		t.Errorf("distance not symmetric")
	}
}

func TestDistanceFloor(t *testing.T) {
	a := universe.Coordinate{X: 1, Y: 2, Z: 3}
	if got := Distance(a, a); got != 1 {
		t.Errorf("co-located distance = %f, want floor 1", got)
	}
}

func TestFleetSpeedSlowestShip(t *testing.T) {
	ships := universe.ShipCounts{
		universe.LightFighter: 10, // 12500
		universe.Recycler:     1,  // 2000
	}
	if got := FleetSpeed(ships); got != universe.ShipCatalog[universe.Recycler].Speed {
		t.Errorf("fleet speed = %f, want recycler speed", got)
	}
}

func TestFleetSpeedIgnoresZeroCounts(t *testing.T) {
	ships := universe.ShipCounts{
		universe.LightFighter: 10,
		universe.Recycler:     0,
	}
	if got := FleetSpeed(ships); got != universe.ShipCatalog[universe.LightFighter].Speed {
		t.Errorf("fleet speed = %f, want light fighter speed", got)
	}
}

func TestFleetSpeedEmpty(t *testing.T) {
	if got := FleetSpeed(universe.ShipCounts{}); got != 0 {
		t.Errorf("empty fleet speed = %f, want 0", got)
	}
}

func TestTravelTime(t *testing.T) {
	from := universe.Coordinate{}
	to := universe.Coordinate{X: 2500} // one hour at colony ship speed
	ships := universe.ShipCounts{universe.ColonyShip: 1}

	got := TravelTime(from, to, ships)
	if got != time.Hour {
		t.Errorf("travel time = %s, want 1h", got)
	}
}

func TestTravelTimeEmptyFleet(t *testing.T) {
	if got := TravelTime(universe.Coordinate{}, universe.Coordinate{X: 10}, universe.ShipCounts{}); got != 0 {
		t.Errorf("empty fleet travel time = %s, want 0", got)
	}
}

func TestProgressClamped(t *testing.T) {
	dep := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	arr := dep.Add(time.Hour)

	if got := Progress(dep, arr, dep.Add(-time.Minute)); got != 0 {
		t.Errorf("before departure = %f, want 0", got)
	}
	if got := Progress(dep, arr, dep.Add(30*time.Minute)); math.Abs(got-0.5) > 0.001 {
		t.Errorf("midpoint = %f, want 0.5", got)
	}
	if got := Progress(dep, arr, arr.Add(time.Minute)); got != 1 {
		t.Errorf("after arrival = %f, want 1", got)
	}
}

func TestInterpolate(t *testing.T) {
	from := universe.Coordinate{X: 0, Y: 0, Z: 0}
	to := universe.Coordinate{X: 10, Y: -20, Z: 4}
	pos := Interpolate(from, to, 0.5)
	if pos.X != 5 || pos.Y != -10 || pos.Z != 2 {
		t.Errorf("midpoint = %+v", pos)
	}
}
