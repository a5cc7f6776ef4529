package universe

// ShipType identifies a ship class.
type ShipType string

const (
	SmallCargo   ShipType = "small_cargo"
	LargeCargo   ShipType = "large_cargo"
	LightFighter ShipType = "light_fighter"
	HeavyFighter ShipType = "heavy_fighter"
	Cruiser      ShipType = "cruiser"
	Battleship   ShipType = "battleship"
	ColonyShip   ShipType = "colony_ship"
	Recycler     ShipType = "recycler"
)

// ShipStats holds the fixed combat and travel characteristics of a class.
// Speed is in distance units per hour, Cargo in resource units, RecycleCap
// in debris units harvestable per trip.
type ShipStats struct {
	Speed      float64
	Hull       int64
	Shield     int64
	Weapon     int64
	Cargo      int64
	RecycleCap int64
	Cost       Resources
}

// ShipCatalog is the fixed class table. Iterate via ShipOrder for a
// stable ordering.
var ShipCatalog = map[ShipType]ShipStats{
	SmallCargo:   {Speed: 5000, Hull: 4000, Shield: 10, Weapon: 5, Cargo: 5000, Cost: Resources{Metal: 2000, Crystal: 2000}},
	LargeCargo:   {Speed: 7500, Hull: 12000, Shield: 25, Weapon: 5, Cargo: 25000, Cost: Resources{Metal: 6000, Crystal: 6000}},
	LightFighter: {Speed: 12500, Hull: 4000, Shield: 10, Weapon: 50, Cargo: 50, Cost: Resources{Metal: 3000, Crystal: 1000}},
	HeavyFighter: {Speed: 10000, Hull: 10000, Shield: 25, Weapon: 150, Cargo: 100, Cost: Resources{Metal: 6000, Crystal: 4000}},
	Cruiser:      {Speed: 15000, Hull: 27000, Shield: 50, Weapon: 400, Cargo: 800, Cost: Resources{Metal: 20000, Crystal: 7000}},
	Battleship:   {Speed: 10000, Hull: 60000, Shield: 200, Weapon: 1000, Cargo: 1500, Cost: Resources{Metal: 45000, Crystal: 15000}},
	ColonyShip:   {Speed: 2500, Hull: 30000, Shield: 100, Weapon: 50, Cargo: 7500, Cost: Resources{Metal: 10000, Crystal: 20000}},
	Recycler:     {Speed: 2000, Hull: 16000, Shield: 10, Weapon: 1, Cargo: 20000, RecycleCap: 20000, Cost: Resources{Metal: 10000, Crystal: 6000}},
}

// ShipOrder is the stable iteration order used by combat damage
// application and report rendering.
var ShipOrder = []ShipType{
	SmallCargo, LargeCargo, LightFighter, HeavyFighter,
	Cruiser, Battleship, ColonyShip, Recycler,
}

// RapidFire maps attacker class to defender classes against which it
// fires extra shots, expressed as bonus shots per attacking ship.
var RapidFire = map[ShipType]map[ShipType]int{
	LightFighter: {Cruiser: 2},
	Cruiser:      {SmallCargo: 3, Recycler: 3},
	Battleship:   {LightFighter: 2, HeavyFighter: 2},
	HeavyFighter: {SmallCargo: 3, LargeCargo: 2},
}

// ShipCounts is a per-class count map. Zero-count entries are treated as
// absent.
type ShipCounts map[ShipType]int

// Total returns the summed ship count.
func (s ShipCounts) Total() int {
	n := 0
	for _, c := range s {
		if c > 0 {
			n += c
		}
	}
	return n
}

// Clone returns a copy of the counts.
func (s ShipCounts) Clone() ShipCounts {
	out := make(ShipCounts, len(s))
	for t, c := range s {
		out[t] = c
	}
	return out
}

// Diff returns original − s per class, dropping zero entries. Used to
// derive combat losses.
func (s ShipCounts) Diff(original ShipCounts) ShipCounts {
	out := make(ShipCounts)
	for t, c := range original {
		if lost := c - s[t]; lost > 0 {
			out[t] = lost
		}
	}
	return out
}

// CargoCapacity sums cargo capacity over all ships present.
func (s ShipCounts) CargoCapacity() int64 {
	var total int64
	for t, c := range s {
		if c > 0 {
			total += int64(c) * ShipCatalog[t].Cargo
		}
	}
	return total
}

// RecycleCapacity sums debris harvesting capacity over all ships present.
func (s ShipCounts) RecycleCapacity() int64 {
	var total int64
	for t, c := range s {
		if c > 0 {
			total += int64(c) * ShipCatalog[t].RecycleCap
		}
	}
	return total
}
