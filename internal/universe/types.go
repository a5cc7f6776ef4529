// Package universe defines the persistent domain model: planets, fleets,
// ship classes, combat reports, debris fields, and the tick journal rows
// emitted by the simulation pipeline.
package universe

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Coordinate is a position in the universe grid. Planet coordinates are
// globally unique.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// String renders the coordinate in the canonical "x:y:z" form.
func (c Coordinate) String() string {
	return fmt.Sprintf("%d:%d:%d", c.X, c.Y, c.Z)
}

// ParseCoordinate parses the "x:y:z" form.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Coordinate{}, fmt.Errorf("coordinate %q: want x:y:z", s)
	}
	var vals [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return Coordinate{}, fmt.Errorf("coordinate %q: %w", s, err)
		}
		vals[i] = v
	}
	return Coordinate{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}

// Resources is a metal/crystal/deuterium triple. Stocks are non-negative;
// deltas may be negative.
type Resources struct {
	Metal     int64 `json:"metal"`
	Crystal   int64 `json:"crystal"`
	Deuterium int64 `json:"deuterium"`
}

// Add returns r with o added component-wise.
func (r Resources) Add(o Resources) Resources {
	return Resources{
		Metal:     r.Metal + o.Metal,
		Crystal:   r.Crystal + o.Crystal,
		Deuterium: r.Deuterium + o.Deuterium,
	}
}

// Total returns the summed amount across all three resources.
func (r Resources) Total() int64 {
	return r.Metal + r.Crystal + r.Deuterium
}

// IsZero reports whether all three amounts are zero.
func (r Resources) IsZero() bool {
	return r.Metal == 0 && r.Crystal == 0 && r.Deuterium == 0
}

// Bonus holds a planet's additive trait bonuses, as fractions (0.15 = +15%).
// Resource and energy bonuses scale production, defense and attack scale
// combat firepower.
type Bonus struct {
	Metal     float64 `json:"metal"`
	Crystal   float64 `json:"crystal"`
	Deuterium float64 `json:"deuterium"`
	Energy    float64 `json:"energy"`
	Defense   float64 `json:"defense"`
	Attack    float64 `json:"attack"`
}

// Planet is a coordinate-unique body. Owner is empty until the planet is
// colonized or founded as a home planet; planets are never deleted.
type Planet struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Owner                  string     `json:"owner,omitempty"` // player id; empty = unowned
	Coord                  Coordinate `json:"coord"`
	Resources              Resources  `json:"resources"`
	MetalMine              int        `json:"metal_mine"`
	CrystalMine            int        `json:"crystal_mine"`
	DeuteriumSynthesizer   int        `json:"deuterium_synthesizer"`
	SolarPlant             int        `json:"solar_plant"`
	FusionReactor          int        `json:"fusion_reactor"`
	ResearchLab            int        `json:"research_lab"`
	Bonus                  Bonus      `json:"bonus"`
	Traits                 []string   `json:"traits,omitempty"`
	ColonizationDifficulty int        `json:"colonization_difficulty"` // 1..5
	HomePlanet             bool       `json:"home_planet,omitempty"`
	ColonizedAt            *time.Time `json:"colonized_at,omitempty"`
}

// Owned reports whether the planet has an owner.
func (p *Planet) Owned() bool { return p.Owner != "" }

// Mission is the player-intended purpose of a fleet's current trip.
type Mission string

const (
	MissionStationed Mission = "stationed"
	MissionAttack    Mission = "attack"
	MissionTransport Mission = "transport"
	MissionDeploy    Mission = "deploy"
	MissionExplore   Mission = "explore"
	MissionColonize  Mission = "colonize"
	MissionRecycle   Mission = "recycle"
	MissionReturn    Mission = "return"
)

// Fleet is a player-owned group of ships. A fleet record persists even
// when combat reduces it to zero ships.
type Fleet struct {
	ID             string     `json:"id"`
	Owner          string     `json:"owner"`
	Name           string     `json:"name"`
	Ships          ShipCounts `json:"ships"`
	Mission        Mission    `json:"mission"`
	Status         Status     `json:"status"`
	RawStatus      string     `json:"-"` // status text as stored; diagnostic for guard repairs
	OriginID       string     `json:"origin_id,omitempty"`
	TargetID       string     `json:"target_id,omitempty"` // empty for coordinate-based missions
	Cargo          Resources  `json:"cargo"`
	DepartureTime  *time.Time `json:"departure_time,omitempty"`
	ArrivalTime    *time.Time `json:"arrival_time,omitempty"`
	ETASeconds     int64      `json:"eta_seconds"`
	Victories      int        `json:"victories"`
	Defeats        int        `json:"defeats"`
	Experience     int64      `json:"experience"`
	LastCombatTime *time.Time `json:"last_combat_time,omitempty"`
}

// CombatReport records one resolved battle. Append-only.
type CombatReport struct {
	ID              string        `json:"id"`
	AttackerFleetID string        `json:"attacker_fleet_id"`
	DefenderFleetID string        `json:"defender_fleet_id,omitempty"` // empty when the defender was a bare planet
	PlanetID        string        `json:"planet_id"`
	WinnerFleetID   string        `json:"winner_fleet_id,omitempty"` // empty when the bare planet held
	Rounds          []CombatRound `json:"rounds"`
	AttackerLosses  ShipCounts    `json:"attacker_losses"`
	DefenderLosses  ShipCounts    `json:"defender_losses"`
	Debris          Resources     `json:"debris"`
	CreatedAt       time.Time     `json:"created_at"`
}

// CombatRound summarizes one exchange of fire.
type CombatRound struct {
	Round            int   `json:"round"`
	AttackerFire     int64 `json:"attacker_fire"`
	DefenderFire     int64 `json:"defender_fire"`
	AttackerAbsorbed int64 `json:"attacker_absorbed"` // damage eaten by attacker shields
	DefenderAbsorbed int64 `json:"defender_absorbed"`
	AttackerHullDmg  int64 `json:"attacker_hull_damage"`
	DefenderHullDmg  int64 `json:"defender_hull_damage"`
}

// DebrisField holds salvage left at a planet after combat. Deleted once
// fully harvested.
type DebrisField struct {
	ID        string    `json:"id"`
	PlanetID  string    `json:"planet_id"`
	Resources Resources `json:"resources"`
	CreatedAt time.Time `json:"created_at"`
}
