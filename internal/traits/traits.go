// Package traits holds the planet trait catalogue and the draw rules
// applied when a planet is colonized or generated.
package traits

import (
	"math"
	"math/rand"

	"galaxysim/internal/universe"
)

// Rarity tiers a trait for the weighted draw.
type Rarity string

const (
	Common   Rarity = "common"
	Uncommon Rarity = "uncommon"
	Rare     Rarity = "rare"
)

// Effect adjusts one bonus axis. Axis "all_resources" adds Value to the
// metal, crystal, and deuterium bonuses at once; "difficulty" increments
// the planet's colonization difficulty instead of a bonus field.
type Effect struct {
	Axis  string
	Value float64
}

// Trait is a named catalogue entry with one or more effects.
type Trait struct {
	Name    string
	Rarity  Rarity
	Effects []Effect
}

// Catalogue is the fixed trait table.
var Catalogue = []Trait{
	{Name: "iron_rich_crust", Rarity: Common, Effects: []Effect{{Axis: "metal", Value: 0.15}}},
	{Name: "crystal_veins", Rarity: Common, Effects: []Effect{{Axis: "crystal", Value: 0.15}}},
	{Name: "deuterium_seas", Rarity: Common, Effects: []Effect{{Axis: "deuterium", Value: 0.15}}},
	{Name: "temperate_climate", Rarity: Common, Effects: []Effect{{Axis: "energy", Value: 0.10}}},
	{Name: "thin_atmosphere", Rarity: Common, Effects: []Effect{{Axis: "metal", Value: 0.05}, {Axis: "crystal", Value: 0.05}}},
	{Name: "dense_core", Rarity: Uncommon, Effects: []Effect{{Axis: "metal", Value: 0.25}, {Axis: "defense", Value: 0.10}}},
	{Name: "geothermal_activity", Rarity: Uncommon, Effects: []Effect{{Axis: "energy", Value: 0.20}}},
	{Name: "orbital_debris_ring", Rarity: Uncommon, Effects: []Effect{{Axis: "defense", Value: 0.20}, {Axis: "difficulty", Value: 1}}},
	{Name: "ion_storms", Rarity: Uncommon, Effects: []Effect{{Axis: "attack", Value: 0.15}, {Axis: "energy", Value: -0.05}}},
	{Name: "fertile_world", Rarity: Rare, Effects: []Effect{{Axis: "all_resources", Value: 0.20}}},
	{Name: "ancient_ruins", Rarity: Rare, Effects: []Effect{{Axis: "all_resources", Value: 0.10}, {Axis: "attack", Value: 0.10}, {Axis: "defense", Value: 0.10}}},
	{Name: "hostile_fauna", Rarity: Rare, Effects: []Effect{{Axis: "defense", Value: 0.30}, {Axis: "difficulty", Value: 1}}},
}

// Draw distribution: 40% one trait, 45% two, 15% three.
var countWeights = []float64{0.40, 0.45, 0.15}

// Rarity tier weights for each individual draw.
var rarityWeights = map[Rarity]float64{Common: 0.5, Uncommon: 0.3, Rare: 0.2}

// Draw picks 1-3 traits without replacement using a tiered rarity draw.
func Draw(rng *rand.Rand) []Trait {
	count := 1
	roll := rng.Float64()
	acc := 0.0
	for i, w := range countWeights {
		acc += w
		if roll < acc {
			count = i + 1
			break
		}
	}

	drawn := make([]Trait, 0, count)
	taken := make(map[string]bool)
	for len(drawn) < count {
		tier := drawRarity(rng)
		pool := make([]Trait, 0, len(Catalogue))
		for _, t := range Catalogue {
			if t.Rarity == tier && !taken[t.Name] {
				pool = append(pool, t)
			}
		}
		if len(pool) == 0 {
			// Tier exhausted; fall back to anything not yet taken.
			for _, t := range Catalogue {
				if !taken[t.Name] {
					pool = append(pool, t)
				}
			}
			if len(pool) == 0 {
				break
			}
		}
		pick := pool[rng.Intn(len(pool))]
		taken[pick.Name] = true
		drawn = append(drawn, pick)
	}
	return drawn
}

func drawRarity(rng *rand.Rand) Rarity {
	roll := rng.Float64()
	switch {
	case roll < rarityWeights[Common]:
		return Common
	case roll < rarityWeights[Common]+rarityWeights[Uncommon]:
		return Uncommon
	default:
		return Rare
	}
}

// Apply adds a trait's effects to the planet's bonus fields.
func Apply(p *universe.Planet, t Trait) {
	for _, e := range t.Effects {
		switch e.Axis {
		case "metal":
			p.Bonus.Metal += e.Value
		case "crystal":
			p.Bonus.Crystal += e.Value
		case "deuterium":
			p.Bonus.Deuterium += e.Value
		case "all_resources":
			p.Bonus.Metal += e.Value
			p.Bonus.Crystal += e.Value
			p.Bonus.Deuterium += e.Value
		case "energy":
			p.Bonus.Energy += e.Value
		case "defense":
			p.Bonus.Defense += e.Value
		case "attack":
			p.Bonus.Attack += e.Value
		case "difficulty":
			p.ColonizationDifficulty += int(e.Value)
			if p.ColonizationDifficulty > 5 {
				p.ColonizationDifficulty = 5
			}
		}
	}
	p.Traits = append(p.Traits, t.Name)
}

// Assign draws traits for a newly created planet and applies them.
func Assign(p *universe.Planet, rng *rand.Rand) {
	for _, t := range Draw(rng) {
		Apply(p, t)
	}
}

// ColonizationDifficulty rates coordinates 1..5 by distance from the
// galactic origin: clamp(floor(((|x|+|y|+|z|)/3)/200), 1, 5).
func ColonizationDifficulty(c universe.Coordinate) int {
	mean := float64(abs(c.X)+abs(c.Y)+abs(c.Z)) / 3
	d := int(math.Floor(mean / 200))
	if d < 1 {
		d = 1
	}
	if d > 5 {
		d = 5
	}
	return d
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
