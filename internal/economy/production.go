// Package economy implements the per-planet resource ledger: hourly
// production formulas, energy throttling, and the per-tick delta.
package economy

import (
	"math"

	"galaxysim/internal/universe"
)

// Base hourly yield multipliers per structure level.
const (
	metalBase     = 30
	crystalBase   = 20
	deuteriumBase = 10
	levelGrowth   = 1.1

	solarOutput  = 20
	fusionOutput = 50
	mineDraw     = 10
	synthDraw    = 20
)

// Rates holds a planet's hourly production after bonuses, before energy
// throttling.
type Rates struct {
	Metal     float64
	Crystal   float64
	Deuterium float64
}

// HourlyRates computes production per hour for each resource, applying
// the planet's additive trait bonuses as multiplicative factors.
func HourlyRates(p *universe.Planet) Rates {
	return Rates{
		Metal:     structureRate(p.MetalMine, metalBase) * (1 + p.Bonus.Metal),
		Crystal:   structureRate(p.CrystalMine, crystalBase) * (1 + p.Bonus.Crystal),
		Deuterium: structureRate(p.DeuteriumSynthesizer, deuteriumBase) * (1 + p.Bonus.Deuterium),
	}
}

func structureRate(level int, base float64) float64 {
	if level <= 0 {
		return 0
	}
	return float64(level) * base * math.Pow(levelGrowth, float64(level))
}

// EnergyRatio returns production/consumption clamped to [0,1]. A planet
// with no consumers has ratio exactly 1. Shortage scales all three
// resource rates uniformly.
func EnergyRatio(p *universe.Planet) float64 {
	production := float64(p.SolarPlant*solarOutput+p.FusionReactor*fusionOutput) * (1 + p.Bonus.Energy)
	consumption := float64(p.MetalMine*mineDraw + p.CrystalMine*mineDraw + p.DeuteriumSynthesizer*synthDraw)
	if consumption <= 0 {
		return 1
	}
	ratio := production / consumption
	if ratio > 1 {
		return 1
	}
	if ratio < 0 {
		return 0
	}
	return ratio
}

// TickDelta converts hourly rates to a per-tick resource delta. divisor
// is the configured ticks-per-hour fraction (hourly rate / divisor per
// tick). Any structure above level 0 yields at least 1 unit per tick;
// level 0 yields nothing regardless of energy.
func TickDelta(p *universe.Planet, divisor int64) universe.Resources {
	if divisor <= 0 {
		divisor = 1
	}
	rates := HourlyRates(p)
	ratio := EnergyRatio(p)
	return universe.Resources{
		Metal:     scale(rates.Metal, ratio, divisor, p.MetalMine),
		Crystal:   scale(rates.Crystal, ratio, divisor, p.CrystalMine),
		Deuterium: scale(rates.Deuterium, ratio, divisor, p.DeuteriumSynthesizer),
	}
}

func scale(hourly, ratio float64, divisor int64, level int) int64 {
	if level <= 0 {
		return 0
	}
	amount := int64(math.Floor(hourly * ratio / float64(divisor)))
	if amount < 1 {
		return 1
	}
	return amount
}

// Produce applies the tick delta to the planet's stocks and returns it.
// Stocks only ever grow here.
func Produce(p *universe.Planet, divisor int64) universe.Resources {
	delta := TickDelta(p, divisor)
	p.Resources = p.Resources.Add(delta)
	return delta
}
