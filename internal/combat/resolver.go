// Package combat resolves battles between two ship compositions. The
// resolver is deterministic and side-effect free; applying losses and
// reports to the store is the caller's job.
package combat

import (
	"galaxysim/internal/universe"
)

// MaxRounds caps a battle. A side reduced to zero ships ends it early.
const MaxRounds = 6

// DefaultDebrisRatio is the share of lost ship cost converted to debris.
const DefaultDebrisRatio = 0.3

// Winner identifies the prevailing side.
type Winner int

const (
	WinnerAttacker Winner = iota
	WinnerDefender
)

// Input describes one battle. Bonuses are fractional firepower modifiers
// (the defender's usually comes from planet defense traits, the
// attacker's from attack traits).
type Input struct {
	Attacker      universe.ShipCounts
	Defender      universe.ShipCounts
	AttackerBonus float64
	DefenderBonus float64
	DebrisRatio   float64 // 0 means DefaultDebrisRatio
}

// Result is the full outcome of a resolved battle.
type Result struct {
	Winner            Winner
	Rounds            []universe.CombatRound
	AttackerSurvivors universe.ShipCounts
	DefenderSurvivors universe.ShipCounts
	AttackerLosses    universe.ShipCounts
	DefenderLosses    universe.ShipCounts
	Debris            universe.Resources
}

// side tracks one combatant's mutable battle state. The shield pool is
// fixed at battle start and consumed by absorption; it never regenerates.
type side struct {
	ships  universe.ShipCounts
	shield int64
	bonus  float64
}

func newSide(ships universe.ShipCounts, bonus float64) *side {
	s := &side{ships: ships.Clone(), bonus: bonus}
	for t, c := range s.ships {
		if c > 0 {
			s.shield += int64(c) * universe.ShipCatalog[t].Shield
		}
	}
	return s
}

// firepower sums weapon output over all ships, including rapid-fire
// bonus shots against classes the enemy actually fields. Bonus shots per
// class are capped at the attacking ship count.
func (s *side) firepower(enemy *side) int64 {
	var total int64
	for t, c := range s.ships {
		if c <= 0 {
			continue
		}
		stats := universe.ShipCatalog[t]
		shots := int64(c)
		extra := int64(0)
		for target, ratio := range universe.RapidFire[t] {
			if enemy.ships[target] > 0 {
				extra += int64(c * ratio)
			}
		}
		if extra > int64(c) {
			extra = int64(c)
		}
		total += (shots + extra) * stats.Weapon
	}
	return int64(float64(total) * (1 + s.bonus))
}

// absorb runs damage through the shield pool and returns (absorbed,
// hull damage). Single pass over a running budget: hull damage is always
// max(0, damage − remaining shield).
func (s *side) absorb(damage int64) (int64, int64) {
	absorbed := damage
	if absorbed > s.shield {
		absorbed = s.shield
	}
	s.shield -= absorbed
	return absorbed, damage - absorbed
}

// applyHullDamage spends the damage budget across ship classes in the
// stable catalog order. A class loses whole ships only; damage below one
// hull's worth carries to the next class and is otherwise lost.
func (s *side) applyHullDamage(damage int64) {
	for _, t := range universe.ShipOrder {
		count := s.ships[t]
		if count <= 0 || damage <= 0 {
			continue
		}
		hull := universe.ShipCatalog[t].Hull
		kills := damage / hull
		if kills > int64(count) {
			kills = int64(count)
		}
		s.ships[t] = count - int(kills)
		damage -= kills * hull
	}
}

// Resolve runs the battle to completion.
func Resolve(in Input) Result {
	ratio := in.DebrisRatio
	if ratio <= 0 {
		ratio = DefaultDebrisRatio
	}

	attacker := newSide(in.Attacker, in.AttackerBonus)
	defender := newSide(in.Defender, in.DefenderBonus)

	var rounds []universe.CombatRound
	for r := 0; r < MaxRounds; r++ {
		if attacker.ships.Total() == 0 || defender.ships.Total() == 0 {
			break
		}

		// Fire is simultaneous: both sides shoot at this round's
		// compositions before any losses land.
		atkFire := attacker.firepower(defender)
		defFire := defender.firepower(attacker)

		defAbsorbed, defHullDmg := defender.absorb(atkFire)
		atkAbsorbed, atkHullDmg := attacker.absorb(defFire)

		defender.applyHullDamage(defHullDmg)
		attacker.applyHullDamage(atkHullDmg)

		rounds = append(rounds, universe.CombatRound{
			Round:            r + 1,
			AttackerFire:     atkFire,
			DefenderFire:     defFire,
			AttackerAbsorbed: atkAbsorbed,
			DefenderAbsorbed: defAbsorbed,
			AttackerHullDmg:  atkHullDmg,
			DefenderHullDmg:  defHullDmg,
		})
	}

	atkLosses := attacker.ships.Diff(in.Attacker)
	defLosses := defender.ships.Diff(in.Defender)

	// The attacker wins whenever the defense is annihilated, including
	// mutual annihilation and the zero-round undefended case. A defense
	// still standing after the final round holds the planet.
	winner := WinnerDefender
	if defender.ships.Total() == 0 {
		winner = WinnerAttacker
	}

	return Result{
		Winner:            winner,
		Rounds:            rounds,
		AttackerSurvivors: attacker.ships,
		DefenderSurvivors: defender.ships,
		AttackerLosses:    atkLosses,
		DefenderLosses:    defLosses,
		Debris:            debrisFor(atkLosses, defLosses, ratio),
	}
}

// debrisFor converts both sides' losses into salvage: a fixed share of
// the metal and crystal build cost. Deuterium burns up.
func debrisFor(a, b universe.ShipCounts, ratio float64) universe.Resources {
	var metal, crystal int64
	add := func(losses universe.ShipCounts) {
		for t, c := range losses {
			if c <= 0 {
				continue
			}
			cost := universe.ShipCatalog[t].Cost
			metal += int64(c) * cost.Metal
			crystal += int64(c) * cost.Crystal
		}
	}
	add(a)
	add(b)
	return universe.Resources{
		Metal:   int64(float64(metal) * ratio),
		Crystal: int64(float64(crystal) * ratio),
	}
}

// ExperienceFor returns the experience the winner gains: one point per
// full thousand units of hull destroyed on the losing side.
func ExperienceFor(losses universe.ShipCounts) int64 {
	var hull int64
	for t, c := range losses {
		if c > 0 {
			hull += int64(c) * universe.ShipCatalog[t].Hull
		}
	}
	return hull / 1000
}
