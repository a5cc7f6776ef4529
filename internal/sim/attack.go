package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"galaxysim/internal/combat"
	"galaxysim/internal/logging"
	"galaxysim/internal/store"
	"galaxysim/internal/traits"
	"galaxysim/internal/universe"
)

// resolveAttack runs a battle at the target planet and applies the
// outcome: losses, counters, debris, loot, and a combat report. The
// attacking fleet ends the tick stationed back at its own base.
func (s *Simulator) resolveAttack(ctx context.Context, tx *store.Tx, f *universe.Fleet, tick int64, now time.Time) ([]universe.JournalRow, error) {
	log := logging.FromContext(ctx)

	planet, err := tx.GetPlanet(f.TargetID)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("attack target missing", "fleet", f.ID, "target", f.TargetID)
		s.station(f)
		if err := tx.UpdateFleet(f); err != nil {
			return nil, err
		}
		return []universe.JournalRow{s.fleetEvent(universe.EventCombat, f, tick, now, "target missing")}, nil
	}
	if err != nil {
		return nil, err
	}

	defenders, err := s.defendersAt(tx, planet.ID, f.Owner)
	if err != nil {
		return nil, err
	}
	defenderShips := make(universe.ShipCounts)
	for _, d := range defenders {
		for t, c := range d.Ships {
			defenderShips[t] += c
		}
	}

	attackBonus, err := s.attackBonusFor(tx, f)
	if err != nil {
		return nil, err
	}
	defenseBonus := 0.0
	if planet.Owned() {
		defenseBonus = planet.Bonus.Defense
	}

	result := combat.Resolve(combat.Input{
		Attacker:      f.Ships,
		Defender:      defenderShips,
		AttackerBonus: attackBonus,
		DefenderBonus: defenseBonus,
		DebrisRatio:   s.cfg.DebrisRatio,
	})

	// Apply losses and counters.
	f.Ships = result.AttackerSurvivors
	lc := now
	f.LastCombatTime = &lc
	details := "defense held"
	if result.Winner == combat.WinnerAttacker {
		f.Victories++
		f.Experience += combat.ExperienceFor(result.DefenderLosses)
		details = "attacker won"
	} else {
		f.Defeats++
	}
	if err := s.applyDefenderLosses(tx, defenders, result.DefenderLosses, result.Winner, now); err != nil {
		return nil, err
	}

	// Undefended, unowned planet with a colony-capable attacker: the
	// coordinates change hands on the spot.
	captured := false
	if result.Winner == combat.WinnerAttacker && !planet.Owned() &&
		defenderShips.Total() == 0 && f.Ships[universe.ColonyShip] > 0 {
		planet.Owner = f.Owner
		colonizedAt := now
		planet.ColonizedAt = &colonizedAt
		if len(planet.Traits) == 0 {
			traits.Assign(planet, s.rng)
		}
		if err := tx.UpdatePlanet(planet); err != nil {
			return nil, err
		}
		captured = true
		details = "planet captured"
	}

	// Winner loots a defended-but-beaten owned planet: up to half its
	// stocks, bounded by the fleet's free cargo space, hauled straight
	// back to base.
	if result.Winner == combat.WinnerAttacker && planet.Owned() && !captured {
		if err := s.lootPlanet(tx, f, planet); err != nil {
			return nil, err
		}
	}

	if !result.Debris.IsZero() {
		if err := s.depositDebris(tx, planet.ID, result.Debris, now); err != nil {
			return nil, err
		}
	}

	report := &universe.CombatReport{
		ID:              uuid.New().String(),
		AttackerFleetID: f.ID,
		PlanetID:        planet.ID,
		Rounds:          result.Rounds,
		AttackerLosses:  result.AttackerLosses,
		DefenderLosses:  result.DefenderLosses,
		Debris:          result.Debris,
		CreatedAt:       now,
	}
	defenderOwner := planet.Owner
	if len(defenders) > 0 {
		report.DefenderFleetID = defenders[0].ID
		defenderOwner = defenders[0].Owner
	}
	switch result.Winner {
	case combat.WinnerAttacker:
		report.WinnerFleetID = f.ID
	case combat.WinnerDefender:
		report.WinnerFleetID = report.DefenderFleetID
	}
	if err := tx.InsertCombatReport(report, f.Owner, defenderOwner); err != nil {
		return nil, err
	}

	// The attacker does not remain at the target; it is stationed back
	// at its own base.
	s.station(f)
	if err := tx.UpdateFleet(f); err != nil {
		return nil, err
	}

	log.Info("combat resolved", "attacker", f.ID, "planet", planet.ID,
		"rounds", len(result.Rounds), "outcome", details)
	row := s.fleetEvent(universe.EventCombat, f, tick, now,
		fmt.Sprintf("%s after %d rounds", details, len(result.Rounds)))
	row.PlanetID = planet.ID
	row.Metal, row.Crystal, row.Deuterium = result.Debris.Metal, result.Debris.Crystal, result.Debris.Deuterium
	return []universe.JournalRow{row}, nil
}

// defendersAt lists stationed fleets at the planet that do not belong
// to the aggressor.
func (s *Simulator) defendersAt(tx *store.Tx, planetID, aggressor string) ([]*universe.Fleet, error) {
	stationed, err := tx.StationedFleetsAt(planetID)
	if err != nil {
		return nil, err
	}
	defenders := make([]*universe.Fleet, 0, len(stationed))
	for _, d := range stationed {
		if d.Owner != aggressor {
			defenders = append(defenders, d)
		}
	}
	return defenders, nil
}

// attackBonusFor reads the attack trait bonus of the fleet's home
// planet. A missing home planet just means no bonus.
func (s *Simulator) attackBonusFor(tx *store.Tx, f *universe.Fleet) (float64, error) {
	if f.OriginID == "" {
		return 0, nil
	}
	origin, err := tx.GetPlanet(f.OriginID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return origin.Bonus.Attack, nil
}

// applyDefenderLosses distributes the merged defender losses across the
// individual defending fleets in order, and updates their counters.
func (s *Simulator) applyDefenderLosses(tx *store.Tx, defenders []*universe.Fleet, losses universe.ShipCounts, winner combat.Winner, now time.Time) error {
	remaining := losses.Clone()
	for _, d := range defenders {
		for t, lost := range remaining {
			if lost <= 0 || d.Ships[t] <= 0 {
				continue
			}
			take := lost
			if take > d.Ships[t] {
				take = d.Ships[t]
			}
			d.Ships[t] -= take
			remaining[t] -= take
		}
		lc := now
		d.LastCombatTime = &lc
		if winner == combat.WinnerDefender {
			d.Victories++
		} else {
			d.Defeats++
		}
		if err := tx.UpdateFleet(d); err != nil {
			return err
		}
	}
	return nil
}

// lootPlanet moves up to half the planet's stocks into the attacker's
// free cargo space and unloads the haul at the attacker's base.
func (s *Simulator) lootPlanet(tx *store.Tx, f *universe.Fleet, planet *universe.Planet) error {
	space := f.Ships.CargoCapacity() - f.Cargo.Total()
	if space <= 0 {
		return nil
	}
	half := universe.Resources{
		Metal:     planet.Resources.Metal / 2,
		Crystal:   planet.Resources.Crystal / 2,
		Deuterium: planet.Resources.Deuterium / 2,
	}
	loot := harvest(&half, space)
	if loot.IsZero() {
		return nil
	}
	planet.Resources = universe.Resources{
		Metal:     planet.Resources.Metal - loot.Metal,
		Crystal:   planet.Resources.Crystal - loot.Crystal,
		Deuterium: planet.Resources.Deuterium - loot.Deuterium,
	}
	if err := tx.UpdatePlanet(planet); err != nil {
		return err
	}
	if f.OriginID != "" {
		base, err := tx.GetPlanet(f.OriginID)
		if err == nil {
			base.Resources = base.Resources.Add(loot)
			return tx.UpdatePlanet(base)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	return nil
}

// depositDebris adds salvage to the planet's debris field, creating it
// if none exists.
func (s *Simulator) depositDebris(tx *store.Tx, planetID string, debris universe.Resources, now time.Time) error {
	field, err := tx.DebrisByPlanet(planetID)
	if errors.Is(err, store.ErrNotFound) {
		field = &universe.DebrisField{
			ID:        uuid.New().String(),
			PlanetID:  planetID,
			Resources: debris,
			CreatedAt: now,
		}
		return tx.UpsertDebris(field)
	}
	if err != nil {
		return err
	}
	field.Resources = field.Resources.Add(debris)
	return tx.UpsertDebris(field)
}
