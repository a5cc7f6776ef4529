package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"galaxysim/internal/logging"
	"galaxysim/internal/store"
	"galaxysim/internal/traits"
	"galaxysim/internal/universe"
)

// missionPass drives the fleet state machine for every fleet whose
// arrival time has elapsed. Validation failures station the fleet and
// are journaled, never raised; only store errors abort the tick.
func (s *Simulator) missionPass(ctx context.Context, tx *store.Tx, tick int64, now time.Time) ([]universe.JournalRow, error) {
	arrived, err := tx.ArrivedFleets(now)
	if err != nil {
		return nil, err
	}
	var rows []universe.JournalRow
	for _, f := range arrived {
		if !f.Status.InFlight() {
			continue
		}
		fleetRows, err := s.completeArrival(ctx, tx, f, tick, now)
		if err != nil {
			return nil, err
		}
		rows = append(rows, fleetRows...)
	}
	return rows, nil
}

// completeArrival applies the terminal transition for one arrived fleet.
func (s *Simulator) completeArrival(ctx context.Context, tx *store.Tx, f *universe.Fleet, tick int64, now time.Time) ([]universe.JournalRow, error) {
	switch f.Status.Kind {
	case universe.StatusColonizing:
		return s.completeColonize(ctx, tx, f, tick, now)
	case universe.StatusExploring:
		return s.completeExplore(ctx, tx, f, tick, now)
	case universe.StatusReturning:
		return s.completeReturn(tx, f, tick, now)
	case universe.StatusTraveling:
		switch f.Mission {
		case universe.MissionAttack:
			return s.resolveAttack(ctx, tx, f, tick, now)
		case universe.MissionRecycle:
			return s.completeRecycle(tx, f, tick, now)
		case universe.MissionTransport:
			return s.completeTransport(ctx, tx, f, tick, now)
		default:
			return s.completeArrive(tx, f, tick, now)
		}
	}
	return nil, nil
}

// completeArrive handles the plain traveling→stationed transition: the
// fleet is now based at its target. Carried cargo is unloaded there.
func (s *Simulator) completeArrive(tx *store.Tx, f *universe.Fleet, tick int64, now time.Time) ([]universe.JournalRow, error) {
	if f.TargetID != "" {
		if !f.Cargo.IsZero() {
			planet, err := tx.GetPlanet(f.TargetID)
			if err == nil {
				planet.Resources = planet.Resources.Add(f.Cargo)
				if err := tx.UpdatePlanet(planet); err != nil {
					return nil, err
				}
				f.Cargo = universe.Resources{}
			} else if !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
		}
		f.OriginID = f.TargetID
	}
	s.station(f)
	if err := tx.UpdateFleet(f); err != nil {
		return nil, err
	}
	return []universe.JournalRow{s.fleetEvent(universe.EventArrival, f, tick, now, "")}, nil
}

// completeReturn handles returning→stationed: the fleet is back at its
// origin with its target reset, unloading any salvage or leftover cargo.
func (s *Simulator) completeReturn(tx *store.Tx, f *universe.Fleet, tick int64, now time.Time) ([]universe.JournalRow, error) {
	if !f.Cargo.IsZero() && f.OriginID != "" {
		planet, err := tx.GetPlanet(f.OriginID)
		if err == nil {
			planet.Resources = planet.Resources.Add(f.Cargo)
			if err := tx.UpdatePlanet(planet); err != nil {
				return nil, err
			}
			f.Cargo = universe.Resources{}
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	f.TargetID = f.OriginID
	s.station(f)
	if err := tx.UpdateFleet(f); err != nil {
		return nil, err
	}
	return []universe.JournalRow{s.fleetEvent(universe.EventReturn, f, tick, now, "")}, nil
}

// completeColonize re-validates occupancy at arrival time. The check at
// dispatch was only optimistic; by now another fleet may have settled
// the same coordinates, in which case this fleet turns around.
func (s *Simulator) completeColonize(ctx context.Context, tx *store.Tx, f *universe.Fleet, tick int64, now time.Time) ([]universe.JournalRow, error) {
	log := logging.FromContext(ctx)
	target := f.Status.Target

	fail := func(cause string) ([]universe.JournalRow, error) {
		log.Info("colonization failed", "fleet", f.ID, "coord", target.String(), "cause", cause)
		s.sendReturning(f, now, s.flightDuration(f))
		if err := tx.UpdateFleet(f); err != nil {
			return nil, err
		}
		return []universe.JournalRow{s.fleetEvent(universe.EventColonizationFailed, f, tick, now, cause)}, nil
	}

	if f.Ships[universe.ColonyShip] <= 0 {
		return fail("no colony ship")
	}

	existing, err := tx.PlanetByCoordinate(target)
	switch {
	case err == nil && existing.Owned():
		return fail("coordinates occupied")
	case err == nil:
		// Unowned body already charted here: claim it.
		s.resetToColony(existing, f.Owner, now)
		if err := tx.UpdatePlanet(existing); err != nil {
			return nil, err
		}
		f.OriginID = existing.ID
		f.TargetID = existing.ID
	case errors.Is(err, store.ErrNotFound):
		colony := s.newColony(target, f.Owner, now)
		if err := tx.InsertPlanet(colony); err != nil {
			return nil, err
		}
		f.OriginID = colony.ID
		f.TargetID = colony.ID
	default:
		return nil, err
	}

	s.station(f)
	if err := tx.UpdateFleet(f); err != nil {
		return nil, err
	}
	log.Info("colonization success", "fleet", f.ID, "owner", f.Owner, "coord", target.String())
	row := s.fleetEvent(universe.EventColonizationSuccess, f, tick, now, target.String())
	row.PlanetID = f.OriginID
	return []universe.JournalRow{row}, nil
}

// completeExplore idempotently populates the system at the target
// coordinates with 1-3 generated, unowned planets, then turns the fleet
// around. Generation is skipped entirely when the system is charted.
func (s *Simulator) completeExplore(ctx context.Context, tx *store.Tx, f *universe.Fleet, tick int64, now time.Time) ([]universe.JournalRow, error) {
	log := logging.FromContext(ctx)
	target := f.Status.Target

	generated := 0
	_, err := tx.PlanetByCoordinate(target)
	if errors.Is(err, store.ErrNotFound) {
		count := s.gen.SystemSize(target)
		for i := 0; i < count; i++ {
			coord := universe.Coordinate{X: target.X, Y: target.Y, Z: target.Z + i}
			if _, err := tx.PlanetByCoordinate(coord); err == nil {
				continue
			} else if !errors.Is(err, store.ErrNotFound) {
				return nil, err
			}
			planet := s.gen.NewPlanet(coord, traits.ColonizationDifficulty(coord))
			if err := tx.InsertPlanet(planet); err != nil {
				return nil, err
			}
			generated++
		}
	} else if err != nil {
		return nil, err
	}

	if err := tx.MarkExplored(f.Owner, target, now); err != nil {
		return nil, err
	}

	s.sendReturning(f, now, s.flightDuration(f))
	if err := tx.UpdateFleet(f); err != nil {
		return nil, err
	}
	log.Info("exploration complete", "fleet", f.ID, "coord", target.String(), "generated", generated)
	return []universe.JournalRow{s.fleetEvent(universe.EventExplorationComplete, f, tick, now,
		fmt.Sprintf("generated %d planets at %s", generated, target))}, nil
}

// completeRecycle harvests debris at the target planet up to the
// fleet's recycler capacity, then heads home.
func (s *Simulator) completeRecycle(tx *store.Tx, f *universe.Fleet, tick int64, now time.Time) ([]universe.JournalRow, error) {
	harvested := universe.Resources{}
	if f.TargetID != "" {
		field, err := tx.DebrisByPlanet(f.TargetID)
		switch {
		case err == nil:
			capacity := f.Ships.RecycleCapacity() - f.Cargo.Total()
			harvested = harvest(&field.Resources, capacity)
			f.Cargo = f.Cargo.Add(harvested)
			if field.Resources.IsZero() {
				if err := tx.DeleteDebris(field.ID); err != nil {
					return nil, err
				}
			} else if err := tx.UpsertDebris(field); err != nil {
				return nil, err
			}
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}

	s.sendReturning(f, now, s.flightDuration(f))
	if err := tx.UpdateFleet(f); err != nil {
		return nil, err
	}
	row := s.fleetEvent(universe.EventRecycleComplete, f, tick, now, "")
	row.PlanetID = f.TargetID
	row.Metal, row.Crystal, row.Deuterium = harvested.Metal, harvested.Crystal, harvested.Deuterium
	return []universe.JournalRow{row}, nil
}

// harvest takes up to capacity units out of the field, metal first.
func harvest(field *universe.Resources, capacity int64) universe.Resources {
	if capacity <= 0 {
		return universe.Resources{}
	}
	take := func(stock *int64) int64 {
		amount := *stock
		if amount > capacity {
			amount = capacity
		}
		*stock -= amount
		capacity -= amount
		return amount
	}
	return universe.Resources{
		Metal:     take(&field.Metal),
		Crystal:   take(&field.Crystal),
		Deuterium: take(&field.Deuterium),
	}
}

// completeTransport unloads the fleet's cargo at the target planet and
// sends it home. A vanished target stations the fleet instead of
// raising; the cargo rides back with it.
func (s *Simulator) completeTransport(ctx context.Context, tx *store.Tx, f *universe.Fleet, tick int64, now time.Time) ([]universe.JournalRow, error) {
	log := logging.FromContext(ctx)
	planet, err := tx.GetPlanet(f.TargetID)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("transport target missing", "fleet", f.ID, "target", f.TargetID)
		s.station(f)
		if err := tx.UpdateFleet(f); err != nil {
			return nil, err
		}
		return []universe.JournalRow{s.fleetEvent(universe.EventArrival, f, tick, now, "transport target missing")}, nil
	}
	if err != nil {
		return nil, err
	}

	delivered := f.Cargo
	planet.Resources = planet.Resources.Add(delivered)
	if err := tx.UpdatePlanet(planet); err != nil {
		return nil, err
	}
	f.Cargo = universe.Resources{}

	s.sendReturning(f, now, s.flightDuration(f))
	if err := tx.UpdateFleet(f); err != nil {
		return nil, err
	}
	row := s.fleetEvent(universe.EventTransportDelivered, f, tick, now, "")
	row.PlanetID = planet.ID
	row.Metal, row.Crystal, row.Deuterium = delivered.Metal, delivered.Crystal, delivered.Deuterium
	return []universe.JournalRow{row}, nil
}

// station puts a fleet into the terminal idle state.
func (s *Simulator) station(f *universe.Fleet) {
	f.Status = universe.Stationed()
	f.Mission = universe.MissionStationed
	f.DepartureTime = nil
	f.ArrivalTime = nil
	f.ETASeconds = 0
}

// sendReturning turns a fleet around, reusing the given duration as the
// return leg.
func (s *Simulator) sendReturning(f *universe.Fleet, now time.Time, duration time.Duration) {
	if duration <= 0 {
		duration = time.Second
	}
	departure := now
	arrival := now.Add(duration)
	f.Status = universe.Returning()
	f.Mission = universe.MissionReturn
	f.DepartureTime = &departure
	f.ArrivalTime = &arrival
	f.ETASeconds = int64(duration.Seconds())
}

// flightDuration reconstructs the one-way duration of the leg that just
// completed, falling back to the recorded ETA.
func (s *Simulator) flightDuration(f *universe.Fleet) time.Duration {
	if f.DepartureTime != nil && f.ArrivalTime != nil {
		if d := f.ArrivalTime.Sub(*f.DepartureTime); d > 0 {
			return d
		}
	}
	return time.Duration(f.ETASeconds) * time.Second
}

// fleetEvent builds a journal row for a fleet transition.
func (s *Simulator) fleetEvent(kind universe.EventKind, f *universe.Fleet, tick int64, now time.Time, details string) universe.JournalRow {
	return universe.JournalRow{
		Universe:  s.cfg.Universe,
		Tick:      tick,
		Kind:      kind,
		FleetID:   f.ID,
		Owner:     f.Owner,
		Details:   details,
		Timestamp: now,
	}
}
