package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"galaxysim/internal/logging"
	"galaxysim/internal/store"
	"galaxysim/internal/travel"
	"galaxysim/internal/universe"
)

// DispatchOrder describes a requested fleet mission. Exactly one of
// TargetPlanetID and TargetCoord is used, depending on the mission:
// explore and colonize aim at coordinates, the rest at planets.
type DispatchOrder struct {
	FleetID     string
	Mission     universe.Mission
	TargetID    string
	TargetCoord universe.Coordinate
	Cargo       universe.Resources
}

// CreateFleet registers a new stationed fleet at the given planet. The
// owner is taken from the planet; creating fleets at foreign planets is
// rejected.
func (s *Simulator) CreateFleet(ctx context.Context, owner, name, planetID string, ships universe.ShipCounts) (*universe.Fleet, error) {
	if ships.Total() <= 0 {
		return nil, universe.Validationf("fleet needs at least one ship")
	}
	var fleet *universe.Fleet
	err := s.db.WithTx(ctx, func(tx *store.Tx) error {
		planet, err := tx.GetPlanet(planetID)
		if err != nil {
			return err
		}
		if planet.Owner != owner {
			return universe.Validationf("planet %s is not owned by %s", planetID, owner)
		}
		fleet = &universe.Fleet{
			ID:       uuid.New().String(),
			Owner:    owner,
			Name:     name,
			Ships:    ships.Clone(),
			Mission:  universe.MissionStationed,
			Status:   universe.Stationed(),
			OriginID: planet.ID,
		}
		return tx.InsertFleet(fleet)
	})
	if err != nil {
		return nil, err
	}
	return fleet, nil
}

// DispatchFleet validates and launches a mission. Validation failures
// come back as *universe.ValidationError and leave the fleet untouched.
// The occupancy check for colonize missions is optimistic only; the
// authoritative check happens again at arrival.
func (s *Simulator) DispatchFleet(ctx context.Context, order DispatchOrder) (*universe.Fleet, error) {
	log := logging.FromContext(ctx)
	var fleet *universe.Fleet
	err := s.db.WithTx(ctx, func(tx *store.Tx) error {
		f, err := tx.GetFleet(order.FleetID)
		if err != nil {
			return err
		}
		if f.Status.Kind != universe.StatusStationed {
			return universe.Validationf("fleet %s is %s, not stationed", f.ID, f.Status)
		}
		if f.Ships.Total() <= 0 {
			return universe.Validationf("fleet %s has no ships", f.ID)
		}
		origin, err := tx.GetPlanet(f.OriginID)
		if err != nil {
			return err
		}

		var dest universe.Coordinate
		switch order.Mission {
		case universe.MissionExplore, universe.MissionColonize:
			dest = order.TargetCoord
			f.TargetID = ""
		case universe.MissionAttack, universe.MissionTransport, universe.MissionDeploy, universe.MissionRecycle:
			target, err := tx.GetPlanet(order.TargetID)
			if errors.Is(err, store.ErrNotFound) {
				return universe.Validationf("target planet %s not found", order.TargetID)
			}
			if err != nil {
				return err
			}
			dest = target.Coord
			f.TargetID = target.ID
		default:
			return universe.Validationf("mission %q cannot be dispatched", order.Mission)
		}
		// Recycling its own orbit is a legal harvest-in-place trip;
		// every other mission must actually go somewhere.
		if dest == origin.Coord && order.Mission != universe.MissionRecycle {
			return universe.Validationf("fleet %s is already at %s", f.ID, dest)
		}

		if err := s.validateMission(tx, f, order, dest); err != nil {
			return err
		}

		if order.Mission == universe.MissionTransport {
			if order.Cargo.IsZero() {
				return universe.Validationf("transport needs cargo")
			}
			if err := loadCargo(tx, f, origin, order.Cargo); err != nil {
				return err
			}
		}

		duration := travel.TravelTime(origin.Coord, dest, f.Ships)
		now := s.now().UTC()
		departure := now
		arrival := now.Add(duration)
		f.Mission = order.Mission
		f.Status = missionStatus(order.Mission, dest)
		f.DepartureTime = &departure
		f.ArrivalTime = &arrival
		f.ETASeconds = int64(duration.Seconds())
		if err := tx.UpdateFleet(f); err != nil {
			return err
		}

		tick, err := tx.LastTick()
		if err != nil {
			return err
		}
		row := s.fleetEvent(universe.EventDispatch, f, tick, now,
			fmt.Sprintf("%s to %s, eta %ds", order.Mission, dest, f.ETASeconds))
		if err := tx.AppendJournal([]universe.JournalRow{row}); err != nil {
			return err
		}
		fleet = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("fleet dispatched", "fleet", fleet.ID, "mission", order.Mission, "eta_seconds", fleet.ETASeconds)
	return fleet, nil
}

// validateMission applies the per-mission preconditions.
func (s *Simulator) validateMission(tx *store.Tx, f *universe.Fleet, order DispatchOrder, dest universe.Coordinate) error {
	switch order.Mission {
	case universe.MissionColonize:
		if f.Ships[universe.ColonyShip] <= 0 {
			return universe.Validationf("colonization requires a colony ship")
		}
		existing, err := tx.PlanetByCoordinate(dest)
		if err == nil && existing.Owned() {
			return universe.Validationf("coordinates %s are already occupied", dest)
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	case universe.MissionRecycle:
		if f.Ships[universe.Recycler] <= 0 {
			return universe.Validationf("recycling requires a recycler")
		}
	case universe.MissionAttack:
		target, err := tx.GetPlanet(order.TargetID)
		if err != nil {
			return err
		}
		if target.Owner == f.Owner {
			return universe.Validationf("cannot attack own planet %s", target.ID)
		}
	}
	return nil
}

// loadCargo moves the requested amounts from the origin planet into the
// fleet's holds, bounded by stocks and cargo capacity.
func loadCargo(tx *store.Tx, f *universe.Fleet, origin *universe.Planet, cargo universe.Resources) error {
	if cargo.Metal < 0 || cargo.Crystal < 0 || cargo.Deuterium < 0 {
		return universe.Validationf("cargo amounts must be non-negative")
	}
	if cargo.Metal > origin.Resources.Metal ||
		cargo.Crystal > origin.Resources.Crystal ||
		cargo.Deuterium > origin.Resources.Deuterium {
		return universe.Validationf("planet %s lacks the requested cargo", origin.ID)
	}
	space := f.Ships.CargoCapacity() - f.Cargo.Total()
	if cargo.Total() > space {
		return universe.Validationf("cargo %d exceeds capacity %d", cargo.Total(), space)
	}
	origin.Resources = universe.Resources{
		Metal:     origin.Resources.Metal - cargo.Metal,
		Crystal:   origin.Resources.Crystal - cargo.Crystal,
		Deuterium: origin.Resources.Deuterium - cargo.Deuterium,
	}
	if err := tx.UpdatePlanet(origin); err != nil {
		return err
	}
	f.Cargo = f.Cargo.Add(cargo)
	return nil
}

// missionStatus maps a dispatched mission to its in-flight status.
func missionStatus(m universe.Mission, dest universe.Coordinate) universe.Status {
	switch m {
	case universe.MissionExplore:
		return universe.Exploring(dest)
	case universe.MissionColonize:
		return universe.Colonizing(dest)
	default:
		return universe.Traveling()
	}
}

// RecallFleet turns an in-flight fleet around early. The return leg
// takes double the remaining outbound time, covering the turn and the
// flight back.
func (s *Simulator) RecallFleet(ctx context.Context, fleetID string) (*universe.Fleet, error) {
	log := logging.FromContext(ctx)
	var fleet *universe.Fleet
	err := s.db.WithTx(ctx, func(tx *store.Tx) error {
		f, err := tx.GetFleet(fleetID)
		if err != nil {
			return err
		}
		if !f.Status.InFlight() || f.Status.Kind == universe.StatusReturning {
			return universe.Validationf("fleet %s is not outbound", f.ID)
		}
		now := s.now().UTC()
		remaining := time.Duration(0)
		if f.ArrivalTime != nil {
			remaining = f.ArrivalTime.Sub(now)
		}
		if remaining <= 0 {
			remaining = time.Second
		}
		s.sendReturning(f, now, 2*remaining)
		if err := tx.UpdateFleet(f); err != nil {
			return err
		}
		tick, err := tx.LastTick()
		if err != nil {
			return err
		}
		row := s.fleetEvent(universe.EventRecall, f, tick, now,
			fmt.Sprintf("return eta %ds", f.ETASeconds))
		if err := tx.AppendJournal([]universe.JournalRow{row}); err != nil {
			return err
		}
		fleet = f
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("fleet recalled", "fleet", fleet.ID, "eta_seconds", fleet.ETASeconds)
	return fleet, nil
}
