package sim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"galaxysim/internal/store"
	"galaxysim/internal/universe"
)

func TestColonizationRace(t *testing.T) {
	s, clock := newTestSim(t)
	target := universe.Coordinate{X: 0, Y: 0, Z: 0}

	// p1's home is closer to the target, so its fleet arrives first.
	first, err := s.DispatchFleet(context.Background(), DispatchOrder{
		FleetID:     ownedFleet(t, s, "p1").ID,
		Mission:     universe.MissionColonize,
		TargetCoord: target,
	})
	if err != nil {
		t.Fatalf("dispatch p1: %v", err)
	}
	second, err := s.DispatchFleet(context.Background(), DispatchOrder{
		FleetID:     ownedFleet(t, s, "p2").ID,
		Mission:     universe.MissionColonize,
		TargetCoord: target,
	})
	if err != nil {
		t.Fatalf("dispatch p2: %v", err)
	}
	if !first.ArrivalTime.Before(*second.ArrivalTime) {
		t.Fatalf("test setup: p1 must arrive first (%v vs %v)", first.ArrivalTime, second.ArrivalTime)
	}

	summary := runTo(t, s, clock, second.ArrivalTime)

	if n := countRows(summary.Rows, universe.EventColonizationSuccess); n != 1 {
		t.Errorf("colonization_success rows = %d, want 1", n)
	}
	if n := countRows(summary.Rows, universe.EventColonizationFailed); n != 1 {
		t.Errorf("colonization_failed rows = %d, want 1", n)
	}

	colony, err := s.db.PlanetByCoordinate(target)
	if err != nil {
		t.Fatalf("colony: %v", err)
	}
	if colony.Owner != "p1" {
		t.Errorf("colony owner = %q, want p1", colony.Owner)
	}

	winner, _ := s.db.GetFleet(first.ID)
	if winner.Status.Kind != universe.StatusStationed {
		t.Errorf("winner status = %v, want stationed", winner.Status)
	}
	if winner.OriginID != colony.ID {
		t.Errorf("winner origin = %q, want colony %q", winner.OriginID, colony.ID)
	}

	loser, _ := s.db.GetFleet(second.ID)
	if loser.Status.Kind != universe.StatusReturning {
		t.Errorf("loser status = %v, want returning", loser.Status)
	}
}

func TestColonizationClaimsChartedPlanet(t *testing.T) {
	s, clock := newTestSim(t)

	// An unowned, already-charted body at the target coordinates.
	charted := s.gen.NewPlanet(universe.Coordinate{X: 40, Y: 40, Z: 40}, 1)
	if err := s.db.InsertPlanet(charted); err != nil {
		t.Fatalf("insert: %v", err)
	}

	f, err := s.DispatchFleet(context.Background(), DispatchOrder{
		FleetID:     ownedFleet(t, s, "p1").ID,
		Mission:     universe.MissionColonize,
		TargetCoord: charted.Coord,
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	runTo(t, s, clock, f.ArrivalTime)

	claimed, err := s.db.GetPlanet(charted.ID)
	if err != nil {
		t.Fatalf("planet: %v", err)
	}
	if claimed.Owner != "p1" {
		t.Errorf("owner = %q, want p1", claimed.Owner)
	}
	if claimed.ColonizedAt == nil {
		t.Error("colonized_at not set")
	}
}

func TestExplorationGeneratesSystem(t *testing.T) {
	s, clock := newTestSim(t)
	target := universe.Coordinate{X: 7, Y: 7, Z: 7}

	f, err := s.DispatchFleet(context.Background(), DispatchOrder{
		FleetID:     ownedFleet(t, s, "p1").ID,
		Mission:     universe.MissionExplore,
		TargetCoord: target,
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	summary := runTo(t, s, clock, f.ArrivalTime)

	if n := countRows(summary.Rows, universe.EventExplorationComplete); n != 1 {
		t.Fatalf("exploration_complete rows = %d, want 1", n)
	}

	found := 0
	for dz := 0; dz < 3; dz++ {
		coord := universe.Coordinate{X: target.X, Y: target.Y, Z: target.Z + dz}
		p, err := s.db.PlanetByCoordinate(coord)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			t.Fatalf("lookup %s: %v", coord, err)
		}
		if p.Owned() {
			t.Errorf("generated planet %s has owner %q", coord, p.Owner)
		}
		found++
	}
	if found < 1 || found > 3 {
		t.Errorf("generated planets = %d, want 1..3", found)
	}

	back, _ := s.db.GetFleet(f.ID)
	if back.Status.Kind != universe.StatusReturning {
		t.Errorf("fleet status = %v, want returning", back.Status)
	}
}

func TestExplorationIsIdempotent(t *testing.T) {
	s, clock := newTestSim(t)
	target := universe.Coordinate{X: 7, Y: 7, Z: 7}

	for i := 0; i < 2; i++ {
		f, err := s.DispatchFleet(context.Background(), DispatchOrder{
			FleetID:     ownedFleet(t, s, "p1").ID,
			Mission:     universe.MissionExplore,
			TargetCoord: target,
		})
		if err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
		runTo(t, s, clock, f.ArrivalTime)
		// Bring the fleet home before the next trip.
		returned, _ := s.db.GetFleet(f.ID)
		runTo(t, s, clock, returned.ArrivalTime)
	}

	all, err := s.db.AllPlanets()
	if err != nil {
		t.Fatalf("planets: %v", err)
	}
	generated := 0
	for _, p := range all {
		if !p.HomePlanet {
			generated++
		}
	}
	if generated > 3 {
		t.Errorf("generated planets after repeat exploration = %d, want at most 3", generated)
	}
}

func TestTransportDeliveryAndReturn(t *testing.T) {
	s, clock := newTestSim(t)
	home := homePlanet(t, s, "p1")
	target := homePlanet(t, s, "p2")
	before := target.Resources

	f, err := s.DispatchFleet(context.Background(), DispatchOrder{
		FleetID:  ownedFleet(t, s, "p1").ID,
		Mission:  universe.MissionTransport,
		TargetID: target.ID,
		Cargo:    universe.Resources{Metal: 300, Deuterium: 50},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	summary := runTo(t, s, clock, f.ArrivalTime)
	if n := countRows(summary.Rows, universe.EventTransportDelivered); n != 1 {
		t.Errorf("transport_delivered rows = %d, want 1", n)
	}

	after, _ := s.db.GetPlanet(target.ID)
	if after.Resources.Metal < before.Metal+300 {
		t.Errorf("target metal = %d, want at least %d", after.Resources.Metal, before.Metal+300)
	}
	if after.Resources.Deuterium != before.Deuterium+50 {
		t.Errorf("target deuterium = %d, want %d", after.Resources.Deuterium, before.Deuterium+50)
	}

	mid, _ := s.db.GetFleet(f.ID)
	if mid.Status.Kind != universe.StatusReturning {
		t.Fatalf("status after delivery = %v, want returning", mid.Status)
	}
	if !mid.Cargo.IsZero() {
		t.Errorf("cargo after delivery = %+v, want empty", mid.Cargo)
	}

	runTo(t, s, clock, mid.ArrivalTime)
	done, _ := s.db.GetFleet(f.ID)
	if done.Status.Kind != universe.StatusStationed {
		t.Errorf("status after return = %v, want stationed", done.Status)
	}
	if done.OriginID != home.ID {
		t.Errorf("origin = %q, want %q", done.OriginID, home.ID)
	}
}

func TestRecycleHarvestsDebris(t *testing.T) {
	s, clock := newTestSim(t)
	home := homePlanet(t, s, "p1")
	site := homePlanet(t, s, "p2")

	field := &universe.DebrisField{
		ID:        uuid.New().String(),
		PlanetID:  site.ID,
		Resources: universe.Resources{Metal: 3000, Crystal: 1200},
		CreatedAt: s.now(),
	}
	if err := s.db.UpsertDebris(field); err != nil {
		t.Fatalf("debris: %v", err)
	}

	rec, err := s.CreateFleet(context.Background(), "p1", "salvage wing", home.ID,
		universe.ShipCounts{universe.Recycler: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	f, err := s.DispatchFleet(context.Background(), DispatchOrder{
		FleetID:  rec.ID,
		Mission:  universe.MissionRecycle,
		TargetID: site.ID,
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	summary := runTo(t, s, clock, f.ArrivalTime)
	if n := countRows(summary.Rows, universe.EventRecycleComplete); n != 1 {
		t.Errorf("recycle_complete rows = %d, want 1", n)
	}

	// The whole field fits in one recycler, so it is gone.
	if _, err := s.db.DebrisByPlanet(site.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("debris lookup err = %v, want ErrNotFound", err)
	}

	mid, _ := s.db.GetFleet(f.ID)
	if mid.Cargo.Metal != 3000 || mid.Cargo.Crystal != 1200 {
		t.Errorf("salvage cargo = %+v", mid.Cargo)
	}

	metalBefore := mustPlanet(t, s, home.ID).Resources.Metal
	runTo(t, s, clock, mid.ArrivalTime)
	after := mustPlanet(t, s, home.ID)
	if after.Resources.Metal < metalBefore+3000 {
		t.Errorf("home metal = %d, want at least %d", after.Resources.Metal, metalBefore+3000)
	}
	done, _ := s.db.GetFleet(f.ID)
	if !done.Cargo.IsZero() {
		t.Errorf("cargo after return = %+v, want empty", done.Cargo)
	}
}

func TestDeployRelocatesFleet(t *testing.T) {
	s, clock := newTestSim(t)
	home := homePlanet(t, s, "p1")

	colony := s.newColony(universe.Coordinate{X: 110, Y: 210, Z: 310}, "p1", s.now())
	if err := s.db.InsertPlanet(colony); err != nil {
		t.Fatalf("insert: %v", err)
	}

	f, err := s.DispatchFleet(context.Background(), DispatchOrder{
		FleetID:  ownedFleet(t, s, "p1").ID,
		Mission:  universe.MissionDeploy,
		TargetID: colony.ID,
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	summary := runTo(t, s, clock, f.ArrivalTime)
	if n := countRows(summary.Rows, universe.EventArrival); n != 1 {
		t.Errorf("arrival rows = %d, want 1", n)
	}

	moved, _ := s.db.GetFleet(f.ID)
	if moved.Status.Kind != universe.StatusStationed {
		t.Errorf("status = %v, want stationed", moved.Status)
	}
	if moved.OriginID != colony.ID {
		t.Errorf("origin = %q, want new base %q", moved.OriginID, colony.ID)
	}
	if moved.OriginID == home.ID {
		t.Error("fleet still based at the old planet")
	}
}

func TestReturnCompletionAtMissingOrigin(t *testing.T) {
	s, clock := newTestSim(t)
	f := ownedFleet(t, s, "p1")

	// Force a returning fleet whose origin row is gone.
	now := s.now()
	arrival := now.Add(time.Minute)
	f.OriginID = uuid.New().String()
	f.Mission = universe.MissionReturn
	f.Status = universe.Returning()
	f.DepartureTime = &now
	f.ArrivalTime = &arrival
	f.ETASeconds = 60
	f.Cargo = universe.Resources{Metal: 10}
	if err := s.db.UpdateFleet(f); err != nil {
		t.Fatalf("update: %v", err)
	}

	runTo(t, s, clock, f.ArrivalTime)
	done, _ := s.db.GetFleet(f.ID)
	if done.Status.Kind != universe.StatusStationed {
		t.Errorf("status = %v, want stationed", done.Status)
	}
}

func mustPlanet(t *testing.T, s *Simulator, id string) *universe.Planet {
	t.Helper()
	p, err := s.db.GetPlanet(id)
	if err != nil {
		t.Fatalf("planet %s: %v", id, err)
	}
	return p
}
