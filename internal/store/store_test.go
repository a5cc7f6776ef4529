package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"galaxysim/internal/universe"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testPlanet(id string, c universe.Coordinate) *universe.Planet {
	return &universe.Planet{
		ID:        id,
		Name:      "Test " + id,
		Owner:     "p1",
		Coord:     c,
		Resources: universe.Resources{Metal: 500, Crystal: 300, Deuterium: 100},
		MetalMine: 1, CrystalMine: 1, SolarPlant: 1,
		Bonus:                  universe.Bonus{Metal: 0.15},
		Traits:                 []string{"iron_rich_crust"},
		ColonizationDifficulty: 1,
	}
}

func TestPlanetRoundTrip(t *testing.T) {
	db := openTestDB(t)
	p := testPlanet("pl-1", universe.Coordinate{X: 1, Y: 2, Z: 3})
	now := time.Now().UTC().Truncate(time.Second)
	p.ColonizedAt = &now

	if err := db.InsertPlanet(p); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := db.GetPlanet("pl-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != p.Name || got.Owner != p.Owner || got.Coord != p.Coord {
		t.Errorf("got %+v", got)
	}
	if got.Resources != p.Resources {
		t.Errorf("resources = %+v, want %+v", got.Resources, p.Resources)
	}
	if got.Bonus.Metal != 0.15 || len(got.Traits) != 1 {
		t.Errorf("bonus/traits lost: %+v %v", got.Bonus, got.Traits)
	}
	if got.ColonizedAt == nil || !got.ColonizedAt.Equal(now) {
		t.Errorf("colonized_at = %v, want %v", got.ColonizedAt, now)
	}

	byCoord, err := db.PlanetByCoordinate(p.Coord)
	if err != nil || byCoord.ID != "pl-1" {
		t.Errorf("by coordinate: %v %v", byCoord, err)
	}
}

func TestPlanetNotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetPlanet("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := db.PlanetByCoordinate(universe.Coordinate{X: 9, Y: 9, Z: 9}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPlanetCoordinateUnique(t *testing.T) {
	db := openTestDB(t)
	c := universe.Coordinate{X: 5, Y: 5, Z: 5}
	if err := db.InsertPlanet(testPlanet("a", c)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := db.InsertPlanet(testPlanet("b", c)); err == nil {
		t.Errorf("duplicate coordinate insert succeeded")
	}
}

func TestUpdatePlanet(t *testing.T) {
	db := openTestDB(t)
	p := testPlanet("pl-u", universe.Coordinate{X: 7, Y: 0, Z: 0})
	if err := db.InsertPlanet(p); err != nil {
		t.Fatalf("insert: %v", err)
	}
	p.Owner = "p2"
	p.Resources.Metal = 9999
	if err := db.UpdatePlanet(p); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := db.GetPlanet("pl-u")
	if got.Owner != "p2" || got.Resources.Metal != 9999 {
		t.Errorf("update lost: %+v", got)
	}
}

func TestFleetRoundTrip(t *testing.T) {
	db := openTestDB(t)
	dep := time.Now().UTC().Truncate(time.Second)
	arr := dep.Add(time.Hour)
	f := &universe.Fleet{
		ID:    "fl-1",
		Owner: "p1",
		Name:  "strike group",
		Ships: universe.ShipCounts{universe.LightFighter: 10, universe.ColonyShip: 1},
		Mission:       universe.MissionColonize,
		Status:        universe.Colonizing(universe.Coordinate{X: 4, Y: 5, Z: 6}),
		OriginID:      "pl-1",
		Cargo:         universe.Resources{Metal: 100},
		DepartureTime: &dep,
		ArrivalTime:   &arr,
		ETASeconds:    3600,
	}
	if err := db.InsertFleet(f); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := db.GetFleet("fl-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status.Kind != universe.StatusColonizing {
		t.Errorf("status = %v", got.Status)
	}
	if got.Status.Target != (universe.Coordinate{X: 4, Y: 5, Z: 6}) {
		t.Errorf("target = %v", got.Status.Target)
	}
	if got.Ships[universe.LightFighter] != 10 {
		t.Errorf("ships = %v", got.Ships)
	}
	if got.ArrivalTime == nil || !got.ArrivalTime.Equal(arr) {
		t.Errorf("arrival = %v, want %v", got.ArrivalTime, arr)
	}
	if got.Cargo.Metal != 100 {
		t.Errorf("cargo = %+v", got.Cargo)
	}
}

func TestFleetInvalidStatusPreserved(t *testing.T) {
	db := openTestDB(t)
	f := &universe.Fleet{ID: "fl-bad", Owner: "p1", Ships: universe.ShipCounts{}, Mission: universe.MissionStationed, Status: universe.Stationed()}
	if err := db.InsertFleet(f); err != nil {
		t.Fatalf("insert: %v", err)
	}
	// Corrupt the stored status directly.
	if _, err := db.conn.Exec(`UPDATE fleets SET status = 'warping!?' WHERE id = 'fl-bad'`); err != nil {
		t.Fatalf("corrupt: %v", err)
	}

	got, err := db.GetFleet("fl-bad")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status.Kind != universe.StatusInvalid {
		t.Errorf("status kind = %v, want StatusInvalid", got.Status.Kind)
	}
	if got.RawStatus != "warping!?" {
		t.Errorf("raw status = %q", got.RawStatus)
	}

	// Writing the fleet back without repairing keeps the original text.
	if err := db.UpdateFleet(got); err != nil {
		t.Fatalf("update: %v", err)
	}
	again, _ := db.GetFleet("fl-bad")
	if again.RawStatus != "warping!?" {
		t.Errorf("raw status after rewrite = %q", again.RawStatus)
	}
}

func TestArrivedFleetsOrdering(t *testing.T) {
	db := openTestDB(t)
	now := time.Now().UTC()
	insert := func(id string, arrival time.Time) {
		a := arrival
		f := &universe.Fleet{
			ID: id, Owner: "p1", Ships: universe.ShipCounts{universe.SmallCargo: 1},
			Mission: universe.MissionDeploy, Status: universe.Traveling(),
			ArrivalTime: &a,
		}
		if err := db.InsertFleet(f); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	insert("late", now.Add(-time.Minute))
	insert("early", now.Add(-time.Hour))
	insert("future", now.Add(time.Hour))

	arrived, err := db.ArrivedFleets(now)
	if err != nil {
		t.Fatalf("arrived: %v", err)
	}
	if len(arrived) != 2 {
		t.Fatalf("arrived = %d fleets, want 2", len(arrived))
	}
	if arrived[0].ID != "early" || arrived[1].ID != "late" {
		t.Errorf("order = %s, %s", arrived[0].ID, arrived[1].ID)
	}
}

func TestStationedFleetsAt(t *testing.T) {
	db := openTestDB(t)
	mk := func(id, origin string, status universe.Status) {
		f := &universe.Fleet{ID: id, Owner: "p1", Ships: universe.ShipCounts{universe.SmallCargo: 1}, Mission: universe.MissionStationed, Status: status, OriginID: origin}
		if err := db.InsertFleet(f); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	mk("home-1", "pl-1", universe.Stationed())
	mk("home-2", "pl-1", universe.Stationed())
	mk("away", "pl-2", universe.Stationed())
	mk("flying", "pl-1", universe.Traveling())

	got, err := db.StationedFleetsAt("pl-1")
	if err != nil {
		t.Fatalf("stationed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("stationed = %d fleets, want 2", len(got))
	}
}

func TestDebrisLifecycle(t *testing.T) {
	db := openTestDB(t)
	d := &universe.DebrisField{
		ID: "db-1", PlanetID: "pl-1",
		Resources: universe.Resources{Metal: 900, Crystal: 300},
		CreatedAt: time.Now().UTC(),
	}
	if err := db.UpsertDebris(d); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := db.DebrisByPlanet("pl-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Resources.Metal != 900 {
		t.Errorf("metal = %d", got.Resources.Metal)
	}

	got.Resources.Metal = 100
	if err := db.UpsertDebris(got); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	again, _ := db.DebrisByPlanet("pl-1")
	if again.Resources.Metal != 100 {
		t.Errorf("metal after upsert = %d", again.Resources.Metal)
	}

	if err := db.DeleteDebris(got.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.DebrisByPlanet("pl-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
}

func TestCombatReportRoundTrip(t *testing.T) {
	db := openTestDB(t)
	r := &universe.CombatReport{
		ID:              "cr-1",
		AttackerFleetID: "fl-a",
		DefenderFleetID: "fl-d",
		PlanetID:        "pl-1",
		WinnerFleetID:   "fl-a",
		Rounds:          []universe.CombatRound{{Round: 1, AttackerFire: 100}},
		AttackerLosses:  universe.ShipCounts{},
		DefenderLosses:  universe.ShipCounts{universe.LightFighter: 3},
		Debris:          universe.Resources{Metal: 2700, Crystal: 900},
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.InsertCombatReport(r, "p1", "p2"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	for _, owner := range []string{"p1", "p2"} {
		reports, err := db.ReportsByParticipant(owner)
		if err != nil {
			t.Fatalf("reports for %s: %v", owner, err)
		}
		if len(reports) != 1 || reports[0].ID != "cr-1" {
			t.Errorf("reports for %s = %v", owner, reports)
		}
	}
	reports, _ := db.ReportsByParticipant("p3")
	if len(reports) != 0 {
		t.Errorf("uninvolved owner sees %d reports", len(reports))
	}

	got, _ := db.ReportsByParticipant("p1")
	if got[0].DefenderLosses[universe.LightFighter] != 3 {
		t.Errorf("losses = %v", got[0].DefenderLosses)
	}
	if len(got[0].Rounds) != 1 {
		t.Errorf("rounds = %v", got[0].Rounds)
	}
}

func TestLastTick(t *testing.T) {
	db := openTestDB(t)
	n, err := db.LastTick()
	if err != nil || n != 0 {
		t.Fatalf("initial last tick = %d, %v; want 0", n, err)
	}
	if err := db.SetLastTick(42); err != nil {
		t.Fatalf("set: %v", err)
	}
	n, _ = db.LastTick()
	if n != 42 {
		t.Errorf("last tick = %d, want 42", n)
	}
}

func TestMarkExploredIdempotent(t *testing.T) {
	db := openTestDB(t)
	c := universe.Coordinate{X: 1, Y: 1, Z: 1}
	now := time.Now().UTC()
	if err := db.MarkExplored("p1", c, now); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if err := db.MarkExplored("p1", c, now.Add(time.Hour)); err != nil {
		t.Errorf("second mark: %v", err)
	}
}

func TestJournalAppendAndRecent(t *testing.T) {
	db := openTestDB(t)
	rows := []universe.JournalRow{
		{Universe: "u1", Tick: 1, Kind: universe.EventResourceDelta, Owner: "p1", Metal: 3, Timestamp: time.Now().UTC()},
		{Universe: "u1", Tick: 1, Kind: universe.EventArrival, FleetID: "fl-1", Timestamp: time.Now().UTC()},
	}
	if err := db.AppendJournal(rows); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := db.RecentJournal(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("recent = %d rows, want 2", len(got))
	}
}

func TestWithTxRollback(t *testing.T) {
	db := openTestDB(t)
	boom := errors.New("boom")
	err := db.WithTx(context.Background(), func(tx *Tx) error {
		if err := tx.InsertPlanet(testPlanet("pl-tx", universe.Coordinate{X: 8, Y: 8, Z: 8})); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if _, err := db.GetPlanet("pl-tx"); !errors.Is(err, ErrNotFound) {
		t.Errorf("planet persisted across rollback: %v", err)
	}
}
