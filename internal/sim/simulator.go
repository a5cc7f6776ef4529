// Simulator orchestrating the universe tick pipeline
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"galaxysim/internal/config"
	"galaxysim/internal/logging"
	"galaxysim/internal/store"
	"galaxysim/internal/traits"
	"galaxysim/internal/universe"
)

// JournalWriter receives tick journal rows after a tick commits.
type JournalWriter interface {
	Write(universe.JournalRow) error
}

// Optional: writers can also support batch mode
type batchJournalWriter interface {
	WriteBatch([]universe.JournalRow) error
}

// Simulator drives the tick pipeline over the persistent universe.
// It holds no simulation state of its own; everything lives in the store.
type Simulator struct {
	cfg    *config.Config
	db     *store.DB
	writer JournalWriter
	gen    *universe.Generator
	rng    *rand.Rand
	now    func() time.Time
	mu     sync.Mutex
}

// NewSimulator wires the pipeline. writer may be nil to skip journal
// output beyond the store's tick_log.
func NewSimulator(cfg *config.Config, db *store.DB, writer JournalWriter) *Simulator {
	return &Simulator{
		cfg:    cfg,
		db:     db,
		writer: writer,
		gen:    universe.NewGenerator(cfg.Seed),
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		now:    time.Now,
	}
}

// Run starts the tick loop and stops when the context is done. A failed
// tick is logged and retried on the next interval; it never crashes the
// loop.
func (s *Simulator) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "universe", s.cfg.Universe, "tick_interval", s.cfg.TickInterval())
	ticker := time.NewTicker(s.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.RunTick(ctx); err != nil {
				log.Error("tick failed", "err", err)
			}
		case <-ctx.Done():
			log.Info("stopping simulator")
			return
		}
	}
}

// RunTick executes one full pipeline pass: resource production, mission
// completion, travel guard, journal write. The whole pass runs in one
// transaction; on error nothing of the tick is observable and the next
// tick retries from the last durable state. Safe to call manually.
func (s *Simulator) RunTick(ctx context.Context) (universe.TickSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	var summary universe.TickSummary

	err := s.db.WithTx(ctx, func(tx *store.Tx) error {
		last, err := tx.LastTick()
		if err != nil {
			return err
		}
		tick := last + 1
		summary.Tick = tick

		rows, err := s.producePass(tx, tick, now)
		if err != nil {
			return err
		}
		summary.ResourceChanges = len(rows)

		fleetRows, err := s.missionPass(ctx, tx, tick, now)
		if err != nil {
			return err
		}
		summary.FleetEvents = len(fleetRows)
		rows = append(rows, fleetRows...)

		guardRows, err := s.guardPass(ctx, tx, tick, now)
		if err != nil {
			return err
		}
		summary.GuardRepairs = len(guardRows)
		rows = append(rows, guardRows...)

		if err := tx.AppendJournal(rows); err != nil {
			return err
		}
		if err := tx.SetLastTick(tick); err != nil {
			return err
		}
		summary.Rows = rows
		return nil
	})
	if err != nil {
		return universe.TickSummary{}, fmt.Errorf("tick: %w", err)
	}

	s.emit(ctx, summary.Rows)
	return summary, nil
}

// emit fans committed journal rows out to the configured writer.
func (s *Simulator) emit(ctx context.Context, rows []universe.JournalRow) {
	if s.writer == nil || len(rows) == 0 {
		return
	}
	log := logging.FromContext(ctx)
	if bw, ok := s.writer.(batchJournalWriter); ok {
		if err := bw.WriteBatch(rows); err != nil {
			log.Error("journal batch write failed", "err", err)
		}
		return
	}
	for _, row := range rows {
		if err := s.writer.Write(row); err != nil {
			log.Error("journal write failed", "kind", row.Kind, "err", err)
		}
	}
}

// EnsureSeeded creates the configured home planets (and a starter fleet
// per player) when the store is empty. Idempotent.
func (s *Simulator) EnsureSeeded(ctx context.Context) error {
	log := logging.FromContext(ctx)
	return s.db.WithTx(ctx, func(tx *store.Tx) error {
		n, err := tx.CountPlanets()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		now := s.now().UTC()
		for _, seed := range s.cfg.Players {
			coord, err := universe.ParseCoordinate(seed.Home)
			if err != nil {
				return fmt.Errorf("seed player %q: %w", seed.Name, err)
			}
			p := s.newColony(coord, seed.ID, now)
			p.Name = seed.Name + " Prime"
			p.HomePlanet = true
			if err := tx.InsertPlanet(p); err != nil {
				return err
			}
			fleet := &universe.Fleet{
				ID:    uuid.New().String(),
				Owner: seed.ID,
				Name:  seed.Name + " expedition",
				Ships: universe.ShipCounts{
					universe.SmallCargo:   2,
					universe.LightFighter: 10,
					universe.ColonyShip:   1,
				},
				Mission:  universe.MissionStationed,
				Status:   universe.Stationed(),
				OriginID: p.ID,
			}
			if err := tx.InsertFleet(fleet); err != nil {
				return err
			}
			log.Info("seeded home planet", "player", seed.Name, "coord", coord.String())
		}
		return nil
	})
}

// newColony builds an owned planet at c with the configured starting
// stocks and structures, freshly drawn traits, and a distance-derived
// colonization difficulty.
func (s *Simulator) newColony(c universe.Coordinate, owner string, now time.Time) *universe.Planet {
	colonizedAt := now
	p := &universe.Planet{
		ID:    uuid.New().String(),
		Name:  fmt.Sprintf("Colony %s", c),
		Owner: owner,
		Coord: c,
		Resources: universe.Resources{
			Metal:     s.cfg.Starting.Metal,
			Crystal:   s.cfg.Starting.Crystal,
			Deuterium: s.cfg.Starting.Deuterium,
		},
		MetalMine:              s.cfg.Starting.MetalMine,
		CrystalMine:            s.cfg.Starting.CrystalMine,
		DeuteriumSynthesizer:   s.cfg.Starting.DeuteriumSynthesizer,
		SolarPlant:             s.cfg.Starting.SolarPlant,
		ColonizationDifficulty: traits.ColonizationDifficulty(c),
		ColonizedAt:            &colonizedAt,
	}
	traits.Assign(p, s.rng)
	return p
}

// resetToColony turns an existing unowned planet into owner's colony,
// replacing stocks and structures with the starting values.
func (s *Simulator) resetToColony(p *universe.Planet, owner string, now time.Time) {
	colonizedAt := now
	p.Owner = owner
	p.Resources = universe.Resources{
		Metal:     s.cfg.Starting.Metal,
		Crystal:   s.cfg.Starting.Crystal,
		Deuterium: s.cfg.Starting.Deuterium,
	}
	p.MetalMine = s.cfg.Starting.MetalMine
	p.CrystalMine = s.cfg.Starting.CrystalMine
	p.DeuteriumSynthesizer = s.cfg.Starting.DeuteriumSynthesizer
	p.SolarPlant = s.cfg.Starting.SolarPlant
	p.FusionReactor = 0
	p.ResearchLab = 0
	p.ColonizedAt = &colonizedAt
	if len(p.Traits) == 0 {
		traits.Assign(p, s.rng)
	}
}

// DB exposes the underlying store for read-only admin queries.
func (s *Simulator) DB() *store.DB { return s.db }

// Config returns the simulator configuration.
func (s *Simulator) Config() *config.Config { return s.cfg }
