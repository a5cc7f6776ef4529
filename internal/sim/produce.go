package sim

import (
	"time"

	"galaxysim/internal/economy"
	"galaxysim/internal/store"
	"galaxysim/internal/universe"
)

// producePass runs the resource ledger over every planet. Owned or not,
// a planet with working structures accrues stock; one journal row is
// emitted per planet with a non-zero delta.
func (s *Simulator) producePass(tx *store.Tx, tick int64, now time.Time) ([]universe.JournalRow, error) {
	planets, err := tx.AllPlanets()
	if err != nil {
		return nil, err
	}
	var rows []universe.JournalRow
	for _, p := range planets {
		delta := economy.Produce(p, s.cfg.TickHourDivisor)
		if delta.IsZero() {
			continue
		}
		if err := tx.UpdatePlanet(p); err != nil {
			return nil, err
		}
		rows = append(rows, universe.JournalRow{
			Universe:  s.cfg.Universe,
			Tick:      tick,
			Kind:      universe.EventResourceDelta,
			PlanetID:  p.ID,
			Owner:     p.Owner,
			Metal:     delta.Metal,
			Crystal:   delta.Crystal,
			Deuterium: delta.Deuterium,
			Timestamp: now,
		})
	}
	return rows, nil
}
