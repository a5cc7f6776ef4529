package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"galaxysim/internal/universe"
)

type reportRow struct {
	ID                 string `db:"id"`
	AttackerFleetID    string `db:"attacker_fleet_id"`
	DefenderFleetID    string `db:"defender_fleet_id"`
	AttackerOwner      string `db:"attacker_owner"`
	DefenderOwner      string `db:"defender_owner"`
	PlanetID           string `db:"planet_id"`
	WinnerFleetID      string `db:"winner_fleet_id"`
	RoundsJSON         string `db:"rounds_json"`
	AttackerLossesJSON string `db:"attacker_losses_json"`
	DefenderLossesJSON string `db:"defender_losses_json"`
	DebrisMetal        int64  `db:"debris_metal"`
	DebrisCrystal      int64  `db:"debris_crystal"`
	DebrisDeuterium    int64  `db:"debris_deuterium"`
	CreatedAt          int64  `db:"created_at"`
}

// InsertCombatReport appends an immutable battle record. attackerOwner
// and defenderOwner index the report for participant queries.
func (q querier) InsertCombatReport(r *universe.CombatReport, attackerOwner, defenderOwner string) error {
	rounds, err := json.Marshal(r.Rounds)
	if err != nil {
		return err
	}
	atkLosses, err := json.Marshal(r.AttackerLosses)
	if err != nil {
		return err
	}
	defLosses, err := json.Marshal(r.DefenderLosses)
	if err != nil {
		return err
	}
	_, err = sqlx.NamedExec(q.q, `INSERT INTO combat_reports
		(id, attacker_fleet_id, defender_fleet_id, attacker_owner, defender_owner,
		 planet_id, winner_fleet_id, rounds_json, attacker_losses_json,
		 defender_losses_json, debris_metal, debris_crystal, debris_deuterium, created_at)
		VALUES (:id, :attacker_fleet_id, :defender_fleet_id, :attacker_owner,
		 :defender_owner, :planet_id, :winner_fleet_id, :rounds_json,
		 :attacker_losses_json, :defender_losses_json, :debris_metal,
		 :debris_crystal, :debris_deuterium, :created_at)`, reportRow{
		ID:                 r.ID,
		AttackerFleetID:    r.AttackerFleetID,
		DefenderFleetID:    r.DefenderFleetID,
		AttackerOwner:      attackerOwner,
		DefenderOwner:      defenderOwner,
		PlanetID:           r.PlanetID,
		WinnerFleetID:      r.WinnerFleetID,
		RoundsJSON:         string(rounds),
		AttackerLossesJSON: string(atkLosses),
		DefenderLossesJSON: string(defLosses),
		DebrisMetal:        r.Debris.Metal,
		DebrisCrystal:      r.Debris.Crystal,
		DebrisDeuterium:    r.Debris.Deuterium,
		CreatedAt:          r.CreatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("insert combat report %s: %w", r.ID, err)
	}
	return nil
}

// ReportsByParticipant lists reports where the player attacked or
// defended, newest first.
func (q querier) ReportsByParticipant(owner string) ([]*universe.CombatReport, error) {
	var rows []reportRow
	err := sqlx.Select(q.q, &rows, `SELECT * FROM combat_reports
		WHERE attacker_owner = ? OR defender_owner = ?
		ORDER BY created_at DESC`, owner, owner)
	if err != nil {
		return nil, fmt.Errorf("select combat reports: %w", err)
	}
	reports := make([]*universe.CombatReport, 0, len(rows))
	for _, r := range rows {
		rep := &universe.CombatReport{
			ID:              r.ID,
			AttackerFleetID: r.AttackerFleetID,
			DefenderFleetID: r.DefenderFleetID,
			PlanetID:        r.PlanetID,
			WinnerFleetID:   r.WinnerFleetID,
			Debris: universe.Resources{
				Metal:     r.DebrisMetal,
				Crystal:   r.DebrisCrystal,
				Deuterium: r.DebrisDeuterium,
			},
			CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
		}
		if err := json.Unmarshal([]byte(r.RoundsJSON), &rep.Rounds); err != nil {
			return nil, fmt.Errorf("report %s rounds: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.AttackerLossesJSON), &rep.AttackerLosses); err != nil {
			return nil, fmt.Errorf("report %s attacker losses: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(r.DefenderLossesJSON), &rep.DefenderLosses); err != nil {
			return nil, fmt.Errorf("report %s defender losses: %w", r.ID, err)
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

type debrisRow struct {
	ID        string `db:"id"`
	PlanetID  string `db:"planet_id"`
	Metal     int64  `db:"metal"`
	Crystal   int64  `db:"crystal"`
	Deuterium int64  `db:"deuterium"`
	CreatedAt int64  `db:"created_at"`
}

func (r debrisRow) toDomain() *universe.DebrisField {
	return &universe.DebrisField{
		ID:       r.ID,
		PlanetID: r.PlanetID,
		Resources: universe.Resources{
			Metal:     r.Metal,
			Crystal:   r.Crystal,
			Deuterium: r.Deuterium,
		},
		CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
	}
}

// DebrisByPlanet returns the debris field at a planet, or ErrNotFound.
func (q querier) DebrisByPlanet(planetID string) (*universe.DebrisField, error) {
	var row debrisRow
	err := sqlx.Get(q.q, &row, `SELECT * FROM debris_fields WHERE planet_id = ?`, planetID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("debris at %s: %w", planetID, err)
	}
	return row.toDomain(), nil
}

// UpsertDebris creates or replaces the debris field record.
func (q querier) UpsertDebris(d *universe.DebrisField) error {
	_, err := sqlx.NamedExec(q.q, `INSERT OR REPLACE INTO debris_fields
		(id, planet_id, metal, crystal, deuterium, created_at)
		VALUES (:id, :planet_id, :metal, :crystal, :deuterium, :created_at)`, debrisRow{
		ID:        d.ID,
		PlanetID:  d.PlanetID,
		Metal:     d.Resources.Metal,
		Crystal:   d.Resources.Crystal,
		Deuterium: d.Resources.Deuterium,
		CreatedAt: d.CreatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("upsert debris %s: %w", d.ID, err)
	}
	return nil
}

// DeleteDebris removes a fully harvested field.
func (q querier) DeleteDebris(id string) error {
	if _, err := q.q.Exec(`DELETE FROM debris_fields WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete debris %s: %w", id, err)
	}
	return nil
}

type journalRow struct {
	Tick      int64  `db:"tick"`
	Kind      string `db:"kind"`
	PlanetID  string `db:"planet_id"`
	FleetID   string `db:"fleet_id"`
	Owner     string `db:"owner"`
	Metal     int64  `db:"metal"`
	Crystal   int64  `db:"crystal"`
	Deuterium int64  `db:"deuterium"`
	Details   string `db:"details"`
	TS        int64  `db:"ts"`
}

// AppendJournal writes tick journal rows. Append-only.
func (q querier) AppendJournal(rows []universe.JournalRow) error {
	for _, r := range rows {
		_, err := sqlx.NamedExec(q.q, `INSERT INTO tick_log
			(tick, kind, planet_id, fleet_id, owner, metal, crystal, deuterium, details, ts)
			VALUES (:tick, :kind, :planet_id, :fleet_id, :owner, :metal, :crystal,
			 :deuterium, :details, :ts)`, journalRow{
			Tick:      r.Tick,
			Kind:      string(r.Kind),
			PlanetID:  r.PlanetID,
			FleetID:   r.FleetID,
			Owner:     r.Owner,
			Metal:     r.Metal,
			Crystal:   r.Crystal,
			Deuterium: r.Deuterium,
			Details:   r.Details,
			TS:        r.Timestamp.Unix(),
		})
		if err != nil {
			return fmt.Errorf("append journal: %w", err)
		}
	}
	return nil
}

// RecentJournal returns the newest journal rows, newest first.
func (q querier) RecentJournal(limit int) ([]universe.JournalRow, error) {
	var rows []journalRow
	err := sqlx.Select(q.q, &rows, `SELECT tick, kind, planet_id, fleet_id, owner,
		metal, crystal, deuterium, details, ts
		FROM tick_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent journal: %w", err)
	}
	out := make([]universe.JournalRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, universe.JournalRow{
			Tick:      r.Tick,
			Kind:      universe.EventKind(r.Kind),
			PlanetID:  r.PlanetID,
			FleetID:   r.FleetID,
			Owner:     r.Owner,
			Metal:     r.Metal,
			Crystal:   r.Crystal,
			Deuterium: r.Deuterium,
			Details:   r.Details,
			Timestamp: time.Unix(r.TS, 0).UTC(),
		})
	}
	return out, nil
}

// MarkExplored records that a player has explored the system at c.
func (q querier) MarkExplored(owner string, c universe.Coordinate, at time.Time) error {
	_, err := q.q.Exec(`INSERT OR IGNORE INTO explored_systems
		(owner, x, y, z, explored_at) VALUES (?, ?, ?, ?, ?)`,
		owner, c.X, c.Y, c.Z, at.Unix())
	if err != nil {
		return fmt.Errorf("mark explored: %w", err)
	}
	return nil
}

// LastTick returns the last completed tick number, 0 for a fresh store.
func (q querier) LastTick() (int64, error) {
	var value string
	err := sqlx.Get(q.q, &value, `SELECT value FROM meta WHERE key = 'last_tick'`)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("last tick: %w", err)
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("last tick value %q: %w", value, err)
	}
	return n, nil
}

// SetLastTick records the completed tick number.
func (q querier) SetLastTick(n int64) error {
	_, err := q.q.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('last_tick', ?)`,
		strconv.FormatInt(n, 10))
	if err != nil {
		return fmt.Errorf("set last tick: %w", err)
	}
	return nil
}
