// Package store provides SQLite-backed persistence for the universe.
// Every entity is read-modify-written inside a transaction, which is the
// atomicity guarantee the tick pipeline and the colonization arbitration
// depend on.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// querier runs queries against either the pool or an open transaction.
type querier struct {
	q sqlx.Ext
}

// DB wraps the SQLite pool.
type DB struct {
	conn *sqlx.DB
	querier
}

// Tx is an open transaction exposing the same query surface as DB.
type Tx struct {
	tx *sqlx.Tx
	querier
}

// Open opens or creates the database at path. Use ":memory:" in tests.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db := &DB{conn: conn, querier: querier{q: conn}}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// WithTx runs fn inside a transaction. Any error rolls the whole unit
// back; this is what makes a failing tick leave no partial effects.
func (db *DB) WithTx(ctx context.Context, fn func(*Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	t := &Tx{tx: tx, querier: querier{q: tx}}
	if err := fn(t); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS planets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner TEXT NOT NULL DEFAULT '',
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		z INTEGER NOT NULL,
		metal INTEGER NOT NULL DEFAULT 0,
		crystal INTEGER NOT NULL DEFAULT 0,
		deuterium INTEGER NOT NULL DEFAULT 0,
		metal_mine INTEGER NOT NULL DEFAULT 0,
		crystal_mine INTEGER NOT NULL DEFAULT 0,
		deuterium_synthesizer INTEGER NOT NULL DEFAULT 0,
		solar_plant INTEGER NOT NULL DEFAULT 0,
		fusion_reactor INTEGER NOT NULL DEFAULT 0,
		research_lab INTEGER NOT NULL DEFAULT 0,
		bonus_json TEXT NOT NULL DEFAULT '{}',
		traits_json TEXT NOT NULL DEFAULT '[]',
		colonization_difficulty INTEGER NOT NULL DEFAULT 1,
		home_planet INTEGER NOT NULL DEFAULT 0,
		colonized_at INTEGER,
		UNIQUE (x, y, z)
	);

	CREATE TABLE IF NOT EXISTS fleets (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		ships_json TEXT NOT NULL DEFAULT '{}',
		mission TEXT NOT NULL DEFAULT 'stationed',
		status TEXT NOT NULL DEFAULT 'stationed',
		origin_id TEXT NOT NULL DEFAULT '',
		target_id TEXT NOT NULL DEFAULT '',
		cargo_json TEXT NOT NULL DEFAULT '{}',
		departure_time INTEGER,
		arrival_time INTEGER,
		eta_seconds INTEGER NOT NULL DEFAULT 0,
		victories INTEGER NOT NULL DEFAULT 0,
		defeats INTEGER NOT NULL DEFAULT 0,
		experience INTEGER NOT NULL DEFAULT 0,
		last_combat_time INTEGER
	);

	CREATE TABLE IF NOT EXISTS combat_reports (
		id TEXT PRIMARY KEY,
		attacker_fleet_id TEXT NOT NULL,
		defender_fleet_id TEXT NOT NULL DEFAULT '',
		attacker_owner TEXT NOT NULL DEFAULT '',
		defender_owner TEXT NOT NULL DEFAULT '',
		planet_id TEXT NOT NULL,
		winner_fleet_id TEXT NOT NULL DEFAULT '',
		rounds_json TEXT NOT NULL DEFAULT '[]',
		attacker_losses_json TEXT NOT NULL DEFAULT '{}',
		defender_losses_json TEXT NOT NULL DEFAULT '{}',
		debris_metal INTEGER NOT NULL DEFAULT 0,
		debris_crystal INTEGER NOT NULL DEFAULT 0,
		debris_deuterium INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS debris_fields (
		id TEXT PRIMARY KEY,
		planet_id TEXT NOT NULL,
		metal INTEGER NOT NULL DEFAULT 0,
		crystal INTEGER NOT NULL DEFAULT 0,
		deuterium INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tick_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		kind TEXT NOT NULL,
		planet_id TEXT NOT NULL DEFAULT '',
		fleet_id TEXT NOT NULL DEFAULT '',
		owner TEXT NOT NULL DEFAULT '',
		metal INTEGER NOT NULL DEFAULT 0,
		crystal INTEGER NOT NULL DEFAULT 0,
		deuterium INTEGER NOT NULL DEFAULT 0,
		details TEXT NOT NULL DEFAULT '',
		ts INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS explored_systems (
		owner TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		z INTEGER NOT NULL,
		explored_at INTEGER NOT NULL,
		PRIMARY KEY (owner, x, y, z)
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_planets_owner ON planets(owner);
	CREATE INDEX IF NOT EXISTS idx_fleets_owner ON fleets(owner);
	CREATE INDEX IF NOT EXISTS idx_fleets_arrival ON fleets(arrival_time);
	CREATE INDEX IF NOT EXISTS idx_reports_attacker ON combat_reports(attacker_owner);
	CREATE INDEX IF NOT EXISTS idx_reports_defender ON combat_reports(defender_owner);
	CREATE INDEX IF NOT EXISTS idx_debris_planet ON debris_fields(planet_id);
	CREATE INDEX IF NOT EXISTS idx_tick_log_tick ON tick_log(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}
