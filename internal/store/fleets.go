package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"galaxysim/internal/universe"
)

const fleetColumns = `id, owner, name, ships_json, mission, status, origin_id,
	target_id, cargo_json, departure_time, arrival_time, eta_seconds,
	victories, defeats, experience, last_combat_time`

// InsertFleet creates a fleet record.
func (q querier) InsertFleet(f *universe.Fleet) error {
	row, err := fleetToRow(f)
	if err != nil {
		return err
	}
	_, err = sqlx.NamedExec(q.q, `INSERT INTO fleets (`+fleetColumns+`)
		VALUES (:id, :owner, :name, :ships_json, :mission, :status, :origin_id,
			:target_id, :cargo_json, :departure_time, :arrival_time, :eta_seconds,
			:victories, :defeats, :experience, :last_combat_time)`, row)
	if err != nil {
		return fmt.Errorf("insert fleet %s: %w", f.ID, err)
	}
	return nil
}

// UpdateFleet writes all mutable fleet fields.
func (q querier) UpdateFleet(f *universe.Fleet) error {
	row, err := fleetToRow(f)
	if err != nil {
		return err
	}
	_, err = sqlx.NamedExec(q.q, `UPDATE fleets SET
		owner = :owner, name = :name, ships_json = :ships_json,
		mission = :mission, status = :status, origin_id = :origin_id,
		target_id = :target_id, cargo_json = :cargo_json,
		departure_time = :departure_time, arrival_time = :arrival_time,
		eta_seconds = :eta_seconds, victories = :victories,
		defeats = :defeats, experience = :experience,
		last_combat_time = :last_combat_time
		WHERE id = :id`, row)
	if err != nil {
		return fmt.Errorf("update fleet %s: %w", f.ID, err)
	}
	return nil
}

// GetFleet fetches a fleet by id.
func (q querier) GetFleet(id string) (*universe.Fleet, error) {
	var row fleetRow
	err := sqlx.Get(q.q, &row, `SELECT `+fleetColumns+` FROM fleets WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get fleet %s: %w", id, err)
	}
	return row.toDomain()
}

// FleetsByOwner lists a player's fleets.
func (q querier) FleetsByOwner(owner string) ([]*universe.Fleet, error) {
	return q.selectFleets(`SELECT `+fleetColumns+` FROM fleets WHERE owner = ? ORDER BY id`, owner)
}

// AllFleets lists every fleet. The travel guard walks this.
func (q querier) AllFleets() ([]*universe.Fleet, error) {
	return q.selectFleets(`SELECT ` + fleetColumns + ` FROM fleets ORDER BY id`)
}

// ArrivedFleets lists fleets whose arrival time has elapsed, in arrival
// order. Whichever racing colonizer arrived first is processed first.
func (q querier) ArrivedFleets(now time.Time) ([]*universe.Fleet, error) {
	return q.selectFleets(`SELECT `+fleetColumns+` FROM fleets
		WHERE arrival_time IS NOT NULL AND arrival_time <= ?
		ORDER BY arrival_time, id`, now.Unix())
}

// StationedFleetsAt lists stationed fleets based at the given planet.
// Used to find a planet's defenders.
func (q querier) StationedFleetsAt(planetID string) ([]*universe.Fleet, error) {
	return q.selectFleets(`SELECT `+fleetColumns+` FROM fleets
		WHERE origin_id = ? AND status = 'stationed' ORDER BY id`, planetID)
}

func (q querier) selectFleets(query string, args ...any) ([]*universe.Fleet, error) {
	var rows []fleetRow
	if err := sqlx.Select(q.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select fleets: %w", err)
	}
	fleets := make([]*universe.Fleet, 0, len(rows))
	for _, r := range rows {
		f, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		fleets = append(fleets, f)
	}
	return fleets, nil
}
