package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"galaxysim/internal/universe"
)

const planetColumns = `id, name, owner, x, y, z, metal, crystal, deuterium,
	metal_mine, crystal_mine, deuterium_synthesizer, solar_plant, fusion_reactor,
	research_lab, bonus_json, traits_json, colonization_difficulty, home_planet,
	colonized_at`

// InsertPlanet creates a planet. The coordinate UNIQUE constraint is the
// last line of defense against double colonization.
func (q querier) InsertPlanet(p *universe.Planet) error {
	row, err := planetToRow(p)
	if err != nil {
		return err
	}
	_, err = sqlx.NamedExec(q.q, `INSERT INTO planets (`+planetColumns+`)
		VALUES (:id, :name, :owner, :x, :y, :z, :metal, :crystal, :deuterium,
			:metal_mine, :crystal_mine, :deuterium_synthesizer, :solar_plant,
			:fusion_reactor, :research_lab, :bonus_json, :traits_json,
			:colonization_difficulty, :home_planet, :colonized_at)`, row)
	if err != nil {
		return fmt.Errorf("insert planet %s: %w", p.ID, err)
	}
	return nil
}

// UpdatePlanet writes all mutable planet fields.
func (q querier) UpdatePlanet(p *universe.Planet) error {
	row, err := planetToRow(p)
	if err != nil {
		return err
	}
	_, err = sqlx.NamedExec(q.q, `UPDATE planets SET
		name = :name, owner = :owner,
		metal = :metal, crystal = :crystal, deuterium = :deuterium,
		metal_mine = :metal_mine, crystal_mine = :crystal_mine,
		deuterium_synthesizer = :deuterium_synthesizer,
		solar_plant = :solar_plant, fusion_reactor = :fusion_reactor,
		research_lab = :research_lab, bonus_json = :bonus_json,
		traits_json = :traits_json,
		colonization_difficulty = :colonization_difficulty,
		home_planet = :home_planet, colonized_at = :colonized_at
		WHERE id = :id`, row)
	if err != nil {
		return fmt.Errorf("update planet %s: %w", p.ID, err)
	}
	return nil
}

// GetPlanet fetches a planet by id.
func (q querier) GetPlanet(id string) (*universe.Planet, error) {
	var row planetRow
	err := sqlx.Get(q.q, &row, `SELECT `+planetColumns+` FROM planets WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get planet %s: %w", id, err)
	}
	return row.toDomain()
}

// PlanetByCoordinate fetches a planet by its unique coordinates.
func (q querier) PlanetByCoordinate(c universe.Coordinate) (*universe.Planet, error) {
	var row planetRow
	err := sqlx.Get(q.q, &row, `SELECT `+planetColumns+` FROM planets
		WHERE x = ? AND y = ? AND z = ?`, c.X, c.Y, c.Z)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("planet at %s: %w", c, err)
	}
	return row.toDomain()
}

// PlanetsByOwner lists all planets owned by a player.
func (q querier) PlanetsByOwner(owner string) ([]*universe.Planet, error) {
	return q.selectPlanets(`SELECT `+planetColumns+` FROM planets WHERE owner = ? ORDER BY x, y, z`, owner)
}

// AllPlanets lists every planet in the universe.
func (q querier) AllPlanets() ([]*universe.Planet, error) {
	return q.selectPlanets(`SELECT ` + planetColumns + ` FROM planets ORDER BY x, y, z`)
}

// CountPlanets returns the planet total; zero means an unseeded store.
func (q querier) CountPlanets() (int, error) {
	var n int
	if err := sqlx.Get(q.q, &n, `SELECT COUNT(*) FROM planets`); err != nil {
		return 0, fmt.Errorf("count planets: %w", err)
	}
	return n, nil
}

func (q querier) selectPlanets(query string, args ...any) ([]*universe.Planet, error) {
	var rows []planetRow
	if err := sqlx.Select(q.q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select planets: %w", err)
	}
	planets := make([]*universe.Planet, 0, len(rows))
	for _, r := range rows {
		p, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		planets = append(planets, p)
	}
	return planets, nil
}
