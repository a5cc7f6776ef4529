package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"galaxysim/internal/universe"
)

type planetRow struct {
	ID                     string        `db:"id"`
	Name                   string        `db:"name"`
	Owner                  string        `db:"owner"`
	X                      int           `db:"x"`
	Y                      int           `db:"y"`
	Z                      int           `db:"z"`
	Metal                  int64         `db:"metal"`
	Crystal                int64         `db:"crystal"`
	Deuterium              int64         `db:"deuterium"`
	MetalMine              int           `db:"metal_mine"`
	CrystalMine            int           `db:"crystal_mine"`
	DeuteriumSynthesizer   int           `db:"deuterium_synthesizer"`
	SolarPlant             int           `db:"solar_plant"`
	FusionReactor          int           `db:"fusion_reactor"`
	ResearchLab            int           `db:"research_lab"`
	BonusJSON              string        `db:"bonus_json"`
	TraitsJSON             string        `db:"traits_json"`
	ColonizationDifficulty int           `db:"colonization_difficulty"`
	HomePlanet             int           `db:"home_planet"`
	ColonizedAt            sql.NullInt64 `db:"colonized_at"`
}

func (r planetRow) toDomain() (*universe.Planet, error) {
	p := &universe.Planet{
		ID:    r.ID,
		Name:  r.Name,
		Owner: r.Owner,
		Coord: universe.Coordinate{X: r.X, Y: r.Y, Z: r.Z},
		Resources: universe.Resources{
			Metal:     r.Metal,
			Crystal:   r.Crystal,
			Deuterium: r.Deuterium,
		},
		MetalMine:              r.MetalMine,
		CrystalMine:            r.CrystalMine,
		DeuteriumSynthesizer:   r.DeuteriumSynthesizer,
		SolarPlant:             r.SolarPlant,
		FusionReactor:          r.FusionReactor,
		ResearchLab:            r.ResearchLab,
		ColonizationDifficulty: r.ColonizationDifficulty,
		HomePlanet:             r.HomePlanet != 0,
	}
	if err := json.Unmarshal([]byte(r.BonusJSON), &p.Bonus); err != nil {
		return nil, fmt.Errorf("planet %s bonus: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.TraitsJSON), &p.Traits); err != nil {
		return nil, fmt.Errorf("planet %s traits: %w", r.ID, err)
	}
	p.ColonizedAt = unixTimePtr(r.ColonizedAt)
	return p, nil
}

func planetToRow(p *universe.Planet) (planetRow, error) {
	bonus, err := json.Marshal(p.Bonus)
	if err != nil {
		return planetRow{}, err
	}
	traits := []byte("[]")
	if len(p.Traits) > 0 {
		traits, err = json.Marshal(p.Traits)
		if err != nil {
			return planetRow{}, err
		}
	}
	home := 0
	if p.HomePlanet {
		home = 1
	}
	return planetRow{
		ID:                     p.ID,
		Name:                   p.Name,
		Owner:                  p.Owner,
		X:                      p.Coord.X,
		Y:                      p.Coord.Y,
		Z:                      p.Coord.Z,
		Metal:                  p.Resources.Metal,
		Crystal:                p.Resources.Crystal,
		Deuterium:              p.Resources.Deuterium,
		MetalMine:              p.MetalMine,
		CrystalMine:            p.CrystalMine,
		DeuteriumSynthesizer:   p.DeuteriumSynthesizer,
		SolarPlant:             p.SolarPlant,
		FusionReactor:          p.FusionReactor,
		ResearchLab:            p.ResearchLab,
		BonusJSON:              string(bonus),
		TraitsJSON:             string(traits),
		ColonizationDifficulty: p.ColonizationDifficulty,
		HomePlanet:             home,
		ColonizedAt:            unixTimeNull(p.ColonizedAt),
	}, nil
}

type fleetRow struct {
	ID             string        `db:"id"`
	Owner          string        `db:"owner"`
	Name           string        `db:"name"`
	ShipsJSON      string        `db:"ships_json"`
	Mission        string        `db:"mission"`
	Status         string        `db:"status"`
	OriginID       string        `db:"origin_id"`
	TargetID       string        `db:"target_id"`
	CargoJSON      string        `db:"cargo_json"`
	DepartureTime  sql.NullInt64 `db:"departure_time"`
	ArrivalTime    sql.NullInt64 `db:"arrival_time"`
	ETASeconds     int64         `db:"eta_seconds"`
	Victories      int           `db:"victories"`
	Defeats        int           `db:"defeats"`
	Experience     int64         `db:"experience"`
	LastCombatTime sql.NullInt64 `db:"last_combat_time"`
}

func (r fleetRow) toDomain() (*universe.Fleet, error) {
	f := &universe.Fleet{
		ID:         r.ID,
		Owner:      r.Owner,
		Name:       r.Name,
		Mission:    universe.Mission(r.Mission),
		RawStatus:  r.Status,
		OriginID:   r.OriginID,
		TargetID:   r.TargetID,
		ETASeconds: r.ETASeconds,
		Victories:  r.Victories,
		Defeats:    r.Defeats,
		Experience: r.Experience,
	}
	if err := json.Unmarshal([]byte(r.ShipsJSON), &f.Ships); err != nil {
		return nil, fmt.Errorf("fleet %s ships: %w", r.ID, err)
	}
	if f.Ships == nil {
		f.Ships = universe.ShipCounts{}
	}
	if err := json.Unmarshal([]byte(r.CargoJSON), &f.Cargo); err != nil {
		return nil, fmt.Errorf("fleet %s cargo: %w", r.ID, err)
	}
	// A stored status that fails to parse is not an error to the reader;
	// the travel guard exists to repair it.
	status, err := universe.ParseStatus(r.Status)
	if err != nil {
		status = universe.Status{Kind: universe.StatusInvalid}
	}
	f.Status = status
	f.DepartureTime = unixTimePtr(r.DepartureTime)
	f.ArrivalTime = unixTimePtr(r.ArrivalTime)
	f.LastCombatTime = unixTimePtr(r.LastCombatTime)
	return f, nil
}

func fleetToRow(f *universe.Fleet) (fleetRow, error) {
	ships, err := json.Marshal(f.Ships)
	if err != nil {
		return fleetRow{}, err
	}
	cargo, err := json.Marshal(f.Cargo)
	if err != nil {
		return fleetRow{}, err
	}
	// Writing back a fleet whose stored status never parsed keeps the
	// original text so the guard's diagnostics stay truthful.
	statusText := f.Status.String()
	if f.Status.Kind == universe.StatusInvalid && f.RawStatus != "" {
		statusText = f.RawStatus
	}
	return fleetRow{
		ID:             f.ID,
		Owner:          f.Owner,
		Name:           f.Name,
		ShipsJSON:      string(ships),
		Mission:        string(f.Mission),
		Status:         statusText,
		OriginID:       f.OriginID,
		TargetID:       f.TargetID,
		CargoJSON:      string(cargo),
		DepartureTime:  unixTimeNull(f.DepartureTime),
		ArrivalTime:    unixTimeNull(f.ArrivalTime),
		ETASeconds:     f.ETASeconds,
		Victories:      f.Victories,
		Defeats:        f.Defeats,
		Experience:     f.Experience,
		LastCombatTime: unixTimeNull(f.LastCombatTime),
	}, nil
}

func unixTimePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func unixTimeNull(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
