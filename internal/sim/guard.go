package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"galaxysim/internal/logging"
	"galaxysim/internal/store"
	"galaxysim/internal/universe"
)

// guardPass sweeps all fleets for inconsistent travel state and repairs
// what it finds, journaling each repair. The guard is idempotent: a
// clean universe yields no rows.
func (s *Simulator) guardPass(ctx context.Context, tx *store.Tx, tick int64, now time.Time) ([]universe.JournalRow, error) {
	log := logging.FromContext(ctx)
	fleets, err := tx.AllFleets()
	if err != nil {
		return nil, err
	}

	var rows []universe.JournalRow
	for _, f := range fleets {
		repair := s.diagnose(f, now)
		if repair == "" {
			continue
		}
		log.Warn("guard repair", "fleet", f.ID, "repair", repair, "raw_status", f.RawStatus)
		if err := tx.UpdateFleet(f); err != nil {
			return nil, err
		}
		rows = append(rows, s.fleetEvent(universe.EventGuardRepair, f, tick, now, repair))
	}
	return rows, nil
}

// diagnose checks one fleet for travel-state inconsistencies and fixes
// them in place. It returns a description of the repair, or "" when the
// fleet is healthy.
func (s *Simulator) diagnose(f *universe.Fleet, now time.Time) string {
	switch {
	case f.Status.Kind == universe.StatusInvalid:
		s.station(f)
		return "unparseable status forced to stationed"

	case f.Status.InFlight() && f.ArrivalTime == nil:
		// In flight with no arrival time can never complete.
		s.station(f)
		return "in-flight fleet without arrival time stationed"

	case f.Status.Kind == universe.StatusStationed && (f.ArrivalTime != nil || f.DepartureTime != nil || f.ETASeconds != 0):
		f.DepartureTime = nil
		f.ArrivalTime = nil
		f.ETASeconds = 0
		return "cleared travel times on stationed fleet"

	case f.Status.Kind == universe.StatusStationed && f.Mission != universe.MissionStationed:
		f.Mission = universe.MissionStationed
		return "mission reset to match stationed status"

	case impliedMission(f.Status.Kind) != "" && f.Mission != impliedMission(f.Status.Kind):
		f.Mission = impliedMission(f.Status.Kind)
		return "mission reset to match in-flight status"

	case f.ETASeconds < 0:
		f.ETASeconds = 0
		return "negative eta clamped to zero"
	}
	return ""
}

// impliedMission returns the mission an in-flight status kind demands,
// or "" for kinds that admit several missions (plain traveling covers
// attack, transport, deploy, and recycle).
func impliedMission(k universe.StatusKind) universe.Mission {
	switch k {
	case universe.StatusColonizing:
		return universe.MissionColonize
	case universe.StatusExploring:
		return universe.MissionExplore
	case universe.StatusReturning:
		return universe.MissionReturn
	}
	return ""
}

// FleetHealth is the per-state census reported by the admin API.
type FleetHealth struct {
	Total     int            `json:"total"`
	ByStatus  map[string]int `json:"by_status"`
	ByMission map[string]int `json:"by_mission"`
	Stuck     int            `json:"stuck"`
	StuckIDs  []string       `json:"stuck_ids,omitempty"`
}

// stuckAfter is how long past its arrival time an in-flight fleet may
// linger before the health report flags it. One missed mission pass is
// normal; several are not.
const stuckAfter = time.Minute

// HealthReport summarizes fleet state across the universe, flagging
// in-flight fleets whose arrival time is long past.
func (s *Simulator) HealthReport(ctx context.Context) (*FleetHealth, error) {
	report := &FleetHealth{
		ByStatus:  make(map[string]int),
		ByMission: make(map[string]int),
	}
	now := s.now().UTC()
	err := s.db.WithTx(ctx, func(tx *store.Tx) error {
		fleets, err := tx.AllFleets()
		if err != nil {
			return err
		}
		report.Total = len(fleets)
		for _, f := range fleets {
			report.ByStatus[f.Status.String()]++
			report.ByMission[string(f.Mission)]++
			if f.Status.InFlight() && f.ArrivalTime != nil && now.Sub(*f.ArrivalTime) > stuckAfter {
				report.Stuck++
				report.StuckIDs = append(report.StuckIDs, f.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// ForceCleanupStuckFleets stations every fleet of the given owner that
// has been in flight longer than maxAge past its arrival time. An empty
// owner matches all fleets. Returns the number of fleets repaired.
func (s *Simulator) ForceCleanupStuckFleets(ctx context.Context, owner string, maxAge time.Duration) (int, error) {
	log := logging.FromContext(ctx)
	now := s.now().UTC()
	cleaned := 0
	err := s.db.WithTx(ctx, func(tx *store.Tx) error {
		fleets, err := tx.AllFleets()
		if err != nil {
			return err
		}
		for _, f := range fleets {
			if owner != "" && f.Owner != owner {
				continue
			}
			if !f.Status.InFlight() || f.ArrivalTime == nil {
				continue
			}
			if now.Sub(*f.ArrivalTime) <= maxAge {
				continue
			}
			log.Warn("force cleanup", "fleet", f.ID, "owner", f.Owner, "overdue", now.Sub(*f.ArrivalTime))
			s.station(f)
			if err := tx.UpdateFleet(f); err != nil {
				return err
			}
			cleaned++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cleaned, nil
}

// CoordinateIssue describes one fleet whose planet references do not
// resolve.
type CoordinateIssue struct {
	FleetID string `json:"fleet_id"`
	Owner   string `json:"owner"`
	Problem string `json:"problem"`
}

// ValidateFleetCoordinates checks that every fleet's origin and target
// planet references resolve in the store. It reports, never repairs.
func (s *Simulator) ValidateFleetCoordinates(ctx context.Context) ([]CoordinateIssue, error) {
	var issues []CoordinateIssue
	err := s.db.WithTx(ctx, func(tx *store.Tx) error {
		fleets, err := tx.AllFleets()
		if err != nil {
			return err
		}
		for _, f := range fleets {
			for ref, id := range map[string]string{"origin": f.OriginID, "target": f.TargetID} {
				if id == "" {
					continue
				}
				if _, err := tx.GetPlanet(id); errors.Is(err, store.ErrNotFound) {
					issues = append(issues, CoordinateIssue{
						FleetID: f.ID,
						Owner:   f.Owner,
						Problem: fmt.Sprintf("%s planet %s not found", ref, id),
					})
				} else if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issues, nil
}
