// Package admin exposes the travel guard and read-only universe queries
// over a small JSON HTTP API.
package admin

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"galaxysim/internal/sim"
	"galaxysim/internal/store"
	"galaxysim/internal/universe"
)

type Server struct {
	Sim *sim.Simulator

	mux      *http.ServeMux
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewServer(s *sim.Simulator) *Server {
	cfg := s.Config()
	srv := &Server{
		Sim:      s,
		mux:      http.NewServeMux(),
		limit:    rate.Limit(cfg.Admin.RateLimit),
		burst:    cfg.Admin.RateBurst,
		limiters: make(map[string]*rate.Limiter),
	}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.HandleFunc("/fleet-health", s.handleHealth)
	s.mux.HandleFunc("/force-cleanup", s.handleForceCleanup)
	s.mux.HandleFunc("/validate-coordinates", s.handleValidate)
	s.mux.HandleFunc("/tick", s.handleTick)
	s.mux.HandleFunc("/planets", s.handlePlanets)
	s.mux.HandleFunc("/fleets", s.handleFleets)
	s.mux.HandleFunc("/reports", s.handleReports)
	s.mux.HandleFunc("/debris", s.handleDebris)
	s.mux.HandleFunc("/journal", s.handleJournal)
}

// Handler returns the rate-limited HTTP handler.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.allow(r) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		s.mux.ServeHTTP(w, r)
	})
}

func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.Handler())
}

// allow applies a per-client token bucket keyed by remote IP.
func (s *Server) allow(r *http.Request) bool {
	if s.limit <= 0 {
		return true
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	s.mu.Lock()
	lim, ok := s.limiters[host]
	if !ok {
		lim = rate.NewLimiter(s.limit, s.burst)
		s.limiters[host] = lim
	}
	s.mu.Unlock()
	return lim.Allow()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report, err := s.Sim.HealthReport(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, report)
}

func (s *Server) handleForceCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	owner := r.URL.Query().Get("owner")
	maxAgeHours, _ := strconv.ParseFloat(r.URL.Query().Get("max_age_hours"), 64)
	if maxAgeHours <= 0 {
		maxAgeHours = 1
	}
	cleaned, err := s.Sim.ForceCleanupStuckFleets(r.Context(), owner, time.Duration(maxAgeHours*float64(time.Hour)))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"cleaned": cleaned})
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	issues, err := s.Sim.ValidateFleetCoordinates(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if issues == nil {
		issues = []sim.CoordinateIssue{}
	}
	writeJSON(w, issues)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	summary, err := s.Sim.RunTick(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"tick":             summary.Tick,
		"resource_changes": summary.ResourceChanges,
		"fleet_events":     summary.FleetEvents,
		"guard_repairs":    summary.GuardRepairs,
	})
}

func (s *Server) handlePlanets(w http.ResponseWriter, r *http.Request) {
	db := s.Sim.DB()
	if coord := r.URL.Query().Get("coord"); coord != "" {
		c, err := universe.ParseCoordinate(coord)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		planet, err := db.PlanetByCoordinate(c)
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "no planet at "+coord, http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, planet)
		return
	}
	var (
		planets []*universe.Planet
		err     error
	)
	if owner := r.URL.Query().Get("owner"); owner != "" {
		planets, err = db.PlanetsByOwner(owner)
	} else {
		planets, err = db.AllPlanets()
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, planets)
}

func (s *Server) handleFleets(w http.ResponseWriter, r *http.Request) {
	db := s.Sim.DB()
	var (
		fleets []*universe.Fleet
		err    error
	)
	if owner := r.URL.Query().Get("owner"); owner != "" {
		fleets, err = db.FleetsByOwner(owner)
	} else {
		fleets, err = db.AllFleets()
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, fleets)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		http.Error(w, "owner required", http.StatusBadRequest)
		return
	}
	reports, err := s.Sim.DB().ReportsByParticipant(owner)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, reports)
}

func (s *Server) handleDebris(w http.ResponseWriter, r *http.Request) {
	planetID := r.URL.Query().Get("planet")
	if planetID == "" {
		http.Error(w, "planet required", http.StatusBadRequest)
		return
	}
	field, err := s.Sim.DB().DebrisByPlanet(planetID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "no debris at "+planetID, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, field)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.Sim.DB().RecentJournal(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, rows)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
