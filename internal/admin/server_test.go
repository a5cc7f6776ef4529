package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"galaxysim/internal/config"
	"galaxysim/internal/sim"
	"galaxysim/internal/store"
	"galaxysim/internal/universe"
)

func testConfig() *config.Config {
	return &config.Config{
		Universe:        "admin-test",
		DBPath:          ":memory:",
		Seed:            7,
		TickSeconds:     5,
		TickHourDivisor: 72,
		DebrisRatio:     0.3,
		Starting: config.Starting{
			Metal: 500, Crystal: 300, Deuterium: 100,
			MetalMine: 1, CrystalMine: 1, SolarPlant: 1,
		},
		Players: []config.PlayerSeed{
			{ID: "p1", Name: "hegemon", Home: "100:200:300"},
			{ID: "p2", Name: "nomad", Home: "-250:40:910"},
		},
		Admin: config.Admin{Addr: ":0", RateLimit: 100, RateBurst: 100},
		Log:   config.Log{Format: "text", Level: "error"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	simulator := sim.NewSimulator(cfg, db, nil)
	if err := simulator.EnsureSeeded(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewServer(simulator)
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func post(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
	return rec
}

func TestFleetHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := get(t, srv, "/fleet-health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body)
	}
	var report sim.FleetHealth
	if err := json.NewDecoder(rec.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Total != 2 {
		t.Errorf("total = %d, want 2 starter fleets", report.Total)
	}
	if report.ByStatus["stationed"] != 2 {
		t.Errorf("by_status = %v", report.ByStatus)
	}
	if report.Stuck != 0 {
		t.Errorf("stuck = %d, want 0", report.Stuck)
	}
}

func TestValidateCoordinatesReturnsEmptyArray(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := get(t, srv, "/validate-coordinates")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestTickEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())

	if rec := get(t, srv, "/tick"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /tick status = %d, want 405", rec.Code)
	}

	rec := post(t, srv, "/tick")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body)
	}
	var summary struct {
		Tick            int64 `json:"tick"`
		ResourceChanges int   `json:"resource_changes"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if summary.Tick != 1 {
		t.Errorf("tick = %d, want 1", summary.Tick)
	}
	if summary.ResourceChanges != 2 {
		t.Errorf("resource changes = %d, want 2", summary.ResourceChanges)
	}
}

func TestForceCleanupEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())

	if rec := get(t, srv, "/force-cleanup"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}

	rec := post(t, srv, "/force-cleanup?owner=p1&max_age_hours=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var out struct {
		Cleaned int `json:"cleaned"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Cleaned != 0 {
		t.Errorf("cleaned = %d, want 0 on a healthy universe", out.Cleaned)
	}
}

func TestPlanetsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := get(t, srv, "/planets?coord=100:200:300")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var planet universe.Planet
	if err := json.NewDecoder(rec.Body).Decode(&planet); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if planet.Owner != "p1" {
		t.Errorf("owner = %q, want p1", planet.Owner)
	}

	if rec := get(t, srv, "/planets?coord=nonsense"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad coord status = %d, want 400", rec.Code)
	}
	if rec := get(t, srv, "/planets?coord=1:2:3"); rec.Code != http.StatusNotFound {
		t.Errorf("empty coord status = %d, want 404", rec.Code)
	}

	rec = get(t, srv, "/planets?owner=p2")
	var planets []universe.Planet
	if err := json.NewDecoder(rec.Body).Decode(&planets); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(planets) != 1 {
		t.Errorf("p2 planets = %d, want 1", len(planets))
	}
}

func TestFleetsEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := get(t, srv, "/fleets?owner=p1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var fleets []universe.Fleet
	if err := json.NewDecoder(rec.Body).Decode(&fleets); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fleets) != 1 {
		t.Fatalf("fleets = %d, want 1", len(fleets))
	}
	if fleets[0].Status.Kind != universe.StatusStationed {
		t.Errorf("status = %v", fleets[0].Status)
	}
}

func TestReportsRequireOwner(t *testing.T) {
	srv := newTestServer(t, testConfig())
	if rec := get(t, srv, "/reports"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDebrisEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())
	if rec := get(t, srv, "/debris"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing planet status = %d, want 400", rec.Code)
	}
	if rec := get(t, srv, "/debris?planet=nope"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown planet status = %d, want 404", rec.Code)
	}
}

func TestJournalEndpoint(t *testing.T) {
	srv := newTestServer(t, testConfig())
	post(t, srv, "/tick")

	rec := get(t, srv, "/journal?limit=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var rows []universe.JournalRow
	if err := json.NewDecoder(rec.Body).Decode(&rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) == 0 {
		t.Error("journal empty after a tick")
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Admin.RateLimit = 1
	cfg.Admin.RateBurst = 1
	srv := newTestServer(t, cfg)

	if rec := get(t, srv, "/fleet-health"); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	if rec := get(t, srv, "/fleet-health"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
}
