package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	yaml := `
universe: test-universe
tick_seconds: 2
players:
  - id: p1
    name: hegemon
    home: "100:200:300"
`
	path := writeTemp(t, "sim.yaml", yaml)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Universe != "test-universe" {
		t.Errorf("universe = %q", cfg.Universe)
	}
	if cfg.TickInterval() != 2*time.Second {
		t.Errorf("tick interval = %s", cfg.TickInterval())
	}
	if len(cfg.Players) != 1 || cfg.Players[0].Name != "hegemon" {
		t.Errorf("unexpected player data: %+v", cfg.Players)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeTemp(t, "sim.yaml", "universe: defaults-test\n")

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.TickSeconds != 5 {
		t.Errorf("tick_seconds default = %d", cfg.TickSeconds)
	}
	if cfg.TickHourDivisor != 72 {
		t.Errorf("tick_hour_divisor default = %d", cfg.TickHourDivisor)
	}
	if cfg.DebrisRatio != 0.3 {
		t.Errorf("debris_ratio default = %f", cfg.DebrisRatio)
	}
	if cfg.Starting.Metal != 500 || cfg.Starting.MetalMine != 1 {
		t.Errorf("starting defaults = %+v", cfg.Starting)
	}
	if cfg.Admin.Addr != ":8080" || cfg.Admin.RateLimit != 5 {
		t.Errorf("admin defaults = %+v", cfg.Admin)
	}
	if cfg.Log.Format != "text" || cfg.Log.Level != "info" {
		t.Errorf("log defaults = %+v", cfg.Log)
	}
}

func TestLoadConfig_BadHomeCoordinate(t *testing.T) {
	yaml := `
players:
  - id: p1
    name: broken
    home: "not-a-coordinate"
`
	path := writeTemp(t, "sim.yaml", yaml)

	if _, err := Load(path, ""); err == nil {
		t.Fatalf("Load() accepted invalid home coordinate")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), ""); err == nil {
		t.Fatalf("Load() succeeded on missing file")
	}
}

func TestValidateWithCue(t *testing.T) {
	schema := `
universe?: string
tick_seconds?: int & >0
players?: [...{
	id:   string
	name: string
	home: string
}]
`
	yaml := `
universe: cue-test
tick_seconds: 5
players:
  - id: p1
    name: hegemon
    home: "100:200:300"
`
	schemaPath := writeTemp(t, "sim.cue", schema)
	yamlPath := writeTemp(t, "sim.yaml", yaml)

	if err := ValidateWithCue(yamlPath, schemaPath); err != nil {
		t.Fatalf("validation failed for valid config: %v", err)
	}
}

func TestValidateWithCue_RejectsViolations(t *testing.T) {
	schema := `
tick_seconds?:  int & >0
debris_ratio?:  number & >=0 & <=1
log?: {
	format?: "text" | "json"
}
`
	schemaPath := writeTemp(t, "sim.cue", schema)

	cases := map[string]string{
		"zero tick":       "tick_seconds: 0\n",
		"ratio over one":  "debris_ratio: 1.5\n",
		"bad log format":  "log:\n  format: \"xml\"\n",
		"several at once": "tick_seconds: 0\ndebris_ratio: 1.5\nlog:\n  format: \"xml\"\n",
	}
	for name, yaml := range cases {
		yamlPath := writeTemp(t, "sim.yaml", yaml)
		if err := ValidateWithCue(yamlPath, schemaPath); err == nil {
			t.Errorf("%s: validation accepted a config violating the schema", name)
		}
	}
}

func TestValidateWithCue_ShippedConfig(t *testing.T) {
	configPath := filepath.Join("..", "..", "config", "simulation.yaml")
	schemaPath := filepath.Join("..", "..", "schemas", "simulation.cue")

	if err := ValidateWithCue(configPath, schemaPath); err != nil {
		t.Fatalf("shipped config rejected by shipped schema: %v", err)
	}

	// Sanity check on the same schema: a broken variant must fail.
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("read shipped config: %v", err)
	}
	broken := strings.Replace(string(data), "tick_seconds: 5", "tick_seconds: 0", 1)
	if broken == string(data) {
		t.Fatalf("shipped config has no tick_seconds line to corrupt")
	}
	brokenPath := writeTemp(t, "broken.yaml", broken)
	if err := ValidateWithCue(brokenPath, schemaPath); err == nil {
		t.Error("schema accepted a zero tick_seconds")
	}
}
