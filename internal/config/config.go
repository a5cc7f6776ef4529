// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"galaxysim/internal/universe"
)

// PlayerSeed describes a player whose home planet is created when the
// universe is first seeded.
type PlayerSeed struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Home string `yaml:"home"` // "x:y:z"
}

// Starting defines the stocks and structures a new colony (or seeded
// home planet) begins with.
type Starting struct {
	Metal                int64 `yaml:"metal"`
	Crystal              int64 `yaml:"crystal"`
	Deuterium            int64 `yaml:"deuterium"`
	MetalMine            int   `yaml:"metal_mine"`
	CrystalMine          int   `yaml:"crystal_mine"`
	DeuteriumSynthesizer int   `yaml:"deuterium_synthesizer"`
	SolarPlant           int   `yaml:"solar_plant"`
}

// Admin configures the administrative HTTP server.
type Admin struct {
	Addr      string  `yaml:"addr"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second per client
	RateBurst int     `yaml:"rate_burst"`
}

// Log configures slog output.
type Log struct {
	Format string `yaml:"format"` // text | json
	Level  string `yaml:"level"`  // debug | info | warn | error
}

// Config is the root simulation configuration.
type Config struct {
	Universe        string       `yaml:"universe"`
	DBPath          string       `yaml:"db_path"`
	Seed            int64        `yaml:"seed"`
	TickSeconds     int          `yaml:"tick_seconds"`
	TickHourDivisor int64        `yaml:"tick_hour_divisor"`
	DebrisRatio     float64      `yaml:"debris_ratio"`
	Starting        Starting     `yaml:"starting"`
	Players         []PlayerSeed `yaml:"players"`
	Admin           Admin        `yaml:"admin"`
	Log             Log          `yaml:"log"`
}

// TickInterval returns the wall-clock tick period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}

// Load loads YAML config, validates it against a CUE schema, and applies
// defaults. An empty cueSchemaPath skips schema validation.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	if cueSchemaPath != "" {
		if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	for _, p := range cfg.Players {
		if _, err := universe.ParseCoordinate(p.Home); err != nil {
			return nil, fmt.Errorf("player %q home: %w", p.Name, err)
		}
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Universe == "" {
		c.Universe = "galaxy-01"
	}
	if c.DBPath == "" {
		c.DBPath = "galaxysim.db"
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.TickSeconds <= 0 {
		c.TickSeconds = 5
	}
	if c.TickHourDivisor <= 0 {
		c.TickHourDivisor = 72
	}
	if c.DebrisRatio <= 0 {
		c.DebrisRatio = 0.3
	}
	if c.Starting == (Starting{}) {
		c.Starting = Starting{
			Metal:     500,
			Crystal:   300,
			Deuterium: 100,
			MetalMine: 1, CrystalMine: 1,
			SolarPlant: 1,
		}
	}
	if c.Admin.Addr == "" {
		c.Admin.Addr = ":8080"
	}
	if c.Admin.RateLimit <= 0 {
		c.Admin.RateLimit = 5
	}
	if c.Admin.RateBurst <= 0 {
		c.Admin.RateBurst = 10
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ValidateWithCue validates a YAML configuration file using a CUE schema file.
func ValidateWithCue(configFile, cueFile string) error {
	ctx := cuecontext.New()

	yamlBytes, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("cannot read YAML config: %w", err)
	}
	file, err := cueyaml.Extract(configFile, yamlBytes)
	if err != nil {
		return fmt.Errorf("cannot parse YAML config: %w", err)
	}
	configVal := ctx.BuildFile(file)
	if configVal.Err() != nil {
		return fmt.Errorf("cannot build YAML config: %w", configVal.Err())
	}

	schemaBytes, err := os.ReadFile(cueFile)
	if err != nil {
		return fmt.Errorf("cannot read CUE schema: %w", err)
	}
	schemaVal := ctx.CompileBytes(schemaBytes)
	if schemaVal.Err() != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", schemaVal.Err())
	}

	final := configVal.Unify(schemaVal)
	if final.Err() != nil {
		return fmt.Errorf("schema unify failed: %w", final.Err())
	}
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
