package universe

import (
	"fmt"

	"github.com/google/uuid"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Generator produces unowned planets for exploration and seeding.
// Output is deterministic per (seed, coordinate), which keeps repeated
// exploration of the same system idempotent.
type Generator struct {
	noise opensimplex.Noise
}

// NewGenerator creates a generator for the given universe seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{noise: opensimplex.NewNormalized(seed)}
}

// noise coordinate scale; systems a few units apart get decorrelated sizes.
const genScale = 0.37

// SystemSize returns how many planets (1..3) a system at c contains.
func (g *Generator) SystemSize(c Coordinate) int {
	v := g.noise.Eval3(float64(c.X)*genScale, float64(c.Y)*genScale, float64(c.Z)*genScale)
	n := int(v * 3)
	if n > 2 {
		n = 2
	}
	return 1 + n
}

// NewPlanet builds an unowned planet at c with noise-derived mineral
// deposits. Deposits are raw stocks awaiting a colonizer; structures
// start at zero.
func (g *Generator) NewPlanet(c Coordinate, difficulty int) *Planet {
	richness := g.noise.Eval3(float64(c.X)*genScale+11.3, float64(c.Y)*genScale+7.9, float64(c.Z)*genScale+3.1)
	base := int64(200 + richness*1800)
	return &Planet{
		ID:    uuid.New().String(),
		Name:  fmt.Sprintf("Planet %s", c),
		Coord: c,
		Resources: Resources{
			Metal:     base,
			Crystal:   base * 2 / 3,
			Deuterium: base / 3,
		},
		ColonizationDifficulty: difficulty,
	}
}
