package boot

import (
	"math/rand/v2"
	"strings"

	"github.com/teranos/resample/errors"
	"github.com/teranos/resample/frame"
)

// maxUniqueRedraws bounds the rejection-sampling loop for minimum-unique
// constraints. A draw that cannot satisfy its constraint within this many
// redraws indicates an unsatisfiable configuration.
const maxUniqueRedraws = 10000

// keySep joins multi-variable level values into one combination key.
const keySep = "\x1f"

// drawConfig is the immutable per-run configuration for index generation.
// Build it once with newDrawConfig, then call generateIndices with a fresh
// RNG per resample; the config itself is never mutated.
type drawConfig struct {
	rows        int
	narrowAvoid bool

	// Block mode only. levelKeys holds the distinct level combinations of
	// the selected grouping variables in first-appearance order; levelRows
	// maps each key to the rows belonging to it.
	blockVars []string
	levelKeys []string
	levelRows map[string][]int
	// varLevels[v][i] is variable v's value within level combination i,
	// used to check minimum-unique constraints against a draw.
	varLevels map[string][]string
	minUnique map[string]int
}

// newDrawConfig precomputes the level structure for the selected resampling
// unit. A nil/empty vars slice configures case (row-level) resampling.
func newDrawConfig(data *frame.Frame, vars []string, minUnique map[string]int, narrowAvoid bool) (*drawConfig, error) {
	cfg := &drawConfig{
		rows:        data.NumRows(),
		narrowAvoid: narrowAvoid,
		blockVars:   vars,
	}
	if cfg.rows == 0 {
		return nil, errors.NewConfigError("dataset has no rows")
	}
	if len(vars) == 0 {
		if len(minUnique) > 0 {
			return nil, errors.NewConfigError("unique minimums given but no grouping variable selected")
		}
		return cfg, nil
	}

	columns := make([][]string, len(vars))
	for i, name := range vars {
		labels, err := data.Labels(name)
		if err != nil {
			return nil, errors.Wrapf(err, "grouping variable %q", name)
		}
		columns[i] = labels
	}

	cfg.levelRows = make(map[string][]int)
	cfg.varLevels = make(map[string][]string, len(vars))
	for row := 0; row < cfg.rows; row++ {
		parts := make([]string, len(vars))
		for i := range vars {
			parts[i] = columns[i][row]
		}
		key := strings.Join(parts, keySep)
		if _, seen := cfg.levelRows[key]; !seen {
			cfg.levelKeys = append(cfg.levelKeys, key)
			for i, name := range vars {
				cfg.varLevels[name] = append(cfg.varLevels[name], parts[i])
			}
		}
		cfg.levelRows[key] = append(cfg.levelRows[key], row)
	}

	for name, min := range minUnique {
		levels, ok := cfg.varLevels[name]
		if !ok {
			return nil, errors.NewConfigError("unique minimum for %q, which is not a selected grouping variable", name)
		}
		if min > distinctCount(levels) {
			return nil, errors.NewConfigError("unique minimum %d for %q exceeds its %d distinct levels",
				min, name, distinctCount(levels))
		}
		if min > cfg.drawSize() {
			return nil, errors.NewConfigError("unique minimum %d for %q exceeds the draw size %d",
				min, name, cfg.drawSize())
		}
	}
	cfg.minUnique = minUnique
	return cfg, nil
}

// drawSize is the number of units drawn per resample: |L| levels or N rows,
// less one under narrowness avoidance. Drawing exactly n with replacement
// under-disperses the bootstrap distribution; n-1 corrects it.
func (c *drawConfig) drawSize() int {
	n := c.rows
	if len(c.blockVars) > 0 {
		n = len(c.levelKeys)
	}
	if c.narrowAvoid && n > 1 {
		n--
	}
	return n
}

// generateIndices produces row indices for one resample. Pure over cfg: all
// randomness comes from rng, so a seeded RNG reproduces the draw exactly.
func generateIndices(cfg *drawConfig, rng *rand.Rand) ([]int, error) {
	if len(cfg.blockVars) == 0 {
		return caseIndices(cfg, rng), nil
	}
	return blockIndices(cfg, rng)
}

// caseIndices draws rows with replacement.
func caseIndices(cfg *drawConfig, rng *rand.Rand) []int {
	n := cfg.drawSize()
	out := make([]int, n)
	for i := range out {
		out[i] = rng.IntN(cfg.rows)
	}
	return out
}

// blockIndices draws whole level combinations with replacement and expands
// them into rows. A level drawn twice contributes its rows twice, preserving
// within-group structure and group size. Minimum-unique constraints are
// enforced by rejection sampling with bounded redraws.
func blockIndices(cfg *drawConfig, rng *rand.Rand) ([]int, error) {
	k := cfg.drawSize()
	draw := make([]int, k)
	for attempt := 0; ; attempt++ {
		if attempt >= maxUniqueRedraws {
			return nil, errors.NewConfigError(
				"could not satisfy unique minimums %v within %d redraws", cfg.minUnique, maxUniqueRedraws)
		}
		for i := range draw {
			draw[i] = rng.IntN(len(cfg.levelKeys))
		}
		if cfg.satisfiesMinimums(draw) {
			break
		}
	}

	var out []int
	for _, levelIdx := range draw {
		out = append(out, cfg.levelRows[cfg.levelKeys[levelIdx]]...)
	}
	return out, nil
}

func (c *drawConfig) satisfiesMinimums(draw []int) bool {
	for name, min := range c.minUnique {
		seen := make(map[string]struct{}, min)
		levels := c.varLevels[name]
		for _, levelIdx := range draw {
			seen[levels[levelIdx]] = struct{}{}
		}
		if len(seen) < min {
			return false
		}
	}
	return true
}

func distinctCount(values []string) int {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}
