package boot

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rserrors "github.com/teranos/resample/errors"
	"github.com/teranos/resample/frame"
)

func rowsFrame(t *testing.T, n int) *frame.Frame {
	t.Helper()
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i)
	}
	f := frame.New()
	require.NoError(t, f.AddFloats("y", vals))
	return f
}

// blockFrame has n rows spread over m levels of "site".
func blockFrame(t *testing.T, n, m int) *frame.Frame {
	t.Helper()
	site := make([]string, n)
	for i := range site {
		site[i] = fmt.Sprintf("s%02d", i%m)
	}
	f := frame.New()
	require.NoError(t, f.AddLabels("site", site))
	return f
}

func testRNG(stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(42, stream))
}

func TestCaseResamplingNarrownessAvoidance(t *testing.T) {
	cfg, err := newDrawConfig(rowsFrame(t, 50), nil, nil, true)
	require.NoError(t, err)

	for stream := uint64(0); stream < 200; stream++ {
		indices, err := generateIndices(cfg, testRNG(stream))
		require.NoError(t, err)
		require.Len(t, indices, 49, "narrowness avoidance draws N-1")
		for _, idx := range indices {
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, 50)
		}
	}
}

func TestCaseResamplingFrequenciesConvergeToUniform(t *testing.T) {
	cfg, err := newDrawConfig(rowsFrame(t, 50), nil, nil, true)
	require.NoError(t, err)

	counts := make([]int, 50)
	total := 0
	for stream := uint64(0); stream < 2000; stream++ {
		indices, err := generateIndices(cfg, testRNG(stream))
		require.NoError(t, err)
		for _, idx := range indices {
			counts[idx]++
			total++
		}
	}

	expected := float64(total) / 50
	for idx, c := range counts {
		assert.InDelta(t, expected, float64(c), expected*0.15, "row %d drawn %d times", idx, c)
	}
}

func TestCaseResamplingWithoutNarrownessAvoidance(t *testing.T) {
	cfg, err := newDrawConfig(rowsFrame(t, 50), nil, nil, false)
	require.NoError(t, err)
	indices, err := generateIndices(cfg, testRNG(1))
	require.NoError(t, err)
	assert.Len(t, indices, 50)
}

func TestBlockResamplingPreservesGroupStructure(t *testing.T) {
	f := blockFrame(t, 40, 8) // 8 levels, 5 rows each
	cfg, err := newDrawConfig(f, []string{"site"}, nil, false)
	require.NoError(t, err)

	site, err := f.Labels("site")
	require.NoError(t, err)

	indices, err := generateIndices(cfg, testRNG(3))
	require.NoError(t, err)
	// 8 levels drawn with replacement, 5 rows each.
	assert.Len(t, indices, 40)

	// Every drawn level contributes all of its rows: per-level counts are
	// multiples of the group size.
	perLevel := make(map[string]int)
	for _, idx := range indices {
		perLevel[site[idx]]++
	}
	for level, c := range perLevel {
		assert.Zero(t, c%5, "level %s contributed %d rows, not a multiple of its size", level, c)
	}
}

func TestBlockResamplingNarrownessAvoidanceDrawsOneFewerLevel(t *testing.T) {
	f := blockFrame(t, 40, 8)
	cfg, err := newDrawConfig(f, []string{"site"}, nil, true)
	require.NoError(t, err)

	indices, err := generateIndices(cfg, testRNG(7))
	require.NoError(t, err)
	// 7 levels of 5 rows each.
	assert.Len(t, indices, 35)
}

func TestBlockResamplingUniqueMinimum(t *testing.T) {
	f := blockFrame(t, 60, 6)
	cfg, err := newDrawConfig(f, []string{"site"}, map[string]int{"site": 4}, false)
	require.NoError(t, err)

	site, err := f.Labels("site")
	require.NoError(t, err)

	for stream := uint64(0); stream < 100; stream++ {
		indices, err := generateIndices(cfg, testRNG(stream))
		require.NoError(t, err)
		distinct := make(map[string]struct{})
		for _, idx := range indices {
			distinct[site[idx]] = struct{}{}
		}
		assert.GreaterOrEqual(t, len(distinct), 4)
	}
}

func TestUniqueMinimumExceedingLevelsIsConfigError(t *testing.T) {
	f := blockFrame(t, 30, 3)
	_, err := newDrawConfig(f, []string{"site"}, map[string]int{"site": 4}, false)
	require.Error(t, err)
	assert.True(t, rserrors.IsConfigError(err))
}

func TestUniqueMinimumForUnselectedVariableIsConfigError(t *testing.T) {
	f := blockFrame(t, 30, 3)
	_, err := newDrawConfig(f, []string{"site"}, map[string]int{"ward": 2}, false)
	require.Error(t, err)
	assert.True(t, rserrors.IsConfigError(err))

	_, err = newDrawConfig(rowsFrame(t, 30), nil, map[string]int{"site": 2}, false)
	require.Error(t, err)
	assert.True(t, rserrors.IsConfigError(err))
}

func TestMultiVariableBlockLevelCombinations(t *testing.T) {
	f := frame.New()
	require.NoError(t, f.AddLabels("a", []string{"x", "x", "y", "y", "x", "y"}))
	require.NoError(t, f.AddLabels("b", []string{"1", "2", "1", "2", "1", "1"}))
	// Level combinations: x/1 (rows 0,4), x/2 (1), y/1 (2,5), y/2 (3).
	cfg, err := newDrawConfig(f, []string{"a", "b"}, nil, false)
	require.NoError(t, err)
	assert.Len(t, cfg.levelKeys, 4)
	assert.ElementsMatch(t, []int{0, 4}, cfg.levelRows["x"+keySep+"1"])
	assert.ElementsMatch(t, []int{3}, cfg.levelRows["y"+keySep+"2"])
}

func TestGenerateIndicesIsDeterministicForSeededRNG(t *testing.T) {
	cfg, err := newDrawConfig(rowsFrame(t, 20), nil, nil, true)
	require.NoError(t, err)

	a, err := generateIndices(cfg, testRNG(9))
	require.NoError(t, err)
	b, err := generateIndices(cfg, testRNG(9))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEmptyFrameIsConfigError(t *testing.T) {
	f := frame.New()
	_, err := newDrawConfig(f, nil, nil, true)
	require.Error(t, err)
	assert.True(t, rserrors.IsConfigError(err))
}
