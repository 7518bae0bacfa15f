package interp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cumulus-data/swath.report/internal/testutil"
)

func TestFillAllChannels_InteriorGap(t *testing.T) {
	t.Parallel()

	grid := testutil.Grid(1, 2, 5, func(_, _, c int) float64 { return float64(c) })
	grid.Set(math.NaN(), 0, 0, 2)

	filled, err := FillAllChannels(grid)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, filled)
	assert.InDelta(t, 2, grid.Get(0, 0, 2), 1e-9)
}

func TestFillAllChannels_EdgeGapsTakeNearestValue(t *testing.T) {
	t.Parallel()

	grid := testutil.Grid(1, 1, 4, func(_, _, c int) float64 { return float64(c) * 10 })
	grid.Set(math.NaN(), 0, 0, 0)
	grid.Set(math.NaN(), 0, 0, 3)

	filled, err := FillAllChannels(grid)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, filled)
	assert.InDelta(t, 10, grid.Get(0, 0, 0), 1e-9)
	assert.InDelta(t, 20, grid.Get(0, 0, 3), 1e-9)
}

func TestFillAllChannels_ColumnPassRescuesEmptyRow(t *testing.T) {
	t.Parallel()

	// Row 1 is entirely missing; the column pass fills it from rows 0 and 2.
	grid := testutil.Grid(1, 3, 3, func(_, r, _ int) float64 { return float64(r) })
	for c := 0; c < 3; c++ {
		grid.Set(math.NaN(), 0, 1, c)
	}

	filled, err := FillAllChannels(grid)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, filled)
	for c := 0; c < 3; c++ {
		assert.InDelta(t, 1, grid.Get(0, 1, c), 1e-9)
	}
}

func TestFillAllChannels_AllNaNChannelUnreported(t *testing.T) {
	t.Parallel()

	grid := testutil.Grid(3, 2, 2, func(ch, _, _ int) float64 {
		if ch == 1 {
			return math.NaN()
		}
		return 1
	})

	filled, err := FillAllChannels(grid)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, filled)
	assert.True(t, math.IsNaN(grid.Get(1, 0, 0)), "dead channel must stay untouched")
}

func TestFillAllChannels_RejectsNonGrid(t *testing.T) {
	t.Parallel()

	_, err := FillAllChannels(testutil.Plane(2, 2, nil))
	assert.Error(t, err)
}
