package monitor

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cumulus-data/swath.report/internal/catalog"
	"github.com/cumulus-data/swath.report/internal/testutil"
)

func TestChannelValidity(t *testing.T) {
	t.Parallel()

	grid := testutil.Grid(2, 2, 2, func(ch, r, c int) float64 {
		if ch == 1 && r == 0 {
			return math.NaN()
		}
		return 1
	})

	fractions, err := ChannelValidity(grid)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0.5}, fractions)

	_, err = ChannelValidity(testutil.Plane(2, 2, nil))
	assert.Error(t, err)
}

func TestPlotChannelValidity(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "validity.png")
	require.NoError(t, PlotChannelValidity(path, testutil.Grid(3, 4, 4, nil)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestWriteCatalogReport(t *testing.T) {
	t.Parallel()

	dist := []catalog.TagCount{
		{Tag: "corrupt", Count: 1},
		{Tag: "daylight", Count: 4},
		{Tag: "night", Count: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCatalogReport(&buf, dist, 120, 96))

	html := buf.String()
	assert.Contains(t, html, "daylight")
	assert.Contains(t, html, "Extracted swaths")
	assert.Contains(t, html, "Sample tiles")
}
