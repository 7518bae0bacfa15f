package track

import (
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cumulus-data/swath.report/internal/config"
	"github.com/cumulus-data/swath.report/internal/swath"
	"github.com/cumulus-data/swath.report/internal/testutil"
)

func series(vals ...float64) *sparse.DenseArray {
	a := sparse.ZerosDense(len(vals))
	copy(a.Elements, vals)
	return a
}

// trackFixture writes a track granule with five samples, the middle three
// inside a 10x10 swath whose coordinates are testutil.LinearCoords.
func trackFixture(t *testing.T, dir string, extraVars map[string]*sparse.DenseArray) {
	t.Helper()

	vars := map[string]*sparse.DenseArray{
		LatitudeVariable:  series(-2, 0.32, 0.41, 0.48, 7),
		LongitudeVariable: series(-2, 0.51, 0.53, 0.58, 7),
	}
	for name, a := range extraVars {
		vars[name] = a
	}
	testutil.WriteGranule(t, dir, "CSLIDAR", vars)
}

func radianceFixture(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "RAD1KM."+testutil.Stamp+".061.nc")
}

func TestAlign(t *testing.T) {
	t.Parallel()

	cfg := &config.PipelineConfig{}
	lidarDir := t.TempDir()
	trackFixture(t, lidarDir, map[string]*sparse.DenseArray{
		"cloud_layers":     series(9, 1, 2, 3, 9),
		"cloud_layer_base": series(9, 10, 20, 30, 9),
		"cloud_layer_top":  series(9, 11, 22, 33, 9),
	})

	lat, lon := testutil.LinearCoords(10, 10)
	rec, err := NewAligner(cfg).Align(radianceFixture(t), lidarDir, t.TempDir(), lat, lon)
	require.NoError(t, err)
	require.NotNil(t, rec)

	// Samples 1..3 fall inside; nearest pixels from lat=r/10, lon=c/10.
	assert.Equal(t, []swath.PixelCoord{
		{Row: 3, Col: 5},
		{Row: 4, Col: 5},
		{Row: 5, Col: 6},
	}, rec.Mapping)
	assert.Equal(t, [2]int{5, 6}, rec.Span)
	assert.Equal(t, []float64{1, 2, 3}, rec.Variables["cloud_layers"])
	assert.Equal(t, []float64{10, 20, 30}, rec.Variables["cloud_layer_base"])
	assert.Equal(t, []float64{11, 22, 33}, rec.Variables["cloud_layer_top"])
}

func TestAlign_VariablesSplitAcrossRoots(t *testing.T) {
	t.Parallel()

	cfg := &config.PipelineConfig{}
	lidarDir := t.TempDir()
	trackFixture(t, lidarDir, map[string]*sparse.DenseArray{
		"cloud_layers": series(9, 1, 2, 3, 9),
	})
	profileDir := t.TempDir()
	testutil.WriteGranule(t, profileDir, "CSPROF", map[string]*sparse.DenseArray{
		"cloud_layer_base": series(9, 10, 20, 30, 9),
		"cloud_layer_top":  series(9, 11, 22, 33, 9),
	})

	lat, lon := testutil.LinearCoords(10, 10)
	rec, err := NewAligner(cfg).Align(radianceFixture(t), lidarDir, profileDir, lat, lon)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30}, rec.Variables["cloud_layer_base"])
}

func TestAlign_NoGranule(t *testing.T) {
	t.Parallel()

	cfg := &config.PipelineConfig{}
	lat, lon := testutil.LinearCoords(4, 4)
	_, err := NewAligner(cfg).Align(radianceFixture(t), t.TempDir(), t.TempDir(), lat, lon)
	assert.Error(t, err)
}

func TestAlign_NoOverlap(t *testing.T) {
	t.Parallel()

	cfg := &config.PipelineConfig{}
	lidarDir := t.TempDir()
	testutil.WriteGranule(t, lidarDir, "CSLIDAR", map[string]*sparse.DenseArray{
		LatitudeVariable:  series(40, 41),
		LongitudeVariable: series(40, 41),
		"cloud_layers":    series(1, 2),
	})

	lat, lon := testutil.LinearCoords(4, 4)
	_, err := NewAligner(cfg).Align(radianceFixture(t), lidarDir, t.TempDir(), lat, lon)
	assert.Error(t, err)
}

func TestAlign_MissingVariable(t *testing.T) {
	t.Parallel()

	cfg := &config.PipelineConfig{}
	lidarDir := t.TempDir()
	trackFixture(t, lidarDir, map[string]*sparse.DenseArray{
		"cloud_layers": series(9, 1, 2, 3, 9),
		// cloud_layer_base and cloud_layer_top absent everywhere.
	})

	lat, lon := testutil.LinearCoords(10, 10)
	_, err := NewAligner(cfg).Align(radianceFixture(t), lidarDir, t.TempDir(), lat, lon)
	assert.Error(t, err)
}
