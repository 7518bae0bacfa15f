package level2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctessum/sparse"

	"github.com/cumulus-data/swath.report/internal/config"
	"github.com/cumulus-data/swath.report/internal/testutil"
)

func derivedFixture(t *testing.T, cfg *config.PipelineConfig, rows, cols int) (radPath, derivedDir string) {
	t.Helper()

	radDir := t.TempDir()
	radPath = testutil.WriteRadianceGranule(t, radDir, cfg.RadianceVariableName(),
		testutil.Grid(1, rows, cols, nil))

	derivedDir = t.TempDir()
	vars := make(map[string]*sparse.DenseArray)
	for i, name := range cfg.DerivedVariableNames() {
		offset := float64(i * 100)
		vars[name] = testutil.Plane(rows, cols, func(_, r, c int) float64 {
			return offset + float64(r*cols+c)
		})
	}
	testutil.WriteGranule(t, derivedDir, "CLDPROP", vars)
	return radPath, derivedDir
}

func TestLoadDerived(t *testing.T) {
	t.Parallel()

	cfg := &config.PipelineConfig{}
	const rows, cols = 3, 4
	radPath, derivedDir := derivedFixture(t, cfg, rows, cols)

	derived, err := NewLoader(cfg).LoadDerived(radPath, derivedDir)
	require.NoError(t, err)

	names := cfg.DerivedVariableNames()
	require.Equal(t, []int{len(names), rows, cols}, derived.Shape)
	for i := range names {
		assert.InDelta(t, float64(i*100+5), derived.Get(i, 1, 1), 1e-6)
	}
}

func TestLoadDerived_ShapeMismatch(t *testing.T) {
	t.Parallel()

	cfg := &config.PipelineConfig{}
	radDir := t.TempDir()
	radPath := testutil.WriteRadianceGranule(t, radDir, cfg.RadianceVariableName(),
		testutil.Grid(1, 3, 3, nil))

	derivedDir := t.TempDir()
	names := cfg.DerivedVariableNames()
	vars := map[string]*sparse.DenseArray{names[0]: testutil.Plane(3, 3, nil)}
	for _, name := range names[1:] {
		vars[name] = testutil.Plane(2, 3, nil)
	}
	testutil.WriteGranule(t, derivedDir, "CLDPROP", vars)

	_, err := NewLoader(cfg).LoadDerived(radPath, derivedDir)
	assert.Error(t, err)
}

func TestLoadCloudMask(t *testing.T) {
	t.Parallel()

	cfg := &config.PipelineConfig{}
	radDir := t.TempDir()
	radPath := testutil.WriteRadianceGranule(t, radDir, cfg.RadianceVariableName(),
		testutil.Grid(1, 2, 3, nil))

	maskDir := t.TempDir()
	mask := testutil.Plane(2, 3, func(_, r, c int) float64 {
		return float64((r + c) % 2)
	})
	testutil.WriteGranule(t, maskDir, "CLDMSK", map[string]*sparse.DenseArray{
		cfg.MaskVariableName(): mask,
	})

	got, err := NewLoader(cfg).LoadCloudMask(radPath, maskDir)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, got.Shape)
	assert.InDelta(t, 1, got.Get(0, 1), 1e-6)
	assert.InDelta(t, 0, got.Get(1, 1), 1e-6)
}

func TestLoadCloudMask_MissingCompanion(t *testing.T) {
	t.Parallel()

	cfg := &config.PipelineConfig{}
	radDir := t.TempDir()
	radPath := testutil.WriteRadianceGranule(t, radDir, cfg.RadianceVariableName(),
		testutil.Grid(1, 2, 2, nil))

	_, err := NewLoader(cfg).LoadCloudMask(radPath, t.TempDir())
	assert.Error(t, err)
}
