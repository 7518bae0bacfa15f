package ncio

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cumulus-data/swath.report/internal/swath"
)

func TestWriteReadArrays(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.nc")

	lat := sparse.ZerosDense(2, 3)
	lon := sparse.ZerosDense(2, 3)
	for i := range lat.Elements {
		lat.Elements[i] = float64(i) * 0.5
		lon.Elements[i] = -float64(i)
	}

	err := WriteArrays(path, map[string]*sparse.DenseArray{
		"latitude":  lat,
		"longitude": lon,
	}, map[string]string{"source": "test"})
	require.NoError(t, err)

	got, err := ReadArray(path, "latitude")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, got.Shape)
	assert.InDeltaSlice(t, lat.Elements, got.Elements, 1e-6)

	both, err := ReadArrays(path, "latitude", "longitude")
	require.NoError(t, err)
	assert.InDeltaSlice(t, lon.Elements, both["longitude"].Elements, 1e-6)

	_, err = ReadArray(path, "altitude")
	assert.Error(t, err)
}

func TestWriteReadSwath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "A2008.153.1355.nc")

	tensor := swath.NewTensor(4, 2, 3)
	for i := range tensor.Data {
		tensor.Data[i] = float32(i)
	}
	rec := &swath.TrackRecord{
		Span:    [2]int{1, 2},
		Mapping: []swath.PixelCoord{{Row: 0, Col: 1}, {Row: 1, Col: 2}},
		Variables: map[string][]float64{
			"cloud_layers": {2, 3},
		},
	}

	require.NoError(t, WriteSwath(path, tensor, rec, "RAD.A2008153.1355.nc", swath.TagNight))

	got, gotRec, err := ReadSwath(path)
	require.NoError(t, err)
	assert.Equal(t, tensor.Channels, got.Channels)
	assert.Equal(t, tensor.Rows, got.Rows)
	assert.Equal(t, tensor.Cols, got.Cols)
	assert.Equal(t, tensor.Data, got.Data)

	require.NotNil(t, gotRec)
	if diff := cmp.Diff(rec, gotRec); diff != "" {
		t.Errorf("track record round trip mismatch (-want +got):\n%s", diff)
	}

	src, err := SourceGranule(path)
	require.NoError(t, err)
	assert.Equal(t, "RAD.A2008153.1355.nc", src)
}

func TestWriteReadSwath_NoTrack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "A2008.153.1400.nc")

	tensor := swath.NewTensor(2, 2, 2)
	require.NoError(t, WriteSwath(path, tensor, nil, "RAD.A2008153.1400.nc", swath.TagCorrupt))

	_, gotRec, err := ReadSwath(path)
	require.NoError(t, err)
	assert.Nil(t, gotRec, "absent alignment must read back as nil, not an empty record")
}

func TestWriteReadTileBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "tiles.nc")

	const n, channels, size = 2, 3, 3
	data := make([]float32, n*channels*size*size)
	for i := range data {
		data[i] = float32(i)
	}
	meta := []float32{1, 2, 1, 0, 4, 5, 0, -1}

	require.NoError(t, WriteTileBatch(path, n, channels, size, data, meta))

	gotN, gotC, gotS, gotData, gotMeta, err := ReadTileBatch(path)
	require.NoError(t, err)
	assert.Equal(t, n, gotN)
	assert.Equal(t, channels, gotC)
	assert.Equal(t, size, gotS)
	assert.Equal(t, data, gotData)
	assert.Equal(t, meta, gotMeta)
}

func TestWriteTileBatch_Invalid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "tiles.nc")

	assert.Error(t, WriteTileBatch(path, 0, 3, 3, nil, nil))
	assert.Error(t, WriteTileBatch(path, 1, 3, 3, make([]float32, 5), make([]float32, MetaFields)))
	assert.Error(t, WriteTileBatch(path, 1, 1, 2, make([]float32, 4), make([]float32, 3)))
}

func TestWritePNG(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "quicklook.png")

	rgb := sparse.ZerosDense(3, 2, 2)
	rgb.Elements[0] = 300 // clamps to 255
	rgb.Elements[4] = -5  // clamps to 0
	rgb.Elements[8] = 128

	require.NoError(t, WritePNG(path, rgb))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	assert.Error(t, WritePNG(filepath.Join(dir, "bad.png"), sparse.ZerosDense(2, 2)))
}
