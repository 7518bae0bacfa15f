package ncio

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
)

// MetaFields is the per-tile metadata row width: center row, center col,
// label flag, originating track sample index (-1 for unlabelled tiles).
const MetaFields = 4

// WriteTileBatch writes a batch of n (channels, size, size) tiles and their
// metadata rows to a NetCDF file. n must be positive; callers skip empty
// batches.
func WriteTileBatch(path string, n, channels, size int, data []float32, meta []float32) error {
	if n <= 0 {
		return fmt.Errorf("tile batch must be non-empty, got %d tiles", n)
	}
	if len(data) != n*channels*size*size {
		return fmt.Errorf("tile data length %d does not match %d tiles of (%d,%d,%d)", len(data), n, channels, size, size)
	}
	if len(meta) != n*MetaFields {
		return fmt.Errorf("tile metadata length %d does not match %d tiles", len(meta), n)
	}

	h := cdf.NewHeader(
		[]string{"tile", "channel", "y", "x", "meta_field"},
		[]int{n, channels, size, size, MetaFields},
	)
	h.AddVariable("tiles", []string{"tile", "channel", "y", "x"}, []float32{0})
	h.AddVariable("metadata", []string{"tile", "meta_field"}, []float32{0})
	h.Define()

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer w.Close()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("writing NetCDF header of %s: %w", path, err)
	}
	if err := writeVariable32(f, "tiles", data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := writeVariable32(f, "metadata", meta); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return cdf.UpdateNumRecs(w)
}

// ReadTileBatch reads back a tile batch written by WriteTileBatch.
func ReadTileBatch(path string) (n, channels, size int, data, meta []float32, err error) {
	f, closer, err := open(path)
	if err != nil {
		return 0, 0, 0, nil, nil, err
	}
	defer closer.Close()

	dims := f.Header.Lengths("tiles")
	if len(dims) != 4 {
		return 0, 0, 0, nil, nil, fmt.Errorf("%s: variable tiles has %d dims, want 4", path, len(dims))
	}
	n, channels, size = dims[0], dims[1], dims[2]

	data = make([]float32, n*channels*size*size)
	r := f.Reader("tiles", nil, nil)
	if _, err := r.Read(data); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("%s: reading tiles: %w", path, err)
	}

	meta = make([]float32, n*MetaFields)
	r = f.Reader("metadata", nil, nil)
	if _, err := r.Read(meta); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("%s: reading metadata: %w", path, err)
	}
	return n, channels, size, data, meta, nil
}
