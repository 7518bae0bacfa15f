// Package swath defines the data model shared by the fusion pipeline: the
// swath grid, the fused tensor, the usability tag and the track alignment
// record.
package swath

import (
	"errors"
	"fmt"

	"github.com/ctessum/sparse"
)

// ErrShapeMismatch reports a loader grid whose spatial extents do not match
// the swath grid.
var ErrShapeMismatch = errors.New("grid shape mismatch")

// NewGrid allocates a zeroed (channel, row, col) grid.
func NewGrid(channels, rows, cols int) *sparse.DenseArray {
	return sparse.ZerosDense(channels, rows, cols)
}

// GridDims returns the (channel, row, col) extents of a 3-d grid.
func GridDims(a *sparse.DenseArray) (channels, rows, cols int, err error) {
	if a == nil || len(a.Shape) != 3 {
		return 0, 0, 0, fmt.Errorf("expected 3-d grid, got shape %v", shapeOf(a))
	}
	return a.Shape[0], a.Shape[1], a.Shape[2], nil
}

// Channel copies channel ch of a (channel, row, col) grid into a new
// (row, col) array.
func Channel(a *sparse.DenseArray, ch int) (*sparse.DenseArray, error) {
	channels, rows, cols, err := GridDims(a)
	if err != nil {
		return nil, err
	}
	if ch < 0 || ch >= channels {
		return nil, fmt.Errorf("channel %d outside grid of %d channels", ch, channels)
	}
	out := sparse.ZerosDense(rows, cols)
	base := ch * rows * cols
	copy(out.Elements, a.Elements[base:base+rows*cols])
	return out, nil
}

// CoordChannels returns copies of the two trailing coordinate channels
// (latitude-like, longitude-like) of a swath grid.
func CoordChannels(a *sparse.DenseArray) (lat, lon *sparse.DenseArray, err error) {
	channels, _, _, err := GridDims(a)
	if err != nil {
		return nil, nil, err
	}
	if channels < 2 {
		return nil, nil, fmt.Errorf("grid has %d channels, need at least 2 coordinate channels", channels)
	}
	lat, err = Channel(a, channels-2)
	if err != nil {
		return nil, nil, err
	}
	lon, err = Channel(a, channels-1)
	if err != nil {
		return nil, nil, err
	}
	return lat, lon, nil
}

// SpatialMatch verifies that b's trailing (row, col) extents equal the swath
// grid's. b may be 2-d (a mask) or 3-d (a channel stack).
func SpatialMatch(grid, b *sparse.DenseArray) error {
	_, rows, cols, err := GridDims(grid)
	if err != nil {
		return err
	}
	shape := shapeOf(b)
	if len(shape) < 2 || len(shape) > 3 {
		return fmt.Errorf("%w: expected 2-d or 3-d array, got shape %v", ErrShapeMismatch, shape)
	}
	br, bc := shape[len(shape)-2], shape[len(shape)-1]
	if br != rows || bc != cols {
		return fmt.Errorf("%w: got %dx%d, swath is %dx%d", ErrShapeMismatch, br, bc, rows, cols)
	}
	return nil
}

func shapeOf(a *sparse.DenseArray) []int {
	if a == nil {
		return nil
	}
	return a.Shape
}
