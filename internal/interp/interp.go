// Package interp fills missing pixels in swath grids by piecewise-linear
// interpolation along rows, with a column pass for gaps the row pass cannot
// reach.
package interp

import (
	"math"
	"sort"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/interp"

	"github.com/cumulus-data/swath.report/internal/swath"
)

// FillAllChannels fills NaN pixels of every channel of grid in place and
// returns the sorted indices of channels that are fully valid afterwards.
// Channels with no valid pixel at all cannot be filled and are left
// untouched.
func FillAllChannels(grid *sparse.DenseArray) ([]int, error) {
	channels, rows, cols, err := swath.GridDims(grid)
	if err != nil {
		return nil, err
	}

	plane := rows * cols
	filled := make([]int, 0, channels)
	for ch := 0; ch < channels; ch++ {
		seg := grid.Elements[ch*plane : (ch+1)*plane]
		fillChannel(seg, rows, cols)
		if fullyValid(seg) {
			filled = append(filled, ch)
		}
	}
	sort.Ints(filled)
	return filled, nil
}

// fillChannel runs a row pass then a column pass over one (rows, cols)
// channel plane.
func fillChannel(seg []float64, rows, cols int) {
	line := make([]float64, cols)
	for r := 0; r < rows; r++ {
		copy(line, seg[r*cols:(r+1)*cols])
		if fillLine(line) {
			copy(seg[r*cols:(r+1)*cols], line)
		}
	}

	col := make([]float64, rows)
	for c := 0; c < cols; c++ {
		dirty := false
		for r := 0; r < rows; r++ {
			col[r] = seg[r*cols+c]
			if math.IsNaN(col[r]) {
				dirty = true
			}
		}
		if !dirty || !fillLine(col) {
			continue
		}
		for r := 0; r < rows; r++ {
			seg[r*cols+c] = col[r]
		}
	}
}

// fillLine replaces NaN entries of line by interpolating between its valid
// entries. Edge gaps take the nearest valid value. Returns false when the
// line has no valid entry to interpolate from.
func fillLine(line []float64) bool {
	xs := make([]float64, 0, len(line))
	ys := make([]float64, 0, len(line))
	for i, v := range line {
		if !math.IsNaN(v) {
			xs = append(xs, float64(i))
			ys = append(ys, v)
		}
	}
	switch {
	case len(xs) == 0:
		return false
	case len(xs) == len(line):
		return true
	case len(xs) == 1:
		for i := range line {
			line[i] = ys[0]
		}
		return true
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return false
	}
	first, last := int(xs[0]), int(xs[len(xs)-1])
	for i := range line {
		switch {
		case !math.IsNaN(line[i]):
		case i < first:
			line[i] = ys[0]
		case i > last:
			line[i] = ys[len(ys)-1]
		default:
			line[i] = pl.Predict(float64(i))
		}
	}
	return true
}

func fullyValid(seg []float64) bool {
	for _, v := range seg {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}
