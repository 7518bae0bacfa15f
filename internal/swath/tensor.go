package swath

import (
	"fmt"

	"github.com/ctessum/sparse"
)

// Tensor is the fused output product: the swath grid with derived channels
// and the cloud mask stacked along the channel axis, reduced to float32.
type Tensor struct {
	Channels int
	Rows     int
	Cols     int
	Data     []float32
}

// NewTensor allocates a zeroed tensor.
func NewTensor(channels, rows, cols int) *Tensor {
	return &Tensor{
		Channels: channels,
		Rows:     rows,
		Cols:     cols,
		Data:     make([]float32, channels*rows*cols),
	}
}

// At returns the value at (channel, row, col).
func (t *Tensor) At(ch, r, c int) float32 {
	return t.Data[(ch*t.Rows+r)*t.Cols+c]
}

// Set stores v at (channel, row, col).
func (t *Tensor) Set(v float32, ch, r, c int) {
	t.Data[(ch*t.Rows+r)*t.Cols+c] = v
}

// Stack concatenates the swath grid, the derived channel stack and the cloud
// mask along the channel axis and casts the result to float32. The derived
// and mask arrays must match the grid's spatial extents.
func Stack(grid, derived, mask *sparse.DenseArray) (*Tensor, error) {
	gc, rows, cols, err := GridDims(grid)
	if err != nil {
		return nil, err
	}
	dc, _, _, err := GridDims(derived)
	if err != nil {
		return nil, err
	}
	if err := SpatialMatch(grid, derived); err != nil {
		return nil, fmt.Errorf("derived channels: %w", err)
	}
	if err := SpatialMatch(grid, mask); err != nil {
		return nil, fmt.Errorf("cloud mask: %w", err)
	}
	if len(mask.Shape) != 2 {
		return nil, fmt.Errorf("cloud mask: %w: expected 2-d mask, got shape %v", ErrShapeMismatch, mask.Shape)
	}

	t := NewTensor(gc+dc+1, rows, cols)
	i := 0
	for _, e := range grid.Elements {
		t.Data[i] = float32(e)
		i++
	}
	for _, e := range derived.Elements {
		t.Data[i] = float32(e)
		i++
	}
	for _, e := range mask.Elements {
		t.Data[i] = float32(e)
		i++
	}
	return t, nil
}

// ChannelSlice returns the backing slice for one channel, without copying.
func (t *Tensor) ChannelSlice(ch int) []float32 {
	base := ch * t.Rows * t.Cols
	return t.Data[base : base+t.Rows*t.Cols]
}
