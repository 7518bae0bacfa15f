package ncio

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/ctessum/sparse"
)

// WritePNG encodes a (3, row, col) grid as an RGB PNG. Values are expected
// in 0..255; out-of-range values are clamped.
func WritePNG(path string, rgb *sparse.DenseArray) error {
	if rgb == nil || len(rgb.Shape) != 3 || rgb.Shape[0] != 3 {
		return fmt.Errorf("expected (3, row, col) grid for PNG export")
	}
	rows, cols := rgb.Shape[1], rgb.Shape[2]
	plane := rows * cols

	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			img.SetNRGBA(c, r, color.NRGBA{
				R: clampByte(rgb.Elements[i]),
				G: clampByte(rgb.Elements[plane+i]),
				B: clampByte(rgb.Elements[2*plane+i]),
				A: 255,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}
