// Package testutil provides shared granule fixtures for pipeline tests.
//
// This package centralises fixture construction to keep loader, aligner and
// orchestrator tests from each hand-rolling NetCDF files.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"

	"github.com/cumulus-data/swath.report/internal/ncio"
)

// Stamp is the acquisition stamp shared by all fixture granules of a swath.
const Stamp = "A2008153.1355"

// FillFunc computes the value of element (channel, row, col).
type FillFunc func(ch, row, col int) float64

// Grid builds a (channels, rows, cols) array using fill. A nil fill yields
// zeros.
func Grid(channels, rows, cols int, fill FillFunc) *sparse.DenseArray {
	a := sparse.ZerosDense(channels, rows, cols)
	if fill == nil {
		return a
	}
	i := 0
	for ch := 0; ch < channels; ch++ {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				a.Elements[i] = fill(ch, r, c)
				i++
			}
		}
	}
	return a
}

// Plane builds a (rows, cols) array using fill with channel fixed to 0.
func Plane(rows, cols int, fill FillFunc) *sparse.DenseArray {
	a := sparse.ZerosDense(rows, cols)
	if fill == nil {
		return a
	}
	i := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			a.Elements[i] = fill(0, r, c)
			i++
		}
	}
	return a
}

// WriteGranule writes the given variables as a granule named
// "<product>.<Stamp>.061.nc" in dir and returns its path.
func WriteGranule(t *testing.T, dir, product string, vars map[string]*sparse.DenseArray) string {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("%s.%s.061.nc", product, Stamp))
	if err := ncio.WriteArrays(path, vars, nil); err != nil {
		t.Fatalf("writing %s fixture: %v", product, err)
	}
	return path
}

// WriteRadianceGranule writes a radiance granule with the given channel
// stack under the variable name varName.
func WriteRadianceGranule(t *testing.T, dir, varName string, stack *sparse.DenseArray) string {
	t.Helper()
	return WriteGranule(t, dir, "RAD1KM", map[string]*sparse.DenseArray{varName: stack})
}

// WriteGeoGranule writes a geolocation granule with latitude and longitude
// planes.
func WriteGeoGranule(t *testing.T, dir string, lat, lon *sparse.DenseArray) string {
	t.Helper()
	return WriteGranule(t, dir, "GEO", map[string]*sparse.DenseArray{
		"latitude":  lat,
		"longitude": lon,
	})
}

// LinearCoords returns latitude and longitude planes with latitude varying
// by row and longitude varying by column, both in small fractional degrees.
func LinearCoords(rows, cols int) (lat, lon *sparse.DenseArray) {
	lat = Plane(rows, cols, func(_, r, _ int) float64 { return float64(r) * 0.1 })
	lon = Plane(rows, cols, func(_, _, c int) float64 { return float64(c) * 0.1 })
	return lat, lon
}
