// Package track aligns narrow-footprint profile measurements from a second
// instrument onto a swath's pixel grid.
package track

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/ctessum/sparse"

	"github.com/cumulus-data/swath.report/internal/config"
	"github.com/cumulus-data/swath.report/internal/fsutil"
	"github.com/cumulus-data/swath.report/internal/granule"
	"github.com/cumulus-data/swath.report/internal/ncio"
	"github.com/cumulus-data/swath.report/internal/swath"
)

// Geolocation variable names in track granules.
const (
	LatitudeVariable  = "latitude"
	LongitudeVariable = "longitude"
)

// searchRadius bounds the local nearest-pixel search window. Consecutive
// track samples are at most a few pixels apart, so a miss at the window
// edge triggers a full re-scan.
const searchRadius = 25

// Aligner maps track samples onto swath pixels. The zero FS defaults to the
// OS filesystem.
type Aligner struct {
	FS     fsutil.FileSystem
	Config *config.PipelineConfig
}

// NewAligner returns an Aligner over the OS filesystem.
func NewAligner(cfg *config.PipelineConfig) *Aligner {
	return &Aligner{FS: fsutil.OSFileSystem{}, Config: cfg}
}

func (a *Aligner) fs() fsutil.FileSystem {
	if a.FS != nil {
		return a.FS
	}
	return fsutil.OSFileSystem{}
}

// Align locates the track granules matching radiancePath in the two
// track-data roots, selects the samples whose geolocation falls inside the
// swath's coordinate extent, and maps each to its nearest swath pixel.
// Any failure is returned as an error; the caller decides whether it is
// fatal.
func (a *Aligner) Align(radiancePath, lidarDir, profileDir string, lat, lon *sparse.DenseArray) (*swath.TrackRecord, error) {
	if len(lat.Shape) != 2 || len(lon.Shape) != 2 ||
		lat.Shape[0] != lon.Shape[0] || lat.Shape[1] != lon.Shape[1] {
		return nil, fmt.Errorf("coordinate channels must be matching 2-d planes")
	}

	info, err := granule.ParseTimeInfo(radiancePath)
	if err != nil {
		return nil, err
	}
	stamp := info.Stamp()

	paths := a.companions(lidarDir, profileDir, stamp)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no track granule for %s in either track root", stamp)
	}

	trackLat, trackLon, err := a.geolocation(paths)
	if err != nil {
		return nil, err
	}

	inside := selectInExtent(trackLat, trackLon, lat, lon)
	if len(inside) == 0 {
		return nil, fmt.Errorf("track %s does not cross the swath extent", stamp)
	}

	mapping := mapToPixels(inside, trackLat, trackLon, lat, lon)

	span := [2]int{mapping[0].Col, mapping[0].Col}
	for _, p := range mapping {
		span[0] = min(span[0], p.Col)
		span[1] = max(span[1], p.Col)
	}

	vars, err := a.variables(paths, inside, len(trackLat))
	if err != nil {
		return nil, err
	}

	return &swath.TrackRecord{Span: span, Mapping: mapping, Variables: vars}, nil
}

// companions returns the track granule paths found for stamp, lidar root
// first. A root without a companion is simply skipped.
func (a *Aligner) companions(lidarDir, profileDir, stamp string) []string {
	var paths []string
	for _, dir := range []string{lidarDir, profileDir} {
		if p, err := granule.FindCompanion(a.fs(), dir, stamp); err == nil {
			paths = append(paths, p)
		}
	}
	return paths
}

// geolocation reads the track latitude/longitude series from the first
// granule that carries both.
func (a *Aligner) geolocation(paths []string) (lat, lon []float64, err error) {
	for _, p := range paths {
		arrays, rerr := ncio.ReadArrays(p, LatitudeVariable, LongitudeVariable)
		if rerr != nil {
			err = fmt.Errorf("track granule %s: %w", filepath.Base(p), rerr)
			continue
		}
		la, lo := arrays[LatitudeVariable], arrays[LongitudeVariable]
		if len(la.Elements) != len(lo.Elements) {
			return nil, nil, fmt.Errorf("track granule %s: latitude/longitude length mismatch", filepath.Base(p))
		}
		return la.Elements, lo.Elements, nil
	}
	return nil, nil, err
}

// variables reads the configured track variables from whichever granule
// carries each, restricted to the in-extent sample indices. A variable
// found in no granule is an error: it indicates a wrong product pairing.
func (a *Aligner) variables(paths []string, inside []int, samples int) (map[string][]float64, error) {
	out := make(map[string][]float64, len(a.Config.TrackVariableNames()))
	for _, name := range a.Config.TrackVariableNames() {
		var series []float64
		for _, p := range paths {
			arr, err := ncio.ReadArray(p, name)
			if err != nil {
				continue
			}
			if len(arr.Elements) != samples {
				return nil, fmt.Errorf("track variable %s: %d values for %d samples",
					name, len(arr.Elements), samples)
			}
			series = arr.Elements
			break
		}
		if series == nil {
			return nil, fmt.Errorf("track variable %s not present in any track granule", name)
		}
		vals := make([]float64, len(inside))
		for i, s := range inside {
			vals[i] = series[s]
		}
		out[name] = vals
	}
	return out, nil
}

// selectInExtent returns the indices of track samples whose coordinates fall
// inside the swath's geographic bounding box.
func selectInExtent(trackLat, trackLon []float64, lat, lon *sparse.DenseArray) []int {
	latLo, latHi := bounds(lat.Elements)
	lonLo, lonHi := bounds(lon.Elements)

	var inside []int
	for i := range trackLat {
		if trackLat[i] >= latLo && trackLat[i] <= latHi &&
			trackLon[i] >= lonLo && trackLon[i] <= lonHi {
			inside = append(inside, i)
		}
	}
	return inside
}

// mapToPixels maps each selected sample to the nearest swath pixel by
// great-circle distance. The first sample is located by a full scan; each
// following sample searches a window around the previous hit and falls back
// to a full scan when the window's best lies on its edge.
func mapToPixels(inside []int, trackLat, trackLon []float64, lat, lon *sparse.DenseArray) []swath.PixelCoord {
	rows, cols := lat.Shape[0], lat.Shape[1]
	mapping := make([]swath.PixelCoord, len(inside))

	prev := swath.PixelCoord{Row: -1}
	for i, s := range inside {
		var p swath.PixelCoord
		if prev.Row < 0 {
			p = scan(trackLat[s], trackLon[s], lat, lon, 0, rows, 0, cols)
		} else {
			r0, r1 := max(0, prev.Row-searchRadius), min(rows, prev.Row+searchRadius+1)
			c0, c1 := max(0, prev.Col-searchRadius), min(cols, prev.Col+searchRadius+1)
			p = scan(trackLat[s], trackLon[s], lat, lon, r0, r1, c0, c1)
			if onEdge(p, r0, r1, c0, c1, rows, cols) {
				p = scan(trackLat[s], trackLon[s], lat, lon, 0, rows, 0, cols)
			}
		}
		mapping[i] = p
		prev = p
	}
	return mapping
}

func scan(tLat, tLon float64, lat, lon *sparse.DenseArray, r0, r1, c0, c1 int) swath.PixelCoord {
	cols := lat.Shape[1]
	best := swath.PixelCoord{Row: r0, Col: c0}
	bestDist := math.Inf(1)
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			i := r*cols + c
			d := haversine(tLat, tLon, lat.Elements[i], lon.Elements[i])
			if d < bestDist {
				bestDist = d
				best = swath.PixelCoord{Row: r, Col: c}
			}
		}
	}
	return best
}

// onEdge reports whether p lies on a window boundary that is not also a grid
// boundary, in which case the true nearest pixel may be outside the window.
func onEdge(p swath.PixelCoord, r0, r1, c0, c1, rows, cols int) bool {
	if (p.Row == r0 && r0 > 0) || (p.Row == r1-1 && r1 < rows) {
		return true
	}
	return (p.Col == c0 && c0 > 0) || (p.Col == c1-1 && c1 < cols)
}

// haversine returns the great-circle distance in radians between two points
// given in degrees. Only relative order matters to the caller.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180
	phi1, phi2 := lat1*degToRad, lat2*degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lon2 - lon1) * degToRad

	s := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * math.Asin(math.Sqrt(s))
}

// bounds returns the min and max of vals, ignoring NaN.
func bounds(vals []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
