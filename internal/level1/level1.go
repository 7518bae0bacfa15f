// Package level1 loads radiance granules and their geolocation companions
// into swath grids.
package level1

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

// Geolocation variable names in companion granules.
const (
	LatitudeVariable  = "latitude"
	LongitudeVariable = "longitude"
)

// Loader reads level-1 products. The zero FS defaults to the OS filesystem.
type Loader struct {
	FS     fsutil.FileSystem
	Config *config.PipelineConfig
}

// NewLoader returns a Loader over the OS filesystem.
func NewLoader(cfg *config.PipelineConfig) *Loader {
	return &Loader{FS: fsutil.OSFileSystem{}, Config: cfg}
}

func (l *Loader) fs() fsutil.FileSystem {
	if l.FS != nil {
		return l.FS
	}
	return fsutil.OSFileSystem{}
}

// LoadSwath reads the radiance granule and its geolocation companion and
// returns the swath grid: the radiance channel stack with the per-pixel
// latitude and longitude appended as the two trailing channels.
func (l *Loader) LoadSwath(radiancePath, geoDir string) (*sparse.DenseArray, error) {
	info, err := granule.ParseTimeInfo(radiancePath)
	if err != nil {
		return nil, err
	}

	rad, err := ncio.ReadArray(radiancePath, l.Config.RadianceVariableName())
	if err != nil {
		return nil, fmt.Errorf("radiance granule %s: %w", filepath.Base(radiancePath), err)
	}
	radChannels, rows, cols, err := swath.GridDims(rad)
	if err != nil {
		return nil, fmt.Errorf("radiance granule %s: %w", filepath.Base(radiancePath), err)
	}
	wantChannels := l.Config.GridChannelCount() - config.CoordChannels
	if radChannels != wantChannels {
		return nil, fmt.Errorf("radiance granule %s: %d channels, configuration expects %d",
			filepath.Base(radiancePath), radChannels, wantChannels)
	}

	geoPath, err := granule.FindCompanion(l.fs(), geoDir, info.Stamp())
	if err != nil {
		return nil, fmt.Errorf("geolocation companion: %w", err)
	}
	geo, err := ncio.ReadArrays(geoPath, LatitudeVariable, LongitudeVariable)
	if err != nil {
		return nil, fmt.Errorf("geolocation granule %s: %w", filepath.Base(geoPath), err)
	}
	lat, lon := geo[LatitudeVariable], geo[LongitudeVariable]
	for name, a := range map[string]*sparse.DenseArray{LatitudeVariable: lat, LongitudeVariable: lon} {
		if len(a.Shape) != 2 || a.Shape[0] != rows || a.Shape[1] != cols {
			return nil, fmt.Errorf("geolocation granule %s: %w: %s is %v, radiance is %dx%d",
				filepath.Base(geoPath), swath.ErrShapeMismatch, name, a.Shape, rows, cols)
		}
	}

	grid := swath.NewGrid(l.Config.GridChannelCount(), rows, cols)
	plane := rows * cols
	copy(grid.Elements, rad.Elements)
	copy(grid.Elements[radChannels*plane:], lat.Elements)
	copy(grid.Elements[(radChannels+1)*plane:], lon.Elements)
	return grid, nil
}

// LoadRGB reads the visible channels of the radiance granule as a
// (3, row, col) grid for quicklook rendering. The configuration must declare
// exactly three visible channels.
func (l *Loader) LoadRGB(radiancePath string) (*sparse.DenseArray, error) {
	visible := l.Config.VisibleChannelSet()
	if len(visible) != 3 {
		return nil, fmt.Errorf("quicklook needs exactly 3 visible channels, configuration declares %d", len(visible))
	}

	rad, err := ncio.ReadArray(radiancePath, l.Config.RadianceVariableName())
	if err != nil {
		return nil, fmt.Errorf("radiance granule %s: %w", filepath.Base(radiancePath), err)
	}
	radChannels, rows, cols, err := swath.GridDims(rad)
	if err != nil {
		return nil, err
	}

	out := swath.NewGrid(3, rows, cols)
	plane := rows * cols
	for i, ch := range visible {
		if ch < 0 || ch >= radChannels {
			return nil, fmt.Errorf("visible channel %d outside radiance stack of %d channels", ch, radChannels)
		}
		copy(out.Elements[i*plane:(i+1)*plane], rad.Elements[ch*plane:(ch+1)*plane])
	}
	return out, nil
}

// ScaleToBytes normalizes each channel of a grid into 0..255 in place, for
// PNG encoding. Channels with no spread map to 0.
func ScaleToBytes(a *sparse.DenseArray) {
	channels, rows, cols, err := swath.GridDims(a)
	if err != nil {
		return
	}
	plane := rows * cols
	for ch := 0; ch < channels; ch++ {
		seg := a.Elements[ch*plane : (ch+1)*plane]
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range seg {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if hi <= lo {
			for i := range seg {
				seg[i] = 0
			}
			continue
		}
		for i, v := range seg {
			if math.IsNaN(v) {
				seg[i] = 0
				continue
			}
			seg[i] = 255 * (v - lo) / (hi - lo)
		}
	}
}
