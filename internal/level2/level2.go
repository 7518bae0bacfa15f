// Package level2 loads derived geophysical products and cloud masks aligned
// to a swath grid.
package level2

import (
	"fmt"
	"path/filepath"

	"github.com/ctessum/sparse"

	"github.com/cumulus-data/swath.report/internal/config"
	"github.com/cumulus-data/swath.report/internal/fsutil"
	"github.com/cumulus-data/swath.report/internal/granule"
	"github.com/cumulus-data/swath.report/internal/ncio"
	"github.com/cumulus-data/swath.report/internal/swath"
)

// Loader reads level-2 products. The zero FS defaults to the OS filesystem.
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

// LoadDerived reads the derived geophysical variables for the swath
// identified by radiancePath from its companion granule in derivedDir and
// stacks them into a (variable, row, col) grid.
func (l *Loader) LoadDerived(radiancePath, derivedDir string) (*sparse.DenseArray, error) {
	names := l.Config.DerivedVariableNames()
	if len(names) == 0 {
		return nil, fmt.Errorf("configuration declares no derived variables")
	}

	path, err := l.companion(radiancePath, derivedDir)
	if err != nil {
		return nil, fmt.Errorf("derived-product companion: %w", err)
	}
	arrays, err := ncio.ReadArrays(path, names...)
	if err != nil {
		return nil, fmt.Errorf("derived granule %s: %w", filepath.Base(path), err)
	}

	first := arrays[names[0]]
	if len(first.Shape) != 2 {
		return nil, fmt.Errorf("derived granule %s: variable %s has shape %v, want 2-d",
			filepath.Base(path), names[0], first.Shape)
	}
	rows, cols := first.Shape[0], first.Shape[1]

	out := swath.NewGrid(len(names), rows, cols)
	plane := rows * cols
	for i, name := range names {
		a := arrays[name]
		if len(a.Shape) != 2 || a.Shape[0] != rows || a.Shape[1] != cols {
			return nil, fmt.Errorf("derived granule %s: %w: %s is %v, %s is %dx%d",
				filepath.Base(path), swath.ErrShapeMismatch, name, a.Shape, names[0], rows, cols)
		}
		copy(out.Elements[i*plane:(i+1)*plane], a.Elements)
	}
	return out, nil
}

// LoadCloudMask reads the binary cloud mask for the swath identified by
// radiancePath from its companion granule in maskDir.
func (l *Loader) LoadCloudMask(radiancePath, maskDir string) (*sparse.DenseArray, error) {
	path, err := l.companion(radiancePath, maskDir)
	if err != nil {
		return nil, fmt.Errorf("cloud-mask companion: %w", err)
	}
	mask, err := ncio.ReadArray(path, l.Config.MaskVariableName())
	if err != nil {
		return nil, fmt.Errorf("cloud-mask granule %s: %w", filepath.Base(path), err)
	}
	if len(mask.Shape) != 2 {
		return nil, fmt.Errorf("cloud-mask granule %s: shape %v, want 2-d", filepath.Base(path), mask.Shape)
	}
	return mask, nil
}

func (l *Loader) companion(radiancePath, dir string) (string, error) {
	info, err := granule.ParseTimeInfo(radiancePath)
	if err != nil {
		return "", err
	}
	return granule.FindCompanion(l.fs(), dir, info.Stamp())
}
