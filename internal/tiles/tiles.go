// Package tiles extracts fixed-size labelled and unlabelled sample tiles
// from a fused swath tensor.
package tiles

import (
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/cumulus-data/swath.report/internal/fsutil"
	"github.com/cumulus-data/swath.report/internal/monitoring"
	"github.com/cumulus-data/swath.report/internal/ncio"
	"github.com/cumulus-data/swath.report/internal/security"
	"github.com/cumulus-data/swath.report/internal/swath"
)

// ErrTileTooLarge reports a tile size that does not fit the tensor extents.
var ErrTileTooLarge = errors.New("tile size exceeds tensor extents")

// Output subdirectories for the two tile sets.
const (
	LabelDir    = "label"
	NonLabelDir = "nonlabel"
)

// fallbackUnlabelled is the batch size sampled when a swath has no track
// alignment to balance against.
const fallbackUnlabelled = 8

// maxPlacementAttempts bounds the rejection sampling for unlabelled tiles;
// a crowded grid ends the batch early rather than looping.
const maxPlacementAttempts = 1000

// Batch is a set of tiles in ncio tile-batch layout: Data holds
// N*(channels*size*size) values, Meta holds N*ncio.MetaFields rows of
// (center row, center col, label flag, track sample index or -1).
type Batch struct {
	N    int
	Data []float32
	Meta []float32
}

type footprint struct{ row, col int }

// Sample extracts the labelled and unlabelled tile sets from tensor.
// Labelled tiles are centered on track-mapped pixels, deduplicated by tile
// origin and clamped to the grid. Unlabelled tiles are placed randomly so
// that their footprints intersect neither the labelled set nor each other;
// their count balances the labelled count. The two sets are disjoint by
// construction.
func Sample(tensor *swath.Tensor, rec *swath.TrackRecord, size int, rng *rand.Rand) (labelled, unlabelled Batch, err error) {
	if size <= 0 {
		return Batch{}, Batch{}, fmt.Errorf("tile size %d: must be positive", size)
	}
	if size > tensor.Rows || size > tensor.Cols {
		return Batch{}, Batch{}, fmt.Errorf("%w: %d exceeds %dx%d", ErrTileTooLarge, size, tensor.Rows, tensor.Cols)
	}

	var origins []footprint
	if rec != nil {
		seen := make(map[footprint]bool)
		for i, p := range rec.Mapping {
			o := footprint{
				row: clamp(p.Row-size/2, 0, tensor.Rows-size),
				col: clamp(p.Col-size/2, 0, tensor.Cols-size),
			}
			if seen[o] {
				continue
			}
			seen[o] = true
			origins = append(origins, o)
			labelled.append(tensor, o, size, float32(p.Row), float32(p.Col), 1, float32(i))
		}
	}

	target := labelled.N
	if target == 0 {
		target = fallbackUnlabelled
	}
	for attempts := 0; unlabelled.N < target && attempts < maxPlacementAttempts; attempts++ {
		o := footprint{
			row: rng.Intn(tensor.Rows - size + 1),
			col: rng.Intn(tensor.Cols - size + 1),
		}
		if intersectsAny(o, origins, size) {
			continue
		}
		origins = append(origins, o)
		unlabelled.append(tensor, o, size, float32(o.row+size/2), float32(o.col+size/2), 0, -1)
	}

	return labelled, unlabelled, nil
}

// append copies the tile at origin o into the batch along with one metadata
// row.
func (b *Batch) append(tensor *swath.Tensor, o footprint, size int, centerRow, centerCol, label, sample float32) {
	for ch := 0; ch < tensor.Channels; ch++ {
		for r := o.row; r < o.row+size; r++ {
			for c := o.col; c < o.col+size; c++ {
				b.Data = append(b.Data, tensor.At(ch, r, c))
			}
		}
	}
	b.Meta = append(b.Meta, centerRow, centerCol, label, sample)
	b.N++
}

func intersectsAny(o footprint, placed []footprint, size int) bool {
	for _, p := range placed {
		if abs(o.row-p.row) < size && abs(o.col-p.col) < size {
			return true
		}
	}
	return false
}

// Driver routes sampled tile batches to their on-disk destinations.
type Driver struct {
	FS  fsutil.FileSystem
	Rng *rand.Rand
}

// NewDriver returns a driver over the OS filesystem with a seeded source.
func NewDriver(seed int64) *Driver {
	return &Driver{FS: fsutil.OSFileSystem{}, Rng: rand.New(rand.NewSource(seed))}
}

// Extract samples tensor and writes the labelled and unlabelled batches
// under outDir/label and outDir/nonlabel as "<swathName>.nc". Empty batches
// produce no file. Nothing is written when sampling fails. Returns the two
// batch sizes; their sum is the combined tile count.
func (d *Driver) Extract(tensor *swath.Tensor, rec *swath.TrackRecord, swathName, outDir string, size int) (labelledN, unlabelledN int, err error) {
	labelled, unlabelled, err := Sample(tensor, rec, size, d.Rng)
	if err != nil {
		return 0, 0, fmt.Errorf("sampling tiles of %s: %w", swathName, err)
	}

	monitoring.Logf("%d tiles extracted from swath %s", labelled.N+unlabelled.N, swathName)

	filename := security.SanitizeFilename(swathName) + ".nc"
	for dir, batch := range map[string]Batch{LabelDir: labelled, NonLabelDir: unlabelled} {
		if batch.N == 0 {
			continue
		}
		dest := filepath.Join(outDir, dir)
		if err := d.FS.MkdirAll(dest, 0o755); err != nil {
			return 0, 0, fmt.Errorf("creating %s: %w", dest, err)
		}
		path := filepath.Join(dest, filename)
		if err := ncio.WriteTileBatch(path, batch.N, tensor.Channels, size, batch.Data, batch.Meta); err != nil {
			return 0, 0, fmt.Errorf("writing tile batch %s: %w", path, err)
		}
	}
	return labelled.N, unlabelled.N, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
