// Package fusion drives the per-swath pipeline: load, gap-fill, tag, stack
// and track-align one observation swath into a fused tensor.
package fusion

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ctessum/sparse"

	"github.com/cumulus-data/swath.report/internal/config"
	"github.com/cumulus-data/swath.report/internal/interp"
	"github.com/cumulus-data/swath.report/internal/level1"
	"github.com/cumulus-data/swath.report/internal/level2"
	"github.com/cumulus-data/swath.report/internal/monitoring"
	"github.com/cumulus-data/swath.report/internal/swath"
	"github.com/cumulus-data/swath.report/internal/track"
)

// Dirs names the auxiliary product roots consulted for one swath.
type Dirs struct {
	Geolocation string
	Derived     string
	Mask        string
	LidarTrack  string
	Profile     string
}

// Result is the orchestrator's per-swath output. Record is nil when track
// alignment failed; the tensor and tag do not depend on it.
type Result struct {
	Tensor   *swath.Tensor
	Record   *swath.TrackRecord
	Tag      swath.Tag
	Basename string
	// Filled lists the channel indices the gap filler left fully valid,
	// for diagnostics and cataloguing. It never gates the output.
	Filled []int
}

// TrackAligner maps track samples onto the swath's pixel grid. Failure is
// reported as an error and is never fatal to the swath.
type TrackAligner interface {
	Align(radiancePath, lidarDir, profileDir string, lat, lon *sparse.DenseArray) (*swath.TrackRecord, error)
}

// Orchestrator fuses one swath per Extract call. Instances are stateless
// across calls, so one orchestrator may serve concurrent invocations.
type Orchestrator struct {
	Config  *config.PipelineConfig
	Level1  *level1.Loader
	Level2  *level2.Loader
	Aligner TrackAligner
}

// New returns an orchestrator with OS-filesystem loaders.
func New(cfg *config.PipelineConfig) *Orchestrator {
	return &Orchestrator{
		Config:  cfg,
		Level1:  level1.NewLoader(cfg),
		Level2:  level2.NewLoader(cfg),
		Aligner: track.NewAligner(cfg),
	}
}

// Extract produces the fused tensor, optional track record and usability
// tag for the swath identified by radiancePath. It performs no filesystem
// writes; diagnostics go through the monitoring package.
func (o *Orchestrator) Extract(radiancePath string, dirs Dirs) (*Result, error) {
	basename := filepath.Base(radiancePath)

	grid, err := o.Level1.LoadSwath(radiancePath, dirs.Geolocation)
	if err != nil {
		return nil, fmt.Errorf("loading swath %s: %w", basename, err)
	}
	monitoring.Debugf("swath %s loaded", basename)

	start := time.Now()
	filled, err := interp.FillAllChannels(grid)
	if err != nil {
		return nil, fmt.Errorf("filling swath %s: %w", basename, err)
	}
	monitoring.Debugf("interpolation took %s", time.Since(start).Round(time.Millisecond))
	monitoring.Debugf("channels %v are now full", filled)

	tag := swath.Classify(filled, o.Config.FullChannelSet(), o.Config.NightChannelSet())

	derived, err := o.Level2.LoadDerived(radiancePath, dirs.Derived)
	if err != nil {
		return nil, fmt.Errorf("loading derived channels for %s: %w", basename, err)
	}
	monitoring.Debugf("derived channels of %s loaded", basename)

	mask, err := o.Level2.LoadCloudMask(radiancePath, dirs.Mask)
	if err != nil {
		return nil, fmt.Errorf("loading cloud mask for %s: %w", basename, err)
	}
	monitoring.Debugf("cloud mask of %s loaded", basename)

	// Alignment runs on the grid's coordinate channels before stacking;
	// the coordinates are not carried as derived output features.
	lat, lon, err := swath.CoordChannels(grid)
	if err != nil {
		return nil, fmt.Errorf("swath %s: %w", basename, err)
	}

	start = time.Now()
	rec, alignErr := o.Aligner.Align(radiancePath, dirs.LidarTrack, dirs.Profile, lat, lon)
	if alignErr != nil {
		monitoring.Logf("couldn't extract track of %s: %v", basename, alignErr)
		rec = nil
	}
	monitoring.Debugf("track alignment took %s", time.Since(start).Round(time.Millisecond))

	tensor, err := swath.Stack(grid, derived, mask)
	if err != nil {
		return nil, fmt.Errorf("stacking swath %s: %w", basename, err)
	}

	return &Result{Tensor: tensor, Record: rec, Tag: tag, Basename: basename, Filled: filled}, nil
}
