// Command extract fuses one or more radiance swaths with their companion
// products and writes the fused tensors under the output root, bucketed by
// usability tag.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cumulus-data/swath.report/internal/catalog"
	"github.com/cumulus-data/swath.report/internal/config"
	"github.com/cumulus-data/swath.report/internal/fsutil"
	"github.com/cumulus-data/swath.report/internal/fusion"
	"github.com/cumulus-data/swath.report/internal/granule"
	"github.com/cumulus-data/swath.report/internal/interp"
	"github.com/cumulus-data/swath.report/internal/level1"
	"github.com/cumulus-data/swath.report/internal/monitor"
	"github.com/cumulus-data/swath.report/internal/monitoring"
	"github.com/cumulus-data/swath.report/internal/ncio"
	"github.com/cumulus-data/swath.report/internal/security"
)

var (
	outRoot     = flag.String("out", "", "output root directory (required)")
	geoDir      = flag.String("geo", "", "geolocation granule directory (required)")
	derivedDir  = flag.String("derived", "", "derived-product granule directory (required)")
	maskDir     = flag.String("mask", "", "cloud-mask granule directory (required)")
	lidarDir    = flag.String("lidar-track", "", "lidar track-data root")
	profileDir  = flag.String("track", "", "profile track-data root")
	configPath  = flag.String("config", "", "pipeline configuration file (JSON; defaults apply if empty)")
	catalogPath = flag.String("catalog", "", "extraction catalog path (default <out>/catalog.db)")
	workers     = flag.Int("workers", 4, "concurrent swath extractions")
	plotFlag    = flag.Bool("plot", false, "write a per-channel validity plot next to each output")
	verbose     = flag.Bool("v", false, "verbose diagnostics")
)

func main() {
	flag.Parse()
	monitoring.SetVerbose(*verbose)

	if *outRoot == "" || *geoDir == "" || *derivedDir == "" || *maskDir == "" {
		flag.Usage()
		os.Exit(2)
	}
	inputs := flag.Args()
	if len(inputs) == 0 {
		log.Fatal("no radiance granules given")
	}

	cfg := config.EmptyPipelineConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadPipelineConfig(*configPath); err != nil {
			log.Fatalf("loading configuration: %v", err)
		}
	}

	dbPath := *catalogPath
	if dbPath == "" {
		dbPath = filepath.Join(*outRoot, "catalog.db")
	}
	if err := os.MkdirAll(*outRoot, 0o755); err != nil {
		log.Fatalf("creating output root: %v", err)
	}
	cat, err := catalog.Open(dbPath)
	if err != nil {
		log.Fatalf("opening catalog: %v", err)
	}
	defer cat.Close()

	dirs := fusion.Dirs{
		Geolocation: *geoDir,
		Derived:     *derivedDir,
		Mask:        *maskDir,
		LidarTrack:  *lidarDir,
		Profile:     *profileDir,
	}

	// Swaths are independent; each invocation owns its tensors, and distinct
	// canonical names mean no two goroutines touch the same output file.
	var g errgroup.Group
	g.SetLimit(*workers)
	for _, input := range inputs {
		g.Go(func() error {
			return extractOne(cfg, cat, input, dirs)
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("extraction failed: %v", err)
	}
}

func extractOne(cfg *config.PipelineConfig, cat *catalog.Catalog, radiancePath string, dirs fusion.Dirs) error {
	info, err := granule.ParseTimeInfo(radiancePath)
	if err != nil {
		return err
	}
	canonical := info.CanonicalName()

	// Fail before any loading when this swath was already extracted.
	fs := fsutil.OSFileSystem{}
	if err := granule.CheckNotExtracted(fs, *outRoot, canonical); err != nil {
		return err
	}

	start := time.Now()
	res, err := fusion.New(cfg).Extract(radiancePath, dirs)
	if err != nil {
		return err
	}

	tagDir := filepath.Join(*outRoot, string(res.Tag))
	outPath := filepath.Join(tagDir, canonical)
	if err := security.ValidatePathWithinDirectory(outPath, *outRoot); err != nil {
		return err
	}
	if err := fs.MkdirAll(tagDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", tagDir, err)
	}
	if err := ncio.WriteSwath(outPath, res.Tensor, res.Record, res.Basename, res.Tag); err != nil {
		return err
	}
	monitoring.Logf("swath saved as %s", outPath)

	if *plotFlag {
		plotPath := filepath.Join(tagDir, strings.TrimSuffix(canonical, ".nc")+".validity.png")
		if err := monitor.PlotValidity(plotPath, monitor.TensorValidity(res.Tensor)); err != nil {
			monitoring.Logf("couldn't plot channel validity of %s: %v", res.Basename, err)
		}
	}

	if err := writeQuicklook(cfg, radiancePath, tagDir, canonical); err != nil {
		// The quicklook is a convenience product; its failure never fails
		// the swath.
		monitoring.Logf("failed to save RGB channels of %s: %v", res.Basename, err)
	}

	_, err = cat.RecordExtraction(catalog.Extraction{
		SwathName:      res.Basename,
		CanonicalName:  canonical,
		Tag:            res.Tag,
		FilledChannels: len(res.Filled),
		Duration:       time.Since(start),
	})
	return err
}

// writeQuicklook renders the visible channels as a PNG under <tagDir>/rgb.
// Swaths whose visible channels cannot be fully filled get no quicklook.
func writeQuicklook(cfg *config.PipelineConfig, radiancePath, tagDir, canonical string) error {
	rgb, err := level1.NewLoader(cfg).LoadRGB(radiancePath)
	if err != nil {
		return err
	}
	filled, err := interp.FillAllChannels(rgb)
	if err != nil {
		return err
	}
	if len(filled) != 3 {
		return fmt.Errorf("visible channels did not fill (%d of 3)", len(filled))
	}

	rgbDir := filepath.Join(tagDir, "rgb")
	if err := os.MkdirAll(rgbDir, 0o755); err != nil {
		return err
	}
	level1.ScaleToBytes(rgb)

	path := filepath.Join(rgbDir, strings.TrimSuffix(canonical, ".nc")+".png")
	if err := ncio.WritePNG(path, rgb); err != nil {
		return err
	}
	monitoring.Logf("RGB channels saved as %s", path)
	return nil
}
