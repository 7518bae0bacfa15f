// Command tiles samples labelled and unlabelled training tiles from a fused
// swath file.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cumulus-data/swath.report/internal/catalog"
	"github.com/cumulus-data/swath.report/internal/config"
	"github.com/cumulus-data/swath.report/internal/monitoring"
	"github.com/cumulus-data/swath.report/internal/ncio"
	"github.com/cumulus-data/swath.report/internal/tiles"
)

var (
	outDir      = flag.String("out", "", "tile output directory (required)")
	tileSize    = flag.Int("size", 0, "tile edge length (default from configuration)")
	configPath  = flag.String("config", "", "pipeline configuration file (JSON; defaults apply if empty)")
	catalogPath = flag.String("catalog", "", "extraction catalog to record tile counts in (optional)")
	seed        = flag.Int64("seed", 0, "sampling seed (0 seeds from the clock)")
	verbose     = flag.Bool("v", false, "verbose diagnostics")
)

func main() {
	flag.Parse()
	monitoring.SetVerbose(*verbose)

	if *outDir == "" || flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	fusedPath := flag.Arg(0)

	cfg := config.EmptyPipelineConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadPipelineConfig(*configPath); err != nil {
			log.Fatalf("loading configuration: %v", err)
		}
	}
	size := *tileSize
	if size == 0 {
		size = cfg.TileSizeValue()
	}

	tensor, rec, err := ncio.ReadSwath(fusedPath)
	if err != nil {
		log.Fatalf("reading fused swath: %v", err)
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}

	swathName := filepath.Base(fusedPath)
	stem := strings.TrimSuffix(swathName, filepath.Ext(swathName))
	labelledN, unlabelledN, err := tiles.NewDriver(s).Extract(tensor, rec, stem, *outDir, size)
	if err != nil {
		log.Fatalf("tiles failed to extract: %v", err)
	}
	monitoring.Debugf("%d tiles written under %s", labelledN+unlabelledN, *outDir)

	if *catalogPath != "" {
		cat, err := catalog.Open(*catalogPath)
		if err != nil {
			log.Fatalf("opening catalog: %v", err)
		}
		defer cat.Close()
		if err := cat.RecordTileCounts(swathName, labelledN, unlabelledN); err != nil {
			log.Fatalf("recording tile counts: %v", err)
		}
	}
}
