// Command report renders an HTML summary of the extraction catalog.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/cumulus-data/swath.report/internal/catalog"
	"github.com/cumulus-data/swath.report/internal/monitor"
)

var (
	catalogPath = flag.String("catalog", "", "extraction catalog path (required)")
	outPath     = flag.String("out", "report.html", "report output file")
)

func main() {
	flag.Parse()
	if *catalogPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cat, err := catalog.Open(*catalogPath)
	if err != nil {
		log.Fatalf("opening catalog: %v", err)
	}
	defer cat.Close()

	dist, err := cat.TagDistribution()
	if err != nil {
		log.Fatalf("reading tag distribution: %v", err)
	}
	labelled, unlabelled, err := cat.TileTotals()
	if err != nil {
		log.Fatalf("reading tile totals: %v", err)
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("creating report: %v", err)
	}
	defer f.Close()

	if err := monitor.WriteCatalogReport(f, dist, labelled, unlabelled); err != nil {
		log.Fatalf("rendering report: %v", err)
	}
	log.Printf("report saved as %s", *outPath)
}
