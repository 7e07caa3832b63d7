// Command genmapdata computes the ranking map for every map and year in the
// catalog and writes one JSON fixture per selection. Frontends and the
// validate command consume the fixtures.
//
// Usage:
//
//	go run ./cmd/genmapdata \
//	  -dataset data/cities.json \
//	  -catalog data/catalog.yaml \
//	  -out-dir data/mock/maps
//
// Empty -dataset or -catalog select the embedded sample files.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/drivers-report-service/internal/rankings"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	datasetPath := flag.String("dataset", "", "path to the city dataset JSON (default: embedded sample)")
	catalogPath := flag.String("catalog", "", "path to the map catalog YAML (default: embedded sample)")
	outDir := flag.String("out-dir", "", "directory for the generated map fixtures")
	state := flag.String("state", "", "optional two-letter state filter")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out-dir")
	}

	cities, catalog, err := rankings.Load(*datasetPath, *catalogPath)
	if err != nil {
		return err
	}
	log.Printf("loaded %d cities, %d maps, years %v", len(cities), len(catalog.Maps), catalog.Years)

	var stats []fixtureStats
	for _, def := range catalog.Maps {
		for _, year := range catalog.Years {
			sel := rankings.Selection{
				ID:          def.ID,
				Title:       def.Title,
				RankingType: def.RankingType,
				Year:        year,
				StateFilter: *state,
			}
			data := rankings.BuildMapData(cities, sel)
			path := filepath.Join(*outDir, fixtureName(sel))
			if err := writeJSON(path, data); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			stats = append(stats, collectStats(sel, data))
		}
	}
	log.Printf("wrote %d fixtures to %s", len(stats), *outDir)

	printStats(stats)
	return nil
}

// fixtureName is the file name of the fixture for sel.
func fixtureName(sel rankings.Selection) string {
	if sel.StateFilter != "" {
		return fmt.Sprintf("%s-%d-%s.json", sel.ID, sel.Year, sel.StateFilter)
	}
	return fmt.Sprintf("%s-%d.json", sel.ID, sel.Year)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// fixtureStats summarizes one generated map for the report.
type fixtureStats struct {
	column  string
	markers int
	topTen  int
	best    string
	located int
}

func collectStats(sel rankings.Selection, data rankings.MapData) fixtureStats {
	s := fixtureStats{column: sel.Column(), markers: len(data.Markers)}
	for _, m := range data.Markers {
		if m.SeriesValue == rankings.SeriesTopTen {
			s.topTen++
		}
		if m.City.HasCoordinates() {
			s.located++
		}
	}
	if listing := rankings.Listing(data); len(listing) > 0 {
		s.best = listing[0].City.CityState
	}
	return s
}

func printStats(stats []fixtureStats) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	for _, s := range stats {
		fmt.Printf("%-40s markers=%-3d topTen=%-3d located=%-3d best=%s\n",
			s.column, s.markers, s.topTen, s.located, s.best)
	}
}
