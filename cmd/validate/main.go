// Command validate performs data integrity checks on the ranking map inputs:
// the city dataset, the map catalog, the computed map data, and (optionally)
// the fixtures written by genmapdata.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -dataset data/cities.json \
//	  -catalog data/catalog.yaml \
//	  -fixtures data/mock/maps
//
// Empty -dataset or -catalog select the embedded sample files.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/couchcryptid/drivers-report-service/internal/rankings"
)

var stateCode = regexp.MustCompile(`^[A-Z]{2}$`)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	datasetPath := flag.String("dataset", "", "path to the city dataset JSON (default: embedded sample)")
	catalogPath := flag.String("catalog", "", "path to the map catalog YAML (default: embedded sample)")
	fixtureDir := flag.String("fixtures", "", "optional directory of genmapdata fixtures to compare")
	flag.Parse()

	os.Exit(run(*datasetPath, *catalogPath, *fixtureDir))
}

func run(datasetPath, catalogPath, fixtureDir string) int {
	fmt.Println("=== Ranking Data Integrity Validation ===")
	fmt.Println()

	cities, catalog, err := rankings.Load(datasetPath, catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load rankings: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateDataset(cities),
		validateCoverage(cities, catalog),
		validateMapData(cities, catalog),
	}
	if fixtureDir != "" {
		phases = append(phases, validateFixtures(cities, catalog, fixtureDir))
	}

	return report(phases, len(cities), len(catalog.Maps)*len(catalog.Years))
}

func report(phases []*phase, cities, selections int) int {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d cities, %d map selections\n", cities, selections)

	for _, p := range phases {
		if len(p.warnings) > 0 {
			fmt.Printf("\n--- %s (warnings) ---\n", p.name)
			for i, w := range p.warnings {
				fmt.Printf("  [%d] %s\n", i+1, w)
			}
		}
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Dataset ──
// Every row names a unique city whose state suffix matches its State column.

func validateDataset(cities []rankings.City) *phase {
	p := &phase{name: "Phase 1: Dataset rows"}

	seen := make(map[string]bool, len(cities))
	for i, c := range cities {
		if seen[c.CityState] {
			p.errorf("row %d: duplicate city %q", i, c.CityState)
		}
		seen[c.CityState] = true

		if !stateCode.MatchString(c.State) {
			p.errorf("row %d (%s): invalid State %q", i, c.CityState, c.State)
		} else if !strings.HasSuffix(c.CityState, ", "+c.State) {
			p.errorf("row %d (%s): State %q does not match city suffix", i, c.CityState, c.State)
		}

		switch {
		case len(c.LatLng) == 0:
			p.warnf("%s: no coordinates, forward geocoding required", c.CityState)
		case len(c.LatLng) != 2:
			p.errorf("%s: latLng must have 2 values, has %d", c.CityState, len(c.LatLng))
		case c.LatLng[0] < -90 || c.LatLng[0] > 90 || c.LatLng[1] < -180 || c.LatLng[1] > 180:
			p.errorf("%s: latLng %v out of range", c.CityState, c.LatLng)
		}
	}
	return p
}

// ── Phase 2: Coverage ──
// Each map and year has at least one ranked city, and ranks are positive
// whole numbers without duplicates.

func validateCoverage(cities []rankings.City, catalog rankings.Catalog) *phase {
	p := &phase{name: "Phase 2: Rank column coverage"}

	for _, def := range catalog.Maps {
		for _, year := range catalog.Years {
			column := rankings.RankColumn(year, def.RankingType)
			ranks := map[float64]string{}
			for _, c := range cities {
				v, ok := c.Metric(column)
				if !ok {
					continue
				}
				if v < 0 || v != float64(int(v)) {
					p.errorf("%s: %q rank %v is not a positive integer", c.CityState, column, v)
				}
				if other, dup := ranks[v]; dup {
					p.warnf("%q: rank %v shared by %s and %s", column, v, other, c.CityState)
				}
				ranks[v] = c.CityState
			}
			if len(ranks) == 0 {
				p.errorf("%q: no ranked cities", column)
			}
		}
	}
	return p
}

// ── Phase 3: Map data ──
// Markers are ordered worst to best, indexed, labelled and in a series.

func validateMapData(cities []rankings.City, catalog rankings.Catalog) *phase {
	p := &phase{name: "Phase 3: Computed map data"}

	for _, sel := range selections(catalog) {
		data := rankings.BuildMapData(cities, sel)
		column := sel.Column()

		if len(data.Labels) != len(data.Markers) {
			p.errorf("%s: %d labels for %d markers", column, len(data.Labels), len(data.Markers))
		}
		if n := len(data.Series.Markers[0].Values); n != len(data.Markers) {
			p.errorf("%s: %d series values for %d markers", column, n, len(data.Markers))
		}
		for i, m := range data.Markers {
			if m.Index != i {
				p.errorf("%s: marker %d has index %d", column, i, m.Index)
			}
			if i > 0 && data.Markers[i-1].Rank < m.Rank {
				p.errorf("%s: marker %d rank %d after rank %d", column, i, m.Rank, data.Markers[i-1].Rank)
			}
			if m.SeriesValue != rankings.SeriesTopTen && m.SeriesValue != rankings.SeriesNotTopTen {
				p.errorf("%s: marker %d has series %q", column, i, m.SeriesValue)
			}
		}
		if listing := rankings.Listing(data); len(listing) > 0 && listing[0].SeriesValue != rankings.SeriesTopTen {
			p.errorf("%s: best city %s is not in the top ten series", column, listing[0].City.CityState)
		}
	}
	return p
}

// ── Phase 4: Fixtures ──
// Fixture files written by genmapdata match freshly computed map data.

func validateFixtures(cities []rankings.City, catalog rankings.Catalog, dir string) *phase {
	p := &phase{name: "Phase 4: Fixture parity"}

	for _, sel := range selections(catalog) {
		name := fmt.Sprintf("%s-%d.json", sel.ID, sel.Year)
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			p.errorf("%s: %v", name, err)
			continue
		}
		want, err := json.MarshalIndent(rankings.BuildMapData(cities, sel), "", "  ")
		if err != nil {
			p.errorf("%s: encode: %v", name, err)
			continue
		}
		if !bytes.Equal(bytes.TrimSpace(got), want) {
			p.errorf("%s: fixture is stale, rerun genmapdata", name)
		}
	}
	return p
}

func selections(catalog rankings.Catalog) []rankings.Selection {
	out := make([]rankings.Selection, 0, len(catalog.Maps)*len(catalog.Years))
	for _, def := range catalog.Maps {
		for _, year := range catalog.Years {
			out = append(out, rankings.Selection{
				ID:          def.ID,
				Title:       def.Title,
				RankingType: def.RankingType,
				Year:        year,
			})
		}
	}
	return out
}
