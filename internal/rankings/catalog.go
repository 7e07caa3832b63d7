package rankings

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed data/catalog.yaml
var defaultCatalog []byte

//go:embed data/cities.json
var defaultDataset []byte

// MapDefinition describes one tab of the ranking map.
type MapDefinition struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	RankingType string `yaml:"rankingType" json:"ranking_type"`
}

// Catalog lists the available maps and years.
type Catalog struct {
	CurrentYear int             `yaml:"currentYear" json:"current_year"`
	Years       []int           `yaml:"years" json:"years"`
	DefaultMap  string          `yaml:"defaultMap" json:"default_map"`
	TopCity     string          `yaml:"topCity" json:"top_city"`
	Maps        []MapDefinition `yaml:"maps" json:"maps"`
}

// LoadCatalog decodes and validates a YAML catalog.
func LoadCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// DefaultCatalog returns the embedded catalog.
func DefaultCatalog() Catalog {
	c, err := LoadCatalog(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// DefaultDataset returns the embedded sample dataset.
func DefaultDataset() []City {
	cities, err := LoadDataset(bytes.NewReader(defaultDataset))
	if err != nil {
		panic(fmt.Sprintf("embedded dataset: %v", err))
	}
	return cities
}

// Load reads the dataset and catalog files. An empty path selects the
// embedded default.
func Load(datasetPath, catalogPath string) ([]City, Catalog, error) {
	cities := []City(nil)
	if datasetPath == "" {
		cities = DefaultDataset()
	} else {
		f, err := os.Open(datasetPath)
		if err != nil {
			return nil, Catalog{}, fmt.Errorf("open dataset: %w", err)
		}
		defer f.Close()
		if cities, err = LoadDataset(f); err != nil {
			return nil, Catalog{}, fmt.Errorf("%s: %w", datasetPath, err)
		}
	}

	if catalogPath == "" {
		return cities, DefaultCatalog(), nil
	}
	f, err := os.Open(catalogPath)
	if err != nil {
		return nil, Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	catalog, err := LoadCatalog(f)
	if err != nil {
		return nil, Catalog{}, fmt.Errorf("%s: %w", catalogPath, err)
	}
	return cities, catalog, nil
}

// Map looks up a map definition by id.
func (c Catalog) Map(id string) (MapDefinition, bool) {
	for _, m := range c.Maps {
		if m.ID == id {
			return m, true
		}
	}
	return MapDefinition{}, false
}

// HasYear reports whether year is listed.
func (c Catalog) HasYear(year int) bool {
	return slices.Contains(c.Years, year)
}

func (c Catalog) validate() error {
	if len(c.Maps) == 0 {
		return errors.New("catalog has no maps")
	}
	if c.CurrentYear == 0 {
		return errors.New("catalog currentYear is required")
	}
	if !c.HasYear(c.CurrentYear) {
		return fmt.Errorf("catalog currentYear %d is not listed in years", c.CurrentYear)
	}
	seen := make(map[string]bool, len(c.Maps))
	for _, m := range c.Maps {
		if m.ID == "" || m.RankingType == "" {
			return fmt.Errorf("catalog map %q needs an id and a rankingType", m.Title)
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate catalog map %q", m.ID)
		}
		seen[m.ID] = true
	}
	if _, ok := c.Map(c.DefaultMap); !ok {
		return fmt.Errorf("catalog defaultMap %q is not defined", c.DefaultMap)
	}
	return nil
}
