package rankings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

var (
	ErrUnknownMap   = errors.New("unknown map")
	ErrUnknownYear  = errors.New("unknown year")
	ErrCityNotFound = errors.New("city not ranked")
)

// Observer is notified whenever map data is served.
type Observer interface {
	MapDataServed(mapID string, cached bool)
}

// Option configures a Service.
type Option func(*Service)

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// Service serves ranking maps over a dataset and caches the computed data
// per selection.
type Service struct {
	catalog  Catalog
	logger   *slog.Logger
	observer Observer

	mu     sync.RWMutex
	cities []City
	cache  map[Selection]MapData
	ready  atomic.Bool
}

// NewService creates a Service over cities.
func NewService(cities []City, catalog Catalog, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{catalog: catalog, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	s.Replace(cities)
	return s
}

// Catalog returns the map catalog.
func (s *Service) Catalog() Catalog { return s.catalog }

// Cities returns a copy of the dataset.
func (s *Service) Cities() []City {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]City(nil), s.cities...)
}

// Replace swaps the dataset and drops every cached map.
func (s *Service) Replace(cities []City) {
	s.mu.Lock()
	s.cities = append([]City(nil), cities...)
	s.cache = make(map[Selection]MapData)
	s.mu.Unlock()
	s.ready.Store(len(cities) > 0)
	s.logger.Info("ranking dataset loaded", "cities", len(cities))
}

// Select resolves a map id, year and state filter into a Selection. An
// empty id picks the default map and a zero year the current one.
func (s *Service) Select(mapID string, year int, state string) (Selection, error) {
	if mapID == "" {
		mapID = s.catalog.DefaultMap
	}
	def, ok := s.catalog.Map(mapID)
	if !ok {
		return Selection{}, fmt.Errorf("%w: %q", ErrUnknownMap, mapID)
	}
	if year == 0 {
		year = s.catalog.CurrentYear
	}
	if !s.catalog.HasYear(year) {
		return Selection{}, fmt.Errorf("%w: %d", ErrUnknownYear, year)
	}
	return Selection{
		ID:          def.ID,
		Title:       def.Title,
		RankingType: def.RankingType,
		Year:        year,
		StateFilter: state,
	}, nil
}

// MapData returns the map for sel, computing it on first use.
func (s *Service) MapData(sel Selection) MapData {
	s.mu.RLock()
	data, ok := s.cache[sel]
	s.mu.RUnlock()
	if ok {
		s.served(sel, true)
		return data
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if data, ok := s.cache[sel]; ok {
		s.served(sel, true)
		return data
	}
	data = BuildMapData(s.cities, sel)
	s.cache[sel] = data
	s.logger.Debug("map data built",
		"map", sel.ID,
		"year", sel.Year,
		"state", sel.StateFilter,
		"markers", len(data.Markers),
	)
	s.served(sel, false)
	return data
}

// Listing returns the ranked cities of sel, best first.
func (s *Service) Listing(sel Selection) []Marker {
	return Listing(s.MapData(sel))
}

// Profile describes cityState as ranked under sel.
func (s *Service) Profile(sel Selection, cityState string) (Profile, error) {
	m, ok := s.MapData(sel).Find(cityState)
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q in %s", ErrCityNotFound, cityState, sel.Column())
	}
	return BuildProfile(m, sel, s.catalog), nil
}

// Enrich geocodes the dataset and swaps in the result. It returns the number
// of cities that gained coordinates or a metropolitan area.
func (s *Service) Enrich(ctx context.Context, geocoder Geocoder) int {
	enriched := EnrichCoordinates(ctx, s.Cities(), geocoder, s.logger)
	changed := 0
	for _, c := range enriched {
		if c.GeoSource == "forward" || c.GeoSource == "reverse" {
			changed++
		}
	}
	s.Replace(enriched)
	return changed
}

// CheckReadiness reports whether a dataset is loaded.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("ranking dataset not loaded")
	}
	return nil
}

func (s *Service) served(sel Selection, cached bool) {
	if s.observer != nil {
		s.observer.MapDataServed(sel.ID, cached)
	}
}
