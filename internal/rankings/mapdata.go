package rankings

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// Series values assigned to markers.
const (
	SeriesTopTen    = "topTen"
	SeriesNotTopTen = "notTopTen"
)

// Selection identifies one rendering of the map.
type Selection struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	RankingType string `json:"ranking_type"`
	Year        int    `json:"year"`
	StateFilter string `json:"state_filter,omitempty"`
}

// Column is the dataset column holding the ranks for s.
func (s Selection) Column() string {
	return RankColumn(s.Year, s.RankingType)
}

// RankColumn names the rank column for a year and ranking type.
func RankColumn(year int, rankingType string) string {
	return fmt.Sprintf("%d %s", year, rankingType)
}

// Marker is a ranked city placed on the map.
type Marker struct {
	City        City
	Rank        int
	RankingType string
	Index       int
	SeriesValue string
}

// MarshalJSON flattens the city row into the marker.
func (m Marker) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(m.City)
	if err != nil {
		return nil, err
	}
	var row map[string]any
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	row["rank"] = m.Rank
	row["rankingType"] = m.RankingType
	row["index"] = m.Index
	row["seriesValue"] = m.SeriesValue
	return json.Marshal(row)
}

// SeriesValues is the per-marker series in draw order.
type SeriesValues struct {
	Values []string `json:"values"`
}

// Series groups the marker series.
type Series struct {
	Markers []SeriesValues `json:"markers"`
}

// MapData is everything needed to draw one map.
type MapData struct {
	Markers []Marker `json:"markers"`
	Series  Series   `json:"series"`
	Labels  []string `json:"labels"`
}

// Label returns the city name of the marker at index.
func (d MapData) Label(index int) string {
	if index < 0 || index >= len(d.Labels) {
		return ""
	}
	return d.Labels[index]
}

// Find returns the marker for cityState.
func (d MapData) Find(cityState string) (Marker, bool) {
	for _, m := range d.Markers {
		if m.City.CityState == cityState {
			return m, true
		}
	}
	return Marker{}, false
}

// BuildMapData ranks cities for sel. Unranked cities are dropped. Markers are
// ordered from the worst rank to the best so the best are drawn last, and
// every rank within ten of the best belongs to the topTen series.
func BuildMapData(cities []City, sel Selection) MapData {
	column := sel.Column()

	ranked := make([]Marker, 0, len(cities))
	for _, c := range cities {
		if sel.StateFilter != "" && c.State != sel.StateFilter {
			continue
		}
		v, ok := c.Metric(column)
		if !ok {
			continue
		}
		ranked = append(ranked, Marker{City: c, Rank: int(v), RankingType: sel.RankingType})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })
	slices.Reverse(ranked)

	data := MapData{
		Markers: ranked,
		Series:  Series{Markers: []SeriesValues{{Values: make([]string, len(ranked))}}},
		Labels:  make([]string, len(ranked)),
	}
	if len(ranked) == 0 {
		return data
	}

	minTopTen := ranked[len(ranked)-1].Rank + 10
	values := data.Series.Markers[0].Values
	for i := range ranked {
		m := &ranked[i]
		m.Index = i
		m.SeriesValue = SeriesNotTopTen
		if m.Rank < minTopTen {
			m.SeriesValue = SeriesTopTen
		}
		values[i] = m.SeriesValue
		data.Labels[i] = m.City.CityState
	}
	return data
}

// Listing returns the ranked markers, best first.
func Listing(data MapData) []Marker {
	out := make([]Marker, 0, len(data.Markers))
	for _, m := range data.Markers {
		if m.Rank != 0 {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}
