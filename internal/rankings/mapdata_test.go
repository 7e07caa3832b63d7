package rankings

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func city(name, state string, ranks map[string]float64) City {
	return City{
		CityState: name + ", " + state,
		State:     state,
		LatLng:    []float64{40, -100},
		Metrics:   ranks,
	}
}

func testCities() []City {
	return []City{
		city("Alpha", "KS", map[string]float64{"2018 Top Cities": 3}),
		city("Bravo", "TX", map[string]float64{"2018 Top Cities": 1}),
		city("Charlie", "TX", map[string]float64{"2018 Top Cities": 12}),
		city("Delta", "KS", map[string]float64{"2018 Top Cities": 11}),
		city("Echo", "TX", map[string]float64{}),
		city("Foxtrot", "CO", map[string]float64{"2018 Top Cities": 0}),
	}
}

var topCities2018 = Selection{ID: "top-cities", RankingType: "Top Cities", Year: 2018}

func cityStates(markers []Marker) []string {
	out := make([]string, len(markers))
	for i, m := range markers {
		out[i] = m.City.CityState
	}
	return out
}

func TestBuildMapData_OrdersWorstFirst(t *testing.T) {
	data := BuildMapData(testCities(), topCities2018)

	assert.Equal(t, []string{"Charlie, TX", "Delta, KS", "Alpha, KS", "Bravo, TX"}, cityStates(data.Markers))
	for i, m := range data.Markers {
		assert.Equal(t, i, m.Index)
		assert.Equal(t, "Top Cities", m.RankingType)
		assert.Equal(t, m.City.CityState, data.Label(i))
	}
}

func TestBuildMapData_TopTenSeries(t *testing.T) {
	data := BuildMapData(testCities(), topCities2018)

	// Best rank is 1, so ranks below 11 are top ten.
	want := []string{SeriesNotTopTen, SeriesNotTopTen, SeriesTopTen, SeriesTopTen}
	require.Len(t, data.Series.Markers, 1)
	assert.Equal(t, want, data.Series.Markers[0].Values)
	for i, m := range data.Markers {
		assert.Equal(t, want[i], m.SeriesValue)
	}
}

func TestBuildMapData_TopTenRelativeToBestInFilter(t *testing.T) {
	sel := topCities2018
	sel.StateFilter = "KS"
	data := BuildMapData(testCities(), sel)

	// Best KS rank is 3, so 11 is still within ten of it.
	assert.Equal(t, []string{"Delta, KS", "Alpha, KS"}, cityStates(data.Markers))
	assert.Equal(t, []string{SeriesTopTen, SeriesTopTen}, data.Series.Markers[0].Values)
}

func TestBuildMapData_DropsUnranked(t *testing.T) {
	data := BuildMapData(testCities(), topCities2018)

	_, ok := data.Find("Echo, TX")
	assert.False(t, ok, "missing column")
	_, ok = data.Find("Foxtrot, CO")
	assert.False(t, ok, "zero rank")
}

func TestBuildMapData_TiesKeepReversedInputOrder(t *testing.T) {
	cities := []City{
		city("One", "TX", map[string]float64{"2018 Top Cities": 2}),
		city("Two", "TX", map[string]float64{"2018 Top Cities": 2}),
		city("Three", "TX", map[string]float64{"2018 Top Cities": 1}),
	}
	data := BuildMapData(cities, topCities2018)

	assert.Equal(t, []string{"Two, TX", "One, TX", "Three, TX"}, cityStates(data.Markers))
}

func TestBuildMapData_Empty(t *testing.T) {
	sel := topCities2018
	sel.StateFilter = "ZZ"
	data := BuildMapData(testCities(), sel)

	assert.Empty(t, data.Markers)
	assert.Empty(t, data.Series.Markers[0].Values)
	assert.Empty(t, data.Label(0))
}

func TestListing_BestFirst(t *testing.T) {
	listing := Listing(BuildMapData(testCities(), topCities2018))

	assert.Equal(t, []string{"Bravo, TX", "Alpha, KS", "Delta, KS", "Charlie, TX"}, cityStates(listing))
}

func TestMarker_MarshalJSONFlattensCity(t *testing.T) {
	data := BuildMapData(testCities(), topCities2018)
	m, ok := data.Find("Bravo, TX")
	require.True(t, ok)

	raw, err := json.Marshal(m)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "Bravo, TX", got["cityState"])
	assert.Equal(t, "TX", got["State"])
	assert.InDelta(t, 1, got["rank"], 0)
	assert.Equal(t, "Top Cities", got["rankingType"])
	assert.Equal(t, SeriesTopTen, got["seriesValue"])
	assert.InDelta(t, 1, got["2018 Top Cities"], 0)
}

func TestCity_UnmarshalJSON(t *testing.T) {
	raw := `{
		"cityState": "Boise, ID",
		"State": "ID",
		"metropolitanArea": "Boise City",
		"latLng": [43.615, -116.2023],
		"2018 Top Cities": 2,
		"2018 Rain & Snow": "7",
		"2016 Top Cities": "",
		"notes": "n/a"
	}`
	var c City
	require.NoError(t, json.Unmarshal([]byte(raw), &c))

	assert.Equal(t, "Boise, ID", c.CityState)
	assert.Equal(t, "Boise City", c.MetropolitanArea)
	assert.Equal(t, []float64{43.615, -116.2023}, c.LatLng)
	assert.True(t, c.HasCoordinates())
	assert.Equal(t, map[string]float64{"2018 Top Cities": 2, "2018 Rain & Snow": 7}, c.Metrics)
}

func TestCity_UnmarshalJSONRequiresCityState(t *testing.T) {
	var c City
	assert.Error(t, json.Unmarshal([]byte(`{"State": "ID"}`), &c))
}

func TestLoadDataset(t *testing.T) {
	cities, err := LoadDataset(strings.NewReader(`[{"cityState": "Reno, NV", "State": "NV", "2018 Top Cities": 5}]`))
	require.NoError(t, err)
	require.Len(t, cities, 1)

	v, ok := cities[0].Metric("2018 Top Cities")
	assert.True(t, ok)
	assert.InDelta(t, 5, v, 0)
	assert.False(t, cities[0].HasCoordinates())

	_, err = LoadDataset(strings.NewReader(`{`))
	assert.Error(t, err)
}
