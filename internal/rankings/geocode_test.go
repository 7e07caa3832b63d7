package rankings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock geocoder ---

type mockGeocoder struct {
	forwardResult GeocodingResult
	forwardErr    error
	reverseResult GeocodingResult
	reverseErr    error
	forwardCalls  int
	reverseCalls  int
	lastName      string
	lastState     string
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, name, state string) (GeocodingResult, error) {
	m.forwardCalls++
	m.lastName, m.lastState = name, state
	return m.forwardResult, m.forwardErr
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (GeocodingResult, error) {
	m.reverseCalls++
	return m.reverseResult, m.reverseErr
}

// --- tests ---

func TestEnrichCoordinates_NilGeocoder(t *testing.T) {
	in := []City{{CityState: "Reno, NV", State: "NV"}}

	out := EnrichCoordinates(context.Background(), in, nil, discardLogger())

	require.Len(t, out, 1)
	assert.Empty(t, out[0].GeoSource)
}

func TestEnrichCoordinates_Forward(t *testing.T) {
	geo := &mockGeocoder{forwardResult: GeocodingResult{Lat: 39.53, Lon: -119.81, FormattedAddress: "Reno, Nevada, United States"}}

	out := EnrichCoordinates(context.Background(), []City{{CityState: "Reno, NV", State: "NV"}}, geo, discardLogger())

	assert.Equal(t, 1, geo.forwardCalls)
	assert.Equal(t, "Reno", geo.lastName)
	assert.Equal(t, "NV", geo.lastState)
	assert.Equal(t, []float64{39.53, -119.81}, out[0].LatLng)
	assert.Equal(t, "Reno, Nevada, United States", out[0].FormattedAddress)
	assert.Equal(t, "forward", out[0].GeoSource)
}

func TestEnrichCoordinates_ForwardFailure(t *testing.T) {
	geo := &mockGeocoder{forwardErr: errors.New("boom")}

	out := EnrichCoordinates(context.Background(), []City{{CityState: "Reno, NV", State: "NV"}}, geo, discardLogger())

	assert.Equal(t, "failed", out[0].GeoSource)
	assert.False(t, out[0].HasCoordinates())
}

func TestEnrichCoordinates_ForwardNoMatch(t *testing.T) {
	geo := &mockGeocoder{}

	out := EnrichCoordinates(context.Background(), []City{{CityState: "Nowhere", State: "NV"}}, geo, discardLogger())

	assert.Equal(t, "Nowhere", geo.lastName)
	assert.Equal(t, "original", out[0].GeoSource)
}

func TestEnrichCoordinates_ReverseFillsMetropolitanArea(t *testing.T) {
	geo := &mockGeocoder{reverseResult: GeocodingResult{PlaceName: "Reno", FormattedAddress: "Reno, Washoe County, Nevada"}}
	in := []City{{CityState: "Reno, NV", State: "NV", LatLng: []float64{39.53, -119.81}}}

	out := EnrichCoordinates(context.Background(), in, geo, discardLogger())

	assert.Equal(t, 0, geo.forwardCalls)
	assert.Equal(t, 1, geo.reverseCalls)
	assert.Equal(t, "Reno", out[0].MetropolitanArea)
	assert.Equal(t, "reverse", out[0].GeoSource)
	assert.Empty(t, in[0].MetropolitanArea)
}

func TestEnrichCoordinates_ReverseFailure(t *testing.T) {
	geo := &mockGeocoder{reverseErr: errors.New("boom")}
	in := []City{{CityState: "Reno, NV", State: "NV", LatLng: []float64{39.53, -119.81}}}

	out := EnrichCoordinates(context.Background(), in, geo, discardLogger())

	assert.Equal(t, "failed", out[0].GeoSource)
}

func TestEnrichCoordinates_CompleteCitySkipsGeocoder(t *testing.T) {
	geo := &mockGeocoder{}
	in := []City{{CityState: "Reno, NV", State: "NV", MetropolitanArea: "Reno", LatLng: []float64{39.53, -119.81}}}

	out := EnrichCoordinates(context.Background(), in, geo, discardLogger())

	assert.Equal(t, 0, geo.forwardCalls+geo.reverseCalls)
	assert.Equal(t, "original", out[0].GeoSource)
}

func TestEnrichCoordinates_StopsOnCancel(t *testing.T) {
	geo := &mockGeocoder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := EnrichCoordinates(ctx, []City{{CityState: "Reno, NV", State: "NV"}}, geo, discardLogger())

	assert.Equal(t, 0, geo.forwardCalls)
	assert.Len(t, out, 1)
}
