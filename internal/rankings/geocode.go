package rankings

import (
	"context"
	"log/slog"
	"strings"
)

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0-1.0 provider confidence score
}

// Geocoder places cities on the map.
type Geocoder interface {
	// ForwardGeocode converts a city name and state to coordinates.
	ForwardGeocode(ctx context.Context, name, state string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}

// EnrichCoordinates geocodes every city. Cities without coordinates are
// forward geocoded from their name; cities with coordinates but no
// metropolitan area are reverse geocoded to name one. Failures leave the
// city untouched apart from GeoSource. The input slice is not modified.
func EnrichCoordinates(ctx context.Context, cities []City, geocoder Geocoder, logger *slog.Logger) []City {
	out := make([]City, len(cities))
	copy(out, cities)
	if geocoder == nil {
		return out
	}
	for i := range out {
		if ctx.Err() != nil {
			break
		}
		out[i] = enrichCity(ctx, out[i], geocoder, logger)
	}
	return out
}

func enrichCity(ctx context.Context, c City, geocoder Geocoder, logger *slog.Logger) City {
	if !c.HasCoordinates() {
		name := cityName(c)
		if name == "" {
			c.GeoSource = "original"
			return c
		}
		result, err := geocoder.ForwardGeocode(ctx, name, c.State)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"city", c.CityState,
				"state", c.State,
				"error", err,
			)
			c.GeoSource = "failed"
			return c
		}
		if result.Lat != 0 || result.Lon != 0 {
			c.LatLng = []float64{result.Lat, result.Lon}
			c.FormattedAddress = result.FormattedAddress
			c.GeoSource = "forward"
			return c
		}
		c.GeoSource = "original"
		return c
	}

	if c.MetropolitanArea == "" {
		result, err := geocoder.ReverseGeocode(ctx, c.LatLng[0], c.LatLng[1])
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"city", c.CityState,
				"lat", c.LatLng[0],
				"lon", c.LatLng[1],
				"error", err,
			)
			c.GeoSource = "failed"
			return c
		}
		if result.PlaceName != "" {
			c.MetropolitanArea = result.PlaceName
			c.FormattedAddress = result.FormattedAddress
			c.GeoSource = "reverse"
			return c
		}
	}

	c.GeoSource = "original"
	return c
}

// cityName strips the ", ST" suffix from a cityState label.
func cityName(c City) string {
	if c.State == "" {
		return c.CityState
	}
	if name, ok := strings.CutSuffix(c.CityState, ", "+c.State); ok && name != "" {
		return name
	}
	return c.CityState
}
