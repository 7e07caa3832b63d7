package rankings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// City is one row of the driving-safety dataset. Every numeric column other
// than the coordinates, such as "2018 Top Cities" or
// "2018 Rain & Snow", is collected into Metrics.
type City struct {
	CityState        string
	State            string
	MetropolitanArea string
	LatLng           []float64 // [lat, lon]
	Metrics          map[string]float64

	// Geocoding enrichment fields.
	FormattedAddress string
	GeoSource        string // "forward", "reverse", "original", "failed"
}

// Metric returns the value of column. A zero value counts as missing.
func (c City) Metric(column string) (float64, bool) {
	v, ok := c.Metrics[column]
	if !ok || v == 0 {
		return 0, false
	}
	return v, true
}

// HasCoordinates reports whether the city can be placed on a map.
func (c City) HasCoordinates() bool {
	return len(c.LatLng) == 2 && (c.LatLng[0] != 0 || c.LatLng[1] != 0)
}

// UnmarshalJSON reads the flat dataset row.
func (c *City) UnmarshalJSON(data []byte) error {
	var row map[string]json.RawMessage
	if err := json.Unmarshal(data, &row); err != nil {
		return err
	}

	*c = City{Metrics: make(map[string]float64)}
	for key, raw := range row {
		switch key {
		case "cityState":
			if err := json.Unmarshal(raw, &c.CityState); err != nil {
				return fmt.Errorf("cityState: %w", err)
			}
		case "State":
			if err := json.Unmarshal(raw, &c.State); err != nil {
				return fmt.Errorf("State: %w", err)
			}
		case "metropolitanArea":
			if err := json.Unmarshal(raw, &c.MetropolitanArea); err != nil {
				return fmt.Errorf("metropolitanArea: %w", err)
			}
		case "latLng":
			if err := json.Unmarshal(raw, &c.LatLng); err != nil {
				return fmt.Errorf("latLng: %w", err)
			}
		case "formattedAddress":
			_ = json.Unmarshal(raw, &c.FormattedAddress)
		case "geoSource":
			_ = json.Unmarshal(raw, &c.GeoSource)
		default:
			if v, ok := numericColumn(raw); ok {
				c.Metrics[key] = v
			}
		}
	}
	if c.CityState == "" {
		return errors.New("row without cityState")
	}
	return nil
}

// MarshalJSON writes the row back in its flat form.
func (c City) MarshalJSON() ([]byte, error) {
	row := make(map[string]any, len(c.Metrics)+6)
	for k, v := range c.Metrics {
		row[k] = v
	}
	row["cityState"] = c.CityState
	row["State"] = c.State
	if c.MetropolitanArea != "" {
		row["metropolitanArea"] = c.MetropolitanArea
	}
	if len(c.LatLng) > 0 {
		row["latLng"] = c.LatLng
	}
	if c.FormattedAddress != "" {
		row["formattedAddress"] = c.FormattedAddress
	}
	if c.GeoSource != "" {
		row["geoSource"] = c.GeoSource
	}
	return json.Marshal(row)
}

// numericColumn accepts JSON numbers and numeric strings.
func numericColumn(raw json.RawMessage) (float64, bool) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// LoadDataset decodes a JSON array of cities.
func LoadDataset(r io.Reader) ([]City, error) {
	var cities []City
	if err := json.NewDecoder(r).Decode(&cities); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return cities, nil
}
