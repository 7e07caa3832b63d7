package rankings

import (
	"fmt"

	"github.com/couchcryptid/drivers-report-service/internal/moment"
)

// National averages quoted under every city profile.
const (
	NationalYearsBetweenAccidents = 10
	NationalBrakingEvents         = 19
)

// AreaData holds accident and braking figures for a city or its suburbs.
type AreaData struct {
	Name                  string   `json:"name,omitempty"`
	YearsBetweenAccidents *float64 `json:"years_between_accidents,omitempty"`
	BrakingEvents         *float64 `json:"braking_events_per_1000_miles,omitempty"`
}

// Profile is the detail view of one ranked city.
type Profile struct {
	CityState   string `json:"city_state"`
	MapID       string `json:"map_id"`
	Year        int    `json:"year"`
	Rank        int    `json:"rank"`
	RankingType string `json:"ranking_type"`
	Best        bool   `json:"best"`
	Headline    string `json:"headline"`

	PopulationDensity *float64 `json:"population_density,omitempty"`
	RainSnow          *float64 `json:"rain_snow,omitempty"`
	LastYearRank      *float64 `json:"last_year_rank,omitempty"`

	City      *AreaData `json:"city,omitempty"`
	Suburban  *AreaData `json:"suburban,omitempty"`
	Footnotes []string  `json:"footnotes"`
}

// BuildProfile describes the ranked city m under sel.
func BuildProfile(m Marker, sel Selection, catalog Catalog) Profile {
	c := m.City
	year := sel.Year
	p := Profile{
		CityState:   c.CityState,
		MapID:       sel.ID,
		Year:        year,
		Rank:        m.Rank,
		RankingType: sel.RankingType,
		Best:        m.Rank == 1 && year == catalog.CurrentYear,
	}
	p.Headline = headline(p, catalog)

	p.PopulationDensity = metric(c, RankColumn(year, "Population Density"))
	p.RainSnow = metric(c, RankColumn(year, "Rain & Snow"))
	p.LastYearRank = metric(c, RankColumn(year-1, "Top Cities"))

	city := AreaData{
		YearsBetweenAccidents: metric(c, RankColumn(year, "Average Years Between Accidents")),
		BrakingEvents:         metric(c, RankColumn(year, "Braking Events per 1000 Miles (city)")),
	}
	if city.YearsBetweenAccidents != nil || city.BrakingEvents != nil {
		city.Name = c.CityState
		p.City = &city
	}
	suburban := AreaData{
		YearsBetweenAccidents: metric(c, RankColumn(year, "Years Between Accidents (Suburban Area only)")),
		BrakingEvents:         metric(c, RankColumn(year, "Suburban Braking Events per 1000 Miles")),
	}
	if suburban.YearsBetweenAccidents != nil || suburban.BrakingEvents != nil {
		suburban.Name = c.MetropolitanArea
		p.Suburban = &suburban
	}

	p.Footnotes = []string{
		fmt.Sprintf("National average years between accidents: %d", NationalYearsBetweenAccidents),
		fmt.Sprintf("National average braking events per 1000 miles: %d", NationalBrakingEvents),
	}
	return p
}

func headline(p Profile, catalog Catalog) string {
	if p.Best {
		return "This year's best!"
	}
	verb := "was"
	if p.Year == catalog.CurrentYear {
		verb = "is"
	}
	suffix := ""
	if p.MapID != catalog.TopCity {
		suffix = " by " + p.RankingType
	}
	rank := moment.LookupLocale(moment.DefaultLocale).Ordinal(p.Rank)
	return fmt.Sprintf("%s %s the %s safest driving city in %d%s.", p.CityState, verb, rank, p.Year, suffix)
}

func metric(c City, column string) *float64 {
	v, ok := c.Metric(column)
	if !ok {
		return nil
	}
	return &v
}
