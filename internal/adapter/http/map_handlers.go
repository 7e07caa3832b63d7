package http

import (
	"errors"
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/drivers-report-service/internal/rankings"
)

// RankingService serves the city ranking maps.
type RankingService interface {
	Catalog() rankings.Catalog
	Select(mapID string, year int, state string) (rankings.Selection, error)
	MapData(sel rankings.Selection) rankings.MapData
	Listing(sel rankings.Selection) []rankings.Marker
	Profile(sel rankings.Selection, cityState string) (rankings.Profile, error)
}

type mapResponse struct {
	Selection rankings.Selection `json:"selection"`
	rankings.MapData
}

type listingResponse struct {
	Selection rankings.Selection `json:"selection"`
	Cities    []rankings.Marker  `json:"cities"`
}

func (s *Server) handleListMaps(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.rankings.Catalog())
}

func (s *Server) handleMapData(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, mapResponse{Selection: sel, MapData: s.rankings.MapData(sel)})
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	cities := s.rankings.Listing(sel)
	if cities == nil {
		cities = []rankings.Marker{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, listingResponse{Selection: sel, Cities: cities})
}

func (s *Server) handleCityProfile(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	profile, err := s.rankings.Profile(sel, r.PathValue("cityState"))
	if err != nil {
		writeRankingError(w, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, profile)
}

// selection reads the map id from the path and the optional year and state
// query parameters. It writes the error response itself when it fails.
func (s *Server) selection(w http.ResponseWriter, r *http.Request) (rankings.Selection, bool) {
	var year int
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return rankings.Selection{}, false
		}
		year = y
	}
	sel, err := s.rankings.Select(r.PathValue("id"), year, r.URL.Query().Get("state"))
	if err != nil {
		writeRankingError(w, err)
		return rankings.Selection{}, false
	}
	return sel, true
}

func writeRankingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rankings.ErrUnknownMap), errors.Is(err, rankings.ErrCityNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, rankings.ErrUnknownYear):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
