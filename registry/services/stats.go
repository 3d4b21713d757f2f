package services

import (
	"civicore/registry/auth"
	"civicore/registry/config"
	"civicore/registry/schema"
	"civicore/registry/stats"
	"civicore/utils"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type StatsService struct {
	aggregator *stats.Aggregator
	// Map markers always come from the embedded list, which carries coordinates.
	mapBarangays []schema.Barangay
	mapView      config.MapView
	userAuth     *auth.Authenticator
}

func (s *StatsService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.RequireAction(auth.ViewRecords))

		r.Get("/dashboard", s.Dashboard)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.RequireAction(auth.ViewMapping))

		r.Get("/barangays", s.Barangays)
	})

	return r
}

func (s *StatsService) Dashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := s.aggregator.DashboardCounts()
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, counts)
}

type barangayStatsResponse struct {
	stats.BarangayStats
	Center config.Coordinate    `json:"center"`
	Bounds [2]config.Coordinate `json:"bounds"`
}

func (s *StatsService) Barangays(w http.ResponseWriter, r *http.Request) {
	tallies, err := s.aggregator.PerBarangay(s.mapBarangays)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, barangayStatsResponse{
		BarangayStats: tallies,
		Center:        s.mapView.Center,
		Bounds:        s.mapView.Bounds,
	})
}
