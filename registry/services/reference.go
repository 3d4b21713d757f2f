package services

import (
	"civicore/registry/auth"
	"civicore/registry/records"
	"civicore/registry/schema"
	"civicore/utils"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type BarangayInfo struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

func convertToBarangayInfo(barangay *schema.Barangay) BarangayInfo {
	return BarangayInfo{Name: barangay.Name, Lat: barangay.Lat, Lng: barangay.Lng}
}

type BarangayService struct {
	reference *records.ReferenceStore
	userAuth  *auth.Authenticator
}

func (s *BarangayService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.RequireAction(auth.ViewRecords))

		r.Get("/", s.List)
	})

	return r
}

func (s *BarangayService) List(w http.ResponseWriter, r *http.Request) {
	barangays, err := s.reference.Barangays()
	if err != nil {
		writeError(w, err)
		return
	}

	infos := make([]BarangayInfo, 0, len(barangays))
	for _, barangay := range barangays {
		infos = append(infos, convertToBarangayInfo(&barangay))
	}

	utils.WriteJsonResponse(w, infos)
}

type TemplateService struct {
	reference *records.ReferenceStore
	userAuth  *auth.Authenticator
}

func (s *TemplateService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.RequireAction(auth.ViewRecords))

		r.Get("/", s.List)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.RequireAction(auth.EditTemplates))

		r.Put("/{type}", s.Update)
	})

	return r
}

func (s *TemplateService) List(w http.ResponseWriter, r *http.Request) {
	templates, err := s.reference.Templates()
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, templates)
}

type updateTemplateRequest struct {
	Content string `json:"content"`
}

func (s *TemplateService) Update(w http.ResponseWriter, r *http.Request) {
	templateType, err := utils.URLParam(r, "type")
	if err != nil {
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params updateTemplateRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	if err := s.reference.UpdateTemplate(templateType, params.Content); err != nil {
		writeError(w, err)
		return
	}

	utils.WriteSuccess(w)
}
