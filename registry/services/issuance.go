package services

import (
	"civicore/registry/auth"
	"civicore/registry/records"
	"civicore/registry/schema"
	"civicore/utils"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type IssuanceService struct {
	issuances *records.IssuanceStore
	userAuth  *auth.Authenticator
}

func (s *IssuanceService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.RequireAction(auth.ViewRecords))

		r.Get("/", s.List)
		r.Get("/{issuance_id}", s.Get)
		r.Get("/next-cert-number/{type}", s.NextCertNumber)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.RequireAction(auth.IssueCertificate))

		r.Post("/", s.Create)
	})

	return r
}

type IssuanceInfo struct {
	Id           uint   `json:"id"`
	CertNumber   string `json:"certNumber"`
	Type         string `json:"type"`
	Name         string `json:"name"`
	Barangay     string `json:"barangay"`
	IssuanceDate string `json:"issuanceDate"`
	Status       string `json:"status"`
}

func convertToIssuanceInfo(issuance *schema.Issuance) IssuanceInfo {
	return IssuanceInfo{
		Id:           issuance.Id,
		CertNumber:   issuance.CertNumber,
		Type:         issuance.Type,
		Name:         issuance.Name,
		Barangay:     issuance.Barangay,
		IssuanceDate: issuance.IssuanceDate,
		Status:       issuance.Status,
	}
}

func (s *IssuanceService) List(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	issuanceType, term := params.Get("type"), params.Get("search")

	var issuances []schema.Issuance
	var err error
	if term != "" {
		issuances, err = s.issuances.Search(term, issuanceType)
	} else {
		issuances, err = s.issuances.List(issuanceType)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	infos := make([]IssuanceInfo, 0, len(issuances))
	for _, issuance := range issuances {
		infos = append(infos, convertToIssuanceInfo(&issuance))
	}

	utils.WriteJsonResponse(w, infos)
}

func (s *IssuanceService) Get(w http.ResponseWriter, r *http.Request) {
	issuanceId, ok := urlId(w, r, "issuance_id")
	if !ok {
		return
	}

	issuance, err := s.issuances.Get(issuanceId)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, convertToIssuanceInfo(&issuance))
}

type certNumberResponse struct {
	CertNumber string `json:"certNumber"`
}

func (s *IssuanceService) NextCertNumber(w http.ResponseWriter, r *http.Request) {
	docType, err := utils.URLParam(r, "type")
	if err != nil {
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}

	certNumber, err := s.issuances.NextCertNumber(docType)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, certNumberResponse{CertNumber: certNumber})
}

type createIssuanceResponse struct {
	Success    bool   `json:"success"`
	Id         uint   `json:"id"`
	CertNumber string `json:"certNumber"`
}

func (s *IssuanceService) Create(w http.ResponseWriter, r *http.Request) {
	var params records.IssuanceRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	issuance, err := s.issuances.Create(params)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, createIssuanceResponse{Success: true, Id: issuance.Id, CertNumber: issuance.CertNumber})
}

type MarriageLicenseService struct {
	documents *records.DocumentStore
	userAuth  *auth.Authenticator
}

func (s *MarriageLicenseService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.RequireAction(auth.ViewRecords))

		r.Get("/forms", s.Forms)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.RequireAction(auth.UploadDocuments))

		r.Post("/", s.Save)
	})

	return r
}

func queryInt(r *http.Request, key string) (int, error) {
	value := r.URL.Query().Get(key)
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid or missing '%v' query parameter '%v'", key, value)
	}
	return n, nil
}

func (s *MarriageLicenseService) Forms(w http.ResponseWriter, r *http.Request) {
	groomAge, err := queryInt(r, "groomAge")
	if err != nil {
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}
	brideAge, err := queryInt(r, "brideAge")
	if err != nil {
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}

	forms, err := records.RequiredForms(groomAge, brideAge)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, forms)
}

func (s *MarriageLicenseService) Save(w http.ResponseWriter, r *http.Request) {
	var params records.MarriageLicenseRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	doc, err := s.documents.SaveMarriageLicense(params)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, createdResponse{Success: true, Id: doc.Id})
}
