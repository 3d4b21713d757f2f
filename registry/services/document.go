package services

import (
	"civicore/registry/auth"
	"civicore/registry/records"
	"civicore/utils"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type DocumentService struct {
	documents *records.DocumentStore
	userAuth  *auth.Authenticator
}

func (s *DocumentService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.RequireAction(auth.ViewRecords))

		r.Get("/", s.List)
		r.Get("/{document_id}", s.Get)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.RequireAction(auth.UploadDocuments))

		r.Post("/", s.Upload)
		r.Delete("/{document_id}", s.Delete)
	})

	return r
}

func (s *DocumentService) List(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List()
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, docs)
}

func (s *DocumentService) Get(w http.ResponseWriter, r *http.Request) {
	documentId, ok := urlId(w, r, "document_id")
	if !ok {
		return
	}

	doc, err := s.documents.Get(documentId)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, doc)
}

func (s *DocumentService) Upload(w http.ResponseWriter, r *http.Request) {
	var params records.DocumentRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	doc, err := s.documents.Create(params)
	if err != nil {
		writeError(w, err)
		return
	}

	utils.WriteJsonResponse(w, createdResponse{Success: true, Id: doc.Id})
}

func (s *DocumentService) Delete(w http.ResponseWriter, r *http.Request) {
	documentId, ok := urlId(w, r, "document_id")
	if !ok {
		return
	}

	if err := s.documents.Delete(documentId); err != nil {
		writeError(w, err)
		return
	}

	utils.WriteSuccess(w)
}
