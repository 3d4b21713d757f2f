package records

import (
	"civicore/registry/schema"
	"civicore/registry/stats"
	"civicore/registry/storage"
	"civicore/utils/logging"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultPersonName = "Extracted Name"
	DefaultBarangay   = "Poblacion"
)

var documentTypes = map[string]bool{
	schema.DocBirth:           true,
	schema.DocDeath:           true,
	schema.DocMarriage:        true,
	schema.DocMarriageLicense: true,
	schema.DocUncategorized:   true,
}

type DocumentRequest struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Date        string          `json:"date"`
	Size        string          `json:"size"`
	Status      string          `json:"status"`
	PreviewData string          `json:"previewData"`
	PersonName  string          `json:"personName"`
	Barangay    string          `json:"barangay"`
	Metadata    json.RawMessage `json:"metadata"`
}

// Document is a stored document with its preview inlined.
type Document struct {
	Id          uint           `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Date        string         `json:"date"`
	Size        string         `json:"size"`
	Status      string         `json:"status"`
	PreviewData string         `json:"previewData,omitempty"`
	PersonName  string         `json:"personName"`
	Barangay    string         `json:"barangay"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
}

type DocumentStore struct {
	db       *gorm.DB
	previews *storage.Previews

	Now func() time.Time
}

func NewDocumentStore(db *gorm.DB, previews *storage.Previews) *DocumentStore {
	return &DocumentStore{db: db, previews: previews, Now: time.Now}
}

func (s *DocumentStore) validate(req *DocumentRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fmt.Errorf("%w: document name is required", schema.ErrInvalidInput)
	}

	if req.Type == "" {
		req.Type = schema.DocUncategorized
	} else if !documentTypes[req.Type] {
		return fmt.Errorf("%w: invalid document type '%v'", schema.ErrInvalidInput, req.Type)
	}

	switch req.Status {
	case "":
		req.Status = schema.StatusProcessed
	case schema.StatusProcessed, schema.StatusPending:
	default:
		return fmt.Errorf("%w: invalid document status '%v'", schema.ErrInvalidInput, req.Status)
	}

	if req.Date == "" {
		req.Date = s.Now().Format(stats.DateLayout)
	} else if _, err := time.Parse(stats.DateLayout, req.Date); err != nil {
		return fmt.Errorf("%w: document date must be YYYY-MM-DD", schema.ErrInvalidInput)
	}

	if req.PersonName == "" {
		req.PersonName = DefaultPersonName
	}
	if req.Barangay == "" {
		req.Barangay = DefaultBarangay
	}

	if len(req.Metadata) > 0 && !json.Valid(req.Metadata) {
		return fmt.Errorf("%w: document metadata must be valid json", schema.ErrInvalidInput)
	}
	if string(req.Metadata) == "null" {
		req.Metadata = nil
	}

	if req.PreviewData != "" {
		if err := storage.ValidateDataURL(req.PreviewData); err != nil {
			return err
		}
	}

	return nil
}

func (s *DocumentStore) Create(req DocumentRequest) (schema.Document, error) {
	if err := s.validate(&req); err != nil {
		return schema.Document{}, err
	}

	doc := schema.Document{
		Name:       req.Name,
		Type:       req.Type,
		Date:       req.Date,
		Size:       req.Size,
		Status:     req.Status,
		PersonName: req.PersonName,
		Barangay:   req.Barangay,
	}
	if len(req.Metadata) > 0 {
		doc.Metadata = datatypes.JSON(req.Metadata)
	}

	if req.PreviewData != "" {
		key, err := s.previews.Save(req.PreviewData)
		if err != nil {
			return schema.Document{}, err
		}
		doc.PreviewKey = key
	}

	if result := s.db.Create(&doc); result.Error != nil {
		slog.Error("sql error creating document", "error", result.Error)
		if doc.PreviewKey != "" {
			if err := s.previews.Delete(doc.PreviewKey); err != nil {
				slog.Error("error removing preview of unsaved document", "key", doc.PreviewKey, "error", err)
			}
		}
		return schema.Document{}, schema.ErrDbAccessFailed
	}

	slog.Info("document uploaded", "document_id", doc.Id, "type", doc.Type, "code", logging.DOCUMENT_UPLOAD)

	return doc, nil
}

func (s *DocumentStore) inline(doc schema.Document) Document {
	view := Document{
		Id:         doc.Id,
		Name:       doc.Name,
		Type:       doc.Type,
		Date:       doc.Date,
		Size:       doc.Size,
		Status:     doc.Status,
		PersonName: doc.PersonName,
		Barangay:   doc.Barangay,
		Metadata:   doc.Metadata,
	}
	if doc.PreviewKey != "" {
		preview, err := s.previews.Load(doc.PreviewKey)
		if err != nil {
			slog.Error("error loading document preview", "document_id", doc.Id, "error", err)
		}
		view.PreviewData = preview
	}
	return view
}

// List returns all documents newest first with their previews inlined. A
// preview that cannot be read is left out rather than failing the listing.
func (s *DocumentStore) List() ([]Document, error) {
	var docs []schema.Document
	if result := s.db.Order("id DESC").Find(&docs); result.Error != nil {
		slog.Error("sql error listing documents", "error", result.Error)
		return nil, schema.ErrDbAccessFailed
	}

	views := make([]Document, 0, len(docs))
	for _, doc := range docs {
		views = append(views, s.inline(doc))
	}
	return views, nil
}

func (s *DocumentStore) Get(id uint) (Document, error) {
	doc, err := schema.GetDocument(id, s.db)
	if err != nil {
		return Document{}, err
	}
	return s.inline(doc), nil
}

func (s *DocumentStore) Delete(id uint) error {
	var doc schema.Document

	err := s.db.Transaction(func(txn *gorm.DB) error {
		var err error
		doc, err = schema.GetDocument(id, txn)
		if err != nil {
			return err
		}

		if result := txn.Delete(&doc); result.Error != nil {
			slog.Error("sql error deleting document", "document_id", id, "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
	if err != nil {
		return err
	}

	if doc.PreviewKey != "" {
		if err := s.previews.Delete(doc.PreviewKey); err != nil {
			slog.Warn("document deleted but preview was not removed", "document_id", id, "key", doc.PreviewKey, "error", err)
		}
	}

	slog.Info("document deleted", "document_id", id, "code", logging.DOCUMENT_DELETE)

	return nil
}
