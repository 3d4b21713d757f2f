package records

import (
	"civicore/registry/certnum"
	"civicore/registry/schema"
	"civicore/registry/stats"
	"civicore/utils/logging"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"
)

var issuanceTypes = map[string]bool{
	schema.DocBirth:           true,
	schema.DocDeath:           true,
	schema.DocMarriage:        true,
	schema.DocMarriageLicense: true,
}

func ValidIssuanceType(t string) bool {
	return issuanceTypes[t]
}

type IssuanceRequest struct {
	CertNumber   string `json:"certNumber"`
	Type         string `json:"type"`
	Name         string `json:"name"`
	Barangay     string `json:"barangay"`
	IssuanceDate string `json:"issuanceDate"`
	Status       string `json:"status"`
}

type IssuanceStore struct {
	db    *gorm.DB
	certs *certnum.Generator

	Now func() time.Time
}

func NewIssuanceStore(db *gorm.DB, certs *certnum.Generator) *IssuanceStore {
	return &IssuanceStore{db: db, certs: certs, Now: time.Now}
}

func (s *IssuanceStore) validate(req *IssuanceRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.CertNumber = strings.TrimSpace(req.CertNumber)

	if req.Name == "" {
		return fmt.Errorf("%w: recipient name is required", schema.ErrInvalidInput)
	}
	if s.certs.Mode() == certnum.Racy && req.CertNumber == "" {
		return fmt.Errorf("%w: certificate number is required", schema.ErrInvalidInput)
	}
	if !ValidIssuanceType(req.Type) {
		return fmt.Errorf("%w: invalid issuance type '%v'", schema.ErrInvalidInput, req.Type)
	}

	switch req.Status {
	case "":
		req.Status = schema.StatusIssued
	case schema.StatusIssued, schema.StatusPending:
	default:
		return fmt.Errorf("%w: invalid issuance status '%v'", schema.ErrInvalidInput, req.Status)
	}

	if req.IssuanceDate == "" {
		req.IssuanceDate = s.Now().Format(stats.DateLayout)
	} else if _, err := time.Parse(stats.DateLayout, req.IssuanceDate); err != nil {
		return fmt.Errorf("%w: issuance date must be YYYY-MM-DD", schema.ErrInvalidInput)
	}

	return nil
}

// Create stores a new issuance. In racy mode the submitted certificate number
// is stored as is, duplicates included. In atomic mode the number is assigned
// in the same transaction as the insert and any submitted number is ignored.
func (s *IssuanceStore) Create(req IssuanceRequest) (schema.Issuance, error) {
	if err := s.validate(&req); err != nil {
		return schema.Issuance{}, err
	}

	issuance := schema.Issuance{
		CertNumber:   req.CertNumber,
		Type:         req.Type,
		Name:         req.Name,
		Barangay:     req.Barangay,
		IssuanceDate: req.IssuanceDate,
		Status:       req.Status,
	}

	err := s.db.Transaction(func(txn *gorm.DB) error {
		if s.certs.Mode() == certnum.Atomic {
			certNumber, err := s.certs.Assign(txn, req.Type)
			if err != nil {
				return err
			}
			issuance.CertNumber = certNumber
		}

		if result := txn.Create(&issuance); result.Error != nil {
			slog.Error("sql error creating issuance", "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
	if err != nil {
		return schema.Issuance{}, err
	}

	slog.Info("issuance created", "issuance_id", issuance.Id, "cert_number", issuance.CertNumber, "code", logging.ISSUANCE_CREATE)

	return issuance, nil
}

// List returns issuances newest first, restricted to one type when issuanceType
// is not empty.
func (s *IssuanceStore) List(issuanceType string) ([]schema.Issuance, error) {
	query := s.db.Order("id DESC")
	if issuanceType != "" {
		query = query.Where("type = ?", issuanceType)
	}

	var issuances []schema.Issuance
	if result := query.Find(&issuances); result.Error != nil {
		slog.Error("sql error listing issuances", "error", result.Error)
		return nil, schema.ErrDbAccessFailed
	}
	return issuances, nil
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

// Search matches term case-insensitively as a substring of the certificate
// number, name, type or barangay. A record matching any field is returned.
func (s *IssuanceStore) Search(term, issuanceType string) ([]schema.Issuance, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(issuanceType)
	}

	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	query := s.db.Where(
		`(LOWER(cert_number) LIKE ? ESCAPE '\' OR LOWER(name) LIKE ? ESCAPE '\' OR LOWER(type) LIKE ? ESCAPE '\' OR LOWER(barangay) LIKE ? ESCAPE '\')`,
		pattern, pattern, pattern, pattern,
	)
	if issuanceType != "" {
		query = query.Where("type = ?", issuanceType)
	}

	var issuances []schema.Issuance
	if result := query.Order("id DESC").Find(&issuances); result.Error != nil {
		slog.Error("sql error searching issuances", "error", result.Error)
		return nil, schema.ErrDbAccessFailed
	}
	return issuances, nil
}

func (s *IssuanceStore) Get(id uint) (schema.Issuance, error) {
	return schema.GetIssuance(id, s.db)
}

func (s *IssuanceStore) NextCertNumber(docType string) (string, error) {
	return s.certs.Next(docType)
}
