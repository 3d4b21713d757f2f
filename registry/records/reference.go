package records

import (
	"civicore/registry/schema"
	"civicore/utils/logging"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferenceStore serves the barangay list and the certificate templates.
type ReferenceStore struct {
	db *gorm.DB

	fallbackBarangays []schema.Barangay
}

func NewReferenceStore(db *gorm.DB, fallbackBarangays []schema.Barangay) *ReferenceStore {
	return &ReferenceStore{db: db, fallbackBarangays: fallbackBarangays}
}

// Barangays returns the stored barangays by name, or the built in list when
// none are stored.
func (s *ReferenceStore) Barangays() ([]schema.Barangay, error) {
	var barangays []schema.Barangay
	if result := s.db.Order("name").Find(&barangays); result.Error != nil {
		slog.Error("sql error listing barangays", "error", result.Error)
		return nil, schema.ErrDbAccessFailed
	}
	if len(barangays) == 0 {
		return s.fallbackBarangays, nil
	}
	return barangays, nil
}

// SeedTemplates stores each template whose type is not present yet. Existing
// templates keep their edited content.
func (s *ReferenceStore) SeedTemplates(templates []schema.Template) error {
	if len(templates) == 0 {
		return nil
	}
	result := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&templates)
	if result.Error != nil {
		slog.Error("sql error seeding templates", "error", result.Error)
		return schema.ErrDbAccessFailed
	}
	if result.RowsAffected > 0 {
		slog.Info("seeded default templates", "count", result.RowsAffected)
	}
	return nil
}

func (s *ReferenceStore) Templates() (map[string]string, error) {
	var templates []schema.Template
	if result := s.db.Find(&templates); result.Error != nil {
		slog.Error("sql error listing templates", "error", result.Error)
		return nil, schema.ErrDbAccessFailed
	}

	byType := make(map[string]string, len(templates))
	for _, t := range templates {
		byType[t.Type] = t.Content
	}
	return byType, nil
}

// UpdateTemplate replaces the content of an existing template.
func (s *ReferenceStore) UpdateTemplate(templateType, content string) error {
	err := s.db.Transaction(func(txn *gorm.DB) error {
		template, err := schema.GetTemplate(templateType, txn)
		if err != nil {
			return err
		}

		result := txn.Model(&template).Update("content", content)
		if result.Error != nil {
			slog.Error("sql error updating template", "type", templateType, "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("template updated", "type", templateType, "code", logging.TEMPLATE_UPDATE)
	return nil
}
