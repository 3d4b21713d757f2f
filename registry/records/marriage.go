package records

import (
	"civicore/registry/schema"
	"encoding/json"
	"fmt"
)

const (
	MinimumMarriageAge = 18
	// Parental consent applies up to and including this age, advice above it.
	ConsentMaxAge = 20
)

var ErrUnderage = fmt.Errorf("%w: Applicants must be at least 18 years old", schema.ErrInvalidInput)

type MarriageForms struct {
	MinAge   int  `json:"minAge"`
	Consent  bool `json:"consent"`
	Advice   bool `json:"advice"`
	Notice   bool `json:"notice"`
	Underage bool `json:"underage"`
}

// RequiredForms decides which forms a marriage license application needs from
// the younger applicant's age.
func RequiredForms(groomAge, brideAge int) (MarriageForms, error) {
	if groomAge <= 0 || brideAge <= 0 {
		return MarriageForms{}, fmt.Errorf("%w: groom and bride ages must be positive", schema.ErrInvalidInput)
	}

	minAge := min(groomAge, brideAge)
	return MarriageForms{
		MinAge:   minAge,
		Consent:  minAge >= MinimumMarriageAge && minAge <= ConsentMaxAge,
		Advice:   minAge > ConsentMaxAge,
		Notice:   true,
		Underage: minAge < MinimumMarriageAge,
	}, nil
}

type MarriageLicenseRequest struct {
	GroomAge int    `json:"groomAge"`
	BrideAge int    `json:"brideAge"`
	Barangay string `json:"barangay"`
}

type marriageMetadata struct {
	GroomAge int  `json:"groomAge"`
	BrideAge int  `json:"brideAge"`
	Consent  bool `json:"consent"`
	Advice   bool `json:"advice"`
}

// SaveMarriageLicense records a marriage license application as a document.
func (s *DocumentStore) SaveMarriageLicense(req MarriageLicenseRequest) (schema.Document, error) {
	forms, err := RequiredForms(req.GroomAge, req.BrideAge)
	if err != nil {
		return schema.Document{}, err
	}
	if forms.Underage {
		return schema.Document{}, ErrUnderage
	}

	metadata, err := json.Marshal(marriageMetadata{
		GroomAge: req.GroomAge,
		BrideAge: req.BrideAge,
		Consent:  forms.Consent,
		Advice:   forms.Advice,
	})
	if err != nil {
		return schema.Document{}, fmt.Errorf("error encoding marriage license metadata: %w", err)
	}

	return s.Create(DocumentRequest{
		Name:       fmt.Sprintf("Marriage_License_%d.pdf", s.Now().UnixMilli()),
		Type:       schema.DocMarriageLicense,
		Size:       "2.5 MB",
		Status:     schema.StatusProcessed,
		PersonName: "Couple Names",
		Barangay:   req.Barangay,
		Metadata:   metadata,
	})
}
