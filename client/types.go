package client

import "encoding/json"

type User struct {
	Id          uint     `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type Document struct {
	Id          uint            `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Date        string          `json:"date"`
	Size        string          `json:"size"`
	Status      string          `json:"status"`
	PreviewData string          `json:"previewData,omitempty"`
	PersonName  string          `json:"personName"`
	Barangay    string          `json:"barangay"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

type Issuance struct {
	Id           uint   `json:"id"`
	CertNumber   string `json:"certNumber"`
	Type         string `json:"type"`
	Name         string `json:"name"`
	Barangay     string `json:"barangay"`
	IssuanceDate string `json:"issuanceDate"`
	Status       string `json:"status"`
}

type Barangay struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat,omitempty"`
	Lng  *float64 `json:"lng,omitempty"`
}

type NewAccount struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type NewDocument struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Date        string          `json:"date,omitempty"`
	Size        string          `json:"size,omitempty"`
	Status      string          `json:"status,omitempty"`
	PreviewData string          `json:"previewData,omitempty"`
	PersonName  string          `json:"personName,omitempty"`
	Barangay    string          `json:"barangay,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

type NewIssuance struct {
	CertNumber   string `json:"certNumber,omitempty"`
	Type         string `json:"type"`
	Name         string `json:"name"`
	Barangay     string `json:"barangay,omitempty"`
	IssuanceDate string `json:"issuanceDate,omitempty"`
	Status       string `json:"status,omitempty"`
}

// AccessUpdate changes the role, the permissions or both. Nil fields are left
// as they are.
type AccessUpdate struct {
	Role        *string  `json:"role,omitempty"`
	Permissions []string `json:"permissions"`
}

type ProfileUpdate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
