package schema

import (
	"gorm.io/datatypes"
)

type Role string

const (
	SuperAdmin  Role = "Super Admin"
	Admin       Role = "Admin"
	RegularUser Role = "User"
)

func (r Role) Valid() bool {
	return r == SuperAdmin || r == Admin || r == RegularUser
}

type User struct {
	Id uint `gorm:"primaryKey"`

	Name     string `gorm:"size:100;not null"`
	Email    string `gorm:"unique;size:254;not null"`
	Password []byte

	Role        Role          `gorm:"size:20;not null"`
	Permissions PermissionSet `gorm:"type:text"`
}

const (
	DocBirth           = "birth"
	DocDeath           = "death"
	DocMarriage        = "marriage"
	DocMarriageLicense = "marriage_license"
	DocUncategorized   = "Uncategorized"
)

const (
	StatusProcessed = "Processed"
	StatusPending   = "Pending"
	StatusIssued    = "Issued"
)

type Document struct {
	Id uint `gorm:"primaryKey"`

	Name string `gorm:"size:255;not null"`
	Type string `gorm:"size:50;not null"`
	// Upload date as YYYY-MM-DD.
	Date   string `gorm:"size:10"`
	Size   string `gorm:"size:50"`
	Status string `gorm:"size:20;not null"`

	// Storage key of the preview image, empty when the upload had no preview.
	PreviewKey string `gorm:"size:100"`

	PersonName string `gorm:"size:255"`
	Barangay   string `gorm:"size:100"`
	Metadata   datatypes.JSON
}

type Issuance struct {
	Id uint `gorm:"primaryKey"`

	CertNumber   string `gorm:"size:50;not null;index"`
	Type         string `gorm:"size:50;not null;index"`
	Name         string `gorm:"size:255;not null"`
	Barangay     string `gorm:"size:100"`
	IssuanceDate string `gorm:"size:10"`
	Status       string `gorm:"size:20;not null"`
}

type Barangay struct {
	Id uint `gorm:"primaryKey"`

	Name string   `gorm:"unique;size:100;not null"`
	Lat  *float64 `gorm:"column:lat"`
	Lng  *float64 `gorm:"column:lng"`
}

type Template struct {
	Type    string `gorm:"primaryKey;size:50"`
	Content string `gorm:"type:text"`
}

// CertSequence holds the last assigned certificate sequence for one prefix and
// year. It is only written when certificate numbers are assigned atomically.
type CertSequence struct {
	Prefix string `gorm:"primaryKey;size:10"`
	Year   int    `gorm:"primaryKey;autoIncrement:false"`
	Last   int    `gorm:"column:last_seq;not null;default:0"`
}
