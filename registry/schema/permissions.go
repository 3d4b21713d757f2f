package schema

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
)

const (
	ViewDashboard    = "View Dashboard"
	UploadDocuments  = "Upload Documents"
	ManageUsers      = "Manage Users"
	MappingAnalytics = "Mapping Analytics"
	ViewIssuance     = "View Issuance"
	EditPermissions  = "Edit Permissions"
	ViewReports      = "View Reports"
	ViewServices     = "View Services"
)

var permissionVocabulary = []string{
	ViewDashboard, UploadDocuments, ManageUsers, MappingAnalytics, ViewIssuance,
	EditPermissions, ViewReports, ViewServices,
}

func ValidPermission(perm string) bool {
	return slices.Contains(permissionVocabulary, perm)
}

// PermissionSet is stored as JSON encoded text. Stored values that are absent
// or cannot be decoded load as an empty set.
type PermissionSet []string

func ParsePermissions(data []byte) PermissionSet {
	var perms []string
	if err := json.Unmarshal(data, &perms); err != nil || perms == nil {
		return PermissionSet{}
	}
	return PermissionSet(perms)
}

func (p PermissionSet) Has(perm string) bool {
	return slices.Contains(p, perm)
}

func (p PermissionSet) Value() (driver.Value, error) {
	data, err := json.Marshal(p.orEmpty())
	if err != nil {
		return nil, fmt.Errorf("error encoding permissions: %w", err)
	}
	return string(data), nil
}

func (p *PermissionSet) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		*p = ParsePermissions([]byte(v))
	case []byte:
		*p = ParsePermissions(v)
	default:
		*p = PermissionSet{}
	}
	return nil
}

func (p PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.orEmpty())
}

func (p PermissionSet) orEmpty() []string {
	if p == nil {
		return []string{}
	}
	return []string(p)
}
