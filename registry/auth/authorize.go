package auth

import (
	"civicore/registry/schema"
	"civicore/utils"
	"fmt"
	"net/http"
)

type Action string

const (
	ViewOwnProfile      Action = "view_own_profile"
	ViewAllUsers        Action = "view_all_users"
	ChangeOwnPassword   Action = "change_own_password"
	ChangeOtherPassword Action = "change_other_password"
	EditProfile         Action = "edit_profile"
	ChangeRole          Action = "change_role"
	EditPermissionSet   Action = "edit_permission_set"
	CreateAccount       Action = "create_account"
	DeleteAccount       Action = "delete_account"
	SeeAccountsNav      Action = "see_accounts_nav"
	SeeUploadNav        Action = "see_upload_nav"
	SeeMappingNav       Action = "see_mapping_nav"
	EditTemplates       Action = "edit_templates"

	ViewRecords      Action = "view_records"
	IssueCertificate Action = "issue_certificate"
	UploadDocuments  Action = "upload_documents"
	ViewMapping      Action = "view_mapping"
)

// A rule decides one action for the session acting on target. target is the
// user the action applies to, or 0 when the action has no target user.
type rule func(s Session, target uint) bool

func isRole(roles ...schema.Role) rule {
	return func(s Session, _ uint) bool {
		for _, role := range roles {
			if s.Role == role {
				return true
			}
		}
		return false
	}
}

func holds(perm string) rule {
	return func(s Session, _ uint) bool {
		return s.Permissions.Has(perm)
	}
}

func isSelf(s Session, target uint) bool {
	return target == s.UserId
}

func notSelf(s Session, target uint) bool {
	return target != s.UserId
}

func always(Session, uint) bool {
	return true
}

func allOf(rules ...rule) rule {
	return func(s Session, target uint) bool {
		for _, r := range rules {
			if !r(s, target) {
				return false
			}
		}
		return true
	}
}

func anyOf(rules ...rule) rule {
	return func(s Session, target uint) bool {
		for _, r := range rules {
			if r(s, target) {
				return true
			}
		}
		return false
	}
}

var rules = map[Action]rule{
	ViewOwnProfile:      always,
	ViewAllUsers:        isRole(schema.SuperAdmin),
	ChangeOwnPassword:   isSelf,
	ChangeOtherPassword: anyOf(isSelf, holds(schema.ManageUsers)),
	EditProfile:         anyOf(isSelf, holds(schema.ManageUsers)),
	ChangeRole:          allOf(isRole(schema.SuperAdmin), holds(schema.ManageUsers)),
	EditPermissionSet:   allOf(isRole(schema.SuperAdmin), holds(schema.ManageUsers)),
	CreateAccount:       holds(schema.ManageUsers),
	DeleteAccount:       allOf(isRole(schema.SuperAdmin), holds(schema.ManageUsers), notSelf),
	SeeAccountsNav:      isRole(schema.SuperAdmin, schema.Admin),
	SeeUploadNav:        isRole(schema.Admin, schema.SuperAdmin),
	SeeMappingNav:       holds(schema.MappingAnalytics),
	EditTemplates:       isRole(schema.SuperAdmin),

	ViewRecords:      always,
	IssueCertificate: always,
	UploadDocuments:  isRole(schema.Admin, schema.SuperAdmin),
	ViewMapping:      holds(schema.MappingAnalytics),
}

// Actions lists every action known to the authorization table.
func Actions() []Action {
	return []Action{
		ViewOwnProfile, ViewAllUsers, ChangeOwnPassword, ChangeOtherPassword, EditProfile,
		ChangeRole, EditPermissionSet, CreateAccount, DeleteAccount, SeeAccountsNav,
		SeeUploadNav, SeeMappingNav, EditTemplates, ViewRecords, IssueCertificate,
		UploadDocuments, ViewMapping,
	}
}

// Allowed reports whether the session may perform action on target. Unknown
// actions and unauthenticated sessions are always refused.
func Allowed(s Session, action Action, target uint) bool {
	if !s.Authenticated() {
		return false
	}
	r, ok := rules[action]
	if !ok {
		return false
	}
	return r(s, target)
}

func Authorize(s Session, action Action, target uint) error {
	if !Allowed(s, action, target) {
		return fmt.Errorf("%w: user %v is not allowed to %v", ErrForbidden, s.UserId, action)
	}
	return nil
}

// PasswordChangeAction picks the rule that governs changing target's password.
func PasswordChangeAction(s Session, target uint) Action {
	if target == s.UserId {
		return ChangeOwnPassword
	}
	return ChangeOtherPassword
}

type Navigation struct {
	Accounts bool `json:"accounts"`
	Upload   bool `json:"upload"`
	Mapping  bool `json:"mapping"`
}

type Capabilities struct {
	Navigation Navigation `json:"navigation"`
	Actions    []Action   `json:"actions"`
}

// CapabilitiesFor lists the actions the session may perform on itself or on
// some other user.
func CapabilitiesFor(s Session) Capabilities {
	caps := Capabilities{
		Navigation: Navigation{
			Accounts: Allowed(s, SeeAccountsNav, 0),
			Upload:   Allowed(s, SeeUploadNav, 0),
			Mapping:  Allowed(s, SeeMappingNav, 0),
		},
		Actions: []Action{},
	}
	for _, action := range Actions() {
		if Allowed(s, action, s.UserId) || Allowed(s, action, 0) {
			caps.Actions = append(caps.Actions, action)
		}
	}
	return caps
}

// RequireAction refuses the request with 403 unless the session may perform
// an action that has no target user.
func RequireAction(action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			session, err := SessionFromContext(r)
			if err != nil {
				utils.WriteError(w, err.Error(), http.StatusUnauthorized)
				return
			}

			if err := Authorize(session, action, 0); err != nil {
				utils.WriteError(w, err.Error(), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
