package accounts

import (
	"civicore/registry/auth"
	"civicore/registry/schema"
	"civicore/utils/logging"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var ErrIncorrectPassword = fmt.Errorf("%w: current password is incorrect", auth.ErrUnauthorized)

// DefaultPermissions is the permission set a new account receives for role.
// Permissions are never caller supplied at creation time.
func DefaultPermissions(role schema.Role) schema.PermissionSet {
	switch role {
	case schema.SuperAdmin:
		return schema.PermissionSet{
			schema.ViewDashboard, schema.UploadDocuments, schema.ManageUsers,
			schema.EditPermissions, schema.MappingAnalytics,
		}
	case schema.Admin:
		return schema.PermissionSet{
			schema.ViewDashboard, schema.UploadDocuments, schema.MappingAnalytics, schema.ViewReports,
		}
	default:
		return schema.PermissionSet{schema.ViewDashboard, schema.ViewServices}
	}
}

type Manager struct {
	db *gorm.DB
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %v", schema.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func validateNewPassword(password string, confirm *string) error {
	if len(password) < MinPasswordLength {
		return invalid("password must be at least %d characters", MinPasswordLength)
	}
	if confirm != nil && *confirm != password {
		return invalid("password confirmation does not match")
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return invalid("'%v' is not a valid email address", email)
	}
	return nil
}

type CreateAccountRequest struct {
	Name     string
	Email    string
	Password string
	Role     schema.Role
}

func (m *Manager) CreateAccount(actor auth.Session, req CreateAccountRequest) (schema.User, error) {
	if err := auth.Authorize(actor, auth.CreateAccount, 0); err != nil {
		return schema.User{}, err
	}

	name, email := strings.TrimSpace(req.Name), strings.TrimSpace(req.Email)
	if name == "" || email == "" || req.Password == "" || req.Role == "" {
		return schema.User{}, invalid("name, email, password, and role are required")
	}
	if !req.Role.Valid() {
		return schema.User{}, invalid("invalid role '%v'", req.Role)
	}
	if err := validateEmail(email); err != nil {
		return schema.User{}, err
	}
	if err := validateNewPassword(req.Password, nil); err != nil {
		return schema.User{}, err
	}

	hashedPwd, err := auth.HashPassword(req.Password)
	if err != nil {
		return schema.User{}, err
	}

	user := schema.User{
		Name:        name,
		Email:       email,
		Password:    hashedPwd,
		Role:        req.Role,
		Permissions: DefaultPermissions(req.Role),
	}

	err = m.db.Transaction(func(txn *gorm.DB) error {
		inUse, err := schema.EmailInUse(email, 0, txn)
		if err != nil {
			return err
		}
		if inUse {
			return schema.ErrEmailAlreadyInUse
		}

		if result := txn.Create(&user); result.Error != nil {
			slog.Error("sql error creating new user entry", "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
	if err != nil {
		return schema.User{}, fmt.Errorf("error creating account: %w", err)
	}

	slog.Info("account created", "user_id", user.Id, "email", user.Email, "role", user.Role, "by", actor.UserId, "code", logging.ACCOUNT_CREATE)
	return user, nil
}

type ChangePasswordRequest struct {
	UserId          uint
	CurrentPassword string
	NewPassword     string
	// Optional; when present it must equal NewPassword.
	ConfirmPassword *string
}

// ChangePassword verifies CurrentPassword against the stored password of the
// target user, then replaces it.
func (m *Manager) ChangePassword(actor auth.Session, req ChangePasswordRequest) error {
	if err := auth.Authorize(actor, auth.PasswordChangeAction(actor, req.UserId), req.UserId); err != nil {
		return err
	}

	if err := validateNewPassword(req.NewPassword, req.ConfirmPassword); err != nil {
		return err
	}

	hashedPwd, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	err = m.db.Transaction(func(txn *gorm.DB) error {
		user, err := schema.GetUser(req.UserId, txn)
		if err != nil {
			return err
		}

		if !auth.PasswordMatches(user.Password, req.CurrentPassword) {
			return ErrIncorrectPassword
		}

		result := txn.Model(&user).Update("password", hashedPwd)
		if result.Error != nil {
			slog.Error("sql error updating password", "user_id", req.UserId, "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error changing password: %w", err)
	}

	slog.Info("password changed", "user_id", req.UserId, "by", actor.UserId, "code", logging.ACCOUNT_PASSWORD)
	return nil
}

func (m *Manager) UpdateProfile(actor auth.Session, userId uint, name, email string) error {
	if err := auth.Authorize(actor, auth.EditProfile, userId); err != nil {
		return err
	}

	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" {
		return invalid("name is required")
	}
	if err := validateEmail(email); err != nil {
		return err
	}

	err := m.db.Transaction(func(txn *gorm.DB) error {
		user, err := schema.GetUser(userId, txn)
		if err != nil {
			return err
		}

		inUse, err := schema.EmailInUse(email, userId, txn)
		if err != nil {
			return err
		}
		if inUse {
			return schema.ErrEmailAlreadyInUse
		}

		result := txn.Model(&user).Updates(map[string]interface{}{"name": name, "email": email})
		if result.Error != nil {
			slog.Error("sql error updating profile", "user_id", userId, "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error updating profile: %w", err)
	}

	slog.Info("profile updated", "user_id", userId, "by", actor.UserId, "code", logging.ACCOUNT_UPDATE)
	return nil
}

func normalizePermissions(perms []string) (schema.PermissionSet, error) {
	if len(perms) == 0 {
		return nil, invalid("at least one permission must be selected")
	}

	set := make(schema.PermissionSet, 0, len(perms))
	for _, perm := range perms {
		if !schema.ValidPermission(perm) {
			return nil, invalid("unknown permission '%v'", perm)
		}
		if !set.Has(perm) {
			set = append(set, perm)
		}
	}
	return set, nil
}

// UpdateRoleAndPermissions changes the role, the permission set, or both. A nil
// argument leaves that field unchanged, but at least one must be given.
func (m *Manager) UpdateRoleAndPermissions(actor auth.Session, userId uint, role *schema.Role, permissions []string) error {
	if role == nil && permissions == nil {
		return invalid("role or permissions must be provided")
	}

	updates := map[string]interface{}{}

	if role != nil {
		if err := auth.Authorize(actor, auth.ChangeRole, userId); err != nil {
			return err
		}
		if !role.Valid() {
			return invalid("invalid role '%v'", *role)
		}
		updates["role"] = *role
	}

	if permissions != nil {
		if err := auth.Authorize(actor, auth.EditPermissionSet, userId); err != nil {
			return err
		}
		set, err := normalizePermissions(permissions)
		if err != nil {
			return err
		}
		updates["permissions"] = set
	}

	err := m.db.Transaction(func(txn *gorm.DB) error {
		user, err := schema.GetUser(userId, txn)
		if err != nil {
			return err
		}

		result := txn.Model(&user).Updates(updates)
		if result.Error != nil {
			slog.Error("sql error updating role and permissions", "user_id", userId, "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error updating user access: %w", err)
	}

	slog.Info("user access updated", "user_id", userId, "updates", updates, "by", actor.UserId, "code", logging.ACCOUNT_UPDATE)
	return nil
}

// DeleteAccount removes userId after the acting user re-enters their own
// password. Self deletion is refused before the password is checked.
func (m *Manager) DeleteAccount(actor auth.Session, userId uint, actingPassword string) error {
	if err := auth.Authorize(actor, auth.DeleteAccount, userId); err != nil {
		return err
	}

	err := m.db.Transaction(func(txn *gorm.DB) error {
		acting, err := schema.GetUser(actor.UserId, txn)
		if err != nil {
			if errors.Is(err, schema.ErrUserNotFound) {
				return auth.ErrUnauthorized
			}
			return err
		}

		if !auth.PasswordMatches(acting.Password, actingPassword) {
			return fmt.Errorf("%w: incorrect password, account not deleted", auth.ErrUnauthorized)
		}

		if _, err := schema.GetUser(userId, txn); err != nil {
			return err
		}

		result := txn.Delete(&schema.User{}, userId)
		if result.Error != nil {
			slog.Error("sql error deleting user", "user_id", userId, "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error deleting account: %w", err)
	}

	slog.Info("account deleted", "user_id", userId, "by", actor.UserId, "code", logging.ACCOUNT_DELETE)
	return nil
}

// ListUsers returns every account to a Super Admin and only the caller's own
// account to everyone else.
func (m *Manager) ListUsers(actor auth.Session) ([]schema.User, error) {
	if !auth.Allowed(actor, auth.ViewAllUsers, 0) {
		user, err := schema.GetUser(actor.UserId, m.db)
		if err != nil {
			return nil, err
		}
		return []schema.User{user}, nil
	}

	var users []schema.User
	result := m.db.Order("id DESC").Find(&users)
	if result.Error != nil {
		slog.Error("sql error listing users", "error", result.Error)
		return nil, schema.ErrDbAccessFailed
	}
	return users, nil
}

func (m *Manager) GetUser(actor auth.Session, userId uint) (schema.User, error) {
	if userId != actor.UserId {
		if err := auth.Authorize(actor, auth.ViewAllUsers, userId); err != nil {
			return schema.User{}, err
		}
	}
	return schema.GetUser(userId, m.db)
}
