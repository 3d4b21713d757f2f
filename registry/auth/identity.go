package auth

import (
	"civicore/registry/schema"
	"civicore/utils"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"gorm.io/gorm"
)

type LoginResult struct {
	User        schema.User
	AccessToken string
}

// Authenticator issues session tokens on login and resolves them back into a
// Session on every authenticated request.
type Authenticator struct {
	jwtManager *JwtManager
	db         *gorm.DB
}

func NewAuthenticator(db *gorm.DB, secret []byte, sessionTtl time.Duration) *Authenticator {
	return &Authenticator{jwtManager: NewJwtManager(secret, sessionTtl), db: db}
}

func (a *Authenticator) LoginWithEmail(email, password string) (LoginResult, error) {
	user, err := schema.GetUserByEmail(email, a.db)
	if err != nil {
		if errors.Is(err, schema.ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !PasswordMatches(user.Password, password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := a.jwtManager.CreateSessionJwt(user.Id)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{User: user, AccessToken: token}, nil
}

func (a *Authenticator) requireToken() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		handler := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				msg := "missing or invalid access token"
				if err != nil {
					msg = fmt.Sprintf("%v: %v", msg, err)
				}
				utils.WriteError(w, msg, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(handler)
	}
}

func (a *Authenticator) addSessionToContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		handler := func(w http.ResponseWriter, r *http.Request) {
			userId, err := UserIdFromContext(r)
			if err != nil {
				utils.WriteError(w, err.Error(), http.StatusUnauthorized)
				return
			}

			user, err := schema.GetUser(userId, a.db)
			if err != nil {
				if errors.Is(err, schema.ErrUserNotFound) {
					// The account was deleted after the token was issued.
					utils.WriteError(w, fmt.Sprintf("session user %v no longer exists", userId), http.StatusUnauthorized)
					return
				}
				slog.Error("unable to load session user", "user_id", userId, "error", err)
				utils.WriteError(w, fmt.Sprintf("unable to find user %v: %v", userId, err), http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), NewSession(user))))
		}

		return http.HandlerFunc(handler)
	}
}

func (a *Authenticator) AuthMiddleware() chi.Middlewares {
	return chi.Middlewares{a.jwtManager.Verifier(), a.requireToken(), a.addSessionToContext()}
}

// AddInitialAdmin creates the first Super Admin unless a user with the email
// already exists.
func AddInitialAdmin(db *gorm.DB, name, email, password string, permissions schema.PermissionSet) error {
	hashedPwd, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("error encrypting admin password: %w", err)
	}

	admin := schema.User{
		Name:        name,
		Email:       email,
		Password:    hashedPwd,
		Role:        schema.SuperAdmin,
		Permissions: permissions,
	}

	err = db.Transaction(func(txn *gorm.DB) error {
		var existingUser schema.User
		result := txn.Limit(1).Find(&existingUser, "email = ?", email)
		if result.Error != nil {
			slog.Error("sql error checking if admin has already been added", "error", result.Error)
			return schema.ErrDbAccessFailed
		}
		if result.RowsAffected == 0 {
			result := txn.Create(&admin)
			if result.Error != nil {
				slog.Error("sql error creating initial admin user", "error", result.Error)
				return schema.ErrDbAccessFailed
			}
			slog.Info("created initial admin", "email", email)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error adding initial admin to db: %w", err)
	}

	return nil
}
