package auth

import (
	"civicore/registry/schema"
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrGeneratingJwt      = errors.New("error generating jwt")
)

// Session is the authenticated caller of a request. It is rebuilt from the
// users table on every request so role and permission edits apply immediately.
type Session struct {
	UserId      uint
	Name        string
	Email       string
	Role        schema.Role
	Permissions schema.PermissionSet
}

func NewSession(user schema.User) Session {
	return Session{
		UserId:      user.Id,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		Permissions: user.Permissions,
	}
}

func (s Session) Authenticated() bool {
	return s.UserId != 0
}

type requestContextKey string

const sessionRequestContextKey requestContextKey = "session"

func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionRequestContextKey, session)
}

func SessionFromContext(r *http.Request) (Session, error) {
	sessionUntyped := r.Context().Value(sessionRequestContextKey)
	if sessionUntyped == nil {
		return Session{}, fmt.Errorf("session not found in request context")
	}
	session, ok := sessionUntyped.(Session)
	if !ok {
		return Session{}, fmt.Errorf("invalid value for session field")
	}
	return session, nil
}
