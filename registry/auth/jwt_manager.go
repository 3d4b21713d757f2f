package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/jwtauth/v5"
)

type JwtManager struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

func NewJwtManager(secret []byte, ttl time.Duration) *JwtManager {
	return &JwtManager{auth: jwtauth.New("HS256", secret, nil), ttl: ttl}
}

func (m *JwtManager) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(m.auth)
}

const userIdKey = "user_id"

func (m *JwtManager) CreateSessionJwt(userId uint) (string, error) {
	claims := map[string]interface{}{
		userIdKey: strconv.FormatUint(uint64(userId), 10),
		"exp":     time.Now().Add(m.ttl),
	}
	_, token, err := m.auth.Encode(claims)
	if err != nil {
		slog.Error("error generating jwt", "error", err)
		return "", fmt.Errorf("%w: %w", ErrGeneratingJwt, err)
	}
	return token, nil
}

// UserIdFromContext reads the user id claim of the token the Verifier placed on
// the request context.
func UserIdFromContext(r *http.Request) (uint, error) {
	token, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return 0, fmt.Errorf("unable to read session token: %w", err)
	}
	if token == nil {
		return 0, fmt.Errorf("no session token on request")
	}

	raw, _ := claims[userIdKey].(string)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("session token carries invalid user id %q", raw)
	}
	return uint(id), nil
}
