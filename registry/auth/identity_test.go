package auth

import (
	"civicore/registry/schema"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDb(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&schema.User{}))
	return db
}

func TestLoginAndSessionMiddleware(t *testing.T) {
	db := setupDb(t)
	perms := schema.PermissionSet{schema.ManageUsers}
	require.NoError(t, AddInitialAdmin(db, "Root", "root@mail.com", "root_pw", perms))
	// Seeding twice must not create a duplicate.
	require.NoError(t, AddInitialAdmin(db, "Root", "root@mail.com", "other", perms))

	var count int64
	db.Model(&schema.User{}).Count(&count)
	assert.Equal(t, int64(1), count)

	a := NewAuthenticator(db, []byte("test-secret"), time.Hour)

	_, err := a.LoginWithEmail("root@mail.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = a.LoginWithEmail("nobody@mail.com", "root_pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := a.LoginWithEmail("root@mail.com", "root_pw")
	require.NoError(t, err)
	assert.Equal(t, schema.SuperAdmin, login.User.Role)

	r := chi.NewRouter()
	r.Use(a.AuthMiddleware()...)
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
		session, err := SessionFromContext(r)
		require.NoError(t, err)
		assert.Equal(t, login.User.Id, session.UserId)
		assert.True(t, session.Permissions.Has(schema.ManageUsers))
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.Delete(&schema.User{}, login.User.Id).Error)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExpiredToken(t *testing.T) {
	db := setupDb(t)
	require.NoError(t, AddInitialAdmin(db, "Root", "root@mail.com", "root_pw", nil))

	a := NewAuthenticator(db, []byte("test-secret"), -time.Minute)
	login, err := a.LoginWithEmail("root@mail.com", "root_pw")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(a.AuthMiddleware()...)
	r.Get("/me", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, []byte("secret1"), hashed)
	assert.True(t, PasswordMatches(hashed, "secret1"))
	assert.False(t, PasswordMatches(hashed, "secret2"))
	assert.False(t, PasswordMatches(nil, "secret1"))
}
