package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestParsePermissionsFallback(t *testing.T) {
	cases := map[string][]byte{
		"empty":     []byte(""),
		"null":      []byte("null"),
		"malformed": []byte(`["View Dashboard"`),
		"object":    []byte(`{"a": 1}`),
		"numbers":   []byte(`[1, 2]`),
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			perms := ParsePermissions(raw)
			assert.NotNil(t, perms)
			assert.Empty(t, perms)
		})
	}

	perms := ParsePermissions([]byte(`["View Dashboard","Manage Users"]`))
	assert.Equal(t, PermissionSet{ViewDashboard, ManageUsers}, perms)
	assert.True(t, perms.Has(ManageUsers))
	assert.False(t, perms.Has(MappingAnalytics))
}

func TestPermissionSetScan(t *testing.T) {
	var perms PermissionSet
	require.NoError(t, perms.Scan(nil))
	assert.Equal(t, PermissionSet{}, perms)

	require.NoError(t, perms.Scan("not json"))
	assert.Equal(t, PermissionSet{}, perms)

	require.NoError(t, perms.Scan([]byte(`["View Reports"]`)))
	assert.Equal(t, PermissionSet{ViewReports}, perms)
}

func TestPermissionSetEncodesEmptyAsArray(t *testing.T) {
	var perms PermissionSet

	value, err := perms.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", value)

	data, err := json.Marshal(struct {
		Permissions PermissionSet `json:"permissions"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"permissions": []}`, string(data))
}

func TestMalformedStoredPermissions(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}))

	require.NoError(t, db.Exec(
		"INSERT INTO users (name, email, role, permissions) VALUES (?, ?, ?, ?)",
		"Ana", "ana@mail.com", string(Admin), "{broken",
	).Error)

	user, err := GetUserByEmail("ana@mail.com", db)
	require.NoError(t, err)
	assert.Equal(t, PermissionSet{}, user.Permissions)

	_, err = GetUser(user.Id+100, db)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
