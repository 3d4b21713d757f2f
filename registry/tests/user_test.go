package tests

import (
	"civicore/registry/accounts"
	"civicore/registry/auth"
	"civicore/registry/schema"
	"errors"
	"net/http"
	"slices"
	"testing"
)

func TestLogin(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	if admin.user.Role != schema.SuperAdmin || admin.user.Email != adminEmail {
		t.Fatalf("unexpected login user %+v", admin.user)
	}

	c := env.newClient()
	err = c.login(adminEmail, "wrong password")
	if !errors.Is(err, ErrUnauthorized) || message(err) != "Invalid email or password" {
		t.Fatalf("expected invalid credentials, got %v", err)
	}

	err = c.login("nobody@naic.gov.ph", adminPassword)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown email should be unauthorized, got %v", err)
	}

	err = c.Post("/login").Json(map[string]string{"email": adminEmail}).Do(nil)
	if status(err) != http.StatusBadRequest {
		t.Fatalf("missing password should be a bad request, got %v", err)
	}
}

func TestLoginRateLimit(t *testing.T) {
	env := setupTestEnvWith(t, envOptions{loginRateLimit: 2})

	c := env.newClient()
	for i := 0; i < 2; i++ {
		if err := c.login(adminEmail, adminPassword); err != nil {
			t.Fatal(err)
		}
	}

	err := c.login(adminEmail, adminPassword)
	if status(err) != http.StatusTooManyRequests {
		t.Fatalf("expected rate limit, got %v", err)
	}
}

func TestRoutesRequireSession(t *testing.T) {
	env := setupTestEnv(t)
	c := env.newClient()

	for _, endpoint := range []string{"/users", "/documents", "/issuances", "/barangays", "/templates", "/session", "/stats/dashboard"} {
		err := c.Get(endpoint).Do(nil)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("%v without a token should be unauthorized, got %v", endpoint, err)
		}
	}

	c.authToken = "not-a-jwt"
	if err := c.Get("/users").Do(nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("invalid token should be unauthorized, got %v", err)
	}

	var health map[string]string
	if err := c.Get("/health").Do(&health); err != nil || health["status"] != "ok" {
		t.Fatalf("health check failed: %v %v", health, err)
	}
}

func TestCreateAccount(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	clerk, err := env.newUser(admin, "clerk", schema.Admin)
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(clerk.user.Permissions, accounts.DefaultPermissions(schema.Admin)) {
		t.Fatalf("admin should get the admin defaults, got %v", clerk.user.Permissions)
	}

	err = admin.createAccount("dup", "clerk@naic.gov.ph", "password1", schema.RegularUser)
	if status(err) != http.StatusConflict {
		t.Fatalf("duplicate email should conflict, got %v", err)
	}

	err = admin.createAccount("bad", "not-an-email", "password1", schema.RegularUser)
	if status(err) != http.StatusBadRequest {
		t.Fatalf("bad email should be rejected, got %v", err)
	}

	err = admin.createAccount("short", "short@naic.gov.ph", "12345", schema.RegularUser)
	if status(err) != http.StatusBadRequest {
		t.Fatalf("short password should be rejected, got %v", err)
	}

	// The Admin defaults do not include Manage Users.
	err = clerk.createAccount("other", "other@naic.gov.ph", "password1", schema.RegularUser)
	if status(err) != http.StatusForbidden {
		t.Fatalf("admin without manage users cannot create accounts, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	first, err := env.newUser(admin, "first", schema.RegularUser)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.newUser(admin, "second", schema.Admin); err != nil {
		t.Fatal(err)
	}

	users, err := admin.listUsers()
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 3 || users[0].Name != "second" || users[2].Email != adminEmail {
		t.Fatalf("super admin should see every user newest first, got %+v", users)
	}

	users, err = first.listUsers()
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].Id != first.user.Id {
		t.Fatalf("a regular user should only see themselves, got %+v", users)
	}

	if _, err := first.userInfo(first.user.Id); err != nil {
		t.Fatal(err)
	}
	if _, err := first.userInfo(admin.user.Id); status(err) != http.StatusForbidden {
		t.Fatalf("regular user cannot view others, got %v", err)
	}
	if _, err := admin.userInfo(9999); status(err) != http.StatusNotFound {
		t.Fatalf("unknown user should be not found, got %v", err)
	}
}

func TestUpdateAccess(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	user, err := env.newUser(admin, "user", schema.RegularUser)
	if err != nil {
		t.Fatal(err)
	}

	err = admin.updateAccess(user.user.Id, map[string]interface{}{
		"role":        schema.Admin,
		"permissions": []string{schema.ViewDashboard, schema.MappingAnalytics},
	})
	if err != nil {
		t.Fatal(err)
	}

	// The change applies to the user's next request without logging in again.
	session, err := user.session()
	if err != nil {
		t.Fatal(err)
	}
	if session.User.Role != schema.Admin || !session.Capabilities.Navigation.Mapping || !session.Capabilities.Navigation.Upload {
		t.Fatalf("session does not reflect new access: %+v", session)
	}

	err = admin.updateAccess(user.user.Id, map[string]interface{}{"permissions": []string{}})
	if status(err) != http.StatusBadRequest {
		t.Fatalf("empty permission set should be rejected, got %v", err)
	}

	err = admin.updateAccess(user.user.Id, map[string]interface{}{})
	if status(err) != http.StatusBadRequest {
		t.Fatalf("empty update should be rejected, got %v", err)
	}

	err = user.updateAccess(user.user.Id, map[string]interface{}{"role": schema.SuperAdmin})
	if status(err) != http.StatusForbidden {
		t.Fatalf("users cannot change their own role, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	user, err := env.newUser(admin, "user", schema.RegularUser)
	if err != nil {
		t.Fatal(err)
	}

	var res messageResponse
	err = user.Put("/users/" + itoa(user.user.Id) + "/profile").Json(map[string]string{"name": "Renamed", "email": "renamed@naic.gov.ph"}).Do(&res)
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != "Profile updated successfully!" {
		t.Fatalf("unexpected message %q", res.Message)
	}

	err = user.Put("/users/" + itoa(admin.user.Id) + "/profile").Json(map[string]string{"name": "Hacked", "email": "x@naic.gov.ph"}).Do(nil)
	if status(err) != http.StatusForbidden {
		t.Fatalf("users without manage users cannot edit others, got %v", err)
	}

	err = user.Put("/users/" + itoa(user.user.Id) + "/profile").Json(map[string]string{"name": "Renamed", "email": adminEmail}).Do(nil)
	if status(err) != http.StatusConflict {
		t.Fatalf("taken email should conflict, got %v", err)
	}

	if err := user.login("renamed@naic.gov.ph", "user_password"); err != nil {
		t.Fatal(err)
	}
}

func TestChangePassword(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	user, err := env.newUser(admin, "user", schema.RegularUser)
	if err != nil {
		t.Fatal(err)
	}

	change := func(c client, body map[string]interface{}) error {
		return c.Post("/change-password").Json(body).Do(nil)
	}

	err = change(user, map[string]interface{}{"userId": user.user.Id, "currentPassword": "wrong", "newPassword": "newpass1"})
	if !errors.Is(err, ErrUnauthorized) || message(err) != "Current password is incorrect" {
		t.Fatalf("wrong current password should be unauthorized, got %v", err)
	}

	err = change(user, map[string]interface{}{"userId": user.user.Id, "currentPassword": "user_password", "newPassword": "12345"})
	if status(err) != http.StatusBadRequest {
		t.Fatalf("short password should be rejected, got %v", err)
	}

	err = change(user, map[string]interface{}{
		"userId": user.user.Id, "currentPassword": "user_password", "newPassword": "newpass1", "confirmPassword": "newpass2",
	})
	if status(err) != http.StatusBadRequest {
		t.Fatalf("mismatched confirmation should be rejected, got %v", err)
	}

	err = change(user, map[string]interface{}{"userId": admin.user.Id, "currentPassword": adminPassword, "newPassword": "newpass1"})
	if status(err) != http.StatusForbidden {
		t.Fatalf("regular users cannot change other passwords, got %v", err)
	}

	err = change(user, map[string]interface{}{
		"userId": user.user.Id, "currentPassword": "user_password", "newPassword": "newpass1", "confirmPassword": "newpass1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := user.login("user@naic.gov.ph", "newpass1"); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteAccount(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	user, err := env.newUser(admin, "user", schema.RegularUser)
	if err != nil {
		t.Fatal(err)
	}

	if err := admin.deleteUser(admin.user.Id, adminPassword); status(err) != http.StatusForbidden {
		t.Fatalf("self deletion should be forbidden, got %v", err)
	}

	if err := admin.deleteUser(user.user.Id, "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("wrong confirmation password should be unauthorized, got %v", err)
	}

	if err := user.deleteUser(admin.user.Id, "user_password"); status(err) != http.StatusForbidden {
		t.Fatalf("regular user cannot delete accounts, got %v", err)
	}

	if err := admin.deleteUser(user.user.Id, adminPassword); err != nil {
		t.Fatal(err)
	}

	if _, err := user.session(); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("deleted user's token should stop working, got %v", err)
	}

	if err := admin.deleteUser(user.user.Id, adminPassword); status(err) != http.StatusNotFound {
		t.Fatalf("deleting twice should be not found, got %v", err)
	}
}

func TestSessionCapabilities(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	user, err := env.newUser(admin, "user", schema.RegularUser)
	if err != nil {
		t.Fatal(err)
	}

	adminSession, err := admin.session()
	if err != nil {
		t.Fatal(err)
	}
	if !adminSession.Capabilities.Navigation.Accounts || !slices.Contains(adminSession.Capabilities.Actions, auth.DeleteAccount) {
		t.Fatalf("unexpected super admin capabilities %+v", adminSession.Capabilities)
	}

	userSession, err := user.session()
	if err != nil {
		t.Fatal(err)
	}
	nav := userSession.Capabilities.Navigation
	if nav.Accounts || nav.Upload || nav.Mapping {
		t.Fatalf("regular user should see no restricted navigation, got %+v", nav)
	}
	if slices.Contains(userSession.Capabilities.Actions, auth.DeleteAccount) {
		t.Fatal("regular user should not be able to delete accounts")
	}
}
