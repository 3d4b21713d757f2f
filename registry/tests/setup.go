package tests

import (
	"civicore/registry/accounts"
	"civicore/registry/auth"
	"civicore/registry/certnum"
	"civicore/registry/config"
	"civicore/registry/schema"
	"civicore/registry/services"
	"civicore/registry/storage"
	"fmt"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	civicore services.Civicore
	api      chi.Router
	db       *gorm.DB
	storage  storage.Storage
}

const (
	adminName     = "Registrar"
	adminEmail    = "registrar@naic.gov.ph"
	adminPassword = "registrar_password123"
)

type envOptions struct {
	certMode       certnum.Mode
	loginRateLimit int
}

func setupTestEnv(t *testing.T) *testEnv {
	return setupTestEnvWith(t, envOptions{certMode: certnum.Racy})
}

func setupTestEnvWith(t *testing.T, opts envOptions) *testEnv {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	// Every connection to an in memory sqlite db sees its own empty database.
	sqlDb, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDb.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&schema.User{}, &schema.Document{}, &schema.Issuance{},
		&schema.Barangay{}, &schema.Template{}, &schema.CertSequence{},
	)
	if err != nil {
		t.Fatal(err)
	}

	err = auth.AddInitialAdmin(db, adminName, adminEmail, adminPassword, accounts.DefaultPermissions(schema.SuperAdmin))
	if err != nil {
		t.Fatal(err)
	}

	reference, err := config.LoadReferenceData()
	if err != nil {
		t.Fatal(err)
	}

	store := storage.NewSharedDisk(t.TempDir())

	civicore := services.NewCivicore(db, services.Options{
		JwtSecret:      []byte("c1v1c0r3-t3st-s3cr3t"),
		SessionTtl:     time.Hour,
		CertMode:       opts.certMode,
		Storage:        store,
		Reference:      reference,
		LoginRateLimit: opts.loginRateLimit,
	})
	if err := civicore.InitReferenceData(); err != nil {
		t.Fatal(err)
	}

	return &testEnv{civicore: civicore, api: civicore.Routes(), db: db, storage: store}
}

func (t *testEnv) newClient() client {
	return client{api: t.api}
}

func (t *testEnv) adminClient() (client, error) {
	c := t.newClient()
	err := c.login(adminEmail, adminPassword)
	return c, err
}

// newUser creates an account through the admin and logs in as it.
func (t *testEnv) newUser(admin client, name string, role schema.Role) (client, error) {
	email := name + "@naic.gov.ph"
	password := name + "_password"

	if err := admin.createAccount(name, email, password, role); err != nil {
		return client{}, err
	}

	c := t.newClient()
	if err := c.login(email, password); err != nil {
		return client{}, fmt.Errorf("error logging in as new user %v: %w", name, err)
	}
	return c, nil
}
