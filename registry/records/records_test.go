package records

import (
	"civicore/registry/certnum"
	"civicore/registry/schema"
	"civicore/registry/storage"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2026, time.March, 3, 10, 0, 0, 0, time.Local)

func setupDb(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&schema.Issuance{}, &schema.Document{}, &schema.CertSequence{}))
	return db
}

func issuanceStore(t *testing.T, mode certnum.Mode) *IssuanceStore {
	db := setupDb(t)
	certs := certnum.NewGenerator(db, mode)
	certs.Now = func() time.Time { return fixedNow }
	store := NewIssuanceStore(db, certs)
	store.Now = func() time.Time { return fixedNow }
	return store
}

func documentStore(t *testing.T) *DocumentStore {
	store := NewDocumentStore(setupDb(t), storage.NewPreviews(storage.NewSharedDisk(t.TempDir())))
	store.Now = func() time.Time { return fixedNow }
	return store
}
