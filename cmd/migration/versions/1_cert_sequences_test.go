package versions

import (
	"testing"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestCertSequenceMigrationSeedsFromIssuances(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDb, err := db.DB()
	require.NoError(t, err)
	sqlDb.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&issuance{}))
	for _, cert := range []string{"BC-2025-004", "BC-2025-002", "ML-2025-010", "garbage"} {
		require.NoError(t, db.Create(&issuance{CertNumber: cert}).Error)
	}

	require.NoError(t, gormigrate.New(db, gormigrate.DefaultOptions, Migrations()).Migrate())

	var rows []certSequence
	require.NoError(t, db.Order("prefix").Find(&rows).Error)
	assert.Equal(t, []certSequence{
		{Prefix: "BC", Year: 2025, Last: 2},
		{Prefix: "ML", Year: 2025, Last: 10},
	}, rows, "the newest record wins, as in number generation")

	require.NoError(t, Rollback_1_cert_sequences(db))
	assert.False(t, db.Migrator().HasTable(&certSequence{}))
}
