package versions

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			// Schema of databases created before migrations were tracked.
			ID:      "0",
			Migrate: func(*gorm.DB) error { return nil },
		},
		{
			ID:       "1",
			Migrate:  Migration_1_cert_sequences,
			Rollback: Rollback_1_cert_sequences,
		},
	}
}
