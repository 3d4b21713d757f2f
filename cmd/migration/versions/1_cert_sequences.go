package versions

import (
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type certSequence struct {
	Prefix string `gorm:"primaryKey;size:10"`
	Year   int    `gorm:"primaryKey;autoIncrement:false"`
	Last   int    `gorm:"column:last_seq;not null;default:0"`
}

func (certSequence) TableName() string {
	return "cert_sequences"
}

type issuance struct {
	Id         uint
	CertNumber string
}

func (issuance) TableName() string {
	return "issuances"
}

// Migration_1_cert_sequences creates the counters used for atomic certificate
// numbering and seeds them from the newest stored number of each prefix and
// year.
func Migration_1_cert_sequences(db *gorm.DB) error {
	return db.Transaction(func(txn *gorm.DB) error {
		if !txn.Migrator().HasTable(&certSequence{}) {
			if err := txn.Migrator().CreateTable(&certSequence{}); err != nil {
				return fmt.Errorf("error creating cert_sequences table: %w", err)
			}
		}

		if !txn.Migrator().HasTable(&issuance{}) {
			return nil
		}

		var issuances []issuance
		if err := txn.Order("id").Find(&issuances).Error; err != nil {
			return fmt.Errorf("error loading issuances: %w", err)
		}

		latest := map[[2]string]int{}
		years := map[[2]string]int{}
		for _, i := range issuances {
			parts := strings.Split(i.CertNumber, "-")
			if len(parts) != 3 {
				continue
			}
			year, err := strconv.Atoi(parts[1])
			if err != nil {
				continue
			}
			seq, err := strconv.Atoi(parts[2])
			if err != nil {
				continue
			}
			key := [2]string{parts[0], parts[1]}
			latest[key] = seq
			years[key] = year
		}

		for key, seq := range latest {
			row := certSequence{Prefix: key[0], Year: years[key], Last: seq}
			if err := txn.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
				return fmt.Errorf("error seeding sequence %v-%v: %w", key[0], key[1], err)
			}
		}

		return nil
	})
}

func Rollback_1_cert_sequences(db *gorm.DB) error {
	return db.Migrator().DropTable(&certSequence{})
}
