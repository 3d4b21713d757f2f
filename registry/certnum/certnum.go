// Package certnum derives certificate numbers of the form PREFIX-YEAR-SEQ,
// where SEQ counts issuances of one prefix within one calendar year.
package certnum

import (
	"civicore/registry/schema"
	"civicore/utils/logging"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Mode string

const (
	// Racy reads the latest stored number and adds one. Concurrent callers can
	// be handed the same number, and the store accepts whatever number a client
	// submits.
	Racy Mode = "racy"
	// Atomic assigns numbers from a per prefix and year counter inside the
	// transaction that stores the issuance.
	Atomic Mode = "atomic"
)

func ParseMode(mode string) (Mode, error) {
	switch Mode(strings.ToLower(mode)) {
	case Racy, "":
		return Racy, nil
	case Atomic:
		return Atomic, nil
	}
	return "", fmt.Errorf("invalid certificate number mode '%v', must be '%v' or '%v'", mode, Racy, Atomic)
}

// Prefix maps a document type to its certificate prefix. Unknown types fall
// back to the birth certificate prefix.
func Prefix(docType string) string {
	switch docType {
	case schema.DocDeath:
		return "DC"
	case schema.DocMarriage, schema.DocMarriageLicense:
		return "ML"
	default:
		return "BC"
	}
}

func Format(prefix string, year, seq int) string {
	return fmt.Sprintf("%v-%d-%03d", prefix, year, seq)
}

// ParseSequence extracts the trailing sequence of a certificate number.
func ParseSequence(certNumber string) (int, bool) {
	parts := strings.Split(certNumber, "-")
	if len(parts) != 3 {
		return 0, false
	}
	seq, err := strconv.Atoi(parts[2])
	if err != nil || seq < 0 {
		return 0, false
	}
	return seq, true
}

type Generator struct {
	db   *gorm.DB
	mode Mode

	// Now is the clock used to pick the current year.
	Now func() time.Time
}

func NewGenerator(db *gorm.DB, mode Mode) *Generator {
	return &Generator{db: db, mode: mode, Now: time.Now}
}

func (g *Generator) Mode() Mode {
	return g.mode
}

func (g *Generator) year() int {
	return g.Now().Year()
}

// latestSequence returns the sequence of the most recently created issuance
// numbered under prefix and year, or 0 when there is none. The match is on the
// number alone, so document types sharing a prefix share one sequence.
func latestSequence(db *gorm.DB, prefix string, year int) (int, error) {
	var latest schema.Issuance
	result := db.
		Where("cert_number LIKE ?", fmt.Sprintf("%v-%d-%%", prefix, year)).
		Order("id DESC").
		Limit(1).
		Find(&latest)
	if result.Error != nil {
		slog.Error("sql error finding latest certificate number", "prefix", prefix, "year", year, "error", result.Error)
		return 0, schema.ErrDbAccessFailed
	}
	if result.RowsAffected == 0 {
		return 0, nil
	}

	seq, ok := ParseSequence(latest.CertNumber)
	if !ok {
		slog.Warn("unparsable certificate number, restarting sequence", "cert_number", latest.CertNumber, "code", logging.CERT_NUMBER)
		return 0, nil
	}
	return seq, nil
}

// Next previews the number the next issuance of docType would receive. It
// never writes, so two callers asking before either issuance is stored get the
// same answer.
func (g *Generator) Next(docType string) (string, error) {
	prefix, year := Prefix(docType), g.year()

	if g.mode == Atomic {
		var seq schema.CertSequence
		result := g.db.Limit(1).Find(&seq, "prefix = ? AND year = ?", prefix, year)
		if result.Error != nil {
			slog.Error("sql error reading certificate sequence", "prefix", prefix, "year", year, "error", result.Error)
			return "", schema.ErrDbAccessFailed
		}
		if result.RowsAffected > 0 {
			return Format(prefix, year, seq.Last+1), nil
		}
	}

	last, err := latestSequence(g.db, prefix, year)
	if err != nil {
		return "", err
	}
	return Format(prefix, year, last+1), nil
}

// Assign reserves the next number for docType using txn, which must be the
// transaction that stores the issuance. The counter row is created from the
// latest stored number the first time a prefix and year is seen.
func (g *Generator) Assign(txn *gorm.DB, docType string) (string, error) {
	prefix, year := Prefix(docType), g.year()

	last, err := latestSequence(txn, prefix, year)
	if err != nil {
		return "", err
	}

	result := txn.Clauses(clause.OnConflict{DoNothing: true}).Create(&schema.CertSequence{Prefix: prefix, Year: year, Last: last})
	if result.Error != nil {
		slog.Error("sql error initializing certificate sequence", "prefix", prefix, "year", year, "error", result.Error)
		return "", schema.ErrDbAccessFailed
	}

	result = txn.Model(&schema.CertSequence{}).
		Where("prefix = ? AND year = ?", prefix, year).
		Update("last_seq", gorm.Expr("last_seq + 1"))
	if result.Error != nil {
		slog.Error("sql error incrementing certificate sequence", "prefix", prefix, "year", year, "error", result.Error)
		return "", schema.ErrDbAccessFailed
	}

	var seq schema.CertSequence
	result = txn.Clauses(clause.Locking{Strength: "UPDATE"}).First(&seq, "prefix = ? AND year = ?", prefix, year)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("certificate sequence %v-%d vanished during assignment", prefix, year)
		}
		slog.Error("sql error reading certificate sequence", "prefix", prefix, "year", year, "error", result.Error)
		return "", schema.ErrDbAccessFailed
	}

	certNumber := Format(prefix, year, seq.Last)
	slog.Info("assigned certificate number", "cert_number", certNumber, "code", logging.CERT_NUMBER)
	return certNumber, nil
}
