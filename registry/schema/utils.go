package schema

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrIssuanceNotFound = errors.New("issuance not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrDbAccessFailed   = errors.New("db access failed")
)

var ErrEmailAlreadyInUse = fmt.Errorf("%w: email is already in use", ErrConflict)

func GetUser(userId uint, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "id = ?", userId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user", "user_id", userId, "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

func GetUserByEmail(email string, db *gorm.DB) (User, error) {
	var user User

	result := db.First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return user, ErrUserNotFound
		}
		slog.Error("sql error in get user by email", "error", result.Error)
		return user, ErrDbAccessFailed
	}

	return user, nil
}

// EmailInUse reports whether a user other than exceptId already has email.
func EmailInUse(email string, exceptId uint, db *gorm.DB) (bool, error) {
	var count int64
	result := db.Model(&User{}).Where("email = ? AND id <> ?", email, exceptId).Count(&count)
	if result.Error != nil {
		slog.Error("sql error checking for existing email", "error", result.Error)
		return false, ErrDbAccessFailed
	}
	return count > 0, nil
}

func GetDocument(documentId uint, db *gorm.DB) (Document, error) {
	var doc Document

	result := db.First(&doc, "id = ?", documentId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return doc, ErrDocumentNotFound
		}
		slog.Error("sql error in get document", "document_id", documentId, "error", result.Error)
		return doc, ErrDbAccessFailed
	}

	return doc, nil
}

func GetIssuance(issuanceId uint, db *gorm.DB) (Issuance, error) {
	var issuance Issuance

	result := db.First(&issuance, "id = ?", issuanceId)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return issuance, ErrIssuanceNotFound
		}
		slog.Error("sql error in get issuance", "issuance_id", issuanceId, "error", result.Error)
		return issuance, ErrDbAccessFailed
	}

	return issuance, nil
}

func GetTemplate(templateType string, db *gorm.DB) (Template, error) {
	var template Template

	result := db.First(&template, "type = ?", templateType)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return template, ErrTemplateNotFound
		}
		slog.Error("sql error in get template", "type", templateType, "error", result.Error)
		return template, ErrDbAccessFailed
	}

	return template, nil
}
