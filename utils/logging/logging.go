package logging

import (
	"log/slog"
	"strings"
)

type LogCode string

const (
	SYSTEM LogCode = "SYSTEM"

	// ACCOUNT OPERATIONS
	ACCOUNT_LOGIN    LogCode = "ACCOUNT_LOGIN"
	ACCOUNT_CREATE   LogCode = "ACCOUNT_CREATE"
	ACCOUNT_UPDATE   LogCode = "ACCOUNT_UPDATE"
	ACCOUNT_PASSWORD LogCode = "ACCOUNT_PASSWORD"
	ACCOUNT_DELETE   LogCode = "ACCOUNT_DELETE"

	// RECORD OPERATIONS
	DOCUMENT_UPLOAD LogCode = "DOCUMENT_UPLOAD"
	DOCUMENT_DELETE LogCode = "DOCUMENT_DELETE"
	ISSUANCE_CREATE LogCode = "ISSUANCE_CREATE"
	CERT_NUMBER     LogCode = "CERT_NUMBER"
	TEMPLATE_UPDATE LogCode = "TEMPLATE_UPDATE"
)

var redactedKeys = []string{"password", "token", "secret"}

// Drops the value of any attribute whose key looks like it carries a credential.
func redactSecrets(groups []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, redacted := range redactedKeys {
		if strings.Contains(key, redacted) {
			return slog.String(a.Key, "[redacted]")
		}
	}
	return a
}

func HandlerOptions(level slog.Level, addSource bool) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactSecrets,
		AddSource:   addSource,
	}
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
