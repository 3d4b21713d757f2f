package services

import (
	"civicore/registry/auth"
	"civicore/registry/schema"
	"civicore/utils"
	"errors"
	"log/slog"
	"net/http"
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(err error, code int) error {
	return &codedError{err: err, code: code}
}

func GetResponseCode(err error) int {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code
	}
	slog.Error("non coded error passed to GetResponseCode", "error", err)
	return http.StatusInternalServerError
}

// domainError attaches the http status for the error vocabulary of the
// registry packages. Errors that are already coded keep their code.
func domainError(err error) error {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return err
	}

	switch {
	case errors.Is(err, schema.ErrInvalidInput):
		return CodedError(err, http.StatusBadRequest)
	case errors.Is(err, auth.ErrUnauthorized):
		return CodedError(err, http.StatusUnauthorized)
	case errors.Is(err, auth.ErrForbidden):
		return CodedError(err, http.StatusForbidden)
	case errors.Is(err, schema.ErrUserNotFound),
		errors.Is(err, schema.ErrDocumentNotFound),
		errors.Is(err, schema.ErrIssuanceNotFound),
		errors.Is(err, schema.ErrTemplateNotFound):
		return CodedError(err, http.StatusNotFound)
	case errors.Is(err, schema.ErrConflict):
		return CodedError(err, http.StatusConflict)
	case errors.Is(err, schema.ErrDbAccessFailed):
		return CodedError(err, http.StatusInternalServerError)
	}
	return err
}

func writeError(w http.ResponseWriter, err error) {
	err = domainError(err)
	utils.WriteError(w, err.Error(), GetResponseCode(err))
}

func requireSession(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, err := auth.SessionFromContext(r)
	if err != nil {
		utils.WriteError(w, err.Error(), http.StatusUnauthorized)
		return auth.Session{}, false
	}
	return session, true
}

func urlId(w http.ResponseWriter, r *http.Request, key string) (uint, bool) {
	id, err := utils.URLParamUint(r, key)
	if err != nil {
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

type createdResponse struct {
	Success bool `json:"success"`
	Id      uint `json:"id"`
}
