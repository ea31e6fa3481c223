package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/contact-keeper/internal/apperr"
)

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Code    int                 `json:"code"`
	Kind    apperr.Kind         `json:"kind,omitempty"`
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
	Data    any                 `json:"data,omitempty"`
}

// JSON writes a success or informational response using the common envelope.
func JSON(w http.ResponseWriter, log *zap.Logger, status int, message string, data any) {
	write(w, log, status, Envelope{Code: status, Message: message, Data: data})
}

// Error translates err into a status code and error envelope. Infrastructure
// failures are logged in full and reported to the caller without detail.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)

	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		write(w, log, status, Envelope{Code: status, Kind: apperr.KindStoreUnavailable, Message: "server error"})
		return
	}

	env := Envelope{Code: status, Kind: kind, Message: http.StatusText(status)}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		env.Message = appErr.Message
		env.Errors = appErr.Fields
	}
	write(w, log, status, env)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch {
	case kind == apperr.KindValidation, kind == apperr.KindDuplicateUser, kind == apperr.KindInvalidCredentials:
		return http.StatusBadRequest
	case kind.IsUnauthenticated():
		return http.StatusUnauthorized
	case kind == apperr.KindForbidden:
		return http.StatusForbidden
	case kind == apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func write(w http.ResponseWriter, log *zap.Logger, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Warn("respond: encode payload failed", zap.Error(err))
	}
}
