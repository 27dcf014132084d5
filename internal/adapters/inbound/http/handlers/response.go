package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/medrail/casebook/internal/domain/model"
)

const (
	contentTypeHeader = "Content-Type"
	applicationJSON   = "application/json"

	codeNotFound         = "NOT_FOUND"
	codeConflict         = "CONFLICT"
	codeInternalError    = "INTERNAL_ERROR"
	codeInvalidID        = "INVALID_ID"
	codeInvalidJSON      = "INVALID_JSON"
	codeValidationFailed = "VALIDATION_FAILED"
)

type (
	ErrorResponse struct {
		Code      string        `json:"code"`
		Message   string        `json:"message"`
		Details   []ErrorDetail `json:"details,omitempty"`
		Timestamp time.Time     `json:"timestamp"`
	}

	ErrorDetail struct {
		Field   string `json:"field"`
		Message string `json:"message"`
		Code    string `json:"code"`
	}
)

func writeJSONResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set(contentTypeHeader, applicationJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSONResponse(w, status, ErrorResponse{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// writeDomainError maps domain errors to HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErrors *model.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := make([]ErrorDetail, 0, len(validationErrors.Errors))
		for _, fieldErr := range validationErrors.Errors {
			details = append(details, ErrorDetail{
				Field:   fieldErr.Field,
				Message: fieldErr.Message,
				Code:    fieldErr.Code,
			})
		}

		writeJSONResponse(w, http.StatusBadRequest, ErrorResponse{
			Code:      codeValidationFailed,
			Message:   "request validation failed",
			Details:   details,
			Timestamp: time.Now().UTC(),
		})

		return
	}

	switch {
	case errors.Is(err, model.ErrNoCountry),
		errors.Is(err, model.ErrInvalidCountry),
		errors.Is(err, model.ErrInvalidRole),
		errors.Is(err, model.ErrInvalidAction),
		errors.Is(err, model.ErrUnknownVersion),
		errors.Is(err, model.ErrEmptySessionID):
		writeErrorResponse(w, http.StatusBadRequest, codeValidationFailed, err.Error())
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrSessionNotFound):
		writeErrorResponse(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, model.ErrDuplicate):
		writeErrorResponse(w, http.StatusConflict, codeConflict, err.Error())
	default:
		writeErrorResponse(w, http.StatusInternalServerError, codeInternalError, err.Error())
	}
}
