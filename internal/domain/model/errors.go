package model

import "errors"

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("record already exists")
	ErrDatabaseQuery    = errors.New("database query error")
	ErrNoCountry        = errors.New("no country selected for user")
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidCountry   = errors.New("invalid country")
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidAction    = errors.New("invalid action")
	ErrUnknownVersion   = errors.New("unknown cache version type")
	ErrEmptySessionID   = errors.New("session ID must not be empty")
	ErrMismatchPending  = errors.New("a version mismatch is pending acknowledgement")
	ErrSignatureUnknown = errors.New("mismatch signature does not match the pending report")
)

type ValidationError struct {
	Field   string
	Message string
	Code    string
}

type ValidationErrors struct {
	Errors []ValidationError
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}

	return v.Errors[0].Message
}

func (v *ValidationErrors) Add(field, message, code string) {
	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: message,
		Code:    code,
	})
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]ValidationError, 0),
	}
}
