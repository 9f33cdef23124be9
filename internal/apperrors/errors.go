// Package apperrors defines the error taxonomy shared by services and the
// HTTP layer. Services return these; the echo error handler maps them.
package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for use with errors.Is()
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("resource not found")
	ErrUpload             = errors.New("asset upload failed")
	ErrPersistence        = errors.New("persistence error")
	ErrConflict           = errors.New("resource was modified concurrently")
)

// AppError carries a client-safe message and the underlying cause.
type AppError struct {
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil && !isSentinel(e.Err) {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func isSentinel(err error) bool {
	switch err {
	case ErrInvalidCredentials, ErrUnauthorized, ErrValidation, ErrNotFound, ErrUpload, ErrPersistence, ErrConflict:
		return true
	}
	return false
}

// Authentication is the single login failure. It never says which part was wrong.
func Authentication() *AppError {
	return &AppError{Code: "INVALID_CREDENTIALS", Message: ErrInvalidCredentials.Error(), Err: ErrInvalidCredentials}
}

// Authorization is the uniform gate denial.
func Authorization() *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: ErrUnauthorized.Error(), Err: ErrUnauthorized}
}

// Validation builds a 400 error from field messages.
func Validation(fields map[string]string) *AppError {
	return &AppError{Code: "VALIDATION", Message: summarize(fields), Fields: fields, Err: ErrValidation}
}

// Invalid is a single-field validation error.
func Invalid(field, msg string) *AppError {
	return Validation(map[string]string{field: msg})
}

func NotFound(resource string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: resource + " not found", Err: ErrNotFound}
}

func Upload(err error) *AppError {
	return &AppError{Code: "UPLOAD_FAILED", Message: ErrUpload.Error(), Err: errors.Join(ErrUpload, err)}
}

func Persistence(err error) *AppError {
	return &AppError{Code: "PERSISTENCE", Message: "internal server error", Err: errors.Join(ErrPersistence, err)}
}

func Conflict(resource string) *AppError {
	return &AppError{Code: "CONFLICT", Message: resource + " was modified by another request", Err: ErrConflict}
}

func summarize(fields map[string]string) string {
	if len(fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fields[k])
	}
	return strings.Join(msgs, "; ")
}
