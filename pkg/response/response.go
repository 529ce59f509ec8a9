package response

import (
	"errors"
	"fmt"
)

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST      ErrCode = "REQUEST_FAILED"
	BAD_REQUEST         ErrCode = "FAILED_TO_DECODE"
	NOT_FOUND           ErrCode = "NOT_FOUND"
	LOCKED              ErrCode = "LOCKED"
	CONFLICT            ErrCode = "CONFLICT"
	VALIDATION_FAILED   ErrCode = "VALIDATION_FAILED"
	REFERENCE_MISSING   ErrCode = "REFERENCE_MISSING"
	INVARIANT_VIOLATION ErrCode = "INVARIANT_VIOLATION"
	UNAVAILABLE         ErrCode = "UNAVAILABLE"
)

var (
	ErrBadRequest  = errors.New("bad request")
	ErrNotFound    = errors.New("resource not found")
	ErrLocked      = errors.New("resource is locked")
	ErrConflict    = errors.New("booking conflict")
	ErrValidation  = errors.New("validation failed")
	ErrRefMissing  = errors.New("referenced entity missing or deleted")
	ErrInvariant   = errors.New("violates database invariant")
	ErrUnavailable = errors.New("storage temporarily unavailable")
)

// FieldError carries a per-field message so callers can render feedback
// next to the offending input.
type FieldError struct {
	Field   string
	Message string
}

func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error { return ErrValidation }

// ConflictError identifies the existing booking a request collided with,
// so callers can offer a "view existing" action.
type ConflictError struct {
	Kind      string
	BookingID int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with booking %d", e.Kind, e.BookingID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

func FieldErrorResponse(code, msg, field string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
			Field:   field,
		},
	}
}
