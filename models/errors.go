package models

import (
	"errors"
	"fmt"
)

// Error kinds. Services and the store wrap these so callers can branch with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
	ErrTransient  = errors.New("transient failure")
)

// AppError carries a display-safe message next to the error kind.
type AppError struct {
	Kind    error
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Is(target error) bool {
	return target == e.Kind
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(message string) error {
	return &AppError{Kind: ErrNotFound, Message: message}
}

func Conflict(message string) error {
	return &AppError{Kind: ErrConflict, Message: message}
}

func Validation(message string) error {
	return &AppError{Kind: ErrValidation, Message: message}
}

// Transient marks err as retryable contention or network failure.
func Transient(err error) error {
	return &AppError{Kind: ErrTransient, Message: "temporary storage failure", Err: err}
}

// IsExpected reports whether err is a business outcome (not found, conflict, validation)
// rather than an infrastructure failure.
func IsExpected(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) || errors.Is(err, ErrValidation)
}

// MessageOf returns the display message of an AppError, or fallback for anything else.
func MessageOf(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// Failure reasons carried by OperationResult.Reason.
const (
	ReasonNotFound    = "not_found"
	ReasonConflict    = "conflict"
	ReasonValidation  = "validation"
	ReasonUnavailable = "unavailable"
	ReasonInternal    = "internal"
)

// ReasonOf names the kind of err, or "" when it has none.
func ReasonOf(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrConflict):
		return ReasonConflict
	case errors.Is(err, ErrValidation):
		return ReasonValidation
	case errors.Is(err, ErrTransient):
		return ReasonUnavailable
	}
	return ""
}

// FailedFrom builds a failed result from an expected error.
func FailedFrom(err error, fallback string) OperationResult {
	res := Failed(MessageOf(err, fallback))
	res.Reason = ReasonOf(err)
	return res
}
