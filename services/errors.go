package services

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a rejected operation.
type ErrorCode string

const (
	CodeValidation        ErrorCode = "validation"
	CodeNotFound          ErrorCode = "not_found"
	CodeAlreadyResolved   ErrorCode = "already_resolved"
	CodeInvalidTransition ErrorCode = "invalid_transition"
	CodePermission        ErrorCode = "permission"
)

// Error is a rejected operation. Nothing was written when one is returned.
type Error struct {
	Code    ErrorCode
	Message string
	Rule    string // failing validation rule, empty for other codes
	Cause   error
}

func (e *Error) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Rule)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches by code, so errors.Is(err, ErrNotFound) holds for any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyResolved   = &Error{Code: CodeAlreadyResolved, Message: "already resolved"}
	ErrInvalidTransition = &Error{Code: CodeInvalidTransition, Message: "invalid transition"}
	ErrPermission        = &Error{Code: CodePermission, Message: "permission denied"}
)

func validationError(rule, format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Rule: rule, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(entity, id string) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s %q not found", entity, id)}
}

func alreadyResolvedError(id, status string) *Error {
	return &Error{Code: CodeAlreadyResolved, Message: fmt.Sprintf("suggestion %q is already %s", id, status)}
}

func invalidTransitionError(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func permissionError(format string, args ...any) *Error {
	return &Error{Code: CodePermission, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code of a domain error.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
