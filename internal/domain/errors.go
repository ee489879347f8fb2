package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is; the detail types below carry context.
var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrOracleFormat      = errors.New("oracle returned malformed output")
	ErrValidation        = errors.New("invalid price entry")
	ErrUnsupportedFormat = errors.New("unsupported import format")
)

// AuthError reports a missing or wrong shared-secret credential.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return "unauthorized: " + e.Reason }

func (e *AuthError) Is(target error) bool { return target == ErrUnauthorized }

// NotFoundError reports that retrieval produced nothing to quote from.
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string { return "not found: " + e.Reason }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// OracleFormatError carries the raw oracle text that failed to parse so it can
// be shown to an operator.
type OracleFormatError struct {
	Raw string
	Err error
}

func (e *OracleFormatError) Error() string {
	return fmt.Sprintf("oracle returned malformed output: %v: %s", e.Err, e.Raw)
}

func (e *OracleFormatError) Unwrap() error { return e.Err }

func (e *OracleFormatError) Is(target error) bool { return target == ErrOracleFormat }

// ValidationError reports a candidate entry that cannot be inserted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// UnsupportedFormatError reports an import file with an unknown extension.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return "unsupported import format: file has no extension"
	}
	return "unsupported import format: " + e.Ext
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }
