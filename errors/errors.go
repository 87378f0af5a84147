// Package errors provides error handling for chrono.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints and details
//
// On top of that it defines the error kinds raised by the date engine and the
// chronology store. Kinds are attached with Mark, so a kind survives any amount
// of wrapping:
//
//	if err := codec.Encode("-44 BC"); errors.IsAmbiguousDate(err) {
//	    // leading sign contradicts the era label
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// GetStack returns the reportable stack trace attached to err, if any.
var GetStack = crdb.GetReportableStackTrace

// Error kinds. Compare with errors.Is; never match on message text.
var (
	// ErrConfiguration indicates a malformed calendar definition or an invalid
	// constructor call (both or neither of name and file path).
	ErrConfiguration = New("configuration error")

	// ErrAmbiguousDate indicates a date carrying a leading sign and an era label.
	ErrAmbiguousDate = New("ambiguous date")

	// ErrInvalidDate indicates a date string that is not ISO-8601-like.
	ErrInvalidDate = New("invalid date")

	// ErrReservedKey indicates a record annotation using a reserved schema key.
	ErrReservedKey = New("reserved key")

	// ErrMissingRecord indicates a record name absent from its category.
	ErrMissingRecord = New("missing record")

	// ErrCalendarMismatch indicates an operation across chronologies kept in
	// different calendars.
	ErrCalendarMismatch = New("calendar mismatch")

	// ErrPersistence indicates a file that is missing, unwritable or unparseable.
	ErrPersistence = New("persistence error")
)

// NewConfigurationError creates a configuration error with a formatted message
func NewConfigurationError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrConfiguration)
}

// NewAmbiguousDateError creates an ambiguous-date error with a formatted message
func NewAmbiguousDateError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrAmbiguousDate)
}

// NewInvalidDateError creates an invalid-date error with a formatted message
func NewInvalidDateError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrInvalidDate)
}

// NewReservedKeyError creates a reserved-key error with a formatted message
func NewReservedKeyError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrReservedKey)
}

// NewMissingRecordError creates a missing-record error with a formatted message
func NewMissingRecordError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrMissingRecord)
}

// NewCalendarMismatchError creates a calendar-mismatch error with a formatted message
func NewCalendarMismatchError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrCalendarMismatch)
}

// NewPersistenceError creates a persistence error with a formatted message
func NewPersistenceError(format string, args ...interface{}) error {
	return Mark(Newf(format, args...), ErrPersistence)
}

// WrapPersistence wraps err as a persistence error with context
func WrapPersistence(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Mark(Wrapf(err, format, args...), ErrPersistence)
}

// WrapInvalidDate wraps err as an invalid-date error with context
func WrapInvalidDate(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Mark(Wrapf(err, format, args...), ErrInvalidDate)
}

// IsConfigurationError checks if an error is or wraps ErrConfiguration
func IsConfigurationError(err error) bool {
	return err != nil && Is(err, ErrConfiguration)
}

// IsAmbiguousDate checks if an error is or wraps ErrAmbiguousDate
func IsAmbiguousDate(err error) bool {
	return err != nil && Is(err, ErrAmbiguousDate)
}

// IsInvalidDate checks if an error is or wraps ErrInvalidDate
func IsInvalidDate(err error) bool {
	return err != nil && Is(err, ErrInvalidDate)
}

// IsReservedKey checks if an error is or wraps ErrReservedKey
func IsReservedKey(err error) bool {
	return err != nil && Is(err, ErrReservedKey)
}

// IsMissingRecord checks if an error is or wraps ErrMissingRecord
func IsMissingRecord(err error) bool {
	return err != nil && Is(err, ErrMissingRecord)
}

// IsCalendarMismatch checks if an error is or wraps ErrCalendarMismatch
func IsCalendarMismatch(err error) bool {
	return err != nil && Is(err, ErrCalendarMismatch)
}

// IsPersistence checks if an error is or wraps ErrPersistence
func IsPersistence(err error) bool {
	return err != nil && Is(err, ErrPersistence)
}
