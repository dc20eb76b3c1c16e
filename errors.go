package recordcsv

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by this package wraps one of them or is a *FormatError.
var (
	// ErrInvalidArgument is returned for invalid inputs to setters and constructors.
	ErrInvalidArgument = errors.New("recordcsv: invalid argument")
	// ErrInvalidState is returned when an operation cannot start with the current setup.
	ErrInvalidState = errors.New("recordcsv: invalid state")
	// ErrConversion is returned when a field's text cannot be converted to the column's type.
	ErrConversion = errors.New("recordcsv: conversion failed")
)

// Invalid-state conditions, detected before any I/O happens.
var (
	ErrNoColumns      = fmt.Errorf("%w: no column to generate", ErrInvalidState)
	ErrSourceNotSet   = fmt.Errorf("%w: record source is not initialized", ErrInvalidState)
	ErrHeaderRequired = fmt.Errorf("%w: column header required", ErrInvalidState)
	ErrClosed         = fmt.Errorf("%w: reader is closed", ErrInvalidState)
	ErrAlreadyRead    = fmt.Errorf("%w: records were already read from this source", ErrInvalidState)
)

var (
	// ErrBareQuote is returned when a quote appears inside an unquoted field.
	ErrBareQuote = errors.New("recordcsv: unexpected '\"' in unquoted field")
	// ErrUnexpectedCharacter is returned when a character follows a closing quote.
	ErrUnexpectedCharacter = errors.New("recordcsv: unexpected character after closing quote")
	// ErrUnterminatedQuote is returned when the stream ends inside a quoted field.
	ErrUnterminatedQuote = errors.New("recordcsv: unclosed quote")
	// ErrTooManyFields is returned when a row is wider than the first row.
	ErrTooManyFields = errors.New("recordcsv: too many columns")
	// ErrTooFewFields is returned when a row is narrower than the first row.
	ErrTooFewFields = errors.New("recordcsv: too few columns")
)

// FormatError reports malformed CSV input. Character is the 1-based rune
// position inside the physical line, or 0 when the error is not tied to a
// character (column count and unclosed quote errors).
type FormatError struct {
	Line      int
	Character int
	Err       error
}

// Error formats the error with its location.
func (e *FormatError) Error() string {
	if e == nil {
		return ""
	}
	if e.Character > 0 {
		return fmt.Sprintf("%v at line %d, character %d", e.Err, e.Line, e.Character)
	}
	return fmt.Sprintf("%v at line %d", e.Err, e.Line)
}

// Unwrap returns the underlying Err so FormatError participates in errors.Is.
func (e *FormatError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// HasCharacter reports whether the error carries a character position.
func (e *FormatError) HasCharacter() bool {
	return e != nil && e.Character > 0
}

// IsFieldCount reports whether err is a column count mismatch.
func IsFieldCount(err error) bool {
	return errors.Is(err, ErrTooManyFields) || errors.Is(err, ErrTooFewFields)
}

// FieldError reports a field whose text could not be converted. It is only
// surfaced by readers running in strict mode.
type FieldError struct {
	Line   int
	Column string
	Text   string
	Err    error
}

// Error formats the error with its line, column and offending text.
func (e *FieldError) Error() string {
	return fmt.Sprintf("line %d, column %s, text %q: %v", e.Line, e.Column, e.Text, e.Err)
}

// Unwrap returns the conversion error so FieldError participates in errors.Is.
func (e *FieldError) Unwrap() error { return e.Err }
