package parser

import (
	"errors"
	"fmt"
)

// Common parsing errors
var (
	// ErrQuote indicates a quote inside an unquoted field.
	ErrQuote = errors.New("bare \" in non-quoted-field")

	// ErrExtraneousQuote indicates text after a closing quote.
	ErrExtraneousQuote = errors.New("extraneous or missing \" in quoted-field")

	// ErrUnterminatedQuote indicates input ended inside a quoted field.
	ErrUnterminatedQuote = errors.New("unterminated quoted field")

	// ErrFieldCount indicates a record has the wrong number of fields.
	ErrFieldCount = errors.New("wrong number of fields")

	// ErrFieldTooLarge indicates a field exceeded MaxFieldSize.
	ErrFieldTooLarge = errors.New("field exceeds maximum size")

	// ErrRecordTooLarge indicates a record exceeded MaxRecordSize.
	ErrRecordTooLarge = errors.New("record exceeds maximum size")
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	// StartLine is the line where the record containing the error started (1-indexed).
	StartLine int
	// Line is the line where the error occurred (1-indexed).
	Line int
	// Column is the column where the error occurred (1-indexed).
	Column int
	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message with position information.
func (e *ParseError) Error() string {
	if e.StartLine == e.Line {
		return fmt.Sprintf("parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("parse error on line %d (started line %d), column %d: %v",
		e.Line, e.StartLine, e.Column, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
