// Package csv provides error types and recovery modes for delimited text parsing.
package csv

import (
	"errors"
	"fmt"

	"github.com/shapestone/shape-csv-beans/internal/parser"
)

// BadLineMode specifies how the parser handles malformed lines.
type BadLineMode int

const (
	// BadLineModeError returns an error on malformed lines (default).
	BadLineModeError BadLineMode = iota
	// BadLineModeWarn reports a warning but continues parsing.
	BadLineModeWarn
	// BadLineModeSkip silently skips malformed lines.
	BadLineModeSkip
)

// String returns the string representation of BadLineMode.
func (m BadLineMode) String() string {
	switch m {
	case BadLineModeError:
		return "error"
	case BadLineModeWarn:
		return "warn"
	case BadLineModeSkip:
		return "skip"
	default:
		return fmt.Sprintf("BadLineMode(%d)", m)
	}
}

// ParseError represents a syntax error with position information.
// It provides detailed context about where the error occurred in the input.
type ParseError = parser.ParseError

// Common parsing errors
var (
	// ErrQuote indicates a quote inside an unquoted field.
	ErrQuote = parser.ErrQuote

	// ErrExtraneousQuote indicates text following the closing quote of a field.
	ErrExtraneousQuote = parser.ErrExtraneousQuote

	// ErrUnterminatedQuote indicates input ended inside a quoted field.
	ErrUnterminatedQuote = parser.ErrUnterminatedQuote

	// ErrFieldCount indicates a record has the wrong number of fields.
	ErrFieldCount = parser.ErrFieldCount

	// ErrFieldTooLarge indicates a field exceeded MaxFieldSize.
	ErrFieldTooLarge = parser.ErrFieldTooLarge

	// ErrRecordTooLarge indicates a record exceeded MaxRecordSize.
	ErrRecordTooLarge = parser.ErrRecordTooLarge
)

// Processing errors
var (
	// ErrProcessorNotStarted is returned when a row reaches a processor
	// outside a session.
	ErrProcessorNotStarted = errors.New("csv: row processed before ProcessStarted")

	// ErrUnsupportedBeanType is returned when a bean type is neither a struct
	// nor a pointer to a struct.
	ErrUnsupportedBeanType = errors.New("csv: unsupported bean type")

	// ErrUnsupportedFieldType is returned for struct fields no setter can fill.
	ErrUnsupportedFieldType = errors.New("csv: unsupported field type")

	// ErrInvalidTag is returned for malformed csv struct tags.
	ErrInvalidTag = errors.New("csv: invalid struct tag")

	// ErrMissingField is returned when strict field counting is enabled and a
	// row is shorter than the highest bound column.
	ErrMissingField = errors.New("csv: row has too few fields")

	// ErrRequiredField is returned when a field tagged required is empty.
	ErrRequiredField = errors.New("csv: required field is empty")

	// ErrNoProcessor is returned by Parser.Parse when no RowProcessor is set.
	ErrNoProcessor = errors.New("csv: no row processor configured")

	// ErrNoHeaders is returned when columns are selected by name but the
	// session has no headers to look them up in.
	ErrNoHeaders = errors.New("csv: columns selected by name without headers")
)

// ConversionError reports a row that could not be converted into a bean.
type ConversionError struct {
	// Record is the 1-based index of the data record.
	Record int64
	// Line is the line on which the record started.
	Line int
	// Column is the 0-based position of the offending value, or -1 when the
	// error concerns the whole row.
	Column int
	// Field is the Go struct field name.
	Field string
	// Value is the text that failed to convert.
	Value string
	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message with the record and field.
func (e *ConversionError) Error() string {
	if e.Column < 0 {
		return fmt.Sprintf("csv: record %d (line %d): %v", e.Record, e.Line, e.Err)
	}
	return fmt.Sprintf("csv: record %d (line %d), column %d (%s): cannot convert %q: %v",
		e.Record, e.Line, e.Column, e.Field, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// BadLineHandler is a callback function invoked when a bad line is encountered.
// It receives the line number, the raw line content, and the error.
// Return true to continue parsing, false to stop.
type BadLineHandler func(line int, content string, err error) bool

// WarningHandler is a callback function for reporting warnings.
type WarningHandler func(line int, message string)

// ProcessorErrorHandler decides what happens when a RowProcessor fails on a
// row. Returning nil skips the row and continues; returning an error aborts
// the session with that error.
type ProcessorErrorHandler func(err error, row []string, ctx Context) error

// ErrorRecoveryOptions configures error handling behavior.
type ErrorRecoveryOptions struct {
	// OnBadLine specifies how to handle malformed lines.
	// Default: BadLineModeError
	OnBadLine BadLineMode

	// BadLineCallback is invoked when a bad line is encountered.
	// Only called when OnBadLine is not BadLineModeError.
	BadLineCallback BadLineHandler

	// WarningCallback is invoked for warnings (when OnBadLine is BadLineModeWarn).
	// If nil, warnings are silently ignored.
	WarningCallback WarningHandler

	// MaxFieldSize is the maximum allowed size for a single field in bytes.
	// 0 means no limit.
	MaxFieldSize int

	// MaxRecordSize is the maximum allowed size for a single record in bytes.
	// 0 means no limit.
	MaxRecordSize int
}

// DefaultErrorRecoveryOptions returns the default error recovery configuration.
func DefaultErrorRecoveryOptions() ErrorRecoveryOptions {
	return ErrorRecoveryOptions{
		OnBadLine: BadLineModeError,
	}
}
