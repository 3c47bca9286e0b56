// Package csv provides configurable settings for parsing sessions.
package csv

import (
	"golang.org/x/text/encoding"

	"github.com/shapestone/shape-csv-beans/internal/parser"
)

// ParserSettings configures a Parser.
type ParserSettings struct {
	// Format is the dialect to parse.
	// Default: NewFormat() (',' delimiter, '"' quote and escape)
	Format Format

	// DetectFormat infers the delimiter and quote from the start of the
	// input instead of using Format.
	// Default: false
	DetectFormat bool

	// HeaderExtractionEnabled treats the first record as column headers.
	// The header record is not passed to RowProcessed.
	// Default: false
	HeaderExtractionEnabled bool

	// Headers sets the column headers explicitly. When set together with
	// HeaderExtractionEnabled, the first record is skipped and Headers win.
	Headers []string

	// HeaderConverter normalizes header names, e.g. SnakeCaseHeader.
	HeaderConverter HeaderConverter

	// SelectedColumns restricts the fields delivered to the processor.
	// Selected fields keep their input order.
	SelectedColumns *ColumnSelector

	// Comment, if not 0, is the comment character. Lines beginning with the
	// Comment character are ignored.
	// Default: 0 (disabled)
	Comment rune

	// FieldsPerRecord is the expected number of fields per record.
	// If positive, each record must have exactly this many fields.
	// If 0, the first record determines the expected field count.
	// If negative, no field count validation is performed.
	// Default: -1
	FieldsPerRecord int

	// LazyQuotes allows a quote in an unquoted field and a stray quote in a
	// quoted field.
	// Default: false
	LazyQuotes bool

	// TrimLeadingSpace controls whether leading white space in a field is ignored.
	// Default: false
	TrimLeadingSpace bool

	// NumberOfRecordsToRead stops the session after this many data records.
	// Default: 0 (no limit)
	NumberOfRecordsToRead int64

	// Encoding decodes the input into UTF-8, e.g. charmap.ISO8859_1.
	// A leading byte order mark is always honored and removed.
	// Default: nil (UTF-8)
	Encoding encoding.Encoding

	// ErrorRecovery configures handling of malformed lines.
	ErrorRecovery ErrorRecoveryOptions

	// ProcessorErrorHandler decides whether a failed row aborts the session.
	// Default: nil (abort)
	ProcessorErrorHandler ProcessorErrorHandler

	// Processor receives the rows. Required by Parse.
	Processor RowProcessor
}

// DefaultParserSettings returns the default parser configuration.
func DefaultParserSettings() ParserSettings {
	return ParserSettings{
		Format:          NewFormat(),
		FieldsPerRecord: -1,
		ErrorRecovery:   DefaultErrorRecoveryOptions(),
	}
}

// parserOptions maps the settings onto the record parser for the given format.
func (s ParserSettings) parserOptions(format Format) parser.Options {
	return parser.Options{
		Delimiter:        format.Delimiter(),
		Quote:            format.Quote(),
		QuoteEscape:      format.QuoteEscape(),
		Comment:          s.Comment,
		FieldsPerRecord:  s.FieldsPerRecord,
		LazyQuotes:       s.LazyQuotes,
		TrimLeadingSpace: s.TrimLeadingSpace,
		OnBadLine:        parser.BadLineMode(s.ErrorRecovery.OnBadLine),
		MaxFieldSize:     s.ErrorRecovery.MaxFieldSize,
		MaxRecordSize:    s.ErrorRecovery.MaxRecordSize,
		BadLineCallback:  s.ErrorRecovery.BadLineCallback,
		WarningCallback:  s.ErrorRecovery.WarningCallback,
	}
}

// HeaderConverter is a function that transforms header names.
type HeaderConverter func(string) string

// ColumnSelector specifies which columns to include.
type ColumnSelector struct {
	// UseCols selects columns by header name.
	UseCols []string
	// UseColIndexes selects columns by index (0-based).
	UseColIndexes []int
}

// ShouldInclude checks if a column should be included.
func (c *ColumnSelector) ShouldInclude(name string, index int) bool {
	// If both are empty, include all columns
	if len(c.UseCols) == 0 && len(c.UseColIndexes) == 0 {
		return true
	}

	for _, col := range c.UseCols {
		if col == name {
			return true
		}
	}

	for _, idx := range c.UseColIndexes {
		if idx == index {
			return true
		}
	}

	return false
}

// indexes returns the selected positions. Without headers only
// UseColIndexes can apply, in ascending order.
func (c *ColumnSelector) indexes(headers []string) []int {
	if len(headers) > 0 {
		selected := make([]int, 0, len(headers))
		for i, h := range headers {
			if c.ShouldInclude(h, i) {
				selected = append(selected, i)
			}
		}
		return selected
	}

	maxIdx := -1
	for _, idx := range c.UseColIndexes {
		if idx > maxIdx {
			maxIdx = idx
		}
	}
	selected := make([]int, 0, len(c.UseColIndexes))
	for i := 0; i <= maxIdx; i++ {
		if c.ShouldInclude("", i) {
			selected = append(selected, i)
		}
	}
	return selected
}
