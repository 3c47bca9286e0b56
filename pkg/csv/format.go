package csv

import (
	"fmt"
)

// Default format characters.
const (
	DefaultDelimiter   = ','
	DefaultQuote       = '"'
	DefaultQuoteEscape = '"'
)

// Format describes the syntax of a delimited text dialect: the character
// separating fields, the character quoting fields, and the character that
// escapes a quote inside a quoted field.
//
// A Format always holds exactly one character for each role. The zero value
// reports the defaults (',', '"', '"'), as does NewFormat.
//
// Setters accept any rune, control characters included, without validation.
// Dialects where characters collide (for example a delimiter equal to the
// quote) are not rejected here; they surface as parse errors later.
//
// Format is a value. Parser and Scanner keep their own copy, so changing a
// Format after a session has been constructed does not affect that session.
// A *Format shared between goroutines must not be mutated while any of them
// reads it.
//
// When Quote and QuoteEscape are equal, a doubled quote inside a quoted field
// stands for one literal quote. When they differ, QuoteEscape followed by
// Quote stands for one literal quote and QuoteEscape followed by itself for
// one literal QuoteEscape; anywhere else QuoteEscape is an ordinary character.
type Format struct {
	delimiter   rune
	quote       rune
	quoteEscape rune
	set         bool
}

// NewFormat returns the RFC 4180 format: ',' delimiter, '"' quote and '"'
// quote escape.
func NewFormat() Format {
	return Format{
		delimiter:   DefaultDelimiter,
		quote:       DefaultQuote,
		quoteEscape: DefaultQuoteEscape,
		set:         true,
	}
}

// TabFormat returns a tab separated format with '"' quoting.
func TabFormat() Format {
	return NewFormat().WithDelimiter('\t')
}

// resolved returns f, or the default format when f is the zero value.
func (f Format) resolved() Format {
	if !f.set {
		return NewFormat()
	}
	return f
}

// Delimiter returns the field delimiter. Defaults to ','.
func (f Format) Delimiter() rune {
	return f.resolved().delimiter
}

// SetDelimiter sets the field delimiter.
func (f *Format) SetDelimiter(delimiter rune) {
	*f = f.resolved()
	f.delimiter = delimiter
}

// IsDelimiter reports whether r is the field delimiter.
func (f Format) IsDelimiter(r rune) bool {
	return f.Delimiter() == r
}

// Quote returns the character used to quote values that contain the
// delimiter, a quote or a line break. Defaults to '"'.
func (f Format) Quote() rune {
	return f.resolved().quote
}

// SetQuote sets the quote character.
func (f *Format) SetQuote(quote rune) {
	*f = f.resolved()
	f.quote = quote
}

// IsQuote reports whether r is the quote character.
func (f Format) IsQuote(r rune) bool {
	return f.Quote() == r
}

// QuoteEscape returns the character that escapes a quote inside an already
// quoted value. Defaults to '"'.
func (f Format) QuoteEscape() rune {
	return f.resolved().quoteEscape
}

// SetQuoteEscape sets the quote escape character.
func (f *Format) SetQuoteEscape(quoteEscape rune) {
	*f = f.resolved()
	f.quoteEscape = quoteEscape
}

// IsQuoteEscape reports whether r is the quote escape character.
func (f Format) IsQuoteEscape(r rune) bool {
	return f.QuoteEscape() == r
}

// WithDelimiter returns a copy of f using delimiter.
//
//	tsv := csv.NewFormat().WithDelimiter('\t')
func (f Format) WithDelimiter(delimiter rune) Format {
	f.SetDelimiter(delimiter)
	return f
}

// WithQuote returns a copy of f using quote.
func (f Format) WithQuote(quote rune) Format {
	f.SetQuote(quote)
	return f
}

// WithQuoteEscape returns a copy of f using quoteEscape.
func (f Format) WithQuoteEscape(quoteEscape rune) Format {
	f.SetQuoteEscape(quoteEscape)
	return f
}

// String returns a readable description such as `delimiter=',' quote='"' escape='"'`.
func (f Format) String() string {
	f = f.resolved()
	return fmt.Sprintf("delimiter=%q quote=%q escape=%q", f.delimiter, f.quote, f.quoteEscape)
}
