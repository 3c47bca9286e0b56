// Package parser implements LL(1) recursive descent parsing for delimited text.
// Each production rule of the record grammar corresponds to a parse function.
//
// Grammar, with D, Q and E standing for the configured delimiter, quote and
// quote escape characters:
//
//	File          = { Record | EmptyLine | CommentLine } ;
//	Record        = Field { D Field } LineTerminator ;
//	Field         = QuotedField | UnquotedField ;
//	QuotedField   = Q { QuotedChar | EscapedQuote } Q ;
//	EscapedQuote  = E Q ;            (E Q is Q Q when E equals Q)
//	UnquotedField = { any character except D, Q, CR, LF } ;
//
// Quote disambiguation uses exactly one token of lookahead: inside a quoted
// field, a quote followed by another quote is a literal quote when the escape
// equals the quote; an escape followed by a quote (or by another escape) is
// one literal character when they differ. A quote followed by anything other
// than a delimiter, line terminator or end of input is an error unless
// LazyQuotes is set.
package parser

import (
	"io"
	"strings"

	"github.com/shapestone/shape-core/pkg/ast"
	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"
	"github.com/shapestone/shape-csv-beans/internal/tokenizer"
)

// BadLineMode specifies how to handle malformed lines.
type BadLineMode int

const (
	// BadLineModeError returns an error on malformed lines (default).
	BadLineModeError BadLineMode = iota
	// BadLineModeWarn reports a warning but continues parsing.
	BadLineModeWarn
	// BadLineModeSkip silently skips malformed lines.
	BadLineModeSkip
)

// Options configures the parser behavior.
type Options struct {
	// Delimiter is the field separator. Default: ','
	Delimiter rune
	// Quote opens and closes quoted fields. Default: '"'
	Quote rune
	// QuoteEscape escapes a quote inside a quoted field. Default: '"'
	QuoteEscape rune
	// Comment is the comment character. Lines starting with this are skipped. Default: 0 (disabled)
	Comment rune
	// FieldsPerRecord validates field count. 0=first record sets count, negative=no validation
	FieldsPerRecord int
	// LazyQuotes allows quotes in unquoted fields and stray quotes in quoted fields
	LazyQuotes bool
	// TrimLeadingSpace trims leading whitespace from fields
	TrimLeadingSpace bool
	// OnBadLine specifies how to handle malformed lines. Default: BadLineModeError
	OnBadLine BadLineMode
	// MaxFieldSize is the maximum allowed size for a single field in bytes. 0 means no limit.
	MaxFieldSize int
	// MaxRecordSize is the maximum allowed size for a single record in bytes. 0 means no limit.
	MaxRecordSize int
	// BadLineCallback is consulted for every bad line when OnBadLine is not
	// BadLineModeError. Returning false stops parsing with the line's error.
	BadLineCallback func(line int, content string, err error) bool
	// WarningCallback is invoked for warnings when OnBadLine is BadLineModeWarn
	WarningCallback func(line int, message string)
}

// DefaultOptions returns default parser options.
// FieldsPerRecord defaults to -1 (no validation).
func DefaultOptions() Options {
	return Options{
		Delimiter:       ',',
		Quote:           '"',
		QuoteEscape:     '"',
		FieldsPerRecord: -1,
	}
}

// Parser implements LL(1) recursive descent parsing over a token stream.
// It maintains a single token lookahead for predictive parsing.
type Parser struct {
	tokenizer      *shapetokenizer.Tokenizer
	current        *shapetokenizer.Token
	hasToken       bool
	opts           Options
	expectedFields int
	recordCount    int

	// position of the most recently consumed token, used once input is exhausted
	lastLine   int
	lastColumn int

	recordLine int
	badLines   int

	recording bool
	raw       strings.Builder
}

// NewParser creates a parser with default options for the given input string.
func NewParser(input string) *Parser {
	return NewParserWithOptions(input, DefaultOptions())
}

// NewParserWithOptions creates a parser with custom options for the given input string.
func NewParserWithOptions(input string, opts Options) *Parser {
	return NewParserFromStreamWithOptions(shapetokenizer.NewStream(input), opts)
}

// NewParserFromStreamWithOptions creates a parser over a pre-configured stream.
// Use shapetokenizer.NewStreamFromReader to parse from an io.Reader with
// constant memory.
func NewParserFromStreamWithOptions(stream shapetokenizer.Stream, opts Options) *Parser {
	tok := tokenizer.NewTokenizerWithStreamAndOptions(stream, tokenizer.Options{
		Delimiter:   opts.Delimiter,
		Quote:       opts.Quote,
		QuoteEscape: opts.QuoteEscape,
	})

	p := &Parser{
		tokenizer:      &tok,
		opts:           opts,
		expectedFields: opts.FieldsPerRecord,
		lastLine:       1,
		lastColumn:     1,
	}
	p.advance() // Load first token
	return p
}

// Parse parses the whole input and returns an AST representing the file.
//
// Returns *ast.ArrayDataNode - an array of records, where each record is an
// ArrayDataNode of LiteralNode string fields.
func (p *Parser) Parse() (ast.SchemaNode, error) {
	records := make([]ast.SchemaNode, 0, 16)
	for {
		record, err := p.NextRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return ast.NewArrayDataNode(records, ast.ZeroPosition()), nil
}

// NextRecord parses and returns the next record.
// Empty lines and comment lines are skipped. Bad lines are handled according
// to OnBadLine. At end of input it returns io.EOF.
func (p *Parser) NextRecord() (*ast.ArrayDataNode, error) {
	for {
		if !p.hasToken {
			return nil, io.EOF
		}

		// Skip empty lines (just newlines)
		if p.peekKind() == tokenizer.TokenNewline {
			p.advance()
			continue
		}

		if p.opts.Comment != 0 && p.isCommentLine() {
			p.skipLine()
			continue
		}

		p.recordLine = p.line()
		p.raw.Reset()
		p.recording = true

		record, err := p.parseRecord()
		if err != nil {
			p.skipLine()
			p.recording = false
			if err := p.handleBadLine(err); err != nil {
				return nil, err
			}
			continue
		}
		p.recording = false

		if err := p.checkRecord(record); err != nil {
			if err := p.handleBadLine(err); err != nil {
				return nil, err
			}
			continue
		}

		p.recordCount++
		return record, nil
	}
}

// RecordLine returns the line on which the most recently parsed record started.
func (p *Parser) RecordLine() int {
	return p.recordLine
}

// BadLines returns the number of lines skipped or warned about so far.
func (p *Parser) BadLines() int {
	return p.badLines
}

// checkRecord validates field count and record size.
func (p *Parser) checkRecord(record *ast.ArrayDataNode) error {
	fieldCount := record.Len()
	if p.opts.FieldsPerRecord >= 0 {
		if p.recordCount == 0 && p.opts.FieldsPerRecord == 0 {
			// First record sets expected count
			p.expectedFields = fieldCount
		} else if p.expectedFields > 0 && fieldCount != p.expectedFields {
			return &ParseError{
				StartLine: p.recordLine,
				Line:      p.recordLine,
				Column:    1,
				Err:       ErrFieldCount,
			}
		}
	}

	if p.opts.MaxRecordSize > 0 {
		if size := recordSize(record); size > p.opts.MaxRecordSize {
			return &ParseError{
				StartLine: p.recordLine,
				Line:      p.recordLine,
				Column:    1,
				Err:       ErrRecordTooLarge,
			}
		}
	}
	return nil
}

// handleBadLine handles a parsing error based on OnBadLine mode.
// Returns nil if parsing should continue, or the error if it should stop.
func (p *Parser) handleBadLine(err error) error {
	if p.opts.OnBadLine == BadLineModeError {
		return err
	}
	if p.opts.BadLineCallback != nil {
		content := strings.TrimRight(p.raw.String(), "\r\n")
		if !p.opts.BadLineCallback(p.recordLine, content, err) {
			return err
		}
	}
	p.badLines++
	if p.opts.OnBadLine == BadLineModeWarn && p.opts.WarningCallback != nil {
		p.opts.WarningCallback(p.recordLine, err.Error())
	}
	return nil
}

// recordSize calculates the total size of a record in bytes.
func recordSize(record *ast.ArrayDataNode) int {
	size := 0
	for _, elem := range record.Elements() {
		if lit, ok := elem.(*ast.LiteralNode); ok {
			if s, ok := lit.Value().(string); ok {
				size += len(s)
			}
		}
	}
	return size
}

// parseRecord parses a single record.
//
// Grammar:
//
//	Record = Field { D Field } LineTerminator ;
func (p *Parser) parseRecord() (*ast.ArrayDataNode, error) {
	startPos := p.position()
	fields := make([]ast.SchemaNode, 0, 8)

	field, err := p.parseField()
	if err != nil {
		return nil, err
	}
	fields = append(fields, field)

	for p.peekKind() == tokenizer.TokenDelimiter {
		p.advance() // consume delimiter

		field, err := p.parseField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	// Line terminator or EOF
	if p.peekKind() == tokenizer.TokenNewline {
		p.advance()
	}

	return ast.NewArrayDataNode(fields, startPos), nil
}

// parseField parses a single field.
//
// Grammar:
//
//	Field = QuotedField | UnquotedField ;
func (p *Parser) parseField() (*ast.LiteralNode, error) {
	startPos := p.position()
	line, column := p.line(), p.column()

	// Whitespace-only tokens before a quote are dropped so that `  "a"` is quoted
	if p.opts.TrimLeadingSpace {
		for p.peekKind() == tokenizer.TokenField {
			value := p.current.ValueString()
			if strings.TrimLeft(value, " \t") != "" {
				break
			}
			p.advance()
		}
	}

	var value string
	var err error
	if p.peekKind() == tokenizer.TokenQuote {
		value, err = p.parseQuotedField()
	} else {
		value, err = p.parseUnquotedField()
	}
	if err != nil {
		return nil, err
	}

	if p.opts.MaxFieldSize > 0 && len(value) > p.opts.MaxFieldSize {
		return nil, &ParseError{
			StartLine: p.recordLine,
			Line:      line,
			Column:    column,
			Err:       ErrFieldTooLarge,
		}
	}

	return ast.NewLiteralNode(value, startPos), nil
}

// parseQuotedField parses a quoted field and returns its unescaped value.
//
// Grammar:
//
//	QuotedField  = Q { QuotedChar | EscapedQuote } Q ;
//	EscapedQuote = E Q ;
//
// Delimiters and line terminators inside the quotes are literal.
func (p *Parser) parseQuotedField() (string, error) {
	startLine, startColumn := p.line(), p.column()
	p.advance() // opening quote

	var value strings.Builder
	for {
		if !p.hasToken {
			return "", &ParseError{
				StartLine: p.recordLine,
				Line:      startLine,
				Column:    startColumn,
				Err:       ErrUnterminatedQuote,
			}
		}

		switch p.peekKind() {
		case tokenizer.TokenQuote:
			p.advance()
			if p.opts.QuoteEscape == p.opts.Quote && p.peekKind() == tokenizer.TokenQuote {
				// Doubled quote
				value.WriteRune(p.opts.Quote)
				p.advance()
				continue
			}
			switch p.peekKind() {
			case "", tokenizer.TokenDelimiter, tokenizer.TokenNewline:
				return value.String(), nil
			}
			if !p.opts.LazyQuotes {
				return "", &ParseError{
					StartLine: p.recordLine,
					Line:      p.line(),
					Column:    p.column(),
					Err:       ErrExtraneousQuote,
				}
			}
			value.WriteRune(p.opts.Quote)

		case tokenizer.TokenEscape:
			p.advance()
			switch p.peekKind() {
			case tokenizer.TokenQuote:
				value.WriteRune(p.opts.Quote)
				p.advance()
			case tokenizer.TokenEscape:
				value.WriteRune(p.opts.QuoteEscape)
				p.advance()
			default:
				// An escape that escapes nothing is literal
				value.WriteRune(p.opts.QuoteEscape)
			}

		case tokenizer.TokenDelimiter:
			value.WriteRune(p.opts.Delimiter)
			p.advance()

		default:
			// Field content and embedded line terminators (CRLF kept as is)
			value.WriteString(p.current.ValueString())
			p.advance()
		}
	}
}

// parseUnquotedField parses an unquoted field.
//
// Grammar:
//
//	UnquotedField = { any character except D, Q, CR, LF } ;
//
// With LazyQuotes, quotes are kept as literal characters.
func (p *Parser) parseUnquotedField() (string, error) {
	var value strings.Builder

loop:
	for p.hasToken {
		switch p.peekKind() {
		case tokenizer.TokenDelimiter, tokenizer.TokenNewline:
			break loop
		case tokenizer.TokenQuote:
			if !p.opts.LazyQuotes {
				return "", &ParseError{
					StartLine: p.recordLine,
					Line:      p.line(),
					Column:    p.column(),
					Err:       ErrQuote,
				}
			}
			value.WriteRune(p.opts.Quote)
			p.advance()
		default:
			value.WriteString(p.current.ValueString())
			p.advance()
		}
	}

	result := value.String()
	if p.opts.TrimLeadingSpace {
		result = strings.TrimLeft(result, " \t")
	}
	return result, nil
}

// Helper methods

// peekKind returns the kind of the current token, or "" at end of input.
func (p *Parser) peekKind() string {
	if !p.hasToken || p.current == nil {
		return ""
	}
	return p.current.Kind()
}

// advance moves to next token, recording the consumed text when a record is in progress.
func (p *Parser) advance() {
	if p.current != nil {
		p.lastLine = p.current.Row()
		p.lastColumn = p.current.Column()
		if p.recording {
			p.raw.WriteString(p.current.ValueString())
		}
	}

	token, ok := p.tokenizer.NextToken()
	if ok {
		p.current = token
		p.hasToken = true
	} else {
		p.hasToken = false
		p.current = nil
	}
}

// position returns current position for AST nodes.
func (p *Parser) position() ast.Position {
	if p.hasToken && p.current != nil {
		return ast.NewPosition(
			p.current.Offset(),
			p.current.Row(),
			p.current.Column(),
		)
	}
	return ast.ZeroPosition()
}

func (p *Parser) line() int {
	if p.hasToken && p.current != nil {
		return p.current.Row()
	}
	return p.lastLine
}

func (p *Parser) column() int {
	if p.hasToken && p.current != nil {
		return p.current.Column()
	}
	return p.lastColumn
}

// isCommentLine checks if the current line starts with the comment character.
func (p *Parser) isCommentLine() bool {
	if p.peekKind() != tokenizer.TokenField {
		return false
	}
	value := p.current.ValueString()
	return strings.HasPrefix(value, string(p.opts.Comment))
}

// skipLine advances past all tokens until the next newline or EOF.
func (p *Parser) skipLine() {
	for p.hasToken {
		if p.peekKind() == tokenizer.TokenNewline {
			p.advance()
			return
		}
		p.advance()
	}
}

// Fields flattens a record node into its string field values.
func Fields(record *ast.ArrayDataNode) []string {
	elements := record.Elements()
	fields := make([]string, len(elements))
	for i, elem := range elements {
		if lit, ok := elem.(*ast.LiteralNode); ok {
			if s, ok := lit.Value().(string); ok {
				fields[i] = s
			}
		}
	}
	return fields
}
