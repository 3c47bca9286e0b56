package tokenizer

import (
	"github.com/shapestone/shape-core/pkg/tokenizer"
)

// Options configures the characters the tokenizer treats as structural.
type Options struct {
	// Delimiter separates fields. Default: ','
	Delimiter rune
	// Quote opens and closes quoted fields. Default: '"'
	Quote rune
	// QuoteEscape escapes a quote inside a quoted field. Default: '"'
	// When equal to Quote no separate escape token is produced.
	QuoteEscape rune
}

// DefaultOptions returns RFC 4180 tokenizer options.
func DefaultOptions() Options {
	return Options{
		Delimiter:   ',',
		Quote:       '"',
		QuoteEscape: '"',
	}
}

// hasEscape reports whether the escape character needs its own token.
func (o Options) hasEscape() bool {
	return o.QuoteEscape != o.Quote
}

// isSpecial reports whether r ends a run of field content.
func (o Options) isSpecial(r rune) bool {
	return r == o.Delimiter || r == o.Quote || (o.hasEscape() && r == o.QuoteEscape) || r == '\n' || r == '\r'
}

// NewTokenizer creates a tokenizer for comma separated values with '"' quoting.
func NewTokenizer() tokenizer.Tokenizer {
	return NewTokenizerWithOptions(DefaultOptions())
}

// NewTokenizerWithOptions creates a tokenizer for the given dialect.
// Matchers are tried in order of specificity:
//  1. Newlines (CRLF before LF, lone CR last)
//  2. Delimiter
//  3. Quote
//  4. Quote escape, when it differs from the quote
//  5. Field content (any other run of characters)
func NewTokenizerWithOptions(opts Options) tokenizer.Tokenizer {
	matchers := []tokenizer.Matcher{
		tokenizer.StringMatcherFunc(TokenNewline, "\r\n"),
		tokenizer.StringMatcherFunc(TokenNewline, "\n"),
		tokenizer.StringMatcherFunc(TokenNewline, "\r"),
		tokenizer.StringMatcherFunc(TokenDelimiter, string(opts.Delimiter)),
		tokenizer.StringMatcherFunc(TokenQuote, string(opts.Quote)),
	}
	if opts.hasEscape() {
		matchers = append(matchers, tokenizer.StringMatcherFunc(TokenEscape, string(opts.QuoteEscape)))
	}
	matchers = append(matchers, FieldContentMatcherWithOptions(opts))

	return tokenizer.NewTokenizerWithoutWhitespace(matchers...)
}

// NewTokenizerWithStreamAndOptions creates a tokenizer from a stream with custom options.
func NewTokenizerWithStreamAndOptions(stream tokenizer.Stream, opts Options) tokenizer.Tokenizer {
	tok := NewTokenizerWithOptions(opts)
	tok.InitializeFromStream(stream)
	return tok
}

// FieldContentMatcherWithOptions matches runs of characters that are not
// structural under opts.
//
// Grammar:
//
//	Field = Character+ ;
//	Character = <any character except delimiter, quote, escape, CR, LF> ;
//
// Uses the ByteStream fast path when every structural character is ASCII.
func FieldContentMatcherWithOptions(opts Options) tokenizer.Matcher {
	ascii := opts.Delimiter < 128 && opts.Quote < 128 && opts.QuoteEscape < 128
	return func(stream tokenizer.Stream) *tokenizer.Token {
		if ascii {
			if byteStream, ok := stream.(tokenizer.ByteStream); ok {
				return fieldContentMatcherByte(byteStream, opts)
			}
		}
		return fieldContentMatcherRune(stream, opts)
	}
}

func fieldContentMatcherByte(stream tokenizer.ByteStream, opts Options) *tokenizer.Token {
	startPos := stream.BytePosition()

	for {
		b, ok := stream.PeekByte()
		if !ok {
			break
		}
		if b < 128 && opts.isSpecial(rune(b)) {
			break
		}
		stream.NextByte()
	}

	if stream.BytePosition() == startPos {
		return nil
	}

	value := stream.SliceFrom(startPos)
	return tokenizer.NewToken(TokenField, []rune(string(value)))
}

func fieldContentMatcherRune(stream tokenizer.Stream, opts Options) *tokenizer.Token {
	var value []rune

	for {
		r, ok := stream.PeekChar()
		if !ok {
			break
		}
		if opts.isSpecial(r) {
			break
		}
		stream.NextChar()
		value = append(value, r)
	}

	if len(value) == 0 {
		return nil
	}

	return tokenizer.NewToken(TokenField, value)
}
