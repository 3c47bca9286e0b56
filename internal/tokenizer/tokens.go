// Package tokenizer provides delimited-text tokenization using Shape's tokenizer framework.
package tokenizer

// Token type constants for delimited text.
//
// The tokenizer emits character-level tokens only. Which character plays
// which role comes from Options, so the same token kinds serve comma,
// tab, semicolon or any other single-character dialect. The parser decides
// what a quote or escape token means from the surrounding context.
const (
	// Structural tokens
	TokenDelimiter = "Delimiter" // field separator
	TokenQuote     = "Quote"     // opens or closes a quoted field
	TokenEscape    = "Escape"    // quote escape, only emitted when it differs from the quote
	TokenNewline   = "Newline"   // \n, \r\n or a lone \r

	// Field content token
	TokenField = "Field" // run of ordinary characters

	// Special token
	TokenEOF = "EOF" // End of file
)
