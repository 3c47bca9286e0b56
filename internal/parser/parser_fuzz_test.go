package parser

import (
	"testing"
)

// FuzzParser checks that no input can make the parser panic or loop.
// Run with: go test -fuzz=FuzzParser -fuzztime=30s ./internal/parser
func FuzzParser(f *testing.F) {
	seeds := []string{
		"",
		"a",
		"a,b,c\n",
		"a,b\nc,d",
		"\"with,comma\"",
		"\"with\"\"quote\"",
		"\"multi\nline\"",
		"a,\"b,c\",d",
		"\"a\"b",
		"\"unclosed",
		"a\r\nb\rc",
		`'it\'s'`,
		"# comment\na",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	dialects := []Options{
		DefaultOptions(),
		{Delimiter: ';', Quote: '\'', QuoteEscape: '\\', Comment: '#', FieldsPerRecord: 0, OnBadLine: BadLineModeSkip},
		{Delimiter: '\t', Quote: '"', QuoteEscape: '"', LazyQuotes: true, TrimLeadingSpace: true, FieldsPerRecord: -1},
	}

	f.Fuzz(func(t *testing.T, input string) {
		for _, opts := range dialects {
			p := NewParserWithOptions(input, opts)
			_, _ = p.Parse()
		}
	})
}
