package tokenizer

import (
	"strings"
	"testing"

	"github.com/shapestone/shape-core/pkg/tokenizer"
)

type wantToken struct {
	kind  string
	value string
}

func collect(t *testing.T, tok tokenizer.Tokenizer) []wantToken {
	t.Helper()
	var got []wantToken
	for {
		token, ok := tok.NextToken()
		if !ok {
			return got
		}
		got = append(got, wantToken{token.Kind(), token.ValueString()})
	}
}

func assertTokens(t *testing.T, got, want []wantToken) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s %q, want %s %q", i, got[i].kind, got[i].value, want[i].kind, want[i].value)
		}
	}
}

func TestTokenTypes(t *testing.T) {
	for _, kind := range []string{TokenDelimiter, TokenQuote, TokenEscape, TokenNewline, TokenField, TokenEOF} {
		if kind == "" {
			t.Error("token kind is empty")
		}
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Delimiter != ',' || opts.Quote != '"' || opts.QuoteEscape != '"' {
		t.Errorf("DefaultOptions() = %+v", opts)
	}
	if opts.hasEscape() {
		t.Error("default options should not emit escape tokens")
	}
}

func TestNewTokenizer_DefaultDialect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []wantToken
	}{
		{
			name:  "simple row",
			input: "a,b,c",
			want: []wantToken{
				{TokenField, "a"}, {TokenDelimiter, ","}, {TokenField, "b"}, {TokenDelimiter, ","}, {TokenField, "c"},
			},
		},
		{
			name:  "quoted field with delimiter",
			input: `a,"b,c",d`,
			want: []wantToken{
				{TokenField, "a"}, {TokenDelimiter, ","},
				{TokenQuote, `"`}, {TokenField, "b"}, {TokenDelimiter, ","}, {TokenField, "c"}, {TokenQuote, `"`},
				{TokenDelimiter, ","}, {TokenField, "d"},
			},
		},
		{
			name:  "doubled quote",
			input: `"say ""hi"""`,
			want: []wantToken{
				{TokenQuote, `"`}, {TokenField, "say "}, {TokenQuote, `"`}, {TokenQuote, `"`},
				{TokenField, "hi"}, {TokenQuote, `"`}, {TokenQuote, `"`}, {TokenQuote, `"`},
			},
		},
		{
			name:  "empty fields",
			input: ",,",
			want:  []wantToken{{TokenDelimiter, ","}, {TokenDelimiter, ","}},
		},
		{
			name:  "line endings",
			input: "a\nb\r\nc\rd",
			want: []wantToken{
				{TokenField, "a"}, {TokenNewline, "\n"},
				{TokenField, "b"}, {TokenNewline, "\r\n"},
				{TokenField, "c"}, {TokenNewline, "\r"},
				{TokenField, "d"},
			},
		},
		{
			name:  "spaces are content",
			input: " a , b ",
			want:  []wantToken{{TokenField, " a "}, {TokenDelimiter, ","}, {TokenField, " b "}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := NewTokenizer()
			tok.Initialize(tt.input)
			assertTokens(t, collect(t, tok), tt.want)
		})
	}
}

func TestNewTokenizerWithOptions_CustomDialects(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		input string
		want  []wantToken
	}{
		{
			name:  "tab separated",
			opts:  Options{Delimiter: '\t', Quote: '"', QuoteEscape: '"'},
			input: "a\tb,c",
			want:  []wantToken{{TokenField, "a"}, {TokenDelimiter, "\t"}, {TokenField, "b,c"}},
		},
		{
			name:  "distinct escape",
			opts:  Options{Delimiter: ',', Quote: '\'', QuoteEscape: '\\'},
			input: `'it\'s',x`,
			want: []wantToken{
				{TokenQuote, "'"}, {TokenField, "it"}, {TokenEscape, `\`}, {TokenQuote, "'"},
				{TokenField, "s"}, {TokenQuote, "'"}, {TokenDelimiter, ","}, {TokenField, "x"},
			},
		},
		{
			name:  "double quote is content under single quote dialect",
			opts:  Options{Delimiter: ';', Quote: '\'', QuoteEscape: '\''},
			input: `"a";b`,
			want:  []wantToken{{TokenField, `"a"`}, {TokenDelimiter, ";"}, {TokenField, "b"}},
		},
		{
			name:  "non-ASCII delimiter",
			opts:  Options{Delimiter: '¦', Quote: '"', QuoteEscape: '"'},
			input: "α¦β",
			want:  []wantToken{{TokenField, "α"}, {TokenDelimiter, "¦"}, {TokenField, "β"}},
		},
		{
			name:  "non-ASCII quote and escape",
			opts:  Options{Delimiter: '¦', Quote: '«', QuoteEscape: '»'},
			input: "«ä»«ö»»¦ü",
			want: []wantToken{
				{TokenQuote, "«"}, {TokenField, "ä"}, {TokenEscape, "»"}, {TokenQuote, "«"},
				{TokenField, "ö"}, {TokenEscape, "»"}, {TokenEscape, "»"}, {TokenDelimiter, "¦"}, {TokenField, "ü"},
			},
		},
		{
			name:  "four byte delimiter",
			opts:  Options{Delimiter: '😀', Quote: '"', QuoteEscape: '"'},
			input: "日本😀\"a😀b\"",
			want: []wantToken{
				{TokenField, "日本"}, {TokenDelimiter, "😀"},
				{TokenQuote, `"`}, {TokenField, "a"}, {TokenDelimiter, "😀"}, {TokenField, "b"}, {TokenQuote, `"`},
			},
		},
		{
			name:  "control character delimiter",
			opts:  Options{Delimiter: '\x1f', Quote: '"', QuoteEscape: '"'},
			input: "a\x1fb",
			want:  []wantToken{{TokenField, "a"}, {TokenDelimiter, "\x1f"}, {TokenField, "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := NewTokenizerWithOptions(tt.opts)
			tok.Initialize(tt.input)
			assertTokens(t, collect(t, tok), tt.want)
		})
	}
}

// TestTokenizer_LargeInput tokenizes a reader-backed stream that crosses buffer boundaries.
func TestTokenizer_LargeInput(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		sb.WriteString(`"field1";"field2";"field3"`)
		sb.WriteString("\n")
	}

	stream := tokenizer.NewStreamFromReader(strings.NewReader(sb.String()))
	tok := NewTokenizerWithStreamAndOptions(stream, Options{Delimiter: ';', Quote: '"', QuoteEscape: '"'})

	tokenCount := 0
	for {
		_, ok := tok.NextToken()
		if !ok {
			if !stream.IsEos() {
				t.Fatalf("tokenization stopped after %d tokens before end of stream", tokenCount)
			}
			break
		}
		tokenCount++
	}

	// " field " ; " field " ; " field " \n = 12 tokens per row
	if want := 100 * 12; tokenCount != want {
		t.Errorf("got %d tokens, want %d", tokenCount, want)
	}
}
