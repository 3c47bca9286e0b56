package csv_test

import (
	"testing"

	"github.com/shapestone/shape-csv-beans/pkg/csv"
)

func TestNewFormat_Defaults(t *testing.T) {
	for name, f := range map[string]csv.Format{
		"NewFormat":  csv.NewFormat(),
		"zero value": {},
	} {
		t.Run(name, func(t *testing.T) {
			if got := f.Delimiter(); got != ',' {
				t.Errorf("Delimiter() = %q, want ','", got)
			}
			if got := f.Quote(); got != '"' {
				t.Errorf("Quote() = %q, want '\"'", got)
			}
			if got := f.QuoteEscape(); got != '"' {
				t.Errorf("QuoteEscape() = %q, want '\"'", got)
			}
		})
	}
}

func TestFormat_SettersAndPredicates(t *testing.T) {
	chars := []rune{',', ';', '\t', '|', '"', '\'', '\\', '\x00', '\x1f', '\n', 'é', '¦', '😀'}

	for _, v := range chars {
		t.Run(string(v), func(t *testing.T) {
			var f csv.Format
			f.SetDelimiter(v)
			if got := f.Delimiter(); got != v {
				t.Errorf("Delimiter() = %q, want %q", got, v)
			}

			g := csv.NewFormat()
			g.SetQuote(v)
			if got := g.Quote(); got != v {
				t.Errorf("Quote() = %q, want %q", got, v)
			}

			h := csv.NewFormat()
			h.SetQuoteEscape(v)
			if got := h.QuoteEscape(); got != v {
				t.Errorf("QuoteEscape() = %q, want %q", got, v)
			}

			for _, c := range chars {
				if got := f.IsDelimiter(c); got != (c == v) {
					t.Errorf("IsDelimiter(%q) = %v after SetDelimiter(%q)", c, got, v)
				}
				if got := g.IsQuote(c); got != (c == v) {
					t.Errorf("IsQuote(%q) = %v after SetQuote(%q)", c, got, v)
				}
				if got := h.IsQuoteEscape(c); got != (c == v) {
					t.Errorf("IsQuoteEscape(%q) = %v after SetQuoteEscape(%q)", c, got, v)
				}
			}
		})
	}
}

func TestFormat_SettersKeepOtherDefaults(t *testing.T) {
	var f csv.Format
	f.SetQuote('\'')

	if f.Delimiter() != ',' {
		t.Errorf("Delimiter() = %q, want ','", f.Delimiter())
	}
	if f.QuoteEscape() != '"' {
		t.Errorf("QuoteEscape() = %q, want '\"'", f.QuoteEscape())
	}
}

func TestFormat_QuoteEscapeFollowsQuoteByDefault(t *testing.T) {
	f := csv.NewFormat().WithDelimiter(';')
	for c := rune(0); c < 256; c++ {
		if f.IsQuoteEscape(c) != f.IsQuote(c) {
			t.Fatalf("IsQuoteEscape(%q) = %v, IsQuote(%q) = %v", c, f.IsQuoteEscape(c), c, f.IsQuote(c))
		}
	}
}

func TestFormat_WithReturnsCopy(t *testing.T) {
	base := csv.NewFormat()
	tsv := base.WithDelimiter('\t').WithQuoteEscape('\\')

	if base.Delimiter() != ',' || base.QuoteEscape() != '"' {
		t.Errorf("base changed to %v", base)
	}
	if tsv.Delimiter() != '\t' || tsv.Quote() != '"' || tsv.QuoteEscape() != '\\' {
		t.Errorf("tsv = %v", tsv)
	}
	if csv.TabFormat() != csv.NewFormat().WithDelimiter('\t') {
		t.Errorf("TabFormat() = %v", csv.TabFormat())
	}
}

func TestFormat_String(t *testing.T) {
	got := csv.NewFormat().WithDelimiter(';').String()
	want := `delimiter=';' quote='"' escape='"'`
	if got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}

func TestFormat_SnapshotPerSession(t *testing.T) {
	format := csv.NewFormat().WithDelimiter(';')

	rows := csv.NewRowListProcessor()
	settings := csv.DefaultParserSettings()
	settings.Format = format
	settings.Processor = rows
	p := csv.NewParser(settings)

	// Changing the caller's value after construction has no effect
	format.SetDelimiter(',')
	settings.Format.SetDelimiter(',')

	if err := p.ParseString("a;b\n"); err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if got := rows.Rows(); len(got) != 1 || len(got[0]) != 2 {
		t.Errorf("Rows() = %q, want [[a b]]", got)
	}
}

func FuzzFormatSetters(f *testing.F) {
	f.Add(int32(','), int32(';'))
	f.Add(int32('"'), int32('"'))
	f.Add(int32(0), int32(-1))

	f.Fuzz(func(t *testing.T, v, c int32) {
		var format csv.Format
		format.SetDelimiter(v)
		format.SetQuote(v)
		format.SetQuoteEscape(v)

		if format.Delimiter() != v || format.Quote() != v || format.QuoteEscape() != v {
			t.Fatalf("getters = %q %q %q, want %q", format.Delimiter(), format.Quote(), format.QuoteEscape(), v)
		}
		want := c == v
		if format.IsDelimiter(c) != want || format.IsQuote(c) != want || format.IsQuoteEscape(c) != want {
			t.Fatalf("predicates for %q after setting %q disagree with equality", c, v)
		}
	})
}
