package csv_test

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/shapestone/shape-csv-beans/pkg/csv"
)

// recorder is a RowProcessor that logs every call it receives.
type recorder struct {
	events  []string
	lines   []int
	onRow   func(row []string, ctx csv.Context) error
	headers []string
}

func (r *recorder) ProcessStarted(ctx csv.Context) error {
	r.headers = ctx.Headers()
	r.events = append(r.events, "started")
	return nil
}

func (r *recorder) RowProcessed(row []string, ctx csv.Context) error {
	r.events = append(r.events, strings.Join(row, "|"))
	r.lines = append(r.lines, ctx.CurrentLine())
	if r.onRow != nil {
		return r.onRow(row, ctx)
	}
	return nil
}

func (r *recorder) ProcessEnded(ctx csv.Context) error {
	r.events = append(r.events, "ended")
	return nil
}

func runSession(t *testing.T, settings csv.ParserSettings, input string) (*recorder, error) {
	t.Helper()
	rec := &recorder{}
	if settings.Processor == nil {
		settings.Processor = rec
	} else if r, ok := settings.Processor.(*recorder); ok {
		rec = r
	}
	return rec, csv.NewParser(settings).ParseString(input)
}

func TestParser_Session(t *testing.T) {
	tests := []struct {
		name        string
		configure   func(s *csv.ParserSettings)
		input       string
		wantHeaders []string
		wantEvents  []string
		wantErr     error
	}{
		{
			name:       "no headers",
			configure:  func(s *csv.ParserSettings) {},
			input:      "a,b\n1,2\n",
			wantEvents: []string{"started", "a|b", "1|2", "ended"},
		},
		{
			name:       "empty input",
			configure:  func(s *csv.ParserSettings) { s.HeaderExtractionEnabled = true },
			input:      "",
			wantEvents: []string{"started", "ended"},
		},
		{
			name:        "extracted headers",
			configure:   func(s *csv.ParserSettings) { s.HeaderExtractionEnabled = true },
			input:       "a,b\n1,2\n3,4\n",
			wantHeaders: []string{"a", "b"},
			wantEvents:  []string{"started", "1|2", "3|4", "ended"},
		},
		{
			name: "explicit headers win over the header record",
			configure: func(s *csv.ParserSettings) {
				s.HeaderExtractionEnabled = true
				s.Headers = []string{"x", "y"}
			},
			input:       "a,b\n1,2\n",
			wantHeaders: []string{"x", "y"},
			wantEvents:  []string{"started", "1|2", "ended"},
		},
		{
			name: "header converter",
			configure: func(s *csv.ParserSettings) {
				s.HeaderExtractionEnabled = true
				s.HeaderConverter = csv.SnakeCaseHeader
			},
			input:       "First Name,lastName\nAnn,Lee\n",
			wantHeaders: []string{"first_name", "last_name"},
			wantEvents:  []string{"started", "Ann|Lee", "ended"},
		},
		{
			name: "select columns by name",
			configure: func(s *csv.ParserSettings) {
				s.HeaderExtractionEnabled = true
				s.SelectedColumns = &csv.ColumnSelector{UseCols: []string{"c", "a"}}
			},
			input:       "a,b,c\n1,2,3\n",
			wantHeaders: []string{"a", "c"},
			wantEvents:  []string{"started", "1|3", "ended"},
		},
		{
			name: "select columns by index without headers",
			configure: func(s *csv.ParserSettings) {
				s.SelectedColumns = &csv.ColumnSelector{UseColIndexes: []int{2, 0}}
			},
			input:      "1,2,3\n4,5\n",
			wantEvents: []string{"started", "1|3", "4|", "ended"},
		},
		{
			name: "select columns by name without headers",
			configure: func(s *csv.ParserSettings) {
				s.SelectedColumns = &csv.ColumnSelector{UseCols: []string{"a"}}
			},
			input:   "1,2\n",
			wantErr: csv.ErrNoHeaders,
		},
		{
			name: "select columns by name on empty input",
			configure: func(s *csv.ParserSettings) {
				s.HeaderExtractionEnabled = true
				s.SelectedColumns = &csv.ColumnSelector{UseCols: []string{"a"}}
			},
			input:      "",
			wantEvents: []string{"started", "ended"},
		},
		{
			name:       "record limit",
			configure:  func(s *csv.ParserSettings) { s.NumberOfRecordsToRead = 2 },
			input:      "1\n2\n3\n4\n",
			wantEvents: []string{"started", "1", "2", "ended"},
		},
		{
			name: "custom format",
			configure: func(s *csv.ParserSettings) {
				s.Format = csv.NewFormat().WithDelimiter(';').WithQuote('\'')
			},
			input:      "'a;b';c\n",
			wantEvents: []string{"started", "a;b|c", "ended"},
		},
		{
			name: "non-ASCII format",
			configure: func(s *csv.ParserSettings) {
				s.Format = csv.NewFormat().WithDelimiter('€').WithQuote('«').WithQuoteEscape('\\')
				s.HeaderExtractionEnabled = true
			},
			input:       "prix€note\n12,50€«a€b \\«ok\\« ü»«\n",
			wantHeaders: []string{"prix", "note"},
			wantEvents:  []string{"started", "12,50|a€b «ok« ü»", "ended"},
		},
		{
			name: "comments and trimmed spaces",
			configure: func(s *csv.ParserSettings) {
				s.Comment = '#'
				s.TrimLeadingSpace = true
			},
			input:      "# note\na, b\n",
			wantEvents: []string{"started", "a|b", "ended"},
		},
		{
			name:       "detected format",
			configure:  func(s *csv.ParserSettings) { s.DetectFormat = true },
			input:      "a;b;c\n1;2;3\n",
			wantEvents: []string{"started", "a|b|c", "1|2|3", "ended"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := csv.DefaultParserSettings()
			tt.configure(&settings)

			rec, err := runSession(t, settings, tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				if len(rec.events) != 0 {
					t.Errorf("events = %q, want none", rec.events)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(rec.events, tt.wantEvents) {
				t.Errorf("events = %q, want %q", rec.events, tt.wantEvents)
			}
			if !reflect.DeepEqual(rec.headers, tt.wantHeaders) {
				t.Errorf("headers = %q, want %q", rec.headers, tt.wantHeaders)
			}
		})
	}
}

func TestParser_Stop(t *testing.T) {
	rec := &recorder{}
	rec.onRow = func(row []string, ctx csv.Context) error {
		if row[0] == "2" {
			ctx.Stop()
		}
		return nil
	}

	settings := csv.DefaultParserSettings()
	settings.Processor = rec
	if _, err := runSession(t, settings, "1\n2\n3\n"); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []string{"started", "1", "2", "ended"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Errorf("events = %q, want %q", rec.events, want)
	}
}

func TestParser_ErrorAbortsWithoutProcessEnded(t *testing.T) {
	boom := errors.New("boom")
	rec := &recorder{}
	rec.onRow = func(row []string, ctx csv.Context) error {
		if row[0] == "2" {
			return boom
		}
		return nil
	}

	settings := csv.DefaultParserSettings()
	settings.Processor = rec
	_, err := runSession(t, settings, "1\n2\n3\n")
	if !errors.Is(err, boom) {
		t.Fatalf("Parse() error = %v, want boom", err)
	}

	want := []string{"started", "1", "2"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Errorf("events = %q, want %q", rec.events, want)
	}
}

func TestParser_SyntaxError(t *testing.T) {
	settings := csv.DefaultParserSettings()
	rec, err := runSession(t, settings, "a,b\n\"c,d\n")

	var perr *csv.ParseError
	if !errors.As(err, &perr) || !errors.Is(err, csv.ErrUnterminatedQuote) {
		t.Fatalf("Parse() error = %v, want unterminated quote ParseError", err)
	}
	if perr.StartLine != 2 {
		t.Errorf("StartLine = %d, want 2", perr.StartLine)
	}
	if rec.events[len(rec.events)-1] == "ended" {
		t.Error("ProcessEnded called after a syntax error")
	}
}

func TestParser_SkipBadLines(t *testing.T) {
	var warnings []int
	var badLines int

	rec := &recorder{}
	rec.onRow = func(row []string, ctx csv.Context) error {
		badLines = ctx.BadLineCount()
		return nil
	}

	settings := csv.DefaultParserSettings()
	settings.Processor = rec
	settings.ErrorRecovery.OnBadLine = csv.BadLineModeWarn
	settings.ErrorRecovery.WarningCallback = func(line int, message string) {
		warnings = append(warnings, line)
	}

	if _, err := runSession(t, settings, "a,b\nc,d\"e\nf,g\n"); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []string{"started", "a|b", "f|g", "ended"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Errorf("events = %q, want %q", rec.events, want)
	}
	if !reflect.DeepEqual(warnings, []int{2}) {
		t.Errorf("warnings on lines %v, want [2]", warnings)
	}
	if badLines != 1 {
		t.Errorf("BadLineCount() = %d, want 1", badLines)
	}
	if !reflect.DeepEqual(rec.lines, []int{1, 3}) {
		t.Errorf("lines = %v, want [1 3]", rec.lines)
	}
}

func TestParser_Context(t *testing.T) {
	var records []int64
	var counts []int
	var formats []csv.Format

	settings := csv.DefaultParserSettings()
	settings.HeaderExtractionEnabled = true
	settings.Format = csv.TabFormat()
	settings.Processor = csv.RowProcessorFunc(func(row []string, ctx csv.Context) error {
		records = append(records, ctx.CurrentRecord())
		counts = append(counts, ctx.ColumnCount())
		formats = append(formats, ctx.Format())
		if ctx.IsStopped() {
			t.Error("IsStopped() = true before Stop")
		}
		return nil
	})

	if err := csv.NewParser(settings).ParseString("h1\th2\na\tb\nc\n"); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !reflect.DeepEqual(records, []int64{1, 2}) {
		t.Errorf("records = %v, want [1 2]", records)
	}
	if !reflect.DeepEqual(counts, []int{2, 1}) {
		t.Errorf("column counts = %v, want [2 1]", counts)
	}
	for _, f := range formats {
		if f != csv.TabFormat() {
			t.Errorf("Format() = %v, want tab format", f)
		}
	}
}

func TestParser_Encoding(t *testing.T) {
	t.Run("latin-1", func(t *testing.T) {
		latin1, err := charmap.ISO8859_1.NewEncoder().String("name\nJosé\n")
		if err != nil {
			t.Fatalf("encode: %v", err)
		}

		settings := csv.DefaultParserSettings()
		settings.Encoding = charmap.ISO8859_1
		rows, err := csv.NewParser(settings).ParseAll(strings.NewReader(latin1))
		if err != nil {
			t.Fatalf("ParseAll() error = %v", err)
		}
		if len(rows) != 2 || rows[1][0] != "José" {
			t.Errorf("rows = %q, want José decoded", rows)
		}
	})

	t.Run("utf-16 with BOM", func(t *testing.T) {
		enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
		data, err := enc.NewEncoder().Bytes([]byte("a,b\n1,2\n"))
		if err != nil {
			t.Fatalf("encode: %v", err)
		}

		settings := csv.DefaultParserSettings()
		settings.Encoding = enc
		rows, err := csv.NewParser(settings).ParseAll(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("ParseAll() error = %v", err)
		}
		if !reflect.DeepEqual(rows, [][]string{{"a", "b"}, {"1", "2"}}) {
			t.Errorf("rows = %q", rows)
		}
	})

	t.Run("utf-8 BOM is dropped", func(t *testing.T) {
		settings := csv.DefaultParserSettings()
		settings.HeaderExtractionEnabled = true
		rec, err := runSession(t, settings, "\ufeffid,name\n1,Ann\n")
		if err != nil {
			t.Fatalf("Parse() error = %v", err)
		}
		if !reflect.DeepEqual(rec.headers, []string{"id", "name"}) {
			t.Errorf("headers = %q", rec.headers)
		}
	})
}

func TestParser_NoProcessor(t *testing.T) {
	err := csv.NewParser(csv.DefaultParserSettings()).ParseString("a\n")
	if !errors.Is(err, csv.ErrNoProcessor) {
		t.Errorf("Parse() error = %v, want ErrNoProcessor", err)
	}
}

func TestParser_HeadersSnapshot(t *testing.T) {
	headers := []string{"x"}
	settings := csv.DefaultParserSettings()
	settings.Headers = headers
	rec := &recorder{}
	settings.Processor = rec
	p := csv.NewParser(settings)

	headers[0] = "changed"
	if err := p.ParseString("1\n"); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !reflect.DeepEqual(rec.headers, []string{"x"}) {
		t.Errorf("headers = %q, want [x]", rec.headers)
	}
}

func TestParser_ParseAllIgnoresProcessor(t *testing.T) {
	rec := &recorder{}
	settings := csv.DefaultParserSettings()
	settings.Processor = rec

	rows, err := csv.NewParser(settings).ParseAll(strings.NewReader("a\nb\n"))
	if err != nil {
		t.Fatalf("ParseAll() error = %v", err)
	}
	if !reflect.DeepEqual(rows, [][]string{{"a"}, {"b"}}) {
		t.Errorf("rows = %q", rows)
	}
	if len(rec.events) != 0 {
		t.Errorf("configured processor saw %q", rec.events)
	}
}
