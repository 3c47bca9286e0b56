package csv

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/shapestone/shape-csv-beans/internal/parser"
)

// sniffSize is how much input DetectFormat inspects.
const sniffSize = 4096

// Parser drives parsing sessions: it reads records from input and delivers
// them to the configured RowProcessor.
//
// Each call to Parse is one session:
//
//  1. the header record is read, when HeaderExtractionEnabled is set;
//  2. Processor.ProcessStarted is called once;
//  3. Processor.RowProcessed is called once per data record, in order;
//  4. Processor.ProcessEnded is called once.
//
// Rows stop early when the processor calls Context.Stop or when
// NumberOfRecordsToRead is reached; ProcessEnded is still called. Any error
// that is not recovered (a syntax error under BadLineModeError, or a
// processor error without a ProcessorErrorHandler that absorbs it) ends the
// session immediately and is returned; ProcessEnded is not called.
//
// A Parser may run several sessions one after another. It is not safe to run
// sessions concurrently when they share a RowProcessor.
type Parser struct {
	settings ParserSettings
}

// NewParser creates a Parser from a snapshot of settings. Later changes to
// the caller's settings, Format or Headers slice do not affect it.
func NewParser(settings ParserSettings) *Parser {
	if settings.Headers != nil {
		settings.Headers = append([]string(nil), settings.Headers...)
	}
	return &Parser{settings: settings}
}

// ParseString parses input as one session.
func (p *Parser) ParseString(input string) error {
	return p.Parse(strings.NewReader(input))
}

// ParseAll parses reader and returns every data row. The configured
// Processor is not used.
func (p *Parser) ParseAll(reader io.Reader) ([][]string, error) {
	rows := NewRowListProcessor()
	session := *p
	session.settings.Processor = rows
	if err := session.Parse(reader); err != nil {
		return nil, err
	}
	return rows.Rows(), nil
}

// Parse reads reader until end of input and runs one session.
func (p *Parser) Parse(reader io.Reader) error {
	s := p.settings
	if s.Processor == nil {
		return ErrNoProcessor
	}

	reader = decodeReader(reader, s.Encoding)

	format := s.Format
	if s.DetectFormat {
		buffered := bufio.NewReaderSize(reader, sniffSize)
		sample, err := buffered.Peek(sniffSize)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return err
		}
		format = DetectFormat(string(sample))
		reader = buffered
	}

	records := parser.NewParserFromStreamWithOptions(
		shapetokenizer.NewStreamFromReader(reader),
		s.parserOptions(format),
	)

	ctx := &parsingContext{
		format:   format,
		headers:  s.Headers,
		badLines: records.BadLines,
	}

	exhausted := false
	if s.HeaderExtractionEnabled {
		header, err := records.NextRecord()
		if err != nil && err != io.EOF {
			return err
		}
		exhausted = err == io.EOF
		if err == nil && ctx.headers == nil {
			ctx.headers = parser.Fields(header)
		}
	}

	if ctx.headers != nil && s.HeaderConverter != nil {
		converted := make([]string, len(ctx.headers))
		for i, h := range ctx.headers {
			converted[i] = s.HeaderConverter(h)
		}
		ctx.headers = converted
	}

	var selected []int
	if sel := s.SelectedColumns; sel != nil && len(sel.UseCols) > 0 && ctx.headers == nil && !exhausted {
		return fmt.Errorf("%w: UseCols %q", ErrNoHeaders, sel.UseCols)
	}
	if sel := s.SelectedColumns; sel != nil && (len(sel.UseCols) > 0 || len(sel.UseColIndexes) > 0) {
		selected = sel.indexes(ctx.headers)
		if ctx.headers != nil {
			ctx.headers = selectFields(ctx.headers, selected)
		}
	}

	abort := func(err error) error {
		abortSession(s.Processor)
		return err
	}

	if err := s.Processor.ProcessStarted(ctx); err != nil {
		return abort(err)
	}

	for !ctx.stopped {
		if s.NumberOfRecordsToRead > 0 && ctx.record >= s.NumberOfRecordsToRead {
			break
		}

		record, err := records.NextRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return abort(err)
		}

		row := parser.Fields(record)
		if selected != nil {
			row = selectFields(row, selected)
		}

		ctx.record++
		ctx.line = records.RecordLine()
		ctx.columnCount = len(row)

		if err := s.Processor.RowProcessed(row, ctx); err != nil {
			if s.ProcessorErrorHandler == nil {
				return abort(err)
			}
			if err := s.ProcessorErrorHandler(err, row, ctx); err != nil {
				return abort(err)
			}
		}
	}

	return s.Processor.ProcessEnded(ctx)
}

// decodeReader converts input to UTF-8 and drops a leading byte order mark.
func decodeReader(reader io.Reader, enc encoding.Encoding) io.Reader {
	if enc == nil {
		enc = encoding.Nop
	}
	return transform.NewReader(reader, unicode.BOMOverride(enc.NewDecoder()))
}

// selectFields returns the values at the given positions; missing positions are empty.
func selectFields(fields []string, selected []int) []string {
	out := make([]string, len(selected))
	for i, idx := range selected {
		if idx < len(fields) {
			out[i] = fields[idx]
		}
	}
	return out
}
