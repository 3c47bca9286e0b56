package csv

import (
	"io"

	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"

	"github.com/shapestone/shape-csv-beans/internal/parser"
)

// Scanner provides a streaming interface for reading CSV records one at a time.
// Records are parsed incrementally, so memory use does not grow with the
// size of the input.
//
// Example usage:
//
//	file, _ := os.Open("data.csv")
//	defer file.Close()
//
//	scanner := csv.NewScanner(file).SetHasHeaders(true)
//	for scanner.Scan() {
//	    record := scanner.Record()
//	    name, _ := record.GetByName("name")
//	    fmt.Println(name)
//	}
//	if err := scanner.Err(); err != nil {
//	    // handle error
//	}
type Scanner struct {
	reader      io.Reader
	format      Format
	hasHeaders  bool
	reuseRecord bool
	headers     []string
	records     *parser.Parser
	current     []string
	line        int
	err         error
	done        bool
	lastRecord  Record // reused when reuseRecord is true
}

// NewScanner creates a new Scanner that reads CSV in the default format from
// the given io.Reader. By default, the scanner assumes no headers. Use
// SetHasHeaders(true) to treat the first row as headers.
func NewScanner(reader io.Reader) *Scanner {
	return NewScannerWithFormat(reader, NewFormat())
}

// NewScannerWithFormat creates a Scanner for the given format. The format is
// copied; later changes to it do not affect the Scanner.
//
// Example:
//
//	scanner := csv.NewScannerWithFormat(reader, csv.NewFormat().WithDelimiter(';'))
func NewScannerWithFormat(reader io.Reader, format Format) *Scanner {
	return &Scanner{
		reader: reader,
		format: format,
	}
}

// SetHasHeaders sets whether the first row should be treated as headers.
// If true, the first row will be used as column names for GetByName() access.
// Returns the Scanner for method chaining.
func (s *Scanner) SetHasHeaders(hasHeaders bool) *Scanner {
	s.hasHeaders = hasHeaders
	return s
}

// SetReuseRecord sets whether the scanner should reuse the Record struct.
// When true, successive calls to Record() may return the same Record struct
// with updated field values. This can reduce memory allocations but means
// that previous Record values may be overwritten.
// Returns the Scanner for method chaining.
func (s *Scanner) SetReuseRecord(reuse bool) *Scanner {
	s.reuseRecord = reuse
	return s
}

// Scan advances the scanner to the next record.
// It returns false when there are no more records or an error occurs.
// After Scan returns false, the Err method will return any error that occurred.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}

	if s.records == nil {
		s.start()
		if s.hasHeaders {
			header, ok := s.next()
			if !ok {
				return false
			}
			s.headers = header
		}
	}

	fields, ok := s.next()
	if !ok {
		return false
	}
	s.current = fields
	s.line = s.records.RecordLine()
	return true
}

func (s *Scanner) start() {
	stream := shapetokenizer.NewStreamFromReader(decodeReader(s.reader, nil))
	s.records = parser.NewParserFromStreamWithOptions(stream, formatOptions(s.format))
}

// next reads one record. It records the error and marks the scanner done
// when no record is available.
func (s *Scanner) next() ([]string, bool) {
	record, err := s.records.NextRecord()
	if err != nil {
		if err != io.EOF {
			s.err = err
		}
		s.done = true
		s.current = nil
		return nil, false
	}
	return parser.Fields(record), true
}

// Record returns the current record.
// This should only be called after Scan() returns true.
//
// The returned Record provides access to field values by index or by header
// name (if headers are set).
//
// When ReuseRecord is enabled, the returned Record may share memory with
// previous calls. Copy the Record if you need to retain its values.
func (s *Scanner) Record() Record {
	if s.current == nil {
		return Record{fields: []string{}, headers: s.headers}
	}

	if s.reuseRecord {
		s.lastRecord.fields = s.current
		s.lastRecord.headers = s.headers
		return s.lastRecord
	}

	return Record{
		fields:  s.current,
		headers: s.headers,
	}
}

// Line returns the line on which the current record started (1-indexed).
func (s *Scanner) Line() int {
	return s.line
}

// Err returns the error, if any, that was encountered during scanning.
// It returns nil if no error occurred or at EOF.
func (s *Scanner) Err() error {
	return s.err
}

// Headers returns the column headers if SetHasHeaders(true) was called.
// Returns nil if no headers were read.
// This is available after the first call to Scan().
func (s *Scanner) Headers() []string {
	return s.headers
}

// Record represents a single row in a CSV file.
// It provides access to field values by index or by header name.
type Record struct {
	fields  []string
	headers []string
}

// Get gets the field value at the specified index.
// Returns (value, false) if the index is out of bounds.
// Index is 0-based.
func (r Record) Get(index int) (string, bool) {
	if index < 0 || index >= len(r.fields) {
		return "", false
	}
	return r.fields[index], true
}

// GetByName gets the field value by header name.
// Returns (value, false) if the header name is not found or if no headers are set.
func (r Record) GetByName(name string) (string, bool) {
	for i, header := range r.headers {
		if header == name {
			return r.Get(i)
		}
	}
	return "", false
}

// Fields returns a copy of the field values in the record.
func (r Record) Fields() []string {
	fields := make([]string, len(r.fields))
	copy(fields, r.fields)
	return fields
}

// Len returns the number of fields in the record.
func (r Record) Len() int {
	return len(r.fields)
}
