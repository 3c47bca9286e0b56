package csv

// Context exposes the state of a parsing session to row processors.
//
// A Context is created by the Parser for each session and passed to every
// RowProcessor callback. Processors may read it and may call Stop, but must
// not retain it after ProcessEnded.
type Context interface {
	// CurrentLine returns the line on which the current record started (1-indexed).
	CurrentLine() int
	// CurrentRecord returns the 1-based index of the current data record.
	// Header rows are not counted.
	CurrentRecord() int64
	// Headers returns the column headers of the session, or nil.
	Headers() []string
	// ColumnCount returns the number of fields in the current row.
	ColumnCount() int
	// Format returns the format the session parses with.
	Format() Format
	// BadLineCount returns the number of malformed lines skipped or warned about so far.
	BadLineCount() int
	// Stop asks the parser to stop delivering rows. ProcessEnded is still called.
	Stop()
	// IsStopped reports whether Stop has been called.
	IsStopped() bool
}

// parsingContext is the Parser's Context implementation.
type parsingContext struct {
	format      Format
	headers     []string
	line        int
	record      int64
	columnCount int
	badLines    func() int
	stopped     bool
}

func (c *parsingContext) CurrentLine() int     { return c.line }
func (c *parsingContext) CurrentRecord() int64 { return c.record }
func (c *parsingContext) Headers() []string    { return c.headers }
func (c *parsingContext) ColumnCount() int     { return c.columnCount }
func (c *parsingContext) Format() Format       { return c.format }
func (c *parsingContext) Stop()                { c.stopped = true }
func (c *parsingContext) IsStopped() bool      { return c.stopped }

func (c *parsingContext) BadLineCount() int {
	if c.badLines == nil {
		return 0
	}
	return c.badLines()
}
