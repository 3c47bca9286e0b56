package csv

// RowProcessor receives the rows of a parsing session.
//
// The Parser calls ProcessStarted once, then RowProcessed once per record in
// input order, then ProcessEnded once. Calls are synchronous and never
// concurrent for one session. An error returned from any method is handed to
// the Parser, which aborts the session unless a ProcessorErrorHandler
// recovers a RowProcessed error.
//
// A RowProcessor keeps per-session state and must not be shared between
// sessions that run at the same time.
type RowProcessor interface {
	ProcessStarted(ctx Context) error
	RowProcessed(row []string, ctx Context) error
	ProcessEnded(ctx Context) error
}

// sessionAborter is implemented by processors that keep per-session state.
// The Parser calls abortSession when a session fails after ProcessStarted,
// since ProcessEnded is not called then.
type sessionAborter interface {
	abortSession()
}

// abortSession releases the session state of p, if it keeps any.
func abortSession(p RowProcessor) {
	if a, ok := p.(sessionAborter); ok {
		a.abortSession()
	}
}

// RowProcessorFunc adapts a function to RowProcessor. The lifecycle methods
// do nothing.
type RowProcessorFunc func(row []string, ctx Context) error

// ProcessStarted implements RowProcessor.
func (f RowProcessorFunc) ProcessStarted(ctx Context) error { return nil }

// RowProcessed implements RowProcessor by calling f.
func (f RowProcessorFunc) RowProcessed(row []string, ctx Context) error { return f(row, ctx) }

// ProcessEnded implements RowProcessor.
func (f RowProcessorFunc) ProcessEnded(ctx Context) error { return nil }

// RowListProcessor collects every row of a session in memory.
//
//	rows := csv.NewRowListProcessor()
//	settings.Processor = rows
//	err := csv.NewParser(settings).Parse(file)
//	headers, records := rows.Headers(), rows.Rows()
type RowListProcessor struct {
	headers []string
	rows    [][]string
}

// NewRowListProcessor creates an empty RowListProcessor.
func NewRowListProcessor() *RowListProcessor {
	return &RowListProcessor{}
}

// ProcessStarted resets the collected rows.
func (p *RowListProcessor) ProcessStarted(ctx Context) error {
	p.rows = make([][]string, 0, 64)
	p.headers = nil
	return nil
}

// RowProcessed appends a copy of row.
func (p *RowListProcessor) RowProcessed(row []string, ctx Context) error {
	p.rows = append(p.rows, append([]string(nil), row...))
	return nil
}

// ProcessEnded records the session headers.
func (p *RowListProcessor) ProcessEnded(ctx Context) error {
	p.headers = ctx.Headers()
	return nil
}

// Rows returns the collected rows.
func (p *RowListProcessor) Rows() [][]string {
	return p.rows
}

// Headers returns the headers of the last completed session, or nil.
func (p *RowListProcessor) Headers() []string {
	return p.headers
}
