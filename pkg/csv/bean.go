package csv

import (
	"errors"
	"reflect"
)

// beanOptions configures how rows become beans.
type beanOptions struct {
	converters map[string]Converter
	registry   *ConverterRegistry
	nullValues []string
	strict     bool
	onStarted  func(ctx Context) error
	onEnded    func(ctx Context) error
}

// BeanOption configures a BeanProcessor.
type BeanOption func(*beanOptions)

// WithConverter overrides the conversion of one field. field is either the
// Go field name or its column name.
func WithConverter(field string, conv Converter) BeanOption {
	return func(o *beanOptions) {
		if o.converters == nil {
			o.converters = make(map[string]Converter)
		}
		o.converters[field] = conv
	}
}

// WithConverterRegistry sets the registry used to resolve `converter=` tag
// options. Defaults to NewConverterRegistry().
func WithConverterRegistry(registry *ConverterRegistry) BeanOption {
	return func(o *beanOptions) {
		o.registry = registry
	}
}

// WithNullValues makes the given values behave like empty fields: pointer
// fields stay nil, defaults apply, and other fields get their zero value.
//
//	csv.WithNullValues(csv.DefaultNullValues...)
func WithNullValues(values ...string) BeanOption {
	return func(o *beanOptions) {
		o.nullValues = append([]string(nil), values...)
	}
}

// WithStrictFieldCount rejects rows that are shorter than the highest bound
// column with ErrMissingField. By default missing values are treated as empty.
func WithStrictFieldCount() BeanOption {
	return func(o *beanOptions) {
		o.strict = true
	}
}

// WithProcessStarted runs fn at the start of every session, after the field
// mapping has been resolved.
func WithProcessStarted(fn func(ctx Context) error) BeanOption {
	return func(o *beanOptions) {
		o.onStarted = fn
	}
}

// WithProcessEnded runs fn at the end of every session, for example to
// flush aggregated state.
func WithProcessEnded(fn func(ctx Context) error) BeanOption {
	return func(o *beanOptions) {
		o.onEnded = fn
	}
}

// BeanProcessor is a RowProcessor that converts every row into a T and
// passes it to a callback. T must be a struct or a pointer to a struct whose
// fields are mapped with csv tags (see Unmarshal).
//
// The processor is idle until ProcessStarted, which resolves the row position
// to field mapping from the session headers. While active, each row is
// converted and handed to the callback exactly once, in input order. A row
// that cannot be converted yields a *ConversionError and the callback is not
// called for it. ProcessEnded returns the processor to idle.
//
//	type Person struct {
//	    Name string `csv:"name"`
//	    Age  int    `csv:"age"`
//	}
//
//	bp, err := csv.NewBeanProcessor(func(p Person, ctx csv.Context) error {
//	    fmt.Println(ctx.CurrentRecord(), p.Name, p.Age)
//	    return nil
//	})
//	settings := csv.DefaultParserSettings()
//	settings.HeaderExtractionEnabled = true
//	settings.Processor = bp
//	err = csv.NewParser(settings).Parse(file)
type BeanProcessor[T any] struct {
	onBean  func(bean T, ctx Context) error
	binder  *beanBinder
	mapping *beanMapping // nil while idle
}

// NewBeanProcessor creates a processor for beans of type T. It fails when T
// is not a struct or pointer to a struct, when a field has a malformed tag,
// or when a field type cannot be converted from text.
func NewBeanProcessor[T any](onBean func(bean T, ctx Context) error, opts ...BeanOption) (*BeanProcessor[T], error) {
	if onBean == nil {
		return nil, errors.New("csv: NewBeanProcessor(nil callback)")
	}

	var o beanOptions
	for _, opt := range opts {
		opt(&o)
	}

	binder, err := newBeanBinder(reflect.TypeOf((*T)(nil)).Elem(), o)
	if err != nil {
		return nil, err
	}

	return &BeanProcessor[T]{
		onBean: onBean,
		binder: binder,
	}, nil
}

// ProcessStarted resolves the field mapping for the session.
func (p *BeanProcessor[T]) ProcessStarted(ctx Context) error {
	p.mapping = p.binder.bind(ctx.Headers())
	if p.binder.opts.onStarted != nil {
		return p.binder.opts.onStarted(ctx)
	}
	return nil
}

// RowProcessed converts row and passes the bean to the callback.
func (p *BeanProcessor[T]) RowProcessed(row []string, ctx Context) error {
	bean, err := p.Convert(row, ctx)
	if err != nil {
		return err
	}
	return p.onBean(bean, ctx)
}

// ProcessEnded runs the WithProcessEnded hook, if any, and ends the session.
func (p *BeanProcessor[T]) ProcessEnded(ctx Context) error {
	p.mapping = nil
	if p.binder.opts.onEnded != nil {
		return p.binder.opts.onEnded(ctx)
	}
	return nil
}

func (p *BeanProcessor[T]) abortSession() {
	p.mapping = nil
}

// Convert builds a fresh bean from row using the session mapping.
// It returns ErrProcessorNotStarted outside a session, which includes after
// a session that a Parser aborted with an error.
func (p *BeanProcessor[T]) Convert(row []string, ctx Context) (T, error) {
	var zero T
	if p.mapping == nil {
		return zero, ErrProcessorNotStarted
	}
	v, err := p.mapping.convert(row, ctx.CurrentRecord(), ctx.CurrentLine())
	if err != nil {
		return zero, err
	}
	return v.Interface().(T), nil
}

// BeanListProcessor collects the beans of a session in memory.
//
//	people, err := csv.NewBeanListProcessor[Person]()
//	settings.Processor = people
//	err = csv.NewParser(settings).Parse(file)
//	for _, p := range people.Beans() { ... }
type BeanListProcessor[T any] struct {
	*BeanProcessor[T]
	beans   []T
	headers []string
}

// NewBeanListProcessor creates a collecting processor for beans of type T.
func NewBeanListProcessor[T any](opts ...BeanOption) (*BeanListProcessor[T], error) {
	l := &BeanListProcessor[T]{}
	bp, err := NewBeanProcessor[T](func(bean T, ctx Context) error {
		l.beans = append(l.beans, bean)
		return nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	l.BeanProcessor = bp
	return l, nil
}

// ProcessStarted resets the collected beans and starts the session.
func (l *BeanListProcessor[T]) ProcessStarted(ctx Context) error {
	l.beans = make([]T, 0, 64)
	l.headers = nil
	return l.BeanProcessor.ProcessStarted(ctx)
}

// ProcessEnded records the session headers and ends the session.
func (l *BeanListProcessor[T]) ProcessEnded(ctx Context) error {
	l.headers = ctx.Headers()
	return l.BeanProcessor.ProcessEnded(ctx)
}

// Beans returns the collected beans.
func (l *BeanListProcessor[T]) Beans() []T {
	return l.beans
}

// Headers returns the headers of the last completed session, or nil.
func (l *BeanListProcessor[T]) Headers() []string {
	return l.headers
}
