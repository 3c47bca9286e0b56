package csv

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// fieldSetter is a pre-computed function that sets a struct field from text.
type fieldSetter func(field reflect.Value, value string) error

// beanField holds the csv tag metadata of one struct field.
type beanField struct {
	index     int    // struct field index
	goName    string // Go field name
	name      string // column name from the tag, or the Go field name
	column    int    // explicit position from index=, -1 if none
	def       string // default= value
	hasDef    bool
	layout    string // layout= for time.Time fields
	converter string // converter= registry name
	required  bool
	typ       reflect.Type
}

// columnBinding connects a row position to a struct field.
type columnBinding struct {
	column int
	field  beanField
	set    fieldSetter
}

// beanMapping is the position → setter table of one session.
type beanMapping struct {
	binder    *beanBinder
	bindings  []columnBinding
	maxColumn int
}

// cachedFields is the cache entry for a struct type.
type cachedFields struct {
	fields []beanField
	err    error
}

// Global cache of parsed struct tags
var fieldCache sync.Map // map[reflect.Type]*cachedFields

var (
	timeType            = reflect.TypeOf(time.Time{})
	durationType        = reflect.TypeOf(time.Duration(0))
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// typeFields returns the tag metadata for structType, computing it once per type.
func typeFields(structType reflect.Type) ([]beanField, error) {
	if cached, ok := fieldCache.Load(structType); ok {
		c := cached.(*cachedFields)
		return c.fields, c.err
	}

	fields, err := computeFields(structType)
	fieldCache.Store(structType, &cachedFields{fields: fields, err: err})
	return fields, err
}

// computeFields reads the csv tags of every exported, non-embedded field.
//
// Tag format:
//
//	Field T `csv:"name"`                       // bind to column "name"
//	Field T `csv:"name,index=2"`               // bind to position 2
//	Field T `csv:",default=0"`                 // field name as column, "0" when empty
//	Field T `csv:"when,layout=2006-01-02"`     // time.Time layout
//	Field T `csv:"code,converter=hex"`         // converter from the registry
//	Field T `csv:"id,required"`                // empty value is an error
//	Field T `csv:"-"`                          // ignored
//
// Option values cannot contain commas.
func computeFields(structType reflect.Type) ([]beanField, error) {
	fields := make([]beanField, 0, structType.NumField())

	for i := 0; i < structType.NumField(); i++ {
		sf := structType.Field(i)

		// Skip unexported and embedded fields
		if sf.PkgPath != "" || sf.Anonymous {
			continue
		}

		tag := sf.Tag.Get("csv")
		if tag == "-" {
			continue
		}

		bf := beanField{
			index:  i,
			goName: sf.Name,
			name:   sf.Name,
			column: -1,
			typ:    sf.Type,
		}

		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			bf.name = parts[0]
		}
		for _, opt := range parts[1:] {
			key, value, hasValue := strings.Cut(opt, "=")
			switch {
			case key == "index" && hasValue:
				n, err := strconv.Atoi(value)
				if err != nil || n < 0 {
					return nil, fmt.Errorf("%w: %s.%s: bad index %q", ErrInvalidTag, structType.Name(), sf.Name, value)
				}
				bf.column = n
			case key == "default" && hasValue:
				bf.def, bf.hasDef = value, true
			case key == "layout" && hasValue:
				bf.layout = value
			case key == "converter" && hasValue:
				bf.converter = value
			case key == "required" && !hasValue:
				bf.required = true
			case key == "omitempty" && !hasValue:
				// writer-side option, accepted for compatibility
			default:
				return nil, fmt.Errorf("%w: %s.%s: unknown option %q", ErrInvalidTag, structType.Name(), sf.Name, opt)
			}
		}

		fields = append(fields, bf)
	}

	return fields, nil
}

// beanBinder turns rows into values of one struct type. It validates the
// type once and builds a beanMapping per session.
type beanBinder struct {
	structType reflect.Type
	pointer    bool // beans are *struct rather than struct
	fields     []beanField
	setters    []fieldSetter // parallel to fields
	opts       beanOptions
}

// newBeanBinder validates beanType (a struct or a pointer to a struct) and
// pre-computes a setter for every mapped field.
func newBeanBinder(beanType reflect.Type, opts beanOptions) (*beanBinder, error) {
	if beanType == nil {
		return nil, fmt.Errorf("%w: nil type", ErrUnsupportedBeanType)
	}

	b := &beanBinder{structType: beanType, opts: opts}
	if beanType.Kind() == reflect.Ptr {
		b.pointer = true
		b.structType = beanType.Elem()
	}
	if b.structType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBeanType, beanType)
	}

	fields, err := typeFields(b.structType)
	if err != nil {
		return nil, err
	}
	b.fields = fields
	b.setters = make([]fieldSetter, len(fields))
	for i, f := range fields {
		set, err := b.createSetter(f)
		if err != nil {
			return nil, err
		}
		b.setters[i] = set
	}
	return b, nil
}

// bind resolves which row position feeds which field.
//
// A field with an index= option is bound to that position. Otherwise, when
// headers are known, the field binds to the first header equal to its column
// name (case-insensitive, surrounding spaces ignored); without headers, fields bind to positions in
// declaration order.
func (b *beanBinder) bind(headers []string) *beanMapping {
	m := &beanMapping{binder: b, maxColumn: -1}

	headerIdx := make(map[string]int, len(headers))
	for i, h := range headers {
		key := headerKey(h)
		if _, dup := headerIdx[key]; !dup {
			headerIdx[key] = i
		}
	}

	for i, f := range b.fields {
		column := f.column
		if column < 0 {
			if len(headers) > 0 {
				idx, ok := headerIdx[headerKey(f.name)]
				if !ok {
					continue
				}
				column = idx
			} else {
				column = i
			}
		}
		m.bindings = append(m.bindings, columnBinding{column: column, field: f, set: b.setters[i]})
		if column > m.maxColumn {
			m.maxColumn = column
		}
	}
	return m
}

// headerKey normalizes a header or column name for matching.
func headerKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// convert materializes one bean from row. The result is a struct value, or
// a pointer to one when the binder was created for a pointer type.
func (m *beanMapping) convert(row []string, record int64, line int) (reflect.Value, error) {
	b := m.binder
	if b.opts.strict && len(row) <= m.maxColumn {
		return reflect.Value{}, &ConversionError{
			Record: record,
			Line:   line,
			Column: -1,
			Err:    fmt.Errorf("%w: got %d, need %d", ErrMissingField, len(row), m.maxColumn+1),
		}
	}

	ptr := reflect.New(b.structType)
	v := ptr.Elem()

	for _, binding := range m.bindings {
		value := ""
		if binding.column < len(row) {
			value = row[binding.column]
		}
		if IsNullValue(value, b.opts.nullValues) {
			value = ""
		}
		if value == "" && binding.field.hasDef {
			value = binding.field.def
		}

		var err error
		if value == "" && binding.field.required {
			err = ErrRequiredField
		} else {
			err = binding.set(v.Field(binding.field.index), value)
		}
		if err != nil {
			return reflect.Value{}, &ConversionError{
				Record: record,
				Line:   line,
				Column: binding.column,
				Field:  binding.field.goName,
				Value:  value,
				Err:    err,
			}
		}
	}

	if b.pointer {
		return ptr, nil
	}
	return v, nil
}

// converterFor returns the user converter for f, if any.
func (b *beanBinder) converterFor(f beanField) (Converter, error) {
	if conv, ok := b.opts.converters[f.goName]; ok {
		return conv, nil
	}
	if conv, ok := b.opts.converters[f.name]; ok {
		return conv, nil
	}
	if f.converter == "" {
		return nil, nil
	}
	registry := b.opts.registry
	if registry == nil {
		registry = NewConverterRegistry()
	}
	conv, ok := registry.Get(f.converter)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s: unknown converter %q", ErrInvalidTag, b.structType.Name(), f.goName, f.converter)
	}
	return conv, nil
}

// createSetter returns a pre-computed setter for the field.
// This avoids a type switch on every field set operation.
func (b *beanBinder) createSetter(f beanField) (fieldSetter, error) {
	conv, err := b.converterFor(f)
	if err != nil {
		return nil, err
	}
	if conv != nil {
		return converterSetter(conv), nil
	}
	set := setterForType(f.typ, f.layout)
	if set == nil {
		return nil, fmt.Errorf("%w: %s.%s has type %s", ErrUnsupportedFieldType, b.structType.Name(), f.goName, f.typ)
	}
	return set, nil
}

// converterSetter assigns the output of conv, converting it to the field type when needed.
func converterSetter(conv Converter) fieldSetter {
	return func(field reflect.Value, value string) error {
		out, err := conv.Convert(value)
		if err != nil {
			return err
		}
		if out == nil {
			field.Set(reflect.Zero(field.Type()))
			return nil
		}
		rv := reflect.ValueOf(out)
		switch {
		case rv.Type().AssignableTo(field.Type()):
			field.Set(rv)
		case rv.Type().ConvertibleTo(field.Type()):
			field.Set(rv.Convert(field.Type()))
		default:
			return fmt.Errorf("converter returned %s, not assignable to %s", rv.Type(), field.Type())
		}
		return nil
	}
}

// setterForType returns the built-in setter for t, or nil when t is unsupported.
func setterForType(t reflect.Type, layout string) fieldSetter {
	switch t {
	case timeType:
		return converterSetter(TimeConverter{Layout: layout})
	case durationType:
		return converterSetter(DurationConverter{})
	}

	if t.Kind() == reflect.Ptr {
		elemSet := setterForType(t.Elem(), layout)
		if elemSet == nil {
			return nil
		}
		return func(field reflect.Value, value string) error {
			if value == "" {
				field.Set(reflect.Zero(field.Type()))
				return nil
			}
			elem := reflect.New(field.Type().Elem())
			if err := elemSet(elem.Elem(), value); err != nil {
				return err
			}
			field.Set(elem)
			return nil
		}
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return func(field reflect.Value, value string) error {
			return field.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(value))
		}
	}

	switch t.Kind() {
	case reflect.String:
		return func(field reflect.Value, value string) error {
			field.SetString(value)
			return nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(field reflect.Value, value string) error {
			if value == "" {
				field.SetInt(0)
				return nil
			}
			i, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil {
				return err
			}
			if field.OverflowInt(i) {
				return fmt.Errorf("value %d overflows %s", i, field.Type())
			}
			field.SetInt(i)
			return nil
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(field reflect.Value, value string) error {
			if value == "" {
				field.SetUint(0)
				return nil
			}
			u, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
			if err != nil {
				return err
			}
			if field.OverflowUint(u) {
				return fmt.Errorf("value %d overflows %s", u, field.Type())
			}
			field.SetUint(u)
			return nil
		}

	case reflect.Float32, reflect.Float64:
		return func(field reflect.Value, value string) error {
			if value == "" {
				field.SetFloat(0)
				return nil
			}
			f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return err
			}
			if field.OverflowFloat(f) {
				return fmt.Errorf("value %v overflows %s", f, field.Type())
			}
			field.SetFloat(f)
			return nil
		}

	case reflect.Bool:
		conv := BoolConverter{}
		return func(field reflect.Value, value string) error {
			b, err := conv.Convert(value)
			if err != nil {
				return err
			}
			field.SetBool(b.(bool))
			return nil
		}
	}

	return nil
}

// clearFieldCache clears the struct tag cache.
func clearFieldCache() {
	fieldCache.Range(func(key, value interface{}) bool {
		fieldCache.Delete(key)
		return true
	})
}
