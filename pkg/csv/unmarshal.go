package csv

import (
	"bytes"
	"errors"
	"reflect"
)

var stringsType = reflect.TypeOf([]string(nil))

// Unmarshal parses the CSV-encoded data and stores the result in the value pointed to by v.
//
// Unmarshal supports three target types:
//
// 1. [][]string - Returns raw CSV records, the header row included:
//
//	var records [][]string
//	err := csv.Unmarshal(data, &records)
//	// records[0] is the header row, records[1:] are data rows
//
// 2. []struct or []*struct - Maps CSV to struct fields using the first row as headers:
//
//	type Person struct {
//	    Name string `csv:"name"`
//	    Age  int    `csv:"age"`
//	}
//	var people []Person
//	err := csv.Unmarshal(data, &people)
//
// Unmarshal binds struct fields the same way a BeanProcessor does:
//   - A field with an index= option reads that column position
//   - Otherwise the tag name, or the Go field name, matches a header (case-insensitive)
//   - Fields without a matching header keep their zero value; extra columns are ignored
//
// Unmarshal will only set exported struct fields.
//
// The csv tag format is:
//
//	Field int       `csv:"column_name"`           // Map to CSV column "column_name"
//	Field int       `csv:"column_name,index=3"`   // Read column position 3
//	Field int       `csv:",default=10"`           // Use "10" when the value is empty
//	Field time.Time `csv:"day,layout=2006-01-02"` // Parse with a time layout
//	Field int       `csv:"code,converter=hex"`    // Use a registered converter
//	Field string    `csv:"id,required"`           // Fail on empty values
//	Field int       `csv:"-"`                     // Always ignore this field
//	Field int                                    // Use struct field name as column name
//
// Supported field types:
//   - string
//   - int, int8, int16, int32, int64
//   - uint, uint8, uint16, uint32, uint64
//   - float32, float64
//   - bool (accepts: true/false, 1/0, t/f, T/F, TRUE/FALSE, yes/no)
//   - time.Time and time.Duration
//   - types implementing encoding.TextUnmarshaler
//   - pointers to any of the above (nil for empty values)
func Unmarshal(data []byte, v interface{}) error {
	return UnmarshalWithFormat(data, v, NewFormat())
}

// UnmarshalWithFormat is like Unmarshal for data in the given format.
func UnmarshalWithFormat(data []byte, v interface{}, format Format, opts ...BeanOption) error {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || v == nil {
		return errors.New("csv: Unmarshal(nil)")
	}

	if rv.Kind() != reflect.Ptr {
		return errors.New("csv: Unmarshal(non-pointer " + rv.Type().String() + ")")
	}

	if rv.IsNil() {
		return errors.New("csv: Unmarshal(nil " + rv.Type().String() + ")")
	}

	elem := rv.Elem()
	if elem.Kind() != reflect.Slice {
		return errors.New("csv: Unmarshal expects pointer to slice, got " + elem.Type().String())
	}

	settings := DefaultParserSettings()
	settings.Format = format

	// Raw records
	if elem.Type().Elem() == stringsType {
		records, err := NewParser(settings).ParseAll(bytes.NewReader(data))
		if err != nil {
			return err
		}
		elem.Set(reflect.ValueOf(records).Convert(elem.Type()))
		return nil
	}

	var o beanOptions
	for _, opt := range opts {
		opt(&o)
	}
	binder, err := newBeanBinder(elem.Type().Elem(), o)
	if err != nil {
		if errors.Is(err, ErrUnsupportedBeanType) {
			return errors.New("csv: Unmarshal expects [][]string or slice of structs, got slice of " + elem.Type().Elem().String())
		}
		return err
	}

	sink := &sliceProcessor{binder: binder, slice: reflect.MakeSlice(elem.Type(), 0, 16)}
	settings.HeaderExtractionEnabled = true
	settings.Processor = sink
	if err := NewParser(settings).Parse(bytes.NewReader(data)); err != nil {
		return err
	}
	elem.Set(sink.slice)
	return nil
}

// sliceProcessor appends the bean of every row to a reflect slice.
type sliceProcessor struct {
	binder  *beanBinder
	mapping *beanMapping
	slice   reflect.Value
}

func (p *sliceProcessor) ProcessStarted(ctx Context) error {
	p.mapping = p.binder.bind(ctx.Headers())
	return nil
}

func (p *sliceProcessor) RowProcessed(row []string, ctx Context) error {
	v, err := p.mapping.convert(row, ctx.CurrentRecord(), ctx.CurrentLine())
	if err != nil {
		return err
	}
	p.slice = reflect.Append(p.slice, v)
	return nil
}

func (p *sliceProcessor) ProcessEnded(ctx Context) error {
	p.mapping = nil
	return nil
}

func (p *sliceProcessor) abortSession() {
	p.mapping = nil
}
