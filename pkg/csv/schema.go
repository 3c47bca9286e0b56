package csv

import (
	"errors"
	"fmt"
	"reflect"
	"time"
	"unicode/utf8"
)

// ErrSchema is wrapped by every *ValidationError.
var ErrSchema = errors.New("csv: schema violation")

// ColumnType represents the expected type of a column.
type ColumnType string

const (
	ColumnTypeString   ColumnType = "string"
	ColumnTypeInt      ColumnType = "int"
	ColumnTypeFloat    ColumnType = "float"
	ColumnTypeBool     ColumnType = "bool"
	ColumnTypeDate     ColumnType = "date"
	ColumnTypeTime     ColumnType = "time"
	ColumnTypeDateTime ColumnType = "datetime"
	ColumnTypeDuration ColumnType = "duration"
	ColumnTypeAny      ColumnType = "any"
)

// ColumnDefinition defines the rules for a single column.
type ColumnDefinition struct {
	// Name is the column header name.
	Name string
	// Type is the expected data type; its converter must accept the value.
	Type ColumnType
	// Required rejects empty values.
	Required bool
	// AllowedValues restricts values to a specific set.
	AllowedValues []string
	// MinLength is the minimum length in characters (0 = no minimum).
	MinLength int
	// MaxLength is the maximum length in characters (0 = no maximum).
	MaxLength int
	// Validator is an optional custom check.
	Validator func(value string) error
}

// Schema describes the columns a session must carry.
type Schema struct {
	Columns []ColumnDefinition
	// AllowExtraColumns permits header columns not defined in the schema.
	AllowExtraColumns bool
	// AllowMissingColumns permits schema columns absent from the header.
	AllowMissingColumns bool
}

// NewSchema creates a new empty schema.
func NewSchema() *Schema {
	return &Schema{}
}

// AddColumn adds a column definition to the schema.
func (s *Schema) AddColumn(col ColumnDefinition) *Schema {
	s.Columns = append(s.Columns, col)
	return s
}

// AddSimpleColumn adds a column with just name and type.
func (s *Schema) AddSimpleColumn(name string, colType ColumnType) *Schema {
	return s.AddColumn(ColumnDefinition{Name: name, Type: colType})
}

// AddRequiredColumn adds a required column with name and type.
func (s *Schema) AddRequiredColumn(name string, colType ColumnType) *Schema {
	return s.AddColumn(ColumnDefinition{Name: name, Type: colType, Required: true})
}

// ValidationError reports a header or value that breaks the schema.
type ValidationError struct {
	// Record is the 1-based data record, or 0 for a header problem.
	Record int64
	// Line is the line on which the record started, or 0 for a header problem.
	Line int
	// Column is the column name.
	Column string
	// Value is the offending value.
	Value string
	// Message describes the violation.
	Message string
	// Err is the error returned by a custom Validator, if any.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Record == 0 {
		return fmt.Sprintf("csv: header column %q: %s", e.Column, e.Message)
	}
	return fmt.Sprintf("csv: record %d (line %d), column %q: %s (value: %q)", e.Record, e.Line, e.Column, e.Message, e.Value)
}

// Unwrap returns ErrSchema and, for a failed custom Validator, its error.
func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSchema, e.Err}
	}
	return []error{ErrSchema}
}

// SchemaFromStruct derives a schema from the csv tags of a struct (or
// pointer to struct) value. Fields tagged required become required columns.
func SchemaFromStruct(v interface{}) (*Schema, error) {
	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: SchemaFromStruct(%T)", ErrUnsupportedBeanType, v)
	}

	fields, err := typeFields(t)
	if err != nil {
		return nil, err
	}

	schema := &Schema{AllowExtraColumns: true}
	for _, f := range fields {
		schema.AddColumn(ColumnDefinition{
			Name:     f.name,
			Type:     goTypeToColumnType(f.typ),
			Required: f.required && !f.hasDef,
		})
	}
	return schema, nil
}

// goTypeToColumnType maps Go types to column types.
func goTypeToColumnType(t reflect.Type) ColumnType {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t {
	case timeType:
		return ColumnTypeAny // layout is per field
	case durationType:
		return ColumnTypeDuration
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ColumnTypeInt
	case reflect.Float32, reflect.Float64:
		return ColumnTypeFloat
	case reflect.Bool:
		return ColumnTypeBool
	case reflect.String:
		return ColumnTypeString
	}
	return ColumnTypeAny
}

// columnConverters checks typed columns. Date and time columns use the
// registry layouts.
var columnConverters = map[ColumnType]Converter{
	ColumnTypeInt:      IntConverter{},
	ColumnTypeFloat:    FloatConverter{},
	ColumnTypeBool:     BoolConverter{},
	ColumnTypeDate:     TimeConverter{Layout: "2006-01-02"},
	ColumnTypeTime:     TimeConverter{Layout: "15:04:05"},
	ColumnTypeDateTime: TimeConverter{Layout: time.DateTime},
	ColumnTypeDuration: DurationConverter{},
}

// ValidatingProcessor checks every row against a Schema before passing it to
// the next RowProcessor. Headers are checked in ProcessStarted; a violation
// there aborts the session. A row violation is returned from RowProcessed as
// a *ValidationError, so a ProcessorErrorHandler can skip the row.
//
//	schema, _ := csv.SchemaFromStruct(Person{})
//	settings.Processor = csv.NewValidatingProcessor(schema, beans)
type ValidatingProcessor struct {
	schema  *Schema
	next    RowProcessor
	columns []int // position of each schema column in the row, -1 if absent
}

// NewValidatingProcessor wraps next with schema validation.
func NewValidatingProcessor(schema *Schema, next RowProcessor) *ValidatingProcessor {
	return &ValidatingProcessor{schema: schema, next: next}
}

// ProcessStarted validates the session headers and starts next.
func (v *ValidatingProcessor) ProcessStarted(ctx Context) error {
	headers := ctx.Headers()
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	v.columns = make([]int, len(v.schema.Columns))
	known := make(map[string]bool, len(v.schema.Columns))
	for i, col := range v.schema.Columns {
		known[col.Name] = true
		pos, ok := index[col.Name]
		switch {
		case ok:
			v.columns[i] = pos
		case headers == nil:
			// Without headers, columns are positional
			v.columns[i] = i
		case v.schema.AllowMissingColumns:
			v.columns[i] = -1
		default:
			return &ValidationError{Column: col.Name, Message: "required column not found in header"}
		}
	}

	if !v.schema.AllowExtraColumns {
		for _, h := range headers {
			if !known[h] {
				return &ValidationError{Column: h, Message: "unexpected column not in schema"}
			}
		}
	}

	return v.next.ProcessStarted(ctx)
}

// RowProcessed validates row and forwards it.
func (v *ValidatingProcessor) RowProcessed(row []string, ctx Context) error {
	if v.columns == nil {
		return ErrProcessorNotStarted
	}
	for i, col := range v.schema.Columns {
		var value string
		if pos := v.columns[i]; pos >= 0 && pos < len(row) {
			value = row[pos]
		}
		if msg, cause := checkValue(col, value); msg != "" {
			return &ValidationError{
				Record:  ctx.CurrentRecord(),
				Line:    ctx.CurrentLine(),
				Column:  col.Name,
				Value:   value,
				Message: msg,
				Err:     cause,
			}
		}
	}
	return v.next.RowProcessed(row, ctx)
}

// ProcessEnded ends the session of next.
func (v *ValidatingProcessor) ProcessEnded(ctx Context) error {
	v.columns = nil
	return v.next.ProcessEnded(ctx)
}

func (v *ValidatingProcessor) abortSession() {
	v.columns = nil
	abortSession(v.next)
}

// checkValue returns the first violation of col by value, or "". The error
// is set when a custom Validator failed.
func checkValue(col ColumnDefinition, value string) (string, error) {
	if value == "" {
		if col.Required {
			return "required field is empty", nil
		}
		return "", nil
	}

	if conv, ok := columnConverters[col.Type]; ok {
		if _, err := conv.Convert(value); err != nil {
			return fmt.Sprintf("invalid %s", col.Type), nil
		}
	}

	if len(col.AllowedValues) > 0 {
		found := false
		for _, allowed := range col.AllowedValues {
			if value == allowed {
				found = true
				break
			}
		}
		if !found {
			return fmt.Sprintf("value not in allowed set: %v", col.AllowedValues), nil
		}
	}

	n := utf8.RuneCountInString(value)
	if col.MinLength > 0 && n < col.MinLength {
		return fmt.Sprintf("value length %d is less than minimum %d", n, col.MinLength), nil
	}
	if col.MaxLength > 0 && n > col.MaxLength {
		return fmt.Sprintf("value length %d exceeds maximum %d", n, col.MaxLength), nil
	}

	if col.Validator != nil {
		if err := col.Validator(value); err != nil {
			return err.Error(), err
		}
	}
	return "", nil
}
