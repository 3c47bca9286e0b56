// Package csv provides type converters for field values.
package csv

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Converter transforms field text into a typed Go value.
//
// Converters override the built-in coercion for a struct field, either by
// field name (WithConverter) or by name through a ConverterRegistry and the
// `converter=` tag option. The returned value must be assignable or
// convertible to the field's type.
type Converter interface {
	Convert(value string) (interface{}, error)
}

// ConverterFunc is a function adapter for the Converter interface.
type ConverterFunc func(string) (interface{}, error)

// Convert implements Converter.
func (f ConverterFunc) Convert(value string) (interface{}, error) {
	return f(value)
}

// IntConverter converts string values to int64.
type IntConverter struct {
	// Base is the numeric base for parsing (default: 10)
	Base int
}

// Convert implements Converter for IntConverter.
func (c IntConverter) Convert(value string) (interface{}, error) {
	if value == "" {
		return int64(0), nil
	}
	base := c.Base
	if base == 0 {
		base = 10
	}
	return strconv.ParseInt(strings.TrimSpace(value), base, 64)
}

// FloatConverter converts string values to float64.
type FloatConverter struct{}

// Convert implements Converter for FloatConverter.
func (c FloatConverter) Convert(value string) (interface{}, error) {
	if value == "" {
		return float64(0), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

// BoolConverter converts string values to bool.
// Recognizes: true/false, 1/0, yes/no, y/n, on/off, t/f (case-insensitive)
type BoolConverter struct{}

// Convert implements Converter for BoolConverter.
func (c BoolConverter) Convert(value string) (interface{}, error) {
	if value == "" {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, nil
	case "false", "0", "no", "n", "off", "f":
		return false, nil
	default:
		return false, fmt.Errorf("cannot convert %q to bool", value)
	}
}

// TimeConverter converts string values to time.Time.
type TimeConverter struct {
	// Layout is the time layout (default: time.RFC3339)
	Layout string
	// Location is the timezone for values without one (default: UTC)
	Location *time.Location
}

// Convert implements Converter for TimeConverter.
func (c TimeConverter) Convert(value string) (interface{}, error) {
	if value == "" {
		return time.Time{}, nil
	}
	layout := c.Layout
	if layout == "" {
		layout = time.RFC3339
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(layout, strings.TrimSpace(value), loc)
}

// DurationConverter converts values such as "1h30m" to time.Duration.
type DurationConverter struct{}

// Convert implements Converter for DurationConverter.
func (c DurationConverter) Convert(value string) (interface{}, error) {
	if value == "" {
		return time.Duration(0), nil
	}
	return time.ParseDuration(strings.TrimSpace(value))
}

// ConverterRegistry manages named converters.
type ConverterRegistry struct {
	converters map[string]Converter
}

// NewConverterRegistry creates a registry holding the built-in converters
// "int", "hex", "float", "bool", "date", "time", "datetime" and "duration".
func NewConverterRegistry() *ConverterRegistry {
	r := &ConverterRegistry{
		converters: make(map[string]Converter),
	}
	r.Register("int", IntConverter{})
	r.Register("hex", IntConverter{Base: 16})
	r.Register("float", FloatConverter{})
	r.Register("bool", BoolConverter{})
	r.Register("date", TimeConverter{Layout: "2006-01-02"})
	r.Register("time", TimeConverter{Layout: "15:04:05"})
	r.Register("datetime", TimeConverter{Layout: "2006-01-02 15:04:05"})
	r.Register("duration", DurationConverter{})
	return r
}

// Register adds a converter to the registry.
func (r *ConverterRegistry) Register(name string, conv Converter) {
	r.converters[name] = conv
}

// Get retrieves a converter by name.
func (r *ConverterRegistry) Get(name string) (Converter, bool) {
	conv, ok := r.converters[name]
	return conv, ok
}

// DefaultNullValues is a list of values commonly used to mean "no value".
var DefaultNullValues = []string{"", "NULL", "null", "nil", "N/A", "n/a", "NA", "na", "-"}

// IsNullValue checks if a value should be treated as null.
func IsNullValue(value string, nullValues []string) bool {
	for _, nv := range nullValues {
		if value == nv {
			return true
		}
	}
	return false
}
