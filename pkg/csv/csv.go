// Package csv parses delimited text and turns its rows into Go values.
//
// The package has three layers:
//
//   - Format describes the dialect: the field delimiter, the quote character
//     and the character that escapes a quote inside a quoted field. The zero
//     value and NewFormat() describe RFC 4180 CSV (',' '"' '"').
//   - Parse and ParseReader build Shape's unified AST from a whole document;
//     Scanner reads records one at a time.
//   - Parser runs a parsing session that feeds every row to a RowProcessor.
//     BeanProcessor is a RowProcessor that converts rows into structs using
//     csv struct tags and hands each one to a callback.
//
// # Thread Safety
//
// The package level functions are safe for concurrent use: each call creates
// its own parser instance with no shared mutable state. A Parser may be
// shared, but sessions that share a RowProcessor must not run concurrently.
//
// # Example usage with Parse:
//
//	node, err := csv.Parse("name,age\nAlice,30\nBob,25")
//	if err != nil {
//	    // handle error
//	}
//	// node is now a *ast.ArrayDataNode representing the CSV data
//
// # Example usage with a BeanProcessor:
//
//	type Person struct {
//	    Name string `csv:"name"`
//	    Age  int    `csv:"age"`
//	}
//
//	bp, _ := csv.NewBeanProcessor(func(p Person, ctx csv.Context) error {
//	    fmt.Println(p.Name, p.Age)
//	    return nil
//	})
//	settings := csv.DefaultParserSettings()
//	settings.Format = csv.NewFormat().WithDelimiter(';')
//	settings.HeaderExtractionEnabled = true
//	settings.Processor = bp
//	err := csv.NewParser(settings).Parse(file)
package csv

import (
	"io"

	"github.com/shapestone/shape-core/pkg/ast"
	"github.com/shapestone/shape-core/pkg/tokenizer"

	"github.com/shapestone/shape-csv-beans/internal/parser"
)

// Parse parses CSV in the default format into an AST from a string.
//
// Returns an ast.ArrayDataNode representing the parsed CSV:
//   - *ast.ArrayDataNode for the file (array of records)
//   - Each record is an *ast.ArrayDataNode of fields
//   - Each field is an *ast.LiteralNode containing a string value
//
// The first record is not treated specially; headers, if any, are
// records[0]. For parsing large files or streaming data, use ParseReader or
// Scanner instead.
//
// Example:
//
//	node, err := csv.Parse("name,age\nAlice,30\nBob,25")
//	arrayNode := node.(*ast.ArrayDataNode)
//	records := arrayNode.Elements()
func Parse(input string) (ast.SchemaNode, error) {
	return ParseWithFormat(input, NewFormat())
}

// ParseWithFormat parses input in the given format into an AST.
//
//	node, err := csv.ParseWithFormat("a|'b|c'\n", csv.NewFormat().WithDelimiter('|').WithQuote('\''))
func ParseWithFormat(input string, format Format) (ast.SchemaNode, error) {
	p := parser.NewParserWithOptions(input, formatOptions(format))
	return p.Parse()
}

// ParseReader parses CSV in the default format into an AST from an io.Reader.
//
// The reader is consumed through a buffered stream, so the input is not
// loaded into memory before parsing starts. A leading UTF-8 byte order mark
// is removed.
//
// Example parsing from a file:
//
//	file, err := os.Open("data.csv")
//	if err != nil {
//	    // handle error
//	}
//	defer file.Close()
//
//	node, err := csv.ParseReader(file)
func ParseReader(reader io.Reader) (ast.SchemaNode, error) {
	return ParseReaderWithFormat(reader, NewFormat())
}

// ParseReaderWithFormat parses reader in the given format into an AST.
func ParseReaderWithFormat(reader io.Reader, format Format) (ast.SchemaNode, error) {
	stream := tokenizer.NewStreamFromReader(decodeReader(reader, nil))
	p := parser.NewParserFromStreamWithOptions(stream, formatOptions(format))
	return p.Parse()
}

// Validate checks if the input string is valid CSV in the default format.
//
// Returns nil if the input is valid CSV.
// Returns a *ParseError describing where and why the CSV is invalid.
//
//	if err := csv.Validate(input); err != nil {
//	    fmt.Println("Invalid CSV:", err)
//	}
//
// Valid CSV includes:
//   - Simple fields: name,age
//   - Quoted fields: "name","age"
//   - Empty fields: a,,c
//   - Escaped quotes: "field with ""quotes"""
//   - Newlines in quoted fields: "field\nwith\nnewlines"
func Validate(input string) error {
	return ValidateWithFormat(input, NewFormat())
}

// ValidateWithFormat checks if input is valid in the given format.
func ValidateWithFormat(input string, format Format) error {
	return validate(parser.NewParserWithOptions(input, formatOptions(format)))
}

// ValidateReader checks if the input from an io.Reader is valid CSV in the
// default format. Records are checked one at a time and discarded.
func ValidateReader(reader io.Reader) error {
	stream := tokenizer.NewStreamFromReader(decodeReader(reader, nil))
	return validate(parser.NewParserFromStreamWithOptions(stream, formatOptions(NewFormat())))
}

func validate(p *parser.Parser) error {
	for {
		_, err := p.NextRecord()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// formatOptions returns the default record parser options for format.
func formatOptions(format Format) parser.Options {
	opts := parser.DefaultOptions()
	opts.Delimiter = format.Delimiter()
	opts.Quote = format.Quote()
	opts.QuoteEscape = format.QuoteEscape()
	return opts
}
