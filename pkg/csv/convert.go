package csv

import (
	"fmt"

	"github.com/shapestone/shape-core/pkg/ast"

	"github.com/shapestone/shape-csv-beans/internal/parser"
)

// NodeToRecords flattens a node built by Parse or ParseWithFormat into rows.
// The quoting of the source format is already resolved in the AST, so the
// rows hold the field values as delivered to a RowProcessor.
//
// A single record node becomes one row. Elements of a file node that are not
// records become empty rows. Any other node yields no rows.
//
//	node, _ := csv.ParseWithFormat("a;'b;c'\n", csv.NewFormat().WithDelimiter(';').WithQuote('\''))
//	rows := csv.NodeToRecords(node) // [][]string{{"a", "b;c"}}
func NodeToRecords(node ast.SchemaNode) [][]string {
	arr, ok := node.(*ast.ArrayDataNode)
	if !ok {
		return [][]string{}
	}
	if isRecord(arr) {
		return [][]string{parser.Fields(arr)}
	}

	elements := arr.Elements()
	rows := make([][]string, len(elements))
	for i, elem := range elements {
		if record, ok := elem.(*ast.ArrayDataNode); ok {
			rows[i] = parser.Fields(record)
		} else {
			rows[i] = []string{}
		}
	}
	return rows
}

// NodeToInterface converts a node to native Go values: a file to [][]string,
// a record to []string and a field to string. It returns nil for nodes that
// are none of these.
func NodeToInterface(node ast.SchemaNode) interface{} {
	switch n := node.(type) {
	case *ast.LiteralNode:
		if s, ok := n.Value().(string); ok {
			return s
		}
		return fmt.Sprint(n.Value())
	case *ast.ArrayDataNode:
		if isRecord(n) {
			return parser.Fields(n)
		}
		return NodeToRecords(n)
	}
	return nil
}

// isRecord reports whether arr holds fields rather than records.
func isRecord(arr *ast.ArrayDataNode) bool {
	elements := arr.Elements()
	if len(elements) == 0 {
		return false
	}
	_, ok := elements[0].(*ast.LiteralNode)
	return ok
}
