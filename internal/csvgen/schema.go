// Package csvgen emits packets row-by-row from a typed CSV dataset whose
// header row supplies {name,type} column schema identical in
// grammar to MessageBlueprint fields, so expressions and overrides resolve
// the same way row-by-row as they do for a scheduled message.
package csvgen

import (
	"fmt"

	"github.com/banshee-data/udpgen/internal/fieldexpr"
)

// ColumnSchema is one CSV column's name and field-expression type.
type ColumnSchema struct {
	Name string
	Type fieldexpr.DataType
	Expr fieldexpr.Expr // nil when the column has no default expression
}

// ParseHeader parses a CSV header row of "name" cells paired against a
// parallel row of "base[=expr]" type strings, in column order.
func ParseHeader(names, typeStrings []string) ([]ColumnSchema, error) {
	if len(names) != len(typeStrings) {
		return nil, fmt.Errorf("csvgen: header has %d names but %d types", len(names), len(typeStrings))
	}
	cols := make([]ColumnSchema, len(names))
	for i := range names {
		dt, expr, err := fieldexpr.Parse(typeStrings[i])
		if err != nil {
			return nil, fmt.Errorf("csvgen: column %q: %w", names[i], err)
		}
		cols[i] = ColumnSchema{Name: names[i], Type: dt, Expr: expr}
	}
	return cols, nil
}
