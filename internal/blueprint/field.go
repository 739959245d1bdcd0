// Package blueprint describes UDP messages as ordered fields bound to the
// fieldexpr engine, and assembles their bytes for a given packet index.
package blueprint

import "github.com/banshee-data/udpgen/internal/fieldexpr"

// FieldDescriptor is a single named field within a MessageBlueprint. Field
// order within a MessageBlueprint defines byte order on the wire.
type FieldDescriptor struct {
	Name         string
	DataType     fieldexpr.DataType
	DefaultExpr  fieldexpr.Expr // nil when the field has no default expression
	Editable     bool
	CurrentValue string // user-supplied override; empty means "use the expression"
}

// TypeString renders the field's base type name (for example "u16" or
// "hex_4"); the default expression is not included.
func (f FieldDescriptor) TypeString() string {
	return f.DataType.String()
}
