package fieldexpr

// Expr is the closed set of default-value generators a FieldDescriptor can
// carry. The marker method seals the set to this package — a type-switch over
// Expr exhausts every variant without an external package being able to add a
// new one.
type Expr interface {
	exprMarker()
}

// Literal is a raw textual value interpreted per the field's DataType.
type Literal struct {
	Raw string
}

func (Literal) exprMarker() {}

// RandInt draws a uniform signed integer in the closed interval [Min, Max].
type RandInt struct {
	Min, Max int64
}

func (RandInt) exprMarker() {}

// RandUint draws a uniform unsigned integer in the closed interval [Min, Max].
type RandUint struct {
	Min, Max uint64
}

func (RandUint) exprMarker() {}

// RandFloat draws a uniform float64 in the closed interval [Min, Max].
type RandFloat struct {
	Min, Max float64
}

func (RandFloat) exprMarker() {}

// RandBool draws a uniform coin flip.
type RandBool struct{}

func (RandBool) exprMarker() {}

// RandHex draws a uniform unsigned integer in [Min, Max] and encodes it
// little-endian in exactly ByteSize bytes.
type RandHex struct {
	Min, Max uint64
	ByteSize int
}

func (RandHex) exprMarker() {}

// Loop cycles through Items by packet index, each item reinterpreted per the
// field's DataType at evaluation time.
type Loop struct {
	Items []string
}

func (Loop) exprMarker() {}

// Switch evaluates Rules in order against the current packet position,
// falling back to Default when nothing matches.
type Switch struct {
	Default string
	Rules   []SwitchRule
}

func (Switch) exprMarker() {}

// SwitchRule pairs a Condition with the literal value to use when it matches.
type SwitchRule struct {
	Cond  Condition
	Value string
}

// Condition is the closed set of Switch match predicates.
type Condition interface {
	condMarker()
	// Matches reports whether the 1-based packet position p matches this
	// condition, given the total packet count (0 meaning "unbounded").
	Matches(p int64, total uint64) bool
}

// Absolute matches a single 1-based packet position.
type Absolute struct {
	Pos int64
}

func (Absolute) condMarker() {}

func (a Absolute) Matches(p int64, _ uint64) bool {
	return p == a.Pos
}

// Relative matches a 1-based position counted backward from the last packet
// of a bounded message (Offset is negative; -1 is the last packet).
type Relative struct {
	Offset int64
}

func (Relative) condMarker() {}

func (r Relative) Matches(p int64, total uint64) bool {
	if total == 0 {
		return false
	}
	return p == int64(total)+r.Offset+1
}

// Range matches any 1-based position in [Start, End] inclusive.
type Range struct {
	Start, End int64
}

func (Range) condMarker() {}

func (rg Range) Matches(p int64, _ uint64) bool {
	return p >= rg.Start && p <= rg.End
}
