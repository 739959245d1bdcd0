package fieldexpr

// Evaluate computes the wire bytes for expr interpreted against dt, at the
// given zero-based packetIndex out of totalPackets (0 meaning unbounded).
func Evaluate(expr Expr, dt DataType, field string, packetIndex int64, totalPackets uint64) ([]byte, error) {
	switch e := expr.(type) {
	case Literal:
		return EncodeLiteral(dt, field, e.Raw)

	case RandInt:
		if !dt.IsSigned() {
			return nil, newValidationError(field, "rand int expression used on a non-signed-integer field", nil)
		}
		v := e.Min + int64(uniformRange(0, float64(e.Max-e.Min)+1))
		if v > e.Max {
			v = e.Max
		}
		return encodeSigned(dt, v), nil

	case RandUint:
		if !dt.IsUnsigned() {
			return nil, newValidationError(field, "rand uint expression used on a non-unsigned-integer field", nil)
		}
		v := e.Min + uint64(uniformRange(0, float64(e.Max-e.Min)+1))
		if v > e.Max {
			v = e.Max
		}
		return encodeUnsigned(dt, v), nil

	case RandFloat:
		if !dt.IsFloat() {
			return nil, newValidationError(field, "rand float expression used on a non-float field", nil)
		}
		v := uniformRange(e.Min, e.Max)
		return encodeFloat(dt, v), nil

	case RandBool:
		if !dt.IsBool() {
			return nil, newValidationError(field, "rand bool expression used on a non-bool field", nil)
		}
		return []byte{boolByte(uniform01() >= 0.5)}, nil

	case RandHex:
		n, ok := dt.IsHex()
		if !ok {
			return nil, newValidationError(field, "rand hex expression used on a non-hex field", nil)
		}
		if e.ByteSize != n {
			return nil, newValidationError(field, "rand hex byte_size does not match field width", nil)
		}
		var v uint64
		if e.Min == e.Max {
			v = e.Min
		} else {
			v = e.Min + uint64(uniformRange(0, float64(e.Max-e.Min)+1))
			if v > e.Max {
				v = e.Max
			}
		}
		return EncodeUintWidth(v, n), nil

	case Loop:
		idx := int(packetIndex % int64(len(e.Items)))
		if idx < 0 {
			idx += len(e.Items)
		}
		return EncodeLiteral(dt, field, e.Items[idx])

	case Switch:
		p := packetIndex + 1
		for _, rule := range e.Rules {
			if rule.Cond.Matches(p, totalPackets) {
				return EncodeLiteral(dt, field, rule.Value)
			}
		}
		return EncodeLiteral(dt, field, e.Default)

	default:
		return nil, newValidationError(field, "unrecognized expression variant", nil)
	}
}

// ZeroValue returns the canonical zero-value literal bytes for dt when a
// field has neither a default expression nor a current-value override.
func ZeroValue(dt DataType) []byte {
	if n, ok := dt.IsHex(); ok {
		return make([]byte, n)
	}
	switch {
	case dt.IsBool():
		return []byte{0}
	default:
		return make([]byte, dt.Width())
	}
}

// IsFunctionExpr reports whether expr is a generator (Rand*/Loop/Switch) as
// opposed to a plain Literal — PacketAssembler uses this to decide whether a
// non-empty current-value override may replace the expression outright.
func IsFunctionExpr(expr Expr) bool {
	switch expr.(type) {
	case RandInt, RandUint, RandFloat, RandBool, RandHex, Loop, Switch:
		return true
	default:
		return false
	}
}
