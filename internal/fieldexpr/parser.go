package fieldexpr

import (
	"strconv"
	"strings"
)

// Parse parses a type-string of the form "base[=expr]" into a DataType and an
// optional Expr. It never panics; any malformed input yields a *ParseError.
func Parse(typeString string) (DataType, Expr, error) {
	left, right, hasExpr := splitOnce(typeString, '=')

	dt, err := parseDataType(left)
	if err != nil {
		return DataType{}, nil, err
	}

	var expr Expr
	if hasExpr {
		expr, err = parseExpr(dt, right)
		if err != nil {
			return DataType{}, nil, err
		}
	}

	// The unsized "hex" short form retroactively widens to the literal's
	// decoded byte length — this is the only place an expression changes its
	// own field's DataType.
	if n, ok := dt.IsHex(); ok && n == 1 && wasUnsizedHex(left) {
		if lit, ok := expr.(Literal); ok {
			if b, err := DecodeHex(lit.Raw); err == nil {
				dt = Hex(len(b))
			}
		}
	}

	return dt, expr, nil
}

func wasUnsizedHex(left string) bool {
	return strings.EqualFold(strings.TrimSpace(left), "hex")
}

func splitOnce(s string, sep byte) (left, right string, found bool) {
	idx := strings.IndexByte(s, sep)
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+1:], true
}

func parseDataType(tag string) (DataType, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	switch tag {
	case "i8":
		return I8, nil
	case "i16":
		return I16, nil
	case "i32":
		return I32, nil
	case "i64":
		return I64, nil
	case "u8":
		return U8, nil
	case "u16":
		return U16, nil
	case "u32":
		return U32, nil
	case "u64":
		return U64, nil
	case "f32":
		return F32, nil
	case "f64":
		return F64, nil
	case "bool":
		return Bool, nil
	case "hex":
		return Hex(1), nil
	}
	if strings.HasPrefix(tag, "hex_") {
		n, err := strconv.Atoi(tag[len("hex_"):])
		if err != nil || n < 1 {
			return DataType{}, newParseError(tag, "invalid hex width", err)
		}
		return Hex(n), nil
	}
	return DataType{}, newParseError(tag, "unrecognized data type tag", nil)
}

func parseExpr(dt DataType, raw string) (Expr, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "rand(") && strings.HasSuffix(raw, ")"):
		return parseRand(dt, raw[len("rand("):len(raw)-1])
	case strings.HasPrefix(raw, "loop(") && strings.HasSuffix(raw, ")"):
		return parseLoop(raw[len("loop("):len(raw)-1])
	case strings.HasPrefix(raw, "switch(") && strings.HasSuffix(raw, ")"):
		return parseSwitch(raw[len("switch("):len(raw)-1])
	default:
		return Literal{Raw: raw}, nil
	}
}

func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func parseRand(dt DataType, args string) (Expr, error) {
	parts := splitArgs(args)
	switch {
	case dt.IsBool():
		if len(parts) != 0 {
			return nil, newParseError(args, "rand() for bool takes no arguments", nil)
		}
		return RandBool{}, nil
	case dt.IsSigned():
		if len(parts) != 2 {
			return nil, newParseError(args, "rand() for signed integer takes exactly 2 arguments", nil)
		}
		lo, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, newParseError(parts[0], "invalid rand() min", err)
		}
		hi, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, newParseError(parts[1], "invalid rand() max", err)
		}
		if lo > hi {
			return nil, newParseError(args, "rand() min must not exceed max", nil)
		}
		return RandInt{Min: lo, Max: hi}, nil
	case dt.IsUnsigned():
		if len(parts) != 2 {
			return nil, newParseError(args, "rand() for unsigned integer takes exactly 2 arguments", nil)
		}
		lo, err := strconv.ParseUint(parts[0], 10, 64)
		if err != nil {
			return nil, newParseError(parts[0], "invalid rand() min", err)
		}
		hi, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return nil, newParseError(parts[1], "invalid rand() max", err)
		}
		if lo > hi {
			return nil, newParseError(args, "rand() min must not exceed max", nil)
		}
		return RandUint{Min: lo, Max: hi}, nil
	case dt.IsFloat():
		if len(parts) != 2 {
			return nil, newParseError(args, "rand() for float takes exactly 2 arguments", nil)
		}
		lo, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, newParseError(parts[0], "invalid rand() min", err)
		}
		hi, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, newParseError(parts[1], "invalid rand() max", err)
		}
		if lo > hi {
			return nil, newParseError(args, "rand() min must not exceed max", nil)
		}
		return RandFloat{Min: lo, Max: hi}, nil
	default:
		if n, ok := dt.IsHex(); ok {
			if len(parts) != 2 {
				return nil, newParseError(args, "rand() for hex takes exactly 2 arguments", nil)
			}
			lo, err := parseHexNumeral(parts[0])
			if err != nil {
				return nil, newParseError(parts[0], "invalid rand() hex min", err)
			}
			hi, err := parseHexNumeral(parts[1])
			if err != nil {
				return nil, newParseError(parts[1], "invalid rand() hex max", err)
			}
			if lo > hi {
				return nil, newParseError(args, "rand() min must not exceed max", nil)
			}
			if n < 16 {
				limit := uint64(1)<<(8*uint(n)) - 1
				if hi > limit {
					return nil, newParseError(args, "rand() max exceeds hex byte_size capacity", nil)
				}
			}
			return RandHex{Min: lo, Max: hi, ByteSize: n}, nil
		}
	}
	return nil, newParseError(args, "rand() not supported for this data type", nil)
}

func parseHexNumeral(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	return strconv.ParseUint(s, 16, 64)
}

func parseLoop(args string) (Expr, error) {
	var items []string
	for _, p := range strings.Split(args, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		items = append(items, p)
	}
	if len(items) < 2 {
		return nil, newParseError(args, "loop() requires at least 2 items", nil)
	}
	return Loop{Items: items}, nil
}

func parseSwitch(args string) (Expr, error) {
	parts := splitTopLevelArgs(args)
	if len(parts) < 2 {
		return nil, newParseError(args, "switch() requires a default and at least one rule", nil)
	}
	def := strings.TrimSpace(parts[0])
	rules := make([]SwitchRule, 0, len(parts)-1)
	for _, rulePart := range parts[1:] {
		cond, value, err := parseSwitchRule(rulePart)
		if err != nil {
			return nil, err
		}
		rules = append(rules, SwitchRule{Cond: cond, Value: value})
	}
	return Switch{Default: def, Rules: rules}, nil
}

// splitTopLevelArgs splits on commas that separate switch() arguments; each
// rule itself contains a ":" so a plain strings.Split on "," is sufficient
// because conditions and values never contain a comma.
func splitTopLevelArgs(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func parseSwitchRule(rule string) (Condition, string, error) {
	idx := strings.IndexByte(rule, ':')
	if idx < 0 {
		return nil, "", newParseError(rule, "switch() rule missing ':' separator", nil)
	}
	condStr := strings.TrimSpace(rule[:idx])
	value := strings.TrimSpace(rule[idx+1:])

	cond, err := parseCondition(condStr)
	if err != nil {
		return nil, "", err
	}
	return cond, value, nil
}

func parseCondition(s string) (Condition, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		switch {
		case n > 0:
			return Absolute{Pos: n}, nil
		case n < 0:
			return Relative{Offset: n}, nil
		default:
			return nil, newParseError(s, "switch() condition 0 is not valid (positions are 1-based)", nil)
		}
	}
	// Range form "start-end"; the dash must not be at offset 0 so we don't
	// consume a leading minus sign belonging to a signed integer.
	if dash := strings.IndexByte(s, '-'); dash > 0 {
		startStr, endStr := s[:dash], s[dash+1:]
		start, err1 := strconv.ParseInt(startStr, 10, 64)
		end, err2 := strconv.ParseInt(endStr, 10, 64)
		if err1 == nil && err2 == nil && start >= 1 && end >= start {
			return Range{Start: start, End: end}, nil
		}
	}
	return nil, newParseError(s, "invalid switch() condition", nil)
}
