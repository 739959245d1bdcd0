package fieldexpr

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
)

// EncodeLiteral parses raw per the semantics of dt and serializes it
// little-endian to exactly dt.Width() bytes. field names the owning field for
// error messages.
func EncodeLiteral(dt DataType, field, raw string) ([]byte, error) {
	switch {
	case dt.IsSigned():
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, newValidationError(field, "invalid signed integer "+strconv.Quote(raw), err)
		}
		return encodeSigned(dt, v), nil
	case dt.IsUnsigned():
		v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, newValidationError(field, "invalid unsigned integer "+strconv.Quote(raw), err)
		}
		return encodeUnsigned(dt, v), nil
	case dt.IsFloat():
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, newValidationError(field, "invalid float "+strconv.Quote(raw), err)
		}
		return encodeFloat(dt, v), nil
	case dt.IsBool():
		v, err := parseBool(raw)
		if err != nil {
			return nil, newValidationError(field, "invalid bool "+strconv.Quote(raw), err)
		}
		return []byte{boolByte(v)}, nil
	default:
		if n, ok := dt.IsHex(); ok {
			b, err := DecodeHex(raw)
			if err != nil {
				return nil, newValidationError(field, "invalid hex literal "+strconv.Quote(raw), err)
			}
			if len(b) != n {
				return nil, newValidationError(field, "hex literal length mismatch: want "+strconv.Itoa(n)+" bytes, got "+strconv.Itoa(len(b)), nil)
			}
			return b, nil
		}
	}
	return nil, newValidationError(field, "unsupported data type", nil)
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, newParseError(raw, "not a recognized bool literal", nil)
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func encodeSigned(dt DataType, v int64) []byte {
	switch dt.Width() {
	case 1:
		return []byte{byte(int8(v))}
	case 2:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(int16(v)))
		return b
	case 4:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(int32(v)))
		return b
	default:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, uint64(v))
		return b
	}
}

func encodeUnsigned(dt DataType, v uint64) []byte {
	switch dt.Width() {
	case 1:
		return []byte{byte(v)}
	case 2:
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(v))
		return b
	case 4:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(v))
		return b
	default:
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, v)
		return b
	}
}

func encodeFloat(dt DataType, v float64) []byte {
	if dt.Width() == 4 {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
		return b
	}
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
	return b
}

// DecodeNumeric decodes bytes of the exact width dt requires back into a
// float64 carrier, used only by diagnostic printers — evaluation never calls
// this in the hot path.
func DecodeNumeric(dt DataType, b []byte) (float64, error) {
	switch {
	case dt.IsSigned():
		switch dt.Width() {
		case 1:
			return float64(int8(b[0])), nil
		case 2:
			return float64(int16(binary.LittleEndian.Uint16(b))), nil
		case 4:
			return float64(int32(binary.LittleEndian.Uint32(b))), nil
		default:
			return float64(int64(binary.LittleEndian.Uint64(b))), nil
		}
	case dt.IsUnsigned():
		switch dt.Width() {
		case 1:
			return float64(b[0]), nil
		case 2:
			return float64(binary.LittleEndian.Uint16(b)), nil
		case 4:
			return float64(binary.LittleEndian.Uint32(b)), nil
		default:
			return float64(binary.LittleEndian.Uint64(b)), nil
		}
	case dt.IsFloat():
		if dt.Width() == 4 {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))), nil
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
	}
	return 0, newValidationError("", "DecodeNumeric called on non-numeric DataType", nil)
}

// EncodeUintWidth encodes v little-endian in exactly width bytes, wrapping
// two's-complement style on overflow. Used by Rand* evaluation paths that draw
// from a wider family than the target DataType.
func EncodeUintWidth(v uint64, width int) []byte {
	b := make([]byte, width)
	for i := 0; i < width && i < 8; i++ {
		b[i] = byte(v >> (8 * uint(i)))
	}
	return b
}
