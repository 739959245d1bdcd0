package blueprint

import (
	"fmt"

	"github.com/banshee-data/udpgen/internal/fieldexpr"
)

// Assemble concatenates the per-field byte outputs for one packet of s, in
// declared field order, at the given zero-based packetIndex.
func Assemble(s *Schedulable, packetIndex uint64) ([]byte, error) {
	total := s.TotalPackets()
	out := make([]byte, 0, 32)
	for _, f := range s.Blueprint.Fields {
		b, err := assembleField(f, int64(packetIndex), total)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

func assembleField(f FieldDescriptor, packetIndex int64, total uint64) ([]byte, error) {
	overridable := f.Editable && f.CurrentValue != "" && (f.DefaultExpr == nil || !fieldexpr.IsFunctionExpr(f.DefaultExpr))
	if overridable {
		return fieldexpr.EncodeLiteral(f.DataType, f.Name, f.CurrentValue)
	}
	if f.DefaultExpr != nil {
		return fieldexpr.Evaluate(f.DefaultExpr, f.DataType, f.Name, packetIndex, total)
	}
	return fieldexpr.ZeroValue(f.DataType), nil
}
