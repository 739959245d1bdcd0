package fieldexpr

import (
	"encoding/hex"
	"strings"
)

// DecodeHex parses a hex literal (optionally prefixed with 0x/0X) into bytes,
// left-padding a single odd nibble with a leading zero.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// EncodeHex renders bytes as a lowercase hex string with a 0x prefix.
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}
