package fieldexpr

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// u32=1234 -> D2 04 00 00
func TestEvaluateU32Literal(t *testing.T) {
	dt, expr, err := Parse("u32=1234")
	require.NoError(t, err)
	got, err := Evaluate(expr, dt, "f", 0, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{0xD2, 0x04, 0x00, 0x00}, got)
}

// hex=0xFF widens to Hex(1), bytes [0xFF]
func TestEvaluateUnsizedHexLiteralWidens(t *testing.T) {
	dt, expr, err := Parse("hex=0xFF")
	require.NoError(t, err)
	n, ok := dt.IsHex()
	require.True(t, ok)
	require.Equal(t, 1, n)
	got, err := Evaluate(expr, dt, "f", 0, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF}, got)
}

// u8=loop(1,2,3) over indices 0..5 -> 01,02,03,01,02,03
func TestEvaluateLoopCycles(t *testing.T) {
	dt, expr, err := Parse("u8=loop(1,2,3)")
	require.NoError(t, err)
	want := []byte{1, 2, 3, 1, 2, 3}
	for i := 0; i < 6; i++ {
		got, err := Evaluate(expr, dt, "f", int64(i), 0)
		require.NoError(t, err)
		require.Equal(t, []byte{want[i]}, got)
	}
}

// u8=switch(100, -2:200, 3:150) with total_packets=10
func TestEvaluateSwitchRules(t *testing.T) {
	dt, expr, err := Parse("u8=switch(100,-2:200,3:150)")
	require.NoError(t, err)

	cases := []struct {
		idx  int64
		want byte
	}{
		{0, 100},
		{2, 150},
		{8, 200},
		{9, 100},
	}
	for _, c := range cases {
		got, err := Evaluate(expr, dt, "f", c.idx, 10)
		require.NoError(t, err)
		require.Equal(t, []byte{c.want}, got, "index %d", c.idx)
	}
}

// hex_2 with value override "0x1234" -> 12 34
func TestEncodeHexOverrideValue(t *testing.T) {
	dt, _, err := Parse("hex_2")
	require.NoError(t, err)
	got, err := EncodeLiteral(dt, "f", "0x1234")
	require.NoError(t, err)
	require.Equal(t, []byte{0x12, 0x34}, got)
}

// bool=true -> 01; bool=false -> 00
func TestEvaluateBoolLiteral(t *testing.T) {
	dt, expr, err := Parse("bool=true")
	require.NoError(t, err)
	got, err := Evaluate(expr, dt, "f", 0, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{1}, got)

	dt, expr, err = Parse("bool=false")
	require.NoError(t, err)
	got, err = Evaluate(expr, dt, "f", 0, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{0}, got)
}

// Encoded width always matches DataType width.
func TestEncodedWidthMatchesDataType(t *testing.T) {
	types := []DataType{I8, I16, I32, I64, U8, U16, U32, U64, F32, F64, Bool, Hex(3)}
	for _, dt := range types {
		b := ZeroValue(dt)
		if len(b) != dt.Width() {
			t.Fatalf("%v: width %d, got %d", dt, dt.Width(), len(b))
		}
	}
}

// Little-endian round trip for numeric types.
func TestNumericEncodeDecodeRoundTrip(t *testing.T) {
	dt, expr, err := Parse("i32=-42")
	require.NoError(t, err)
	b, err := Evaluate(expr, dt, "f", 0, 0)
	require.NoError(t, err)
	v, err := DecodeNumeric(dt, b)
	require.NoError(t, err)
	require.Equal(t, float64(-42), v)
}

// Loop periodicity: evaluate(k) == evaluate(k + len(items)).
func TestLoopPeriodicity(t *testing.T) {
	dt, expr, err := Parse("u8=loop(7,9,11)")
	require.NoError(t, err)
	for k := int64(0); k < 20; k++ {
		a, err := Evaluate(expr, dt, "f", k, 0)
		require.NoError(t, err)
		b, err := Evaluate(expr, dt, "f", k+3, 0)
		require.NoError(t, err)
		require.True(t, bytes.Equal(a, b), "index %d vs %d", k, k+3)
	}
}

// Rand samples stay within [min, max].
func TestRandSamplesStayInBounds(t *testing.T) {
	dt, expr, err := Parse("u16=rand(10,20)")
	require.NoError(t, err)
	for i := 0; i < 10000; i++ {
		b, err := Evaluate(expr, dt, "f", int64(i), 0)
		require.NoError(t, err)
		v, err := DecodeNumeric(dt, b)
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, float64(10))
		require.LessOrEqual(t, v, float64(20))
	}
}

// Same switch inputs always produce the same bytes.
func TestSwitchDeterminism(t *testing.T) {
	dt, expr, err := Parse("u8=switch(0,2-5:9)")
	require.NoError(t, err)
	first, err := Evaluate(expr, dt, "f", 3, 10)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		got, err := Evaluate(expr, dt, "f", 3, 10)
		require.NoError(t, err)
		require.Equal(t, first, got)
	}
}

func TestEvaluate_MismatchedRandFamily(t *testing.T) {
	dt, _, err := Parse("bool")
	require.NoError(t, err)
	_, err = Evaluate(RandInt{Min: 0, Max: 1}, dt, "f", 0, 0)
	require.Error(t, err)
}
