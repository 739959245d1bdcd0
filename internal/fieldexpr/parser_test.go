package fieldexpr

import "testing"

func TestParse_Literal(t *testing.T) {
	dt, expr, err := Parse("u32=1234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dt.Width() != 4 || dt.IsSigned() {
		t.Fatalf("expected u32, got %v", dt)
	}
	lit, ok := expr.(Literal)
	if !ok || lit.Raw != "1234" {
		t.Fatalf("expected Literal(1234), got %#v", expr)
	}
}

func TestParse_UnsizedHexWidens(t *testing.T) {
	dt, expr, err := Parse("hex=0xFF")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := dt.IsHex()
	if !ok || n != 1 {
		t.Fatalf("expected Hex(1), got %v", dt)
	}
	if lit, ok := expr.(Literal); !ok || lit.Raw != "0xFF" {
		t.Fatalf("expected Literal(0xFF), got %#v", expr)
	}
}

func TestParse_Loop(t *testing.T) {
	_, expr, err := Parse("u8=loop(1,2,3)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loop, ok := expr.(Loop)
	if !ok || len(loop.Items) != 3 {
		t.Fatalf("expected 3-item loop, got %#v", expr)
	}
}

func TestParse_LoopTooFewItems(t *testing.T) {
	_, _, err := Parse("u8=loop(1)")
	if err == nil {
		t.Fatal("expected error for loop() with <2 items")
	}
}

func TestParse_Switch(t *testing.T) {
	_, expr, err := Parse("u8=switch(100,-2:200,3:150)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sw, ok := expr.(Switch)
	if !ok {
		t.Fatalf("expected Switch, got %#v", expr)
	}
	if sw.Default != "100" || len(sw.Rules) != 2 {
		t.Fatalf("unexpected switch shape: %#v", sw)
	}
	if _, ok := sw.Rules[0].Cond.(Relative); !ok {
		t.Fatalf("expected first rule to be Relative, got %#v", sw.Rules[0].Cond)
	}
	if _, ok := sw.Rules[1].Cond.(Absolute); !ok {
		t.Fatalf("expected second rule to be Absolute, got %#v", sw.Rules[1].Cond)
	}
}

func TestParse_SwitchRange(t *testing.T) {
	_, expr, err := Parse("u8=switch(0,2-5:1)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sw := expr.(Switch)
	rg, ok := sw.Rules[0].Cond.(Range)
	if !ok || rg.Start != 2 || rg.End != 5 {
		t.Fatalf("expected Range(2,5), got %#v", sw.Rules[0].Cond)
	}
}

func TestParse_RandBounds(t *testing.T) {
	_, expr, err := Parse("u16=rand(10,20)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ru, ok := expr.(RandUint)
	if !ok || ru.Min != 10 || ru.Max != 20 {
		t.Fatalf("unexpected RandUint: %#v", expr)
	}
}

func TestParse_RandInvertedBounds(t *testing.T) {
	_, _, err := Parse("u16=rand(20,10)")
	if err == nil {
		t.Fatal("expected error for min > max")
	}
}

func TestParse_UnknownDataType(t *testing.T) {
	_, _, err := Parse("nope=1")
	if err == nil {
		t.Fatal("expected ParseError for unrecognized data type")
	}
	var pe *ParseError
	if !asParseError(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
}

func asParseError(err error, target **ParseError) bool {
	pe, ok := err.(*ParseError)
	if ok {
		*target = pe
	}
	return ok
}
