package csvgen

import (
	"strings"
	"testing"
)

func TestReadDatasetAndAssembleRow(t *testing.T) {
	csvText := "seq,value\n" +
		"u16,u8\n" +
		"100,\n" +
		",42\n" +
		"300,7\n"

	ds, err := ReadDataset(strings.NewReader(csvText))
	if err != nil {
		t.Fatalf("ReadDataset() error = %v", err)
	}
	if len(ds.Columns) != 2 || len(ds.Rows) != 3 {
		t.Fatalf("ReadDataset() = %d cols, %d rows, unexpected", len(ds.Columns), len(ds.Rows))
	}

	row0, err := ds.AssembleRow(0)
	if err != nil {
		t.Fatalf("AssembleRow(0) error = %v", err)
	}
	if len(row0) != 3 {
		t.Fatalf("AssembleRow(0) length = %d, want 3 (u16+u8)", len(row0))
	}
	// seq=100 little-endian u16, value cell empty -> falls back to zero (no expr)
	if row0[0] != 100 || row0[1] != 0 || row0[2] != 0 {
		t.Fatalf("AssembleRow(0) = %v, unexpected", row0)
	}

	row1, err := ds.AssembleRow(1)
	if err != nil {
		t.Fatalf("AssembleRow(1) error = %v", err)
	}
	if row1[2] != 42 {
		t.Fatalf("AssembleRow(1) value byte = %d, want 42", row1[2])
	}
}

func TestReadDatasetRejectsMismatchedHeaderLengths(t *testing.T) {
	csvText := "seq,value\nu16\n"
	if _, err := ReadDataset(strings.NewReader(csvText)); err == nil {
		t.Fatalf("ReadDataset() expected error for mismatched header lengths")
	}
}

func TestReadDatasetRejectsMismatchedRowLength(t *testing.T) {
	csvText := "seq,value\nu16,u8\n100\n"
	if _, err := ReadDataset(strings.NewReader(csvText)); err == nil {
		t.Fatalf("ReadDataset() expected error for a short data row")
	}
}

func TestAssembleRowOutOfRange(t *testing.T) {
	csvText := "seq\nu8\n1\n"
	ds, err := ReadDataset(strings.NewReader(csvText))
	if err != nil {
		t.Fatalf("ReadDataset() error = %v", err)
	}
	if _, err := ds.AssembleRow(5); err == nil {
		t.Fatalf("AssembleRow(5) expected out-of-range error")
	}
}

func TestAssembleRowCellNeverOverridesGeneratorExpression(t *testing.T) {
	csvText := "mark,tag\n" +
		"\"u8=loop(1,2,3)\",\"u8=switch(100,1:50)\"\n" +
		"9,9\n" +
		"9,9\n" +
		"9,9\n"

	ds, err := ReadDataset(strings.NewReader(csvText))
	if err != nil {
		t.Fatalf("ReadDataset() error = %v", err)
	}

	wantLoop := []byte{1, 2, 3}
	wantSwitch := []byte{50, 100, 100}
	for i := range ds.Rows {
		row, err := ds.AssembleRow(i)
		if err != nil {
			t.Fatalf("AssembleRow(%d) error = %v", i, err)
		}
		if row[0] != wantLoop[i] {
			t.Errorf("row %d loop byte = %d, want %d (cell must not override loop())", i, row[0], wantLoop[i])
		}
		if row[1] != wantSwitch[i] {
			t.Errorf("row %d switch byte = %d, want %d (cell must not override switch())", i, row[1], wantSwitch[i])
		}
	}
}

func TestAssembleRowCellOverridesLiteralDefault(t *testing.T) {
	csvText := "code,pad\nu8=7,u8\n9,1\n,1\n"

	ds, err := ReadDataset(strings.NewReader(csvText))
	if err != nil {
		t.Fatalf("ReadDataset() error = %v", err)
	}

	row0, err := ds.AssembleRow(0)
	if err != nil {
		t.Fatalf("AssembleRow(0) error = %v", err)
	}
	if row0[0] != 9 {
		t.Errorf("row 0 = %d, want 9 (non-empty cell overrides a literal default)", row0[0])
	}

	row1, err := ds.AssembleRow(1)
	if err != nil {
		t.Fatalf("AssembleRow(1) error = %v", err)
	}
	if row1[0] != 7 {
		t.Errorf("row 1 = %d, want 7 (empty cell falls back to the literal default)", row1[0])
	}
}
