package csvgen

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/banshee-data/udpgen/internal/fieldexpr"
)

// Dataset is a parsed CSV packet dataset: a column schema plus every data
// row's raw cell text, read in full up front because expressions may
// reference the total row count before row 0 resolves.
type Dataset struct {
	Columns []ColumnSchema
	Rows    [][]string
}

// ReadDataset parses a CSV stream whose first two rows are the column-name
// header and the column-type header, tokenized with encoding/csv.
func ReadDataset(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	names, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csvgen: read name header: %w", err)
	}
	types, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csvgen: read type header: %w", err)
	}
	cols, err := ParseHeader(names, types)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvgen: read row %d: %w", len(rows), err)
		}
		if len(row) != len(cols) {
			return nil, fmt.Errorf("csvgen: row %d has %d cells, want %d", len(rows), len(row), len(cols))
		}
		rows = append(rows, row)
	}

	return &Dataset{Columns: cols, Rows: rows}, nil
}

// AssembleRow builds the packet bytes for data row rowIndex. Each column
// resolves exactly as a message field does, with packet_index=rowIndex and
// total_packets=len(Rows), except the override value comes from the row's
// cell in place of a field's current value: a non-empty cell replaces a
// literal (or absent) default, while generator expressions (rand/loop/
// switch) always evaluate regardless of the cell.
func (d *Dataset) AssembleRow(rowIndex int) ([]byte, error) {
	if rowIndex < 0 || rowIndex >= len(d.Rows) {
		return nil, fmt.Errorf("csvgen: row index %d out of range [0,%d)", rowIndex, len(d.Rows))
	}
	row := d.Rows[rowIndex]
	total := uint64(len(d.Rows))

	out := make([]byte, 0, 32)
	for i, col := range d.Columns {
		cell := row[i]
		var (
			b   []byte
			err error
		)
		switch {
		case cell != "" && !fieldexpr.IsFunctionExpr(col.Expr):
			b, err = fieldexpr.EncodeLiteral(col.Type, col.Name, cell)
		case col.Expr != nil:
			b, err = fieldexpr.Evaluate(col.Expr, col.Type, col.Name, int64(rowIndex), total)
		default:
			b = fieldexpr.ZeroValue(col.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("csvgen: row %d column %q: %w", rowIndex, col.Name, err)
		}
		out = append(out, b...)
	}
	return out, nil
}
