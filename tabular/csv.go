// Package tabular reads and writes the CSV tables exchanged between pipeline
// steps, normalising the zoo of NA spellings found in upstream data sets.
package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// naValues lists the recognised NA tokens. "NA" and "na" are deliberately
// excluded: they collide with the Namibia 2-letter country code.
var naValues = []string{"NULL", "", "N/A", "NAN", "NaN", "nan", "Nan", "n/a", "null"}

// naRep is the token written for missing values.
const naRep = "NULL"

var naSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(naValues))
	for _, v := range naValues {
		s[v] = struct{}{}
	}
	return s
}()

// IsNA reports whether a raw cell value counts as missing.
func IsNA(s string) bool {
	_, ok := naSet[s]
	return ok
}

// Table is a header-plus-rows view of a CSV file. Missing values are
// normalised to the empty string on read.
type Table struct {
	Header []string
	Rows   [][]string
}

// Empty reports whether the table carries neither columns nor rows.
func (t *Table) Empty() bool {
	return t == nil || (len(t.Header) == 0 && len(t.Rows) == 0)
}

// Column returns the index of the named column.
func (t *Table) Column(name string) (int, bool) {
	for i, h := range t.Header {
		if h == name {
			return i, true
		}
	}
	return 0, false
}

// Cell returns the value at (row, col). Ragged rows are admitted on read, so
// a column past the end of a short row reads as missing.
func (t *Table) Cell(row, col int) string {
	cells := t.Rows[row]
	if col < 0 || col >= len(cells) {
		return ""
	}
	return cells[col]
}

// Float parses the cell at (row, col). Missing values parse as ok == false.
func (t *Table) Float(row, col int) (float64, bool, error) {
	cell := t.Cell(row, col)
	if cell == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse %q at row %d col %d: %w", cell, row, col, err)
	}
	return v, true, nil
}

// ReadCSV reads a CSV file into a Table, mapping recognised NA tokens to the
// empty string. A zero-byte file yields an empty typed Table instead of an
// error so downstream steps receive a well-typed empty result.
func ReadCSV(path string) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return &Table{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	tbl := &Table{Header: records[0], Rows: records[1:]}
	for _, row := range tbl.Rows {
		for i, cell := range row {
			if IsNA(cell) {
				row[i] = ""
			}
		}
	}
	return tbl, nil
}

// WriteCSV writes a Table, representing missing values by the NA token. An
// empty table produces a zero-byte file so the orchestrating workflow still
// sees its expected output path.
func WriteCSV(t *Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if t.Empty() {
		return nil
	}

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		out := make([]string, len(row))
		for i, cell := range row {
			if cell == "" {
				out[i] = naRep
			} else {
				out[i] = cell
			}
		}
		if err := w.Write(out); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
