// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package worksheet

import (
	"fmt"
	"strings"

	"github.com/UNO-SOFT/sheetxml"
	"github.com/xuri/excelize/v2"
)

// CellRange is a rectangle of cells, with zero-based inclusive bounds.
type CellRange struct {
	FirstRow, FirstCol, LastRow, LastCol int
}

// Cell returns the single-cell range at row, col.
func Cell(row, col int) CellRange { return CellRange{row, col, row, col} }

// Ref returns the A1-style reference of the range: "B3" for a single cell,
// "A1:C10" otherwise. Corners outside the sheet are written as R1C1-style
// "R0C5", which no consumer accepts as a cell.
func (r CellRange) Ref() string {
	first := cellName(r.FirstRow, r.FirstCol)
	if r.FirstRow == r.LastRow && r.FirstCol == r.LastCol {
		return first
	}
	return first + ":" + cellName(r.LastRow, r.LastCol)
}

func (r CellRange) String() string { return r.Ref() }

func (r CellRange) overlaps(o CellRange) bool {
	return r.FirstRow <= o.LastRow && o.FirstRow <= r.LastRow &&
		r.FirstCol <= o.LastCol && o.FirstCol <= r.LastCol
}

// normalize orders the corners and checks the bounds.
func (r CellRange) normalize() (CellRange, error) {
	if r.FirstRow > r.LastRow {
		r.FirstRow, r.LastRow = r.LastRow, r.FirstRow
	}
	if r.FirstCol > r.LastCol {
		r.FirstCol, r.LastCol = r.LastCol, r.FirstCol
	}
	if err := checkCell(r.FirstRow, r.FirstCol); err != nil {
		return r, err
	}
	return r, checkCell(r.LastRow, r.LastCol)
}

// ParseRange parses an A1-style reference such as "B2" or "$A$1:$D$10".
func ParseRange(ref string) (CellRange, error) {
	ref = strings.ReplaceAll(strings.TrimSpace(ref), "$", "")
	first, last, isRange := strings.Cut(ref, ":")
	if !isRange {
		last = first
	}
	c1, r1, err := excelize.CellNameToCoordinates(first)
	if err != nil {
		return CellRange{}, fmt.Errorf("%q: %w: %w", ref, sheetxml.ErrOutOfRange, err)
	}
	c2, r2, err := excelize.CellNameToCoordinates(last)
	if err != nil {
		return CellRange{}, fmt.Errorf("%q: %w: %w", ref, sheetxml.ErrOutOfRange, err)
	}
	return CellRange{r1 - 1, c1 - 1, r2 - 1, c2 - 1}.normalize()
}

// checkCell returns ErrOutOfRange for coordinates outside the sheet.
func checkCell(row, col int) error {
	if row < 0 || row >= sheetxml.MaxRows {
		return fmt.Errorf("row %d: %w", row, sheetxml.ErrOutOfRange)
	}
	if col < 0 || col >= sheetxml.MaxCols {
		return fmt.Errorf("column %d: %w", col, sheetxml.ErrOutOfRange)
	}
	return nil
}

// cellName returns the A1-style name of a zero-based coordinate.
func cellName(row, col int) string {
	if checkCell(row, col) == nil {
		if name, err := excelize.CoordinatesToCellName(col+1, row+1); err == nil {
			return name
		}
	}
	return fmt.Sprintf("R%dC%d", row+1, col+1)
}

// Dimension tracks the bounding range of the written cells.
// The zero value has seen no cells.
type Dimension struct {
	rowMin, rowMax, colMin, colMax int
	defined                        bool
}

// Observe extends the range with row, col.
func (d *Dimension) Observe(row, col int) error {
	if err := checkCell(row, col); err != nil {
		return err
	}
	if !d.defined {
		d.rowMin, d.rowMax, d.colMin, d.colMax = row, row, col, col
		d.defined = true
		return nil
	}
	d.rowMin, d.rowMax = min(d.rowMin, row), max(d.rowMax, row)
	d.colMin, d.colMax = min(d.colMin, col), max(d.colMax, col)
	return nil
}

// Range returns the bounding range, and false if no cell was observed.
func (d *Dimension) Range() (CellRange, bool) {
	if !d.defined {
		return CellRange{}, false
	}
	return CellRange{d.rowMin, d.colMin, d.rowMax, d.colMax}, true
}

// Ref returns the reference of the bounding range, "A1" if empty.
func (d *Dimension) Ref() string {
	r, ok := d.Range()
	if !ok {
		return "A1"
	}
	return r.Ref()
}

// Reset forgets every observed cell.
func (d *Dimension) Reset() { *d = Dimension{} }
