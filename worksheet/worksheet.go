// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package worksheet holds the settings of one worksheet and serializes
// them as a SpreadsheetML worksheet part.
//
// A Worksheet is built once per sheet, configured through its setters,
// then handed to an Assembler. Setters validate immediately; assembly only
// reads the Worksheet, so serializing the same Worksheet twice yields
// identical bytes.
//
// A Worksheet is not safe for concurrent use. Separate worksheets may be
// serialized concurrently, each with its own Emitter.
package worksheet

import (
	"fmt"
	"math"
	"strings"

	"github.com/UNO-SOFT/sheetxml"
)

// SchemaVersion selects the namespaces declared on the root element.
type SchemaVersion uint8

const (
	// SchemaBase is the Excel 2007 schema.
	SchemaBase SchemaVersion = iota
	// SchemaExtended adds the Excel 2010 x14ac extension, marked ignorable.
	SchemaExtended
)

func (v SchemaVersion) String() string {
	if v == SchemaExtended {
		return "extended"
	}
	return "base"
}

// View is the window view of the sheet.
type View uint8

const (
	ViewNormal View = iota
	ViewPageLayout
	ViewPageBreakPreview
)

// SheetData is the externally owned cell data, written inside <sheetData>.
type SheetData interface {
	// HasRows reports whether WriteRows writes anything.
	HasRows() bool
	// WriteRows writes the <row> elements, in ascending row order.
	WriteRows(sheetxml.Emitter) error
}

const (
	defaultZoom      = 100
	defaultRowHeight = 15
)

// Worksheet is the state of one worksheet.
type Worksheet struct {
	schema SchemaVersion
	dim    Dimension
	data   SheetData

	selected, hidden, active bool

	tabColor         string
	zoom             int
	view             View
	rightToLeft      bool
	hideGridlines    bool
	hideZeros        bool
	pane             *pane
	selection        *selection
	defaultRowHeight float64
	hideUnusedRows   bool

	cols            map[int]column
	rowOutlineLevel uint8
	colOutlineLevel uint8
	outline         outlineSettings

	protection *protection

	autoFilter  *CellRange
	merges      []CellRange
	condFormats []condFormatGroup
	cfPriority  int
	validations []validation
	hyperlinks  []hyperlink
	rels        []Relationship
	drawingRel  string
	tableRels   []string

	print     printOptions
	margins   Margins
	page      pageSetup
	header    string
	footer    string
	rowBreaks []int
	colBreaks []int
}

// New returns a Worksheet with the schema defaults. It is selected,
// as a lone sheet of a workbook is.
func New() *Worksheet {
	return &Worksheet{
		selected:         true,
		zoom:             defaultZoom,
		defaultRowHeight: defaultRowHeight,
		margins:          DefaultMargins(),
		page:             pageSetup{scale: 100, fitWidth: 1, fitHeight: 1},
		outline:          outlineSettings{visible: true, below: true, right: true},
	}
}

// SetSchema sets the schema version.
func (ws *Worksheet) SetSchema(v SchemaVersion) error {
	if v > SchemaExtended {
		return fmt.Errorf("schema version %d: %w", v, sheetxml.ErrInvalidConfiguration)
	}
	ws.schema = v
	return nil
}

// Schema returns the schema version.
func (ws *Worksheet) Schema() SchemaVersion { return ws.schema }

// SetSheetData sets the cell data collaborator; nil means an empty sheetData.
func (ws *Worksheet) SetSheetData(data SheetData) { ws.data = data }

// ObserveCell records a written cell coordinate in the dimension.
// It is called by the cell writer for every cell it writes.
func (ws *Worksheet) ObserveCell(row, col int) error { return ws.dim.Observe(row, col) }

// Dimension returns the bounding range of the observed cells.
func (ws *Worksheet) Dimension() *Dimension { return &ws.dim }

// Select marks the sheet tab as selected. A selected sheet is never hidden.
func (ws *Worksheet) Select() {
	ws.selected = true
	ws.hidden = false
}

// Deselect clears the tab selection (and the active flag).
func (ws *Worksheet) Deselect() {
	ws.selected = false
	ws.active = false
}

// Activate makes this the sheet shown when the workbook opens; it is also selected.
func (ws *Worksheet) Activate() {
	ws.Select()
	ws.active = true
}

// Hide hides the sheet. A hidden sheet is neither selected nor active.
func (ws *Worksheet) Hide() {
	ws.hidden = true
	ws.selected = false
	ws.active = false
}

func (ws *Worksheet) Selected() bool { return ws.selected }
func (ws *Worksheet) Hidden() bool   { return ws.hidden }
func (ws *Worksheet) Active() bool   { return ws.active }

// SetTabColor sets the tab color as "RRGGBB" or "#RRGGBB".
func (ws *Worksheet) SetTabColor(rgb string) error {
	s := strings.TrimPrefix(rgb, "#")
	if len(s) != 6 || strings.Trim(strings.ToUpper(s), "0123456789ABCDEF") != "" {
		return fmt.Errorf("tab color %q: %w", rgb, sheetxml.ErrInvalidConfiguration)
	}
	ws.tabColor = "FF" + strings.ToUpper(s)
	return nil
}

// SetZoom sets the zoom percentage, 10 to 400.
func (ws *Worksheet) SetZoom(zoom int) error {
	if zoom < 10 || zoom > 400 {
		return fmt.Errorf("zoom %d: %w", zoom, sheetxml.ErrInvalidConfiguration)
	}
	ws.zoom = zoom
	return nil
}

func (ws *Worksheet) SetView(v View) error {
	if v > ViewPageBreakPreview {
		return fmt.Errorf("view %d: %w", v, sheetxml.ErrInvalidConfiguration)
	}
	ws.view = v
	return nil
}

func (ws *Worksheet) SetRightToLeft(rtl bool) { ws.rightToLeft = rtl }

// HideScreenGridlines hides the gridlines on screen.
func (ws *Worksheet) HideScreenGridlines(hide bool) { ws.hideGridlines = hide }

// HideZeros shows zero values as blank.
func (ws *Worksheet) HideZeros(hide bool) { ws.hideZeros = hide }

// SetDefaultRowHeight sets the default row height in points; hideUnused
// hides every row without data.
func (ws *Worksheet) SetDefaultRowHeight(height float64, hideUnused bool) error {
	if !finite(height) || height < 0 || height > 409 {
		return fmt.Errorf("default row height %g: %w", height, sheetxml.ErrInvalidConfiguration)
	}
	ws.defaultRowHeight = height
	ws.hideUnusedRows = hideUnused
	return nil
}

type selection struct {
	pane, activeCell, sqref string
}

// SetSelection selects the given range; the active cell is its first cell.
func (ws *Worksheet) SetSelection(r CellRange) error {
	r, err := r.normalize()
	if err != nil {
		return err
	}
	if r.Ref() == "A1" {
		ws.selection = nil
		return nil
	}
	ws.selection = &selection{activeCell: cellName(r.FirstRow, r.FirstCol), sqref: r.Ref()}
	return nil
}

type paneState uint8

const (
	paneFrozen paneState = iota
	paneSplit
)

type pane struct {
	state           paneState
	row, col        int     // frozen: rows/cols above/left of the split
	y, x            float64 // split: position in points / characters
	topRow, leftCol int
}

// FreezePanes freezes the rows above row and the columns left of col.
// topRow and leftCol give the first visible cell of the scrolling pane;
// negative values default to row and col.
func (ws *Worksheet) FreezePanes(row, col, topRow, leftCol int) error {
	if topRow < 0 {
		topRow = row
	}
	if leftCol < 0 {
		leftCol = col
	}
	if err := checkCell(row, col); err != nil {
		return err
	}
	if err := checkCell(topRow, leftCol); err != nil {
		return err
	}
	if row == 0 && col == 0 {
		ws.pane = nil
		return nil
	}
	ws.pane = &pane{state: paneFrozen, row: row, col: col, topRow: topRow, leftCol: leftCol}
	return nil
}

// SplitPanes splits the window at y points from the top and x characters
// from the left. topRow and leftCol give the first visible cell of the
// lower right pane; negative values estimate it from the split position.
func (ws *Worksheet) SplitPanes(y, x float64, topRow, leftCol int) error {
	if !finite(y) || !finite(x) || y < 0 || x < 0 {
		return fmt.Errorf("split %g,%g: %w", y, x, sheetxml.ErrInvalidConfiguration)
	}
	if y == 0 && x == 0 {
		ws.pane = nil
		return nil
	}
	p := pane{state: paneSplit, y: y, x: x, topRow: topRow, leftCol: leftCol}
	if topRow < 0 || leftCol < 0 {
		ys, xs := p.twips()
		if topRow < 0 {
			p.topRow = int(0.5 + (ys-300)/20/15)
		}
		if leftCol < 0 {
			p.leftCol = int(0.5 + (xs-390)/20/3*4/64)
		}
	}
	if p.topRow < 0 {
		p.topRow = 0
	}
	if p.leftCol < 0 {
		p.leftCol = 0
	}
	if err := checkCell(p.topRow, p.leftCol); err != nil {
		return err
	}
	ws.pane = &p
	return nil
}

// twips returns the split position in twentieths of a point, padded for
// the row and column headers.
func (p pane) twips() (y, x float64) {
	if p.y > 0 {
		y = float64(int(20*p.y + 300))
	}
	if p.x > 0 {
		x = charsToPixels(p.x)*3/4*20 + 390
	}
	return y, x
}

// charsToPixels converts a column width in characters of the default
// font (7 pixel digits, 5 pixel padding) to pixels.
func charsToPixels(w float64) float64 {
	const digit, padding = 7, 5
	if w < 1 {
		return float64(int(w*(digit+padding) + 0.5))
	}
	return float64(int(w*digit+0.5) + padding)
}

type outlineSettings struct {
	changed               bool
	visible, below, right bool
	autoStyle             bool
}

// SetOutlineSettings sets how outline (grouping) symbols are shown:
// visible shows the symbols, below and right place the summary rows below
// and the summary columns right of the details.
func (ws *Worksheet) SetOutlineSettings(visible, below, right, autoStyle bool) {
	ws.outline = outlineSettings{
		visible: visible, below: below, right: right, autoStyle: autoStyle,
		changed: !visible || !below || !right || autoStyle,
	}
}

// NoteRowOutlineLevel records the outline level of a written row, 0 to 7.
func (ws *Worksheet) NoteRowOutlineLevel(level int) error {
	if level < 0 || level > 7 {
		return fmt.Errorf("row outline level %d: %w", level, sheetxml.ErrInvalidConfiguration)
	}
	ws.rowOutlineLevel = max(ws.rowOutlineLevel, uint8(level))
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
