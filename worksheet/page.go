// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package worksheet

import (
	"fmt"
	"slices"
	"unicode/utf8"

	"github.com/UNO-SOFT/sheetxml"
)

// Margins are the page margins in inches.
type Margins struct {
	Left, Right, Top, Bottom float64
	Header, Footer           float64
}

// DefaultMargins returns the margins of a new sheet.
func DefaultMargins() Margins {
	return Margins{Left: 0.7, Right: 0.7, Top: 0.75, Bottom: 0.75, Header: 0.3, Footer: 0.3}
}

// SetMargins sets the page margins. None of them may be negative.
func (ws *Worksheet) SetMargins(m Margins) error {
	for _, f := range []float64{m.Left, m.Right, m.Top, m.Bottom, m.Header, m.Footer} {
		if !finite(f) || f < 0 {
			return fmt.Errorf("margin %g: %w", f, sheetxml.ErrInvalidConfiguration)
		}
	}
	ws.margins = m
	return nil
}

func (ws *Worksheet) Margins() Margins { return ws.margins }

type Orientation uint8

const (
	Portrait Orientation = iota
	Landscape
)

type PageOrder uint8

const (
	DownThenOver PageOrder = iota
	OverThenDown
)

type pageSetup struct {
	changed             bool
	orientation         Orientation
	paperSize           int
	scale               int
	fitToPage           bool
	fitWidth, fitHeight int
	firstPage           int
	order               PageOrder
}

func (ws *Worksheet) SetOrientation(o Orientation) error {
	if o > Landscape {
		return fmt.Errorf("orientation %d: %w", o, sheetxml.ErrInvalidConfiguration)
	}
	ws.page.orientation = o
	ws.page.changed = true
	return nil
}

// MaxPaperSize is the largest paper size index known to Excel.
const MaxPaperSize = 118

// SetPaperSize sets the paper size index (1 is Letter, 9 is A4);
// 0 means the printer default.
func (ws *Worksheet) SetPaperSize(size int) error {
	if size < 0 || size > MaxPaperSize {
		return fmt.Errorf("paper size %d: %w", size, sheetxml.ErrInvalidConfiguration)
	}
	ws.page.paperSize = size
	ws.page.changed = true
	return nil
}

// SetPrintScale sets the print scale percentage, 10 to 400.
func (ws *Worksheet) SetPrintScale(scale int) error {
	if scale < 10 || scale > 400 {
		return fmt.Errorf("print scale %d: %w", scale, sheetxml.ErrInvalidConfiguration)
	}
	ws.page.scale = scale
	ws.page.changed = true
	return nil
}

// FitToPages fits the printout to width x height pages; 0 means as many as needed.
func (ws *Worksheet) FitToPages(width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("fit to %dx%d pages: %w", width, height, sheetxml.ErrInvalidConfiguration)
	}
	ws.page.fitToPage = true
	ws.page.fitWidth, ws.page.fitHeight = width, height
	ws.page.changed = true
	return nil
}

// SetFirstPageNumber sets the number of the first printed page.
func (ws *Worksheet) SetFirstPageNumber(n int) error {
	if n < 1 {
		return fmt.Errorf("first page number %d: %w", n, sheetxml.ErrInvalidConfiguration)
	}
	ws.page.firstPage = n
	ws.page.changed = true
	return nil
}

func (ws *Worksheet) SetPageOrder(o PageOrder) error {
	if o > OverThenDown {
		return fmt.Errorf("page order %d: %w", o, sheetxml.ErrInvalidConfiguration)
	}
	ws.page.order = o
	ws.page.changed = true
	return nil
}

type printOptions struct {
	gridlines, headings  bool
	hCentered, vCentered bool
}

func (p printOptions) changed() bool { return p != printOptions{} }

// PrintGridlines prints the cell gridlines.
func (ws *Worksheet) PrintGridlines(on bool) { ws.print.gridlines = on }

// PrintRowColHeaders prints the row numbers and column letters.
func (ws *Worksheet) PrintRowColHeaders(on bool) { ws.print.headings = on }

// CenterHorizontally centers the printout on the page horizontally.
func (ws *Worksheet) CenterHorizontally(on bool) { ws.print.hCentered = on }

// CenterVertically centers the printout on the page vertically.
func (ws *Worksheet) CenterVertically(on bool) { ws.print.vCentered = on }

// maxHeaderLen is the longest header or footer Excel accepts.
const maxHeaderLen = 255

// SetHeader sets the page header, using Excel's &L/&C/&R control codes,
// and its margin in inches; a negative margin keeps the current one.
func (ws *Worksheet) SetHeader(text string, margin float64) error {
	if err := checkHeader(text); err != nil {
		return err
	}
	if !finite(margin) {
		return fmt.Errorf("header margin %g: %w", margin, sheetxml.ErrInvalidConfiguration)
	}
	ws.header = text
	if margin >= 0 {
		ws.margins.Header = margin
	}
	return nil
}

// SetFooter is SetHeader for the page footer.
func (ws *Worksheet) SetFooter(text string, margin float64) error {
	if err := checkHeader(text); err != nil {
		return err
	}
	if !finite(margin) {
		return fmt.Errorf("footer margin %g: %w", margin, sheetxml.ErrInvalidConfiguration)
	}
	ws.footer = text
	if margin >= 0 {
		ws.margins.Footer = margin
	}
	return nil
}

func checkHeader(text string) error {
	if n := utf8.RuneCountInString(text); n > maxHeaderLen {
		return fmt.Errorf("header/footer of %d characters: %w", n, sheetxml.ErrInvalidConfiguration)
	}
	return nil
}

// maxPageBreaks is the number of manual page breaks per direction.
const maxPageBreaks = 1023

// SetHPageBreaks sets the horizontal page breaks: a page ends above each given row.
func (ws *Worksheet) SetHPageBreaks(rows ...int) error {
	b, err := pageBreaks(rows, func(i int) error { return checkCell(i, 0) })
	if err != nil {
		return err
	}
	ws.rowBreaks = b
	return nil
}

// SetVPageBreaks sets the vertical page breaks: a page ends left of each given column.
func (ws *Worksheet) SetVPageBreaks(cols ...int) error {
	b, err := pageBreaks(cols, func(i int) error { return checkCell(0, i) })
	if err != nil {
		return err
	}
	ws.colBreaks = b
	return nil
}

// pageBreaks sorts and deduplicates the breaks; a break before the first
// row or column is meaningless and dropped.
func pageBreaks(breaks []int, check func(int) error) ([]int, error) {
	for _, i := range breaks {
		if err := check(i); err != nil {
			return nil, err
		}
	}
	b := slices.Compact(slices.Sorted(slices.Values(breaks)))
	b = slices.DeleteFunc(b, func(i int) bool { return i == 0 })
	if len(b) > maxPageBreaks {
		return nil, fmt.Errorf("%d page breaks: %w", len(b), sheetxml.ErrInvalidConfiguration)
	}
	if len(b) == 0 {
		return nil, nil
	}
	return b, nil
}
