// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package worksheet

import (
	"fmt"
	"slices"

	"github.com/UNO-SOFT/sheetxml"
)

// DefaultColumnWidth is the width of a column in characters, if not set.
const DefaultColumnWidth = 8.43

const maxColumnWidth = 255

// ColumnOptions are the optional column properties.
type ColumnOptions struct {
	// Style is the index of an external cell format, 0 for none.
	Style     int
	Hidden    bool
	Level     int // outline level, 0 to 7
	Collapsed bool
}

type column struct {
	first, last int
	width       float64
	custom      bool
	ColumnOptions
}

// SetColumn sets the width (in characters) and options of the columns
// from first to last. A negative width keeps the default width.
// Setting the same span again replaces it; partially overlapping spans
// are rejected.
func (ws *Worksheet) SetColumn(first, last int, width float64, opts *ColumnOptions) error {
	if first > last {
		first, last = last, first
	}
	if err := checkCell(0, first); err != nil {
		return err
	}
	if err := checkCell(0, last); err != nil {
		return err
	}
	if !finite(width) || width > maxColumnWidth {
		return fmt.Errorf("column width %g: %w", width, sheetxml.ErrInvalidConfiguration)
	}
	c := column{first: first, last: last, width: width, custom: true}
	if opts != nil {
		c.ColumnOptions = *opts
	}
	switch {
	case width < 0 && c.Hidden:
		c.width = 0
	case width < 0:
		c.width, c.custom = DefaultColumnWidth, false
	case width == DefaultColumnWidth:
		c.custom = false
	}
	if c.Level < 0 || c.Level > 7 {
		return fmt.Errorf("column outline level %d: %w", c.Level, sheetxml.ErrInvalidConfiguration)
	}
	if c.Style < 0 {
		return fmt.Errorf("column style %d: %w", c.Style, sheetxml.ErrInvalidConfiguration)
	}
	for k, o := range ws.cols {
		if k != first && o.first <= last && first <= o.last {
			return fmt.Errorf("columns %d-%d overlap %d-%d: %w",
				first, last, o.first, o.last, sheetxml.ErrInvalidConfiguration)
		}
	}
	if prev, ok := ws.cols[first]; ok && prev.last != last {
		return fmt.Errorf("columns %d-%d overlap %d-%d: %w",
			first, last, prev.first, prev.last, sheetxml.ErrInvalidConfiguration)
	}
	if ws.cols == nil {
		ws.cols = make(map[int]column)
	}
	ws.cols[first] = c
	ws.colOutlineLevel = 0
	for _, o := range ws.cols {
		ws.colOutlineLevel = max(ws.colOutlineLevel, uint8(o.Level))
	}
	return nil
}

// columns returns the column spans in ascending order.
func (ws *Worksheet) columns() []column {
	cols := make([]column, 0, len(ws.cols))
	for _, c := range ws.cols {
		cols = append(cols, c)
	}
	slices.SortFunc(cols, func(a, b column) int { return a.first - b.first })
	return cols
}

// storedWidth converts a width in characters to the stored width, which
// includes the cell padding, truncated to 1/256 of a character.
func storedWidth(w float64) float64 {
	if w <= 0 {
		return 0
	}
	const digit = 7
	px := charsToPixels(w)
	return float64(int(px/digit*256)) / 256
}
