// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package xlsx

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/UNO-SOFT/sheetxml"
	"github.com/UNO-SOFT/sheetxml/worksheet"
	"github.com/xuri/excelize/v2"
)

var (
	_ = (sheetxml.Sheet)((*Sheet)(nil))
	_ = (worksheet.SheetData)((*Sheet)(nil))
)

type cellKind uint8

const (
	kindString cellKind = iota
	kindNumber
	kindBool
)

type cell struct {
	col   int
	kind  cellKind
	value string
}

type row struct {
	index int
	cells []cell
}

// Sheet collects the rows of a worksheet. It is the sheet data of its
// Worksheet: the cells are written inline, without a shared strings table.
type Sheet struct {
	ws   *worksheet.Worksheet
	Name string
	rows []row
	next int
	mu   sync.Mutex
}

// Worksheet returns the settings of the sheet, to be changed before the
// Writer is closed.
func (xls *Sheet) Worksheet() *worksheet.Worksheet { return xls.ws }

func (xls *Sheet) Close() error { return nil }

// Len returns the number of appended rows, the header row included.
func (xls *Sheet) Len() int {
	xls.mu.Lock()
	defer xls.mu.Unlock()
	return xls.next
}

// AppendRow appends a row. nil values, invalid sql.Null* values and zero
// times leave the cell empty; an empty row still takes its place.
func (xls *Sheet) AppendRow(values ...any) error {
	xls.mu.Lock()
	defer xls.mu.Unlock()
	if xls.next >= sheetxml.MaxRows {
		return sheetxml.ErrTooManyRows
	}
	if len(values) > sheetxml.MaxCols {
		return fmt.Errorf("%s: %d values: %w", xls.Name, len(values), sheetxml.ErrOutOfRange)
	}
	r := row{index: xls.next}
	for i, v := range values {
		c, ok := toCell(v)
		if !ok {
			continue
		}
		c.col = i
		if err := xls.ws.ObserveCell(r.index, i); err != nil {
			return fmt.Errorf("%s: %w", xls.Name, err)
		}
		r.cells = append(r.cells, c)
	}
	xls.next++
	if len(r.cells) != 0 {
		xls.rows = append(xls.rows, r)
	}
	return nil
}

func toCell(v any) (cell, bool) {
	if v == nil {
		return cell{}, false
	}
	if vr, ok := v.(driver.Valuer); ok {
		if vv, err := vr.Value(); err == nil {
			v = vv
		}
	}
	switch x := v.(type) {
	case nil:
		return cell{}, false
	case string:
		return cell{value: x}, x != ""
	case sheetxml.Number:
		return cell{kind: kindNumber, value: string(x)}, x != ""
	case []byte:
		return cell{value: string(x)}, len(x) != 0
	case bool:
		if x {
			return cell{kind: kindBool, value: "1"}, true
		}
		return cell{kind: kindBool, value: "0"}, true
	case int:
		return cell{kind: kindNumber, value: strconv.Itoa(x)}, true
	case int8, int16, int32, int64:
		return cell{kind: kindNumber, value: fmt.Sprintf("%d", x)}, true
	case uint, uint8, uint16, uint32, uint64:
		return cell{kind: kindNumber, value: fmt.Sprintf("%d", x)}, true
	case float32:
		return floatCell(float64(x))
	case float64:
		return floatCell(x)
	case time.Time:
		if x.IsZero() {
			return cell{}, false
		}
		return cell{value: x.Format("2006-01-02")}, true
	case sql.NullTime:
		if !x.Valid || x.Time.IsZero() {
			return cell{}, false
		}
		return cell{value: x.Time.Format("2006-01-02")}, true
	case sql.NullFloat64:
		if !x.Valid {
			return cell{}, false
		}
		return floatCell(x.Float64)
	case sql.NullInt64:
		if !x.Valid {
			return cell{}, false
		}
		return cell{kind: kindNumber, value: strconv.FormatInt(x.Int64, 10)}, true
	case sql.NullString:
		return cell{value: x.String}, x.Valid && x.String != ""
	case fmt.Stringer:
		s := x.String()
		return cell{value: s}, s != ""
	default:
		s := fmt.Sprint(v)
		return cell{value: s}, s != ""
	}
}

// floatCell writes NaN and the infinities as text, as they have no number form.
func floatCell(f float64) (cell, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return cell{value: strconv.FormatFloat(f, 'g', -1, 64)}, true
	}
	return cell{kind: kindNumber, value: strconv.FormatFloat(f, 'f', -1, 64)}, true
}

// HasRows reports whether any row has a cell.
func (xls *Sheet) HasRows() bool { return len(xls.rows) != 0 }

// WriteRows writes the rows with cells, in order.
func (xls *Sheet) WriteRows(e sheetxml.Emitter) error {
	cols := make(map[int]string)
	colName := func(col int) string {
		if s, ok := cols[col]; ok {
			return s
		}
		s, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			panic(err)
		}
		cols[col] = s
		return s
	}
	w := rowWriter{e: e}
	for _, r := range xls.rows {
		rn := strconv.Itoa(r.index + 1)
		w.start("row", sheetxml.Attr{Name: "r", Value: rn})
		for _, c := range r.cells {
			ref := sheetxml.Attr{Name: "r", Value: colName(c.col) + rn}
			switch c.kind {
			case kindNumber:
				w.start("c", ref)
				w.data("v", c.value)
			case kindBool:
				w.start("c", ref, sheetxml.Attr{Name: "t", Value: "b"})
				w.data("v", c.value)
			default:
				w.start("c", ref, sheetxml.Attr{Name: "t", Value: "inlineStr"})
				w.start("is")
				if strings.TrimSpace(c.value) != c.value {
					w.data("t", c.value, sheetxml.Attr{Name: "xml:space", Value: "preserve"})
				} else {
					w.data("t", c.value)
				}
				w.end("is")
			}
			w.end("c")
		}
		w.end("row")
		if w.err != nil {
			return fmt.Errorf("%s row %s: %w", xls.Name, rn, w.err)
		}
	}
	return nil
}

type rowWriter struct {
	e   sheetxml.Emitter
	err error
}

func (w *rowWriter) start(name string, attrs ...sheetxml.Attr) {
	if w.err == nil {
		w.err = w.e.StartTag(name, attrs...)
	}
}

func (w *rowWriter) end(name string) {
	if w.err == nil {
		w.err = w.e.EndTag(name)
	}
}

func (w *rowWriter) data(name, data string, attrs ...sheetxml.Attr) {
	if w.err == nil {
		w.err = w.e.DataElement(name, data, attrs...)
	}
}
