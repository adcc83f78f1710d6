// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package xlsx streams rows into worksheets and bundles the serialized
// worksheet parts into a zip archive.
package xlsx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/UNO-SOFT/sheetxml"
	"github.com/UNO-SOFT/sheetxml/worksheet"
	"github.com/UNO-SOFT/sheetxml/xmlwriter"
	"github.com/klauspost/compress/zip"
)

var _ = (sheetxml.Writer)((*Writer)(nil))

// Writer collects sheets and writes their worksheet parts on Close,
// as xl/worksheets/sheetN.xml entries of a zip archive.
// The workbook, styles and content type parts are not written.
//
// This writer allows concurrent writes to separate sheets.
//
// This writer collects everything in memory, so big sheets may impose problems.
type Writer struct {
	w      io.Writer
	sheets []*Sheet
	mu     sync.Mutex

	// Schema is the schema version of the sheets created afterwards.
	Schema worksheet.SchemaVersion
	Logger *slog.Logger
}

// NewWriter returns a new sheetxml.Writer.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// PartName returns the archive path of the i-th (zero-based) worksheet part.
func PartName(i int) string { return "xl/worksheets/sheet" + strconv.Itoa(i+1) + ".xml" }

// Close serializes the sheets, each in its own goroutine, and writes the archive.
func (xlw *Writer) Close() error {
	if xlw == nil {
		return nil
	}
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	w, sheets := xlw.w, xlw.sheets
	xlw.w, xlw.sheets = nil, nil
	if w == nil {
		return nil
	}
	logger := xlw.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	parts := make([]bytes.Buffer, len(sheets))
	errs := make([]error, len(sheets))
	var wg sync.WaitGroup
	for i, sh := range sheets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sh.mu.Lock()
			defer sh.mu.Unlock()
			a := worksheet.NewAssembler(xmlwriter.New(&parts[i]))
			a.Logger = logger.With("sheet", sh.Name)
			if err := a.Assemble(sh.ws); err != nil {
				errs[i] = fmt.Errorf("%s: %w", sh.Name, err)
			}
		}()
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for i := range parts {
		fw, err := zw.Create(PartName(i))
		if err != nil {
			return err
		}
		if _, err = parts[i].WriteTo(fw); err != nil {
			return fmt.Errorf("%s: %w", PartName(i), err)
		}
		logger.Debug("part written", "name", PartName(i), "sheet", sheets[i].Name)
	}
	return zw.Close()
}

// NewSheet is AddSheet returning the sheetxml.Sheet interface.
func (xlw *Writer) NewSheet(name string, columns []sheetxml.Column) (sheetxml.Sheet, error) {
	return xlw.AddSheet(name, columns)
}

// AddSheet adds a sheet. The first sheet is selected and active, the later
// ones are not.
func (xlw *Writer) AddSheet(name string, columns []sheetxml.Column) (*Sheet, error) {
	xlw.mu.Lock()
	defer xlw.mu.Unlock()
	if xlw.w == nil {
		return nil, fmt.Errorf("sheet %q: writer is closed", name)
	}
	sh, err := NewSheet(name, columns)
	if err != nil {
		return nil, err
	}
	if err = sh.ws.SetSchema(xlw.Schema); err != nil {
		return nil, err
	}
	if len(xlw.sheets) == 0 {
		sh.ws.Activate()
	} else {
		sh.ws.Deselect()
	}
	xlw.sheets = append(xlw.sheets, sh)
	return sh, nil
}

// NewSheet returns a sheet that belongs to no Writer; serialize it with
// its Worksheet. Columns with a Name give a header row; their Width and
// Hidden set the column layout.
func NewSheet(name string, columns []sheetxml.Column) (*Sheet, error) {
	ws := worksheet.New()
	sh := &Sheet{ws: ws, Name: name}
	ws.SetSheetData(sh)

	var hasHeader bool
	header := make([]any, len(columns))
	for i, c := range columns {
		if c.Width != 0 || c.Hidden {
			width := c.Width
			if width == 0 {
				width = -1
			}
			if err := ws.SetColumn(i, i, width, &worksheet.ColumnOptions{Hidden: c.Hidden}); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
		if c.Name != "" {
			hasHeader = true
		}
		header[i] = c.Name
	}
	if hasHeader {
		if err := sh.AppendRow(header...); err != nil {
			return nil, err
		}
	}
	return sh, nil
}
