// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package worksheet

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/UNO-SOFT/sheetxml"
	"github.com/UNO-SOFT/sheetxml/xmlwriter"
)

// WriteError is returned when the emitter fails; Section names the element
// being written.
type WriteError struct {
	Section string
	Err     error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Section, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

type section struct {
	name    string
	include func(*Worksheet) bool
	write   func(*writer)
}

func always(*Worksheet) bool { return true }

// sections are the children of <worksheet>, in schema order.
var sections = [...]section{
	{"sheetPr", (*Worksheet).hasSheetPr, writeSheetPr},
	{"dimension", always, writeDimension},
	{"sheetViews", always, writeSheetViews},
	{"sheetFormatPr", always, writeSheetFormatPr},
	{"cols", func(ws *Worksheet) bool { return len(ws.cols) != 0 }, writeCols},
	{"sheetData", always, writeSheetData},
	{"sheetProtection", func(ws *Worksheet) bool { return ws.protection != nil }, writeSheetProtection},
	{"autoFilter", func(ws *Worksheet) bool { return ws.autoFilter != nil }, writeAutoFilter},
	{"mergeCells", func(ws *Worksheet) bool { return len(ws.merges) != 0 }, writeMergeCells},
	{"conditionalFormatting", func(ws *Worksheet) bool { return len(ws.condFormats) != 0 }, writeConditionalFormatting},
	{"dataValidations", func(ws *Worksheet) bool { return len(ws.validations) != 0 }, writeDataValidations},
	{"hyperlinks", func(ws *Worksheet) bool { return len(ws.hyperlinks) != 0 }, writeHyperlinks},
	{"printOptions", func(ws *Worksheet) bool { return ws.print.changed() }, writePrintOptions},
	{"pageMargins", always, writePageMargins},
	{"pageSetup", func(ws *Worksheet) bool { return ws.page.changed }, writePageSetup},
	{"headerFooter", func(ws *Worksheet) bool { return ws.header != "" || ws.footer != "" }, writeHeaderFooter},
	{"rowBreaks", func(ws *Worksheet) bool { return len(ws.rowBreaks) != 0 }, writeRowBreaks},
	{"colBreaks", func(ws *Worksheet) bool { return len(ws.colBreaks) != 0 }, writeColBreaks},
	{"drawing", func(ws *Worksheet) bool { return ws.drawingRel != "" }, writeDrawing},
	{"tableParts", func(ws *Worksheet) bool { return len(ws.tableRels) != 0 }, writeTableParts},
}

// Assembler writes worksheets through an Emitter.
type Assembler struct {
	Emitter sheetxml.Emitter
	// Logger gets a debug line per worksheet; nil discards.
	Logger *slog.Logger
}

// NewAssembler returns an Assembler writing to e.
func NewAssembler(e sheetxml.Emitter) *Assembler { return &Assembler{Emitter: e} }

// Assemble writes the complete worksheet part of ws: the declaration, the
// root element and its sections in schema order. If the Emitter has a
// Flush method, it is called at the end; a Release method is called
// before returning, whether the write failed or not.
func (a *Assembler) Assemble(ws *Worksheet) error {
	if r, ok := a.Emitter.(interface{ Release() }); ok {
		defer r.Release()
	}
	logger := a.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w := writer{e: a.Emitter, ws: ws}
	if err := w.e.Declaration(); err != nil {
		return &WriteError{Section: "declaration", Err: err}
	}
	writeRoot(&w)
	if w.err != nil {
		return &WriteError{Section: "worksheet", Err: w.err}
	}
	var written []string
	for _, s := range sections {
		if !s.include(ws) {
			continue
		}
		s.write(&w)
		if w.err != nil {
			return &WriteError{Section: s.name, Err: w.err}
		}
		written = append(written, s.name)
	}
	if w.end("worksheet"); w.err != nil {
		return &WriteError{Section: "worksheet", Err: w.err}
	}
	if f, ok := a.Emitter.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return &WriteError{Section: "worksheet", Err: err}
		}
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		logger.Debug("worksheet assembled", "schema", ws.schema, "dimension", ws.dim.Ref(), "sections", written)
	}
	return nil
}

// WriteTo writes the worksheet part of ws to w.
func (ws *Worksheet) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	err := NewAssembler(xmlwriter.New(cw)).Assemble(ws)
	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
