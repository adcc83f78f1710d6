// Copyright 2020, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package sheetxml serializes spreadsheet worksheets into SpreadsheetML
// worksheet parts.
//
// The worksheet package holds the sheet settings and assembles the document,
// the xmlwriter package provides the markup Emitter, and the xlsx package
// streams rows into sheets and bundles the parts.
package sheetxml

import (
	"errors"
	"io"
)

// Writer writes the spreadsheet parts consisting of the sheets created
// with NewSheet. The write finishes when Close is called.
//
// The writer SHOULD allow writing to separate sheets concurrently,
// and document if it does not provide this functionality.
type Writer interface {
	io.Closer
	NewSheet(name string, cols []Column) (Sheet, error)
}

// Sheet should be Closed when finished.
type Sheet interface {
	io.Closer
	AppendRow(values ...any) error
}

// Column contains the Name of the column (written as the header row when
// non-empty) and the column's layout.
type Column struct {
	Name string
	// Width in characters; zero keeps the default width.
	Width  float64
	Hidden bool
}

// Number is a string that contains a number.
type Number string

// Attr is one attribute of an element. Attribute order is significant and
// is kept verbatim by an Emitter.
type Attr struct {
	Name, Value string
}

// Emitter writes well-formed markup. It escapes &, <, > and quote
// characters in attribute values and character data.
//
// An Emitter must not be shared between concurrent serializations.
type Emitter interface {
	// Declaration writes the standalone UTF-8 XML declaration.
	Declaration() error
	StartTag(name string, attrs ...Attr) error
	EndTag(name string) error
	// EmptyTag writes a self-closing element.
	EmptyTag(name string, attrs ...Attr) error
	// DataElement writes <name attrs>data</name>.
	DataElement(name, data string, attrs ...Attr) error
}

const (
	// MaxRows is the number of rows of a worksheet.
	MaxRows = 1_048_576
	// MaxCols is the number of columns of a worksheet.
	MaxCols = 16_384
)

var (
	// ErrOutOfRange is returned for row or column indexes beyond MaxRows / MaxCols.
	ErrOutOfRange = errors.New("out of range")
	// ErrInvalidConfiguration is returned for nonsensical settings.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrTooManyRows is returned when a row would go past MaxRows.
	ErrTooManyRows = errors.New("too many rows")
)
