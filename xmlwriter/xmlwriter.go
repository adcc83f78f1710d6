// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package xmlwriter implements sheetxml.Emitter over a buffered io.Writer.
package xmlwriter

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/UNO-SOFT/sheetxml"
	"github.com/valyala/quicktemplate"
)

var _ = (sheetxml.Emitter)((*Writer)(nil))

// Declaration is the XML declaration written by Writer.Declaration.
const Declaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// ErrFlushed is returned by the calls made after Flush or Release.
var ErrFlushed = errors.New("xmlwriter: writer flushed")

// Writer emits markup. The first write error is sticky: every later call
// returns it without writing.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	bw *bufio.Writer
	ew *errWriter
	qw *quicktemplate.Writer
}

// New returns a Writer buffering into w. Call Flush when done.
func New(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	ew := &errWriter{w: bw}
	return &Writer{bw: bw, ew: ew, qw: quicktemplate.AcquireWriter(ew)}
}

// Flush writes the buffered data to the underlying writer and releases
// the pooled template writer. Later calls return ErrFlushed.
func (x *Writer) Flush() error {
	if x.qw == nil {
		return x.closed()
	}
	x.Release()
	if x.ew.err != nil {
		return x.ew.err
	}
	if err := x.bw.Flush(); err != nil {
		x.ew.err = err
	}
	return x.ew.err
}

// Release returns the pooled template writer without flushing,
// abandoning the buffered data. It is a no-op after Flush.
func (x *Writer) Release() {
	if x.qw != nil {
		quicktemplate.ReleaseWriter(x.qw)
		x.qw = nil
	}
}

func (x *Writer) closed() error {
	if x.ew.err != nil {
		return x.ew.err
	}
	return ErrFlushed
}

func (x *Writer) Declaration() error {
	if x.qw == nil {
		return x.closed()
	}
	x.qw.N().S(Declaration)
	return x.ew.err
}

func (x *Writer) StartTag(name string, attrs ...sheetxml.Attr) error {
	if x.qw == nil {
		return x.closed()
	}
	x.open(name, attrs)
	x.qw.N().S(">")
	return x.ew.err
}

func (x *Writer) EndTag(name string) error {
	if x.qw == nil {
		return x.closed()
	}
	n := x.qw.N()
	n.S("</")
	n.S(name)
	n.S(">")
	return x.ew.err
}

func (x *Writer) EmptyTag(name string, attrs ...sheetxml.Attr) error {
	if x.qw == nil {
		return x.closed()
	}
	x.open(name, attrs)
	x.qw.N().S("/>")
	return x.ew.err
}

func (x *Writer) DataElement(name, data string, attrs ...sheetxml.Attr) error {
	if x.qw == nil {
		return x.closed()
	}
	x.open(name, attrs)
	x.qw.N().S(">")
	x.qw.E().S(clean(data))
	return x.EndTag(name)
}

func (x *Writer) open(name string, attrs []sheetxml.Attr) {
	n, e := x.qw.N(), x.qw.E()
	n.S("<")
	n.S(name)
	for _, a := range attrs {
		n.S(" ")
		n.S(a.Name)
		n.S(`="`)
		e.S(clean(a.Value))
		n.S(`"`)
	}
}

// clean drops the control characters XML 1.0 does not allow.
func clean(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
			return strings.Map(func(r rune) rune {
				if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
					return -1
				}
				return r
			}, s)
		}
	}
	return s
}

// errWriter keeps the first error, as quicktemplate swallows them.
type errWriter struct {
	w   io.Writer
	err error
}

func (w *errWriter) Write(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	n, err := w.w.Write(p)
	if err != nil {
		w.err = err
	}
	return n, err
}
