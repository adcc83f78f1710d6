// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package worksheet

import (
	"strconv"

	"github.com/UNO-SOFT/sheetxml"
)

const (
	nsMain  = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	nsMC    = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	nsX14ac = "http://schemas.microsoft.com/office/spreadsheetml/2009/9/ac"
)

// writer emits through an Emitter and keeps the first error; after an
// error every call is a no-op.
type writer struct {
	e   sheetxml.Emitter
	ws  *Worksheet
	err error
}

func (w *writer) start(name string, attrs ...sheetxml.Attr) {
	if w.err == nil {
		w.err = w.e.StartTag(name, attrs...)
	}
}

func (w *writer) end(name string) {
	if w.err == nil {
		w.err = w.e.EndTag(name)
	}
}

func (w *writer) empty(name string, attrs ...sheetxml.Attr) {
	if w.err == nil {
		w.err = w.e.EmptyTag(name, attrs...)
	}
}

func (w *writer) data(name, data string, attrs ...sheetxml.Attr) {
	if w.err == nil {
		w.err = w.e.DataElement(name, data, attrs...)
	}
}

func attr(name, value string) sheetxml.Attr { return sheetxml.Attr{Name: name, Value: value} }

// ftoa formats without trailing zeros: 0.7, 15, 10.7109375.
func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func itoa(i int) string { return strconv.Itoa(i) }

const on, off = "1", "0"

func writeRoot(w *writer) {
	attrs := []sheetxml.Attr{
		attr("xmlns", nsMain),
		attr("xmlns:r", relationshipNS),
	}
	if w.ws.schema == SchemaExtended {
		attrs = append(attrs,
			attr("xmlns:mc", nsMC),
			attr("xmlns:x14ac", nsX14ac),
			attr("mc:Ignorable", "x14ac"),
		)
	}
	w.start("worksheet", attrs...)
}

func (ws *Worksheet) hasSheetPr() bool {
	return ws.tabColor != "" || ws.outline.changed || ws.page.fitToPage
}

func writeSheetPr(w *writer) {
	ws := w.ws
	w.start("sheetPr")
	if ws.tabColor != "" {
		w.empty("tabColor", attr("rgb", ws.tabColor))
	}
	if o := ws.outline; o.changed {
		var attrs []sheetxml.Attr
		if o.autoStyle {
			attrs = append(attrs, attr("applyStyles", on))
		}
		if !o.below {
			attrs = append(attrs, attr("summaryBelow", off))
		}
		if !o.right {
			attrs = append(attrs, attr("summaryRight", off))
		}
		if !o.visible {
			attrs = append(attrs, attr("showOutlineSymbols", off))
		}
		w.empty("outlinePr", attrs...)
	}
	if ws.page.fitToPage {
		w.empty("pageSetUpPr", attr("fitToPage", on))
	}
	w.end("sheetPr")
}

func writeDimension(w *writer) {
	w.empty("dimension", attr("ref", w.ws.dim.Ref()))
}

func writeSheetViews(w *writer) {
	w.start("sheetViews")
	writeSheetView(w)
	w.end("sheetViews")
}

func writeSheetView(w *writer) {
	ws := w.ws
	var attrs []sheetxml.Attr
	if ws.hideGridlines {
		attrs = append(attrs, attr("showGridLines", off))
	}
	if ws.hideZeros {
		attrs = append(attrs, attr("showZeros", off))
	}
	if ws.rightToLeft {
		attrs = append(attrs, attr("rightToLeft", on))
	}
	if ws.selected {
		attrs = append(attrs, attr("tabSelected", on))
	}
	switch ws.view {
	case ViewPageLayout:
		attrs = append(attrs, attr("view", "pageLayout"))
	case ViewPageBreakPreview:
		attrs = append(attrs, attr("view", "pageBreakPreview"))
	}
	if ws.zoom != defaultZoom {
		zoom := itoa(ws.zoom)
		attrs = append(attrs, attr("zoomScale", zoom))
		switch ws.view {
		case ViewNormal:
			attrs = append(attrs, attr("zoomScaleNormal", zoom))
		case ViewPageLayout:
			attrs = append(attrs, attr("zoomScalePageLayoutView", zoom))
		case ViewPageBreakPreview:
			attrs = append(attrs, attr("zoomScaleSheetLayoutView", zoom))
		}
	}
	attrs = append(attrs, attr("workbookViewId", "0"))

	var paneAttrs []sheetxml.Attr
	var sels []selection
	if ws.pane != nil {
		paneAttrs, sels = ws.pane.layout(ws.selection)
	} else if ws.selection != nil {
		sels = []selection{*ws.selection}
	}
	if paneAttrs == nil && len(sels) == 0 {
		w.empty("sheetView", attrs...)
		return
	}
	w.start("sheetView", attrs...)
	if paneAttrs != nil {
		w.empty("pane", paneAttrs...)
	}
	for _, s := range sels {
		var attrs []sheetxml.Attr
		if s.pane != "" {
			attrs = append(attrs, attr("pane", s.pane))
		}
		if s.activeCell != "" {
			attrs = append(attrs, attr("activeCell", s.activeCell))
		}
		if s.sqref != "" {
			attrs = append(attrs, attr("sqref", s.sqref))
		}
		w.empty("selection", attrs...)
	}
	w.end("sheetView")
}

// layout returns the pane attributes and the selection of each pane.
// The user selection, if any, goes to the active pane.
func (p pane) layout(sel *selection) ([]sheetxml.Attr, []selection) {
	topLeft := cellName(p.topRow, p.leftCol)
	var activeCell, sqref string
	if sel != nil {
		activeCell, sqref = sel.activeCell, sel.sqref
	} else if p.state == paneSplit {
		activeCell, sqref = topLeft, topLeft
	}

	var hasRows, hasCols bool
	var xSplit, ySplit string
	var rowCell, colCell string
	state := "frozen"
	if p.state == paneSplit {
		ys, xs := p.twips()
		hasRows, hasCols = ys > 0, xs > 0
		ySplit, xSplit = ftoa(ys), ftoa(xs)
		rowCell, colCell = cellName(p.topRow, 0), cellName(0, p.leftCol)
		state = ""
	} else {
		hasRows, hasCols = p.row > 0, p.col > 0
		ySplit, xSplit = itoa(p.row), itoa(p.col)
		rowCell, colCell = cellName(p.row, 0), cellName(0, p.col)
	}

	var active string
	var sels []selection
	switch {
	case hasRows && hasCols:
		active = "bottomRight"
		sels = []selection{
			{pane: "topRight", activeCell: colCell, sqref: colCell},
			{pane: "bottomLeft", activeCell: rowCell, sqref: rowCell},
			{pane: active, activeCell: activeCell, sqref: sqref},
		}
	case hasCols:
		active = "topRight"
		sels = []selection{{pane: active, activeCell: activeCell, sqref: sqref}}
	default:
		active = "bottomLeft"
		sels = []selection{{pane: active, activeCell: activeCell, sqref: sqref}}
	}

	var attrs []sheetxml.Attr
	if hasCols {
		attrs = append(attrs, attr("xSplit", xSplit))
	}
	if hasRows {
		attrs = append(attrs, attr("ySplit", ySplit))
	}
	attrs = append(attrs, attr("topLeftCell", topLeft), attr("activePane", active))
	if state != "" {
		attrs = append(attrs, attr("state", state))
	}
	return attrs, sels
}

func writeSheetFormatPr(w *writer) {
	ws := w.ws
	attrs := []sheetxml.Attr{attr("defaultRowHeight", ftoa(ws.defaultRowHeight))}
	if ws.defaultRowHeight != defaultRowHeight {
		attrs = append(attrs, attr("customHeight", on))
	}
	if ws.hideUnusedRows {
		attrs = append(attrs, attr("zeroHeight", on))
	}
	if ws.rowOutlineLevel > 0 {
		attrs = append(attrs, attr("outlineLevelRow", itoa(int(ws.rowOutlineLevel))))
	}
	if ws.colOutlineLevel > 0 {
		attrs = append(attrs, attr("outlineLevelCol", itoa(int(ws.colOutlineLevel))))
	}
	if ws.schema == SchemaExtended {
		attrs = append(attrs, attr("x14ac:dyDescent", "0.25"))
	}
	w.empty("sheetFormatPr", attrs...)
}

func writeCols(w *writer) {
	w.start("cols")
	for _, c := range w.ws.columns() {
		attrs := []sheetxml.Attr{
			attr("min", itoa(c.first+1)),
			attr("max", itoa(c.last+1)),
			attr("width", ftoa(storedWidth(c.width))),
		}
		if c.Style > 0 {
			attrs = append(attrs, attr("style", itoa(c.Style)))
		}
		if c.Hidden {
			attrs = append(attrs, attr("hidden", on))
		}
		if c.custom {
			attrs = append(attrs, attr("customWidth", on))
		}
		if c.Level > 0 {
			attrs = append(attrs, attr("outlineLevel", itoa(c.Level)))
		}
		if c.Collapsed {
			attrs = append(attrs, attr("collapsed", on))
		}
		w.empty("col", attrs...)
	}
	w.end("cols")
}

func writeSheetData(w *writer) {
	data := w.ws.data
	if data == nil || !data.HasRows() {
		w.empty("sheetData")
		return
	}
	w.start("sheetData")
	if w.err == nil {
		w.err = data.WriteRows(w.e)
	}
	w.end("sheetData")
}

func writeSheetProtection(w *writer) {
	p := w.ws.protection
	var attrs []sheetxml.Attr
	if p.hash != "" {
		attrs = append(attrs, attr("password", p.hash))
	}
	attrs = append(attrs, attr("sheet", on))
	for _, f := range []struct {
		name string
		set  bool
		val  string
	}{
		{"objects", !p.AllowEditObjects, on},
		{"scenarios", !p.AllowEditScenarios, on},
		{"formatCells", p.AllowFormatCells, off},
		{"formatColumns", p.AllowFormatColumns, off},
		{"formatRows", p.AllowFormatRows, off},
		{"insertColumns", p.AllowInsertColumns, off},
		{"insertRows", p.AllowInsertRows, off},
		{"insertHyperlinks", p.AllowInsertHyperlinks, off},
		{"deleteColumns", p.AllowDeleteColumns, off},
		{"deleteRows", p.AllowDeleteRows, off},
		{"selectLockedCells", p.DenySelectLockedCells, on},
		{"sort", p.AllowSort, off},
		{"autoFilter", p.AllowAutoFilter, off},
		{"pivotTables", p.AllowPivotTables, off},
		{"selectUnlockedCells", p.DenySelectUnlockedCells, on},
	} {
		if f.set {
			attrs = append(attrs, attr(f.name, f.val))
		}
	}
	w.empty("sheetProtection", attrs...)
}

func writeAutoFilter(w *writer) {
	w.empty("autoFilter", attr("ref", w.ws.autoFilter.Ref()))
}

func writeMergeCells(w *writer) {
	w.start("mergeCells", attr("count", itoa(len(w.ws.merges))))
	for _, m := range w.ws.merges {
		w.empty("mergeCell", attr("ref", m.Ref()))
	}
	w.end("mergeCells")
}

func writeConditionalFormatting(w *writer) {
	for _, g := range w.ws.condFormats {
		w.start("conditionalFormatting", attr("sqref", g.sqref))
		for _, r := range g.rules {
			typ := "cellIs"
			if r.Type == CondExpression {
				typ = "expression"
			}
			attrs := []sheetxml.Attr{
				attr("type", typ),
				attr("dxfId", itoa(r.Format)),
				attr("priority", itoa(r.priority)),
			}
			if r.StopIfTrue {
				attrs = append(attrs, attr("stopIfTrue", on))
			}
			if r.Type == CondCellIs {
				attrs = append(attrs, attr("operator", r.Operator.String()))
			}
			w.start("cfRule", attrs...)
			w.data("formula", r.Value)
			if r.Type == CondCellIs && r.Operator.ranged() {
				w.data("formula", r.Maximum)
			}
			w.end("cfRule")
		}
		w.end("conditionalFormatting")
	}
}

func writeDataValidations(w *writer) {
	w.start("dataValidations", attr("count", itoa(len(w.ws.validations))))
	for _, v := range w.ws.validations {
		var attrs []sheetxml.Attr
		if v.Type != ValidateAny {
			attrs = append(attrs, attr("type", validationTokens[v.Type]))
		}
		bounded := v.Type != ValidateAny && v.Type != ValidateList && v.Type != ValidateCustom
		if bounded && v.Operator != Between {
			attrs = append(attrs, attr("operator", v.Operator.String()))
		}
		switch v.ErrorStyle {
		case ErrorWarning:
			attrs = append(attrs, attr("errorStyle", "warning"))
		case ErrorInformation:
			attrs = append(attrs, attr("errorStyle", "information"))
		}
		if !v.DisallowBlank {
			attrs = append(attrs, attr("allowBlank", on))
		}
		// showDropDown="1" hides the in-cell list arrow.
		if v.HideDropDown {
			attrs = append(attrs, attr("showDropDown", on))
		}
		if !v.HideInput {
			attrs = append(attrs, attr("showInputMessage", on))
		}
		if !v.HideError {
			attrs = append(attrs, attr("showErrorMessage", on))
		}
		for _, a := range [...]sheetxml.Attr{
			{Name: "errorTitle", Value: v.ErrorTitle},
			{Name: "error", Value: v.ErrorMessage},
			{Name: "promptTitle", Value: v.InputTitle},
			{Name: "prompt", Value: v.InputMessage},
		} {
			if a.Value != "" {
				attrs = append(attrs, a)
			}
		}
		attrs = append(attrs, attr("sqref", v.sqref))
		if v.Type == ValidateAny {
			w.empty("dataValidation", attrs...)
			continue
		}
		w.start("dataValidation", attrs...)
		w.data("formula1", v.Formula1)
		if bounded && v.Operator.ranged() {
			w.data("formula2", v.Formula2)
		}
		w.end("dataValidation")
	}
	w.end("dataValidations")
}

func writeHyperlinks(w *writer) {
	w.start("hyperlinks")
	for _, h := range w.ws.hyperlinks {
		attrs := []sheetxml.Attr{attr("ref", h.ref)}
		for _, a := range [...]sheetxml.Attr{
			{Name: "r:id", Value: h.relID},
			{Name: "location", Value: h.location},
			{Name: "tooltip", Value: h.tooltip},
			{Name: "display", Value: h.display},
		} {
			if a.Value != "" {
				attrs = append(attrs, a)
			}
		}
		w.empty("hyperlink", attrs...)
	}
	w.end("hyperlinks")
}

func writePrintOptions(w *writer) {
	p := w.ws.print
	var attrs []sheetxml.Attr
	if p.hCentered {
		attrs = append(attrs, attr("horizontalCentered", on))
	}
	if p.vCentered {
		attrs = append(attrs, attr("verticalCentered", on))
	}
	if p.headings {
		attrs = append(attrs, attr("headings", on))
	}
	if p.gridlines {
		attrs = append(attrs, attr("gridLines", on))
	}
	w.empty("printOptions", attrs...)
}

func writePageMargins(w *writer) {
	m := w.ws.margins
	w.empty("pageMargins",
		attr("left", ftoa(m.Left)),
		attr("right", ftoa(m.Right)),
		attr("top", ftoa(m.Top)),
		attr("bottom", ftoa(m.Bottom)),
		attr("header", ftoa(m.Header)),
		attr("footer", ftoa(m.Footer)),
	)
}

func writePageSetup(w *writer) {
	p := w.ws.page
	var attrs []sheetxml.Attr
	if p.paperSize > 0 {
		attrs = append(attrs, attr("paperSize", itoa(p.paperSize)))
	}
	if p.scale != 100 {
		attrs = append(attrs, attr("scale", itoa(p.scale)))
	}
	if p.firstPage > 0 {
		attrs = append(attrs, attr("firstPageNumber", itoa(p.firstPage)))
	}
	if p.fitToPage && p.fitWidth != 1 {
		attrs = append(attrs, attr("fitToWidth", itoa(p.fitWidth)))
	}
	if p.fitToPage && p.fitHeight != 1 {
		attrs = append(attrs, attr("fitToHeight", itoa(p.fitHeight)))
	}
	if p.order == OverThenDown {
		attrs = append(attrs, attr("pageOrder", "overThenDown"))
	}
	orientation := "portrait"
	if p.orientation == Landscape {
		orientation = "landscape"
	}
	attrs = append(attrs, attr("orientation", orientation))
	if p.firstPage > 0 {
		attrs = append(attrs, attr("useFirstPageNumber", on))
	}
	w.empty("pageSetup", attrs...)
}

func writeHeaderFooter(w *writer) {
	w.start("headerFooter")
	if w.ws.header != "" {
		w.data("oddHeader", w.ws.header)
	}
	if w.ws.footer != "" {
		w.data("oddFooter", w.ws.footer)
	}
	w.end("headerFooter")
}

func writeBreaks(name string, breaks []int, maxIndex int) func(*writer) {
	return func(w *writer) {
		count := itoa(len(breaks))
		w.start(name, attr("count", count), attr("manualBreakCount", count))
		for _, b := range breaks {
			w.empty("brk", attr("id", itoa(b)), attr("max", itoa(maxIndex)), attr("man", on))
		}
		w.end(name)
	}
}

func writeRowBreaks(w *writer) {
	writeBreaks("rowBreaks", w.ws.rowBreaks, sheetxml.MaxCols-1)(w)
}

func writeColBreaks(w *writer) {
	writeBreaks("colBreaks", w.ws.colBreaks, sheetxml.MaxRows-1)(w)
}

func writeDrawing(w *writer) {
	w.empty("drawing", attr("r:id", w.ws.drawingRel))
}

func writeTableParts(w *writer) {
	w.start("tableParts", attr("count", itoa(len(w.ws.tableRels))))
	for _, id := range w.ws.tableRels {
		w.empty("tablePart", attr("r:id", id))
	}
	w.end("tableParts")
}
