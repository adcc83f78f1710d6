package worksheet

import (
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"github.com/UNO-SOFT/sheetxml"
	"github.com/UNO-SOFT/sheetxml/xmlwriter"
	"github.com/stretchr/testify/require"
	"github.com/unidoc/unioffice/schema/soo/sml"
)

const defaultDocument = xmlwriter.Declaration +
	`<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
	`<dimension ref="A1"/>` +
	`<sheetViews><sheetView tabSelected="1" workbookViewId="0"/></sheetViews>` +
	`<sheetFormatPr defaultRowHeight="15"/>` +
	`<sheetData/>` +
	`<pageMargins left="0.7" right="0.7" top="0.75" bottom="0.75" header="0.3" footer="0.3"/>` +
	`</worksheet>`

func assemble(t *testing.T, ws *Worksheet) string {
	t.Helper()
	var buf strings.Builder
	n, err := ws.WriteTo(&buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	return buf.String()
}

func TestDefaultDocument(t *testing.T) {
	require.Equal(t, defaultDocument, assemble(t, New()))
}

// configured returns a sheet with every optional section set.
func configured(t *testing.T) *Worksheet {
	t.Helper()
	ws := New()
	for _, c := range [][2]int{{0, 0}, {9, 2}} {
		require.NoError(t, ws.ObserveCell(c[0], c[1]))
	}
	require.NoError(t, ws.SetTabColor("#FF0000"))
	require.NoError(t, ws.FreezePanes(1, 0, -1, -1))
	require.NoError(t, ws.SetColumn(0, 0, 10, nil))
	require.NoError(t, ws.Protect("password", nil))
	require.NoError(t, ws.SetAutoFilter(CellRange{0, 0, 9, 2}))
	require.NoError(t, ws.MergeRange(CellRange{10, 0, 11, 1}))
	require.NoError(t, ws.AddConditionalFormat(CellRange{1, 1, 9, 1},
		ConditionalFormat{Operator: GreaterThan, Value: "5"}))
	require.NoError(t, ws.AddValidation(Cell(1, 2), Validation{Type: ValidateList, Source: []string{"a", "b"}}))
	require.NoError(t, ws.AddHyperlink(0, 0, "https://example.com/", nil))
	ws.PrintGridlines(true)
	require.NoError(t, ws.SetOrientation(Landscape))
	require.NoError(t, ws.SetHeader("&CTitle", -1))
	require.NoError(t, ws.SetHPageBreaks(5))
	require.NoError(t, ws.SetVPageBreaks(2))
	_, err := ws.AttachDrawing("../drawings/drawing1.xml")
	require.NoError(t, err)
	_, err = ws.AttachTable("../tables/table1.xml")
	require.NoError(t, err)
	return ws
}

func TestDeterministic(t *testing.T) {
	ws := configured(t)
	first := assemble(t, ws)
	require.Equal(t, first, assemble(t, ws))
}

func TestSectionOrder(t *testing.T) {
	doc := assemble(t, configured(t))
	last := -1
	for _, name := range []string{
		"<sheetPr>", "<dimension ", "<sheetViews>", "<sheetFormatPr ", "<cols>",
		"<sheetData", "<sheetProtection ", "<autoFilter ", "<mergeCells ",
		"<conditionalFormatting ", "<dataValidations ", "<hyperlinks>",
		"<printOptions ", "<pageMargins ", "<pageSetup ", "<headerFooter>",
		"<rowBreaks ", "<colBreaks ", "<drawing ", "<tableParts ",
	} {
		i := strings.Index(doc, name)
		require.Greaterf(t, i, last, "%s out of order in\n%s", name, doc)
		require.Equal(t, 1, strings.Count(doc, name), name)
		last = i
	}
	require.True(t, strings.HasSuffix(doc, "</tableParts></worksheet>"))
}

func TestDimension(t *testing.T) {
	for _, tc := range []struct {
		name  string
		cells [][2]int
		want  string
	}{
		{"empty", nil, `<dimension ref="A1"/>`},
		{"single", [][2]int{{2, 1}}, `<dimension ref="B3"/>`},
		{"range", [][2]int{{0, 0}, {9, 2}}, `<dimension ref="A1:C10"/>`},
		{"unordered", [][2]int{{9, 0}, {0, 2}, {4, 1}}, `<dimension ref="A1:C10"/>`},
		{"last cell", [][2]int{{sheetxml.MaxRows - 1, sheetxml.MaxCols - 1}}, `<dimension ref="XFD1048576"/>`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ws := New()
			for _, c := range tc.cells {
				require.NoError(t, ws.ObserveCell(c[0], c[1]))
			}
			require.Contains(t, assemble(t, ws), tc.want)
		})
	}
}

func TestSelect(t *testing.T) {
	ws := New()
	ws.Hide()
	require.False(t, ws.Selected())
	require.NotContains(t, assemble(t, ws), "tabSelected")

	ws.Select()
	require.True(t, ws.Selected())
	require.False(t, ws.Hidden())
	require.Contains(t, assemble(t, ws), `<sheetView tabSelected="1" workbookViewId="0"/>`)

	ws.Activate()
	ws.Deselect()
	require.False(t, ws.Active())
	require.Contains(t, assemble(t, ws), `<sheetView workbookViewId="0"/>`)
}

func TestNamespaces(t *testing.T) {
	ws := New()
	require.NotContains(t, assemble(t, ws), "x14ac")

	require.NoError(t, ws.SetSchema(SchemaExtended))
	doc := assemble(t, ws)
	require.Contains(t, doc, `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"`+
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`+
		` xmlns:mc="http://schemas.openxmlformats.org/markup-compatibility/2006"`+
		` xmlns:x14ac="http://schemas.microsoft.com/office/spreadsheetml/2009/9/ac"`+
		` mc:Ignorable="x14ac">`)
	require.Contains(t, doc, `<sheetFormatPr defaultRowHeight="15" x14ac:dyDescent="0.25"/>`)

	require.ErrorIs(t, ws.SetSchema(SchemaVersion(7)), sheetxml.ErrInvalidConfiguration)
}

func TestPageMargins(t *testing.T) {
	ws := New()
	require.NoError(t, ws.SetMargins(Margins{Left: 1, Right: 1, Top: 1.25, Bottom: 1.25, Header: 0.5, Footer: 0.5}))
	require.Contains(t, assemble(t, ws),
		`<pageMargins left="1" right="1" top="1.25" bottom="1.25" header="0.5" footer="0.5"/></worksheet>`)
	require.ErrorIs(t, ws.SetMargins(Margins{Left: -1}), sheetxml.ErrInvalidConfiguration)
	require.Equal(t, 1.25, ws.Margins().Top)
}

func TestSections(t *testing.T) {
	for _, tc := range []struct {
		name  string
		setup func(*Worksheet) error
		want  string
	}{
		{"tab color", func(ws *Worksheet) error { return ws.SetTabColor("ff0000") },
			`<sheetPr><tabColor rgb="FFFF0000"/></sheetPr><dimension`},
		{"outline", func(ws *Worksheet) error { ws.SetOutlineSettings(true, false, true, false); return nil },
			`<sheetPr><outlinePr summaryBelow="0"/></sheetPr>`},
		{"zoom", func(ws *Worksheet) error { return ws.SetZoom(150) },
			`<sheetView tabSelected="1" zoomScale="150" zoomScaleNormal="150" workbookViewId="0"/>`},
		{"page layout view", func(ws *Worksheet) error { return ws.SetView(ViewPageLayout) },
			`<sheetView tabSelected="1" view="pageLayout" workbookViewId="0"/>`},
		{"view flags", func(ws *Worksheet) error {
			ws.HideScreenGridlines(true)
			ws.HideZeros(true)
			ws.SetRightToLeft(true)
			return nil
		}, `<sheetView showGridLines="0" showZeros="0" rightToLeft="1" tabSelected="1" workbookViewId="0"/>`},
		{"freeze row", func(ws *Worksheet) error { return ws.FreezePanes(1, 0, -1, -1) },
			`<sheetView tabSelected="1" workbookViewId="0"><pane ySplit="1" topLeftCell="A2" activePane="bottomLeft" state="frozen"/><selection pane="bottomLeft"/></sheetView>`},
		{"freeze column", func(ws *Worksheet) error { return ws.FreezePanes(0, 1, -1, -1) },
			`<pane xSplit="1" topLeftCell="B1" activePane="topRight" state="frozen"/><selection pane="topRight"/>`},
		{"freeze both", func(ws *Worksheet) error { return ws.FreezePanes(1, 1, -1, -1) },
			`<pane xSplit="1" ySplit="1" topLeftCell="B2" activePane="bottomRight" state="frozen"/>` +
				`<selection pane="topRight" activeCell="B1" sqref="B1"/>` +
				`<selection pane="bottomLeft" activeCell="A2" sqref="A2"/>` +
				`<selection pane="bottomRight"/>`},
		{"freeze with selection", func(ws *Worksheet) error {
			if err := ws.SetSelection(CellRange{3, 3, 4, 4}); err != nil {
				return err
			}
			return ws.FreezePanes(1, 0, -1, -1)
		}, `<selection pane="bottomLeft" activeCell="D4" sqref="D4:E5"/>`},
		{"split", func(ws *Worksheet) error { return ws.SplitPanes(15, 0, -1, -1) },
			`<pane ySplit="600" topLeftCell="A2" activePane="bottomLeft"/><selection pane="bottomLeft" activeCell="A2" sqref="A2"/>`},
		{"selection", func(ws *Worksheet) error { return ws.SetSelection(CellRange{1, 1, 3, 2}) },
			`<sheetView tabSelected="1" workbookViewId="0"><selection activeCell="B2" sqref="B2:C4"/></sheetView>`},
		{"row height", func(ws *Worksheet) error { return ws.SetDefaultRowHeight(20, true) },
			`<sheetFormatPr defaultRowHeight="20" customHeight="1" zeroHeight="1"/>`},
		{"row outline", func(ws *Worksheet) error { return ws.NoteRowOutlineLevel(2) },
			`<sheetFormatPr defaultRowHeight="15" outlineLevelRow="2"/>`},
		{"columns", func(ws *Worksheet) error {
			if err := ws.SetColumn(1, 2, -1, &ColumnOptions{Hidden: true, Level: 1}); err != nil {
				return err
			}
			return ws.SetColumn(0, 0, 10, &ColumnOptions{Style: 3})
		}, `<sheetFormatPr defaultRowHeight="15" outlineLevelCol="1"/><cols>` +
			`<col min="1" max="1" width="10.7109375" style="3" customWidth="1"/>` +
			`<col min="2" max="3" width="0" hidden="1" customWidth="1" outlineLevel="1"/></cols><sheetData/>`},
		{"protection", func(ws *Worksheet) error { return ws.Protect("password", nil) },
			`<sheetData/><sheetProtection password="83AF" sheet="1" objects="1" scenarios="1"/><pageMargins`},
		{"protection options", func(ws *Worksheet) error {
			return ws.Protect("", &ProtectionOptions{AllowEditObjects: true, AllowFormatCells: true, AllowSort: true, DenySelectLockedCells: true})
		}, `<sheetProtection sheet="1" scenarios="1" formatCells="0" selectLockedCells="1" sort="0"/>`},
		{"autofilter", func(ws *Worksheet) error { return ws.SetAutoFilter(CellRange{0, 0, 9, 2}) },
			`<autoFilter ref="A1:C10"/>`},
		{"merge", func(ws *Worksheet) error { return ws.MergeRange(CellRange{1, 1, 0, 0}) },
			`<mergeCells count="1"><mergeCell ref="A1:B2"/></mergeCells>`},
		{"conditional format", func(ws *Worksheet) error {
			r := CellRange{0, 0, 9, 0}
			if err := ws.AddConditionalFormat(r, ConditionalFormat{Operator: Between, Value: "=1", Maximum: "10", StopIfTrue: true}); err != nil {
				return err
			}
			return ws.AddConditionalFormat(r, ConditionalFormat{Type: CondExpression, Value: "$A1>5", Format: 1})
		}, `<conditionalFormatting sqref="A1:A10">` +
			`<cfRule type="cellIs" dxfId="0" priority="1" stopIfTrue="1" operator="between"><formula>1</formula><formula>10</formula></cfRule>` +
			`<cfRule type="expression" dxfId="1" priority="2"><formula>$A1&gt;5</formula></cfRule>` +
			`</conditionalFormatting>`},
		{"list validation", func(ws *Worksheet) error {
			return ws.AddValidation(Cell(0, 1), Validation{Type: ValidateList, Source: []string{"a", "b"}})
		}, `<dataValidations count="1"><dataValidation type="list" allowBlank="1" showInputMessage="1" showErrorMessage="1" sqref="B1">` +
			`<formula1>&quot;a,b&quot;</formula1></dataValidation></dataValidations>`},
		{"whole validation", func(ws *Worksheet) error {
			return ws.AddValidation(CellRange{0, 0, 4, 0}, Validation{
				Type: ValidateWhole, Operator: GreaterThan, Formula1: "0",
				DisallowBlank: true, ErrorStyle: ErrorWarning, ErrorTitle: "Oops", ErrorMessage: "Positive only",
			})
		}, `<dataValidation type="whole" operator="greaterThan" errorStyle="warning" showInputMessage="1" showErrorMessage="1"` +
			` errorTitle="Oops" error="Positive only" sqref="A1:A5"><formula1>0</formula1></dataValidation>`},
		{"any validation", func(ws *Worksheet) error {
			return ws.AddValidation(Cell(0, 0), Validation{InputTitle: "Hint", InputMessage: "Anything"})
		}, `<dataValidation allowBlank="1" showInputMessage="1" showErrorMessage="1" promptTitle="Hint" prompt="Anything" sqref="A1"/>`},
		{"external hyperlink", func(ws *Worksheet) error {
			return ws.AddHyperlink(0, 0, "https://example.com/a#top", &HyperlinkOptions{Tooltip: "go"})
		}, `<hyperlinks><hyperlink ref="A1" r:id="rId1" location="top" tooltip="go"/></hyperlinks>`},
		{"internal hyperlink", func(ws *Worksheet) error { return ws.AddHyperlink(1, 0, "internal:Sheet2!A1", nil) },
			`<hyperlinks><hyperlink ref="A2" location="Sheet2!A1" display="Sheet2!A1"/></hyperlinks>`},
		{"print options", func(ws *Worksheet) error {
			ws.PrintGridlines(true)
			ws.CenterHorizontally(true)
			return nil
		}, `<printOptions horizontalCentered="1" gridLines="1"/><pageMargins`},
		{"landscape", func(ws *Worksheet) error { return ws.SetOrientation(Landscape) },
			`/><pageSetup orientation="landscape"/></worksheet>`},
		{"fit to pages", func(ws *Worksheet) error {
			if err := ws.SetPaperSize(9); err != nil {
				return err
			}
			return ws.FitToPages(1, 0)
		}, `<pageSetup paperSize="9" fitToHeight="0" orientation="portrait"/>`},
		{"first page", func(ws *Worksheet) error {
			if err := ws.SetFirstPageNumber(3); err != nil {
				return err
			}
			if err := ws.SetPrintScale(80); err != nil {
				return err
			}
			return ws.SetPageOrder(OverThenDown)
		}, `<pageSetup scale="80" firstPageNumber="3" pageOrder="overThenDown" orientation="portrait" useFirstPageNumber="1"/>`},
		{"header footer", func(ws *Worksheet) error {
			if err := ws.SetHeader("&CPage &P", 0.4); err != nil {
				return err
			}
			return ws.SetFooter("&R<end>", -1)
		}, `header="0.4" footer="0.3"/><headerFooter><oddHeader>&amp;CPage &amp;P</oddHeader><oddFooter>&amp;R&lt;end&gt;</oddFooter></headerFooter>`},
		{"page breaks", func(ws *Worksheet) error {
			if err := ws.SetHPageBreaks(20, 0, 20, 10); err != nil {
				return err
			}
			return ws.SetVPageBreaks(3)
		}, `<rowBreaks count="2" manualBreakCount="2"><brk id="10" max="16383" man="1"/><brk id="20" max="16383" man="1"/></rowBreaks>` +
			`<colBreaks count="1" manualBreakCount="1"><brk id="3" max="1048575" man="1"/></colBreaks>`},
		{"drawing and tables", func(ws *Worksheet) error {
			if _, err := ws.AttachTable("../tables/table1.xml"); err != nil {
				return err
			}
			_, err := ws.AttachDrawing("../drawings/drawing1.xml")
			return err
		}, `<drawing r:id="rId2"/><tableParts count="1"><tablePart r:id="rId1"/></tableParts></worksheet>`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ws := New()
			require.NoError(t, tc.setup(ws))
			require.Contains(t, assemble(t, ws), tc.want)
		})
	}
}

type fakeData struct{ rows int }

func (d fakeData) HasRows() bool { return d.rows != 0 }
func (d fakeData) WriteRows(e sheetxml.Emitter) error {
	for i := range d.rows {
		if err := e.EmptyTag("row", sheetxml.Attr{Name: "r", Value: itoa(i + 1)}); err != nil {
			return err
		}
	}
	return nil
}

func TestSheetData(t *testing.T) {
	ws := New()
	ws.SetSheetData(fakeData{})
	require.Contains(t, assemble(t, ws), `<sheetData/>`)
	ws.SetSheetData(fakeData{rows: 2})
	require.Contains(t, assemble(t, ws), `<sheetData><row r="1"/><row r="2"/></sheetData>`)
}

var errBoom = errors.New("boom")

// failingEmitter records the elements and fails on the one named fail.
type failingEmitter struct {
	fail     string
	names    []string
	flushed  bool
	released bool
	flushErr error
}

func (e *failingEmitter) Declaration() error { return nil }
func (e *failingEmitter) tag(name string) error {
	if name == e.fail {
		return errBoom
	}
	e.names = append(e.names, name)
	return nil
}
func (e *failingEmitter) StartTag(name string, _ ...sheetxml.Attr) error { return e.tag(name) }
func (e *failingEmitter) EndTag(name string) error                       { return nil }
func (e *failingEmitter) EmptyTag(name string, _ ...sheetxml.Attr) error { return e.tag(name) }
func (e *failingEmitter) DataElement(name, _ string, _ ...sheetxml.Attr) error {
	return e.tag(name)
}
func (e *failingEmitter) Flush() error {
	e.flushed = true
	return e.flushErr
}
func (e *failingEmitter) Release() { e.released = true }

func TestWriteError(t *testing.T) {
	for _, tc := range []struct {
		fail, section string
	}{
		{"pageMargins", "pageMargins"},
		{"selection", "sheetViews"},
		{"formula", "conditionalFormatting"},
		{"worksheet", "worksheet"},
	} {
		t.Run(tc.fail, func(t *testing.T) {
			ws := New()
			require.NoError(t, ws.SetSelection(Cell(2, 2)))
			require.NoError(t, ws.AddConditionalFormat(Cell(0, 0), ConditionalFormat{Operator: Equal, Value: "1"}))
			e := &failingEmitter{fail: tc.fail}
			err := NewAssembler(e).Assemble(ws)
			require.ErrorIs(t, err, errBoom)
			var we *WriteError
			require.ErrorAs(t, err, &we)
			require.Equal(t, tc.section, we.Section)
			require.False(t, e.flushed)
			require.True(t, e.released)
		})
	}

	e := &failingEmitter{flushErr: errBoom}
	err := NewAssembler(e).Assemble(New())
	require.ErrorIs(t, err, errBoom)
	require.True(t, e.flushed)
	require.True(t, e.released)
	require.Equal(t, []string{"worksheet", "dimension", "sheetViews", "sheetView", "sheetFormatPr", "sheetData", "pageMargins"}, e.names)
}

func TestSchemaConsumer(t *testing.T) {
	for _, tc := range []struct {
		name string
		ws   func() *Worksheet
		ref  string
	}{
		{"default", New, "A1"},
		{"configured", func() *Worksheet { return configured(t) }, "A1:C10"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			x := sml.NewWorksheet()
			require.NoError(t, xml.Unmarshal([]byte(assemble(t, tc.ws())), x))
			require.NotNil(t, x.Dimension)
			require.Equal(t, tc.ref, x.Dimension.RefAttr)
			require.NotNil(t, x.PageMargins)
			require.Equal(t, 0.7, x.PageMargins.LeftAttr)
			require.Equal(t, 0.3, x.PageMargins.FooterAttr)
		})
	}
}

func TestAssemblerReuse(t *testing.T) {
	var buf strings.Builder
	a := NewAssembler(xmlwriter.New(&buf))
	require.NoError(t, a.Assemble(New()))
	require.Equal(t, defaultDocument, buf.String())

	err := a.Assemble(New())
	require.ErrorIs(t, err, xmlwriter.ErrFlushed)
	var we *WriteError
	require.ErrorAs(t, err, &we)
	require.Equal(t, "declaration", we.Section)
	require.Equal(t, defaultDocument, buf.String())
}

func TestControlCharactersDropped(t *testing.T) {
	ws := New()
	require.NoError(t, ws.SetHeader("a\x01b", -1))
	require.NoError(t, ws.AddHyperlink(0, 0, "internal:Sheet2!A1", &HyperlinkOptions{Tooltip: "tip\x1f"}))
	doc := assemble(t, ws)
	require.Contains(t, doc, `<oddHeader>ab</oddHeader>`)
	require.Contains(t, doc, `tooltip="tip"`)
	require.NoError(t, xml.Unmarshal([]byte(doc), sml.NewWorksheet()))
}
