// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package worksheet

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/UNO-SOFT/sheetxml"
)

// MergeRange merges the cells of r. A merge must span at least two cells
// and must not overlap an earlier one.
func (ws *Worksheet) MergeRange(r CellRange) error {
	r, err := r.normalize()
	if err != nil {
		return err
	}
	if r.FirstRow == r.LastRow && r.FirstCol == r.LastCol {
		return fmt.Errorf("merge of the single cell %s: %w", r, sheetxml.ErrInvalidConfiguration)
	}
	for _, m := range ws.merges {
		if m.overlaps(r) {
			return fmt.Errorf("merge %s overlaps %s: %w", r, m, sheetxml.ErrInvalidConfiguration)
		}
	}
	ws.merges = append(ws.merges, r)
	return nil
}

// SetAutoFilter sets the autofilter range, the header row being its first row.
func (ws *Worksheet) SetAutoFilter(r CellRange) error {
	r, err := r.normalize()
	if err != nil {
		return err
	}
	ws.autoFilter = &r
	return nil
}

// CondType is the type of a conditional format rule.
type CondType uint8

const (
	// CondCellIs compares the cell value with Value (and Maximum).
	CondCellIs CondType = iota
	// CondExpression applies the format where the formula Value is true.
	CondExpression
)

// Operator is the comparison of a conditional format or data validation.
type Operator uint8

const (
	Between Operator = iota
	NotBetween
	Equal
	NotEqual
	GreaterThan
	LessThan
	GreaterThanOrEqual
	LessThanOrEqual
)

var operatorTokens = [...]string{
	Between:            "between",
	NotBetween:         "notBetween",
	Equal:              "equal",
	NotEqual:           "notEqual",
	GreaterThan:        "greaterThan",
	LessThan:           "lessThan",
	GreaterThanOrEqual: "greaterThanOrEqual",
	LessThanOrEqual:    "lessThanOrEqual",
}

func (o Operator) String() string {
	if int(o) < len(operatorTokens) {
		return operatorTokens[o]
	}
	return "Operator(" + strconv.Itoa(int(o)) + ")"
}

func (o Operator) ranged() bool { return o == Between || o == NotBetween }

// ConditionalFormat is one conditional formatting rule.
type ConditionalFormat struct {
	Type     CondType
	Operator Operator
	// Value is the (first) formula or constant, without the leading '='.
	Value string
	// Maximum is the second formula of Between and NotBetween.
	Maximum string
	// Format is the index of the external differential format.
	Format     int
	StopIfTrue bool
}

type condRule struct {
	ConditionalFormat
	priority int
}

type condFormatGroup struct {
	sqref string
	rules []condRule
}

// AddConditionalFormat adds a rule to the range r. Rules get ascending
// priorities in the order they are added; rules of the same range are
// written together.
func (ws *Worksheet) AddConditionalFormat(r CellRange, cf ConditionalFormat) error {
	r, err := r.normalize()
	if err != nil {
		return err
	}
	if cf.Type > CondExpression || int(cf.Operator) >= len(operatorTokens) {
		return fmt.Errorf("conditional format type %d operator %d: %w", cf.Type, cf.Operator, sheetxml.ErrInvalidConfiguration)
	}
	cf.Value = strings.TrimPrefix(cf.Value, "=")
	cf.Maximum = strings.TrimPrefix(cf.Maximum, "=")
	if cf.Value == "" || (cf.Type == CondCellIs && cf.Operator.ranged() && cf.Maximum == "") {
		return fmt.Errorf("conditional format on %s without value: %w", r, sheetxml.ErrInvalidConfiguration)
	}
	if cf.Format < 0 {
		return fmt.Errorf("conditional format %d: %w", cf.Format, sheetxml.ErrInvalidConfiguration)
	}
	ws.cfPriority++
	rule := condRule{ConditionalFormat: cf, priority: ws.cfPriority}
	sqref := r.Ref()
	for i := range ws.condFormats {
		if ws.condFormats[i].sqref == sqref {
			ws.condFormats[i].rules = append(ws.condFormats[i].rules, rule)
			return nil
		}
	}
	ws.condFormats = append(ws.condFormats, condFormatGroup{sqref: sqref, rules: []condRule{rule}})
	return nil
}

// ValidationType is what a data validation accepts.
type ValidationType uint8

const (
	ValidateAny ValidationType = iota
	ValidateWhole
	ValidateDecimal
	ValidateList
	ValidateDate
	ValidateTime
	ValidateTextLength
	ValidateCustom
)

var validationTokens = [...]string{
	ValidateAny:        "any",
	ValidateWhole:      "whole",
	ValidateDecimal:    "decimal",
	ValidateList:       "list",
	ValidateDate:       "date",
	ValidateTime:       "time",
	ValidateTextLength: "textLength",
	ValidateCustom:     "custom",
}

// ErrorStyle is the kind of alert shown for invalid input.
type ErrorStyle uint8

const (
	ErrorStop ErrorStyle = iota
	ErrorWarning
	ErrorInformation
)

// Validation is a data validation rule. The zero value accepts anything,
// allows blanks and shows the input and error messages.
type Validation struct {
	Type     ValidationType
	Operator Operator
	// Formula1 and Formula2 are the bounds (Formula2 only for Between and
	// NotBetween), or the list source range / custom formula.
	Formula1, Formula2 string
	// Source lists the allowed values of a ValidateList.
	Source []string

	DisallowBlank bool
	HideDropDown  bool
	HideInput     bool
	HideError     bool
	ErrorStyle    ErrorStyle

	InputTitle, InputMessage string
	ErrorTitle, ErrorMessage string
}

type validation struct {
	Validation
	sqref string
}

const (
	maxValidationTitle   = 32
	maxValidationMessage = 255
	maxValidationList    = 255
)

// AddValidation adds a data validation to r.
func (ws *Worksheet) AddValidation(r CellRange, v Validation) error {
	r, err := r.normalize()
	if err != nil {
		return err
	}
	bad := func(format string, args ...any) error {
		return fmt.Errorf("validation on %s: %s: %w", r, fmt.Sprintf(format, args...), sheetxml.ErrInvalidConfiguration)
	}
	if int(v.Type) >= len(validationTokens) || int(v.Operator) >= len(operatorTokens) || v.ErrorStyle > ErrorInformation {
		return bad("type %d operator %d style %d", v.Type, v.Operator, v.ErrorStyle)
	}
	v.Formula1 = strings.TrimPrefix(v.Formula1, "=")
	v.Formula2 = strings.TrimPrefix(v.Formula2, "=")
	switch v.Type {
	case ValidateAny:
	case ValidateList:
		if len(v.Source) != 0 {
			s := strings.Join(v.Source, ",")
			if n := utf8.RuneCountInString(s); n > maxValidationList {
				return bad("list of %d characters", n)
			}
			v.Formula1 = `"` + s + `"`
		}
		if v.Formula1 == "" {
			return bad("empty list")
		}
	case ValidateCustom:
		if v.Formula1 == "" {
			return bad("no formula")
		}
	default:
		if v.Formula1 == "" || (v.Operator.ranged() && v.Formula2 == "") {
			return bad("missing bound")
		}
	}
	for _, s := range []string{v.InputTitle, v.ErrorTitle} {
		if n := utf8.RuneCountInString(s); n > maxValidationTitle {
			return bad("title of %d characters", n)
		}
	}
	for _, s := range []string{v.InputMessage, v.ErrorMessage} {
		if n := utf8.RuneCountInString(s); n > maxValidationMessage {
			return bad("message of %d characters", n)
		}
	}
	ws.validations = append(ws.validations, validation{Validation: v, sqref: r.Ref()})
	return nil
}

// Relationship is an entry of the worksheet's relationships part.
type Relationship struct {
	ID, Type, Target string
	// TargetMode is "External" for hyperlinks to URLs.
	TargetMode string
}

const relationshipNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

// Relationship types referenced from a worksheet.
const (
	RelHyperlink = relationshipNS + "/hyperlink"
	RelDrawing   = relationshipNS + "/drawing"
	RelTable     = relationshipNS + "/table"
)

// Relationships returns the relationships the worksheet part refers to,
// for the external relationships part writer.
func (ws *Worksheet) Relationships() []Relationship {
	return append([]Relationship(nil), ws.rels...)
}

func (ws *Worksheet) addRel(typ, target, mode string) string {
	id := "rId" + strconv.Itoa(len(ws.rels)+1)
	ws.rels = append(ws.rels, Relationship{ID: id, Type: typ, Target: target, TargetMode: mode})
	return id
}

type hyperlink struct {
	ref, relID, location, tooltip, display string
}

// HyperlinkOptions are the optional hyperlink properties.
type HyperlinkOptions struct {
	Tooltip string
	// Display is the cell text of an internal link.
	Display string
}

const (
	maxHyperlinks = 65530
	maxURLLength  = 2079
	maxTooltip    = 255
)

// AddHyperlink links the cell at row, col. Targets with an "internal:"
// prefix point into the workbook ("internal:Sheet2!A1"); anything else is an
// external URL, optionally with a "#location" anchor. The cell text itself
// is written by the cell writer.
func (ws *Worksheet) AddHyperlink(row, col int, target string, opts *HyperlinkOptions) error {
	if err := checkCell(row, col); err != nil {
		return err
	}
	if len(ws.hyperlinks) >= maxHyperlinks {
		return fmt.Errorf("more than %d hyperlinks: %w", maxHyperlinks, sheetxml.ErrInvalidConfiguration)
	}
	if target == "" || utf8.RuneCountInString(target) > maxURLLength {
		return fmt.Errorf("hyperlink target of %d characters: %w", len(target), sheetxml.ErrInvalidConfiguration)
	}
	h := hyperlink{ref: cellName(row, col)}
	if opts != nil {
		if utf8.RuneCountInString(opts.Tooltip) > maxTooltip {
			return fmt.Errorf("hyperlink tooltip too long: %w", sheetxml.ErrInvalidConfiguration)
		}
		h.tooltip = opts.Tooltip
		h.display = opts.Display
	}
	if loc, ok := strings.CutPrefix(target, "internal:"); ok {
		if loc == "" {
			return fmt.Errorf("empty internal hyperlink: %w", sheetxml.ErrInvalidConfiguration)
		}
		h.location = loc
		if h.display == "" {
			h.display = loc
		}
	} else {
		url, anchor, _ := strings.Cut(target, "#")
		h.location = anchor
		h.display = ""
		h.relID = ws.addRel(RelHyperlink, url, "External")
	}
	ws.hyperlinks = append(ws.hyperlinks, h)
	return nil
}

// AttachDrawing refers to the drawing part at target (relative to the
// worksheet part) and returns its relationship id. A sheet has at most
// one drawing.
func (ws *Worksheet) AttachDrawing(target string) (string, error) {
	if ws.drawingRel != "" {
		return "", fmt.Errorf("second drawing %q: %w", target, sheetxml.ErrInvalidConfiguration)
	}
	if target == "" {
		return "", fmt.Errorf("empty drawing target: %w", sheetxml.ErrInvalidConfiguration)
	}
	ws.drawingRel = ws.addRel(RelDrawing, target, "")
	return ws.drawingRel, nil
}

// AttachTable refers to the table part at target and returns its relationship id.
func (ws *Worksheet) AttachTable(target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("empty table target: %w", sheetxml.ErrInvalidConfiguration)
	}
	id := ws.addRel(RelTable, target, "")
	ws.tableRels = append(ws.tableRels, id)
	return id, nil
}
