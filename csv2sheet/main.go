// Copyright 2021, 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Command csv2sheet converts CSV files into SpreadsheetML worksheet parts.
//
// With one input and no -zip, the worksheet part is written as is; otherwise
// every input becomes a sheet of a zip archive of worksheet parts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/UNO-SOFT/sheetxml"
	"github.com/UNO-SOFT/sheetxml/worksheet"
	"github.com/UNO-SOFT/sheetxml/xlsx"
	"github.com/UNO-SOFT/sheetxml/xmlwriter"
	"github.com/UNO-SOFT/zlog/v2"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
)

var verbose zlog.VerboseVar
var logger = zlog.NewLogger(zlog.MaybeConsoleHandler(&verbose, os.Stderr)).SLog()

func main() {
	if err := Main(); err != nil {
		logger.Error("MAIN", "error", err)
		os.Exit(1)
	}
}

// sheetConfig is the worksheet layout given on the command line.
type sheetConfig struct {
	Extended       bool
	Landscape      bool
	Paper          int
	Fit            string
	Freeze         string
	AutoFilter     bool
	Zoom           int
	TabColor       string
	HideGridlines  bool
	PrintGridlines bool
	Header, Footer string
	Protect        string
}

func Main() error {
	var cfg sheetConfig
	fs := flag.NewFlagSet("csv2sheet", flag.ContinueOnError)
	fs.Var(&verbose, "v", "logging verbosity")
	flagEnc := fs.String("charset", sheetxml.EncName, "csv charset name")
	flagOut := fs.String("o", "", "output file name (default stdout)")
	flagZip := fs.Bool("zip", false, "write a zip of worksheet parts, even for one input")
	fs.String("config", "", "config file (flag value pairs)")
	fs.BoolVar(&cfg.Extended, "extended", false, "declare the Excel 2010 (x14ac) namespaces")
	fs.BoolVar(&cfg.Landscape, "landscape", false, "landscape orientation (default: portrait)")
	fs.IntVar(&cfg.Paper, "paper", 0, "paper size index (1: Letter, 9: A4)")
	fs.StringVar(&cfg.Fit, "fit", "", "fit the printout to WxH pages")
	fs.StringVar(&cfg.Freeze, "freeze", "", "freeze the panes above and left of this cell (B2: the header row and first column)")
	fs.BoolVar(&cfg.AutoFilter, "autofilter", false, "autofilter on the header row")
	fs.IntVar(&cfg.Zoom, "zoom", 100, "zoom percent")
	fs.StringVar(&cfg.TabColor, "tab-color", "", "tab color as RRGGBB")
	fs.BoolVar(&cfg.HideGridlines, "hide-gridlines", false, "hide the gridlines on screen")
	fs.BoolVar(&cfg.PrintGridlines, "print-gridlines", false, "print the gridlines")
	fs.StringVar(&cfg.Header, "header", "", "page header (&L, &C, &R sections)")
	fs.StringVar(&cfg.Footer, "footer", "", "page footer")
	fs.StringVar(&cfg.Protect, "protect", "", "protect the sheet with this password")

	app := ffcli.Command{Name: "csv2sheet", FlagSet: fs,
		ShortUsage: "csv2sheet [flags] [sheet:]file.csv...",
		Options: []ff.Option{
			ff.WithEnvVarPrefix("CSV2SHEET"),
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ff.PlainParser),
			ff.WithAllowMissingConfigFile(true),
		},
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			out := *flagOut
			asZip := *flagZip || len(args) > 1 ||
				strings.HasSuffix(out, ".zip") || strings.HasSuffix(out, ".xlsx")

			fh := os.Stdout
			if !(out == "" || out == "-") {
				var err error
				if fh, err = os.Create(out); err != nil {
					return err
				}
			}
			defer fh.Close()

			if asZip {
				w := xlsx.NewWriter(fh)
				w.Logger = logger
				if cfg.Extended {
					w.Schema = worksheet.SchemaExtended
				}
				for i, arg := range args {
					if err := ctx.Err(); err != nil {
						return err
					}
					name, fn := sheetName(i, arg)
					sh, err := readCSV(ctx, fn, *flagEnc, func(cols []sheetxml.Column) (*xlsx.Sheet, error) {
						return w.AddSheet(name, cols)
					})
					if err != nil {
						return fmt.Errorf("%q: %w", fn, err)
					}
					if err = cfg.apply(sh); err != nil {
						return fmt.Errorf("%q: %w", fn, err)
					}
				}
				if err := w.Close(); err != nil {
					return err
				}
				return fh.Close()
			}

			name, fn := sheetName(0, args[0])
			sh, err := readCSV(ctx, fn, *flagEnc, func(cols []sheetxml.Column) (*xlsx.Sheet, error) {
				return xlsx.NewSheet(name, cols)
			})
			if err != nil {
				return fmt.Errorf("%q: %w", fn, err)
			}
			if err = cfg.apply(sh); err != nil {
				return fmt.Errorf("%q: %w", fn, err)
			}
			if err = writePart(fh, sh.Worksheet()); err != nil {
				return err
			}
			return fh.Close()
		},
	}

	if err := app.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return app.Run(ctx)
}

// sheetName splits "name:file"; without a name, the sheet is named after the file.
func sheetName(i int, arg string) (name, fn string) {
	if name, fn, ok := strings.Cut(arg, ":"); ok && name != "" {
		return name, fn
	}
	if arg == "" || arg == "-" {
		return fmt.Sprintf("Sheet%d", i+1), arg
	}
	return strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg)), arg
}

// readCSV reads fn into the sheet returned by newSheet, the first record
// being the header.
func readCSV(ctx context.Context, fn, encName string, newSheet func([]sheetxml.Column) (*xlsx.Sheet, error)) (*xlsx.Sheet, error) {
	cr, err := sheetxml.OpenCSV(fn, encName)
	if err != nil {
		return nil, err
	}
	defer cr.Close()
	logger.Debug("csv", "file", fn, "charset", encName, "separator", string(cr.Separator))

	row, err := cr.Read()
	if err != nil {
		return nil, err
	}
	cols := make([]sheetxml.Column, len(row))
	for i, s := range row {
		cols[i].Name = s
	}
	sh, err := newSheet(cols)
	if err != nil {
		return nil, err
	}

	var values []any
	for {
		if row, err = cr.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		if sh.Len()%65536 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		values = values[:0]
		for _, s := range row {
			values = append(values, s)
		}
		if err = sh.AppendRow(values...); err != nil {
			return nil, err
		}
	}
	logger.Info("read", "file", fn, "sheet", sh.Name, "rows", sh.Len(), "columns", len(cols))
	return sh, sh.Close()
}

func (cfg sheetConfig) apply(sh *xlsx.Sheet) error {
	ws := sh.Worksheet()
	if cfg.Extended {
		if err := ws.SetSchema(worksheet.SchemaExtended); err != nil {
			return err
		}
	}
	if cfg.Landscape {
		if err := ws.SetOrientation(worksheet.Landscape); err != nil {
			return err
		}
	}
	if cfg.Paper != 0 {
		if err := ws.SetPaperSize(cfg.Paper); err != nil {
			return err
		}
	}
	if cfg.Fit != "" {
		var width, height int
		if _, err := fmt.Sscanf(cfg.Fit, "%dx%d", &width, &height); err != nil {
			return fmt.Errorf("fit %q: %w", cfg.Fit, err)
		}
		if err := ws.FitToPages(width, height); err != nil {
			return err
		}
	}
	if cfg.Freeze != "" {
		r, err := worksheet.ParseRange(cfg.Freeze)
		if err != nil {
			return err
		}
		if err = ws.FreezePanes(r.FirstRow, r.FirstCol, -1, -1); err != nil {
			return err
		}
	}
	if cfg.AutoFilter {
		if d, ok := ws.Dimension().Range(); ok {
			if err := ws.SetAutoFilter(worksheet.CellRange{LastRow: d.LastRow, LastCol: d.LastCol}); err != nil {
				return err
			}
		}
	}
	if cfg.Zoom != 100 {
		if err := ws.SetZoom(cfg.Zoom); err != nil {
			return err
		}
	}
	if cfg.TabColor != "" {
		if err := ws.SetTabColor(cfg.TabColor); err != nil {
			return err
		}
	}
	ws.HideScreenGridlines(cfg.HideGridlines)
	ws.PrintGridlines(cfg.PrintGridlines)
	if cfg.Header != "" {
		if err := ws.SetHeader(cfg.Header, -1); err != nil {
			return err
		}
	}
	if cfg.Footer != "" {
		if err := ws.SetFooter(cfg.Footer, -1); err != nil {
			return err
		}
	}
	if cfg.Protect != "" {
		if err := ws.Protect(cfg.Protect, nil); err != nil {
			return err
		}
	}
	return nil
}

func writePart(w io.Writer, ws *worksheet.Worksheet) error {
	a := worksheet.NewAssembler(xmlwriter.New(w))
	a.Logger = logger
	return a.Assemble(ws)
}
