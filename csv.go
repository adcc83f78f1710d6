package sheetxml

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// EncName is the charset of the CSV input, from $LANG.
var EncName = "utf-8"

func init() {
	EncName = os.Getenv("LANG")
	if i := strings.IndexByte(EncName, '.'); i >= 0 {
		EncName = strings.ToLower(EncName[i+1:])
	} else {
		EncName = ""
	}
	if EncName == "" {
		EncName = "utf-8"
	}
}

// GetEncoding returns the named encoding, or nil for UTF-8.
func GetEncoding(encName string) (encoding.Encoding, error) {
	encName = strings.ToLower(encName)
	if encName == "" || encName == "utf-8" || encName == "utf8" {
		return nil, nil
	}
	enc, err := htmlindex.Get(encName)
	if err != nil {
		err = fmt.Errorf("%q: %w", encName, err)
	}
	return enc, err
}

// CSVReader reads CSV records, decoded to UTF-8.
type CSVReader struct {
	*csv.Reader
	io.Closer
	// Separator is the sniffed field separator.
	Separator rune
}

// OpenCSV opens fn ("" or "-" is stdin) for reading CSV records in the encName charset.
//
// The separator is the first rune of the first line that is not a letter,
// a number, a space, '"', '_', '.' or '-'; comma if there is none.
func OpenCSV(fn, encName string) (*CSVReader, error) {
	enc, err := GetEncoding(encName)
	if err != nil {
		return nil, err
	}
	fh := os.Stdin
	if !(fn == "" || fn == "-") {
		if fh, err = os.Open(fn); err != nil {
			return nil, err
		}
	}
	return NewCSVReader(fh, enc)
}

// NewCSVReader wraps r; enc may be nil for UTF-8 input.
func NewCSVReader(r io.ReadCloser, enc encoding.Encoding) (*CSVReader, error) {
	var rd io.Reader = r
	if enc != nil {
		rd = enc.NewDecoder().Reader(r)
	}
	br := bufio.NewReaderSize(rd, 1<<20)
	b, err := br.Peek(1024)
	if err != nil && len(b) == 0 {
		r.Close()
		return nil, err
	}
	sep := sniffSeparator(string(b))

	cr := csv.NewReader(br)
	cr.ReuseRecord = true
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	return &CSVReader{Reader: cr, Closer: r, Separator: sep}, nil
}

func sniffSeparator(s string) rune {
	for _, r := range s {
		if r == '"' || r == '_' || r == ' ' || r == '.' || r == '-' ||
			unicode.IsLetter(r) || unicode.IsNumber(r) {
			continue
		}
		if r == '\n' || r == '\r' {
			break
		}
		return r
	}
	return ','
}
