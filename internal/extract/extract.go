// Package extract turns raw statement files into an intermediate form the
// parser can work with: header-keyed rows for tabular files, ordered text
// lines for documents. No page or column structure is preserved beyond line
// order.
package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned when neither the declared MIME type nor
// the file extension matches a recognized tabular or document format.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Kind identifies which intermediate form a Result carries.
type Kind int

const (
	// KindRows means the result holds tabular rows (CSV input).
	KindRows Kind = iota
	// KindLines means the result holds flattened text lines (PDF input).
	KindLines
)

// Row maps a column header to its raw string value for one tabular record.
type Row map[string]string

// Result is the output of Extract: exactly one of Rows or Lines is populated,
// selected by Kind.
type Result struct {
	Kind  Kind
	Rows  []Row
	Lines []string
}

var tabularMIMETypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true,
}

var documentMIMETypes = map[string]bool{
	"application/pdf": true,
}

// Supported reports whether the declared MIME type or the filename extension
// matches a format Extract can handle. Declared MIME types are unreliable
// across browsers and operating systems, so the extension acts as a fallback.
func Supported(mimeType, filename string) bool {
	return isTabular(mimeType, filename) || isDocument(mimeType, filename)
}

func isTabular(mimeType, filename string) bool {
	if tabularMIMETypes[normalizeMIME(mimeType)] {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".csv")
}

func isDocument(mimeType, filename string) bool {
	if documentMIMETypes[normalizeMIME(mimeType)] {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// normalizeMIME strips parameters like "; charset=utf-8" from a declared type.
func normalizeMIME(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// Extract converts raw file bytes into an intermediate Result. The declared
// MIME type is checked first, then the filename extension.
func Extract(data []byte, mimeType, filename string) (*Result, error) {
	switch {
	case isTabular(mimeType, filename):
		rows, err := extractRows(data)
		if err != nil {
			return nil, fmt.Errorf("extract: tabular %q: %w", filename, err)
		}
		return &Result{Kind: KindRows, Rows: rows}, nil
	case isDocument(mimeType, filename):
		lines, err := extractLines(data)
		if err != nil {
			return nil, fmt.Errorf("extract: document %q: %w", filename, err)
		}
		return &Result{Kind: KindLines, Lines: lines}, nil
	default:
		return nil, fmt.Errorf("%w: mime type %q, filename %q", ErrUnsupportedFormat, mimeType, filename)
	}
}

// extractRows reads CSV bytes into header-keyed rows. The first record is
// taken as the header row; rows shorter than the header are padded with
// empty values so downstream lookups stay total.
func extractRows(data []byte) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []Row
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}
		row := make(Row, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = strings.TrimSpace(record[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// extractLines flattens all PDF text into a single ordered sequence of lines.
func extractLines(data []byte) (lines []string, err error) {
	// The pdf package panics on some malformed inputs; convert that into a
	// regular extraction error so one bad file cannot take down a worker.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading pdf text: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("reading pdf page %d: %w", pageNum, err)
		}
		for _, row := range rows {
			var b strings.Builder
			for _, text := range row.Content {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(text.S)
			}
			line := strings.TrimSpace(b.String())
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return lines, nil
}
