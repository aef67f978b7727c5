package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// SecondaryHeaderMarker locates the real header row of analytics exports
// that start with several lines of report metadata.
const SecondaryHeaderMarker = "landing page"

// Table is a delimited export split into a header and data rows.
type Table struct {
	Header    []string
	Rows      [][]string
	Delimiter rune
}

// TableOptions controls how ReadTable locates the header row.
type TableOptions struct {
	// HeaderMarker, when set, discards every line before the first line that
	// contains it (case-insensitive). When no line matches, the first
	// non-empty line is used as header.
	HeaderMarker string
}

// ReadTable reads a comma or semicolon separated export. Byte order marks
// are honoured, so UTF-16 spreadsheet exports decode as well as UTF-8.
func ReadTable(r io.Reader, opts TableOptions) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	raw, err := io.ReadAll(decoded)
	if err != nil {
		return nil, &InputFormatError{Reason: "could not read export", Err: err}
	}

	lines := strings.Split(string(raw), "\n")
	start := headerIndex(lines, opts.HeaderMarker)
	if start < 0 {
		return nil, &InputFormatError{Reason: "export is empty"}
	}

	delim := DetectDelimiter(lines[start])
	reader := csv.NewReader(strings.NewReader(strings.Join(lines[start:], "\n")))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, &InputFormatError{Reason: "export is not a valid delimited file", Err: err}
		}
		return nil, &InputFormatError{Reason: "could not parse export", Err: err}
	}
	if len(records) == 0 {
		return nil, &InputFormatError{Reason: "export is empty"}
	}

	t := &Table{Delimiter: delim}
	for i, name := range records[0] {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		t.Header = append(t.Header, name)
	}
	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// DetectDelimiter picks the separator that occurs most often in line.
// Commas win ties.
func DetectDelimiter(line string) rune {
	commas := strings.Count(line, ",")
	semicolons := strings.Count(line, ";")
	tabs := strings.Count(line, "\t")
	switch {
	case semicolons > commas && semicolons >= tabs:
		return ';'
	case tabs > commas && tabs > semicolons:
		return '\t'
	default:
		return ','
	}
}

func headerIndex(lines []string, marker string) int {
	marker = strings.ToLower(strings.TrimSpace(marker))
	if marker != "" {
		for i, line := range lines {
			if strings.Contains(strings.ToLower(line), marker) {
				return i
			}
		}
	}
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			return i
		}
	}
	return -1
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
