package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dvloznov/statement-import/internal/ingest"
)

// candidate delimiters, most specific first: semicolon and tab exports are
// unambiguous, comma is the default, pipe is rare but seen in the wild.
var delimiters = []rune{';', '\t', ',', '|'}

// FromCSV extracts a raw table from delimited text. The delimiter is sniffed
// per file, and leading metadata lines (account banners, date ranges) before
// the real header row are skipped.
func FromCSV(data []byte) (*ingest.RawTable, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}

	lines := splitLines(string(data))
	delim, headerLine, err := findCSVHeader(lines)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines[headerLine:], "\n")))
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // statement exports are frequently ragged

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("FromCSV: %w", err)
		}
		records = append(records, record)
	}
	if len(records) < 2 {
		return nil, ErrNoDataRows
	}
	return buildTable(records[0], records[1:])
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimPrefix(s, "\ufeff") // Excel loves BOMs
	return strings.Split(s, "\n")
}

// findCSVHeader locates the header row and its delimiter: the first line
// within the scan window that contains a known column keyword and splits
// into at least two fields.
func findCSVHeader(lines []string) (rune, int, error) {
	scanned := 0
	for i, line := range lines {
		if i >= maxHeaderScan {
			break
		}
		scanned++
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, d := range delimiters {
			if strings.Count(line, string(d)) < 1 {
				continue
			}
			cells := splitCSVLine(line, d)
			if looksLikeHeader(cells) {
				return d, i, nil
			}
		}
		// Single-column files have no delimiter at all.
		if looksLikeHeader([]string{line}) {
			return ',', i, nil
		}
	}
	return 0, 0, headerRowError(scanned)
}

func splitCSVLine(line string, delim rune) []string {
	r := csv.NewReader(strings.NewReader(line))
	r.Comma = delim
	r.LazyQuotes = true
	cells, err := r.Read()
	if err != nil {
		return strings.Split(line, string(delim))
	}
	return cells
}
