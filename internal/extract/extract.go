// Package extract turns uploaded statement files (XLSX, CSV, TSV) into the
// raw tables the ingest package works on. It only extracts cells; column
// meaning is the classifier's job.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/statement-import/internal/ingest"
)

var (
	ErrEmptyFile     = errors.New("file is empty")
	ErrNoHeaderRow   = errors.New("could not find a header row")
	ErrLegacyXLS     = errors.New("legacy .xls files are not supported; re-export as .xlsx or CSV")
	ErrNoSheets      = errors.New("no sheets found in workbook")
	ErrNoDataRows    = errors.New("no data rows below the header")
	ErrUnknownFormat = errors.New("unrecognized file format")
)

// FromBytes sniffs the file format from its magic bytes and extracts a raw
// table. Anything that is not an Excel container is treated as delimited
// text.
func FromBytes(data []byte) (*ingest.RawTable, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	switch {
	case isXLSX(data):
		return FromXLSX(data)
	case isOLE2(data):
		return nil, ErrLegacyXLS
	default:
		return FromCSV(data)
	}
}

// isXLSX checks for the ZIP container header (PK\x03\x04).
func isXLSX(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == 0x50 && data[1] == 0x4B && data[2] == 0x03 && data[3] == 0x04
}

// isOLE2 checks for the OLE2 compound document header used by legacy .xls.
func isOLE2(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == 0xD0 && data[1] == 0xCF && data[2] == 0x11 && data[3] == 0xE0
}

// maxHeaderScan bounds how many leading metadata lines a statement export
// may carry before the real header row.
const maxHeaderScan = 20

// looksLikeHeader reports whether a row of cells contains at least one known
// column-role keyword. Reuses the classifier vocabularies so the two stay in
// sync.
func looksLikeHeader(cells []string) bool {
	ks := ingest.DefaultKeywords()
	sets := [][]string{ks.Date, ks.Description, ks.Amount, ks.Debit, ks.Credit}
	for _, cell := range cells {
		c := strings.ToLower(strings.TrimSpace(cell))
		if c == "" {
			continue
		}
		for _, set := range sets {
			for _, kw := range set {
				if c == kw || (len(kw) >= 4 && strings.Contains(c, kw)) {
					return true
				}
			}
		}
	}
	return false
}

func buildTable(headers []string, dataRows [][]string) (*ingest.RawTable, error) {
	trimmed := make([]string, len(headers))
	for i, h := range headers {
		trimmed[i] = strings.TrimSpace(h)
	}

	table := &ingest.RawTable{Headers: trimmed}
	for _, row := range dataRows {
		if isBlankRow(row) {
			continue
		}
		cells := make([]ingest.Cell, len(row))
		for i, v := range row {
			cells[i] = v
		}
		table.Rows = append(table.Rows, cells)
	}
	if len(table.Rows) == 0 {
		return nil, ErrNoDataRows
	}
	return table, nil
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// SampleRows returns up to n rows for classifier sampling.
func SampleRows(table *ingest.RawTable, n int) [][]ingest.Cell {
	if n > len(table.Rows) {
		n = len(table.Rows)
	}
	return table.Rows[:n]
}

func headerRowError(scanned int) error {
	return fmt.Errorf("%w (scanned first %d rows)", ErrNoHeaderRow, scanned)
}
