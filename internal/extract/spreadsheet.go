package extract

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/statement-import/internal/ingest"
)

// FromXLSX extracts a raw table from the first sheet of an .xlsx workbook.
// Rows above the detected header row (bank branding, account metadata) are
// skipped.
func FromXLSX(data []byte) (*ingest.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("FromXLSX: opening workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("FromXLSX: reading rows: %w", err)
	}

	headerIdx, err := findSheetHeader(rows)
	if err != nil {
		return nil, err
	}
	if headerIdx+1 >= len(rows) {
		return nil, ErrNoDataRows
	}
	return buildTable(rows[headerIdx], rows[headerIdx+1:])
}

func findSheetHeader(rows [][]string) (int, error) {
	scanned := 0
	for i, row := range rows {
		if i >= maxHeaderScan {
			break
		}
		scanned++
		if looksLikeHeader(row) {
			return i, nil
		}
	}
	return 0, headerRowError(scanned)
}
