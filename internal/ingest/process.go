package ingest

import (
	"strings"
)

// Process converts every row of the table into a NormalizedTransaction using
// the supplied mapping and convention. It is pure: the table is never
// mutated, and calling it again (with the same or an edited mapping) yields
// an independent result set. Errors are collected per row; a batch with zero
// valid rows still returns the complete result set.
func Process(table *RawTable, mapping ColumnMapping, convention StatementConvention) []NormalizedTransaction {
	results := make([]NormalizedTransaction, 0, len(table.Rows))
	for i, row := range table.Rows {
		results = append(results, processRow(i, row, mapping, convention))
	}
	return results
}

func processRow(index int, row []Cell, mapping ColumnMapping, convention StatementConvention) NormalizedTransaction {
	tx := NormalizedTransaction{SourceRowIndex: index}

	if mapping.Date == Unassigned {
		tx.Errors = append(tx.Errors, ErrDateUnmapped)
	} else {
		tx.Date = NormalizeDate(cellAt(row, mapping.Date))
		if tx.Date == "" {
			tx.Errors = append(tx.Errors, ErrDateInvalid)
		}
	}

	tx.Description = cellText(row, mapping.Description)
	tx.SecondaryDescription = cellText(row, mapping.SecondaryDescription)

	debit, credit, amountErrs := ResolveAmounts(row, mapping, convention)
	tx.DebitAmount = debit
	tx.CreditAmount = credit
	tx.Errors = append(tx.Errors, amountErrs...)

	tx.IsValid = len(tx.Errors) == 0
	return tx
}

// CountValid returns how many transactions in a result set are importable.
func CountValid(txs []NormalizedTransaction) int {
	n := 0
	for _, tx := range txs {
		if tx.IsValid {
			n++
		}
	}
	return n
}

func cellAt(row []Cell, col int) Cell {
	if col < 0 || col >= len(row) {
		return nil
	}
	return row[col]
}

// cellText renders a cell as trimmed text; unmapped columns yield "".
func cellText(row []Cell, col int) string {
	c := cellAt(row, col)
	if c == nil {
		return ""
	}
	if s, ok := c.(string); ok {
		return strings.TrimSpace(s)
	}
	// Description columns occasionally carry numeric references; keep them.
	if d, ok := parseDecimalCell(c); ok {
		return d.String()
	}
	return ""
}
