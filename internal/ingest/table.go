// Package ingest normalizes arbitrary bank and card statement exports into
// canonical ledger entries. It operates on already-extracted tabular data:
// column-role classification, date normalization and debit/credit resolution
// are all pure functions, so a caller can re-run them with an edited mapping
// against the same table.
package ingest

import (
	"github.com/shopspring/decimal"
)

// Cell is a single raw spreadsheet cell. Extractors produce one of:
// string, float64, int, or time.Time.
type Cell = any

// RawTable is the immutable input produced by the extract package (or any
// other file-parsing collaborator): one header row plus data rows.
type RawTable struct {
	Headers []string `json:"headers"`
	Rows    [][]Cell `json:"rows"`
}

// NumRows returns the number of data rows.
func (t *RawTable) NumRows() int {
	return len(t.Rows)
}

// CellAt returns the cell at (row, col), or nil when the row is ragged and
// has no such column.
func (t *RawTable) CellAt(row, col int) Cell {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return nil
	}
	return t.Rows[row][col]
}

// ColumnRole identifies the semantic meaning of a statement column.
type ColumnRole string

const (
	RoleDate                 ColumnRole = "date"
	RoleDescription          ColumnRole = "description"
	RoleSecondaryDescription ColumnRole = "secondary_description"
	RoleAmount               ColumnRole = "amount"
	RoleDebitAmount          ColumnRole = "debit_amount"
	RoleCreditAmount         ColumnRole = "credit_amount"
)

// Unassigned marks a role with no column index.
const Unassigned = -1

// ColumnMapping assigns a column index to each role, or Unassigned (-1).
// A mapping is a plain value: the classifier produces one as a suggestion and
// the caller may replace any field before reprocessing.
type ColumnMapping struct {
	Date                 int `json:"date"`
	Description          int `json:"description"`
	SecondaryDescription int `json:"secondary_description"`
	Amount               int `json:"amount"`
	DebitAmount          int `json:"debit_amount"`
	CreditAmount         int `json:"credit_amount"`
}

// NewColumnMapping returns a mapping with every role unassigned.
func NewColumnMapping() ColumnMapping {
	return ColumnMapping{
		Date:                 Unassigned,
		Description:          Unassigned,
		SecondaryDescription: Unassigned,
		Amount:               Unassigned,
		DebitAmount:          Unassigned,
		CreditAmount:         Unassigned,
	}
}

// HasSplitAmounts reports whether both a debit and a credit column are
// assigned. The pair is only usable together; a half-assigned pair is treated
// as unassigned by the row processor.
func (m ColumnMapping) HasSplitAmounts() bool {
	return m.DebitAmount != Unassigned && m.CreditAmount != Unassigned
}

// HasAmountSource reports whether any monetary column can be read from this
// mapping.
func (m ColumnMapping) HasAmountSource() bool {
	return m.HasSplitAmounts() || m.Amount != Unassigned
}

// Get returns the column index assigned to role, or Unassigned.
func (m ColumnMapping) Get(role ColumnRole) int {
	switch role {
	case RoleDate:
		return m.Date
	case RoleDescription:
		return m.Description
	case RoleSecondaryDescription:
		return m.SecondaryDescription
	case RoleAmount:
		return m.Amount
	case RoleDebitAmount:
		return m.DebitAmount
	case RoleCreditAmount:
		return m.CreditAmount
	}
	return Unassigned
}

// Set assigns a column index to role and returns the updated mapping.
func (m ColumnMapping) Set(role ColumnRole, col int) ColumnMapping {
	switch role {
	case RoleDate:
		m.Date = col
	case RoleDescription:
		m.Description = col
	case RoleSecondaryDescription:
		m.SecondaryDescription = col
	case RoleAmount:
		m.Amount = col
	case RoleDebitAmount:
		m.DebitAmount = col
	case RoleCreditAmount:
		m.CreditAmount = col
	}
	return m
}

// StatementConvention describes the sign semantics of a single amount column.
// It is only consulted when no separate debit/credit columns are mapped.
type StatementConvention string

const (
	// BankStyle: positive amount = money out of the account.
	BankStyle StatementConvention = "bank"
	// CardStyle: positive amount = money in (spend on a card statement).
	CardStyle StatementConvention = "card"
)

// ParseConvention maps a user-supplied string to a convention, defaulting to
// BankStyle for empty or unknown input.
func ParseConvention(s string) StatementConvention {
	if s == string(CardStyle) {
		return CardStyle
	}
	return BankStyle
}

// Row-scoped diagnostics. Each degrades a single transaction to invalid and
// never aborts the batch.
const (
	ErrDateUnmapped   = "DateUnmapped: no column mapped to the date role"
	ErrDateInvalid    = "DateInvalid: cell did not parse as a date"
	ErrAmountUnmapped = "AmountUnmapped: no amount columns mapped"
)

// NormalizedTransaction is one canonical ledger entry candidate produced from
// a single source row. At most one of DebitAmount/CreditAmount is non-zero:
// the model represents a single-direction movement, matching separate ledger
// debit/credit columns rather than a net signed amount.
type NormalizedTransaction struct {
	SourceRowIndex       int             `json:"source_row_index"`
	Date                 string          `json:"date"` // YYYY-MM-DD, or "" when unparseable
	Description          string          `json:"description"`
	SecondaryDescription string          `json:"secondary_description,omitempty"`
	DebitAmount          decimal.Decimal `json:"debit_amount"`
	CreditAmount         decimal.Decimal `json:"credit_amount"`
	IsValid              bool            `json:"is_valid"`
	Errors               []string        `json:"errors,omitempty"`
}
