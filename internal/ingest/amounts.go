package ingest

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ResolveAmounts computes the canonical (debit, credit) pair for one row.
//
// With separate debit/credit columns mapped, the source values carry
// bank-statement semantics (source credit = money in) and are reversed into
// ledger semantics: money entering the account increases the debit side of a
// cash account under this system's convention. The reversal is a domain rule
// and applies unconditionally whenever the pair is mapped.
//
// With a single amount column mapped, the statement convention decides which
// side a positive amount lands on.
//
// With no monetary column mapped at all, the row gets an AmountUnmapped
// diagnostic and both sides stay zero.
func ResolveAmounts(row []Cell, mapping ColumnMapping, convention StatementConvention) (debit, credit decimal.Decimal, errs []string) {
	switch {
	case mapping.HasSplitAmounts():
		// Split exports put each movement on one side only; a row with both
		// cells populated reverses both and ends up with two non-zero sides.
		sourceDebit := cellDecimal(row, mapping.DebitAmount)
		sourceCredit := cellDecimal(row, mapping.CreditAmount)
		return sourceCredit.Abs(), sourceDebit.Abs(), nil

	case mapping.Amount != Unassigned:
		amount := cellDecimal(row, mapping.Amount)
		moneyOut := amount.IsPositive()
		if convention == CardStyle {
			moneyOut = !moneyOut
		}
		if amount.IsZero() {
			return decimal.Zero, decimal.Zero, nil
		}
		if moneyOut {
			return amount.Abs(), decimal.Zero, nil
		}
		return decimal.Zero, amount.Abs(), nil

	default:
		return decimal.Zero, decimal.Zero, []string{ErrAmountUnmapped}
	}
}

// cellDecimal reads a monetary cell, defaulting to zero for missing, empty
// or malformed values. Messy source data must never abort a batch.
func cellDecimal(row []Cell, col int) decimal.Decimal {
	if col < 0 || col >= len(row) {
		return decimal.Zero
	}
	d, ok := parseDecimalCell(row[col])
	if !ok {
		return decimal.Zero
	}
	return d
}

// currencyReplacer strips thousands separators, currency symbols and
// whitespace before numeric parsing.
var currencyReplacer = strings.NewReplacer(
	",", "",
	"$", "",
	"£", "",
	"€", "",
	" ", "",
	"\u00a0", "",
)

func parseDecimalCell(c Cell) (decimal.Decimal, bool) {
	switch v := c.(type) {
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case string:
		s := currencyReplacer.Replace(strings.TrimSpace(v))
		if s == "" || s == "-" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}
