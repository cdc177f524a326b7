package ingest

import (
	"strings"
	"unicode"
)

// KeywordSets holds the per-role header vocabularies the classifier matches
// against. Callers can supply their own (see the config package); zero-value
// slices fall back to the defaults.
type KeywordSets struct {
	Date        []string `yaml:"date"`
	Description []string `yaml:"description"`
	Amount      []string `yaml:"amount"`
	Debit       []string `yaml:"debit"`
	Credit      []string `yaml:"credit"`
}

// DefaultKeywords returns the built-in header vocabularies.
func DefaultKeywords() KeywordSets {
	return KeywordSets{
		Date:        []string{"date", "transaction date", "posted date", "effective date", "dt", "trans date"},
		Description: []string{"description", "memo", "reference", "payee", "vendor", "details", "narrative"},
		Amount:      []string{"amount", "amt", "transaction amount", "net amount"},
		Debit:       []string{"debit", "dr", "withdrawal", "out", "payment"},
		Credit:      []string{"credit", "cr", "deposit", "in", "receipt"},
	}
}

// Classifier suggests a ColumnMapping for an unlabeled table. It is a simple
// ordered rule engine over header keywords, with a content-based fallback
// over sampled cells; the result is a suggestion the caller can override.
type Classifier struct {
	keywords KeywordSets
}

// NewClassifier returns a classifier using the default keyword sets.
func NewClassifier() *Classifier {
	return NewClassifierWithKeywords(DefaultKeywords())
}

// NewClassifierWithKeywords returns a classifier using the supplied keyword
// sets; empty sets fall back to the defaults.
func NewClassifierWithKeywords(ks KeywordSets) *Classifier {
	defaults := DefaultKeywords()
	if len(ks.Date) == 0 {
		ks.Date = defaults.Date
	}
	if len(ks.Description) == 0 {
		ks.Description = defaults.Description
	}
	if len(ks.Amount) == 0 {
		ks.Amount = defaults.Amount
	}
	if len(ks.Debit) == 0 {
		ks.Debit = defaults.Debit
	}
	if len(ks.Credit) == 0 {
		ks.Credit = defaults.Credit
	}
	return &Classifier{keywords: ks}
}

// rolePriority fixes the scan order so a column can never be ambiguously
// double-assigned: the first role a column matches wins.
var rolePriority = []ColumnRole{
	RoleDate,
	RoleDescription,
	RoleAmount,
	RoleDebitAmount,
	RoleCreditAmount,
}

// Classify scores each column against the role vocabularies and returns the
// best suggestion. Headers drive the assignment; sampleRows are only
// consulted when a role finds no header match at all.
func (c *Classifier) Classify(headers []string, sampleRows [][]Cell) ColumnMapping {
	mapping := NewColumnMapping()

	for col, raw := range headers {
		header := strings.ToLower(strings.TrimSpace(raw))
		if header == "" {
			continue
		}
		for _, role := range rolePriority {
			if !c.matchesRole(role, header) {
				continue
			}
			if mapping.Get(role) == Unassigned {
				mapping = mapping.Set(role, col)
			} else if role == RoleDescription && mapping.SecondaryDescription == Unassigned {
				// A second, different column matching the description
				// vocabulary becomes the secondary description.
				mapping.SecondaryDescription = col
			}
			// First matching role claims the column either way.
			break
		}
	}

	mapping = c.fallbackFromSamples(mapping, headers, sampleRows)

	// A debit/credit pair takes precedence over the single-amount
	// interpretation; drop Amount so the sign resolver uses the pair.
	if mapping.HasSplitAmounts() {
		mapping.Amount = Unassigned
	}
	return mapping
}

func (c *Classifier) matchesRole(role ColumnRole, header string) bool {
	switch role {
	case RoleDate:
		return matchKeywords(header, c.keywords.Date)
	case RoleDescription:
		return matchKeywords(header, c.keywords.Description)
	case RoleAmount:
		// "amount" headers qualified by debit/credit belong to the pair
		// roles, not the single-amount role.
		if strings.Contains(header, "debit") || strings.Contains(header, "credit") {
			return false
		}
		return matchKeywords(header, c.keywords.Amount)
	case RoleDebitAmount:
		return matchKeywords(header, c.keywords.Debit)
	case RoleCreditAmount:
		return matchKeywords(header, c.keywords.Credit)
	}
	return false
}

// matchKeywords reports whether the header matches any keyword: exactly, as a
// whole word, or as a multi-word substring. Short tokens like "dr" or "in"
// only match whole words so they cannot fire inside unrelated headers.
func matchKeywords(header string, keywords []string) bool {
	var tokens []string
	for _, kw := range keywords {
		if header == kw {
			return true
		}
		if strings.Contains(kw, " ") {
			if strings.Contains(header, kw) {
				return true
			}
			continue
		}
		if len(kw) >= 4 && strings.Contains(header, kw) {
			return true
		}
		if tokens == nil {
			tokens = headerTokens(header)
		}
		for _, tok := range tokens {
			if tok == kw {
				return true
			}
		}
	}
	return false
}

func headerTokens(header string) []string {
	return strings.FieldsFunc(header, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// fallbackFromSamples fills roles that found no header match by looking at
// the shape of sampled cell contents: date-like columns for the date role, a
// numeric column for the amount role. Columns already claimed by a header
// match are never reused.
func (c *Classifier) fallbackFromSamples(mapping ColumnMapping, headers []string, sampleRows [][]Cell) ColumnMapping {
	if len(sampleRows) == 0 {
		return mapping
	}

	claimed := make(map[int]bool)
	for _, role := range rolePriority {
		if col := mapping.Get(role); col != Unassigned {
			claimed[col] = true
		}
	}
	if mapping.SecondaryDescription != Unassigned {
		claimed[mapping.SecondaryDescription] = true
	}

	if mapping.Date == Unassigned {
		if col := findColumnBy(headers, sampleRows, claimed, cellLooksLikeDate); col != Unassigned {
			mapping.Date = col
			claimed[col] = true
		}
	}
	if !mapping.HasAmountSource() {
		if col := findColumnBy(headers, sampleRows, claimed, cellLooksNumeric); col != Unassigned {
			mapping.Amount = col
		}
	}
	return mapping
}

// findColumnBy returns the first unclaimed column where every sampled
// non-empty cell satisfies pred, requiring at least one such cell.
func findColumnBy(headers []string, sampleRows [][]Cell, claimed map[int]bool, pred func(Cell) bool) int {
	for col := range headers {
		if claimed[col] {
			continue
		}
		matched := 0
		for _, row := range sampleRows {
			if col >= len(row) || isEmptyCell(row[col]) {
				continue
			}
			if !pred(row[col]) {
				matched = 0
				break
			}
			matched++
		}
		if matched > 0 {
			return col
		}
	}
	return Unassigned
}

func isEmptyCell(c Cell) bool {
	if c == nil {
		return true
	}
	s, ok := c.(string)
	return ok && strings.TrimSpace(s) == ""
}

func cellLooksLikeDate(c Cell) bool {
	return NormalizeDate(c) != ""
}

func cellLooksNumeric(c Cell) bool {
	switch c.(type) {
	case float64, int:
		return true
	case string:
		_, ok := parseDecimalCell(c)
		return ok
	}
	return false
}
