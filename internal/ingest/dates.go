package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Spreadsheet serial dates count days from the 1900 epoch (with the
// traditional leap-year-bug offset), putting 1970-01-01 at serial 25569.
// Values in (25569, 100000) cover calendar years 1970 through roughly 2173;
// numbers outside that window are treated as plain numbers, not dates.
const (
	serialEpochOffset = 25569
	serialMax         = 100000
)

var (
	isoDateRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	dashDateRe  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
)

// NormalizeDate converts a raw cell value into an ISO calendar date string
// (YYYY-MM-DD), or "" when the value cannot be read as a date. Failure is a
// row-level condition, never fatal for the batch.
func NormalizeDate(value Cell) string {
	switch v := value.(type) {
	case time.Time:
		// Calendar fields in the value's own location. Converting through
		// UTC first can shift the day across midnight.
		return civil.DateOf(v).String()
	case float64:
		return serialDateString(v)
	case int:
		return serialDateString(float64(v))
	case string:
		return normalizeDateString(v)
	default:
		return ""
	}
}

// InSerialDateRange reports whether a number falls inside the window treated
// as a spreadsheet serial date.
func InSerialDateRange(v float64) bool {
	return v > serialEpochOffset && v < serialMax
}

func serialDateString(v float64) string {
	if !InSerialDateRange(v) {
		return ""
	}
	epochDays := int(v) - serialEpochOffset
	t := time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, epochDays)
	return civil.DateOf(t).String()
}

func normalizeDateString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Already canonical: return as-is rather than re-parsing, which would
	// reintroduce timezone drift.
	if isoDateRe.MatchString(s) {
		return s
	}

	// Numeric strings inside the serial window come from spreadsheet cells
	// that lost their date formatting.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return serialDateString(f)
	}

	// Ordered rewrite chain: the original string, then MM/DD/YYYY and
	// MM-DD-YYYY reinterpreted both ways round. First valid date wins.
	for _, candidate := range dateCandidates(s) {
		if d, ok := parseCalendarDate(candidate); ok {
			return d.String()
		}
	}
	return ""
}

func dateCandidates(s string) []string {
	candidates := []string{s}
	for _, re := range []*regexp.Regexp{slashDateRe, dashDateRe} {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		first, second, year := m[1], m[2], m[3]
		candidates = append(candidates,
			fmt.Sprintf("%s-%s-%s", year, pad2(first), pad2(second)),
			fmt.Sprintf("%s-%s-%s", year, pad2(second), pad2(first)),
		)
	}
	return candidates
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// parseCalendarDate accepts a YYYY-MM-DD string as a real calendar date with
// a year in [1900, 2100).
func parseCalendarDate(s string) (civil.Date, bool) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, false
	}
	if d.Year < 1900 || d.Year >= 2100 {
		return civil.Date{}, false
	}
	return d, true
}
