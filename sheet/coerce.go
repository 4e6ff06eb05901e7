package sheet

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
)

/* ──────────── numbers ──────────── */

var numberJunkRE = regexp.MustCompile(`[, %]+`)

// ToNumber converts a spreadsheet cell to a finite float64. Blank, unparsable
// and non-finite input all become 0.
func ToNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case json.Number:
		return parseNumber(string(n))
	case decimal.Decimal:
		f, _ := n.Float64()
		return finite(f)
	case string:
		return parseNumber(n)
	case []byte:
		return parseNumber(string(n))
	case bool, time.Time:
		return 0
	default:
		return parseNumber(fmt.Sprint(n))
	}
}

func parseNumber(s string) float64 {
	s = numberJunkRE.ReplaceAllString(strings.TrimSpace(s), "")
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Round rounds half away from zero to the given number of decimal places.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(finite(v)).Round(places).Float64()
	return f
}

/* ──────────── dates ──────────── */

const canonicalLayout = "2006-01-02"

var (
	isoDateRE = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)
	dmyDateRE = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})[-/](\d{4})$`)
)

// ParseDate normalises a cell to a canonical YYYY-MM-DD date. Strings are
// tried as year-first, then day-first, then free-form; the first attempt that
// yields a real calendar date wins. Numbers are never treated as dates.
func ParseDate(v any) (string, bool) {
	switch d := v.(type) {
	case nil:
		return "", false
	case time.Time:
		if d.IsZero() {
			return "", false
		}
		return FormatCanonical(d), true
	case *time.Time:
		if d == nil || d.IsZero() {
			return "", false
		}
		return FormatCanonical(*d), true
	case string:
		return parseDateString(d)
	case []byte:
		return parseDateString(string(d))
	default:
		return "", false
	}
}

func parseDateString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if m := isoDateRE.FindStringSubmatch(s); m != nil {
		if d, ok := calendarDate(m[1], m[2], m[3]); ok {
			return d, true
		}
	}
	if m := dmyDateRE.FindStringSubmatch(s); m != nil {
		if d, ok := calendarDate(m[3], m[2], m[1]); ok {
			return d, true
		}
	}
	t, err := dateparse.ParseIn(s, time.Local)
	if err != nil || t.IsZero() {
		return "", false
	}
	return FormatCanonical(t), true
}

// calendarDate rejects rollover dates such as month 13 or 31 April.
func calendarDate(ys, ms, ds string) (string, bool) {
	y, _ := strconv.Atoi(ys)
	m, _ := strconv.Atoi(ms)
	d, _ := strconv.Atoi(ds)
	if y < 1 || m < 1 || m > 12 || d < 1 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", false
	}
	return FormatCanonical(t), true
}

// FormatCanonical renders the value's own calendar fields; the time is never
// converted to another zone first.
func FormatCanonical(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// day parses a canonical date into a UTC midnight used only for day stepping.
func day(ymd string) (time.Time, bool) {
	t, err := time.ParseInLocation(canonicalLayout, ymd, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DayLabel renders a canonical date as a short chart label, e.g. "5 Oct".
func DayLabel(ymd string) string {
	t, ok := day(ymd)
	if !ok {
		return ymd
	}
	return t.Format("2 Jan")
}

/* ──────────── text ──────────── */

// CellString renders a cell as text; nil becomes "".
func CellString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case json.Number:
		return s.String()
	case time.Time:
		return FormatCanonical(s)
	default:
		return fmt.Sprint(s)
	}
}
