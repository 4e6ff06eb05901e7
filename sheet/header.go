package sheet

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// HeaderKey is the comparison form of a header or a textual filter value:
// trimmed, NFC-composed and case-folded.
func HeaderKey(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

func headerKeys(row []any) []string {
	keys := make([]string, len(row))
	for i, h := range row {
		keys[i] = HeaderKey(CellString(h))
	}
	return keys
}

// ResolveField returns the column of the first candidate (name, then aliases
// in order) found among headers, or -1 when none is present.
func ResolveField(headers []string, name string, aliases []string) int {
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = HeaderKey(h)
	}
	return resolve(keys, name, aliases)
}

func resolve(keys []string, name string, aliases []string) int {
	candidates := make([]string, 0, len(aliases)+1)
	candidates = append(candidates, name)
	candidates = append(candidates, aliases...)
	for _, c := range candidates {
		want := HeaderKey(c)
		if want == "" {
			continue
		}
		for i, k := range keys {
			if k == want {
				return i
			}
		}
	}
	return -1
}

// cell returns row[idx], or nil for an absent column or a short row.
func cell(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}
