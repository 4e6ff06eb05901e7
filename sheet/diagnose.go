package sheet

import (
	"strings"

	"github.com/schollz/closestmatch"
)

// MissingField is a schema field whose header was not found, with the
// header that looks most like it.
type MissingField struct {
	Field      string `json:"field"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Diagnose lists the schema fields grid has no column for. It is only used
// for load-time reporting; parsing does not depend on it.
func Diagnose(grid Grid, schema Schema) []MissingField {
	if len(grid) == 0 {
		return nil
	}
	keys := headerKeys(grid[0])

	var headers []string
	for _, h := range grid[0] {
		if s := strings.TrimSpace(CellString(h)); s != "" {
			headers = append(headers, s)
		}
	}
	var cm *closestmatch.ClosestMatch
	if len(headers) > 0 {
		cm = closestmatch.New(headers, []int{2, 3})
	}

	var out []MissingField
	for _, f := range schema.Fields {
		if resolve(keys, f.Name, f.Aliases) >= 0 {
			continue
		}
		mf := MissingField{Field: f.Name}
		if cm != nil {
			mf.Suggestion = cm.Closest(f.Name)
		}
		out = append(out, mf)
	}
	return out
}
