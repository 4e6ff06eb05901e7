package sheet

import (
	"sort"

	"github.com/samber/lo"
)

// Options are the selection choices offered for one date's records.
type Options struct {
	Zones      []string `json:"zones"`
	GMs        []string `json:"gms"`
	Hours      []string `json:"hours"`
	HourTokens []int    `json:"hour_tokens"`
}

// OptionsSpec narrows option derivation. Zones is the current zone selection;
// AllowedZones, when set, restricts which zones are offered at all.
type OptionsSpec struct {
	Zones        []string
	AllowedZones []string
}

func blankOption(s string) bool { return s == "" || s == "0" }

// OptionsFor derives the choices from records already scoped to a date. GM
// and hour choices come from the subset matching the zone selection.
func OptionsFor(records []Record, spec OptionsSpec) Options {
	allowed := lo.SliceToMap(spec.AllowedZones, func(z string) (string, struct{}) {
		return HeaderKey(z), struct{}{}
	})

	zones := lo.Uniq(lo.FilterMap(records, func(r Record, _ int) (string, bool) {
		z := r.Zone()
		if blankOption(z) {
			return "", false
		}
		if len(allowed) > 0 {
			if _, ok := allowed[HeaderKey(z)]; !ok {
				return "", false
			}
		}
		return z, true
	}))
	sort.Strings(zones)

	scoped := ApplyFilters(records, FilterSpec{Zones: spec.Zones})

	gms := lo.Uniq(lo.FilterMap(scoped, func(r Record, _ int) (string, bool) {
		return r.GM(), !blankOption(r.GM())
	}))
	sort.Strings(gms)

	hours := lo.Uniq(lo.FilterMap(scoped, func(r Record, _ int) (string, bool) {
		return r.Hour(), !blankOption(r.Hour())
	}))
	SortHours(hours)

	tokens := lo.Uniq(lo.FilterMap(scoped, func(r Record, _ int) (int, bool) {
		h, ok := ExtractHourToken(r.Hour())
		return h, ok && h != 0
	}))
	sort.Ints(tokens)

	return Options{Zones: zones, GMs: gms, Hours: hours, HourTokens: tokens}
}

// SortHours orders raw hour cells by leading integer, then text. Cells
// without an integer go last.
func SortHours(hours []string) {
	sort.SliceStable(hours, func(i, j int) bool {
		a, okA := ExtractHourToken(hours[i])
		b, okB := ExtractHourToken(hours[j])
		switch {
		case okA && okB && a != b:
			return a < b
		case okA != okB:
			return okA
		}
		return hours[i] < hours[j]
	})
}

// Reconcile resets a GM or hour selection that is no longer offered to All.
func (o Options) Reconcile(gm, hour string) (string, string) {
	if gm != All && !lo.Contains(o.GMs, gm) {
		gm = All
	}
	if hour != All && !lo.Contains(o.Hours, hour) {
		hour = All
	}
	return gm, hour
}
