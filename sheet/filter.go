package sheet

import "github.com/samber/lo"

// All is the selection sentinel meaning "no constraint".
const All = "All"

// DateRange is an inclusive range of canonical dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FilterSpec is one query's selection. The zero value matches everything.
//
// Hour compares the raw hour cell exactly. HourToken instead compares the
// leading integer of the hour cell, for tables whose hour column carries
// qualifiers such as "14 IST".
type FilterSpec struct {
	Date      string
	DateRange *DateRange
	Zones     []string
	GM        string
	Hour      string
	HourToken *int
}

// WithoutHour drops both hour constraints.
func (s FilterSpec) WithoutHour() FilterSpec {
	s.Hour = ""
	s.HourToken = nil
	return s
}

// OnDate replaces the date constraint.
func (s FilterSpec) OnDate(date string) FilterSpec {
	s.Date = date
	return s
}

func unset(v string) bool { return v == "" || v == All }

// ApplyFilters returns the records matching every constraint of spec, in
// input order. The input slice is never modified.
func ApplyFilters(records []Record, spec FilterSpec) []Record {
	var zones map[string]struct{}
	if len(spec.Zones) > 0 {
		zones = make(map[string]struct{}, len(spec.Zones))
		for _, z := range spec.Zones {
			if z == All {
				zones = nil
				break
			}
			zones[HeaderKey(z)] = struct{}{}
		}
	}
	gm := ""
	if !unset(spec.GM) {
		gm = HeaderKey(spec.GM)
	}

	return lo.Filter(records, func(r Record, _ int) bool {
		if spec.Date != "" && r.Date != spec.Date {
			return false
		}
		if rg := spec.DateRange; rg != nil && (r.Date < rg.Start || r.Date > rg.End) {
			return false
		}
		if zones != nil {
			if _, ok := zones[HeaderKey(r.Zone())]; !ok {
				return false
			}
		}
		if gm != "" && HeaderKey(r.GM()) != gm {
			return false
		}
		if !unset(spec.Hour) && r.Hour() != spec.Hour {
			return false
		}
		if spec.HourToken != nil {
			tok, ok := ExtractHourToken(r.Hour())
			if !ok || tok != *spec.HourToken {
				return false
			}
		}
		return true
	})
}

// Filter is ApplyFilters under its query-API name.
func Filter(records []Record, spec FilterSpec) []Record {
	return ApplyFilters(records, spec)
}
