// Package reliability computes the last-mile reliability view: landing,
// OFD+OFP, availability, delivered and OFD with the delivered/OFD conversion.
package reliability

import (
	"github.com/samber/lo"

	"github.com/jalad-shrimali/opsdash/sheet"
)

const (
	Endpoint = "/api/reliability-data"
	Table    = "reliability"
)

const (
	Landing      = "landing"
	OFDOFP       = "ofd_ofp"
	Availability = "availability"
	Delivered    = "delivered"
	OFD          = "ofd"
)

var Schema = sheet.Schema{
	Name: Table,
	Fields: []sheet.Field{
		{Name: sheet.FieldZone},
		{Name: sheet.FieldGM},
		{Name: sheet.FieldHour},
		{Name: sheet.FieldDate, Kind: sheet.KindDate},
		{Name: Landing, Kind: sheet.KindNumber},
		{Name: OFDOFP, Aliases: []string{"OFD+OFP"}, Kind: sheet.KindNumber},
		{Name: Availability, Kind: sheet.KindNumber},
		{Name: Delivered, Kind: sheet.KindNumber},
		{Name: OFD, Kind: sheet.KindNumber},
	},
}

// Zones offered on the reliability page.
var Zones = []string{"East", "West", "North", "South"}

type Stats struct {
	Landing      float64 `json:"landing"`
	OFDOFP       float64 `json:"ofd_ofp"`
	Availability float64 `json:"availability"`
	Delivered    float64 `json:"delivered"`
	OFD          float64 `json:"ofd"`
	Conversion   float64 `json:"conversion"`
}

// ComputeStats sums the selected rows. Landing is only reported once per
// shift, so a zero landing for a selected hour falls back to the closest
// earlier hour of the same date, zone and GM that has one.
func ComputeStats(all []sheet.Record, sel sheet.FilterSpec) Stats {
	rows := sheet.Filter(all, sel)
	s := Stats{
		Landing:      sheet.SumField(rows, Landing),
		OFDOFP:       sheet.SumField(rows, OFDOFP),
		Availability: sheet.SumField(rows, Availability),
		Delivered:    sheet.SumField(rows, Delivered),
		OFD:          sheet.SumField(rows, OFD),
	}
	s.Conversion = sheet.Round(sheet.Ratio(s.Delivered, s.OFD), 2)

	if s.Landing == 0 && sel.Hour != "" && sel.Hour != sheet.All {
		s.Landing = previousLanding(sheet.Filter(all, sel.WithoutHour()), sel.Hour)
	}
	return s
}

func previousLanding(day []sheet.Record, hour string) float64 {
	hours := lo.Uniq(lo.FilterMap(day, func(r sheet.Record, _ int) (string, bool) {
		return r.Hour(), r.Hour() != ""
	}))
	sheet.SortHours(hours)
	idx := lo.IndexOf(hours, hour)
	for i := idx - 1; i >= 0; i-- {
		prev := sheet.Filter(day, sheet.FilterSpec{Hour: hours[i]})
		if l := sheet.SumField(prev, Landing); l > 0 {
			return l
		}
	}
	return 0
}

// Row is one bucket of a reliability chart.
type Row struct {
	Label        string  `json:"label"`
	Landing      float64 `json:"landing"`
	OFDOFP       float64 `json:"ofd_ofp"`
	Availability float64 `json:"availability"`
	Delivered    float64 `json:"delivered"`
	OFD          float64 `json:"ofd"`
}

func rowOf(label string, rs []sheet.Record) Row {
	return Row{
		Label:        label,
		Landing:      sheet.SumField(rs, Landing),
		OFDOFP:       sheet.SumField(rs, OFDOFP),
		Availability: sheet.SumField(rs, Availability),
		Delivered:    sheet.SumField(rs, Delivered),
		OFD:          sheet.SumField(rs, OFD),
	}
}

// Hourly rolls the selected date, zone and GM up by hour of day, ascending.
// An hour without landing repeats the last positive landing.
func Hourly(all []sheet.Record, sel sheet.FilterSpec) []Row {
	rows := sheet.Filter(all, sel.WithoutHour())
	groups := lo.GroupBy(rows, func(r sheet.Record) string { return r.Hour() })
	delete(groups, "")
	hours := lo.Keys(groups)
	sheet.SortHours(hours)

	out := make([]Row, 0, len(hours))
	carry := 0.0
	for _, h := range hours {
		label := h
		if tok, ok := sheet.ExtractHourToken(h); ok {
			label = sheet.HourLabel(tok)
		}
		row := rowOf(label, groups[h])
		if row.Landing > 0 {
			carry = row.Landing
		} else {
			row.Landing = carry
		}
		out = append(out, row)
	}
	return out
}

// Daily rolls [start, end] up by day with the zone, GM and hour selection.
func Daily(all []sheet.Record, sel sheet.FilterSpec, start, end string) []Row {
	sel.Date = ""
	sel.DateRange = &sheet.DateRange{Start: start, End: end}
	byDay := lo.GroupBy(sheet.Filter(all, sel), func(r sheet.Record) string { return r.Date })

	days := sheet.Days(start, end)
	out := make([]Row, 0, len(days))
	for _, d := range days {
		out = append(out, rowOf(sheet.DayLabel(d), byDay[d]))
	}
	return out
}

// LatestHour is the default hour for a date: the hour cell with the highest
// leading integer, or All when the date has none.
func LatestHour(all []sheet.Record, date string) string {
	best, bestTok := sheet.All, -1
	for _, r := range sheet.Filter(all, sheet.FilterSpec{Date: date}) {
		if tok, ok := sheet.ExtractHourToken(r.Hour()); ok && tok > bestTok {
			best, bestTok = r.Hour(), tok
		}
	}
	return best
}

type View struct {
	Stats   Stats         `json:"stats"`
	Chart   []Row         `json:"chart"`
	Options sheet.Options `json:"options"`
	Hour    string        `json:"hour"`
}

// Build assembles the page. An empty hour selection defaults to the latest
// hour of the date; a one-day range charts by hour, longer ranges by day.
func Build(all []sheet.Record, sel sheet.FilterSpec, start, end string) View {
	if sel.Hour == "" {
		sel.Hour = LatestHour(all, sel.Date)
	}
	day := sheet.Filter(all, sheet.FilterSpec{Date: sel.Date})
	v := View{
		Stats:   ComputeStats(all, sel),
		Options: sheet.OptionsFor(day, sheet.OptionsSpec{Zones: sel.Zones, AllowedZones: Zones}),
		Hour:    sel.Hour,
	}
	if start != "" && start == end {
		hourly := sel
		hourly.Date = start
		v.Chart = Hourly(all, hourly)
	} else {
		v.Chart = Daily(all, sel, start, end)
	}
	return v
}
