// Package attainment computes the plan-versus-actual attainment view:
// headline KPIs, region cards and the trailing daily trend.
package attainment

import (
	"strings"

	"github.com/jalad-shrimali/opsdash/sheet"
)

const (
	Endpoint = "/api/sheets-data"
	Table    = "attainment"
)

// field names
const (
	Region          = "region"
	Plan            = "plan"
	Actual          = "actual"
	DailyAttainment = "daily_attainment"
	EventAttainment = "event_attainment"
	HubsAbove120    = "hubs_above_120"
	HubsBelow120    = "hubs_below_120"
)

var Schema = sheet.Schema{
	Name: Table,
	Fields: []sheet.Field{
		{Name: sheet.FieldDate, Aliases: []string{"Date"}, Kind: sheet.KindDate},
		{Name: sheet.FieldZone, Aliases: []string{"Zone", "Zonal", "Region"}},
		{Name: sheet.FieldGM, Aliases: []string{"GM", "General Manager"}},
		{Name: sheet.FieldHour, Aliases: []string{"Hour", "Time"}},
		{Name: Region, Aliases: []string{"Region"}},
		{Name: Plan, Aliases: []string{"Plan"}, Kind: sheet.KindNumber},
		{Name: Actual, Aliases: []string{"Actual"}, Kind: sheet.KindNumber},
		{Name: DailyAttainment, Aliases: []string{"Daily Attainment"}, Kind: sheet.KindNumber},
		{Name: EventAttainment, Aliases: []string{"Event Attainment"}, Kind: sheet.KindNumber},
		{Name: HubsAbove120, Aliases: []string{">120 Attainment Hubs"}, Kind: sheet.KindNumber},
		{Name: HubsBelow120, Aliases: []string{"<120 Attainment Hubs"}, Kind: sheet.KindNumber},
	},
}

// Regions are the fixed region cards, in display order.
var Regions = []string{"EAST", "WEST", "NORTH", "SOUTH"}

// KPIs is the headline card row.
type KPIs struct {
	DailyAttainment float64 `json:"daily_attainment"`
	EventAttainment float64 `json:"event_attainment"`
	HubsAbove120    float64 `json:"hubs_above_120"`
	HubsBelow120    float64 `json:"hubs_below_120"`
}

// ComputeKPIs derives the headline cards. Daily attainment ignores every
// selection but the date. Event attainment covers all rows of the event
// window and is 0 when the selected date lies outside it.
func ComputeKPIs(all []sheet.Record, sel sheet.FilterSpec, event sheet.DateRange) KPIs {
	day := sheet.Filter(all, sheet.FilterSpec{Date: sel.Date})
	k := KPIs{
		DailyAttainment: sheet.Ratio(sheet.SumField(day, Actual), sheet.SumField(day, Plan)),
	}
	if sel.Date >= event.Start && sel.Date <= event.End {
		ev := sheet.Filter(all, sheet.FilterSpec{DateRange: &event})
		k.EventAttainment = sheet.Ratio(sheet.SumField(ev, Actual), sheet.SumField(ev, Plan))
	}
	rows := sheet.Filter(all, sel)
	k.HubsAbove120 = sheet.SumField(rows, HubsAbove120)
	k.HubsBelow120 = sheet.SumField(rows, HubsBelow120)
	return k
}

// RegionCard is one region's plan, actual and attainment.
type RegionCard struct {
	Region     string  `json:"region"`
	Plan       float64 `json:"plan"`
	Actual     float64 `json:"actual"`
	Attainment float64 `json:"attainment"`
}

// RegionCards returns one card per fixed region over the selected rows.
func RegionCards(all []sheet.Record, sel sheet.FilterSpec) []RegionCard {
	rows := sheet.Filter(all, sel)
	byRegion := map[string][]sheet.Record{}
	for _, r := range rows {
		reg := strings.ToUpper(strings.TrimSpace(r.Text(Region)))
		byRegion[reg] = append(byRegion[reg], r)
	}
	out := make([]RegionCard, 0, len(Regions))
	for _, reg := range Regions {
		rs := byRegion[reg]
		plan, actual := sheet.SumField(rs, Plan), sheet.SumField(rs, Actual)
		out = append(out, RegionCard{Region: reg, Plan: plan, Actual: actual, Attainment: sheet.Ratio(actual, plan)})
	}
	return out
}

// TrendDay is one column of the daily trend table.
type TrendDay struct {
	Date       string  `json:"date"`
	Label      string  `json:"label"`
	Plan       float64 `json:"plan"`
	Actual     float64 `json:"actual"`
	Attainment float64 `json:"attainment"`
}

// Trend covers the days trailing days ending at the selected date, with the
// zone, GM and hour selection applied. Plan and actual are whole numbers,
// attainment has two decimals.
func Trend(all []sheet.Record, sel sheet.FilterSpec, days int) []TrendDay {
	end := sel.Date
	scope := sel
	scope.Date = ""
	scope.DateRange = nil
	rows := sheet.Filter(all, scope)

	dates := sheet.TrailingDays(end, days)
	if len(dates) == 0 {
		return []TrendDay{}
	}
	plan := sheet.BucketByDay(rows, dates[0], end, sheet.Sum(Plan))
	actual := sheet.BucketByDay(rows, dates[0], end, sheet.Sum(Actual))
	att := sheet.BucketByDay(rows, dates[0], end, sheet.RatioOf(Actual, Plan))

	out := make([]TrendDay, len(plan))
	for i := range plan {
		out[i] = TrendDay{
			Date:       plan[i].Date,
			Label:      plan[i].Label,
			Plan:       sheet.Round(plan[i].Value, 0),
			Actual:     sheet.Round(actual[i].Value, 0),
			Attainment: sheet.Round(att[i].Value, 2),
		}
	}
	return out
}

// View is everything the attainment page shows for one selection.
type View struct {
	KPIs    KPIs          `json:"kpis"`
	Regions []RegionCard  `json:"regions"`
	Trend   []TrendDay    `json:"trend"`
	Options sheet.Options `json:"options"`
	GM      string        `json:"gm"`
	Hour    string        `json:"hour"`
}

// Build assembles the page for sel. GM and hour selections that are not
// offered for the chosen date and zone fall back to All first.
func Build(all []sheet.Record, sel sheet.FilterSpec, event sheet.DateRange, trendDays int) View {
	opts := sheet.OptionsFor(sheet.Filter(all, sheet.FilterSpec{Date: sel.Date}), sheet.OptionsSpec{Zones: sel.Zones})
	sel.GM, sel.Hour = opts.Reconcile(orAll(sel.GM), orAll(sel.Hour))
	return View{
		KPIs:    ComputeKPIs(all, sel, event),
		Regions: RegionCards(all, sel),
		Trend:   Trend(all, sel, trendDays),
		Options: opts,
		GM:      sel.GM,
		Hour:    sel.Hour,
	}
}

func orAll(s string) string {
	if s == "" {
		return sheet.All
	}
	return s
}
