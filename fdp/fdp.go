// Package fdp computes the first-delivery-pendency view from the FDP
// workbook: pendency, day start and promises sub-tables.
package fdp

import "github.com/jalad-shrimali/opsdash/sheet"

const (
	Endpoint = "/api/FDP-data"

	SheetPendency = "FDP_Pendency"
	SheetDayStart = "Day_Start"
	SheetPromises = "Promises"

	TablePendency = "fdp_pendency"
	TableDayStart = "fdp_day_start"
	TablePromises = "fdp_promises"
)

const (
	DayStart        = "daystart"
	UNA             = "una"
	NCD             = "ncd"
	UNAAttemptedNCD = "una_attempted_ncd"
	CD              = "cd"
	DayStartCPD     = "day_start_cpd"
	Promises        = "promises"
)

// Zones offered by the FDP page.
var Zones = []string{"East", "West", "North", "South"}

var (
	PendencySchema = sheet.Schema{
		Name: TablePendency,
		Fields: []sheet.Field{
			{Name: sheet.FieldDate, Kind: sheet.KindDate},
			{Name: sheet.FieldZone},
			{Name: sheet.FieldGM},
			{Name: sheet.FieldHour, Aliases: []string{"hours"}},
			{Name: DayStart, Aliases: []string{"day start"}, Kind: sheet.KindNumber},
			{Name: UNA, Kind: sheet.KindNumber},
			{Name: NCD, Kind: sheet.KindNumber},
			{Name: UNAAttemptedNCD, Aliases: []string{"una+attempted_ncd", "UNA+Attempted NCD"}, Kind: sheet.KindNumber},
			{Name: CD, Kind: sheet.KindNumber},
		},
	}
	DayStartSchema = sheet.Schema{
		Name: TableDayStart,
		Fields: []sheet.Field{
			{Name: sheet.FieldDate, Kind: sheet.KindDate},
			{Name: sheet.FieldHour},
			{Name: sheet.FieldZone},
			{Name: sheet.FieldGM},
			{Name: DayStartCPD, Aliases: []string{"day_start-cpd", "Day Start-CPD"}, Kind: sheet.KindNumber},
		},
	}
	PromisesSchema = sheet.Schema{
		Name: TablePromises,
		Fields: []sheet.Field{
			{Name: sheet.FieldDate, Kind: sheet.KindDate},
			{Name: sheet.FieldZone},
			{Name: sheet.FieldGM, Aliases: []string{"gm_name", "GM Name"}},
			{Name: Promises, Kind: sheet.KindNumber},
		},
	}
)

// Tables holds the three parsed sub-tables.
type Tables struct {
	Pendency []sheet.Record
	DayStart []sheet.Record
	Promises []sheet.Record
}

// Stat is one card: a total and its share of promises.
type Stat struct {
	Title      string  `json:"title"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// Stats returns the DayStart, UNA, NCD, UNA+Attempted_NCD and CD cards. The
// hour selection narrows pendency only.
func Stats(t Tables, sel sheet.FilterSpec) []Stat {
	noHour := sel.WithoutHour()
	pend := sheet.Filter(t.Pendency, sel)
	promises := sheet.SumField(sheet.Filter(t.Promises, noHour), Promises)
	dayStart := sheet.SumField(sheet.Filter(t.DayStart, noHour), DayStartCPD)

	stat := func(title string, v float64) Stat {
		return Stat{Title: title, Value: v, Percentage: sheet.Round(sheet.Ratio(v, promises), 1)}
	}
	return []Stat{
		stat("DayStart", dayStart),
		stat("UNA", sheet.SumField(pend, UNA)),
		stat("NCD", sheet.SumField(pend, NCD)),
		stat("UNA+Attempted_NCD", sheet.SumField(pend, UNAAttemptedNCD)),
		stat("CD", sheet.SumField(pend, CD)),
	}
}

// Chart is the pair of day series on the FDP page.
type Chart struct {
	DayStart        []sheet.Point `json:"daystart"`
	UNAAttemptedNCD []sheet.Point `json:"una_attempted_ncd"`
	Hours           []string      `json:"hours"`
}

// Charts builds the day-start and UNA+attempted-NCD series over
// [start, end]. Only the second series honours hour; Hours lists the hour
// choices present in the range.
func Charts(pendency []sheet.Record, start, end, hour string) Chart {
	rng := sheet.FilterSpec{DateRange: &sheet.DateRange{Start: start, End: end}}
	inRange := sheet.Filter(pendency, rng)
	rng.Hour = hour
	return Chart{
		DayStart:        sheet.BucketByDay(inRange, start, end, sheet.Sum(DayStart)),
		UNAAttemptedNCD: sheet.BucketByDay(sheet.Filter(inRange, rng), start, end, sheet.Sum(UNAAttemptedNCD)),
		Hours:           sheet.OptionsFor(inRange, sheet.OptionsSpec{}).Hours,
	}
}

// View is the FDP page for one selection.
type View struct {
	Stats   []Stat        `json:"stats"`
	Chart   Chart         `json:"chart"`
	Options sheet.Options `json:"options"`
}

func Build(t Tables, sel sheet.FilterSpec, start, end string) View {
	day := sheet.Filter(t.Pendency, sheet.FilterSpec{Date: sel.Date})
	return View{
		Stats:   Stats(t, sel),
		Chart:   Charts(t.Pendency, start, end, sel.Hour),
		Options: sheet.OptionsFor(day, sheet.OptionsSpec{Zones: sel.Zones, AllowedZones: Zones}),
	}
}
