// Package rsps computes the RSPS pendency view: day start against pendency
// per shipment category.
package rsps

import "github.com/jalad-shrimali/opsdash/sheet"

const (
	Endpoint = "/api/RSPS-data"

	SheetPendency = "RSPS_Pendency"
	SheetDayStart = "Day_Start"
	SheetPromises = "Promises"

	TablePendency = "rsps_pendency"
	TableDayStart = "rsps_day_start"
	TablePromises = "rsps_promises"
)

const (
	NCD      = "ncd"
	CD       = "cd"
	Promises = "promises"
)

// Category pairs a day start column with its pendency column.
type Category struct {
	Name     string
	DayStart string
	Pendency string
}

var Categories = []Category{
	{"Overall", "overall_daystart", "overall_pendency"},
	{"CPD", "day_start_cpd", "cpd_pendency"},
	{"EOB", "day_start_eob", "eob_pendency"},
	{"IPD3", "day_start_ipd3", "ipd3_pendency"},
	{"IPD3+", "day_start_ipd3plus", "ipd3plus_pendency"},
	{"FPD", "day_start_fpd", "fpd_pendency"},
}

var (
	PendencySchema = sheet.Schema{
		Name: TablePendency,
		Fields: []sheet.Field{
			{Name: sheet.FieldDate, Kind: sheet.KindDate},
			{Name: sheet.FieldZone},
			{Name: sheet.FieldGM},
			{Name: sheet.FieldHour, Aliases: []string{"hours"}},
			{Name: "overall_pendency", Aliases: []string{"Overall Pendency"}, Kind: sheet.KindNumber},
			{Name: "cpd_pendency", Aliases: []string{"cpd-pendency", "CPD Pendency"}, Kind: sheet.KindNumber},
			{Name: "eob_pendency", Aliases: []string{"eob-pendency", "EOB Pendency"}, Kind: sheet.KindNumber},
			{Name: "ipd3_pendency", Aliases: []string{"ipd3-pendency", "IPD3 Pendency"}, Kind: sheet.KindNumber},
			{Name: "ipd3plus_pendency", Aliases: []string{"ipd3+-pendency", "IPD3+ Pendency"}, Kind: sheet.KindNumber},
			{Name: "fpd_pendency", Aliases: []string{"fpd-pendency", "FPD Pendency"}, Kind: sheet.KindNumber},
			{Name: NCD, Aliases: []string{"cpd_-attempted_&marked_ncd", "CPD -Attempted_&Marked_NCD", "CPD -Attempted &Marked NCD"}, Kind: sheet.KindNumber},
			{Name: CD, Aliases: []string{"cpd_-attempted_&_marked_cd", "CPD -Attempted_&_Marked_CD", "CPD -Attempted & Marked CD"}, Kind: sheet.KindNumber},
		},
	}
	DayStartSchema = sheet.Schema{
		Name: TableDayStart,
		Fields: []sheet.Field{
			{Name: sheet.FieldDate, Kind: sheet.KindDate},
			{Name: sheet.FieldZone},
			{Name: sheet.FieldGM},
			{Name: sheet.FieldHour, Aliases: []string{"hours"}},
			{Name: "overall_daystart", Aliases: []string{"Overall DayStart", "Overall Daystart"}, Kind: sheet.KindNumber},
			{Name: "day_start_cpd", Aliases: []string{"day_start-cpd", "Day Start-CPD"}, Kind: sheet.KindNumber},
			{Name: "day_start_eob", Aliases: []string{"day_start-eob", "Day Start-EOB"}, Kind: sheet.KindNumber},
			{Name: "day_start_ipd3", Aliases: []string{"day_start-ipd3", "Day Start-IPD3"}, Kind: sheet.KindNumber},
			{Name: "day_start_ipd3plus", Aliases: []string{"day_start-ipd3+", "Day Start-IPD3+"}, Kind: sheet.KindNumber},
			{Name: "day_start_fpd", Aliases: []string{"daystart-fpd", "DayStart-FPD"}, Kind: sheet.KindNumber},
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

type Tables struct {
	Pendency []sheet.Record
	DayStart []sheet.Record
	Promises []sheet.Record
}

// CategoryMetrics is one category row of cards.
type CategoryMetrics struct {
	Category   string  `json:"category"`
	DayStart   float64 `json:"daystart"`
	Pendency   float64 `json:"pendency"`
	Percentage float64 `json:"percentage"`
}

type Metrics struct {
	Categories []CategoryMetrics `json:"categories"`
	NCD        float64           `json:"ncd"`
	CD         float64           `json:"cd"`
	Promises   float64           `json:"promises"`
}

// HourSpec turns an hour selection into a leading-integer constraint: the
// pendency sheet's hour cells carry qualifiers ("14 IST") that the options
// list strips.
func HourSpec(sel sheet.FilterSpec) sheet.FilterSpec {
	if sel.HourToken == nil && sel.Hour != "" && sel.Hour != sheet.All {
		if h, ok := sheet.ExtractHourToken(sel.Hour); ok {
			sel.HourToken = &h
		}
	}
	sel.Hour = ""
	return sel
}

// ComputeMetrics sums each category. Pendency honours the hour selection,
// day start and promises do not.
func ComputeMetrics(t Tables, sel sheet.FilterSpec) Metrics {
	pend := sheet.Filter(t.Pendency, HourSpec(sel))
	ds := sheet.Filter(t.DayStart, sel.WithoutHour())

	m := Metrics{
		NCD:      sheet.SumField(pend, NCD),
		CD:       sheet.SumField(pend, CD),
		Promises: sheet.SumField(sheet.Filter(t.Promises, sel.WithoutHour()), Promises),
	}
	for _, c := range Categories {
		d, p := sheet.SumField(ds, c.DayStart), sheet.SumField(pend, c.Pendency)
		m.Categories = append(m.Categories, CategoryMetrics{
			Category:   c.Name,
			DayStart:   d,
			Pendency:   p,
			Percentage: sheet.Round(sheet.Ratio(p, d), 2),
		})
	}
	return m
}

type View struct {
	Metrics Metrics       `json:"metrics"`
	Options sheet.Options `json:"options"`
}

func Build(t Tables, sel sheet.FilterSpec) View {
	day := sheet.Filter(t.Pendency, sheet.FilterSpec{Date: sel.Date})
	return View{
		Metrics: ComputeMetrics(t, sel),
		Options: sheet.OptionsFor(day, sheet.OptionsSpec{Zones: sel.Zones}),
	}
}
