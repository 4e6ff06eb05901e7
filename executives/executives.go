// Package executives builds the executive summary: one row per zone and GM
// merging day start, RSPS pendency, promises and reliability, with zone
// subtotals and a grand total.
package executives

import (
	"sort"

	"github.com/samber/lo"

	"github.com/jalad-shrimali/opsdash/rsps"
	"github.com/jalad-shrimali/opsdash/sheet"
)

const (
	Endpoint = "/api/executives-data"

	SheetPendency    = "RSPS_Pendency"
	SheetDayStart    = "Day_Start"
	SheetPromises    = "Promises"
	SheetReliability = "Reliability"

	TablePendency    = "exec_rsps_pendency"
	TableDayStart    = "exec_day_start"
	TablePromises    = "exec_promises"
	TableReliability = "exec_reliability"
)

const (
	CPDPendency  = "cpd_pendency"
	DayStartCPD  = "day_start_cpd"
	Promises     = "promises"
	OFD          = "ofd"
	Delivered    = "delivered"
	Availability = "availability"
	Landing      = "landing"
)

// Zones offered on the executive page.
var Zones = []string{"East", "West", "North", "South"}

const (
	TotalGM    = "TOTAL"
	GrandTotal = "GRAND TOTAL"
)

func schema(name string, extra ...sheet.Field) sheet.Schema {
	fields := []sheet.Field{
		{Name: sheet.FieldDate, Kind: sheet.KindDate},
		{Name: sheet.FieldZone},
		{Name: sheet.FieldGM},
		{Name: sheet.FieldHour, Aliases: []string{"hours"}},
	}
	return sheet.Schema{Name: name, Fields: append(fields, extra...)}
}

var (
	PendencySchema = schema(TablePendency,
		sheet.Field{Name: CPDPendency, Aliases: []string{"cpd-pendency", "CPD Pendency"}, Kind: sheet.KindNumber})
	DayStartSchema = schema(TableDayStart,
		sheet.Field{Name: DayStartCPD, Aliases: []string{"day_start-cpd", "Day Start-CPD"}, Kind: sheet.KindNumber})
	PromisesSchema = sheet.Schema{
		Name: TablePromises,
		Fields: []sheet.Field{
			{Name: sheet.FieldDate, Kind: sheet.KindDate},
			{Name: sheet.FieldZone},
			{Name: sheet.FieldGM, Aliases: []string{"gm_name", "GM Name"}},
			{Name: Promises, Kind: sheet.KindNumber},
		},
	}
	ReliabilitySchema = schema(TableReliability,
		sheet.Field{Name: OFD, Kind: sheet.KindNumber},
		sheet.Field{Name: Delivered, Kind: sheet.KindNumber},
		sheet.Field{Name: Availability, Kind: sheet.KindNumber},
		sheet.Field{Name: Landing, Kind: sheet.KindNumber},
	)
)

type Tables struct {
	Pendency    []sheet.Record
	DayStart    []sheet.Record
	Promises    []sheet.Record
	Reliability []sheet.Record
}

// Row is one line of the summary table.
type Row struct {
	Zone         string  `json:"zone"`
	GM           string  `json:"gm"`
	DayStartCPD  float64 `json:"daystart_cpd"`
	RSPSPendency float64 `json:"rsps_pendency"`
	Promises     float64 `json:"promises"`
	PendencyPct  float64 `json:"pendency_pct"`
	OFD          float64 `json:"ofd"`
	Delivered    float64 `json:"delivered"`
	Conversion   float64 `json:"conversion"`
	Availability float64 `json:"availability"`
	Landing      float64 `json:"landing"`
	Total        bool    `json:"total,omitempty"`
}

func (r *Row) add(o Row) {
	r.DayStartCPD += o.DayStartCPD
	r.RSPSPendency += o.RSPSPendency
	r.Promises += o.Promises
	r.OFD += o.OFD
	r.Delivered += o.Delivered
	r.Availability += o.Availability
	r.Landing += o.Landing
}

// ratios recomputes the percentages from the summed parts.
func (r *Row) ratios() {
	r.PendencyPct = sheet.Round(sheet.Ratio(r.RSPSPendency, r.Promises), 1)
	r.Conversion = sheet.Round(sheet.Ratio(r.Delivered, r.OFD), 1)
}

type key struct{ zone, gm string }

// Rollup merges the four sheets by zone and GM for the selection. The hour
// selection narrows pendency and reliability by leading integer; day start
// and promises are daily figures. Rows are grouped by zone with a TOTAL row
// after each zone and a GRAND TOTAL row last.
func Rollup(t Tables, sel sheet.FilterSpec) []Row {
	withHour := rsps.HourSpec(sel)
	noHour := sel.WithoutHour()

	merged := map[key]*Row{}
	get := func(r sheet.Record) *Row {
		k := key{r.Zone(), r.GM()}
		row, ok := merged[k]
		if !ok {
			row = &Row{Zone: k.zone, GM: k.gm}
			merged[k] = row
		}
		return row
	}
	for _, r := range sheet.Filter(t.DayStart, noHour) {
		get(r).DayStartCPD += r.Number(DayStartCPD)
	}
	for _, r := range sheet.Filter(t.Pendency, withHour) {
		get(r).RSPSPendency += r.Number(CPDPendency)
	}
	for _, r := range sheet.Filter(t.Promises, noHour) {
		get(r).Promises += r.Number(Promises)
	}
	for _, r := range sheet.Filter(t.Reliability, withHour) {
		row := get(r)
		row.OFD += r.Number(OFD)
		row.Delivered += r.Number(Delivered)
		row.Availability += r.Number(Availability)
		row.Landing += r.Number(Landing)
	}

	keys := lo.Keys(merged)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].zone != keys[j].zone {
			return keys[i].zone < keys[j].zone
		}
		return keys[i].gm < keys[j].gm
	})

	var out []Row
	grand := Row{Zone: GrandTotal, Total: true}
	for i := 0; i < len(keys); {
		zone := keys[i].zone
		total := Row{Zone: zone, GM: TotalGM, Total: true}
		for ; i < len(keys) && keys[i].zone == zone; i++ {
			row := merged[keys[i]]
			row.ratios()
			out = append(out, *row)
			total.add(*row)
		}
		total.ratios()
		out = append(out, total)
		grand.add(total)
	}
	grand.ratios()
	return append(out, grand)
}

type View struct {
	Rows    []Row         `json:"rows"`
	Options sheet.Options `json:"options"`
}

func Build(t Tables, sel sheet.FilterSpec) View {
	day := sheet.Filter(t.Pendency, sheet.FilterSpec{Date: sel.Date})
	return View{
		Rows:    Rollup(t, sel),
		Options: sheet.OptionsFor(day, sheet.OptionsSpec{Zones: sel.Zones, AllowedZones: Zones}),
	}
}
