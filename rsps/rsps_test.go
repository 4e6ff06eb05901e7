package rsps

import (
	"testing"

	"github.com/jalad-shrimali/opsdash/sheet"
)

func tables(t *testing.T) Tables {
	t.Helper()
	must := func(g sheet.Grid, s sheet.Schema) []sheet.Record {
		recs, err := sheet.Parse(g, s)
		if err != nil {
			t.Fatal(err)
		}
		return recs
	}
	return Tables{
		Pendency: must(sheet.Grid{
			{"date", "zone", "gm", "hour", "overall_pendency", "cpd-pendency", "eob-pendency", "ipd3-pendency", "ipd3+-pendency", "fpd-pendency", "cpd_-attempted_&marked_ncd", "cpd_-attempted_&_marked_cd"},
			{"2025-10-01", "East", "Asha", "14 IST", "40", "20", "10", "5", "3", "2", "7", "1"},
			{"2025-10-01", "East", "Asha", "15 IST", "99", "99", "99", "99", "99", "99", "99", "99"},
			{"2025-10-01", "West", "Ravi", "14", "10", "5", "", "", "", "", "1", "0"},
		}, PendencySchema),
		DayStart: must(sheet.Grid{
			{"Date", "Zone", "GM", "Hour", "Overall DayStart", "Day Start-CPD", "Day Start-EOB", "Day Start-IPD3", "Day Start-IPD3+", "DayStart-FPD"},
			{"2025-10-01", "East", "Asha", "9", "200", "100", "50", "0", "30", "20"},
			{"2025-10-01", "West", "Ravi", "9", "100", "50", "", "", "", ""},
		}, DayStartSchema),
		Promises: must(sheet.Grid{
			{"date", "zone", "gm_name", "promises"},
			{"2025-10-01", "East", "Asha", "300"},
		}, PromisesSchema),
	}
}

func TestComputeMetricsHourToken(t *testing.T) {
	m := ComputeMetrics(tables(t), sheet.FilterSpec{Date: "2025-10-01", Hour: "14"})
	want := []CategoryMetrics{
		{"Overall", 300, 50, 16.67},
		{"CPD", 150, 25, 16.67},
		{"EOB", 50, 10, 20},
		{"IPD3", 0, 5, 0},
		{"IPD3+", 30, 3, 10},
		{"FPD", 20, 2, 10},
	}
	if len(m.Categories) != len(want) {
		t.Fatalf("categories = %v", m.Categories)
	}
	for i := range want {
		if m.Categories[i] != want[i] {
			t.Errorf("%s = %+v, want %+v", want[i].Category, m.Categories[i], want[i])
		}
	}
	if m.NCD != 8 || m.CD != 1 || m.Promises != 300 {
		t.Errorf("ncd/cd/promises = %v/%v/%v", m.NCD, m.CD, m.Promises)
	}
}

func TestComputeMetricsAllHours(t *testing.T) {
	m := ComputeMetrics(tables(t), sheet.FilterSpec{Date: "2025-10-01", Zones: []string{"East"}, Hour: sheet.All})
	if m.Categories[0].Pendency != 139 || m.Categories[0].DayStart != 200 {
		t.Errorf("overall = %+v", m.Categories[0])
	}
}

func TestHourSpec(t *testing.T) {
	s := HourSpec(sheet.FilterSpec{Hour: "14 IST"})
	if s.Hour != "" || s.HourToken == nil || *s.HourToken != 14 {
		t.Errorf("HourSpec = %+v", s)
	}
	if s := HourSpec(sheet.FilterSpec{Hour: sheet.All}); s.HourToken != nil {
		t.Errorf("All produced a token")
	}
}

func TestBuildOptions(t *testing.T) {
	v := Build(tables(t), sheet.FilterSpec{Date: "2025-10-01"})
	if len(v.Options.HourTokens) != 2 || v.Options.HourTokens[0] != 14 {
		t.Errorf("tokens = %v", v.Options.HourTokens)
	}
}
