package reliability

import (
	"testing"

	"github.com/jalad-shrimali/opsdash/sheet"
)

func records(t *testing.T) []sheet.Record {
	t.Helper()
	recs, err := sheet.Parse(sheet.Grid{
		{"zone", "gm", "hour", "date", "landing", "ofd+ofp", "availability", "delivered", "OFD"},
		{"East", "Asha", "9", "2025-10-01", "500", "10", "100", "20", "40"},
		{"East", "Asha", "11", "2025-10-01", "0", "15", "90", "30", "50"},
		{"East", "Asha", "13", "2025-10-01", "", "20", "80", "45", "60"},
		{"West", "Ravi", "13", "2025-10-01", "300", "5", "50", "10", "10"},
		{"East", "Asha", "9", "2025-10-02", "400", "1", "1", "1", "2"},
	}, Schema)
	if err != nil {
		t.Fatal(err)
	}
	return recs
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats(records(t), sheet.FilterSpec{Date: "2025-10-01", Zones: []string{"East"}, Hour: "13"})
	if s.OFDOFP != 20 || s.Delivered != 45 || s.OFD != 60 || s.Availability != 80 {
		t.Errorf("stats = %+v", s)
	}
	if s.Conversion != 75 {
		t.Errorf("conversion = %v", s.Conversion)
	}
	// 13 and 11 have no landing; 9 does.
	if s.Landing != 500 {
		t.Errorf("landing = %v, want fallback to 500", s.Landing)
	}
}

func TestComputeStatsNoFallbackForAll(t *testing.T) {
	s := ComputeStats(records(t), sheet.FilterSpec{Date: "2025-10-01", Zones: []string{"East"}, Hour: sheet.All})
	if s.Landing != 500 || s.OFD != 150 {
		t.Errorf("stats = %+v", s)
	}
	s = ComputeStats(records(t), sheet.FilterSpec{Date: "2025-10-01", Zones: []string{"East"}, Hour: "9"})
	if s.Landing != 500 {
		t.Errorf("landing at first hour = %v", s.Landing)
	}
}

func TestHourly(t *testing.T) {
	rows := Hourly(records(t), sheet.FilterSpec{Date: "2025-10-01", GM: "asha", Hour: "13"})
	if len(rows) != 3 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Label != "9:00" || rows[2].Label != "13:00" {
		t.Errorf("labels = %q %q", rows[0].Label, rows[2].Label)
	}
	for i, r := range rows {
		if r.Landing != 500 {
			t.Errorf("row %d landing = %v, want carried 500", i, r.Landing)
		}
	}
	if rows[1].Delivered != 30 {
		t.Errorf("11:00 = %+v", rows[1])
	}
}

func TestDaily(t *testing.T) {
	rows := Daily(records(t), sheet.FilterSpec{Zones: []string{"East"}}, "2025-10-01", "2025-10-03")
	if len(rows) != 3 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].OFD != 150 || rows[1].OFD != 2 || rows[2].OFD != 0 {
		t.Errorf("ofd = %v %v %v", rows[0].OFD, rows[1].OFD, rows[2].OFD)
	}
	if rows[0].Label != "1 Oct" {
		t.Errorf("label = %q", rows[0].Label)
	}
}

func TestLatestHour(t *testing.T) {
	if got := LatestHour(records(t), "2025-10-01"); got != "13" {
		t.Errorf("LatestHour = %q", got)
	}
	if got := LatestHour(records(t), "2025-12-25"); got != sheet.All {
		t.Errorf("LatestHour(no data) = %q", got)
	}
}

func TestBuildDefaultsHour(t *testing.T) {
	v := Build(records(t), sheet.FilterSpec{Date: "2025-10-01"}, "2025-10-01", "2025-10-01")
	if v.Hour != "13" {
		t.Errorf("hour = %q", v.Hour)
	}
	// 13:00 has 300 landing from West, so no fallback.
	if v.Stats.Landing != 300 {
		t.Errorf("landing = %v", v.Stats.Landing)
	}
	if len(v.Chart) != 3 {
		t.Errorf("single day should chart by hour: %+v", v.Chart)
	}
}
