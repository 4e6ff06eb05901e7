package sheet

import (
	"reflect"
	"testing"
)

func rec(date, zone, gm, hour string, plan float64) Record {
	return NewRecord(date,
		map[string]string{FieldZone: zone, FieldGM: gm, FieldHour: hour},
		map[string]float64{"plan": plan})
}

func fixture() []Record {
	return []Record{
		rec("2025-10-01", "East", "Asha", "14", 10),
		rec("2025-10-01", "west", "Ravi", "14 IST", 20),
		rec("2025-10-02", "East", "asha", "15", 30),
		rec("2025-10-03", "North", "Meena", "9", 40),
		rec("2025-10-04", "South", "", "", 50),
	}
}

func TestApplyFilters(t *testing.T) {
	fourteen := 14
	cases := []struct {
		name string
		spec FilterSpec
		want float64
	}{
		{"zero spec", FilterSpec{}, 150},
		{"date", FilterSpec{Date: "2025-10-01"}, 30},
		{"range", FilterSpec{DateRange: &DateRange{Start: "2025-10-02", End: "2025-10-03"}}, 70},
		{"zones case-insensitive", FilterSpec{Zones: []string{"EAST", "West"}}, 60},
		{"zones all", FilterSpec{Zones: []string{"East", All}}, 150},
		{"gm", FilterSpec{GM: "ASHA"}, 40},
		{"gm all", FilterSpec{GM: All}, 150},
		{"hour exact", FilterSpec{Hour: "14"}, 10},
		{"hour all", FilterSpec{Hour: All}, 150},
		{"hour token", FilterSpec{HourToken: &fourteen}, 30},
		{"conjunction", FilterSpec{Date: "2025-10-01", Zones: []string{"east"}, GM: "asha", Hour: "14"}, 10},
		{"no match", FilterSpec{Date: "2025-10-01", Zones: []string{"North"}}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := SumField(ApplyFilters(fixture(), c.spec), "plan")
			if got != c.want {
				t.Errorf("sum = %v, want %v", got, c.want)
			}
		})
	}
}

func TestFilterAllIsIdentity(t *testing.T) {
	in := fixture()
	out := Filter(in, FilterSpec{Zones: []string{All}, GM: All, Hour: All})
	if !reflect.DeepEqual(in, out) {
		t.Errorf("filter with All changed the set:\n%v\n%v", in, out)
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	in := fixture()
	_ = Filter(in, FilterSpec{Date: "2025-10-02"})
	if !reflect.DeepEqual(in, fixture()) {
		t.Errorf("input modified")
	}
}

func TestFilterNoMatchIsEmpty(t *testing.T) {
	out := Filter(fixture(), FilterSpec{Zones: []string{"Central"}})
	if out == nil || len(out) != 0 {
		t.Errorf("out = %#v, want empty non-nil", out)
	}
}

func TestWithoutHour(t *testing.T) {
	h := 14
	s := FilterSpec{Date: "2025-10-01", Hour: "14", HourToken: &h}.WithoutHour()
	if s.Hour != "" || s.HourToken != nil || s.Date != "2025-10-01" {
		t.Errorf("WithoutHour = %+v", s)
	}
}
