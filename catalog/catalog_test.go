package catalog

import (
	"errors"
	"testing"

	"github.com/jalad-shrimali/opsdash/reliability"
	"github.com/jalad-shrimali/opsdash/sheet"
)

func TestTablesValid(t *testing.T) {
	seen := map[string]bool{}
	for _, tb := range Tables() {
		if seen[tb.Name] {
			t.Errorf("duplicate table %q", tb.Name)
		}
		seen[tb.Name] = true
		if tb.Schema.Name != tb.Name {
			t.Errorf("%s: schema named %q", tb.Name, tb.Schema.Name)
		}
		if err := tb.Schema.Validate(); err != nil {
			t.Errorf("%s: %v", tb.Name, err)
		}
	}
	if len(seen) != 12 {
		t.Errorf("tables = %d", len(seen))
	}
}

func TestWithOverrides(t *testing.T) {
	tables, err := WithOverrides(Overrides{
		reliability.Table: {reliability.OFDOFP: {"OFD & OFP"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	tb, ok := Find(tables, reliability.Table)
	if !ok {
		t.Fatal("reliability missing")
	}
	f, _ := tb.Schema.Field(reliability.OFDOFP)
	if len(f.Aliases) != 1 || f.Aliases[0] != "OFD & OFP" {
		t.Errorf("aliases = %v", f.Aliases)
	}

	// the built-in definition is untouched
	orig, _ := Find(Tables(), reliability.Table)
	if f, _ := orig.Schema.Field(reliability.OFDOFP); f.Aliases[0] != "OFD+OFP" {
		t.Errorf("built-in aliases changed: %v", f.Aliases)
	}
}

func TestWithOverridesUnknown(t *testing.T) {
	if _, err := WithOverrides(Overrides{"nope": {"x": nil}}); !errors.Is(err, ErrUnknownTable) {
		t.Errorf("unknown table err = %v", err)
	}
	_, err := WithOverrides(Overrides{reliability.Table: {"nope": {"x"}}})
	if !errors.Is(err, sheet.ErrInvalidSchema) {
		t.Errorf("unknown field err = %v", err)
	}
}
