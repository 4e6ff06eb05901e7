package main

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/urfave/cli/v2"

	"github.com/jalad-shrimali/opsdash/catalog"
	"github.com/jalad-shrimali/opsdash/export"
	"github.com/jalad-shrimali/opsdash/sheet"
)

var exportCommand = &cli.Command{
	Name:  "export",
	Usage: "load once, filter one table and write it to an xlsx workbook",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "table", Required: true},
		&cli.StringFlag{Name: "out", Value: "filtered.xlsx"},
		&cli.StringFlag{Name: "date"},
		&cli.StringSliceFlag{Name: "zone"},
		&cli.StringFlag{Name: "gm"},
		&cli.StringFlag{Name: "hour"},
		&cli.StringFlag{Name: "start"},
		&cli.StringFlag{Name: "end"},
		&cli.StringFlag{Name: "series", Usage: "numeric field charted by day over start..end"},
	},
	Action: exportTable,
}

/* ──────────── export ──────────── */

func exportTable(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()

	t, ok := catalog.Find(a.loader.Tables(), c.String("table"))
	if !ok {
		return eris.Errorf("unknown table %q", c.String("table"))
	}
	sel, err := exportSelection(c)
	if err != nil {
		return err
	}
	spec := sheet.MetricSpec{Sums: t.Schema.NumberFields()}
	if f := c.String("series"); f != "" {
		if sel.DateRange == nil {
			return eris.New("--series needs --start and --end")
		}
		spec.Series = &sheet.SeriesSpec{Start: sel.DateRange.Start, End: sel.DateRange.End, Measure: sheet.Sum(f)}
	}

	snap, err := a.loader.Refresh(c.Context)
	if err != nil {
		return err
	}
	td, ok := snap.Table(t.Name)
	if !ok {
		return eris.Errorf("table %s did not load: %s", t.Name, snap.Errors[t.Endpoint])
	}

	recs := sheet.Filter(td.Records, sel)
	x, err := export.Filtered(t.Schema, recs, sheet.Aggregate(recs, spec))
	if err != nil {
		return err
	}
	out := c.String("out")
	if err := export.Save(x, out); err != nil {
		return err
	}
	a.log.Info().Str("table", t.Name).Int("records", len(recs)).Str("out", out).Msg("exported")
	return nil
}

func exportSelection(c *cli.Context) (sheet.FilterSpec, error) {
	sel := sheet.FilterSpec{
		Zones: c.StringSlice("zone"),
		GM:    c.String("gm"),
		Hour:  c.String("hour"),
	}
	canon := func(flag string) (string, error) {
		raw := c.String(flag)
		if raw == "" {
			return "", nil
		}
		d, ok := sheet.ParseDate(raw)
		if !ok {
			return "", eris.Errorf("--%s: invalid date %q", flag, raw)
		}
		return d, nil
	}
	var err error
	if sel.Date, err = canon("date"); err != nil {
		return sel, err
	}
	start, err := canon("start")
	if err != nil {
		return sel, err
	}
	end, err := canon("end")
	if err != nil {
		return sel, err
	}
	if start != "" || end != "" {
		if start == "" || end == "" || end < start {
			return sel, eris.Errorf("invalid range %q..%q", start, end)
		}
		sel.DateRange = &sheet.DateRange{Start: start, End: end}
	}
	return sel, nil
}

/* ──────────── inspect ──────────── */

func inspect(c *cli.Context) error {
	a, err := setup(c)
	if err != nil {
		return err
	}
	defer a.close()

	snap, err := a.loader.Refresh(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("snapshot %s loaded %s\n", snap.ID, snap.LoadedAt.Format("2006-01-02 15:04:05"))
	for _, t := range a.loader.Tables() {
		td, ok := snap.Table(t.Name)
		if !ok {
			fmt.Printf("%-22s not loaded: %s\n", t.Name, snap.Errors[t.Endpoint])
			continue
		}
		fmt.Printf("%-22s %6d records  %4d dropped\n", t.Name, len(td.Records), td.Dropped)
		for _, m := range td.Missing {
			if m.Suggestion != "" {
				fmt.Printf("  missing %-20s closest header %q\n", m.Field, m.Suggestion)
			} else {
				fmt.Printf("  missing %s\n", m.Field)
			}
		}
	}

	endpoints := make([]string, 0, len(snap.Errors))
	for e := range snap.Errors {
		endpoints = append(endpoints, e)
	}
	sort.Strings(endpoints)
	for _, e := range endpoints {
		fmt.Printf("endpoint %s failed: %s\n", e, snap.Errors[e])
	}
	return nil
}
