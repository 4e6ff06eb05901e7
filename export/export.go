// Package export writes dashboard data to xlsx workbooks.
package export

import (
	"io"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/jalad-shrimali/opsdash/executives"
	"github.com/jalad-shrimali/opsdash/sheet"
)

// sheet names
const (
	SheetRecords    = "records"
	SheetSummary    = "summary"
	SheetDaily      = "daily"
	SheetExecutives = "executives"
)

type book struct {
	x     *excelize.File
	first bool
}

func newBook() *book { return &book{x: excelize.NewFile(), first: true} }

func (b *book) add(name string, rows [][]any) error {
	idx, err := b.x.NewSheet(name)
	if err != nil {
		return eris.Wrapf(err, "sheet %s", name)
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return eris.Wrap(err, "cell name")
			}
			if err := b.x.SetCellValue(name, cell, v); err != nil {
				return eris.Wrapf(err, "%s!%s", name, cell)
			}
		}
	}
	if b.first {
		b.x.SetActiveSheet(idx)
		b.first = false
	}
	return nil
}

func (b *book) done() *excelize.File {
	if b.x.SheetCount > 1 {
		b.x.DeleteSheet("Sheet1")
	}
	return b.x
}

// Filtered builds the workbook for one filtered table: every record, the
// aggregate metrics and, when res carries one, the daily series.
func Filtered(schema sheet.Schema, records []sheet.Record, res sheet.Result) (*excelize.File, error) {
	b := newBook()

	header := make([]any, len(schema.Fields))
	for i, f := range schema.Fields {
		header[i] = f.Name
	}
	rows := [][]any{header}
	for _, r := range records {
		row := make([]any, len(schema.Fields))
		for i, f := range schema.Fields {
			switch {
			case f.Name == sheet.FieldDate:
				row[i] = r.Date
			case f.Kind == sheet.KindNumber:
				row[i] = r.Number(f.Name)
			default:
				row[i] = r.Text(f.Name)
			}
		}
		rows = append(rows, row)
	}
	if err := b.add(SheetRecords, rows); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(res.Metrics))
	for n := range res.Metrics {
		names = append(names, n)
	}
	sort.Strings(names)
	summary := [][]any{{"metric", "value"}}
	for _, n := range names {
		summary = append(summary, []any{n, sheet.Round(res.Metrics[n], 2)})
	}
	if err := b.add(SheetSummary, summary); err != nil {
		return nil, err
	}

	if res.Series != nil {
		daily := [][]any{{"date", "label", "value"}}
		for _, p := range res.Series {
			daily = append(daily, []any{p.Date, p.Label, sheet.Round(p.Value, 2)})
		}
		if err := b.add(SheetDaily, daily); err != nil {
			return nil, err
		}
	}
	return b.done(), nil
}

// Executives builds the executive summary workbook.
func Executives(rows []executives.Row) (*excelize.File, error) {
	b := newBook()
	out := [][]any{{
		"Zone", "GM", "Daystart_cpd", "RSPS_Pendency", "Promises", "Pendency %",
		"OFD", "Delivered", "Conversion %", "Availability", "Landing",
	}}
	for _, r := range rows {
		out = append(out, []any{
			r.Zone, r.GM, r.DayStartCPD, r.RSPSPendency, r.Promises, r.PendencyPct,
			r.OFD, r.Delivered, r.Conversion, r.Availability, r.Landing,
		})
	}
	if err := b.add(SheetExecutives, out); err != nil {
		return nil, err
	}
	return b.done(), nil
}

// Write streams a workbook and closes it.
func Write(x *excelize.File, w io.Writer) error {
	defer x.Close()
	if err := x.Write(w); err != nil {
		return eris.Wrap(err, "write workbook")
	}
	return nil
}

// Save writes a workbook to path and closes it.
func Save(x *excelize.File, path string) error {
	defer x.Close()
	if err := x.SaveAs(path); err != nil {
		return eris.Wrapf(err, "save %s", path)
	}
	return nil
}
