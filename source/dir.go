package source

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/jalad-shrimali/opsdash/sheet"
)

// DirSource serves fixtures from a directory. An endpoint named FDP-data is
// read from FDP-data.json, FDP-data.xlsx or FDP-data.csv, first match wins.
// In a workbook the first sheet is the top-level grid and every sheet is
// also a named sub-table.
type DirSource struct {
	Dir string
}

func (s DirSource) Fetch(ctx context.Context, req Request) (Payload, error) {
	if err := ctx.Err(); err != nil {
		return Payload{}, err
	}
	base := filepath.Join(s.Dir, req.Name())

	var (
		p   Payload
		err error
	)
	switch {
	case exists(base + ".json"):
		p, err = readJSON(base + ".json")
	case exists(base + ".xlsx"):
		p, err = readWorkbook(base + ".xlsx")
	case exists(base + ".csv"):
		var g sheet.Grid
		g, err = readCSV(base + ".csv")
		p = Payload{Values: g}
	default:
		return Payload{}, eris.Wrapf(ErrNotFound, "no fixture for %s in %s", req.Endpoint, s.Dir)
	}
	if err != nil {
		return Payload{}, err
	}

	if len(req.Query) > 0 {
		p.Values = selectRows(p.Values, req.Query)
		for k, g := range p.Tables {
			p.Tables[k] = selectRows(g, req.Query)
		}
	}
	return p, nil
}

func exists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func readJSON(path string) (Payload, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, eris.Wrapf(err, "read %s", path)
	}
	p, err := DecodePayload(b)
	if err != nil {
		return Payload{}, eris.Wrapf(err, "decode %s", path)
	}
	return p, nil
}

func readWorkbook(path string) (Payload, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return Payload{}, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	p := Payload{Tables: map[string]sheet.Grid{}}
	for i, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return Payload{}, eris.Wrapf(err, "read sheet %s of %s", name, path)
		}
		g := stringGrid(rows)
		p.Tables[name] = g
		if i == 0 {
			p.Values = g
		}
	}
	return p, nil
}

func readCSV(path string) (sheet.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "parse %s", path)
	}
	return stringGrid(rows), nil
}

func stringGrid(rows [][]string) sheet.Grid {
	g := make(sheet.Grid, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		g[i] = cells
	}
	return g
}
