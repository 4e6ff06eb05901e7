// Package source fetches spreadsheet-shaped payloads for the dashboard
// tables. Every backend (the reporting API, a fixture directory, a SQLite
// file, a Postgres database) returns the same Payload shape.
package source

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/jalad-shrimali/opsdash/sheet"
)

// Request names one endpoint of the reporting API, e.g. "/api/FDP-data".
// Sheets lists the sub-tables the caller expects; Query narrows the rows.
type Request struct {
	Endpoint string
	Sheets   []string
	Query    url.Values
}

// Name is the endpoint's last path element ("FDP-data").
func (r Request) Name() string {
	return path.Base(strings.TrimRight(r.Endpoint, "/"))
}

// Payload is one decoded response: a top-level grid, named sub-table grids,
// or both.
type Payload struct {
	Values sheet.Grid
	Tables map[string]sheet.Grid
}

// Grid returns the named sub-table, or Values for an empty name.
func (p Payload) Grid(name string) sheet.Grid {
	if name == "" {
		return p.Values
	}
	return p.Tables[name]
}

// Source is anything that can answer a Request.
type Source interface {
	Fetch(ctx context.Context, req Request) (Payload, error)
}

var ErrNotFound = eris.New("source: not found")

// FetchError is a failed fetch. Status is the HTTP status when there was one.
type FetchError struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

/* ──────────── helpers ──────────── */

var identJunk = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// tableName maps an endpoint or sheet name to a database table name:
// "FDP-data" → "fdp_data", "Day_Start" → "day_start".
func tableName(s string) string {
	return strings.Trim(identJunk.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_"), "_")
}

// selectRows keeps the header plus the rows whose column for each query key
// equals the query value. Unknown columns match nothing.
func selectRows(grid sheet.Grid, q url.Values) sheet.Grid {
	if len(q) == 0 || len(grid) == 0 {
		return grid
	}
	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = sheet.CellString(h)
	}
	type cond struct {
		col  int
		want string
	}
	var conds []cond
	for k, vs := range q {
		if len(vs) == 0 {
			continue
		}
		conds = append(conds, cond{sheet.ResolveField(headers, k, nil), strings.TrimSpace(vs[0])})
	}

	out := sheet.Grid{grid[0]}
rows:
	for _, row := range grid[1:] {
		for _, c := range conds {
			if c.col < 0 || c.col >= len(row) || strings.TrimSpace(sheet.CellString(row[c.col])) != c.want {
				continue rows
			}
		}
		out = append(out, row)
	}
	return out
}

// load fills a payload from a per-table fetch function: Values when no
// sheets are requested, one sub-table per sheet otherwise. A sheet's table
// is qualified by the endpoint name, since several endpoints share sheet
// names such as Day_Start.
func load(req Request, fetch func(table string) (sheet.Grid, error)) (Payload, error) {
	if len(req.Sheets) == 0 {
		g, err := fetch(req.Name())
		if err != nil {
			return Payload{}, err
		}
		return Payload{Values: selectRows(g, req.Query)}, nil
	}
	p := Payload{Tables: make(map[string]sheet.Grid, len(req.Sheets))}
	for _, s := range req.Sheets {
		g, err := fetch(req.Name() + "_" + s)
		if err != nil {
			return Payload{}, err
		}
		p.Tables[s] = selectRows(g, req.Query)
	}
	return p, nil
}
