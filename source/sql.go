package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"

	"github.com/jalad-shrimali/opsdash/sheet"
)

// SQLSource reads each table as a grid from a read-only SQLite database.
// An endpoint without sheets maps to one table ("sheets-data" →
// sheets_data); a sheet maps to a table qualified by its endpoint
// ("FDP-data" and "Day_Start" → fdp_data_day_start).
type SQLSource struct {
	DB *sql.DB
}

// OpenSQLite opens path read-only.
func OpenSQLite(path string) (*SQLSource, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, eris.Wrapf(err, "cannot open sqlite db at %s", path)
	}
	return &SQLSource{DB: db}, nil
}

func (s *SQLSource) Close() error { return s.DB.Close() }

func (s *SQLSource) Fetch(ctx context.Context, req Request) (Payload, error) {
	return load(req, func(table string) (sheet.Grid, error) {
		return s.table(ctx, tableName(table))
	})
}

func (s *SQLSource) table(ctx context.Context, name string) (sheet.Grid, error) {
	if name == "" {
		return nil, eris.Wrap(ErrNotFound, "empty table name")
	}
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, name).Scan(&n)
	if err != nil {
		return nil, eris.Wrapf(err, "look up table %s", name)
	}
	if n == 0 {
		return nil, eris.Wrapf(ErrNotFound, "table %s", name)
	}

	q := `SELECT * FROM "` + strings.ReplaceAll(name, `"`, `""`) + `"`
	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, eris.Wrapf(err, "query %s", name)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrapf(err, "columns of %s", name)
	}
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	g := sheet.Grid{header}

	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(err, "scan %s", name)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		g = append(g, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "read %s", name)
	}
	return g, nil
}
