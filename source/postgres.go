package source

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/jalad-shrimali/opsdash/sheet"
)

// PostgresSource reads tables the same way SQLSource does, from a Postgres
// schema kept in sync with the reporting sheets.
type PostgresSource struct {
	Pool *pgxpool.Pool
}

func NewPostgresSource(ctx context.Context, dbURL string) (*PostgresSource, error) {
	if dbURL == "" {
		return nil, eris.New("DATABASE_URL not set")
	}
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, eris.Wrap(err, "failed to parse database config")
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, eris.Wrap(err, "failed to open database pool")
	}
	return &PostgresSource{Pool: pool}, nil
}

func (s *PostgresSource) Close() error {
	s.Pool.Close()
	return nil
}

func (s *PostgresSource) Fetch(ctx context.Context, req Request) (Payload, error) {
	return load(req, func(table string) (sheet.Grid, error) {
		return s.table(ctx, tableName(table))
	})
}

func (s *PostgresSource) table(ctx context.Context, name string) (sheet.Grid, error) {
	if name == "" {
		return nil, eris.Wrap(ErrNotFound, "empty table name")
	}
	rows, err := s.Pool.Query(ctx, "SELECT * FROM "+pgx.Identifier{name}.Sanitize())
	if err != nil {
		var pgErr interface{ SQLState() string }
		if errors.As(err, &pgErr) && pgErr.SQLState() == "42P01" {
			return nil, eris.Wrapf(ErrNotFound, "table %s", name)
		}
		return nil, eris.Wrapf(err, "query %s", name)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	header := make([]any, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}
	g := sheet.Grid{header}

	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, eris.Wrapf(err, "scan %s", name)
		}
		for i, v := range vals {
			vals[i] = pgCell(v)
		}
		g = append(g, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "read %s", name)
	}
	return g, nil
}

// pgCell turns driver-specific values into cells the parser understands.
func pgCell(v any) any {
	switch n := v.(type) {
	case pgtype.Numeric:
		f, err := n.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case []byte:
		return string(n)
	}
	return v
}
