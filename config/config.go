// Package config holds the runtime settings read from flags, the
// environment and an optional .env file.
package config

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"

	"github.com/jalad-shrimali/opsdash/catalog"
	"github.com/jalad-shrimali/opsdash/sheet"
	"github.com/jalad-shrimali/opsdash/snapshot"
	"github.com/jalad-shrimali/opsdash/source"
)

// source kinds
const (
	SourceHTTP     = "http"
	SourceDir      = "dir"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

var ErrInvalid = eris.New("invalid configuration")

type Config struct {
	APIURL       string
	Listen       string
	Source       string
	FixtureDir   string
	SQLitePath   string
	DatabaseURL  string
	SchemaFile   string
	FetchTimeout time.Duration
	TrendDays    int
	Event        sheet.DateRange
	LogLevel     string
	LogFormat    string
}

// Flags are shared by every command.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "api-url", Value: "http://localhost:3001", EnvVars: []string{"DASH_API_URL"}, Usage: "backend base URL"},
		&cli.StringFlag{Name: "listen", Value: ":8080", EnvVars: []string{"DASH_LISTEN"}, Usage: "HTTP listen address"},
		&cli.StringFlag{Name: "source", Value: SourceHTTP, EnvVars: []string{"DASH_SOURCE"}, Usage: "http, dir, sqlite or postgres"},
		&cli.StringFlag{Name: "fixture-dir", EnvVars: []string{"DASH_FIXTURE_DIR"}, Usage: "directory of .json/.xlsx/.csv tables"},
		&cli.StringFlag{Name: "sqlite-path", EnvVars: []string{"DASH_SQLITE_PATH"}},
		&cli.StringFlag{Name: "database-url", EnvVars: []string{"DATABASE_URL"}},
		&cli.StringFlag{Name: "schema-file", EnvVars: []string{"DASH_SCHEMA_FILE"}, Usage: "YAML header alias overrides"},
		&cli.DurationFlag{Name: "fetch-timeout", Value: 30 * time.Second, EnvVars: []string{"DASH_FETCH_TIMEOUT"}},
		&cli.IntFlag{Name: "trend-days", Value: 10, EnvVars: []string{"DASH_TREND_DAYS"}},
		&cli.StringFlag{Name: "event-start", Value: "2025-09-22", EnvVars: []string{"DASH_EVENT_START"}},
		&cli.StringFlag{Name: "event-end", Value: "2025-10-15", EnvVars: []string{"DASH_EVENT_END"}},
		&cli.StringFlag{Name: "log-level", Value: "info", EnvVars: []string{"DASH_LOG_LEVEL"}},
		&cli.StringFlag{Name: "log-format", Value: "json", EnvVars: []string{"DASH_LOG_FORMAT"}, Usage: "json or console"},
	}
}

// FromContext reads and validates the flags of a command invocation.
func FromContext(c *cli.Context) (Config, error) {
	cfg := Config{
		APIURL:       c.String("api-url"),
		Listen:       c.String("listen"),
		Source:       c.String("source"),
		FixtureDir:   c.String("fixture-dir"),
		SQLitePath:   c.String("sqlite-path"),
		DatabaseURL:  c.String("database-url"),
		SchemaFile:   c.String("schema-file"),
		FetchTimeout: c.Duration("fetch-timeout"),
		TrendDays:    c.Int("trend-days"),
		Event:        sheet.DateRange{Start: c.String("event-start"), End: c.String("event-end")},
		LogLevel:     c.String("log-level"),
		LogFormat:    c.String("log-format"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Source {
	case SourceHTTP:
		if c.APIURL == "" {
			return eris.Wrap(ErrInvalid, "api-url is required for the http source")
		}
	case SourceDir:
		if c.FixtureDir == "" {
			return eris.Wrap(ErrInvalid, "fixture-dir is required for the dir source")
		}
	case SourceSQLite:
		if c.SQLitePath == "" {
			return eris.Wrap(ErrInvalid, "sqlite-path is required for the sqlite source")
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return eris.Wrap(ErrInvalid, "database-url is required for the postgres source")
		}
	default:
		return eris.Wrapf(ErrInvalid, "unknown source %q", c.Source)
	}

	start, ok := sheet.ParseDate(c.Event.Start)
	if !ok {
		return eris.Wrapf(ErrInvalid, "event-start %q", c.Event.Start)
	}
	end, ok := sheet.ParseDate(c.Event.End)
	if !ok {
		return eris.Wrapf(ErrInvalid, "event-end %q", c.Event.End)
	}
	if end < start {
		return eris.Wrap(ErrInvalid, "event window ends before it starts")
	}
	c.Event = sheet.DateRange{Start: start, End: end}

	if c.TrendDays < 1 {
		return eris.Wrapf(ErrInvalid, "trend-days %d", c.TrendDays)
	}
	if c.FetchTimeout < 0 {
		return eris.Wrap(ErrInvalid, "fetch-timeout is negative")
	}
	return nil
}

// Tables returns the catalog with the schema file's alias overrides applied.
func (c *Config) Tables() ([]snapshot.Table, error) {
	if c.SchemaFile == "" {
		return catalog.Tables(), nil
	}
	o, err := LoadOverrides(c.SchemaFile)
	if err != nil {
		return nil, err
	}
	tables, err := catalog.WithOverrides(o)
	if err != nil {
		return nil, eris.Wrap(err, c.SchemaFile)
	}
	return tables, nil
}

// LoadOverrides reads a YAML alias file:
//
//	reliability:
//	  ofd_ofp: ["OFD+OFP", "OFD & OFP"]
func LoadOverrides(path string) (catalog.Overrides, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	var o catalog.Overrides
	if err := yaml.UnmarshalStrict(b, &o); err != nil {
		return nil, eris.Wrapf(ErrInvalid, "%s: %v", path, err)
	}
	return o, nil
}

// OpenSource connects the configured backend. The returned close func is
// never nil.
func (c *Config) OpenSource(ctx context.Context, log zerolog.Logger) (source.Source, func() error, error) {
	noop := func() error { return nil }
	switch c.Source {
	case SourceDir:
		return source.DirSource{Dir: c.FixtureDir}, noop, nil
	case SourceSQLite:
		s, err := source.OpenSQLite(c.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case SourcePostgres:
		s, err := source.NewPostgresSource(ctx, c.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return source.NewHTTPSource(c.APIURL, &http.Client{}, log), noop, nil
	}
}
