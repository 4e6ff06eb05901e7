package snapshot

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jalad-shrimali/opsdash/sheet"
	"github.com/jalad-shrimali/opsdash/source"
)

var (
	// ErrStale is returned by a Refresh that a newer Refresh overtook.
	ErrStale = eris.New("snapshot: superseded by a newer refresh")
	// ErrNoData is returned when every endpoint failed.
	ErrNoData = eris.New("snapshot: no endpoint could be loaded")
)

// Loader owns the current snapshot.
type Loader struct {
	src     source.Source
	tables  []Table
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	current *Snapshot
}

func NewLoader(src source.Source, tables []Table, timeout time.Duration, log zerolog.Logger) *Loader {
	return &Loader{src: src, tables: tables, timeout: timeout, log: log}
}

// Current returns the latest snapshot, nil before the first successful load.
func (l *Loader) Current() *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Tables returns the table definitions the loader reads.
func (l *Loader) Tables() []Table { return l.tables }

// Refresh fetches every endpoint and parses every table. Starting a refresh
// cancels the one in flight; a refresh that finishes after a newer one
// started returns ErrStale and leaves the current snapshot alone. The fetch
// timeout applies to each endpoint on its own, and an endpoint that runs
// past it is recorded in Snapshot.Errors like any other failed fetch.
func (l *Loader) Refresh(ctx context.Context) (*Snapshot, error) {
	l.mu.Lock()
	l.gen++
	gen := l.gen
	if l.cancel != nil {
		l.cancel()
	}
	ctx, l.cancel = context.WithCancel(ctx)
	cancel := l.cancel
	l.mu.Unlock()
	defer cancel()

	start := time.Now()
	snap, err := l.load(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return nil, ErrStale
	}
	l.cancel = nil
	if err != nil {
		return nil, err
	}
	l.current = snap

	ev := l.log.Info().Str("snapshot", snap.ID.String()).Dur("took", time.Since(start))
	for _, n := range snap.Names() {
		ev = ev.Int(n, len(snap.Tables[n].Records))
	}
	ev.Int("failed_endpoints", len(snap.Errors)).Msg("snapshot loaded")
	return snap, nil
}

// load fetches each endpoint once, concurrently.
func (l *Loader) load(ctx context.Context) (*Snapshot, error) {
	type group struct {
		endpoint string
		sheets   []string
	}
	var groups []*group
	byEndpoint := map[string]*group{}
	for _, t := range l.tables {
		g, ok := byEndpoint[t.Endpoint]
		if !ok {
			g = &group{endpoint: t.Endpoint}
			byEndpoint[t.Endpoint] = g
			groups = append(groups, g)
		}
		if t.Sheet != "" {
			g.sheets = append(g.sheets, t.Sheet)
		}
	}

	var (
		mu       sync.Mutex
		payloads = map[string]source.Payload{}
		failed   = map[string]string{}
	)
	eg, ctx := errgroup.WithContext(ctx)
	for _, g := range groups {
		g := g
		eg.Go(func() error {
			p, err := l.fetch(ctx, source.Request{Endpoint: g.endpoint, Sheets: g.sheets})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.log.Warn().Err(err).Str("endpoint", g.endpoint).Msg("fetch failed")
				mu.Lock()
				failed[g.endpoint] = err.Error()
				mu.Unlock()
				return nil
			}
			mu.Lock()
			payloads[g.endpoint] = p
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, eris.Wrap(err, "refresh cancelled")
	}
	if len(groups) > 0 && len(payloads) == 0 {
		return nil, ErrNoData
	}

	snap := &Snapshot{
		ID:       uuid.New(),
		LoadedAt: time.Now(),
		Tables:   make(map[string]*TableData, len(l.tables)),
	}
	if len(failed) > 0 {
		snap.Errors = failed
	}
	for _, t := range l.tables {
		p, ok := payloads[t.Endpoint]
		if !ok {
			continue
		}
		td, err := parseTable(t, p.Grid(t.Sheet))
		if err != nil {
			return nil, err
		}
		for _, m := range td.Missing {
			l.log.Warn().Str("table", t.Name).Str("field", m.Field).Str("closest_header", m.Suggestion).Msg("field not found")
		}
		snap.Tables[t.Name] = td
	}
	return snap, nil
}

func (l *Loader) fetch(ctx context.Context, req source.Request) (source.Payload, error) {
	if l.timeout <= 0 {
		return l.src.Fetch(ctx, req)
	}
	fctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	p, err := l.src.Fetch(fctx, req)
	if err != nil && ctx.Err() == nil && fctx.Err() != nil {
		err = eris.Wrapf(fctx.Err(), "fetch %s timed out after %s", req.Endpoint, l.timeout)
	}
	return p, err
}

func parseTable(t Table, grid sheet.Grid) (*TableData, error) {
	recs, err := sheet.ParseRows(grid, t.Schema)
	if err != nil {
		return nil, eris.Wrapf(err, "table %s", t.Name)
	}
	rows := 0
	if len(grid) > 1 {
		rows = len(grid) - 1
	}
	return &TableData{
		Table:   t,
		Records: recs,
		Rows:    rows,
		Dropped: rows - len(recs),
		Missing: sheet.Diagnose(grid, t.Schema),
	}, nil
}
