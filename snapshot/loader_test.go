package snapshot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jalad-shrimali/opsdash/sheet"
	"github.com/jalad-shrimali/opsdash/source"
)

var planSchema = sheet.Schema{
	Name: "plan",
	Fields: []sheet.Field{
		{Name: sheet.FieldDate, Aliases: []string{"Date"}, Kind: sheet.KindDate},
		{Name: sheet.FieldZone, Aliases: []string{"Zone"}},
		{Name: "plan", Aliases: []string{"Plan"}, Kind: sheet.KindNumber},
	},
}

type fakeSource struct {
	mu       sync.Mutex
	payloads map[string]source.Payload
	requests []source.Request
	// blockFirst makes the first call wait for cancellation.
	blockFirst bool
	calls      atomic.Int32
	started    chan struct{}
	// hang lists endpoints that never answer.
	hang map[string]bool
}

func (f *fakeSource) Fetch(ctx context.Context, req source.Request) (source.Payload, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.hang[req.Endpoint] {
		<-ctx.Done()
		return source.Payload{}, ctx.Err()
	}
	if f.calls.Add(1) == 1 && f.blockFirst {
		close(f.started)
		<-ctx.Done()
		return source.Payload{}, ctx.Err()
	}
	p, ok := f.payloads[req.Endpoint]
	if !ok {
		return source.Payload{}, source.ErrNotFound
	}
	return p, nil
}

func tables() []Table {
	return []Table{
		{Name: "plan", Endpoint: "/api/sheets-data", Schema: planSchema},
		{Name: "promises", Endpoint: "/api/FDP-data", Sheet: "Promises", Schema: planSchema},
		{Name: "day_start", Endpoint: "/api/FDP-data", Sheet: "Day_Start", Schema: planSchema},
	}
}

func TestRefresh(t *testing.T) {
	src := &fakeSource{payloads: map[string]source.Payload{
		"/api/sheets-data": {Values: sheet.Grid{
			{"Date", "Zone", "Plan"},
			{"2025-10-01", "East", "10"},
			{"bad", "East", "99"},
		}},
		"/api/FDP-data": {Tables: map[string]sheet.Grid{
			"Promises": {{"Date", "Zone"}, {"2025-10-01", "West"}},
		}},
	}}
	l := NewLoader(src, tables(), time.Second, zerolog.Nop())
	if l.Current() != nil {
		t.Fatal("snapshot before first load")
	}

	snap, err := l.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if l.Current() != snap {
		t.Errorf("current not swapped in")
	}
	if len(src.requests) != 2 {
		t.Errorf("expected one fetch per endpoint, got %d", len(src.requests))
	}

	plan, ok := snap.Table("plan")
	if !ok {
		t.Fatal("plan table missing")
	}
	if plan.Rows != 2 || plan.Dropped != 1 || len(plan.Records) != 1 {
		t.Errorf("plan = rows %d dropped %d records %d", plan.Rows, plan.Dropped, len(plan.Records))
	}
	if len(snap.Records("promises")) != 1 {
		t.Errorf("promises = %v", snap.Records("promises"))
	}
	if ds, _ := snap.Table("day_start"); len(ds.Records) != 0 {
		t.Errorf("absent sheet should load empty")
	}
	if got := snap.Records("promises")[0].Number("plan"); got != 0 {
		t.Errorf("missing plan column = %v", got)
	}
	if pm, _ := snap.Table("promises"); len(pm.Missing) != 1 || pm.Missing[0].Field != "plan" {
		t.Errorf("missing = %v", pm.Missing)
	}
}

func TestRefreshPartialFailure(t *testing.T) {
	src := &fakeSource{payloads: map[string]source.Payload{
		"/api/sheets-data": {Values: sheet.Grid{{"Date"}, {"2025-10-01"}}},
	}}
	snap, err := NewLoader(src, tables(), 0, zerolog.Nop()).Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := snap.Errors["/api/FDP-data"]; !ok {
		t.Errorf("errors = %v", snap.Errors)
	}
	if _, ok := snap.Table("promises"); ok {
		t.Errorf("failed endpoint produced a table")
	}
}

func TestRefreshEndpointTimeout(t *testing.T) {
	src := &fakeSource{
		hang: map[string]bool{"/api/FDP-data": true},
		payloads: map[string]source.Payload{
			"/api/sheets-data": {Values: sheet.Grid{{"Date", "Zone", "Plan"}, {"2025-10-01", "East", "10"}}},
		},
	}
	l := NewLoader(src, tables(), 50*time.Millisecond, zerolog.Nop())
	snap, err := l.Refresh(context.Background())
	if err != nil {
		t.Fatalf("one slow endpoint failed the refresh: %v", err)
	}
	if _, ok := snap.Errors["/api/FDP-data"]; !ok {
		t.Errorf("errors = %v", snap.Errors)
	}
	if len(snap.Records("plan")) != 1 {
		t.Errorf("plan = %v", snap.Records("plan"))
	}
	if _, ok := snap.Table("promises"); ok {
		t.Errorf("timed out endpoint produced a table")
	}
	if l.Current() != snap {
		t.Errorf("current not swapped in")
	}
}

func TestRefreshAllFailed(t *testing.T) {
	_, err := NewLoader(&fakeSource{}, tables(), 0, zerolog.Nop()).Refresh(context.Background())
	if !errors.Is(err, ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestRefreshInvalidSchema(t *testing.T) {
	src := &fakeSource{payloads: map[string]source.Payload{
		"/api/x": {Values: sheet.Grid{{"Date"}, {"2025-10-01"}}},
	}}
	bad := []Table{{Name: "x", Endpoint: "/api/x", Schema: sheet.Schema{Name: "x"}}}
	_, err := NewLoader(src, bad, 0, zerolog.Nop()).Refresh(context.Background())
	if !errors.Is(err, sheet.ErrInvalidSchema) {
		t.Errorf("err = %v, want ErrInvalidSchema", err)
	}
}

func TestRefreshStale(t *testing.T) {
	src := &fakeSource{
		blockFirst: true,
		started:    make(chan struct{}),
		payloads: map[string]source.Payload{
			"/api/sheets-data": {Values: sheet.Grid{{"Date"}, {"2025-10-01"}}},
		},
	}
	one := []Table{{Name: "plan", Endpoint: "/api/sheets-data", Schema: planSchema}}
	l := NewLoader(src, one, 0, zerolog.Nop())

	errc := make(chan error, 1)
	go func() {
		_, err := l.Refresh(context.Background())
		errc <- err
	}()
	<-src.started

	snap, err := l.Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := <-errc; !errors.Is(err, ErrStale) {
		t.Errorf("first refresh err = %v, want ErrStale", err)
	}
	if l.Current() != snap {
		t.Errorf("stale refresh replaced the newer snapshot")
	}
}
