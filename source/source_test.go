package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/jalad-shrimali/opsdash/sheet"
)

func TestDecodePayloadValues(t *testing.T) {
	p, err := DecodePayload([]byte(`{"values": [["Date","Plan"],["2025-10-01", 12.5],["2025-10-02"]]}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Values) != 3 {
		t.Fatalf("values = %v", p.Values)
	}
	if n, ok := p.Values[1][1].(json.Number); !ok || n.String() != "12.5" {
		t.Errorf("cell = %#v, want json.Number", p.Values[1][1])
	}
	if len(p.Values[2]) != 1 {
		t.Errorf("short row not kept short: %v", p.Values[2])
	}
}

func TestDecodePayloadSubTables(t *testing.T) {
	body := `{"FDP_Pendency": {"values": [["date"]]}, "Promises": {"values": [["date"],["2025-10-01"]]}, "meta": 3}`
	p, err := DecodePayload([]byte(body))
	if err != nil {
		t.Fatal(err)
	}
	if p.Values != nil {
		t.Errorf("unexpected top-level values")
	}
	if len(p.Tables) != 2 || len(p.Grid("Promises")) != 2 {
		t.Errorf("tables = %v", p.Tables)
	}
}

func TestDecodePayloadRepairsTrailingComma(t *testing.T) {
	p, err := DecodePayload([]byte(`{"values": [["Date","Plan"],["2025-10-01","5"],],}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Values) != 2 {
		t.Errorf("values = %v", p.Values)
	}
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sheets-data":
			w.Write([]byte(`{"values": [["Date","Plan"],["2025-10-01","10"]]}`))
		case "/api/tracking-data":
			if r.URL.Query().Get("tracking_id") != "FMPC123" {
				w.Write([]byte(`{"values": [["Tracking ID"]]}`))
				return
			}
			w.Write([]byte(`{"values": [["Tracking ID","Status"],["FMPC123","Delivered"]]}`))
		case "/api/broken":
			http.Error(w, "boom", http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := NewHTTPSource(srv.URL+"/", srv.Client(), zerolog.Nop())
	ctx := context.Background()

	p, err := s.Fetch(ctx, Request{Endpoint: "/api/sheets-data"})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Values) != 2 {
		t.Errorf("values = %v", p.Values)
	}

	p, err = s.Fetch(ctx, Request{Endpoint: "/api/tracking-data", Query: url.Values{"tracking_id": {"FMPC123"}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Values) != 2 {
		t.Errorf("query not forwarded: %v", p.Values)
	}

	_, err = s.Fetch(ctx, Request{Endpoint: "/api/broken"})
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Status != http.StatusBadGateway {
		t.Errorf("err = %v, want FetchError with 502", err)
	}

	_, err = s.Fetch(ctx, Request{Endpoint: "/api/missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHTTPSourceBodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values": [["Date","Plan"]`))
		for i := 0; i < 100; i++ {
			w.Write([]byte(`,["2025-10-01","10"]`))
		}
		w.Write([]byte(`]}`))
	}))
	defer srv.Close()

	s := NewHTTPSource(srv.URL, srv.Client(), zerolog.Nop())
	s.MaxBody = 512
	p, err := s.Fetch(context.Background(), Request{Endpoint: "/api/sheets-data"})
	var fe *FetchError
	if !errors.As(err, &fe) || !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("err = %v, rows = %d; want FetchError for oversized body", err, len(p.Values))
	}
	if fe.Endpoint != "/api/sheets-data" {
		t.Errorf("endpoint = %q", fe.Endpoint)
	}

	s.MaxBody = 1 << 20
	p, err = s.Fetch(context.Background(), Request{Endpoint: "/api/sheets-data"})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Values) != 101 {
		t.Errorf("rows = %d, want 101", len(p.Values))
	}
}

func TestHTTPSourceCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHTTPSource(srv.URL, srv.Client(), zerolog.Nop()).Fetch(ctx, Request{Endpoint: "/api/sheets-data"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "sheets-data.json"), `{"values": [["Date","Zone"],["2025-10-01","East"],["2025-10-01","West"]]}`)
	writeFile(t, filepath.Join(dir, "reliability-data.csv"), "Date,Zone,OFD\n2025-10-01,East,5\n2025-10-02,West\n")

	wb := excelize.NewFile()
	wb.SetSheetName("Sheet1", "RSPS_Pendency")
	wb.SetSheetRow("RSPS_Pendency", "A1", &[]any{"date", "zone"})
	wb.SetSheetRow("RSPS_Pendency", "A2", &[]any{"2025-10-01", "East"})
	wb.NewSheet("Day_Start")
	wb.SetSheetRow("Day_Start", "A1", &[]any{"date"})
	if err := wb.SaveAs(filepath.Join(dir, "RSPS-data.xlsx")); err != nil {
		t.Fatal(err)
	}

	s := DirSource{Dir: dir}
	ctx := context.Background()

	p, err := s.Fetch(ctx, Request{Endpoint: "/api/sheets-data", Query: url.Values{"Zone": {"West"}}})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Values) != 2 || p.Values[1][1] != "West" {
		t.Errorf("json fixture = %v", p.Values)
	}

	p, err = s.Fetch(ctx, Request{Endpoint: "/api/reliability-data"})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Values) != 3 || len(p.Values[2]) != 2 {
		t.Errorf("csv fixture = %v", p.Values)
	}

	p, err = s.Fetch(ctx, Request{Endpoint: "/api/RSPS-data"})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Grid("RSPS_Pendency")) != 2 || len(p.Grid("Day_Start")) != 1 {
		t.Errorf("workbook fixture = %v", p.Tables)
	}
	if len(p.Values) != 2 {
		t.Errorf("first sheet not used as values: %v", p.Values)
	}

	if _, err := s.Fetch(ctx, Request{Endpoint: "/api/nope"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.db")
	rw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, stmt := range []string{
		`CREATE TABLE sheets_data (Date TEXT, Zone TEXT, Plan REAL)`,
		`INSERT INTO sheets_data VALUES ('2025-10-01', 'East', 100), ('2025-10-01', 'West', 50)`,
		`CREATE TABLE fdp_data_day_start (date TEXT, zone TEXT)`,
	} {
		if _, err := rw.Exec(stmt); err != nil {
			t.Fatal(err)
		}
	}
	rw.Close()

	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	ctx := context.Background()

	p, err := s.Fetch(ctx, Request{Endpoint: "/api/sheets-data"})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Values) != 3 || p.Values[0][2] != "Plan" {
		t.Fatalf("values = %v", p.Values)
	}
	if sheet.ToNumber(p.Values[1][2]) != 100 {
		t.Errorf("plan cell = %#v", p.Values[1][2])
	}

	p, err = s.Fetch(ctx, Request{Endpoint: "/api/FDP-data", Sheets: []string{"Day_Start"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Grid("Day_Start")) != 1 {
		t.Errorf("day start = %v", p.Tables)
	}

	if _, err := s.Fetch(ctx, Request{Endpoint: "/api/FDP-data", Sheets: []string{"Promises"}}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestTableName(t *testing.T) {
	for in, want := range map[string]string{
		"FDP-data":      "fdp_data",
		"Day_Start":     "day_start",
		" sheets-data ": "sheets_data",
		`x"; drop`:      "x_drop",
	} {
		if got := tableName(in); got != want {
			t.Errorf("tableName(%q) = %q, want %q", in, got, want)
		}
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}
