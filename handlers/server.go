// Package handlers exposes the dashboard over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/jalad-shrimali/opsdash/sheet"
	"github.com/jalad-shrimali/opsdash/snapshot"
	"github.com/jalad-shrimali/opsdash/source"
)

var (
	errBadQuery     = eris.New("bad query")
	errUnknownTable = eris.New("unknown table")
	errNoSnapshot   = eris.New("no snapshot loaded yet")
	errNotLoaded    = eris.New("table not loaded")
)

// Settings are the report parameters that come from configuration.
type Settings struct {
	Event     sheet.DateRange
	TrendDays int
}

type Server struct {
	loader   *snapshot.Loader
	src      source.Source
	settings Settings
	log      zerolog.Logger
}

func New(loader *snapshot.Loader, src source.Source, settings Settings, log zerolog.Logger) *Server {
	return &Server{loader: loader, src: src, settings: settings, log: log}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/refresh", s.refresh)

		r.Get("/tables", s.listTables)
		r.Get("/tables/{table}/records", s.records)
		r.Get("/tables/{table}/options", s.options)
		r.Get("/tables/{table}/aggregate", s.aggregate)

		r.Get("/reports/executives.xlsx", s.executivesWorkbook)
		r.Get("/reports/{name}", s.report)

		r.Get("/tracking", s.tracking)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		}()
		next.ServeHTTP(ww, r)
	})
}

/* ──────────── responses ──────────── */

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug().Err(err).Str("path", r.URL.Path).Msg("write response")
	}
}

func statusOf(err error) int {
	var fe *source.FetchError
	switch {
	case errors.Is(err, errBadQuery):
		return http.StatusBadRequest
	case errors.Is(err, errUnknownTable), errors.Is(err, source.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNoSnapshot), errors.Is(err, errNotLoaded), errors.Is(err, snapshot.ErrNoData):
		return http.StatusServiceUnavailable
	case errors.Is(err, snapshot.ErrStale):
		return http.StatusConflict
	case errors.As(err, &fe):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	ev := s.log.Warn()
	if status >= 500 {
		ev = s.log.Error()
	}
	ev.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	s.writeJSON(w, r, status, map[string]string{"error": err.Error()})
}

/* ──────────── snapshot access ──────────── */

func (s *Server) current() (*snapshot.Snapshot, error) {
	snap := s.loader.Current()
	if snap == nil {
		return nil, errNoSnapshot
	}
	return snap, nil
}

// table returns a loaded table by name. A catalog table whose endpoint
// failed in the current snapshot is reported as not loaded.
func (s *Server) table(name string) (*snapshot.TableData, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	if td, ok := snap.Table(name); ok {
		return td, nil
	}
	for _, t := range s.loader.Tables() {
		if t.Name == name {
			return nil, eris.Wrapf(errNotLoaded, "%s: %s", name, snap.Errors[t.Endpoint])
		}
	}
	return nil, eris.Wrapf(errUnknownTable, "%q", name)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if snap := s.loader.Current(); snap != nil {
		body["snapshot"] = snap.ID
		body["loaded_at"] = snap.LoadedAt
	}
	s.writeJSON(w, r, http.StatusOK, body)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := s.loader.Refresh(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, snap)
}
