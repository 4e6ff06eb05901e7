package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jalad-shrimali/opsdash/sheet"
)

type tableInfo struct {
	Name     string               `json:"name"`
	Endpoint string               `json:"endpoint"`
	Sheet    string               `json:"sheet,omitempty"`
	Loaded   bool                 `json:"loaded"`
	Records  int                  `json:"records"`
	Dropped  int                  `json:"dropped"`
	Missing  []sheet.MissingField `json:"missing,omitempty"`
	Error    string               `json:"error,omitempty"`
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	snap, err := s.current()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]tableInfo, 0, len(s.loader.Tables()))
	for _, t := range s.loader.Tables() {
		info := tableInfo{Name: t.Name, Endpoint: t.Endpoint, Sheet: t.Sheet}
		if td, ok := snap.Table(t.Name); ok {
			info.Loaded = true
			info.Records = len(td.Records)
			info.Dropped = td.Dropped
			info.Missing = td.Missing
		} else {
			info.Error = snap.Errors[t.Endpoint]
		}
		out = append(out, info)
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"snapshot": snap.ID, "tables": out})
}

func (s *Server) records(w http.ResponseWriter, r *http.Request) {
	td, err := s.table(chi.URLParam(r, "table"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sel, err := selection(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	recs := sheet.Filter(td.Records, sel)
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"table":   td.Name,
		"count":   len(recs),
		"records": recs,
	})
}

func (s *Server) options(w http.ResponseWriter, r *http.Request) {
	td, err := s.table(chi.URLParam(r, "table"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sel, err := selection(r.URL.Query())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if sel.Date == "" {
		sel.Date = latestDate(td.Records)
	}
	day := sheet.Filter(td.Records, sheet.FilterSpec{Date: sel.Date})
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"date":    sel.Date,
		"options": sheet.OptionsFor(day, sheet.OptionsSpec{Zones: sel.Zones}),
	})
}

func (s *Server) aggregate(w http.ResponseWriter, r *http.Request) {
	td, err := s.table(chi.URLParam(r, "table"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	sel, err := selection(q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	spec, err := metricSpec(q, td.Schema, sel.DateRange)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, sheet.Aggregate(sheet.Filter(td.Records, sel), spec))
}
