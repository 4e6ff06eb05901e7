package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"

	"github.com/jalad-shrimali/opsdash/attainment"
	"github.com/jalad-shrimali/opsdash/executives"
	"github.com/jalad-shrimali/opsdash/export"
	"github.com/jalad-shrimali/opsdash/fdp"
	"github.com/jalad-shrimali/opsdash/reliability"
	"github.com/jalad-shrimali/opsdash/rsps"
	"github.com/jalad-shrimali/opsdash/sheet"
	"github.com/jalad-shrimali/opsdash/snapshot"
)

// reportRequest is a parsed report query. Date defaults to the newest date of
// the report's main table; the chart range comes from start and end.
type reportRequest struct {
	snap       *snapshot.Snapshot
	sel        sheet.FilterSpec
	start, end string
}

func (s *Server) reportRequest(r *http.Request, mainTable string) (reportRequest, error) {
	td, err := s.table(mainTable)
	if err != nil {
		return reportRequest{}, err
	}
	sel, err := selection(r.URL.Query())
	if err != nil {
		return reportRequest{}, err
	}
	if sel.Date == "" {
		sel.Date = latestDate(td.Records)
	}
	req := reportRequest{snap: s.loader.Current(), sel: sel}
	if sel.DateRange != nil {
		req.start, req.end = sel.DateRange.Start, sel.DateRange.End
		req.sel.DateRange = nil
	}
	return req, nil
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	var (
		view any
		err  error
	)
	switch name := chi.URLParam(r, "name"); name {
	case "attainment":
		view, err = s.attainmentView(r)
	case "fdp":
		view, err = s.fdpView(r)
	case "rsps":
		view, err = s.rspsView(r)
	case "reliability":
		view, err = s.reliabilityView(r)
	case "executives":
		view, err = s.executivesView(r)
	default:
		err = eris.Wrapf(errUnknownTable, "report %q", name)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) attainmentView(r *http.Request) (any, error) {
	req, err := s.reportRequest(r, attainment.Table)
	if err != nil {
		return nil, err
	}
	event, err := s.eventWindow(r.URL.Query())
	if err != nil {
		return nil, err
	}
	return attainment.Build(req.snap.Records(attainment.Table), req.sel, event, s.settings.TrendDays), nil
}

// eventWindow reads event_start and event_end, each falling back to the
// configured event.
func (s *Server) eventWindow(q url.Values) (sheet.DateRange, error) {
	event := s.settings.Event
	start, err := date(q, "event_start")
	if err != nil {
		return event, err
	}
	end, err := date(q, "event_end")
	if err != nil {
		return event, err
	}
	if start != "" {
		event.Start = start
	}
	if end != "" {
		event.End = end
	}
	if event.End < event.Start {
		return event, eris.Wrapf(errBadQuery, "event %s..%s is reversed", event.Start, event.End)
	}
	return event, nil
}

func (s *Server) fdpView(r *http.Request) (any, error) {
	req, err := s.reportRequest(r, fdp.TablePendency)
	if err != nil {
		return nil, err
	}
	if req.start == "" {
		days := sheet.TrailingDays(req.sel.Date, s.settings.TrendDays)
		if len(days) > 0 {
			req.start, req.end = days[0], days[len(days)-1]
		}
	}
	t := fdp.Tables{
		Pendency: req.snap.Records(fdp.TablePendency),
		DayStart: req.snap.Records(fdp.TableDayStart),
		Promises: req.snap.Records(fdp.TablePromises),
	}
	return fdp.Build(t, req.sel, req.start, req.end), nil
}

func (s *Server) rspsView(r *http.Request) (any, error) {
	req, err := s.reportRequest(r, rsps.TablePendency)
	if err != nil {
		return nil, err
	}
	t := rsps.Tables{
		Pendency: req.snap.Records(rsps.TablePendency),
		DayStart: req.snap.Records(rsps.TableDayStart),
		Promises: req.snap.Records(rsps.TablePromises),
	}
	return rsps.Build(t, req.sel), nil
}

func (s *Server) reliabilityView(r *http.Request) (any, error) {
	req, err := s.reportRequest(r, reliability.Table)
	if err != nil {
		return nil, err
	}
	if req.start == "" {
		req.start, req.end = req.sel.Date, req.sel.Date
	}
	return reliability.Build(req.snap.Records(reliability.Table), req.sel, req.start, req.end), nil
}

func (s *Server) executivesTables(r *http.Request) (executives.Tables, sheet.FilterSpec, error) {
	req, err := s.reportRequest(r, executives.TablePendency)
	if err != nil {
		return executives.Tables{}, sheet.FilterSpec{}, err
	}
	return executives.Tables{
		Pendency:    req.snap.Records(executives.TablePendency),
		DayStart:    req.snap.Records(executives.TableDayStart),
		Promises:    req.snap.Records(executives.TablePromises),
		Reliability: req.snap.Records(executives.TableReliability),
	}, req.sel, nil
}

func (s *Server) executivesView(r *http.Request) (any, error) {
	t, sel, err := s.executivesTables(r)
	if err != nil {
		return nil, err
	}
	return executives.Build(t, sel), nil
}

func (s *Server) executivesWorkbook(w http.ResponseWriter, r *http.Request) {
	t, sel, err := s.executivesTables(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	x, err := export.Executives(executives.Rollup(t, sel))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="executives_`+sel.Date+`.xlsx"`)
	if err := export.Write(x, w); err != nil {
		s.log.Error().Err(err).Msg("write executives workbook")
	}
}
