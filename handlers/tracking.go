package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/jalad-shrimali/opsdash/sheet"
	"github.com/jalad-shrimali/opsdash/source"
)

const trackingEndpoint = "/api/tracking-data"

var errNoShipment = eris.Wrap(source.ErrNotFound, "no shipment with that tracking id")

// tracking looks one shipment up on the backend and returns its first row
// keyed by header.
func (s *Server) tracking(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("tracking_id"))
	if id == "" {
		s.fail(w, r, eris.Wrap(errBadQuery, "tracking_id is required"))
		return
	}
	p, err := s.src.Fetch(r.Context(), source.Request{
		Endpoint: trackingEndpoint,
		Query:    url.Values{"tracking_id": {id}},
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(p.Values) < 2 {
		s.fail(w, r, errNoShipment)
		return
	}
	header, row := p.Values[0], p.Values[1]
	out := make(map[string]any, len(header))
	for i, h := range header {
		name := sheet.CellString(h)
		if name == "" {
			continue
		}
		var v any
		if i < len(row) {
			v = row[i]
		}
		out[name] = v
	}
	s.writeJSON(w, r, http.StatusOK, out)
}
