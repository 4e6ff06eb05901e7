package source

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// maxBody caps a response body; the largest sheets are a few MB.
const maxBody = 64 << 20

// ErrBodyTooLarge is wrapped in the FetchError for a response over the cap.
var ErrBodyTooLarge = eris.New("source: response body too large")

// HTTPSource fetches from the reporting API.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
	Log     zerolog.Logger
	// MaxBody caps the response size in bytes; zero means maxBody.
	MaxBody int64
}

func NewHTTPSource(baseURL string, client *http.Client, log zerolog.Logger) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{BaseURL: strings.TrimRight(baseURL, "/"), Client: client, Log: log}
}

func (s *HTTPSource) Fetch(ctx context.Context, req Request) (Payload, error) {
	u := s.BaseURL + "/" + strings.TrimLeft(req.Endpoint, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Payload{}, eris.Wrapf(err, "build request for %s", req.Endpoint)
	}
	hreq.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(hreq)
	if err != nil {
		return Payload{}, eris.Wrap(&FetchError{Endpoint: req.Endpoint, Err: err}, "http fetch")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Payload{}, eris.Wrapf(ErrNotFound, "%s", req.Endpoint)
	}
	if resp.StatusCode != http.StatusOK {
		return Payload{}, eris.Wrap(&FetchError{Endpoint: req.Endpoint, Status: resp.StatusCode}, "http fetch")
	}

	limit := s.MaxBody
	if limit <= 0 {
		limit = maxBody
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return Payload{}, eris.Wrap(&FetchError{Endpoint: req.Endpoint, Err: err}, "read body")
	}
	// a cut-off body would decode, after repair, as a shorter sheet
	if int64(len(body)) > limit {
		return Payload{}, eris.Wrapf(&FetchError{Endpoint: req.Endpoint, Err: ErrBodyTooLarge}, "over %d bytes", limit)
	}
	s.Log.Debug().Str("endpoint", req.Endpoint).Int("bytes", len(body)).Msg("fetched")

	p, err := DecodePayload(body)
	if err != nil {
		return Payload{}, eris.Wrapf(err, "decode %s", req.Endpoint)
	}
	return p, nil
}
