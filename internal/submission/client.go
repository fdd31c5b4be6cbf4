// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package submission

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/pdiddy/osti-sync/internal/httputil"
	"github.com/pdiddy/osti-sync/pkg/types"
)

// Mode selects where a payload is sent.
type Mode string

const (
	ModeDryRun Mode = "dry-run"
	ModeTest   Mode = "test"
	ModeProd   Mode = "prod"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeDryRun, ModeTest, ModeProd:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want dry-run, test, or prod)", s)
	}
}

// NeedsCredentials reports whether the mode talks to a real endpoint.
func (m Mode) NeedsCredentials() bool {
	return m == ModeTest || m == ModeProd
}

// Client sends a payload to OSTI. A non-SUCCESS entry in the response is
// not an error; the error return is for batch-level failures only.
type Client interface {
	Submit(ctx context.Context, records []types.SubmissionRecord, creds types.Credentials) (*types.SubmissionResponse, error)
}

// NewClient returns the client for mode: a StubClient for dry runs and an
// ELinkClient against the test or production endpoint otherwise. maxRetries
// bounds retries on HTTP 429; zero uses the default.
func NewClient(mode Mode, cfg types.OSTIConfig, hc *http.Client, maxRetries int, log zerolog.Logger) (Client, error) {
	switch mode {
	case ModeDryRun:
		return &StubClient{}, nil
	case ModeTest:
		return &ELinkClient{HTTP: hc, Endpoint: cfg.ELinkTestURL, MaxRetries: maxRetries, Log: log}, nil
	case ModeProd:
		return &ELinkClient{HTTP: hc, Endpoint: cfg.ELinkProdURL, MaxRetries: maxRetries, Log: log}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

// elinkRequest is the XML envelope E-Link expects.
type elinkRequest struct {
	XMLName xml.Name                 `xml:"records"`
	Records []types.SubmissionRecord `xml:"record"`
}

// ELinkClient posts XML to an OSTI E-Link endpoint with HTTP basic auth.
type ELinkClient struct {
	HTTP       *http.Client
	Endpoint   string
	MaxRetries int
	Log        zerolog.Logger
}

// Submit implements Client.
func (c *ELinkClient) Submit(ctx context.Context, records []types.SubmissionRecord, creds types.Credentials) (*types.SubmissionResponse, error) {
	if creds.Empty() {
		return nil, fmt.Errorf("posting to %s: credentials are required", c.Endpoint)
	}

	body, err := xml.Marshal(elinkRequest{Records: records})
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	body = append([]byte(xml.Header), body...)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(creds.Username, creds.Password)
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("Accept", "application/xml")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	c.Log.Info().Str("endpoint", c.Endpoint).Int("records", len(records)).Msg("posting to E-Link")
	resp, err := httputil.DoWithRetry(ctx, hc, req, c.MaxRetries, c.Log)
	if err != nil {
		return nil, fmt.Errorf("posting to %s: %w", c.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &httputil.StatusError{URL: c.Endpoint, StatusCode: resp.StatusCode}
	}

	var out types.SubmissionResponse
	if err := xml.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding E-Link response: %w", err)
	}
	return &out, nil
}

// StubClient answers without touching the network. With Response set it
// returns that response verbatim; otherwise it accepts every record and
// assigns sequential OSTI ids starting at FirstID.
type StubClient struct {
	Response *types.SubmissionResponse
	FirstID  int
}

// Submit implements Client.
func (s *StubClient) Submit(_ context.Context, records []types.SubmissionRecord, _ types.Credentials) (*types.SubmissionResponse, error) {
	if s.Response != nil {
		return s.Response, nil
	}
	first := s.FirstID
	if first == 0 {
		first = 1000000
	}
	out := &types.SubmissionResponse{Records: make([]types.RecordStatus, 0, len(records))}
	for i, r := range records {
		id := strconv.Itoa(first + i)
		out.Records = append(out.Records, types.RecordStatus{
			OSTIID:       id,
			AccessionNum: r.AccessionNum,
			Title:        r.Title,
			ContractNos:  r.ContractNos,
			DOI:          "10.11578/" + id,
			DOIStatus:    "PENDING",
			Status:       types.StatusSuccess,
			RecordAction: "UPDATED",
		})
	}
	return out, nil
}

// CannedResponse is a fixed two-record E-Link reply used to exercise the
// reporting path end to end.
func CannedResponse() *types.SubmissionResponse {
	return &types.SubmissionResponse{Records: []types.RecordStatus{
		{
			OSTIID:       "1488485",
			AccessionNum: "88435/dsp01z316q451j",
			ProductNos:   "None",
			Title:        "Fake title 1: Toward fusion plasma scenario planning",
			ContractNos:  "AC02-09CH11466",
			DOI:          "10.11578/1488485",
			DOIStatus:    "PENDING",
			Status:       types.StatusSuccess,
			RecordAction: "UPDATED",
		},
		{
			OSTIID:       "1491154",
			AccessionNum: "88435/dsp012v23vx30c",
			ProductNos:   "None",
			Title:        "Fake title 2: MHD-blob correlations in NSTX",
			ContractNos:  "AC02 09CH11466; FG02-97ER54392; AC52-07NA27344",
			DOI:          "10.11578/1491154",
			DOIStatus:    "PENDING",
			Status:       types.StatusSuccess,
			RecordAction: "UPDATED",
		},
	}}
}
