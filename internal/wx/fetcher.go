package wx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultSourceURL = "https://aviationweather.gov/api/data/metar"

// maxResponseBytes caps the METAR response size. Even a large station list is
// well under a megabyte; anything bigger is a misbehaving upstream.
const maxResponseBytes = 5 << 20

// Fetcher retrieves raw METAR JSON for a fixed set of stations.
type Fetcher struct {
	sourceURL  string
	stations   []string
	logger     *slog.Logger
	httpClient *http.Client
}

// NewFetcher creates a Fetcher for the given source URL and station IDs.
// An empty sourceURL selects the aviationweather.gov data API.
func NewFetcher(sourceURL string, logger *slog.Logger, stations ...string) *Fetcher {
	if sourceURL == "" {
		sourceURL = defaultSourceURL
	}
	return &Fetcher{
		sourceURL: sourceURL,
		stations:  stations,
		logger:    logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SourceURL returns the configured source URL.
func (f *Fetcher) SourceURL() string {
	return f.sourceURL
}

// Stations returns the configured station IDs.
func (f *Fetcher) Stations() []string {
	return f.stations
}

// Fetch performs an HTTP GET for all configured stations and returns the raw
// JSON body.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	if len(f.stations) == 0 {
		return nil, fmt.Errorf("no stations configured")
	}

	u, err := url.Parse(f.sourceURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source URL: %w", err)
	}
	q := u.Query()
	q.Set("ids", strings.Join(f.stations, ","))
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "fastplanner-wx/1.0 (aviation weather client)")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching METAR data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, f.sourceURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("response exceeds %d byte limit", maxResponseBytes)
	}

	return body, nil
}
