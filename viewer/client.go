package viewer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hb9tf/spectrelay/sweep"
)

// ErrNoData is returned when the collector has not received any sweep yet.
var ErrNoData = errors.New("no data available")

// StatusError reports a collector response that was neither data nor "no data".
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collector responded with status %d", e.Code)
}

// Fetcher retrieves the collector's current sweep.
type Fetcher interface {
	FetchLatest(ctx context.Context) (*sweep.Sweep, error)
}

// Client fetches sweeps from a collector endpoint over HTTP.
type Client struct {
	// Endpoint is the full URL of the sweep endpoint, e.g. http://host:8080/api/spectrum.
	Endpoint string
	// HTTPClient defaults to http.DefaultClient. Its timeout is the only one applied.
	HTTPClient *http.Client
}

func (c *Client) FetchLatest(ctx context.Context) (*sweep.Sweep, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint, nil)
	if err != nil {
		return nil, err
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", c.Endpoint, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNoData
	default:
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", c.Endpoint, err)
	}
	return sweep.Decode(body)
}
