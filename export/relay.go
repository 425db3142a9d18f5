package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang/glog"

	"github.com/hb9tf/spectrelay/sweep"
)

const contentType = "application/json"

// Relay forwards every sweep to a collector, one POST per sweep.
type Relay struct {
	// Endpoint is the collector's sweep URL, e.g. http://localhost:8080/api/spectrum.
	Endpoint   string
	HTTPClient *http.Client
	// Pace is the pause after each POST.
	Pace time.Duration
}

type ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (r *Relay) Write(ctx context.Context, sweeps <-chan *sweep.Sweep) error {
	counts := newCounts()
	for s := range sweeps {
		counts["total"] += 1
		if err := r.post(ctx, s); err != nil {
			counts["error"] += 1
			glog.Warningf("error POSTing sweep: %s\n", err)
		} else {
			counts["success"] += 1
		}
		if counts["total"]%countInfo == 0 {
			glog.Infof("Sweep relay counts: %+v\n", counts)
		}

		if r.Pace > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.Pace):
			}
		}
	}

	return nil
}

func (r *Relay) post(ctx context.Context, s *sweep.Sweep) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshalling sweep to JSON: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading POST response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		a := ack{}
		json.Unmarshal(respBody, &a)
		return fmt.Errorf("collector responded %d: %s", resp.StatusCode, a.Error)
	}
	glog.V(1).Infof("POST %d bytes=%d device=%q samples=%d\n", resp.StatusCode, len(body), s.Device(), s.SampleCount())
	return nil
}
