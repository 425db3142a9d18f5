package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/hb9tf/spectrelay/sweep"
)

// CSV writes one row per sample. W defaults to stdout.
type CSV struct {
	W io.Writer
}

func (c *CSV) Write(ctx context.Context, sweeps <-chan *sweep.Sweep) error {
	out := c.W
	if out == nil {
		out = os.Stdout
	}
	w := csv.NewWriter(out)
	w.Write([]string{
		"SweepID",
		"DeviceID",
		"ReceivedAtUnixMilli",
		"FreqMHz",
		"RSSIdBm",
	})
	w.Flush()

	for s := range sweeps {
		id := uuid.NewString()
		received := ""
		if !s.ReceivedAt.IsZero() {
			received = fmt.Sprintf("%d", s.ReceivedAt.UnixMilli())
		}
		for _, sample := range s.Samples {
			if err := w.Write([]string{
				id,
				s.Device(),
				received,
				fmt.Sprintf("%f", sample.Frequency),
				fmt.Sprintf("%f", sample.SignalStrength),
			}); err != nil {
				glog.Warningf("error while writing CSV line: %s\n", err)
			}
		}

		w.Flush()
		if err := w.Error(); err != nil {
			glog.Warningf("error flushing CSV: %s\n", err)
		}
	}
	return nil
}
