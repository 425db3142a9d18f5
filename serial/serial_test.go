package serial

import (
	"context"
	"strings"
	"testing"

	"github.com/hb9tf/spectrelay/sweep"
)

const console = `WiFi Spectrum Analyzer
=====================
Connecting to WiFi....
{"deviceId":"dev","timestamp":1,"data":[{"freq":400,"rssi":-110}]}
Data sent successfully, code: 200
{"deviceId":"dev", broken
   {"deviceId":"dev","timestamp":2,"data":[]}
`

func TestStreamSkipsDebugOutput(t *testing.T) {
	src := &Source{Reader: strings.NewReader(console)}
	out := make(chan *sweep.Sweep, 10)
	if err := src.Stream(context.Background(), out); err != nil {
		t.Fatalf("Stream() failed: %v", err)
	}
	close(out)

	var got []*sweep.Sweep
	for s := range out {
		got = append(got, s)
	}
	if len(got) != 2 {
		t.Fatalf("Stream() produced %d sweeps, want 2", len(got))
	}
	if *got[0].Timestamp != 1 || len(got[0].Samples) != 1 {
		t.Errorf("first sweep = %+v", got[0])
	}
	if *got[1].Timestamp != 2 {
		t.Errorf("second sweep = %+v", got[1])
	}
}

func TestStreamStopsOnCancel(t *testing.T) {
	src := &Source{Reader: strings.NewReader(console)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := src.Stream(ctx, make(chan *sweep.Sweep)); err != context.Canceled {
		t.Errorf("Stream() = %v, want context.Canceled", err)
	}
}
