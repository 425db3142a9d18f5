package collector

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/hb9tf/spectrelay/sweep"
)

// Store holds at most one sweep, the latest one submitted.
// The zero value is an empty store ready for use.
type Store struct {
	// Now is the collector clock used for receivedAt. Defaults to time.Now.
	Now func() time.Time
	// Export optionally receives every accepted sweep. Sends never block:
	// when the channel is full the archive copy is dropped.
	Export chan<- *sweep.Sweep

	current atomic.Pointer[sweep.Sweep]
}

// Submit decodes a device payload, stamps it and replaces the stored sweep.
// The store is left untouched when an error is returned.
func (s *Store) Submit(payload []byte) (stored *sweep.Sweep, err error) {
	defer func() {
		if r := recover(); r != nil {
			stored, err = nil, fmt.Errorf("processing sweep: %v", r)
		}
	}()

	decoded, err := sweep.Decode(payload)
	if err != nil {
		return nil, err
	}
	stored = decoded.Stamp(s.now())
	s.current.Store(stored)

	if s.Export != nil {
		select {
		case s.Export <- stored:
		default:
			glog.Warningf("export queue full, not archiving sweep from %q\n", stored.Device())
		}
	}
	return stored, nil
}

// Latest returns the stored sweep, or false if nothing was ever submitted.
// Sweeps never expire here; judging staleness is up to the viewer.
func (s *Store) Latest() (*sweep.Sweep, bool) {
	cur := s.current.Load()
	return cur, cur != nil
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
