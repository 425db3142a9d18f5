package viewer

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/hb9tf/spectrelay/sweep"
)

const DefaultInterval = 250 * time.Millisecond

// State is what a viewer knows about the collector.
type State struct {
	Connected bool
	// Sweep is the last sweep fetched successfully. It is kept when the
	// connection is lost so the display can show the last known data.
	Sweep *sweep.Sweep
	// LastUpdate is when Sweep was fetched, zero before the first success.
	LastUpdate time.Time
}

// Poller keeps a cached copy of the collector's sweep fresh by polling it on
// a fixed cadence. Polls may overlap, the response of the most recently
// issued poll that has completed always wins.
type Poller struct {
	Fetcher  Fetcher
	Interval time.Duration
	Now      func() time.Time

	mu      sync.Mutex
	state   State
	issued  uint64
	applied uint64
	stopped bool
}

// Run polls right away and then every Interval until ctx is done. Fetches still in flight at that point are not
// aborted but their results are discarded.
func (p *Poller) Run(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	p.start()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer p.stop()

	// In-flight fetches outlive the poller, only the timer is cancelled.
	fetchCtx := context.WithoutCancel(ctx)
	poll := func() {
		seq := p.issue()
		go func() {
			s, err := p.Fetcher.FetchLatest(fetchCtx)
			p.complete(seq, s, err)
		}()
	}

	poll()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}

// Poll runs a single poll synchronously and returns the fetch error, if any.
func (p *Poller) Poll(ctx context.Context) error {
	seq := p.issue()
	s, err := p.Fetcher.FetchLatest(ctx)
	p.complete(seq, s, err)
	return err
}

// State returns a copy of the current state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) issue() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued++
	return p.issued
}

// start lets a poller torn down earlier apply results again.
func (p *Poller) start() {
	p.mu.Lock()
	p.stopped = false
	p.mu.Unlock()
}

func (p *Poller) stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
}

// complete applies the outcome of poll seq unless a newer poll already
// completed or the poller was stopped. It reports whether it was applied.
func (p *Poller) complete(seq uint64, s *sweep.Sweep, err error) bool {
	if err == nil && s == nil {
		err = ErrNoData
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		glog.V(2).Infof("discarding poll %d, viewer stopped\n", seq)
		return false
	}
	if seq <= p.applied {
		glog.V(2).Infof("discarding poll %d, poll %d completed already\n", seq, p.applied)
		return false
	}
	p.applied = seq

	if err != nil {
		glog.V(1).Infof("error fetching sweep: %s\n", err)
		if p.state.Connected {
			glog.Warningf("lost connection to collector: %s\n", err)
		}
		p.state.Connected = false
		return true
	}

	if !p.state.Connected {
		glog.Infof("connected to collector, sweep from %q\n", s.Device())
	}
	p.state = State{
		Connected:  true,
		Sweep:      s,
		LastUpdate: p.now(),
	}
	return true
}

func (p *Poller) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
