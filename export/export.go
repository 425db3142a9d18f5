package export

import (
	"context"

	"github.com/hb9tf/spectrelay/sweep"
)

const countInfo = 1000

type Exporter interface {
	Write(context.Context, <-chan *sweep.Sweep) error
}

// counts tracks export outcomes for the periodic progress log line.
type counts map[string]int

func newCounts() counts {
	return counts{
		"error":   0,
		"success": 0,
		"total":   0,
	}
}
