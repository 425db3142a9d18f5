package serial

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/golang/glog"

	"github.com/hb9tf/spectrelay/sweep"
)

const (
	SourceName = "serial"

	maxLineSize = 1 << 20
)

// Source reads a device console that prints one JSON sweep per line in
// between human readable debug output.
type Source struct {
	Reader io.Reader
}

func (s Source) Name() string {
	return SourceName
}

func (s *Source) Stream(ctx context.Context, sweeps chan<- *sweep.Sweep) error {
	scanner := bufio.NewScanner(s.Reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] != '{' {
			// Skip non-JSON debug lines.
			glog.V(3).Infof("device: %s\n", line)
			continue
		}
		sw, err := sweep.Decode(line)
		if err != nil {
			glog.V(2).Infof("skipping undecodable line: %s\n", err)
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case sweeps <- sw:
		}
	}
	return scanner.Err()
}
