package powerscan

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/hb9tf/spectrelay/sweep"
)

// Supported scanners. Both print the same CSV row format.
const (
	RTLSDRSourceName = "rtlsdr"
	HackRFSourceName = "hackrf"

	rtlSweepAlias    = "rtl_power"
	hackrfSweepAlias = "hackrf_sweep"

	// Leading columns of every row: date, time, Hz low, Hz high, Hz bin width, samples.
	metaColumns = 6
)

// Source runs rtl_power or hackrf_sweep and turns its output into sweeps.
type Source struct {
	Identifier string
	// Tool is RTLSDRSourceName or HackRFSourceName.
	Tool string

	// LowFreq is the lower frequency to start the sweeps with in Hz.
	LowFreq int64
	// HighFreq is the upper frequency to end the sweeps with in Hz.
	HighFreq int64
	// BinSize is the FFT bin width (frequency resolution) in Hz.
	BinSize int64
	// IntegrationInterval is the duration during which to collect information per frequency.
	IntegrationInterval time.Duration
}

func (s Source) Name() string {
	return s.Tool
}

func (s *Source) command(ctx context.Context) (*exec.Cmd, error) {
	switch s.Tool {
	case RTLSDRSourceName:
		return exec.CommandContext(ctx, rtlSweepAlias,
			"-f", fmt.Sprintf("%d:%d:%d", s.LowFreq, s.HighFreq, s.BinSize),
			"-i", fmt.Sprintf("%ds", int(s.IntegrationInterval.Seconds())),
			"-", // dumps samples to stdout
		), nil
	case HackRFSourceName:
		return exec.CommandContext(ctx, hackrfSweepAlias,
			"-f", fmt.Sprintf("%d:%d", s.LowFreq/1000000, s.HighFreq/1000000),
			"-w", strconv.FormatInt(s.BinSize, 10),
			"-a", "1", // RX RF amplifier 1=Enable, 0=Disable
			"-l", "16", // RX LNA (IF) gain, 0-40dB, 8dB steps
			"-g", "20", // RX VGA (baseband) gain, 0-62dB, 2dB steps
		), nil
	default:
		return nil, fmt.Errorf("%q is not a supported scanner", s.Tool)
	}
}

func (s *Source) Stream(ctx context.Context, sweeps chan<- *sweep.Sweep) error {
	cmd, err := s.command(ctx)
	if err != nil {
		return err
	}
	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	// Start() executes command asynchronically.
	glog.Infof("Running %s sweep: %q\n", s.Tool, cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("unable to start sweep: %w", err)
	}
	parseErr := s.parse(ctx, out, sweeps)
	if err := cmd.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("sweep command ended with error: %w", err)
	}
	return parseErr
}

// row is one line of scanner output, a slice of a full sweep.
type row struct {
	time     time.Time
	freqLow  float64
	freqHigh float64
	samples  []sweep.Sample
}

// parse groups rows into sweeps. A sweep ends when the scanner wraps around
// to a frequency at or below the one it started the previous row with.
func (s *Source) parse(ctx context.Context, r io.Reader, sweeps chan<- *sweep.Sweep) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var current *sweep.Sweep
	lastLow := 0.0
	emit := func() error {
		if current == nil {
			return nil
		}
		current.StepCount = sweep.Ptr(int64(len(current.Samples)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sweeps <- current:
		}
		current = nil
		return nil
	}

	for scanner.Scan() {
		glog.V(3).Info(scanner.Text())
		rw, err := scanRow(scanner.Text())
		if err != nil {
			glog.Warningf("error parsing line: %s\n", err)
			continue
		}

		if current != nil && rw.freqLow <= lastLow {
			if err := emit(); err != nil {
				return err
			}
		}
		if current == nil {
			current = &sweep.Sweep{
				DeviceID:       sweep.Ptr(s.Identifier),
				Timestamp:      sweep.Ptr(float64(rw.time.UnixMilli())),
				FrequencyStart: sweep.Ptr(rw.freqLow),
				FrequencyEnd:   sweep.Ptr(rw.freqHigh),
			}
		}
		if rw.freqHigh > *current.FrequencyEnd {
			current.FrequencyEnd = sweep.Ptr(rw.freqHigh)
		}
		current.Samples = append(current.Samples, rw.samples...)
		lastLow = rw.freqLow
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return emit()
}

func parseFloat(num string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(num), 64)
}

// calculateBinRange calculates the highest and lowest frequencies in a bin
func calculateBinRange(freqLow, freqHigh, binWidth float64, binNum int) (float64, float64) {
	low := freqLow + (float64(binNum) * binWidth)
	high := low + binWidth
	if high > freqHigh {
		high = freqHigh
	}
	return low, high
}

func scanRow(line string) (*row, error) {
	cols := strings.Split(line, ",")
	if len(cols) <= metaColumns {
		return nil, fmt.Errorf("row has %d columns, want more than %d", len(cols), metaColumns)
	}

	parsedTime, err := time.Parse(time.RFC3339, strings.TrimSpace(cols[0])+"T"+strings.TrimSpace(cols[1])+"Z")
	if err != nil {
		return nil, err
	}
	freqLow, err := parseFloat(cols[2])
	if err != nil {
		return nil, err
	}
	freqHigh, err := parseFloat(cols[3])
	if err != nil {
		return nil, err
	}
	binWidth, err := parseFloat(cols[4])
	if err != nil {
		return nil, err
	}

	rw := &row{
		time:     parsedTime,
		freqLow:  freqLow / 1e6,
		freqHigh: freqHigh / 1e6,
	}
	for i := 0; i < len(cols)-metaColumns; i++ {
		low, high := calculateBinRange(freqLow, freqHigh, binWidth, i)
		decibels, err := parseFloat(cols[i+metaColumns])
		if err != nil {
			return nil, err
		}
		rw.samples = append(rw.samples, sweep.Sample{
			Frequency:      (low + high) / 2 / 1e6,
			SignalStrength: decibels,
		})
	}
	return rw, nil
}
