package main

/*
This application feeds sweeps from a local source to a spectrelay collector
(or into a local archive).

A typical setup bridges a scanner attached over USB:

	stty -F /dev/ttyUSB0 115200 raw
	collection -source serial -serialDevice /dev/ttyUSB0 -collector http://localhost:8080/api/spectrum
*/

import (
	"context"
	"database/sql"
	"flag"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/hb9tf/spectrelay/collector"
	"github.com/hb9tf/spectrelay/export"
	"github.com/hb9tf/spectrelay/filter"
	"github.com/hb9tf/spectrelay/powerscan"
	"github.com/hb9tf/spectrelay/serial"
	"github.com/hb9tf/spectrelay/sweep"
	"github.com/hb9tf/spectrelay/synthetic"

	// Blind import support for sqlite3 used by sql.go.
	_ "github.com/mattn/go-sqlite3"
)

// Flags
var (
	identifier = flag.String("id", "", "unique identifier of source instance (defaults to a random UUID)")
	sourceType = flag.String("source", synthetic.SourceName, "Sweep source to use (one of: serial, synthetic, rtlsdr, hackrf)")
	output     = flag.String("output", "relay", "Export mechanism to use (one of: relay, csv, sqlite)")

	// Serial
	serialDevice = flag.String("serialDevice", "/dev/ttyUSB0", "Serial device the scanner console is attached to, \"-\" reads stdin. Configure the baud rate beforehand, e.g. with stty.")

	// Synthetic
	freqBegin    = flag.Float64("freqBegin", 400, "lower frequency boundary in MHz (synthetic)")
	freqEnd      = flag.Float64("freqEnd", 960, "upper frequency boundary in MHz (synthetic)")
	freqSteps    = flag.Int("freqSteps", 64, "samples per sweep (synthetic)")
	interval     = flag.Duration("interval", time.Second, "time between sweeps (synthetic)")
	carriers     = flag.String("carriers", "915", "Comma separated list of simulated carrier frequencies in MHz (synthetic)")
	interference = flag.Bool("interference", true, "Add random interference (synthetic)")

	// rtl_power / hackrf_sweep
	lowFreq             = flag.Int64("lowFreq", 400000000, "lower frequency boundary in Hz (rtlsdr, hackrf)")
	highFreq            = flag.Int64("highFreq", 450000000, "upper frequency boundary in Hz (rtlsdr, hackrf)")
	binSize             = flag.Int64("binSize", 12500, "size of the bin in Hz (rtlsdr, hackrf)")
	integrationInterval = flag.Duration("integrationInterval", 5*time.Second, "duration to aggregate samples (rtlsdr)")

	// Filters
	filterLowFreq  = flag.Float64("filterLowFreq", 0, "Drop sweeps without a sample at or above this frequency in MHz.")
	filterHighFreq = flag.Float64("filterHighFreq", 0, "Drop sweeps without a sample at or below this frequency in MHz, 0 means no upper bound.")
	dropEmpty      = flag.Bool("dropEmpty", true, "Drop sweeps without usable samples.")

	// Relay
	collectorURL = flag.String("collector", "http://localhost:8080"+collector.DefaultEndpoint, "URL of the collector's sweep endpoint.")
	pace         = flag.Duration("pace", 20*time.Millisecond, "Pause after each relayed sweep.")

	// SQLite
	sqliteFile = flag.String("sqliteFile", "/tmp/spectrelay", "File path of the sqlite DB file to use.")
)

func parseCarriers(raw string) ([]float64, error) {
	var freqs []float64
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		freq, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		freqs = append(freqs, freq)
	}
	return freqs, nil
}

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *identifier == "" {
		*identifier = uuid.NewString()
	}

	// Source setup
	var src sweep.Source
	switch strings.ToLower(*sourceType) {
	case serial.SourceName:
		var r io.Reader = os.Stdin
		if *serialDevice != "-" {
			f, err := os.Open(*serialDevice)
			if err != nil {
				glog.Exitf("unable to open serial device %q: %s", *serialDevice, err)
			}
			defer f.Close()
			r = f
		}
		src = &serial.Source{
			Reader: r,
		}
	case synthetic.SourceName:
		freqs, err := parseCarriers(*carriers)
		if err != nil {
			glog.Exitf("unable to parse carriers %q: %s", *carriers, err)
		}
		src = &synthetic.Source{
			Identifier:   *identifier,
			FreqBegin:    *freqBegin,
			FreqEnd:      *freqEnd,
			Steps:        *freqSteps,
			Interval:     *interval,
			Carriers:     freqs,
			Interference: *interference,
		}
	case powerscan.RTLSDRSourceName, powerscan.HackRFSourceName:
		src = &powerscan.Source{
			Identifier:          *identifier,
			Tool:                strings.ToLower(*sourceType),
			LowFreq:             *lowFreq,
			HighFreq:            *highFreq,
			BinSize:             *binSize,
			IntegrationInterval: *integrationInterval,
		}
	default:
		glog.Exitf("%q is not a supported source, pick one of: serial, synthetic, rtlsdr, hackrf", *sourceType)
	}

	// Filter setup
	var filters []filter.Filterer
	if *dropEmpty {
		filters = append(filters, &filter.FilterEmpty{})
	}
	if *filterLowFreq != 0 || *filterHighFreq != 0 {
		high := *filterHighFreq
		if high == 0 {
			high = math.Inf(1)
		}
		filters = append(filters, &filter.FilterFreq{
			FreqLow:  *filterLowFreq,
			FreqHigh: high,
		})
	}

	// Exporter setup
	var exporter export.Exporter
	switch strings.ToLower(*output) {
	case "relay":
		exporter = &export.Relay{
			Endpoint: *collectorURL,
			Pace:     *pace,
		}
	case "csv":
		exporter = &export.CSV{}
	case "sqlite":
		db, err := sql.Open("sqlite3", *sqliteFile)
		if err != nil {
			glog.Exitf("unable to open sqlite DB %q: %s", *sqliteFile, err)
		}
		defer db.Close()
		exporter = &export.SQL{
			DB: db,
		}
	default:
		glog.Exitf("%q is not a supported export method, pick one of: relay, csv, sqlite", *output)
	}

	// Run
	glog.Infof("Streaming sweeps from %s source as %q\n", src.Name(), *identifier)
	sweeps := make(chan *sweep.Sweep)
	filtered := make(chan *sweep.Sweep)
	go func() {
		defer close(sweeps)
		if err := src.Stream(ctx, sweeps); err != nil && ctx.Err() == nil {
			glog.Errorf("%s source stopped: %s\n", src.Name(), err)
		}
	}()
	go filter.Filter(sweeps, filtered, filters)

	if err := exporter.Write(ctx, filtered); err != nil && ctx.Err() == nil {
		glog.Fatal(err)
	}

	glog.Flush()
}
