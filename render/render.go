package main

/*
This application fetches the latest sweep from a spectrelay collector once
and renders it into an image file, e.g. for reports or cron based snapshots.
*/

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"

	"github.com/hb9tf/spectrelay/collector"
	"github.com/hb9tf/spectrelay/extraction"
	"github.com/hb9tf/spectrelay/viewer"
)

// Flags
var (
	collectorURL = flag.String("collector", "http://localhost:8080"+collector.DefaultEndpoint, "URL of the collector's sweep endpoint.")
	timeout      = flag.Duration("timeout", 10*time.Second, "Timeout for fetching the sweep.")
	imgPath      = flag.String("imgPath", "/tmp/out.png", "Path where the rendered image should be written to (.png or .jpg).")
	imgWidth     = flag.Int("imgWidth", 640, "Width of the plot area in pixels.")
	imgHeight    = flag.Int("imgHeight", 480, "Height of the plot area in pixels.")
	addGrid      = flag.Bool("grid", true, "Adds a grid with frequency and signal strength labels to the image.")
	peaks        = flag.Int("peaks", extraction.MaxPeaks, "Number of peaks to mark in the image.")
)

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := &viewer.Client{
		Endpoint:   *collectorURL,
		HTTPClient: http.DefaultClient,
	}
	s, err := client.FetchLatest(ctx)
	if err != nil {
		glog.Exitf("unable to fetch sweep from %q: %s", *collectorURL, err)
	}

	sum := viewer.Summarize(viewer.State{Connected: true, Sweep: s, LastUpdate: time.Now()})
	fmt.Println("Selected sweep metadata:")
	fmt.Printf("  - Device: %s\n", sum.Device.ID)
	fmt.Printf("  - Received: %s (%s)\n", s.ReceivedAt.Format(time.RFC3339), humanize.Time(s.ReceivedAt))
	fmt.Printf("  - Samples: %d\n", s.SampleCount())
	fmt.Printf("  - Signal range: %s to %s\n", extraction.FormatDBm(sum.Domain.Min), extraction.FormatDBm(sum.Domain.Max))
	for i, p := range sum.Peaks {
		fmt.Printf("  - Peak %d: %s at %s\n", i+1, p.StrengthLabel, p.FrequencyLabel)
	}

	fmt.Printf("Rendering image (%d x %d)\n", *imgWidth, *imgHeight)
	canvas := extraction.RenderChart(s.Samples, &extraction.ChartOptions{
		Width:   *imgWidth,
		Height:  *imgHeight,
		AddGrid: *addGrid,
		Peaks:   *peaks,
	})

	fmt.Printf("Writing image to %q\n", *imgPath)
	if err := writeImage(*imgPath, canvas); err != nil {
		glog.Exitf("unable to write image %q: %s", *imgPath, err)
	}

	glog.Flush()
}

// writeImage encodes img by the file extension of path. The file is only
// reported written once it was closed without error.
func writeImage(path string, img image.Image) error {
	var encode func(io.Writer, image.Image) error
	switch {
	case strings.HasSuffix(path, ".png"):
		encode = png.Encode
	case strings.HasSuffix(path, ".jpg"):
		encode = func(w io.Writer, img image.Image) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: jpeg.DefaultQuality})
		}
	default:
		return fmt.Errorf("unsupported image format, use .png or .jpg")
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
