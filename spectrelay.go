package main

/*
This application is the spectrelay dashboard. It polls a collector for the
latest sweep and shows it as a chart with its strongest peaks.
*/

import (
	"context"
	"errors"
	"flag"
	"html/template"
	"image/png"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/golang/glog"

	"github.com/hb9tf/spectrelay/collector"
	"github.com/hb9tf/spectrelay/extraction"
	"github.com/hb9tf/spectrelay/sweep"
	"github.com/hb9tf/spectrelay/viewer"
)

// Flags
var (
	listen       = flag.String("listen", ":3000", "Address and port to serve the dashboard on.")
	collectorURL = flag.String("collector", "http://localhost:8080"+collector.DefaultEndpoint, "URL of the collector's sweep endpoint.")
	interval     = flag.Duration("interval", viewer.DefaultInterval, "Time between polls of the collector.")
	timeout      = flag.Duration("timeout", 5*time.Second, "Timeout of a single poll.")
	chartWidth   = flag.Int("chartWidth", 800, "Width of the chart plot area in pixels.")
	chartHeight  = flag.Int("chartHeight", 300, "Height of the chart plot area in pixels.")
)

const indexTmpl = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta http-equiv="refresh" content="1">
  <title>Spectrum Analyzer</title>
</head>
<body>
  <h1>Spectrum Analyzer</h1>
  <p>
    {{if .Connected}}Connected{{else}}Disconnected{{end}}
    {{with .LastUpdate}} &middot; Last update: {{.Format "15:04:05"}} ({{ago .}}){{end}}
  </p>
  {{with .Device}}
  <p>
    Device: {{if .ID}}{{.ID}}{{else}}unknown{{end}}
    {{if and .FrequencyStart .FrequencyEnd}} &middot; {{deref .FrequencyStart}} - {{deref .FrequencyEnd}} MHz{{end}}
    {{with .StepCount}} &middot; {{.}} steps{{end}}
  </p>
  {{end}}
  <img src="/chart.png" alt="Spectrum">
  {{if .Peaks}}
  <h2>Peak Signals</h2>
  <ol>
    {{range .Peaks}}<li>{{.FrequencyLabel}}: {{.StrengthLabel}}</li>
    {{end}}
  </ol>
  {{end}}
  {{if .Instructions}}
  <h2>Waiting for spectrum data</h2>
  <p>Make sure the:</p>
  <ul>
    {{range .Instructions}}<li>{{.}}</li>
    {{end}}
  </ul>
  {{end}}
</body>
</html>
`

type dashboard struct {
	poller *viewer.Poller
}

func (d *dashboard) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index", viewer.Summarize(d.poller.State()))
}

func (d *dashboard) view(c *gin.Context) {
	c.JSON(http.StatusOK, viewer.Summarize(d.poller.State()))
}

func (d *dashboard) chart(c *gin.Context) {
	var samples []sweep.Sample
	if st := d.poller.State(); st.Sweep != nil {
		samples = st.Sweep.Samples
	}
	img := extraction.RenderChart(samples, &extraction.ChartOptions{
		Width:   *chartWidth,
		Height:  *chartHeight,
		AddGrid: true,
		Peaks:   extraction.MaxPeaks,
	})
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", "image/png")
	if err := png.Encode(c.Writer, img); err != nil {
		glog.Warningf("unable to encode chart: %s\n", err)
	}
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

	poller := &viewer.Poller{
		Fetcher: &viewer.Client{
			Endpoint:   *collectorURL,
			HTTPClient: &http.Client{Timeout: *timeout},
		},
		Interval: *interval,
	}
	go poller.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetHTMLTemplate(template.Must(template.New("index").Funcs(template.FuncMap{
		"deref": func(f *float64) float64 { return *f },
		"ago":   func(t *time.Time) string { return humanize.Time(*t) },
	}).Parse(indexTmpl)))

	d := &dashboard{poller: poller}
	r.GET("/", d.index)
	r.GET("/api/view", d.view)
	r.GET("/chart.png", d.chart)

	srv := &http.Server{
		Addr:    *listen,
		Handler: r,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	glog.Infof("Serving dashboard on %s for collector %s\n", *listen, *collectorURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		glog.Fatal(err)
	}

	glog.Flush()
}
