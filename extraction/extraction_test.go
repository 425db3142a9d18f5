package extraction

import (
	"image/color"
	"math"
	"testing"

	"github.com/hb9tf/spectrelay/sweep"
)

func TestGetColorEndpoints(t *testing.T) {
	if got := GetColor(0); got != colors[0] {
		t.Errorf("GetColor(0) = %v, want %v", got, colors[0])
	}
	if got := GetColor(math.MaxUint16); got != colors[len(colors)-1] {
		t.Errorf("GetColor(max) = %v, want %v", got, colors[len(colors)-1])
	}
}

func TestGetReadableFreq(t *testing.T) {
	tests := []struct {
		freq int64
		want string
	}{
		{500, "500.00 Hz"},
		{12500, "12.50 kHz"},
		{433920000, "433.92 MHz"},
		{2400000000, "2.40 GHz"},
	}
	for _, tc := range tests {
		if got := GetReadableFreq(tc.freq); got != tc.want {
			t.Errorf("GetReadableFreq(%d) = %q, want %q", tc.freq, got, tc.want)
		}
	}
}

func TestFindGridStepSize(t *testing.T) {
	if got := findGridStepSize(640, true); got != 160 {
		t.Errorf("findGridStepSize(640, true) = %d, want 160", got)
	}
	if got := findGridStepSize(480, false); got != 30 {
		t.Errorf("findGridStepSize(480, false) = %d, want 30", got)
	}
}

func TestRenderChartSize(t *testing.T) {
	samples := []sweep.Sample{{Frequency: 400, SignalStrength: -90}, {Frequency: 500, SignalStrength: -60}, {Frequency: 600, SignalStrength: -80}}

	img := RenderChart(samples, &ChartOptions{Width: 200, Height: 100})
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != 200 || h != 100 {
		t.Errorf("chart size = %dx%d, want 200x100", w, h)
	}

	img = RenderChart(samples, &ChartOptions{Width: 200, Height: 100, AddGrid: true})
	wantW, wantH := 200+gridMarginLeft, 100+gridMarginTop+gridMarginBottom
	if w, h := img.Bounds().Dx(), img.Bounds().Dy(); w != wantW || h != wantH {
		t.Errorf("chart with grid size = %dx%d, want %dx%d", w, h, wantW, wantH)
	}
}

func TestRenderChartDrawsTrace(t *testing.T) {
	samples := []sweep.Sample{{Frequency: 400, SignalStrength: -90}, {Frequency: 500, SignalStrength: -60}, {Frequency: 600, SignalStrength: -80}}
	img := RenderChart(samples, &ChartOptions{Width: 101, Height: 41, Peaks: 1})

	// Domain is [-95, -55]; the first sample sits 5 dB below the top of a 40 pixel range.
	if got := img.RGBAAt(0, 35); got == (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("pixel of first sample is background")
	}
	// The strongest sample is marked as a peak.
	if got := img.RGBAAt(50, 5); got != peakColor {
		t.Errorf("peak pixel = %v, want %v", got, peakColor)
	}
	if got := img.RGBAAt(100, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("corner pixel = %v, want background", got)
	}
}

func TestRenderChartEmpty(t *testing.T) {
	img := RenderChart(nil, &ChartOptions{Width: 50, Height: 20, AddGrid: true, Peaks: MaxPeaks})
	if img.Bounds().Empty() {
		t.Fatal("RenderChart(nil) returned an empty image")
	}
}
