package extraction

import (
	"fmt"
	"sort"

	"github.com/hb9tf/spectrelay/sweep"
)

const (
	// FallbackMin and FallbackMax bound the dBm axis when there is nothing to plot.
	FallbackMin = -140.0
	FallbackMax = -40.0
	// DomainPadding is added below the weakest and above the strongest sample.
	DomainPadding = 5.0

	// NoiseFloor in dBm. Samples at or below it are never reported as peaks.
	NoiseFloor = -100.0
	MaxPeaks   = 5
)

// Domain is the signal strength range of the chart's Y axis in dBm.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Point is one entry of the plotting series.
type Point struct {
	Label          string  `json:"frequency"`
	Frequency      float64 `json:"-"`
	SignalStrength float64 `json:"rssi"`
}

// AutoScale computes the Y axis domain for samples. It is recomputed for every
// sweep without smoothing, so the axis may jump between refreshes.
func AutoScale(samples []sweep.Sample) Domain {
	if len(samples) == 0 {
		return Domain{Min: FallbackMin, Max: FallbackMax}
	}
	min, max := samples[0].SignalStrength, samples[0].SignalStrength
	for _, s := range samples[1:] {
		if s.SignalStrength < min {
			min = s.SignalStrength
		}
		if s.SignalStrength > max {
			max = s.SignalStrength
		}
	}
	return Domain{Min: min - DomainPadding, Max: max + DomainPadding}
}

// Peaks returns at most limit samples stronger than threshold, strongest first.
// Equal strengths keep their sweep (frequency) order.
func Peaks(samples []sweep.Sample, threshold float64, limit int) []sweep.Sample {
	peaks := make([]sweep.Sample, 0, len(samples))
	for _, s := range samples {
		if s.SignalStrength > threshold {
			peaks = append(peaks, s)
		}
	}
	sort.SliceStable(peaks, func(i, j int) bool {
		return peaks[i].SignalStrength > peaks[j].SignalStrength
	})
	if limit < 0 {
		limit = 0
	}
	if len(peaks) > limit {
		peaks = peaks[:limit]
	}
	return peaks
}

// Series converts samples to the full resolution plotting series.
func Series(samples []sweep.Sample) []Point {
	points := make([]Point, 0, len(samples))
	for _, s := range samples {
		points = append(points, Point{
			Label:          fmt.Sprintf("%.1f", s.Frequency),
			Frequency:      s.Frequency,
			SignalStrength: s.SignalStrength,
		})
	}
	return points
}

func FormatMHz(freq float64) string {
	return fmt.Sprintf("%.1f MHz", freq)
}

func FormatDBm(rssi float64) string {
	return fmt.Sprintf("%.1f dBm", rssi)
}
