package extraction

import (
	"reflect"
	"testing"

	"github.com/hb9tf/spectrelay/sweep"
)

func samplesFromRSSI(rssi ...float64) []sweep.Sample {
	out := make([]sweep.Sample, len(rssi))
	for i, r := range rssi {
		out[i] = sweep.Sample{Frequency: 400 + float64(i), SignalStrength: r}
	}
	return out
}

func TestAutoScale(t *testing.T) {
	tests := []struct {
		name    string
		samples []sweep.Sample
		want    Domain
	}{
		{
			name:    "empty",
			samples: nil,
			want:    Domain{Min: -140, Max: -40},
		},
		{
			name:    "padded min and max",
			samples: samplesFromRSSI(-90, -72, -65),
			want:    Domain{Min: -95, Max: -60},
		},
		{
			name:    "single sample",
			samples: samplesFromRSSI(-120),
			want:    Domain{Min: -125, Max: -115},
		},
		{
			name:    "unordered",
			samples: samplesFromRSSI(-50, -110, -80, -30.5),
			want:    Domain{Min: -115, Max: -25.5},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AutoScale(tc.samples); got != tc.want {
				t.Errorf("AutoScale() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestPeaksExcludesNoiseFloorAndSorts(t *testing.T) {
	samples := []sweep.Sample{
		{Frequency: 100.0, SignalStrength: -95},
		{Frequency: 101.0, SignalStrength: -105},
		{Frequency: 102.2, SignalStrength: -40},
	}
	got := Peaks(samples, NoiseFloor, MaxPeaks)
	want := []sweep.Sample{
		{Frequency: 102.2, SignalStrength: -40},
		{Frequency: 100.0, SignalStrength: -95},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Peaks() = %v, want %v", got, want)
	}
}

func TestPeaksThresholdIsExclusive(t *testing.T) {
	samples := []sweep.Sample{
		{Frequency: 100.0, SignalStrength: -100},
		{Frequency: 102.2, SignalStrength: -99},
	}
	got := Peaks(samples, NoiseFloor, MaxPeaks)
	if len(got) != 1 || got[0].SignalStrength != -99 {
		t.Errorf("Peaks() = %v, want only the -99 dBm sample", got)
	}
}

func TestPeaksLimitAndStableTies(t *testing.T) {
	samples := []sweep.Sample{
		{Frequency: 400, SignalStrength: -60},
		{Frequency: 401, SignalStrength: -50},
		{Frequency: 402, SignalStrength: -60},
		{Frequency: 403, SignalStrength: -70},
		{Frequency: 404, SignalStrength: -60},
		{Frequency: 405, SignalStrength: -80},
		{Frequency: 406, SignalStrength: -45},
	}
	got := Peaks(samples, NoiseFloor, MaxPeaks)
	wantFreqs := []float64{406, 401, 400, 402, 404}
	if len(got) != len(wantFreqs) {
		t.Fatalf("len(Peaks()) = %d, want %d", len(got), len(wantFreqs))
	}
	for i, f := range wantFreqs {
		if got[i].Frequency != f {
			t.Errorf("Peaks()[%d].Frequency = %v, want %v", i, got[i].Frequency, f)
		}
	}
}

func TestPeaksDoesNotModifyInput(t *testing.T) {
	samples := samplesFromRSSI(-90, -40, -60)
	orig := append([]sweep.Sample(nil), samples...)
	Peaks(samples, NoiseFloor, MaxPeaks)
	if !reflect.DeepEqual(samples, orig) {
		t.Errorf("Peaks() reordered its input: %v", samples)
	}
}

func TestPeaksEmpty(t *testing.T) {
	if got := Peaks(nil, NoiseFloor, MaxPeaks); len(got) != 0 {
		t.Errorf("Peaks(nil) = %v, want empty", got)
	}
	if got := Peaks(samplesFromRSSI(-40), NoiseFloor, -1); len(got) != 0 {
		t.Errorf("Peaks(limit -1) = %v, want empty", got)
	}
}

func TestSeriesAndFormatting(t *testing.T) {
	samples := []sweep.Sample{{Frequency: 433.925, SignalStrength: -71.26}}
	got := Series(samples)
	if len(got) != 1 || got[0].Label != "433.9" || got[0].SignalStrength != -71.26 {
		t.Errorf("Series() = %+v", got)
	}
	if s := FormatMHz(433.925); s != "433.9 MHz" {
		t.Errorf("FormatMHz() = %q", s)
	}
	if s := FormatDBm(-71.26); s != "-71.3 dBm" {
		t.Errorf("FormatDBm() = %q", s)
	}
}
