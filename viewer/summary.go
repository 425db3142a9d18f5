package viewer

import (
	"time"

	"github.com/hb9tf/spectrelay/extraction"
)

// Instructions are shown while the viewer gets no data from the collector.
var Instructions = []string{
	"Device is powered on",
	"Device is connected to WiFi",
	"Device is configured with the correct API endpoint",
	"Device is scanning and sending data",
}

type DeviceInfo struct {
	ID             string    `json:"id"`
	FrequencyStart *float64  `json:"frequencyStart,omitempty"`
	FrequencyEnd   *float64  `json:"frequencyEnd,omitempty"`
	StepCount      *int64    `json:"stepCount,omitempty"`
	ReceivedAt     time.Time `json:"receivedAt"`
}

type Peak struct {
	Frequency      float64 `json:"frequency"`
	SignalStrength float64 `json:"rssi"`
	FrequencyLabel string  `json:"frequencyLabel"`
	StrengthLabel  string  `json:"rssiLabel"`
}

// Summary is everything a viewer displays for one state.
type Summary struct {
	Connected    bool               `json:"connected"`
	LastUpdate   *time.Time         `json:"lastUpdate,omitempty"`
	Device       *DeviceInfo        `json:"device,omitempty"`
	Domain       extraction.Domain  `json:"domain"`
	Series       []extraction.Point `json:"series"`
	Peaks        []Peak             `json:"peaks,omitempty"`
	Instructions []string           `json:"instructions,omitempty"`
}

// Summarize derives the chart series, axis domain and peak list from st.
func Summarize(st State) *Summary {
	sum := &Summary{Connected: st.Connected}
	if !st.LastUpdate.IsZero() {
		lu := st.LastUpdate
		sum.LastUpdate = &lu
	}
	if !st.Connected {
		sum.Instructions = Instructions
	}

	if st.Sweep == nil {
		sum.Domain = extraction.AutoScale(nil)
		sum.Series = []extraction.Point{}
		return sum
	}

	s := st.Sweep
	sum.Device = &DeviceInfo{
		ID:             s.Device(),
		FrequencyStart: s.FrequencyStart,
		FrequencyEnd:   s.FrequencyEnd,
		StepCount:      s.StepCount,
		ReceivedAt:     s.ReceivedAt,
	}
	sum.Domain = extraction.AutoScale(s.Samples)
	sum.Series = extraction.Series(s.Samples)
	sum.Peaks = []Peak{}
	for _, p := range extraction.Peaks(s.Samples, extraction.NoiseFloor, extraction.MaxPeaks) {
		sum.Peaks = append(sum.Peaks, Peak{
			Frequency:      p.Frequency,
			SignalStrength: p.SignalStrength,
			FrequencyLabel: extraction.FormatMHz(p.Frequency),
			StrengthLabel:  extraction.FormatDBm(p.SignalStrength),
		})
	}
	return sum
}
