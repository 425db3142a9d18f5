package synthetic

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/hb9tf/spectrelay/sweep"
)

const (
	SourceName = "synthetic"

	noiseBase = -120.0 // dBm

	carrierPeak  = -60.0 // dBm at the carrier frequency
	carrierSlope = 10.0  // dB per MHz away from the carrier
	carrierWidth = 2.0   // MHz either side

	interferenceChance = 0.05

	defaultInterval = time.Second
)

// Source generates sweeps resembling a small SX1262 based scanner: a noise
// floor slowly rising with frequency, optional test carriers and occasional
// random interference.
type Source struct {
	Identifier string

	// FreqBegin and FreqEnd bound the sweep in MHz.
	FreqBegin float64
	FreqEnd   float64
	Steps     int
	// Interval between sweeps, one second if unset.
	Interval time.Duration

	// Carriers are frequencies in MHz of simulated transmitters.
	Carriers []float64
	// Interference enables random short lived signals.
	Interference bool

	// Rand defaults to a time seeded generator.
	Rand *rand.Rand
}

func (s Source) Name() string {
	return SourceName
}

func (s *Source) Stream(ctx context.Context, sweeps chan<- *sweep.Sweep) error {
	if s.Rand == nil {
		s.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	interval := s.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			sw := s.Generate(float64(now.Sub(start).Milliseconds()))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case sweeps <- sw:
			}
		}
	}
}

// Generate produces one sweep with the given device timestamp.
func (s *Source) Generate(timestamp float64) *sweep.Sweep {
	samples := make([]sweep.Sample, s.Steps)
	for i := range samples {
		freq := s.FreqBegin + float64(i)*(s.FreqEnd-s.FreqBegin)/float64(s.Steps)
		samples[i] = sweep.Sample{Frequency: freq, SignalStrength: s.rssiAt(freq)}
	}
	return &sweep.Sweep{
		DeviceID:       sweep.Ptr(s.Identifier),
		Timestamp:      sweep.Ptr(timestamp),
		FrequencyStart: sweep.Ptr(s.FreqBegin),
		FrequencyEnd:   sweep.Ptr(s.FreqEnd),
		StepCount:      sweep.Ptr(int64(s.Steps)),
		Samples:        samples,
	}
}

func (s *Source) rssiAt(freq float64) float64 {
	// Noise floor between roughly -130 and -115 dBm.
	rssi := noiseBase + (freq-600.0)/100.0 + float64(s.Rand.Intn(15)-10)

	for _, c := range s.Carriers {
		diff := math.Abs(freq - c)
		if diff >= carrierWidth {
			continue
		}
		if signal := carrierPeak - diff*carrierSlope; signal > rssi {
			rssi = signal
		}
	}

	if s.Interference && s.Rand.Float64() < interferenceChance {
		rssi = -80.0 + float64(s.Rand.Intn(20)-20)
	}
	return rssi
}
