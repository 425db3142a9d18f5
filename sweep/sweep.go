package sweep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ReceivedAtKey is the JSON key the collector stamps on every stored sweep.
const ReceivedAtKey = "receivedAt"

// Wire key aliases, first entry is the canonical device key.
var (
	deviceIDKeys  = []string{"deviceId", "deviceID", "device_id"}
	timestampKeys = []string{"timestamp"}
	startKeys     = []string{"freqBegin", "frequencyStart", "frequencyBegin", "freqStart"}
	endKeys       = []string{"freqEnd", "frequencyEnd"}
	stepKeys      = []string{"freqSteps", "stepCount", "steps"}
	sampleKeys    = []string{"data", "samples"}
	freqKeys      = []string{"freq", "frequency"}
	rssiKeys      = []string{"rssi", "signalStrength"}
)

var ErrNotObject = errors.New("payload is not a JSON object")

// Sample is one measurement within a sweep.
type Sample struct {
	// Frequency in MHz.
	Frequency float64 `json:"freq"`
	// SignalStrength in dBm.
	SignalStrength float64 `json:"rssi"`
}

// Sweep is one complete frequency scan as submitted by a device.
// Nil pointers are fields the device did not send (or sent with the wrong type).
type Sweep struct {
	// Metadata
	DeviceID  *string
	Timestamp *float64 // device clock, not wall time

	// Radio Data
	FrequencyStart *float64
	FrequencyEnd   *float64
	StepCount      *int64
	Samples        []Sample

	// ReceivedAt is assigned by the collector, zero until stored.
	ReceivedAt time.Time

	// raw holds the submitted object so re-encoding keeps every field as sent.
	raw map[string]json.RawMessage
}

// Source produces sweeps, e.g. a serial console or a radio scanner.
type Source interface {
	Name() string
	Stream(ctx context.Context, sweeps chan<- *Sweep) error
}

// Ptr returns a pointer to v, handy for building sweeps by hand.
func Ptr[T any](v T) *T {
	return &v
}

// Decode parses a device payload. Only a payload that is not a JSON object is
// rejected, every other shape problem just leaves the affected field absent.
func Decode(data []byte) (*Sweep, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding sweep: %w", err)
	}
	if raw == nil {
		return nil, ErrNotObject
	}

	s := &Sweep{raw: raw}
	if v, ok := lookupString(raw, deviceIDKeys); ok {
		s.DeviceID = &v
	}
	if v, ok := lookupFloat(raw, timestampKeys); ok {
		s.Timestamp = &v
	}
	if v, ok := lookupFloat(raw, startKeys); ok {
		s.FrequencyStart = &v
	}
	if v, ok := lookupFloat(raw, endKeys); ok {
		s.FrequencyEnd = &v
	}
	if v, ok := lookupFloat(raw, stepKeys); ok && v == math.Trunc(v) {
		n := int64(v)
		s.StepCount = &n
	}
	if v, ok := lookup(raw, sampleKeys); ok {
		s.Samples = decodeSamples(v)
	}
	if v, ok := lookupString(raw, []string{ReceivedAtKey}); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			s.ReceivedAt = t
		}
	}
	return s, nil
}

func decodeSamples(data json.RawMessage) []Sample {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil || entries == nil {
		return nil
	}
	samples := make([]Sample, 0, len(entries))
	for _, e := range entries {
		var point map[string]json.RawMessage
		if err := json.Unmarshal(e, &point); err != nil || point == nil {
			continue
		}
		freq, ok := lookupFloat(point, freqKeys)
		if !ok {
			continue
		}
		rssi, ok := lookupFloat(point, rssiKeys)
		if !ok {
			continue
		}
		samples = append(samples, Sample{Frequency: freq, SignalStrength: rssi})
	}
	return samples
}

func lookup(raw map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func lookupFloat(raw map[string]json.RawMessage, keys []string) (float64, bool) {
	v, ok := lookup(raw, keys)
	if !ok {
		return 0, false
	}
	var f *float64
	if err := json.Unmarshal(v, &f); err != nil || f == nil {
		return 0, false
	}
	return *f, true
}

func lookupString(raw map[string]json.RawMessage, keys []string) (string, bool) {
	v, ok := lookup(raw, keys)
	if !ok {
		return "", false
	}
	var s *string
	if err := json.Unmarshal(v, &s); err != nil || s == nil {
		return "", false
	}
	return *s, true
}

// Stamp returns a copy of s received at t. Any receivedAt the device sent is replaced.
func (s *Sweep) Stamp(t time.Time) *Sweep {
	out := *s
	out.ReceivedAt = t
	if s.raw != nil {
		out.raw = make(map[string]json.RawMessage, len(s.raw)+1)
		for k, v := range s.raw {
			out.raw[k] = v
		}
		ts, _ := json.Marshal(formatTime(t))
		out.raw[ReceivedAtKey] = ts
	}
	return &out
}

// SampleCount is the number of usable samples, which may differ from StepCount.
func (s *Sweep) SampleCount() int {
	if s == nil {
		return 0
	}
	return len(s.Samples)
}

// Device returns the device id or "" when the device did not send one.
func (s *Sweep) Device() string {
	if s == nil || s.DeviceID == nil {
		return ""
	}
	return *s.DeviceID
}

func (s *Sweep) MarshalJSON() ([]byte, error) {
	if s.raw != nil {
		return json.Marshal(s.raw)
	}

	out := map[string]any{}
	if s.DeviceID != nil {
		out[deviceIDKeys[0]] = *s.DeviceID
	}
	if s.Timestamp != nil {
		out[timestampKeys[0]] = *s.Timestamp
	}
	if s.FrequencyStart != nil {
		out[startKeys[0]] = *s.FrequencyStart
	}
	if s.FrequencyEnd != nil {
		out[endKeys[0]] = *s.FrequencyEnd
	}
	if s.StepCount != nil {
		out[stepKeys[0]] = *s.StepCount
	}
	if s.Samples != nil {
		out[sampleKeys[0]] = s.Samples
	}
	if !s.ReceivedAt.IsZero() {
		out[ReceivedAtKey] = formatTime(s.ReceivedAt)
	}
	return json.Marshal(out)
}

func (s *Sweep) UnmarshalJSON(data []byte) error {
	d, err := Decode(data)
	if err != nil {
		return err
	}
	*s = *d
	return nil
}

// formatTime renders t like an ISO-8601 timestamp with milliseconds in UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
