package sweep

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

const firmwarePayload = `{
	"timestamp": 123456,
	"deviceId": "AA:BB:CC:DD:EE:FF",
	"freqBegin": 400.0,
	"freqEnd": 960.0,
	"freqSteps": 3,
	"data": [
		{"freq": 400.0, "rssi": -90.5},
		{"freq": 586.7, "rssi": -72},
		{"freq": 773.3, "rssi": -65}
	]
}`

func TestDecodeFirmwarePayload(t *testing.T) {
	s, err := Decode([]byte(firmwarePayload))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if got := s.Device(); got != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("Device() = %q, want AA:BB:CC:DD:EE:FF", got)
	}
	if s.Timestamp == nil || *s.Timestamp != 123456 {
		t.Errorf("Timestamp = %v, want 123456", s.Timestamp)
	}
	if s.FrequencyStart == nil || *s.FrequencyStart != 400 {
		t.Errorf("FrequencyStart = %v, want 400", s.FrequencyStart)
	}
	if s.FrequencyEnd == nil || *s.FrequencyEnd != 960 {
		t.Errorf("FrequencyEnd = %v, want 960", s.FrequencyEnd)
	}
	if s.StepCount == nil || *s.StepCount != 3 {
		t.Errorf("StepCount = %v, want 3", s.StepCount)
	}
	want := []Sample{{400, -90.5}, {586.7, -72}, {773.3, -65}}
	if !reflect.DeepEqual(s.Samples, want) {
		t.Errorf("Samples = %v, want %v", s.Samples, want)
	}
	if !s.ReceivedAt.IsZero() {
		t.Errorf("ReceivedAt = %v, want zero", s.ReceivedAt)
	}
}

func TestDecodeAliases(t *testing.T) {
	s, err := Decode([]byte(`{
		"deviceID": "dev",
		"frequencyStart": 100,
		"frequencyEnd": 200,
		"stepCount": 1,
		"samples": [{"frequency": 150, "signalStrength": -80}]
	}`))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if s.Device() != "dev" {
		t.Errorf("Device() = %q, want dev", s.Device())
	}
	if s.FrequencyStart == nil || *s.FrequencyStart != 100 || s.FrequencyEnd == nil || *s.FrequencyEnd != 200 {
		t.Errorf("bounds = %v..%v, want 100..200", s.FrequencyStart, s.FrequencyEnd)
	}
	if len(s.Samples) != 1 || s.Samples[0] != (Sample{150, -80}) {
		t.Errorf("Samples = %v, want [{150 -80}]", s.Samples)
	}
}

func TestDecodePermissive(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		wantSamples int
		wantNilData bool
	}{
		{
			name:        "empty object",
			payload:     `{}`,
			wantNilData: true,
		},
		{
			name:        "wrong types",
			payload:     `{"deviceId": 42, "timestamp": "soon", "freqSteps": 2.5, "data": "none"}`,
			wantNilData: true,
		},
		{
			name:        "partial samples",
			payload:     `{"data": [{"freq": 1, "rssi": -50}, {"freq": 2}, "junk", {"rssi": -40}, {"freq": 3, "rssi": null}]}`,
			wantSamples: 1,
		},
		{
			name:        "empty data",
			payload:     `{"data": []}`,
			wantSamples: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Decode([]byte(tc.payload))
			if err != nil {
				t.Fatalf("Decode() failed: %v", err)
			}
			if s.DeviceID != nil || s.Timestamp != nil || s.StepCount != nil {
				t.Errorf("expected absent metadata, got %+v", s)
			}
			if tc.wantNilData && s.Samples != nil {
				t.Errorf("Samples = %v, want nil", s.Samples)
			}
			if !tc.wantNilData && len(s.Samples) != tc.wantSamples {
				t.Errorf("len(Samples) = %d, want %d", len(s.Samples), tc.wantSamples)
			}
		})
	}
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	for _, payload := range []string{``, `not json`, `[1,2,3]`, `42`, `"text"`, `null`} {
		if _, err := Decode([]byte(payload)); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", payload)
		}
	}
}

func TestStampKeepsFieldsAndOverridesReceivedAt(t *testing.T) {
	payload := `{"deviceId": "dev", "extra": {"fw": "1.2"}, "receivedAt": "1999-01-01T00:00:00Z", "data": []}`
	s, err := Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	now := time.Date(2024, 5, 1, 12, 30, 0, 250*int(time.Millisecond), time.UTC)
	stamped := s.Stamp(now)

	if !stamped.ReceivedAt.Equal(now) {
		t.Errorf("ReceivedAt = %v, want %v", stamped.ReceivedAt, now)
	}
	if s.ReceivedAt.Equal(now) {
		t.Error("Stamp() modified the original sweep")
	}

	b, err := json.Marshal(stamped)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	var want map[string]any
	json.Unmarshal([]byte(payload), &want)
	want[ReceivedAtKey] = "2024-05-01T12:30:00.250Z"
	if !reflect.DeepEqual(got, want) {
		t.Errorf("stamped JSON = %v, want %v", got, want)
	}

	var orig map[string]any
	b, _ = json.Marshal(s)
	json.Unmarshal(b, &orig)
	if orig[ReceivedAtKey] != "1999-01-01T00:00:00Z" {
		t.Errorf("original receivedAt = %v, want untouched", orig[ReceivedAtKey])
	}
}

func TestMarshalBuiltSweepUsesDeviceFormat(t *testing.T) {
	s := &Sweep{
		DeviceID:       Ptr("synthetic"),
		Timestamp:      Ptr(1000.0),
		FrequencyStart: Ptr(400.0),
		FrequencyEnd:   Ptr(960.0),
		StepCount:      Ptr(int64(1)),
		Samples:        []Sample{{400, -120}},
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	want := `{"data":[{"freq":400,"rssi":-120}],"deviceId":"synthetic","freqBegin":400,"freqEnd":960,"freqSteps":1,"timestamp":1000}`
	if string(b) != want {
		t.Errorf("Marshal() = %s, want %s", b, want)
	}

	back, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if back.Device() != "synthetic" || len(back.Samples) != 1 {
		t.Errorf("Decode(Marshal()) = %+v", back)
	}
}

func TestUnmarshalReadsReceivedAt(t *testing.T) {
	var s Sweep
	if err := json.Unmarshal([]byte(`{"deviceId":"dev","receivedAt":"2024-05-01T12:30:00.250Z"}`), &s); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	want := time.Date(2024, 5, 1, 12, 30, 0, 250*int(time.Millisecond), time.UTC)
	if !s.ReceivedAt.Equal(want) {
		t.Errorf("ReceivedAt = %v, want %v", s.ReceivedAt, want)
	}
}
