package timeutil

import (
	"encoding/json"
	"testing"
	"time"
)

func TestTimestampUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"rfc3339", `"2025-03-01T10:00:00Z"`, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), false},
		{"iso without zone", `"2025-03-01T10:00:00.5"`, time.Date(2025, 3, 1, 10, 0, 0, 500000000, time.UTC), false},
		{"unix seconds", `1700000000`, time.Unix(1700000000, 0), false},
		{"fractional unix seconds", `1700000000.25`, time.Unix(1700000000, 250000000), false},
		{"zero seconds is unset", `0`, time.Time{}, false},
		{"null", `null`, time.Time{}, false},
		{"empty string", `""`, time.Time{}, false},
		{"garbage string", `"yesterday"`, time.Time{}, true},
		{"bool", `true`, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			err := json.Unmarshal([]byte(tt.input), &ts)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !ts.Equal(tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, ts.Time)
			}
		})
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	original := At(time.Date(2024, 12, 24, 18, 30, 15, 123456789, time.UTC))
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Timestamp
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Equal(original.Time) {
		t.Errorf("expected %v, got %v", original.Time, decoded.Time)
	}
}

func TestTimestampZeroMarshalsNull(t *testing.T) {
	data, err := json.Marshal(Timestamp{})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("expected null, got %s", data)
	}
}
