package timeutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Timestamp is a time.Time that is written as RFC 3339 and read from either
// RFC 3339 strings or unix seconds (integer or fractional). Older save files
// store plain unix seconds.
type Timestamp struct {
	time.Time
}

// At wraps t.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// Ptr returns a pointer to a Timestamp wrapping t.
func Ptr(t time.Time) *Timestamp {
	ts := At(t)
	return &ts
}

// FromUnixSeconds converts fractional unix seconds to a time.
func FromUnixSeconds(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*1e9))
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(time.RFC3339Nano))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			ts.Time = time.Time{}
			return nil
		}
		t, err := parseString(s)
		if err != nil {
			return err
		}
		ts.Time = t
		return nil
	}

	var sec float64
	if err := json.Unmarshal(data, &sec); err != nil {
		return fmt.Errorf("timestamp must be a string or unix seconds: %w", err)
	}
	if sec <= 0 {
		ts.Time = time.Time{}
		return nil
	}
	ts.Time = FromUnixSeconds(sec)
	return nil
}

// parseString accepts RFC 3339 and the zone-less ISO form older saves used.
func parseString(s string) (time.Time, error) {
	layouts := []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
