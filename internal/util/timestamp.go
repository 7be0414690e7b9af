package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// isoLayout matches JavaScript's Date.prototype.toISOString.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is stored as unix milliseconds and travels as an ISO-8601 string
// such as "2024-05-01T09:00:00.000Z".
type Timestamp int64

func TimestampOf(t time.Time) Timestamp { return Timestamp(t.UnixMilli()) }

func (ts Timestamp) Time() time.Time { return time.UnixMilli(int64(ts)).UTC() }

func (ts Timestamp) String() string { return ts.Time().Format(isoLayout) }

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// UnmarshalJSON takes an ISO-8601 string, a bare date ("2023-10-20") or a
// number of milliseconds.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*ts = 0
		return nil
	}
	if len(data) > 0 && data[0] != '"' {
		var ms int64
		if err := json.Unmarshal(data, &ms); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		*ts = Timestamp(ms)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*ts = 0
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			*ts = TimestampOf(t)
			return nil
		}
	}
	return fmt.Errorf("timestamp: cannot parse %q", s)
}
