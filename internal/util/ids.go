package util

import (
	"strconv"
	"sync"
	"time"
)

var millis struct {
	sync.Mutex
	last int64
}

// NextMillis returns now as unix milliseconds, bumped past the last value
// handed out so ids stay unique within the process.
func NextMillis(now time.Time) int64 {
	millis.Lock()
	defer millis.Unlock()
	m := now.UnixMilli()
	if m <= millis.last {
		m = millis.last + 1
	}
	millis.last = m
	return m
}

// TimestampID builds ids such as "ORDER-1718000000000" or "laptop-1718000000000".
func TimestampID(prefix string, now time.Time) string {
	return prefix + "-" + strconv.FormatInt(NextMillis(now), 10)
}
