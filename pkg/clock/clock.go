// Package clock provides the monotonic-millisecond Timestamp type shared
// across the bus, order store and engines.
package clock

import "time"

// Timestamp is a 64-bit millisecond wall-clock value.
type Timestamp int64

// Now returns the current wall time as a Timestamp.
func Now() Timestamp {
	return Timestamp(time.Now().UnixMilli())
}

// FromTime converts a time.Time to a Timestamp.
func FromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time converts back to a time.Time (UTC).
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// Nanos returns the nanosecond-resolution equivalent for events that expect
// it (e.g. exchange-facing payloads).
func (t Timestamp) Nanos() int64 {
	return int64(t) * 1_000_000
}

// Add advances the timestamp by d, truncated to millisecond resolution.
func (t Timestamp) Add(d time.Duration) Timestamp {
	return t + Timestamp(d.Milliseconds())
}

// Sub returns the duration between two timestamps (t - other).
func (t Timestamp) Sub(other Timestamp) time.Duration {
	return time.Duration(int64(t)-int64(other)) * time.Millisecond
}

func (t Timestamp) Before(other Timestamp) bool { return t < other }
func (t Timestamp) After(other Timestamp) bool  { return t > other }
func (t Timestamp) Equal(other Timestamp) bool  { return t == other }
