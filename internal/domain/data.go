package domain

import "time"

// Data is one per-minute traffic accumulation bucket between a device and
// a station. The primary key is (Time, DeviceID, StationID); BytesPerMinute
// is additive across every frame observed in that minute.
type Data struct {
	Time           time.Time
	DeviceID       int64
	StationID      int64
	BytesPerMinute int64
}

// TruncateToMinute drops the sub-minute component of t, in UTC, matching
// the bucket boundary Data rows are keyed on.
func TruncateToMinute(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}
