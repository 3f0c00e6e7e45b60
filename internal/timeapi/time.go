package timeapi

import (
	"encoding/json"
	"time"
)

// Time renders timestamps in API responses as RFC3339 in UTC, regardless of
// the location the value was produced in.
type Time time.Time

// UnmarshalJSON implements the json.Unmarshalled interface
// This IS a pointer receiver, and it is done on purpose.
func (t *Time) UnmarshalJSON(bytes []byte) error {
	var s string
	if err := json.Unmarshal(bytes, &s); err != nil {
		return err
	}
	got, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*t = Time(got)
	return nil
}

// MarshalJSON implements the json.Marshaller interface
// This IS NOT a pointer receiver, and it is done on purpose.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// String returns the date in RFC3339 format, expressed in UTC location
func (t *Time) String() string {
	return time.Time(*t).UTC().Format(time.RFC3339Nano)
}

// FromTime converts a *time.Time, keeping nil as nil
func FromTime(t *time.Time) *Time {
	if t == nil {
		return nil
	}
	converted := Time(*t)
	return &converted
}
