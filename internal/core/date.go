package core

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate parses a calendar date or timestamp as sent by clients:
// YYYY-MM-DD, RFC 3339, or a local timestamp without zone (read as UTC).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Date is a JSON date input. It records whether the key was present and
// whether it was an explicit null, so optional dates can be cleared.
type Date struct {
	Time time.Time
	Set  bool
	Null bool
}

var timeType = reflect.TypeOf(time.Time{})

// UnmarshalJSON accepts a date string, epoch milliseconds, or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	d.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		d.Null = true
		d.Time = time.Time{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t, err := ParseDate(s)
		if err != nil {
			return &json.UnmarshalTypeError{Value: "string", Type: timeType}
		}
		d.Time = t
		return nil
	}
	ms, err := strconv.ParseInt(string(bytes.TrimSpace(data)), 10, 64)
	if err != nil {
		return &json.UnmarshalTypeError{Value: "literal " + string(data), Type: timeType}
	}
	d.Time = time.UnixMilli(ms).UTC()
	return nil
}

// Ptr returns the parsed time, or nil for an absent or null date.
func (d Date) Ptr() *time.Time {
	if !d.Set || d.Null {
		return nil
	}
	t := d.Time
	return &t
}
