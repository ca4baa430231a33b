package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical encoding of a Date: UTC with millisecond precision.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Date is a point in time decoded from any of the server's date encodings:
// an ISO-8601 string with or without fractional seconds, epoch milliseconds,
// or an object of the form {"value": "...", "timezone": "..."}. It always
// encodes back to the canonical DateLayout form.
type Date struct {
	time.Time
}

// NewDate returns a Date normalized to UTC millisecond precision.
func NewDate(t time.Time) Date {
	return Date{Time: normalizeTime(t)}
}

func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}

	return t.UTC().Truncate(time.Millisecond)
}

// FormatDate encodes t in the canonical layout.
func FormatDate(t time.Time) string {
	return normalizeTime(t).Format(DateLayout)
}

// ParseDate parses an ISO-8601 date string. Strings without a zone are taken as UTC.
func ParseDate(s string) (time.Time, error) {
	return parseDateIn(s, time.UTC)
}

func parseDateIn(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return normalizeTime(t), nil
		}
	}

	return time.Time{}, newError(KindDataConversionFailed, "unrecognized date %q", s)
}

// DateFromMillis converts epoch milliseconds.
func DateFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

type dateContainer struct {
	Value    string `json:"value"`
	Timezone string `json:"timezone"`
}

func (c dateContainer) time() (time.Time, error) {
	loc := time.UTC
	if c.Timezone != "" {
		if l, err := time.LoadLocation(c.Timezone); err == nil {
			loc = l
		}
	}

	return parseDateIn(c.Value, loc)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}

	var (
		t   time.Time
		err error
	)

	switch data[0] {
	case '"':
		var s string
		if err = json.Unmarshal(data, &s); err == nil {
			t, err = ParseDate(s)
		}
	case '{':
		var c dateContainer
		if err = json.Unmarshal(data, &c); err == nil {
			t, err = c.time()
		}
	default:
		var ms float64
		ms, err = strconv.ParseFloat(string(data), 64)
		t = DateFromMillis(int64(ms))
	}

	if err != nil {
		return wrapError(KindDataConversionFailed, err, fmt.Sprintf("cannot decode date from %s", data))
	}

	d.Time = normalizeTime(t)

	return nil
}

// MarshalJSON implements json.Marshaler. The zero Date encodes as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}

	return json.Marshal(FormatDate(d.Time))
}

// String returns the canonical encoding.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}

	return FormatDate(d.Time)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
