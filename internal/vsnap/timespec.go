package vsnap

import (
	"fmt"
	"time"
)

// Timestamp is a save time at minute resolution, as encoded in a snapshot name.
// Fields are plain integers; no calendar validation is performed.
type Timestamp struct {
	Day    int
	Month  int
	Year   int
	Hour   int
	Minute int
}

// TimestampFromTime samples the wall-clock fields of t in its own location.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp{
		Day:    t.Day(),
		Month:  int(t.Month()),
		Year:   t.Year(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
	}
}

// Spec returns the fully specified TimeSpec for this timestamp.
func (ts Timestamp) Spec() TimeSpec {
	return AtMinute(ts.Day, ts.Month, ts.Year, ts.Hour, ts.Minute)
}

// Before orders timestamps chronologically, treating the fields as integers.
func (ts Timestamp) Before(other Timestamp) bool {
	a := [5]int{ts.Year, ts.Month, ts.Day, ts.Hour, ts.Minute}
	b := [5]int{other.Year, other.Month, other.Day, other.Hour, other.Minute}
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Time converts the timestamp to a time.Time in loc. Out-of-range fields
// are normalized the way time.Date does.
func (ts Timestamp) Time(loc *time.Location) time.Time {
	return time.Date(ts.Year, time.Month(ts.Month), ts.Day, ts.Hour, ts.Minute, 0, 0, loc)
}

// String formats the timestamp for display as d.m.y h:mm.
func (ts Timestamp) String() string {
	return fmt.Sprintf("%d.%d.%d %d:%02d", ts.Day, ts.Month, ts.Year, ts.Hour, ts.Minute)
}

// Precision is how precisely a TimeSpec pins down a point in time.
type Precision int

const (
	PrecisionNone Precision = iota
	PrecisionDate
	PrecisionHour
	PrecisionMinute
)

func (p Precision) String() string {
	switch p {
	case PrecisionDate:
		return "date"
	case PrecisionHour:
		return "hour"
	case PrecisionMinute:
		return "minute"
	default:
		return "none"
	}
}

// TimeSpec is a partially specified point in time. Only the fields covered
// by Precision are meaningful; the rest are zero.
type TimeSpec struct {
	Precision Precision
	Day       int
	Month     int
	Year      int
	Hour      int
	Minute    int
}

// AnyTime places no constraint on time.
func AnyTime() TimeSpec {
	return TimeSpec{Precision: PrecisionNone}
}

// OnDate constrains day, month and year.
func OnDate(day, month, year int) TimeSpec {
	return TimeSpec{Precision: PrecisionDate, Day: day, Month: month, Year: year}
}

// AtHour constrains the date and the hour.
func AtHour(day, month, year, hour int) TimeSpec {
	return TimeSpec{Precision: PrecisionHour, Day: day, Month: month, Year: year, Hour: hour}
}

// AtMinute constrains every field.
func AtMinute(day, month, year, hour, minute int) TimeSpec {
	return TimeSpec{Precision: PrecisionMinute, Day: day, Month: month, Year: year, Hour: hour, Minute: minute}
}

// Matches reports whether ts agrees with every field s constrains.
func (s TimeSpec) Matches(ts Timestamp) bool {
	switch s.Precision {
	case PrecisionNone:
		return true
	case PrecisionDate:
		return s.sameDate(ts)
	case PrecisionHour:
		return s.sameDate(ts) && s.Hour == ts.Hour
	case PrecisionMinute:
		return s.sameDate(ts) && s.Hour == ts.Hour && s.Minute == ts.Minute
	default:
		return false
	}
}

func (s TimeSpec) sameDate(ts Timestamp) bool {
	return s.Day == ts.Day && s.Month == ts.Month && s.Year == ts.Year
}

func (s TimeSpec) String() string {
	switch s.Precision {
	case PrecisionDate:
		return fmt.Sprintf("%d.%d.%d", s.Day, s.Month, s.Year)
	case PrecisionHour:
		return fmt.Sprintf("%d.%d.%d %d", s.Day, s.Month, s.Year, s.Hour)
	case PrecisionMinute:
		return fmt.Sprintf("%d.%d.%d %d.%d", s.Day, s.Month, s.Year, s.Hour, s.Minute)
	default:
		return "any time"
	}
}
