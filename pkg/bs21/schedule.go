// SPDX-License-Identifier: MIT
// Copyright (c) 2018 heckie75

package bs21

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday identifies one day of the week in device order, Monday first.
type Weekday int

// Weekdays in device bit order
const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// dayMaskLetters are the expected letters of the textual day mask, in
// Mon..Sun order.
const dayMaskLetters = "mtwtfss"

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// FromTime converts a time.Weekday (Sunday-based) to the device's
// Monday-based numbering.
func FromTime(d time.Weekday) Weekday {
	return Weekday((int(d) + 6) % 7)
}

// WeekdaySet is a set of weekdays, stored as the device's 7-bit mask
// with Monday in the least significant bit.
type WeekdaySet uint8

// NewWeekdaySet builds a set from individual days.
func NewWeekdaySet(days ...Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

// WeekdaySetFromMask decodes the device's 7-bit day mask. The high bit
// is ignored.
func WeekdaySetFromMask(mask uint8) WeekdaySet {
	return WeekdaySet(mask & 0x7F)
}

// Mask encodes the set as the device's 7-bit day mask.
func (s WeekdaySet) Mask() uint8 { return uint8(s) & 0x7F }

// Contains reports whether d is in the set.
func (s WeekdaySet) Contains(d Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// IsEmpty reports whether no day is set. An empty set is the canonical
// "unset" schedule.
func (s WeekdaySet) IsEmpty() bool { return s.Mask() == 0 }

// Days returns the members in fixed Mon..Sun order.
func (s WeekdaySet) Days() []Weekday {
	var days []Weekday
	for d := Monday; d <= Sunday; d++ {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// Names returns the member names in fixed Mon..Sun order. The slice is
// never nil so the JSON view renders an empty list, not null.
func (s WeekdaySet) Names() []string {
	names := []string{}
	for _, d := range s.Days() {
		names = append(names, d.String())
	}
	return names
}

func (s WeekdaySet) String() string {
	return strings.Join(s.Names(), ", ")
}

// MarshalJSON renders the set as an ordered list of day names,
// matching the documented JSON view.
func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// wireMask renders the mask as the two-digit uppercase hex field used
// in SET and TIME payloads.
func (s WeekdaySet) wireMask() string {
	return fmt.Sprintf("%02X", s.Mask())
}

// ParseDayMask parses the textual 7-character day mask, one letter per
// weekday in Mon..Sun order. The letter identifies the day
// case-insensitively; uppercase marks the day active ("MTWTFss" is
// weekdays only).
func ParseDayMask(text string) (WeekdaySet, error) {
	if len(text) != 7 {
		return 0, scheduleErrorf("day mask %q must have 7 characters", text)
	}
	var s WeekdaySet
	for i := 0; i < 7; i++ {
		c := text[i]
		lower := c | 0x20
		if lower < 'a' || lower > 'z' {
			return 0, scheduleErrorf("day mask %q has non-alphabetic character at position %d", text, i+1)
		}
		if lower != dayMaskLetters[i] {
			return 0, scheduleErrorf("day mask %q: position %d must be %q", text, i+1, dayMaskLetters[i])
		}
		if c >= 'A' && c <= 'Z' {
			s |= 1 << uint(i)
		}
	}
	return s, nil
}

// TimeOfDay is a wall-clock time as the device stores it.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// NewTimeOfDay validates the hour, minute and second ranges.
func NewTimeOfDay(hour, minute, second int) (TimeOfDay, error) {
	t := TimeOfDay{Hour: hour, Minute: minute, Second: second}
	if err := t.validate(); err != nil {
		return TimeOfDay{}, err
	}
	return t, nil
}

func (t TimeOfDay) validate() error {
	if t.Hour < 0 || t.Hour > 23 {
		return scheduleErrorf("hour %d out of range 0-23", t.Hour)
	}
	if t.Minute < 0 || t.Minute > 59 {
		return scheduleErrorf("minute %d out of range 0-59", t.Minute)
	}
	if t.Second < 0 || t.Second > 59 {
		return scheduleErrorf("second %d out of range 0-59", t.Second)
	}
	return nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// MarshalJSON renders the time as "hh:mm:ss".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// ParseClock parses "hh:mm" or "hh:mm:ss". The second defaults to 0.
func ParseClock(text string) (TimeOfDay, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, scheduleErrorf("clock value %q must be hh:mm or hh:mm:ss", text)
	}
	fields := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return TimeOfDay{}, scheduleErrorf("clock value %q is not numeric", text)
		}
		fields[i] = n
	}
	return NewTimeOfDay(fields[0], fields[1], fields[2])
}

// decodeClockFields builds a TimeOfDay from decimal reply fields. Values
// are reduced modulo their range the way the original client reads them,
// so a corrupt field cannot produce an out-of-range time.
func decodeClockFields(hour, minute, second int) TimeOfDay {
	return TimeOfDay{
		Hour:   ((hour % 24) + 24) % 24,
		Minute: ((minute % 60) + 60) % 60,
		Second: ((second % 60) + 60) % 60,
	}
}

// Schedule pairs a weekday set with a time of day. A schedule with an
// empty weekday set is the canonical unset representation.
type Schedule struct {
	Days WeekdaySet `json:"weekday"`
	Time TimeOfDay  `json:"time"`
}

// IsZero reports whether the schedule is unset.
func (s Schedule) IsZero() bool {
	return s.Days.IsEmpty() && s.Time == TimeOfDay{}
}

func (s Schedule) validate() error {
	return s.Time.validate()
}

// Span is a duration rendered as "hh:mm:ss" in the device's views.
type Span time.Duration

// NewSpan builds a span from hour, minute and second components.
func NewSpan(hours, minutes, seconds int) Span {
	return Span(time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second)
}

// Clock splits the span into hour, minute and second components.
func (s Span) Clock() (hours, minutes, seconds int) {
	d := time.Duration(s)
	if d < 0 {
		d = 0
	}
	hours = int(d / time.Hour)
	minutes = int(d % time.Hour / time.Minute)
	seconds = int(d % time.Minute / time.Second)
	return
}

func (s Span) String() string {
	h, m, sec := s.Clock()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

// MarshalJSON renders the span as "hh:mm:ss".
func (s Span) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
