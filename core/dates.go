/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"strconv"
	"strings"
	"time"
)

// DateCode turns a calendar date into 100*month+day so that dates
// within a year compare as integers.
func DateCode(t time.Time) int {
	return 100*int(t.Month()) + t.Day()
}

var monthAbbrevs = map[string]int{
	"Jan": 1, "Feb": 2, "Mar": 3, "Apr": 4, "May": 5, "Jun": 6,
	"Jul": 7, "Aug": 8, "Sep": 9, "Oct": 10, "Nov": 11, "Dec": 12,
}

var weekdayNames = map[string]time.Weekday{
	"Sun": time.Sunday, "Sunday": time.Sunday,
	"Mon": time.Monday, "Monday": time.Monday,
	"Tue": time.Tuesday, "Tuesday": time.Tuesday,
	"Wed": time.Wednesday, "Wednesday": time.Wednesday,
	"Thu": time.Thursday, "Thursday": time.Thursday,
	"Fri": time.Friday, "Friday": time.Friday,
	"Sat": time.Saturday, "Saturday": time.Saturday,
}

// ParseDate parses "Mon-DD" (Mar-15) or "MM-DD" (03-15) and returns
// the month and day.
func ParseDate(s string) (month, day int, err error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, parseErr(s, "bad date")
	}
	if m, have := monthAbbrevs[parts[0]]; have {
		month = m
	} else if month, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, parseErr(s, "bad month")
	}
	if day, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, parseErr(s, "bad day")
	}
	if month < 1 || 12 < month || day < 1 || 31 < day {
		return 0, 0, parseErr(s, "date out of range")
	}
	return month, day, nil
}

// ParseDateCode parses a date as ParseDate does and returns its
// DateCode.
func ParseDateCode(s string) (int, error) {
	m, d, err := ParseDate(s)
	if err != nil {
		return 0, err
	}
	return 100*m + d, nil
}

// InDateRange reports whether code is in [lo,hi], wrapping around
// the end of the year when lo > hi.
func InDateRange(code, lo, hi int) bool {
	if lo <= hi {
		return lo <= code && code <= hi
	}
	return lo <= code || code <= hi
}

func mmwrStart(year int) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	wd := int(jan1.Weekday())
	if wd <= int(time.Wednesday) {
		return jan1.AddDate(0, 0, -wd)
	}
	return jan1.AddDate(0, 0, 7-wd)
}

// EpiWeek returns the MMWR epidemiological week and its year.
//
// Epi weeks start on Sunday.  Week 1 is the first week with at least
// four days in January.
func EpiWeek(t time.Time) (week, year int) {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	year = d.Year()
	start := mmwrStart(year)
	if d.Before(start) {
		year--
		start = mmwrStart(year)
	} else if next := mmwrStart(year + 1); !d.Before(next) {
		year++
		start = next
	}
	days := int(d.Sub(start).Hours()) / 24
	return days/7 + 1, year
}

// Forever is the dwell time that means the agent stays put.
const Forever = 999999

// TimeSpec is a parsed wait(until_...) target.
//
// Exactly one of Offset, Weekday, or Month/Day is set.  The unset
// ones are -1 (Offset, Weekday) or 0 (Month, Day).
type TimeSpec struct {
	Offset  int `json:"offset"`
	Weekday int `json:"weekday"`
	Month   int `json:"month,omitempty"`
	Day     int `json:"day,omitempty"`
	Hour    int `json:"hour"`
}

func (ts *TimeSpec) String() string {
	var s string
	switch {
	case ts.Offset == 0:
		s = "today"
	case ts.Offset == 1:
		s = "tomorrow"
	case 1 < ts.Offset:
		s = strconv.Itoa(ts.Offset) + "_days"
	case 0 <= ts.Weekday:
		s = time.Weekday(ts.Weekday).String()
	default:
		s = time.Month(ts.Month).String()[:3] + "-" + strconv.Itoa(ts.Day)
	}
	return s + "_at_" + strconv.Itoa(ts.Hour)
}

// ParseTimeSpec parses today, tomorrow, N_day(s), a weekday name, or
// a date, each optionally followed by _at_Ham or _at_Hpm.
func ParseTimeSpec(s string) (*TimeSpec, error) {
	ts := &TimeSpec{
		Offset:  -1,
		Weekday: -1,
	}
	when := s
	if i := strings.Index(s, "_at_"); 0 <= i {
		when = s[:i]
		h, err := parseHour(s[i+len("_at_"):])
		if err != nil {
			return nil, parseErr(s, err.Error())
		}
		ts.Hour = h
	}
	switch {
	case when == "today":
		ts.Offset = 0
	case when == "tomorrow":
		ts.Offset = 1
	case strings.HasSuffix(when, "_days"), strings.HasSuffix(when, "_day"):
		n, err := strconv.Atoi(when[:strings.Index(when, "_day")])
		if err != nil || n < 0 {
			return nil, parseErr(s, "bad day count")
		}
		ts.Offset = n
	default:
		if wd, have := weekdayNames[when]; have {
			ts.Weekday = int(wd)
			break
		}
		m, d, err := ParseDate(when)
		if err != nil {
			return nil, parseErr(s, "bad time spec")
		}
		ts.Month, ts.Day = m, d
	}
	return ts, nil
}

func parseHour(s string) (int, error) {
	var pm bool
	switch {
	case strings.HasSuffix(s, "am"):
		s = strings.TrimSuffix(s, "am")
	case strings.HasSuffix(s, "pm"):
		s = strings.TrimSuffix(s, "pm")
		pm = true
	default:
		return 0, parseErr(s, "hour needs am or pm")
	}
	h, err := strconv.Atoi(s)
	if err != nil || h < 1 || 12 < h {
		return 0, parseErr(s, "bad hour")
	}
	if h == 12 {
		h = 0
	}
	if pm {
		h += 12
	}
	return h, nil
}
