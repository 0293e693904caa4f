package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the storage and wire format for calendar dates.
// All dates are facility-local calendar days; no timezone handling.
const DateLayout = "2006-01-02"

var weekdayByName = map[string]time.Weekday{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// ParseWeekday maps a weekday name to time.Weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	d, ok := weekdayByName[name]
	return d, ok
}

// WeekdayName returns the English name of a weekday.
func WeekdayName(d time.Weekday) string {
	return d.String()
}

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q; expected YYYY-MM-DD", s)
	}
	return t, nil
}

// IsClock reports whether s is a well-formed HH:MM time of day.
func IsClock(s string) bool {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return false
	}
	return true
}

// GridEntry is one bookable time of day in the weekly grid.
type GridEntry struct {
	Time   string `json:"time"` // "09:00"
	Active bool   `json:"active"`
}

// ExceptionDate overrides the weekly pattern for a single calendar date.
// Only Closed is interpreted today; closed=false entries are kept as an
// extension point for special hours.
type ExceptionDate struct {
	Date   string `json:"date"` // "2026-03-17"
	Closed bool   `json:"closed"`
	Reason string `json:"reason,omitempty"`
}

// Schedule is the weekly recurrence rule for one facility.
type Schedule struct {
	FacilityID string          `json:"facility_id"`
	DayOff     string          `json:"day_off"`    // one weekday name, e.g. "Sunday"
	OpenTime   string          `json:"open_time"`  // "08:00", informational
	CloseTime  string          `json:"close_time"` // "18:00", informational
	TimeGrid   []GridEntry     `json:"time_grid"`
	Exceptions []ExceptionDate `json:"exceptions"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// DefaultSchedule returns the schedule a facility gets before an admin
// configures one: Sunday off, 08:00-18:00, empty grid, no exceptions.
func DefaultSchedule(facilityID string) *Schedule {
	return &Schedule{
		FacilityID: facilityID,
		DayOff:     "Sunday",
		OpenTime:   "08:00",
		CloseTime:  "18:00",
	}
}

// ValidationError reports schedule problems per field so the caller can
// render targeted feedback.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid schedule"
	}
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("invalid schedule: ")
	for i, f := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", f, e.Fields[f])
	}
	return b.String()
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
}

// Validate checks the schedule before any write. Returns *ValidationError
// with one entry per offending field, or nil.
func (s *Schedule) Validate() error {
	ve := &ValidationError{}

	if _, ok := ParseWeekday(s.DayOff); !ok {
		ve.add("day_off", fmt.Sprintf("%q is not a weekday name", s.DayOff))
	}
	if !IsClock(s.OpenTime) {
		ve.add("open_time", fmt.Sprintf("%q is not a valid HH:MM time", s.OpenTime))
	}
	if !IsClock(s.CloseTime) {
		ve.add("close_time", fmt.Sprintf("%q is not a valid HH:MM time", s.CloseTime))
	}

	seenTimes := make(map[string]bool, len(s.TimeGrid))
	for i, entry := range s.TimeGrid {
		field := fmt.Sprintf("time_grid[%d].time", i)
		if !IsClock(entry.Time) {
			ve.add(field, fmt.Sprintf("%q is not a valid HH:MM time", entry.Time))
			continue
		}
		if seenTimes[entry.Time] {
			ve.add(field, fmt.Sprintf("duplicate grid time %q", entry.Time))
			continue
		}
		seenTimes[entry.Time] = true
	}

	seenDates := make(map[string]bool, len(s.Exceptions))
	for i, exc := range s.Exceptions {
		field := fmt.Sprintf("exceptions[%d].date", i)
		if _, err := ParseDate(exc.Date); err != nil {
			ve.add(field, fmt.Sprintf("%q is not a valid YYYY-MM-DD date", exc.Date))
			continue
		}
		if seenDates[exc.Date] {
			ve.add(field, fmt.Sprintf("duplicate exception date %q", exc.Date))
			continue
		}
		seenDates[exc.Date] = true
	}

	if len(ve.Fields) > 0 {
		return ve
	}
	return nil
}
