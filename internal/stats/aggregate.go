// Package stats buckets chat records per sender by hour of day and by
// day of week.
package stats

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	errs "github.com/edgard/chatstats/internal/errors"
	"github.com/edgard/chatstats/internal/record"
)

const (
	HoursPerDay = 24
	DaysPerWeek = 7
)

// WeekdayLabels names the weekday buckets in index order.
var WeekdayLabels = [DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// HourCounts holds one counter per hour of day, index 0 is midnight.
type HourCounts [HoursPerDay]int

// WeekdayCounts holds one counter per weekday, index 0 is Monday.
type WeekdayCounts [DaysPerWeek]int

// Max returns the largest counter.
func (c HourCounts) Max() int { return maxOf(c[:]) }

// Total returns the sum of all counters.
func (c HourCounts) Total() int { return sum(c[:]) }

// Max returns the largest counter.
func (c WeekdayCounts) Max() int { return maxOf(c[:]) }

// Total returns the sum of all counters.
func (c WeekdayCounts) Total() int { return sum(c[:]) }

// Aggregate accumulates per-sender counters. The zero value is not usable;
// build one with New.
type Aggregate struct {
	layouts  []string
	hours    map[string]*HourCounts
	weekdays map[string]*WeekdayCounts
}

// New returns an empty Aggregate that parses dates with the given layouts,
// tried in order.
func New(dateLayouts []string) *Aggregate {
	return &Aggregate{
		layouts:  dateLayouts,
		hours:    make(map[string]*HourCounts),
		weekdays: make(map[string]*WeekdayCounts),
	}
}

// Add counts one record. Both the hour and the date must parse; otherwise
// nothing is counted and a parse error is returned.
func (a *Aggregate) Add(r record.Record) error {
	hour, err := ParseHour(r.Time)
	if err != nil {
		return err
	}
	day, err := ParseWeekday(r.Date, a.layouts)
	if err != nil {
		return err
	}

	h, ok := a.hours[r.Name]
	if !ok {
		h = &HourCounts{}
		a.hours[r.Name] = h
	}
	h[hour]++

	w, ok := a.weekdays[r.Name]
	if !ok {
		w = &WeekdayCounts{}
		a.weekdays[r.Name] = w
	}
	w[day]++

	return nil
}

// AddAll counts every record, stopping at the first failure. The error
// names the 1-based position of the offending record.
func (a *Aggregate) AddAll(records []record.Record) error {
	for i, r := range records {
		if err := a.Add(r); err != nil {
			return &errs.LineError{Line: i + 1, Err: err}
		}
	}
	return nil
}

// Senders returns every sender seen, sorted.
func (a *Aggregate) Senders() []string {
	names := make([]string, 0, len(a.hours))
	for name := range a.hours {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Hours returns the hour counters of sender.
func (a *Aggregate) Hours(sender string) HourCounts {
	if h, ok := a.hours[sender]; ok {
		return *h
	}
	return HourCounts{}
}

// Weekdays returns the weekday counters of sender.
func (a *Aggregate) Weekdays(sender string) WeekdayCounts {
	if w, ok := a.weekdays[sender]; ok {
		return *w
	}
	return WeekdayCounts{}
}

// MaxHour returns the largest hourly counter across all senders.
func (a *Aggregate) MaxHour() int {
	m := 0
	for _, h := range a.hours {
		m = max(m, h.Max())
	}
	return m
}

// MaxWeekday returns the largest weekday counter across all senders.
func (a *Aggregate) MaxWeekday() int {
	m := 0
	for _, w := range a.weekdays {
		m = max(m, w.Max())
	}
	return m
}

// Total returns the number of records counted.
func (a *Aggregate) Total() int {
	n := 0
	for _, h := range a.hours {
		n += h.Total()
	}
	return n
}

// ParseHour returns the hour of an "HH:MM" time: the integer before the
// first colon, which must lie in [0,23].
func ParseHour(s string) (int, error) {
	h, _, _ := strings.Cut(s, ":")
	hour, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, errs.NewParseError(fmt.Sprintf("invalid time %q", s), err)
	}
	if hour < 0 || hour >= HoursPerDay {
		return 0, errs.NewParseError(fmt.Sprintf("hour out of range in %q", s), nil)
	}
	return hour, nil
}

// ParseWeekday returns the weekday index (Mon=0) of date, trying each
// layout in order.
func ParseWeekday(date string, layouts []string) (int, error) {
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, strings.TrimSpace(date))
		if err == nil {
			return weekdayIndex(t.Weekday()), nil
		}
		lastErr = err
	}
	return 0, errs.NewParseError(fmt.Sprintf("invalid date %q", date), lastErr)
}

// weekdayIndex maps time.Weekday (Sunday=0) to Monday-first indexes.
func weekdayIndex(d time.Weekday) int {
	return (int(d) + DaysPerWeek - 1) % DaysPerWeek
}

func maxOf(values []int) int {
	m := 0
	for _, v := range values {
		m = max(m, v)
	}
	return m
}

func sum(values []int) int {
	n := 0
	for _, v := range values {
		n += v
	}
	return n
}
