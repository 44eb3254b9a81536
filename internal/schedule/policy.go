// Package schedule computes bookable appointment slots for a store.
// It is pure: no I/O, no clock access, everything comes in as arguments.
package schedule

import (
	"strconv"
	"strings"
	"time"
)

const (
	defaultOpenMinutes  = 9 * 60  // 09:00
	defaultCloseMinutes = 18 * 60 // 18:00
	defaultIntervalMin  = 30
)

// PolicyConfig is the raw scheduling configuration as stored for a store.
// Fields may be blank, zero, or malformed; NewPolicy resolves them to
// usable defaults instead of failing.
type PolicyConfig struct {
	Active         bool
	OpenTime       string // "HH:MM", 24h
	CloseTime      string // "HH:MM", 24h
	SlotInterval   int    // minutes between candidate slot starts
	BufferMinutes  int    // minimum lead time before a slot may be offered
	WorkingDays    string // ISO weekday CSV, "1,2,3,4,5" (1=Mon..7=Sun)
	RequireService bool
	UseStaff       bool
}

// Policy is the resolved, defaulted scheduling configuration. It is a
// read-only snapshot; the slot engine never mutates it.
type Policy struct {
	Active         bool
	OpenMinutes    int // minutes from midnight
	CloseMinutes   int
	SlotInterval   int
	BufferMinutes  int
	WorkingDays    map[time.Weekday]struct{} // empty set means every day
	RequireService bool
	UseStaff       bool
}

// NewPolicy normalizes a possibly-partial stored configuration into a
// Policy. Defaults: open 09:00, close 18:00, interval 30, buffer 0. A
// closing time at or before opening degrades to opening plus one hour.
func NewPolicy(cfg PolicyConfig) Policy {
	open := parseClock(cfg.OpenTime, defaultOpenMinutes)
	close := parseClock(cfg.CloseTime, defaultCloseMinutes)
	if close <= open {
		close = open + 60
	}

	interval := cfg.SlotInterval
	if interval <= 0 {
		interval = defaultIntervalMin
	}

	buffer := cfg.BufferMinutes
	if buffer < 0 {
		buffer = 0
	}

	return Policy{
		Active:         cfg.Active,
		OpenMinutes:    open,
		CloseMinutes:   close,
		SlotInterval:   interval,
		BufferMinutes:  buffer,
		WorkingDays:    parseWorkingDays(cfg.WorkingDays),
		RequireService: cfg.RequireService,
		UseStaff:       cfg.UseStaff,
	}
}

// IsWorkingDay reports whether the store takes bookings on the given
// weekday. An empty working-day set never excludes a day.
func (p Policy) IsWorkingDay(d time.Weekday) bool {
	if len(p.WorkingDays) == 0 {
		return true
	}
	_, ok := p.WorkingDays[d]
	return ok
}

// parseClock converts "HH:MM" to minutes from midnight, falling back to
// def for blank or malformed values.
func parseClock(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return def
	}
	return t.Hour()*60 + t.Minute()
}

// parseWorkingDays converts "1,2,3" (ISO weekday numbers) to a weekday
// set. Any malformed token discards the whole value, which the engine
// treats as "open every day".
func parseWorkingDays(csv string) map[time.Weekday]struct{} {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return map[time.Weekday]struct{}{}
	}

	days := make(map[time.Weekday]struct{})
	for _, tok := range strings.Split(csv, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil || n < 1 || n > 7 {
			return map[time.Weekday]struct{}{}
		}
		// ISO numbering: 1=Monday .. 7=Sunday; time.Weekday: 0=Sunday.
		days[time.Weekday(n%7)] = struct{}{}
	}
	return days
}
