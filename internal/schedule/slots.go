package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BusyInstant is the start time of an existing appointment. StaffID is
// set when the appointment is bound to a specific staff member.
type BusyInstant struct {
	At      time.Time
	StaffID *uuid.UUID
}

// AvailableSlots returns the bookable start times for a store on the
// given date as ascending zero-padded "HH:MM" strings.
//
// serviceDuration is the occupancy length in minutes of the service
// being booked; zero or negative means "use the slot interval". staffID
// narrows conflict checking to one staff member, but only when the
// policy uses staff-level scheduling; otherwise every appointment of
// the store blocks its instant. now drives lead-time filtering and must
// be supplied by the caller so results stay reproducible.
//
// Conflicts are exact start-time matches, not interval overlaps. Two
// services with different durations can therefore produce bookings that
// overlap on a calendar; that matches the booking rules this engine
// replaces.
func AvailableSlots(p Policy, date time.Time, serviceDuration int, staffID *uuid.UUID, busy []BusyInstant, now time.Time) []string {
	if !p.Active {
		return nil
	}
	if !p.IsWorkingDay(date.Weekday()) {
		return nil
	}

	open, close := p.OpenMinutes, p.CloseMinutes
	if close <= open {
		close = open + 60
	}

	interval := p.SlotInterval
	if interval <= 0 {
		interval = defaultIntervalMin
	}

	duration := interval
	if serviceDuration > 0 {
		duration = serviceDuration
	}

	buffer := p.BufferMinutes
	if buffer < 0 {
		buffer = 0
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	cursor := dayStart.Add(time.Duration(open) * time.Minute)
	closeAt := dayStart.Add(time.Duration(close) * time.Minute)

	// Lead time only applies when the requested date is today or in the
	// past; future days are never trimmed by the buffer.
	earliest := now.Add(time.Duration(buffer) * time.Minute)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	applyLeadTime := !dayStart.After(todayStart)

	occupied := scopeBusy(p, busy, staffID)

	var slots []string
	for !cursor.After(closeAt.Add(-time.Duration(duration) * time.Minute)) {
		switch {
		case applyLeadTime && cursor.Before(earliest):
			// inside the lead-time window
		case occupied[cursor.Unix()]:
			// exact-instant conflict
		default:
			slots = append(slots, fmt.Sprintf("%02d:%02d", cursor.Hour(), cursor.Minute()))
		}
		cursor = cursor.Add(time.Duration(interval) * time.Minute)
	}
	return slots
}

// scopeBusy picks which existing appointments block slots. With staff
// scheduling on and a staff member selected, only that member's
// appointments count; in every other case the whole store's do.
func scopeBusy(p Policy, busy []BusyInstant, staffID *uuid.UUID) map[int64]bool {
	occupied := make(map[int64]bool, len(busy))
	perStaff := staffID != nil && p.UseStaff
	for _, b := range busy {
		if perStaff && (b.StaffID == nil || *b.StaffID != *staffID) {
			continue
		}
		occupied[b.At.Unix()] = true
	}
	return occupied
}
