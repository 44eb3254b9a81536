package schedule_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/booking-backend/internal/schedule"
)

// 2026-03-04 is a Wednesday.
var wednesday = time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)

// farPast keeps lead-time filtering out of tests that don't exercise it.
var farPast = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

func basePolicy() schedule.Policy {
	return schedule.NewPolicy(schedule.PolicyConfig{
		Active:       true,
		OpenTime:     "09:00",
		CloseTime:    "11:00",
		SlotInterval: 30,
	})
}

func at(hour, min int) time.Time {
	return time.Date(2026, time.March, 4, hour, min, 0, 0, time.UTC)
}

func TestAvailableSlots_FullWindow(t *testing.T) {
	got := schedule.AvailableSlots(basePolicy(), wednesday, 0, nil, nil, farPast)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, got)
}

func TestAvailableSlots_BusyInstantRemoved(t *testing.T) {
	busy := []schedule.BusyInstant{{At: at(10, 0)}}
	got := schedule.AvailableSlots(basePolicy(), wednesday, 0, nil, busy, farPast)
	assert.Equal(t, []string{"09:00", "09:30", "10:30"}, got)
}

func TestAvailableSlots_ServiceDurationTruncatesWindow(t *testing.T) {
	// A 60-minute service still steps by the 30-minute interval, but
	// 10:30 is dropped: 10:30+60 would run past the 11:00 close.
	got := schedule.AvailableSlots(basePolicy(), wednesday, 60, nil, nil, farPast)
	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, got)
}

func TestAvailableSlots_InactiveStore(t *testing.T) {
	p := basePolicy()
	p.Active = false
	got := schedule.AvailableSlots(p, wednesday, 0, nil, nil, farPast)
	assert.Empty(t, got)
}

func TestAvailableSlots_NonWorkingDay(t *testing.T) {
	p := schedule.NewPolicy(schedule.PolicyConfig{
		Active:      true,
		WorkingDays: "1,2,3,4,5",
	})
	saturday := time.Date(2026, time.March, 7, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Saturday, saturday.Weekday())

	assert.Empty(t, schedule.AvailableSlots(p, saturday, 0, nil, nil, farPast))
	assert.NotEmpty(t, schedule.AvailableSlots(p, wednesday, 0, nil, nil, farPast))
}

func TestAvailableSlots_EmptyWorkingDaysMeansEveryDay(t *testing.T) {
	p := basePolicy()
	require.Empty(t, p.WorkingDays)

	for i := 0; i < 7; i++ {
		day := wednesday.AddDate(0, 0, i)
		assert.NotEmpty(t, schedule.AvailableSlots(p, day, 0, nil, nil, farPast), "weekday %s", day.Weekday())
	}
}

func TestAvailableSlots_LeadTimeOnToday(t *testing.T) {
	p := basePolicy()
	p.BufferMinutes = 45

	// now = 09:10 on the requested day: 09:00 is past, 09:30 is inside
	// the 45-minute buffer, first bookable slot is 10:00.
	now := at(9, 10)
	got := schedule.AvailableSlots(p, wednesday, 0, nil, nil, now)
	assert.Equal(t, []string{"10:00", "10:30"}, got)
}

func TestAvailableSlots_NoLeadTimeOnFutureDate(t *testing.T) {
	p := basePolicy()
	p.BufferMinutes = 45

	now := at(9, 10)
	tomorrow := wednesday.AddDate(0, 0, 1)
	got := schedule.AvailableSlots(p, tomorrow, 0, nil, nil, now)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, got)
}

func TestAvailableSlots_StaffScoping(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()

	busy := []schedule.BusyInstant{
		{At: at(9, 0), StaffID: &alice},
		{At: at(10, 0), StaffID: &bob},
		{At: at(10, 30)}, // unassigned appointment
	}

	t.Run("staff scheduling on, scoped to one member", func(t *testing.T) {
		p := basePolicy()
		p.UseStaff = true
		got := schedule.AvailableSlots(p, wednesday, 0, &alice, busy, farPast)
		assert.Equal(t, []string{"09:30", "10:00", "10:30"}, got)
	})

	t.Run("staff scheduling off, every appointment blocks", func(t *testing.T) {
		p := basePolicy()
		got := schedule.AvailableSlots(p, wednesday, 0, &alice, busy, farPast)
		assert.Equal(t, []string{"09:30"}, got)
	})

	t.Run("no staff selected, every appointment blocks", func(t *testing.T) {
		p := basePolicy()
		p.UseStaff = true
		got := schedule.AvailableSlots(p, wednesday, 0, nil, busy, farPast)
		assert.Equal(t, []string{"09:30"}, got)
	})
}

func TestAvailableSlots_Pure(t *testing.T) {
	p := basePolicy()
	p.BufferMinutes = 15
	busy := []schedule.BusyInstant{{At: at(9, 30)}}
	now := at(8, 0)

	first := schedule.AvailableSlots(p, wednesday, 45, nil, busy, now)
	second := schedule.AvailableSlots(p, wednesday, 45, nil, busy, now)
	assert.Equal(t, first, second)
}

func TestAvailableSlots_SlotsFitInsideWindow(t *testing.T) {
	cases := []struct {
		name     string
		open     string
		close    string
		interval int
		duration int
	}{
		{"even split", "08:00", "12:00", 30, 30},
		{"duration exceeds interval", "08:00", "12:00", 30, 90},
		{"odd interval", "09:15", "11:05", 20, 0},
		{"duration longer than window", "09:00", "10:00", 30, 120},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := schedule.NewPolicy(schedule.PolicyConfig{
				Active:       true,
				OpenTime:     tc.open,
				CloseTime:    tc.close,
				SlotInterval: tc.interval,
			})
			got := schedule.AvailableSlots(p, wednesday, tc.duration, nil, nil, farPast)

			duration := tc.duration
			if duration <= 0 {
				duration = p.SlotInterval
			}
			for _, s := range got {
				var h, m int
				_, err := fmt.Sscanf(s, "%d:%d", &h, &m)
				require.NoError(t, err)
				start := h*60 + m
				assert.GreaterOrEqual(t, start, p.OpenMinutes, "slot %s before opening", s)
				assert.LessOrEqual(t, start+duration, p.CloseMinutes, "slot %s overruns closing", s)
			}
		})
	}
}

func TestAvailableSlots_MisconfiguredCloseBeforeOpen(t *testing.T) {
	p := schedule.NewPolicy(schedule.PolicyConfig{
		Active:       true,
		OpenTime:     "14:00",
		CloseTime:    "09:00",
		SlotInterval: 30,
	})
	// Closing degrades to opening plus one hour instead of producing
	// nothing or failing.
	got := schedule.AvailableSlots(p, wednesday, 0, nil, nil, farPast)
	assert.Equal(t, []string{"14:00", "14:30"}, got)
}
