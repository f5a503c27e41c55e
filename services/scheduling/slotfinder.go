package scheduling

import (
	"context"
	"fmt"
	"time"

	appointmentRepo "caresched/database/repository/appointment"
	"caresched/models"
)

const (
	// MinLeadTime forbids immediate-past and same-hour bookings.
	MinLeadTime = time.Hour
	// SlotStep is the granularity of candidate start times.
	SlotStep = 30 * time.Minute
	// WindowExtension is applied when the preferred window has already
	// closed by the time the search starts.
	WindowExtension = 7 * 24 * time.Hour
)

// SlotFinder locates the earliest conflict-free start time on a provider's
// calendar.
type SlotFinder interface {
	// FindSlot returns the earliest valid start inside [windowStart,
	// windowEnd]. ok is false when the provider has no free slot; that is
	// not an error.
	FindSlot(ctx context.Context, provider models.Provider, windowStart, windowEnd time.Time, duration time.Duration) (time.Time, bool, error)
}

// DefaultSlotFinder walks the provider's weekly working-hours grid in
// 30-minute steps, checking each candidate against existing bookings.
type DefaultSlotFinder struct {
	Appointments appointmentRepo.AppointmentRepository
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (f *DefaultSlotFinder) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *DefaultSlotFinder) FindSlot(ctx context.Context, provider models.Provider, windowStart, windowEnd time.Time, duration time.Duration) (time.Time, bool, error) {
	if duration <= 0 {
		duration = time.Hour
	}

	searchStart := windowStart
	if earliest := f.now().Add(MinLeadTime); searchStart.Before(earliest) {
		searchStart = earliest
	}
	if windowEnd.Before(searchStart) {
		windowEnd = searchStart.Add(WindowExtension)
	}

	existing, err := f.Appointments.ListActiveInRange(provider.Ref(), searchStart, windowEnd.Add(duration))
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to load existing bookings for %s/%s: %w", provider.Kind, provider.ID, err)
	}

	schedule := provider.Schedule
	if len(schedule) == 0 {
		schedule = models.DefaultWeekSchedule()
	}

	// Scan days chronologically; within a day, working intervals in the
	// order they were configured.
	for day := midnightOf(searchStart); !day.After(windowEnd); day = day.AddDate(0, 0, 1) {
		for _, block := range schedule {
			if block.Weekday != day.Weekday() {
				continue
			}
			blockEnd := day.Add(time.Duration(block.End) * time.Minute)
			for t := day.Add(time.Duration(block.Start) * time.Minute); !t.Add(duration).After(blockEnd); t = t.Add(SlotStep) {
				if t.Before(searchStart) || t.After(windowEnd) {
					continue
				}
				if !conflicts(t, t.Add(duration), existing) {
					return t, true, nil
				}
			}
		}
	}

	return time.Time{}, false, nil
}

func midnightOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// conflicts applies the half-open interval overlap test against every
// non-cancelled booking: [a, b) and [c, d) overlap iff a < d && c < b.
func conflicts(start, end time.Time, existing []models.Appointment) bool {
	for _, appt := range existing {
		if !appt.Active() {
			continue
		}
		if start.Before(appt.EndsAt()) && appt.ScheduledAt.Before(end) {
			return true
		}
	}
	return false
}
