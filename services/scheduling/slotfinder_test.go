package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"caresched/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingsRepo struct {
	bookings []models.Appointment
	err      error
}

func (r *bookingsRepo) GetByID(string) (*models.Appointment, error)                 { return nil, nil }
func (r *bookingsRepo) GetActiveBySolicitation(string) (*models.Appointment, error) { return nil, nil }
func (r *bookingsRepo) CountActiveInRange(models.ProviderRef, time.Time, time.Time) (int, error) {
	return 0, nil
}
func (r *bookingsRepo) CommitScheduled(context.Context, *models.Appointment, []string) error {
	return nil
}
func (r *bookingsRepo) SetStatus(string, []string, string, string) error { return nil }

func (r *bookingsRepo) ListActiveInRange(ref models.ProviderRef, from, to time.Time) ([]models.Appointment, error) {
	return r.bookings, r.err
}

// 2026-08-24 is a Monday.
var monday = time.Date(2026, time.August, 24, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func finderAt(now time.Time, repo *bookingsRepo) *DefaultSlotFinder {
	return &DefaultSlotFinder{Appointments: repo, Now: func() time.Time { return now }}
}

func defaultScheduleProvider() models.Provider {
	return models.Provider{ID: "p1", Kind: models.ProviderClinic}
}

func TestFindSlotHonorsLeadTime(t *testing.T) {
	f := finderAt(at(monday, 8, 30), &bookingsRepo{})

	// The window opens at midnight, but nothing may start before now+1h;
	// 09:00 is too early, 09:30 is the first grid point allowed.
	slot, ok, err := f.FindSlot(context.Background(), defaultScheduleProvider(),
		monday, at(monday, 23, 0), time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, at(monday, 9, 30), slot)
}

func TestFindSlotSkipsConflictingBookings(t *testing.T) {
	repo := &bookingsRepo{bookings: []models.Appointment{{
		ID:              "existing",
		ScheduledAt:     at(monday, 9, 0),
		DurationMinutes: 60,
		Status:          models.AppointmentScheduled,
	}}}
	f := finderAt(at(monday, 7, 0), repo)

	// 09:00 collides, 09:30 still overlaps the 09:00-10:00 booking, 10:00 fits.
	slot, ok, err := f.FindSlot(context.Background(), defaultScheduleProvider(),
		monday, at(monday, 23, 0), time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, at(monday, 10, 0), slot)
}

func TestFindSlotIgnoresCancelledBookings(t *testing.T) {
	repo := &bookingsRepo{bookings: []models.Appointment{{
		ID:              "cancelled",
		ScheduledAt:     at(monday, 9, 0),
		DurationMinutes: 60,
		Status:          models.AppointmentCancelled,
	}}}
	f := finderAt(at(monday, 7, 0), repo)

	slot, ok, err := f.FindSlot(context.Background(), defaultScheduleProvider(),
		monday, at(monday, 23, 0), time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, at(monday, 9, 0), slot)
}

func TestFindSlotBackToBackBookingsDoNotCollide(t *testing.T) {
	repo := &bookingsRepo{bookings: []models.Appointment{{
		ID:              "existing",
		ScheduledAt:     at(monday, 9, 0),
		DurationMinutes: 30,
		Status:          models.AppointmentConfirmed,
	}}}
	f := finderAt(at(monday, 7, 0), repo)

	// Intervals are half-open: a booking ending 09:30 leaves 09:30 free.
	slot, ok, err := f.FindSlot(context.Background(), defaultScheduleProvider(),
		monday, at(monday, 23, 0), 30*time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, at(monday, 9, 30), slot)
}

func TestFindSlotNoWorkingHoursOnSunday(t *testing.T) {
	sunday := monday.AddDate(0, 0, -1)
	f := finderAt(at(sunday.AddDate(0, 0, -1), 12, 0), &bookingsRepo{})

	_, ok, err := f.FindSlot(context.Background(), defaultScheduleProvider(),
		sunday, at(sunday, 23, 0), time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindSlotExtendsAlreadyClosedWindow(t *testing.T) {
	f := finderAt(at(monday, 8, 0), &bookingsRepo{})

	// The preferred window ended yesterday; the search extends a week ahead
	// instead of giving up outright.
	slot, ok, err := f.FindSlot(context.Background(), defaultScheduleProvider(),
		monday.AddDate(0, 0, -14), monday.AddDate(0, 0, -1), time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, at(monday, 9, 0), slot)
}

func TestFindSlotUsesConfiguredSchedule(t *testing.T) {
	provider := models.Provider{
		ID:   "p1",
		Kind: models.ProviderProfessional,
		Schedule: []models.WorkInterval{
			{Weekday: time.Tuesday, Start: 10 * 60, End: 11 * 60},
		},
	}
	f := finderAt(at(monday, 8, 0), &bookingsRepo{})

	tuesday := monday.AddDate(0, 0, 1)
	slot, ok, err := f.FindSlot(context.Background(), provider,
		monday, at(tuesday, 23, 0), 30*time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, at(tuesday, 10, 0), slot)
}

func TestFindSlotMustFitInsideWorkingBlock(t *testing.T) {
	provider := models.Provider{
		ID:   "p1",
		Kind: models.ProviderProfessional,
		Schedule: []models.WorkInterval{
			{Weekday: time.Monday, Start: 9 * 60, End: 9*60 + 30},
		},
	}
	f := finderAt(at(monday, 7, 0), &bookingsRepo{})

	// A one-hour visit cannot fit a 30-minute block.
	_, ok, err := f.FindSlot(context.Background(), provider,
		monday, at(monday, 23, 0), time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindSlotPropagatesRepositoryError(t *testing.T) {
	f := finderAt(at(monday, 7, 0), &bookingsRepo{err: errors.New("connection reset")})

	_, _, err := f.FindSlot(context.Background(), defaultScheduleProvider(),
		monday, at(monday, 23, 0), time.Hour)
	assert.Error(t, err)
}
