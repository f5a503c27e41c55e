package appointmentRepo

import (
	"context"
	"errors"
	"time"

	"caresched/models"
)

// ErrAlreadyScheduled is returned by CommitScheduled when the solicitation
// already holds an active appointment, typically because a concurrent attempt
// committed first. Callers treat it as a benign outcome, not a failure.
var ErrAlreadyScheduled = errors.New("solicitation already has an active appointment")

// ErrNotFound is returned when no appointment matches the given id.
var ErrNotFound = errors.New("appointment not found")

// AppointmentRepository persists appointments and guards the one-active-
// appointment-per-solicitation invariant.
type AppointmentRepository interface {
	GetByID(id string) (*models.Appointment, error)
	// GetActiveBySolicitation returns the non-cancelled appointment for a
	// solicitation, or nil when none exists.
	GetActiveBySolicitation(solicitationID string) (*models.Appointment, error)
	// ListActiveInRange returns non-cancelled appointments for the provider
	// whose interval intersects [from, to).
	ListActiveInRange(ref models.ProviderRef, from, to time.Time) ([]models.Appointment, error)
	// CountActiveInRange is the provider's outstanding load in the window.
	CountActiveInRange(ref models.ProviderRef, from, to time.Time) (int, error)
	// CommitScheduled atomically inserts the appointment and transitions its
	// solicitation from one of the given statuses to scheduled. Returns
	// ErrAlreadyScheduled when another attempt won the race.
	CommitScheduled(ctx context.Context, appt *models.Appointment, fromStatuses []string) error
	// SetStatus conditionally moves an appointment between statuses,
	// stamping the audit fields for the acting user.
	SetStatus(id string, from []string, to, actor string) error
}
