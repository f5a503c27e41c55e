package models

import "time"

// Appointment statuses.
const (
	AppointmentScheduled = "scheduled"
	AppointmentConfirmed = "confirmed"
	AppointmentCompleted = "completed"
	AppointmentMissed    = "missed"
	AppointmentCancelled = "cancelled"
)

// Appointment is the output artifact of a successful match. Its time is
// immutable: rescheduling creates a new appointment and cancels this one.
type Appointment struct {
	ID              string      `bson:"id" json:"id"`
	SolicitationID  string      `bson:"solicitationId" json:"solicitationId"`
	Provider        ProviderRef `bson:"provider" json:"provider"`
	ScheduledAt     time.Time   `bson:"scheduledAt" json:"scheduledAt"`
	DurationMinutes int         `bson:"durationMinutes" json:"durationMinutes"`
	Status          string      `bson:"status" json:"status"`
	Price           float64     `bson:"price" json:"price"` // contracted price snapshot at booking time

	CreatedBy   string     `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	ConfirmedBy string     `bson:"confirmedBy,omitempty" json:"confirmedBy,omitempty"`
	ConfirmedAt *time.Time `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	CancelledBy string     `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
	CancelledAt *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
}

// EndsAt returns the exclusive end of the appointment interval.
func (a Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// Active reports whether the appointment still occupies its slot.
func (a Appointment) Active() bool {
	return a.Status != AppointmentCancelled
}
