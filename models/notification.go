package models

import "time"

// Notification event kinds.
const (
	EventScheduled         = "appointment_scheduled"
	EventFailed            = "scheduling_failed"
	EventExceptionPending  = "exception_pending"
	EventExceptionResolved = "exception_resolved"
)

// OutcomeEvent is the payload handed to the notification outbox. Delivery
// (push, WhatsApp, email) is a downstream concern.
type OutcomeEvent struct {
	Kind           string    `json:"kind"`
	SolicitationID string    `json:"solicitationId"`
	AppointmentID  string    `json:"appointmentId,omitempty"`
	ExceptionID    string    `json:"exceptionId,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}
