package notification

import (
	"context"

	"caresched/models"
)

// Gateway publishes outcome events. Calls are fire-and-forget: delivery
// errors are logged by implementations and never propagated, so a broken
// notification channel cannot fail a scheduling attempt.
type Gateway interface {
	NotifyScheduled(ctx context.Context, appt models.Appointment)
	NotifyFailed(ctx context.Context, sol models.Solicitation, reason string)
	NotifyExceptionPending(ctx context.Context, exc models.SchedulingException)
	NotifyExceptionResolved(ctx context.Context, exc models.SchedulingException)
}
