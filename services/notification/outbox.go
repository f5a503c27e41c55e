package notification

import (
	"context"
	"encoding/json"
	"time"

	"caresched/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeOutcomeEvent is the asynq task type carrying an OutcomeEvent payload.
// Downstream workers fan the event out to the actual delivery channels.
const TypeOutcomeEvent = "notify:event"

// OutboxGateway implements Gateway by enqueueing outcome events onto the
// task queue.
type OutboxGateway struct {
	Client *asynq.Client
	Logger *zap.Logger
}

func NewOutboxGateway(client *asynq.Client, logger *zap.Logger) *OutboxGateway {
	return &OutboxGateway{Client: client, Logger: logger}
}

func (g *OutboxGateway) enqueue(ctx context.Context, event models.OutcomeEvent) {
	event.OccurredAt = time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		g.Logger.Error("failed to marshal outcome event",
			zap.String("kind", event.Kind),
			zap.String("solicitation_id", event.SolicitationID),
			zap.Error(err))
		return
	}

	task := asynq.NewTask(TypeOutcomeEvent, payload)
	if _, err := g.Client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		g.Logger.Error("failed to enqueue outcome event",
			zap.String("kind", event.Kind),
			zap.String("solicitation_id", event.SolicitationID),
			zap.Error(err))
		return
	}

	g.Logger.Info("outcome event enqueued",
		zap.String("kind", event.Kind),
		zap.String("solicitation_id", event.SolicitationID))
}

func (g *OutboxGateway) NotifyScheduled(ctx context.Context, appt models.Appointment) {
	g.enqueue(ctx, models.OutcomeEvent{
		Kind:           models.EventScheduled,
		SolicitationID: appt.SolicitationID,
		AppointmentID:  appt.ID,
	})
}

func (g *OutboxGateway) NotifyFailed(ctx context.Context, sol models.Solicitation, reason string) {
	g.enqueue(ctx, models.OutcomeEvent{
		Kind:           models.EventFailed,
		SolicitationID: sol.ID,
		Reason:         reason,
	})
}

func (g *OutboxGateway) NotifyExceptionPending(ctx context.Context, exc models.SchedulingException) {
	g.enqueue(ctx, models.OutcomeEvent{
		Kind:           models.EventExceptionPending,
		SolicitationID: exc.SolicitationID,
		ExceptionID:    exc.ID,
	})
}

func (g *OutboxGateway) NotifyExceptionResolved(ctx context.Context, exc models.SchedulingException) {
	g.enqueue(ctx, models.OutcomeEvent{
		Kind:           models.EventExceptionResolved,
		SolicitationID: exc.SolicitationID,
		ExceptionID:    exc.ID,
		Reason:         exc.RejectReason,
	})
}
