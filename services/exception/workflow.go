package exception

import (
	"context"
	"errors"
	"fmt"
	"time"

	appointmentRepo "caresched/database/repository/appointment"
	exceptionRepo "caresched/database/repository/exception"
	providerRepo "caresched/database/repository/provider"
	solicitationRepo "caresched/database/repository/solicitation"
	"caresched/models"
	"caresched/services/matching"
	"caresched/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrProviderNotFound is returned when the requested provider does not
	// exist or is not bookable.
	ErrProviderNotFound = errors.New("requested provider not found")
	// ErrReasonRequired is returned when a rejection carries no reason.
	ErrReasonRequired = errors.New("a reason is required to reject an exception")
	// ErrAlreadyResolved mirrors the repository sentinel for callers.
	ErrAlreadyResolved = exceptionRepo.ErrAlreadyResolved
)

// RequestInput carries an operator's manual override proposal.
type RequestInput struct {
	SolicitationID string
	Provider       models.ProviderRef
	Price          float64
	Date           time.Time
	Reason         string
	RequestedBy    string
}

// Workflow is the propose/approve/reject state machine for manual overrides
// of the automatic matching outcome.
type Workflow interface {
	// Request validates and persists a pending exception. It never creates
	// an appointment.
	Request(ctx context.Context, input RequestInput) (*models.SchedulingException, error)
	// Approve creates the appointment with the requested provider/price/date
	// and marks the exception approved. Privileged actors only; enforcement
	// sits at the transport layer.
	Approve(ctx context.Context, id, actor string) (*models.Appointment, error)
	// Reject marks the exception rejected with a mandatory reason. No
	// scheduling action is taken.
	Reject(ctx context.Context, id, actor, reason string) error
}

// DefaultWorkflow implements Workflow.
type DefaultWorkflow struct {
	Exceptions    exceptionRepo.ExceptionRepository
	Solicitations solicitationRepo.SolicitationRepository
	Appointments  appointmentRepo.AppointmentRepository
	Providers     providerRepo.ProviderRepository
	Eligibility   matching.EligibilityService
	Notifier      notification.Gateway
	Logger        *zap.Logger
}

func (w *DefaultWorkflow) Request(ctx context.Context, input RequestInput) (*models.SchedulingException, error) {
	if input.Reason == "" {
		return nil, fmt.Errorf("a reason is required to request an exception")
	}

	provider, err := w.Providers.GetByRef(input.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to validate requested provider: %w", err)
	}
	if provider == nil {
		return nil, ErrProviderNotFound
	}

	sol, err := w.Solicitations.GetByID(input.SolicitationID)
	if err != nil {
		return nil, err
	}

	exc := &models.SchedulingException{
		ID:               uuid.New().String(),
		SolicitationID:   sol.ID,
		Provider:         input.Provider,
		RequestedPrice:   input.Price,
		RecommendedPrice: w.recommendedPrice(ctx, *sol),
		RequestedDate:    input.Date,
		Reason:           input.Reason,
		Status:           models.ExceptionPending,
		RequestedBy:      input.RequestedBy,
		CreatedAt:        time.Now(),
	}
	if err := w.Exceptions.Create(exc); err != nil {
		return nil, err
	}

	if _, err := w.Solicitations.TransitionStatus(sol.ID,
		[]string{models.SolicitationPending, models.SolicitationProcessing, models.SolicitationFailed},
		models.SolicitationWaitingManual, ""); err != nil {
		w.Logger.Warn("failed to move solicitation to waiting_manual_response",
			zap.String("solicitation_id", sol.ID),
			zap.Error(err))
	}

	w.Logger.Info("scheduling exception requested",
		zap.String("exception_id", exc.ID),
		zap.String("solicitation_id", sol.ID),
		zap.Float64("requested_price", exc.RequestedPrice),
		zap.Float64("recommended_price", exc.RecommendedPrice))

	w.Notifier.NotifyExceptionPending(ctx, *exc)
	return exc, nil
}

// recommendedPrice is the algorithm's best contracted price for the
// solicitation, recorded beside the human-requested one for variance
// auditing. Zero when no eligible candidate carries a price.
func (w *DefaultWorkflow) recommendedPrice(ctx context.Context, sol models.Solicitation) float64 {
	candidates, err := w.Eligibility.Eligible(ctx, sol)
	if err != nil {
		w.Logger.Warn("could not compute recommended price",
			zap.String("solicitation_id", sol.ID),
			zap.Error(err))
		return 0
	}
	ranked := matching.Rank(matching.PolicyCost, candidates, matching.DefaultRankWeights())
	for _, c := range ranked {
		if c.HasPrice {
			return c.Price
		}
	}
	return 0
}

func (w *DefaultWorkflow) Approve(ctx context.Context, id, actor string) (*models.Appointment, error) {
	exc, err := w.Exceptions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if exc.Status != models.ExceptionPending {
		return nil, ErrAlreadyResolved
	}

	sol, err := w.Solicitations.GetByID(exc.SolicitationID)
	if err != nil {
		return nil, err
	}

	appt := &models.Appointment{
		ID:              uuid.New().String(),
		SolicitationID:  sol.ID,
		Provider:        exc.Provider,
		ScheduledAt:     exc.RequestedDate,
		DurationMinutes: sol.DurationMinutes,
		Status:          models.AppointmentScheduled,
		Price:           exc.RequestedPrice,
		CreatedBy:       actor,
		CreatedAt:       time.Now(),
	}
	if appt.DurationMinutes <= 0 {
		appt.DurationMinutes = 60
	}

	from := []string{
		models.SolicitationWaitingManual,
		models.SolicitationPending,
		models.SolicitationProcessing,
		models.SolicitationFailed,
	}
	// The exception stays pending until the appointment commit succeeds, so
	// a failed commit can be retried or rejected.
	if err := w.Appointments.CommitScheduled(ctx, appt, from); err != nil {
		return nil, fmt.Errorf("failed to create appointment for exception %s: %w", exc.ID, err)
	}

	exc, err = w.Exceptions.Resolve(id, models.ExceptionApproved, actor, "")
	if err != nil {
		return nil, err
	}

	negotiation := &models.NegotiationRecord{
		ID:               uuid.New().String(),
		ExceptionID:      exc.ID,
		SolicitationID:   sol.ID,
		Provider:         exc.Provider,
		AgreedPrice:      exc.RequestedPrice,
		RecommendedPrice: exc.RecommendedPrice,
		CreatedBy:        actor,
		CreatedAt:        time.Now(),
	}
	if err := w.Exceptions.CreateNegotiation(negotiation); err != nil {
		// The appointment stands; the commercial record can be replayed.
		w.Logger.Error("failed to register extemporaneous negotiation",
			zap.String("exception_id", exc.ID),
			zap.Error(err))
	}

	w.Logger.Info("scheduling exception approved",
		zap.String("exception_id", exc.ID),
		zap.String("solicitation_id", sol.ID),
		zap.String("appointment_id", appt.ID))

	w.Notifier.NotifyExceptionResolved(ctx, *exc)
	return appt, nil
}

func (w *DefaultWorkflow) Reject(ctx context.Context, id, actor, reason string) error {
	if reason == "" {
		return ErrReasonRequired
	}

	exc, err := w.Exceptions.Resolve(id, models.ExceptionRejected, actor, reason)
	if err != nil {
		return err
	}

	w.Logger.Info("scheduling exception rejected",
		zap.String("exception_id", exc.ID),
		zap.String("solicitation_id", exc.SolicitationID),
		zap.String("reason", reason))

	w.Notifier.NotifyExceptionResolved(ctx, *exc)
	return nil
}
