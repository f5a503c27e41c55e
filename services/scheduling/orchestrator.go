package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caresched/config"
	appointmentRepo "caresched/database/repository/appointment"
	solicitationRepo "caresched/database/repository/solicitation"
	"caresched/models"
	"caresched/services/matching"
	"caresched/services/notification"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Attempt stages, used for tracing the state machine.
const (
	StageStarted    = "started"
	StageFiltering  = "filtering"
	StageRanking    = "ranking"
	StageSlotSearch = "slot_search"
	StageCommitting = "committing"
	StageDone       = "done"
	StageExhausted  = "exhausted"
)

// SystemActor is the audit identity for appointments created by the engine.
const SystemActor = "scheduler"

// Orchestrator drives a full scheduling attempt: eligibility, ranking, slot
// search, atomic commit and failure escalation.
type Orchestrator interface {
	Schedule(ctx context.Context, solicitationID string) (*models.Appointment, error)
}

// DefaultOrchestrator is the production implementation. It is safe to invoke
// concurrently for the same solicitation: the commit step is the only
// mutation racing across attempts, and it is idempotent.
type DefaultOrchestrator struct {
	Cfg           config.SchedulingConfig
	Solicitations solicitationRepo.SolicitationRepository
	Appointments  appointmentRepo.AppointmentRepository
	Eligibility   matching.EligibilityService
	SlotFinder    SlotFinder
	Notifier      notification.Gateway
	Logger        *zap.Logger
	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func (o *DefaultOrchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *DefaultOrchestrator) trace(solicitationID, stage, outcome string) {
	o.Logger.Info("scheduling attempt",
		zap.String("solicitation_id", solicitationID),
		zap.String("stage", stage),
		zap.String("outcome", outcome))
}

// Schedule runs one attempt for the solicitation. Terminal failures move the
// solicitation to failed and emit exactly one notification; transient
// infrastructure errors leave it in processing so the watchdog can retry.
func (o *DefaultOrchestrator) Schedule(ctx context.Context, solicitationID string) (*models.Appointment, error) {
	o.trace(solicitationID, StageStarted, "begin")

	sol, err := o.Solicitations.GetByID(solicitationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load solicitation %s: %w", solicitationID, err)
	}

	switch sol.Status {
	case models.SolicitationScheduled:
		// A previous attempt already succeeded; surface its result.
		appt, err := o.Appointments.GetActiveBySolicitation(sol.ID)
		if err != nil {
			return nil, err
		}
		o.trace(sol.ID, StageDone, "already scheduled")
		return appt, nil
	case models.SolicitationWaitingManual:
		return nil, ErrAwaitingManual
	}

	// processing is re-entrant: a lost race here means another attempt is in
	// flight, and the commit step decides the winner.
	if _, err := o.Solicitations.TransitionStatus(sol.ID, []string{models.SolicitationPending, models.SolicitationFailed}, models.SolicitationProcessing, ""); err != nil {
		return nil, err
	}

	if !o.Cfg.Enabled {
		o.trace(sol.ID, StageExhausted, "scheduling disabled")
		o.fail(ctx, sol, ReasonDisabled)
		return nil, ErrSchedulingDisabled
	}

	candidates, err := o.Eligibility.Eligible(ctx, *sol)
	if err != nil {
		o.trace(sol.ID, StageFiltering, "error")
		return nil, fmt.Errorf("eligibility filtering failed: %w", err)
	}
	o.trace(sol.ID, StageFiltering, fmt.Sprintf("%d candidates", len(candidates)))
	if len(candidates) == 0 {
		o.trace(sol.ID, StageExhausted, ReasonNoProviders)
		o.fail(ctx, sol, ReasonNoProviders)
		return nil, ErrNoProviders
	}

	ranked := matching.Rank(matching.ParsePolicy(o.Cfg.Priority), candidates, o.weights(*sol))
	o.trace(sol.ID, StageRanking, fmt.Sprintf("%d ranked under %s", len(ranked), o.Cfg.Priority))
	if len(ranked) == 0 {
		// The distance policy can drop every candidate when no coordinates exist.
		o.trace(sol.ID, StageExhausted, ReasonNoProviders)
		o.fail(ctx, sol, ReasonNoProviders)
		return nil, ErrNoProviders
	}

	duration := time.Duration(sol.DurationMinutes) * time.Minute
	if duration <= 0 {
		duration = o.Cfg.DefaultDuration
	}
	windowStart := sol.WindowStart
	if lead := o.now().AddDate(0, 0, o.Cfg.MinDaysAhead); o.Cfg.MinDaysAhead > 0 && windowStart.Before(lead) {
		windowStart = lead
	}

	for _, cand := range ranked {
		slot, ok, err := o.SlotFinder.FindSlot(ctx, cand.Provider, windowStart, sol.WindowEnd, duration)
		if err != nil {
			// Per-provider failure: log and move to the next candidate.
			o.Logger.Warn("slot search failed for candidate",
				zap.String("solicitation_id", sol.ID),
				zap.String("provider", cand.Provider.ID),
				zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		o.trace(sol.ID, StageSlotSearch, fmt.Sprintf("provider %s at %s", cand.Provider.ID, slot.Format(time.RFC3339)))
		return o.commit(ctx, sol, cand, slot, duration)
	}

	o.trace(sol.ID, StageExhausted, ReasonNoSlot)
	o.fail(ctx, sol, ReasonNoSlot)
	return nil, ErrNoSlot
}

func (o *DefaultOrchestrator) weights(sol models.Solicitation) matching.RankWeights {
	radius := sol.RadiusKm
	if radius <= 0 {
		radius = o.Cfg.DefaultRadiusKm
	}
	return matching.RankWeights{
		Price:        o.Cfg.PriceWeight,
		Distance:     o.Cfg.DistanceWeight,
		Load:         o.Cfg.LoadWeight,
		PriceCeiling: o.Cfg.PriceCeiling,
		LoadCeiling:  o.Cfg.LoadCeiling,
		MaxRadiusKm:  radius,
	}
}

func (o *DefaultOrchestrator) commit(ctx context.Context, sol *models.Solicitation, cand models.ProviderCandidate, slot time.Time, duration time.Duration) (*models.Appointment, error) {
	appt := &models.Appointment{
		ID:              uuid.New().String(),
		SolicitationID:  sol.ID,
		Provider:        cand.Provider.Ref(),
		ScheduledAt:     slot,
		DurationMinutes: int(duration / time.Minute),
		Status:          models.AppointmentScheduled,
		Price:           cand.Price,
		CreatedBy:       SystemActor,
		CreatedAt:       o.now(),
	}

	err := o.Appointments.CommitScheduled(ctx, appt, []string{models.SolicitationPending, models.SolicitationProcessing})
	if errors.Is(err, appointmentRepo.ErrAlreadyScheduled) {
		// A concurrent attempt won; discard this result silently.
		existing, getErr := o.Appointments.GetActiveBySolicitation(sol.ID)
		if getErr != nil {
			return nil, getErr
		}
		o.trace(sol.ID, StageCommitting, "lost race, kept existing appointment")
		return existing, nil
	}
	if err != nil {
		o.trace(sol.ID, StageCommitting, "error")
		return nil, fmt.Errorf("appointment commit failed: %w", err)
	}

	o.trace(sol.ID, StageDone, "scheduled")
	o.Notifier.NotifyScheduled(ctx, *appt)
	return appt, nil
}

// fail moves the solicitation to failed with a reason and emits the single
// terminal notification. Every terminal path notifies; none notify twice.
func (o *DefaultOrchestrator) fail(ctx context.Context, sol *models.Solicitation, reason string) {
	moved, err := o.Solicitations.TransitionStatus(sol.ID,
		[]string{models.SolicitationPending, models.SolicitationProcessing}, models.SolicitationFailed, reason)
	if err != nil {
		o.Logger.Error("failed to mark solicitation failed",
			zap.String("solicitation_id", sol.ID),
			zap.Error(err))
		return
	}
	if moved {
		o.Notifier.NotifyFailed(ctx, *sol, reason)
	}
}
