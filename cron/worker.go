package cron

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"caresched/config"
	solicitationRepo "caresched/database/repository/solicitation"
	"caresched/models"
	"caresched/services/notification"
	"caresched/services/scheduling"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TypeScheduleRun triggers one scheduling attempt for a solicitation.
const TypeScheduleRun = "solicitation:schedule"

// ScheduleRunPayload identifies the solicitation to attempt.
type ScheduleRunPayload struct {
	SolicitationID string `json:"solicitationId"`
}

// NewQueueClient builds the asynq client used by handlers and the outbox.
func NewQueueClient() *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
}

// EnqueueScheduleRun queues a scheduling attempt for the solicitation.
func EnqueueScheduleRun(ctx context.Context, client *asynq.Client, solicitationID string) error {
	payload, err := json.Marshal(ScheduleRunPayload{SolicitationID: solicitationID})
	if err != nil {
		return err
	}
	_, err = client.EnqueueContext(ctx, asynq.NewTask(TypeScheduleRun, payload), asynq.MaxRetry(3))
	return err
}

// InitSchedulingWorker runs the async worker in background.
func InitSchedulingWorker(orch scheduling.Orchestrator, logger *zap.Logger) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeScheduleRun, handleScheduleRun(orch, logger))
	mux.HandleFunc(notification.TypeOutcomeEvent, handleOutcomeEvent(logger))

	go func() {
		log.Println("[SchedulingWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[SchedulingWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[SchedulingWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleScheduleRun(orch scheduling.Orchestrator, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p ScheduleRunPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid schedule-run payload", zap.Error(err))
			return err
		}

		appt, err := orch.Schedule(ctx, p.SolicitationID)
		if err != nil {
			// Terminal outcomes already notified and moved the solicitation
			// to failed; retrying would only repeat the same answer.
			if errors.Is(err, scheduling.ErrNoProviders) ||
				errors.Is(err, scheduling.ErrNoSlot) ||
				errors.Is(err, scheduling.ErrSchedulingDisabled) ||
				errors.Is(err, scheduling.ErrAwaitingManual) {
				logger.Info("scheduling attempt exhausted",
					zap.String("solicitation_id", p.SolicitationID),
					zap.String("reason", err.Error()))
				return nil
			}
			// Transient failure: let asynq retry the whole attempt.
			return err
		}

		logger.Info("scheduling attempt succeeded",
			zap.String("solicitation_id", p.SolicitationID),
			zap.String("appointment_id", appt.ID))
		return nil
	}
}

func handleOutcomeEvent(logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var event models.OutcomeEvent
		if err := json.Unmarshal(task.Payload(), &event); err != nil {
			logger.Error("invalid outcome event payload", zap.Error(err))
			return err
		}

		// Delivery to patients and operators (push, messaging, email) is
		// owned by a downstream consumer; here the event is surfaced for it.
		logger.Info("outcome event",
			zap.String("kind", event.Kind),
			zap.String("solicitation_id", event.SolicitationID),
			zap.String("appointment_id", event.AppointmentID),
			zap.String("exception_id", event.ExceptionID),
			zap.String("reason", event.Reason))
		return nil
	}
}

// InitWatchdog periodically re-enqueues solicitations stuck in processing
// longer than the configured threshold, so a crashed attempt is retried
// through the same idempotent path.
func InitWatchdog(repo solicitationRepo.SolicitationRepository, client *asynq.Client, threshold time.Duration, logger *zap.Logger) {
	if threshold <= 0 {
		threshold = 30 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(threshold / 2)
		defer ticker.Stop()

		for range ticker.C {
			stuck, err := repo.ListStuckProcessing(time.Now().Add(-threshold))
			if err != nil {
				logger.Warn("watchdog scan failed", zap.Error(err))
				continue
			}
			for _, sol := range stuck {
				if err := EnqueueScheduleRun(context.Background(), client, sol.ID); err != nil {
					logger.Warn("watchdog failed to re-enqueue solicitation",
						zap.String("solicitation_id", sol.ID),
						zap.Error(err))
					continue
				}
				logger.Info("watchdog re-enqueued stuck solicitation",
					zap.String("solicitation_id", sol.ID))
			}
		}
	}()
}
