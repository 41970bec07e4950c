package worker

// retry_cron.go
// Background goroutine that periodically re-attempts notificaciones stuck in
// estado='pendiente' with a next_retry_at in the past. Uses the circuit
// breaker to avoid hammering a downed SMTP relay, and covers the gap where a
// queue message was lost between commit and enqueue.

import (
	"context"
	"fmt"
	"time"

	"plantaops/internal/infra"
	"plantaops/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	NotifRepo repository.NotificacionRepository
	Mailer    *infra.Mailer
	CB        *infra.CircuitBreaker
	RDB       *redis.Client
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries due notifications, and re-attempts SMTP delivery through the CB.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// If CB is open, skip entirely — don't hammer a downed relay
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	now := time.Now()
	pendientes, err := cfg.NotifRepo.ListPendingRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}
	if len(pendientes) == 0 {
		return
	}

	log.Info().Int("count", len(pendientes)).Msg("retry_cron: processing pending notificaciones")

	for i := range pendientes {
		notif := &pendientes[i]

		// Check CB state before each call — it may have tripped mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}

		cbErr := cfg.CB.Execute(func() error {
			return cfg.Mailer.Send(notif.Destinatario, notif.Asunto, notif.Cuerpo, "")
		})

		if cbErr != nil {
			attempts := notif.RetryCount + 1
			if attempts >= MaxNotificacionRetries {
				if err := cfg.NotifRepo.MarcarFallida(ctx, notif.ID, cbErr.Error()); err != nil {
					log.Error().Err(err).Str("notificacion_id", notif.ID.String()).Msg("retry_cron: could not mark failed")
					continue
				}
				payload := fmt.Sprintf(`{"notificacion_id":%q}`, notif.ID)
				Descartar(ctx, cfg.RDB, QueueNotificaciones, "notificacion", []byte(payload),
					fmt.Sprintf("max retries (%d) exceeded: %s", MaxNotificacionRetries, cbErr.Error()),
					attempts)
				continue
			}

			next := time.Now().Add(computeRetryBackoff(attempts))
			if err := cfg.NotifRepo.ProgramarReintento(ctx, notif.ID, next, cbErr.Error()); err != nil {
				log.Error().Err(err).Str("notificacion_id", notif.ID.String()).Msg("retry_cron: could not schedule retry")
			}
			continue
		}

		if err := cfg.NotifRepo.MarcarEnviada(ctx, notif.ID); err != nil {
			log.Error().Err(err).Str("notificacion_id", notif.ID.String()).Msg("retry_cron: could not mark sent")
			continue
		}
		log.Info().
			Str("notificacion_id", notif.ID.String()).
			Str("tipo", notif.Tipo).
			Int("total_retries", notif.RetryCount).
			Msg("retry_cron: delivered after retry")
	}
}
