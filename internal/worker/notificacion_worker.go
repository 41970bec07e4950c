package worker

// notificacion_worker.go
// Processes notification jobs from QueueNotificaciones: re-reads the
// Notificacion row, sends the email through the SMTP circuit breaker and
// records the outcome. On failure it schedules the next attempt for the
// retry cron instead of re-queueing.

import (
	"context"
	"encoding/json"
	"time"

	"plantaops/internal/infra"
	"plantaops/internal/model"
	"plantaops/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxNotificacionRetries bounds total delivery attempts before a
// notification lands in the DLQ.
const MaxNotificacionRetries = 3

// computeRetryBackoff returns the delay before attempt n (1m, 5m, 15m).
func computeRetryBackoff(retryCount int) time.Duration {
	switch {
	case retryCount <= 1:
		return 1 * time.Minute
	case retryCount == 2:
		return 5 * time.Minute
	default:
		return 15 * time.Minute
	}
}

type NotificacionWorker struct {
	notifRepo repository.NotificacionRepository
	mailer    *infra.Mailer
	cb        *infra.CircuitBreaker
}

func NewNotificacionWorker(notifRepo repository.NotificacionRepository, mailer *infra.Mailer, cb *infra.CircuitBreaker) *NotificacionWorker {
	return &NotificacionWorker{notifRepo: notifRepo, mailer: mailer, cb: cb}
}

func (w *NotificacionWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload NotificacionJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notificacion_worker: invalid payload")
		return
	}
	id, err := uuid.Parse(payload.NotificacionID)
	if err != nil {
		log.Error().Str("notificacion_id", payload.NotificacionID).Msg("notificacion_worker: invalid id")
		return
	}

	notif, err := w.notifRepo.ObtenerPorID(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("notificacion_id", payload.NotificacionID).Msg("notificacion_worker: not found")
		return
	}
	if notif.Estado != model.NotifPendiente {
		// ya enviada por un intento anterior o descartada
		return
	}

	sendErr := w.cb.Execute(func() error {
		return w.mailer.Send(notif.Destinatario, notif.Asunto, notif.Cuerpo, "")
	})
	if sendErr != nil {
		w.scheduleRetry(ctx, notif, sendErr)
		return
	}

	if err := w.notifRepo.MarcarEnviada(ctx, notif.ID); err != nil {
		log.Error().Err(err).Str("notificacion_id", notif.ID.String()).Msg("notificacion_worker: could not mark sent")
		return
	}
	log.Info().
		Str("notificacion_id", notif.ID.String()).
		Str("to", notif.Destinatario).
		Str("tipo", notif.Tipo).
		Msg("notificacion_worker: sent")
}

func (w *NotificacionWorker) scheduleRetry(ctx context.Context, notif *model.Notificacion, cause error) {
	attempts := notif.RetryCount + 1
	if attempts >= MaxNotificacionRetries {
		if err := w.notifRepo.MarcarFallida(ctx, notif.ID, cause.Error()); err != nil {
			log.Error().Err(err).Str("notificacion_id", notif.ID.String()).Msg("notificacion_worker: could not mark failed")
		}
		log.Error().
			Str("notificacion_id", notif.ID.String()).
			Int("attempts", attempts).
			Err(cause).
			Msg("notificacion_worker: max retries exceeded")
		return
	}

	next := time.Now().Add(computeRetryBackoff(attempts))
	if err := w.notifRepo.ProgramarReintento(ctx, notif.ID, next, cause.Error()); err != nil {
		log.Error().Err(err).Str("notificacion_id", notif.ID.String()).Msg("notificacion_worker: could not schedule retry")
		return
	}
	log.Warn().
		Str("notificacion_id", notif.ID.String()).
		Int("retry_count", attempts).
		Time("next_retry_at", next).
		Err(cause).
		Msg("notificacion_worker: send failed, retry scheduled")
}
