package repository

import (
	"context"
	"time"

	"plantaops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificacionRepository persists outgoing notification emails and feeds the
// retry cron. The partial index idx_notificaciones_pending_retry (see
// infra.applySchemaPatches) keeps ListPendingRetries cheap.
type NotificacionRepository interface {
	Crear(ctx context.Context, n *model.Notificacion) error
	CrearTx(tx *gorm.DB, n *model.Notificacion) error
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Notificacion, error)

	// ListPendingRetries returns pending notifications whose next_retry_at
	// is already due, oldest first, capped at limit.
	ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.Notificacion, error)

	MarcarEnviada(ctx context.Context, id uuid.UUID) error
	ProgramarReintento(ctx context.Context, id uuid.UUID, nextRetryAt time.Time, lastError string) error
	MarcarFallida(ctx context.Context, id uuid.UUID, lastError string) error
}

type notificacionRepo struct{ db *gorm.DB }

func NewNotificacionRepository(db *gorm.DB) NotificacionRepository {
	return &notificacionRepo{db: db}
}

func (r *notificacionRepo) Crear(ctx context.Context, n *model.Notificacion) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificacionRepo) CrearTx(tx *gorm.DB, n *model.Notificacion) error {
	return tx.Create(n).Error
}

func (r *notificacionRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Notificacion, error) {
	var n model.Notificacion
	err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificacionRepo) ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.Notificacion, error) {
	var pendientes []model.Notificacion
	err := r.db.WithContext(ctx).
		Where("estado = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", model.NotifPendiente, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&pendientes).Error
	return pendientes, err
}

func (r *notificacionRepo) MarcarEnviada(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.Notificacion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"estado":        model.NotifEnviada,
			"enviada_at":    now,
			"next_retry_at": nil,
			"last_error":    nil,
		}).Error
}

func (r *notificacionRepo) ProgramarReintento(ctx context.Context, id uuid.UUID, nextRetryAt time.Time, lastError string) error {
	return r.db.WithContext(ctx).Model(&model.Notificacion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"retry_count":   gorm.Expr("retry_count + 1"),
			"next_retry_at": nextRetryAt,
			"last_error":    lastError,
		}).Error
}

func (r *notificacionRepo) MarcarFallida(ctx context.Context, id uuid.UUID, lastError string) error {
	return r.db.WithContext(ctx).Model(&model.Notificacion{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"estado":        model.NotifFallida,
			"next_retry_at": nil,
			"last_error":    lastError,
		}).Error
}
