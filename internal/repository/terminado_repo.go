package repository

import (
	"context"

	"plantaops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TerminadoRepository persists the downstream finished-goods records created
// at finalize time. Creation only ever happens inside the locking transaction.
type TerminadoRepository interface {
	CrearTx(tx *gorm.DB, t *model.ProductoTerminado) error
	ExistenPorPartidaTx(tx *gorm.DB, partidaID uuid.UUID) (bool, error)
	ExistenPorPartida(ctx context.Context, partidaID uuid.UUID) (bool, error)
	ListarPorPartida(ctx context.Context, partidaID uuid.UUID) ([]model.ProductoTerminado, error)
}

type terminadoRepo struct{ db *gorm.DB }

func NewTerminadoRepository(db *gorm.DB) TerminadoRepository { return &terminadoRepo{db: db} }

func (r *terminadoRepo) CrearTx(tx *gorm.DB, t *model.ProductoTerminado) error {
	return tx.Create(t).Error
}

func (r *terminadoRepo) ExistenPorPartidaTx(tx *gorm.DB, partidaID uuid.UUID) (bool, error) {
	var total int64
	err := tx.Model(&model.ProductoTerminado{}).
		Where("partida_id = ?", partidaID).
		Count(&total).Error
	return total > 0, err
}

func (r *terminadoRepo) ExistenPorPartida(ctx context.Context, partidaID uuid.UUID) (bool, error) {
	return r.ExistenPorPartidaTx(r.db.WithContext(ctx), partidaID)
}

func (r *terminadoRepo) ListarPorPartida(ctx context.Context, partidaID uuid.UUID) ([]model.ProductoTerminado, error) {
	var terminados []model.ProductoTerminado
	err := r.db.WithContext(ctx).Preload("Categoria").
		Where("partida_id = ?", partidaID).
		Order("created_at ASC").
		Find(&terminados).Error
	return terminados, err
}
