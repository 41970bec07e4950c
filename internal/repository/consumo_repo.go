package repository

import (
	"context"

	"plantaops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConsumoRepository persists the per-batch consumption line items. Creation
// and deletion always happen inside the same transaction that moves the lot
// counter, so both operations take an explicit tx.
type ConsumoRepository interface {
	CrearTx(tx *gorm.DB, c *model.ConsumoInsumo) error
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.ConsumoInsumo, error)

	// EliminarTx deletes the record and reports the affected rows: 0 rows
	// means another caller already released it (idempotency guard).
	EliminarTx(tx *gorm.DB, id uuid.UUID) (int64, error)

	ListarPorPartida(ctx context.Context, partidaID uuid.UUID) ([]model.ConsumoInsumo, error)
}

type consumoRepo struct{ db *gorm.DB }

func NewConsumoRepository(db *gorm.DB) ConsumoRepository { return &consumoRepo{db: db} }

func (r *consumoRepo) CrearTx(tx *gorm.DB, c *model.ConsumoInsumo) error {
	return tx.Create(c).Error
}

func (r *consumoRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.ConsumoInsumo, error) {
	var c model.ConsumoInsumo
	err := r.db.WithContext(ctx).Preload("Lote").First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *consumoRepo) EliminarTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	res := tx.Where("id = ?", id).Delete(&model.ConsumoInsumo{})
	return res.RowsAffected, res.Error
}

func (r *consumoRepo) ListarPorPartida(ctx context.Context, partidaID uuid.UUID) ([]model.ConsumoInsumo, error) {
	var consumos []model.ConsumoInsumo
	err := r.db.WithContext(ctx).Preload("Lote").
		Where("partida_id = ?", partidaID).
		Order("created_at ASC").
		Find(&consumos).Error
	return consumos, err
}
