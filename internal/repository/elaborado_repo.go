package repository

import (
	"context"

	"plantaops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ElaboradoRepository defines CRUD operations for productos elaborados.
// Las escrituras van siempre por las variantes Tx: el servicio las combina
// con la re-lectura del bloqueo de la partida en la misma transacción.
type ElaboradoRepository interface {
	Crear(ctx context.Context, e *model.ProductoElaborado) error
	CrearTx(tx *gorm.DB, e *model.ProductoElaborado) error
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.ProductoElaborado, error)
	ActualizarTx(tx *gorm.DB, e *model.ProductoElaborado) error
	EliminarTx(tx *gorm.DB, id uuid.UUID) error
	ListarPorPartida(ctx context.Context, partidaID uuid.UUID) ([]model.ProductoElaborado, error)
	ContarPorPartida(ctx context.Context, partidaID uuid.UUID) (int64, error)
}

type elaboradoRepo struct{ db *gorm.DB }

func NewElaboradoRepository(db *gorm.DB) ElaboradoRepository { return &elaboradoRepo{db: db} }

func (r *elaboradoRepo) Crear(ctx context.Context, e *model.ProductoElaborado) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *elaboradoRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.ProductoElaborado, error) {
	var e model.ProductoElaborado
	err := r.db.WithContext(ctx).Preload("Categoria").First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *elaboradoRepo) CrearTx(tx *gorm.DB, e *model.ProductoElaborado) error {
	return tx.Create(e).Error
}

func (r *elaboradoRepo) ActualizarTx(tx *gorm.DB, e *model.ProductoElaborado) error {
	return tx.Omit("Categoria").Save(e).Error
}

func (r *elaboradoRepo) EliminarTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.ProductoElaborado{}, "id = ?", id).Error
}

func (r *elaboradoRepo) ListarPorPartida(ctx context.Context, partidaID uuid.UUID) ([]model.ProductoElaborado, error) {
	var elaborados []model.ProductoElaborado
	err := r.db.WithContext(ctx).Preload("Categoria").
		Where("partida_id = ?", partidaID).
		Order("created_at ASC").
		Find(&elaborados).Error
	return elaborados, err
}

func (r *elaboradoRepo) ContarPorPartida(ctx context.Context, partidaID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.ProductoElaborado{}).
		Where("partida_id = ?", partidaID).
		Count(&total).Error
	return total, err
}
