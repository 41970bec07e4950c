package repository

import (
	"context"

	"plantaops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoLoteFilter defines filters for listing ledger movements.
type MovimientoLoteFilter struct {
	LoteID *uuid.UUID
	Tipo   string
	Page   int
	Limit  int
}

type MovimientoLoteRepository interface {
	Crear(ctx context.Context, m *model.MovimientoLote) error
	CrearTx(tx *gorm.DB, m *model.MovimientoLote) error
	List(ctx context.Context, filter MovimientoLoteFilter) ([]model.MovimientoLote, int64, error)
}

type movimientoLoteRepo struct{ db *gorm.DB }

func NewMovimientoLoteRepository(db *gorm.DB) MovimientoLoteRepository {
	return &movimientoLoteRepo{db: db}
}

func (r *movimientoLoteRepo) Crear(ctx context.Context, m *model.MovimientoLote) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *movimientoLoteRepo) CrearTx(tx *gorm.DB, m *model.MovimientoLote) error {
	return tx.Create(m).Error
}

func (r *movimientoLoteRepo) List(ctx context.Context, filter MovimientoLoteFilter) ([]model.MovimientoLote, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MovimientoLote{}).
		Preload("Lote")
	if filter.LoteID != nil {
		q = q.Where("lote_id = ?", *filter.LoteID)
	}
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var movimientos []model.MovimientoLote
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&movimientos).Error
	return movimientos, total, err
}
