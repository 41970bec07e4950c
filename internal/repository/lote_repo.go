package repository

import (
	"context"

	"plantaops/internal/dto"
	"plantaops/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoteRepository defines the data access contract for lotes de insumo/empaque.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type LoteRepository interface {
	Crear(ctx context.Context, l *model.Lote) error
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Lote, error)
	ObtenerPorCodigo(ctx context.Context, codigo string) (*model.Lote, error)
	Listar(ctx context.Context, filter dto.LoteFilter) ([]model.Lote, int64, error)
	Actualizar(ctx context.Context, l *model.Lote) error

	// ObtenerPorIDTx lee el lote con FOR UPDATE: el saldo leído queda fijado
	// hasta el commit, así los balances anterior/nuevo que el caller registra
	// en la auditoría son exactos aun con escritores concurrentes. Solo debe
	// invocarse dentro de una transacción.
	ObtenerPorIDTx(tx *gorm.DB, id uuid.UUID) (*model.Lote, error)

	// DescontarDisponibleTx decrementa cantidad_disponible de forma condicional:
	// el WHERE re-verifica el disponible dentro de la misma sentencia, así que
	// no existe ventana leer-luego-escribir. Devuelve las filas afectadas:
	// 0 filas = disponible insuficiente (o lote inexistente).
	DescontarDisponibleTx(tx *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) (int64, error)

	// ReponerDisponibleTx incrementa cantidad_disponible.
	ReponerDisponibleTx(tx *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type loteRepo struct{ db *gorm.DB }

func NewLoteRepository(db *gorm.DB) LoteRepository { return &loteRepo{db: db} }

func (r *loteRepo) Crear(ctx context.Context, l *model.Lote) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *loteRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Lote, error) {
	var l model.Lote
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *loteRepo) ObtenerPorCodigo(ctx context.Context, codigo string) (*model.Lote, error) {
	var l model.Lote
	err := r.db.WithContext(ctx).Where("codigo_lote = ? AND activo = true", codigo).First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *loteRepo) Listar(ctx context.Context, filter dto.LoteFilter) ([]model.Lote, int64, error) {
	var lotes []model.Lote
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Lote{})

	// Activo filter: "false" = dados de baja, "all" = todos, default = activos
	switch filter.Activo {
	case "false":
		q = q.Where("activo = false")
	case "all":
		// no filter
	default:
		q = q.Where("activo = true")
	}

	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}
	if filter.Nombre != "" {
		q = q.Where("nombre ILIKE ?", "%"+filter.Nombre+"%")
	}
	if filter.ConDisponible {
		q = q.Where("cantidad_disponible > 0 AND utilizable = true")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("nombre ASC, codigo_lote ASC").Limit(filter.Limit).Offset(offset).Find(&lotes).Error
	return lotes, total, err
}

func (r *loteRepo) Actualizar(ctx context.Context, l *model.Lote) error {
	return r.db.WithContext(ctx).Save(l).Error
}

func (r *loteRepo) ObtenerPorIDTx(tx *gorm.DB, id uuid.UUID) (*model.Lote, error) {
	var l model.Lote
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *loteRepo) DescontarDisponibleTx(tx *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) (int64, error) {
	res := tx.Model(&model.Lote{}).
		Where("id = ? AND cantidad_disponible >= ?", id, cantidad).
		Update("cantidad_disponible", gorm.Expr("cantidad_disponible - ?", cantidad))
	return res.RowsAffected, res.Error
}

func (r *loteRepo) ReponerDisponibleTx(tx *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) error {
	return tx.Model(&model.Lote{}).Where("id = ?", id).
		Update("cantidad_disponible", gorm.Expr("cantidad_disponible + ?", cantidad)).Error
}

func (r *loteRepo) DB() *gorm.DB { return r.db }
