package repository

import (
	"context"

	"plantaops/internal/dto"
	"plantaops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartidaRepository defines the data access contract for partidas de
// elaboración and their child records.
type PartidaRepository interface {
	Crear(ctx context.Context, tx *gorm.DB, p *model.Partida) error
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Partida, error)
	Listar(ctx context.Context, filter dto.PartidaFilter) ([]model.Partida, int64, error)
	Actualizar(ctx context.Context, p *model.Partida) error

	// NextNumero draws the next value from the partidas sequence. Must run
	// inside the creating transaction so aborted creations don't reuse codes
	// out of order (gaps are fine, duplicates are not).
	NextNumero(ctx context.Context, tx *gorm.DB) (int, error)

	// GuardarCierre persists QA status, dates, reason in a single UPDATE
	// statement — safe to retry after a partial failure downstream.
	GuardarCierre(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error

	// UpsertCampo inserts or updates one custom key/value field.
	UpsertCampo(ctx context.Context, partidaID uuid.UUID, clave, valor string) error

	// BloquearTx flips bloqueada in a single conditional UPDATE and reports
	// affected rows: 0 rows = the batch was already locked by another caller.
	BloquearTx(tx *gorm.DB, id uuid.UUID) (int64, error)

	// EliminarTx removes the partida with its elaborados and campos. The
	// caller must have released every consumo (with lot restoration) first,
	// inside the same transaction. The partida row itself only goes away if
	// bloqueada sigue en false; 0 filas afectadas = se bloqueó en el medio y
	// la transacción debe abortar.
	EliminarTx(tx *gorm.DB, id uuid.UUID) (int64, error)

	EstaBloqueada(ctx context.Context, id uuid.UUID) (bool, error)

	// EstaBloqueadaTx re-lee el flag dentro de la transacción con FOR SHARE:
	// una finalización en vuelo sobre la misma partida (que hace UPDATE de la
	// fila) serializa contra este lock, cerrando la ventana entre el chequeo
	// previo y las escrituras del ledger.
	EstaBloqueadaTx(tx *gorm.DB, id uuid.UUID) (bool, error)

	DB() *gorm.DB
}

type partidaRepo struct{ db *gorm.DB }

func NewPartidaRepository(db *gorm.DB) PartidaRepository { return &partidaRepo{db: db} }

func (r *partidaRepo) Crear(ctx context.Context, tx *gorm.DB, p *model.Partida) error {
	return tx.WithContext(ctx).Create(p).Error
}

func (r *partidaRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Partida, error) {
	var p model.Partida
	err := r.db.WithContext(ctx).
		Preload("Responsable").
		Preload("Consumos").
		Preload("Consumos.Lote").
		Preload("Elaborados").
		Preload("Elaborados.Categoria").
		Preload("Campos").
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *partidaRepo) Listar(ctx context.Context, filter dto.PartidaFilter) ([]model.Partida, int64, error) {
	var partidas []model.Partida
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Partida{})

	if filter.EstadoQA != "" {
		q = q.Where("estado_qa = ?", filter.EstadoQA)
	}
	// Bloqueada filter: "true" = bloqueadas, "false" = borradores, "" = todas
	switch filter.Bloqueada {
	case "true":
		q = q.Where("bloqueada = true")
	case "false":
		q = q.Where("bloqueada = false")
	}
	if filter.Desde != nil {
		q = q.Where("fecha_partida >= ?", *filter.Desde)
	}
	if filter.Hasta != nil {
		q = q.Where("fecha_partida <= ?", *filter.Hasta)
	}
	if filter.ResponsableID != "" {
		q = q.Where("responsable_id = ?", filter.ResponsableID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Responsable").
		Order("fecha_partida DESC, numero DESC").
		Limit(filter.Limit).Offset(offset).
		Find(&partidas).Error
	return partidas, total, err
}

func (r *partidaRepo) Actualizar(ctx context.Context, p *model.Partida) error {
	return r.db.WithContext(ctx).Omit("Responsable", "Consumos", "Elaborados", "Campos").Save(p).Error
}

func (r *partidaRepo) NextNumero(ctx context.Context, tx *gorm.DB) (int, error) {
	var numero int
	err := tx.WithContext(ctx).Raw("SELECT nextval('partidas_numero_seq')").Scan(&numero).Error
	return numero, err
}

func (r *partidaRepo) GuardarCierre(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Partida{}).
		Where("id = ? AND bloqueada = false", id).
		Updates(updates).Error
}

func (r *partidaRepo) UpsertCampo(ctx context.Context, partidaID uuid.UUID, clave, valor string) error {
	res := r.db.WithContext(ctx).Model(&model.PartidaCampo{}).
		Where("partida_id = ? AND clave = ?", partidaID, clave).
		Update("valor", valor)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&model.PartidaCampo{
		PartidaID: partidaID,
		Clave:     clave,
		Valor:     valor,
	}).Error
}

func (r *partidaRepo) BloquearTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	res := tx.Model(&model.Partida{}).
		Where("id = ? AND bloqueada = false", id).
		Update("bloqueada", true)
	return res.RowsAffected, res.Error
}

func (r *partidaRepo) EliminarTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	if err := tx.Where("partida_id = ?", id).Delete(&model.ProductoElaborado{}).Error; err != nil {
		return 0, err
	}
	if err := tx.Where("partida_id = ?", id).Delete(&model.PartidaCampo{}).Error; err != nil {
		return 0, err
	}
	res := tx.Where("id = ? AND bloqueada = false", id).Delete(&model.Partida{})
	return res.RowsAffected, res.Error
}

func (r *partidaRepo) EstaBloqueada(ctx context.Context, id uuid.UUID) (bool, error) {
	var bloqueada bool
	err := r.db.WithContext(ctx).Model(&model.Partida{}).
		Where("id = ?", id).
		Pluck("bloqueada", &bloqueada).Error
	return bloqueada, err
}

func (r *partidaRepo) EstaBloqueadaTx(tx *gorm.DB, id uuid.UUID) (bool, error) {
	var p model.Partida
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
		Select("id", "bloqueada").
		First(&p, "id = ?", id).Error
	if err != nil {
		return false, err
	}
	return p.Bloqueada, nil
}

func (r *partidaRepo) DB() *gorm.DB { return r.db }
