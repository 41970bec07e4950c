package repository

import (
	"context"

	"plantaops/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnidadRepository is the read-mostly directory of measurement units.
type UnidadRepository interface {
	Crear(ctx context.Context, u *model.Unidad) error
	Listar(ctx context.Context) ([]model.Unidad, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Unidad, error)
	ObtenerPorNombre(ctx context.Context, nombre string) (*model.Unidad, error)
	Actualizar(ctx context.Context, u *model.Unidad) error
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type unidadRepo struct{ db *gorm.DB }

func NewUnidadRepository(db *gorm.DB) UnidadRepository { return &unidadRepo{db: db} }

func (r *unidadRepo) Crear(ctx context.Context, u *model.Unidad) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *unidadRepo) Listar(ctx context.Context) ([]model.Unidad, error) {
	var list []model.Unidad
	err := r.db.WithContext(ctx).Order("nombre asc").Find(&list).Error
	return list, err
}

func (r *unidadRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Unidad, error) {
	var u model.Unidad
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *unidadRepo) ObtenerPorNombre(ctx context.Context, nombre string) (*model.Unidad, error) {
	var u model.Unidad
	err := r.db.WithContext(ctx).Where("lower(nombre) = lower(?) AND activo = true", nombre).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *unidadRepo) Actualizar(ctx context.Context, u *model.Unidad) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r *unidadRepo) Desactivar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Unidad{}).Where("id = ?", id).Update("activo", false).Error
}
