package service

import (
	"context"
	"errors"

	"plantaops/internal/dto"
	"plantaops/internal/model"
	"plantaops/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnidadService administra el directorio de unidades de medida.
type UnidadService interface {
	Crear(ctx context.Context, req dto.CrearUnidadRequest) (dto.UnidadResponse, error)
	Listar(ctx context.Context) ([]dto.UnidadResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarUnidadRequest) (dto.UnidadResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type unidadService struct {
	repo repository.UnidadRepository
}

func NewUnidadService(repo repository.UnidadRepository) UnidadService {
	return &unidadService{repo: repo}
}

func mapUnidad(u model.Unidad) dto.UnidadResponse {
	return dto.UnidadResponse{
		ID:               u.ID,
		Nombre:           u.Nombre,
		PermiteDecimales: u.PermiteDecimales,
		Activo:           u.Activo,
	}
}

func (s *unidadService) Crear(ctx context.Context, req dto.CrearUnidadRequest) (dto.UnidadResponse, error) {
	existing, err := s.repo.ObtenerPorNombre(ctx, req.Nombre)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.UnidadResponse{}, err
	}
	if existing != nil {
		return dto.UnidadResponse{}, errors.New("ya existe una unidad con ese nombre")
	}

	u := &model.Unidad{
		Nombre:           req.Nombre,
		PermiteDecimales: req.PermiteDecimales,
		Activo:           true,
	}
	if err := s.repo.Crear(ctx, u); err != nil {
		return dto.UnidadResponse{}, err
	}
	return mapUnidad(*u), nil
}

func (s *unidadService) Listar(ctx context.Context) ([]dto.UnidadResponse, error) {
	list, err := s.repo.Listar(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.UnidadResponse, 0, len(list))
	for _, u := range list {
		result = append(result, mapUnidad(u))
	}
	return result, nil
}

func (s *unidadService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarUnidadRequest) (dto.UnidadResponse, error) {
	u, err := s.repo.ObtenerPorID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UnidadResponse{}, errors.New("unidad no encontrada")
		}
		return dto.UnidadResponse{}, err
	}

	if req.Nombre != nil {
		u.Nombre = *req.Nombre
	}
	if req.PermiteDecimales != nil {
		// las unidades ya usadas en elaborados conservan su regla histórica:
		// el flag solo afecta validaciones futuras
		u.PermiteDecimales = *req.PermiteDecimales
	}
	if req.Activo != nil {
		u.Activo = *req.Activo
	}

	if err := s.repo.Actualizar(ctx, u); err != nil {
		return dto.UnidadResponse{}, err
	}
	return mapUnidad(*u), nil
}

func (s *unidadService) Desactivar(ctx context.Context, id uuid.UUID) error {
	_, err := s.repo.ObtenerPorID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("unidad no encontrada")
		}
		return err
	}
	return s.repo.Desactivar(ctx, id)
}
