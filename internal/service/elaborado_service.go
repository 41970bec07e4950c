package service

import (
	"context"
	"errors"

	"plantaops/internal/dto"
	"plantaops/internal/model"
	"plantaops/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ElaboradoService administra las salidas nominadas de una partida en
// borrador. Reglas sobre cada alta o edición: cantidad positiva, unidad
// declarada en el directorio, sin fracciones en unidades enteras, categoría
// obligatoria y existente.
type ElaboradoService interface {
	Agregar(ctx context.Context, partidaID uuid.UUID, req dto.AgregarElaboradoRequest) (*dto.ElaboradoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarElaboradoRequest) (*dto.ElaboradoResponse, error)
	Quitar(ctx context.Context, id uuid.UUID) error
	ListarPorPartida(ctx context.Context, partidaID uuid.UUID) ([]dto.ElaboradoResponse, error)
}

type elaboradoService struct {
	elaboradoRepo repository.ElaboradoRepository
	partidaRepo   repository.PartidaRepository
	unidadRepo    repository.UnidadRepository
	categoriaRepo repository.CategoriaRepository
}

func NewElaboradoService(
	elaboradoRepo repository.ElaboradoRepository,
	partidaRepo repository.PartidaRepository,
	unidadRepo repository.UnidadRepository,
	categoriaRepo repository.CategoriaRepository,
) ElaboradoService {
	return &elaboradoService{
		elaboradoRepo: elaboradoRepo,
		partidaRepo:   partidaRepo,
		unidadRepo:    unidadRepo,
		categoriaRepo: categoriaRepo,
	}
}

func (s *elaboradoService) Agregar(ctx context.Context, partidaID uuid.UUID, req dto.AgregarElaboradoRequest) (*dto.ElaboradoResponse, error) {
	bloqueada, err := s.partidaRepo.EstaBloqueada(ctx, partidaID)
	if err != nil {
		return nil, errors.New("partida no encontrada")
	}
	if bloqueada {
		return nil, ErrPartidaBloqueada
	}

	if err := s.validarCantidadUnidad(ctx, req.CantidadProducida, req.UnidadProducida); err != nil {
		return nil, err
	}
	categoriaID, err := s.validarCategoria(ctx, req.CategoriaID)
	if err != nil {
		return nil, err
	}

	elaborado := &model.ProductoElaborado{
		PartidaID:         partidaID,
		Nombre:            req.Nombre,
		Tamano:            req.Tamano,
		UnidadTamano:      req.UnidadTamano,
		CantidadProducida: req.CantidadProducida,
		UnidadProducida:   req.UnidadProducida,
		CategoriaID:       categoriaID,
	}
	err = runTx(ctx, s.partidaRepo.DB(), func(tx *gorm.DB) error {
		bloqueada, err := s.partidaRepo.EstaBloqueadaTx(tx, partidaID)
		if err != nil {
			return err
		}
		if bloqueada {
			return ErrPartidaBloqueada
		}
		return s.elaboradoRepo.CrearTx(tx, elaborado)
	})
	if err != nil {
		return nil, err
	}
	return s.obtenerResponse(ctx, elaborado.ID)
}

func (s *elaboradoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarElaboradoRequest) (*dto.ElaboradoResponse, error) {
	elaborado, err := s.elaboradoRepo.ObtenerPorID(ctx, id)
	if err != nil {
		return nil, errors.New("producto elaborado no encontrado")
	}

	bloqueada, err := s.partidaRepo.EstaBloqueada(ctx, elaborado.PartidaID)
	if err != nil {
		return nil, err
	}
	if bloqueada {
		return nil, ErrPartidaBloqueada
	}

	if req.Nombre != nil {
		elaborado.Nombre = *req.Nombre
	}
	if req.Tamano != nil {
		elaborado.Tamano = req.Tamano
	}
	if req.UnidadTamano != nil {
		elaborado.UnidadTamano = req.UnidadTamano
	}
	if req.CantidadProducida != nil {
		elaborado.CantidadProducida = *req.CantidadProducida
	}
	if req.UnidadProducida != nil {
		elaborado.UnidadProducida = *req.UnidadProducida
	}
	if err := s.validarCantidadUnidad(ctx, elaborado.CantidadProducida, elaborado.UnidadProducida); err != nil {
		return nil, err
	}
	if req.CategoriaID != nil {
		categoriaID, err := s.validarCategoria(ctx, *req.CategoriaID)
		if err != nil {
			return nil, err
		}
		elaborado.CategoriaID = categoriaID
	}

	err = runTx(ctx, s.partidaRepo.DB(), func(tx *gorm.DB) error {
		bloqueada, err := s.partidaRepo.EstaBloqueadaTx(tx, elaborado.PartidaID)
		if err != nil {
			return err
		}
		if bloqueada {
			return ErrPartidaBloqueada
		}
		return s.elaboradoRepo.ActualizarTx(tx, elaborado)
	})
	if err != nil {
		return nil, err
	}
	return s.obtenerResponse(ctx, elaborado.ID)
}

func (s *elaboradoService) Quitar(ctx context.Context, id uuid.UUID) error {
	elaborado, err := s.elaboradoRepo.ObtenerPorID(ctx, id)
	if err != nil {
		return errors.New("producto elaborado no encontrado")
	}
	bloqueada, err := s.partidaRepo.EstaBloqueada(ctx, elaborado.PartidaID)
	if err != nil {
		return err
	}
	if bloqueada {
		return ErrPartidaBloqueada
	}
	return runTx(ctx, s.partidaRepo.DB(), func(tx *gorm.DB) error {
		bloqueada, err := s.partidaRepo.EstaBloqueadaTx(tx, elaborado.PartidaID)
		if err != nil {
			return err
		}
		if bloqueada {
			return ErrPartidaBloqueada
		}
		return s.elaboradoRepo.EliminarTx(tx, id)
	})
}

func (s *elaboradoService) ListarPorPartida(ctx context.Context, partidaID uuid.UUID) ([]dto.ElaboradoResponse, error) {
	elaborados, err := s.elaboradoRepo.ListarPorPartida(ctx, partidaID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ElaboradoResponse, 0, len(elaborados))
	for i := range elaborados {
		items = append(items, *elaboradoToResponse(&elaborados[i]))
	}
	return items, nil
}

// validarCantidadUnidad checks cantidad > 0, the unit exists in the
// directory, and fractional amounts only where the unit allows them.
func (s *elaboradoService) validarCantidadUnidad(ctx context.Context, cantidad decimal.Decimal, unidad string) error {
	if cantidad.LessThanOrEqual(decimal.Zero) {
		return ErrCantidadInvalida
	}
	u, err := s.unidadRepo.ObtenerPorNombre(ctx, unidad)
	if err != nil {
		return ErrUnidadDesconocida
	}
	if !u.PermiteDecimales && !cantidad.Equal(cantidad.Truncate(0)) {
		return ErrFraccionNoPermitida
	}
	return nil
}

func (s *elaboradoService) validarCategoria(ctx context.Context, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, ErrCategoriaObligatoria
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrCategoriaObligatoria
	}
	if _, err := s.categoriaRepo.ObtenerPorID(ctx, id); err != nil {
		return uuid.Nil, ErrCategoriaObligatoria
	}
	return id, nil
}

func (s *elaboradoService) obtenerResponse(ctx context.Context, id uuid.UUID) (*dto.ElaboradoResponse, error) {
	elaborado, err := s.elaboradoRepo.ObtenerPorID(ctx, id)
	if err != nil {
		return nil, err
	}
	return elaboradoToResponse(elaborado), nil
}

func elaboradoToResponse(e *model.ProductoElaborado) *dto.ElaboradoResponse {
	categoria := ""
	if e.Categoria != nil {
		categoria = e.Categoria.Nombre
	}
	return &dto.ElaboradoResponse{
		ID:                e.ID.String(),
		PartidaID:         e.PartidaID.String(),
		Nombre:            e.Nombre,
		Tamano:            e.Tamano,
		UnidadTamano:      e.UnidadTamano,
		CantidadProducida: e.CantidadProducida,
		UnidadProducida:   e.UnidadProducida,
		CategoriaID:       e.CategoriaID.String(),
		Categoria:         categoria,
	}
}
