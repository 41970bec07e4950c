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

// TerminadoService materializa inventario de producto final a partir de los
// elaborados de una partida aprobada. La operación es de a-lo-sumo-una-vez:
// el chequeo de existencia corre dentro de la transacción de bloqueo y el
// índice único (partida_id, producto_elaborado_id) respalda el caso de
// carrera que el chequeo no puede cubrir.
type TerminadoService interface {
	// MaterializarTx crea un ProductoTerminado por cada elaborado de la
	// partida. Si la partida ya fue materializada no hace nada y devuelve
	// nil: los reintentos de finalización son inocuos.
	MaterializarTx(tx *gorm.DB, partida *model.Partida, elaborados []model.ProductoElaborado) error

	ExistenPorPartida(ctx context.Context, partidaID uuid.UUID) (bool, error)
	ListarPorPartida(ctx context.Context, partidaID uuid.UUID) ([]dto.TerminadoResponse, error)
}

type terminadoService struct {
	terminadoRepo repository.TerminadoRepository
}

func NewTerminadoService(terminadoRepo repository.TerminadoRepository) TerminadoService {
	return &terminadoService{terminadoRepo: terminadoRepo}
}

func (s *terminadoService) MaterializarTx(tx *gorm.DB, partida *model.Partida, elaborados []model.ProductoElaborado) error {
	existen, err := s.terminadoRepo.ExistenPorPartidaTx(tx, partida.ID)
	if err != nil {
		return err
	}
	if existen {
		return nil
	}

	for i := range elaborados {
		e := &elaborados[i]
		t := &model.ProductoTerminado{
			PartidaID:           partida.ID,
			ProductoElaboradoID: e.ID,
			Nombre:              e.Nombre,
			Cantidad:            e.CantidadProducida,
			Unidad:              e.UnidadProducida,
			CategoriaID:         e.CategoriaID,
			Tamano:              e.Tamano,
			UnidadTamano:        e.UnidadTamano,
		}
		if err := s.terminadoRepo.CrearTx(tx, t); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// otra transacción materializó primero
				return nil
			}
			return err
		}
	}
	return nil
}

func (s *terminadoService) ExistenPorPartida(ctx context.Context, partidaID uuid.UUID) (bool, error) {
	return s.terminadoRepo.ExistenPorPartida(ctx, partidaID)
}

func (s *terminadoService) ListarPorPartida(ctx context.Context, partidaID uuid.UUID) ([]dto.TerminadoResponse, error) {
	terminados, err := s.terminadoRepo.ListarPorPartida(ctx, partidaID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TerminadoResponse, 0, len(terminados))
	for _, t := range terminados {
		categoria := ""
		if t.Categoria != nil {
			categoria = t.Categoria.Nombre
		}
		items = append(items, dto.TerminadoResponse{
			ID:           t.ID.String(),
			PartidaID:    t.PartidaID.String(),
			Nombre:       t.Nombre,
			Cantidad:     t.Cantidad,
			Unidad:       t.Unidad,
			CategoriaID:  t.CategoriaID.String(),
			Categoria:    categoria,
			Tamano:       t.Tamano,
			UnidadTamano: t.UnidadTamano,
			CreatedAt:    t.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return items, nil
}
