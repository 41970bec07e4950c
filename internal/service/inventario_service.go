package service

import (
	"context"
	"errors"
	"fmt"

	"plantaops/internal/dto"
	"plantaops/internal/model"
	"plantaops/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventarioService es el mayor de lotes: todo ingreso, reserva y liberación
// de cantidad pasa por acá. Invariante de mayor cerrado que mantiene cada
// operación (incluso las fallidas):
//
//	cantidad_disponible + Σ(consumos vivos) == cantidad_inicial
type InventarioService interface {
	// Intake
	CrearLote(ctx context.Context, req dto.CrearLoteRequest) (*dto.LoteResponse, error)
	ObtenerLote(ctx context.Context, id uuid.UUID) (*dto.LoteResponse, error)
	ObtenerLotePorCodigo(ctx context.Context, codigo string) (*dto.ConsultaLoteResponse, error)
	ListarLotes(ctx context.Context, filter dto.LoteFilter) (*dto.LoteListResponse, error)
	MarcarUtilizable(ctx context.Context, id uuid.UUID, utilizable bool) error

	// Ledger
	Reservar(ctx context.Context, partidaID, loteID uuid.UUID, cantidad decimal.Decimal) (*dto.ConsumoResponse, error)
	Liberar(ctx context.Context, consumoID uuid.UUID) error
	Reemplazar(ctx context.Context, consumoID uuid.UUID, nuevaCantidad decimal.Decimal) (*dto.ConsumoResponse, error)

	ListarConsumos(ctx context.Context, partidaID uuid.UUID) ([]dto.ConsumoResponse, error)
	ListarMovimientos(ctx context.Context, filter repository.MovimientoLoteFilter) ([]dto.MovimientoLoteResponse, int64, error)
}

type inventarioService struct {
	loteRepo    repository.LoteRepository
	consumoRepo repository.ConsumoRepository
	partidaRepo repository.PartidaRepository
	movRepo     repository.MovimientoLoteRepository
}

func NewInventarioService(
	loteRepo repository.LoteRepository,
	consumoRepo repository.ConsumoRepository,
	partidaRepo repository.PartidaRepository,
	movRepo repository.MovimientoLoteRepository,
) InventarioService {
	return &inventarioService{
		loteRepo:    loteRepo,
		consumoRepo: consumoRepo,
		partidaRepo: partidaRepo,
		movRepo:     movRepo,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Intake ────────────────────────────────────────────────────────────────────

func (s *inventarioService) CrearLote(ctx context.Context, req dto.CrearLoteRequest) (*dto.LoteResponse, error) {
	if existing, err := s.loteRepo.ObtenerPorCodigo(ctx, req.CodigoLote); err == nil && existing != nil {
		return nil, errors.New("ya existe un lote con ese código")
	}

	lote := &model.Lote{
		Nombre:             req.Nombre,
		CodigoLote:         req.CodigoLote,
		Tipo:               req.Tipo,
		Unidad:             req.Unidad,
		CantidadInicial:    req.Cantidad,
		CantidadDisponible: req.Cantidad,
		Utilizable:         true,
		Activo:             true,
	}

	txErr := runTx(ctx, s.loteRepo.DB(), func(tx *gorm.DB) error {
		if tx == nil {
			if err := s.loteRepo.Crear(ctx, lote); err != nil {
				return err
			}
		} else if err := tx.Create(lote).Error; err != nil {
			return err
		}
		return s.movRepo.CrearTx(tx, &model.MovimientoLote{
			LoteID:             lote.ID,
			Tipo:               model.MovIngreso,
			Cantidad:           req.Cantidad,
			DisponibleAnterior: decimal.Zero,
			DisponibleNuevo:    req.Cantidad,
			Motivo:             "Ingreso de lote " + lote.CodigoLote,
		})
	})
	if txErr != nil {
		return nil, txErr
	}
	return loteToResponse(lote), nil
}

func (s *inventarioService) ObtenerLote(ctx context.Context, id uuid.UUID) (*dto.LoteResponse, error) {
	lote, err := s.loteRepo.ObtenerPorID(ctx, id)
	if err != nil {
		return nil, errors.New("lote no encontrado")
	}
	return loteToResponse(lote), nil
}

func (s *inventarioService) ObtenerLotePorCodigo(ctx context.Context, codigo string) (*dto.ConsultaLoteResponse, error) {
	lote, err := s.loteRepo.ObtenerPorCodigo(ctx, codigo)
	if err != nil {
		return nil, errors.New("lote no encontrado")
	}
	return &dto.ConsultaLoteResponse{
		Nombre:             lote.Nombre,
		CodigoLote:         lote.CodigoLote,
		Unidad:             lote.Unidad,
		CantidadDisponible: lote.CantidadDisponible,
		Utilizable:         lote.Utilizable,
	}, nil
}

func (s *inventarioService) ListarLotes(ctx context.Context, filter dto.LoteFilter) (*dto.LoteListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	lotes, total, err := s.loteRepo.Listar(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LoteResponse, 0, len(lotes))
	for i := range lotes {
		items = append(items, *loteToResponse(&lotes[i]))
	}
	return &dto.LoteListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *inventarioService) MarcarUtilizable(ctx context.Context, id uuid.UUID, utilizable bool) error {
	lote, err := s.loteRepo.ObtenerPorID(ctx, id)
	if err != nil {
		return errors.New("lote no encontrado")
	}
	lote.Utilizable = utilizable
	return s.loteRepo.Actualizar(ctx, lote)
}

// ── Reservar ──────────────────────────────────────────────────────────────────
// Descuenta disponible del lote y crea el ConsumoInsumo en la MISMA
// transacción. El descuento es un UPDATE condicional (WHERE disponible >= n),
// así que el re-chequeo de disponible ocurre dentro de la transacción y no
// hay ventana de carrera entre leer el saldo y escribirlo.

func (s *inventarioService) Reservar(ctx context.Context, partidaID, loteID uuid.UUID, cantidad decimal.Decimal) (*dto.ConsumoResponse, error) {
	if cantidad.LessThanOrEqual(decimal.Zero) {
		return nil, ErrCantidadInvalida
	}

	partida, err := s.partidaRepo.ObtenerPorID(ctx, partidaID)
	if err != nil {
		return nil, errors.New("partida no encontrada")
	}
	if partida.Bloqueada {
		return nil, ErrPartidaBloqueada
	}

	var consumo model.ConsumoInsumo
	txErr := runTx(ctx, s.loteRepo.DB(), func(tx *gorm.DB) error {
		// re-chequeo del bloqueo bajo lock de fila: una finalización que
		// corra en paralelo serializa contra este FOR SHARE
		bloqueada, err := s.partidaRepo.EstaBloqueadaTx(tx, partidaID)
		if err != nil {
			return err
		}
		if bloqueada {
			return ErrPartidaBloqueada
		}

		lote, err := s.loteRepo.ObtenerPorIDTx(tx, loteID)
		if err != nil {
			return errors.New("lote no encontrado")
		}
		if !lote.Utilizable {
			return ErrLoteInutilizable
		}

		rows, err := s.loteRepo.DescontarDisponibleTx(tx, loteID, cantidad)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrCantidadInsuficiente
		}

		consumo = model.ConsumoInsumo{
			PartidaID:         partidaID,
			LoteID:            loteID,
			CantidadConsumida: cantidad,
			Unidad:            lote.Unidad,
		}
		if err := s.consumoRepo.CrearTx(tx, &consumo); err != nil {
			return err
		}

		return s.movRepo.CrearTx(tx, &model.MovimientoLote{
			LoteID:             loteID,
			Tipo:               model.MovConsumo,
			Cantidad:           cantidad.Neg(),
			DisponibleAnterior: lote.CantidadDisponible,
			DisponibleNuevo:    lote.CantidadDisponible.Sub(cantidad),
			Motivo:             fmt.Sprintf("Consumo partida %s", partida.Codigo),
			ReferenciaID:       &partida.ID,
		})
	})
	if txErr != nil {
		return nil, txErr
	}
	return consumoToResponse(&consumo), nil
}

// ── Liberar ───────────────────────────────────────────────────────────────────
// Borra el consumo y repone el disponible del lote, atómicamente. El DELETE
// condicional (0 filas = ya liberado) hace la operación segura frente a una
// doble liberación concurrente.

func (s *inventarioService) Liberar(ctx context.Context, consumoID uuid.UUID) error {
	consumo, err := s.consumoRepo.ObtenerPorID(ctx, consumoID)
	if err != nil {
		return ErrConsumoYaLiberado
	}

	bloqueada, err := s.partidaRepo.EstaBloqueada(ctx, consumo.PartidaID)
	if err != nil {
		return err
	}
	if bloqueada {
		return ErrPartidaBloqueada
	}

	return runTx(ctx, s.loteRepo.DB(), func(tx *gorm.DB) error {
		bloqueada, err := s.partidaRepo.EstaBloqueadaTx(tx, consumo.PartidaID)
		if err != nil {
			return err
		}
		if bloqueada {
			return ErrPartidaBloqueada
		}
		return s.liberarTx(tx, consumo, model.MovLiberacion, "Liberación de consumo")
	})
}

// liberarTx performs delete + restore + audit inside an existing transaction.
func (s *inventarioService) liberarTx(tx *gorm.DB, consumo *model.ConsumoInsumo, tipo, motivo string) error {
	rows, err := s.consumoRepo.EliminarTx(tx, consumo.ID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrConsumoYaLiberado
	}

	lote, err := s.loteRepo.ObtenerPorIDTx(tx, consumo.LoteID)
	if err != nil {
		return err
	}
	if err := s.loteRepo.ReponerDisponibleTx(tx, consumo.LoteID, consumo.CantidadConsumida); err != nil {
		return err
	}

	return s.movRepo.CrearTx(tx, &model.MovimientoLote{
		LoteID:             consumo.LoteID,
		Tipo:               tipo,
		Cantidad:           consumo.CantidadConsumida,
		DisponibleAnterior: lote.CantidadDisponible,
		DisponibleNuevo:    lote.CantidadDisponible.Add(consumo.CantidadConsumida),
		Motivo:             motivo,
		ReferenciaID:       &consumo.PartidaID,
	})
}

// ── Reemplazar ────────────────────────────────────────────────────────────────
// Editar una cantidad consumida = liberar + reservar de nuevo, pero en UNA
// transacción: si la nueva reserva no alcanza, el rollback devuelve el estado
// exactamente anterior — la cantidad liberada nunca queda en el aire.

func (s *inventarioService) Reemplazar(ctx context.Context, consumoID uuid.UUID, nuevaCantidad decimal.Decimal) (*dto.ConsumoResponse, error) {
	if nuevaCantidad.LessThanOrEqual(decimal.Zero) {
		return nil, ErrCantidadInvalida
	}

	consumo, err := s.consumoRepo.ObtenerPorID(ctx, consumoID)
	if err != nil {
		return nil, ErrConsumoYaLiberado
	}

	partida, err := s.partidaRepo.ObtenerPorID(ctx, consumo.PartidaID)
	if err != nil {
		return nil, errors.New("partida no encontrada")
	}
	if partida.Bloqueada {
		return nil, ErrPartidaBloqueada
	}

	var nuevo model.ConsumoInsumo
	txErr := runTx(ctx, s.loteRepo.DB(), func(tx *gorm.DB) error {
		bloqueada, err := s.partidaRepo.EstaBloqueadaTx(tx, consumo.PartidaID)
		if err != nil {
			return err
		}
		if bloqueada {
			return ErrPartidaBloqueada
		}

		if err := s.liberarTx(tx, consumo, model.MovLiberacion,
			fmt.Sprintf("Reemplazo de consumo, partida %s", partida.Codigo)); err != nil {
			return err
		}

		lote, err := s.loteRepo.ObtenerPorIDTx(tx, consumo.LoteID)
		if err != nil {
			return err
		}
		if !lote.Utilizable {
			return ErrLoteInutilizable
		}

		rows, err := s.loteRepo.DescontarDisponibleTx(tx, consumo.LoteID, nuevaCantidad)
		if err != nil {
			return err
		}
		if rows == 0 {
			// rollback: la liberación previa también se deshace
			return ErrCantidadInsuficiente
		}

		nuevo = model.ConsumoInsumo{
			PartidaID:         consumo.PartidaID,
			LoteID:            consumo.LoteID,
			CantidadConsumida: nuevaCantidad,
			Unidad:            consumo.Unidad,
		}
		if err := s.consumoRepo.CrearTx(tx, &nuevo); err != nil {
			return err
		}

		// el lote se releyó luego de la reposición, su saldo ya la incluye
		return s.movRepo.CrearTx(tx, &model.MovimientoLote{
			LoteID:             consumo.LoteID,
			Tipo:               model.MovConsumo,
			Cantidad:           nuevaCantidad.Neg(),
			DisponibleAnterior: lote.CantidadDisponible,
			DisponibleNuevo:    lote.CantidadDisponible.Sub(nuevaCantidad),
			Motivo:             fmt.Sprintf("Consumo partida %s (reemplazo)", partida.Codigo),
			ReferenciaID:       &partida.ID,
		})
	})
	if txErr != nil {
		return nil, txErr
	}
	return consumoToResponse(&nuevo), nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *inventarioService) ListarConsumos(ctx context.Context, partidaID uuid.UUID) ([]dto.ConsumoResponse, error) {
	consumos, err := s.consumoRepo.ListarPorPartida(ctx, partidaID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ConsumoResponse, 0, len(consumos))
	for i := range consumos {
		items = append(items, *consumoToResponse(&consumos[i]))
	}
	return items, nil
}

func (s *inventarioService) ListarMovimientos(ctx context.Context, filter repository.MovimientoLoteFilter) ([]dto.MovimientoLoteResponse, int64, error) {
	movimientos, total, err := s.movRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	items := make([]dto.MovimientoLoteResponse, 0, len(movimientos))
	for _, m := range movimientos {
		codigo := ""
		if m.Lote != nil {
			codigo = m.Lote.CodigoLote
		}
		var ref *string
		if m.ReferenciaID != nil {
			v := m.ReferenciaID.String()
			ref = &v
		}
		items = append(items, dto.MovimientoLoteResponse{
			ID:                 m.ID.String(),
			LoteID:             m.LoteID.String(),
			CodigoLote:         codigo,
			Tipo:               m.Tipo,
			Cantidad:           m.Cantidad,
			DisponibleAnterior: m.DisponibleAnterior,
			DisponibleNuevo:    m.DisponibleNuevo,
			Motivo:             m.Motivo,
			ReferenciaID:       ref,
			CreatedAt:          m.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return items, total, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func loteToResponse(l *model.Lote) *dto.LoteResponse {
	return &dto.LoteResponse{
		ID:                 l.ID.String(),
		Nombre:             l.Nombre,
		CodigoLote:         l.CodigoLote,
		Tipo:               l.Tipo,
		Unidad:             l.Unidad,
		CantidadInicial:    l.CantidadInicial,
		CantidadDisponible: l.CantidadDisponible,
		Utilizable:         l.Utilizable,
		Activo:             l.Activo,
		CreatedAt:          l.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func consumoToResponse(c *model.ConsumoInsumo) *dto.ConsumoResponse {
	codigo, nombre := "", ""
	if c.Lote != nil {
		codigo = c.Lote.CodigoLote
		nombre = c.Lote.Nombre
	}
	return &dto.ConsumoResponse{
		ID:                c.ID.String(),
		LoteID:            c.LoteID.String(),
		CodigoLote:        codigo,
		NombreLote:        nombre,
		CantidadConsumida: c.CantidadConsumida,
		Unidad:            c.Unidad,
		CreatedAt:         c.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
