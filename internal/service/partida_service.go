package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"plantaops/internal/dto"
	"plantaops/internal/model"
	"plantaops/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// NotificacionQueue encola una notificación persistida para que el worker
// la envíe fuera de la transacción HTTP.
type NotificacionQueue interface {
	Encolar(ctx context.Context, notificacionID uuid.UUID) error
}

// PartidaService gobierna el ciclo de vida de la partida de elaboración:
// creación en borrador, edición, guardado repetible del cierre, y la
// finalización que la vuelve inmutable y materializa inventario.
type PartidaService interface {
	Crear(ctx context.Context, responsableID uuid.UUID, req dto.CrearPartidaRequest) (*dto.PartidaResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.PartidaResponse, error)
	Listar(ctx context.Context, filter dto.PartidaFilter) (*dto.PartidaListResponse, error)
	Editar(ctx context.Context, id uuid.UUID, req dto.EditarPartidaRequest) (*dto.PartidaResponse, error)

	// Guardar persists QA outcome, dates and custom fields without locking.
	// Safe to call any number of times while the partida is a draft.
	Guardar(ctx context.Context, id uuid.UUID, req dto.GuardarPartidaRequest) error

	// Finalizar locks the partida forever. If QA approved, it materializes
	// finished product inventory in the same transaction.
	Finalizar(ctx context.Context, id uuid.UUID) (*dto.PartidaResponse, error)

	// Eliminar removes a draft partida, releasing every reserved consumo
	// back to its lot.
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type partidaService struct {
	partidaRepo   repository.PartidaRepository
	consumoRepo   repository.ConsumoRepository
	loteRepo      repository.LoteRepository
	movRepo       repository.MovimientoLoteRepository
	elaboradoRepo repository.ElaboradoRepository
	notifRepo     repository.NotificacionRepository
	terminadoSvc  TerminadoService
	queue         NotificacionQueue
	alertEmail    string
}

func NewPartidaService(
	partidaRepo repository.PartidaRepository,
	consumoRepo repository.ConsumoRepository,
	loteRepo repository.LoteRepository,
	movRepo repository.MovimientoLoteRepository,
	elaboradoRepo repository.ElaboradoRepository,
	notifRepo repository.NotificacionRepository,
	terminadoSvc TerminadoService,
	queue NotificacionQueue,
	alertEmail string,
) PartidaService {
	return &partidaService{
		partidaRepo:   partidaRepo,
		consumoRepo:   consumoRepo,
		loteRepo:      loteRepo,
		movRepo:       movRepo,
		elaboradoRepo: elaboradoRepo,
		notifRepo:     notifRepo,
		terminadoSvc:  terminadoSvc,
		queue:         queue,
		alertEmail:    alertEmail,
	}
}

// ── Crear ────────────────────────────────────────────────────────────────────

func (s *partidaService) Crear(ctx context.Context, responsableID uuid.UUID, req dto.CrearPartidaRequest) (*dto.PartidaResponse, error) {
	fecha := time.Now()
	if req.FechaPartida != nil {
		fecha = *req.FechaPartida
	}

	partida := &model.Partida{
		ResponsableID: responsableID,
		Observaciones: req.Observaciones,
		FechaPartida:  fecha,
		EstadoQA:      model.QAPendiente,
	}

	txErr := runTx(ctx, s.partidaRepo.DB(), func(tx *gorm.DB) error {
		numero, err := s.partidaRepo.NextNumero(ctx, tx)
		if err != nil {
			return err
		}
		partida.Numero = numero
		partida.Codigo = fmt.Sprintf("PT-%06d", numero)
		return s.partidaRepo.Crear(ctx, tx, partida)
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.Obtener(ctx, partida.ID)
}

func (s *partidaService) Obtener(ctx context.Context, id uuid.UUID) (*dto.PartidaResponse, error) {
	partida, err := s.partidaRepo.ObtenerPorID(ctx, id)
	if err != nil {
		return nil, errors.New("partida no encontrada")
	}
	return partidaToResponse(partida), nil
}

func (s *partidaService) Listar(ctx context.Context, filter dto.PartidaFilter) (*dto.PartidaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	partidas, total, err := s.partidaRepo.Listar(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PartidaListItem, 0, len(partidas))
	for i := range partidas {
		p := &partidas[i]
		responsable := ""
		if p.Responsable != nil {
			responsable = p.Responsable.Nombre
		}
		items = append(items, dto.PartidaListItem{
			ID:           p.ID.String(),
			Codigo:       p.Codigo,
			Responsable:  responsable,
			FechaPartida: p.FechaPartida.Format("2006-01-02"),
			Estado:       p.Estado(),
			EstadoQA:     p.EstadoQA,
			CreatedAt:    p.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return &dto.PartidaListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ── Editar ───────────────────────────────────────────────────────────────────

func (s *partidaService) Editar(ctx context.Context, id uuid.UUID, req dto.EditarPartidaRequest) (*dto.PartidaResponse, error) {
	partida, err := s.partidaRepo.ObtenerPorID(ctx, id)
	if err != nil {
		return nil, errors.New("partida no encontrada")
	}
	if partida.Bloqueada {
		return nil, ErrPartidaBloqueada
	}

	if req.Observaciones != nil {
		partida.Observaciones = *req.Observaciones
	}
	if req.FechaPartida != nil {
		partida.FechaPartida = *req.FechaPartida
	}
	if req.EstadoQA != nil {
		if !model.TransicionQAValida(partida.EstadoQA, *req.EstadoQA) {
			return nil, ErrTransicionQAInvalida
		}
		partida.EstadoQA = *req.EstadoQA
	}
	if req.MotivoQA != nil {
		partida.MotivoQA = req.MotivoQA
	}
	if err := validarCierre(partida.EstadoQA, partida.MotivoQA); err != nil {
		return nil, err
	}
	if req.FechaInicio != nil {
		partida.FechaInicio = req.FechaInicio
	}
	if req.FechaFin != nil {
		partida.FechaFin = req.FechaFin
	}
	if err := validarRangoFechas(partida.FechaInicio, partida.FechaFin); err != nil {
		return nil, err
	}

	if err := s.partidaRepo.Actualizar(ctx, partida); err != nil {
		return nil, err
	}
	for clave, valor := range req.Campos {
		if err := s.partidaRepo.UpsertCampo(ctx, id, clave, valor); err != nil {
			return nil, err
		}
	}
	return s.Obtener(ctx, id)
}

// ── Guardar ──────────────────────────────────────────────────────────────────
// El guardado del cierre es un UPDATE directo sobre campos del encabezado más
// upserts de campos libres: repetirlo con el mismo payload deja la misma fila.
// No toca consumos, elaborados ni el flag de bloqueo.

func (s *partidaService) Guardar(ctx context.Context, id uuid.UUID, req dto.GuardarPartidaRequest) error {
	partida, err := s.partidaRepo.ObtenerPorID(ctx, id)
	if err != nil {
		return errors.New("partida no encontrada")
	}
	if partida.Bloqueada {
		return ErrPartidaBloqueada
	}
	if !model.TransicionQAValida(partida.EstadoQA, req.EstadoQA) {
		return ErrTransicionQAInvalida
	}
	if err := validarCierre(req.EstadoQA, req.MotivoQA); err != nil {
		return err
	}
	if err := validarRangoFechas(req.FechaInicio, req.FechaFin); err != nil {
		return err
	}

	updates := map[string]interface{}{
		"estado_qa":    req.EstadoQA,
		"motivo_qa":    req.MotivoQA,
		"fecha_inicio": req.FechaInicio,
		"fecha_fin":    req.FechaFin,
	}
	if err := s.partidaRepo.GuardarCierre(ctx, id, updates); err != nil {
		return err
	}
	for clave, valor := range req.Campos {
		if err := s.partidaRepo.UpsertCampo(ctx, id, clave, valor); err != nil {
			return err
		}
	}
	return nil
}

// ── Finalizar ────────────────────────────────────────────────────────────────
// Orden de chequeos: existencia → ya bloqueada → tiene elaborados → fechas de
// producción completas → QA resuelta → motivo si corresponde. Recién con todo
// en verde arranca la transacción: el UPDATE condicional de bloqueo serializa
// finalizaciones concurrentes (la segunda ve 0 filas afectadas) y, si la QA
// quedó aprobada, la materialización corre en la misma transacción. Bloqueo
// sin inventario no puede observarse nunca.

func (s *partidaService) Finalizar(ctx context.Context, id uuid.UUID) (*dto.PartidaResponse, error) {
	partida, err := s.partidaRepo.ObtenerPorID(ctx, id)
	if err != nil {
		return nil, errors.New("partida no encontrada")
	}
	if partida.Bloqueada {
		return nil, ErrPartidaBloqueada
	}

	elaborados, err := s.elaboradoRepo.ListarPorPartida(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(elaborados) == 0 {
		return nil, ErrSinElaborados
	}
	if err := validarFechasProduccion(partida.FechaInicio, partida.FechaFin); err != nil {
		return nil, err
	}
	if partida.EstadoQA == model.QAPendiente || partida.EstadoQA == model.QARetenida {
		return nil, ErrQANoResuelta
	}
	if err := validarCierre(partida.EstadoQA, partida.MotivoQA); err != nil {
		return nil, err
	}

	var notif *model.Notificacion
	txErr := runTx(ctx, s.partidaRepo.DB(), func(tx *gorm.DB) error {
		rows, err := s.partidaRepo.BloquearTx(tx, id)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrPartidaBloqueada
		}

		if partida.EstadoQA == model.QAAprobada {
			if err := s.terminadoSvc.MaterializarTx(tx, partida, elaborados); err != nil {
				return err
			}
		}

		notif = s.buildNotificacionQA(partida)
		if notif != nil {
			return s.notifRepo.CrearTx(tx, notif)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// post-commit: el envío es asíncrono; si la cola no está disponible el
	// cron de reintentos levanta la notificación pendiente igual
	if notif != nil && s.queue != nil {
		if err := s.queue.Encolar(ctx, notif.ID); err != nil {
			log.Warn().Err(err).
				Str("notificacion_id", notif.ID.String()).
				Str("partida", partida.Codigo).
				Msg("no se pudo encolar la notificación, queda para el cron")
		}
	}

	return s.Obtener(ctx, id)
}

// buildNotificacionQA arma el correo de resultado de calidad para el
// responsable de la partida. Devuelve nil si no hay a quién avisar.
func (s *partidaService) buildNotificacionQA(partida *model.Partida) *model.Notificacion {
	destinatario := s.alertEmail
	if partida.Responsable != nil && partida.Responsable.Email != nil && *partida.Responsable.Email != "" {
		destinatario = *partida.Responsable.Email
	}
	if destinatario == "" {
		return nil
	}

	asunto := fmt.Sprintf("Partida %s finalizada: %s", partida.Codigo, partida.EstadoQA)
	cuerpo := fmt.Sprintf(
		"La partida %s quedó bloqueada con resultado de calidad %q.",
		partida.Codigo, partida.EstadoQA,
	)
	if partida.MotivoQA != nil && *partida.MotivoQA != "" {
		cuerpo += "\nMotivo: " + *partida.MotivoQA
	}
	pid := partida.ID
	// next_retry_at arranca programado: si el push a la cola se pierde, el
	// cron igual levanta la notificación en el próximo barrido
	primerReintento := time.Now().Add(2 * time.Minute)
	return &model.Notificacion{
		Tipo:         model.NotifTipoResultadoQA,
		PartidaID:    &pid,
		Destinatario: destinatario,
		Asunto:       asunto,
		Cuerpo:       cuerpo,
		Estado:       model.NotifPendiente,
		NextRetryAt:  &primerReintento,
	}
}

// ── Eliminar ─────────────────────────────────────────────────────────────────
// Borrar un borrador devuelve al pool todo lo que la partida tenía reservado.
// Liberaciones, movimientos de auditoría y el borrado en cascada corren en
// una sola transacción: o la partida desaparece con sus lotes repuestos, o
// nada cambia.

func (s *partidaService) Eliminar(ctx context.Context, id uuid.UUID) error {
	partida, err := s.partidaRepo.ObtenerPorID(ctx, id)
	if err != nil {
		return errors.New("partida no encontrada")
	}
	if partida.Bloqueada {
		return ErrPartidaBloqueada
	}

	consumos, err := s.consumoRepo.ListarPorPartida(ctx, id)
	if err != nil {
		return err
	}

	return runTx(ctx, s.partidaRepo.DB(), func(tx *gorm.DB) error {
		for i := range consumos {
			c := &consumos[i]
			rows, err := s.consumoRepo.EliminarTx(tx, c.ID)
			if err != nil {
				return err
			}
			if rows == 0 {
				continue
			}
			lote, err := s.loteRepo.ObtenerPorIDTx(tx, c.LoteID)
			if err != nil {
				return err
			}
			if err := s.loteRepo.ReponerDisponibleTx(tx, c.LoteID, c.CantidadConsumida); err != nil {
				return err
			}
			if err := s.movRepo.CrearTx(tx, &model.MovimientoLote{
				LoteID:             c.LoteID,
				Tipo:               model.MovBajaPartida,
				Cantidad:           c.CantidadConsumida,
				DisponibleAnterior: lote.CantidadDisponible,
				DisponibleNuevo:    lote.CantidadDisponible.Add(c.CantidadConsumida),
				Motivo:             fmt.Sprintf("Baja de partida %s", partida.Codigo),
				ReferenciaID:       &partida.ID,
			}); err != nil {
				return err
			}
		}
		rows, err := s.partidaRepo.EliminarTx(tx, id)
		if err != nil {
			return err
		}
		if rows == 0 {
			// se bloqueó entre el chequeo y acá: el rollback repone todo
			return ErrPartidaBloqueada
		}
		return nil
	})
}

// ── Validaciones compartidas ─────────────────────────────────────────────────

// validarCierre exige motivo cuando el estado de calidad es adverso.
func validarCierre(estadoQA string, motivo *string) error {
	if estadoQA == model.QARechazada || estadoQA == model.QARetenida {
		if motivo == nil || *motivo == "" {
			return ErrMotivoFaltante
		}
	}
	return nil
}

// validarRangoFechas acepta fechas parciales durante el borrador; solo exige
// que, cuando ambas están, el fin no preceda al inicio.
func validarRangoFechas(inicio, fin *time.Time) error {
	if inicio != nil && fin != nil && fin.Before(*inicio) {
		return ErrRangoFechasInvalido
	}
	return nil
}

// validarFechasProduccion es la versión estricta para el cierre: la partida
// no se bloquea sin ambas fechas cargadas y en orden.
func validarFechasProduccion(inicio, fin *time.Time) error {
	if inicio == nil || fin == nil || fin.Before(*inicio) {
		return ErrRangoFechasInvalido
	}
	return nil
}

// ── Mapeo a DTO ──────────────────────────────────────────────────────────────

func partidaToResponse(p *model.Partida) *dto.PartidaResponse {
	responsable := ""
	if p.Responsable != nil {
		responsable = p.Responsable.Nombre
	}

	consumos := make([]dto.ConsumoResponse, 0, len(p.Consumos))
	for i := range p.Consumos {
		consumos = append(consumos, *consumoToResponse(&p.Consumos[i]))
	}

	elaborados := make([]dto.ElaboradoResponse, 0, len(p.Elaborados))
	for i := range p.Elaborados {
		elaborados = append(elaborados, *elaboradoToResponse(&p.Elaborados[i]))
	}

	campos := make(map[string]string, len(p.Campos))
	for _, c := range p.Campos {
		campos[c.Clave] = c.Valor
	}

	var inicio, fin *string
	if p.FechaInicio != nil {
		v := p.FechaInicio.Format("2006-01-02T15:04:05Z")
		inicio = &v
	}
	if p.FechaFin != nil {
		v := p.FechaFin.Format("2006-01-02T15:04:05Z")
		fin = &v
	}

	return &dto.PartidaResponse{
		ID:            p.ID.String(),
		Codigo:        p.Codigo,
		Responsable:   responsable,
		ResponsableID: p.ResponsableID.String(),
		Observaciones: p.Observaciones,
		FechaPartida:  p.FechaPartida.Format("2006-01-02"),
		Estado:        p.Estado(),
		EstadoQA:      p.EstadoQA,
		MotivoQA:      p.MotivoQA,
		FechaInicio:   inicio,
		FechaFin:      fin,
		Campos:        campos,
		Consumos:      consumos,
		Elaborados:    elaborados,
		CreatedAt:     p.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
