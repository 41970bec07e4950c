package service

import (
	"context"
	"testing"
	"time"

	"plantaops/internal/dto"
	"plantaops/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type partidaFixture struct {
	svc        PartidaService
	inventario InventarioService
	lotes      *stubLoteRepo
	consumos   *stubConsumoRepo
	partidas   *stubPartidaRepo
	movs       *stubMovimientoRepo
	elaborados *stubElaboradoRepo
	terminados *stubTerminadoRepo
	notifs     *stubNotificacionRepo
	queue      *stubQueue
}

func newPartidaFixture() *partidaFixture {
	lotes := newStubLoteRepo()
	consumos := newStubConsumoRepo()
	partidas := newStubPartidaRepo()
	movs := newStubMovimientoRepo()
	elaborados := newStubElaboradoRepo()
	terminados := newStubTerminadoRepo()
	notifs := newStubNotificacionRepo()
	queue := &stubQueue{}

	terminadoSvc := NewTerminadoService(terminados)
	return &partidaFixture{
		svc: NewPartidaService(
			partidas, consumos, lotes, movs, elaborados, notifs,
			terminadoSvc, queue, "calidad@plantaops.local",
		),
		inventario: NewInventarioService(lotes, consumos, partidas, movs),
		lotes:      lotes,
		consumos:   consumos,
		partidas:   partidas,
		movs:       movs,
		elaborados: elaborados,
		terminados: terminados,
		notifs:     notifs,
		queue:      queue,
	}
}

func (f *partidaFixture) crearPartida(t *testing.T) *dto.PartidaResponse {
	t.Helper()
	resp, err := f.svc.Crear(context.Background(), uuid.New(), dto.CrearPartidaRequest{
		Observaciones: "Elaboración de dulce de batata",
	})
	require.NoError(t, err)
	return resp
}

func (f *partidaFixture) seedElaborado(t *testing.T, partidaID uuid.UUID) *model.ProductoElaborado {
	t.Helper()
	e := &model.ProductoElaborado{
		PartidaID:         partidaID,
		Nombre:            "Dulce de batata 500g",
		CantidadProducida: decimal.NewFromInt(40),
		UnidadProducida:   "unidad",
		CategoriaID:       uuid.New(),
	}
	require.NoError(t, f.elaborados.Crear(context.Background(), e))
	return e
}

func fechasProduccion() (*time.Time, *time.Time) {
	inicio := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
	fin := time.Date(2026, 8, 20, 16, 0, 0, 0, time.UTC)
	return &inicio, &fin
}

func (f *partidaFixture) aprobar(t *testing.T, id uuid.UUID) {
	t.Helper()
	inicio, fin := fechasProduccion()
	require.NoError(t, f.svc.Guardar(context.Background(), id, dto.GuardarPartidaRequest{
		EstadoQA:    model.QAAprobada,
		FechaInicio: inicio,
		FechaFin:    fin,
	}))
}

func TestCrearPartida_AsignaCodigoSecuencial(t *testing.T) {
	f := newPartidaFixture()

	p1 := f.crearPartida(t)
	p2 := f.crearPartida(t)

	assert.Equal(t, "PT-000001", p1.Codigo)
	assert.Equal(t, "PT-000002", p2.Codigo)
	assert.Equal(t, "borrador", p1.Estado)
	assert.Equal(t, model.QAPendiente, p1.EstadoQA)
}

func TestEditar_PartidaBloqueada(t *testing.T) {
	f := newPartidaFixture()
	p := f.crearPartida(t)
	id := uuid.MustParse(p.ID)
	_, err := f.partidas.BloquearTx(nil, id)
	require.NoError(t, err)

	obs := "cambio tardío"
	_, err = f.svc.Editar(context.Background(), id, dto.EditarPartidaRequest{Observaciones: &obs})
	assert.ErrorIs(t, err, ErrPartidaBloqueada)
}

func TestGuardar_EsRepetible(t *testing.T) {
	f := newPartidaFixture()
	p := f.crearPartida(t)
	id := uuid.MustParse(p.ID)

	inicio := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
	fin := time.Date(2026, 8, 20, 16, 0, 0, 0, time.UTC)
	req := dto.GuardarPartidaRequest{
		EstadoQA:    model.QAAprobada,
		FechaInicio: &inicio,
		FechaFin:    &fin,
		Campos:      map[string]string{"temperatura_horno": "180"},
	}

	require.NoError(t, f.svc.Guardar(context.Background(), id, req))
	require.NoError(t, f.svc.Guardar(context.Background(), id, req))

	guardada, err := f.partidas.ObtenerPorID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.QAAprobada, guardada.EstadoQA)
	assert.False(t, guardada.Bloqueada)
	assert.Equal(t, "180", f.partidas.campos[id]["temperatura_horno"])
}

func TestGuardar_TransicionesQA(t *testing.T) {
	cases := []struct {
		nombre  string
		desde   string
		hacia   string
		permite bool
	}{
		{"pendiente a aprobada", model.QAPendiente, model.QAAprobada, true},
		{"pendiente a rechazada", model.QAPendiente, model.QARechazada, true},
		{"pendiente a retenida", model.QAPendiente, model.QARetenida, true},
		{"retenida a aprobada", model.QARetenida, model.QAAprobada, true},
		{"retenida a rechazada", model.QARetenida, model.QARechazada, true},
		{"aprobada a pendiente", model.QAAprobada, model.QAPendiente, false},
		{"aprobada a rechazada", model.QAAprobada, model.QARechazada, false},
		{"rechazada a aprobada", model.QARechazada, model.QAAprobada, false},
		{"retenida a pendiente", model.QARetenida, model.QAPendiente, false},
		{"sin cambio", model.QARechazada, model.QARechazada, true},
	}

	for _, tc := range cases {
		t.Run(tc.nombre, func(t *testing.T) {
			f := newPartidaFixture()
			p := f.crearPartida(t)
			id := uuid.MustParse(p.ID)

			motivo := "desvío de proceso"
			partida, err := f.partidas.ObtenerPorID(context.Background(), id)
			require.NoError(t, err)
			partida.EstadoQA = tc.desde
			partida.MotivoQA = &motivo
			require.NoError(t, f.partidas.Actualizar(context.Background(), partida))

			err = f.svc.Guardar(context.Background(), id, dto.GuardarPartidaRequest{
				EstadoQA: tc.hacia,
				MotivoQA: &motivo,
			})
			if tc.permite {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrTransicionQAInvalida)
			}
		})
	}
}

func TestGuardar_MotivoObligatorio(t *testing.T) {
	f := newPartidaFixture()
	p := f.crearPartida(t)
	id := uuid.MustParse(p.ID)

	err := f.svc.Guardar(context.Background(), id, dto.GuardarPartidaRequest{
		EstadoQA: model.QARechazada,
	})
	assert.ErrorIs(t, err, ErrMotivoFaltante)

	vacio := ""
	err = f.svc.Guardar(context.Background(), id, dto.GuardarPartidaRequest{
		EstadoQA: model.QARetenida,
		MotivoQA: &vacio,
	})
	assert.ErrorIs(t, err, ErrMotivoFaltante)

	motivo := "contaminación cruzada"
	err = f.svc.Guardar(context.Background(), id, dto.GuardarPartidaRequest{
		EstadoQA: model.QARechazada,
		MotivoQA: &motivo,
	})
	assert.NoError(t, err)
}

func TestGuardar_RangoFechasInvalido(t *testing.T) {
	f := newPartidaFixture()
	p := f.crearPartida(t)
	id := uuid.MustParse(p.ID)

	inicio := time.Date(2026, 8, 20, 16, 0, 0, 0, time.UTC)
	fin := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
	err := f.svc.Guardar(context.Background(), id, dto.GuardarPartidaRequest{
		EstadoQA:    model.QAAprobada,
		FechaInicio: &inicio,
		FechaFin:    &fin,
	})
	assert.ErrorIs(t, err, ErrRangoFechasInvalido)
}

func TestFinalizar_QANoResuelta(t *testing.T) {
	f := newPartidaFixture()
	p := f.crearPartida(t)
	id := uuid.MustParse(p.ID)
	f.seedElaborado(t, id)
	inicio, fin := fechasProduccion()

	// pendiente
	require.NoError(t, f.svc.Guardar(context.Background(), id, dto.GuardarPartidaRequest{
		EstadoQA:    model.QAPendiente,
		FechaInicio: inicio,
		FechaFin:    fin,
	}))
	_, err := f.svc.Finalizar(context.Background(), id)
	assert.ErrorIs(t, err, ErrQANoResuelta)

	// retenida tampoco alcanza
	motivo := "esperando análisis de laboratorio"
	require.NoError(t, f.svc.Guardar(context.Background(), id, dto.GuardarPartidaRequest{
		EstadoQA:    model.QARetenida,
		MotivoQA:    &motivo,
		FechaInicio: inicio,
		FechaFin:    fin,
	}))
	_, err = f.svc.Finalizar(context.Background(), id)
	assert.ErrorIs(t, err, ErrQANoResuelta)

	partida, err := f.partidas.ObtenerPorID(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, partida.Bloqueada)
}

func TestFinalizar_SinElaborados(t *testing.T) {
	// sin elaborados no hay cierre, cualquiera sea el resultado de calidad:
	// el chequeo corre antes que el de fechas y el de QA
	motivo := "humedad fuera de rango"
	inicio, fin := fechasProduccion()
	cases := []struct {
		nombre string
		req    *dto.GuardarPartidaRequest
	}{
		{"aprobada", &dto.GuardarPartidaRequest{
			EstadoQA: model.QAAprobada, FechaInicio: inicio, FechaFin: fin,
		}},
		{"rechazada", &dto.GuardarPartidaRequest{
			EstadoQA: model.QARechazada, MotivoQA: &motivo, FechaInicio: inicio, FechaFin: fin,
		}},
		{"pendiente sin fechas", nil},
	}

	for _, tc := range cases {
		t.Run(tc.nombre, func(t *testing.T) {
			f := newPartidaFixture()
			p := f.crearPartida(t)
			id := uuid.MustParse(p.ID)
			if tc.req != nil {
				require.NoError(t, f.svc.Guardar(context.Background(), id, *tc.req))
			}

			_, err := f.svc.Finalizar(context.Background(), id)
			assert.ErrorIs(t, err, ErrSinElaborados)

			partida, err := f.partidas.ObtenerPorID(context.Background(), id)
			require.NoError(t, err)
			assert.False(t, partida.Bloqueada)
		})
	}
}

func TestFinalizar_FechasProduccionObligatorias(t *testing.T) {
	f := newPartidaFixture()
	p := f.crearPartida(t)
	id := uuid.MustParse(p.ID)
	f.seedElaborado(t, id)

	// aprobada pero sin fechas cargadas
	require.NoError(t, f.svc.Guardar(context.Background(), id, dto.GuardarPartidaRequest{
		EstadoQA: model.QAAprobada,
	}))
	_, err := f.svc.Finalizar(context.Background(), id)
	assert.ErrorIs(t, err, ErrRangoFechasInvalido)

	// con una sola fecha tampoco
	inicio, _ := fechasProduccion()
	require.NoError(t, f.svc.Guardar(context.Background(), id, dto.GuardarPartidaRequest{
		EstadoQA:    model.QAAprobada,
		FechaInicio: inicio,
	}))
	_, err = f.svc.Finalizar(context.Background(), id)
	assert.ErrorIs(t, err, ErrRangoFechasInvalido)

	partida, err := f.partidas.ObtenerPorID(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, partida.Bloqueada)
	terminados, err := f.terminados.ListarPorPartida(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, terminados)
}

func TestFinalizar_FinAnteriorAlInicio(t *testing.T) {
	f := newPartidaFixture()
	p := f.crearPartida(t)
	id := uuid.MustParse(p.ID)
	f.seedElaborado(t, id)
	f.aprobar(t, id)

	// fechas desordenadas escritas por fuera del guardado validado
	partida, err := f.partidas.ObtenerPorID(context.Background(), id)
	require.NoError(t, err)
	partida.FechaInicio, partida.FechaFin = partida.FechaFin, partida.FechaInicio
	require.NoError(t, f.partidas.Actualizar(context.Background(), partida))

	_, err = f.svc.Finalizar(context.Background(), id)
	assert.ErrorIs(t, err, ErrRangoFechasInvalido)
}

func TestFinalizar_AprobadaMaterializaYNotifica(t *testing.T) {
	f := newPartidaFixture()
	p := f.crearPartida(t)
	id := uuid.MustParse(p.ID)
	e1 := f.seedElaborado(t, id)
	e2 := f.seedElaborado(t, id)
	f.aprobar(t, id)

	resp, err := f.svc.Finalizar(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "bloqueada", resp.Estado)

	terminados, err := f.terminados.ListarPorPartida(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, terminados, 2)
	ids := map[uuid.UUID]bool{}
	for _, term := range terminados {
		ids[term.ProductoElaboradoID] = true
		assert.Equal(t, id, term.PartidaID)
	}
	assert.True(t, ids[e1.ID])
	assert.True(t, ids[e2.ID])

	// la notificación quedó persistida y encolada
	notifs := f.notifs.todas()
	require.Len(t, notifs, 1)
	assert.Equal(t, model.NotifTipoResultadoQA, notifs[0].Tipo)
	assert.Equal(t, "calidad@plantaops.local", notifs[0].Destinatario)
	assert.Equal(t, model.NotifPendiente, notifs[0].Estado)
	require.NotNil(t, notifs[0].NextRetryAt)
	require.Len(t, f.queue.encoladas, 1)
	assert.Equal(t, notifs[0].ID, f.queue.encoladas[0])
}

func TestFinalizar_SegundaVezRechazadaPorBloqueo(t *testing.T) {
	f := newPartidaFixture()
	p := f.crearPartida(t)
	id := uuid.MustParse(p.ID)
	f.seedElaborado(t, id)
	f.aprobar(t, id)

	_, err := f.svc.Finalizar(context.Background(), id)
	require.NoError(t, err)

	_, err = f.svc.Finalizar(context.Background(), id)
	assert.ErrorIs(t, err, ErrPartidaBloqueada)

	// el inventario no se duplica
	terminados, err := f.terminados.ListarPorPartida(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, terminados, 1)
	assert.Len(t, f.notifs.todas(), 1)
}

func TestFinalizar_RechazadaNoMaterializa(t *testing.T) {
	f := newPartidaFixture()
	p := f.crearPartida(t)
	id := uuid.MustParse(p.ID)
	f.seedElaborado(t, id)

	motivo := "humedad fuera de rango"
	inicio, fin := fechasProduccion()
	require.NoError(t, f.svc.Guardar(context.Background(), id, dto.GuardarPartidaRequest{
		EstadoQA:    model.QARechazada,
		MotivoQA:    &motivo,
		FechaInicio: inicio,
		FechaFin:    fin,
	}))

	resp, err := f.svc.Finalizar(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "bloqueada", resp.Estado)

	// rechazada bloquea sin producir inventario, pero avisa igual
	terminados, err := f.terminados.ListarPorPartida(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, terminados)
	require.Len(t, f.notifs.todas(), 1)
	assert.Contains(t, f.notifs.todas()[0].Cuerpo, motivo)
}

func TestFinalizar_ColaCaidaNoFallaLaOperacion(t *testing.T) {
	f := newPartidaFixture()
	f.queue.err = assert.AnError
	p := f.crearPartida(t)
	id := uuid.MustParse(p.ID)
	f.seedElaborado(t, id)
	f.aprobar(t, id)

	_, err := f.svc.Finalizar(context.Background(), id)
	require.NoError(t, err)

	// la notificación quedó en la tabla con reintento programado: el cron
	// la levanta aunque el push a la cola se haya perdido
	notifs := f.notifs.todas()
	require.Len(t, notifs, 1)
	assert.Equal(t, model.NotifPendiente, notifs[0].Estado)
	require.NotNil(t, notifs[0].NextRetryAt)
	assert.Empty(t, f.queue.encoladas)
}

func TestEliminar_RestauraLotes(t *testing.T) {
	f := newPartidaFixture()
	p := f.crearPartida(t)
	id := uuid.MustParse(p.ID)
	ctx := context.Background()

	lote1 := &model.Lote{
		Nombre: "Azúcar", CodigoLote: "AZ-001", Tipo: model.LoteTipoInsumo, Unidad: "Kg.",
		CantidadInicial: decimal.NewFromInt(100), CantidadDisponible: decimal.NewFromInt(100),
		Utilizable: true, Activo: true,
	}
	lote2 := &model.Lote{
		Nombre: "Frascos", CodigoLote: "FR-001", Tipo: model.LoteTipoEmpaque, Unidad: "unidad",
		CantidadInicial: decimal.NewFromInt(500), CantidadDisponible: decimal.NewFromInt(500),
		Utilizable: true, Activo: true,
	}
	require.NoError(t, f.lotes.Crear(ctx, lote1))
	require.NoError(t, f.lotes.Crear(ctx, lote2))

	_, err := f.inventario.Reservar(ctx, id, lote1.ID, decimal.NewFromInt(30))
	require.NoError(t, err)
	_, err = f.inventario.Reservar(ctx, id, lote2.ID, decimal.NewFromInt(120))
	require.NoError(t, err)

	require.NoError(t, f.svc.Eliminar(ctx, id))

	assert.True(t, f.lotes.disponible(lote1.ID).Equal(decimal.NewFromInt(100)))
	assert.True(t, f.lotes.disponible(lote2.ID).Equal(decimal.NewFromInt(500)))
	_, err = f.partidas.ObtenerPorID(ctx, id)
	assert.Error(t, err)

	bajas := f.movs.porTipo(model.MovBajaPartida)
	assert.Len(t, bajas, 2)
}

func TestEliminar_BloqueoDuranteElBorrado(t *testing.T) {
	f := newPartidaFixture()
	p := f.crearPartida(t)
	id := uuid.MustParse(p.ID)

	// la partida se bloquea entre el chequeo previo y el DELETE; la
	// eliminación condicional ve 0 filas y la transacción aborta
	f.partidas.alLeer = func() {
		_, err := f.partidas.BloquearTx(nil, id)
		require.NoError(t, err)
	}

	err := f.svc.Eliminar(context.Background(), id)
	assert.ErrorIs(t, err, ErrPartidaBloqueada)

	partida, err := f.partidas.ObtenerPorID(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, partida.Bloqueada)
}

func TestEliminar_PartidaBloqueada(t *testing.T) {
	f := newPartidaFixture()
	p := f.crearPartida(t)
	id := uuid.MustParse(p.ID)
	_, err := f.partidas.BloquearTx(nil, id)
	require.NoError(t, err)

	err = f.svc.Eliminar(context.Background(), id)
	assert.ErrorIs(t, err, ErrPartidaBloqueada)
}
