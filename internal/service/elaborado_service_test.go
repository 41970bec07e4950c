package service

import (
	"context"
	"testing"

	"plantaops/internal/dto"
	"plantaops/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type elaboradoFixture struct {
	svc        ElaboradoService
	elaborados *stubElaboradoRepo
	partidas   *stubPartidaRepo
	categoria  model.Categoria
}

func newElaboradoFixture() *elaboradoFixture {
	elaborados := newStubElaboradoRepo()
	partidas := newStubPartidaRepo()
	unidades := newStubUnidadRepo(
		model.Unidad{Nombre: "Kg.", PermiteDecimales: true, Activo: true},
		model.Unidad{Nombre: "unidad", PermiteDecimales: false, Activo: true},
	)
	categoria := model.Categoria{ID: uuid.New(), Nombre: "Dulces", Activo: true}
	categorias := newStubCategoriaRepo(categoria)

	return &elaboradoFixture{
		svc:        NewElaboradoService(elaborados, partidas, unidades, categorias),
		elaborados: elaborados,
		partidas:   partidas,
		categoria:  categoria,
	}
}

func (f *elaboradoFixture) seedPartida(t *testing.T, bloqueada bool) uuid.UUID {
	t.Helper()
	p := &model.Partida{
		Codigo:        "PT-000001",
		Numero:        1,
		EstadoQA:      model.QAPendiente,
		Bloqueada:     bloqueada,
		ResponsableID: uuid.New(),
	}
	require.NoError(t, f.partidas.Crear(context.Background(), nil, p))
	return p.ID
}

func (f *elaboradoFixture) requestValido() dto.AgregarElaboradoRequest {
	return dto.AgregarElaboradoRequest{
		Nombre:            "Dulce de batata 500g",
		CantidadProducida: decimal.NewFromInt(40),
		UnidadProducida:   "unidad",
		CategoriaID:       f.categoria.ID.String(),
	}
}

func TestAgregarElaborado_Valido(t *testing.T) {
	f := newElaboradoFixture()
	partidaID := f.seedPartida(t, false)

	resp, err := f.svc.Agregar(context.Background(), partidaID, f.requestValido())
	require.NoError(t, err)
	assert.Equal(t, "Dulce de batata 500g", resp.Nombre)
	assert.True(t, resp.CantidadProducida.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, f.categoria.ID.String(), resp.CategoriaID)
}

func TestAgregarElaborado_FraccionEnUnidadEntera(t *testing.T) {
	f := newElaboradoFixture()
	partidaID := f.seedPartida(t, false)

	req := f.requestValido()
	req.CantidadProducida = decimal.NewFromFloat(2.5)
	_, err := f.svc.Agregar(context.Background(), partidaID, req)
	assert.ErrorIs(t, err, ErrFraccionNoPermitida)

	// la misma cantidad en Kg. sí es válida
	req.UnidadProducida = "Kg."
	_, err = f.svc.Agregar(context.Background(), partidaID, req)
	assert.NoError(t, err)
}

func TestAgregarElaborado_CantidadNoPositiva(t *testing.T) {
	f := newElaboradoFixture()
	partidaID := f.seedPartida(t, false)

	req := f.requestValido()
	req.CantidadProducida = decimal.Zero
	_, err := f.svc.Agregar(context.Background(), partidaID, req)
	assert.ErrorIs(t, err, ErrCantidadInvalida)
}

func TestAgregarElaborado_UnidadDesconocida(t *testing.T) {
	f := newElaboradoFixture()
	partidaID := f.seedPartida(t, false)

	req := f.requestValido()
	req.UnidadProducida = "docena"
	_, err := f.svc.Agregar(context.Background(), partidaID, req)
	assert.ErrorIs(t, err, ErrUnidadDesconocida)
}

func TestAgregarElaborado_CategoriaObligatoria(t *testing.T) {
	f := newElaboradoFixture()
	partidaID := f.seedPartida(t, false)

	req := f.requestValido()
	req.CategoriaID = ""
	_, err := f.svc.Agregar(context.Background(), partidaID, req)
	assert.ErrorIs(t, err, ErrCategoriaObligatoria)

	req.CategoriaID = uuid.NewString() // no existe
	_, err = f.svc.Agregar(context.Background(), partidaID, req)
	assert.ErrorIs(t, err, ErrCategoriaObligatoria)
}

func TestAgregarElaborado_PartidaBloqueada(t *testing.T) {
	f := newElaboradoFixture()
	partidaID := f.seedPartida(t, true)

	_, err := f.svc.Agregar(context.Background(), partidaID, f.requestValido())
	assert.ErrorIs(t, err, ErrPartidaBloqueada)
}

func TestAgregarElaborado_BloqueoDuranteElAlta(t *testing.T) {
	f := newElaboradoFixture()
	partidaID := f.seedPartida(t, false)

	// la partida se bloquea justo después del chequeo previo; la re-lectura
	// dentro de la transacción aborta el alta
	f.partidas.alLeer = func() {
		_, err := f.partidas.BloquearTx(nil, partidaID)
		require.NoError(t, err)
	}

	_, err := f.svc.Agregar(context.Background(), partidaID, f.requestValido())
	assert.ErrorIs(t, err, ErrPartidaBloqueada)

	list, err := f.svc.ListarPorPartida(context.Background(), partidaID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestActualizarElaborado_RevalidaCantidad(t *testing.T) {
	f := newElaboradoFixture()
	partidaID := f.seedPartida(t, false)

	resp, err := f.svc.Agregar(context.Background(), partidaID, f.requestValido())
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	fraccion := decimal.NewFromFloat(1.5)
	_, err = f.svc.Actualizar(context.Background(), id, dto.ActualizarElaboradoRequest{
		CantidadProducida: &fraccion,
	})
	assert.ErrorIs(t, err, ErrFraccionNoPermitida)

	entera := decimal.NewFromInt(50)
	actualizado, err := f.svc.Actualizar(context.Background(), id, dto.ActualizarElaboradoRequest{
		CantidadProducida: &entera,
	})
	require.NoError(t, err)
	assert.True(t, actualizado.CantidadProducida.Equal(entera))
}

func TestQuitarElaborado_PartidaBloqueada(t *testing.T) {
	f := newElaboradoFixture()
	partidaID := f.seedPartida(t, false)

	resp, err := f.svc.Agregar(context.Background(), partidaID, f.requestValido())
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	_, err = f.partidas.BloquearTx(nil, partidaID)
	require.NoError(t, err)

	err = f.svc.Quitar(context.Background(), id)
	assert.ErrorIs(t, err, ErrPartidaBloqueada)

	// sigue existiendo
	list, err := f.svc.ListarPorPartida(context.Background(), partidaID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
