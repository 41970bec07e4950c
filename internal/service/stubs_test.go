package service

import (
	"context"
	"sync"
	"time"

	"plantaops/internal/dto"
	"plantaops/internal/model"
	"plantaops/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Stubs en memoria de los repositorios. Devuelven DB() == nil para que los
// servicios ejecuten el cuerpo transaccional directo, sin base de datos.

// ── Lotes ─────────────────────────────────────────────────────────────────────

type stubLoteRepo struct {
	mu    sync.Mutex
	lotes map[uuid.UUID]*model.Lote
}

func newStubLoteRepo() *stubLoteRepo {
	return &stubLoteRepo{lotes: make(map[uuid.UUID]*model.Lote)}
}

func (r *stubLoteRepo) Crear(ctx context.Context, l *model.Lote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = time.Now()
	r.lotes[l.ID] = l
	return nil
}

func (r *stubLoteRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Lote, error) {
	return r.ObtenerPorIDTx(nil, id)
}

func (r *stubLoteRepo) ObtenerPorIDTx(tx *gorm.DB, id uuid.UUID) (*model.Lote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lotes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *l
	return &copia, nil
}

func (r *stubLoteRepo) ObtenerPorCodigo(ctx context.Context, codigo string) (*model.Lote, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.lotes {
		if l.CodigoLote == codigo {
			copia := *l
			return &copia, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubLoteRepo) Listar(ctx context.Context, filter dto.LoteFilter) ([]model.Lote, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Lote, 0, len(r.lotes))
	for _, l := range r.lotes {
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

func (r *stubLoteRepo) Actualizar(ctx context.Context, l *model.Lote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lotes[l.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copia := *l
	r.lotes[l.ID] = &copia
	return nil
}

func (r *stubLoteRepo) DescontarDisponibleTx(tx *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lotes[id]
	if !ok || l.CantidadDisponible.LessThan(cantidad) {
		return 0, nil
	}
	l.CantidadDisponible = l.CantidadDisponible.Sub(cantidad)
	return 1, nil
}

func (r *stubLoteRepo) ReponerDisponibleTx(tx *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.lotes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	l.CantidadDisponible = l.CantidadDisponible.Add(cantidad)
	return nil
}

func (r *stubLoteRepo) DB() *gorm.DB { return nil }

func (r *stubLoteRepo) disponible(id uuid.UUID) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lotes[id].CantidadDisponible
}

// ── Consumos ──────────────────────────────────────────────────────────────────

type stubConsumoRepo struct {
	mu       sync.Mutex
	consumos map[uuid.UUID]*model.ConsumoInsumo
}

func newStubConsumoRepo() *stubConsumoRepo {
	return &stubConsumoRepo{consumos: make(map[uuid.UUID]*model.ConsumoInsumo)}
}

func (r *stubConsumoRepo) CrearTx(tx *gorm.DB, c *model.ConsumoInsumo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	copia := *c
	r.consumos[c.ID] = &copia
	return nil
}

func (r *stubConsumoRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.ConsumoInsumo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.consumos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *c
	return &copia, nil
}

func (r *stubConsumoRepo) EliminarTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.consumos[id]; !ok {
		return 0, nil
	}
	delete(r.consumos, id)
	return 1, nil
}

func (r *stubConsumoRepo) ListarPorPartida(ctx context.Context, partidaID uuid.UUID) ([]model.ConsumoInsumo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ConsumoInsumo
	for _, c := range r.consumos {
		if c.PartidaID == partidaID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubConsumoRepo) total() decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, c := range r.consumos {
		sum = sum.Add(c.CantidadConsumida)
	}
	return sum
}

// ── Partidas ──────────────────────────────────────────────────────────────────

type stubPartidaRepo struct {
	mu       sync.Mutex
	partidas map[uuid.UUID]*model.Partida
	campos   map[uuid.UUID]map[string]string
	numero   int

	// alLeer corre después de cada lectura fuera de transacción; los tests
	// lo usan para intercalar un escritor concurrente entre el chequeo
	// previo y la transacción del servicio
	alLeer func()
}

func newStubPartidaRepo() *stubPartidaRepo {
	return &stubPartidaRepo{
		partidas: make(map[uuid.UUID]*model.Partida),
		campos:   make(map[uuid.UUID]map[string]string),
	}
}

func (r *stubPartidaRepo) Crear(ctx context.Context, tx *gorm.DB, p *model.Partida) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.partidas[p.ID] = p
	return nil
}

func (r *stubPartidaRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Partida, error) {
	r.mu.Lock()
	p, ok := r.partidas[id]
	if !ok {
		r.mu.Unlock()
		return nil, gorm.ErrRecordNotFound
	}
	copia := *p
	r.mu.Unlock()
	if r.alLeer != nil {
		r.alLeer()
	}
	return &copia, nil
}

func (r *stubPartidaRepo) Listar(ctx context.Context, filter dto.PartidaFilter) ([]model.Partida, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Partida, 0, len(r.partidas))
	for _, p := range r.partidas {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubPartidaRepo) Actualizar(ctx context.Context, p *model.Partida) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.partidas[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copia := *p
	r.partidas[p.ID] = &copia
	return nil
}

func (r *stubPartidaRepo) NextNumero(ctx context.Context, tx *gorm.DB) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.numero++
	return r.numero, nil
}

func (r *stubPartidaRepo) GuardarCierre(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.partidas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["estado_qa"].(string); ok {
		p.EstadoQA = v
	}
	if v, ok := updates["motivo_qa"].(*string); ok {
		p.MotivoQA = v
	}
	if v, ok := updates["fecha_inicio"].(*time.Time); ok {
		p.FechaInicio = v
	}
	if v, ok := updates["fecha_fin"].(*time.Time); ok {
		p.FechaFin = v
	}
	return nil
}

func (r *stubPartidaRepo) UpsertCampo(ctx context.Context, partidaID uuid.UUID, clave, valor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.campos[partidaID] == nil {
		r.campos[partidaID] = make(map[string]string)
	}
	r.campos[partidaID][clave] = valor
	return nil
}

func (r *stubPartidaRepo) BloquearTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.partidas[id]
	if !ok || p.Bloqueada {
		return 0, nil
	}
	p.Bloqueada = true
	return 1, nil
}

func (r *stubPartidaRepo) EliminarTx(tx *gorm.DB, id uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.partidas[id]
	if !ok || p.Bloqueada {
		return 0, nil
	}
	delete(r.partidas, id)
	delete(r.campos, id)
	return 1, nil
}

func (r *stubPartidaRepo) EstaBloqueada(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	p, ok := r.partidas[id]
	if !ok {
		r.mu.Unlock()
		return false, gorm.ErrRecordNotFound
	}
	bloqueada := p.Bloqueada
	r.mu.Unlock()
	if r.alLeer != nil {
		r.alLeer()
	}
	return bloqueada, nil
}

func (r *stubPartidaRepo) EstaBloqueadaTx(tx *gorm.DB, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.partidas[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	return p.Bloqueada, nil
}

func (r *stubPartidaRepo) DB() *gorm.DB { return nil }

// ── Movimientos ───────────────────────────────────────────────────────────────

type stubMovimientoRepo struct {
	mu          sync.Mutex
	movimientos []model.MovimientoLote
}

func newStubMovimientoRepo() *stubMovimientoRepo { return &stubMovimientoRepo{} }

func (r *stubMovimientoRepo) Crear(ctx context.Context, m *model.MovimientoLote) error {
	return r.CrearTx(nil, m)
}

func (r *stubMovimientoRepo) CrearTx(tx *gorm.DB, m *model.MovimientoLote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubMovimientoRepo) List(ctx context.Context, filter repository.MovimientoLoteFilter) ([]model.MovimientoLote, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoLote
	for _, m := range r.movimientos {
		if filter.LoteID != nil && m.LoteID != *filter.LoteID {
			continue
		}
		if filter.Tipo != "" && m.Tipo != filter.Tipo {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *stubMovimientoRepo) porTipo(tipo string) []model.MovimientoLote {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MovimientoLote
	for _, m := range r.movimientos {
		if m.Tipo == tipo {
			out = append(out, m)
		}
	}
	return out
}

// ── Elaborados ────────────────────────────────────────────────────────────────

type stubElaboradoRepo struct {
	mu         sync.Mutex
	elaborados map[uuid.UUID]*model.ProductoElaborado
}

func newStubElaboradoRepo() *stubElaboradoRepo {
	return &stubElaboradoRepo{elaborados: make(map[uuid.UUID]*model.ProductoElaborado)}
}

func (r *stubElaboradoRepo) Crear(ctx context.Context, e *model.ProductoElaborado) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	copia := *e
	r.elaborados[e.ID] = &copia
	return nil
}

func (r *stubElaboradoRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.ProductoElaborado, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.elaborados[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *e
	return &copia, nil
}

func (r *stubElaboradoRepo) CrearTx(tx *gorm.DB, e *model.ProductoElaborado) error {
	return r.Crear(context.Background(), e)
}

func (r *stubElaboradoRepo) ActualizarTx(tx *gorm.DB, e *model.ProductoElaborado) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.elaborados[e.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copia := *e
	r.elaborados[e.ID] = &copia
	return nil
}

func (r *stubElaboradoRepo) EliminarTx(tx *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.elaborados, id)
	return nil
}

func (r *stubElaboradoRepo) ListarPorPartida(ctx context.Context, partidaID uuid.UUID) ([]model.ProductoElaborado, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProductoElaborado
	for _, e := range r.elaborados {
		if e.PartidaID == partidaID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *stubElaboradoRepo) ContarPorPartida(ctx context.Context, partidaID uuid.UUID) (int64, error) {
	list, _ := r.ListarPorPartida(ctx, partidaID)
	return int64(len(list)), nil
}

// ── Terminados ────────────────────────────────────────────────────────────────

type stubTerminadoRepo struct {
	mu         sync.Mutex
	terminados []model.ProductoTerminado

	// crearErr fuerza el error del próximo CrearTx (simula el índice único).
	crearErr error
}

func newStubTerminadoRepo() *stubTerminadoRepo { return &stubTerminadoRepo{} }

func (r *stubTerminadoRepo) CrearTx(tx *gorm.DB, t *model.ProductoTerminado) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.crearErr != nil {
		return r.crearErr
	}
	for _, existing := range r.terminados {
		if existing.PartidaID == t.PartidaID && existing.ProductoElaboradoID == t.ProductoElaboradoID {
			return gorm.ErrDuplicatedKey
		}
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.terminados = append(r.terminados, *t)
	return nil
}

func (r *stubTerminadoRepo) ExistenPorPartidaTx(tx *gorm.DB, partidaID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.terminados {
		if t.PartidaID == partidaID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubTerminadoRepo) ExistenPorPartida(ctx context.Context, partidaID uuid.UUID) (bool, error) {
	return r.ExistenPorPartidaTx(nil, partidaID)
}

func (r *stubTerminadoRepo) ListarPorPartida(ctx context.Context, partidaID uuid.UUID) ([]model.ProductoTerminado, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProductoTerminado
	for _, t := range r.terminados {
		if t.PartidaID == partidaID {
			out = append(out, t)
		}
	}
	return out, nil
}

// ── Notificaciones ────────────────────────────────────────────────────────────

type stubNotificacionRepo struct {
	mu             sync.Mutex
	notificaciones map[uuid.UUID]*model.Notificacion
}

func newStubNotificacionRepo() *stubNotificacionRepo {
	return &stubNotificacionRepo{notificaciones: make(map[uuid.UUID]*model.Notificacion)}
}

func (r *stubNotificacionRepo) Crear(ctx context.Context, n *model.Notificacion) error {
	return r.CrearTx(nil, n)
}

func (r *stubNotificacionRepo) CrearTx(tx *gorm.DB, n *model.Notificacion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	copia := *n
	r.notificaciones[n.ID] = &copia
	return nil
}

func (r *stubNotificacionRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Notificacion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notificaciones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copia := *n
	return &copia, nil
}

func (r *stubNotificacionRepo) ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.Notificacion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notificacion
	for _, n := range r.notificaciones {
		if n.Estado == model.NotifPendiente && n.NextRetryAt != nil && !n.NextRetryAt.After(now) {
			out = append(out, *n)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *stubNotificacionRepo) MarcarEnviada(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notificaciones[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	n.Estado = model.NotifEnviada
	now := time.Now()
	n.EnviadaAt = &now
	return nil
}

func (r *stubNotificacionRepo) ProgramarReintento(ctx context.Context, id uuid.UUID, nextRetryAt time.Time, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notificaciones[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	n.RetryCount++
	n.NextRetryAt = &nextRetryAt
	n.LastError = &lastError
	return nil
}

func (r *stubNotificacionRepo) MarcarFallida(ctx context.Context, id uuid.UUID, lastError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notificaciones[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	n.Estado = model.NotifFallida
	n.LastError = &lastError
	return nil
}

func (r *stubNotificacionRepo) todas() []model.Notificacion {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Notificacion, 0, len(r.notificaciones))
	for _, n := range r.notificaciones {
		out = append(out, *n)
	}
	return out
}

// ── Unidades y categorías ─────────────────────────────────────────────────────

type stubUnidadRepo struct {
	unidades map[string]*model.Unidad
}

func newStubUnidadRepo(unidades ...model.Unidad) *stubUnidadRepo {
	r := &stubUnidadRepo{unidades: make(map[string]*model.Unidad)}
	for i := range unidades {
		u := unidades[i]
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		r.unidades[u.Nombre] = &u
	}
	return r
}

func (r *stubUnidadRepo) Crear(ctx context.Context, u *model.Unidad) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.unidades[u.Nombre] = u
	return nil
}

func (r *stubUnidadRepo) Listar(ctx context.Context) ([]model.Unidad, error) {
	out := make([]model.Unidad, 0, len(r.unidades))
	for _, u := range r.unidades {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUnidadRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Unidad, error) {
	for _, u := range r.unidades {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUnidadRepo) ObtenerPorNombre(ctx context.Context, nombre string) (*model.Unidad, error) {
	u, ok := r.unidades[nombre]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *stubUnidadRepo) Actualizar(ctx context.Context, u *model.Unidad) error {
	r.unidades[u.Nombre] = u
	return nil
}

func (r *stubUnidadRepo) Desactivar(ctx context.Context, id uuid.UUID) error {
	for _, u := range r.unidades {
		if u.ID == id {
			u.Activo = false
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type stubCategoriaRepo struct {
	categorias map[uuid.UUID]*model.Categoria
}

func newStubCategoriaRepo(categorias ...model.Categoria) *stubCategoriaRepo {
	r := &stubCategoriaRepo{categorias: make(map[uuid.UUID]*model.Categoria)}
	for i := range categorias {
		c := categorias[i]
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		r.categorias[c.ID] = &c
	}
	return r
}

func (r *stubCategoriaRepo) Crear(ctx context.Context, c *model.Categoria) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.categorias[c.ID] = c
	return nil
}

func (r *stubCategoriaRepo) Listar(ctx context.Context) ([]model.Categoria, error) {
	out := make([]model.Categoria, 0, len(r.categorias))
	for _, c := range r.categorias {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubCategoriaRepo) ObtenerPorID(ctx context.Context, id uuid.UUID) (*model.Categoria, error) {
	c, ok := r.categorias[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCategoriaRepo) ObtenerPorNombre(ctx context.Context, nombre string) (*model.Categoria, error) {
	for _, c := range r.categorias {
		if c.Nombre == nombre {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCategoriaRepo) Actualizar(ctx context.Context, c *model.Categoria) error {
	r.categorias[c.ID] = c
	return nil
}

func (r *stubCategoriaRepo) Desactivar(ctx context.Context, id uuid.UUID) error {
	c, ok := r.categorias[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Activo = false
	return nil
}

// ── Cola de notificaciones ────────────────────────────────────────────────────

type stubQueue struct {
	mu        sync.Mutex
	encoladas []uuid.UUID
	err       error
}

func (q *stubQueue) Encolar(ctx context.Context, notificacionID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.encoladas = append(q.encoladas, notificacionID)
	return nil
}
