package router

import (
	"time"

	"plantaops/internal/config"
	"plantaops/internal/handler"
	"plantaops/internal/infra"
	"plantaops/internal/middleware"
	"plantaops/internal/repository"
	"plantaops/internal/service"
	"plantaops/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	loteRepo := repository.NewLoteRepository(db)
	consumoRepo := repository.NewConsumoRepository(db)
	partidaRepo := repository.NewPartidaRepository(db)
	elaboradoRepo := repository.NewElaboradoRepository(db)
	terminadoRepo := repository.NewTerminadoRepository(db)
	movimientoRepo := repository.NewMovimientoLoteRepository(db)
	categoriaRepo := repository.NewCategoriaRepository(db)
	unidadRepo := repository.NewUnidadRepository(db)
	notifRepo := repository.NewNotificacionRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	inventarioSvc := service.NewInventarioService(loteRepo, consumoRepo, partidaRepo, movimientoRepo)
	terminadoSvc := service.NewTerminadoService(terminadoRepo)
	elaboradoSvc := service.NewElaboradoService(elaboradoRepo, partidaRepo, unidadRepo, categoriaRepo)
	categoriaSvc := service.NewCategoriaService(categoriaRepo)
	unidadSvc := service.NewUnidadService(unidadRepo)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	partidaSvc := service.NewPartidaService(
		partidaRepo, consumoRepo, loteRepo, movimientoRepo,
		elaboradoRepo, notifRepo, terminadoSvc, dispatcher, cfg.AlertEmail,
	)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	lotesH := handler.NewLotesHandler(inventarioSvc)
	consumosH := handler.NewConsumosHandler(inventarioSvc)
	partidasH := handler.NewPartidasHandler(partidaSvc, partidaRepo, cfg.PDFStoragePath)
	elaboradosH := handler.NewElaboradosHandler(elaboradoSvc)
	terminadosH := handler.NewTerminadosHandler(terminadoSvc)
	categoriasH := handler.NewCategoriasHandler(categoriaSvc)
	unidadesH := handler.NewUnidadesHandler(unidadSvc)
	consultaH := handler.NewConsultaLoteHandler(loteRepo, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Lot lookup for floor scanner stations — no auth required
	r.GET("/v1/lote/:codigo", consultaH.GetLotePorCodigo)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: operario, supervisor, administrador — declared per-endpoint
		todos := middleware.RequireRole("operario", "supervisor", "administrador")
		supervision := middleware.RequireRole("supervisor", "administrador")
		admin := middleware.RequireRole("administrador")

		// Lotes — intake and toggles need supervision; reads are open
		v1.GET("/lotes", todos, lotesH.Listar)
		v1.GET("/lotes/movimientos", supervision, lotesH.ListarMovimientos)
		v1.GET("/lotes/:id", todos, lotesH.Obtener)
		v1.POST("/lotes", supervision, lotesH.Crear)
		v1.PATCH("/lotes/:id/utilizable", supervision, lotesH.MarcarUtilizable)

		// Partidas — operarios work drafts, supervision finalizes/deletes
		v1.POST("/partidas", todos, partidasH.Crear)
		v1.GET("/partidas", todos, partidasH.Listar)
		v1.GET("/partidas/:id", todos, partidasH.Obtener)
		v1.PATCH("/partidas/:id", todos, partidasH.Editar)
		v1.PUT("/partidas/:id/guardar", todos, partidasH.Guardar)
		v1.POST("/partidas/:id/finalizar", supervision, partidasH.Finalizar)
		v1.DELETE("/partidas/:id", supervision, partidasH.Eliminar)
		v1.GET("/partidas/:id/protocolo", todos, partidasH.DescargarProtocolo)

		// Consumos del mayor de lotes
		v1.POST("/partidas/:id/consumos", todos, consumosH.Reservar)
		v1.GET("/partidas/:id/consumos", todos, consumosH.ListarPorPartida)
		v1.DELETE("/consumos/:consumo_id", todos, consumosH.Liberar)
		v1.PUT("/consumos/:consumo_id", todos, consumosH.Reemplazar)

		// Elaborados y terminados
		v1.POST("/partidas/:id/elaborados", todos, elaboradosH.Agregar)
		v1.GET("/partidas/:id/elaborados", todos, elaboradosH.ListarPorPartida)
		v1.PUT("/elaborados/:elaborado_id", todos, elaboradosH.Actualizar)
		v1.DELETE("/elaborados/:elaborado_id", todos, elaboradosH.Quitar)
		v1.GET("/partidas/:id/terminados", todos, terminadosH.ListarPorPartida)
		v1.GET("/partidas/:id/terminados/existen", todos, terminadosH.Existen)

		// Categorías — administrador can write, all authenticated can read
		v1.GET("/categorias", todos, categoriasH.Listar)
		categorias := v1.Group("/categorias", admin)
		{
			categorias.POST("", categoriasH.Crear)
			categorias.PUT("/:id", categoriasH.Actualizar)
			categorias.DELETE("/:id", categoriasH.Desactivar)
		}

		// Unidades — same policy as categorías
		v1.GET("/unidades", todos, unidadesH.Listar)
		unidades := v1.Group("/unidades", admin)
		{
			unidades.POST("", unidadesH.Crear)
			unidades.PUT("/:id", unidadesH.Actualizar)
			unidades.DELETE("/:id", unidadesH.Desactivar)
		}

		// Usuarios — administrador only
		usuarios := v1.Group("/usuarios", admin)
		{
			usuarios.POST("", authH.CrearUsuario)
			usuarios.GET("", authH.ListarUsuarios)
			usuarios.PUT("/:id", authH.ActualizarUsuario)
			usuarios.DELETE("/:id", authH.DesactivarUsuario)
			usuarios.PATCH("/:id/reactivar", authH.ReactivarUsuario)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}

// NotificacionWorkerDeps builds the async side: worker pool handlers and the
// retry cron config, sharing the HTTP wiring's repositories.
func NotificacionWorkerDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (worker.Handlers, worker.RetryCronConfig) {
	notifRepo := repository.NewNotificacionRepository(db)
	mailer := infra.NewMailer(cfg)
	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())

	handlers := worker.Handlers{
		"notificacion": worker.NewNotificacionWorker(notifRepo, mailer, cb),
	}
	cronCfg := worker.RetryCronConfig{
		NotifRepo: notifRepo,
		Mailer:    mailer,
		CB:        cb,
		RDB:       rdb,
	}
	return handlers, cronCfg
}
