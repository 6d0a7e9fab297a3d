package router

import (
	"time"

	"otfinanzas/internal/config"
	"otfinanzas/internal/handler"
	"otfinanzas/internal/infra"
	"otfinanzas/internal/middleware"
	"otfinanzas/internal/repository"
	"otfinanzas/internal/service"
	"otfinanzas/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps son las piezas compartidas entre el router y los workers; las arma
// main y las consume New.
type Deps struct {
	Cfg        *config.Config
	DB         *gorm.DB
	RDB        *redis.Client
	VentasCB   *infra.CircuitBreaker
	TRMCB      *infra.CircuitBreaker
	Dispatcher *worker.Dispatcher
}

// New wires all dependencies and returns a configured Gin engine plus the
// liquidación service that the retry cron re-drives.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(d Deps) (*gin.Engine, service.LiquidacionService) {
	cfg := d.Cfg
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

	// ── Infrastructure ───────────────────────────────────────────────────────
	trmClient := infra.NewTRMClient(cfg.TRMServiceURL, d.RDB)
	ventasClient := infra.NewVentasClient(cfg.VentasFeedURL)

	// ── Repositories ─────────────────────────────────────────────────────────
	escalaRepo := repository.NewEscalaRepository(d.DB)
	procesadorRepo := repository.NewProcesadorRepository(d.DB)
	configRepo := repository.NewConfigComisionesRepository(d.DB)
	liquidacionRepo := repository.NewLiquidacionRepository(d.DB)
	movimientoRepo := repository.NewMovimientoRepository(d.DB)
	periodoRepo := repository.NewPeriodoRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	escalaSvc := service.NewEscalaService(escalaRepo)
	procesadorSvc := service.NewProcesadorService(procesadorRepo, trmClient)
	comisionesSvc := service.NewComisionesService(configRepo)
	liquidacionSvc := service.NewLiquidacionService(
		liquidacionRepo, periodoRepo, escalaRepo, movimientoRepo,
		procesadorSvc, ventasClient, d.VentasCB, d.Dispatcher,
		cfg.RecalculoParalelismo,
	)
	movimientoSvc := service.NewMovimientoService(movimientoRepo, periodoRepo)
	periodoSvc := service.NewPeriodoService(periodoRepo, movimientoRepo, liquidacionRepo, d.Dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	escalasH := handler.NewEscalasHandler(escalaSvc)
	procesadoresH := handler.NewProcesadoresHandler(procesadorSvc)
	comisionesH := handler.NewComisionesHandler(comisionesSvc)
	liquidacionesH := handler.NewLiquidacionesHandler(liquidacionSvc)
	movimientosH := handler.NewMovimientosHandler(movimientoSvc)
	periodosH := handler.NewPeriodosHandler(periodoSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.RDB, d.VentasCB, d.TRMCB))

	// Protected routes. Roles: lectura < finanzas < admin.
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	lectura := middleware.RequireRole(middleware.RolLectura, middleware.RolFinanzas, middleware.RolAdmin)
	finanzas := middleware.RequireRole(middleware.RolFinanzas, middleware.RolAdmin)
	admin := middleware.RequireRole(middleware.RolAdmin)

	v1 := r.Group("/v1", jwtMW)
	{
		escalas := v1.Group("/escalas")
		{
			escalas.GET("", lectura, escalasH.Listar)
			escalas.GET("/:id", lectura, escalasH.Obtener)
			escalas.POST("/calcular", lectura, escalasH.CalcularComision)
			escalas.POST("", admin, escalasH.Crear)
			escalas.POST("/default", admin, escalasH.CrearDefault)
			escalas.PUT("/:id", admin, escalasH.Actualizar)
			escalas.DELETE("/:id", admin, escalasH.Eliminar)
			escalas.POST("/:id/activar", admin, escalasH.Activar)
		}

		procesadores := v1.Group("/procesadores")
		{
			procesadores.GET("", lectura, procesadoresH.Listar)
			procesadores.GET("/vigente/fee", lectura, procesadoresH.ComisionVigente)
			procesadores.GET("/:id", lectura, procesadoresH.Obtener)
			procesadores.POST("", admin, procesadoresH.Crear)
			procesadores.PUT("/:id", admin, procesadoresH.Actualizar)
			procesadores.DELETE("/:id", admin, procesadoresH.Eliminar)
		}

		comisiones := v1.Group("/comisiones-internas")
		{
			comisiones.GET("/config", lectura, comisionesH.ObtenerConfig)
			comisiones.PUT("/config", admin, comisionesH.ActualizarConfig)
			comisiones.POST("/calcular", finanzas, comisionesH.Calcular)
		}

		liquidaciones := v1.Group("/liquidaciones")
		{
			liquidaciones.GET("", lectura, liquidacionesH.Listar)
			liquidaciones.GET("/estadisticas", lectura, liquidacionesH.Estadisticas)
			liquidaciones.GET("/modelo/:modelo", lectura, liquidacionesH.ObtenerPorModelo)
			liquidaciones.POST("/calcular", finanzas, liquidacionesH.Calcular)
			liquidaciones.POST("/recalcular", finanzas, liquidacionesH.Recalcular)
			liquidaciones.PATCH("/:id/estado", finanzas, liquidacionesH.ActualizarEstado)
		}

		movimientos := v1.Group("/movimientos")
		{
			movimientos.GET("", lectura, movimientosH.Listar)
			movimientos.GET("/saldo", lectura, movimientosH.Saldo)
			movimientos.GET("/resumen", lectura, movimientosH.ResumenPeriodo)
			movimientos.GET("/flujo", lectura, movimientosH.FlujoCaja)
			movimientos.GET("/comparativa", lectura, movimientosH.Comparativa)
			movimientos.GET("/:id", lectura, movimientosH.Detalle)
			movimientos.POST("", finanzas, movimientosH.Registrar)
			movimientos.POST("/:id/revertir", finanzas, movimientosH.Revertir)
		}

		periodos := v1.Group("/periodos")
		{
			periodos.GET("", lectura, periodosH.Listar)
			periodos.POST("/revision", finanzas, periodosH.MarcarEnRevision)
			periodos.POST("/consolidar", admin, periodosH.Consolidar)
			periodos.POST("/cerrar", admin, periodosH.Cerrar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r, liquidacionSvc
}
