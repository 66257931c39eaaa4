package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/annel0/brick-sandbox/internal/auth"
	"github.com/annel0/brick-sandbox/internal/logging"
	"github.com/annel0/brick-sandbox/internal/middleware"
	"github.com/annel0/brick-sandbox/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Version версия сервера
const Version = "v0.1.0"

// RestServer представляет REST API сервер
type RestServer struct {
	router  *gin.Engine
	coord   *world.Coordinator
	issuer  *auth.TokenIssuer
	addr    string
	metrics *ServerMetrics
	logger  *logging.Logger

	httpSrv *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr        string               // адрес для запуска сервера, например ":8088"
	Coordinator *world.Coordinator   // координатор сцены
	Issuer      *auth.TokenIssuer    // nil - мутации без авторизации
	Registry    *prometheus.Registry // регистр для HTTP-метрик и /metrics
	ServiceName string
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.Coordinator == nil {
		return nil, errors.New("rest server: coordinator is required")
	}
	if config.Addr == "" {
		config.Addr = ":8088"
	}
	if config.ServiceName == "" {
		config.ServiceName = "brick-sandbox"
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware(config.ServiceName))

	logger := logging.GetAPILogger()
	router.Use(middleware.NewRequestLogger(logger).Handler())

	promMw := middleware.NewPrometheusMiddleware("rest_api", config.Registry, config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	router.Use(corsMiddleware())

	rs := &RestServer{
		router:  router,
		coord:   config.Coordinator,
		issuer:  config.Issuer,
		addr:    config.Addr,
		metrics: NewServerMetrics(),
		logger:  logger,
	}
	rs.httpSrv = &http.Server{
		Addr:              config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	rs.setupRoutes()
	return rs, nil
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/server", rs.handleServerInfo)
		api.GET("/catalog", rs.handleCatalog)
		api.GET("/state", rs.handleState)
		api.GET("/bricks", rs.handleBricks)
	}

	// Эндпоинты, меняющие состояние (при настроенном секрете требуют роль builder)
	build := api.Group("/")
	build.Use(rs.builderMiddleware())
	{
		build.POST("/mode", rs.handleMode)
		build.POST("/select", rs.handleSelect)
		build.POST("/tick", rs.handleTick)
		build.POST("/commit", rs.handleCommit)
		build.POST("/undo", rs.handleUndo)
		build.POST("/redo", rs.handleRedo)
	}
}

// Handler возвращает http.Handler сервера
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает REST сервер и блокируется до Stop
func (rs *RestServer) Start() error {
	logging.Info("🌐 REST API слушает %s", rs.addr)
	if err := rs.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("rest server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	logging.Info("🛑 REST API останавливается")
	return rs.httpSrv.Shutdown(ctx)
}
