package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/brick-sandbox/internal/api"
	"github.com/annel0/brick-sandbox/internal/auth"
	"github.com/annel0/brick-sandbox/internal/catalog"
	"github.com/annel0/brick-sandbox/internal/config"
	"github.com/annel0/brick-sandbox/internal/eventbus"
	"github.com/annel0/brick-sandbox/internal/logging"
	"github.com/annel0/brick-sandbox/internal/observability"
	"github.com/annel0/brick-sandbox/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App собранный из конфигурации стек песочницы
type App struct {
	Config      *config.Config
	Catalog     *catalog.Catalog
	Bus         eventbus.EventBus
	Registry    *prometheus.Registry
	Coordinator *world.Coordinator
	Server      *api.RestServer

	listener eventbus.Subscription
}

// New собирает каталог, шину, метрики, координатор и REST сервер
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	cat, err := LoadCatalog(cfg.Build.CatalogPath)
	if err != nil {
		return nil, err
	}

	bus, err := NewBus(cfg.EventBus)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Catalog: cat, Bus: bus, Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observability.RegisterBusStats(a.Registry, bus)

	coord, err := NewCoordinator(cfg.Build, cat, NewBusSink(bus), observability.NewBuildMetrics(a.Registry))
	if err != nil {
		bus.Close()
		return nil, err
	}
	a.Coordinator = coord

	var issuer *auth.TokenIssuer
	if cfg.Server.AuthSecret != "" {
		if issuer, err = auth.NewTokenIssuer(cfg.Server.AuthSecret, auth.DefaultTTL); err != nil {
			bus.Close()
			return nil, fmt.Errorf("auth: %w", err)
		}
		logging.Info("🔐 Мутации сцены требуют токен с ролью builder")
	} else {
		logging.Warn("⚠️ auth_secret не задан: REST API открыт для изменений")
	}

	a.Server, err = api.NewRestServer(api.Config{
		Addr:        fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		Coordinator: coord,
		Issuer:      issuer,
		Registry:    a.Registry,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		bus.Close()
		return nil, err
	}

	if cfg.EventBus.Backend != config.BusNone {
		if a.listener, err = eventbus.StartLoggingListener(ctx, bus); err != nil {
			bus.Close()
			return nil, err
		}
	}

	logging.Info("✅ Стек собран: %d типов кирпичей, шина %s", len(cat.Types()), cfg.EventBus.Backend)
	return a, nil
}

// Run блокируется, пока REST сервер не остановлен
func (a *App) Run() error {
	return a.Server.Start()
}

// Shutdown останавливает сервер и закрывает шину
func (a *App) Shutdown(ctx context.Context) error {
	logging.Info("📊 %s", a.Coordinator.IndexStats())

	var errs []error
	if err := a.Server.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("rest: %w", err))
	}
	if a.listener != nil {
		a.listener.Unsubscribe()
	}
	if err := a.Bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("eventbus: %w", err))
	}
	return errors.Join(errs...)
}

// LoadCatalog читает каталог из YAML или возвращает встроенный
func LoadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	logging.Info("📦 Каталог загружен из %s", path)
	return cat, nil
}

// NewBus создаёт шину событий по имени бэкенда
func NewBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	switch cfg.Backend {
	case "", config.BusMemory:
		return eventbus.NewMemoryBus(cfg.BufferSize), nil
	case config.BusNATS:
		bus, err := eventbus.NewNATSBus(cfg.URL, cfg.Subject)
		if err != nil {
			return nil, fmt.Errorf("eventbus: %w", err)
		}
		return bus, nil
	case config.BusNone:
		return eventbus.NewNopBus(), nil
	default:
		return nil, fmt.Errorf("eventbus: unknown backend %q", cfg.Backend)
	}
}

// NewCoordinator создаёт координатор с параметрами из секции build
func NewCoordinator(cfg config.BuildConfig, cat *catalog.Catalog, sink world.MutationSink, rec world.Recorder) (*world.Coordinator, error) {
	var color catalog.Color
	if cfg.DefaultColor != "" {
		parsed, err := catalog.ParseColor(cfg.DefaultColor)
		if err != nil {
			named, ok := cat.ColorByName(cfg.DefaultColor)
			if !ok {
				return nil, fmt.Errorf("build.default_color: %w", err)
			}
			parsed = named
		}
		color = parsed
	}

	return world.NewCoordinator(cat, world.Options{
		Epsilon:        cfg.Epsilon,
		MaxHistory:     cfg.MaxHistory,
		RejectOccupied: cfg.RejectOccupied,
		DefaultType:    cfg.DefaultBrick,
		DefaultColor:   color,
		Sink:           sink,
		Metrics:        rec,
	})
}
