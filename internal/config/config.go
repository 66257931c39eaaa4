package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации песочницы.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Build     BuildConfig     `yaml:"build"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	RESTPort   int    `yaml:"rest_port"`
	AuthSecret string `yaml:"auth_secret"` // base64, пусто - без авторизации
}

// BuildConfig параметры конструктора
type BuildConfig struct {
	Epsilon        float64 `yaml:"epsilon"`
	RejectOccupied bool    `yaml:"reject_occupied"`
	MaxHistory     int     `yaml:"max_history"` // 0 - без ограничения
	DefaultBrick   string  `yaml:"default_brick"`
	DefaultColor   string  `yaml:"default_color"`
	CatalogPath    string  `yaml:"catalog_path"` // пусто - встроенный каталог
}

// Бэкенды шины событий
const (
	BusMemory = "memory"
	BusNATS   = "nats"
	BusNone   = "none"
)

type EventBusConfig struct {
	Backend    string `yaml:"backend"`
	URL        string `yaml:"url"`
	Subject    string `yaml:"subject"`
	BufferSize int    `yaml:"buffer_size"`
}

type LoggingConfig struct {
	Dir          string `yaml:"dir"` // пусто - только консоль
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{RESTPort: 0},
		Build: BuildConfig{
			Epsilon:        0.01,
			RejectOccupied: true,
			DefaultBrick:   "b11",
			DefaultColor:   "#007aff",
		},
		EventBus: EventBusConfig{
			Backend:    BusMemory,
			URL:        "nats://127.0.0.1:4222",
			Subject:    "bricks",
			BufferSize: 256,
		},
		Logging: LoggingConfig{
			Dir:          "logs",
			ConsoleLevel: "INFO",
			FileLevel:    "DEBUG",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "brick-sandbox",
		},
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "BRICK_REST_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл поверх значений по умолчанию.
// Если path == "", берётся ENV BRICK_CONFIG; если и он пуст - возвращаются дефолты.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("BRICK_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	var errs []error

	if c.Server.RESTPort < 0 || c.Server.RESTPort > 65535 {
		errs = append(errs, fmt.Errorf("server.rest_port out of range: %d", c.Server.RESTPort))
	}
	if c.Build.Epsilon < 0 {
		errs = append(errs, fmt.Errorf("build.epsilon must be >= 0, got %v", c.Build.Epsilon))
	}
	if c.Build.MaxHistory < 0 {
		errs = append(errs, fmt.Errorf("build.max_history must be >= 0, got %d", c.Build.MaxHistory))
	}

	c.EventBus.Backend = strings.ToLower(strings.TrimSpace(c.EventBus.Backend))
	switch c.EventBus.Backend {
	case "", BusMemory, BusNATS, BusNone:
	default:
		errs = append(errs, fmt.Errorf("eventbus.backend unknown: %q", c.EventBus.Backend))
	}
	if c.EventBus.Backend == BusNATS && c.EventBus.URL == "" {
		errs = append(errs, errors.New("eventbus.url is required for nats backend"))
	}
	if c.EventBus.BufferSize < 0 {
		errs = append(errs, fmt.Errorf("eventbus.buffer_size must be >= 0, got %d", c.EventBus.BufferSize))
	}

	return errors.Join(errs...)
}
