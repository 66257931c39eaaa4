package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "brick.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWithoutPath(t *testing.T) {
	t.Setenv("BRICK_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Build.RejectOccupied, "Проверка занятости включена по умолчанию")
	assert.Equal(t, BusMemory, cfg.EventBus.Backend)
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := writeConfig(t, `
server:
  rest_port: 9090
build:
  epsilon: 0.02
  reject_occupied: false
  max_history: 50
eventbus:
  backend: NATS
  url: nats://bus:4222
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.GetRESTPort())
	assert.Equal(t, 0.02, cfg.Build.Epsilon)
	assert.False(t, cfg.Build.RejectOccupied)
	assert.Equal(t, 50, cfg.Build.MaxHistory)
	assert.Equal(t, BusNATS, cfg.EventBus.Backend, "Бэкенд нормализуется к нижнему регистру")
	assert.Equal(t, "bricks", cfg.EventBus.Subject, "Незаданные поля берутся из дефолтов")
	assert.Equal(t, "b11", cfg.Build.DefaultBrick)
}

func TestLoad_FromEnv(t *testing.T) {
	path := writeConfig(t, "build:\n  default_brick: p12\n")
	t.Setenv("BRICK_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "p12", cfg.Build.DefaultBrick)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [broken"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "eventbus:\n  backend: kafka\n"))
	assert.ErrorContains(t, err, "eventbus.backend")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Build.Epsilon = -1
	cfg.Build.MaxHistory = -5
	cfg.EventBus.Backend = BusNATS
	cfg.EventBus.URL = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "build.epsilon")
	assert.ErrorContains(t, err, "build.max_history")
	assert.ErrorContains(t, err, "eventbus.url")
}

func TestGetRESTPort_Fallback(t *testing.T) {
	s := ServerConfig{}

	t.Setenv("BRICK_REST_PORT", "")
	assert.Equal(t, 8088, s.GetRESTPort(), "Порт по умолчанию")

	t.Setenv("BRICK_REST_PORT", "7000")
	assert.Equal(t, 7000, s.GetRESTPort(), "Порт из окружения")

	t.Setenv("BRICK_REST_PORT", "oops")
	assert.Equal(t, 8088, s.GetRESTPort(), "Некорректное значение игнорируется")

	s.RESTPort = 9999
	assert.Equal(t, 9999, s.GetRESTPort(), "Конфиг важнее окружения")
}

func TestLoad_SampleConfig(t *testing.T) {
	cfg, err := Load("../../configs/sandbox.yaml")
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.GetRESTPort())
	assert.Equal(t, 500, cfg.Build.MaxHistory)
	assert.Equal(t, "Blue", cfg.Build.DefaultColor)
	assert.Equal(t, BusMemory, cfg.EventBus.Backend)
	assert.False(t, cfg.Telemetry.Enabled)
}
