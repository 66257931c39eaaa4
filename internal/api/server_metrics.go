package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ServerMetrics собирает сведения о процессе для /api/server
type ServerMetrics struct {
	StartTime time.Time
}

// NewServerMetrics создает новый экземпляр метрик
func NewServerMetrics() *ServerMetrics {
	return &ServerMetrics{StartTime: time.Now()}
}

// GetUptime возвращает время работы сервера
func (sm *ServerMetrics) GetUptime() string {
	return formatUptime(time.Since(sm.StartTime))
}

func formatUptime(uptime time.Duration) string {
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// GetMemoryUsage возвращает использование памяти в MB
func (sm *ServerMetrics) GetMemoryUsage() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.Alloc) / 1024 / 1024
}

// GetCPUUsage возвращает использование CPU процессом в процентах
func (sm *ServerMetrics) GetCPUUsage() (float64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err == nil {
		if percent, perr := proc.CPUPercent(); perr == nil {
			return percent, nil
		}
	}

	// Если не удалось получить метрику процесса, берём системную
	percents, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("cpu percent: no samples")
	}
	return percents[0], nil
}

// ServerInfo ответ /api/server
type ServerInfo struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Status     string `json:"status"`
	Uptime     string `json:"uptime"`
	MemoryMB   string `json:"memory_mb"`
	CPUPercent string `json:"cpu_percent"`
	Goroutines int    `json:"goroutines"`
	Bricks     int    `json:"bricks"`
}

// Info собирает ServerInfo; ошибка CPU не фатальна
func (sm *ServerMetrics) Info(version string, bricks int) ServerInfo {
	cpuPercent, _ := sm.GetCPUUsage()
	return ServerInfo{
		Name:       "Brick Sandbox",
		Version:    version,
		Status:     "running",
		Uptime:     sm.GetUptime(),
		MemoryMB:   fmt.Sprintf("%.1f", sm.GetMemoryUsage()),
		CPUPercent: fmt.Sprintf("%.1f", cpuPercent),
		Goroutines: runtime.NumGoroutine(),
		Bricks:     bricks,
	}
}
