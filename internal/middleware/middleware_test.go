package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/annel0/brick-sandbox/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, service string) (*gin.Engine, *prometheus.Registry, *PrometheusMiddleware) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// Новый регистр для изоляции тестов
	registry := prometheus.NewRegistry()
	r := gin.New()
	promMw := NewPrometheusMiddleware(service, registry, registry)
	r.Use(promMw.Handler())
	return r, registry, promMw
}

func doGet(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestPrometheusMiddleware_BasicMetrics(t *testing.T) {
	r, registry, _ := newTestRouter(t, "test")

	r.GET("/test", func(c *gin.Context) {
		time.Sleep(10 * time.Millisecond) // Симулируем задержку
		c.JSON(200, gin.H{"ok": true})
	})
	r.GET("/error", func(c *gin.Context) {
		c.JSON(500, gin.H{"error": "test error"})
	})

	assert.Equal(t, 200, doGet(r, "/test").Code)
	assert.Equal(t, 500, doGet(r, "/error").Code)

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	var durationFound, errorsFound bool
	for _, mf := range metricFamilies {
		switch mf.GetName() {
		case "test_http_request_duration_seconds":
			durationFound = true
			assert.Equal(t, "Длительность HTTP-запросов.", mf.GetHelp())
			// Должно быть 2 серии
			assert.Len(t, mf.Metric, 2)
		case "test_http_request_errors_total":
			errorsFound = true
			// Должна быть 1 ошибка (500 статус)
			require.Len(t, mf.Metric, 1)
			assert.Equal(t, float64(1), mf.Metric[0].GetCounter().GetValue())
		}
	}

	assert.True(t, durationFound, "Duration metric not found")
	assert.True(t, errorsFound, "Errors metric not found")
}

func TestPrometheusMiddleware_InflightRequests(t *testing.T) {
	r, registry, _ := newTestRouter(t, "test")

	entered := make(chan struct{})
	release := make(chan struct{})
	r.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.JSON(200, gin.H{"ok": true})
	})

	done := make(chan struct{})
	go func() {
		doGet(r, "/slow")
		close(done)
	}()
	<-entered

	inflight := func() float64 {
		metricFamilies, err := registry.Gather()
		require.NoError(t, err)
		for _, mf := range metricFamilies {
			if mf.GetName() == "test_http_requests_inflight" {
				return mf.Metric[0].GetGauge().GetValue()
			}
		}
		t.Fatal("Inflight metric not found")
		return 0
	}

	// Должен быть 1 активный запрос
	assert.Equal(t, float64(1), inflight())

	close(release)
	<-done
	assert.Equal(t, float64(0), inflight())
}

func TestPrometheusMiddleware_UnmatchedPath(t *testing.T) {
	r, registry, _ := newTestRouter(t, "unmatched_test")

	for _, p := range []string{"/a", "/b", "/c"} {
		assert.Equal(t, 404, doGet(r, p).Code)
	}

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range metricFamilies {
		if mf.GetName() == "unmatched_test_http_request_errors_total" {
			require.Len(t, mf.Metric, 1, "Неизвестные пути сворачиваются в одну серию")
			assert.Equal(t, float64(3), mf.Metric[0].GetCounter().GetValue())
		}
	}
}

func TestPrometheusMiddleware_ErrorCounting(t *testing.T) {
	r, registry, _ := newTestRouter(t, "error_test")

	r.GET("/400", func(c *gin.Context) { c.JSON(400, gin.H{"error": "bad request"}) })
	r.GET("/401", func(c *gin.Context) { c.JSON(401, gin.H{"error": "unauthorized"}) })
	r.GET("/500", func(c *gin.Context) { c.JSON(500, gin.H{"error": "internal error"}) })
	r.GET("/200", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	for _, endpoint := range []string{"/400", "/401", "/500", "/200", "/200"} {
		doGet(r, endpoint)
	}

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	var totalErrors float64
	for _, mf := range metricFamilies {
		if mf.GetName() == "error_test_http_request_errors_total" {
			for _, metric := range mf.Metric {
				totalErrors += metric.GetCounter().GetValue()
			}
		}
	}

	// Должно быть 3 ошибки (400, 401, 500)
	assert.Equal(t, float64(3), totalErrors)
}

func TestPrometheusMiddleware_MetricsEndpoint(t *testing.T) {
	r, _, promMw := newTestRouter(t, "endpoint_test")
	promMw.RegisterMetricsEndpoint(r)

	r.GET("/api/test", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	assert.Equal(t, 200, doGet(r, "/api/test").Code)

	w := doGet(r, "/metrics")
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	body := w.Body.String()
	assert.Contains(t, body, "# HELP", "Should contain Prometheus help text")
	assert.Contains(t, body, "endpoint_test_http_request_duration_seconds")
}

func TestRequestLogger_TraceID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	var buf bytes.Buffer
	logger, err := logging.NewLoggerWithOptions(logging.Options{Component: "api", ConsoleLevel: logging.DEBUG, Console: &buf})
	require.NoError(t, err)
	r.Use(NewRequestLogger(logger).Handler())

	var capturedTraceID string
	r.GET("/test", func(c *gin.Context) {
		traceID, exists := c.Get(TraceIDKey)
		require.True(t, exists, "trace_id should be set in context")
		capturedTraceID = traceID.(string)
		c.JSON(200, gin.H{"trace_id": capturedTraceID})
	})

	w := doGet(r, "/test")

	assert.Equal(t, 200, w.Code)
	assert.NotEmpty(t, capturedTraceID, "trace_id should not be empty")
	assert.Contains(t, w.Body.String(), capturedTraceID)
	assert.Equal(t, capturedTraceID, w.Header().Get(TraceIDHeader))

	out := buf.String()
	assert.Contains(t, out, "[HTTP] ▶ GET /test")
	assert.Contains(t, out, "[HTTP] ◀ GET /test 200")
	assert.Contains(t, out, capturedTraceID)
}

func TestMiddleware_Integration(t *testing.T) {
	r, registry, _ := newTestRouter(t, "integration_test")
	r.Use(NewRequestLogger(nil).Handler())

	r.GET("/api/v1/test", func(c *gin.Context) {
		traceID, _ := c.Get(TraceIDKey)
		c.JSON(200, gin.H{"status": "ok", "trace_id": traceID})
	})

	for i := 0; i < 5; i++ {
		assert.Equal(t, 200, doGet(r, "/api/v1/test").Code)
	}

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)

	var requestsCount int
	for _, mf := range metricFamilies {
		if mf.GetName() == "integration_test_http_request_duration_seconds" {
			for _, metric := range mf.Metric {
				requestsCount += int(metric.GetHistogram().GetSampleCount())
			}
		}
	}

	assert.Equal(t, 5, requestsCount, "Should have recorded 5 requests")
}

// BenchmarkPrometheusMiddleware измеряет overhead middleware
func BenchmarkPrometheusMiddleware(b *testing.B) {
	registry := prometheus.NewRegistry()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	promMw := NewPrometheusMiddleware("bench", registry, registry)
	r.Use(promMw.Handler())
	r.GET("/bench", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			doGet(r, "/bench")
		}
	})
}
