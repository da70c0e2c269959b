// metrics.go — Prometheus HTTP метрики Media Fetcher.
// Регистрирует метрики: mf_http_requests_total, mf_http_request_duration_seconds.
// Имена файлов и id скачиваний в путях заменяются шаблонами,
// чтобы не раздувать кардинальность.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики Media Fetcher
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mf_http_requests_total",
			Help: "Общее количество HTTP-запросов к Media Fetcher",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	// Скачивание синхронное, поэтому верхние бакеты в минутах.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mf_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Media Fetcher в секундах",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 15, 60, 300, 900, 1800},
		},
		[]string{"method", "path"},
	)
)

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// Шаблоны динамических путей.
var dynamicPrefixes = []struct {
	prefix   string
	template string
}{
	{"/download-file/", "/download-file/{filename}"},
	{"/file/", "/file/{filename}"},
	{"/downloads/", "/downloads/{download_id}"},
}

// normalizePath приводит путь к шаблону маршрута.
// /download-file/abcd1234_Clip.mp4 → /download-file/{filename}
// Неизвестные пути схлопываются в "other".
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/", "/info", "/download", "/files",
		"/health/live", "/health/ready", "/metrics", "/openapi.yaml":
		return path
	}

	for _, p := range dynamicPrefixes {
		if len(path) > len(p.prefix) && strings.HasPrefix(path, p.prefix) {
			return p.template
		}
	}

	return "other"
}
