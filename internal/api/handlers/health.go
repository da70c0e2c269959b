// health.go — обработчики health endpoints Media Fetcher.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (хранилище доступно на запись, источник медиа)
// /metrics — Prometheus метрики
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/mediafetch/internal/config"
)

// serviceName — значение поля service в ответах health.
const serviceName = "media-fetcher"

// Константы статусов health check.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFail     = "fail"
)

// ReadinessChecker — интерфейс проверки готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "degraded", "fail") и сообщение.
	CheckReady() (status, message string)
}

// StorageChecker — проверка записи в хранилище.
type StorageChecker interface {
	CheckWritable() error
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	storage StorageChecker
	// upstream — мониторинг источника медиа (nil — не настроен)
	upstream    ReadinessChecker
	promHandler http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// upstream может быть nil: проверка источника тогда не выполняется.
func NewHealthHandler(storage StorageChecker, upstream ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		storage:     storage,
		upstream:    upstream,
		promHandler: promhttp.Handler(),
	}
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ liveness probe.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ readiness probe.
type healthReadyResponse struct {
	Status    string                       `json:"status"`
	Timestamp string                       `json:"timestamp"`
	Version   string                       `json:"version"`
	Service   string                       `json:"service"`
	Checks    map[string]healthCheckResult `json:"checks"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	resp := healthLiveResponse{
		Status:    statusOK,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// HealthReady — readiness probe.
// Хранилище критично: без записи скачивания невозможны (fail, 503).
// Источник медиа некритичен: уже скачанные файлы отдаются (degraded, 200).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
		Checks:    make(map[string]healthCheckResult, 2),
	}

	storageCheck := h.checkStorage()
	resp.Checks["storage"] = storageCheck
	statuses := []string{storageCheck.Status}

	if h.upstream != nil {
		st, msg := h.upstream.CheckReady()
		// Источник не может сделать сервис неготовым
		if st == statusFail {
			st = statusDegraded
		}
		resp.Checks["upstream"] = healthCheckResult{Status: st, Message: msg}
		statuses = append(statuses, st)
	}

	resp.Status = overallStatus(statuses...)

	w.Header().Set("Content-Type", "application/json")
	if resp.Status == statusFail {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// checkStorage проверяет, что в корень хранилища можно писать.
func (h *HealthHandler) checkStorage() healthCheckResult {
	if h.storage == nil {
		return healthCheckResult{Status: statusFail, Message: "не инициализировано"}
	}
	if err := h.storage.CheckWritable(); err != nil {
		return healthCheckResult{
			Status:  statusFail,
			Message: "Хранилище недоступно для записи: " + err.Error(),
		}
	}
	return healthCheckResult{Status: statusOK}
}

// overallStatus определяет итоговый статус из статусов зависимостей.
// Если хотя бы одна зависимость fail — итог fail.
// Если хотя бы одна degraded — итог degraded.
// Иначе — ok.
func overallStatus(statuses ...string) string {
	hasDegraded := false
	for _, s := range statuses {
		if s == statusFail {
			return statusFail
		}
		if s == statusDegraded {
			hasDegraded = true
		}
	}
	if hasDegraded {
		return statusDegraded
	}
	return statusOK
}
