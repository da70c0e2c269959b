// handler.go — основной обработчик API, реализующий routes.ServerInterface.
// Бизнес-логика — в сервисном слое, здесь только разбор запроса,
// вызов сервиса и запись ответа.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/mediafetch/internal/api/errors"
	"github.com/bigkaa/mediafetch/internal/api/openapi"
	"github.com/bigkaa/mediafetch/internal/api/routes"
	"github.com/bigkaa/mediafetch/internal/domain/model"
	"github.com/bigkaa/mediafetch/internal/service"
)

// RootMessage — ответ GET /.
const RootMessage = "Server is running"

// Пагинация GET /files.
const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// APIHandler — основной обработчик API Media Fetcher.
type APIHandler struct {
	info      *service.InfoService
	downloads *service.DownloadService
	delivery  *service.DeliveryService
	health    *HealthHandler
	logger    *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	info *service.InfoService,
	downloads *service.DownloadService,
	delivery *service.DeliveryService,
	health *HealthHandler,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		info:      info,
		downloads: downloads,
		delivery:  delivery,
		health:    health,
		logger:    logger.With(slog.String("component", "api_handler")),
	}
}

// Проверка на этапе компиляции
var _ routes.ServerInterface = (*APIHandler)(nil)

// GetRoot — проверка, что сервер запущен.
func (h *APIHandler) GetRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": RootMessage})
}

// GetInfo — метаданные медиа и список форматов.
func (h *APIHandler) GetInfo(w http.ResponseWriter, r *http.Request, params routes.GetInfoParams) {
	meta, err := h.info.GetInfo(r.Context(), params.Url)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

// downloadResponse — ответ POST /download.
type downloadResponse struct {
	DownloadID string               `json:"download_id"`
	Filename   string               `json:"filename"`
	Status     model.DownloadStatus `json:"status"`
}

// StartDownload — синхронное скачивание формата в хранилище.
func (h *APIHandler) StartDownload(w http.ResponseWriter, r *http.Request, params routes.StartDownloadParams) {
	rec, err := h.downloads.Download(r.Context(), params.Url, params.FormatId)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, downloadResponse{
		DownloadID: rec.DownloadID,
		Filename:   rec.Filename,
		Status:     rec.Status,
	})
}

// GetDownload — запись о недавнем скачивании.
func (h *APIHandler) GetDownload(w http.ResponseWriter, r *http.Request, downloadID string) {
	rec, err := h.downloads.Lookup(downloadID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// StreamFile — отдача файла с типом по расширению.
func (h *APIHandler) StreamFile(w http.ResponseWriter, r *http.Request, filename string) {
	if err := h.delivery.Serve(w, r, filename, service.DeliveryAttachment); err != nil {
		h.writeServiceError(w, r, err)
	}
}

// FetchFile — отдача файла как application/octet-stream.
func (h *APIHandler) FetchFile(w http.ResponseWriter, r *http.Request, filename string) {
	if err := h.delivery.Serve(w, r, filename, service.DeliveryOctet); err != nil {
		h.writeServiceError(w, r, err)
	}
}

// fileListResponse — ответ GET /files.
type fileListResponse struct {
	Items   []model.StoredFile `json:"items"`
	Total   int                `json:"total"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
	HasMore bool               `json:"has_more"`
}

// ListFiles — список сохранённых файлов.
func (h *APIHandler) ListFiles(w http.ResponseWriter, r *http.Request, params routes.ListFilesParams) {
	limit, offset := paginationDefaults(params.Limit, params.Offset)

	items, total, err := h.delivery.List(limit, offset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fileListResponse{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+len(items) < total,
	})
}

// --- Health endpoints (делегируются в HealthHandler) ---

// HealthLive — liveness probe.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// GetOpenAPI — встроенный OpenAPI-контракт.
func (h *APIHandler) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapi.Contract())
}

// --- Вспомогательные функции ---

// writeServiceError записывает ошибку сервисного слоя.
// Если клиент уже отключился, ответ не пишется.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		h.logger.Info("Клиент отключился до завершения запроса",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		return
	}
	if service.KindOf(err) == service.FaultInternal {
		h.logger.Error("Внутренняя ошибка",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	apierrors.WriteFault(w, err)
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// paginationDefaults нормализует параметры пагинации.
// Возвращает корректные limit и offset.
func paginationDefaults(limit, offset *int) (limitVal, offsetVal int) {
	l := defaultListLimit
	o := 0

	if limit != nil {
		l = *limit
		if l < 1 {
			l = 1
		}
		if l > maxListLimit {
			l = maxListLimit
		}
	}

	if offset != nil {
		o = *offset
		if o < 0 {
			o = 0
		}
	}

	return l, o
}
