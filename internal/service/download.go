// download.go — сервис скачивания медиа в корень хранилища.
// Pipeline: допуск → download_id → шаблон имени → экстрактор →
// поиск итогового файла → запись в реестр.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/mediafetch/internal/domain/model"
	"github.com/bigkaa/mediafetch/internal/storage/filestore"
)

// DownloadIDLength — длина download_id.
const DownloadIDLength = 8

// titleTemplate — часть имени после download_id, подставляется экстрактором.
const titleTemplate = "%(title)s.%(ext)s"

// Prometheus-метрики download.
var (
	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mf_downloads_total",
		Help: "Общее количество скачиваний (по статусу).",
	}, []string{"status"})

	downloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mf_download_duration_seconds",
		Help:    "Длительность скачивания от допуска до появления файла.",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800},
	})

	activeDownloads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mf_active_downloads",
		Help: "Количество выполняющихся скачиваний.",
	})
)

// DownloadService — сервис скачивания медиа.
type DownloadService struct {
	extractor Extractor
	store     *filestore.FileStore
	registry  *Registry
	admission *Admission
	logger    *slog.Logger
	// newID — генератор download_id (подменяется в тестах)
	newID func() string
}

// NewDownloadService создаёт сервис скачивания.
// admission может быть nil — тогда скачивания не ограничиваются.
func NewDownloadService(
	extractor Extractor,
	store *filestore.FileStore,
	registry *Registry,
	admission *Admission,
	logger *slog.Logger,
) *DownloadService {
	return &DownloadService{
		extractor: extractor,
		store:     store,
		registry:  registry,
		admission: admission,
		logger:    logger.With(slog.String("component", "download_service")),
		newID:     newDownloadID,
	}
}

// newDownloadID возвращает первые 8 символов UUIDv4.
func newDownloadID() string {
	return uuid.New().String()[:DownloadIDLength]
}

// Download скачивает формат formatID медиа по url в корень хранилища.
//
// Pipeline:
//  1. Проверка входных данных
//  2. Допуск: слот параллельности и свободное место
//  3. download_id и шаблон {root}/{download_id}_%(title)s.%(ext)s
//  4. Скачивание экстрактором (без повторов, частичные файлы не удаляются)
//  5. Поиск итогового файла в корне
//  6. Запись результата в реестр
//
// Ошибки экстрактора — FaultExtraction с исходным текстом,
// отсутствие итогового файла — FaultStorage.
func (s *DownloadService) Download(ctx context.Context, url, formatID string) (*model.DownloadRecord, error) {
	url = strings.TrimSpace(url)
	formatID = strings.TrimSpace(formatID)
	if url == "" {
		return nil, newFault(FaultInvalid, "Параметр url обязателен", nil)
	}
	if formatID == "" {
		return nil, newFault(FaultInvalid, "Параметр format_id обязателен", nil)
	}

	// 2. Допуск
	if s.admission != nil {
		release, err := s.admission.Acquire(ctx)
		if err != nil {
			downloadsTotal.WithLabelValues("rejected").Inc()
			return nil, err
		}
		defer release()
	}

	activeDownloads.Inc()
	defer activeDownloads.Dec()

	// 3. Идентификатор и шаблон имени
	downloadID := s.newID()
	record := &model.DownloadRecord{
		DownloadID: downloadID,
		URL:        url,
		FormatID:   formatID,
		StartedAt:  time.Now().UTC(),
	}
	template := filepath.Join(s.store.DataDir(), downloadID+"_"+titleTemplate)

	s.logger.Info("Скачивание начато",
		slog.String("download_id", downloadID),
		slog.String("url", url),
		slog.String("format_id", formatID),
	)

	// 4. Экстрактор
	start := time.Now()
	reported, err := s.extractor.Download(ctx, url, formatID, template)
	if err != nil {
		s.fail(record, err)
		return nil, newFault(FaultExtraction, err.Error(), err)
	}

	// 5. Итоговый файл
	filename, err := s.locate(downloadID, reported)
	if err != nil {
		s.fail(record, err)
		return nil, newFault(FaultStorage, "Скачанный файл не найден в хранилище", err)
	}

	if f, info, err := s.store.Open(filename); err == nil {
		record.SizeBytes = info.Size()
		f.Close()
	}

	// 6. Реестр
	completed := time.Now().UTC()
	record.Filename = filename
	record.Status = model.DownloadCompleted
	record.CompletedAt = &completed
	s.registry.Put(record)

	downloadsTotal.WithLabelValues("success").Inc()
	downloadDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("Скачивание завершено",
		slog.String("download_id", downloadID),
		slog.String("filename", filename),
		slog.Int64("size", record.SizeBytes),
		slog.Duration("duration", time.Since(start)),
	)

	return &model.DownloadRecord{
		DownloadID: downloadID,
		Filename:   filename,
		Status:     model.DownloadCompleted,
	}, nil
}

// Lookup возвращает запись о недавнем скачивании.
func (s *DownloadService) Lookup(downloadID string) (*model.DownloadRecord, error) {
	rec, ok := s.registry.Get(downloadID)
	if !ok {
		return nil, newFault(FaultNotFound, fmt.Sprintf("Скачивание %s не найдено", downloadID), nil)
	}
	return rec, nil
}

// locate определяет имя итогового файла в корне.
// Сначала проверяется путь, сообщённый экстрактором; если его нет
// (слияние потоков сменило расширение) — ищется самый новый файл
// с префиксом download_id.
func (s *DownloadService) locate(downloadID, reported string) (string, error) {
	prefix := downloadID + "_"

	if reported != "" {
		name := filepath.Base(reported)
		if strings.HasPrefix(name, prefix) && s.store.FileExists(name) {
			return name, nil
		}
	}

	name, err := s.store.FindByPrefix(prefix)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) {
			return "", fmt.Errorf("файл с префиксом %s отсутствует (экстрактор сообщил %q)", prefix, reported)
		}
		return "", err
	}
	return name, nil
}

// fail записывает неудачное скачивание в реестр и метрики.
func (s *DownloadService) fail(record *model.DownloadRecord, err error) {
	completed := time.Now().UTC()
	record.Status = model.DownloadFailed
	record.Error = err.Error()
	record.CompletedAt = &completed
	s.registry.Put(record)

	downloadsTotal.WithLabelValues("error").Inc()

	s.logger.Warn("Скачивание завершилось ошибкой",
		slog.String("download_id", record.DownloadID),
		slog.String("url", record.URL),
		slog.String("format_id", record.FormatID),
		slog.String("error", err.Error()),
	)
}
