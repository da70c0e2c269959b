// Пакет service — бизнес-логика Media Fetcher.
// InfoService — получение метаданных медиа и списка форматов.
package service

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/mediafetch/internal/domain/formats"
	"github.com/bigkaa/mediafetch/internal/domain/model"
)

// Значения по умолчанию для отсутствующих полей метаданных.
const (
	DefaultTitle    = "Unknown Title"
	DefaultUploader = "Unknown"

	// DescriptionLimit — максимальная длина описания в символах.
	DescriptionLimit = 200
)

// Prometheus-метрики info.
var (
	infoRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mf_info_requests_total",
		Help: "Общее количество запросов метаданных (по статусу).",
	}, []string{"status"})

	extractDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mf_extract_duration_seconds",
		Help:    "Длительность извлечения метаданных экстрактором.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})
)

// Extractor — внешний инструмент извлечения медиа (yt-dlp).
type Extractor interface {
	// Extract возвращает метаданные и форматы без скачивания.
	Extract(ctx context.Context, url string) (*model.ExtractorResult, error)
	// Download скачивает формат formatID по шаблону имени outputTemplate
	// и возвращает путь итогового файла, как его сообщил экстрактор.
	Download(ctx context.Context, url, formatID, outputTemplate string) (string, error)
}

// InfoService — сервис метаданных медиа.
type InfoService struct {
	extractor  Extractor
	maxFormats int
	logger     *slog.Logger
}

// NewInfoService создаёт сервис метаданных.
// maxFormats — сколько форматов отдавать клиенту (обычно 15).
func NewInfoService(extractor Extractor, maxFormats int, logger *slog.Logger) *InfoService {
	return &InfoService{
		extractor:  extractor,
		maxFormats: maxFormats,
		logger:     logger.With(slog.String("component", "info_service")),
	}
}

// GetInfo извлекает метаданные по URL и собирает ответ для клиента.
// Ошибки экстрактора возвращаются как FaultExtraction с исходным текстом.
func (s *InfoService) GetInfo(ctx context.Context, url string) (*model.VideoMetadata, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		infoRequestsTotal.WithLabelValues("invalid").Inc()
		return nil, newFault(FaultInvalid, "Параметр url обязателен", nil)
	}

	start := time.Now()
	raw, err := s.extractor.Extract(ctx, url)
	extractDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		infoRequestsTotal.WithLabelValues("error").Inc()
		s.logger.Warn("Ошибка извлечения метаданных",
			slog.String("url", url),
			slog.String("error", err.Error()),
		)
		return nil, newFault(FaultExtraction, err.Error(), err)
	}

	resp := BuildInfoResponse(raw, s.maxFormats)
	infoRequestsTotal.WithLabelValues("success").Inc()

	s.logger.Debug("Метаданные получены",
		slog.String("url", url),
		slog.String("title", resp.Title),
		slog.Int("raw_formats", len(raw.Formats)),
		slog.Int("formats", len(resp.Formats)),
	)
	return resp, nil
}

// BuildInfoResponse собирает VideoMetadata из сырого результата экстрактора.
// Не возвращает ошибок: отсутствующие поля заменяются значениями по умолчанию.
func BuildInfoResponse(raw *model.ExtractorResult, maxFormats int) *model.VideoMetadata {
	if raw == nil {
		raw = &model.ExtractorResult{}
	}

	uploader := stringOr(raw.Uploader, DefaultUploader)

	return &model.VideoMetadata{
		Title:       stringOr(raw.Title, DefaultTitle),
		Author:      uploader,
		Uploader:    uploader,
		Duration:    durationSeconds(raw.Duration),
		Thumbnail:   pickThumbnail(raw),
		Description: truncateRunes(stringOr(raw.Description, ""), DescriptionLimit),
		ViewCount:   raw.ViewCount,
		UploadDate:  raw.UploadDate,
		Formats:     formats.Normalize(raw.Formats, maxFormats),
	}
}

// pickThumbnail выбирает последнюю превью из списка (у источника это
// наибольшее разрешение), иначе одиночное поле thumbnail, иначе nil.
func pickThumbnail(raw *model.ExtractorResult) *string {
	for i := len(raw.Thumbnails) - 1; i >= 0; i-- {
		if u := raw.Thumbnails[i].URL; u != "" {
			return &u
		}
	}
	if raw.Thumbnail != nil && *raw.Thumbnail != "" {
		u := *raw.Thumbnail
		return &u
	}
	return nil
}

// truncateRunes обрезает строку до limit символов (не байт).
func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

// durationSeconds приводит длительность к целым секундам, не меньше 0.
func durationSeconds(d *float64) int64 {
	if d == nil || math.IsNaN(*d) || math.IsInf(*d, 0) || *d <= 0 {
		return 0
	}
	return int64(*d)
}

func stringOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}
