// dephealth.go — интеграция с topologymetrics SDK для мониторинга
// доступности источника медиа.
//
// Media Fetcher мониторит одну необязательную зависимость:
//   - upstream — HTTP checker к MF_DEPHEALTH_URL (обычно хост источника, non-critical)
//
// Недоступность источника не делает сервис неготовым: отдача уже скачанных
// файлов продолжает работать, поэтому /health/ready показывает degraded.
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
//   - app_dependency_status — категория статуса
//   - app_dependency_status_detail — детальный статус
package service

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // регистрация HTTP checker factory
	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamDependency — имя зависимости источника медиа в метриках.
const UpstreamDependency = "upstream"

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга источника медиа.
// Метрики регистрируются в глобальном Prometheus registry.
//
// Параметры:
//   - serviceID — имя вершины графа текущего приложения (MF_SERVICE_NAME)
//   - group — имя группы в метриках
//   - upstreamURL — URL проверки; путь URL используется как health path
//   - checkInterval — интервал проверки (MF_DEPHEALTH_CHECK_INTERVAL)
func NewDephealthService(
	serviceID string,
	group string,
	upstreamURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, upstreamURL, checkInterval, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	serviceID string,
	group string,
	upstreamURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, upstreamURL, checkInterval, logger,
		dephealth.WithRegisterer(registerer))
}

func newDephealthService(
	serviceID string,
	group string,
	upstreamURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	healthPath := "/"
	depOpts := []dephealth.DependencyOption{
		dephealth.FromURL(upstreamURL),
		dephealth.CheckInterval(checkInterval),
		dephealth.Critical(false),
	}

	if parsed, err := url.Parse(upstreamURL); err == nil {
		if parsed.Path != "" {
			healthPath = parsed.Path
		}
		if parsed.Scheme == "https" {
			depOpts = append(depOpts, dephealth.WithHTTPTLSSkipVerify(false))
		}
	}
	depOpts = append(depOpts, dephealth.WithHTTPHealthPath(healthPath))

	opts := make([]dephealth.Option, 0, 2+len(extraOpts))
	opts = append(opts,
		dephealth.WithLogger(logger),
		dephealth.HTTP(UpstreamDependency, depOpts...),
	)
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(serviceID, group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг источника медиа запущен")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг источника медиа остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}

// CheckReady реализует проверку готовности для /health/ready.
// Источник не критичен: при сбое возвращается degraded.
func (ds *DephealthService) CheckReady() (status, message string) {
	health := ds.Health()
	if len(health) == 0 {
		return "ok", "Проверка ещё не выполнялась"
	}
	for name, ok := range health {
		if !ok {
			return "degraded", "Зависимость недоступна: " + name
		}
	}
	return "ok", ""
}
