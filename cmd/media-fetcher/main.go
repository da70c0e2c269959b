// main.go — точка входа Media Fetcher.
// Сборка зависимостей: config → logger → хранилище → yt-dlp → сервисы →
// handlers → middleware → HTTP-сервер.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/bigkaa/mediafetch/internal/api/handlers"
	"github.com/bigkaa/mediafetch/internal/api/middleware"
	"github.com/bigkaa/mediafetch/internal/api/openapi"
	"github.com/bigkaa/mediafetch/internal/config"
	"github.com/bigkaa/mediafetch/internal/extractor"
	"github.com/bigkaa/mediafetch/internal/server"
	"github.com/bigkaa/mediafetch/internal/service"
	"github.com/bigkaa/mediafetch/internal/storage/filestore"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Media Fetcher запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("download_dir", cfg.DownloadDir),
	)

	// 3. Хранилище
	store, err := filestore.New(cfg.DownloadDir)
	if err != nil {
		logger.Error("Ошибка инициализации хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if _, _, available, duErr := store.DiskUsage(); duErr == nil {
		logger.Info("Хранилище готово",
			slog.String("path", store.DataDir()),
			slog.Int64("available_bytes", available),
		)
	}

	// 4. Экстрактор yt-dlp
	ytdlp := extractor.New(cfg.YtDlpPath, cfg.ExtractTimeout, cfg.DownloadTimeout, logger)

	// 5. Реестр скачиваний и допуск
	registry := service.NewRegistry(cfg.RecentDownloadsSize, cfg.RecentDownloadsTTL)
	admission := service.NewAdmission(cfg.MaxConcurrentDownloads, cfg.MinFreeBytes, store.AvailableBytes)

	// 6. Сервисы
	infoSvc := service.NewInfoService(ytdlp, cfg.MaxFormats, logger)
	downloadSvc := service.NewDownloadService(ytdlp, store, registry, admission, logger)
	deliverySvc := service.NewDeliveryService(store, logger)

	// 7. topologymetrics — мониторинг источника медиа (если задан URL)
	ctx := context.Background()
	var upstream handlers.ReadinessChecker
	var dephealthSvc *service.DephealthService
	if cfg.DephealthURL != "" {
		dephealthSvc, err = service.NewDephealthService(
			cfg.ServiceName,
			cfg.DephealthGroup,
			cfg.DephealthURL,
			cfg.DephealthCheckInterval,
			logger,
		)
		if err != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга источника",
				slog.String("error", err.Error()),
			)
			dephealthSvc = nil
		} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
			dephealthSvc = nil
		} else {
			upstream = dephealthSvc
			logger.Info("topologymetrics запущен",
				slog.String("url", cfg.DephealthURL),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 8. Handlers
	healthHandler := handlers.NewHealthHandler(store, upstream)
	apiHandler := handlers.NewAPIHandler(infoSvc, downloadSvc, deliverySvc, healthHandler, logger)

	// 9. Middleware: метрики, логирование, CORS, проверка по контракту
	validator, err := openapi.RequestValidator(logger)
	if err != nil {
		logger.Error("Ошибка загрузки OpenAPI контракта", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := server.New(cfg, logger, apiHandler,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
		middleware.CORS(cfg.CORSAllowedOrigins),
		validator,
	)

	// 10. Запуск сервера (блокирующий вызов с graceful shutdown)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("Media Fetcher остановлен")
}
