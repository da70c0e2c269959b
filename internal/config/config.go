// Пакет config — загрузка и валидация конфигурации Media Fetcher
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Media Fetcher.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Путь к TLS сертификату (опционально, вместе с TLSKey)
	TLSCert string
	// Путь к TLS приватному ключу
	TLSKey string
	// Разрешённые источники CORS (* — любые)
	CORSAllowedOrigins []string

	// --- Хранилище ---

	// Каталог скачанных файлов
	DownloadDir string
	// Нижняя граница свободного места для нового скачивания (0 — не проверять)
	MinFreeBytes int64

	// --- Экстрактор ---

	// Путь к исполняемому файлу yt-dlp
	YtDlpPath string
	// Сколько форматов отдавать в /info
	MaxFormats int
	// Таймаут извлечения метаданных
	ExtractTimeout time.Duration
	// Таймаут одного скачивания
	DownloadTimeout time.Duration
	// Максимум одновременных скачиваний
	MaxConcurrentDownloads int

	// --- Реестр скачиваний ---

	// Размер LRU-реестра последних скачиваний
	RecentDownloadsSize int
	// Время жизни записи в реестре
	RecentDownloadsTTL time.Duration

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 35m).
	// Скачивание синхронное, таймаут должен его покрывать.
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown (по умолчанию 10s)
	ShutdownTimeout time.Duration

	// --- Topologymetrics ---

	// Имя сервиса (вершина графа в topologymetrics)
	ServiceName string
	// Имя группы в метриках topologymetrics
	DephealthGroup string
	// URL проверки источника медиа (пусто — мониторинг выключен)
	DephealthURL string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
}

// TLSEnabled сообщает, заданы ли сертификат и ключ.
func (c *Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// Load загружает конфигурацию из переменных окружения.
// Все переменные необязательны; возвращает ошибку,
// если значения некорректны.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// MF_PORT — порт HTTP-сервера (по умолчанию 8000)
	cfg.Port, err = getEnvInt("MF_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("MF_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("MF_PORT: значение %d вне диапазона 1-65535", cfg.Port)
	}

	// MF_LOG_LEVEL — уровень логирования (по умолчанию info)
	logLevel := getEnvDefault("MF_LOG_LEVEL", "info")
	cfg.LogLevel, err = parseLogLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("MF_LOG_LEVEL: %w", err)
	}

	// MF_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("MF_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("MF_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// MF_TLS_CERT, MF_TLS_KEY — задаются вместе или не задаются вовсе
	cfg.TLSCert = getEnvDefault("MF_TLS_CERT", "")
	cfg.TLSKey = getEnvDefault("MF_TLS_KEY", "")
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return nil, fmt.Errorf("MF_TLS_CERT и MF_TLS_KEY должны быть заданы вместе")
	}

	// MF_CORS_ALLOWED_ORIGINS — список через запятую (по умолчанию *)
	cfg.CORSAllowedOrigins = parseCSV(getEnvDefault("MF_CORS_ALLOWED_ORIGINS", "*"))

	// --- Хранилище ---

	// MF_DOWNLOAD_DIR — каталог файлов (по умолчанию downloads)
	cfg.DownloadDir = getEnvDefault("MF_DOWNLOAD_DIR", "downloads")

	// MF_MIN_FREE_BYTES — минимум свободного места (по умолчанию 0)
	cfg.MinFreeBytes, err = getEnvInt64("MF_MIN_FREE_BYTES", 0)
	if err != nil {
		return nil, fmt.Errorf("MF_MIN_FREE_BYTES: %w", err)
	}
	if cfg.MinFreeBytes < 0 {
		return nil, fmt.Errorf("MF_MIN_FREE_BYTES: значение должно быть >= 0")
	}

	// --- Экстрактор ---

	// MF_YTDLP_PATH — исполняемый файл yt-dlp (по умолчанию ищется в PATH)
	cfg.YtDlpPath = getEnvDefault("MF_YTDLP_PATH", "yt-dlp")

	// MF_MAX_FORMATS — число форматов в /info (по умолчанию 15)
	cfg.MaxFormats, err = getEnvInt("MF_MAX_FORMATS", 15)
	if err != nil {
		return nil, fmt.Errorf("MF_MAX_FORMATS: %w", err)
	}
	if cfg.MaxFormats < 1 {
		return nil, fmt.Errorf("MF_MAX_FORMATS: значение должно быть >= 1")
	}

	// MF_EXTRACT_TIMEOUT — таймаут извлечения (по умолчанию 60s)
	cfg.ExtractTimeout, err = getEnvDuration("MF_EXTRACT_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MF_EXTRACT_TIMEOUT: %w", err)
	}

	// MF_DOWNLOAD_TIMEOUT — таймаут скачивания (по умолчанию 30m)
	cfg.DownloadTimeout, err = getEnvDuration("MF_DOWNLOAD_TIMEOUT", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("MF_DOWNLOAD_TIMEOUT: %w", err)
	}

	// MF_MAX_CONCURRENT_DOWNLOADS — одновременные скачивания (по умолчанию 4)
	cfg.MaxConcurrentDownloads, err = getEnvInt("MF_MAX_CONCURRENT_DOWNLOADS", 4)
	if err != nil {
		return nil, fmt.Errorf("MF_MAX_CONCURRENT_DOWNLOADS: %w", err)
	}
	if cfg.MaxConcurrentDownloads < 1 {
		return nil, fmt.Errorf("MF_MAX_CONCURRENT_DOWNLOADS: значение должно быть >= 1")
	}

	// --- Реестр скачиваний ---

	// MF_RECENT_DOWNLOADS_SIZE — размер реестра (по умолчанию 1000)
	cfg.RecentDownloadsSize, err = getEnvInt("MF_RECENT_DOWNLOADS_SIZE", 1000)
	if err != nil {
		return nil, fmt.Errorf("MF_RECENT_DOWNLOADS_SIZE: %w", err)
	}
	if cfg.RecentDownloadsSize < 1 {
		return nil, fmt.Errorf("MF_RECENT_DOWNLOADS_SIZE: значение должно быть >= 1")
	}

	// MF_RECENT_DOWNLOADS_TTL — время жизни записи (по умолчанию 24h)
	cfg.RecentDownloadsTTL, err = getEnvDuration("MF_RECENT_DOWNLOADS_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("MF_RECENT_DOWNLOADS_TTL: %w", err)
	}

	// --- HTTP Server Timeouts ---

	// MF_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("MF_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MF_HTTP_READ_TIMEOUT: %w", err)
	}

	// MF_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 35m)
	cfg.HTTPWriteTimeout, err = getEnvDuration("MF_HTTP_WRITE_TIMEOUT", 35*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("MF_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// MF_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("MF_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MF_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- Graceful shutdown ---

	// MF_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 10s)
	cfg.ShutdownTimeout, err = getEnvDuration("MF_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MF_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Topologymetrics ---

	// MF_SERVICE_NAME — имя вершины графа (по умолчанию media-fetcher)
	cfg.ServiceName = getEnvDefault("MF_SERVICE_NAME", "media-fetcher")

	// MF_DEPHEALTH_GROUP — имя группы в метриках (по умолчанию media-fetcher)
	cfg.DephealthGroup = getEnvDefault("MF_DEPHEALTH_GROUP", "media-fetcher")

	// MF_DEPHEALTH_URL — URL проверки источника (пусто — выключено)
	cfg.DephealthURL = getEnvDefault("MF_DEPHEALTH_URL", "")

	// MF_DEPHEALTH_CHECK_INTERVAL — интервал проверки (по умолчанию 30s)
	cfg.DephealthCheckInterval, err = getEnvDurationFallback("MF_DEPHEALTH_CHECK_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("MF_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 — то же для int64 (размеры в байтах).
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvDurationFallback возвращает time.Duration из переменной окружения.
// Если переменная не задана, используется fallbackVal.
// Если задана — парсится и валидируется (> 0).
func getEnvDurationFallback(key string, fallbackVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallbackVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
