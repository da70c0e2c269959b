// delivery.go — отдача сохранённых файлов клиенту.
// Файл открывается только через filestore (имя не может выйти за корень),
// передаётся потоково через http.ServeContent и никогда не изменяется.
package service

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/mediafetch/internal/domain/model"
	"github.com/bigkaa/mediafetch/internal/storage/filestore"
)

// DefaultContentType — тип содержимого, если по расширению он не определён.
const DefaultContentType = "application/octet-stream"

// DeliveryMode — режим отдачи файла.
type DeliveryMode string

const (
	// DeliveryAttachment — тип по расширению, Content-Disposition: attachment.
	DeliveryAttachment DeliveryMode = "attachment"
	// DeliveryOctet — всегда application/octet-stream, имя файла сохраняется.
	DeliveryOctet DeliveryMode = "octet"
)

// NotFoundMessage — текст ошибки для отсутствующего файла.
const NotFoundMessage = "File not found"

// Prometheus-метрики delivery.
var (
	deliveryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mf_delivery_total",
		Help: "Общее количество запросов на отдачу файлов (по режиму и статусу).",
	}, []string{"mode", "status"})

	deliveryBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mf_delivery_bytes_total",
		Help: "Общее количество отданных клиентам байт.",
	})

	storedFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mf_stored_files",
		Help: "Количество файлов в хранилище на момент последнего листинга.",
	})
)

// mediaTypes — типы медиаконтейнеров yt-dlp. Встроенная таблица mime
// их не содержит, а системной (/etc/mime.types) может не быть.
var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".m4a":  "audio/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".flv":  "video/x-flv",
	".3gp":  "video/3gpp",
	".mp3":  "audio/mpeg",
	".opus": "audio/ogg",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".aac":  "audio/aac",
}

func init() {
	for ext, typ := range mediaTypes {
		_ = mime.AddExtensionType(ext, typ)
	}
}

// Delivery — открытый файл, готовый к отдаче.
// Вызывающий код обязан вызвать Close.
type Delivery struct {
	File        io.ReadSeekCloser
	Name        string
	Size        int64
	ModTime     time.Time
	ContentType string
}

// Close закрывает файл.
func (d *Delivery) Close() error {
	return d.File.Close()
}

// DeliveryService — сервис отдачи файлов из хранилища.
type DeliveryService struct {
	store  *filestore.FileStore
	logger *slog.Logger
}

// NewDeliveryService создаёт сервис отдачи файлов.
func NewDeliveryService(store *filestore.FileStore, logger *slog.Logger) *DeliveryService {
	return &DeliveryService{
		store:  store,
		logger: logger.With(slog.String("component", "delivery_service")),
	}
}

// Open открывает файл name для отдачи в режиме mode.
// Отсутствующий файл, директория и имя вне корня — FaultNotFound.
func (s *DeliveryService) Open(name string, mode DeliveryMode) (*Delivery, error) {
	f, info, err := s.store.Open(name)
	if err != nil {
		if errors.Is(err, filestore.ErrNotFound) || errors.Is(err, filestore.ErrInvalidName) {
			return nil, newFault(FaultNotFound, NotFoundMessage, err)
		}
		return nil, newFault(FaultInternal, "Ошибка чтения файла", err)
	}

	return &Delivery{
		File:        f,
		Name:        name,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: ContentTypeFor(name, mode),
	}, nil
}

// Serve отдаёт файл name клиенту.
// http.ServeContent читает файл блоками и обрабатывает Range,
// If-Modified-Since и Content-Length. Возвращает ошибку до записи
// заголовков, если файл нельзя отдать.
func (s *DeliveryService) Serve(w http.ResponseWriter, r *http.Request, name string, mode DeliveryMode) error {
	d, err := s.Open(name, mode)
	if err != nil {
		status := "not_found"
		if KindOf(err) != FaultNotFound {
			status = "error"
			s.logger.Error("Ошибка открытия файла",
				slog.String("filename", name),
				slog.String("error", err.Error()),
			)
		}
		deliveryTotal.WithLabelValues(string(mode), status).Inc()
		return err
	}
	defer d.Close()

	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Disposition", ContentDisposition(d.Name))
	w.Header().Set("Accept-Ranges", "bytes")

	counter := &countingWriter{ResponseWriter: w}
	http.ServeContent(counter, r, d.Name, d.ModTime, d.File)

	deliveryTotal.WithLabelValues(string(mode), "success").Inc()
	deliveryBytesTotal.Add(float64(counter.written))

	s.logger.Debug("Файл отдан",
		slog.String("filename", d.Name),
		slog.String("mode", string(mode)),
		slog.Int64("bytes", counter.written),
	)
	return nil
}

// List возвращает страницу файлов хранилища и общее их число.
func (s *DeliveryService) List(limit, offset int) ([]model.StoredFile, int, error) {
	files, err := s.store.List()
	if err != nil {
		return nil, 0, newFault(FaultInternal, "Ошибка чтения хранилища", err)
	}
	storedFiles.Set(float64(len(files)))

	total := len(files)
	if offset >= total {
		return []model.StoredFile{}, total, nil
	}
	end := min(offset+limit, total)
	return files[offset:end], total, nil
}

// ContentTypeFor возвращает Content-Type для файла в режиме mode.
func ContentTypeFor(name string, mode DeliveryMode) string {
	if mode == DeliveryOctet {
		return DefaultContentType
	}
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return DefaultContentType
}

// ContentDisposition формирует заголовок attachment с именем файла.
// Не-ASCII имена кодируются по RFC 2231.
func ContentDisposition(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}

// countingWriter считает байты тела ответа.
type countingWriter struct {
	http.ResponseWriter
	written int64
}

func (cw *countingWriter) Write(b []byte) (int, error) {
	n, err := cw.ResponseWriter.Write(b)
	cw.written += int64(n)
	return n, err
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (cw *countingWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
