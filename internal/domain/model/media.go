// Пакет model — доменные модели Media Fetcher.
// RawFormat и ExtractorResult — сырые данные экстрактора,
// NormalizedFormat и VideoMetadata — то, что уходит клиенту.
package model

// CodecNone — значение кодека, означающее отсутствие потока.
const CodecNone = "none"

// FormatType — классификация формата по наличию видео- и аудиопотока.
type FormatType string

const (
	// FormatVideoAudio — видео и аудио в одном файле.
	FormatVideoAudio FormatType = "video+audio"
	// FormatVideoOnly — только видеопоток.
	FormatVideoOnly FormatType = "video-only"
	// FormatAudioOnly — только аудиопоток.
	FormatAudioOnly FormatType = "audio-only"
	// FormatUnknown — оба кодека равны "none".
	FormatUnknown FormatType = "unknown"
)

// RawFormat — описание одного формата в том виде, в каком его вернул экстрактор.
// Любое поле может отсутствовать.
type RawFormat struct {
	// FormatID — идентификатор формата у экстрактора (обязателен для выдачи)
	FormatID string
	// Ext — расширение контейнера (обязательно для выдачи)
	Ext string
	// QualityLabel — человекочитаемая метка качества (например "720p60")
	QualityLabel string
	// Height — высота кадра в пикселях
	Height *int
	// FileSize — точный размер в байтах
	FileSize *int64
	// FileSizeApprox — оценка размера в байтах
	FileSizeApprox *int64
	// VCodec — видеокодек; "none" если видео нет.
	// Пустое значение (кодек не сообщён) не равно "none" и считается потоком.
	VCodec string
	// ACodec — аудиокодек; "none" если аудио нет
	ACodec string
	// ABR — битрейт аудио, kbit/s
	ABR *float64
	// VBR — битрейт видео, kbit/s
	VBR *float64
}

// HasVideo сообщает, есть ли в формате видеопоток.
func (f RawFormat) HasVideo() bool {
	return f.VCodec != CodecNone
}

// HasAudio сообщает, есть ли в формате аудиопоток.
func (f RawFormat) HasAudio() bool {
	return f.ACodec != CodecNone
}

// NormalizedFormat — формат после фильтрации, дедупликации и ранжирования.
type NormalizedFormat struct {
	FormatID   string     `json:"format_id"`
	Ext        string     `json:"ext"`
	Quality    string     `json:"quality"`
	FormatType FormatType `json:"format_type"`
	// FileSize — размер в байтах, 0 если неизвестен
	FileSize int64    `json:"filesize"`
	VCodec   string   `json:"vcodec"`
	ACodec   string   `json:"acodec"`
	ABR      *float64 `json:"abr"`
	VBR      *float64 `json:"vbr"`
}

// Thumbnail — одна из превью-картинок медиа.
type Thumbnail struct {
	URL    string
	Width  *int
	Height *int
}

// ExtractorResult — метаданные медиа, полученные от экстрактора без изменений.
type ExtractorResult struct {
	ID          string
	Title       *string
	Uploader    *string
	Duration    *float64
	Thumbnail   *string
	Thumbnails  []Thumbnail
	Description *string
	ViewCount   *int64
	UploadDate  *string
	WebpageURL  string
	Formats     []RawFormat
}

// VideoMetadata — ответ GET /info.
// Author дублирует Uploader: мобильный клиент читает оба ключа.
type VideoMetadata struct {
	Title       string             `json:"title"`
	Author      string             `json:"author"`
	Uploader    string             `json:"uploader"`
	Duration    int64              `json:"duration"`
	Thumbnail   *string            `json:"thumbnail"`
	Description string             `json:"description"`
	ViewCount   *int64             `json:"view_count"`
	UploadDate  *string            `json:"upload_date"`
	Formats     []NormalizedFormat `json:"formats"`
}
