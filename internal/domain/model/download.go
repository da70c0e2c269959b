package model

import "time"

// DownloadStatus — итог операции скачивания.
type DownloadStatus string

const (
	DownloadCompleted DownloadStatus = "completed"
	DownloadFailed    DownloadStatus = "failed"
)

// DownloadRecord — результат одного скачивания.
// Клиенту POST /download отдаются только download_id, filename и status;
// остальные поля доступны через GET /downloads/{download_id}.
type DownloadRecord struct {
	// DownloadID — первые 8 символов UUIDv4
	DownloadID string `json:"download_id"`
	// Filename — имя файла в хранилище, {download_id}_{title}.{ext}
	Filename string         `json:"filename"`
	Status   DownloadStatus `json:"status"`

	URL         string     `json:"url,omitempty"`
	FormatID    string     `json:"format_id,omitempty"`
	SizeBytes   int64      `json:"size_bytes,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// StoredFile — файл в корне хранилища.
type StoredFile struct {
	Name       string    `json:"name"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}
