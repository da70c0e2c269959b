// Пакет errors — конструкторы стандартных ошибок Media Fetcher.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors //nolint:revive // имя пакета совпадает со stdlib, импортируется как apierrors

import (
	"encoding/json"
	"net/http"

	"github.com/bigkaa/mediafetch/internal/service"
)

// Коды ошибок, определённые в OpenAPI контракте.
const (
	CodeValidationError  = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeExtractionFailed = "EXTRACTION_FAILED"
	CodeStorageError     = "STORAGE_ERROR"
	CodeStorageFull      = "STORAGE_FULL"
	CodeInternalError    = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// ExtractionFailed — 400 экстрактор не смог обработать URL.
// message передаётся клиенту без изменений.
func ExtractionFailed(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeExtractionFailed, message)
}

// StorageError — 400 сбой записи в хранилище во время скачивания.
func StorageError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeStorageError, message)
}

// StorageFull — 507 нет свободного места.
func StorageFull(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInsufficientStorage, CodeStorageFull, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}

// WriteFault записывает ошибку сервисного слоя, выбирая статус по виду.
func WriteFault(w http.ResponseWriter, err error) {
	msg := service.MessageOf(err)
	switch service.KindOf(err) {
	case service.FaultExtraction:
		ExtractionFailed(w, msg)
	case service.FaultStorage:
		StorageError(w, msg)
	case service.FaultNotFound:
		NotFound(w, msg)
	case service.FaultInvalid:
		ValidationError(w, msg)
	case service.FaultCapacity:
		StorageFull(w, msg)
	default:
		InternalError(w, msg)
	}
}
