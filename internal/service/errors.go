// errors.go — типизированные ошибки сервисного слоя.
// Каждая ошибка несёт вид (FaultKind), по которому HTTP-слой выбирает
// статус-код, и сообщение для клиента.
package service

import (
	"errors"
	"fmt"
)

// FaultKind — вид ошибки сервисного слоя.
type FaultKind string

const (
	// FaultExtraction — ошибка экстрактора: неверный URL, гео-блокировка,
	// неподдерживаемый источник, сбой сети на стороне источника.
	FaultExtraction FaultKind = "extraction"
	// FaultNotFound — запрошенного файла или записи нет.
	FaultNotFound FaultKind = "not_found"
	// FaultStorage — сбой записи в хранилище во время скачивания.
	FaultStorage FaultKind = "storage"
	// FaultCapacity — скачивание не допущено: не хватает места на диске.
	FaultCapacity FaultKind = "capacity"
	// FaultInvalid — некорректные входные данные.
	FaultInvalid FaultKind = "invalid"
	// FaultInternal — всё остальное.
	FaultInternal FaultKind = "internal"
)

// Fault — ошибка сервисного слоя с видом и сообщением для клиента.
type Fault struct {
	Kind FaultKind
	// Message — текст, который уходит клиенту как есть
	Message string
	// Err — исходная ошибка (может быть nil)
	Err error
}

func (f *Fault) Error() string {
	if f.Err != nil && f.Err.Error() != f.Message {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// newFault создаёт Fault.
func newFault(kind FaultKind, message string, err error) *Fault {
	return &Fault{Kind: kind, Message: message, Err: err}
}

// KindOf возвращает вид ошибки. Ошибки без Fault в цепочке — FaultInternal.
func KindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return FaultInternal
}

// MessageOf возвращает сообщение для клиента.
func MessageOf(err error) string {
	var f *Fault
	if errors.As(err, &f) {
		return f.Message
	}
	return "Внутренняя ошибка сервера"
}
