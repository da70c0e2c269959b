// admission.go — допуск скачиваний: ограничение параллельности
// и проверка свободного места перед запуском экстрактора.
package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// FreeSpaceFunc возвращает свободное место в корне хранилища, байт.
type FreeSpaceFunc func() (int64, error)

// Admission — контроль допуска скачиваний.
// Одновременно выполняется не больше maxConcurrent скачиваний;
// остальные ждут слот, пока жив контекст запроса.
type Admission struct {
	slots         *semaphore.Weighted
	maxConcurrent int64
	minFreeBytes  int64
	freeSpace     FreeSpaceFunc
}

// NewAdmission создаёт контроль допуска.
// maxConcurrent < 1 приводится к 1. minFreeBytes <= 0 или freeSpace == nil
// отключают проверку места.
func NewAdmission(maxConcurrent int, minFreeBytes int64, freeSpace FreeSpaceFunc) *Admission {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Admission{
		slots:         semaphore.NewWeighted(int64(maxConcurrent)),
		maxConcurrent: int64(maxConcurrent),
		minFreeBytes:  minFreeBytes,
		freeSpace:     freeSpace,
	}
}

// Acquire занимает слот и проверяет место на диске.
// Возвращает функцию освобождения слота; вызывать ровно один раз.
// Нехватка места — FaultCapacity; отмена контекста возвращается как есть.
func (a *Admission) Acquire(ctx context.Context) (release func(), err error) {
	if err := a.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	release = func() { a.slots.Release(1) }

	if a.minFreeBytes > 0 && a.freeSpace != nil {
		free, err := a.freeSpace()
		if err != nil {
			release()
			return nil, newFault(FaultStorage, "Не удалось определить свободное место в хранилище", err)
		}
		if free < a.minFreeBytes {
			release()
			return nil, newFault(FaultCapacity,
				fmt.Sprintf("Недостаточно места в хранилище: свободно %d байт, требуется не менее %d", free, a.minFreeBytes),
				nil)
		}
	}

	return release, nil
}

// MaxConcurrent возвращает число слотов.
func (a *Admission) MaxConcurrent() int {
	return int(a.maxConcurrent)
}
