// disk_usage.go — получение информации об ёмкости диска корня хранилища.
// Платформозависимый код для Unix-подобных систем.
package filestore

import (
	"fmt"
	"syscall"
)

// DiskUsage возвращает total, used и available в байтах для файловой
// системы, на которой лежит корень хранилища.
func (fs *FileStore) DiskUsage() (total, used, available int64, err error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(fs.dataDir, &stat); err != nil {
		return 0, 0, 0, fmt.Errorf("ошибка statfs %s: %w", fs.dataDir, err)
	}

	total = int64(stat.Blocks) * int64(stat.Bsize)
	available = int64(stat.Bavail) * int64(stat.Bsize)
	used = total - available

	return total, used, available, nil
}

// AvailableBytes возвращает свободное для непривилегированного процесса место.
func (fs *FileStore) AvailableBytes() (int64, error) {
	_, _, available, err := fs.DiskUsage()
	return available, err
}
