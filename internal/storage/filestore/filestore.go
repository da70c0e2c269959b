// Пакет filestore — корень хранилища скачанных медиафайлов.
// Отвечает за разрешение имён внутри корня (без выхода за его пределы),
// открытие файлов на чтение, листинг и поиск результата скачивания.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bigkaa/mediafetch/internal/domain/model"
)

// Ошибки filestore.
var (
	// ErrNotFound — файла нет в корне хранилища.
	ErrNotFound = errors.New("файл не найден")
	// ErrInvalidName — имя выходит за пределы корня или недопустимо.
	ErrInvalidName = errors.New("недопустимое имя файла")
)

// partialSuffixes — расширения незавершённых скачиваний yt-dlp и временных файлов.
var partialSuffixes = []string{".part", ".ytdl", ".tmp", ".temp"}

// FileStore — корень хранилища. Единственное долговременное состояние сервиса.
type FileStore struct {
	// dataDir — абсолютный путь корня (MF_DOWNLOAD_DIR)
	dataDir string
}

// New создаёт FileStore. Создаёт директорию, если её нет,
// и приводит путь к абсолютному.
func New(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию хранилища %s: %w", dataDir, err)
	}

	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить абсолютный путь %s: %w", dataDir, err)
	}

	// Корень может сам быть симлинком; сравнение путей ведём по реальному пути
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	return &FileStore{dataDir: abs}, nil
}

// DataDir возвращает абсолютный путь корня хранилища.
func (fs *FileStore) DataDir() string {
	return fs.dataDir
}

// Resolve превращает имя файла в абсолютный путь внутри корня.
// Допускается только простое имя: без разделителей пути, без "." и "..",
// без NUL и не скрытое. Итоговый путь (в том числе после разрешения
// симлинков) обязан лежать непосредственно в корне.
func (fs *FileStore) Resolve(name string) (string, error) {
	if !ValidName(name) {
		return "", ErrInvalidName
	}

	full := filepath.Join(fs.dataDir, name)
	if !fs.contains(full) {
		return "", ErrInvalidName
	}

	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("ошибка разрешения пути %s: %w", name, err)
	}
	if !fs.contains(resolved) {
		return "", ErrInvalidName
	}

	return resolved, nil
}

// ValidName сообщает, является ли name допустимым простым именем файла.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return filepath.Base(name) == name
}

// contains проверяет, что path лежит непосредственно в корне.
func (fs *FileStore) contains(path string) bool {
	rel, err := filepath.Rel(fs.dataDir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) &&
		!strings.ContainsRune(rel, filepath.Separator)
}

// Open открывает файл из корня на чтение.
// Возвращает ErrNotFound для отсутствующих файлов и директорий,
// ErrInvalidName для имён вне корня. Вызывающий код обязан закрыть файл.
func (fs *FileStore) Open(name string) (*os.File, os.FileInfo, error) {
	full, err := fs.Resolve(name)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("ошибка открытия файла %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("ошибка получения stat файла %s: %w", name, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotFound
	}

	return f, info, nil
}

// FileExists проверяет, что в корне есть обычный файл с таким именем.
func (fs *FileStore) FileExists(name string) bool {
	full, err := fs.Resolve(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.Mode().IsRegular()
}

// List возвращает завершённые медиафайлы корня, новые первыми.
// Скрытые файлы, директории и незавершённые скачивания пропускаются.
func (fs *FileStore) List() ([]model.StoredFile, error) {
	entries, err := os.ReadDir(fs.dataDir)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения директории %s: %w", fs.dataDir, err)
	}

	files := make([]model.StoredFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !ValidName(e.Name()) || IsPartial(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Файл удалён между ReadDir и Info
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, model.StoredFile{
			Name:       e.Name(),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	}

	slices.SortStableFunc(files, func(a, b model.StoredFile) int {
		return b.ModifiedAt.Compare(a.ModifiedAt)
	})
	return files, nil
}

// FindByPrefix возвращает имя самого нового завершённого файла,
// начинающегося с prefix. Используется, когда экстрактор переименовал
// результат (слияние потоков, смена контейнера).
func (fs *FileStore) FindByPrefix(prefix string) (string, error) {
	if prefix == "" {
		return "", ErrInvalidName
	}

	files, err := fs.List()
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if strings.HasPrefix(f.Name, prefix) {
			return f.Name, nil
		}
	}
	return "", ErrNotFound
}

// CheckWritable проверяет, что в корень можно писать.
func (fs *FileStore) CheckWritable() error {
	testFile := filepath.Join(fs.dataDir, ".health_check")
	if err := os.WriteFile(testFile, []byte(time.Now().UTC().Format(time.RFC3339)), 0o600); err != nil {
		return fmt.Errorf("директория хранилища недоступна для записи: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}

// IsPartial сообщает, похоже ли имя на незавершённое скачивание.
func IsPartial(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	// yt-dlp держит фрагменты как name.f137.mp4.part-Frag12
	return strings.Contains(lower, ".part-frag")
}
