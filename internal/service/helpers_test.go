package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bigkaa/mediafetch/internal/domain/model"
	"github.com/bigkaa/mediafetch/internal/storage/filestore"
)

// testLogger — логгер, подавляющий вывод в тестах.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestStore создаёт FileStore во временной директории.
func newTestStore(t *testing.T) *filestore.FileStore {
	t.Helper()
	store, err := filestore.New(filepath.Join(t.TempDir(), "downloads"))
	if err != nil {
		t.Fatalf("ошибка создания FileStore: %v", err)
	}
	return store
}

// mockExtractor — mock-реализация Extractor.
// Функциональные поля определяют поведение для каждого теста.
type mockExtractor struct {
	mu sync.Mutex

	extractFn  func(ctx context.Context, url string) (*model.ExtractorResult, error)
	downloadFn func(ctx context.Context, url, formatID, outputTemplate string) (string, error)

	// templates — шаблоны имён, с которыми вызывался Download
	templates []string
}

func (m *mockExtractor) Extract(ctx context.Context, url string) (*model.ExtractorResult, error) {
	return m.extractFn(ctx, url)
}

func (m *mockExtractor) Download(ctx context.Context, url, formatID, outputTemplate string) (string, error) {
	m.mu.Lock()
	m.templates = append(m.templates, outputTemplate)
	m.mu.Unlock()
	return m.downloadFn(ctx, url, formatID, outputTemplate)
}

// writeByTemplate имитирует экстрактор: подставляет title и ext
// в шаблон и записывает content.
func writeByTemplate(t *testing.T, template, title, ext, content string) string {
	t.Helper()
	path := strings.Replace(template, "%(title)s", title, 1)
	path = strings.Replace(path, "%(ext)s", ext, 1)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("ошибка записи %s: %v", path, err)
	}
	return path
}

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }
func float64Ptr(v float64) *float64 { return &v }
