package openapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestGetSwagger проверяет, что встроенный контракт корректен.
func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	if err != nil {
		t.Fatalf("ошибка загрузки контракта: %v", err)
	}

	for _, path := range []string{"/", "/info", "/download", "/download-file/{filename}", "/file/{filename}", "/files"} {
		if doc.Paths.Find(path) == nil {
			t.Errorf("в контракте нет пути %s", path)
		}
	}
	if !strings.HasPrefix(string(Contract()), "openapi: 3") {
		t.Error("Contract() вернул не YAML контракта")
	}
}

func newValidated(t *testing.T) (http.Handler, *bool) {
	t.Helper()
	mw, err := RequestValidator(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("RequestValidator: %v", err)
	}
	called := new(bool)
	return mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})), called
}

// TestRequestValidator проверяет пропуск корректных и отказ некорректных запросов.
func TestRequestValidator(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{"info с url", http.MethodGet, "/info?url=https://example.com/v", http.StatusOK},
		{"info без url", http.MethodGet, "/info", http.StatusBadRequest},
		{"download без format_id", http.MethodPost, "/download?url=https://example.com/v", http.StatusBadRequest},
		{"download полный", http.MethodPost, "/download?url=https://example.com/v&format_id=18", http.StatusOK},
		{"files limit не число", http.MethodGet, "/files?limit=abc", http.StatusBadRequest},
		{"files limit ноль", http.MethodGet, "/files?limit=0", http.StatusBadRequest},
		{"files offset отрицательный", http.MethodGet, "/files?offset=-1", http.StatusBadRequest},
		{"files без параметров", http.MethodGet, "/files", http.StatusOK},
		{"файл", http.MethodGet, "/file/abcd1234_Clip.mp4", http.StatusOK},
		{"путь вне контракта", http.MethodGet, "/unknown/path", http.StatusOK},
		{"метод вне контракта", http.MethodDelete, "/info", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, called := newValidated(t)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("статус = %d, ожидался %d (тело: %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if (tt.wantStatus == http.StatusOK) != *called {
				t.Errorf("вызов обработчика = %v", *called)
			}
		})
	}
}

// TestRequestValidator_ErrorBody проверяет формат ошибки проверки.
func TestRequestValidator_ErrorBody(t *testing.T) {
	handler, _ := newValidated(t)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("ошибка декодирования: %v", err)
	}
	if body.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q", body.Error.Code)
	}
	if !strings.Contains(body.Error.Message, "url") {
		t.Errorf("message = %q, ожидалось упоминание параметра url", body.Error.Message)
	}
}
