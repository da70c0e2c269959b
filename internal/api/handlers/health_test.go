package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// stubStorage — хранилище с заданным результатом проверки записи.
type stubStorage struct{ err error }

func (s stubStorage) CheckWritable() error { return s.err }

// stubChecker — зависимость с фиксированным статусом.
type stubChecker struct{ status, message string }

func (c stubChecker) CheckReady() (status, message string) { return c.status, c.message }

func readyResponse(t *testing.T, h *HealthHandler) (int, healthReadyResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	var resp healthReadyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("ошибка декодирования: %v", err)
	}
	return rec.Code, resp
}

// TestHealthLive проверяет liveness probe.
func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(stubStorage{}, nil)
	rec := httptest.NewRecorder()
	h.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("статус = %d", rec.Code)
	}
	var resp healthLiveResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != "ok" || resp.Service != "media-fetcher" {
		t.Errorf("ответ = %+v", resp)
	}
}

// TestHealthReady проверяет сочетания проверок.
func TestHealthReady(t *testing.T) {
	tests := []struct {
		name       string
		storage    StorageChecker
		upstream   ReadinessChecker
		wantCode   int
		wantStatus string
	}{
		{"всё в порядке", stubStorage{}, nil, http.StatusOK, "ok"},
		{"источник ok", stubStorage{}, stubChecker{status: "ok"}, http.StatusOK, "ok"},
		{"источник недоступен", stubStorage{}, stubChecker{status: "degraded", message: "down"}, http.StatusOK, "degraded"},
		{"источник fail не критичен", stubStorage{}, stubChecker{status: "fail"}, http.StatusOK, "degraded"},
		{"хранилище только для чтения", stubStorage{err: errors.New("read-only file system")}, nil, http.StatusServiceUnavailable, "fail"},
		{"хранилище не настроено", nil, nil, http.StatusServiceUnavailable, "fail"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := readyResponse(t, NewHealthHandler(tt.storage, tt.upstream))
			if code != tt.wantCode {
				t.Errorf("HTTP статус = %d, ожидался %d", code, tt.wantCode)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status = %q, ожидался %q", resp.Status, tt.wantStatus)
			}
			if _, ok := resp.Checks["storage"]; !ok {
				t.Error("нет проверки storage")
			}
			if _, ok := resp.Checks["upstream"]; ok != (tt.upstream != nil) {
				t.Errorf("наличие проверки upstream = %v", ok)
			}
		})
	}
}

// TestOverallStatus проверяет вычисление итогового статуса.
func TestOverallStatus(t *testing.T) {
	tests := []struct {
		statuses []string
		want     string
	}{
		{nil, "ok"},
		{[]string{"ok", "ok"}, "ok"},
		{[]string{"ok", "degraded"}, "degraded"},
		{[]string{"degraded", "fail"}, "fail"},
	}

	for _, tt := range tests {
		if got := overallStatus(tt.statuses...); got != tt.want {
			t.Errorf("overallStatus(%v) = %q, ожидался %q", tt.statuses, got, tt.want)
		}
	}
}
