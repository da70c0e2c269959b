package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
)

// recordingServer запоминает привязанные параметры.
type recordingServer struct {
	filename   string
	downloadID string
	info       GetInfoParams
	download   StartDownloadParams
	list       ListFilesParams
	called     string
}

func (s *recordingServer) GetRoot(w http.ResponseWriter, _ *http.Request) { s.called = "GetRoot" }

func (s *recordingServer) GetInfo(w http.ResponseWriter, _ *http.Request, p GetInfoParams) {
	s.called, s.info = "GetInfo", p
}

func (s *recordingServer) StartDownload(w http.ResponseWriter, _ *http.Request, p StartDownloadParams) {
	s.called, s.download = "StartDownload", p
}

func (s *recordingServer) GetDownload(w http.ResponseWriter, _ *http.Request, id string) {
	s.called, s.downloadID = "GetDownload", id
}

func (s *recordingServer) StreamFile(w http.ResponseWriter, _ *http.Request, name string) {
	s.called, s.filename = "StreamFile", name
}

func (s *recordingServer) FetchFile(w http.ResponseWriter, _ *http.Request, name string) {
	s.called, s.filename = "FetchFile", name
}

func (s *recordingServer) ListFiles(w http.ResponseWriter, _ *http.Request, p ListFilesParams) {
	s.called, s.list = "ListFiles", p
}

func (s *recordingServer) HealthLive(w http.ResponseWriter, _ *http.Request)  { s.called = "HealthLive" }
func (s *recordingServer) HealthReady(w http.ResponseWriter, _ *http.Request) { s.called = "HealthReady" }
func (s *recordingServer) GetMetrics(w http.ResponseWriter, _ *http.Request)  { s.called = "GetMetrics" }
func (s *recordingServer) GetOpenAPI(w http.ResponseWriter, _ *http.Request)  { s.called = "GetOpenAPI" }

func serve(t *testing.T, method, target string) (*recordingServer, *httptest.ResponseRecorder) {
	t.Helper()
	srv := &recordingServer{}
	router := chi.NewRouter()
	HandlerFromMux(srv, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return srv, rec
}

// TestHandlerFromMux_Routes проверяет сопоставление путей обработчикам.
func TestHandlerFromMux_Routes(t *testing.T) {
	tests := []struct {
		method string
		target string
		want   string
	}{
		{http.MethodGet, "/", "GetRoot"},
		{http.MethodGet, "/info?url=x", "GetInfo"},
		{http.MethodPost, "/download?url=x&format_id=18", "StartDownload"},
		{http.MethodGet, "/downloads/abcd1234", "GetDownload"},
		{http.MethodGet, "/download-file/a.mp4", "StreamFile"},
		{http.MethodHead, "/download-file/a.mp4", "StreamFile"},
		{http.MethodGet, "/file/a.mp4", "FetchFile"},
		{http.MethodGet, "/files", "ListFiles"},
		{http.MethodGet, "/health/live", "HealthLive"},
		{http.MethodGet, "/health/ready", "HealthReady"},
		{http.MethodGet, "/metrics", "GetMetrics"},
		{http.MethodGet, "/openapi.yaml", "GetOpenAPI"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			srv, _ := serve(t, tt.method, tt.target)
			if srv.called != tt.want {
				t.Errorf("вызван %q, ожидался %q", srv.called, tt.want)
			}
		})
	}
}

// TestBindQuery проверяет привязку query-параметров.
func TestBindQuery(t *testing.T) {
	target := "/download?url=" + url.QueryEscape("https://example.com/watch?v=1&t=2") + "&format_id=137%2B140"
	srv, _ := serve(t, http.MethodPost, target)

	if srv.download.Url != "https://example.com/watch?v=1&t=2" {
		t.Errorf("Url = %q", srv.download.Url)
	}
	if srv.download.FormatId != "137+140" {
		t.Errorf("FormatId = %q", srv.download.FormatId)
	}

	srv, _ = serve(t, http.MethodGet, "/files?limit=10&offset=20")
	if srv.list.Limit == nil || *srv.list.Limit != 10 || srv.list.Offset == nil || *srv.list.Offset != 20 {
		t.Errorf("ListFilesParams = %+v", srv.list)
	}

	srv, _ = serve(t, http.MethodGet, "/files")
	if srv.list.Limit != nil || srv.list.Offset != nil {
		t.Errorf("необязательные параметры должны быть nil: %+v", srv.list)
	}
}

// TestBindQuery_Errors проверяет ответ на ошибку привязки.
func TestBindQuery_Errors(t *testing.T) {
	tests := []struct {
		method string
		target string
	}{
		{http.MethodGet, "/info"},
		{http.MethodPost, "/download?url=x"},
		{http.MethodGet, "/files?limit=abc"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			srv, rec := serve(t, tt.method, tt.target)
			if srv.called != "" {
				t.Errorf("обработчик %q не должен вызываться", srv.called)
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("статус = %d, ожидался 400", rec.Code)
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("тело = %s", rec.Body.String())
			}
		})
	}
}

// TestBindPath проверяет декодирование имён файлов.
func TestBindPath(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"простое имя", "/file/abcd1234_Clip.mp4", "abcd1234_Clip.mp4"},
		{"пробел и кириллица", "/file/" + url.PathEscape("abcd1234_Мой клип.mp4"), "abcd1234_Мой клип.mp4"},
		{"знак процента", "/file/" + url.PathEscape("abcd1234_100% done.mp4"), "abcd1234_100% done.mp4"},
		{"экранированный слеш", "/file/a%2Fb.mp4", "a/b.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, rec := serve(t, http.MethodGet, tt.target)
			if srv.called != "FetchFile" {
				t.Fatalf("вызван %q (статус %d)", srv.called, rec.Code)
			}
			if srv.filename != tt.want {
				t.Errorf("filename = %q, ожидалось %q", srv.filename, tt.want)
			}
		})
	}
}
