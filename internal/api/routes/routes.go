// Пакет routes — маршруты HTTP API Media Fetcher поверх chi.
// Повторяет раскладку chi-server из oapi-codegen: ServerInterface,
// структуры параметров, обёртка с привязкой параметров и HandlerFromMux.
package routes

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	apierrors "github.com/bigkaa/mediafetch/internal/api/errors"
)

// GetInfoParams — параметры GET /info.
type GetInfoParams struct {
	// Url — URL страницы с медиа
	Url string `form:"url" json:"url"` //nolint:revive // имя как в контракте
}

// StartDownloadParams — параметры POST /download.
type StartDownloadParams struct {
	Url      string `form:"url" json:"url"` //nolint:revive // имя как в контракте
	FormatId string `form:"format_id" json:"format_id"` //nolint:revive // имя как в контракте
}

// ListFilesParams — параметры GET /files.
type ListFilesParams struct {
	Limit  *int `form:"limit,omitempty" json:"limit,omitempty"`
	Offset *int `form:"offset,omitempty" json:"offset,omitempty"`
}

// ServerInterface — обработчики всех операций контракта.
type ServerInterface interface {
	// (GET /)
	GetRoot(w http.ResponseWriter, r *http.Request)
	// (GET /info)
	GetInfo(w http.ResponseWriter, r *http.Request, params GetInfoParams)
	// (POST /download)
	StartDownload(w http.ResponseWriter, r *http.Request, params StartDownloadParams)
	// (GET /downloads/{download_id})
	GetDownload(w http.ResponseWriter, r *http.Request, downloadID string)
	// (GET /download-file/{filename})
	StreamFile(w http.ResponseWriter, r *http.Request, filename string)
	// (GET /file/{filename})
	FetchFile(w http.ResponseWriter, r *http.Request, filename string)
	// (GET /files)
	ListFiles(w http.ResponseWriter, r *http.Request, params ListFilesParams)
	// (GET /health/live)
	HealthLive(w http.ResponseWriter, r *http.Request)
	// (GET /health/ready)
	HealthReady(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	GetMetrics(w http.ResponseWriter, r *http.Request)
	// (GET /openapi.yaml)
	GetOpenAPI(w http.ResponseWriter, r *http.Request)
}

// ServerInterfaceWrapper привязывает параметры запроса и вызывает обработчик.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// GetInfo — привязка query-параметра url.
func (siw *ServerInterfaceWrapper) GetInfo(w http.ResponseWriter, r *http.Request) {
	var params GetInfoParams

	if err := runtime.BindQueryParameter("form", true, true, "url", r.URL.Query(), &params.Url); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "url", Err: err})
		return
	}

	siw.Handler.GetInfo(w, r, params)
}

// StartDownload — привязка query-параметров url и format_id.
func (siw *ServerInterfaceWrapper) StartDownload(w http.ResponseWriter, r *http.Request) {
	var params StartDownloadParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, true, "url", query, &params.Url); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "url", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "format_id", query, &params.FormatId); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "format_id", Err: err})
		return
	}

	siw.Handler.StartDownload(w, r, params)
}

// GetDownload — привязка path-параметра download_id.
func (siw *ServerInterfaceWrapper) GetDownload(w http.ResponseWriter, r *http.Request) {
	var downloadID string

	if err := bindPath(r, "download_id", &downloadID); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "download_id", Err: err})
		return
	}

	siw.Handler.GetDownload(w, r, downloadID)
}

// StreamFile — привязка path-параметра filename.
func (siw *ServerInterfaceWrapper) StreamFile(w http.ResponseWriter, r *http.Request) {
	var filename string

	if err := bindPath(r, "filename", &filename); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "filename", Err: err})
		return
	}

	siw.Handler.StreamFile(w, r, filename)
}

// FetchFile — привязка path-параметра filename.
func (siw *ServerInterfaceWrapper) FetchFile(w http.ResponseWriter, r *http.Request) {
	var filename string

	if err := bindPath(r, "filename", &filename); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "filename", Err: err})
		return
	}

	siw.Handler.FetchFile(w, r, filename)
}

// ListFiles — привязка необязательных limit и offset.
func (siw *ServerInterfaceWrapper) ListFiles(w http.ResponseWriter, r *http.Request) {
	var params ListFilesParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &params.Limit); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", query, &params.Offset); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "offset", Err: err})
		return
	}

	siw.Handler.ListFiles(w, r, params)
}

// bindPath привязывает path-параметр chi.
// chi берёт значение из RawPath, а если тот пуст (путь не требует
// особого экранирования) — из уже декодированного Path. Привязка
// в runtime всегда декодирует значение, поэтому второй случай
// экранируется заново: имя вида "100% done.mp4" не должно ломаться.
func bindPath(r *http.Request, name string, dest *string) error {
	value := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		value = url.PathEscape(value)
	}
	return runtime.BindStyledParameterWithOptions("simple", name, value, dest,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		})
}

// InvalidParamFormatError — ошибка привязки параметра.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Некорректный параметр %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

// HandlerFromMux регистрирует маршруты ServerInterface на роутере chi.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{BaseRouter: r})
}

// ChiServerOptions — параметры регистрации маршрутов.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions регистрирует маршруты с указанными параметрами.
// По умолчанию ошибки привязки — 400 VALIDATION_ERROR.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			apierrors.ValidationError(w, err.Error())
		}
	}

	wrapper := ServerInterfaceWrapper{
		Handler:          si,
		ErrorHandlerFunc: options.ErrorHandlerFunc,
	}

	r.Get("/", si.GetRoot)
	r.Get("/info", wrapper.GetInfo)
	r.Post("/download", wrapper.StartDownload)
	r.Get("/downloads/{download_id}", wrapper.GetDownload)
	r.Get("/download-file/{filename}", wrapper.StreamFile)
	r.Head("/download-file/{filename}", wrapper.StreamFile)
	r.Get("/file/{filename}", wrapper.FetchFile)
	r.Head("/file/{filename}", wrapper.FetchFile)
	r.Get("/files", wrapper.ListFiles)
	r.Get("/health/live", si.HealthLive)
	r.Get("/health/ready", si.HealthReady)
	r.Get("/metrics", si.GetMetrics)
	r.Get("/openapi.yaml", si.GetOpenAPI)

	return r
}
