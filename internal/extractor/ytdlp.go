// Пакет extractor — адаптер внешнего экстрактора медиа yt-dlp.
// Запуск процесса и сборка аргументов — через github.com/lrstanley/go-ytdlp,
// разбор JSON-вывода — собственными структурами (поля yt-dlp опциональны).
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/bigkaa/mediafetch/internal/domain/model"
)

// Error — ошибка yt-dlp. Error() возвращает текст для клиента без изменений.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// YtDlp — реализация service.Extractor поверх yt-dlp.
type YtDlp struct {
	executable      string
	extractTimeout  time.Duration
	downloadTimeout time.Duration
	logger          *slog.Logger
}

// New создаёт адаптер yt-dlp.
// executable — путь к исполняемому файлу (пусто — искать yt-dlp в PATH).
// extractTimeout, downloadTimeout — ограничения времени одного вызова.
func New(executable string, extractTimeout, downloadTimeout time.Duration, logger *slog.Logger) *YtDlp {
	return &YtDlp{
		executable:      executable,
		extractTimeout:  extractTimeout,
		downloadTimeout: downloadTimeout,
		logger:          logger.With(slog.String("component", "ytdlp")),
	}
}

// command возвращает базовую команду с общими флагами.
func (y *YtDlp) command() *ytdlp.Command {
	cmd := ytdlp.New().
		NoPlaylist().
		NoWarnings().
		NoProgress()
	if y.executable != "" {
		cmd = cmd.SetExecutable(y.executable)
	}
	return cmd
}

// Extract получает метаданные и список форматов без скачивания
// (yt-dlp --dump-single-json --skip-download).
func (y *YtDlp) Extract(ctx context.Context, url string) (*model.ExtractorResult, error) {
	ctx, cancel := withTimeout(ctx, y.extractTimeout)
	defer cancel()

	start := time.Now()
	res, err := y.command().
		DumpSingleJSON().
		SkipDownload().
		Run(ctx, url)
	if err != nil {
		return nil, y.wrapError(ctx, "extract", url, res, err)
	}

	info, err := ParseInfo([]byte(res.Stdout))
	if err != nil {
		return nil, &Error{Message: "Некорректный ответ экстрактора: " + err.Error(), Err: err}
	}

	y.logger.Debug("Метаданные извлечены",
		slog.String("url", url),
		slog.String("id", info.ID),
		slog.Int("formats", len(info.Formats)),
		slog.Duration("duration", time.Since(start)),
	)
	return info, nil
}

// Download скачивает формат formatID по шаблону outputTemplate и возвращает
// путь итогового файла (после слияния и перемещения), напечатанный yt-dlp.
func (y *YtDlp) Download(ctx context.Context, url, formatID, outputTemplate string) (string, error) {
	ctx, cancel := withTimeout(ctx, y.downloadTimeout)
	defer cancel()

	res, err := y.command().
		Format(formatID).
		Output(outputTemplate).
		Print("after_move:filepath").
		NoSimulate().
		Run(ctx, url)
	if err != nil {
		return "", y.wrapError(ctx, "download", url, res, err)
	}

	return FinalPath(res.Stdout), nil
}

// wrapError превращает ошибку запуска в *Error с текстом из stderr yt-dlp.
func (y *YtDlp) wrapError(ctx context.Context, op, url string, res *ytdlp.Result, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Message: fmt.Sprintf("Превышено время ожидания экстрактора (%s)", op), Err: err}
	}

	stderr := ""
	if res != nil {
		stderr = res.Stderr
	}
	msg := ErrorMessage(stderr, err)

	y.logger.Debug("yt-dlp завершился с ошибкой",
		slog.String("op", op),
		slog.String("url", url),
		slog.String("error", msg),
	)
	return &Error{Message: msg, Err: err}
}

// ErrorMessage выбирает текст ошибки: строки "ERROR:" из stderr,
// иначе последняя непустая строка stderr, иначе текст err.
func ErrorMessage(stderr string, err error) string {
	var errLines []string
	last := ""
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		last = line
		if strings.HasPrefix(line, "ERROR:") {
			errLines = append(errLines, line)
		}
	}

	switch {
	case len(errLines) > 0:
		return strings.Join(errLines, "; ")
	case last != "":
		return last
	case err != nil:
		return err.Error()
	default:
		return "Неизвестная ошибка экстрактора"
	}
}

// FinalPath возвращает последнюю непустую строку stdout — путь,
// напечатанный по --print after_move:filepath.
func FinalPath(stdout string) string {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
