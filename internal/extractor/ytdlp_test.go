package extractor

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bigkaa/mediafetch/internal/domain/formats"
	"github.com/bigkaa/mediafetch/internal/service"
)

var _ service.Extractor = (*YtDlp)(nil)

// sampleInfo — сокращённый вывод yt-dlp --dump-single-json.
const sampleInfo = `{
  "id": "dQw4w9WgXcQ",
  "title": "Never Gonna Give You Up",
  "uploader": null,
  "channel": "Rick Astley",
  "duration": 212.0,
  "thumbnail": "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
  "thumbnails": [
    {"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/default.jpg", "width": 120, "height": 90},
    {"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", "width": 1280, "height": 720}
  ],
  "description": "The official video",
  "view_count": 1500000000,
  "upload_date": "20091025",
  "webpage_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
  "formats": [
    {"format_id": "sb0", "ext": "mhtml", "format_note": "storyboard", "vcodec": "none", "acodec": "none"},
    {"format_id": "140", "ext": "m4a", "format_note": "medium", "vcodec": "none", "acodec": "mp4a.40.2", "abr": 129.5, "filesize": 3436789},
    {"format_id": "137", "ext": "mp4", "format_note": "1080p", "height": 1080, "vcodec": "avc1.640028", "acodec": "none", "vbr": 4400.1, "filesize_approx": 120000000.0},
    {"format_id": "18", "ext": "mp4", "format_note": "360p", "height": 360, "vcodec": "avc1.42001E", "acodec": "mp4a.40.2", "filesize": 11000000}
  ]
}`

// TestParseInfo проверяет разбор JSON yt-dlp.
func TestParseInfo(t *testing.T) {
	info, err := ParseInfo([]byte(sampleInfo))
	if err != nil {
		t.Fatalf("ошибка разбора: %v", err)
	}

	if info.ID != "dQw4w9WgXcQ" {
		t.Errorf("ID = %q", info.ID)
	}
	if info.Uploader == nil || *info.Uploader != "Rick Astley" {
		t.Errorf("Uploader = %v, ожидался channel как запасной вариант", info.Uploader)
	}
	if info.ViewCount == nil || *info.ViewCount != 1500000000 {
		t.Errorf("ViewCount = %v", info.ViewCount)
	}
	if len(info.Thumbnails) != 2 || info.Thumbnails[1].Width == nil || *info.Thumbnails[1].Width != 1280 {
		t.Errorf("Thumbnails = %+v", info.Thumbnails)
	}
	if len(info.Formats) != 4 {
		t.Fatalf("форматов = %d, ожидалось 4", len(info.Formats))
	}

	audio := info.Formats[1]
	if audio.QualityLabel != "" {
		t.Errorf("у аудио метка качества = %q, format_note не должен использоваться", audio.QualityLabel)
	}
	if audio.FileSize == nil || *audio.FileSize != 3436789 {
		t.Errorf("FileSize = %v", audio.FileSize)
	}

	video := info.Formats[2]
	if video.QualityLabel != "1080p" {
		t.Errorf("метка качества = %q, ожидалась 1080p", video.QualityLabel)
	}
	if video.FileSize != nil || video.FileSizeApprox == nil || *video.FileSizeApprox != 120000000 {
		t.Errorf("FileSize/FileSizeApprox = %v/%v", video.FileSize, video.FileSizeApprox)
	}
	if video.Height == nil || *video.Height != 1080 {
		t.Errorf("Height = %v", video.Height)
	}
}

// TestParseInfo_Normalized проверяет совместную работу разбора и нормализации.
func TestParseInfo_Normalized(t *testing.T) {
	info, err := ParseInfo([]byte(sampleInfo))
	if err != nil {
		t.Fatalf("ошибка разбора: %v", err)
	}

	got := formats.Normalize(info.Formats, formats.DefaultMaxResults)
	want := []string{"18", "137", "140"}
	if len(got) != len(want) {
		t.Fatalf("форматов = %d, ожидалось %d", len(got), len(want))
	}
	for i, f := range got {
		if f.FormatID != want[i] {
			t.Errorf("позиция %d: format_id = %q, ожидался %q", i, f.FormatID, want[i])
		}
	}
	if got[2].Quality != formats.AudioQuality {
		t.Errorf("качество аудио = %q", got[2].Quality)
	}
}

// TestParseInfo_Invalid проверяет ошибку на некорректном JSON.
func TestParseInfo_Invalid(t *testing.T) {
	if _, err := ParseInfo([]byte("not json")); err == nil {
		t.Error("ожидалась ошибка разбора")
	}
}

// TestParseInfo_MissingCodecs проверяет, что отсутствующие кодеки дают пустую строку.
func TestParseInfo_MissingCodecs(t *testing.T) {
	info, err := ParseInfo([]byte(`{"formats":[{"format_id":"0","ext":"mp4","vcodec":null}]}`))
	if err != nil {
		t.Fatalf("ошибка разбора: %v", err)
	}
	if info.Formats[0].VCodec != "" || info.Formats[0].ACodec != "" {
		t.Errorf("кодеки = %q/%q, ожидались пустые", info.Formats[0].VCodec, info.Formats[0].ACodec)
	}
	if info.Title != nil {
		t.Error("Title должен быть nil")
	}
}

// TestErrorMessage проверяет выбор текста ошибки из stderr.
func TestErrorMessage(t *testing.T) {
	runErr := errors.New("exit status 1")

	tests := []struct {
		name   string
		stderr string
		want   string
	}{
		{
			name:   "строка ERROR",
			stderr: "WARNING: something\nERROR: [youtube] xyz: Video unavailable\n",
			want:   "ERROR: [youtube] xyz: Video unavailable",
		},
		{
			name:   "несколько ERROR",
			stderr: "ERROR: first\nERROR: second",
			want:   "ERROR: first; ERROR: second",
		},
		{
			name:   "без ERROR",
			stderr: "Traceback\nValueError: bad\n",
			want:   "ValueError: bad",
		},
		{
			name:   "пустой stderr",
			stderr: "",
			want:   "exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.stderr, runErr); got != tt.want {
				t.Errorf("ErrorMessage = %q, ожидалось %q", got, tt.want)
			}
		})
	}
}

// TestFinalPath проверяет выбор пути из stdout.
func TestFinalPath(t *testing.T) {
	stdout := "\n/data/downloads/abcd1234_Clip.mp4\n\n"
	if got := FinalPath(stdout); got != "/data/downloads/abcd1234_Clip.mp4" {
		t.Errorf("FinalPath = %q", got)
	}
	if got := FinalPath(""); got != "" {
		t.Errorf("FinalPath(\"\") = %q, ожидалась пустая строка", got)
	}
}

// TestError_Message проверяет, что текст ошибки отдаётся без префиксов.
func TestError_Message(t *testing.T) {
	cause := errors.New("exit status 1")
	err := &Error{Message: "ERROR: Unsupported URL", Err: cause}

	if err.Error() != "ERROR: Unsupported URL" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is не находит исходную ошибку")
	}
}

// TestNew проверяет конструктор.
func TestNew(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	y := New("/usr/local/bin/yt-dlp", time.Minute, time.Hour, logger)
	if y.executable != "/usr/local/bin/yt-dlp" || y.extractTimeout != time.Minute || y.downloadTimeout != time.Hour {
		t.Errorf("поля = %+v", y)
	}
}
