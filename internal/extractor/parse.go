// parse.go — разбор JSON-вывода yt-dlp (--dump-single-json) в доменную модель.
package extractor

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/bigkaa/mediafetch/internal/domain/model"
)

// infoJSON — поля yt-dlp, которые использует сервис.
// Числа описаны как float64: часть экстракторов отдаёт размеры и высоту дробными.
type infoJSON struct {
	ID          string          `json:"id"`
	Title       *string         `json:"title"`
	Uploader    *string         `json:"uploader"`
	Channel     *string         `json:"channel"`
	Duration    *float64        `json:"duration"`
	Thumbnail   *string         `json:"thumbnail"`
	Thumbnails  []thumbnailJSON `json:"thumbnails"`
	Description *string         `json:"description"`
	ViewCount   *float64        `json:"view_count"`
	UploadDate  *string         `json:"upload_date"`
	WebpageURL  string          `json:"webpage_url"`
	Formats     []formatJSON    `json:"formats"`
}

type thumbnailJSON struct {
	URL    string   `json:"url"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

type formatJSON struct {
	FormatID       string   `json:"format_id"`
	Ext            string   `json:"ext"`
	QualityLabel   string   `json:"quality_label"`
	FormatNote     string   `json:"format_note"`
	Height         *float64 `json:"height"`
	FileSize       *float64 `json:"filesize"`
	FileSizeApprox *float64 `json:"filesize_approx"`
	VCodec         *string  `json:"vcodec"`
	ACodec         *string  `json:"acodec"`
	ABR            *float64 `json:"abr"`
	VBR            *float64 `json:"vbr"`
}

// ParseInfo разбирает JSON одного медиа.
// Uploader при отсутствии берётся из channel. Метка качества — quality_label,
// а для форматов с видео ещё и format_note (у аудио format_note — "medium",
// "low", это не качество кадра).
func ParseInfo(data []byte) (*model.ExtractorResult, error) {
	var raw infoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("разбор JSON yt-dlp: %w", err)
	}

	res := &model.ExtractorResult{
		ID:          raw.ID,
		Title:       raw.Title,
		Uploader:    raw.Uploader,
		Duration:    raw.Duration,
		Thumbnail:   raw.Thumbnail,
		Description: raw.Description,
		ViewCount:   toInt64(raw.ViewCount),
		UploadDate:  raw.UploadDate,
		WebpageURL:  raw.WebpageURL,
		Thumbnails:  make([]model.Thumbnail, 0, len(raw.Thumbnails)),
		Formats:     make([]model.RawFormat, 0, len(raw.Formats)),
	}
	if res.Uploader == nil || *res.Uploader == "" {
		res.Uploader = raw.Channel
	}

	for _, th := range raw.Thumbnails {
		res.Thumbnails = append(res.Thumbnails, model.Thumbnail{
			URL:    th.URL,
			Width:  toInt(th.Width),
			Height: toInt(th.Height),
		})
	}

	for _, f := range raw.Formats {
		rf := model.RawFormat{
			FormatID:       f.FormatID,
			Ext:            f.Ext,
			QualityLabel:   f.QualityLabel,
			Height:         toInt(f.Height),
			FileSize:       toInt64(f.FileSize),
			FileSizeApprox: toInt64(f.FileSizeApprox),
			VCodec:         deref(f.VCodec),
			ACodec:         deref(f.ACodec),
			ABR:            f.ABR,
			VBR:            f.VBR,
		}
		if rf.QualityLabel == "" && rf.HasVideo() && f.FormatNote != "" {
			rf.QualityLabel = f.FormatNote
		}
		res.Formats = append(res.Formats, rf)
	}

	return res, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func toInt64(p *float64) *int64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	v := int64(*p)
	return &v
}

func toInt(p *float64) *int {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	v := int(*p)
	return &v
}
