// Пакет formats — нормализация списка форматов, полученного от экстрактора:
// фильтрация непроигрываемых, дедупликация по (качество, расширение),
// стабильное ранжирование и усечение.
package formats

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/bigkaa/mediafetch/internal/domain/model"
)

// DefaultMaxResults — число форматов в ответе GET /info по умолчанию.
const DefaultMaxResults = 15

// AudioQuality — метка качества для форматов без метки и высоты кадра.
const AudioQuality = "audio"

// dedupKey — ключ дедупликации. (качество, ext) сравниваются внутри
// одного типа формата: muxed-поток и отдельное видео одного разрешения
// дубликатами не считаются.
type dedupKey struct {
	quality string
	ext     string
	kind    model.FormatType
}

// Normalize превращает сырые форматы экстрактора в упорядоченный список
// не длиннее maxResults.
//
// Порядок шагов:
//  1. Отбрасываются форматы без format_id или ext и форматы, у которых
//     оба кодека равны "none".
//  2. Из форматов одного типа с одинаковыми (качество, ext) остаётся
//     первый по порядку входа.
//  3. Стабильная сортировка по убыванию (video+audio первыми, затем размер).
//  4. Усечение до maxResults; maxResults <= 0 даёт пустой список.
//
// Функция не возвращает ошибок и не изменяет входной срез.
func Normalize(raw []model.RawFormat, maxResults int) []model.NormalizedFormat {
	if maxResults <= 0 {
		return []model.NormalizedFormat{}
	}

	seen := make(map[dedupKey]struct{}, len(raw))
	out := make([]model.NormalizedFormat, 0, len(raw))

	for _, f := range raw {
		if f.FormatID == "" || f.Ext == "" {
			continue
		}
		if !f.HasVideo() && !f.HasAudio() {
			continue
		}

		quality := DisplayQuality(f)
		kind := Classify(f)
		key := dedupKey{quality: quality, ext: f.Ext, kind: kind}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, model.NormalizedFormat{
			FormatID:   f.FormatID,
			Ext:        f.Ext,
			Quality:    quality,
			FormatType: kind,
			FileSize:   ResolveSize(f),
			VCodec:     f.VCodec,
			ACodec:     f.ACodec,
			ABR:        f.ABR,
			VBR:        f.VBR,
		})
	}

	// SortStableFunc сохраняет порядок входа для равных ключей
	slices.SortStableFunc(out, func(a, b model.NormalizedFormat) int {
		if c := cmp.Compare(rank(b), rank(a)); c != 0 {
			return c
		}
		return cmp.Compare(b.FileSize, a.FileSize)
	})

	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}

// Classify определяет тип формата только по наличию кодеков.
func Classify(f model.RawFormat) model.FormatType {
	hasVideo, hasAudio := f.HasVideo(), f.HasAudio()
	switch {
	case hasVideo && hasAudio:
		return model.FormatVideoAudio
	case hasVideo:
		return model.FormatVideoOnly
	case hasAudio:
		return model.FormatAudioOnly
	default:
		return model.FormatUnknown
	}
}

// DisplayQuality возвращает метку качества: метка экстрактора,
// иначе высота кадра ("720p"), иначе "audio".
func DisplayQuality(f model.RawFormat) string {
	if f.QualityLabel != "" {
		return f.QualityLabel
	}
	if f.Height != nil && *f.Height > 0 {
		return strconv.Itoa(*f.Height) + "p"
	}
	return AudioQuality
}

// ResolveSize возвращает точный размер, иначе оценку, иначе 0.
func ResolveSize(f model.RawFormat) int64 {
	if f.FileSize != nil {
		return *f.FileSize
	}
	if f.FileSizeApprox != nil {
		return *f.FileSizeApprox
	}
	return 0
}

func rank(f model.NormalizedFormat) int {
	if f.FormatType == model.FormatVideoAudio {
		return 1
	}
	return 0
}
