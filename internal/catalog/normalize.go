// Package catalog derives the user-facing download catalogue from the raw
// rendition list reported by the resolver.
package catalog

import (
	"strconv"

	"github.com/tubegrab/tubegrab/internal/types"
)

// Normalize filters, labels, deduplicates and orders raw renditions.
// Renditions carrying neither audio nor video are dropped. Within the result
// no two entries share the same (quality, media kind) pair; the first
// occurrence in input order wins. The result is ordered best-first: video
// renditions by descending height, then audio-only renditions by descending
// bitrate. An empty result is valid.
func Normalize(renditions []types.Rendition) []types.CatalogueEntry {
	entries := make([]types.CatalogueEntry, 0, len(renditions))
	seen := make(map[string]struct{}, len(renditions))

	for _, r := range renditions {
		if !r.HasAudio && !r.HasVideo {
			continue
		}

		e := types.CatalogueEntry{
			Itag:           r.Itag,
			DisplayQuality: DisplayQualityOf(r),
			MediaKind:      MediaKindOf(r),
			SizeLabel:      sizeLabel(r.ContentLength),
			Resolution:     r.QualityLabel,
			HasAudio:       r.HasAudio,
			HasVideo:       r.HasVideo,
			Container:      r.Container,
			FPS:            r.FPS,
		}
		if r.HasAudio && !r.HasVideo && r.AudioBitrate > 0 {
			e.BitrateLabel = strconv.Itoa(r.AudioBitrate) + "kbps"
		}

		key := e.DisplayQuality + "|" + e.MediaKind
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		entries = append(entries, e)
	}

	sortEntries(entries)
	return entries
}

// MediaKindOf maps a rendition onto the simplified output-format tag.
// Audio-only renditions become m4a (mp4 container) or mp3; video-bearing
// renditions keep webm and default to mp4 for every other container.
func MediaKindOf(r types.Rendition) string {
	switch {
	case r.HasAudio && !r.HasVideo:
		if r.Container == "mp4" {
			return types.MediaKindM4A
		}
		return types.MediaKindMP3
	case r.Container == "webm":
		return types.MediaKindWebM
	default:
		return types.MediaKindMP4
	}
}

// DisplayQualityOf picks the human quality label: the rendition's own label,
// else "<bitrate>kbps" for audio, else "unknown".
func DisplayQualityOf(r types.Rendition) string {
	if r.QualityLabel != "" {
		return r.QualityLabel
	}
	if r.AudioBitrate > 0 {
		return strconv.Itoa(r.AudioBitrate) + "kbps"
	}
	return "unknown"
}

func sizeLabel(contentLength string) string {
	if contentLength == "" {
		return "Unknown"
	}
	n, err := strconv.ParseInt(contentLength, 10, 64)
	if err != nil || n < 0 {
		return "Unknown"
	}
	return FormatBytes(n)
}
