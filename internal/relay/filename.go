package relay

import (
	"strings"

	"github.com/tubegrab/tubegrab/internal/types"
)

const maxFilenameLen = 100

// SanitizeTitle lowercases the title and replaces every rune outside
// [a-z0-9] with '_', truncated to 100 characters.
func SanitizeTitle(title string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, title)
	if len(s) > maxFilenameLen {
		s = s[:maxFilenameLen]
	}
	return s
}

func filenameFor(title, container string) string {
	ext := container
	if ext == "" {
		ext = "mp4"
	}
	return SanitizeTitle(title) + "." + ext
}

func contentTypeFor(r types.Rendition) string {
	if r.MimeType != "" {
		return r.MimeType
	}
	ext := r.Container
	if ext == "" {
		ext = "mp4"
	}
	if r.HasVideo {
		return "video/" + ext
	}
	switch ext {
	case "mp4", "m4a":
		return "audio/mp4"
	case "webm":
		return "audio/webm"
	default:
		return "audio/mpeg"
	}
}
