package catalog

import (
	"sort"
	"strconv"

	"github.com/tubegrab/tubegrab/internal/types"
)

// sortEntries orders the catalogue best-first: video renditions by descending
// resolution height, audio-only renditions by descending bitrate, and every
// video rendition ahead of every audio-only one. Equal keys keep input order.
func sortEntries(entries []types.CatalogueEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.HasVideo && b.HasVideo:
			return leadingInt(a.Resolution) > leadingInt(b.Resolution)
		case !a.HasVideo && !b.HasVideo:
			return leadingInt(a.BitrateLabel) > leadingInt(b.BitrateLabel)
		default:
			return a.HasVideo
		}
	})
}

// leadingInt parses the numeric prefix of labels like "1080p60" or "128kbps".
// Unparseable labels count as 0.
func leadingInt(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	n, _ := strconv.Atoi(s[:i])
	return n
}
