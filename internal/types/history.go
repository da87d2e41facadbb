package types

import "time"

// HistoryEntry records one completed download.
type HistoryEntry struct {
	ID             string    `json:"id"`
	SourceID       string    `json:"videoId"`
	Title          string    `json:"title"`
	Thumbnail      string    `json:"thumbnail"`
	DownloadedAt   time.Time `json:"downloadedAt"`
	MediaKind      string    `json:"format"`
	DisplayQuality string    `json:"quality"`
}
