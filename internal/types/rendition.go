package types

// Media kinds exposed in the catalogue.
const (
	MediaKindMP4  = "mp4"
	MediaKindWebM = "webm"
	MediaKindMP3  = "mp3"
	MediaKindM4A  = "m4a"
)

// Rendition is one encoded variant of a source as reported by the resolver.
type Rendition struct {
	Itag          string
	Container     string
	MimeType      string
	HasAudio      bool
	HasVideo      bool
	QualityLabel  string
	AudioBitrate  int    // kbps, 0 when unknown
	ContentLength string // decimal byte count, "" when unknown
	FPS           int
}

// CatalogueEntry is a normalized, user-facing download option.
type CatalogueEntry struct {
	Itag           string `json:"itag"`
	DisplayQuality string `json:"quality"`
	MediaKind      string `json:"format"`
	SizeLabel      string `json:"size"`
	Resolution     string `json:"resolution,omitempty"`
	BitrateLabel   string `json:"bitrate,omitempty"`
	HasAudio       bool   `json:"hasAudio"`
	HasVideo       bool   `json:"hasVideo"`
	Container      string `json:"container"`
	FPS            int    `json:"fps,omitempty"`
}
