package types

// Metadata contains descriptive information about a source video.
type Metadata struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Duration    string `json:"duration"`
	Thumbnail   string `json:"thumbnail"`
	Channel     string `json:"channel"`
	ChannelURL  string `json:"channelUrl,omitempty"`
	UploadDate  string `json:"uploadDate,omitempty"`
	ViewCount   string `json:"viewCount,omitempty"`
	Description string `json:"description,omitempty"`
}
