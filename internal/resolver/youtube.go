package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"go.uber.org/zap"

	"github.com/tubegrab/tubegrab/internal/types"
)

// YouTube resolves sources through the kkdai youtube client, which owns all
// extraction and deciphering logic.
type YouTube struct {
	client *youtube.Client
	logger *zap.Logger
}

// NewYouTube builds a YouTube resolver. The HTTP client must not carry a
// whole-request timeout: streams stay open for the length of a download.
// Pass nil for a plain client.
func NewYouTube(httpClient *http.Client, logger *zap.Logger) *YouTube {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YouTube{
		client: &youtube.Client{HTTPClient: httpClient},
		logger: logger,
	}
}

func (y *YouTube) ResolveMetadata(ctx context.Context, url string) (*types.Metadata, error) {
	video, err := y.client.GetVideoContext(ctx, url)
	if err != nil {
		y.logger.Warn("metadata resolution failed", zap.Error(err))
		return nil, Classify(err)
	}
	return metadataFromVideo(video), nil
}

func (y *YouTube) ListRenditions(ctx context.Context, url string) ([]types.Rendition, error) {
	video, err := y.client.GetVideoContext(ctx, url)
	if err != nil {
		y.logger.Warn("rendition listing failed", zap.Error(err))
		return nil, Classify(err)
	}
	renditions := make([]types.Rendition, 0, len(video.Formats))
	for _, f := range video.Formats {
		renditions = append(renditions, renditionFromFormat(f))
	}
	return renditions, nil
}

func (y *YouTube) OpenStream(ctx context.Context, url, itag string) (io.ReadCloser, *types.Rendition, error) {
	video, err := y.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, nil, Classify(err)
	}

	var format *youtube.Format
	for i := range video.Formats {
		if strconv.Itoa(video.Formats[i].ItagNo) == itag {
			format = &video.Formats[i]
			break
		}
	}
	if format == nil {
		return nil, nil, fmt.Errorf("itag %s: %w", itag, types.ErrRenditionNotFound)
	}

	stream, size, err := y.client.GetStreamContext(ctx, video, format)
	if err != nil {
		y.logger.Warn("upstream stream open failed",
			zap.String("itag", itag), zap.Error(err))
		return nil, nil, Classify(err)
	}

	rendition := renditionFromFormat(*format)
	if rendition.ContentLength == "" && size > 0 {
		rendition.ContentLength = strconv.FormatInt(size, 10)
	}
	return stream, &rendition, nil
}

func renditionFromFormat(f youtube.Format) types.Rendition {
	hasVideo := strings.HasPrefix(f.MimeType, "video/")
	hasAudio := f.AudioChannels > 0 || strings.HasPrefix(f.MimeType, "audio/")

	r := types.Rendition{
		Itag:         strconv.Itoa(f.ItagNo),
		Container:    containerOf(f.MimeType),
		MimeType:     f.MimeType,
		HasAudio:     hasAudio,
		HasVideo:     hasVideo,
		QualityLabel: f.QualityLabel,
		FPS:          f.FPS,
	}
	if f.ContentLength > 0 {
		r.ContentLength = strconv.FormatInt(f.ContentLength, 10)
	}
	if hasAudio && !hasVideo && f.Bitrate > 0 {
		r.AudioBitrate = f.Bitrate / 1000
	}
	return r
}

// containerOf extracts the container tag from a mime type such as
// `video/mp4; codecs="avc1.42001E"`.
func containerOf(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	_, subtype, ok := strings.Cut(strings.TrimSpace(base), "/")
	if !ok {
		return ""
	}
	return strings.TrimSpace(subtype)
}

func metadataFromVideo(video *youtube.Video) *types.Metadata {
	m := &types.Metadata{
		ID:          video.ID,
		Title:       video.Title,
		Duration:    formatDuration(video.Duration),
		Channel:     video.Author,
		Description: video.Description,
	}
	if video.ChannelID != "" {
		m.ChannelURL = "https://www.youtube.com/channel/" + video.ChannelID
	}
	if len(video.Thumbnails) > 0 {
		// thumbnails are ordered smallest to largest
		m.Thumbnail = video.Thumbnails[len(video.Thumbnails)-1].URL
	}
	if !video.PublishDate.IsZero() {
		m.UploadDate = video.PublishDate.Format("2006-01-02")
	}
	if video.Views > 0 {
		m.ViewCount = strconv.Itoa(video.Views)
	}
	return m
}

func formatDuration(d time.Duration) string {
	total := int(d.Seconds())
	h := total / 3600
	m := total % 3600 / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
