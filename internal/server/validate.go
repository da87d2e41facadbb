package server

import "regexp"

// sourceURLPattern accepts the watch, short, shorts and embed URL shapes with
// an 11-character video id.
var sourceURLPattern = regexp.MustCompile(
	`^(?:https?://)?(?:(?:www|m)\.)?` +
		`(?:youtube\.com/(?:watch\?(?:[^#]*&)?v=|shorts/|embed/)|youtu\.be/)` +
		`([0-9A-Za-z_-]{11})(?:[?&#].*)?$`)

// SourceID extracts the video id from a recognized source URL shape.
func SourceID(rawURL string) (string, bool) {
	m := sourceURLPattern.FindStringSubmatch(rawURL)
	if len(m) != 2 {
		return "", false
	}
	return m[1], true
}
