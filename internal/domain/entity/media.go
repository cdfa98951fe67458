package entity

import "strings"

// MediaKind tags a stored binary asset.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaPDF   MediaKind = "pdf"
)

// Media is a value object pointing at a stored blob. It is owned by the
// profile or one of its nested entries and is never addressable on its own.
type Media struct {
	Kind     MediaKind `json:"type"`
	URL      string    `json:"url"`
	Filename string    `json:"filename,omitempty"`
}

// KindFromContentType maps an upload MIME type to a media kind.
// Returns false for anything outside the allowed set.
func KindFromContentType(contentType string) (MediaKind, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case ct == "image/jpeg" || ct == "image/png" || ct == "image/gif":
		return MediaImage, true
	case ct == "video/mp4":
		return MediaVideo, true
	case ct == "application/pdf":
		return MediaPDF, true
	}
	return "", false
}
