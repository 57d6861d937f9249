package storage

import (
	"path"
	"strings"
	"time"
)

// Image is one hit of the Pixabay image search endpoint.
type Image struct {
	ID            int    `json:"id"`
	PageURL       string `json:"pageURL"`
	Type          string `json:"type"`
	Tags          string `json:"tags"`
	PreviewURL    string `json:"previewURL"`
	PreviewWidth  int    `json:"previewWidth,omitempty"`
	PreviewHeight int    `json:"previewHeight,omitempty"`
	WebformatURL  string `json:"webformatURL"`
	LargeImageURL string `json:"largeImageURL"`
	ImageWidth    int    `json:"imageWidth"`
	ImageHeight   int    `json:"imageHeight"`
	ImageSize     int64  `json:"imageSize,omitempty"`
	Views         int    `json:"views"`
	Downloads     int    `json:"downloads"`
	Likes         int    `json:"likes"`
	Comments      int    `json:"comments"`
	UserID        int    `json:"user_id,omitempty"`
	User          string `json:"user"`
	UserImageURL  string `json:"userImageURL"`
}

// TagList splits the comma separated tag string.
func (img Image) TagList() []string {
	var tags []string
	for _, t := range strings.Split(img.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// FullResolutionURL prefers the large image and falls back to the web format.
func (img Image) FullResolutionURL() string {
	if img.LargeImageURL != "" {
		return img.LargeImageURL
	}
	return img.WebformatURL
}

// AspectRatio returns width/height, or 1 when the size is unknown.
func (img Image) AspectRatio() float64 {
	if img.ImageWidth <= 0 || img.ImageHeight <= 0 {
		return 1
	}
	return float64(img.ImageWidth) / float64(img.ImageHeight)
}

// FileName is the last path segment of the preview URL.
func (img Image) FileName() string {
	if img.PreviewURL == "" {
		return ""
	}
	p := img.PreviewURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

type Download struct {
	Image        Image     `json:"image"`
	Path         string    `json:"path"`
	Bytes        int64     `json:"bytes"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

type cachedResponse struct {
	Key      string    `json:"key"`
	StoredAt time.Time `json:"stored_at"`
	Body     []byte    `json:"body"`
}
