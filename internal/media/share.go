package media

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/pders01/pixa/internal/storage"
)

// ErrClipboardUnavailable means no clipboard utility was found.
var ErrClipboardUnavailable = errors.New("no clipboard available")

// Sharer puts image links on the clipboard.
type Sharer struct {
	write func(string) error
}

func NewSharer() *Sharer {
	if clipboard.Unsupported {
		return &Sharer{}
	}
	return &Sharer{write: clipboard.WriteAll}
}

// ShareLink is the link for img: its Pixabay page, else the image itself.
func ShareLink(img storage.Image) string {
	if img.PageURL != "" {
		return img.PageURL
	}
	return img.FullResolutionURL()
}

// Share copies the link for img and returns what was copied.
func (s *Sharer) Share(img storage.Image) (string, error) {
	link := ShareLink(img)
	if link == "" {
		return "", fmt.Errorf("image %d has no link to share", img.ID)
	}
	if s.write == nil {
		return "", ErrClipboardUnavailable
	}
	if err := s.write(link); err != nil {
		return "", fmt.Errorf("copying to clipboard: %w", err)
	}
	return link, nil
}
