package tui

import (
	"errors"
	"fmt"

	"github.com/pders01/pixa/internal/media"
	"github.com/pders01/pixa/internal/pixabay"
)

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// describeErr shortens errors the user can act on.
func describeErr(err error) string {
	switch {
	case errors.Is(err, pixabay.ErrMissingAPIKey):
		return "no API key: set api.key in the config or PIXABAY_API_KEY"
	case errors.Is(err, media.ErrClipboardUnavailable):
		return "no clipboard available (install xclip, xsel or wl-clipboard)"
	}
	return err.Error()
}
