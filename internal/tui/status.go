package tui

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgLoading         = "Loading…"
	MsgLoadingMore     = "Loading more…"
	MsgRefreshing      = "Refreshing…"
	MsgDownloading     = "Downloading…"
	MsgDeleting        = "Deleting…"
	MsgNoResults       = "No results"
	MsgEndOfResults    = "End of results"
	MsgFiltersReset    = "Filters reset"
	MsgNoDownloads     = "No downloads yet"
	MsgDownloadDeleted = "Download deleted"
	MsgBackToTop       = "home: back to top"
)

func MsgDownloaded(path string, bytes int64) string {
	return fmt.Sprintf("Saved %s (%s)", filepath.Base(path), humanBytes(bytes))
}

func MsgCopied(link string) string {
	return "Copied " + strings.TrimSpace(link)
}

func MsgResultsCount(shown, total int) string {
	if total <= 0 || total == shown {
		if shown == 1 {
			return "1 image"
		}
		return fmt.Sprintf("%d images", shown)
	}
	return fmt.Sprintf("%d of %d images", shown, total)
}

func MsgLibraryCount(n int, docCount int) string {
	base := "1 download"
	if n != 1 {
		base = fmt.Sprintf("%d downloads", n)
	}
	if docCount >= 0 {
		base += fmt.Sprintf(" • idx: %d docs", docCount)
	}
	return base
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
