package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// truncateEnd shortens s to at most limit cells, appending an ellipsis
// if truncation occurs. Wide runes count as two cells.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	return runewidth.Truncate(s, limit, "…")
}

// truncateMiddle keeps both ends of s with a single ellipsis in between.
// Useful for paths and URLs.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= limit {
		return s
	}
	if limit <= 1 {
		return "…"
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left

	head := runewidth.Truncate(s, left, "")
	r := []rune(s)
	tail, w := len(r), 0
	for tail > 0 {
		rw := runewidth.RuneWidth(r[tail-1])
		if w+rw > right {
			break
		}
		w += rw
		tail--
	}
	return head + "…" + string(r[tail:])
}

// padRight fills s with spaces to exactly width cells, truncating if needed.
func padRight(s string, width int) string {
	s = truncateEnd(s, width)
	if gap := width - runewidth.StringWidth(s); gap > 0 {
		s += strings.Repeat(" ", gap)
	}
	return s
}
