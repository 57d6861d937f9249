package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/pixa/internal/config"
	"github.com/pders01/pixa/internal/masonry"
	"github.com/pders01/pixa/internal/storage"
)

// grid is the scrollable masonry view over the session's images.
type grid struct {
	cfg      config.GridConfig
	layout   *masonry.Layout
	selected int
	scroll   int
	width    int
	height   int
}

func newGrid(cfg config.GridConfig) *grid {
	return &grid{cfg: cfg, layout: masonry.Build(nil, 1, 1, 1, 1)}
}

func (g *grid) setSize(width, height int) {
	g.width, g.height = width, height
}

// rebuild lays out images for the current width and keeps the selection in range.
func (g *grid) rebuild(images []storage.Image) {
	width := g.width
	if width < 1 {
		width = 1
	}
	columns := masonry.ColumnCount(width, g.cfg.MinColumnWidth, g.cfg.MaxColumns)
	sizes := make([]masonry.Size, len(images))
	for i, img := range images {
		sizes[i] = masonry.Size{Width: img.ImageWidth, Height: img.ImageHeight}
	}
	g.layout = masonry.Build(sizes, columns, width/columns, g.cfg.MinTileRows, g.cfg.MaxTileRows)

	if g.selected >= len(images) {
		g.selected = len(images) - 1
	}
	if g.selected < 0 {
		g.selected = 0
	}
	g.ensureVisible()
}

func (g *grid) len() int { return len(g.layout.Tiles) }

func (g *grid) reset() {
	g.selected = 0
	g.scroll = 0
}

// move shifts the selection and reports whether it changed.
func (g *grid) move(dir masonry.Direction) bool {
	next := g.layout.Neighbor(g.selected, dir)
	if next == g.selected {
		return false
	}
	g.selected = next
	g.ensureVisible()
	return true
}

// page moves the selection by about one screen.
func (g *grid) page(dir masonry.Direction) bool {
	if g.len() == 0 {
		return false
	}
	start := g.layout.Tiles[g.selected].Top
	moved := false
	for g.move(dir) {
		moved = true
		if d := g.layout.Tiles[g.selected].Top - start; d >= g.height || -d >= g.height {
			break
		}
	}
	return moved
}

func (g *grid) last() bool {
	n := g.len()
	if n == 0 || g.selected == n-1 {
		return false
	}
	g.selected = n - 1
	g.ensureVisible()
	return true
}

func (g *grid) ensureVisible() {
	if g.len() == 0 {
		g.scroll = 0
		return
	}
	t := g.layout.Tiles[g.selected]
	if t.Top < g.scroll {
		g.scroll = t.Top
	}
	if t.Bottom() > g.scroll+g.height {
		g.scroll = t.Bottom() - g.height
	}
	if g.scroll < 0 {
		g.scroll = 0
	}
}

// scrolledPastFirstScreen drives the back-to-top hint.
func (g *grid) scrolledPastFirstScreen() bool {
	return g.height > 0 && g.scroll >= g.height
}

func (g *grid) nearEnd(threshold int) bool {
	return g.len() > 0 && g.layout.NearEnd(g.selected, threshold)
}

func (g *grid) render(images []storage.Image, downloaded map[int]bool, focused bool) string {
	if g.height <= 0 || g.width <= 0 {
		return ""
	}
	colWidth := g.layout.ColumnWidth
	blank := strings.Repeat(" ", colWidth)

	columns := make([][]string, g.layout.Columns)
	for c := range columns {
		columns[c] = make([]string, g.height)
		for r := range columns[c] {
			columns[c][r] = blank
		}
	}

	for _, t := range g.layout.Visible(g.scroll, g.scroll+g.height) {
		if t.Index >= len(images) {
			continue
		}
		tile := renderTile(images[t.Index], colWidth, t.Height, focused && t.Index == g.selected, downloaded[images[t.Index].ID])
		for i, line := range strings.Split(tile, "\n") {
			row := t.Top - g.scroll + i
			if row >= 0 && row < g.height {
				columns[t.Column][row] = padCells(line, colWidth)
			}
		}
	}

	rows := make([]string, g.height)
	for r := range rows {
		var b strings.Builder
		for c := range columns {
			b.WriteString(columns[c][r])
		}
		rows[r] = b.String()
	}
	return strings.Join(rows, "\n")
}

// renderTile draws one image card of exactly height rows, one cell narrower
// than the column so neighbouring cards do not touch.
func renderTile(img storage.Image, colWidth, height int, selected, downloaded bool) string {
	style := TileStyle
	if selected {
		style = SelectedTileStyle
	}
	boxWidth := colWidth - 3
	if boxWidth < 3 {
		boxWidth = 3
	}
	textWidth := boxWidth - 2
	inner := height - 2
	if inner < 1 {
		inner = 1
	}

	title := strings.Join(img.TagList(), ", ")
	if title == "" {
		title = fmt.Sprintf("#%d", img.ID)
	}
	if downloaded {
		title = "✓ " + title
	}
	titleLine := lipgloss.NewStyle().Foreground(TextColor).Bold(selected).Render(truncateEnd(title, textWidth))
	stats := renderMuted(truncateEnd(fmt.Sprintf("♥ %d  ↓ %d", img.Likes, img.Downloads), textWidth))
	byline := renderMuted(truncateEnd(fmt.Sprintf("@%s · %d×%d", img.User, img.ImageWidth, img.ImageHeight), textWidth))

	var lines []string
	switch {
	case inner >= 3:
		lines = append(lines, titleLine)
		filler := lipgloss.NewStyle().Foreground(SurfaceColor).Render(strings.Repeat("░", textWidth))
		for i := 0; i < inner-3; i++ {
			lines = append(lines, filler)
		}
		lines = append(lines, stats, byline)
	default:
		lines = append(lines, titleLine, stats)
		lines = lines[:inner]
	}

	return style.Width(boxWidth).Height(inner).Render(strings.Join(lines, "\n"))
}

// padCells pads a rendered line to width cells, ignoring escape sequences.
func padCells(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
