package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/pixa/internal/storage"
)

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > 120 {
		wordWrapWidth = 120
	}
	if wordWrapWidth < 40 {
		wordWrapWidth = 40
	}
	if a.width < 50 {
		wordWrapWidth = a.width - 4
		if wordWrapWidth < 20 {
			wordWrapWidth = 20
		}
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func detailMarkdown(img storage.Image) string {
	var b strings.Builder
	title := strings.Join(img.TagList(), ", ")
	if title == "" {
		title = fmt.Sprintf("Image %d", img.ID)
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**@%s** · %s · %d×%d\n\n", img.User, img.Type, img.ImageWidth, img.ImageHeight)

	b.WriteString("| views | downloads | likes | comments |\n|---:|---:|---:|---:|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d |\n\n", img.Views, img.Downloads, img.Likes, img.Comments)

	if tags := img.TagList(); len(tags) > 0 {
		b.WriteString("**Tags:** ")
		for i, t := range tags {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "`%s`", t)
		}
		b.WriteString("\n\n")
	}

	if img.PageURL != "" {
		fmt.Fprintf(&b, "[View on Pixabay](%s)\n\n", img.PageURL)
	}
	if u := img.FullResolutionURL(); u != "" {
		fmt.Fprintf(&b, "Full size: %s\n", u)
	}
	return b.String()
}

func (a *App) renderDetail(img storage.Image) tea.Cmd {
	return func() tea.Msg {
		r, err := a.getRenderer()
		if err != nil {
			return detailRenderedMsg{id: img.ID, content: "Error initializing renderer: " + err.Error()}
		}
		rendered, err := r.Render(detailMarkdown(img))
		if err != nil {
			return detailRenderedMsg{id: img.ID, content: fmt.Sprintf("Failed to render details: %v", err)}
		}
		return detailRenderedMsg{id: img.ID, content: rendered}
	}
}

// frameSize sizes the preview frame from the image's aspect ratio. Landscape
// images take the full width; portrait images take maxHeight rows and are
// as wide as the ratio allows. Cells are about twice as tall as wide.
func frameSize(img storage.Image, maxWidth, maxHeight int) (int, int) {
	if maxWidth < 4 || maxHeight < 3 {
		return maxWidth, maxHeight
	}
	ratio := img.AspectRatio()
	var w, h int
	if ratio >= 1 {
		w = maxWidth
		h = int(math.Round(float64(w) / ratio / 2))
		if h > maxHeight {
			h = maxHeight
			w = int(math.Round(float64(h) * 2 * ratio))
		}
	} else {
		h = maxHeight
		w = int(math.Round(float64(h) * 2 * ratio))
		if w > maxWidth {
			w = maxWidth
			h = int(math.Round(float64(w) / ratio / 2))
		}
	}
	if w < 4 {
		w = 4
	}
	if h < 3 {
		h = 3
	}
	return w, h
}

func renderFrame(img storage.Image, width, height int) string {
	orientation := "landscape"
	if img.AspectRatio() < 1 {
		orientation = "portrait"
	}
	label := fmt.Sprintf("%d × %d · %s", img.ImageWidth, img.ImageHeight, orientation)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(AccentColor).
		Foreground(MutedColor).
		Width(width-2).
		Height(height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(truncateEnd(label, width-2))
}

func (a *App) viewDetail(height int) string {
	img, ok := a.detailImage()
	if !ok {
		return renderCentered(a.width, height, renderMuted(MsgNoResults))
	}
	fw, fh := frameSize(img, a.width, height/2)
	frame := lipgloss.PlaceHorizontal(a.width, lipgloss.Center, renderFrame(img, fw, fh))

	a.viewport.Width = a.width
	a.viewport.Height = height - fh
	if a.viewport.Height < 1 {
		a.viewport.Height = 1
	}
	body := a.viewport.View()
	if a.detailLoading {
		body = renderCentered(a.width, a.viewport.Height, renderMuted(MsgLoading))
	}
	return lipgloss.JoinVertical(lipgloss.Left, frame, body)
}
