package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/pixa/internal/browse"
)

func (a *App) viewSearchBar() string {
	inputWidth := a.width - 6
	if inputWidth < 10 {
		inputWidth = 10
	}
	a.searchInput.Width = inputWidth - 2
	return renderInputFrame(a.searchInput.View(), a.focus == FocusSearch, inputWidth)
}

func (a *App) viewCategoryBar() string {
	active := a.session.Query().Category
	lang := a.config.UI.Language
	focused := a.focus == FocusCategories

	parts := make([]string, len(a.catalog.Categories))
	for i, cat := range a.catalog.Categories {
		style := CategoryStyle
		if cat == active {
			style = ActiveCategoryStyle
		}
		if focused && i == a.catCursor {
			style = style.Underline(true).Bold(true).Foreground(AccentColor)
			if cat == active {
				style = style.Foreground(BackgroundColor)
			}
		}
		parts[i] = style.Render(a.catalog.Label(lang, cat))
	}
	return windowAround(parts, a.catCursor, a.width)
}

// windowAround joins parts into one line no wider than width, dropping
// leading parts until the one at cursor fits.
func windowAround(parts []string, cursor, width int) string {
	if len(parts) == 0 {
		return ""
	}
	if cursor < 0 || cursor >= len(parts) {
		cursor = 0
	}
	// The ‹ marker takes a cell once anything is dropped.
	start := 0
	for start < cursor {
		need := lipgloss.Width(strings.Join(parts[start:cursor+1], ""))
		if start > 0 {
			need++
		}
		if need <= width {
			break
		}
		start++
	}
	var b strings.Builder
	used := 0
	if start > 0 {
		b.WriteString(renderMuted("‹"))
		used++
	}
	for _, p := range parts[start:] {
		w := lipgloss.Width(p)
		if used+w > width {
			if used < width {
				b.WriteString(renderMuted("›"))
			}
			break
		}
		b.WriteString(p)
		used += w
	}
	return b.String()
}

// viewChips renders one removable chip per active filter. It returns ""
// when no filter is set so the row takes no space.
func (a *App) viewChips() string {
	filters := a.session.Query().Filters
	keys := filters.Active()
	if len(keys) == 0 {
		return ""
	}
	lang := a.config.UI.Language
	focused := a.focus == FocusChips

	parts := make([]string, 0, len(keys))
	for i, k := range keys {
		v := filters[k]
		text := a.catalog.Label(lang, string(k)) + ": " + a.catalog.Label(lang, v) + " ✕"
		style := ChipStyle
		if k == browse.FilterColors {
			if hex := a.catalog.Swatch(v); hex != "" {
				style = style.Background(lipgloss.Color(hex)).Foreground(contrastText(hex))
			}
		}
		if focused && i == a.chipCursor {
			style = style.Underline(true).Bold(true)
		}
		parts = append(parts, style.Render(text)+" ")
	}
	return windowAround(parts, a.chipCursor, a.width)
}

// contrastText picks black or white text for a hex background.
func contrastText(hex string) lipgloss.Color {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return TextColor
	}
	rgb, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return TextColor
	}
	r, g, b := float64(rgb>>16&0xff), float64(rgb>>8&0xff), float64(rgb&0xff)
	if 0.299*r+0.587*g+0.114*b > 150 {
		return lipgloss.Color("#000000")
	}
	return lipgloss.Color("#FFFFFF")
}

func (a *App) viewFooter() string {
	var left string
	switch {
	case a.session.LoadingMore():
		left = a.spinner.View() + " " + MsgLoadingMore
	case a.session.Refreshing():
		left = a.spinner.View() + " " + MsgRefreshing
	case a.session.SearchPending():
		left = renderMuted("…")
	case a.session.Exhausted() && len(a.session.Images()) > 0:
		left = renderMuted(MsgEndOfResults)
	}
	var right string
	if a.grid.scrolledPastFirstScreen() {
		right = renderHelp(MsgBackToTop)
	}
	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

func (a *App) viewBrowse(height int) string {
	rows := []string{a.viewSearchBar(), a.viewCategoryBar()}
	if chips := a.viewChips(); chips != "" {
		rows = append(rows, chips)
	}
	top := lipgloss.JoinVertical(lipgloss.Left, rows...)
	footer := a.viewFooter()

	gridHeight := height - lipgloss.Height(top) - 1
	if gridHeight < 1 {
		gridHeight = 1
	}
	if a.grid.height != gridHeight || a.grid.width != a.width {
		a.grid.setSize(a.width, gridHeight)
		a.grid.rebuild(a.session.Images())
	}

	var body string
	images := a.session.Images()
	switch {
	case len(images) == 0 && a.session.Loading():
		body = renderCentered(a.width, gridHeight, a.spinner.View()+" "+MsgLoading)
	case len(images) == 0 && a.started:
		body = renderCentered(a.width, gridHeight, renderMuted(MsgNoResults))
	case len(images) == 0:
		body = renderCentered(a.width, gridHeight, GetWelcomeMessage(a.config.Keys.Modifier))
	default:
		body = a.grid.render(images, a.downloaded, a.focus == FocusGrid)
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, fitHeight(body, gridHeight), footer)
}
