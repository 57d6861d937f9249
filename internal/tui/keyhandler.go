package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/pixa/internal/config"
	"github.com/pders01/pixa/internal/masonry"
)

type KeyHandler struct {
	app         *App
	config      *config.Config
	keys        keyMap
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	return &KeyHandler{app: app, config: cfg, keys: app.keys, modifierKey: modifierKey}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return kh.app, tea.Quit
	}

	// The form owns every key except the one that leaves it.
	if kh.app.view == ViewFilters {
		if key.Matches(msg, kh.keys.Back) {
			return kh.navigateBack()
		}
		if kh.app.filterForm == nil {
			return kh.app, nil
		}
		return kh.app.updateForm(msg)
	}

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(msg); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewBrowse:
		return kh.app.focus == FocusSearch && kh.app.searchInput.Focused()
	case ViewLibrary:
		return kh.app.libraryInput.Focused()
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case "esc":
		if a.view == ViewLibrary {
			if a.libraryInput.Value() != "" {
				a.libraryInput.Reset()
				return a, a.loadLibrary("")
			}
			a.libraryInput.Blur()
			return a, nil
		}
		if a.searchInput.Value() != "" {
			a.searchInput.Reset()
			return a, kh.clearSearch()
		}
		return kh.setFocus(FocusGrid)
	case "enter", "down":
		if a.view == ViewLibrary {
			a.libraryInput.Blur()
			return a, nil
		}
		return kh.setFocus(FocusGrid)
	case "tab":
		if a.view == ViewLibrary {
			a.libraryInput.Blur()
			return a, nil
		}
		return kh.cycleFocus(1)
	case "shift+tab":
		if a.view == ViewLibrary {
			a.libraryInput.Blur()
			return a, nil
		}
		return kh.cycleFocus(-1)
	default:
		return kh.delegateToTextInput(msg)
	}
}

// delegateToTextInput passes the key to the focused input. Search text goes
// to the session, which evaluates it once typing settles.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd
	switch a.view {
	case ViewBrowse:
		prev := a.searchInput.Value()
		a.searchInput, cmd = a.searchInput.Update(msg)
		if text := a.searchInput.Value(); text != prev {
			a.session.Type(text)
		}
		return a, cmd

	case ViewLibrary:
		prev := a.libraryInput.Value()
		a.libraryInput, cmd = a.libraryInput.Update(msg)
		if text := a.libraryInput.Value(); text != prev {
			return a, tea.Batch(cmd, a.loadLibrary(text))
		}
		return a, cmd
	}
	return a, nil
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app

	switch {
	case key.Matches(msg, kh.keys.Quit):
		return a, tea.Quit, true
	case key.Matches(msg, kh.keys.Back):
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case key.Matches(msg, kh.keys.Library):
		model, cmd := kh.enterLibrary()
		return model, cmd, true
	case key.Matches(msg, kh.keys.Search):
		if a.view == ViewLibrary {
			return a, a.libraryInput.Focus(), true
		}
		a.view = ViewBrowse
		model, cmd := kh.setFocus(FocusSearch)
		return model, cmd, true
	}

	switch a.view {
	case ViewBrowse:
		return kh.handleBrowseCustomKeys(msg)
	case ViewDetail:
		return kh.handleImageKeys(msg)
	case ViewLibrary:
		return kh.handleLibraryCustomKeys(msg)
	}
	return a, nil, false
}

func (kh *KeyHandler) handleBrowseCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app

	switch {
	case key.Matches(msg, kh.keys.Filters):
		model, cmd := kh.openFilters()
		return model, cmd, true
	case key.Matches(msg, kh.keys.Refresh):
		a.session.Refresh()
		return a, a.spin(), true
	case key.Matches(msg, kh.keys.Top):
		a.grid.reset()
		model, cmd := kh.setFocus(FocusGrid)
		return model, cmd, true
	case key.Matches(msg, kh.keys.Focus):
		delta := 1
		if msg.String() == "shift+tab" {
			delta = -1
		}
		model, cmd := kh.cycleFocus(delta)
		return model, cmd, true
	}

	if model, cmd, handled := kh.handleImageKeys(msg); handled {
		return model, cmd, true
	}

	switch a.focus {
	case FocusCategories:
		return kh.handleCategoryKeys(msg)
	case FocusChips:
		return kh.handleChipKeys(msg)
	case FocusGrid:
		return kh.handleGridKeys(msg)
	}
	return a, nil, false
}

// handleImageKeys acts on the selected grid tile or the image in the detail view.
func (kh *KeyHandler) handleImageKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	if !key.Matches(msg, kh.keys.Download, kh.keys.Share, kh.keys.Open) {
		return a, nil, false
	}
	img, ok := a.selectedImage()
	if !ok {
		return a, nil, true
	}
	switch {
	case key.Matches(msg, kh.keys.Download):
		return a, tea.Batch(a.setStatus(MsgDownloading, StatusInfo), a.download(img)), true
	case key.Matches(msg, kh.keys.Share):
		return a, a.share(img), true
	default:
		return a, a.openTarget(img.FullResolutionURL()), true
	}
}

func (kh *KeyHandler) handleCategoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	n := len(a.catalog.Categories)
	switch msg.String() {
	case "left", "h":
		if a.catCursor > 0 {
			a.catCursor--
		}
		return a, nil, true
	case "right", "l":
		if a.catCursor < n-1 {
			a.catCursor++
		}
		return a, nil, true
	case "down", "j":
		model, cmd := kh.cycleFocus(1)
		return model, cmd, true
	case "up", "k":
		model, cmd := kh.cycleFocus(-1)
		return model, cmd, true
	}
	if key.Matches(msg, kh.keys.Select) && a.catCursor < n {
		if a.session.ToggleCategory(a.catalog.Categories[a.catCursor]) {
			a.searchInput.Reset()
			a.resetGrid()
			return a, a.spin(), true
		}
		return a, nil, true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleChipKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	active := a.session.Query().Filters.Active()
	switch msg.String() {
	case "left", "h":
		if a.chipCursor > 0 {
			a.chipCursor--
		}
		return a, nil, true
	case "right", "l":
		if a.chipCursor < len(active)-1 {
			a.chipCursor++
		}
		return a, nil, true
	case "down", "j":
		model, cmd := kh.setFocus(FocusGrid)
		return model, cmd, true
	case "up", "k":
		model, cmd := kh.setFocus(FocusCategories)
		return model, cmd, true
	}
	if key.Matches(msg, kh.keys.Remove) || key.Matches(msg, kh.keys.Select) {
		if a.chipCursor >= len(active) {
			return a, nil, true
		}
		a.session.RemoveFilter(active[a.chipCursor])
		a.resetGrid()
		if len(active) == 1 {
			a.chipCursor = 0
			a.focus = FocusGrid
		} else if a.chipCursor >= len(active)-1 {
			a.chipCursor = len(active) - 2
		}
		return a, a.spin(), true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleGridKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch msg.String() {
	case "up", "k":
		if !a.grid.move(masonry.Up) {
			model, cmd := kh.cycleFocus(-1)
			return model, cmd, true
		}
	case "down", "j":
		a.grid.move(masonry.Down)
	case "left", "h":
		a.grid.move(masonry.Left)
	case "right", "l":
		a.grid.move(masonry.Right)
	case "pgdown":
		a.grid.page(masonry.Down)
	case "pgup":
		a.grid.page(masonry.Up)
	case "end", "G":
		a.grid.last()
	default:
		if key.Matches(msg, kh.keys.Select) {
			model, cmd := kh.openDetail()
			return model, cmd, true
		}
		return a, nil, false
	}
	// Checked even when the selection did not move, so pressing down on
	// the last row asks for more.
	return a, kh.maybeLoadMore(), true
}

func (kh *KeyHandler) handleLibraryCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch {
	case key.Matches(msg, kh.keys.Refresh):
		return a, a.loadLibrary(a.libraryInput.Value()), true
	case key.Matches(msg, kh.keys.Delete):
		if d, ok := a.selectedDownload(); ok {
			return a, tea.Batch(a.setStatus(MsgDeleting, StatusInfo), a.deleteDownload(d.Image.ID)), true
		}
		return a, nil, true
	case key.Matches(msg, kh.keys.Open), key.Matches(msg, kh.keys.Select):
		if d, ok := a.selectedDownload(); ok {
			return a, a.openTarget(d.Path), true
		}
		return a, nil, true
	case key.Matches(msg, kh.keys.Focus):
		return a, a.libraryInput.Focus(), true
	}
	return a, nil, false
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd
	switch a.view {
	case ViewDetail:
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	case ViewLibrary:
		a.libraryList, cmd = a.libraryList.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (kh *KeyHandler) maybeLoadMore() tea.Cmd {
	a := kh.app
	if !a.grid.nearEnd(kh.config.Browse.LoadMoreThreshold) {
		return nil
	}
	if !a.session.LoadMore() {
		return nil
	}
	a.log.Debugf("load more at %d/%d", a.grid.selected, a.grid.len())
	return a.spin()
}

func (kh *KeyHandler) clearSearch() tea.Cmd {
	a := kh.app
	if !a.session.ClearSearch() {
		return nil
	}
	a.resetGrid()
	return a.spin()
}

// focusOrder lists the focusable browse elements. Chips take part only
// while a filter is set.
func (kh *KeyHandler) focusOrder() []Focus {
	order := []Focus{FocusSearch, FocusCategories}
	if len(kh.app.session.Query().Filters.Active()) > 0 {
		order = append(order, FocusChips)
	}
	return append(order, FocusGrid)
}

func (kh *KeyHandler) cycleFocus(delta int) (tea.Model, tea.Cmd) {
	order := kh.focusOrder()
	cur := len(order) - 1
	for i, f := range order {
		if f == kh.app.focus {
			cur = i
		}
	}
	next := (cur + delta + len(order)) % len(order)
	return kh.setFocus(order[next])
}

func (kh *KeyHandler) setFocus(f Focus) (tea.Model, tea.Cmd) {
	a := kh.app
	a.focus = f
	if f == FocusSearch {
		return a, a.searchInput.Focus()
	}
	a.searchInput.Blur()
	if f == FocusChips && a.chipCursor >= len(a.session.Query().Filters.Active()) {
		a.chipCursor = 0
	}
	return a, nil
}

func (kh *KeyHandler) openFilters() (tea.Model, tea.Cmd) {
	a := kh.app
	a.filterForm, a.filterDraft = a.newFilterForm()
	a.previousView = a.view
	a.view = ViewFilters
	return a, a.filterForm.Init()
}

func (kh *KeyHandler) openDetail() (tea.Model, tea.Cmd) {
	a := kh.app
	img, ok := a.selectedImage()
	if !ok {
		return a, nil
	}
	a.detail = &img
	a.detailLoading = true
	a.previousView = a.view
	a.view = ViewDetail
	return a, a.renderDetail(img)
}

func (kh *KeyHandler) enterLibrary() (tea.Model, tea.Cmd) {
	a := kh.app
	if a.view != ViewLibrary {
		a.previousView = a.view
	}
	a.view = ViewLibrary
	a.searchInput.Blur()
	a.libraryInput.Reset()
	a.libraryInput.Blur()
	return a, a.loadLibrary("")
}

// navigateBack implements smart back navigation
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewFilters:
		a.closeFilters()
		return a, nil

	case ViewDetail:
		a.view = ViewBrowse
		a.detail = nil
		a.detailLoading = false
		return a, nil

	case ViewLibrary:
		a.view = ViewBrowse
		a.libraryInput.Blur()
		return a, nil

	default:
		if a.focus != FocusGrid {
			return kh.setFocus(FocusGrid)
		}
		return a, tea.Quit
	}
}

// GetHelpForCurrentView returns only our custom bindings (Charm handles the rest)
func (kh *KeyHandler) GetHelpForCurrentView() []key.Binding {
	k := kh.keys
	switch kh.app.view {
	case ViewBrowse:
		switch kh.app.focus {
		case FocusSearch:
			return []key.Binding{k.Focus, k.Back}
		case FocusCategories:
			return []key.Binding{k.Select, k.Focus, k.Filters}
		case FocusChips:
			return []key.Binding{k.Remove, k.Focus, k.Filters}
		}
		return []key.Binding{k.Search, k.Filters, k.Refresh, k.Library, k.Download, k.Share, k.Open, k.Quit}
	case ViewDetail:
		return []key.Binding{k.Download, k.Share, k.Open, k.Back}
	case ViewLibrary:
		return []key.Binding{k.Search, k.Open, k.Delete, k.Refresh, k.Back}
	case ViewFilters:
		return []key.Binding{k.Back}
	}
	return nil
}
