package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/pixa/internal/browse"
	"github.com/pders01/pixa/internal/config"
)

func TestKeyHandler_ModifierKey(t *testing.T) {
	app := newTestApp(t, &pagedSource{})

	assert.NotNil(t, app.keyHandler)
	assert.Equal(t, "ctrl+", app.keyHandler.modifierKey)
}

func TestKeyHandler_CustomModifier(t *testing.T) {
	cfg := config.TestConfig()
	cfg.Keys.Modifier = "alt"
	session := browse.NewSession(&pagedSource{}, browse.WithMinLoading(0))
	app := NewApp(cfg, session)
	t.Cleanup(app.Close)

	assert.Equal(t, "alt+", app.keyHandler.modifierKey)

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	assert.Equal(t, ViewBrowse, app.view, "ctrl+f must not open filters under the alt modifier")

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f"), Alt: true})
	assert.Equal(t, ViewFilters, app.view)
}

func TestKeyHandler_FocusCycle(t *testing.T) {
	app := startTestApp(t, &pagedSource{})
	require.Equal(t, FocusGrid, app.focus)

	press(app, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, FocusSearch, app.focus)
	assert.True(t, app.searchInput.Focused())

	press(app, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, FocusCategories, app.focus)
	assert.False(t, app.searchInput.Focused())

	press(app, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, FocusGrid, app.focus, "chips are skipped without filters")

	press(app, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, FocusCategories, app.focus)
}

func TestKeyHandler_FocusCycleIncludesChips(t *testing.T) {
	app := startTestApp(t, &pagedSource{})
	require.True(t, app.session.ApplyFilters(browse.Filters{browse.FilterOrientation: "vertical"}))
	pump(t, app)

	press(app, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, FocusChips, app.focus)
}

func TestKeyHandler_SearchTyping(t *testing.T) {
	src := &pagedSource{}
	app := startTestApp(t, src)

	press(app, runes("/"))
	require.Equal(t, FocusSearch, app.focus)

	press(app, runes("forest"))
	assert.True(t, app.session.SearchPending())
	assert.Empty(t, app.session.Query().Search, "nothing is evaluated before typing settles")

	pump(t, app) // debounce
	assert.False(t, app.session.SearchPending())
	assert.Equal(t, "forest", app.session.Query().Search)
	assert.True(t, app.session.Loading())

	pump(t, app) // first page
	assert.Equal(t, "forest", src.lastCall().Get("q"))
	require.NotEmpty(t, app.session.Images())
	assert.Equal(t, "forest, sample", app.session.Images()[0].Tags)
}

func TestKeyHandler_ShortSearchIsIgnored(t *testing.T) {
	app := startTestApp(t, &pagedSource{})
	before := app.session.Generation()

	press(app, runes("/"))
	press(app, runes("ab"))
	pump(t, app)

	assert.Equal(t, before, app.session.Generation())
	assert.Len(t, app.session.Images(), testPerPage)
}

func TestKeyHandler_BackspaceToEmptyIsDebounced(t *testing.T) {
	src := &pagedSource{}
	session := browse.NewSession(src,
		browse.WithMinLoading(0),
		browse.WithDebounce(500*time.Millisecond),
	)
	app := NewApp(config.TestConfig(), session)
	t.Cleanup(app.Close)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	app.Init()
	pump(t, app)

	before := app.session.Generation()
	src.mu.Lock()
	calls := len(src.calls)
	src.mu.Unlock()

	press(app, runes("/"))
	press(app, runes("ab"))
	press(app, tea.KeyMsg{Type: tea.KeyBackspace})
	press(app, tea.KeyMsg{Type: tea.KeyBackspace})
	require.Empty(t, app.searchInput.Value())

	assert.True(t, app.session.SearchPending(), "an emptied field waits for typing to settle")
	assert.Equal(t, before, app.session.Generation())
	assert.False(t, app.session.Loading())
	assert.Len(t, app.session.Images(), testPerPage)
	src.mu.Lock()
	assert.Len(t, src.calls, calls, "no fetch before the window ends")
	src.mu.Unlock()

	// Timers superseded while typing may still be queued; they are dropped.
	for app.session.SearchPending() {
		pump(t, app)
	}
	assert.Greater(t, app.session.Generation(), before)
	assert.Empty(t, app.session.Query().Search)
}

func TestKeyHandler_EscapeClearsSearchText(t *testing.T) {
	app := startTestApp(t, &pagedSource{})
	press(app, runes("/"))
	press(app, runes("forest"))
	pump(t, app)
	pump(t, app)
	require.Equal(t, "forest", app.session.Query().Search)

	press(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, app.searchInput.Value())
	assert.Empty(t, app.session.Query().Search)
	assert.Equal(t, FocusSearch, app.focus)

	press(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, FocusGrid, app.focus)
}

func TestKeyHandler_CategoryToggle(t *testing.T) {
	src := &pagedSource{}
	app := startTestApp(t, src)
	second := app.catalog.Categories[1]

	press(app, tea.KeyMsg{Type: tea.KeyTab})
	press(app, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, FocusCategories, app.focus)

	press(app, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 1, app.catCursor)

	press(app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, second, app.session.Query().Category)
	assert.Empty(t, app.session.Images(), "the list clears while the category loads")

	pump(t, app)
	assert.Equal(t, second, src.lastCall().Get("category"))
	assert.Len(t, app.session.Images(), testPerPage)

	press(app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, app.session.Query().Category, "selecting the active category clears it")
	pump(t, app)
}

func TestKeyHandler_RemoveChip(t *testing.T) {
	app := startTestApp(t, &pagedSource{})
	require.True(t, app.session.ApplyFilters(browse.Filters{
		browse.FilterOrientation: "vertical",
		browse.FilterType:        "photo",
	}))
	pump(t, app)
	assert.Contains(t, app.View(), "✕")

	app.keyHandler.setFocus(FocusChips)
	press(app, runes("x"))
	assert.Len(t, app.session.Query().Filters, 1)
	assert.Equal(t, FocusChips, app.focus)
	pump(t, app)

	press(app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, app.session.Query().Filters)
	assert.Equal(t, FocusGrid, app.focus, "focus leaves the chip row once it is empty")
	pump(t, app)
}

func TestKeyHandler_LoadMoreNearEnd(t *testing.T) {
	src := &pagedSource{}
	app := startTestApp(t, src)

	press(app, tea.KeyMsg{Type: tea.KeyDown})
	assert.False(t, app.session.LoadingMore(), "the first rows are far from the end")

	press(app, tea.KeyMsg{Type: tea.KeyEnd})
	assert.Equal(t, testPerPage-1, app.grid.selected)
	require.True(t, app.session.LoadingMore())

	pump(t, app)
	assert.Equal(t, "2", src.lastCall().Get("page"))
	assert.Len(t, app.session.Images(), 2*testPerPage)
	assert.Equal(t, testPerPage-1, app.grid.selected, "appending keeps the selection")
	assert.Equal(t, 2*testPerPage, app.grid.len())
}

func TestKeyHandler_TopResetsSelection(t *testing.T) {
	app := startTestApp(t, &pagedSource{})
	press(app, tea.KeyMsg{Type: tea.KeyEnd})
	pump(t, app)
	press(app, tea.KeyMsg{Type: tea.KeyEnd})
	require.Equal(t, 2*testPerPage-1, app.grid.selected)
	assert.Contains(t, app.View(), MsgBackToTop)

	press(app, tea.KeyMsg{Type: tea.KeyHome})
	assert.Zero(t, app.grid.selected)
	assert.Zero(t, app.grid.scroll)
	assert.NotContains(t, app.View(), MsgBackToTop)
}

func TestKeyHandler_Refresh(t *testing.T) {
	src := &pagedSource{}
	app := startTestApp(t, src)

	press(app, tea.KeyMsg{Type: tea.KeyCtrlR})
	assert.True(t, app.session.Refreshing())
	assert.Len(t, app.session.Images(), testPerPage, "refresh keeps the list until the page arrives")

	pump(t, app)
	assert.False(t, app.session.Refreshing())
	assert.Len(t, src.calls, 2)
}

func TestKeyHandler_ImageActions(t *testing.T) {
	downloader := &fakeDownloader{}
	sharer := &fakeSharer{}
	opener := &fakeOpener{}
	app := startTestApp(t, &pagedSource{},
		WithDownloader(downloader),
		WithSharer(sharer),
		WithOpener(opener),
	)
	img := app.session.Images()[0]

	press(app, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Equal(t, []int{img.ID}, downloader.saved)
	assert.True(t, app.downloaded[img.ID])
	assert.Equal(t, StatusSuccess, app.statusKind)
	assert.Equal(t, "Saved 1.jpg (2.0 KiB)", app.status)
	assert.Contains(t, app.View(), "✓ ")

	press(app, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, []int{img.ID}, sharer.shared)
	assert.Equal(t, MsgCopied(img.PageURL), app.status)

	press(app, tea.KeyMsg{Type: tea.KeyCtrlO})
	assert.Equal(t, []string{img.LargeImageURL}, opener.opened)
}

func TestKeyHandler_ShareWithoutClipboard(t *testing.T) {
	app := startTestApp(t, &pagedSource{})

	press(app, tea.KeyMsg{Type: tea.KeyCtrlY})
	assert.Equal(t, StatusError, app.statusKind)
	assert.Contains(t, app.status, "no clipboard available")
}

func TestKeyHandler_FiltersFormOwnsKeys(t *testing.T) {
	app := startTestApp(t, &pagedSource{})
	press(app, tea.KeyMsg{Type: tea.KeyCtrlF})
	require.Equal(t, ViewFilters, app.view)
	require.NotNil(t, app.filterForm)

	press(app, tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Equal(t, ViewFilters, app.view, "action keys are form input while it is open")

	press(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewBrowse, app.view)
	assert.Nil(t, app.filterForm)
}

func TestKeyHandler_HelpPerView(t *testing.T) {
	app := newTestApp(t, &pagedSource{})

	tests := []struct {
		name  string
		view  View
		focus Focus
		want  string
	}{
		{"grid", ViewBrowse, FocusGrid, "download"},
		{"search", ViewBrowse, FocusSearch, "focus"},
		{"chips", ViewBrowse, FocusChips, "remove"},
		{"detail", ViewDetail, FocusGrid, "copy link"},
		{"library", ViewLibrary, FocusGrid, "delete"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.view, app.focus = tt.view, tt.focus
			var helps []string
			for _, b := range app.keyHandler.GetHelpForCurrentView() {
				helps = append(helps, b.Help().Desc)
			}
			assert.Contains(t, helps, tt.want)
		})
	}
}
