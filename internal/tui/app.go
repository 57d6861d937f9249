// Package tui is the interactive image browser: a masonry grid over a browse
// session, the filter form, the detail view and the downloads library.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/pixa/internal/browse"
	"github.com/pders01/pixa/internal/catalog"
	"github.com/pders01/pixa/internal/config"
	"github.com/pders01/pixa/internal/debuglog"
	"github.com/pders01/pixa/internal/search"
	"github.com/pders01/pixa/internal/storage"
)

const (
	statusTimeout = 4 * time.Second
	// Pixabay rejects q values longer than this.
	maxSearchLength = 100
)

// Downloader saves images and removes saved ones. *media.Downloader implements it.
type Downloader interface {
	Download(ctx context.Context, img storage.Image) (*storage.Download, error)
	Delete(id int) error
}

type Sharer interface {
	Share(img storage.Image) (string, error)
}

type Opener interface {
	Open(target string) error
}

// Library lists saved downloads. *storage.Store implements it.
type Library interface {
	GetAllDownloads() ([]*storage.Download, error)
}

type Option func(*App)

func WithDownloader(d Downloader) Option {
	return func(a *App) { a.downloader = d }
}

func WithSharer(s Sharer) Option {
	return func(a *App) { a.sharer = s }
}

func WithOpener(o Opener) Option {
	return func(a *App) { a.opener = o }
}

func WithLibrary(l Library) Option {
	return func(a *App) { a.library = l }
}

func WithSearcher(s search.Searcher) Option {
	return func(a *App) { a.searcher = s }
}

func WithCatalog(c *catalog.Catalog) Option {
	return func(a *App) { a.catalog = c }
}

type App struct {
	config     *config.Config
	session    *browse.Session
	catalog    *catalog.Catalog
	downloader Downloader
	sharer     Sharer
	opener     Opener
	library    Library
	searcher   search.Searcher
	keyHandler *KeyHandler
	keys       keyMap
	log        *debuglog.FieldLogger

	help         help.Model
	spinner      spinner.Model
	searchInput  textinput.Model
	libraryInput textinput.Model
	libraryList  list.Model
	viewport     viewport.Model
	filterForm   *huh.Form
	filterDraft  *filterDraft
	grid         *grid

	view         View
	previousView View
	focus        Focus
	catCursor    int
	chipCursor   int
	started      bool
	spinning     bool

	detail        *storage.Image
	detailLoading bool
	downloaded    map[int]bool
	libraryCount  int
	librarySeq    uint64

	status     string
	statusKind StatusKind
	statusSeq  uint64

	width           int
	height          int
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int

	ctx    context.Context
	cancel context.CancelFunc
}

func NewApp(cfg *config.Config, session *browse.Session, opts ...Option) *App {
	si := textinput.New()
	si.Placeholder = "Search images..."
	si.Prompt = "⌕ "
	si.CharLimit = maxSearchLength

	li := textinput.New()
	li.Placeholder = "Search downloads..."
	li.Prompt = "⌕ "

	libraryList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	libraryList.SetShowTitle(false)
	libraryList.SetShowStatusBar(false)
	libraryList.SetFilteringEnabled(false)
	libraryList.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(SecondaryColor)

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		config:       cfg,
		session:      session,
		keys:         newKeyMap(cfg),
		log:          debuglog.WithFields(map[string]interface{}{"component": "tui", "session": session.ID()}),
		help:         help.New(),
		spinner:      sp,
		searchInput:  si,
		libraryInput: li,
		libraryList:  libraryList,
		viewport:     viewport.New(0, 0),
		grid:         newGrid(cfg.UI.Grid),
		view:         ViewBrowse,
		previousView: ViewBrowse,
		focus:        FocusGrid,
		downloaded:   map[int]bool{},
		width:        80,
		height:       24,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.catalog == nil {
		app.catalog = catalog.Default()
	}

	app.keyHandler = NewKeyHandler(app, cfg)

	return app
}

// Close cancels running downloads and tears down the session.
func (a *App) Close() {
	a.cancel()
	a.session.Close()
}

func (a *App) Init() tea.Cmd {
	a.session.Start()
	a.started = true
	return tea.Batch(
		waitForEvent(a.session.Events()),
		a.spin(),
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		if a.filterForm != nil {
			a.filterForm = a.filterForm.WithWidth(a.formWidth())
		}

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case sessionEventMsg:
		cmd := a.handleSessionEvent(msg.event)
		return a, tea.Batch(cmd, waitForEvent(a.session.Events()))

	case spinner.TickMsg:
		if !a.busy() {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case detailRenderedMsg:
		if a.detail != nil && a.detail.ID == msg.id {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.detailLoading = false
		}
		return a, nil

	case downloadedMsg:
		if msg.err != nil {
			return a, a.setStatus(describeErr(msg.err), StatusError)
		}
		a.downloaded[msg.download.Image.ID] = true
		cmds := []tea.Cmd{a.setStatus(MsgDownloaded(msg.download.Path, msg.download.Bytes), StatusSuccess)}
		if a.view == ViewLibrary {
			cmds = append(cmds, a.loadLibrary(a.libraryInput.Value()))
		}
		return a, tea.Batch(cmds...)

	case sharedMsg:
		if msg.err != nil {
			return a, a.setStatus(describeErr(msg.err), StatusError)
		}
		return a, a.setStatus(MsgCopied(msg.link), StatusSuccess)

	case libraryLoadedMsg:
		if msg.seq != a.librarySeq {
			return a, nil
		}
		if msg.err != nil {
			return a, a.setStatus(describeErr(msg.err), StatusError)
		}
		a.setLibrary(msg.downloads)
		for _, d := range msg.downloads {
			a.downloaded[d.Image.ID] = true
		}
		return a, nil

	case downloadDeletedMsg:
		if msg.err != nil {
			return a, a.setStatus(describeErr(msg.err), StatusError)
		}
		delete(a.downloaded, msg.id)
		return a, tea.Batch(a.setStatus(MsgDownloadDeleted, StatusInfo), a.loadLibrary(a.libraryInput.Value()))

	case clearStatusMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
		}
		return a, nil

	case errorMsg:
		return a, a.setStatus(describeErr(msg.err), StatusError)
	}

	switch a.view {
	case ViewFilters:
		if a.filterForm != nil {
			return a.updateForm(msg)
		}
	case ViewDetail:
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	return a, nil
}

// handleSessionEvent applies one session event and keeps the grid in step.
func (a *App) handleSessionEvent(ev browse.Event) tea.Cmd {
	outcome := a.session.Handle(ev)
	switch e := ev.(type) {
	case browse.FetchDone:
		switch outcome {
		case browse.Applied:
			if e.Request.Mode == browse.ModeReplace {
				a.grid.reset()
			}
			a.grid.rebuild(a.session.Images())
		case browse.Failed:
			return a.setStatus(describeErr(e.Err), StatusError)
		}
	case browse.DebounceFired:
		if outcome == browse.Applied {
			a.resetGrid()
			return a.spin()
		}
	}
	return nil
}

func (a *App) resetGrid() {
	a.grid.reset()
	a.grid.rebuild(a.session.Images())
}

func (a *App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := a.filterForm.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		a.filterForm = f
	}
	switch a.filterForm.State {
	case huh.StateCompleted:
		return a, tea.Batch(cmd, a.submitFilters())
	case huh.StateAborted:
		a.closeFilters()
		return a, nil
	}
	return a, cmd
}

func (a *App) closeFilters() {
	a.filterForm, a.filterDraft = nil, nil
	a.view = ViewBrowse
}

func (a *App) busy() bool {
	return a.session.Loading() || a.session.LoadingMore() || a.session.Refreshing()
}

// spin starts the spinner unless it is already ticking.
func (a *App) spin() tea.Cmd {
	if a.spinning {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}

func (a *App) setStatus(text string, kind StatusKind) tea.Cmd {
	a.status = text
	a.statusKind = kind
	a.statusSeq++
	seq := a.statusSeq
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg { return clearStatusMsg{seq: seq} })
}

// selectedImage is the image the download, share and open keys act on.
func (a *App) selectedImage() (storage.Image, bool) {
	if a.view == ViewDetail {
		return a.detailImage()
	}
	images := a.session.Images()
	if a.grid.selected < 0 || a.grid.selected >= len(images) {
		return storage.Image{}, false
	}
	return images[a.grid.selected], true
}

func (a *App) detailImage() (storage.Image, bool) {
	if a.detail == nil {
		return storage.Image{}, false
	}
	return *a.detail, true
}

func (a *App) View() string {
	contentHeight := a.height - 2
	if contentHeight < 1 {
		contentHeight = 1
	}

	var content string
	switch a.view {
	case ViewBrowse:
		content = a.viewBrowse(contentHeight)
	case ViewFilters:
		content = a.viewFilters()
	case ViewDetail:
		content = a.viewDetail(contentHeight)
	case ViewLibrary:
		content = a.viewLibrary(contentHeight)
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Top, content, renderSeparator(a.width), a.getCustomStatusBar())
}

func (a *App) viewFilters() string {
	if a.filterForm == nil {
		return ""
	}
	header := renderHeader("› filters", a.session.Query().Filters.String(), a.width)
	return lipgloss.JoinVertical(lipgloss.Left, header, "", a.filterForm.View())
}

func (a *App) getCustomStatusBar() string {
	width := a.width - 2

	var right string
	if a.view == ViewBrowse {
		right = renderMuted(MsgResultsCount(len(a.session.Images()), a.session.TotalHits()))
	}
	avail := width - lipgloss.Width(right) - 1

	var left string
	if a.status != "" {
		text := a.status
		if a.statusKind == StatusError {
			text = "✗ " + text
		}
		left = a.statusKind.style().Render(truncateEnd(text, avail))
	} else {
		h := a.help
		h.Width = avail
		left = h.ShortHelpView(a.keyHandler.GetHelpForCurrentView())
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return StatusBarStyle.Width(a.width).Render(left + strings.Repeat(" ", gap) + right)
}
