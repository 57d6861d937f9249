package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/pixa/internal/search"
	"github.com/pders01/pixa/internal/storage"
)

const librarySearchLimit = 50

type downloadItem struct {
	download *storage.Download
}

func (i downloadItem) Title() string {
	title := strings.Join(i.download.Image.TagList(), ", ")
	if title == "" {
		title = fmt.Sprintf("Image %d", i.download.Image.ID)
	}
	return title
}

func (i downloadItem) Description() string {
	return fmt.Sprintf("%s • %s • %s",
		truncateMiddle(i.download.Path, 48),
		humanBytes(i.download.Bytes),
		i.download.DownloadedAt.Format("Jan 2, 15:04"))
}

func (i downloadItem) FilterValue() string { return i.download.Image.Tags }

// loadLibrary lists the downloads, or searches them once the query is long
// enough. Results of an older query are dropped by sequence number.
func (a *App) loadLibrary(query string) tea.Cmd {
	a.librarySeq++
	seq := a.librarySeq
	query = strings.TrimSpace(query)
	return func() tea.Msg {
		if a.library == nil {
			return libraryLoadedMsg{seq: seq}
		}
		if len([]rune(query)) < search.MinQueryLength || a.searcher == nil {
			downloads, err := a.library.GetAllDownloads()
			return libraryLoadedMsg{seq: seq, downloads: downloads, err: wrapErr("loading downloads", err)}
		}
		results, err := a.searcher.Search(query, librarySearchLimit)
		if err != nil {
			return libraryLoadedMsg{seq: seq, err: wrapErr("searching downloads", err)}
		}
		downloads := make([]*storage.Download, 0, len(results))
		for _, r := range results {
			downloads = append(downloads, r.Download)
		}
		return libraryLoadedMsg{seq: seq, downloads: downloads}
	}
}

func (a *App) setLibrary(downloads []*storage.Download) {
	items := make([]list.Item, len(downloads))
	for i, d := range downloads {
		items[i] = downloadItem{download: d}
	}
	a.libraryList.SetItems(items)
	a.libraryCount = len(downloads)
}

func (a *App) selectedDownload() (*storage.Download, bool) {
	item, ok := a.libraryList.SelectedItem().(downloadItem)
	if !ok {
		return nil, false
	}
	return item.download, true
}

func (a *App) indexDocCount() int {
	if ds, ok := a.searcher.(search.DebugStatser); ok {
		if n, err := ds.DocCount(); err == nil {
			return n
		}
	}
	return -1
}

func (a *App) viewLibrary(height int) string {
	inputWidth := a.width - 6
	if inputWidth < 10 {
		inputWidth = 10
	}
	a.libraryInput.Width = inputWidth - 2
	input := renderInputFrame(a.libraryInput.View(), a.libraryInput.Focused(), inputWidth)

	header := renderHeader("› downloads", MsgLibraryCount(a.libraryCount, a.indexDocCount()), a.width)

	listHeight := height - lipgloss.Height(header) - lipgloss.Height(input)
	if listHeight < 3 {
		listHeight = 3
	}
	a.libraryList.SetSize(a.width, listHeight)

	body := a.libraryList.View()
	if a.libraryCount == 0 {
		body = renderCentered(a.width, listHeight, renderMuted(MsgNoDownloads))
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, input, body)
}
