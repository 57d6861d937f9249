package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/pixa/internal/browse"
	"github.com/pders01/pixa/internal/media"
	"github.com/pders01/pixa/internal/storage"
)

// waitForEvent blocks until the session posts an event. Update re-arms it
// after each one so exactly one reader is waiting at any time.
func waitForEvent(events <-chan browse.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return sessionEventMsg{event: ev}
	}
}

func (a *App) download(img storage.Image) tea.Cmd {
	if a.downloader == nil {
		return func() tea.Msg { return errorMsg{err: fmt.Errorf("downloads are not configured")} }
	}
	ctx := a.ctx
	return func() tea.Msg {
		d, err := a.downloader.Download(ctx, img)
		if err != nil {
			return downloadedMsg{err: wrapErr(fmt.Sprintf("downloading image %d", img.ID), err)}
		}
		return downloadedMsg{download: d}
	}
}

func (a *App) share(img storage.Image) tea.Cmd {
	return func() tea.Msg {
		if a.sharer == nil {
			return sharedMsg{err: media.ErrClipboardUnavailable}
		}
		link, err := a.sharer.Share(img)
		return sharedMsg{link: link, err: err}
	}
}

// openTarget hands a URL or file to the configured viewer.
func (a *App) openTarget(target string) tea.Cmd {
	return func() tea.Msg {
		if a.opener == nil {
			return errorMsg{err: fmt.Errorf("no viewer configured")}
		}
		if err := a.opener.Open(target); err != nil {
			return errorMsg{err: fmt.Errorf("failed to open %s: %w", target, err)}
		}
		return nil
	}
}

func (a *App) deleteDownload(id int) tea.Cmd {
	return func() tea.Msg {
		if a.downloader == nil {
			return downloadDeletedMsg{id: id, err: fmt.Errorf("downloads are not configured")}
		}
		return downloadDeletedMsg{id: id, err: a.downloader.Delete(id)}
	}
}
