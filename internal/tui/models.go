package tui

import (
	"github.com/pders01/pixa/internal/browse"
	"github.com/pders01/pixa/internal/storage"
)

type View int

const (
	ViewBrowse View = iota
	ViewFilters
	ViewDetail
	ViewLibrary
)

func (v View) String() string {
	switch v {
	case ViewFilters:
		return "filters"
	case ViewDetail:
		return "detail"
	case ViewLibrary:
		return "library"
	default:
		return "browse"
	}
}

// Focus is the browse view element receiving keys.
type Focus int

const (
	FocusSearch Focus = iota
	FocusCategories
	FocusChips
	FocusGrid
)

type sessionEventMsg struct {
	event browse.Event
}

type detailRenderedMsg struct {
	id      int
	content string
}

type downloadedMsg struct {
	download *storage.Download
	err      error
}

type sharedMsg struct {
	link string
	err  error
}

type libraryLoadedMsg struct {
	seq       uint64
	downloads []*storage.Download
	err       error
}

type downloadDeletedMsg struct {
	id  int
	err error
}

type clearStatusMsg struct {
	seq uint64
}

type errorMsg struct {
	err error
}
