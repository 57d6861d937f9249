package search

import "github.com/pders01/pixa/internal/storage"

// Result is one downloaded image matching a query.
type Result struct {
	Download *storage.Download
	Score    float64
	Matches  []Match
}

// Match records which field matched.
type Match struct {
	Field  string // "tags", "user", "type", "url"
	Text   string
	Weight float64
}

// Searcher defines the search API used by the downloads library.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// DownloadListener is notified when the download ledger changes. Engines
// that keep an external index implement it.
type DownloadListener interface {
	OnDownloaded(d *storage.Download)
	OnDeleted(id int)
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}

// Closer is implemented by engines holding files open.
type Closer interface {
	Close() error
}
