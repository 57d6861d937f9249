// Package browse owns the query and the accumulated result list of one
// browsing session. The Reconciler decides for every user event whether the
// list is reset or extended and which parameters are sent; the Session runs
// the resulting requests asynchronously and feeds completions back.
package browse

import (
	"strings"
	"unicode/utf8"

	"github.com/pders01/pixa/internal/catalog"
	"github.com/pders01/pixa/internal/storage"
)

// MinSearchLength is the shortest search text that triggers a request.
const MinSearchLength = 3

type Mode int

const (
	ModeReplace Mode = iota
	ModeAppend
)

func (m Mode) String() string {
	if m == ModeAppend {
		return "append"
	}
	return "replace"
}

// Trigger names the user event that produced a request.
type Trigger string

const (
	TriggerStart        Trigger = "start"
	TriggerCategory     Trigger = "category"
	TriggerSearch       Trigger = "search"
	TriggerLoadMore     Trigger = "load-more"
	TriggerRefresh      Trigger = "refresh"
	TriggerApplyFilters Trigger = "apply-filters"
	TriggerResetFilters Trigger = "reset-filters"
	TriggerRemoveFilter Trigger = "remove-filter"
)

type Request struct {
	ID         uint64
	Generation uint64
	Trigger    Trigger
	Mode       Mode
	Params     Params
}

type Outcome int

const (
	Ignored Outcome = iota
	Applied
	Failed
	Stale
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Failed:
		return "failed"
	case Stale:
		return "stale"
	default:
		return "ignored"
	}
}

// Reconciler is not safe for concurrent use; it belongs to one event loop.
type Reconciler struct {
	catalog *catalog.Catalog

	query      Query
	images     []storage.Image
	totalHits  int
	generation uint64
	lastID     uint64

	replaceID  uint64
	appendID   uint64
	refreshing bool
	exhausted  bool
}

func NewReconciler(c *catalog.Catalog) *Reconciler {
	if c == nil {
		c = catalog.Default()
	}
	return &Reconciler{
		catalog: c,
		query:   Query{Page: 1},
	}
}

func (r *Reconciler) Query() Query {
	q := r.query
	q.Filters = q.Filters.Normalize()
	return q
}

// Images returns the accumulated results. The slice must not be modified.
func (r *Reconciler) Images() []storage.Image { return r.images }

func (r *Reconciler) Generation() uint64 { return r.generation }
func (r *Reconciler) TotalHits() int     { return r.totalHits }
func (r *Reconciler) Exhausted() bool    { return r.exhausted }

// Loading reports an outstanding reset request that cleared the list.
func (r *Reconciler) Loading() bool { return r.replaceID != 0 && !r.refreshing }

// Refreshing reports an outstanding refresh; the old list stays visible.
func (r *Reconciler) Refreshing() bool { return r.replaceID != 0 && r.refreshing }

func (r *Reconciler) LoadingMore() bool { return r.appendID != 0 }

// Start issues the initial request.
func (r *Reconciler) Start() Request {
	return r.reset(TriggerStart, r.query, true)
}

// ToggleCategory activates cat, or deactivates it when it is already active.
// The search text is always cleared.
func (r *Reconciler) ToggleCategory(cat string) (Request, bool) {
	if cat != "" && !r.catalog.IsCategory(cat) {
		return Request{}, false
	}
	q := r.query
	if q.Category == cat {
		q.Category = ""
	} else {
		q.Category = cat
	}
	q.Search = ""
	return r.reset(TriggerCategory, q, true), true
}

// Search evaluates settled search input. Surrounding whitespace is not part
// of the query, so blank input clears the search. Text of one or two
// characters is below the trigger threshold and changes nothing.
func (r *Reconciler) Search(text string) (Request, bool) {
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n > 0 && n < MinSearchLength {
		return Request{}, false
	}
	q := r.query
	q.Search = text
	q.Category = ""
	return r.reset(TriggerSearch, q, true), true
}

// LoadMore requests the page after the last one applied. It is refused while
// another request for the current list is outstanding and after the results
// are exhausted. The query's page advances only when the append lands, so a
// failed page is asked for again.
func (r *Reconciler) LoadMore() (Request, bool) {
	if r.replaceID != 0 || r.appendID != 0 || r.exhausted {
		return Request{}, false
	}
	next := r.query
	next.Page++
	r.lastID++
	req := Request{
		ID:         r.lastID,
		Generation: r.generation,
		Trigger:    TriggerLoadMore,
		Mode:       ModeAppend,
		Params:     next.params(),
	}
	r.appendID = req.ID
	return req, true
}

// Refresh reloads the first page and keeps the current list until the
// response replaces it.
func (r *Reconciler) Refresh() Request {
	req := r.reset(TriggerRefresh, r.query, false)
	r.refreshing = true
	return req
}

func (r *Reconciler) ApplyFilters(f Filters) (Request, bool) {
	if err := f.Validate(r.catalog); err != nil {
		return Request{}, false
	}
	q := r.query
	q.Filters = f.Normalize()
	return r.reset(TriggerApplyFilters, q, true), true
}

func (r *Reconciler) ResetFilters() Request {
	q := r.query
	q.Filters = nil
	return r.reset(TriggerResetFilters, q, true)
}

func (r *Reconciler) RemoveFilter(key FilterKey) Request {
	q := r.query
	q.Filters = q.Filters.Without(key)
	return r.reset(TriggerRemoveFilter, q, true)
}

func (r *Reconciler) reset(trigger Trigger, q Query, clear bool) Request {
	q.Page = 1
	q.Filters = q.Filters.Normalize()
	r.query = q
	r.generation++
	r.lastID++
	r.appendID = 0
	r.refreshing = false
	r.exhausted = false
	if clear {
		r.images = nil
		r.totalHits = 0
	}
	req := Request{
		ID:         r.lastID,
		Generation: r.generation,
		Trigger:    trigger,
		Mode:       ModeReplace,
		Params:     q.params(),
	}
	r.replaceID = req.ID
	return req
}

// Resolve applies the completion of req. Responses for an earlier generation
// are reported as Stale and change nothing. A failure clears only the loading
// state of req and leaves the list as it was.
func (r *Reconciler) Resolve(req Request, page *Page, err error) Outcome {
	if req.ID == 0 {
		return Ignored
	}
	if req.Generation != r.generation {
		return Stale
	}

	switch req.Mode {
	case ModeReplace:
		if req.ID != r.replaceID {
			return Stale
		}
		r.replaceID = 0
		r.refreshing = false
		if err != nil {
			return Failed
		}
		r.images = nil
		r.totalHits = 0
		r.apply(page)
		if len(r.images) == 0 {
			r.exhausted = true
		}
		return Applied

	case ModeAppend:
		if req.ID != r.appendID {
			return Ignored
		}
		r.appendID = 0
		if err != nil {
			return Failed
		}
		r.query.Page = req.Params.Page
		before := len(r.images)
		r.apply(page)
		if len(r.images) == before {
			r.exhausted = true
		}
		return Applied
	}
	return Ignored
}

func (r *Reconciler) apply(page *Page) {
	if page == nil {
		return
	}
	if page.TotalHits > 0 {
		r.totalHits = page.TotalHits
	}
	r.images = append(r.images, page.Hits...)
	if r.totalHits > 0 && len(r.images) >= r.totalHits {
		r.exhausted = true
	}
}
