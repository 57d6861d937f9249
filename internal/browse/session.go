package browse

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pders01/pixa/internal/catalog"
	"github.com/pders01/pixa/internal/debuglog"
	"github.com/pders01/pixa/internal/storage"
)

// DefaultMinLoading is the shortest time a load-more indicator stays visible.
const DefaultMinLoading = 1000 * time.Millisecond

// Source fetches one page of results for the encoded parameters.
type Source interface {
	Images(ctx context.Context, params url.Values) (*Page, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, params url.Values) (*Page, error)

func (f SourceFunc) Images(ctx context.Context, params url.Values) (*Page, error) {
	return f(ctx, params)
}

type triggerKey struct{}

// WithTrigger records the event behind a request in ctx so a Source can
// tell a refresh from other fetches.
func WithTrigger(ctx context.Context, t Trigger) context.Context {
	return context.WithValue(ctx, triggerKey{}, t)
}

// TriggerFrom returns the trigger stored by WithTrigger, or "".
func TriggerFrom(ctx context.Context) Trigger {
	t, _ := ctx.Value(triggerKey{}).(Trigger)
	return t
}

// Event is delivered on Session.Events and handed back through Session.Handle.
type Event interface {
	sessionEvent()
}

// FetchDone reports the completion of a request.
type FetchDone struct {
	Request Request
	Page    *Page
	Err     error
	Elapsed time.Duration
}

// DebounceFired reports that typing has settled on Text.
type DebounceFired struct {
	Seq  uint64
	Text string
}

func (FetchDone) sessionEvent()     {}
func (DebounceFired) sessionEvent() {}

type Option func(*Session)

func WithClock(c Clock) Option {
	return func(s *Session) { s.clock = c }
}

func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

func WithMinLoading(d time.Duration) Option {
	return func(s *Session) { s.minLoading = d }
}

func WithLogger(l *debuglog.FieldLogger) Option {
	return func(s *Session) { s.log = l }
}

func WithBuffer(n int) Option {
	return func(s *Session) { s.buffer = n }
}

func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Session) { s.catalog = c }
}

// Session drives a Reconciler from one event loop. Requests run on their own
// goroutines; their completions come back as events that the owner passes to
// Handle. All methods except Events must be called from the owning loop.
type Session struct {
	id         string
	source     Source
	clock      Clock
	debounce   time.Duration
	minLoading time.Duration
	buffer     int
	catalog    *catalog.Catalog
	log        *debuglog.FieldLogger

	rec       *Reconciler
	debouncer *Debouncer
	events    chan Event

	root      context.Context
	stop      context.CancelFunc
	genCtx    context.Context
	genCancel context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	closed    bool
}

func NewSession(source Source, opts ...Option) *Session {
	s := &Session{
		id:         uuid.NewString(),
		source:     source,
		clock:      SystemClock{},
		debounce:   DefaultDebounce,
		minLoading: DefaultMinLoading,
		buffer:     16,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = debuglog.WithFields(map[string]interface{}{"component": "browse"})
	}
	s.log = s.log.With("session", s.id)

	s.rec = NewReconciler(s.catalog)
	s.debouncer = NewDebouncer(s.clock, s.debounce, s.fireDebounce)
	s.events = make(chan Event, s.buffer)
	s.root, s.stop = context.WithCancel(context.Background())
	s.genCtx, s.genCancel = context.WithCancel(s.root)
	return s
}

func (s *Session) ID() string { return s.id }

// Events delivers fetch completions and debounce expiries.
func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) Query() Query            { return s.rec.Query() }
func (s *Session) Images() []storage.Image { return s.rec.Images() }
func (s *Session) Generation() uint64      { return s.rec.Generation() }
func (s *Session) TotalHits() int          { return s.rec.TotalHits() }
func (s *Session) Loading() bool           { return s.rec.Loading() }
func (s *Session) LoadingMore() bool       { return s.rec.LoadingMore() }
func (s *Session) Refreshing() bool        { return s.rec.Refreshing() }
func (s *Session) Exhausted() bool         { return s.rec.Exhausted() }

// SearchPending reports keystrokes that have not settled yet.
func (s *Session) SearchPending() bool { return s.debouncer.Pending() }

func (s *Session) Start() {
	s.issue(s.rec.Start())
}

// Type records a keystroke in the search field. Evaluation happens once
// typing has been quiet for the debounce window.
func (s *Session) Type(text string) {
	if s.isClosed() {
		return
	}
	s.debouncer.Push(text)
}

// ClearSearch evaluates an empty search immediately.
func (s *Session) ClearSearch() bool {
	s.debouncer.Cancel()
	return s.evaluateSearch("")
}

func (s *Session) ToggleCategory(cat string) bool {
	s.debouncer.Cancel()
	return s.issueIf(s.rec.ToggleCategory(cat))
}

func (s *Session) LoadMore() bool {
	return s.issueIf(s.rec.LoadMore())
}

func (s *Session) Refresh() {
	s.issue(s.rec.Refresh())
}

func (s *Session) ApplyFilters(f Filters) bool {
	return s.issueIf(s.rec.ApplyFilters(f))
}

func (s *Session) ResetFilters() {
	s.issue(s.rec.ResetFilters())
}

func (s *Session) RemoveFilter(key FilterKey) {
	s.issue(s.rec.RemoveFilter(key))
}

// Handle applies an event received from Events.
func (s *Session) Handle(ev Event) Outcome {
	if s.isClosed() {
		return Ignored
	}
	switch e := ev.(type) {
	case FetchDone:
		outcome := s.rec.Resolve(e.Request, e.Page, e.Err)
		l := s.log.With("request", e.Request.ID).With("generation", e.Request.Generation)
		switch outcome {
		case Applied:
			l.Debugf("%s %s applied: %d items in %s", e.Request.Trigger, e.Request.Mode, len(s.rec.Images()), e.Elapsed)
		case Failed:
			l.Warnf("%s %s failed: %v", e.Request.Trigger, e.Request.Mode, e.Err)
		case Stale:
			l.Debugf("discarded stale %s response", e.Request.Trigger)
		}
		return outcome
	case DebounceFired:
		if !s.debouncer.Accept(e.Seq) {
			return Ignored
		}
		if s.evaluateSearch(e.Text) {
			return Applied
		}
		return Ignored
	}
	return Ignored
}

// Close cancels pending timers and in-flight requests and waits for their
// goroutines. No event is delivered once Close returns.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.debouncer.Cancel()
	s.genCancel()
	s.stop()
	s.wg.Wait()
	for {
		select {
		case <-s.events:
		default:
			return
		}
	}
}

func (s *Session) evaluateSearch(text string) bool {
	req, ok := s.rec.Search(text)
	if !ok {
		return false
	}
	s.issue(req)
	return true
}

func (s *Session) issueIf(req Request, ok bool) bool {
	if !ok {
		return false
	}
	s.issue(req)
	return true
}

func (s *Session) issue(req Request) {
	if req.Mode == ModeReplace {
		// Requests of the previous generation can no longer be applied.
		s.genCancel()
		s.genCtx, s.genCancel = context.WithCancel(s.root)
	}
	ctx := s.genCtx
	if !s.track() {
		return
	}
	s.log.With("request", req.ID).Debugf("issue %s %s gen=%d params=%s",
		req.Trigger, req.Mode, req.Generation, req.Params.Values().Encode())

	go func() {
		defer s.wg.Done()
		start := s.clock.Now()
		page, err := s.source.Images(WithTrigger(ctx, req.Trigger), req.Params.Values())
		if req.Mode == ModeAppend {
			s.wait(ctx, s.minLoading-s.clock.Now().Sub(start))
		}
		s.post(FetchDone{Request: req, Page: page, Err: err, Elapsed: s.clock.Now().Sub(start)})
	}()
}

func (s *Session) fireDebounce(seq uint64, text string) {
	if !s.track() {
		return
	}
	defer s.wg.Done()
	s.post(DebounceFired{Seq: seq, Text: text})
}

// wait blocks for d or until ctx is done.
func (s *Session) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	done := make(chan struct{})
	t := s.clock.AfterFunc(d, func() { close(done) })
	select {
	case <-done:
	case <-ctx.Done():
		t.Stop()
	}
}

func (s *Session) post(ev Event) {
	select {
	case s.events <- ev:
	case <-s.root.Done():
	}
}

func (s *Session) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
