package browse

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	mu     sync.Mutex
	calls  []url.Values
	errs   []error
	gates  map[string]chan struct{}
	onCall func(url.Values)
	block  bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{gates: map[string]chan struct{}{}}
}

// gate makes requests with exactly these parameters wait until the returned
// function is called. The wait ignores cancellation.
func (f *fakeSource) gate(params url.Values) func() {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[params.Encode()] = ch
	f.mu.Unlock()
	return func() { close(ch) }
}

func (f *fakeSource) Images(ctx context.Context, params url.Values) (*Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, params)
	gate := f.gates[params.Encode()]
	hook := f.onCall
	block := f.block
	f.mu.Unlock()

	if hook != nil {
		hook(params)
	}
	if gate != nil {
		<-gate
	}
	if block {
		<-ctx.Done()
		f.mu.Lock()
		f.errs = append(f.errs, ctx.Err())
		f.mu.Unlock()
		return nil, ctx.Err()
	}

	page, _ := strconv.Atoi(params.Get("page"))
	offset := 0
	if params.Get("q") != "" {
		offset = 10000
	}
	if params.Get("category") != "" {
		offset = 20000
	}
	return pageOf(offset+(page-1)*25+1, 25, 500), nil
}

func (f *fakeSource) Calls() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.calls...)
}

func (f *fakeSource) Errs() []error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]error(nil), f.errs...)
}

func nextEvent(t *testing.T, s *Session) Event {
	t.Helper()
	select {
	case ev := <-s.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a session event")
		return nil
	}
}

func expectNoEvent(t *testing.T, s *Session) {
	t.Helper()
	select {
	case ev := <-s.Events():
		t.Fatalf("unexpected event %#v", ev)
	case <-time.After(30 * time.Millisecond):
	}
}

func handleNext(t *testing.T, s *Session) Outcome {
	t.Helper()
	return s.Handle(nextEvent(t, s))
}

func newTestSession(t *testing.T, src Source, clock Clock, opts ...Option) *Session {
	t.Helper()
	s := NewSession(src, append([]Option{WithClock(clock)}, opts...)...)
	t.Cleanup(s.Close)
	return s
}

func TestSession_Start(t *testing.T) {
	src := newFakeSource()
	s := newTestSession(t, src, newFakeClock())

	assert.NotEmpty(t, s.ID())
	s.Start()
	assert.True(t, s.Loading())

	require.Equal(t, Applied, handleNext(t, s))
	assert.False(t, s.Loading())
	assert.Len(t, s.Images(), 25)
	assert.Equal(t, 500, s.TotalHits())
	assert.Equal(t, []url.Values{{"page": {"1"}}}, src.Calls())
}

func TestSession_RequestsCarryTheirTrigger(t *testing.T) {
	var mu sync.Mutex
	var triggers []Trigger
	src := SourceFunc(func(ctx context.Context, params url.Values) (*Page, error) {
		mu.Lock()
		triggers = append(triggers, TriggerFrom(ctx))
		mu.Unlock()
		return &Page{TotalHits: 1, Hits: hits(1, 1)}, nil
	})
	s := newTestSession(t, src, newFakeClock())

	s.Start()
	require.Equal(t, Applied, handleNext(t, s))
	s.Refresh()
	require.Equal(t, Applied, handleNext(t, s))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Trigger{TriggerStart, TriggerRefresh}, triggers)
	assert.Equal(t, Trigger(""), TriggerFrom(context.Background()))
}

func TestSession_DebouncedSearch(t *testing.T) {
	src := newFakeSource()
	clock := newFakeClock()
	s := newTestSession(t, src, clock)
	s.Start()
	require.Equal(t, Applied, handleNext(t, s))

	s.Type("a")
	clock.Advance(100 * time.Millisecond)
	s.Type("ab")
	clock.Advance(100 * time.Millisecond)
	s.Type("abc")
	assert.True(t, s.SearchPending())

	clock.Advance(399 * time.Millisecond)
	expectNoEvent(t, s)

	clock.Advance(1 * time.Millisecond)
	ev := nextEvent(t, s)
	fired, ok := ev.(DebounceFired)
	require.True(t, ok, "got %#v", ev)
	assert.Equal(t, "abc", fired.Text)
	assert.Equal(t, Applied, s.Handle(ev))
	assert.False(t, s.SearchPending())

	require.Equal(t, Applied, handleNext(t, s))
	assert.Equal(t, "abc", s.Query().Search)

	calls := src.Calls()
	require.Len(t, calls, 2, "exactly one evaluation for the burst")
	assert.Equal(t, "abc", calls[1].Get("q"))

	clock.Advance(time.Second)
	expectNoEvent(t, s)
}

func TestSession_ShortSearchIssuesNothing(t *testing.T) {
	src := newFakeSource()
	clock := newFakeClock()
	s := newTestSession(t, src, clock)
	s.Start()
	require.Equal(t, Applied, handleNext(t, s))
	before := s.Query()

	s.Type("ab")
	clock.Advance(DefaultDebounce)
	assert.Equal(t, Ignored, handleNext(t, s))

	assert.Equal(t, before, s.Query())
	assert.Len(t, src.Calls(), 1)
}

func TestSession_ClearSearchIsImmediate(t *testing.T) {
	src := newFakeSource()
	clock := newFakeClock()
	s := newTestSession(t, src, clock)
	s.Start()
	require.Equal(t, Applied, handleNext(t, s))

	s.Type("abc")
	require.True(t, s.ClearSearch())
	assert.False(t, s.SearchPending())
	require.Equal(t, Applied, handleNext(t, s))

	clock.Advance(time.Second)
	expectNoEvent(t, s)

	calls := src.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, url.Values{"page": {"1"}}, calls[1])
}

func TestSession_LoadMoreWaitsMinimumDuration(t *testing.T) {
	src := newFakeSource()
	clock := newFakeClock()
	s := newTestSession(t, src, clock)
	s.Start()
	require.Equal(t, Applied, handleNext(t, s))

	require.True(t, s.LoadMore())
	assert.True(t, s.LoadingMore())
	require.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, time.Millisecond)

	clock.Advance(999 * time.Millisecond)
	expectNoEvent(t, s)
	assert.True(t, s.LoadingMore())

	clock.Advance(1 * time.Millisecond)
	ev := nextEvent(t, s)
	done, ok := ev.(FetchDone)
	require.True(t, ok)
	assert.Equal(t, DefaultMinLoading, done.Elapsed)
	assert.Equal(t, Applied, s.Handle(ev))
	assert.False(t, s.LoadingMore())
	assert.Len(t, s.Images(), 50)
}

func TestSession_MinimumDurationComposesWithFetchTime(t *testing.T) {
	src := newFakeSource()
	clock := newFakeClock()
	src.onCall = func(params url.Values) {
		if params.Get("page") == "2" {
			clock.Advance(600 * time.Millisecond)
		}
	}
	s := newTestSession(t, src, clock)
	s.Start()
	require.Equal(t, Applied, handleNext(t, s))

	require.True(t, s.LoadMore())
	require.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, time.Millisecond)

	clock.Advance(399 * time.Millisecond)
	expectNoEvent(t, s)
	clock.Advance(1 * time.Millisecond)

	done, ok := nextEvent(t, s).(FetchDone)
	require.True(t, ok)
	assert.Equal(t, time.Second, done.Elapsed)
}

func TestSession_SlowLoadMoreIsNotDelayedFurther(t *testing.T) {
	src := newFakeSource()
	clock := newFakeClock()
	src.onCall = func(params url.Values) {
		if params.Get("page") == "2" {
			clock.Advance(1500 * time.Millisecond)
		}
	}
	s := newTestSession(t, src, clock)
	s.Start()
	require.Equal(t, Applied, handleNext(t, s))

	require.True(t, s.LoadMore())
	done, ok := nextEvent(t, s).(FetchDone)
	require.True(t, ok)
	assert.Equal(t, 1500*time.Millisecond, done.Elapsed)
	assert.Equal(t, 0, clock.Pending())
}

func TestSession_StaleResponseIsDiscarded(t *testing.T) {
	src := newFakeSource()
	release := src.gate(url.Values{"page": {"1"}})
	s := newTestSession(t, src, newFakeClock())

	s.Start()
	require.True(t, s.ToggleCategory("nature"))

	ev := nextEvent(t, s)
	done := ev.(FetchDone)
	assert.Equal(t, TriggerCategory, done.Request.Trigger)
	require.Equal(t, Applied, s.Handle(ev))
	want := ids(s.Images())
	assert.Equal(t, 20001, want[0])

	release()
	assert.Equal(t, Stale, handleNext(t, s))
	assert.Equal(t, want, ids(s.Images()))
	assert.Equal(t, "nature", s.Query().Category)
}

func TestSession_ResetCancelsInFlightRequest(t *testing.T) {
	src := newFakeSource()
	src.block = true
	s := newTestSession(t, src, newFakeClock())

	s.Start()
	require.Eventually(t, func() bool { return len(src.Calls()) == 1 }, time.Second, time.Millisecond)
	s.Refresh()

	require.Eventually(t, func() bool { return len(src.Errs()) == 1 }, time.Second, time.Millisecond)
	assert.True(t, errors.Is(src.Errs()[0], context.Canceled))

	ev := nextEvent(t, s)
	assert.Equal(t, TriggerStart, ev.(FetchDone).Request.Trigger)
	assert.Equal(t, Stale, s.Handle(ev))
	assert.True(t, s.Refreshing())
}

func TestSession_ApplyInvalidFilters(t *testing.T) {
	src := newFakeSource()
	s := newTestSession(t, src, newFakeClock())

	assert.False(t, s.ApplyFilters(Filters{FilterColors: "plaid"}))
	assert.False(t, s.ToggleCategory("spaceships"))
	assert.Empty(t, src.Calls())
}

func TestSession_FilterEvents(t *testing.T) {
	src := newFakeSource()
	s := newTestSession(t, src, newFakeClock())
	s.Start()
	require.Equal(t, Applied, handleNext(t, s))

	require.True(t, s.ApplyFilters(Filters{FilterOrder: "popular", FilterColors: "red"}))
	require.Equal(t, Applied, handleNext(t, s))

	s.RemoveFilter(FilterColors)
	require.Equal(t, Applied, handleNext(t, s))
	assert.Equal(t, Filters{FilterOrder: "popular"}, s.Query().Filters)

	s.ResetFilters()
	require.Equal(t, Applied, handleNext(t, s))
	assert.Nil(t, s.Query().Filters)

	calls := src.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "popular", calls[2].Get("order"))
	assert.Empty(t, calls[2].Get("colors"))
	assert.Empty(t, calls[3].Get("order"))
}

func TestSession_Close(t *testing.T) {
	src := newFakeSource()
	src.block = true
	clock := newFakeClock()
	s := NewSession(src, WithClock(clock))

	s.Start()
	s.Type("mountains")
	require.Eventually(t, func() bool { return len(src.Calls()) == 1 }, time.Second, time.Millisecond)

	s.Close()
	s.Close()

	assert.Equal(t, 0, clock.Pending(), "pending debounce is stopped")
	select {
	case ev := <-s.Events():
		t.Fatalf("event delivered after Close: %#v", ev)
	default:
	}
	assert.Equal(t, Ignored, s.Handle(FetchDone{}))

	s.Type("ignored")
	assert.False(t, s.SearchPending())
}

func TestSession_SystemClock(t *testing.T) {
	src := newFakeSource()
	s := NewSession(src, WithDebounce(5*time.Millisecond), WithMinLoading(0), WithBuffer(1))
	defer s.Close()

	s.Type("forest")
	ev := nextEvent(t, s)
	require.IsType(t, DebounceFired{}, ev)
	require.Equal(t, Applied, s.Handle(ev))
	require.Equal(t, Applied, handleNext(t, s))
	assert.Equal(t, "forest", s.Query().Search)
	assert.Equal(t, 10001, s.Images()[0].ID)
}
