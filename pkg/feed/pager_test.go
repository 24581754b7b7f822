package feed

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jestr-media/client/pkg/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	mu      sync.Mutex
	pages   map[string]Page
	cursors []string
	err     error

	// block[cursor], when set, is received from before that page returns
	block map[string]chan struct{}
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		pages: map[string]Page{
			"":   {Items: items("a", "b", "c"), NextCursor: "c1"},
			"c1": {Items: items("c", "d", "e"), NextCursor: "c2"},
			"c2": {Items: items("f"), NextCursor: ""},
		},
		block: map[string]chan struct{}{},
	}
}

func (f *fakeFeed) FetchFeedPage(ctx context.Context, cursor string, pageSize int) (Page, error) {
	f.mu.Lock()
	f.cursors = append(f.cursors, cursor)
	page := f.pages[cursor]
	err := f.err
	block := f.block[cursor]
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return Page{}, ctx.Err()
		}
	}
	if err != nil {
		return Page{}, err
	}
	return page, nil
}

func (f *fakeFeed) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cursors)
}

func (f *fakeFeed) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeFeed) setBlock(cursor string, ch chan struct{}) {
	f.mu.Lock()
	f.block[cursor] = ch
	f.mu.Unlock()
}

func items(idList ...string) []Item {
	out := make([]Item, 0, len(idList))
	for _, id := range idList {
		out = append(out, Item{Id: id, MediaType: MediaImage})
	}
	return out
}

func itemIds(list []Item) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, item.Id)
	}
	return out
}

func TestFetchInitialThenMoreDeduplicates(t *testing.T) {
	api := newFakeFeed()
	p := NewPager(api, Options{PageSize: 3})
	ctx := context.Background()

	require.NoError(t, p.FetchInitial(ctx))
	assert.Equal(t, []string{"a", "b", "c"}, itemIds(p.State().Items))
	assert.Equal(t, PhaseReady, p.State().Phase)

	require.NoError(t, p.FetchMore(ctx))
	s := p.State()
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, itemIds(s.Items))
	assert.Equal(t, "c2", s.Cursor)
	assert.False(t, s.Exhausted)
}

func TestAppendUniqueFiltersWithinPage(t *testing.T) {
	merged := appendUnique(items("a"), items("b", "a", "b", "c"))
	assert.Equal(t, []string{"a", "b", "c"}, itemIds(merged))
}

func TestShortPageExhaustsFeed(t *testing.T) {
	api := newFakeFeed()
	p := NewPager(api, Options{PageSize: 3})
	ctx := context.Background()

	require.NoError(t, p.FetchInitial(ctx))
	require.NoError(t, p.FetchMore(ctx))
	require.NoError(t, p.FetchMore(ctx))
	assert.True(t, p.State().Exhausted)
	assert.Equal(t, 3, api.calls())

	// No network call once exhausted
	require.NoError(t, p.FetchMore(ctx))
	assert.Equal(t, 3, api.calls())
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, itemIds(p.State().Items))
}

func TestEmptyNextCursorExhaustsFeed(t *testing.T) {
	api := newFakeFeed()
	api.pages[""] = Page{Items: items("a", "b", "c")}
	p := NewPager(api, Options{PageSize: 3})

	require.NoError(t, p.FetchInitial(context.Background()))
	assert.True(t, p.State().Exhausted)

	require.NoError(t, p.FetchMore(context.Background()))
	assert.Equal(t, 1, api.calls())
}

func TestFetchMoreIsReentrancyGuarded(t *testing.T) {
	api := newFakeFeed()
	p := NewPager(api, Options{PageSize: 3})
	ctx := context.Background()
	require.NoError(t, p.FetchInitial(ctx))

	release := make(chan struct{})
	api.setBlock("c1", release)

	done := make(chan error, 1)
	go func() { done <- p.FetchMore(ctx) }()
	require.Eventually(t, func() bool { return p.State().Phase == PhaseLoadingMore }, timeout, tick)

	require.NoError(t, p.FetchMore(ctx))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, 2, api.calls())
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, itemIds(p.State().Items))
}

func TestFetchInitialDropsStaleFetchMore(t *testing.T) {
	api := newFakeFeed()
	p := NewPager(api, Options{PageSize: 3})
	ctx := context.Background()
	require.NoError(t, p.FetchInitial(ctx))

	release := make(chan struct{})
	api.setBlock("c1", release)

	done := make(chan error, 1)
	go func() { done <- p.FetchMore(ctx) }()
	require.Eventually(t, func() bool { return p.State().Phase == PhaseLoadingMore }, timeout, tick)

	// Pull to refresh while the page is still in flight
	api.mu.Lock()
	api.pages[""] = Page{Items: items("x", "y", "z"), NextCursor: "c1"}
	api.mu.Unlock()
	require.NoError(t, p.FetchInitial(ctx))

	close(release)
	require.NoError(t, <-done)

	s := p.State()
	assert.Equal(t, []string{"x", "y", "z"}, itemIds(s.Items))
	assert.Equal(t, "c1", s.Cursor)
	assert.Equal(t, PhaseReady, s.Phase)
}

func TestFetchInitialWhileLoadingInitialIsNoop(t *testing.T) {
	api := newFakeFeed()
	p := NewPager(api, Options{PageSize: 3})
	ctx := context.Background()

	release := make(chan struct{})
	api.setBlock("", release)

	done := make(chan error, 1)
	go func() { done <- p.FetchInitial(ctx) }()
	require.Eventually(t, func() bool { return p.State().Phase == PhaseLoadingInitial }, timeout, tick)

	require.NoError(t, p.FetchInitial(ctx))
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, api.calls())
}

func TestUnfocusedFeedDoesNotFetchMore(t *testing.T) {
	api := newFakeFeed()
	p := NewPager(api, Options{PageSize: 3})
	ctx := context.Background()
	require.NoError(t, p.FetchInitial(ctx))

	p.SetFocused(false)
	require.NoError(t, p.FetchMore(ctx))
	assert.Equal(t, 1, api.calls())

	p.SetFocused(true)
	require.NoError(t, p.FetchMore(ctx))
	assert.Equal(t, 2, api.calls())
}

func TestFailedInitialFetchIsDistinctFromEmpty(t *testing.T) {
	api := newFakeFeed()
	api.setErr(errors.New("offline"))
	p := NewPager(api, Options{PageSize: 3})

	err := p.FetchInitial(context.Background())
	require.Error(t, err)
	s := p.State()
	assert.Equal(t, PhaseFailed, s.Phase)
	assert.Error(t, s.Err)
	assert.Empty(t, s.Items)

	api.setErr(nil)
	api.pages[""] = Page{}
	require.NoError(t, p.FetchInitial(context.Background()))
	s = p.State()
	assert.Equal(t, PhaseReady, s.Phase)
	assert.NoError(t, s.Err)
	assert.Empty(t, s.Items)
	assert.True(t, s.Exhausted)
}

func TestFailedFetchMoreKeepsListAndIsRetryable(t *testing.T) {
	api := newFakeFeed()
	p := NewPager(api, Options{PageSize: 3})
	ctx := context.Background()
	require.NoError(t, p.FetchInitial(ctx))

	api.setErr(errors.New("timeout"))
	require.Error(t, p.FetchMore(ctx))
	s := p.State()
	assert.Equal(t, PhaseReady, s.Phase)
	assert.False(t, s.Loading())
	assert.Equal(t, []string{"a", "b", "c"}, itemIds(s.Items))

	api.setErr(nil)
	require.NoError(t, p.FetchMore(ctx))
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, itemIds(p.State().Items))
}

func TestAppendKeepsActiveItem(t *testing.T) {
	api := newFakeFeed()
	p := NewPager(api, Options{PageSize: 3})
	ctx := context.Background()
	require.NoError(t, p.FetchInitial(ctx))

	p.SetActiveIndex(2)
	before, ok := p.ActiveItem()
	require.True(t, ok)

	require.NoError(t, p.FetchMore(ctx))
	after, ok := p.ActiveItem()
	require.True(t, ok)
	assert.Equal(t, before.Id, after.Id)
}

func TestEndReachedIsDebounced(t *testing.T) {
	api := newFakeFeed()
	p := NewPager(api, Options{PageSize: 3, MoreInterval: time.Hour})
	ctx := context.Background()
	require.NoError(t, p.FetchInitial(ctx))

	require.NoError(t, p.EndReached(ctx))
	require.NoError(t, p.EndReached(ctx))
	require.NoError(t, p.EndReached(ctx))
	assert.Equal(t, 2, api.calls())
}

func TestMarkViewedPersistsAndBatches(t *testing.T) {
	api := newFakeFeed()
	views := &fakeViews{}
	sink := persist.NewMemorySink()
	p := NewPager(api, Options{
		PageSize:  3,
		Sink:      sink,
		UserEmail: "me@jestr.app",
		Views:     NewViewBatch(views, 2, nil),
	})
	ctx := context.Background()
	require.NoError(t, p.FetchInitial(ctx))

	require.NoError(t, p.MarkViewed(ctx, "a"))
	require.NoError(t, p.MarkViewed(ctx, "b"))
	assert.ErrorIs(t, p.MarkViewed(ctx, "zz"), ErrUnknownItem)

	s := p.State()
	assert.True(t, s.Items[0].Viewed)
	assert.True(t, s.Items[1].Viewed)
	assert.False(t, s.Items[2].Viewed)
	assert.Equal(t, [][]View{{
		{Email: "me@jestr.app", ItemId: "a"},
		{Email: "me@jestr.app", ItemId: "b"},
	}}, views.batches)

	var last string
	found, err := sink.Load(ctx, "feed:last_viewed:me@jestr.app", &last)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "b", last)
}

func TestResumeFromLastViewed(t *testing.T) {
	api := newFakeFeed()
	sink := persist.NewMemorySink()
	ctx := context.Background()
	require.NoError(t, sink.Save(ctx, "feed:last_viewed:me@jestr.app", "c1"))

	p := NewPager(api, Options{
		PageSize:             3,
		Sink:                 sink,
		UserEmail:            "me@jestr.app",
		ResumeFromLastViewed: true,
	})
	require.NoError(t, p.FetchInitial(ctx))
	assert.Equal(t, []string{"c", "d", "e"}, itemIds(p.State().Items))

	// Only the first fetch resumes
	require.NoError(t, p.FetchInitial(ctx))
	assert.Equal(t, []string{"a", "b", "c"}, itemIds(p.State().Items))
}

func TestResumePositionSurvivesFailedInitialFetch(t *testing.T) {
	api := newFakeFeed()
	sink := persist.NewMemorySink()
	ctx := context.Background()
	require.NoError(t, sink.Save(ctx, "feed:last_viewed:me@jestr.app", "c1"))

	p := NewPager(api, Options{
		PageSize:             3,
		Sink:                 sink,
		UserEmail:            "me@jestr.app",
		ResumeFromLastViewed: true,
	})

	api.mu.Lock()
	api.err = errors.New("offline")
	api.mu.Unlock()
	require.Error(t, p.FetchInitial(ctx))
	assert.Equal(t, PhaseFailed, p.State().Phase)

	api.mu.Lock()
	api.err = nil
	api.mu.Unlock()
	require.NoError(t, p.FetchInitial(ctx))
	assert.Equal(t, []string{"c", "d", "e"}, itemIds(p.State().Items))

	api.mu.Lock()
	assert.Equal(t, []string{"c1", "c1"}, api.cursors)
	api.mu.Unlock()
}

func TestPageSizeIsClamped(t *testing.T) {
	assert.Equal(t, DefaultPageSize, NewPager(newFakeFeed(), Options{}).PageSize())
	assert.Equal(t, MaxPageSize, NewPager(newFakeFeed(), Options{PageSize: 1000}).PageSize())
}
