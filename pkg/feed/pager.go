package feed

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jestr-media/client/pkg/logging"
	"github.com/jestr-media/client/pkg/persist"
	"github.com/jestr-media/client/pkg/store"
	"go.uber.org/zap"
)

const (
	DefaultPageSize     = 10
	MaxPageSize         = 100
	DefaultMoreInterval = time.Second
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoadingInitial
	PhaseReady
	PhaseLoadingMore
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoadingInitial:
		return "loading_initial"
	case PhaseReady:
		return "ready"
	case PhaseLoadingMore:
		return "loading_more"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type State struct {
	Items     []Item
	Cursor    string
	Phase     Phase
	Exhausted bool
	Err       error

	// Owned by the presentation layer
	ActiveIndex int
	Focused     bool

	generation uint64
}

func (s State) Loading() bool {
	return s.Phase == PhaseLoadingInitial || s.Phase == PhaseLoadingMore
}

type Options struct {
	PageSize int

	// Window in which repeated EndReached calls are dropped
	MoreInterval time.Duration

	Logger *zap.Logger

	// Sink keeps the last viewed item id between sessions
	Sink      persist.Sink
	UserEmail string

	// ResumeFromLastViewed starts the first FetchInitial at the persisted
	// last viewed item instead of the top of the feed
	ResumeFromLastViewed bool

	Views *ViewBatch
}

// Pager is an append-only paginated feed.
type Pager struct {
	api      API
	state    *store.Store[State]
	pageSize int
	debounce *Debouncer
	log      *zap.Logger
	sink     persist.Sink
	user     string
	views    *ViewBatch
	resume   atomic.Bool
}

func NewPager(api API, opts Options) *Pager {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	} else if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	interval := opts.MoreInterval
	if interval == 0 {
		interval = DefaultMoreInterval
	}

	p := &Pager{
		api:      api,
		state:    store.New(State{Items: []Item{}, Focused: true}),
		pageSize: pageSize,
		debounce: NewDebouncer(interval),
		log:      logging.OrNop(opts.Logger),
		sink:     opts.Sink,
		user:     opts.UserEmail,
		views:    opts.Views,
	}
	p.resume.Store(opts.ResumeFromLastViewed && opts.Sink != nil)
	return p
}

func (p *Pager) State() State {
	return p.state.Get()
}

func (p *Pager) Subscribe(l store.Listener[State]) func() {
	return p.state.Subscribe(l)
}

func (p *Pager) PageSize() int {
	return p.pageSize
}

// FetchInitial replaces the whole list with the first page. It is a no-op
// while another initial fetch is running and supersedes a running FetchMore.
func (p *Pager) FetchInitial(ctx context.Context) error {
	var token uint64
	if _, ok := p.state.Update(func(s State) (State, bool) {
		if s.Phase == PhaseLoadingInitial {
			return s, false
		}
		s.generation++
		token = s.generation
		s.Phase = PhaseLoadingInitial
		s.Err = nil
		return s, true
	}); !ok {
		return nil
	}

	// The resume position is kept until a page has been committed
	cursor := ""
	resuming := p.resume.Load()
	if resuming {
		cursor = p.lastViewed(ctx)
	}

	page, err := p.api.FetchFeedPage(ctx, cursor, p.pageSize)
	if err != nil {
		logging.Report(p.log, err, "Failed to fetch initial feed page")
		p.state.Update(func(s State) (State, bool) {
			if s.generation != token {
				return s, false
			}
			s.Phase = PhaseFailed
			s.Err = err
			return s, true
		})
		return fmt.Errorf("fetch initial page: %w", err)
	}

	items := appendUnique([]Item{}, page.Items)
	if _, ok := p.state.Update(func(s State) (State, bool) {
		if s.generation != token {
			return s, false
		}
		s.Items = items
		s.Cursor = page.NextCursor
		s.Exhausted = p.isLastPage(page)
		s.Phase = PhaseReady
		s.ActiveIndex = 0
		s.Err = nil
		return s, true
	}); !ok {
		p.log.Debug("Dropping superseded initial feed page")
		return nil
	}
	if resuming {
		p.resume.Store(false)
	}
	return nil
}

// FetchMore appends the next page. It does nothing unless the feed is
// ready, focused and not exhausted.
func (p *Pager) FetchMore(ctx context.Context) error {
	var token uint64
	var cursor string
	if _, ok := p.state.Update(func(s State) (State, bool) {
		if s.Phase != PhaseReady || s.Exhausted || !s.Focused {
			return s, false
		}
		token = s.generation
		cursor = s.Cursor
		s.Phase = PhaseLoadingMore
		return s, true
	}); !ok {
		return nil
	}

	page, err := p.api.FetchFeedPage(ctx, cursor, p.pageSize)
	if err != nil {
		logging.Report(p.log, err, "Failed to fetch feed page", zap.String("cursor", cursor))
		p.state.Update(func(s State) (State, bool) {
			if s.generation != token {
				return s, false
			}
			s.Phase = PhaseReady
			s.Err = err
			return s, true
		})
		return fmt.Errorf("fetch page: %w", err)
	}

	if _, ok := p.state.Update(func(s State) (State, bool) {
		if s.generation != token {
			return s, false
		}
		s.Items = appendUnique(s.Items, page.Items)
		s.Cursor = page.NextCursor
		s.Exhausted = p.isLastPage(page)
		s.Phase = PhaseReady
		s.Err = nil
		return s, true
	}); !ok {
		p.log.Debug("Dropping superseded feed page", zap.String("cursor", cursor))
	}
	return nil
}

// EndReached is called by the list whenever its end scrolls into view.
func (p *Pager) EndReached(ctx context.Context) error {
	if !p.debounce.Allow() {
		return nil
	}
	return p.FetchMore(ctx)
}

func (p *Pager) SetFocused(focused bool) {
	p.state.Update(func(s State) (State, bool) {
		if s.Focused == focused {
			return s, false
		}
		s.Focused = focused
		return s, true
	})
}

func (p *Pager) SetActiveIndex(i int) {
	p.state.Update(func(s State) (State, bool) {
		if i < 0 {
			i = 0
		}
		if s.ActiveIndex == i {
			return s, false
		}
		s.ActiveIndex = i
		return s, true
	})
}

// ActiveItem returns the item at the active index, if there is one.
func (p *Pager) ActiveItem() (Item, bool) {
	s := p.state.Get()
	if s.ActiveIndex < 0 || s.ActiveIndex >= len(s.Items) {
		return Item{}, false
	}
	return s.Items[s.ActiveIndex], true
}

// MarkViewed flags an item as seen, remembers it as the last viewed item
// and queues a view event.
func (p *Pager) MarkViewed(ctx context.Context, id string) error {
	var found bool
	p.state.Update(func(s State) (State, bool) {
		for i, item := range s.Items {
			if item.Id != id {
				continue
			}
			found = true
			if item.Viewed {
				return s, false
			}
			items := make([]Item, len(s.Items))
			copy(items, s.Items)
			items[i].Viewed = true
			s.Items = items
			return s, true
		}
		return s, false
	})
	if !found {
		return ErrUnknownItem
	}

	if p.sink != nil {
		if err := p.sink.Save(ctx, p.lastViewedKey(), id); err != nil {
			logging.Report(p.log, err, "Failed to save last viewed item", zap.String("item", id))
		}
	}
	if p.views != nil && p.user != "" {
		return p.views.Add(ctx, View{Email: p.user, ItemId: id})
	}
	return nil
}

// Close flushes pending view events.
func (p *Pager) Close(ctx context.Context) error {
	if p.views == nil {
		return nil
	}
	return p.views.Flush(ctx)
}

func (p *Pager) isLastPage(page Page) bool {
	return len(page.Items) < p.pageSize || page.NextCursor == ""
}

func (p *Pager) lastViewedKey() string {
	return "feed:last_viewed:" + p.user
}

func (p *Pager) lastViewed(ctx context.Context) string {
	var id string
	found, err := p.sink.Load(ctx, p.lastViewedKey(), &id)
	if err != nil {
		logging.Report(p.log, err, "Failed to load last viewed item")
		return ""
	}
	if !found {
		return ""
	}
	return id
}

// appendUnique returns a new slice of existing followed by the items of
// page whose id is not present yet.
func appendUnique(existing []Item, page []Item) []Item {
	seen := make(map[string]struct{}, len(existing)+len(page))
	for _, item := range existing {
		seen[item.Id] = struct{}{}
	}

	merged := make([]Item, len(existing), len(existing)+len(page))
	copy(merged, existing)
	for _, item := range page {
		if _, ok := seen[item.Id]; ok {
			continue
		}
		seen[item.Id] = struct{}{}
		merged = append(merged, item)
	}
	return merged
}
