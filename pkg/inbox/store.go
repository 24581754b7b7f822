package inbox

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jestr-media/client/pkg/ids"
	"github.com/jestr-media/client/pkg/logging"
	"github.com/jestr-media/client/pkg/persist"
	"github.com/jestr-media/client/pkg/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultRefreshConcurrency = 4
	sendTimeout               = 30 * time.Second
)

type API interface {
	FetchConversations(ctx context.Context, userId string) ([]Conversation, error)
	SendMessage(ctx context.Context, req SendRequest) (SendResult, error)
	FetchMessages(ctx context.Context, userId string, conversationId ids.ID) ([]Message, error)
}

type SendRequest struct {
	SenderId      string
	ReceiverId    string
	Content       Content
	CorrelationId string
}

// SendResult is the server's answer to a send. ConversationId is set when
// the server created the conversation.
type SendResult struct {
	MessageId      string
	ConversationId string
	Timestamp      time.Time
}

type State struct {
	Conversations []Conversation
	Pinned        []Conversation
	Loading       bool
	Err           error
}

type Options struct {
	// UserId is the signed-in user's id, used as sender of every message
	UserId string
	Logger *zap.Logger

	// Sink, when set, receives a snapshot after every change
	Sink persist.Sink

	RefreshConcurrency int
}

// Store is the optimistic conversation store. Sends are appended locally
// at once and delivered in the background; Close cancels and waits for
// deliveries still in flight.
type Store struct {
	api         API
	user        string
	state       *store.Store[State]
	listGen     store.Generation
	messageGen  store.KeyedGeneration
	log         *zap.Logger
	sink        persist.Sink
	detach      func()
	concurrency int
	now         func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewStore(api API, opts Options) *Store {
	concurrency := opts.RefreshConcurrency
	if concurrency <= 0 {
		concurrency = DefaultRefreshConcurrency
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		api:         api,
		user:        opts.UserId,
		state:       store.New(State{Conversations: []Conversation{}, Pinned: []Conversation{}}),
		log:         logging.OrNop(opts.Logger),
		sink:        opts.Sink,
		concurrency: concurrency,
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
	if s.sink != nil {
		s.detach = persist.Attach(s.state, s.sink, s.snapshotKey(), func(st State) any {
			return snapshot{Conversations: st.Conversations, Pinned: st.Pinned}
		}, s.log)
	}
	return s
}

func (s *Store) State() State {
	return s.state.Get()
}

func (s *Store) Subscribe(l store.Listener[State]) func() {
	return s.state.Subscribe(l)
}

type snapshot struct {
	Conversations []Conversation `msgpack:"conversations"`
	Pinned        []Conversation `msgpack:"pinned"`
}

func (s *Store) snapshotKey() string {
	return "inbox:" + s.user
}

// Restore loads the last persisted snapshot. Messages that were still being
// sent when it was taken are marked failed.
func (s *Store) Restore(ctx context.Context) error {
	if s.sink == nil {
		return nil
	}
	var snap snapshot
	found, err := s.sink.Load(ctx, s.snapshotKey(), &snap)
	if err != nil {
		return fmt.Errorf("restore inbox: %w", err)
	}
	if !found {
		return nil
	}

	s.state.Update(func(st State) (State, bool) {
		st.Conversations = failSending(snap.Conversations)
		st.Pinned = failSending(snap.Pinned)
		return st, true
	})
	return nil
}

func failSending(list []Conversation) []Conversation {
	out := make([]Conversation, len(list))
	for i, c := range list {
		msgs := make([]Message, len(c.Messages))
		for j, m := range c.Messages {
			if m.Status == StatusSending {
				m.Status = StatusFailed
			}
			msgs[j] = m
		}
		c.Messages = msgs
		out[i] = c
	}
	return out
}

// FetchConversations replaces the conversation list with the server's. On
// error the previous list stays.
func (s *Store) FetchConversations(ctx context.Context, userId string) error {
	token := s.listGen.Next()
	s.state.Update(func(st State) (State, bool) {
		st.Loading = true
		st.Err = nil
		return st, true
	})

	list, err := s.api.FetchConversations(ctx, userId)
	if !s.listGen.IsCurrent(token) {
		s.log.Debug("Dropping superseded conversation list")
		return nil
	}
	if err != nil {
		logging.Report(s.log, err, "Failed to fetch conversations", zap.String("user", userId))
		s.state.Update(func(st State) (State, bool) {
			if !s.listGen.IsCurrent(token) {
				return st, false
			}
			st.Loading = false
			st.Err = err
			return st, true
		})
		return fmt.Errorf("fetch conversations: %w", err)
	}

	for i := range list {
		list[i].Messages = s.normalize(list[i].Messages, list[i].Id)
	}
	s.state.Update(func(st State) (State, bool) {
		if !s.listGen.IsCurrent(token) {
			return st, false
		}
		st = mergeConversations(st, list)
		st.Loading = false
		st.Err = nil
		return st, true
	})
	return nil
}

// SendMessage appends the message to the conversation right away and
// delivers it in the background. It returns the local id of the message.
func (s *Store) SendMessage(conversationId ids.ID, content Content) (ids.ID, error) {
	if content.IsEmpty() {
		return "", ErrEmptyMessage
	}
	if s.isClosed() {
		return "", ErrClosed
	}

	var msg Message
	var found bool
	s.state.Update(func(st State) (State, bool) {
		c, loc, ok := st.find(conversationId)
		if !ok {
			return st, false
		}
		found = true
		msg = Message{
			Id:             ids.NewLocal(),
			CorrelationId:  ids.NewNonce(),
			ConversationId: c.Id,
			SenderId:       s.user,
			ReceiverId:     c.Partner.Email,
			Content:        content,
			Timestamp:      s.now(),
			Status:         StatusSending,
			SentByMe:       true,
		}
		c.Messages = append(slices.Clone(c.Messages), msg)
		c.LastMessage = LastMessage{Content: content, Timestamp: msg.Timestamp}
		return st.replace(loc, c), true
	})
	if !found {
		return "", ErrConversationNotFound
	}

	if err := s.dispatch(msg); err != nil {
		return msg.Id, err
	}
	return msg.Id, nil
}

// RetryMessage sends a failed message again.
func (s *Store) RetryMessage(messageId ids.ID) error {
	if s.isClosed() {
		return ErrClosed
	}

	var msg Message
	var err error
	s.state.Update(func(st State) (State, bool) {
		c, loc, i, ok := st.findMessage(func(m Message) bool { return m.Id == messageId })
		if !ok {
			err = ErrMessageNotFound
			return st, false
		}
		if c.Messages[i].Status != StatusFailed {
			err = ErrMessageNotFailed
			return st, false
		}
		c.Messages = slices.Clone(c.Messages)
		c.Messages[i].Status = StatusSending
		msg = c.Messages[i]
		return st.replace(loc, c), true
	})
	if err != nil {
		return err
	}
	return s.dispatch(msg)
}

// DiscardMessage drops a failed message.
func (s *Store) DiscardMessage(messageId ids.ID) error {
	var err error
	s.state.Update(func(st State) (State, bool) {
		c, loc, i, ok := st.findMessage(func(m Message) bool { return m.Id == messageId })
		if !ok {
			err = ErrMessageNotFound
			return st, false
		}
		if c.Messages[i].Status != StatusFailed {
			err = ErrMessageNotFailed
			return st, false
		}
		msgs := make([]Message, 0, len(c.Messages)-1)
		msgs = append(msgs, c.Messages[:i]...)
		msgs = append(msgs, c.Messages[i+1:]...)
		c.Messages = msgs
		if len(msgs) > 0 {
			tail := msgs[len(msgs)-1]
			c.LastMessage = LastMessage{Content: tail.Content, Timestamp: tail.Timestamp}
		} else {
			c.LastMessage = LastMessage{}
		}
		return st.replace(loc, c), true
	})
	return err
}

func (s *Store) dispatch(msg Message) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.markFailed(msg.CorrelationId)
		return ErrClosed
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.deliver(msg)
	}()
	return nil
}

func (s *Store) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(s.ctx, sendTimeout)
	defer cancel()

	res, err := s.api.SendMessage(ctx, SendRequest{
		SenderId:      msg.SenderId,
		ReceiverId:    msg.ReceiverId,
		Content:       msg.Content,
		CorrelationId: msg.CorrelationId,
	})
	if err != nil {
		logging.Report(s.log, err, "Failed to send message",
			zap.String("conversation", msg.ConversationId.String()),
			zap.String("correlation", msg.CorrelationId),
		)
		s.markFailed(msg.CorrelationId)
		return
	}
	s.confirm(msg.CorrelationId, res)
}

func (s *Store) markFailed(correlationId string) {
	s.state.Update(func(st State) (State, bool) {
		c, loc, i, ok := st.findMessage(func(m Message) bool { return m.CorrelationId == correlationId })
		if !ok || !c.Messages[i].IsPending() {
			return st, false
		}
		c.Messages = slices.Clone(c.Messages)
		c.Messages[i].Status = StatusFailed
		return st.replace(loc, c), true
	})
}

// confirm swaps the local entry for the confirmed one, found by correlation
// id, and moves a local conversation onto the server's conversation id.
func (s *Store) confirm(correlationId string, res SendResult) {
	_, committed := s.state.Update(func(st State) (State, bool) {
		c, loc, i, ok := st.findMessage(func(m Message) bool { return m.CorrelationId == correlationId })
		if !ok {
			return st, false
		}

		c.Messages = slices.Clone(c.Messages)
		m := c.Messages[i]
		if res.MessageId != "" {
			m.Id = ids.Server(res.MessageId)
		}
		if !res.Timestamp.IsZero() {
			m.Timestamp = res.Timestamp
		}
		m.Status = StatusSent
		c.Messages[i] = m

		if !c.IsLocal() || res.ConversationId == "" {
			return st.replace(loc, c), true
		}

		// Rekey the locally started conversation
		serverId := ids.Server(res.ConversationId)
		c.Id = serverId
		for j := range c.Messages {
			c.Messages[j].ConversationId = serverId
		}
		existing, _, ok := st.find(serverId)
		if !ok {
			return st.replace(loc, c), true
		}
		merged := absorb(existing, c)
		st = st.remove(loc)
		_, existingLoc, _ := st.find(serverId)
		if pinned := existingLoc.pinned || loc.pinned; pinned != existingLoc.pinned {
			return st.remove(existingLoc).push(pinned, merged), true
		}
		merged.Pinned = existingLoc.pinned
		return st.replace(existingLoc, merged), true
	})
	if !committed {
		s.log.Debug("Confirmed message is gone", zap.String("correlation", correlationId))
	}
}

// PinConversation moves a conversation to the pinned list.
func (s *Store) PinConversation(id ids.ID) error {
	return s.setPinned(id, true)
}

// UnpinConversation moves a conversation back to the unpinned list.
func (s *Store) UnpinConversation(id ids.ID) error {
	return s.setPinned(id, false)
}

func (s *Store) setPinned(id ids.ID, pinned bool) error {
	var found bool
	s.state.Update(func(st State) (State, bool) {
		c, loc, ok := st.find(id)
		if !ok {
			return st, false
		}
		found = true
		if loc.pinned == pinned {
			return st, false
		}
		return st.remove(loc).push(pinned, c), true
	})
	if !found {
		return ErrConversationNotFound
	}
	return nil
}

func (s *Store) ResetUnreadCount(id ids.ID) error {
	return s.modify(id, func(c Conversation) (Conversation, bool) {
		if c.UnreadCount == 0 {
			return c, false
		}
		c.UnreadCount = 0
		if len(c.Messages) > 0 {
			c.LastReadMessageId = c.Messages[len(c.Messages)-1].Id.String()
		}
		return c, true
	})
}

// AddConversation returns the conversation with partner, starting a local
// one when there is none yet.
func (s *Store) AddConversation(partner Partner) (ids.ID, error) {
	if partner.Email == "" {
		return "", ErrMissingPartner
	}

	var id ids.ID
	s.state.Update(func(st State) (State, bool) {
		for _, list := range [][]Conversation{st.Pinned, st.Conversations} {
			for _, c := range list {
				if samePartner(c.Partner, partner) {
					id = c.Id
					return st, false
				}
			}
		}
		c := Conversation{
			Id:       ids.NewLocal(),
			Partner:  partner,
			Messages: []Message{},
		}
		id = c.Id
		return st.prepend(c), true
	})
	return id, nil
}

func (s *Store) DeleteConversation(id ids.ID) error {
	var found bool
	s.state.Update(func(st State) (State, bool) {
		_, loc, ok := st.find(id)
		if !ok {
			return st, false
		}
		found = true
		return st.remove(loc), true
	})
	if !found {
		return ErrConversationNotFound
	}
	s.messageGen.Invalidate(id.String())
	return nil
}

// Messages returns the cached messages of a conversation, oldest first.
func (s *Store) Messages(id ids.ID) ([]Message, bool) {
	c, _, ok := s.state.Get().find(id)
	if !ok {
		return nil, false
	}
	return c.Messages, true
}

// UpdateConversationMessages replaces the cached messages of a conversation.
func (s *Store) UpdateConversationMessages(id ids.ID, msgs []Message) error {
	msgs = s.normalize(msgs, id)
	return s.modify(id, func(c Conversation) (Conversation, bool) {
		c.Messages = msgs
		return touchLastMessage(c), true
	})
}

// FetchMessages loads a conversation's messages from the server and keeps
// local messages the server does not know about yet.
func (s *Store) FetchMessages(ctx context.Context, id ids.ID) error {
	if id.IsLocal() {
		return nil
	}
	key := id.String()
	token := s.messageGen.Next(key)

	msgs, err := s.api.FetchMessages(ctx, s.user, id)
	if !s.messageGen.IsCurrent(key, token) {
		s.log.Debug("Dropping superseded messages", zap.String("conversation", key))
		return nil
	}
	if err != nil {
		logging.Report(s.log, err, "Failed to fetch messages", zap.String("conversation", key))
		return fmt.Errorf("fetch messages: %w", err)
	}

	msgs = s.normalize(msgs, id)
	err = s.modify(id, func(c Conversation) (Conversation, bool) {
		if !s.messageGen.IsCurrent(key, token) {
			return c, false
		}
		c.Messages = mergeMessages(msgs, pendingMessages(c.Messages), id)
		return touchLastMessage(c), true
	})
	if errors.Is(err, ErrConversationNotFound) {
		return nil
	}
	return err
}

// RefreshAll reloads the conversation list and then the messages of every
// conversation.
func (s *Store) RefreshAll(ctx context.Context, userId string) error {
	if err := s.FetchConversations(ctx, userId); err != nil {
		return err
	}

	st := s.state.Get()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, list := range [][]Conversation{st.Pinned, st.Conversations} {
		for _, c := range list {
			if c.IsLocal() {
				continue
			}
			id := c.Id
			g.Go(func() error {
				return s.FetchMessages(gctx, id)
			})
		}
	}
	return g.Wait()
}

func (s *Store) TotalUnread() int {
	st := s.state.Get()
	total := 0
	for _, list := range [][]Conversation{st.Pinned, st.Conversations} {
		for _, c := range list {
			total += c.UnreadCount
		}
	}
	return total
}

// Wait blocks until no delivery is in flight.
func (s *Store) Wait() {
	s.wg.Wait()
}

// Close cancels in-flight deliveries and waits for them to settle.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	if s.detach != nil {
		s.detach()
	}
	return nil
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Store) modify(id ids.ID, fn func(Conversation) (Conversation, bool)) error {
	var found bool
	s.state.Update(func(st State) (State, bool) {
		c, loc, ok := st.find(id)
		if !ok {
			return st, false
		}
		found = true
		next, changed := fn(c)
		if !changed {
			return st, false
		}
		return st.replace(loc, next), true
	})
	if !found {
		return ErrConversationNotFound
	}
	return nil
}

// normalize sets the fields the server leaves implicit and orders msgs by time.
func (s *Store) normalize(msgs []Message, conversationId ids.ID) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		m.ConversationId = conversationId
		m.SentByMe = m.SenderId == s.user
		if m.Status == "" {
			m.Status = StatusSent
		}
		out = append(out, m)
	}
	return mergeMessages(out, nil, conversationId)
}
