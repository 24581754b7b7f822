// Package notifications keeps the in-app notification list and the user's
// notification preferences.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jestr-media/client/pkg/ids"
	"github.com/jestr-media/client/pkg/logging"
	"github.com/jestr-media/client/pkg/persist"
	"github.com/jestr-media/client/pkg/store"
	"go.uber.org/zap"
)

const snapshotKey = "notifications"

var ErrNotificationNotFound = errors.New("notification not found")

type Notification struct {
	Id        int64     `msgpack:"id"`
	Title     string    `msgpack:"title"`
	Message   string    `msgpack:"message"`
	Read      bool      `msgpack:"read"`
	Timestamp time.Time `msgpack:"ts"`
}

type Settings struct {
	Push        bool `msgpack:"push"`
	Email       bool `msgpack:"email"`
	SMS         bool `msgpack:"sms"`
	InApp       bool `msgpack:"in_app"`
	NewFollower bool `msgpack:"new_follower"`
	NewComment  bool `msgpack:"new_comment"`
	NewLike     bool `msgpack:"new_like"`
	Mention     bool `msgpack:"mention"`
	DailyDigest bool `msgpack:"daily_digest"`
}

func DefaultSettings() Settings {
	return Settings{
		Push:        true,
		Email:       true,
		SMS:         false,
		InApp:       true,
		NewFollower: true,
		NewComment:  true,
		NewLike:     true,
		Mention:     true,
		DailyDigest: false,
	}
}

// SettingsPatch changes only the fields that are set.
type SettingsPatch struct {
	Push        *bool
	Email       *bool
	SMS         *bool
	InApp       *bool
	NewFollower *bool
	NewComment  *bool
	NewLike     *bool
	Mention     *bool
	DailyDigest *bool
}

func (p SettingsPatch) apply(s Settings) Settings {
	set := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}
	set(&s.Push, p.Push)
	set(&s.Email, p.Email)
	set(&s.SMS, p.SMS)
	set(&s.InApp, p.InApp)
	set(&s.NewFollower, p.NewFollower)
	set(&s.NewComment, p.NewComment)
	set(&s.NewLike, p.NewLike)
	set(&s.Mention, p.Mention)
	set(&s.DailyDigest, p.DailyDigest)
	return s
}

type State struct {
	Notifications []Notification `msgpack:"notifications"` // newest first
	Settings      Settings       `msgpack:"settings"`
}

type Options struct {
	Logger *zap.Logger
	Sink   persist.Sink

	// NodeId seeds the generator for notification ids
	NodeId int
}

type Store struct {
	state  *store.Store[State]
	ids    *ids.Snowflake
	sink   persist.Sink
	detach func()
	log    *zap.Logger
}

func NewStore(opts Options) *Store {
	s := &Store{
		state: store.New(State{Notifications: []Notification{}, Settings: DefaultSettings()}),
		ids:   ids.NewSnowflake(opts.NodeId),
		sink:  opts.Sink,
		log:   logging.OrNop(opts.Logger),
	}
	if s.sink != nil {
		s.detach = persist.Attach(s.state, s.sink, snapshotKey, func(st State) any { return st }, s.log)
	}
	return s
}

func (s *Store) State() State {
	return s.state.Get()
}

func (s *Store) Subscribe(l store.Listener[State]) func() {
	return s.state.Subscribe(l)
}

// Restore loads the persisted notifications and settings.
func (s *Store) Restore(ctx context.Context) error {
	if s.sink == nil {
		return nil
	}
	var snap State
	found, err := s.sink.Load(ctx, snapshotKey, &snap)
	if err != nil {
		return fmt.Errorf("restore notifications: %w", err)
	}
	if !found {
		return nil
	}
	if snap.Notifications == nil {
		snap.Notifications = []Notification{}
	}
	s.state.Set(snap)
	return nil
}

// Add puts n at the top of the list, assigning an id and timestamp when
// they are missing.
func (s *Store) Add(n Notification) Notification {
	if n.Id == 0 {
		n.Id = s.ids.Gen()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	s.state.Update(func(st State) (State, bool) {
		list := make([]Notification, 0, len(st.Notifications)+1)
		st.Notifications = append(append(list, n), st.Notifications...)
		return st, true
	})
	return n
}

// Set replaces the whole list.
func (s *Store) Set(list []Notification) {
	list = append([]Notification{}, list...)
	s.state.Update(func(st State) (State, bool) {
		st.Notifications = list
		return st, true
	})
}

func (s *Store) MarkAsRead(id int64) error {
	var found bool
	s.state.Update(func(st State) (State, bool) {
		for i, n := range st.Notifications {
			if n.Id != id {
				continue
			}
			found = true
			if n.Read {
				return st, false
			}
			list := append([]Notification{}, st.Notifications...)
			list[i].Read = true
			st.Notifications = list
			return st, true
		}
		return st, false
	})
	if !found {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *Store) UnreadCount() int {
	count := 0
	for _, n := range s.state.Get().Notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

func (s *Store) UpdateSettings(patch SettingsPatch) Settings {
	next, _ := s.state.Update(func(st State) (State, bool) {
		st.Settings = patch.apply(st.Settings)
		return st, true
	})
	return next.Settings
}

// ResetToDefaults restores the default settings and clears the list.
func (s *Store) ResetToDefaults() {
	s.state.Set(State{Notifications: []Notification{}, Settings: DefaultSettings()})
}

func (s *Store) Close() error {
	if s.detach != nil {
		s.detach()
	}
	return nil
}
