package notifications

import (
	"context"
	"testing"

	"github.com/jestr-media/client/pkg/persist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndMarkAsRead(t *testing.T) {
	s := NewStore(Options{NodeId: 1})

	first := s.Add(Notification{Title: "New follower", Message: "ana followed you"})
	second := s.Add(Notification{Title: "New comment", Message: "ben commented"})
	assert.NotZero(t, first.Id)
	assert.Greater(t, second.Id, first.Id)
	assert.False(t, first.Timestamp.IsZero())

	list := s.State().Notifications
	require.Len(t, list, 2)
	assert.Equal(t, second.Id, list[0].Id)
	assert.Equal(t, 2, s.UnreadCount())

	require.NoError(t, s.MarkAsRead(first.Id))
	require.NoError(t, s.MarkAsRead(first.Id))
	assert.Equal(t, 1, s.UnreadCount())
	assert.ErrorIs(t, s.MarkAsRead(12345), ErrNotificationNotFound)
}

func TestSettings(t *testing.T) {
	s := NewStore(Options{})
	assert.Equal(t, DefaultSettings(), s.State().Settings)

	off, on := false, true
	settings := s.UpdateSettings(SettingsPatch{Push: &off, DailyDigest: &on})
	assert.False(t, settings.Push)
	assert.True(t, settings.DailyDigest)
	assert.True(t, settings.Email)

	s.Add(Notification{Title: "x"})
	s.ResetToDefaults()
	assert.Equal(t, DefaultSettings(), s.State().Settings)
	assert.Empty(t, s.State().Notifications)
}

func TestPersistedAcrossStores(t *testing.T) {
	sink := persist.NewMemorySink()
	s := NewStore(Options{Sink: sink})
	on := true
	s.UpdateSettings(SettingsPatch{SMS: &on})
	n := s.Add(Notification{Title: "Mention", Message: "cleo mentioned you"})
	require.NoError(t, s.Close())

	restored := NewStore(Options{Sink: sink})
	defer restored.Close()
	require.NoError(t, restored.Restore(context.Background()))

	st := restored.State()
	assert.True(t, st.Settings.SMS)
	require.Len(t, st.Notifications, 1)
	assert.Equal(t, n.Id, st.Notifications[0].Id)
	assert.Equal(t, "cleo mentioned you", st.Notifications[0].Message)
}

func TestSetReplacesList(t *testing.T) {
	s := NewStore(Options{})
	s.Add(Notification{Title: "old"})
	s.Set([]Notification{{Id: 7, Title: "a"}, {Id: 8, Title: "b", Read: true}})

	assert.Len(t, s.State().Notifications, 2)
	assert.Equal(t, 1, s.UnreadCount())
}
