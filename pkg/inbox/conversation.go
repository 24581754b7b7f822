package inbox

import (
	"slices"
	"strings"
	"time"

	"github.com/jestr-media/client/pkg/ids"
)

type Partner struct {
	Email    string `msgpack:"email"`
	Username string `msgpack:"username"`
	Avatar   string `msgpack:"avatar"`
}

// partnerKey normalizes an e-mail for identity comparisons.
func partnerKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func samePartner(a Partner, b Partner) bool {
	return partnerKey(a.Email) == partnerKey(b.Email)
}

type LastMessage struct {
	Content   Content   `msgpack:"content"`
	Timestamp time.Time `msgpack:"ts"`
}

type Conversation struct {
	Id                ids.ID      `msgpack:"id"`
	Partner           Partner     `msgpack:"partner"`
	LastMessage       LastMessage `msgpack:"last_message"`
	UnreadCount       int         `msgpack:"unread"`
	LastReadMessageId string      `msgpack:"last_read,omitempty"`
	Pinned            bool        `msgpack:"pinned"`
	Messages          []Message   `msgpack:"messages"`
}

// IsLocal reports whether the conversation was started on this device and
// has not been assigned a server id yet.
func (c Conversation) IsLocal() bool {
	return c.Id.IsLocal()
}

// absorb folds the messages of from that into does not know yet into into.
func absorb(into Conversation, from Conversation) Conversation {
	into.Messages = mergeMessages(into.Messages, from.Messages, into.Id)
	into.Pinned = into.Pinned || from.Pinned
	return touchLastMessage(into)
}

// mergeMessages returns known plus the entries of extra it does not contain,
// matched by id or correlation id, ordered by time.
func mergeMessages(known []Message, extra []Message, conversationId ids.ID) []Message {
	seenIds := make(map[ids.ID]struct{}, len(known))
	seenCorrelations := make(map[string]struct{}, len(known))
	for _, m := range known {
		seenIds[m.Id] = struct{}{}
		if m.CorrelationId != "" {
			seenCorrelations[m.CorrelationId] = struct{}{}
		}
	}

	merged := make([]Message, len(known), len(known)+len(extra))
	copy(merged, known)
	for _, m := range extra {
		if _, ok := seenIds[m.Id]; ok {
			continue
		}
		if _, ok := seenCorrelations[m.CorrelationId]; ok && m.CorrelationId != "" {
			continue
		}
		m.ConversationId = conversationId
		merged = append(merged, m)
	}

	slices.SortStableFunc(merged, func(a, b Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return merged
}

func pendingMessages(msgs []Message) []Message {
	var out []Message
	for _, m := range msgs {
		if m.IsPending() {
			out = append(out, m)
		}
	}
	return out
}

// touchLastMessage moves LastMessage forward to the newest message.
func touchLastMessage(c Conversation) Conversation {
	if len(c.Messages) == 0 {
		return c
	}
	tail := c.Messages[len(c.Messages)-1]
	if tail.Timestamp.Before(c.LastMessage.Timestamp) {
		return c
	}
	c.LastMessage = LastMessage{Content: tail.Content, Timestamp: tail.Timestamp}
	return c
}

// mergeConversations applies a fresh server list to s. Pins and cached
// messages carry over, and local conversations are merged into the server
// conversation with the same partner.
func mergeConversations(s State, server []Conversation) State {
	previous := map[ids.ID]Conversation{}
	pinned := map[ids.ID]bool{}
	locals := map[string]Conversation{}
	for _, c := range s.Pinned {
		previous[c.Id] = c
		pinned[c.Id] = true
	}
	for _, c := range s.Conversations {
		previous[c.Id] = c
	}
	for _, c := range previous {
		if c.IsLocal() {
			locals[partnerKey(c.Partner.Email)] = c
		}
	}

	seen := map[ids.ID]struct{}{}
	var nextPinned, nextUnpinned []Conversation
	for _, c := range server {
		if _, ok := seen[c.Id]; ok {
			continue
		}
		seen[c.Id] = struct{}{}

		isPinned := pinned[c.Id]
		if prev, ok := previous[c.Id]; ok {
			if len(c.Messages) == 0 {
				c.Messages = prev.Messages
			} else {
				c.Messages = mergeMessages(c.Messages, pendingMessages(prev.Messages), c.Id)
			}
			c = touchLastMessage(c)
		}
		if local, ok := locals[partnerKey(c.Partner.Email)]; ok {
			c = absorb(c, local)
			isPinned = isPinned || pinned[local.Id]
			delete(locals, partnerKey(c.Partner.Email))
		}

		c.Pinned = isPinned
		if isPinned {
			nextPinned = append(nextPinned, c)
		} else {
			nextUnpinned = append(nextUnpinned, c)
		}
	}

	// Local conversations without a server counterpart stay in front
	var keepPinned, keepUnpinned []Conversation
	for _, c := range s.Pinned {
		if _, ok := locals[partnerKey(c.Partner.Email)]; ok && c.IsLocal() {
			keepPinned = append(keepPinned, c)
		}
	}
	for _, c := range s.Conversations {
		if _, ok := locals[partnerKey(c.Partner.Email)]; ok && c.IsLocal() {
			keepUnpinned = append(keepUnpinned, c)
		}
	}

	s.Pinned = append(keepPinned, nextPinned...)
	s.Conversations = append(keepUnpinned, nextUnpinned...)
	if s.Pinned == nil {
		s.Pinned = []Conversation{}
	}
	if s.Conversations == nil {
		s.Conversations = []Conversation{}
	}
	return s
}
