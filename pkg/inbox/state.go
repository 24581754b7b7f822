package inbox

import "github.com/jestr-media/client/pkg/ids"

type location struct {
	pinned bool
	index  int
}

func (st State) find(id ids.ID) (Conversation, location, bool) {
	for i, c := range st.Pinned {
		if c.Id == id {
			return c, location{pinned: true, index: i}, true
		}
	}
	for i, c := range st.Conversations {
		if c.Id == id {
			return c, location{index: i}, true
		}
	}
	return Conversation{}, location{}, false
}

// findMessage returns the conversation holding the first message matching
// match, along with the message's index.
func (st State) findMessage(match func(Message) bool) (Conversation, location, int, bool) {
	for _, pinned := range []bool{true, false} {
		list := st.Conversations
		if pinned {
			list = st.Pinned
		}
		for i, c := range list {
			for j, m := range c.Messages {
				if match(m) {
					return c, location{pinned: pinned, index: i}, j, true
				}
			}
		}
	}
	return Conversation{}, location{}, 0, false
}

// The helpers below never edit the receiver's slices in place.

func (st State) replace(loc location, c Conversation) State {
	if loc.pinned {
		list := make([]Conversation, len(st.Pinned))
		copy(list, st.Pinned)
		list[loc.index] = c
		st.Pinned = list
	} else {
		list := make([]Conversation, len(st.Conversations))
		copy(list, st.Conversations)
		list[loc.index] = c
		st.Conversations = list
	}
	return st
}

func (st State) remove(loc location) State {
	if loc.pinned {
		st.Pinned = without(st.Pinned, loc.index)
	} else {
		st.Conversations = without(st.Conversations, loc.index)
	}
	return st
}

// prepend adds c to the front of the unpinned list.
func (st State) prepend(c Conversation) State {
	c.Pinned = false
	list := make([]Conversation, 0, len(st.Conversations)+1)
	st.Conversations = append(append(list, c), st.Conversations...)
	return st
}

// push appends c to the end of the pinned or unpinned list.
func (st State) push(pinned bool, c Conversation) State {
	c.Pinned = pinned
	if pinned {
		list := make([]Conversation, 0, len(st.Pinned)+1)
		st.Pinned = append(append(list, st.Pinned...), c)
	} else {
		list := make([]Conversation, 0, len(st.Conversations)+1)
		st.Conversations = append(append(list, st.Conversations...), c)
	}
	return st
}

func without(list []Conversation, i int) []Conversation {
	out := make([]Conversation, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}
