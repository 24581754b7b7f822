package devserver

import (
	"net/http"
	"sort"

	"github.com/jestr-media/client/pkg/api"
)

func (s *Server) getConversations(w http.ResponseWriter, r *http.Request) {
	var body api.GetConversationsReq
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]api.WireConversation, 0)
	for _, c := range s.conversations {
		partner, ok := c.partnerOf(body.UserID)
		if !ok {
			continue
		}
		wire := api.WireConversation{
			ConversationID:    c.id,
			PartnerUser:       s.partner(partner),
			LastReadMessageID: c.lastRead[body.UserID],
		}
		if n := len(c.messages); n > 0 {
			last := c.messages[n-1]
			wire.LastMessage = api.WireLastMessage{Content: last.Content, Timestamp: last.Timestamp}
		}
		for _, m := range c.messages {
			if m.ReceiverID == body.UserID && m.Status != "read" {
				wire.UnreadCount++
			}
		}
		list = append(list, wire)
	}

	// Most recent first
	sort.Slice(list, func(i, j int) bool {
		if list[i].LastMessage.Timestamp == list[j].LastMessage.Timestamp {
			return list[i].ConversationID > list[j].ConversationID
		}
		return list[i].LastMessage.Timestamp > list[j].LastMessage.Timestamp
	})

	returnData(w, http.StatusOK, api.GetConversationsResp{Conversations: list})
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	var body api.SendMessageReq
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Get or create conversation
	var conv *conversation
	for _, c := range s.conversations {
		if partner, ok := c.partnerOf(body.SenderID); ok && partner == body.ReceiverID {
			conv = c
			break
		}
	}
	if conv == nil {
		conv = &conversation{
			id:           s.ids.GenString(),
			participants: [2]string{body.SenderID, body.ReceiverID},
			lastRead:     map[string]string{},
		}
		s.conversations[conv.id] = conv
	}

	msg := api.WireMessage{
		MessageID:      s.ids.GenString(),
		ConversationID: conv.id,
		SenderID:       body.SenderID,
		ReceiverID:     body.ReceiverID,
		Content:        body.Content,
		Timestamp:      s.timestamp(),
		Status:         "sent",
		ClientNonce:    body.ClientNonce,
	}
	conv.messages = append(conv.messages, msg)

	returnData(w, http.StatusCreated, api.SendMessageResp{
		MessageID:      msg.MessageID,
		ConversationID: conv.id,
		Timestamp:      msg.Timestamp,
	})
}

func (s *Server) getMessages(w http.ResponseWriter, r *http.Request) {
	var body api.GetMessagesReq
	if !decodeBody(w, r, &body) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[body.ConversationID]
	if !ok {
		returnErr(w, http.StatusNotFound, ErrNotFound, nil)
		return
	}
	if _, ok := conv.partnerOf(body.UserID); !ok {
		returnErr(w, http.StatusForbidden, ErrForbidden, nil)
		return
	}

	// Reading marks everything addressed to the reader as read
	out := make([]api.WireMessage, len(conv.messages))
	copy(out, conv.messages)
	for i := range conv.messages {
		if conv.messages[i].ReceiverID == body.UserID {
			conv.messages[i].Status = "read"
		}
	}
	if n := len(conv.messages); n > 0 {
		conv.lastRead[body.UserID] = conv.messages[n-1].MessageID
	}

	returnData(w, http.StatusOK, out)
}
