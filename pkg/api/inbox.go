package api

import (
	"context"

	"github.com/jestr-media/client/pkg/ids"
	"github.com/jestr-media/client/pkg/inbox"
)

var _ inbox.API = (*Client)(nil)

func (c *Client) FetchConversations(ctx context.Context, userId string) ([]inbox.Conversation, error) {
	var resp GetConversationsResp
	if err := c.do(ctx, "getConversations", GetConversationsReq{UserID: userId}, &resp); err != nil {
		return nil, err
	}

	out := make([]inbox.Conversation, 0, len(resp.Conversations))
	for _, w := range resp.Conversations {
		out = append(out, w.toConversation())
	}
	return out, nil
}

func (c *Client) SendMessage(ctx context.Context, req inbox.SendRequest) (inbox.SendResult, error) {
	content, err := req.Content.Encode()
	if err != nil {
		return inbox.SendResult{}, err
	}

	var resp SendMessageResp
	if err := c.do(ctx, "sendMessage", SendMessageReq{
		SenderID:    req.SenderId,
		ReceiverID:  req.ReceiverId,
		Content:     content,
		ClientNonce: req.CorrelationId,
	}, &resp); err != nil {
		return inbox.SendResult{}, err
	}
	return inbox.SendResult{
		MessageId:      resp.MessageID,
		ConversationId: resp.ConversationID,
		Timestamp:      parseTime(resp.Timestamp),
	}, nil
}

func (c *Client) FetchMessages(ctx context.Context, userId string, conversationId ids.ID) ([]inbox.Message, error) {
	var wire []WireMessage
	if err := c.do(ctx, "getMessages", GetMessagesReq{
		UserID:         userId,
		ConversationID: conversationId.String(),
	}, &wire); err != nil {
		return nil, err
	}

	out := make([]inbox.Message, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toMessage())
	}
	return out, nil
}

func (w WireConversation) toConversation() inbox.Conversation {
	conv := inbox.Conversation{
		Id: ids.Server(w.ConversationID),
		Partner: inbox.Partner{
			Email:    w.PartnerUser.Email,
			Username: w.PartnerUser.Username,
			Avatar:   w.PartnerUser.ProfilePic,
		},
		LastMessage: inbox.LastMessage{
			Content:   inbox.DecodeContent(w.LastMessage.Content),
			Timestamp: parseTime(w.LastMessage.Timestamp),
		},
		UnreadCount:       max(int(w.UnreadCount), 0),
		LastReadMessageId: w.LastReadMessageID,
	}
	for _, m := range w.Messages {
		conv.Messages = append(conv.Messages, m.toMessage())
	}
	return conv
}

func (w WireMessage) toMessage() inbox.Message {
	status := inbox.Status(w.Status)
	switch status {
	case inbox.StatusSent, inbox.StatusDelivered, inbox.StatusRead:
	default:
		status = inbox.StatusSent
	}
	return inbox.Message{
		Id:             ids.Server(w.MessageID),
		CorrelationId:  w.ClientNonce,
		ConversationId: ids.Server(w.ConversationID),
		SenderId:       w.SenderID,
		ReceiverId:     w.ReceiverID,
		Content:        inbox.DecodeContent(w.Content),
		Timestamp:      parseTime(w.Timestamp),
		Status:         status,
	}
}
