package inbox

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jestr-media/client/pkg/ids"
)

type Status string

const (
	StatusSending   Status = "sending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
	StatusFailed    Status = "failed"
)

const SharedItemType = "meme_share"

// SharedItem is a feed item forwarded into a conversation.
type SharedItem struct {
	Type      string `json:"type" msgpack:"type"`
	ItemId    string `json:"memeID" msgpack:"item_id"`
	Message   string `json:"message,omitempty" msgpack:"message,omitempty"`
	MediaType string `json:"mediaType,omitempty" msgpack:"media_type,omitempty"`
}

// Content is either plain text or a shared item.
type Content struct {
	Text   string      `msgpack:"text,omitempty"`
	Shared *SharedItem `msgpack:"shared,omitempty"`
}

func TextContent(text string) Content {
	return Content{Text: text}
}

func ShareContent(itemId string, message string, mediaType string) Content {
	return Content{Shared: &SharedItem{
		Type:      SharedItemType,
		ItemId:    itemId,
		Message:   message,
		MediaType: mediaType,
	}}
}

func (c Content) IsEmpty() bool {
	return c.Shared == nil && strings.TrimSpace(c.Text) == ""
}

// Encode returns the wire form: text as is, shared items as a JSON string.
func (c Content) Encode() (string, error) {
	if c.Shared == nil {
		return c.Text, nil
	}
	data, err := json.Marshal(c.Shared)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeContent parses the wire form. Anything that is not a shared item
// object is treated as text.
func DecodeContent(raw string) Content {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var shared SharedItem
		if err := json.Unmarshal([]byte(trimmed), &shared); err == nil && shared.Type == SharedItemType {
			return Content{Shared: &shared}
		}
	}
	return Content{Text: raw}
}

// Preview is the one-line form shown in the conversation list.
func (c Content) Preview() string {
	if c.Shared == nil {
		return c.Text
	}
	if c.Shared.Message != "" {
		return c.Shared.Message
	}
	return "Shared a meme"
}

type Message struct {
	Id             ids.ID    `msgpack:"id"`
	CorrelationId  string    `msgpack:"correlation_id,omitempty"`
	ConversationId ids.ID    `msgpack:"conversation_id"`
	SenderId       string    `msgpack:"sender_id"`
	ReceiverId     string    `msgpack:"receiver_id"`
	Content        Content   `msgpack:"content"`
	Timestamp      time.Time `msgpack:"ts"`
	Status         Status    `msgpack:"status"`
	SentByMe       bool      `msgpack:"sent_by_me"`
}

// IsPending reports whether the message only exists on this device.
func (m Message) IsPending() bool {
	return m.Id.IsLocal()
}
