package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Envelope wraps every response body.
type Envelope struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// FlexInt decodes counters that arrive as numbers or numeric strings.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = FlexInt(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = FlexInt(f)
	return nil
}

// Cursor is an opaque pagination key. The server sends either a string or
// a key object; both are passed back verbatim.
type Cursor string

func (c *Cursor) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*c = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Cursor(s)
	default:
		*c = Cursor(b)
	}
	return nil
}

func (c Cursor) MarshalJSON() ([]byte, error) {
	if c == "" {
		return []byte("null"), nil
	}
	if json.Valid([]byte(c)) && strings.HasPrefix(string(c), "{") {
		return []byte(c), nil
	}
	return json.Marshal(string(c))
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// Comments

type GetCommentsReq struct {
	MemeID string `json:"memeID" validate:"required"`
}

type WireComment struct {
	CommentID       string  `json:"CommentID"`
	MemeID          string  `json:"MemeID,omitempty"`
	Text            string  `json:"Text"`
	Username        string  `json:"Username"`
	ProfilePicUrl   string  `json:"ProfilePicUrl"`
	Email           string  `json:"Email"`
	LikesCount      FlexInt `json:"LikesCount"`
	DislikesCount   FlexInt `json:"DislikesCount"`
	Timestamp       string  `json:"Timestamp"`
	ParentCommentID *string `json:"ParentCommentID"`
}

type PostCommentReq struct {
	MemeID          string  `json:"memeID" validate:"required"`
	Text            string  `json:"text" validate:"required,max=2000"`
	Email           string  `json:"email" validate:"required,email"`
	Username        string  `json:"username" validate:"required"`
	ProfilePic      string  `json:"profilePic"`
	ParentCommentID *string `json:"ParentCommentID,omitempty"`
}

type UpdateCommentReactionReq struct {
	CommentID         string `json:"commentID" validate:"required"`
	MemeID            string `json:"memeID" validate:"required"`
	IncrementLikes    bool   `json:"incrementLikes"`
	IncrementDislikes bool   `json:"incrementDislikes"`
	UserEmail         string `json:"userEmail"`
}

type DeleteCommentReq struct {
	CommentID string `json:"commentID" validate:"required"`
	MemeID    string `json:"memeID" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
}

// Feed

type FetchMemesReq struct {
	LastEvaluatedKey Cursor `json:"lastEvaluatedKey"`
	UserEmail        string `json:"userEmail" validate:"required,email"`
	Limit            int    `json:"limit" validate:"min=1,max=100"`
}

type WireMeme struct {
	MemeID          string  `json:"memeID"`
	MediaType       string  `json:"mediaType"`
	URL             string  `json:"url"`
	Caption         string  `json:"caption"`
	UploadTimestamp string  `json:"uploadTimestamp"`
	LikeCount       FlexInt `json:"likeCount"`
	DownloadCount   FlexInt `json:"downloadCount"`
	CommentCount    FlexInt `json:"commentCount"`
	ShareCount      FlexInt `json:"shareCount"`
	Username        string  `json:"username"`
	ProfilePicUrl   string  `json:"profilePicUrl"`
	IsFollowed      bool    `json:"isFollowed"`
	Email           string  `json:"email"`
	Liked           bool    `json:"liked"`
}

type FetchMemesResp struct {
	Memes            []WireMeme `json:"memes"`
	LastEvaluatedKey Cursor     `json:"lastEvaluatedKey"`
	LastViewedMemeId string     `json:"lastViewedMemeId,omitempty"`
}

type WireView struct {
	Email  string `json:"email" validate:"required,email"`
	MemeID string `json:"memeID" validate:"required"`
}

type RecordMemeViewsReq struct {
	Views []WireView `json:"views" validate:"required,min=1,dive"`
}

// Inbox

type GetConversationsReq struct {
	UserID string `json:"userID" validate:"required"`
}

type WirePartner struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic"`
}

type WireLastMessage struct {
	Content   string `json:"Content"`
	Timestamp string `json:"Timestamp"`
}

type WireConversation struct {
	ConversationID    string          `json:"ConversationID"`
	PartnerUser       WirePartner     `json:"partnerUser"`
	LastMessage       WireLastMessage `json:"lastMessage"`
	Messages          []WireMessage   `json:"messages,omitempty"`
	UnreadCount       FlexInt         `json:"UnreadCount"`
	LastReadMessageID string          `json:"LastReadMessageID"`
}

type GetConversationsResp struct {
	Conversations []WireConversation `json:"conversations"`
}

type WireMessage struct {
	MessageID      string `json:"MessageID"`
	ConversationID string `json:"ConversationID"`
	SenderID       string `json:"SenderID"`
	ReceiverID     string `json:"ReceiverID"`
	Content        string `json:"Content"`
	Timestamp      string `json:"Timestamp"`
	Status         string `json:"Status"`
	ClientNonce    string `json:"clientNonce,omitempty"`
}

type SendMessageReq struct {
	SenderID    string `json:"senderID" validate:"required"`
	ReceiverID  string `json:"receiverID" validate:"required,nefield=SenderID"`
	Content     string `json:"content" validate:"required,max=5000"`
	ClientNonce string `json:"clientNonce,omitempty"`
}

type SendMessageResp struct {
	MessageID      string `json:"messageID"`
	ConversationID string `json:"conversationID"`
	Timestamp      string `json:"timestamp"`
}

type GetMessagesReq struct {
	UserID         string `json:"userID" validate:"required"`
	ConversationID string `json:"conversationID" validate:"required"`
}
